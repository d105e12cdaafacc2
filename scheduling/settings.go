package scheduling

import (
	"time"

	"salonpro-scheduler/models"
)

// Window is a branch's operating hours for one day.
type Window struct {
	Open  models.Clock
	Close models.Clock
}

func DefaultWindow() Window {
	return Window{Open: models.NewClock(9, 0), Close: models.NewClock(18, 0)}
}

func (w Window) Validate() error {
	if err := ValidateInterval(w.Open, w.Close); err != nil {
		return Invalid("invalid business hours %s-%s", w.Open, w.Close).Wrap(err)
	}
	return nil
}

// Settings are the tunables passed into the engine at call time.
type Settings struct {
	Window                Window
	SlotMinutes           int
	SuggestionStepMinutes int
	BufferMinutes         int
	WaitlistTTL           time.Duration
	Location              *time.Location
}

func DefaultSettings() Settings {
	return Settings{
		Window:                DefaultWindow(),
		SlotMinutes:           30,
		SuggestionStepMinutes: 30,
		WaitlistTTL:           7 * 24 * time.Hour,
		Location:              time.UTC,
	}
}
