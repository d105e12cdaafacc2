package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the largest valid Clock value, 24:00.
const MinutesPerDay = 24 * 60

// Clock is a wall-clock time of day in minutes since midnight. It is stored as
// a postgres TIME and serialized as "15:04".
type Clock int

func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock accepts "15:04" and "15:04:05". Seconds are dropped.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	c := NewClock(h, m)
	if h < 0 || c > MinutesPerDay {
		return 0, fmt.Errorf("time %q is out of range", s)
	}
	return c, nil
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) Add(minutes int) Clock { return c + Clock(minutes) }

// Sub returns c - o in minutes.
func (c Clock) Sub(o Clock) int { return int(c - o) }

func (c Clock) Valid() bool { return c >= 0 && c <= MinutesPerDay }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Clock) Value() (driver.Value, error) {
	return fmt.Sprintf("%02d:%02d:00", c.Hour(), c.Minute()), nil
}

func (c *Clock) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*c = NewClock(v.Hour(), v.Minute())
		return nil
	case string:
		parsed, err := ParseClock(v)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case []byte:
		return c.Scan(string(v))
	case int64:
		// microseconds since midnight, as some drivers report TIME values
		*c = Clock(v / int64(time.Minute/time.Microsecond))
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Clock", value)
	}
}
