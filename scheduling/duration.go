package scheduling

import (
	"github.com/google/uuid"

	"salonpro-scheduler/models"
)

// ServiceSelection is a catalog service already resolved at call time.
type ServiceSelection struct {
	ServiceID       uuid.UUID
	Name            string
	Price           float64
	DurationMinutes int
	CommissionRate  float64
}

type Resolution struct {
	TotalAmount          float64
	TotalDurationMinutes int
}

// DurationResolver sums service prices and durations. BufferMinutes is added
// once per appointment.
type DurationResolver struct {
	BufferMinutes int
}

func (r DurationResolver) Resolve(selections []ServiceSelection) (Resolution, error) {
	if len(selections) == 0 {
		return Resolution{}, Invalid("at least one service is required")
	}
	var res Resolution
	for _, s := range selections {
		if s.DurationMinutes <= 0 {
			return Resolution{}, Invalid("service %q has no duration", s.Name).Arg("serviceId", s.ServiceID)
		}
		if s.Price < 0 {
			return Resolution{}, Invalid("service %q has a negative price", s.Name).Arg("serviceId", s.ServiceID)
		}
		res.TotalAmount += s.Price
		res.TotalDurationMinutes += s.DurationMinutes
	}
	if r.BufferMinutes > 0 {
		res.TotalDurationMinutes += r.BufferMinutes
	}
	return res, nil
}

// ReconcileEndTime honors explicit only when it equals start+computed.
func ReconcileEndTime(start models.Clock, explicit *models.Clock, computedMinutes int) models.Clock {
	computed := start.Add(computedMinutes)
	if explicit != nil && *explicit == computed {
		return *explicit
	}
	return computed
}

// LineItems converts selections into appointment line items.
func LineItems(selections []ServiceSelection) []models.AppointmentService {
	items := make([]models.AppointmentService, 0, len(selections))
	for _, s := range selections {
		items = append(items, models.AppointmentService{
			ServiceID:       s.ServiceID,
			ServiceName:     s.Name,
			Price:           s.Price,
			CommissionRate:  s.CommissionRate,
			DurationMinutes: s.DurationMinutes,
		})
	}
	return items
}
