package workflow

import (
	"errors"
	"fmt"
	"time"

	"travelease/internal/models"
)

const dateLayout = "2006-01-02"

// Wizard steps
const (
	StepTripDetails  = 1
	StepPersonalInfo = 2
	StepReview       = 3
)

var (
	ErrUnknownField   = errors.New("unknown draft field")
	ErrUnknownCounter = errors.New("unknown guest counter")
	ErrBadDate        = errors.New("dates must be formatted YYYY-MM-DD")
	ErrStartRequired  = errors.New("start date is required")
	ErrStartInPast    = errors.New("start date cannot be in the past")
	ErrEndBeforeStart = errors.New("end date cannot be before the start date")
)

// Draft holds the trip and contact fields the user fills in across the
// wizard. It lives only inside one workflow instance and is never persisted.
type Draft struct {
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	Adults          int    `json:"adults"`
	Children        int    `json:"children"`
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Country         string `json:"country"`
	SpecialRequests string `json:"special_requests"`
}

func NewDraft() *Draft {
	return &Draft{
		Adults:   2,
		Children: 0,
	}
}

// SetField sets a single field by name. No cross-field validation happens
// here; the date range is only checked on step advance and on submit.
func (d *Draft) SetField(name, value string) error {
	switch name {
	case "start_date":
		d.StartDate = value
	case "end_date":
		d.EndDate = value
	case "full_name":
		d.FullName = value
	case "email":
		d.Email = value
	case "phone":
		d.Phone = value
	case "country":
		d.Country = value
	case "special_requests":
		d.SpecialRequests = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return nil
}

// AdjustGuests bumps a guest counter by delta, clamped at the floor.
// Decrementing below the floor is a no-op; there is no upper bound.
func (d *Draft) AdjustGuests(counter string, delta int) error {
	switch counter {
	case "adults":
		d.Adults += delta
		if d.Adults < 1 {
			d.Adults = 1
		}
	case "children":
		d.Children += delta
		if d.Children < 0 {
			d.Children = 0
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCounter, counter)
	}
	return nil
}

// ApplyProfile fills contact fields from the user's profile, but only the
// ones still empty. Fields the user already typed into are never
// overwritten, so this is idempotent and safe on every profile update.
func (d *Draft) ApplyProfile(p *models.Profile) {
	if p == nil {
		return
	}
	if d.FullName == "" {
		d.FullName = p.FullName
	}
	if d.Email == "" {
		d.Email = p.Email
	}
	if d.Phone == "" {
		d.Phone = p.Phone
	}
	if d.Country == "" {
		d.Country = p.Country
	}
}

// ValidateTripDetails enforces the date-range invariant: both dates set,
// endDate >= startDate >= today. Used as the step-advance guard and
// re-checked before submitting.
func (d *Draft) ValidateTripDetails(now time.Time) error {
	if d.StartDate == "" {
		return ErrStartRequired
	}
	start, err := time.Parse(dateLayout, d.StartDate)
	if err != nil {
		return ErrBadDate
	}
	end, err := time.Parse(dateLayout, d.EndDate)
	if err != nil {
		return ErrBadDate
	}

	today, _ := time.Parse(dateLayout, now.Format(dateLayout))
	if start.Before(today) {
		return ErrStartInPast
	}
	if end.Before(start) {
		return ErrEndBeforeStart
	}
	return nil
}

// DateBounds returns the minimum selectable start and end dates: today for
// the start picker, and the chosen start date (or today) for the end picker.
func (d *Draft) DateBounds(now time.Time) (startMin, endMin string) {
	startMin = now.Format(dateLayout)
	endMin = startMin
	if start, err := time.Parse(dateLayout, d.StartDate); err == nil {
		endMin = start.Format(dateLayout)
	}
	return startMin, endMin
}
