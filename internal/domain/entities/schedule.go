package entities

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/carelane/clinic-scheduling/pkg/errors"
)

// Weekday is the day-of-week a schedule template recurs on. The ordinal
// values match time.Weekday (Sunday = 0) so a calendar date maps directly.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [7]string{
	"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

// String returns the lowercase weekday name
func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// Valid reports whether w is one of the seven weekdays
func (w Weekday) Valid() bool {
	return w >= Sunday && w <= Saturday
}

// ParseWeekday parses a lowercase or capitalized weekday name
func ParseWeekday(s string) (Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range weekdayNames {
		if n == name {
			return Weekday(i), nil
		}
	}
	return 0, apperrors.NewValidationError(apperrors.CodeInvalidInput, fmt.Sprintf("unknown weekday %q", s))
}

// MarshalJSON emits the weekday name rather than its ordinal
func (w Weekday) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

// UnmarshalJSON accepts a weekday name
func (w *Weekday) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseWeekday(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// CivilDateLayout is the wire format for civil dates
const CivilDateLayout = "2006-01-02"

// CivilDate is a calendar date with no time-of-day and no timezone. The
// weekday is derived from the calendar alone, never from a client clock.
type CivilDate struct {
	t time.Time
}

// ParseCivilDate parses a YYYY-MM-DD string
func ParseCivilDate(s string) (CivilDate, error) {
	t, err := time.Parse(CivilDateLayout, s)
	if err != nil {
		return CivilDate{}, apperrors.NewValidationError(apperrors.CodeInvalidInput, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
	}
	return CivilDate{t: t}, nil
}

// CivilDateOf truncates a time.Time to its calendar date
func CivilDateOf(t time.Time) CivilDate {
	year, month, day := t.Date()
	return CivilDate{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current civil date
func Today() CivilDate {
	return CivilDateOf(time.Now())
}

// Weekday returns the day of week of the date
func (d CivilDate) Weekday() Weekday {
	return Weekday(d.t.Weekday())
}

// Before reports whether d is strictly before other
func (d CivilDate) Before(other CivilDate) bool {
	return d.t.Before(other.t)
}

// Equal reports whether two civil dates are the same calendar day
func (d CivilDate) Equal(other CivilDate) bool {
	return d.t.Equal(other.t)
}

// IsZero reports whether the date is unset
func (d CivilDate) IsZero() bool {
	return d.t.IsZero()
}

// AddDays returns the date n days later
func (d CivilDate) AddDays(n int) CivilDate {
	return CivilDate{t: d.t.AddDate(0, 0, n)}
}

// Time returns the date at midnight UTC, for persistence
func (d CivilDate) Time() time.Time {
	return d.t
}

// String returns the YYYY-MM-DD form
func (d CivilDate) String() string {
	return d.t.Format(CivilDateLayout)
}

// MarshalJSON emits the date as YYYY-MM-DD
func (d CivilDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a YYYY-MM-DD string
func (d *CivilDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCivilDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeOfDay is a zero-padded "HH:MM" clock time. Zero-padding makes the
// lexicographic order the chronological order.
type TimeOfDay string

// Validate checks the HH:MM form
func (t TimeOfDay) Validate() error {
	if _, err := time.Parse("15:04", string(t)); err != nil {
		return apperrors.NewValidationError(apperrors.CodeInvalidInput, fmt.Sprintf("invalid time of day %q, expected HH:MM", t))
	}
	return nil
}

// Before reports whether t is strictly earlier than other
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return string(t) < string(other)
}

// ScheduleTemplate is a recurring weekly availability rule for a doctor: a
// room, a time window on one weekday, and the number of appointments the
// window can hold on any given date.
type ScheduleTemplate struct {
	ID          string    `json:"id" db:"id"`
	DoctorID    string    `json:"doctor_id" db:"doctor_id"`
	Weekday     Weekday   `json:"weekday" db:"weekday"`
	RoomID      string    `json:"room_id" db:"room_id"`
	StartTime   TimeOfDay `json:"start_time" db:"start_time"`
	EndTime     TimeOfDay `json:"end_time" db:"end_time"`
	MaxCapacity int       `json:"max_capacity" db:"max_capacity"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks the template's window and capacity
func (t *ScheduleTemplate) Validate() error {
	if t.DoctorID == "" {
		return apperrors.NewValidationError(apperrors.CodeInvalidInput, "doctor id is required")
	}
	if !t.Weekday.Valid() {
		return apperrors.NewValidationError(apperrors.CodeInvalidInput, "weekday must be one of the seven days")
	}
	if err := t.StartTime.Validate(); err != nil {
		return err
	}
	if err := t.EndTime.Validate(); err != nil {
		return err
	}
	if !t.StartTime.Before(t.EndTime) {
		return apperrors.NewValidationError(apperrors.CodeInvalidWindow, "start time must be before end time")
	}
	if t.MaxCapacity < 1 {
		return apperrors.NewValidationError(apperrors.CodeInvalidWindow, "max capacity must be at least 1")
	}
	return nil
}

// Slot is the concrete, date-specific instantiation of a schedule template.
// It is derived on every availability query and never persisted: the booked
// count must reflect the latest commits.
type Slot struct {
	ScheduleID  string    `json:"schedule_id"`
	Date        CivilDate `json:"date"`
	StartTime   TimeOfDay `json:"start_time"`
	EndTime     TimeOfDay `json:"end_time"`
	RoomID      string    `json:"room_id"`
	MaxCapacity int       `json:"max_capacity"`
	BookedCount int       `json:"booked_count"`
	Available   bool      `json:"available"`
}

// NewSlot materializes a template on a concrete date with a live count
func NewSlot(template *ScheduleTemplate, date CivilDate, bookedCount int) Slot {
	return Slot{
		ScheduleID:  template.ID,
		Date:        date,
		StartTime:   template.StartTime,
		EndTime:     template.EndTime,
		RoomID:      template.RoomID,
		MaxCapacity: template.MaxCapacity,
		BookedCount: bookedCount,
		Available:   bookedCount < template.MaxCapacity,
	}
}

// DoctorAvailability groups a doctor's slots for one date
type DoctorAvailability struct {
	Doctor *Doctor `json:"doctor"`
	Slots  []Slot  `json:"slots"`
}
