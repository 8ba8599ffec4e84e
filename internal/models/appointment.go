package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// DateLayout is the calendar-day format accepted and rendered for appointment dates.
const DateLayout = "2006-01-02"

// Appointment is embedded in the patient's user document.
type Appointment struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	DoctorID    primitive.ObjectID `bson:"doctorId" json:"doctorId"`
	DoctorName  string             `bson:"doctorName" json:"doctorName"`
	PatientID   primitive.ObjectID `bson:"patientId" json:"patientId"`
	PatientName string             `bson:"patientName" json:"patientName"`
	Date        time.Time          `bson:"date" json:"date"`
	Time        string             `bson:"time" json:"time"` // HH:MM
	Status      string             `bson:"status" json:"status"`
	Reason      string             `bson:"reason,omitempty" json:"reason,omitempty"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`

	CancelledAt        *time.Time          `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancelledBy        *primitive.ObjectID `bson:"cancelledBy,omitempty" json:"cancelledBy,omitempty"`
	CancellationReason string              `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	CancellationFee    float64             `bson:"cancellationFee" json:"cancellationFee"`
	ReminderSent       bool                `bson:"reminderSent" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// StartsAt combines the calendar date and the HH:MM time into one instant.
// An empty or malformed time falls back to the start of the day.
func (a *Appointment) StartsAt() time.Time {
	y, m, d := a.Date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, a.Date.Location())
	if hm, err := time.Parse("15:04", a.Time); err == nil {
		start = start.Add(time.Duration(hm.Hour())*time.Hour + time.Duration(hm.Minute())*time.Minute)
	}
	return start
}

// ParseDate accepts either a calendar day or an RFC3339 timestamp
// and normalises it to UTC midnight.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD or RFC3339", s)
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// ValidTimeOfDay reports whether s is a 24h HH:MM clock time.
func ValidTimeOfDay(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}
