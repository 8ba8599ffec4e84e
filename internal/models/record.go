package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type HealthRecord struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Type        string             `bson:"type" json:"type"` // e.g. "lab", "diagnosis", "vaccination"
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Date        time.Time          `bson:"date" json:"date"`
	DoctorID    primitive.ObjectID `bson:"doctorId,omitempty" json:"doctorId,omitempty"`
}

const (
	ActivityAppointmentBooked    = "appointment_booked"
	ActivityAppointmentCancelled = "appointment_cancelled"
	ActivityPrescriptionAdded    = "prescription_added"
	ActivityHealthRecordAdded    = "health_record_added"
)

// Activity is an entry of the per-user recent activity log.
type Activity struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Type        string             `bson:"type" json:"type"`
	Description string             `bson:"description" json:"description"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
	RelatedID   primitive.ObjectID `bson:"relatedId,omitempty" json:"relatedId,omitempty"`
}
