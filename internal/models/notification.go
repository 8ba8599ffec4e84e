package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NotificationAppointmentBooked    = "appointment_booked"
	NotificationAppointmentCancelled = "appointment_cancelled"
	NotificationAppointmentReminder  = "appointment_reminder"
)

type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Type      string             `bson:"type" json:"type"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	Read      bool               `bson:"read" json:"read"`
	RelatedID primitive.ObjectID `bson:"relatedId,omitempty" json:"relatedId,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
