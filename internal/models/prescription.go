package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PrescriptionActive    = "active"
	PrescriptionCompleted = "completed"
	PrescriptionCancelled = "cancelled"
)

var Frequencies = []string{
	"once-daily",
	"twice-daily",
	"three-times-daily",
	"four-times-daily",
	"as-needed",
	"weekly",
}

func ValidFrequency(f string) bool {
	for _, v := range Frequencies {
		if v == f {
			return true
		}
	}
	return false
}

func ValidPrescriptionStatus(s string) bool {
	switch s {
	case PrescriptionActive, PrescriptionCompleted, PrescriptionCancelled:
		return true
	}
	return false
}

// PrescriptionFields is shared by the embedded and the standalone prescription.
type PrescriptionFields struct {
	Medication   string             `bson:"medication" json:"medication"`
	Dosage       string             `bson:"dosage" json:"dosage"`
	Frequency    string             `bson:"frequency" json:"frequency"`
	StartDate    time.Time          `bson:"startDate" json:"startDate"`
	EndDate      *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Status       string             `bson:"status" json:"status"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	PrescribedBy primitive.ObjectID `bson:"prescribedBy,omitempty" json:"prescribedBy,omitempty"`
}

// EmbeddedPrescription lives inside the user document and feeds the dashboard.
type EmbeddedPrescription struct {
	ID                 primitive.ObjectID `bson:"_id" json:"id"`
	PrescriptionFields `bson:",inline"`
}

// Prescription is a document of the standalone prescriptions collection.
type Prescription struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID `bson:"userId" json:"userId"`
	PrescriptionFields `bson:",inline"`
	CreatedAt          time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time `bson:"updatedAt" json:"updatedAt"`
}
