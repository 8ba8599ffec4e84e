// Package store holds the persistence layer: repository interfaces with a
// MongoDB implementation and an in-memory one.
package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/sehaty-api/internal/models"
)

// ProfileUpdate carries the optional fields of a profile edit. Nil means unchanged.
type ProfileUpdate struct {
	Name            *string
	Phone           *string
	DateOfBirth     *time.Time
	Gender          *string
	BloodType       *string
	Specialty       *string
	LicenseNumber   *string
	ConsultationFee *float64
	Address         *string
	Description     *string
}

func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Phone == nil && p.DateOfBirth == nil && p.Gender == nil &&
		p.BloodType == nil && p.Specialty == nil && p.LicenseNumber == nil &&
		p.ConsultationFee == nil && p.Address == nil && p.Description == nil
}

// ProviderFilter narrows the provider directory.
type ProviderFilter struct {
	Role      string
	Specialty string
	Query     string // case-insensitive substring of the name
	Limit     int
}

// AppointmentRef is an embedded appointment together with its owning patient.
type AppointmentRef struct {
	OwnerID     primitive.ObjectID
	Appointment models.Appointment
}

// Cancellation is the set of fields written when an appointment is cancelled.
type Cancellation struct {
	At     time.Time
	By     primitive.ObjectID
	Reason string
	Fee    float64
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error
	ListProviders(ctx context.Context, f ProviderFilter) ([]models.User, error)

	PushAppointment(ctx context.Context, userID primitive.ObjectID, a models.Appointment) error
	PushActivity(ctx context.Context, userID primitive.ObjectID, a models.Activity) error
	PushPrescription(ctx context.Context, userID primitive.ObjectID, p models.EmbeddedPrescription) error
	PushHealthRecord(ctx context.Context, userID primitive.ObjectID, r models.HealthRecord) error

	// FindAppointment locates an embedded appointment by its own id.
	FindAppointment(ctx context.Context, appointmentID primitive.ObjectID) (*AppointmentRef, error)
	// CancelAppointment writes c onto the embedded appointment only while its
	// status is still fromStatus. It returns ErrNotFound when nothing matched.
	CancelAppointment(ctx context.Context, ownerID, appointmentID primitive.ObjectID, fromStatus string, c Cancellation) error
	// MarkReminderSent sets the reminder flag of a still scheduled appointment
	// and reports whether it did.
	MarkReminderSent(ctx context.Context, ownerID, appointmentID primitive.ObjectID) (bool, error)
	ListDoctorAppointments(ctx context.Context, doctorID primitive.ObjectID) ([]models.Appointment, error)
	// ListScheduledBetween returns scheduled appointments whose date falls in [from, to).
	ListScheduledBetween(ctx context.Context, from, to time.Time) ([]AppointmentRef, error)
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *models.Prescription) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Prescription, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Prescription, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, at time.Time) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, id primitive.ObjectID) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// Store bundles the repositories handed to services.
type Store struct {
	Users         UserRepository
	Prescriptions PrescriptionRepository
	Notifications NotificationRepository
}
