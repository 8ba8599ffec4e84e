package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/sehaty-api/internal/apperrors"
	"github.com/harentsoaR/sehaty-api/internal/events"
	"github.com/harentsoaR/sehaty-api/internal/models"
	"github.com/harentsoaR/sehaty-api/internal/store"
)

type BookInput struct {
	DoctorID primitive.ObjectID
	Date     string
	Time     string
	Notes    string
	Reason   string
}

// AppointmentFilter narrows a patient's appointment list. Zero values match everything.
type AppointmentFilter struct {
	Status string
	From   time.Time
	To     time.Time
}

type CancelResult struct {
	Appointment     models.Appointment `json:"appointment"`
	CancellationFee float64            `json:"cancellationFee"`
}

type AppointmentService struct {
	users         store.UserRepository
	notifications *NotificationService
	publisher     events.Publisher
	log           zerolog.Logger
	now           func() time.Time
}

func NewAppointmentService(st *store.Store, notifications *NotificationService, publisher events.Publisher, log zerolog.Logger) *AppointmentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &AppointmentService{
		users:         st.Users,
		notifications: notifications,
		publisher:     publisher,
		log:           log,
		now:           time.Now,
	}
}

// Book appends a scheduled appointment to the patient's document. There is
// no slot conflict check: the same doctor/date/time can be booked any
// number of times.
func (s *AppointmentService) Book(ctx context.Context, patientID primitive.ObjectID, in BookInput) (*models.Appointment, error) {
	date, err := models.ParseDate(in.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if !models.ValidTimeOfDay(in.Time) {
		return nil, fmt.Errorf("%w: time must be HH:MM", apperrors.ErrValidation)
	}

	patient, err := s.users.FindByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if patient.Role != models.RolePatient {
		return nil, fmt.Errorf("%w: only patients can book appointments", apperrors.ErrForbidden)
	}
	doctor, err := s.users.FindByID(ctx, in.DoctorID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if err != nil || doctor.Role != models.RoleDoctor {
		return nil, fmt.Errorf("doctor: %w", apperrors.ErrNotFound)
	}

	now := s.now().UTC()
	apt := models.Appointment{
		ID:          primitive.NewObjectID(),
		DoctorID:    doctor.ID,
		DoctorName:  doctor.Name,
		PatientID:   patient.ID,
		PatientName: patient.Name,
		Date:        date,
		Time:        in.Time,
		Status:      models.StatusScheduled,
		Notes:       strings.TrimSpace(in.Notes),
		Reason:      strings.TrimSpace(in.Reason),
		CreatedAt:   now,
	}
	if err := s.users.PushAppointment(ctx, patient.ID, apt); err != nil {
		return nil, fmt.Errorf("save appointment: %w", err)
	}

	// The activity entry is a second, independent write. If it fails the
	// appointment stands and the log is simply missing the entry.
	s.recordActivity(ctx, patient.ID, models.Activity{
		Type:        models.ActivityAppointmentBooked,
		Description: fmt.Sprintf("Booked appointment with %s on %s at %s", doctor.Name, date.Format(models.DateLayout), apt.Time),
		RelatedID:   apt.ID,
	})

	if _, err := s.notifications.Notify(ctx, doctor, models.NotificationAppointmentBooked,
		"New appointment",
		fmt.Sprintf("%s booked %s at %s", patient.Name, date.Format(models.DateLayout), apt.Time),
		apt.ID,
	); err != nil {
		s.log.Warn().Err(err).Str("appointment_id", apt.ID.Hex()).Msg("doctor not notified")
	}
	s.publish(ctx, events.AppointmentCreated, apt, 0)

	s.log.Info().Str("appointment_id", apt.ID.Hex()).Str("doctor_id", doctor.ID.Hex()).Msg("appointment booked")
	return &apt, nil
}

func (s *AppointmentService) ListForPatient(ctx context.Context, userID primitive.ObjectID, f AppointmentFilter) ([]models.Appointment, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Appointment, 0, len(u.Appointments))
	for _, a := range u.Appointments {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && a.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && a.Date.After(f.To) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartsAt().After(out[j].StartsAt()) })
	return out, nil
}

func (s *AppointmentService) ListForDoctor(ctx context.Context, doctorID primitive.ObjectID, role string) ([]models.Appointment, error) {
	if role != models.RoleDoctor {
		return nil, fmt.Errorf("%w: only doctors have a schedule", apperrors.ErrForbidden)
	}
	return s.users.ListDoctorAppointments(ctx, doctorID)
}

// Cancel resolves the caller's relation to the appointment, applies the
// state table and the late-cancellation fee, and stores the annotated
// appointment.
func (s *AppointmentService) Cancel(ctx context.Context, actorID primitive.ObjectID, actorRole string, appointmentID primitive.ObjectID, reason string) (*CancelResult, error) {
	ref, err := s.users.FindAppointment(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("appointment: %w", err)
	}
	apt := ref.Appointment

	var actor Actor
	switch {
	case actorID == ref.OwnerID:
		actor = ActorPatient
	case actorID == apt.DoctorID:
		actor = ActorDoctor
	case actorRole == models.RoleClinic:
		actor = ActorClinic
	default:
		return nil, apperrors.ErrForbidden
	}

	if err := CheckCancellation(apt.Status, actor); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	fee := CancellationFee(actor, apt.StartsAt(), now)
	c := store.Cancellation{At: now, By: actorID, Reason: strings.TrimSpace(reason), Fee: fee}
	if err := s.users.CancelAppointment(ctx, ref.OwnerID, apt.ID, apt.Status, c); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, s.cancelConflict(ctx, appointmentID, actor)
		}
		return nil, fmt.Errorf("save cancellation: %w", err)
	}
	apt.Status = models.StatusCancelled
	apt.CancelledAt = &c.At
	apt.CancelledBy = &c.By
	apt.CancellationReason = c.Reason
	apt.CancellationFee = fee

	desc := fmt.Sprintf("Appointment on %s at %s cancelled", apt.Date.Format(models.DateLayout), apt.Time)
	if fee > 0 {
		desc += fmt.Sprintf(" (late cancellation fee %.2f)", fee)
	}
	s.recordActivity(ctx, ref.OwnerID, models.Activity{
		Type:        models.ActivityAppointmentCancelled,
		Description: desc,
		RelatedID:   apt.ID,
	})

	counterparty := apt.DoctorID
	if actor != ActorPatient {
		counterparty = ref.OwnerID
	}
	if err := s.notifications.NotifyUser(ctx, counterparty, models.NotificationAppointmentCancelled, "Appointment cancelled", desc, apt.ID); err != nil {
		s.log.Warn().Err(err).Str("appointment_id", apt.ID.Hex()).Msg("cancellation not notified")
	}
	s.publish(ctx, events.AppointmentCancelled, apt, fee)

	s.log.Info().
		Str("appointment_id", apt.ID.Hex()).
		Str("actor", string(actor)).
		Float64("fee", fee).
		Msg("appointment cancelled")
	return &CancelResult{Appointment: apt, CancellationFee: fee}, nil
}

// cancelConflict explains a cancellation whose conditional write matched
// nothing because the appointment changed after it was read.
func (s *AppointmentService) cancelConflict(ctx context.Context, appointmentID primitive.ObjectID, actor Actor) error {
	ref, err := s.users.FindAppointment(ctx, appointmentID)
	if err != nil {
		return fmt.Errorf("appointment: %w", err)
	}
	if err := CheckCancellation(ref.Appointment.Status, actor); err != nil {
		return err
	}
	return fmt.Errorf("%w: appointment changed while cancelling", apperrors.ErrInvalidTransition)
}

func (s *AppointmentService) recordActivity(ctx context.Context, userID primitive.ObjectID, a models.Activity) {
	a.ID = primitive.NewObjectID()
	a.Timestamp = s.now().UTC()
	if err := s.users.PushActivity(ctx, userID, a); err != nil {
		s.log.Error().Err(err).Str("user_id", userID.Hex()).Str("type", a.Type).Msg("activity not recorded")
	}
}

// PublishTimeout bounds how long a request waits on the event publisher.
const PublishTimeout = 2 * time.Second

func (s *AppointmentService) publish(ctx context.Context, kind string, apt models.Appointment, fee float64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PublishTimeout)
	defer cancel()
	err := s.publisher.Publish(ctx, events.AppointmentEvent{
		Type:            kind,
		AppointmentID:   apt.ID.Hex(),
		PatientID:       apt.PatientID.Hex(),
		DoctorID:        apt.DoctorID.Hex(),
		StartsAt:        apt.StartsAt(),
		CancellationFee: fee,
		OccurredAt:      s.now().UTC(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("type", kind).Msg("event not published")
	}
}
