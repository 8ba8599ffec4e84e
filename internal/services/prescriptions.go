package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/sehaty-api/internal/apperrors"
	"github.com/harentsoaR/sehaty-api/internal/models"
	"github.com/harentsoaR/sehaty-api/internal/store"
)

type PrescriptionInput struct {
	Medication string
	Dosage     string
	Frequency  string
	StartDate  string
	EndDate    string
	Status     string
	Notes      string
}

// fields validates the input and converts it to the stored shape.
func (in PrescriptionInput) fields() (models.PrescriptionFields, error) {
	f := models.PrescriptionFields{
		Medication: strings.TrimSpace(in.Medication),
		Dosage:     strings.TrimSpace(in.Dosage),
		Frequency:  in.Frequency,
		Status:     in.Status,
		Notes:      strings.TrimSpace(in.Notes),
	}
	if f.Medication == "" || f.Dosage == "" {
		return f, fmt.Errorf("%w: medication and dosage are required", apperrors.ErrValidation)
	}
	if !models.ValidFrequency(f.Frequency) {
		return f, fmt.Errorf("%w: frequency must be one of %s", apperrors.ErrValidation, strings.Join(models.Frequencies, ", "))
	}
	if f.Status == "" {
		f.Status = models.PrescriptionActive
	}
	if !models.ValidPrescriptionStatus(f.Status) {
		return f, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, f.Status)
	}
	start, err := models.ParseDate(in.StartDate)
	if err != nil {
		return f, fmt.Errorf("%w: startDate: %v", apperrors.ErrValidation, err)
	}
	f.StartDate = start
	if in.EndDate != "" {
		end, err := models.ParseDate(in.EndDate)
		if err != nil {
			return f, fmt.Errorf("%w: endDate: %v", apperrors.ErrValidation, err)
		}
		if end.Before(start) {
			return f, fmt.Errorf("%w: endDate is before startDate", apperrors.ErrValidation)
		}
		f.EndDate = &end
	}
	return f, nil
}

type PrescriptionService struct {
	repo  store.PrescriptionRepository
	users store.UserRepository
	log   zerolog.Logger
	now   func() time.Time
}

func NewPrescriptionService(st *store.Store, log zerolog.Logger) *PrescriptionService {
	return &PrescriptionService{repo: st.Prescriptions, users: st.Users, log: log, now: time.Now}
}

// Create inserts into the standalone prescriptions collection.
func (s *PrescriptionService) Create(ctx context.Context, userID primitive.ObjectID, in PrescriptionInput) (*models.Prescription, error) {
	f, err := in.fields()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p := &models.Prescription{
		UserID:             userID,
		PrescriptionFields: f,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create prescription: %w", err)
	}
	return p, nil
}

func (s *PrescriptionService) List(ctx context.Context, userID primitive.ObjectID) ([]models.Prescription, error) {
	return s.repo.ListByUser(ctx, userID)
}

// UpdateStatus overwrites the status with any valid value; there is no
// transition ordering for prescriptions.
func (s *PrescriptionService) UpdateStatus(ctx context.Context, userID, id primitive.ObjectID, status string) (*models.Prescription, error) {
	if !models.ValidPrescriptionStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, status)
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	now := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, status, now); err != nil {
		return nil, err
	}
	p.Status = status
	p.UpdatedAt = now
	return p, nil
}

// AddEmbedded appends to a patient's embedded prescriptions, which are what
// the dashboard reads. Doctors prescribe for a patient; patients may only
// record their own.
func (s *PrescriptionService) AddEmbedded(ctx context.Context, actorID primitive.ObjectID, actorRole string, patientID primitive.ObjectID, in PrescriptionInput) (*models.EmbeddedPrescription, error) {
	target, err := resolvePatient(actorID, actorRole, patientID)
	if err != nil {
		return nil, err
	}
	f, err := in.fields()
	if err != nil {
		return nil, err
	}
	if actorRole == models.RoleDoctor {
		f.PrescribedBy = actorID
	}
	if err := ensurePatient(ctx, s.users, target); err != nil {
		return nil, err
	}

	p := models.EmbeddedPrescription{ID: primitive.NewObjectID(), PrescriptionFields: f}
	if err := s.users.PushPrescription(ctx, target, p); err != nil {
		return nil, fmt.Errorf("save prescription: %w", err)
	}
	activity := models.Activity{
		ID:          primitive.NewObjectID(),
		Type:        models.ActivityPrescriptionAdded,
		Description: fmt.Sprintf("Prescription added: %s %s", f.Medication, f.Dosage),
		Timestamp:   s.now().UTC(),
		RelatedID:   p.ID,
	}
	if err := s.users.PushActivity(ctx, target, activity); err != nil {
		s.log.Error().Err(err).Str("user_id", target.Hex()).Msg("activity not recorded")
	}
	return &p, nil
}

// resolvePatient picks whose document an embedded write goes to.
func resolvePatient(actorID primitive.ObjectID, actorRole string, patientID primitive.ObjectID) (primitive.ObjectID, error) {
	switch actorRole {
	case models.RoleDoctor:
		if patientID.IsZero() {
			return primitive.NilObjectID, fmt.Errorf("%w: patientId is required", apperrors.ErrValidation)
		}
		return patientID, nil
	case models.RolePatient:
		if !patientID.IsZero() && patientID != actorID {
			return primitive.NilObjectID, apperrors.ErrForbidden
		}
		return actorID, nil
	default:
		return primitive.NilObjectID, apperrors.ErrForbidden
	}
}

func ensurePatient(ctx context.Context, users store.UserRepository, id primitive.ObjectID) error {
	u, err := users.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("patient: %w", err)
	}
	if u.Role != models.RolePatient {
		return fmt.Errorf("patient: %w", apperrors.ErrNotFound)
	}
	return nil
}
