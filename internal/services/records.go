package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/sehaty-api/internal/apperrors"
	"github.com/harentsoaR/sehaty-api/internal/models"
	"github.com/harentsoaR/sehaty-api/internal/store"
)

type HealthRecordInput struct {
	PatientID   primitive.ObjectID
	Type        string
	Title       string
	Description string
	Date        string
}

type HealthRecordService struct {
	users store.UserRepository
	log   zerolog.Logger
	now   func() time.Time
}

func NewHealthRecordService(st *store.Store, log zerolog.Logger) *HealthRecordService {
	return &HealthRecordService{users: st.Users, log: log, now: time.Now}
}

func (s *HealthRecordService) Add(ctx context.Context, actorID primitive.ObjectID, actorRole string, in HealthRecordInput) (*models.HealthRecord, error) {
	target, err := resolvePatient(actorID, actorRole, in.PatientID)
	if err != nil {
		return nil, err
	}
	rec := models.HealthRecord{
		ID:          primitive.NewObjectID(),
		Type:        strings.TrimSpace(in.Type),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
	}
	if rec.Type == "" || rec.Title == "" {
		return nil, fmt.Errorf("%w: type and title are required", apperrors.ErrValidation)
	}
	if in.Date == "" {
		rec.Date = s.now().UTC()
	} else if rec.Date, err = models.ParseDate(in.Date); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if actorRole == models.RoleDoctor {
		rec.DoctorID = actorID
	}
	if err := ensurePatient(ctx, s.users, target); err != nil {
		return nil, err
	}

	if err := s.users.PushHealthRecord(ctx, target, rec); err != nil {
		return nil, fmt.Errorf("save health record: %w", err)
	}
	activity := models.Activity{
		ID:          primitive.NewObjectID(),
		Type:        models.ActivityHealthRecordAdded,
		Description: "Health record added: " + rec.Title,
		Timestamp:   s.now().UTC(),
		RelatedID:   rec.ID,
	}
	if err := s.users.PushActivity(ctx, target, activity); err != nil {
		s.log.Error().Err(err).Str("user_id", target.Hex()).Msg("activity not recorded")
	}
	return &rec, nil
}

// List returns the user's health records, newest first.
func (s *HealthRecordService) List(ctx context.Context, userID primitive.ObjectID) ([]models.HealthRecord, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := append(make([]models.HealthRecord, 0, len(u.HealthRecords)), u.HealthRecords...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}
