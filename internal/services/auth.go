package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/sehaty-api/internal/apperrors"
	"github.com/harentsoaR/sehaty-api/internal/models"
	"github.com/harentsoaR/sehaty-api/internal/store"
	"github.com/harentsoaR/sehaty-api/internal/utils"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Phone    string
	Profile  models.Profile
}

// AuthResult is returned by both register and login.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type AuthService struct {
	users  store.UserRepository
	tokens *utils.TokenManager
	log    zerolog.Logger
	now    func() time.Time
}

func NewAuthService(st *store.Store, tokens *utils.TokenManager, log zerolog.Logger) *AuthService {
	return &AuthService{users: st.Users, tokens: tokens, log: log, now: time.Now}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	case email == "":
		return nil, fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	case len(in.Password) < 8:
		return nil, fmt.Errorf("%w: password must be at least 8 characters", apperrors.ErrValidation)
	}
	role := in.Role
	if role == "" {
		role = models.RolePatient
	}
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: role must be patient, doctor or clinic", apperrors.ErrValidation)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperrors.ErrEmailTaken
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     email,
		Password:  hashed,
		Role:      role,
		Phone:     strings.TrimSpace(in.Phone),
		Profile:   in.Profile,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// The unique index still catches a concurrent registration that slipped past the lookup.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info().Str("user_id", user.ID.Hex()).Str("role", role).Msg("user registered")

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if err := utils.VerifyPassword(user.Password, password); err != nil {
		if !errors.Is(err, apperrors.ErrInvalidCredentials) {
			s.log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("unusable password hash")
		}
		return nil, apperrors.ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Verify resolves a bearer token to its claims.
func (s *AuthService) Verify(token string) (*utils.Claims, error) {
	return s.tokens.Validate(token)
}

func (s *AuthService) Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, upd store.ProfileUpdate) (*models.User, error) {
	if upd.Empty() {
		return nil, fmt.Errorf("%w: no update fields provided", apperrors.ErrValidation)
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be blank", apperrors.ErrValidation)
	}
	if err := s.users.UpdateProfile(ctx, userID, upd); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, userID)
}
