package services

import (
	"context"
	"fmt"

	"github.com/harentsoaR/sehaty-api/internal/apperrors"
	"github.com/harentsoaR/sehaty-api/internal/models"
	"github.com/harentsoaR/sehaty-api/internal/store"
)

const providerListLimit = 50

type ProviderService struct {
	users store.UserRepository
}

func NewProviderService(st *store.Store) *ProviderService {
	return &ProviderService{users: st.Users}
}

func (s *ProviderService) List(ctx context.Context, f store.ProviderFilter) ([]models.Provider, error) {
	if f.Role != "" && f.Role != models.RoleDoctor && f.Role != models.RoleClinic {
		return nil, fmt.Errorf("%w: role must be doctor or clinic", apperrors.ErrValidation)
	}
	if f.Limit <= 0 || f.Limit > providerListLimit {
		f.Limit = providerListLimit
	}
	users, err := s.users.ListProviders(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]models.Provider, 0, len(users))
	for i := range users {
		out = append(out, users[i].AsProvider())
	}
	return out, nil
}
