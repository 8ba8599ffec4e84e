package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("find user: %w", ErrNotFound), http.StatusNotFound},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrInvalidToken, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrEmailTaken, http.StatusBadRequest},
		{fmt.Errorf("%w: name is required", ErrValidation), http.StatusBadRequest},
		{ErrAlreadyCancelled, http.StatusBadRequest},
		{ErrInvalidTransition, http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "%v", tc.err)
	}
}
