package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/sehaty-api/internal/apperrors"
	"github.com/harentsoaR/sehaty-api/internal/middleware"
	"github.com/harentsoaR/sehaty-api/internal/services"
)

// Handler groups the HTTP endpoints. Each method is a thin adapter from a
// gin request to one service call.
type Handler struct {
	Auth          *services.AuthService
	Dashboard     *services.DashboardService
	Appointments  *services.AppointmentService
	Prescriptions *services.PrescriptionService
	Records       *services.HealthRecordService
	Notifications *services.NotificationService
	Providers     *services.ProviderService

	log        zerolog.Logger
	production bool
}

func NewHandler(svc Handler, log zerolog.Logger, production bool) *Handler {
	svc.log = log.With().Str("component", "http").Logger()
	svc.production = production
	return &svc
}

// respondError writes {"error": message} with the status mapped from err.
// Unexpected errors keep their detail out of production responses.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		if h.production {
			msg = "Internal server error"
		}
	}
	c.JSON(status, gin.H{"error": msg})
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

var errNoSubject = errors.New("token subject is not a valid id")

// currentUser reads the caller identity set by the auth middleware.
func currentUser(c *gin.Context) (primitive.ObjectID, string, error) {
	id, err := primitive.ObjectIDFromHex(c.GetString(middleware.ContextUserID))
	if err != nil {
		return primitive.NilObjectID, "", errNoSubject
	}
	return id, c.GetString(middleware.ContextRole), nil
}

// withUser resolves the caller or answers 401.
func (h *Handler) withUser(c *gin.Context) (primitive.ObjectID, string, bool) {
	id, role, err := currentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return id, role, false
	}
	return id, role, true
}

func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return id, false
	}
	return id, true
}

// optionalID parses an optional hex id from a request body.
func optionalID(s string) (primitive.ObjectID, error) {
	if s == "" {
		return primitive.NilObjectID, nil
	}
	return primitive.ObjectIDFromHex(s)
}
