package services

import (
	"fmt"
	"time"

	"github.com/harentsoaR/sehaty-api/internal/apperrors"
	"github.com/harentsoaR/sehaty-api/internal/models"
)

const (
	// LateCancellationFee is charged when a patient cancels inside LateCancellationWindow.
	LateCancellationFee = 50.0
	// LateCancellationWindow is the notice a patient must give to cancel for free.
	LateCancellationWindow = 24 * time.Hour
)

// Actor is the caller's relation to the appointment being cancelled.
type Actor string

const (
	ActorPatient Actor = "patient"
	ActorDoctor  Actor = "doctor"
	// ActorClinic is the administrative actor.
	ActorClinic Actor = "clinic"
)

// CheckCancellation applies the cancellation state table:
//
//	scheduled   -> cancelled  any actor
//	in-progress -> cancelled  doctor or clinic only
//	completed   -> cancelled  never
//	cancelled   -> cancelled  never (already cancelled)
func CheckCancellation(status string, actor Actor) error {
	switch status {
	case models.StatusScheduled:
		return nil
	case models.StatusInProgress:
		if actor == ActorPatient {
			return fmt.Errorf("%w: patients cannot cancel an appointment in progress", apperrors.ErrForbidden)
		}
		return nil
	case models.StatusCompleted:
		return fmt.Errorf("%w: completed appointments cannot be cancelled", apperrors.ErrInvalidTransition)
	case models.StatusCancelled:
		return apperrors.ErrAlreadyCancelled
	default:
		return fmt.Errorf("%w: unknown status %q", apperrors.ErrInvalidTransition, status)
	}
}

// CancellationFee is non-zero only for a patient cancelling with less than
// LateCancellationWindow to go before the start.
func CancellationFee(actor Actor, startsAt, now time.Time) float64 {
	if actor == ActorPatient && startsAt.Sub(now) < LateCancellationWindow {
		return LateCancellationFee
	}
	return 0
}
