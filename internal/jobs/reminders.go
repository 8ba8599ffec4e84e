package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/sehaty-api/internal/models"
	"github.com/harentsoaR/sehaty-api/internal/services"
	"github.com/harentsoaR/sehaty-api/internal/store"
)

// ReminderWindow is how far ahead reminders look.
const ReminderWindow = 24 * time.Hour

// Reminders notifies patients of scheduled appointments starting within
// ReminderWindow. Each appointment is reminded at most once.
type Reminders struct {
	users         store.UserRepository
	notifications *services.NotificationService
	log           zerolog.Logger
	now           func() time.Time
}

func NewReminders(st *store.Store, notifications *services.NotificationService, log zerolog.Logger) *Reminders {
	return &Reminders{
		users:         st.Users,
		notifications: notifications,
		log:           log.With().Str("job", "reminders").Logger(),
		now:           time.Now,
	}
}

// Run sends due reminders and returns how many were sent.
func (r *Reminders) Run(ctx context.Context) (int, error) {
	now := r.now().UTC()
	// Dates are stored at UTC midnight, so widen the query by a day and
	// filter on the precise start instant below.
	y, m, d := now.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	refs, err := r.users.ListScheduledBetween(ctx, from, now.Add(ReminderWindow))
	if err != nil {
		return 0, fmt.Errorf("list upcoming: %w", err)
	}

	sent := 0
	for _, ref := range refs {
		apt := ref.Appointment
		start := apt.StartsAt()
		if apt.ReminderSent || start.Before(now) || start.Sub(now) > ReminderWindow {
			continue
		}
		msg := fmt.Sprintf("You have an appointment with %s on %s at %s", apt.DoctorName, apt.Date.Format(models.DateLayout), apt.Time)
		if err := r.notifications.NotifyUser(ctx, ref.OwnerID, models.NotificationAppointmentReminder, "Appointment reminder", msg, apt.ID); err != nil {
			r.log.Warn().Err(err).Str("appointment_id", apt.ID.Hex()).Msg("reminder not sent")
			continue
		}
		sent++
		marked, err := r.users.MarkReminderSent(ctx, ref.OwnerID, apt.ID)
		if err != nil {
			r.log.Error().Err(err).Str("appointment_id", apt.ID.Hex()).Msg("reminder flag not saved")
		} else if !marked {
			r.log.Info().Str("appointment_id", apt.ID.Hex()).Msg("appointment left scheduled state during reminder")
		}
	}
	return sent, nil
}

// Schedule registers Run on c using the given cron spec.
func (r *Reminders) Schedule(c *cron.Cron, spec string) error {
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := r.Run(ctx)
		if err != nil {
			r.log.Error().Err(err).Msg("reminder run failed")
			return
		}
		r.log.Info().Int("sent", n).Msg("reminder run finished")
	})
	if err != nil {
		return fmt.Errorf("schedule reminders %q: %w", spec, err)
	}
	return nil
}
