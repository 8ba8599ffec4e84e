package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/sehaty-api/internal/models"
	"github.com/harentsoaR/sehaty-api/internal/services"
	"github.com/harentsoaR/sehaty-api/internal/store"
)

func TestRemindersRunOncePerAppointment(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	log := zerolog.Nop()

	patient := &models.User{Name: "Pat", Email: "pat@example.com", Role: models.RolePatient}
	require.NoError(t, st.Users.Create(ctx, patient))

	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	today := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	due := models.Appointment{ID: primitive.NewObjectID(), DoctorName: "Dr A", Date: today.AddDate(0, 0, 1), Time: "08:00", Status: models.StatusScheduled}
	past := models.Appointment{ID: primitive.NewObjectID(), Date: today, Time: "08:00", Status: models.StatusScheduled}
	far := models.Appointment{ID: primitive.NewObjectID(), Date: today.AddDate(0, 0, 3), Time: "08:00", Status: models.StatusScheduled}
	cancelled := models.Appointment{ID: primitive.NewObjectID(), Date: today, Time: "15:00", Status: models.StatusCancelled}
	for _, a := range []models.Appointment{due, past, far, cancelled} {
		require.NoError(t, st.Users.PushAppointment(ctx, patient.ID, a))
	}

	r := NewReminders(st, services.NewNotificationService(st, nil, log), log)
	r.now = func() time.Time { return now }

	sent, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	list, err := st.Notifications.ListByUser(ctx, patient.ID, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationAppointmentReminder, list[0].Type)
	assert.Equal(t, due.ID, list[0].RelatedID)

	sent, err = r.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestRemindersSchedule(t *testing.T) {
	st := store.NewMemory()
	r := NewReminders(st, services.NewNotificationService(st, nil, zerolog.Nop()), zerolog.Nop())
	c := cron.New()

	assert.NoError(t, r.Schedule(c, "0 * * * *"))
	assert.Len(t, c.Entries(), 1)
	assert.Error(t, r.Schedule(c, "not a spec"))
}

// cancelOnLookup cancels the appointment the first time the reminder
// recipient is looked up, between the job's read and its write.
type cancelOnLookup struct {
	store.UserRepository
	appointmentID primitive.ObjectID
	done          bool
}

func (r *cancelOnLookup) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if !r.done {
		r.done = true
		c := store.Cancellation{At: time.Now().UTC(), By: id, Reason: "cannot make it", Fee: 50}
		if err := r.UserRepository.CancelAppointment(ctx, id, r.appointmentID, models.StatusScheduled, c); err != nil {
			return nil, err
		}
	}
	return r.UserRepository.FindByID(ctx, id)
}

func TestReminderDoesNotRevertConcurrentCancellation(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	log := zerolog.Nop()

	patient := &models.User{Name: "Pat", Email: "pat@example.com", Role: models.RolePatient}
	require.NoError(t, st.Users.Create(ctx, patient))
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	apt := models.Appointment{ID: primitive.NewObjectID(), DoctorName: "Dr A", Date: time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), Time: "15:00", Status: models.StatusScheduled}
	require.NoError(t, st.Users.PushAppointment(ctx, patient.ID, apt))

	racing := *st
	racing.Users = &cancelOnLookup{UserRepository: st.Users, appointmentID: apt.ID}
	r := NewReminders(st, services.NewNotificationService(&racing, nil, log), log)
	r.now = func() time.Time { return now }

	_, err := r.Run(ctx)
	require.NoError(t, err)

	u, err := st.Users.FindByID(ctx, patient.ID)
	require.NoError(t, err)
	got := u.FindAppointment(apt.ID)
	require.NotNil(t, got)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Equal(t, 50.0, got.CancellationFee)
	assert.Equal(t, "cannot make it", got.CancellationReason)
	require.NotNil(t, got.CancelledBy)
	assert.Equal(t, patient.ID, *got.CancelledBy)
	assert.False(t, got.ReminderSent)
}
