package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/sehaty-api/internal/models"
)

func appointmentAt(date time.Time, status string) models.Appointment {
	y, m, d := date.Date()
	return models.Appointment{
		ID:     primitive.NewObjectID(),
		Date:   time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Time:   date.Format("15:04"),
		Status: status,
	}
}

func TestBuildDashboardUpcomingExample(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	u := &models.User{Appointments: []models.Appointment{
		appointmentAt(now.AddDate(0, 0, -1), models.StatusScheduled),
		appointmentAt(now.AddDate(0, 0, 5), models.StatusScheduled),
		appointmentAt(now.AddDate(0, 0, 1), models.StatusCancelled),
	}}

	d := BuildDashboard(u, now)
	assert.Equal(t, 1, d.Counts.UpcomingAppointments)
	require.Len(t, d.UpcomingAppointments, 1)
	assert.Equal(t, u.Appointments[1].ID, d.UpcomingAppointments[0].ID)
	assert.Equal(t, 3, d.Counts.TotalAppointments)
	assert.Equal(t, 1, d.Counts.CancelledAppointments)
	assert.Len(t, d.RecentAppointments, 3)
}

func TestBuildDashboardNeverListsPastAppointments(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	var appts []models.Appointment
	for h := -48; h <= 48; h += 7 {
		for _, st := range []string{models.StatusScheduled, models.StatusCompleted, models.StatusCancelled, models.StatusInProgress} {
			appts = append(appts, appointmentAt(now.Add(time.Duration(h)*time.Hour), st))
		}
	}
	d := BuildDashboard(&models.User{Appointments: appts}, now)
	for _, a := range d.UpcomingAppointments {
		assert.False(t, a.StartsAt().Before(now))
		assert.Equal(t, models.StatusScheduled, a.Status)
	}
	assert.LessOrEqual(t, len(d.UpcomingAppointments), 5)
	for i := 1; i < len(d.UpcomingAppointments); i++ {
		assert.False(t, d.UpcomingAppointments[i].StartsAt().Before(d.UpcomingAppointments[i-1].StartsAt()))
	}
}

func TestBuildDashboardTruncatesAndSorts(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	u := &models.User{}
	for i := 0; i < 8; i++ {
		u.Appointments = append(u.Appointments, appointmentAt(now.AddDate(0, 0, i+1), models.StatusScheduled))
		u.HealthRecords = append(u.HealthRecords, models.HealthRecord{ID: primitive.NewObjectID(), Date: now.AddDate(0, 0, -i)})
		u.RecentActivity = append(u.RecentActivity, models.Activity{ID: primitive.NewObjectID(), Timestamp: now.Add(time.Duration(i) * time.Minute)})
		status := models.PrescriptionActive
		if i%2 == 1 {
			status = models.PrescriptionCompleted
		}
		u.Prescriptions = append(u.Prescriptions, models.EmbeddedPrescription{ID: primitive.NewObjectID(), PrescriptionFields: models.PrescriptionFields{Status: status}})
	}

	d := BuildDashboard(u, now)
	assert.Equal(t, 8, d.Counts.UpcomingAppointments)
	assert.Len(t, d.UpcomingAppointments, 5)
	assert.Equal(t, u.Appointments[0].ID, d.UpcomingAppointments[0].ID)
	assert.Equal(t, u.Appointments[7].ID, d.RecentAppointments[0].ID)

	assert.Equal(t, 8, d.Counts.TotalPrescriptions)
	assert.Equal(t, 4, d.Counts.ActivePrescriptions)
	assert.Len(t, d.ActivePrescriptions, 4)

	assert.Equal(t, 8, d.Counts.HealthRecords)
	require.Len(t, d.HealthRecords, 3)
	assert.Equal(t, u.HealthRecords[0].ID, d.HealthRecords[0].ID)

	require.Len(t, d.RecentActivity, 5)
	assert.Equal(t, u.RecentActivity[7].ID, d.RecentActivity[0].ID)
}

func TestBuildDashboardEmptyUser(t *testing.T) {
	d := BuildDashboard(&models.User{}, time.Now())
	assert.NotNil(t, d.UpcomingAppointments)
	assert.NotNil(t, d.HealthRecords)
	assert.NotNil(t, d.RecentActivity)
	assert.Zero(t, d.Counts.TotalAppointments)
}

func TestDashboardServiceCountsUnread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doctor := f.register(t, "Dr Lina", "lina@example.com", models.RoleDoctor)
	patient := f.register(t, "Omar", "omar@example.com", models.RolePatient)

	_, err := f.appointments.Book(ctx, patient.ID, BookInput{DoctorID: doctor.ID, Date: "2026-04-03", Time: "11:00"})
	require.NoError(t, err)

	d, err := f.dashboard.Get(ctx, doctor.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, d.Counts.UnreadNotifications)

	d, err = f.dashboard.Get(ctx, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Counts.UpcomingAppointments)
	assert.Len(t, d.RecentActivity, 1)
}
