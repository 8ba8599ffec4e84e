package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/sehaty-api/internal/events"
	"github.com/harentsoaR/sehaty-api/internal/models"
	"github.com/harentsoaR/sehaty-api/internal/store"
	"github.com/harentsoaR/sehaty-api/internal/utils"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.AppointmentEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e events.AppointmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type recordingSMS struct {
	mu   sync.Mutex
	sent []string
}

func (s *recordingSMS) Send(phone, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, phone+"|"+message)
}

type fixture struct {
	store         *store.Store
	auth          *AuthService
	appointments  *AppointmentService
	notifications *NotificationService
	prescriptions *PrescriptionService
	records       *HealthRecordService
	dashboard     *DashboardService
	publisher     *recordingPublisher
	sms           *recordingSMS
	now           time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	utils.PasswordCost = bcrypt.MinCost
	t.Cleanup(func() { utils.PasswordCost = 14 })

	st := store.NewMemory()
	log := zerolog.Nop()
	tokens, err := utils.NewTokenManager("test-secret")
	require.NoError(t, err)

	f := &fixture{
		store:     st,
		publisher: &recordingPublisher{},
		sms:       &recordingSMS{},
		now:       time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	f.notifications = NewNotificationService(st, f.sms, log)
	f.notifications.now = clock
	f.auth = NewAuthService(st, tokens, log)
	f.auth.now = clock
	f.appointments = NewAppointmentService(st, f.notifications, f.publisher, log)
	f.appointments.now = clock
	f.prescriptions = NewPrescriptionService(st, log)
	f.prescriptions.now = clock
	f.records = NewHealthRecordService(st, log)
	f.records.now = clock
	f.dashboard = NewDashboardService(st, f.notifications, log)
	f.dashboard.now = clock
	return f
}

func (f *fixture) register(t *testing.T, name, email, role string) *models.User {
	t.Helper()
	res, err := f.auth.Register(context.Background(), RegisterInput{
		Name: name, Email: email, Password: "password123", Role: role, Phone: "+100000000",
	})
	require.NoError(t, err)
	return res.User
}
