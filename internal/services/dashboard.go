package services

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/sehaty-api/internal/models"
	"github.com/harentsoaR/sehaty-api/internal/store"
)

const (
	dashboardListSize    = 5
	dashboardRecordsSize = 3
)

type DashboardCounts struct {
	TotalAppointments     int   `json:"totalAppointments"`
	UpcomingAppointments  int   `json:"upcomingAppointments"`
	CompletedAppointments int   `json:"completedAppointments"`
	CancelledAppointments int   `json:"cancelledAppointments"`
	TotalPrescriptions    int   `json:"totalPrescriptions"`
	ActivePrescriptions   int   `json:"activePrescriptions"`
	HealthRecords         int   `json:"healthRecords"`
	UnreadNotifications   int64 `json:"unreadNotifications"`
}

type Dashboard struct {
	User                 *models.User                  `json:"user"`
	Counts               DashboardCounts               `json:"counts"`
	UpcomingAppointments []models.Appointment          `json:"upcomingAppointments"`
	RecentAppointments   []models.Appointment          `json:"recentAppointments"`
	ActivePrescriptions  []models.EmbeddedPrescription `json:"activePrescriptions"`
	HealthRecords        []models.HealthRecord         `json:"healthRecords"`
	RecentActivity       []models.Activity             `json:"recentActivity"`
}

// BuildDashboard composes the dashboard view from the user document alone.
// Upcoming means scheduled and starting at or after now.
func BuildDashboard(u *models.User, now time.Time) Dashboard {
	d := Dashboard{
		User:                 u,
		UpcomingAppointments: make([]models.Appointment, 0),
		RecentAppointments:   make([]models.Appointment, 0),
		ActivePrescriptions:  make([]models.EmbeddedPrescription, 0),
	}

	for _, a := range u.Appointments {
		switch a.Status {
		case models.StatusScheduled:
			if !a.StartsAt().Before(now) {
				d.UpcomingAppointments = append(d.UpcomingAppointments, a)
			}
		case models.StatusCompleted:
			d.Counts.CompletedAppointments++
		case models.StatusCancelled:
			d.Counts.CancelledAppointments++
		}
	}
	d.Counts.TotalAppointments = len(u.Appointments)
	d.Counts.UpcomingAppointments = len(d.UpcomingAppointments)
	sort.SliceStable(d.UpcomingAppointments, func(i, j int) bool {
		return d.UpcomingAppointments[i].StartsAt().Before(d.UpcomingAppointments[j].StartsAt())
	})
	d.UpcomingAppointments = truncate(d.UpcomingAppointments, dashboardListSize)

	d.RecentAppointments = append(d.RecentAppointments, u.Appointments...)
	sort.SliceStable(d.RecentAppointments, func(i, j int) bool {
		return d.RecentAppointments[i].StartsAt().After(d.RecentAppointments[j].StartsAt())
	})
	d.RecentAppointments = truncate(d.RecentAppointments, dashboardListSize)

	for _, p := range u.Prescriptions {
		if p.Status == models.PrescriptionActive {
			d.ActivePrescriptions = append(d.ActivePrescriptions, p)
		}
	}
	d.Counts.TotalPrescriptions = len(u.Prescriptions)
	d.Counts.ActivePrescriptions = len(d.ActivePrescriptions)
	d.ActivePrescriptions = truncate(d.ActivePrescriptions, dashboardListSize)

	d.HealthRecords = append(make([]models.HealthRecord, 0, len(u.HealthRecords)), u.HealthRecords...)
	sort.SliceStable(d.HealthRecords, func(i, j int) bool {
		return d.HealthRecords[i].Date.After(d.HealthRecords[j].Date)
	})
	d.Counts.HealthRecords = len(d.HealthRecords)
	d.HealthRecords = truncate(d.HealthRecords, dashboardRecordsSize)

	d.RecentActivity = append(make([]models.Activity, 0, len(u.RecentActivity)), u.RecentActivity...)
	sort.SliceStable(d.RecentActivity, func(i, j int) bool {
		return d.RecentActivity[i].Timestamp.After(d.RecentActivity[j].Timestamp)
	})
	d.RecentActivity = truncate(d.RecentActivity, dashboardListSize)

	return d
}

func truncate[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

type DashboardService struct {
	users         store.UserRepository
	notifications *NotificationService
	log           zerolog.Logger
	now           func() time.Time
}

func NewDashboardService(st *store.Store, notifications *NotificationService, log zerolog.Logger) *DashboardService {
	return &DashboardService{users: st.Users, notifications: notifications, log: log, now: time.Now}
}

// Get recomputes the dashboard on every call.
func (s *DashboardService) Get(ctx context.Context, userID primitive.ObjectID) (*Dashboard, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	d := BuildDashboard(u, s.now())
	unread, err := s.notifications.UnreadCount(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.Hex()).Msg("unread count unavailable")
	}
	d.Counts.UnreadNotifications = unread
	return &d, nil
}
