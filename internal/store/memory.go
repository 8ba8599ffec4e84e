package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/sehaty-api/internal/apperrors"
	"github.com/harentsoaR/sehaty-api/internal/models"
)

// NewMemory returns a Store kept in process memory. It backs local runs
// without MONGO_URI and the handler tests. Every read returns a copy.
func NewMemory() *Store {
	return &Store{
		Users:         &memUsers{byID: make(map[primitive.ObjectID]*models.User)},
		Prescriptions: &memPrescriptions{byID: make(map[primitive.ObjectID]*models.Prescription)},
		Notifications: &memNotifications{byID: make(map[primitive.ObjectID]*models.Notification)},
	}
}

func initEmbedded(u *models.User) {
	if u.Appointments == nil {
		u.Appointments = []models.Appointment{}
	}
	if u.Prescriptions == nil {
		u.Prescriptions = []models.EmbeddedPrescription{}
	}
	if u.HealthRecords == nil {
		u.HealthRecords = []models.HealthRecord{}
	}
	if u.RecentActivity == nil {
		u.RecentActivity = []models.Activity{}
	}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Appointments = append([]models.Appointment{}, u.Appointments...)
	c.Prescriptions = append([]models.EmbeddedPrescription{}, u.Prescriptions...)
	c.HealthRecords = append([]models.HealthRecord{}, u.HealthRecords...)
	c.RecentActivity = append([]models.Activity{}, u.RecentActivity...)
	return &c
}

// --- users ---

type memUsers struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]*models.User
}

func (r *memUsers) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperrors.ErrEmailTaken
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	initEmbedded(u)
	r.byID[u.ID] = cloneUser(u)
	return nil
}

func (r *memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memUsers) UpdateProfile(_ context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	if upd.DateOfBirth != nil {
		u.DateOfBirth = upd.DateOfBirth
	}
	if upd.Gender != nil {
		u.Gender = *upd.Gender
	}
	if upd.BloodType != nil {
		u.BloodType = *upd.BloodType
	}
	if upd.Specialty != nil {
		u.Specialty = *upd.Specialty
	}
	if upd.LicenseNumber != nil {
		u.LicenseNumber = *upd.LicenseNumber
	}
	if upd.ConsultationFee != nil {
		u.ConsultationFee = *upd.ConsultationFee
	}
	if upd.Address != nil {
		u.Address = *upd.Address
	}
	if upd.Description != nil {
		u.Description = *upd.Description
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memUsers) ListProviders(_ context.Context, f ProviderFilter) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.User, 0)
	for _, u := range r.byID {
		if u.Role != models.RoleDoctor && u.Role != models.RoleClinic {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Specialty != "" && !strings.EqualFold(u.Specialty, f.Specialty) {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(f.Query)) {
			continue
		}
		c := *u
		c.Appointments, c.Prescriptions, c.HealthRecords, c.RecentActivity = nil, nil, nil, nil
		c.Password = ""
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *memUsers) mutate(id primitive.ObjectID, fn func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memUsers) PushAppointment(_ context.Context, userID primitive.ObjectID, a models.Appointment) error {
	return r.mutate(userID, func(u *models.User) { u.Appointments = append(u.Appointments, a) })
}

func (r *memUsers) PushActivity(_ context.Context, userID primitive.ObjectID, a models.Activity) error {
	return r.mutate(userID, func(u *models.User) { u.RecentActivity = append(u.RecentActivity, a) })
}

func (r *memUsers) PushPrescription(_ context.Context, userID primitive.ObjectID, p models.EmbeddedPrescription) error {
	return r.mutate(userID, func(u *models.User) { u.Prescriptions = append(u.Prescriptions, p) })
}

func (r *memUsers) PushHealthRecord(_ context.Context, userID primitive.ObjectID, rec models.HealthRecord) error {
	return r.mutate(userID, func(u *models.User) { u.HealthRecords = append(u.HealthRecords, rec) })
}

func (r *memUsers) FindAppointment(_ context.Context, appointmentID primitive.ObjectID) (*AppointmentRef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if a := u.FindAppointment(appointmentID); a != nil {
			return &AppointmentRef{OwnerID: u.ID, Appointment: *a}, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memUsers) CancelAppointment(_ context.Context, ownerID, appointmentID primitive.ObjectID, fromStatus string, c Cancellation) error {
	var found bool
	err := r.mutate(ownerID, func(u *models.User) {
		a := u.FindAppointment(appointmentID)
		if a == nil || a.Status != fromStatus {
			return
		}
		at, by := c.At, c.By
		a.Status = models.StatusCancelled
		a.CancelledAt = &at
		a.CancelledBy = &by
		a.CancellationReason = c.Reason
		a.CancellationFee = c.Fee
		found = true
	})
	if err != nil {
		return err
	}
	if !found {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *memUsers) MarkReminderSent(_ context.Context, ownerID, appointmentID primitive.ObjectID) (bool, error) {
	var marked bool
	err := r.mutate(ownerID, func(u *models.User) {
		if a := u.FindAppointment(appointmentID); a != nil && a.Status == models.StatusScheduled {
			a.ReminderSent = true
			marked = true
		}
	})
	return marked, err
}

func (r *memUsers) ListDoctorAppointments(_ context.Context, doctorID primitive.ObjectID) ([]models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Appointment, 0)
	for _, u := range r.byID {
		for _, a := range u.Appointments {
			if a.DoctorID == doctorID {
				out = append(out, a)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt().Before(out[j].StartsAt()) })
	return out, nil
}

func (r *memUsers) ListScheduledBetween(_ context.Context, from, to time.Time) ([]AppointmentRef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AppointmentRef, 0)
	for _, u := range r.byID {
		for _, a := range u.Appointments {
			if a.Status != models.StatusScheduled {
				continue
			}
			if !a.Date.Before(from) && a.Date.Before(to) {
				out = append(out, AppointmentRef{OwnerID: u.ID, Appointment: a})
			}
		}
	}
	return out, nil
}

// --- prescriptions ---

type memPrescriptions struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]*models.Prescription
}

func (r *memPrescriptions) Create(_ context.Context, p *models.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	c := *p
	r.byID[p.ID] = &c
	return nil
}

func (r *memPrescriptions) FindByID(_ context.Context, id primitive.ObjectID) (*models.Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r *memPrescriptions) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Prescription, 0)
	for _, p := range r.byID {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memPrescriptions) UpdateStatus(_ context.Context, id primitive.ObjectID, status string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = at
	return nil
}

// --- notifications ---

type memNotifications struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]*models.Notification
}

func (r *memNotifications) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	c := *n
	r.byID[n.ID] = &c
	return nil
}

func (r *memNotifications) FindByID(_ context.Context, id primitive.ObjectID) (*models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *n
	return &c, nil
}

func (r *memNotifications) ListByUser(_ context.Context, userID primitive.ObjectID, limit int) ([]models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Notification, 0)
	for _, n := range r.byID {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memNotifications) CountUnread(_ context.Context, userID primitive.ObjectID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, v := range r.byID {
		if v.UserID == userID && !v.Read {
			n++
		}
	}
	return n, nil
}

func (r *memNotifications) MarkRead(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.byID[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	n.Read = true
	return nil
}

func (r *memNotifications) MarkAllRead(_ context.Context, userID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var modified int64
	for _, n := range r.byID {
		if n.UserID == userID && !n.Read {
			n.Read = true
			modified++
		}
	}
	return modified, nil
}
