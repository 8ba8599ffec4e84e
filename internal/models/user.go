package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleClinic  = "clinic"
)

// ValidRole reports whether role is one of the supported account roles.
func ValidRole(role string) bool {
	switch role {
	case RolePatient, RoleDoctor, RoleClinic:
		return true
	}
	return false
}

type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password" json:"-"` // bcrypt hash, never serialised
	Role     string             `bson:"role" json:"role"`
	Phone    string             `bson:"phone,omitempty" json:"phone,omitempty"`

	Profile `bson:",inline"`

	Appointments   []Appointment          `bson:"appointments" json:"appointments"`
	Prescriptions  []EmbeddedPrescription `bson:"prescriptions" json:"prescriptions"`
	HealthRecords  []HealthRecord         `bson:"healthRecords" json:"healthRecords"`
	RecentActivity []Activity             `bson:"recentActivity" json:"recentActivity"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Profile holds the role-specific fields. Only the ones relevant to the
// user's role are expected to be populated.
type Profile struct {
	// patient
	DateOfBirth *time.Time `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	Gender      string     `bson:"gender,omitempty" json:"gender,omitempty"`
	BloodType   string     `bson:"bloodType,omitempty" json:"bloodType,omitempty"`

	// doctor
	Specialty       string              `bson:"specialty,omitempty" json:"specialty,omitempty"`
	LicenseNumber   string              `bson:"licenseNumber,omitempty" json:"licenseNumber,omitempty"`
	ClinicID        *primitive.ObjectID `bson:"clinicId,omitempty" json:"clinicId,omitempty"`
	ConsultationFee float64             `bson:"consultationFee,omitempty" json:"consultationFee,omitempty"`

	// clinic
	Address     string `bson:"address,omitempty" json:"address,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

// Provider is the public view of a doctor or clinic used by the directory.
type Provider struct {
	ID              primitive.ObjectID  `json:"id"`
	Name            string              `json:"name"`
	Role            string              `json:"role"`
	Specialty       string              `json:"specialty,omitempty"`
	ClinicID        *primitive.ObjectID `json:"clinicId,omitempty"`
	ConsultationFee float64             `json:"consultationFee,omitempty"`
	Address         string              `json:"address,omitempty"`
	Description     string              `json:"description,omitempty"`
}

func (u *User) AsProvider() Provider {
	return Provider{
		ID:              u.ID,
		Name:            u.Name,
		Role:            u.Role,
		Specialty:       u.Specialty,
		ClinicID:        u.ClinicID,
		ConsultationFee: u.ConsultationFee,
		Address:         u.Address,
		Description:     u.Description,
	}
}

// FindAppointment returns a pointer into u.Appointments, or nil.
func (u *User) FindAppointment(id primitive.ObjectID) *Appointment {
	for i := range u.Appointments {
		if u.Appointments[i].ID == id {
			return &u.Appointments[i]
		}
	}
	return nil
}
