package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/sehaty-api/internal/apperrors"
	"github.com/harentsoaR/sehaty-api/internal/models"
)

func validPrescription() PrescriptionInput {
	return PrescriptionInput{
		Medication: "Amoxicillin",
		Dosage:     "500mg",
		Frequency:  "three-times-daily",
		StartDate:  "2026-04-01",
		EndDate:    "2026-04-08",
	}
}

func TestPrescriptionCreateListUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Omar", "omar@example.com", models.RolePatient)
	other := f.register(t, "Nadia", "nadia@example.com", models.RolePatient)

	p, err := f.prescriptions.Create(ctx, owner.ID, validPrescription())
	require.NoError(t, err)
	assert.Equal(t, models.PrescriptionActive, p.Status)
	assert.Equal(t, owner.ID, p.UserID)
	require.NotNil(t, p.EndDate)

	list, err := f.prescriptions.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	otherList, err := f.prescriptions.List(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, otherList)

	_, err = f.prescriptions.UpdateStatus(ctx, other.ID, p.ID, models.PrescriptionCancelled)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	updated, err := f.prescriptions.UpdateStatus(ctx, owner.ID, p.ID, models.PrescriptionCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.PrescriptionCompleted, updated.Status)

	// Any status may overwrite any other.
	updated, err = f.prescriptions.UpdateStatus(ctx, owner.ID, p.ID, models.PrescriptionActive)
	require.NoError(t, err)
	assert.Equal(t, models.PrescriptionActive, updated.Status)

	_, err = f.prescriptions.UpdateStatus(ctx, owner.ID, p.ID, "paused")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = f.prescriptions.UpdateStatus(ctx, owner.ID, primitive.NewObjectID(), models.PrescriptionActive)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPrescriptionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := primitive.NewObjectID()

	mutations := []func(*PrescriptionInput){
		func(in *PrescriptionInput) { in.Medication = "" },
		func(in *PrescriptionInput) { in.Frequency = "hourly" },
		func(in *PrescriptionInput) { in.StartDate = "yesterday" },
		func(in *PrescriptionInput) { in.EndDate = "2026-03-01" },
		func(in *PrescriptionInput) { in.Status = "paused" },
	}
	for i, mutate := range mutations {
		in := validPrescription()
		mutate(&in)
		_, err := f.prescriptions.Create(ctx, owner, in)
		assert.ErrorIs(t, err, apperrors.ErrValidation, "case %d", i)
	}
}

func TestAddEmbeddedPrescription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doctor := f.register(t, "Dr Lina", "lina@example.com", models.RoleDoctor)
	patient := f.register(t, "Omar", "omar@example.com", models.RolePatient)
	other := f.register(t, "Nadia", "nadia@example.com", models.RolePatient)

	p, err := f.prescriptions.AddEmbedded(ctx, doctor.ID, models.RoleDoctor, patient.ID, validPrescription())
	require.NoError(t, err)
	assert.Equal(t, doctor.ID, p.PrescribedBy)

	_, err = f.prescriptions.AddEmbedded(ctx, patient.ID, models.RolePatient, primitive.NilObjectID, validPrescription())
	require.NoError(t, err)

	_, err = f.prescriptions.AddEmbedded(ctx, other.ID, models.RolePatient, patient.ID, validPrescription())
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = f.prescriptions.AddEmbedded(ctx, doctor.ID, models.RoleDoctor, primitive.NilObjectID, validPrescription())
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = f.prescriptions.AddEmbedded(ctx, doctor.ID, models.RoleDoctor, doctor.ID, validPrescription())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	d, err := f.dashboard.Get(ctx, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Counts.ActivePrescriptions)
	assert.Len(t, d.RecentActivity, 2)

	// The standalone collection is a separate source and is not touched.
	list, err := f.prescriptions.List(ctx, patient.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestHealthRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doctor := f.register(t, "Dr Lina", "lina@example.com", models.RoleDoctor)
	patient := f.register(t, "Omar", "omar@example.com", models.RolePatient)

	_, err := f.records.Add(ctx, doctor.ID, models.RoleDoctor, HealthRecordInput{PatientID: patient.ID, Type: "lab", Title: "Blood panel", Date: "2026-02-01"})
	require.NoError(t, err)
	rec, err := f.records.Add(ctx, patient.ID, models.RolePatient, HealthRecordInput{Type: "vaccination", Title: "Flu shot"})
	require.NoError(t, err)
	assert.Equal(t, f.now, rec.Date)

	_, err = f.records.Add(ctx, patient.ID, models.RolePatient, HealthRecordInput{Type: "lab"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = f.records.Add(ctx, doctor.ID, models.RoleClinic, HealthRecordInput{PatientID: patient.ID, Type: "lab", Title: "x"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	list, err := f.records.List(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Flu shot", list[0].Title)
	assert.Equal(t, doctor.ID, list[1].DoctorID)
}
