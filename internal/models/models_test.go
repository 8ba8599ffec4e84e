package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUnsetObjectIDsAreOmitted(t *testing.T) {
	apt := Appointment{ID: primitive.NewObjectID(), Date: time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC), Time: "09:00", Status: StatusScheduled}
	raw, err := json.Marshal(apt)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.NotContains(t, got, "cancelledBy")
	assert.NotContains(t, got, "cancelledAt")

	doc, err := bson.Marshal(apt)
	require.NoError(t, err)
	_, err = bson.Raw(doc).LookupErr("cancelledBy")
	assert.Error(t, err)

	u := &User{ID: primitive.NewObjectID(), Name: "Dr Lina", Role: RoleDoctor, Profile: Profile{Specialty: "cardiology"}}
	raw, err = json.Marshal(u.AsProvider())
	require.NoError(t, err)
	got = nil
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.NotContains(t, got, "clinicId")
	assert.Equal(t, "cardiology", got["specialty"])
}

func TestSetObjectIDsAreRendered(t *testing.T) {
	by := primitive.NewObjectID()
	clinic := primitive.NewObjectID()
	apt := Appointment{ID: primitive.NewObjectID(), Status: StatusCancelled, CancelledBy: &by}
	raw, err := json.Marshal(apt)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, by.Hex(), got["cancelledBy"])

	u := &User{ID: primitive.NewObjectID(), Role: RoleDoctor, Profile: Profile{ClinicID: &clinic}}
	raw, err = json.Marshal(u.AsProvider())
	require.NoError(t, err)
	got = nil
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, clinic.Hex(), got["clinicId"])
}
