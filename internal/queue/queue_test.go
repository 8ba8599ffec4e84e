package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpreadsWaits(t *testing.T) {
	s, err := New(12, 4, 20)
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, 12, snap.CurrentNumber)
	assert.Equal(t, 5, snap.Position)
	assert.Equal(t, 20, snap.EstimatedWait)
	assert.False(t, snap.Done)
	assert.Equal(t, []Entry{
		{Number: 12, Position: 1, EstimatedWait: 0},
		{Number: 13, Position: 2, EstimatedWait: 5},
		{Number: 14, Position: 3, EstimatedWait: 10},
		{Number: 15, Position: 4, EstimatedWait: 15},
	}, snap.PeopleAhead)
}

func TestAdvance(t *testing.T) {
	s, err := New(1, 2, 3)
	require.NoError(t, err)

	s.Advance()
	snap := s.Snapshot()
	assert.Equal(t, 2, snap.CurrentNumber)
	assert.Equal(t, 2, snap.Position)
	assert.Equal(t, 1, snap.EstimatedWait)
	require.Len(t, snap.PeopleAhead, 1)
	assert.Equal(t, Entry{Number: 2, Position: 1, EstimatedWait: 0}, snap.PeopleAhead[0])

	s.Advance()
	s.Advance()
	snap = s.Snapshot()
	assert.True(t, snap.Done)
	assert.Equal(t, 1, snap.Position)
	assert.Zero(t, snap.EstimatedWait)
	assert.Equal(t, 3, snap.CurrentNumber, "current number stops once nobody is ahead")
}

func TestSnapshotIsACopy(t *testing.T) {
	s, _ := New(1, 3, 9)
	snap := s.Snapshot()
	snap.PeopleAhead[0].Number = 99
	assert.Equal(t, 1, s.Snapshot().PeopleAhead[0].Number)
}

func TestNewRejectsNegative(t *testing.T) {
	_, err := New(-1, 3, 10)
	assert.Error(t, err)
	_, err = New(1, -3, 10)
	assert.Error(t, err)
}

func TestEmptyQueue(t *testing.T) {
	s, err := New(7, 0, 0)
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.True(t, snap.Done)
	assert.Empty(t, snap.PeopleAhead)
}
