package laundry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dormportal-backend/internal/apperr"
	"dormportal-backend/internal/model"
)

func availableMachine(id string, typ model.MachineType) model.Machine {
	return model.Machine{
		ID:       id,
		Name:     "Washer 1",
		Type:     typ,
		Status:   model.StatusAvailable,
		Reports:  []model.Report{},
		Warnings: []model.Warning{},
	}
}

func TestStart(t *testing.T) {
	now := time.Now()
	m := availableMachine("pw1", model.TypeWasher)

	err := Start(&m, "user-203", 60*time.Minute, now)
	require.NoError(t, err)

	assert.Equal(t, model.StatusInUse, m.Status)
	require.NotNil(t, m.TimerEnd)
	assert.Equal(t, now.Add(time.Hour), *m.TimerEnd)
	require.NotNil(t, m.ApartmentUser)
	assert.Equal(t, "user-203", *m.ApartmentUser)
	assert.True(t, CheckInvariant(&m))
}

func TestStartNotAvailable(t *testing.T) {
	now := time.Now()
	for _, status := range []model.MachineStatus{model.StatusInUse, model.StatusOutOfOrder} {
		m := availableMachine("pw1", model.TypeWasher)
		m.Status = status
		before := m

		err := Start(&m, "user-203", 30*time.Minute, now)
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
		// A failed start must leave the record unchanged.
		assert.Equal(t, before, m)
	}
}

func TestFinishIdempotent(t *testing.T) {
	m := availableMachine("pw1", model.TypeWasher)
	require.NoError(t, Start(&m, "user-203", time.Hour, time.Now()))

	Finish(&m)
	first := m
	Finish(&m)

	assert.Equal(t, first, m)
	assert.Equal(t, model.StatusAvailable, m.Status)
	assert.Nil(t, m.TimerEnd)
	assert.Nil(t, m.ApartmentUser)
	assert.True(t, CheckInvariant(&m))
}

func TestReportEscalation(t *testing.T) {
	m := availableMachine("pd2", model.TypeDryer)

	seen := map[string]bool{}
	for i := 0; i < model.ReportThreshold-1; i++ {
		r := Report(&m, "u1", "noisy")
		assert.False(t, seen[r.ID], "report ids must be distinct")
		seen[r.ID] = true
		assert.Equal(t, model.StatusAvailable, m.Status)
		assert.True(t, CheckInvariant(&m))
	}

	Report(&m, "u1", "noisy")
	assert.Equal(t, model.StatusOutOfOrder, m.Status)
	assert.Len(t, m.Reports, model.ReportThreshold)

	// A sixth report keeps it out-of-order.
	Report(&m, "u2", "still noisy")
	assert.Equal(t, model.StatusOutOfOrder, m.Status)
	assert.Len(t, m.Reports, model.ReportThreshold+1)
	assert.True(t, CheckInvariant(&m))
}

func TestReportEscalatesFromInUse(t *testing.T) {
	m := availableMachine("pw3", model.TypeWasher)
	require.NoError(t, Start(&m, "user-515", time.Hour, time.Now()))

	for i := 0; i < model.ReportThreshold; i++ {
		Report(&m, "u1", "leaks")
	}
	assert.Equal(t, model.StatusOutOfOrder, m.Status)
	assert.True(t, CheckInvariant(&m))
}

func TestResolveReportRestores(t *testing.T) {
	m := availableMachine("pd2", model.TypeDryer)
	for i := 0; i < model.ReportThreshold; i++ {
		Report(&m, "u1", "noisy")
	}
	require.Equal(t, model.StatusOutOfOrder, m.Status)

	restored, err := ResolveReport(&m, m.Reports[0].ID)
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Equal(t, model.StatusAvailable, m.Status)
	assert.Len(t, m.Reports, model.ReportThreshold-1)
	// The restore discards any interrupted cycle rather than resuming it.
	assert.Nil(t, m.TimerEnd)
	assert.Nil(t, m.ApartmentUser)
	assert.True(t, CheckInvariant(&m))
}

func TestResolveReportBelowThresholdKeepsStatus(t *testing.T) {
	m := availableMachine("pw1", model.TypeWasher)
	r := Report(&m, "u1", "door stuck")

	restored, err := ResolveReport(&m, r.ID)
	require.NoError(t, err)
	assert.False(t, restored)
	assert.Equal(t, model.StatusAvailable, m.Status)
	assert.Empty(t, m.Reports)
}

func TestResolveReportUnknownID(t *testing.T) {
	m := availableMachine("pw1", model.TypeWasher)
	Report(&m, "u1", "noisy")

	_, err := ResolveReport(&m, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Len(t, m.Reports, 1)
}

func TestWarningsNeverAffectStatus(t *testing.T) {
	m := availableMachine("pw1", model.TypeWasher)
	require.NoError(t, Start(&m, "user-203", time.Hour, time.Now()))

	w := Warn(&m, "u2", "laundry left in drum")
	assert.Equal(t, model.StatusInUse, m.Status)
	assert.Len(t, m.Warnings, 1)

	require.NoError(t, ResolveWarning(&m, w.ID))
	assert.Empty(t, m.Warnings)
	assert.Equal(t, model.StatusInUse, m.Status)
	assert.True(t, CheckInvariant(&m))

	assert.ErrorIs(t, ResolveWarning(&m, w.ID), apperr.ErrNotFound)
}

// Full normal cycle from the dashboard's point of view.
func TestStartThenFinishScenario(t *testing.T) {
	now := time.Now()
	m := availableMachine("pw1", model.TypeWasher)

	require.NoError(t, Start(&m, "user-203", 60*time.Minute, now))
	assert.Equal(t, model.StatusInUse, m.Status)
	assert.WithinDuration(t, now.Add(time.Hour), *m.TimerEnd, time.Second)
	assert.Equal(t, "user-203", *m.ApartmentUser)

	Finish(&m)
	assert.Equal(t, model.StatusAvailable, m.Status)
	assert.Nil(t, m.TimerEnd)
	assert.Nil(t, m.ApartmentUser)
}
