package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"dormportal-backend/internal/apperr"
	"dormportal-backend/internal/laundry"
	"dormportal-backend/internal/model"
	"dormportal-backend/internal/registry"
)

// newTestStore opens an isolated in-memory SQLite database and returns a
// store over the default residence registry.
func newTestStore(t *testing.T) *gormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Building{},
		&model.UsageRecord{},
		&model.PageDocument{},
		&model.User{},
		&model.PushSubscription{},
		&model.CycleTimer{},
	))

	return NewGormStore(db, registry.Default()).(*gormStore)
}

func findMachine(t *testing.T, b *model.Building, id string) *model.Machine {
	t.Helper()
	idx := b.Machines.Find(id)
	require.NotEqual(t, -1, idx, "machine %s not in building %s", id, b.ID)
	return &b.Machines[idx]
}

func TestBuildingsSeedOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	buildings, err := s.Buildings(ctx, "pariser")
	require.NoError(t, err)
	require.Len(t, buildings, 1)
	assert.Equal(t, "pariser-main", buildings[0].ID)
	assert.Len(t, buildings[0].Machines, 10)

	// A second read must not duplicate the seed.
	again, err := s.Buildings(ctx, "pariser")
	require.NoError(t, err)
	assert.Len(t, again, 1)

	_, err = s.Buildings(ctx, "unknown-dorm")
	assert.ErrorIs(t, err, apperr.ErrConfigNotLoaded)
}

func TestStartThenFinish(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	before := time.Now().UTC()
	b, err := s.StartMachine(ctx, "pariser", "pw1", "user-203", 60*time.Minute)
	require.NoError(t, err)

	m := findMachine(t, b, "pw1")
	assert.Equal(t, model.StatusInUse, m.Status)
	require.NotNil(t, m.TimerEnd)
	assert.WithinDuration(t, before.Add(time.Hour), *m.TimerEnd, 5*time.Second)
	require.NotNil(t, m.ApartmentUser)
	assert.Equal(t, "user-203", *m.ApartmentUser)
	assert.True(t, laundry.CheckInvariant(m))

	b, err = s.FinishMachine(ctx, "pariser", "pw1")
	require.NoError(t, err)
	m = findMachine(t, b, "pw1")
	assert.Equal(t, model.StatusAvailable, m.Status)
	assert.Nil(t, m.TimerEnd)
	assert.Nil(t, m.ApartmentUser)

	// Finish is idempotent.
	b2, err := s.FinishMachine(ctx, "pariser", "pw1")
	require.NoError(t, err)
	assert.Equal(t, *findMachine(t, b, "pw1"), *findMachine(t, b2, "pw1"))

	records, err := s.History(ctx, "pariser", 10)
	require.NoError(t, err)
	require.Len(t, records, 2, "repeat finish must not add history")
	assert.Equal(t, model.UsageFinished, records[0].Event)
	assert.Equal(t, model.UsageStarted, records[1].Event)
	assert.Equal(t, "user-203", records[1].ApartmentUser)
}

func TestStartUnavailableMachine(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.StartMachine(ctx, "pariser", "pw2", "user-203", 30*time.Minute)
	require.NoError(t, err)

	_, err = s.StartMachine(ctx, "pariser", "pw2", "user-515", 30*time.Minute)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	// The failed start must leave the stored record unchanged.
	buildings, err := s.Buildings(ctx, "pariser")
	require.NoError(t, err)
	m := findMachine(t, &buildings[0], "pw2")
	assert.Equal(t, "user-203", *m.ApartmentUser)
}

func TestStartUnknownMachine(t *testing.T) {
	s := newTestStore(t)
	_, err := s.StartMachine(context.Background(), "pariser", "nope", "user-203", time.Minute)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReportEscalationAndResolve(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var b *model.Building
	var err error
	for i := 0; i < model.ReportThreshold; i++ {
		b, err = s.ReportIssue(ctx, "pariser", "pd2", "u1", "noisy")
		require.NoError(t, err)
	}
	m := findMachine(t, b, "pd2")
	assert.Equal(t, model.StatusOutOfOrder, m.Status)
	assert.Len(t, m.Reports, model.ReportThreshold)

	// Distinct report ids.
	ids := map[string]bool{}
	for _, r := range m.Reports {
		ids[r.ID] = true
	}
	assert.Len(t, ids, model.ReportThreshold)

	b, err = s.ResolveReport(ctx, "pariser", "pd2", m.Reports[0].ID)
	require.NoError(t, err)
	m = findMachine(t, b, "pd2")
	assert.Equal(t, model.StatusAvailable, m.Status)
	assert.Len(t, m.Reports, model.ReportThreshold-1)

	records, err := s.History(ctx, "pariser", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.UsageRestored, records[0].Event)
	assert.Equal(t, model.UsageOutOfOrder, records[1].Event)

	_, err = s.ResolveReport(ctx, "pariser", "pd2", "missing-report")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestWarnings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b, err := s.WarnMachine(ctx, "tabu", "tw1", "u2", "laundry left in drum")
	require.NoError(t, err)
	m := findMachine(t, b, "tw1")
	require.Len(t, m.Warnings, 1)
	assert.Equal(t, model.StatusAvailable, m.Status)

	b, err = s.ResolveWarning(ctx, "tabu", "tw1", m.Warnings[0].ID)
	require.NoError(t, err)
	assert.Empty(t, findMachine(t, b, "tw1").Warnings)
}

func TestInUseCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.InUseCount(ctx, "tabu", "40211")
	require.NoError(t, err)
	assert.Zero(t, count)

	// One machine per building; the count spans both buildings.
	_, err = s.StartMachine(ctx, "tabu", "tw1", "40211", time.Hour)
	require.NoError(t, err)
	_, err = s.StartMachine(ctx, "tabu", "tw4", "40211", time.Hour)
	require.NoError(t, err)
	_, err = s.StartMachine(ctx, "tabu", "tw2", "42345", time.Hour)
	require.NoError(t, err)

	count, err = s.InUseCount(ctx, "tabu", "40211")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

// A lost version race must re-read and retry rather than fail or overwrite.
func TestMutateRetriesOnVersionConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Buildings(ctx, "pariser")
	require.NoError(t, err)

	raced := false
	b, err := s.mutate(ctx, "pariser", "pw1", func(b *model.Building, idx int) ([]model.UsageRecord, error) {
		if !raced {
			raced = true
			// Simulate a concurrent writer landing between our read and write.
			require.NoError(t, s.db.Model(&model.Building{}).
				Where("dorm_id = ? AND id = ?", "pariser", b.ID).
				Update("version", gorm.Expr("version + 1")).Error)
		}
		laundry.Warn(&b.Machines[idx], "u1", "door squeaks")
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, raced)
	assert.Len(t, findMachine(t, b, "pw1").Warnings, 1)
}
