package timer

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
	"dormportal-backend/internal/model"
)

type recordingDispatcher struct {
	dispatched []model.CycleTimer
}

func (d *recordingDispatcher) Dispatch(t model.CycleTimer) {
	d.dispatched = append(d.dispatched, t)
}

func newTestEngine(t *testing.T) (*Engine, *recordingDispatcher) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.CycleTimer{}))

	d := &recordingDispatcher{}
	return NewEngine(db, d, time.Second), d
}

func TestStartCyclePersists(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	created, err := e.StartCycle(ctx, "user-1", "pariser", 3, 45, "wash")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.ID, "timer-"))
	assert.Equal(t, model.TypeWasher, created.MachineType)
	assert.Equal(t, "Machine 3", created.MachineName)
	assert.Equal(t, 45, created.Duration)

	// The active set survives an engine restart.
	restarted := NewEngine(e.db, &recordingDispatcher{}, time.Second)
	active, err := restarted.Active(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, created.ID, active[0].ID)

	_, err = e.StartCycle(ctx, "user-1", "pariser", 3, 0, "dry")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestCancel(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	created, err := e.StartCycle(ctx, "user-1", "pariser", 1, 30, "dry")
	require.NoError(t, err)

	// Another user cannot cancel it.
	assert.ErrorIs(t, e.Cancel(ctx, "user-2", created.ID), apperr.ErrNotFound)

	require.NoError(t, e.Cancel(ctx, "user-1", created.ID))
	active, err := e.Active(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.ErrorIs(t, e.Cancel(ctx, "user-1", created.ID), apperr.ErrNotFound)
}

func TestSweepDispatchesExpiredOnly(t *testing.T) {
	e, d := newTestEngine(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base }

	done, err := e.StartCycle(ctx, "user-1", "pariser", 2, 30, "wash")
	require.NoError(t, err)
	_, err = e.StartCycle(ctx, "user-1", "pariser", 4, 90, "dry")
	require.NoError(t, err)

	// Nothing has expired yet.
	e.SweepOnce(ctx)
	assert.Empty(t, d.dispatched)

	// 31 minutes later the wash timer is due, the dry timer is not.
	e.now = func() time.Time { return base.Add(31 * time.Minute) }
	e.SweepOnce(ctx)
	require.Len(t, d.dispatched, 1)
	assert.Equal(t, done.ID, d.dispatched[0].ID)

	active, err := e.Active(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 90, active[0].Duration)

	// A repeated sweep never re-dispatches.
	e.SweepOnce(ctx)
	assert.Len(t, d.dispatched, 1)
}
