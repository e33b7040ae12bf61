// Package timer tracks laundry-cycle countdowns per user, independent of the
// shared machine records. Timers live in the database so restarts and
// reconnecting clients reconstruct the in-flight set; a fixed-period poll
// detects expiry lazily, so completion may be reported late but never early.
package timer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dormportal-backend/internal/apperr"
	"dormportal-backend/internal/model"
)

// DefaultPollInterval is the expiry check period.
const DefaultPollInterval = time.Second

// Dispatcher receives expired timers for notification delivery.
type Dispatcher interface {
	Dispatch(timer model.CycleTimer)
}

// Engine owns the active-timer set and the expiry poll loop.
type Engine struct {
	db       *gorm.DB
	pool     Dispatcher
	interval time.Duration
	now      func() time.Time
}

// NewEngine creates a timer engine polling at the given interval; zero means
// DefaultPollInterval.
func NewEngine(db *gorm.DB, pool Dispatcher, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Engine{
		db:       db,
		pool:     pool,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// StartCycle registers a countdown for a machine the user just started.
func (e *Engine) StartCycle(ctx context.Context, userID, dorm string, machineNumber, durationMinutes int, cycleType string) (model.CycleTimer, error) {
	if durationMinutes <= 0 {
		return model.CycleTimer{}, fmt.Errorf("%w: duration must be positive", apperr.ErrInvalidState)
	}
	machineType := model.TypeDryer
	if cycleType == "wash" {
		machineType = model.TypeWasher
	}

	now := e.now()
	t := model.CycleTimer{
		ID:            "timer-" + uuid.NewString(),
		UserID:        userID,
		DormID:        dorm,
		MachineNumber: machineNumber,
		MachineType:   machineType,
		MachineName:   fmt.Sprintf("Machine %d", machineNumber),
		CycleType:     cycleType,
		EndTime:       now.Add(time.Duration(durationMinutes) * time.Minute),
		Duration:      durationMinutes,
	}
	if err := e.db.WithContext(ctx).Create(&t).Error; err != nil {
		return model.CycleTimer{}, fmt.Errorf("%w: creating timer: %v", apperr.ErrStoreUnavailable, err)
	}
	return t, nil
}

// Cancel removes one of the user's timers unconditionally. No undo.
func (e *Engine) Cancel(ctx context.Context, userID, timerID string) error {
	result := e.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", timerID, userID).
		Delete(&model.CycleTimer{})
	if result.Error != nil {
		return fmt.Errorf("%w: deleting timer: %v", apperr.ErrStoreUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: timer %s", apperr.ErrNotFound, timerID)
	}
	return nil
}

// Active returns the user's in-flight timers, soonest first.
func (e *Engine) Active(ctx context.Context, userID string) ([]model.CycleTimer, error) {
	var timers []model.CycleTimer
	if err := e.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("end_time").
		Find(&timers).Error; err != nil {
		return nil, fmt.Errorf("%w: loading timers: %v", apperr.ErrStoreUnavailable, err)
	}
	return timers, nil
}

// Run drives the expiry poll until the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	log.Printf("timer engine polling every %s", e.interval)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("timer engine shutting down")
			return
		case <-ticker.C:
			e.SweepOnce(ctx)
		}
	}
}

// SweepOnce expires every timer whose end time has passed: the row is removed
// from the active set first, then the notification is dispatched, so a crash
// can at worst drop a notice, never repeat one.
func (e *Engine) SweepOnce(ctx context.Context) {
	now := e.now()
	var expired []model.CycleTimer
	if err := e.db.WithContext(ctx).
		Where("end_time <= ?", now).
		Find(&expired).Error; err != nil {
		log.Printf("timer sweep query failed: %v", err)
		return
	}

	for _, t := range expired {
		result := e.db.WithContext(ctx).Where("id = ?", t.ID).Delete(&model.CycleTimer{})
		if result.Error != nil {
			log.Printf("removing expired timer %s: %v", t.ID, result.Error)
			continue
		}
		if result.RowsAffected == 0 {
			// Cancelled between the query and the delete.
			continue
		}
		e.pool.Dispatch(t)
	}
}
