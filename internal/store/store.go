package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dormportal-backend/internal/apperr"
	"dormportal-backend/internal/laundry"
	"dormportal-backend/internal/model"
	"dormportal-backend/internal/registry"
)

// Store defines the database operations of the portal. All machine mutations
// are atomic read-modify-write transactions on the owning building row.
type Store interface {
	DB() *gorm.DB

	// Buildings returns the residence's buildings, seeding them from the
	// registry defaults on first access.
	Buildings(ctx context.Context, dorm string) ([]model.Building, error)
	// InUseCount is the live number of machines the user currently has
	// running across all of the residence's buildings.
	InUseCount(ctx context.Context, dorm, user string) (int, error)

	StartMachine(ctx context.Context, dorm, machineID, user string, duration time.Duration) (*model.Building, error)
	FinishMachine(ctx context.Context, dorm, machineID string) (*model.Building, error)
	ReportIssue(ctx context.Context, dorm, machineID, user, issue string) (*model.Building, error)
	ResolveReport(ctx context.Context, dorm, machineID, reportID string) (*model.Building, error)
	WarnMachine(ctx context.Context, dorm, machineID, user, message string) (*model.Building, error)
	ResolveWarning(ctx context.Context, dorm, machineID, warningID string) (*model.Building, error)

	History(ctx context.Context, dorm string, limit int) ([]model.UsageRecord, error)

	// PageContent reads a content page, seeding the registry default when the
	// document does not exist yet. Event bucketing runs on every read; the
	// bucketed result is persisted only when persist is true (admin viewer).
	PageContent(ctx context.Context, dorm, pageID string, persist bool) (model.PageContent, error)
	UpdatePageContent(ctx context.Context, dorm, pageID string, content model.PageContent) (model.PageContent, error)
}

// writeRetries bounds the optimistic-concurrency retry loop for conflicting
// writes to the same building row.
const writeRetries = 5

// errConflict signals a lost version race inside the retry loop.
var errConflict = errors.New("building version conflict")

type gormStore struct {
	db  *gorm.DB
	reg *registry.Registry
	now func() time.Time

	seededMu sync.Mutex
	seeded   map[string]bool
}

// NewGormStore creates a GORM-backed store over the given residence registry.
func NewGormStore(db *gorm.DB, reg *registry.Registry) Store {
	return &gormStore{
		db:     db,
		reg:    reg,
		now:    func() time.Time { return time.Now().UTC() },
		seeded: make(map[string]bool),
	}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

// ensureSeeded inserts the residence's default buildings once. The insert
// ignores conflicts so concurrent first accesses cannot double-seed.
func (s *gormStore) ensureSeeded(ctx context.Context, res *registry.Residence) error {
	s.seededMu.Lock()
	done := s.seeded[res.ID]
	s.seededMu.Unlock()
	if done {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Building{}).
		Where("dorm_id = ?", res.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("%w: counting buildings: %v", apperr.ErrStoreUnavailable, err)
	}
	if count == 0 {
		seeds := make([]model.Building, len(res.Buildings))
		copy(seeds, res.Buildings)
		if err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&seeds).Error; err != nil {
			return fmt.Errorf("%w: seeding buildings: %v", apperr.ErrStoreUnavailable, err)
		}
	}

	s.seededMu.Lock()
	s.seeded[res.ID] = true
	s.seededMu.Unlock()
	return nil
}

func (s *gormStore) Buildings(ctx context.Context, dorm string) ([]model.Building, error) {
	res, ok := s.reg.Get(dorm)
	if !ok {
		return nil, apperr.ErrConfigNotLoaded
	}
	if err := s.ensureSeeded(ctx, res); err != nil {
		return nil, err
	}

	var buildings []model.Building
	if err := s.db.WithContext(ctx).
		Where("dorm_id = ?", dorm).
		Order("position").
		Find(&buildings).Error; err != nil {
		return nil, fmt.Errorf("%w: loading buildings: %v", apperr.ErrStoreUnavailable, err)
	}
	return buildings, nil
}

func (s *gormStore) InUseCount(ctx context.Context, dorm, user string) (int, error) {
	buildings, err := s.Buildings(ctx, dorm)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, b := range buildings {
		for i := range b.Machines {
			if b.Machines[i].InUseBy(user) {
				count++
			}
		}
	}
	return count, nil
}

// mutate runs apply against the machine's owning building under optimistic
// concurrency: read the row, compute the new machines document, then write it
// back guarded by the version column. A lost race re-reads and retries, so
// two operations on different machines in the same building serialize while
// operations on different buildings never contend.
func (s *gormStore) mutate(ctx context.Context, dorm, machineID string, apply func(b *model.Building, idx int) ([]model.UsageRecord, error)) (*model.Building, error) {
	res, ok := s.reg.Get(dorm)
	if !ok {
		return nil, apperr.ErrConfigNotLoaded
	}
	buildingID, ok := res.BuildingFor(machineID)
	if !ok {
		return nil, fmt.Errorf("%w: machine %s", apperr.ErrNotFound, machineID)
	}
	if err := s.ensureSeeded(ctx, res); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < writeRetries; attempt++ {
		var b model.Building
		err := s.db.WithContext(ctx).
			Where("dorm_id = ? AND id = ?", dorm, buildingID).
			First(&b).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: building %s", apperr.ErrNotFound, buildingID)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading building %s: %v", apperr.ErrStoreUnavailable, buildingID, err)
		}

		idx := b.Machines.Find(machineID)
		if idx == -1 {
			return nil, fmt.Errorf("%w: machine %s", apperr.ErrNotFound, machineID)
		}

		records, err := apply(&b, idx)
		if err != nil {
			return nil, err
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&model.Building{}).
				Where("dorm_id = ? AND id = ? AND version = ?", dorm, b.ID, b.Version).
				Updates(map[string]any{
					"machines": b.Machines,
					"version":  b.Version + 1,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return errConflict
			}
			for i := range records {
				if err := tx.Create(&records[i]).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			b.Version++
			return &b, nil
		}
		if errors.Is(err, errConflict) {
			continue
		}
		return nil, fmt.Errorf("%w: writing building %s: %v", apperr.ErrStoreUnavailable, buildingID, err)
	}
	return nil, fmt.Errorf("%w: too many concurrent writes to building %s", apperr.ErrStoreUnavailable, buildingID)
}

func (s *gormStore) StartMachine(ctx context.Context, dorm, machineID, user string, duration time.Duration) (*model.Building, error) {
	now := s.now()
	return s.mutate(ctx, dorm, machineID, func(b *model.Building, idx int) ([]model.UsageRecord, error) {
		m := &b.Machines[idx]
		if err := laundry.Start(m, user, duration, now); err != nil {
			return nil, err
		}
		end := *m.TimerEnd
		return []model.UsageRecord{{
			DormID:        dorm,
			BuildingID:    b.ID,
			MachineID:     machineID,
			Event:         model.UsageStarted,
			ApartmentUser: user,
			ObservedAt:    now,
			PeriodEnd:     &end,
		}}, nil
	})
}

func (s *gormStore) FinishMachine(ctx context.Context, dorm, machineID string) (*model.Building, error) {
	now := s.now()
	return s.mutate(ctx, dorm, machineID, func(b *model.Building, idx int) ([]model.UsageRecord, error) {
		m := &b.Machines[idx]
		wasRunning := m.Status == model.StatusInUse
		user := ""
		if m.ApartmentUser != nil {
			user = *m.ApartmentUser
		}
		laundry.Finish(m)
		if !wasRunning {
			// Idempotent repeat; nothing worth logging.
			return nil, nil
		}
		return []model.UsageRecord{{
			DormID:        dorm,
			BuildingID:    b.ID,
			MachineID:     machineID,
			Event:         model.UsageFinished,
			ApartmentUser: user,
			ObservedAt:    now,
		}}, nil
	})
}

func (s *gormStore) ReportIssue(ctx context.Context, dorm, machineID, user, issue string) (*model.Building, error) {
	now := s.now()
	return s.mutate(ctx, dorm, machineID, func(b *model.Building, idx int) ([]model.UsageRecord, error) {
		m := &b.Machines[idx]
		before := m.Status
		laundry.Report(m, user, issue)
		if before != model.StatusOutOfOrder && m.Status == model.StatusOutOfOrder {
			return []model.UsageRecord{{
				DormID:     dorm,
				BuildingID: b.ID,
				MachineID:  machineID,
				Event:      model.UsageOutOfOrder,
				ObservedAt: now,
			}}, nil
		}
		return nil, nil
	})
}

func (s *gormStore) ResolveReport(ctx context.Context, dorm, machineID, reportID string) (*model.Building, error) {
	now := s.now()
	return s.mutate(ctx, dorm, machineID, func(b *model.Building, idx int) ([]model.UsageRecord, error) {
		restored, err := laundry.ResolveReport(&b.Machines[idx], reportID)
		if err != nil {
			return nil, err
		}
		if restored {
			return []model.UsageRecord{{
				DormID:     dorm,
				BuildingID: b.ID,
				MachineID:  machineID,
				Event:      model.UsageRestored,
				ObservedAt: now,
			}}, nil
		}
		return nil, nil
	})
}

func (s *gormStore) WarnMachine(ctx context.Context, dorm, machineID, user, message string) (*model.Building, error) {
	return s.mutate(ctx, dorm, machineID, func(b *model.Building, idx int) ([]model.UsageRecord, error) {
		laundry.Warn(&b.Machines[idx], user, message)
		return nil, nil
	})
}

func (s *gormStore) ResolveWarning(ctx context.Context, dorm, machineID, warningID string) (*model.Building, error) {
	return s.mutate(ctx, dorm, machineID, func(b *model.Building, idx int) ([]model.UsageRecord, error) {
		return nil, laundry.ResolveWarning(&b.Machines[idx], warningID)
	})
}

func (s *gormStore) History(ctx context.Context, dorm string, limit int) ([]model.UsageRecord, error) {
	if _, ok := s.reg.Get(dorm); !ok {
		return nil, apperr.ErrConfigNotLoaded
	}
	if limit <= 0 {
		limit = 100
	}
	var records []model.UsageRecord
	if err := s.db.WithContext(ctx).
		Where("dorm_id = ?", dorm).
		Order("observed_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("%w: loading history: %v", apperr.ErrStoreUnavailable, err)
	}
	return records, nil
}
