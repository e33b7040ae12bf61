package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dormportal-backend/internal/apperr"
	"dormportal-backend/internal/model"
	"dormportal-backend/internal/registry"
)

// PageContent reads a page document, seeding the registry default on first
// access. Upcoming events whose moment has passed are bucketed into
// passedEvents on every read; the bucketed document is written back only when
// persist is true, so the write happens opportunistically on an admin's view
// rather than through a scheduled job.
func (s *gormStore) PageContent(ctx context.Context, dorm, pageID string, persist bool) (model.PageContent, error) {
	res, ok := s.reg.Get(dorm)
	if !ok {
		return model.PageContent{}, apperr.ErrConfigNotLoaded
	}

	var doc model.PageDocument
	err := s.db.WithContext(ctx).
		Where("dorm_id = ? AND page_id = ?", dorm, pageID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		def, known := res.Pages[pageID]
		if !known {
			return model.PageContent{}, fmt.Errorf("%w: page %s", apperr.ErrNotFound, pageID)
		}
		doc = model.PageDocument{DormID: dorm, PageID: pageID, Content: def}
		if err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&doc).Error; err != nil {
			return model.PageContent{}, fmt.Errorf("%w: seeding page %s: %v", apperr.ErrStoreUnavailable, pageID, err)
		}
	} else if err != nil {
		return model.PageContent{}, fmt.Errorf("%w: reading page %s: %v", apperr.ErrStoreUnavailable, pageID, err)
	}

	moved := model.SplitEvents(&doc.Content, s.now())
	if moved > 0 && persist {
		if err := s.db.WithContext(ctx).Model(&model.PageDocument{}).
			Where("dorm_id = ? AND page_id = ?", dorm, pageID).
			Update("content", doc.Content).Error; err != nil {
			return model.PageContent{}, fmt.Errorf("%w: persisting bucketed events for %s: %v", apperr.ErrStoreUnavailable, pageID, err)
		}
	}
	return doc.Content, nil
}

// UpdatePageContent writes a page document. Replace-mode residences swap the
// whole document; merge-mode residences overlay the fields present in the
// incoming document onto the stored one. Either way the write is
// last-write-wins; admin edits are rare and single-operator in practice.
func (s *gormStore) UpdatePageContent(ctx context.Context, dorm, pageID string, content model.PageContent) (model.PageContent, error) {
	res, ok := s.reg.Get(dorm)
	if !ok {
		return model.PageContent{}, apperr.ErrConfigNotLoaded
	}
	if _, known := res.Pages[pageID]; !known {
		return model.PageContent{}, fmt.Errorf("%w: page %s", apperr.ErrNotFound, pageID)
	}

	next := content
	if res.WriteMode == registry.WriteMerge {
		existing, err := s.PageContent(ctx, dorm, pageID, false)
		if err != nil {
			return model.PageContent{}, err
		}
		existing.Merge(content)
		next = existing
	}

	doc := model.PageDocument{DormID: dorm, PageID: pageID, Content: next}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dorm_id"}, {Name: "page_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
		}).
		Create(&doc).Error; err != nil {
		return model.PageContent{}, fmt.Errorf("%w: writing page %s: %v", apperr.ErrStoreUnavailable, pageID, err)
	}
	return next, nil
}
