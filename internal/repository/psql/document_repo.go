package psql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/veersingh9540/DocumentDigitization-v1/internal/domain/entity"
)

type GormDocumentRepo struct {
	DB *gorm.DB
}

func NewGormDocumentRepo(db *gorm.DB) *GormDocumentRepo {
	return &GormDocumentRepo{DB: db}
}

// UpsertProcessing registers a document at the start of an ingestion
// attempt. A new row starts at processing; an existing row (re-ingestion)
// is moved back into the lifecycle under last-writer-wins, keeping its
// created_at.
func (r *GormDocumentRepo) UpsertProcessing(ctx context.Context, doc *entity.DocumentMetadata) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := &entity.DocumentMetadata{}
		err := tx.First(existing, "document_id = ?", doc.DocumentID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			doc.Status = entity.StatusProcessing
			return tx.Create(doc).Error
		}
		if err != nil {
			return fmt.Errorf("lookup document %s: %w", doc.DocumentID, err)
		}

		existing.OriginalBucket = doc.OriginalBucket
		existing.OriginalKey = doc.OriginalKey
		existing.Status = entity.StatusProcessing
		if err := tx.Save(existing).Error; err != nil {
			return err
		}
		*doc = *existing
		return nil
	})
}

// UpsertResult writes the final outcome of an ingestion attempt: metadata
// and the full replacement field set in one transaction, so readers never
// observe metadata without its fields.
func (r *GormDocumentRepo) UpsertResult(ctx context.Context, doc *entity.DocumentMetadata, fields []entity.Field) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := &entity.DocumentMetadata{}
		err := tx.First(existing, "document_id = ?", doc.DocumentID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(doc).Error; err != nil {
				return err
			}
		case err != nil:
			return fmt.Errorf("lookup document %s: %w", doc.DocumentID, err)
		default:
			existing.OriginalBucket = doc.OriginalBucket
			existing.OriginalKey = doc.OriginalKey
			existing.ProcessedBucket = doc.ProcessedBucket
			existing.ProcessedKey = doc.ProcessedKey
			existing.DocumentType = doc.DocumentType
			existing.PageCount = doc.PageCount
			existing.Status = doc.Status
			if err := tx.Save(existing).Error; err != nil {
				return err
			}
			*doc = *existing
		}

		if err := tx.Where("document_id = ?", doc.DocumentID).Delete(&entity.DocumentField{}).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		rows := make([]entity.DocumentField, len(fields))
		for i, f := range fields {
			rows[i] = entity.DocumentField{
				DocumentID: doc.DocumentID,
				FieldName:  f.Name,
				FieldValue: f.Value,
			}
		}
		return tx.Create(&rows).Error
	})
}

// MarkFailed moves a document to failed, only ever forward.
func (r *GormDocumentRepo) MarkFailed(ctx context.Context, documentID string) error {
	doc := &entity.DocumentMetadata{}
	if err := r.DB.WithContext(ctx).First(doc, "document_id = ?", documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.ErrNotFound
		}
		return err
	}
	if !doc.Status.CanTransitionTo(entity.StatusFailed) {
		return nil
	}
	return r.DB.WithContext(ctx).Model(doc).Update("status", entity.StatusFailed).Error
}

// List returns documents newest-first, optionally filtered by a document_id
// substring and a document type.
func (r *GormDocumentRepo) List(ctx context.Context, filter entity.ListFilter) ([]entity.DocumentMetadata, error) {
	q := r.DB.WithContext(ctx).Model(&entity.DocumentMetadata{})
	if filter.Query != "" {
		q = q.Where("lower(document_id) LIKE ?", "%"+strings.ToLower(filter.Query)+"%")
	}
	if filter.Type != "" {
		q = q.Where("document_type = ?", filter.Type)
	}
	var docs []entity.DocumentMetadata
	err := q.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// GetWithFields loads one document and its fields in insertion order.
func (r *GormDocumentRepo) GetWithFields(ctx context.Context, documentID string) (*entity.DocumentMetadata, []entity.DocumentField, error) {
	doc := &entity.DocumentMetadata{}
	if err := r.DB.WithContext(ctx).First(doc, "document_id = ?", documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, entity.ErrNotFound
		}
		return nil, nil, err
	}

	var fields []entity.DocumentField
	if err := r.DB.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("id ASC").
		Find(&fields).Error; err != nil {
		return nil, nil, err
	}
	return doc, fields, nil
}

// Delete removes a document and cascades to its fields.
func (r *GormDocumentRepo) Delete(ctx context.Context, documentID string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&entity.DocumentField{}).Error; err != nil {
			return err
		}
		res := tx.Where("document_id = ?", documentID).Delete(&entity.DocumentMetadata{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return entity.ErrNotFound
		}
		return nil
	})
}

// Statistics aggregates totals, per-type counts and a zero-filled daily
// series covering the last `days` calendar days up to and including today.
func (r *GormDocumentRepo) Statistics(ctx context.Context, now time.Time, days int) (*entity.Statistics, error) {
	stats := &entity.Statistics{
		ByType: make(map[entity.DocumentType]int64),
	}

	if err := r.DB.WithContext(ctx).Model(&entity.DocumentMetadata{}).
		Count(&stats.TotalDocuments).Error; err != nil {
		return nil, err
	}

	var typeRows []struct {
		DocumentType entity.DocumentType
		Count        int64
	}
	if err := r.DB.WithContext(ctx).Model(&entity.DocumentMetadata{}).
		Select("document_type, count(*) as count").
		Group("document_type").
		Scan(&typeRows).Error; err != nil {
		return nil, err
	}
	for _, row := range typeRows {
		stats.ByType[row.DocumentType] = row.Count
	}

	windowStart := dailyWindowStart(now, days)
	var dayRows []struct {
		Day   string
		Count int64
	}
	if err := r.DB.WithContext(ctx).Model(&entity.DocumentMetadata{}).
		Select("date(created_at) as day, count(*) as count").
		Where("created_at >= ?", windowStart).
		Group("date(created_at)").
		Scan(&dayRows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(dayRows))
	for _, row := range dayRows {
		counts[dayKey(row.Day)] = row.Count
	}

	// One entry per calendar day regardless of data presence.
	stats.DailyCounts = make([]entity.DailyCount, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format("2006-01-02")
		stats.DailyCounts = append(stats.DailyCounts, entity.DailyCount{
			Date:  day,
			Count: counts[day],
		})
	}

	return stats, nil
}

// dailyWindowStart is midnight of the first day of the series, in now's
// location, so the window boundary and the series labels agree.
func dailyWindowStart(now time.Time, days int) time.Time {
	start := now.AddDate(0, 0, -(days - 1))
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
}

// dayKey normalizes a scanned date() value to YYYY-MM-DD. Drivers disagree
// here: sqlite hands back the bare day, the postgres stack a full timestamp
// string for the same column.
func dayKey(raw string) string {
	if len(raw) > 10 {
		return raw[:10]
	}
	return raw
}
