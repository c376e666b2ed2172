package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/veersingh9540/DocumentDigitization-v1/internal/domain/entity"
	"github.com/veersingh9540/DocumentDigitization-v1/pkg/logger"
	"github.com/veersingh9540/DocumentDigitization-v1/pkg/utils"
)

type DocumentWriter interface {
	UpsertProcessing(ctx context.Context, doc *entity.DocumentMetadata) error
	UpsertResult(ctx context.Context, doc *entity.DocumentMetadata, fields []entity.Field) error
	MarkFailed(ctx context.Context, documentID string) error
}

type Storage interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	PutProcessed(ctx context.Context, key string, data []byte, contentType string) (bucket, objectKey string, err error)
}

type Extractor interface {
	Extract(ctx context.Context, fileName string, content []byte) (entity.ExtractionResult, error)
}

type IngestConfig struct {
	// Only object keys under WatchPrefix with one of WatchSuffixes are
	// ingested; everything else is ignored, not failed.
	WatchPrefix   string
	WatchSuffixes []string

	Mapper utils.MapperConfig

	// Attempts for the extraction call, including the first one.
	MaxExtractAttempts int
}

type IngestUseCase struct {
	Repo      DocumentWriter
	Storage   Storage
	Extractor Extractor
	Config    IngestConfig
	Log       *logger.Logger
}

func NewIngestUseCase(repo DocumentWriter, storage Storage, extractor Extractor, cfg IngestConfig, log *logger.Logger) *IngestUseCase {
	if cfg.MaxExtractAttempts <= 0 {
		cfg.MaxExtractAttempts = 3
	}
	return &IngestUseCase{
		Repo:      repo,
		Storage:   storage,
		Extractor: extractor,
		Config:    cfg,
		Log:       log,
	}
}

// processedOutput is the derived JSON persisted next to the database write.
type processedOutput struct {
	DocumentID      string              `json:"document_id"`
	DocumentType    entity.DocumentType `json:"document_type"`
	PageCount       int                 `json:"page_count"`
	ExtractedFields []entity.Field      `json:"extracted_fields"`
	FullText        string              `json:"full_text"`
}

// ProcessEvent runs the ingestion pipeline for one object-created event.
// The returned bool reports whether the event was relevant at all; filtered
// events are skipped silently. The whole pipeline is idempotent per object
// key: the document id derives deterministically from the key, and the
// final write replaces the previous field set instead of appending.
func (u *IngestUseCase) ProcessEvent(ctx context.Context, ref entity.ObjectRef) (bool, error) {
	if !ref.Matches(u.Config.WatchPrefix, u.Config.WatchSuffixes) {
		return false, nil
	}

	documentID, err := utils.ResolveDocumentID(ref.Key)
	if err != nil {
		return true, fmt.Errorf("key %q: %w", ref.Key, err)
	}

	log := u.Log.With("document_id", documentID, "key", ref.Key)
	log.Info("processing document")

	doc := &entity.DocumentMetadata{
		DocumentID:     documentID,
		OriginalBucket: ref.Bucket,
		OriginalKey:    ref.Key,
		DocumentType:   entity.TypeUnknown,
		PageCount:      1,
	}
	if err := u.Repo.UpsertProcessing(ctx, doc); err != nil {
		return true, fmt.Errorf("register document %s: %w", documentID, err)
	}

	content, err := u.Storage.GetObject(ctx, ref.Bucket, ref.Key)
	if err != nil {
		u.markFailed(ctx, documentID)
		return true, fmt.Errorf("fetch source for %s: %w", documentID, err)
	}

	fileName := filepath.Base(ref.Key)
	doc.DocumentType = utils.ClassifyDocument(fileName, "")
	doc.PageCount = utils.PageCount(content, ref.Key)

	result, err := u.extractWithRetry(ctx, fileName, content)
	if err != nil {
		u.markFailed(ctx, documentID)
		if errors.Is(err, entity.ErrExtractionRejected) {
			// Terminal: recorded as failed, not redelivered.
			log.Warn("extraction rejected document", "error", err)
			return true, nil
		}
		return true, fmt.Errorf("extract %s: %w", documentID, err)
	}

	if doc.DocumentType == entity.TypeUnknown {
		doc.DocumentType = utils.ClassifyDocument(fileName, result.Text())
	}

	fields := utils.MapFields(doc.DocumentType, result, u.Config.Mapper)

	output := processedOutput{
		DocumentID:      documentID,
		DocumentType:    doc.DocumentType,
		PageCount:       doc.PageCount,
		ExtractedFields: fields,
		FullText:        result.Text(),
	}
	raw, err := utils.ToRawMessage(output)
	if err != nil {
		u.markFailed(ctx, documentID)
		return true, err
	}
	processedBucket, processedKey, err := u.Storage.PutProcessed(ctx, "processed/"+documentID+".json", raw, "application/json")
	if err != nil {
		u.markFailed(ctx, documentID)
		return true, fmt.Errorf("persist processed output for %s: %w", documentID, err)
	}

	doc.ProcessedBucket = processedBucket
	doc.ProcessedKey = processedKey
	doc.Status = entity.StatusProcessed
	if err := u.Repo.UpsertResult(ctx, doc, fields); err != nil {
		return true, fmt.Errorf("persist result for %s: %w", documentID, err)
	}

	log.Info("document processed",
		"document_type", doc.DocumentType,
		"page_count", doc.PageCount,
		"field_count", len(fields))
	return true, nil
}

// extractWithRetry retries the extraction call with capped exponential
// backoff, but only for transient failures.
func (u *IngestUseCase) extractWithRetry(ctx context.Context, fileName string, content []byte) (entity.ExtractionResult, error) {
	var (
		baseDelay = 500 * time.Millisecond
		maxDelay  = 10 * time.Second
	)

	var lastErr error

	for attempt := 1; attempt <= u.Config.MaxExtractAttempts; attempt++ {
		result, err := u.Extractor.Extract(ctx, fileName, content)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !errors.Is(err, entity.ErrExtractionTransient) {
			return entity.ExtractionResult{}, err
		}
		if attempt == u.Config.MaxExtractAttempts {
			break
		}

		backoff := baseDelay << (attempt - 1)
		if backoff > maxDelay {
			backoff = maxDelay
		}
		u.Log.Warn("extraction attempt failed, retrying",
			"attempt", attempt, "backoff", backoff.String(), "error", err)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return entity.ExtractionResult{}, fmt.Errorf("extraction canceled: %w", ctx.Err())
		}
	}

	return entity.ExtractionResult{}, lastErr
}

func (u *IngestUseCase) markFailed(ctx context.Context, documentID string) {
	if err := u.Repo.MarkFailed(ctx, documentID); err != nil {
		u.Log.Error("failed to mark document failed", "document_id", documentID, "error", err)
	}
}
