package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/veersingh9540/DocumentDigitization-v1/internal/domain/entity"
	"github.com/veersingh9540/DocumentDigitization-v1/pkg/logger"
	"github.com/veersingh9540/DocumentDigitization-v1/pkg/utils"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
	statsWindowDays  = 7
	uploadURLExpiry  = 5 * time.Minute
	uploadKeyPrefix  = "uploads/"
)

type DocumentReader interface {
	List(ctx context.Context, filter entity.ListFilter) ([]entity.DocumentMetadata, error)
	GetWithFields(ctx context.Context, documentID string) (*entity.DocumentMetadata, []entity.DocumentField, error)
	Statistics(ctx context.Context, now time.Time, days int) (*entity.Statistics, error)
}

type UploadSigner interface {
	PresignedUploadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	SourceBucket() string
}

type StatsCache interface {
	Get(ctx context.Context) (*entity.Statistics, error)
	Set(ctx context.Context, stats *entity.Statistics) error
}

type Publisher interface {
	Publish(ctx context.Context, body json.RawMessage) error
}

// UploadURL is the indirection handed to dashboard uploaders: a time-limited
// PUT target plus the object key the ingestion side will see.
type UploadURL struct {
	SignedURL string `json:"signedUrl"`
	ObjectKey string `json:"objectKey"`
	Bucket    string `json:"bucket"`
}

type QueryUseCase struct {
	Repo      DocumentReader
	Signer    UploadSigner
	Cache     StatsCache
	Publisher Publisher
	Log       *logger.Logger

	now func() time.Time
}

func NewQueryUseCase(repo DocumentReader, signer UploadSigner, cache StatsCache, pub Publisher, log *logger.Logger) *QueryUseCase {
	return &QueryUseCase{
		Repo:      repo,
		Signer:    signer,
		Cache:     cache,
		Publisher: pub,
		Log:       log,
		now:       time.Now,
	}
}

// ListDocuments returns documents newest-first. The limit defaults to 10
// and is capped; an empty result is a valid response, not an error.
func (u *QueryUseCase) ListDocuments(ctx context.Context, query string, docType entity.DocumentType, limit, offset int) ([]entity.DocumentMetadata, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := u.Repo.List(ctx, entity.ListFilter{
		Query:  query,
		Type:   docType,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []entity.DocumentMetadata{}
	}
	return docs, nil
}

// GetDocument returns metadata plus the fields as a name->value mapping.
// Repeated field names resolve last-write-wins.
func (u *QueryUseCase) GetDocument(ctx context.Context, documentID string) (*entity.DocumentMetadata, map[string]string, error) {
	doc, fields, err := u.Repo.GetWithFields(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	return doc, entity.FieldsToMap(fields), nil
}

// GetStatistics serves the aggregate view, short-TTL cached. Cache failures
// degrade to the database, they never fail the request.
func (u *QueryUseCase) GetStatistics(ctx context.Context) (*entity.Statistics, error) {
	if u.Cache != nil {
		cached, err := u.Cache.Get(ctx)
		if err != nil {
			u.Log.Warn("statistics cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	stats, err := u.Repo.Statistics(ctx, u.now(), statsWindowDays)
	if err != nil {
		return nil, err
	}

	if u.Cache != nil {
		if err := u.Cache.Set(ctx, stats); err != nil {
			u.Log.Warn("statistics cache write failed", "error", err)
		}
	}
	return stats, nil
}

// CreateUploadURL issues a presigned PUT into the source bucket. No
// database row is created here; the ingestion worker writes it once the
// object lands, so callers must tolerate a window where the object exists
// but its metadata does not. File names that would escape the upload
// prefix are rejected before signing.
func (u *QueryUseCase) CreateUploadURL(ctx context.Context, fileName, fileType string) (*UploadURL, error) {
	if strings.ContainsAny(fileName, `/\`) || fileName == "." || fileName == ".." {
		return nil, fmt.Errorf("file name %q: %w", fileName, entity.ErrInvalidFileName)
	}

	key := uploadKeyPrefix + fileName
	signed, err := u.Signer.PresignedUploadURL(ctx, key, uploadURLExpiry)
	if err != nil {
		return nil, err
	}
	return &UploadURL{
		SignedURL: signed,
		ObjectKey: key,
		Bucket:    u.Signer.SourceBucket(),
	}, nil
}

// Reprocess republishes a document's original location as a direct
// object-ref event. Safe because ingestion is an idempotent upsert.
func (u *QueryUseCase) Reprocess(ctx context.Context, documentID string) error {
	doc, _, err := u.Repo.GetWithFields(ctx, documentID)
	if err != nil {
		return err
	}

	msg, err := utils.ToRawMessage(entity.ObjectRef{
		Bucket: doc.OriginalBucket,
		Key:    doc.OriginalKey,
	})
	if err != nil {
		return err
	}
	if err := u.publishWithRetry(ctx, msg); err != nil {
		return err
	}

	u.Log.Info("document requeued for processing", "document_id", documentID)
	return nil
}

func (u *QueryUseCase) publishWithRetry(ctx context.Context, msg json.RawMessage) error {
	var (
		baseDelay   = 500 * time.Millisecond
		maxDelay    = 10 * time.Second
		maxAttempts = 5
	)

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := u.Publisher.Publish(ctx, msg); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == maxAttempts {
			break
		}

		backoff := baseDelay << (attempt - 1)
		if backoff > maxDelay {
			backoff = maxDelay
		}

		select {
		case <-time.After(backoff):

		case <-ctx.Done():
			return errors.New("publish canceled by context")
		}
	}

	return lastErr
}
