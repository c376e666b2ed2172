package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veersingh9540/DocumentDigitization-v1/internal/domain/entity"
	"github.com/veersingh9540/DocumentDigitization-v1/pkg/logger"
)

type fakeReader struct {
	docs       []entity.DocumentMetadata
	lastFilter entity.ListFilter
	listErr    error

	doc    *entity.DocumentMetadata
	fields []entity.DocumentField
	getErr error

	stats     *entity.Statistics
	statsErr  error
	statsNow  time.Time
	statsDays int
}

func (f *fakeReader) List(_ context.Context, filter entity.ListFilter) ([]entity.DocumentMetadata, error) {
	f.lastFilter = filter
	return f.docs, f.listErr
}

func (f *fakeReader) GetWithFields(_ context.Context, documentID string) (*entity.DocumentMetadata, []entity.DocumentField, error) {
	if f.getErr != nil {
		return nil, nil, f.getErr
	}
	return f.doc, f.fields, nil
}

func (f *fakeReader) Statistics(_ context.Context, now time.Time, days int) (*entity.Statistics, error) {
	f.statsNow = now
	f.statsDays = days
	return f.stats, f.statsErr
}

type fakeSigner struct {
	url     string
	err     error
	lastKey string
	expiry  time.Duration
}

func (f *fakeSigner) PresignedUploadURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	f.lastKey = key
	f.expiry = expiry
	return f.url, f.err
}

func (f *fakeSigner) SourceBucket() string { return "docflow-uploads" }

type fakeCache struct {
	stats  *entity.Statistics
	getErr error
	setErr error
	sets   int
}

func (f *fakeCache) Get(_ context.Context) (*entity.Statistics, error) { return f.stats, f.getErr }

func (f *fakeCache) Set(_ context.Context, stats *entity.Statistics) error {
	f.sets++
	if f.setErr == nil {
		f.stats = stats
	}
	return f.setErr
}

type fakePublisher struct {
	published []json.RawMessage
	errs      []error
}

func (f *fakePublisher) Publish(_ context.Context, body json.RawMessage) error {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	}
	f.published = append(f.published, body)
	return nil
}

func newQuery(r *fakeReader, s *fakeSigner, c *fakeCache, p *fakePublisher) *QueryUseCase {
	return NewQueryUseCase(r, s, c, p, logger.Nop())
}

func TestListDocumentsLimits(t *testing.T) {
	reader := &fakeReader{}
	uc := newQuery(reader, &fakeSigner{}, &fakeCache{}, &fakePublisher{})
	ctx := context.Background()

	t.Run("defaults applied", func(t *testing.T) {
		_, err := uc.ListDocuments(ctx, "", "", 0, -3)
		require.NoError(t, err)
		assert.Equal(t, 10, reader.lastFilter.Limit)
		assert.Equal(t, 0, reader.lastFilter.Offset)
	})

	t.Run("limit capped", func(t *testing.T) {
		_, err := uc.ListDocuments(ctx, "", "", 5000, 0)
		require.NoError(t, err)
		assert.Equal(t, 100, reader.lastFilter.Limit)
	})

	t.Run("nil result becomes empty slice", func(t *testing.T) {
		docs, err := uc.ListDocuments(ctx, "", "", 10, 0)
		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	})
}

func TestGetDocumentFlattensFields(t *testing.T) {
	reader := &fakeReader{
		doc: &entity.DocumentMetadata{DocumentID: "sample-invoice-001"},
		fields: []entity.DocumentField{
			{FieldName: "invoice_number", FieldValue: "INV-12345"},
			{FieldName: "total_amount", FieldValue: "1250.00"},
		},
	}
	uc := newQuery(reader, &fakeSigner{}, &fakeCache{}, &fakePublisher{})

	doc, fields, err := uc.GetDocument(context.Background(), "sample-invoice-001")
	require.NoError(t, err)
	assert.Equal(t, "sample-invoice-001", doc.DocumentID)
	assert.Equal(t, map[string]string{
		"invoice_number": "INV-12345",
		"total_amount":   "1250.00",
	}, fields)
}

func TestGetDocumentNotFound(t *testing.T) {
	reader := &fakeReader{getErr: entity.ErrNotFound}
	uc := newQuery(reader, &fakeSigner{}, &fakeCache{}, &fakePublisher{})

	_, _, err := uc.GetDocument(context.Background(), "nope")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestGetStatistics(t *testing.T) {
	fresh := &entity.Statistics{TotalDocuments: 3}

	t.Run("cache hit skips the database", func(t *testing.T) {
		reader := &fakeReader{statsErr: errors.New("db should not be touched")}
		cache := &fakeCache{stats: &entity.Statistics{TotalDocuments: 7}}
		uc := newQuery(reader, &fakeSigner{}, cache, &fakePublisher{})

		stats, err := uc.GetStatistics(context.Background())
		require.NoError(t, err)
		assert.EqualValues(t, 7, stats.TotalDocuments)
	})

	t.Run("cache miss queries and backfills", func(t *testing.T) {
		reader := &fakeReader{stats: fresh}
		cache := &fakeCache{}
		uc := newQuery(reader, &fakeSigner{}, cache, &fakePublisher{})
		fixed := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
		uc.now = func() time.Time { return fixed }

		stats, err := uc.GetStatistics(context.Background())
		require.NoError(t, err)
		assert.EqualValues(t, 3, stats.TotalDocuments)
		assert.Equal(t, fixed, reader.statsNow)
		assert.Equal(t, 7, reader.statsDays)
		assert.Equal(t, 1, cache.sets)
	})

	t.Run("cache errors degrade to the database", func(t *testing.T) {
		reader := &fakeReader{stats: fresh}
		cache := &fakeCache{getErr: errors.New("redis down"), setErr: errors.New("redis down")}
		uc := newQuery(reader, &fakeSigner{}, cache, &fakePublisher{})

		stats, err := uc.GetStatistics(context.Background())
		require.NoError(t, err)
		assert.EqualValues(t, 3, stats.TotalDocuments)
	})
}

func TestCreateUploadURL(t *testing.T) {
	t.Run("signs a key under the upload prefix", func(t *testing.T) {
		signer := &fakeSigner{url: "https://s3.local/docflow-uploads/uploads/report.pdf?sig=abc"}
		uc := newQuery(&fakeReader{}, signer, &fakeCache{}, &fakePublisher{})

		out, err := uc.CreateUploadURL(context.Background(), "report.pdf", "application/pdf")
		require.NoError(t, err)
		assert.Equal(t, signer.url, out.SignedURL)
		assert.Equal(t, "uploads/report.pdf", out.ObjectKey)
		assert.Equal(t, "docflow-uploads", out.Bucket)
		assert.Equal(t, "uploads/report.pdf", signer.lastKey)
		assert.Equal(t, 5*time.Minute, signer.expiry)
	})

	t.Run("file names that would escape the prefix are rejected", func(t *testing.T) {
		signer := &fakeSigner{url: "https://s3.local/x"}
		uc := newQuery(&fakeReader{}, signer, &fakeCache{}, &fakePublisher{})

		for _, name := range []string{
			"../processed/x.json",
			"a/b.pdf",
			`a\b.pdf`,
			"..",
			".",
		} {
			_, err := uc.CreateUploadURL(context.Background(), name, "application/pdf")
			assert.ErrorIs(t, err, entity.ErrInvalidFileName, "name: %q", name)
		}
		assert.Empty(t, signer.lastKey, "nothing may be signed for a rejected name")
	})
}

func TestReprocess(t *testing.T) {
	t.Run("publishes the original object ref", func(t *testing.T) {
		reader := &fakeReader{doc: &entity.DocumentMetadata{
			DocumentID:     "sample-invoice-001",
			OriginalBucket: "docflow-uploads",
			OriginalKey:    "uploads/sample-invoice-001.pdf",
		}}
		pub := &fakePublisher{}
		uc := newQuery(reader, &fakeSigner{}, &fakeCache{}, pub)

		require.NoError(t, uc.Reprocess(context.Background(), "sample-invoice-001"))

		require.Len(t, pub.published, 1)
		var ref entity.ObjectRef
		require.NoError(t, json.Unmarshal(pub.published[0], &ref))
		assert.Equal(t, "docflow-uploads", ref.Bucket)
		assert.Equal(t, "uploads/sample-invoice-001.pdf", ref.Key)
	})

	t.Run("unknown document", func(t *testing.T) {
		uc := newQuery(&fakeReader{getErr: entity.ErrNotFound}, &fakeSigner{}, &fakeCache{}, &fakePublisher{})
		assert.ErrorIs(t, uc.Reprocess(context.Background(), "ghost"), entity.ErrNotFound)
	})

	t.Run("publish retries transient broker errors", func(t *testing.T) {
		reader := &fakeReader{doc: &entity.DocumentMetadata{
			DocumentID:     "doc",
			OriginalBucket: "b",
			OriginalKey:    "uploads/doc.pdf",
		}}
		pub := &fakePublisher{errs: []error{errors.New("channel closed"), nil}}
		uc := newQuery(reader, &fakeSigner{}, &fakeCache{}, pub)

		require.NoError(t, uc.Reprocess(context.Background(), "doc"))
		require.Len(t, pub.published, 1)
	})
}
