package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStorageEvent(t *testing.T) {
	t.Parallel()

	t.Run("s3 object-created record", func(t *testing.T) {
		t.Parallel()
		body := []byte(`{"Records":[{"eventName":"s3:ObjectCreated:Put","s3":{"bucket":{"name":"docflow-uploads"},"object":{"key":"uploads/sample-invoice-001.pdf"}}}]}`)
		ref, err := ParseStorageEvent(body)
		require.NoError(t, err)
		assert.Equal(t, "docflow-uploads", ref.Bucket)
		assert.Equal(t, "uploads/sample-invoice-001.pdf", ref.Key)
	})

	t.Run("url-encoded object key is decoded", func(t *testing.T) {
		t.Parallel()
		body := []byte(`{"Records":[{"eventName":"s3:ObjectCreated:Put","s3":{"bucket":{"name":"b"},"object":{"key":"uploads/cylinder+log+jan.pdf"}}}]}`)
		ref, err := ParseStorageEvent(body)
		require.NoError(t, err)
		assert.Equal(t, "uploads/cylinder log jan.pdf", ref.Key)
	})

	t.Run("non-created event is ignored, not invalid", func(t *testing.T) {
		t.Parallel()
		body := []byte(`{"Records":[{"eventName":"s3:ObjectRemoved:Delete","s3":{"bucket":{"name":"b"},"object":{"key":"uploads/x.pdf"}}}]}`)
		_, err := ParseStorageEvent(body)
		assert.ErrorIs(t, err, ErrEventIgnored)
		assert.NotErrorIs(t, err, ErrInvalidEventKind)
	})

	t.Run("direct object reference", func(t *testing.T) {
		t.Parallel()
		ref, err := ParseStorageEvent([]byte(`{"bucket":"docflow-uploads","key":"uploads/report.pdf"}`))
		require.NoError(t, err)
		assert.Equal(t, "uploads/report.pdf", ref.Key)
	})

	t.Run("unrecognized payloads rejected", func(t *testing.T) {
		t.Parallel()
		for _, body := range []string{
			`{"detail":{"requestParameters":{}}}`,
			`{"Records":[]}`,
			`{"bucket":"only-bucket"}`,
			`not json`,
			`{}`,
		} {
			_, err := ParseStorageEvent([]byte(body))
			assert.ErrorIs(t, err, ErrInvalidEventKind, "payload: %s", body)
		}
	})
}

func TestObjectRefMatches(t *testing.T) {
	t.Parallel()

	ref := ObjectRef{Bucket: "b", Key: "uploads/scan.PDF"}

	assert.True(t, ref.Matches("uploads/", []string{".pdf"}))
	assert.True(t, ref.Matches("", []string{".pdf", ".png"}))
	assert.True(t, ref.Matches("uploads/", nil))
	assert.False(t, ref.Matches("processed/", []string{".pdf"}))
	assert.False(t, ref.Matches("uploads/", []string{".tiff"}))
}
