package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/veersingh9540/DocumentDigitization-v1/internal/domain/entity"
	"github.com/veersingh9540/DocumentDigitization-v1/pkg/client/s3"
)

type S3Repo struct {
	StorageS3 *s3.StorageS3
}

func NewS3Repo(storageS3 *s3.StorageS3) *S3Repo {
	return &S3Repo{
		StorageS3: storageS3,
	}
}

// GetObject reads the full source object. A missing object maps to
// ErrSourceNotFound; the delivery layer owns redelivery.
func (s *S3Repo) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if s.StorageS3 == nil || s.StorageS3.Client == nil {
		return nil, fmt.Errorf("s3 client not initialized")
	}

	obj, err := s.StorageS3.Client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.StatusCode == 404 {
			return nil, fmt.Errorf("s3://%s/%s: %w", bucket, key, entity.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("s3 read object: %w", err)
	}
	return data, nil
}

// PutProcessed stores derived output into the processed bucket and returns
// the bucket and key it was written to.
func (s *S3Repo) PutProcessed(ctx context.Context, key string, data []byte, contentType string) (string, string, error) {
	if s.StorageS3 == nil || s.StorageS3.Client == nil {
		return "", "", fmt.Errorf("s3 client not initialized")
	}

	_, err := s.StorageS3.Client.PutObject(
		ctx,
		s.StorageS3.ProcessedBucket,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	)
	if err != nil {
		return "", "", fmt.Errorf("s3 put object: %w", err)
	}

	return s.StorageS3.ProcessedBucket, key, nil
}

// PresignedUploadURL returns a time-limited PUT URL into the source bucket
// plus the key the caller must use. No database row is created here; the
// ingestion worker does that once the object lands.
func (s *S3Repo) PresignedUploadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if s.StorageS3 == nil || s.StorageS3.Client == nil {
		return "", fmt.Errorf("s3 client not initialized")
	}

	presignedURL, err := s.StorageS3.Client.PresignedPutObject(ctx, s.StorageS3.SourceBucket, key, expiry)
	if err != nil {
		return "", fmt.Errorf("presigned put object: %w", err)
	}
	return presignedURL.String(), nil
}

// SourceBucket exposes the configured upload bucket name for responses.
func (s *S3Repo) SourceBucket() string {
	return s.StorageS3.SourceBucket
}
