package s3

import (
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageS3 bundles the client with the source (upload) and processed
// (derived output) buckets the services operate on.
type StorageS3 struct {
	Endpoint        string
	SourceBucket    string
	ProcessedBucket string
	Client          *minio.Client
}

func NewS3Client(endpoint, accessKeyID, secretKey, sourceBucket, processedBucket string, useSSL bool) (*StorageS3, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &StorageS3{
		Endpoint:        endpoint,
		SourceBucket:    sourceBucket,
		ProcessedBucket: processedBucket,
		Client:          client,
	}, nil
}
