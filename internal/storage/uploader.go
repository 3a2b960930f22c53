package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/doctorai-app/backend/internal/apperrors"
	"github.com/doctorai-app/backend/internal/config"
	"github.com/doctorai-app/backend/internal/domain"
)

const uploadTimeout = 10 * time.Second

// Uploader stores image bytes in an S3-compatible bucket. Each upload gets
// a fresh object key; nothing deletes objects yet, so the storage id is
// persisted with the record for a future cleanup job.
type Uploader struct {
	client *minio.Client
	bucket string
}

// NewUploader connects to the object store and creates the bucket if it
// does not exist yet.
func NewUploader(ctx context.Context, cfg config.StorageConfig) (*Uploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Uploader{client: client, bucket: cfg.Bucket}, nil
}

// Upload writes the bytes under a fresh key and returns the durable URL
// plus the key for later reference.
func (u *Uploader) Upload(ctx context.Context, data []byte, contentType string) (*domain.UploadResult, error) {
	key := uuid.NewString() + extensionFor(contentType)

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindUpload, "image upload failed")
	}

	return &domain.UploadResult{
		URL:       fmt.Sprintf("%s/%s/%s", u.client.EndpointURL(), u.bucket, key),
		StorageID: key,
	}, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
