package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/tabular-review/gateway/config"
)

// Archive keeps copies of generated CSV exports in object storage.
// Archival is best effort; export downloads never depend on it.
type Archive struct {
	client *minio.Client
	bucket string
	config *config.ArchiveConfig
}

func NewArchive(cfg *config.ArchiveConfig) (*Archive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &Archive{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the archive bucket if it doesn't exist
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// StoreExport writes one CSV export under the caller's prefix and returns
// the object name.
func (a *Archive) StoreExport(ctx context.Context, userID, reviewID string, data []byte) (string, error) {
	objectName := fmt.Sprintf("%s/%s/%s.csv", userID, reviewID, time.Now().UTC().Format("20060102T150405Z"))

	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return "", fmt.Errorf("failed to store export: %w", err)
	}

	return objectName, nil
}

// PresignedURL generates a download link for an archived export.
func (a *Archive) PresignedURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(a.config.ExpireDays) * 24 * time.Hour
	url, err := a.client.PresignedGetObject(ctx, a.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}
