package persistence

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk-portal/internal/config"
)

// ObjectStore keeps attachment blobs in a private MinIO bucket.
type ObjectStore struct {
	Client *minio.Client
	Bucket string
}

// NewObjectStore connects to MinIO and ensures the bucket exists. A blank
// endpoint disables attachments.
func NewObjectStore(ctx context.Context, cfg config.MinIOConfig, logger *zap.Logger) (*ObjectStore, error) {
	if cfg.Endpoint == "" {
		logger.Warn("MINIO_ENDPOINT not provided; attachments disabled")
		return &ObjectStore{Bucket: cfg.Bucket}, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("created minio bucket", zap.String("bucket", cfg.Bucket))
	}

	logger.Info("connected to minio", zap.String("endpoint", cfg.Endpoint))
	return &ObjectStore{Client: client, Bucket: cfg.Bucket}, nil
}

// Put uploads size bytes from reader under key.
func (s *ObjectStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if s == nil || s.Client == nil {
		return ErrNotConfigured
	}
	_, err := s.Client.PutObject(ctx, s.Bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

// Remove deletes key. Used to roll back an upload whose metadata failed to persist.
func (s *ObjectStore) Remove(ctx context.Context, key string) error {
	if s == nil || s.Client == nil {
		return ErrNotConfigured
	}
	return s.Client.RemoveObject(ctx, s.Bucket, key, minio.RemoveObjectOptions{})
}

// PresignGet returns a time-limited download URL for key.
func (s *ObjectStore) PresignGet(ctx context.Context, key, fileName string, expiry time.Duration) (string, error) {
	if s == nil || s.Client == nil {
		return "", ErrNotConfigured
	}
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	u, err := s.Client.PresignedGetObject(ctx, s.Bucket, key, expiry, params)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Ping verifies the bucket is reachable.
func (s *ObjectStore) Ping(ctx context.Context) error {
	if s == nil || s.Client == nil {
		return ErrNotConfigured
	}
	_, err := s.Client.BucketExists(ctx, s.Bucket)
	return err
}
