package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const s3OpTimeout = 10 * time.Second

// S3Store implements BlobStore against any S3-compatible endpoint (MinIO in
// development). Each blob is one object at keyPrefix/locator.
type S3Store struct {
	client    *minio.Client
	bucket    string
	keyPrefix string
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	store := &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}

	ctx, cancel := context.WithTimeout(context.Background(), s3OpTimeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return store, nil
}

func (s *S3Store) key(locator string) string {
	if s.keyPrefix == "" {
		return locator
	}
	return strings.TrimSuffix(s.keyPrefix, "/") + "/" + locator
}

func (s *S3Store) Put(ctx context.Context, locator string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(locator),
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return fmt.Errorf("failed to store blob: %w", err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, locator string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(locator), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

func (s *S3Store) Delete(ctx context.Context, locator string) error {
	// RemoveObject on an absent key already succeeds, which matches the
	// idempotent-delete contract.
	if err := s.client.RemoveObject(ctx, s.bucket, s.key(locator), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (s *S3Store) Exists(ctx context.Context, locator string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, s.key(locator), minio.StatObjectOptions{})
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat blob: %w", err)
	}
	return true, nil
}

func (s *S3Store) List(ctx context.Context) ([]string, error) {
	prefix := ""
	if s.keyPrefix != "" {
		prefix = strings.TrimSuffix(s.keyPrefix, "/") + "/"
	}

	var locators []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", obj.Err)
		}
		locators = append(locators, strings.TrimPrefix(obj.Key, prefix))
	}
	return locators, nil
}
