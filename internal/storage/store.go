package storage

import (
	"context"
	"errors"
)

var (
	// ErrBlobNotFound is returned by Get when no blob exists at the locator.
	ErrBlobNotFound = errors.New("blob not found")
)

// BlobStore is durable byte storage addressed by an opaque locator. All vault
// ciphertext goes through this interface; the store never sees plaintext.
//
// Delete is idempotent: deleting a locator that is already absent succeeds.
type BlobStore interface {
	Put(ctx context.Context, locator string, data []byte) error
	Get(ctx context.Context, locator string) ([]byte, error)
	Delete(ctx context.Context, locator string) error
	Exists(ctx context.Context, locator string) (bool, error)

	// List returns every locator in the store. Used by the scrub tool to
	// find ciphertext no metadata record references.
	List(ctx context.Context) ([]string, error)
}

// Config selects and parameterises the blob store backend.
type Config struct {
	Backend   string `json:"backend" mapstructure:"backend"` // "filesystem" or "s3"
	UploadDir string `json:"upload_dir" mapstructure:"upload_dir"`
	S3        S3Config `json:"s3" mapstructure:"s3"`
}

type S3Config struct {
	Endpoint        string `json:"endpoint" mapstructure:"endpoint"`
	AccessKeyID     string `json:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" mapstructure:"secret_access_key"`
	UseSSL          bool   `json:"use_ssl" mapstructure:"use_ssl"`
	Region          string `json:"region" mapstructure:"region"`
	Bucket          string `json:"bucket" mapstructure:"bucket"`
	KeyPrefix       string `json:"key_prefix" mapstructure:"key_prefix"`
}
