package storage

import (
	"fmt"
)

// NewBlobStore builds the configured blob store backend.
func NewBlobStore(cfg Config) (BlobStore, error) {
	switch cfg.Backend {
	case "", "filesystem":
		return NewFileSystemStore(cfg.UploadDir)
	case "s3":
		return NewS3Store(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob store backend %q", cfg.Backend)
	}
}
