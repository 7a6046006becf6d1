package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hemanth1845/FullStackProject/internal/db/models"
	"gorm.io/gorm"
)

// ErrRecordNotFound is returned when no vault record exists for an
// (id, owner) pair or when an owner has no records at all.
var ErrRecordNotFound = errors.New("record not found")

// MetadataStore is the durable record store for vault entries. Every lookup
// that takes an owner is scoped by it; there is deliberately no way to fetch
// a record by id alone.
type MetadataStore interface {
	Create(ctx context.Context, file *models.SecureFile) error
	FindByIDAndOwner(ctx context.Context, id, owner uint) (*models.SecureFile, error)
	FindAllByOwner(ctx context.Context, owner uint) ([]models.SecureFile, error)

	// Update persists the record's current field values in a single
	// statement, so blob locator and PIN hash always change together.
	Update(ctx context.Context, file *models.SecureFile) error
	Delete(ctx context.Context, file *models.SecureFile) error

	// ListAll returns every record in the store, for the scrub tool.
	ListAll(ctx context.Context) ([]models.SecureFile, error)
}

// GormMetadataStore is the production MetadataStore on top of gorm/postgres.
type GormMetadataStore struct {
	db *gorm.DB
}

func NewGormMetadataStore(db *gorm.DB) *GormMetadataStore {
	return &GormMetadataStore{db: db}
}

func (s *GormMetadataStore) Create(ctx context.Context, file *models.SecureFile) error {
	// The unique index on blob_locator makes a locator collision a hard
	// create failure instead of a silent overwrite.
	if err := s.db.WithContext(ctx).Create(file).Error; err != nil {
		return fmt.Errorf("failed to create vault record: %w", err)
	}
	return nil
}

func (s *GormMetadataStore) FindByIDAndOwner(ctx context.Context, id, owner uint) (*models.SecureFile, error) {
	var file models.SecureFile
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, owner).
		First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up vault record: %w", err)
	}
	return &file, nil
}

func (s *GormMetadataStore) FindAllByOwner(ctx context.Context, owner uint) ([]models.SecureFile, error) {
	var files []models.SecureFile
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", owner).
		Order("created_at ASC").
		Find(&files).Error; err != nil {
		return nil, fmt.Errorf("failed to list vault records: %w", err)
	}
	return files, nil
}

func (s *GormMetadataStore) Update(ctx context.Context, file *models.SecureFile) error {
	if err := s.db.WithContext(ctx).Save(file).Error; err != nil {
		return fmt.Errorf("failed to update vault record: %w", err)
	}
	return nil
}

func (s *GormMetadataStore) Delete(ctx context.Context, file *models.SecureFile) error {
	if err := s.db.WithContext(ctx).Delete(file).Error; err != nil {
		return fmt.Errorf("failed to delete vault record: %w", err)
	}
	return nil
}

func (s *GormMetadataStore) ListAll(ctx context.Context) ([]models.SecureFile, error) {
	var files []models.SecureFile
	if err := s.db.WithContext(ctx).Find(&files).Error; err != nil {
		return nil, fmt.Errorf("failed to list vault records: %w", err)
	}
	return files, nil
}
