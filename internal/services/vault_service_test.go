package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Hemanth1845/FullStackProject/internal/db/models"
	"github.com/Hemanth1845/FullStackProject/internal/storage"
	"github.com/Hemanth1845/FullStackProject/pkg/metrics"
)

// memBlobStore is an in-memory BlobStore with failure injection.
type memBlobStore struct {
	blobs   map[string][]byte
	failPut bool
	failGet bool
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (s *memBlobStore) Put(ctx context.Context, locator string, data []byte) error {
	if s.failPut {
		return errors.New("injected put failure")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.blobs[locator] = cp
	return nil
}

func (s *memBlobStore) Get(ctx context.Context, locator string) ([]byte, error) {
	if s.failGet {
		return nil, errors.New("injected get failure")
	}
	data, ok := s.blobs[locator]
	if !ok {
		return nil, storage.ErrBlobNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (s *memBlobStore) Delete(ctx context.Context, locator string) error {
	delete(s.blobs, locator)
	return nil
}

func (s *memBlobStore) Exists(ctx context.Context, locator string) (bool, error) {
	_, ok := s.blobs[locator]
	return ok, nil
}

func (s *memBlobStore) List(ctx context.Context) ([]string, error) {
	locators := make([]string, 0, len(s.blobs))
	for l := range s.blobs {
		locators = append(locators, l)
	}
	return locators, nil
}

// memMetadataStore is an in-memory MetadataStore with failure injection.
type memMetadataStore struct {
	records      map[uint]models.SecureFile
	nextID       uint
	failCreate   bool
	failUpdateID uint
}

func newMemMetadataStore() *memMetadataStore {
	return &memMetadataStore{records: make(map[uint]models.SecureFile), nextID: 1}
}

func (s *memMetadataStore) Create(ctx context.Context, file *models.SecureFile) error {
	if s.failCreate {
		return errors.New("injected create failure")
	}
	for _, r := range s.records {
		if r.BlobLocator == file.BlobLocator {
			return fmt.Errorf("duplicate blob locator %s", file.BlobLocator)
		}
	}
	file.ID = s.nextID
	file.CreatedAt = time.Now()
	s.nextID++
	s.records[file.ID] = *file
	return nil
}

func (s *memMetadataStore) FindByIDAndOwner(ctx context.Context, id, owner uint) (*models.SecureFile, error) {
	r, ok := s.records[id]
	if !ok || r.UserID != owner {
		return nil, storage.ErrRecordNotFound
	}
	cp := r
	return &cp, nil
}

func (s *memMetadataStore) FindAllByOwner(ctx context.Context, owner uint) ([]models.SecureFile, error) {
	var out []models.SecureFile
	for id := uint(1); id < s.nextID; id++ {
		if r, ok := s.records[id]; ok && r.UserID == owner {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memMetadataStore) Update(ctx context.Context, file *models.SecureFile) error {
	if s.failUpdateID != 0 && file.ID == s.failUpdateID {
		return errors.New("injected update failure")
	}
	if _, ok := s.records[file.ID]; !ok {
		return storage.ErrRecordNotFound
	}
	s.records[file.ID] = *file
	return nil
}

func (s *memMetadataStore) Delete(ctx context.Context, file *models.SecureFile) error {
	delete(s.records, file.ID)
	return nil
}

func (s *memMetadataStore) ListAll(ctx context.Context) ([]models.SecureFile, error) {
	var out []models.SecureFile
	for _, r := range s.records {
		out = append(out, r)
	}
	return out, nil
}

func newTestVault(t *testing.T) (*VaultService, *memMetadataStore, *memBlobStore) {
	t.Helper()
	meta := newMemMetadataStore()
	blobs := newMemBlobStore()
	vs := NewVaultService(meta, blobs, zap.NewNop(), metrics.NewMetricsCollector())
	return vs, meta, blobs
}

func TestVaultEndToEnd(t *testing.T) {
	vs, _, _ := newTestVault(t)
	ctx := context.Background()
	const owner = uint(1)

	summary, err := vs.Upload(ctx, owner, "notes.txt", "text/plain", []byte("hello"), "1234")
	require.NoError(t, err)
	require.NotZero(t, summary.ID)

	files, err := vs.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "notes.txt", files[0].FileName)
	assert.Equal(t, "text/plain", files[0].FileType)

	payload, err := vs.Download(ctx, summary.ID, owner, "1234")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), payload.Data)
	assert.Equal(t, "notes.txt", payload.FileName)
	payload.Close()
	assert.Nil(t, payload.Data)

	_, err = vs.Download(ctx, summary.ID, owner, "0000")
	assert.ErrorIs(t, err, ErrIncorrectPin)

	require.NoError(t, vs.ResetPin(ctx, owner, "1234", "5678"))

	payload, err = vs.Download(ctx, summary.ID, owner, "5678")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), payload.Data)
	payload.Close()

	_, err = vs.Download(ctx, summary.ID, owner, "1234")
	assert.ErrorIs(t, err, ErrIncorrectPin)
}

func TestVaultOwnershipIsolation(t *testing.T) {
	vs, _, _ := newTestVault(t)
	ctx := context.Background()

	summary, err := vs.Upload(ctx, 1, "secret.pdf", "application/pdf", []byte("owner one"), "1111")
	require.NoError(t, err)

	// Owner 2 never sees owner 1's file, even with the right id and PIN.
	files, err := vs.List(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = vs.Download(ctx, summary.ID, 2, "1111")
	assert.ErrorIs(t, err, ErrFileNotFound)

	err = vs.Delete(ctx, summary.ID, 2, "1111")
	assert.ErrorIs(t, err, ErrFileNotFound)

	err = vs.ResetPin(ctx, 2, "1111", "2222")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestVaultDelete(t *testing.T) {
	vs, _, blobs := newTestVault(t)
	ctx := context.Background()

	summary, err := vs.Upload(ctx, 1, "a.txt", "text/plain", []byte("x"), "1234")
	require.NoError(t, err)
	require.Len(t, blobs.blobs, 1)

	err = vs.Delete(ctx, summary.ID, 1, "0000")
	assert.ErrorIs(t, err, ErrIncorrectPin)

	require.NoError(t, vs.Delete(ctx, summary.ID, 1, "1234"))
	assert.Empty(t, blobs.blobs)

	// Second delete of the same id is a NotFound, not a crash.
	err = vs.Delete(ctx, summary.ID, 1, "1234")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestVaultUploadEmptyPin(t *testing.T) {
	vs, _, blobs := newTestVault(t)

	_, err := vs.Upload(context.Background(), 1, "a.txt", "text/plain", []byte("x"), "")
	assert.Error(t, err)
	assert.Empty(t, blobs.blobs)
}

func TestVaultUploadCompensatesFailedRecord(t *testing.T) {
	vs, meta, blobs := newTestVault(t)
	meta.failCreate = true

	_, err := vs.Upload(context.Background(), 1, "a.txt", "text/plain", []byte("x"), "1234")

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)

	// The blob written before the record failed must have been deleted.
	assert.Empty(t, blobs.blobs)
	assert.Empty(t, meta.records)
}

func TestVaultUploadBlobFailureCreatesNoRecord(t *testing.T) {
	vs, meta, blobs := newTestVault(t)
	blobs.failPut = true

	_, err := vs.Upload(context.Background(), 1, "a.txt", "text/plain", []byte("x"), "1234")

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Empty(t, meta.records)
}

func TestVaultDownloadMissingBlobIsConsistencyFault(t *testing.T) {
	vs, _, blobs := newTestVault(t)
	ctx := context.Background()

	summary, err := vs.Upload(ctx, 1, "a.txt", "text/plain", []byte("x"), "1234")
	require.NoError(t, err)

	// Remove the blob out from under the record.
	for locator := range blobs.blobs {
		delete(blobs.blobs, locator)
	}

	_, err = vs.Download(ctx, summary.ID, 1, "1234")
	var storageErr *StorageError
	assert.ErrorAs(t, err, &storageErr)
	assert.NotErrorIs(t, err, ErrFileNotFound)
}

func TestVaultDownloadTornCiphertextIsConsistencyFault(t *testing.T) {
	vs, _, blobs := newTestVault(t)
	ctx := context.Background()

	summary, err := vs.Upload(ctx, 1, "a.txt", "text/plain", []byte("x"), "1234")
	require.NoError(t, err)

	// Corrupt the blob so the PIN hash still matches but decryption cannot.
	for locator := range blobs.blobs {
		blobs.blobs[locator] = make([]byte, 32)
	}

	_, err = vs.Download(ctx, summary.ID, 1, "1234")
	var storageErr *StorageError
	assert.ErrorAs(t, err, &storageErr)
	assert.NotErrorIs(t, err, ErrIncorrectPin)
}

func TestVaultResetPinWrongOldPin(t *testing.T) {
	vs, meta, _ := newTestVault(t)
	ctx := context.Background()

	summary, err := vs.Upload(ctx, 1, "a.txt", "text/plain", []byte("x"), "1234")
	require.NoError(t, err)
	before := meta.records[summary.ID]

	err = vs.ResetPin(ctx, 1, "9999", "5678")
	assert.ErrorIs(t, err, ErrIncorrectPin)

	// Nothing may have been touched.
	assert.Equal(t, before, meta.records[summary.ID])

	payload, err := vs.Download(ctx, summary.ID, 1, "1234")
	require.NoError(t, err)
	payload.Close()
}

func TestVaultResetPinRotatesAllFiles(t *testing.T) {
	vs, meta, blobs := newTestVault(t)
	ctx := context.Background()

	var ids []uint
	for i := 0; i < 3; i++ {
		summary, err := vs.Upload(ctx, 1, fmt.Sprintf("f%d.txt", i), "text/plain", []byte(fmt.Sprintf("content %d", i)), "1234")
		require.NoError(t, err)
		ids = append(ids, summary.ID)
	}

	oldLocators := make(map[uint]string)
	for id, r := range meta.records {
		oldLocators[id] = r.BlobLocator
	}

	require.NoError(t, vs.ResetPin(ctx, 1, "1234", "5678"))

	for i, id := range ids {
		payload, err := vs.Download(ctx, id, 1, "5678")
		require.NoError(t, err)
		assert.Equal(t, []byte(fmt.Sprintf("content %d", i)), payload.Data)
		payload.Close()

		_, err = vs.Download(ctx, id, 1, "1234")
		assert.ErrorIs(t, err, ErrIncorrectPin)

		// Rotation moves every record to a fresh locator and collects the
		// old blob.
		assert.NotEqual(t, oldLocators[id], meta.records[id].BlobLocator)
		_, stillThere := blobs.blobs[oldLocators[id]]
		assert.False(t, stillThere)
	}
	assert.Len(t, blobs.blobs, len(ids))
}

func TestVaultResetPinPartialFailure(t *testing.T) {
	vs, meta, blobs := newTestVault(t)
	ctx := context.Background()

	first, err := vs.Upload(ctx, 1, "ok.txt", "text/plain", []byte("fine"), "1234")
	require.NoError(t, err)
	second, err := vs.Upload(ctx, 1, "stuck.txt", "text/plain", []byte("stuck"), "1234")
	require.NoError(t, err)

	meta.failUpdateID = second.ID

	err = vs.ResetPin(ctx, 1, "1234", "5678")

	var partial *PartialRotationError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []uint{first.ID}, partial.Rotated)
	assert.Contains(t, partial.Failed, second.ID)

	// Rotated record is fully on the new PIN.
	payload, err := vs.Download(ctx, first.ID, 1, "5678")
	require.NoError(t, err)
	assert.Equal(t, []byte("fine"), payload.Data)
	payload.Close()

	// Failed record is still fully on the old PIN.
	payload, err = vs.Download(ctx, second.ID, 1, "1234")
	require.NoError(t, err)
	assert.Equal(t, []byte("stuck"), payload.Data)
	payload.Close()

	// The aborted swap's fresh blob was cleaned up: one blob per record.
	assert.Len(t, blobs.blobs, 2)
}

func TestVaultLocatorsStayInternal(t *testing.T) {
	vs, meta, _ := newTestVault(t)
	ctx := context.Background()

	summary, err := vs.Upload(ctx, 1, "a.txt", "text/plain", []byte("x"), "1234")
	require.NoError(t, err)

	record := meta.records[summary.ID]
	require.NotEmpty(t, record.BlobLocator)
	require.NotEmpty(t, record.PinHash)

	// Summaries carry public metadata only.
	files, err := vs.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, FileSummary{
		ID:        record.ID,
		FileName:  record.FileName,
		FileType:  record.FileType,
		CreatedAt: record.CreatedAt,
	}, files[0])
}
