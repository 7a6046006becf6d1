package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hemanth1845/FullStackProject/internal/crypto"
	"github.com/Hemanth1845/FullStackProject/internal/db/models"
	"github.com/Hemanth1845/FullStackProject/internal/storage"
	"github.com/Hemanth1845/FullStackProject/pkg/metrics"
)

// VaultService orchestrates the secure file vault: PIN-gated upload,
// download, delete and bulk PIN rotation. It holds no durable state of its
// own; records live in the metadata store and ciphertext in the blob store.
type VaultService struct {
	meta    storage.MetadataStore
	blobs   storage.BlobStore
	logger  *zap.Logger
	metrics *metrics.MetricsCollector

	// ownerLocks serialises operations per owner. ResetPin holds its
	// owner's lock for the whole rotation so no reader ever observes a
	// half-rotated account. Locks are never global: two owners never
	// contend.
	ownerLocks map[uint]*sync.Mutex
	lockMu     sync.Mutex
}

// FileSummary is the public view of a vault record. Blob locator and PIN
// hash are deliberately absent.
type FileSummary struct {
	ID        uint      `json:"id"`
	FileName  string    `json:"fileName"`
	FileType  string    `json:"fileType"`
	CreatedAt time.Time `json:"createdAt"`
}

// FilePayload is the decrypted content of one file. The caller must Close it
// once the bytes are consumed; Close wipes the plaintext from memory.
type FilePayload struct {
	FileName string
	FileType string
	Data     []byte
}

func (p *FilePayload) Close() {
	if p.Data != nil {
		memguard.WipeBytes(p.Data)
		p.Data = nil
	}
}

func NewVaultService(meta storage.MetadataStore, blobs storage.BlobStore, logger *zap.Logger, metricsCollector *metrics.MetricsCollector) *VaultService {
	return &VaultService{
		meta:       meta,
		blobs:      blobs,
		logger:     logger.With(zap.String("service", "vault_service")),
		metrics:    metricsCollector,
		ownerLocks: make(map[uint]*sync.Mutex),
	}
}

func (vs *VaultService) ownerLock(owner uint) *sync.Mutex {
	vs.lockMu.Lock()
	defer vs.lockMu.Unlock()
	lock, ok := vs.ownerLocks[owner]
	if !ok {
		lock = &sync.Mutex{}
		vs.ownerLocks[owner] = lock
	}
	return lock
}

// newLocator builds a globally unique blob name: a random component plus the
// sanitised display name. The display name is cosmetic; uniqueness comes from
// the UUID alone.
func newLocator(fileName string) string {
	base := filepath.Base(strings.ReplaceAll(fileName, `\`, "/"))
	if base == "." || base == ".." || base == "/" {
		base = "file"
	}
	return uuid.New().String() + "-" + base + ".enc"
}

// Upload encrypts plaintext under the PIN-derived key and persists ciphertext
// plus metadata. The blob is written first; if the record cannot be created
// afterwards the blob is deleted again so neither side is ever orphaned.
func (vs *VaultService) Upload(ctx context.Context, ownerID uint, fileName, fileType string, plaintext []byte, pin string) (*FileSummary, error) {
	lock := vs.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()

	key, err := crypto.DeriveKey(pin)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(key)

	ciphertext, err := crypto.Encrypt(key, plaintext)
	if err != nil {
		return nil, &CryptoError{Err: err}
	}

	locator := newLocator(fileName)
	exists, err := vs.blobs.Exists(ctx, locator)
	if err != nil {
		return nil, &StorageError{Op: "upload", Err: err}
	}
	if exists {
		// A UUID collision should never happen; refusing is the only safe
		// answer because overwriting would destroy another record's blob.
		return nil, &StorageError{Op: "upload", Err: fmt.Errorf("blob locator collision: %s", locator)}
	}

	if err := vs.blobs.Put(ctx, locator, ciphertext); err != nil {
		return nil, &StorageError{Op: "upload", Err: err}
	}

	pinHash, err := crypto.HashPin(pin)
	if err != nil {
		vs.deleteBlobQuietly(ctx, locator)
		return nil, err
	}

	record := &models.SecureFile{
		UserID:      ownerID,
		FileName:    fileName,
		FileType:    fileType,
		BlobLocator: locator,
		PinHash:     pinHash,
	}
	if err := vs.meta.Create(ctx, record); err != nil {
		// Compensate: without the record the ciphertext is unreachable.
		vs.deleteBlobQuietly(ctx, locator)
		return nil, &StorageError{Op: "upload", Err: err}
	}

	vs.metrics.IncrementCounter("vault.files_uploaded", nil)
	vs.metrics.ObserveSize("vault.file_size", float64(len(plaintext)))
	vs.metrics.ObserveLatency("vault.upload", time.Since(start))

	vs.logger.Info("File uploaded",
		zap.Uint("user_id", ownerID),
		zap.Uint("file_id", record.ID),
		zap.Int("size", len(plaintext)))

	return &FileSummary{
		ID:        record.ID,
		FileName:  record.FileName,
		FileType:  record.FileType,
		CreatedAt: record.CreatedAt,
	}, nil
}

// List returns the public metadata of every file the owner has stored.
func (vs *VaultService) List(ctx context.Context, ownerID uint) ([]FileSummary, error) {
	records, err := vs.meta.FindAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}

	summaries := make([]FileSummary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, FileSummary{
			ID:        r.ID,
			FileName:  r.FileName,
			FileType:  r.FileType,
			CreatedAt: r.CreatedAt,
		})
	}
	return summaries, nil
}

// Download authenticates the PIN against the record's hash, then decrypts the
// blob. A missing blob or a padding failure despite a matching PIN hash means
// record and ciphertext disagree; both surface as StorageError, never as a
// wrong-PIN answer.
func (vs *VaultService) Download(ctx context.Context, fileID, ownerID uint, pin string) (*FilePayload, error) {
	lock := vs.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()

	record, err := vs.findAuthorized(ctx, fileID, ownerID, pin)
	if err != nil {
		return nil, err
	}

	ciphertext, err := vs.blobs.Get(ctx, record.BlobLocator)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return nil, &StorageError{Op: "download", Err: fmt.Errorf("record %d has no blob: %w", record.ID, err)}
	}
	if err != nil {
		return nil, &StorageError{Op: "download", Err: err}
	}

	key, err := crypto.DeriveKey(pin)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(key)

	plaintext, err := crypto.Decrypt(key, ciphertext)
	if err != nil {
		// The PIN hash matched, so the blob must decrypt under this key.
		// A failure here means the record and the ciphertext disagree.
		return nil, &StorageError{Op: "download", Err: fmt.Errorf("record %d ciphertext does not match its pin hash: %w", record.ID, err)}
	}

	vs.metrics.IncrementCounter("vault.files_downloaded", nil)
	vs.metrics.ObserveLatency("vault.download", time.Since(start))

	return &FilePayload{
		FileName: record.FileName,
		FileType: record.FileType,
		Data:     plaintext,
	}, nil
}

// Delete removes the blob first and the record second. A crash between the
// two leaves at worst an orphaned record pointing at a missing blob, which
// the scrub tool can detect and clean; the reverse order could leave an
// unreachable blob forever.
func (vs *VaultService) Delete(ctx context.Context, fileID, ownerID uint, pin string) error {
	lock := vs.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	record, err := vs.findAuthorized(ctx, fileID, ownerID, pin)
	if err != nil {
		return err
	}

	if err := vs.blobs.Delete(ctx, record.BlobLocator); err != nil {
		return &StorageError{Op: "delete", Err: err}
	}

	if err := vs.meta.Delete(ctx, record); err != nil {
		return &StorageError{Op: "delete", Err: err}
	}

	vs.metrics.IncrementCounter("vault.files_deleted", nil)
	vs.logger.Info("File deleted", zap.Uint("user_id", ownerID), zap.Uint("file_id", fileID))
	return nil
}

// ResetPin re-encrypts every file the owner has stored under a new PIN. The
// owner lock is held for the whole batch so concurrent reads never observe a
// half-rotated account.
//
// Each record is its own atomic unit: the re-encrypted blob is written to a
// fresh locator, then locator and PIN hash are swapped in one metadata
// update, then the old blob is garbage-collected. An interruption leaves
// every record either fully old or fully new, never straddling both.
func (vs *VaultService) ResetPin(ctx context.Context, ownerID uint, oldPin, newPin string) error {
	lock := vs.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()

	oldKey, err := crypto.DeriveKey(oldPin)
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(oldKey)

	newKey, err := crypto.DeriveKey(newPin)
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(newKey)

	records, err := vs.meta.FindAllByOwner(ctx, ownerID)
	if err != nil {
		return &StorageError{Op: "reset_pin", Err: err}
	}
	if len(records) == 0 {
		return ErrFileNotFound
	}

	// The PIN is one secret shared by all of the account's files. Verify it
	// against every record up front; nothing is touched on a mismatch.
	for _, r := range records {
		if !crypto.VerifyPin(oldPin, r.PinHash) {
			return ErrIncorrectPin
		}
	}

	rotated := make([]uint, 0, len(records))
	failed := make(map[uint]error)

	for i := range records {
		record := &records[i]
		if err := vs.rotateRecord(ctx, record, oldKey, newKey, newPin); err != nil {
			vs.logger.Error("Failed to rotate record",
				zap.Uint("user_id", ownerID),
				zap.Uint("file_id", record.ID),
				zap.Error(err))
			vs.metrics.IncrementCounter("vault.rotation_records_failed", nil)
			failed[record.ID] = err
			continue
		}
		rotated = append(rotated, record.ID)
	}

	vs.metrics.IncrementCounter("vault.pin_rotations", nil)
	vs.metrics.ObserveLatency("vault.reset_pin", time.Since(start))

	if len(failed) > 0 {
		return &PartialRotationError{Rotated: rotated, Failed: failed}
	}

	vs.logger.Info("PIN reset completed",
		zap.Uint("user_id", ownerID),
		zap.Int("files", len(rotated)))
	return nil
}

// rotateRecord moves one record from the old key to the new one. Until the
// metadata update commits, the record still points at the old blob and old
// PIN hash, so any failure before that point leaves it fully consistent
// under the old PIN.
func (vs *VaultService) rotateRecord(ctx context.Context, record *models.SecureFile, oldKey, newKey []byte, newPin string) error {
	ciphertext, err := vs.blobs.Get(ctx, record.BlobLocator)
	if err != nil {
		return &StorageError{Op: "rotate", Err: err}
	}

	plaintext, err := crypto.Decrypt(oldKey, ciphertext)
	if err != nil {
		return &StorageError{Op: "rotate", Err: fmt.Errorf("record %d ciphertext does not match its pin hash: %w", record.ID, err)}
	}
	defer memguard.WipeBytes(plaintext)

	reEncrypted, err := crypto.Encrypt(newKey, plaintext)
	if err != nil {
		return &CryptoError{Err: err}
	}

	newHash, err := crypto.HashPin(newPin)
	if err != nil {
		return err
	}

	oldLocator := record.BlobLocator
	freshLocator := newLocator(record.FileName)

	if err := vs.blobs.Put(ctx, freshLocator, reEncrypted); err != nil {
		return &StorageError{Op: "rotate", Err: err}
	}

	record.BlobLocator = freshLocator
	record.PinHash = newHash
	if err := vs.meta.Update(ctx, record); err != nil {
		// Swap did not commit: the record still points at the old blob.
		record.BlobLocator = oldLocator
		vs.deleteBlobQuietly(ctx, freshLocator)
		return &StorageError{Op: "rotate", Err: err}
	}

	// Best effort: a leaked old blob is unreachable ciphertext that the
	// scrub tool cleans up later.
	vs.deleteBlobQuietly(ctx, oldLocator)
	return nil
}

// findAuthorized performs the owner-scoped lookup and PIN check shared by
// download and delete.
func (vs *VaultService) findAuthorized(ctx context.Context, fileID, ownerID uint, pin string) (*models.SecureFile, error) {
	record, err := vs.meta.FindByIDAndOwner(ctx, fileID, ownerID)
	if errors.Is(err, storage.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "lookup", Err: err}
	}

	if !crypto.VerifyPin(pin, record.PinHash) {
		vs.metrics.IncrementCounter("vault.pin_rejected", nil)
		return nil, ErrIncorrectPin
	}
	return record, nil
}

func (vs *VaultService) deleteBlobQuietly(ctx context.Context, locator string) {
	if err := vs.blobs.Delete(ctx, locator); err != nil {
		vs.logger.Warn("Failed to clean up blob", zap.String("locator", locator), zap.Error(err))
	}
}
