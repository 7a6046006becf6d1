package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrFileNotFound means no vault record exists for the (id, owner) pair.
	ErrFileNotFound = errors.New("file not found")

	// ErrIncorrectPin means the supplied PIN did not verify against the
	// record's authorization hash. The HTTP layer presents this with the
	// same shape as ErrFileNotFound on the download path so a caller with a
	// guessed id learns nothing about the file's existence.
	ErrIncorrectPin = errors.New("incorrect pin")
)

// CryptoError wraps malformed-ciphertext and padding failures from the
// cipher layer.
type CryptoError struct {
	Err error
}

func (e *CryptoError) Error() string { return "crypto failure: " + e.Err.Error() }
func (e *CryptoError) Unwrap() error { return e.Err }

// StorageError wraps blob or metadata store failures, including the
// internal-consistency faults where a record and its blob disagree.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage failure during " + e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

// PartialRotationError reports a PIN reset that rotated some of an account's
// records but not all of them. Every id in Rotated is fully consistent under
// the new PIN; every id in Failed is still fully consistent under the old
// PIN. Callers must not swallow this error: it is their only signal that a
// retry has to resume from mixed starting PINs.
type PartialRotationError struct {
	Rotated []uint
	Failed  map[uint]error
}

func (e *PartialRotationError) Error() string {
	failed := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		failed = append(failed, fmt.Sprintf("%d", id))
	}
	sort.Strings(failed)
	return fmt.Sprintf("pin rotation incomplete: %d rotated, %d failed (ids %s)",
		len(e.Rotated), len(e.Failed), strings.Join(failed, ", "))
}
