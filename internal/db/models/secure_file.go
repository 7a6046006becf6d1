package models

import (
	"gorm.io/gorm"
)

// SecureFile is the metadata record for one encrypted file in the vault.
// BlobLocator names the ciphertext in the blob store and is never exposed
// to callers. PinHash is the bcrypt hash of the PIN the current ciphertext
// was produced under; the two are only ever updated together.
type SecureFile struct {
	gorm.Model
	UserID      uint   `gorm:"index;not null"`
	FileName    string `gorm:"not null"`
	FileType    string `gorm:"not null"`
	BlobLocator string `gorm:"uniqueIndex;not null"`
	PinHash     string `gorm:"not null"`
}
