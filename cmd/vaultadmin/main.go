package main

import (
	"fmt"
	"os"

	"github.com/Hemanth1845/FullStackProject/internal/config"
	"github.com/Hemanth1845/FullStackProject/internal/db"
	"github.com/Hemanth1845/FullStackProject/internal/storage"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "vaultadmin",
	Short: "Operator tooling for the secure file vault",
	Long: `vaultadmin inspects and repairs the secure file vault's two stores.

The vault's crash-safety rules can leave harmless residue behind: metadata
records whose blob was already deleted, and blobs no record references
(for example the old ciphertext of an interrupted PIN rotation). scrub
finds both kinds and optionally removes them.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.AddCommand(scrubCmd)
	rootCmd.AddCommand(statsCmd)
}

// bootstrap opens the metadata database and blob store from configuration.
func bootstrap() (*config.Configuration, *gorm.DB, storage.BlobStore, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, err
	}

	database, err := db.Initialize(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	blobStore, err := storage.NewBlobStore(cfg.Storage)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	return cfg, database, blobStore, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
