package main

import (
	"context"
	"fmt"

	"github.com/Hemanth1845/FullStackProject/internal/storage"
	"github.com/spf13/cobra"
)

var scrubApply bool

var scrubCmd = &cobra.Command{
	Use:   "scrub",
	Short: "Find (and optionally remove) orphaned records and unreferenced blobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, database, blobStore, err := bootstrap()
		if err != nil {
			return err
		}

		ctx := context.Background()
		meta := storage.NewGormMetadataStore(database)

		records, err := meta.ListAll(ctx)
		if err != nil {
			return err
		}
		blobs, err := blobStore.List(ctx)
		if err != nil {
			return err
		}

		referenced := make(map[string]bool, len(records))
		orphanedRecords := 0
		for i := range records {
			record := &records[i]
			referenced[record.BlobLocator] = true

			exists, err := blobStore.Exists(ctx, record.BlobLocator)
			if err != nil {
				return fmt.Errorf("failed to check blob for record %d: %w", record.ID, err)
			}
			if exists {
				continue
			}

			orphanedRecords++
			fmt.Printf("orphaned record: id=%d owner=%d name=%q (blob missing)\n",
				record.ID, record.UserID, record.FileName)
			if scrubApply {
				if err := meta.Delete(ctx, record); err != nil {
					return fmt.Errorf("failed to delete record %d: %w", record.ID, err)
				}
				fmt.Printf("  deleted record %d\n", record.ID)
			}
		}

		unreferencedBlobs := 0
		for _, locator := range blobs {
			if referenced[locator] {
				continue
			}
			unreferencedBlobs++
			fmt.Printf("unreferenced blob: %s\n", locator)
			if scrubApply {
				if err := blobStore.Delete(ctx, locator); err != nil {
					return fmt.Errorf("failed to delete blob %s: %w", locator, err)
				}
				fmt.Printf("  deleted blob %s\n", locator)
			}
		}

		fmt.Printf("\n%d records checked, %d orphaned records, %d unreferenced blobs",
			len(records), orphanedRecords, unreferencedBlobs)
		if !scrubApply && (orphanedRecords > 0 || unreferencedBlobs > 0) {
			fmt.Print(" (re-run with --apply to remove)")
		}
		fmt.Println()
		return nil
	},
}

func init() {
	scrubCmd.Flags().BoolVar(&scrubApply, "apply", false, "actually delete what scrub finds")
}
