package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	var funding string

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import entries from OFX/QFX statements",
		Long: `Import settled entries from OFX or QFX files exported from your bank.

Entries are deduplicated by their statement FITID, so importing the same file
twice adds nothing. Card statements are attached to the card's invoices.

Examples:
  # Import a checking account statement
  ledger import ~/Downloads/checking_jan_2024.qfx --funding account:checking

  # Import every card statement in a directory
  ledger import ~/Downloads/Visa/*.qfx --funding card:visa`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := parseFunding(funding)
			if err != nil {
				return err
			}

			files, err := expandFiles(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, _, closeFn, err := initService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			slog.Info("Importing OFX files", "file_count", len(files), "funding", funding)

			imported, skipped, failed := 0, 0, 0
			for _, path := range files {
				f, err := os.Open(path)
				if err != nil {
					slog.Error("Failed to open file", "file", path, "error", err)
					failed++
					continue
				}

				result, err := svc.ImportStatement(ctx, f, source)
				_ = f.Close()
				if err != nil {
					slog.Error("Failed to import file", "file", filepath.Base(path), "error", err)
					failed++
					continue
				}

				slog.Info("Imported file",
					"file", filepath.Base(path),
					"imported", result.Imported,
					"skipped", result.Skipped)
				imported += result.Imported
				skipped += result.Skipped
			}

			fmt.Println(cli.FormatInfo(fmt.Sprintf("%d entries imported, %d duplicates skipped", imported, skipped))) //nolint:forbidigo // User-facing output
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed to import", failed, len(files))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&funding, "funding", "", "account:<id> or card:<id> the statement belongs to")
	_ = cmd.MarkFlagRequired("funding")

	return cmd
}

// expandFiles resolves glob patterns, keeping literal paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) > 0 {
			files = append(files, matches...)
			continue
		}
		if _, err := os.Stat(pattern); err == nil {
			files = append(files, pattern)
		} else {
			slog.Warn("No files found matching pattern", "pattern", pattern)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}
