package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial ledger schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS accounts (
					id TEXT PRIMARY KEY,
					owner TEXT NOT NULL DEFAULT '',
					name TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE TABLE IF NOT EXISTS credit_cards (
					id TEXT PRIMARY KEY,
					owner TEXT NOT NULL DEFAULT '',
					name TEXT NOT NULL,
					closing_day INTEGER NOT NULL CHECK (closing_day BETWEEN 1 AND 31),
					due_day INTEGER NOT NULL CHECK (due_day BETWEEN 1 AND 31),
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE TABLE IF NOT EXISTS categories (
					id TEXT PRIMARY KEY,
					owner TEXT NOT NULL DEFAULT '',
					name TEXT NOT NULL,
					type TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE TABLE IF NOT EXISTS recurrences (
					id TEXT PRIMARY KEY,
					owner TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL,
					amount TEXT NOT NULL,
					type TEXT NOT NULL,
					frequency TEXT NOT NULL,
					start_date TEXT NOT NULL,
					end_date TEXT,
					next_occurrence TEXT NOT NULL,
					is_active BOOLEAN NOT NULL DEFAULT 1,
					category_id TEXT REFERENCES categories(id),
					funding_kind TEXT NOT NULL,
					funding_id TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_recurrences_active ON recurrences(is_active)`,
				`CREATE TABLE IF NOT EXISTS installment_groups (
					id TEXT PRIMARY KEY,
					owner TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL,
					installment_amount TEXT NOT NULL,
					total_amount TEXT NOT NULL,
					total_installments INTEGER NOT NULL,
					starting_installment INTEGER NOT NULL,
					frequency TEXT NOT NULL,
					first_installment_date TEXT NOT NULL,
					category_id TEXT REFERENCES categories(id),
					funding_kind TEXT NOT NULL,
					funding_id TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					CHECK (starting_installment BETWEEN 1 AND total_installments)
				)`,
				`CREATE TABLE IF NOT EXISTS occurrences (
					id TEXT PRIMARY KEY,
					owner TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL,
					amount TEXT NOT NULL,
					type TEXT NOT NULL,
					due_date TEXT NOT NULL,
					status TEXT NOT NULL,
					recurrence_id TEXT REFERENCES recurrences(id),
					is_recurring BOOLEAN NOT NULL DEFAULT 0,
					installment_group_id TEXT REFERENCES installment_groups(id),
					installment_number INTEGER,
					category_id TEXT REFERENCES categories(id),
					funding_kind TEXT NOT NULL,
					funding_id TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					CHECK (recurrence_id IS NULL OR installment_group_id IS NULL),
					CHECK ((installment_group_id IS NULL) = (installment_number IS NULL))
				)`,
				`CREATE INDEX idx_occurrences_due ON occurrences(due_date)`,
				`CREATE INDEX idx_occurrences_recurrence ON occurrences(recurrence_id, status, due_date)`,
				`CREATE INDEX idx_occurrences_group ON occurrences(installment_group_id, status, installment_number)`,
				`CREATE UNIQUE INDEX idx_occurrences_recurrence_date ON occurrences(recurrence_id, due_date)
					WHERE recurrence_id IS NOT NULL`,
				`CREATE UNIQUE INDEX idx_occurrences_group_number ON occurrences(installment_group_id, installment_number)
					WHERE installment_group_id IS NOT NULL`,
			})
		},
	},
	{
		Version:     2,
		Description: "Add credit card invoices",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS invoices (
					id TEXT PRIMARY KEY,
					credit_card_id TEXT NOT NULL REFERENCES credit_cards(id),
					reference_month TEXT NOT NULL,
					closing_date TEXT NOT NULL,
					due_date TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'open',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (credit_card_id, reference_month)
				)`,
				`ALTER TABLE occurrences ADD COLUMN invoice_id TEXT REFERENCES invoices(id)`,
				`CREATE INDEX idx_occurrences_invoice ON occurrences(invoice_id)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Track statement ids of imported entries",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`ALTER TABLE occurrences ADD COLUMN external_id TEXT`,
				`CREATE UNIQUE INDEX idx_occurrences_external ON occurrences(external_id)
					WHERE external_id IS NOT NULL`,
			})
		},
	},
}

// Migrate applies pending migrations and verifies the schema version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the applied schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
