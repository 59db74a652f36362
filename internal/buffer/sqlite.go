package buffer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/speedwagon-io/sensord/internal/lib/logger/sl"
	"github.com/speedwagon-io/sensord/internal/model"
)

// Buffer holds records whose commit failed until a later cycle resubmits them.
type Buffer interface {
	Store(ctx context.Context, record model.Record) error
	GetPending(ctx context.Context, limit int) ([]model.Record, error)
	MarkSent(ctx context.Context, ids []uuid.UUID) error
	Cleanup(ctx context.Context, maxAge time.Duration) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

type SQLiteBuffer struct {
	log *slog.Logger
	db  *sql.DB
}

func NewSQLiteBuffer(log *slog.Logger, dbPath string) (*SQLiteBuffer, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create buffer directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	buf := &SQLiteBuffer{
		log: log,
		db:  db,
	}

	if err := buf.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return buf, nil
}

func (b *SQLiteBuffer) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			family TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			record_json TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at);
	`
	_, err := b.db.Exec(query)
	return err
}

// Store is a no-op for a record that is already buffered.
func (b *SQLiteBuffer) Store(ctx context.Context, record model.Record) error {
	data, err := record.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	query := `
		INSERT INTO records (id, family, timestamp, record_json, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`

	_, err = b.db.ExecContext(ctx, query,
		record.ID().String(),
		string(record.Reading().Family()),
		record.Timestamp().Format(time.RFC3339Nano),
		string(data),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}

	b.log.Debug("record stored in buffer", slog.String("id", record.ID().String()))
	return nil
}

// GetPending returns the oldest buffered records first.
func (b *SQLiteBuffer) GetPending(ctx context.Context, limit int) ([]model.Record, error) {
	query := `
		SELECT id, record_json
		FROM records
		ORDER BY created_at ASC, rowid ASC
		LIMIT ?
	`

	rows, err := b.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending records: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var id, recordJSON string
		if err := rows.Scan(&id, &recordJSON); err != nil {
			b.log.Error("failed to scan row", sl.Err(err))
			continue
		}

		record, err := model.RecordFromJSON([]byte(recordJSON))
		if err != nil {
			b.log.Error("failed to decode buffered record", slog.String("id", id), sl.Err(err))
			continue
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

func (b *SQLiteBuffer) MarkSent(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM records WHERE id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id.String()); err != nil {
			return fmt.Errorf("failed to delete record %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	b.log.Debug("removed committed records from buffer", slog.Int("count", len(ids)))
	return nil
}

func (b *SQLiteBuffer) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge).Format(time.RFC3339)

	result, err := b.db.ExecContext(ctx, "DELETE FROM records WHERE created_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup old records: %w", err)
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		b.log.Info("dropped expired buffered records", slog.Int64("deleted", deleted))
	}

	return nil
}

func (b *SQLiteBuffer) Count(ctx context.Context) (int64, error) {
	var count int64
	err := b.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&count)
	return count, err
}

func (b *SQLiteBuffer) Close() error {
	return b.db.Close()
}
