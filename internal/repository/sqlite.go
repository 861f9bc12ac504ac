package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps records in an embedded SQLite database.
type SQLiteStore struct {
	conn   *sqlx.DB
	logger *zap.Logger
}

// OpenSQLite opens or creates the database at path. ":memory:" gives a private
// in-memory database.
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// In-memory databases exist per connection.
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn, logger: logger}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite store opened", zap.String("path", path))
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		checksum TEXT NOT NULL,
		round INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_games_updated ON games(updated_at);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// Save inserts or replaces a record.
func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO games (id, data, checksum, round, finished, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data = excluded.data,
			checksum = excluded.checksum,
			round = excluded.round,
			finished = excluded.finished,
			updated_at = excluded.updated_at`,
		rec.ID, compress(rec.Data), rec.Checksum, rec.Round, rec.Finished, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save game %s: %w", rec.ID, err)
	}
	s.logger.Debug("game saved", zap.String("game_id", rec.ID), zap.Int("bytes", len(rec.Data)))
	return nil
}

type sqliteRow struct {
	ID        string    `db:"id"`
	Data      []byte    `db:"data"`
	Checksum  string    `db:"checksum"`
	Round     int       `db:"round"`
	Finished  bool      `db:"finished"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Load fetches a record by ID.
func (s *SQLiteStore) Load(ctx context.Context, id string) (Record, error) {
	var row sqliteRow
	err := s.conn.GetContext(ctx, &row,
		"SELECT id, data, checksum, round, finished, updated_at FROM games WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("load game %s: %w", id, err)
	}

	data, err := decompress(row.Data)
	if err != nil {
		return Record{}, fmt.Errorf("load game %s: %w", id, err)
	}
	return Record{
		ID:        row.ID,
		Data:      data,
		Checksum:  row.Checksum,
		Round:     row.Round,
		Finished:  row.Finished,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// List returns every stored game, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	var out []Summary
	err := s.conn.SelectContext(ctx, &out,
		"SELECT id, checksum, round, finished, updated_at FROM games ORDER BY updated_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return out, nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM games WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	return nil
}
