package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresStore keeps records in PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// OpenPostgres connects to dbURL, checks the connection and creates the schema.
func OpenPostgres(ctx context.Context, dbURL string, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool, logger: logger}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("postgres store opened")
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			data BYTEA NOT NULL,
			checksum TEXT NOT NULL,
			round INTEGER NOT NULL,
			finished BOOLEAN NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_games_updated ON games(updated_at)"); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Save inserts or replaces a record.
func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO games (id, data, checksum, round, finished, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			checksum = EXCLUDED.checksum,
			round = EXCLUDED.round,
			finished = EXCLUDED.finished,
			updated_at = EXCLUDED.updated_at`,
		rec.ID, compress(rec.Data), rec.Checksum, rec.Round, rec.Finished, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save game %s: %w", rec.ID, err)
	}
	s.logger.Debug("game saved", zap.String("game_id", rec.ID), zap.Int("bytes", len(rec.Data)))
	return nil
}

// Load fetches a record by ID.
func (s *PostgresStore) Load(ctx context.Context, id string) (Record, error) {
	var (
		rec  Record
		blob []byte
	)
	err := s.pool.QueryRow(ctx,
		"SELECT id, data, checksum, round, finished, updated_at FROM games WHERE id = $1", id,
	).Scan(&rec.ID, &blob, &rec.Checksum, &rec.Round, &rec.Finished, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("load game %s: %w", id, err)
	}

	rec.Data, err = decompress(blob)
	if err != nil {
		return Record{}, fmt.Errorf("load game %s: %w", id, err)
	}
	return rec, nil
}

// List returns every stored game, most recently updated first.
func (s *PostgresStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, checksum, round, finished, updated_at FROM games ORDER BY updated_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Summary])
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return out, nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM games WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	return nil
}
