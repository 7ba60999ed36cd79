package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/drop-oss/dropd/internal/domain"
)

// PostgresStore backs multi-host deployments that already run postgres.
// Schema and semantics match the sqlite store exactly.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	// Migrations run through database/sql on a short-lived connection
	db := sql.OpenDB(stdlib.GetConnector(*cfg.ConnConfig))
	defer db.Close()
	if err := runPostgresMigrations(db); err != nil {
		pool.Close()
		return nil, fmt.Errorf("could not migrate database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) SaveGameStatus(id string, status domain.GameStatus) error {
	query := `INSERT INTO game_statuses (game_id, status, updated_at)
              VALUES ($1, $2, now())
              ON CONFLICT (game_id) DO UPDATE SET status = EXCLUDED.status, updated_at = now()`
	_, err := s.pool.Exec(context.Background(), query, id, string(status))
	return err
}

func (s *PostgresStore) GameStatus(id string) (domain.GameStatus, error) {
	row := s.pool.QueryRow(context.Background(),
		`SELECT status FROM game_statuses WHERE game_id = $1`, id)

	var status string
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StatusUninitialised, nil
		}
		return domain.StatusUninitialised, fmt.Errorf("failed to fetch game status: %w", err)
	}
	return domain.GameStatus(status), nil
}

func (s *PostgresStore) GameStatuses() (map[string]domain.GameStatus, error) {
	rows, err := s.pool.Query(context.Background(),
		`SELECT game_id, status FROM game_statuses`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]domain.GameStatus)
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		statuses[id] = domain.GameStatus(status)
	}
	return statuses, rows.Err()
}

func (s *PostgresStore) SetSetting(key, value string) error {
	query := `INSERT INTO settings (key, value) VALUES ($1, $2)
              ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	_, err := s.pool.Exec(context.Background(), query, key, value)
	return err
}

func (s *PostgresStore) Setting(key string) (string, error) {
	row := s.pool.QueryRow(context.Background(),
		`SELECT value FROM settings WHERE key = $1`, key)

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to fetch setting %s: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
