package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/drop-oss/dropd/internal/domain"
)

// SQLiteStore is the default single-file backend.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure the database directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// Ping makes sure the file is actually accessible and the DSN is valid
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}

	if err := s.runMigrations(); err != nil {
		return nil, fmt.Errorf("could not migrate database: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) SaveGameStatus(id string, status domain.GameStatus) error {
	query := `INSERT OR REPLACE INTO game_statuses (game_id, status, updated_at)
              VALUES (?, ?, CURRENT_TIMESTAMP)`
	_, err := s.db.Exec(query, id, string(status))
	return err
}

func (s *SQLiteStore) GameStatus(id string) (domain.GameStatus, error) {
	row := s.db.QueryRow(`SELECT status FROM game_statuses WHERE game_id = ? LIMIT 1`, id)

	var status string
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StatusUninitialised, nil
		}
		return domain.StatusUninitialised, fmt.Errorf("failed to fetch game status: %w", err)
	}
	return domain.GameStatus(status), nil
}

func (s *SQLiteStore) GameStatuses() (map[string]domain.GameStatus, error) {
	rows, err := s.db.Query(`SELECT game_id, status FROM game_statuses`)
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

func (s *SQLiteStore) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	return err
}

func (s *SQLiteStore) Setting(key string) (string, error) {
	row := s.db.QueryRow(`SELECT value FROM settings WHERE key = ? LIMIT 1`, key)

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to fetch setting %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
