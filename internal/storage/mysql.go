package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQL keeps entries in a kv_entries table.
type MySQL struct {
	db *sql.DB
}

// NewMySQL opens dsn, pings the server and creates the table if needed.
func NewMySQL(ctx context.Context, dsn string) (*MySQL, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	s := &MySQL{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQL) Close() error { return s.db.Close() }

func (s *MySQL) migrate(ctx context.Context) error {
	create := `CREATE TABLE IF NOT EXISTS kv_entries (
    origin VARCHAR(191) NOT NULL,
    entry_key VARCHAR(191) NOT NULL,
    entry_value LONGTEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (origin, entry_key)
)`
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("migrate kv_entries: %w", err)
	}
	return nil
}

func (s *MySQL) Get(ctx context.Context, origin, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT entry_value FROM kv_entries WHERE origin = ? AND entry_key = ?`, origin, key).Scan(&value)
	switch {
	case err == nil:
		return value, true, nil
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	default:
		return "", false, fmt.Errorf("get entry: %w", err)
	}
}

func (s *MySQL) Set(ctx context.Context, origin, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_entries (origin, entry_key, entry_value) VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE entry_value = VALUES(entry_value)`, origin, key, value)
	if err != nil {
		return fmt.Errorf("set entry: %w", err)
	}
	return nil
}
