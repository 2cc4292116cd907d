package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type DB struct {
	SQL *sql.DB
}

func New(ctx context.Context, databaseURL string, maxOpenConns int, maxIdleConns int) (*DB, error) {
	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxIdleConns)
	conn.SetConnMaxLifetime(30 * time.Minute)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("database connected", "max_open_conns", maxOpenConns, "max_idle_conns", maxIdleConns)
	return &DB{SQL: conn}, nil
}

func (db *DB) Close() {
	if db != nil && db.SQL != nil {
		_ = db.SQL.Close()
	}
}

func (db *DB) Health(ctx context.Context) error {
	return db.SQL.PingContext(ctx)
}
