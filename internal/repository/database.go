package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backsim/types"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Global error declarations.
var (
	ErrSymbolNotFound = errors.New("symbol not found in datasource")
	ErrNoBars         = errors.New("no bars found in datasource")
)

type barsRepository interface {
	SelectBars(ctx context.Context, symbol string, start, end time.Time) ([]types.Bar, error)
	SelectSymbols(ctx context.Context) ([]string, error)
	InsertBars(ctx context.Context, bars []types.Bar) error
}

// Database struct that holds the database connection and queries.
type Database struct {
	bars barsRepository
	conn *pgxpool.Pool
}

// NewDatabase creates a new Database instance and verifies connectivity.
func NewDatabase(dbURL string) (Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return Database{}, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return Database{}, err
	}
	// Ensure the connection is established.
	if err := conn.Ping(context.Background()); err != nil {
		return Database{}, err
	}

	return Database{
		bars: pgxBars{pool: conn},
		conn: conn,
	}, nil
}

func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
	}
}
