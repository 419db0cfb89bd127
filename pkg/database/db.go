package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Ext is the query surface shared by a live connection pool and an open
// transaction. Repositories are written against it so the same queries run
// inside or outside a transaction.
type Ext interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
}

// DB is a connection pool to one of the Postgres databases.
type DB interface {
	Ext
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	Ping() error
	PingContext(ctx context.Context) error
	Close() error
	Stats() sql.DBStats
	GetTx(ctx context.Context, opts *sql.TxOptions) (Tx, error)
}

// Config holds connection settings for one database.
type Config struct {
	Host            string
	Port            string
	UserName        string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type DatabaseInstance struct {
	*sqlx.DB
	logger ectologger.Logger
}

// Connect opens a pool against cfg and verifies it with a ping.
func Connect(cfg Config, logger ectologger.Logger) (*DatabaseInstance, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.UserName, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		logger.WithError(err).Errorf("failed to connect to database %s", cfg.Name)
		return nil, fmt.Errorf("failed to connect to database %s: %w", cfg.Name, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	logger.Infof("Connected to database %s at %s:%s", cfg.Name, cfg.Host, cfg.Port)

	return NewDatabaseInstance(db, logger), nil
}

func NewDatabaseInstance(db *sqlx.DB, logger ectologger.Logger) *DatabaseInstance {
	return &DatabaseInstance{
		DB:     db,
		logger: logger,
	}
}

// Unwrap returns the underlying sqlx pool, used for migration drivers and
// health checks.
func (db *DatabaseInstance) Unwrap() *sqlx.DB {
	return db.DB
}

// GetTx begins a transaction wrapped with commit/rollback bookkeeping.
func (db *DatabaseInstance) GetTx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		db.logger.WithContext(ctx).WithError(err).Errorf("error while beginning transaction")
		return nil, fmt.Errorf("error while beginning transaction: %w", err)
	}

	return NewTx(tx, db.logger), nil
}
