package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/suar-net/foodscan-be/internal/config"
)

type Dialect string

const (
	Postgres Dialect = "pgx"
	SQLite   Dialect = "sqlite"
)

// DialectFor picks the driver from the DSN: postgres URLs go to pgx,
// anything else is treated as a sqlite file path.
func DialectFor(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// ConnectDB opens the history database and makes sure its schema exists.
func ConnectDB(cfg config.DBConfig) (*sql.DB, Dialect, error) {
	dialect := DialectFor(cfg.DSN)

	db, err := sql.Open(string(dialect), cfg.DSN)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database connection: %v", err)
	}

	if dialect == SQLite {
		// a single writer avoids SQLITE_BUSY under concurrent requests
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to verify database connection: %v", err)
	}

	if err = initSchema(ctx, db, dialect); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, dialect, nil
}

func initSchema(ctx context.Context, db *sql.DB, dialect Dialect) error {
	timestampType := "TIMESTAMPTZ"
	if dialect == SQLite {
		timestampType = "DATETIME"
	}

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS analysis_history (
		id TEXT PRIMARY KEY,
		created_at %s NOT NULL,
		goal TEXT NOT NULL,
		name TEXT NOT NULL,
		calories_min DOUBLE PRECISION NOT NULL,
		calories_max DOUBLE PRECISION NOT NULL,
		nutrition_score DOUBLE PRECISION NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		source TEXT NOT NULL,
		duration_ms BIGINT NOT NULL,
		image_size INTEGER NOT NULL,
		image_type TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT ''
	)`, timestampType)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create analysis_history: %w", err)
	}

	index := `CREATE INDEX IF NOT EXISTS idx_analysis_history_created_at ON analysis_history(created_at)`
	if _, err := db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}
