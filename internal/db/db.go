package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection
var openDB = sql.Open

// Dialect selects the SQL flavour spoken by the underlying driver
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) String() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// DB wraps the database connection
type DB struct {
	*sql.DB
	dialect Dialect
}

// Config holds database configuration
type Config struct {
	// URL is either a postgres:// URL or a SQLite file path (optionally prefixed with sqlite://)
	URL             string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// New opens the database named by cfg.URL, verifies it and applies the schema.
// The returned handle is meant to be created once and shared.
func New(cfg Config) (*DB, error) {
	dialect, driver, dsn, err := resolveURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	sqlDB, err := openDB(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConnections > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{DB: sqlDB, dialect: dialect}
	if err := db.Migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return db, nil
}

// Wrap adopts an already-open connection without migrating it
func Wrap(sqlDB *sql.DB, dialect Dialect) *DB {
	return &DB{DB: sqlDB, dialect: dialect}
}

// Dialect reports which SQL flavour this handle uses
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

func resolveURL(url string) (Dialect, string, string, error) {
	url = strings.TrimSpace(url)
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DialectPostgres, "postgres", url, nil
	case url == "":
		return DialectSQLite, "", "", fmt.Errorf("database url is required")
	}

	path := strings.TrimPrefix(url, "sqlite://")
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return DialectSQLite, "", "", fmt.Errorf("failed to create data dir: %w", err)
		}
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := "file:" + path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(ON)"
	return DialectSQLite, "sqlite", dsn, nil
}

// rebind rewrites ? placeholders as $1, $2, ... for Postgres
func (db *DB) rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS symptom_entries (
		id             TEXT PRIMARY KEY,
		owner_id       TEXT NOT NULL,
		symptom        TEXT NOT NULL,
		severity       TEXT NOT NULL CHECK (severity IN ('none', 'mild', 'moderate', 'severe')),
		severity_score INTEGER,
		started_at     TEXT NOT NULL,
		ended_at       TEXT,
		location       TEXT,
		medicines      TEXT NOT NULL DEFAULT '[]',
		notes          TEXT,
		document       TEXT NOT NULL,
		created_at     TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_owner_started ON symptom_entries(owner_id, started_at);
	CREATE INDEX IF NOT EXISTS idx_entries_owner_created ON symptom_entries(owner_id, created_at);

	CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
		document,
		content='symptom_entries',
		tokenize='porter unicode61'
	);

	CREATE TRIGGER IF NOT EXISTS entries_fts_insert AFTER INSERT ON symptom_entries BEGIN
		INSERT INTO entries_fts(rowid, document) VALUES (new.rowid, new.document);
	END;
`

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS symptom_entries (
		id             TEXT PRIMARY KEY,
		owner_id       TEXT NOT NULL,
		symptom        TEXT NOT NULL,
		severity       TEXT NOT NULL CHECK (severity IN ('none', 'mild', 'moderate', 'severe')),
		severity_score INTEGER,
		started_at     TEXT NOT NULL,
		ended_at       TEXT,
		location       TEXT,
		medicines      TEXT NOT NULL DEFAULT '[]',
		notes          TEXT,
		document       TEXT NOT NULL,
		created_at     TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_owner_started ON symptom_entries(owner_id, started_at);
	CREATE INDEX IF NOT EXISTS idx_entries_owner_created ON symptom_entries(owner_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_entries_document ON symptom_entries
		USING GIN (to_tsvector('english', document));
`

// Migrate creates tables, indexes and the full-text index if they are missing
func (db *DB) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if db.dialect == DialectPostgres {
		schema = postgresSchema
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate %s schema: %w", db.dialect, err)
	}
	return nil
}
