package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

var ErrUnsupportedURL = errors.New("unsupported database url")

// DB envuelve el pool de database/sql junto con el dialecto del motor.
// Se construye una vez al arrancar y se pasa explícitamente a los repos.
type DB struct {
	sql          *sql.DB
	dialect      Dialect
	probeTimeout time.Duration
}

type Options struct {
	MaxOpenConns int
	ProbeTimeout time.Duration
}

// Open prepara el pool. No conecta: sql.Open es perezoso y la conectividad
// la verifica el gate de arranque con Probe.
func Open(databaseURL string, opts Options) (*DB, error) {
	dialect, driver, dsn, err := Resolve(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name, err)
	}

	if dialect.SingleWriter {
		// sqlite: un solo escritor; con más conexiones aparecen SQLITE_BUSY
		db.SetMaxOpenConns(1)
	} else {
		maxOpen := opts.MaxOpenConns
		if maxOpen <= 0 {
			maxOpen = 10
		}
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen / 2)
		db.SetConnMaxIdleTime(5 * time.Minute)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 3 * time.Second
	}

	return &DB{sql: db, dialect: dialect, probeTimeout: opts.ProbeTimeout}, nil
}

// Resolve traduce DATABASE_URL a dialecto, driver y DSN:
//   - postgres://, postgresql://  -> pgx
//   - sqlite:///ruta, file:ruta, ruta/al/archivo.db -> sqlite (modernc)
func Resolve(databaseURL string) (Dialect, string, string, error) {
	u := strings.TrimSpace(databaseURL)
	lower := strings.ToLower(u)

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Postgres, "pgx", u, nil

	case strings.HasPrefix(lower, "sqlite://"):
		path := u[len("sqlite://"):]
		// estilo SQLAlchemy: sqlite:///relativo.db, sqlite:////abs/ruta.db
		path = strings.TrimPrefix(path, "/")
		if path == "" {
			return Dialect{}, "", "", fmt.Errorf("%w: sqlite url without path", ErrUnsupportedURL)
		}
		return SQLite, "sqlite", sqliteDSN("file:" + path), nil

	case strings.HasPrefix(lower, "file:"):
		return SQLite, "sqlite", sqliteDSN(u), nil

	case u != "" && !strings.Contains(u, "://"):
		return SQLite, "sqlite", sqliteDSN("file:" + u), nil
	}

	return Dialect{}, "", "", fmt.Errorf("%w: %q", ErrUnsupportedURL, Redact(u))
}

func sqliteDSN(base string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
}

// Redact oculta credenciales user:pass@ para poder loguear la URL.
func Redact(databaseURL string) string {
	u := strings.TrimSpace(databaseURL)
	at := strings.LastIndex(u, "@")
	scheme := strings.Index(u, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return u
	}
	return u[:scheme+3] + "***" + u[at:]
}

func (db *DB) Dialect() Dialect { return db.dialect }

// Probe ejecuta un SELECT 1. Es la verificación de conectividad del arranque.
func (db *DB) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, db.probeTimeout)
	defer cancel()

	var one int
	if err := db.sql.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("probe %s: %w", db.dialect.Name, err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.sql.Close()
}
