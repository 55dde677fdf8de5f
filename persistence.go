package bankauth

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const (
	defaultPingTimeout    = 5 * time.Second
	defaultOtelIdentifier = "go-bankauth"

	postgresMigrationsDir = "data/sql/migrations/postgres"
	sqliteMigrationsDir   = "data/sql/migrations/sqlite"
)

type persistenceConfig struct {
	debug       bool
	driver      string
	server      string
	pingTimeout time.Duration
	otel        string
}

func (c persistenceConfig) GetDebug() bool {
	return c.debug
}

func (c persistenceConfig) GetDriver() string {
	return c.driver
}

func (c persistenceConfig) GetServer() string {
	return c.server
}

func (c persistenceConfig) GetPingTimeout() time.Duration {
	if c.pingTimeout <= 0 {
		return defaultPingTimeout
	}
	return c.pingTimeout
}

func (c persistenceConfig) GetOtelIdentifier() string {
	if strings.TrimSpace(c.otel) == "" {
		return defaultOtelIdentifier
	}
	return c.otel
}

type openSettings struct {
	debug       bool
	pingTimeout time.Duration
	otel        string
	migrate     bool
}

// OpenOption adjusts how OpenPostgres and OpenSQLite build their
// persistence client.
type OpenOption func(*openSettings)

// WithOpenDebug toggles query logging on the persistence client.
func WithOpenDebug(debug bool) OpenOption {
	return func(s *openSettings) {
		s.debug = debug
	}
}

// WithOpenPingTimeout overrides the connection ping timeout.
func WithOpenPingTimeout(timeout time.Duration) OpenOption {
	return func(s *openSettings) {
		if timeout > 0 {
			s.pingTimeout = timeout
		}
	}
}

// WithOpenOtelIdentifier overrides the otel identifier reported by the
// persistence client.
func WithOpenOtelIdentifier(identifier string) OpenOption {
	return func(s *openSettings) {
		trimmed := strings.TrimSpace(identifier)
		if trimmed != "" {
			s.otel = trimmed
		}
	}
}

// WithoutMigrations skips registering and running the embedded schema
// migrations. Callers own schema management when this is set.
func WithoutMigrations() OpenOption {
	return func(s *openSettings) {
		s.migrate = false
	}
}

// OpenPostgres opens a Postgres-backed persistence client and, unless
// disabled, applies the embedded authorization schema migrations.
func OpenPostgres(ctx context.Context, dsn string, opts ...OpenOption) (*persistence.Client, error) {
	return openClient(ctx, "postgres", dsn, pgdialect.New(), postgresMigrationsDir, opts)
}

// OpenSQLite opens a SQLite-backed persistence client and, unless
// disabled, applies the embedded authorization schema migrations.
// In-memory shared-cache DSNs are pinned to a single connection so the
// database survives connection churn.
func OpenSQLite(ctx context.Context, dsn string, opts ...OpenOption) (*persistence.Client, error) {
	return openClient(ctx, "sqlite3", dsn, sqlitedialect.New(), sqliteMigrationsDir, opts)
}

func openClient(ctx context.Context, driver string, dsn string, dialect schema.Dialect, migrationsDir string, opts []OpenOption) (*persistence.Client, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, fmt.Errorf("bankauth: %s dsn is required", driver)
	}

	settings := openSettings{migrate: true}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&settings)
	}

	sqlDB, err := sql.Open(driver, trimmed)
	if err != nil {
		return nil, fmt.Errorf("bankauth: open %s: %w", driver, err)
	}
	if driver == "sqlite3" && strings.Contains(trimmed, "mode=memory") {
		sqlDB.SetMaxOpenConns(1)
	}

	cfg := persistenceConfig{
		debug:       settings.debug,
		driver:      driver,
		server:      trimmed,
		pingTimeout: settings.pingTimeout,
		otel:        settings.otel,
	}

	client, err := persistence.New(cfg, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("bankauth: persistence client: %w", err)
	}

	if settings.migrate {
		fsys, subErr := fs.Sub(migrationsFS, migrationsDir)
		if subErr != nil {
			_ = client.Close()
			return nil, fmt.Errorf("bankauth: resolve %s migrations: %w", driver, subErr)
		}
		client.RegisterSQLMigrations(fsys)
		if err := client.Migrate(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("bankauth: migrate %s: %w", driver, err)
		}
	}

	return client, nil
}
