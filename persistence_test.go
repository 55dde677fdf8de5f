package bankauth

import (
	"context"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/uptrace/bun/migrate"
)

func TestOpenSQLite_AppliesEmbeddedMigrations(t *testing.T) {
	ctx := context.Background()
	dsn := fmt.Sprintf(
		"file:bankauth-open-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)

	client, err := OpenSQLite(ctx, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	for _, table := range []string{
		"auth_artifacts",
		"auth_clients",
		"auth_users",
		"auth_accounts",
		"auth_consents",
		"auth_challenges",
	} {
		var count int
		err := client.DB().NewRaw(
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
			table,
		).Scan(ctx, &count)
		if err != nil {
			t.Fatalf("inspect schema for %s: %v", table, err)
		}
		if count != 1 {
			t.Fatalf("expected migrated table %s to exist", table)
		}
	}
}

func TestOpenSQLite_WithoutMigrationsLeavesSchemaAlone(t *testing.T) {
	ctx := context.Background()
	dsn := fmt.Sprintf(
		"file:bankauth-open-bare-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)

	client, err := OpenSQLite(ctx, dsn, WithoutMigrations())
	if err != nil {
		t.Fatalf("open sqlite without migrations: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	var count int
	err = client.DB().NewRaw(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'auth_artifacts'",
	).Scan(ctx, &count)
	if err != nil {
		t.Fatalf("inspect schema: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no migrated tables, found auth_artifacts")
	}
}

func TestMigrationDialectTreesDiscoverCleanly(t *testing.T) {
	// Each dialect registers its own subtree; a nested directory inside
	// either would collide on version identity during discovery.
	for _, dir := range []string{postgresMigrationsDir, sqliteMigrationsDir} {
		fsys, err := fs.Sub(migrationsFS, dir)
		if err != nil {
			t.Fatalf("resolve %s: %v", dir, err)
		}

		err = fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() && path != "." {
				t.Fatalf("unexpected nested directory %q under %s", path, dir)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("walk %s: %v", dir, err)
		}

		ups, err := fs.Glob(fsys, "*.up.sql")
		if err != nil {
			t.Fatalf("glob %s up migrations: %v", dir, err)
		}
		downs, err := fs.Glob(fsys, "*.down.sql")
		if err != nil {
			t.Fatalf("glob %s down migrations: %v", dir, err)
		}
		if len(ups) == 0 || len(ups) != len(downs) {
			t.Fatalf("expected paired up/down migrations under %s, got %d up %d down", dir, len(ups), len(downs))
		}

		migrations := migrate.NewMigrations()
		if err := migrations.Discover(fsys); err != nil {
			t.Fatalf("discover %s migrations: %v", dir, err)
		}
		if len(migrations.Sorted()) == 0 {
			t.Fatalf("expected discovered migrations under %s", dir)
		}
	}
}

func TestOpenSQLite_RequiresDSN(t *testing.T) {
	if _, err := OpenSQLite(context.Background(), "   "); err == nil {
		t.Fatalf("expected blank dsn error")
	}
}

func TestOpenOptions_ApplyToSettings(t *testing.T) {
	settings := openSettings{migrate: true}
	for _, opt := range []OpenOption{
		WithOpenDebug(true),
		WithOpenPingTimeout(2 * time.Second),
		WithOpenOtelIdentifier("bankauth-suite"),
		WithoutMigrations(),
		nil,
	} {
		if opt == nil {
			continue
		}
		opt(&settings)
	}

	if !settings.debug {
		t.Fatalf("expected debug enabled")
	}
	if settings.pingTimeout != 2*time.Second {
		t.Fatalf("unexpected ping timeout: %v", settings.pingTimeout)
	}
	if settings.otel != "bankauth-suite" {
		t.Fatalf("unexpected otel identifier: %q", settings.otel)
	}
	if settings.migrate {
		t.Fatalf("expected migrations disabled")
	}

	cfg := persistenceConfig{driver: "sqlite3", server: "file:x"}
	if cfg.GetPingTimeout() != defaultPingTimeout {
		t.Fatalf("expected default ping timeout")
	}
	if cfg.GetOtelIdentifier() != defaultOtelIdentifier {
		t.Fatalf("expected default otel identifier")
	}
}
