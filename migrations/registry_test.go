package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	bankauth "github.com/goliatone/go-bankauth"
	_ "github.com/mattn/go-sqlite3"
)

func TestFilesystems_ReturnsPostgresAndSQLite(t *testing.T) {
	filesystems, err := Filesystems()
	if err != nil {
		t.Fatalf("filesystems: %v", err)
	}
	if len(filesystems) != 2 {
		t.Fatalf("expected 2 filesystems, got %d", len(filesystems))
	}

	var postgresFound bool
	var sqliteFound bool
	for _, entry := range filesystems {
		matches, globErr := fs.Glob(entry.FS, "*.up.sql")
		if globErr != nil {
			t.Fatalf("glob %s: %v", entry.Dialect, globErr)
		}
		if len(matches) == 0 {
			t.Fatalf("expected %s migration files, got none", entry.Dialect)
		}
		switch entry.Dialect {
		case DialectPostgres:
			postgresFound = true
		case DialectSQLite:
			sqliteFound = true
		}
	}

	if !postgresFound {
		t.Fatalf("expected postgres filesystem")
	}
	if !sqliteFound {
		t.Fatalf("expected sqlite filesystem")
	}
}

func TestFilesystems_DialectTreesAreDisjoint(t *testing.T) {
	filesystems, err := Filesystems()
	if err != nil {
		t.Fatalf("filesystems: %v", err)
	}

	expectedPaths := map[string]string{
		DialectPostgres: "data/sql/migrations/postgres",
		DialectSQLite:   "data/sql/migrations/sqlite",
	}
	for _, entry := range filesystems {
		if expected := expectedPaths[entry.Dialect]; entry.Path != expected {
			t.Fatalf("expected %s path %q, got %q", entry.Dialect, expected, entry.Path)
		}
		// A nested directory would reintroduce duplicate version identity
		// during migration discovery.
		err := fs.WalkDir(entry.FS, ".", func(path string, dirEntry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if dirEntry.IsDir() && path != "." {
				t.Fatalf("unexpected nested directory %q in %s filesystem", path, entry.Dialect)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("walk %s filesystem: %v", entry.Dialect, err)
		}
	}
}

func TestRegister_UsesValidationTargets(t *testing.T) {
	var calls []string
	_, err := Register(context.Background(), func(_ context.Context, dialect string, _ string, _ fs.FS) error {
		calls = append(calls, dialect)
		return nil
	}, WithValidationTargets(DialectSQLite))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("expected 1 registration call, got %d", len(calls))
	}
	if calls[0] != DialectSQLite {
		t.Fatalf("expected sqlite registration, got %q", calls[0])
	}
}

func TestRegister_DefaultsSourceLabel(t *testing.T) {
	reg, err := Register(context.Background(), func(_ context.Context, _ string, sourceLabel string, _ fs.FS) error {
		if sourceLabel != "go-bankauth" {
			t.Fatalf("expected go-bankauth source label, got %q", sourceLabel)
		}
		return nil
	}, WithValidationTargets(DialectSQLite))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.SourceLabel != "go-bankauth" {
		t.Fatalf("expected go-bankauth source label, got %q", reg.SourceLabel)
	}
}

func TestCoreSchemaMigrationPair_ExistsForBothDialects(t *testing.T) {
	root := bankauth.GetCoreMigrationsFS()
	paths := []string{
		"data/sql/migrations/postgres/00001_bankauth_core_schema.up.sql",
		"data/sql/migrations/postgres/00001_bankauth_core_schema.down.sql",
		"data/sql/migrations/sqlite/00001_bankauth_core_schema.up.sql",
		"data/sql/migrations/sqlite/00001_bankauth_core_schema.down.sql",
	}
	for _, migrationPath := range paths {
		content, err := fs.ReadFile(root, migrationPath)
		if err != nil {
			t.Fatalf("read migration %s: %v", migrationPath, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			t.Fatalf("expected migration %s to have SQL content", migrationPath)
		}
	}
}

func TestSQLiteCoreSchemaMigration_ApplyAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migrations-core-schema?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	root := bankauth.GetCoreMigrationsFS()
	sqliteMigrations, err := fs.Sub(root, "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}

	if err := execSQLMigration(context.Background(), db, sqliteMigrations, "00001_bankauth_core_schema.up.sql"); err != nil {
		t.Fatalf("apply core schema migration up: %v", err)
	}

	requiredTables := []string{
		"auth_artifacts",
		"auth_clients",
		"auth_users",
		"auth_accounts",
		"auth_consents",
		"auth_challenges",
	}
	for _, tableName := range requiredTables {
		var count int
		if err := db.QueryRowContext(
			context.Background(),
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`,
			tableName,
		).Scan(&count); err != nil {
			t.Fatalf("query sqlite_master for %s: %v", tableName, err)
		}
		if count != 1 {
			t.Fatalf("expected table %s to exist after up migration", tableName)
		}
	}

	insertArtifact := `
		INSERT INTO auth_artifacts (kind, id, payload, grant_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := db.ExecContext(
		context.Background(),
		insertArtifact,
		"AccessToken", "token_1", `{"grantId":"grant_1"}`, "grant_1",
		"2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z",
	); err != nil {
		t.Fatalf("insert artifact: %v", err)
	}
	if _, err := db.ExecContext(
		context.Background(),
		insertArtifact,
		"RefreshToken", "token_1", `{"grantId":"grant_1"}`, "grant_1",
		"2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z",
	); err != nil {
		t.Fatalf("expected same id under different kind to insert: %v", err)
	}
	if _, err := db.ExecContext(
		context.Background(),
		insertArtifact,
		"AccessToken", "token_1", `{"grantId":"grant_1"}`, "grant_1",
		"2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z",
	); err == nil {
		t.Fatalf("expected composite primary key violation on duplicate kind+id")
	}

	insertClient := `
		INSERT INTO auth_clients (id, client_id, secret, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := db.ExecContext(
		context.Background(),
		insertClient,
		"e5c9a520-5b0f-4f0d-9a53-000000000001", "demo-bank-web", "secret", "Demo Bank",
		"2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z",
	); err != nil {
		t.Fatalf("insert client: %v", err)
	}
	if _, err := db.ExecContext(
		context.Background(),
		insertClient,
		"e5c9a520-5b0f-4f0d-9a53-000000000002", "demo-bank-web", "secret", "Demo Bank Copy",
		"2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z",
	); err == nil {
		t.Fatalf("expected unique client_id violation")
	}

	if err := execSQLMigration(context.Background(), db, sqliteMigrations, "00001_bankauth_core_schema.down.sql"); err != nil {
		t.Fatalf("apply core schema migration down: %v", err)
	}

	var count int
	if err := db.QueryRowContext(
		context.Background(),
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`,
		"auth_artifacts",
	).Scan(&count); err != nil {
		t.Fatalf("query sqlite_master after down migration: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected auth_artifacts to be dropped after down migration")
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
