package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// migration is one versioned schema step.  Statements are executed one at a
// time because the MySQL driver rejects multi-statement strings by default.
type migration struct {
	Version    int
	Name       string
	Statements []string
}

// Type placeholders ({{ts}}, {{bool}}, {{autoid}}, {{key}}) are filled per
// dialect.  Profiles deliberately carry no foreign key to auth_users: the
// identity provider and the content store are treated as separate systems.
var migrations = []migration{
	{1, "months", []string{`
CREATE TABLE IF NOT EXISTS months (
    id    INTEGER PRIMARY KEY,
    name  VARCHAR(32)  NOT NULL,
    theme VARCHAR(255) NOT NULL DEFAULT '',
    color VARCHAR(16)  NOT NULL DEFAULT '',
    icon  VARCHAR(32)  NOT NULL DEFAULT ''
)`}},
	{2, "auth_users", []string{`
CREATE TABLE IF NOT EXISTS auth_users (
    id            VARCHAR(36)  NOT NULL PRIMARY KEY,
    email         {{key}}      NOT NULL UNIQUE,
    password_hash VARCHAR(255) NOT NULL,
    created_at    {{ts}}       NOT NULL
)`}},
	{3, "profiles", []string{`
CREATE TABLE IF NOT EXISTS profiles (
    id         VARCHAR(36)  NOT NULL PRIMARY KEY,
    username   VARCHAR(100) NOT NULL,
    role       VARCHAR(16)  NOT NULL DEFAULT 'user',
    avatar_url VARCHAR(500) NULL,
    created_at {{ts}}       NOT NULL
)`}},
	{4, "devotionals", []string{`
CREATE TABLE IF NOT EXISTS devotionals (
    month_id           INTEGER      NOT NULL,
    day_number         INTEGER      NOT NULL,
    title              VARCHAR(100) NOT NULL,
    story_title        VARCHAR(255) NOT NULL DEFAULT '',
    story_content      TEXT         NOT NULL,
    verse_text         TEXT         NOT NULL,
    verse_reference    VARCHAR(100) NOT NULL,
    reflection_content TEXT         NOT NULL,
    prayer_content     TEXT         NOT NULL,
    image_url          VARCHAR(500) NULL,
    updated_at         {{ts}}       NOT NULL,
    PRIMARY KEY (month_id, day_number),
    FOREIGN KEY (month_id) REFERENCES months(id)
)`}},
	{5, "activities", []string{`
CREATE TABLE IF NOT EXISTS activities (
    month_id      INTEGER       NOT NULL,
    day_number    INTEGER       NOT NULL,
    drive_url     VARCHAR(1000) NOT NULL DEFAULT '',
    is_configured {{bool}}      NOT NULL DEFAULT FALSE,
    updated_at    {{ts}}        NOT NULL,
    PRIMARY KEY (month_id, day_number),
    FOREIGN KEY (month_id) REFERENCES months(id)
)`}},
	{6, "user_progress", []string{`
CREATE TABLE IF NOT EXISTS user_progress (
    user_id      VARCHAR(36) NOT NULL,
    month_id     INTEGER     NOT NULL,
    day_number   INTEGER     NOT NULL,
    is_completed {{bool}}    NOT NULL DEFAULT FALSE,
    completed_at {{ts}}      NULL,
    PRIMARY KEY (user_id, month_id, day_number),
    FOREIGN KEY (month_id) REFERENCES months(id)
)`}},
	{7, "refresh_tokens", []string{`
CREATE TABLE IF NOT EXISTS refresh_tokens (
    id         {{autoid}},
    user_id    VARCHAR(36) NOT NULL,
    token_hash CHAR(64)    NOT NULL UNIQUE,
    expires_at {{ts}}      NOT NULL,
    revoked_at {{ts}}      NULL,
    created_at {{ts}}      NOT NULL
)`,
		`CREATE INDEX idx_refresh_tokens_user ON refresh_tokens (user_id)`,
	}},
	{8, "refresh_tokens_rotated_at", []string{
		`ALTER TABLE refresh_tokens ADD COLUMN rotated_at {{ts}} NULL`,
	}},
}

// Migrate applies pending migrations in version order and returns how many
// were applied.  Running it again is a no-op.
func (db *DB) Migrate(ctx context.Context) (int, error) {
	create := db.Dialect.expand(`CREATE TABLE IF NOT EXISTS schema_migrations (
    version    INTEGER NOT NULL PRIMARY KEY,
    applied_at {{ts}}  NOT NULL
)`)
	if _, err := db.ExecContext(ctx, create); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[int]bool{}
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return 0, fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return 0, err
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	count := 0
	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := db.apply(ctx, m); err != nil {
			return count, fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
		db.logger.Info("migration applied", slog.Int("version", m.Version), slog.String("name", m.Name))
		count++
	}
	return count, nil
}

func (db *DB) apply(ctx context.Context, m migration) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, stmt := range m.Statements {
		if _, err = tx.ExecContext(ctx, db.Dialect.expand(stmt)); err != nil {
			return err
		}
	}
	if _, err = tx.ExecContext(ctx,
		db.Dialect.Rebind("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)"),
		m.Version, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}
