package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: COURSE CATALOG
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS courses (
    course_key TEXT PRIMARY KEY,
    display_name TEXT NOT NULL DEFAULT '',
    -- raw settings as entered by the course author
    adaptive_learning_configuration JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS adaptive_blocks (
    usage_id TEXT PRIMARY KEY,
    course_key TEXT NOT NULL REFERENCES courses(course_key) ON DELETE CASCADE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_adaptive_blocks_course ON adaptive_blocks(course_key);

CREATE TABLE IF NOT EXISTS adaptive_block_children (
    usage_id TEXT NOT NULL REFERENCES adaptive_blocks(usage_id) ON DELETE CASCADE,
    block_id TEXT NOT NULL,
    display_name TEXT NOT NULL DEFAULT '',
    chapter TEXT NOT NULL,
    section TEXT NOT NULL,
    position TEXT NOT NULL DEFAULT '1',
    ordinal INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (usage_id, block_id)
);

CREATE INDEX IF NOT EXISTS idx_adaptive_block_children_block ON adaptive_block_children(block_id);
`

const migration001Down = `
DROP TABLE IF EXISTS adaptive_block_children;
DROP TABLE IF EXISTS adaptive_blocks;
DROP TABLE IF EXISTS courses;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migration is one versioned schema change.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// GetMigrations returns all migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "course_catalog", UpSQL: migration001Up, DownSQL: migration001Down},
	}
}

// Migrator applies migrations and records them in schema_migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	tableName  string
}

// NewMigrator creates a migrator with the built-in migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{conn: conn, migrations: GetMigrations(), tableName: "schema_migrations"}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`, m.tableName)
	if _, err := m.conn.Pool().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[int]time.Time, error) {
	rows, err := m.conn.Pool().Query(ctx, fmt.Sprintf("SELECT version, applied_at FROM %s", m.tableName))
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	out := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var at time.Time
		if err := rows.Scan(&version, &at); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		out[version] = at
	}
	return out, rows.Err()
}

// Migrate applies every pending migration, each in its own transaction.
// It returns the number of migrations applied.
func (m *Migrator) Migrate(ctx context.Context) (int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range m.migrations {
		if _, ok := done[mig.Version]; ok {
			continue
		}
		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx,
				fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", m.tableName),
				mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return count, fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
		count++
	}
	return count, nil
}

// Rollback reverts the most recently applied migration.
func (m *Migrator) Rollback(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		mig := m.migrations[i]
		if _, ok := done[mig.Version]; !ok {
			continue
		}
		return m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.DownSQL); err != nil {
				return fmt.Errorf("%w: rollback %d: %v", ErrMigrationFailed, mig.Version, err)
			}
			_, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE version = $1", m.tableName), mig.Version)
			return err
		})
	}
	return nil
}

// Status lists migrations with their applied state.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Migration, len(m.migrations))
	for i, mig := range m.migrations {
		if at, ok := done[mig.Version]; ok {
			mig.IsApplied = true
			mig.AppliedAt = at
		}
		out[i] = mig
	}
	return out, nil
}
