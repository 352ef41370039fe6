package db

import "fmt"

const schema = `
-- Site visit plans
CREATE TABLE IF NOT EXISTS svp_plans (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    plan_code TEXT NOT NULL DEFAULT '',
    plan_for TEXT NOT NULL DEFAULT '',
    plan_period TEXT NOT NULL DEFAULT '',
    plan_name TEXT NOT NULL DEFAULT '',
    plan_description TEXT NOT NULL DEFAULT '',
    site_visits TEXT NOT NULL DEFAULT '0',
    status TEXT NOT NULL DEFAULT 'In Progress',
    team_name TEXT NOT NULL DEFAULT '',
    needs_attention TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT ''
);

-- Per-plan section status
CREATE TABLE IF NOT EXISTS svp_plan_sections (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    plan_id INTEGER NOT NULL,
    section_id TEXT NOT NULL,
    name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'Not Started',
    FOREIGN KEY (plan_id) REFERENCES svp_plans(id) ON DELETE CASCADE,
    UNIQUE(plan_id, section_id)
);

-- Last access per user and plan
CREATE TABLE IF NOT EXISTS svp_plan_access (
    username TEXT NOT NULL,
    plan_id INTEGER NOT NULL,
    last_accessed_at TEXT NOT NULL,
    PRIMARY KEY (username, plan_id),
    FOREIGN KEY (plan_id) REFERENCES svp_plans(id) ON DELETE CASCADE
);

-- JSON documents keyed by name (grid config)
CREATE TABLE IF NOT EXISTS app_config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- Initiate form choices
CREATE TABLE IF NOT EXISTS initiate_options (
    option_type TEXT NOT NULL,
    value TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (option_type, value)
);

-- Sidebar menu
CREATE TABLE IF NOT EXISTS menu_items (
    id TEXT PRIMARY KEY,
    label TEXT NOT NULL,
    expanded INTEGER NOT NULL DEFAULT 0,
    sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS menu_item_children (
    menu_item_id TEXT NOT NULL,
    child_id TEXT NOT NULL,
    label TEXT NOT NULL,
    href TEXT NOT NULL DEFAULT '',
    is_header INTEGER NOT NULL DEFAULT 0,
    sort_order INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (menu_item_id, child_id),
    FOREIGN KEY (menu_item_id) REFERENCES menu_items(id) ON DELETE CASCADE
);

-- Header navigation
CREATE TABLE IF NOT EXISTS nav_items (
    id TEXT PRIMARY KEY,
    label TEXT NOT NULL,
    href TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0
);

-- Schema version bookkeeping
CREATE TABLE IF NOT EXISTS schema_info (
    version INTEGER NOT NULL
);

-- Indexes
CREATE UNIQUE INDEX IF NOT EXISTS idx_svp_plans_code ON svp_plans(plan_code) WHERE plan_code != '';
CREATE INDEX IF NOT EXISTS idx_svp_plans_status ON svp_plans(status);
CREATE INDEX IF NOT EXISTS idx_svp_plan_sections_plan ON svp_plan_sections(plan_id);
`

// migration upgrades the schema from version-1 to version
type migration struct {
	version int
	sql     string
}

// migrations are applied in order to databases created by older releases
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS saved_searches (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    search_values TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_saved_searches_name ON saved_searches(name);
`,
	},
}

// SchemaVersion is the version of a fully migrated database
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// GetSchemaVersion returns the recorded schema version, 0 when unset
func (db *DB) GetSchemaVersion() (int, error) {
	var version int
	err := db.conn.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_info`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

// RunMigrations applies pending migrations and returns how many ran
func (db *DB) RunMigrations() (int, error) {
	if _, err := db.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_info (version INTEGER NOT NULL)`); err != nil {
		return 0, fmt.Errorf("create schema_info: %w", err)
	}
	current, err := db.GetSchemaVersion()
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := db.conn.Exec(m.sql); err != nil {
			return applied, fmt.Errorf("migration %d: %w", m.version, err)
		}
		if _, err := db.conn.Exec(`DELETE FROM schema_info`); err != nil {
			return applied, fmt.Errorf("migration %d: %w", m.version, err)
		}
		if _, err := db.conn.Exec(`INSERT INTO schema_info (version) VALUES (?)`, m.version); err != nil {
			return applied, fmt.Errorf("migration %d: %w", m.version, err)
		}
		applied++
	}
	return applied, nil
}
