package storage

import (
	"database/sql"
	"fmt"
	"time"
)

const schemaVersion = "1"

// CreateSchema creates all tables and indexes for a graph database. All
// schema creation succeeds or fails together.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"nodes", createNodesTable},
		{"edges", createEdgesTable},
		{"graph_metadata", createMetadataTable},
	}
	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range schemaIndexes() {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	bootstrapSQL := `
		INSERT INTO graph_metadata (key, value, updated_at) VALUES
			('schema_version', ?, ?),
			('last_saved', '', ?)
	`
	if _, err := tx.Exec(bootstrapSQL, schemaVersion, now, now); err != nil {
		return fmt.Errorf("failed to bootstrap graph_metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// SchemaVersion retrieves the schema version. Returns "0" for a new database
// without a graph_metadata table.
func SchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='graph_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check graph_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow("SELECT value FROM graph_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in graph_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

// Table DDL constants

const createNodesTable = `
CREATE TABLE nodes (
    node_id TEXT PRIMARY KEY,          -- Derived: {type}:{file_path}:{qualified_name}
    node_type TEXT NOT NULL,           -- module, class, function, method, parameter, import
    name TEXT NOT NULL,
    qualified_name TEXT NOT NULL,
    file_path TEXT NOT NULL,
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    complexity INTEGER NOT NULL DEFAULT 0,
    docstring TEXT NOT NULL DEFAULT '',
    language TEXT NOT NULL DEFAULT '',
    metadata TEXT NOT NULL DEFAULT '{}' -- JSON key/value side-map
)
`

const createEdgesTable = `
CREATE TABLE edges (
    edge_id TEXT PRIMARY KEY,          -- UUID
    from_id TEXT NOT NULL,
    to_id TEXT NOT NULL,               -- May be an unresolved: placeholder
    edge_type TEXT NOT NULL,           -- contains, imports, calls, inherits
    line INTEGER NOT NULL DEFAULT 0,
    dangling INTEGER NOT NULL DEFAULT 0,
    candidates TEXT NOT NULL DEFAULT '[]', -- JSON list of candidate node IDs
    source_file TEXT NOT NULL,         -- File the edge's source node lives in
    UNIQUE(from_id, to_id, edge_type)
)
`

const createMetadataTable = `
CREATE TABLE graph_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

func schemaIndexes() []string {
	return []string{
		"CREATE INDEX idx_nodes_type ON nodes(node_type)",
		"CREATE INDEX idx_nodes_file_path ON nodes(file_path)",
		"CREATE INDEX idx_nodes_name ON nodes(name)",
		"CREATE INDEX idx_nodes_qualified_name ON nodes(qualified_name)",

		"CREATE INDEX idx_edges_from ON edges(from_id)",
		"CREATE INDEX idx_edges_to ON edges(to_id)",
		"CREATE INDEX idx_edges_type ON edges(edge_type)",
		"CREATE INDEX idx_edges_source_file ON edges(source_file)",
	}
}
