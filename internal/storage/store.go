package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"codegraph/internal/graph"
)

// GraphStore persists one graph version to SQLite. Saves always write the
// whole version in one transaction: an incremental upsert can rewrite other
// files' edges (dangling edges snap to new nodes, removals dangle resolved
// ones), so per-file row replacement would drift from the in-memory graph.
type GraphStore struct {
	db     *sql.DB
	ownsDB bool
}

// Open opens (creating if needed) a graph database at path.
func Open(path string) (*GraphStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	version, err := SchemaVersion(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if version == "0" {
		if err := CreateSchema(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &GraphStore{db: db, ownsDB: true}, nil
}

// NewGraphStoreWithDB wraps an existing connection. The caller manages the
// database lifecycle (schema, close).
func NewGraphStoreWithDB(db *sql.DB) *GraphStore {
	return &GraphStore{db: db, ownsDB: false}
}

// Close closes the connection if this store owns it.
func (s *GraphStore) Close() error {
	if !s.ownsDB || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveSnapshot replaces the persisted graph with the given snapshot in one
// transaction.
func (s *GraphStore) SaveSnapshot(snap *graph.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	for _, table := range []string{"edges", "nodes"} {
		if _, err := sq.Delete(table).RunWith(tx).Exec(); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := insertNodes(tx, snap.AllNodes()); err != nil {
		return err
	}
	if err := insertEdges(tx, snap, snap.AllEdges()); err != nil {
		return err
	}
	if err := touchLastSaved(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Load reads the persisted graph back into node and edge slices, suitable
// for graph.Store.Restore.
func (s *GraphStore) Load() ([]graph.Node, []graph.Edge, error) {
	nodeRows, err := sq.Select(
		"node_id", "node_type", "name", "qualified_name", "file_path",
		"start_line", "end_line", "complexity", "docstring", "language", "metadata",
	).From("nodes").OrderBy("node_id").RunWith(s.db).Query()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer nodeRows.Close()

	var nodes []graph.Node
	for nodeRows.Next() {
		var node graph.Node
		var metaJSON string
		if err := nodeRows.Scan(
			&node.ID, &node.Type, &node.Name, &node.QualifiedName, &node.FilePath,
			&node.StartLine, &node.EndLine, &node.Complexity, &node.Docstring,
			&node.Language, &metaJSON,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan node: %w", err)
		}
		if metaJSON != "" && metaJSON != "{}" {
			if err := json.Unmarshal([]byte(metaJSON), &node.Metadata); err != nil {
				return nil, nil, fmt.Errorf("failed to decode metadata for %s: %w", node.ID, err)
			}
		}
		nodes = append(nodes, node)
	}
	if err := nodeRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read nodes: %w", err)
	}

	edgeRows, err := sq.Select(
		"from_id", "to_id", "edge_type", "line", "dangling", "candidates",
	).From("edges").OrderBy("from_id", "to_id", "edge_type").RunWith(s.db).Query()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()

	var edges []graph.Edge
	for edgeRows.Next() {
		var edge graph.Edge
		var dangling int
		var candidatesJSON string
		if err := edgeRows.Scan(&edge.From, &edge.To, &edge.Type, &edge.Line, &dangling, &candidatesJSON); err != nil {
			return nil, nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edge.Dangling = dangling != 0
		if candidatesJSON != "" && candidatesJSON != "[]" {
			if err := json.Unmarshal([]byte(candidatesJSON), &edge.Candidates); err != nil {
				return nil, nil, fmt.Errorf("failed to decode candidates for %s->%s: %w", edge.From, edge.To, err)
			}
		}
		edges = append(edges, edge)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read edges: %w", err)
	}

	return nodes, edges, nil
}

func insertNodes(tx *sql.Tx, nodes []*graph.Node) error {
	for _, node := range nodes {
		metaJSON := "{}"
		if len(node.Metadata) > 0 {
			data, err := json.Marshal(node.Metadata)
			if err != nil {
				return fmt.Errorf("failed to encode metadata for %s: %w", node.ID, err)
			}
			metaJSON = string(data)
		}
		_, err := sq.Insert("nodes").
			Columns(
				"node_id", "node_type", "name", "qualified_name", "file_path",
				"start_line", "end_line", "complexity", "docstring", "language", "metadata",
			).
			Values(
				node.ID, string(node.Type), node.Name, node.QualifiedName, node.FilePath,
				node.StartLine, node.EndLine, node.Complexity, node.Docstring,
				node.Language, metaJSON,
			).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to insert node %s: %w", node.ID, err)
		}
	}
	return nil
}

func insertEdges(tx *sql.Tx, snap *graph.Snapshot, edges []*graph.Edge) error {
	for _, edge := range edges {
		sourceFile := ""
		if src, err := snap.Node(edge.From); err == nil {
			sourceFile = src.FilePath
		}
		candidatesJSON := "[]"
		if len(edge.Candidates) > 0 {
			data, err := json.Marshal(edge.Candidates)
			if err != nil {
				return fmt.Errorf("failed to encode candidates for %s->%s: %w", edge.From, edge.To, err)
			}
			candidatesJSON = string(data)
		}
		_, err := sq.Insert("edges").
			Columns(
				"edge_id", "from_id", "to_id", "edge_type",
				"line", "dangling", "candidates", "source_file",
			).
			Values(
				uuid.New().String(), edge.From, edge.To, string(edge.Type),
				edge.Line, boolToInt(edge.Dangling), candidatesJSON, sourceFile,
			).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to insert edge %s->%s: %w", edge.From, edge.To, err)
		}
	}
	return nil
}

func touchLastSaved(tx *sql.Tx) error {
	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO graph_metadata (key, value, updated_at)
		VALUES ('last_saved', ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := tx.Exec(query, now, now); err != nil {
		return fmt.Errorf("failed to update last_saved: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
