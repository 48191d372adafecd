// Package store persists the extracted triplet set in SQLite so the
// knowledge graph survives restarts. The cache is all-or-nothing: a rebuild
// replaces every row inside one transaction, and loading reconstructs the
// graph exactly as it was built.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/helioscover/helios/graph"
)

// Document represents a row in the documents table.
type Document struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CharCount    int    `json:"char_count"`
	TripletCount int    `json:"triplet_count"`
	CreatedAt    string `json:"created_at"`
}

// Store wraps the SQLite database for all persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema.
func New(dbPath string) (*Store, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}

	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// HasGraph reports whether a cached graph exists (at least one document row).
func (s *Store) HasGraph(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n)
	if err != nil {
		return false, fmt.Errorf("counting documents: %w", err)
	}
	return n > 0, nil
}

// SaveGraph replaces the entire cached triplet set with the given
// per-document triples. charCounts may be nil; missing entries store zero.
// Everything happens in a single transaction so readers of the store never
// observe a half-written cache.
func (s *Store) SaveGraph(ctx context.Context, triplets map[string][]graph.Triple, charCounts map[string]int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM triplets"); err != nil {
		return fmt.Errorf("clearing triplets: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}

	insertDoc, err := tx.PrepareContext(ctx,
		"INSERT INTO documents (name, char_count, triplet_count) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing document insert: %w", err)
	}
	defer insertDoc.Close()

	insertTriplet, err := tx.PrepareContext(ctx,
		"INSERT INTO triplets (document_id, position, head, relation, tail) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing triplet insert: %w", err)
	}
	defer insertTriplet.Close()

	names := make([]string, 0, len(triplets))
	for name := range triplets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ts := triplets[name]
		res, err := insertDoc.ExecContext(ctx, name, charCounts[name], len(ts))
		if err != nil {
			return fmt.Errorf("inserting document %q: %w", name, err)
		}
		docID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("document id for %q: %w", name, err)
		}

		for i, t := range ts {
			if _, err := insertTriplet.ExecContext(ctx, docID, i, t.Head, t.Relation, t.Tail); err != nil {
				return fmt.Errorf("inserting triplet %d of %q: %w", i, name, err)
			}
		}
	}

	return tx.Commit()
}

// LoadTriplets reads the cached per-document triple lists, preserving
// extraction order within each document.
func (s *Store) LoadTriplets(ctx context.Context) (map[string][]graph.Triple, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.name, t.head, t.relation, t.tail
		FROM triplets t
		JOIN documents d ON d.id = t.document_id
		ORDER BY d.name, t.position`)
	if err != nil {
		return nil, fmt.Errorf("querying triplets: %w", err)
	}
	defer rows.Close()

	triplets := make(map[string][]graph.Triple)
	for rows.Next() {
		var name string
		var t graph.Triple
		if err := rows.Scan(&name, &t.Head, &t.Relation, &t.Tail); err != nil {
			return nil, fmt.Errorf("scanning triplet: %w", err)
		}
		triplets[name] = append(triplets[name], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating triplets: %w", err)
	}

	// Documents that produced zero triples still belong to the cache.
	docRows, err := s.db.QueryContext(ctx, "SELECT name FROM documents")
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer docRows.Close()
	for docRows.Next() {
		var name string
		if err := docRows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if _, ok := triplets[name]; !ok {
			triplets[name] = []graph.Triple{}
		}
	}
	if err := docRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return triplets, nil
}

// LoadGraph reconstructs the knowledge graph from the cached triplets.
func (s *Store) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	triplets, err := s.LoadTriplets(ctx)
	if err != nil {
		return nil, err
	}
	return graph.Build(triplets), nil
}

// Documents lists the cached documents in name order.
func (s *Store) Documents(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, char_count, triplet_count, created_at
		FROM documents ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Name, &d.CharCount, &d.TripletCount, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ExportTriplets writes the cached triplet map as indented JSON, the same
// shape the extractor produced it in.
func (s *Store) ExportTriplets(ctx context.Context, w io.Writer) error {
	triplets, err := s.LoadTriplets(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(triplets)
}
