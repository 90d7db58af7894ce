// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session keeps the current aggregation pass's results and
// selection flags in an in-memory SQLite database. The store lives for the
// process only: a new query replaces its contents wholesale, so stale
// selections can never leak into the next enrichment pass.
package session

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/trendsift/pkg/types"
)

// Store holds one pass's items and selection state.
type Store struct {
	db *sql.DB
}

// Open creates the in-memory database and its schema. A single connection
// is used: SQLite gives each :memory: connection its own database.
func Open() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS items (
			id             TEXT PRIMARY KEY,
			provider       TEXT NOT NULL,
			title          TEXT NOT NULL,
			url            TEXT NOT NULL,
			snippet        TEXT NOT NULL,
			published      DATETIME,
			position       INTEGER NOT NULL,
			ord            INTEGER NOT NULL,
			raw            TEXT NOT NULL DEFAULT '',
			selected       INTEGER NOT NULL DEFAULT 0,
			enrich_status  TEXT,
			enrich_text    TEXT NOT NULL DEFAULT '',
			enrich_summary TEXT NOT NULL DEFAULT '',
			enrich_reason  TEXT NOT NULL DEFAULT '',
			enriched_at    DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_items_selected ON items(selected);
	`)
	if err != nil {
		return fmt.Errorf("initializing session schema: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Replace discards the previous pass's items and selections and stores the
// new pass's items in aggregation order.
func (s *Store) Replace(items []types.ResultItem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM items"); err != nil {
		return fmt.Errorf("clearing previous pass: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO items (id, provider, title, url, snippet, published, position, ord, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for ord, item := range items {
		var published any
		if item.Published != nil {
			published = item.Published.UTC()
		}
		_, err := stmt.Exec(item.ID, string(item.Provider), item.Title, item.URL,
			item.Snippet, published, item.Position, ord, string(item.Raw))
		if err != nil {
			return fmt.Errorf("storing item %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// Mark sets or clears the selection flag for one item.
func (s *Store) Mark(id string, selected bool) error {
	res, err := s.db.Exec("UPDATE items SET selected = ? WHERE id = ?", boolInt(selected), id)
	if err != nil {
		return fmt.Errorf("marking item %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no item with id %q in the current pass", id)
	}
	return nil
}

// Reset clears every selection flag without touching the items.
func (s *Store) Reset() error {
	_, err := s.db.Exec("UPDATE items SET selected = 0")
	return err
}

// SelectedIDs returns the IDs of selected items in aggregation order.
func (s *Store) SelectedIDs() ([]string, error) {
	rows, err := s.db.Query("SELECT id FROM items WHERE selected = 1 ORDER BY ord")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Selected returns the selected items in aggregation order.
func (s *Store) Selected() ([]types.ResultItem, error) {
	return s.query("SELECT " + itemColumns + " FROM items WHERE selected = 1 ORDER BY ord")
}

// All returns every item of the current pass in aggregation order.
func (s *Store) All() ([]types.ResultItem, error) {
	return s.query("SELECT " + itemColumns + " FROM items ORDER BY ord")
}

// AttachEnrichment records the enrichment outcome for one item.
func (s *Store) AttachEnrichment(id string, ec types.EnrichedContent) error {
	res, err := s.db.Exec(`
		UPDATE items
		SET enrich_status = ?, enrich_text = ?, enrich_summary = ?, enrich_reason = ?, enriched_at = ?
		WHERE id = ?
	`, string(ec.Status), ec.FullText, ec.Summary, ec.FailReason, ec.FetchedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("attaching enrichment to %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no item with id %q in the current pass", id)
	}
	return nil
}

const itemColumns = `id, provider, title, url, snippet, published, position, raw,
	enrich_status, enrich_text, enrich_summary, enrich_reason, enriched_at`

func (s *Store) query(q string) ([]types.ResultItem, error) {
	rows, err := s.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("querying session items: %w", err)
	}
	defer rows.Close()

	var items []types.ResultItem
	for rows.Next() {
		var (
			item          types.ResultItem
			provider      string
			published     sql.NullTime
			raw           string
			enrichStatus  sql.NullString
			enrichText    string
			enrichSummary string
			enrichReason  string
			enrichedAt    sql.NullTime
		)
		err := rows.Scan(&item.ID, &provider, &item.Title, &item.URL, &item.Snippet,
			&published, &item.Position, &raw,
			&enrichStatus, &enrichText, &enrichSummary, &enrichReason, &enrichedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning session item: %w", err)
		}
		item.Provider = types.ProviderKind(provider)
		if published.Valid {
			t := published.Time
			item.Published = &t
		}
		if raw != "" {
			item.Raw = json.RawMessage(raw)
		}
		if enrichStatus.Valid {
			item.Enrichment = &types.EnrichedContent{
				FullText:   enrichText,
				Summary:    enrichSummary,
				FailReason: enrichReason,
				Status:     types.EnrichmentStatus(enrichStatus.String),
			}
			if enrichedAt.Valid {
				item.Enrichment.FetchedAt = enrichedAt.Time
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
