package gen

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/replenix/replenix/errors"
	"github.com/replenix/replenix/pipeline"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS supplier_history (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	supplier   TEXT NOT NULL,
	item_code  TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_supplier_history_supplier ON supplier_history(supplier);
`

// DefaultMaxSnippets caps how many history entries one retrieval returns.
const DefaultMaxSnippets = 5

// HistoryStore serves historical supplier context from SQLite. Retrieval
// is best-effort keyword lookup; no vector index.
type HistoryStore struct {
	db          *sql.DB
	maxSnippets int
}

// OpenHistoryStore opens (creating if needed) the history database at
// path. maxSnippets <= 0 uses the default cap.
func OpenHistoryStore(path string, maxSnippets int) (*HistoryStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open history database")
	}
	store, err := NewHistoryStore(db, maxSnippets)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewHistoryStore wraps an existing database handle and applies the
// schema. The store takes ownership of db.
func NewHistoryStore(db *sql.DB, maxSnippets int) (*HistoryStore, error) {
	if _, err := db.Exec(historySchema); err != nil {
		return nil, errors.Wrap(err, "failed to apply history schema")
	}
	if maxSnippets <= 0 {
		maxSnippets = DefaultMaxSnippets
	}
	return &HistoryStore{db: db, maxSnippets: maxSnippets}, nil
}

// AddSnippet records one history entry for a supplier. itemCode may be
// empty for supplier-wide context.
func (h *HistoryStore) AddSnippet(ctx context.Context, supplier, itemCode, source, content string) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO supplier_history (supplier, item_code, source, content) VALUES (?, ?, ?, ?)`,
		supplier, itemCode, source, content)
	if err != nil {
		return errors.Wrapf(err, "failed to add history snippet for %s", supplier)
	}
	return nil
}

// RetrieveContext implements pipeline.Retriever: newest entries for the
// supplier, restricted to the given item codes plus supplier-wide
// entries. An empty result is not an error.
func (h *HistoryStore) RetrieveContext(ctx context.Context, supplier string, itemCodes []string) ([]pipeline.Snippet, error) {
	query := `SELECT source, content FROM supplier_history WHERE supplier = ?`
	args := []interface{}{supplier}

	if len(itemCodes) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(itemCodes)), ", ")
		query += ` AND (item_code = '' OR item_code IN (` + placeholders + `))`
		for _, code := range itemCodes {
			args = append(args, code)
		}
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, h.maxSnippets)

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query history for %s", supplier)
	}
	defer rows.Close()

	var snippets []pipeline.Snippet
	for rows.Next() {
		var s pipeline.Snippet
		if err := rows.Scan(&s.Source, &s.Content); err != nil {
			return nil, errors.Wrap(err, "failed to scan history row")
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate history rows")
	}
	return snippets, nil
}

// Close releases the underlying database handle.
func (h *HistoryStore) Close() error {
	return h.db.Close()
}
