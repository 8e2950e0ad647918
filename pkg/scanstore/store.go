package scanstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/platewise/menulens/pkg/match"
	"github.com/platewise/menulens/pkg/pipeline"
)

// Store persists resolved menu scans in SQLite. The pipeline itself never
// touches it; callers decide whether a scan is worth keeping.
type Store struct {
	db *sql.DB
}

// ScanSummary is the list view of a stored scan.
type ScanSummary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	TokenCount   int       `json:"token_count"`
	MatchedCount int       `json:"matched_count"`
}

// ItemRecord is one collapsed menu item as stored. ImageURL and
// TranslatedName start empty and are filled in by external enrichment
// collaborators via SetEnrichment.
type ItemRecord struct {
	EntityID       string  `json:"entity_id"`
	MatchedVariant string  `json:"matched_variant"`
	MatchedLang    string  `json:"matched_lang"`
	Score          float64 `json:"score"`
	Count          int     `json:"count"`
	Positions      []int   `json:"positions"`
	PriceText      string  `json:"price_text,omitempty"`
	ImageURL       string  `json:"image_url,omitempty"`
	TranslatedName string  `json:"translated_name,omitempty"`
}

// ScanRecord is a stored scan with its items and original tokens.
type ScanRecord struct {
	ScanSummary
	Tokens []match.RawToken `json:"tokens"`
	Items  []ItemRecord     `json:"items"`
}

// Open opens (or creates) the SQLite database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open scan db: %w", err)
	}

	const ddl = `
	CREATE TABLE IF NOT EXISTS scans (
		id            TEXT PRIMARY KEY,
		created_at    TEXT NOT NULL,
		token_count   INTEGER NOT NULL,
		matched_count INTEGER NOT NULL,
		tokens        TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS scan_items (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id         TEXT NOT NULL,
		entity_id       TEXT NOT NULL,
		matched_variant TEXT NOT NULL,
		matched_lang    TEXT NOT NULL,
		score           REAL NOT NULL,
		item_count      INTEGER NOT NULL,
		positions       TEXT NOT NULL,
		price_text      TEXT NOT NULL DEFAULT '',
		image_url       TEXT NOT NULL DEFAULT '',
		translated_name TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (scan_id) REFERENCES scans(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);
	CREATE INDEX IF NOT EXISTS idx_scan_items_scan_id ON scan_items(scan_id);
	CREATE INDEX IF NOT EXISTS idx_scan_items_entity_id ON scan_items(entity_id);`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create scan schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveScan stores a resolved scan and its collapsed items in one transaction.
func (s *Store) SaveScan(scan *pipeline.MenuScanResult) error {
	tokens, err := json.Marshal(scan.Tokens)
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO scans (id, created_at, token_count, matched_count, tokens) VALUES (?, ?, ?, ?, ?)`,
		scan.ID, scan.CreatedAt.Format(time.RFC3339Nano), len(scan.Tokens), scan.MatchedCount(), string(tokens),
	)
	if err != nil {
		return fmt.Errorf("insert scan %s: %w", scan.ID, err)
	}

	const itemQ = `INSERT INTO scan_items
		(scan_id, entity_id, matched_variant, matched_lang, score, item_count, positions, price_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, item := range scan.Items {
		_, err = tx.Exec(itemQ,
			scan.ID, item.Entity.ID, item.MatchedVariant, item.MatchedLang,
			item.Score, item.Count, encodePositions(item.Positions), item.PriceText)
		if err != nil {
			return fmt.Errorf("insert item %s: %w", item.Entity.ID, err)
		}
	}
	return tx.Commit()
}

// GetScan returns one stored scan with its items, or (nil, nil) when the ID
// is unknown.
func (s *Store) GetScan(id string) (*ScanRecord, error) {
	var rec ScanRecord
	var createdAt, tokens string
	err := s.db.QueryRow(
		`SELECT id, created_at, token_count, matched_count, tokens FROM scans WHERE id = ?`, id,
	).Scan(&rec.ID, &createdAt, &rec.TokenCount, &rec.MatchedCount, &tokens)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scan %s: %w", id, err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("scan %s: bad created_at: %w", id, err)
	}
	if err := json.Unmarshal([]byte(tokens), &rec.Tokens); err != nil {
		return nil, fmt.Errorf("scan %s: decode tokens: %w", id, err)
	}

	rows, err := s.db.Query(
		`SELECT entity_id, matched_variant, matched_lang, score, item_count, positions, price_text, image_url, translated_name
		FROM scan_items WHERE scan_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list items of %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item ItemRecord
		var positions string
		if err := rows.Scan(&item.EntityID, &item.MatchedVariant, &item.MatchedLang,
			&item.Score, &item.Count, &positions, &item.PriceText, &item.ImageURL, &item.TranslatedName); err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		if item.Positions, err = decodePositions(positions); err != nil {
			return nil, fmt.Errorf("scan %s: %w", id, err)
		}
		rec.Items = append(rec.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListScans returns stored scan summaries, newest first.
func (s *Store) ListScans(limit, offset int) ([]ScanSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, created_at, token_count, matched_count FROM scans
		ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var out []ScanSummary
	for rows.Next() {
		var sum ScanSummary
		var createdAt string
		if err := rows.Scan(&sum.ID, &createdAt, &sum.TokenCount, &sum.MatchedCount); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if sum.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("scan %s: bad created_at: %w", sum.ID, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// DeleteScan removes a scan and its items. Returns false when the ID is
// unknown.
func (s *Store) DeleteScan(id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM scans WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete scan %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SetEnrichment records the output of external enrichment collaborators
// (image search, translation) for one resolved item of a stored scan.
func (s *Store) SetEnrichment(scanID, entityID, imageURL, translatedName string) error {
	res, err := s.db.Exec(
		`UPDATE scan_items SET image_url = ?, translated_name = ? WHERE scan_id = ? AND entity_id = ?`,
		imageURL, translatedName, scanID, entityID)
	if err != nil {
		return fmt.Errorf("enrich %s/%s: %w", scanID, entityID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no item %s in scan %s", entityID, scanID)
	}
	return nil
}

func encodePositions(positions []int) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

func decodePositions(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("bad positions %q: %w", s, err)
		}
		out[i] = n
	}
	return out, nil
}
