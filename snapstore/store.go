// Package snapstore is a reference snapshot store for sketchpad: an HTTP
// server that persists canvas deltas in SQLite or PostgreSQL and keeps
// uploaded images on disk.
package snapstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/phanxgames/sketchpad"
)

// Element kinds as stored in the kind column.
const (
	kindLine  = "line"
	kindImage = "image"
	kindText  = "text"
)

// Store persists canvas elements as one JSON body per element id.
type Store struct {
	db     *sql.DB
	driver string
}

// sqlitePragmas are applied by modernc.org/sqlite on every new connection.
const sqlitePragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// Open connects to dsn. PostgreSQL is selected for postgres:// URLs and
// key=value DSNs containing host=; anything else is a SQLite file path,
// created along with its directory if missing.
func Open(dsn string) (*Store, error) {
	driver := driverFor(dsn)
	if driver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn += sqlitePragmas
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// single writer
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func driverFor(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres"
	case strings.Contains(dsn, "host="):
		return "postgres"
	default:
		return "sqlite"
	}
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string { return s.driver }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS elements (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			seq BIGINT NOT NULL,
			body TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_elements_seq ON elements(seq)`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(q string) string {
	if s.driver != "postgres" {
		return q
	}
	return rebindDollar(q)
}

func rebindDollar(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveResult counts what a save applied.
type SaveResult struct {
	Upserted int `json:"upserted"`
	Deleted  int `json:"deleted"`
}

// change is one pending row operation.
type change struct {
	kind string
	id   string
	body any // nil for deletes
}

// changesOf flattens a payload into row operations. Clients that send only
// the combined lists are read by each record's status field.
func changesOf(p *sketchpad.SavePayload) []change {
	var out []change
	if !p.Delta.Empty() {
		out = appendBucket(out, kindLine, p.Delta.Lines, func(r sketchpad.LineRecord) string { return r.ID })
		out = appendBucket(out, kindImage, p.Delta.Images, func(r sketchpad.ImageRecord) string { return r.ID })
		out = appendBucket(out, kindText, p.Delta.TextBoxes, func(r sketchpad.TextRecord) string { return r.ID })
		return out
	}
	for _, r := range p.Lines {
		out = appendLegacy(out, kindLine, r.ID, r.Status, r)
	}
	for _, r := range p.Images {
		out = appendLegacy(out, kindImage, r.ID, r.Status, r)
	}
	for _, r := range p.TextBoxes {
		out = appendLegacy(out, kindText, r.ID, r.Status, r)
	}
	return out
}

func appendBucket[R any](out []change, kind string, b sketchpad.Bucket[R], idOf func(R) string) []change {
	for _, r := range b.New {
		out = append(out, change{kind: kind, id: idOf(r), body: r})
	}
	for _, r := range b.Modified {
		out = append(out, change{kind: kind, id: idOf(r), body: r})
	}
	for _, id := range b.Deleted {
		out = append(out, change{kind: kind, id: id})
	}
	return out
}

func appendLegacy(out []change, kind, id, status string, rec any) []change {
	switch status {
	case "new", "modified":
		return append(out, change{kind: kind, id: id, body: rec})
	case "deleted":
		return append(out, change{kind: kind, id: id})
	}
	return out
}

// Save applies p in one transaction: new and modified records are
// upserted, tombstone ids deleted, unchanged records ignored. Saving the
// same payload twice leaves the same state.
func (s *Store) Save(ctx context.Context, p *sketchpad.SavePayload) (SaveResult, error) {
	var res SaveResult
	changes := changesOf(p)
	if len(changes) == 0 {
		return res, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM elements`).Scan(&seq); err != nil {
		return res, fmt.Errorf("read sequence: %w", err)
	}

	upsert := s.rebind(`INSERT INTO elements (id, kind, seq, body) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET body = excluded.body`)
	del := s.rebind(`DELETE FROM elements WHERE id = ? AND kind = ?`)

	for _, c := range changes {
		if c.id == "" {
			continue
		}
		if c.body == nil {
			r, err := tx.ExecContext(ctx, del, c.id, c.kind)
			if err != nil {
				return res, fmt.Errorf("delete %s %s: %w", c.kind, c.id, err)
			}
			if n, _ := r.RowsAffected(); n > 0 {
				res.Deleted++
			}
			continue
		}
		body, err := json.Marshal(stripStatus(c.body))
		if err != nil {
			return res, fmt.Errorf("encode %s %s: %w", c.kind, c.id, err)
		}
		seq++
		if _, err := tx.ExecContext(ctx, upsert, c.id, c.kind, seq, string(body)); err != nil {
			return res, fmt.Errorf("upsert %s %s: %w", c.kind, c.id, err)
		}
		res.Upserted++
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit save: %w", err)
	}
	return res, nil
}

// stripStatus clears the lifecycle tag; stored records are always
// unchanged from the client's point of view.
func stripStatus(rec any) any {
	switch r := rec.(type) {
	case sketchpad.LineRecord:
		r.Status = ""
		return r
	case sketchpad.ImageRecord:
		r.Status = ""
		return r
	case sketchpad.TextRecord:
		r.Status = ""
		return r
	}
	return rec
}

// Load returns every stored element in first-insertion order. The arrays
// are never nil.
func (s *Store) Load(ctx context.Context) (*sketchpad.Snapshot, error) {
	snap := &sketchpad.Snapshot{
		Lines:     []sketchpad.LineRecord{},
		Images:    []sketchpad.ImageRecord{},
		TextBoxes: []sketchpad.TextRecord{},
	}
	rows, err := s.db.QueryContext(ctx, `SELECT kind, body FROM elements ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query elements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, body string
		if err := rows.Scan(&kind, &body); err != nil {
			return nil, fmt.Errorf("scan element: %w", err)
		}
		var derr error
		switch kind {
		case kindLine:
			var r sketchpad.LineRecord
			if derr = json.Unmarshal([]byte(body), &r); derr == nil {
				snap.Lines = append(snap.Lines, r)
			}
		case kindImage:
			var r sketchpad.ImageRecord
			if derr = json.Unmarshal([]byte(body), &r); derr == nil {
				snap.Images = append(snap.Images, r)
			}
		case kindText:
			var r sketchpad.TextRecord
			if derr = json.Unmarshal([]byte(body), &r); derr == nil {
				snap.TextBoxes = append(snap.TextBoxes, r)
			}
		}
		if derr != nil {
			sketchpad.Logger().Warn("skipping unreadable element", "kind", kind, "error", derr)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read elements: %w", err)
	}
	return snap, nil
}

// Count returns the number of stored elements.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM elements`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count elements: %w", err)
	}
	return n, nil
}
