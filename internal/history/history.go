// Package history records downloaded media in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"
	_ "modernc.org/sqlite"

	"malpha/internal/config"
	"malpha/internal/media"
)

// ErrNotFound is returned by Remove when no entry has the given ID.
var ErrNotFound = errors.New("history entry not found")

const schema = `
CREATE TABLE IF NOT EXISTS downloads (
	id            TEXT NOT NULL,
	source_uri    TEXT NOT NULL,
	input_url     TEXT NOT NULL,
	platform      TEXT NOT NULL,
	kind          TEXT NOT NULL,
	author        TEXT NOT NULL,
	caption       TEXT NOT NULL,
	thumbnail_url TEXT NOT NULL,
	path          TEXT NOT NULL,
	downloaded_at INTEGER NOT NULL,
	PRIMARY KEY (id, source_uri)
);
CREATE INDEX IF NOT EXISTS downloads_downloaded_at ON downloads (downloaded_at);
`

// Store is a handle on the history database. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenDefault opens the database at config.HistoryPath.
func OpenDefault() (*Store, error) {
	path, err := config.HistoryPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save records an entry. Saving the same ID and source again updates the
// existing row.
func (s *Store) Save(ctx context.Context, e media.HistoryEntry) error {
	if e.ID == "" {
		return errors.New("history entry has no ID")
	}
	if e.DownloadedAt.IsZero() {
		e.DownloadedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO downloads (id, source_uri, input_url, platform, kind, author, caption, thumbnail_url, path, downloaded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id, source_uri) DO UPDATE SET
	path = excluded.path,
	downloaded_at = excluded.downloaded_at`,
		e.ID, e.SourceURI, e.InputURL, e.Platform, e.Kind.String(), e.Author, e.Caption,
		e.ThumbnailURL, e.Path, e.DownloadedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}

// Load returns all entries, most recent first.
func (s *Store) Load(ctx context.Context) ([]media.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, source_uri, input_url, platform, kind, author, caption, thumbnail_url, path, downloaded_at
FROM downloads ORDER BY downloaded_at DESC, id, source_uri`)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	defer rows.Close()

	var entries []media.HistoryEntry
	for rows.Next() {
		var (
			e    media.HistoryEntry
			kind string
			at   int64
		)
		if err := rows.Scan(&e.ID, &e.SourceURI, &e.InputURL, &e.Platform, &kind, &e.Author,
			&e.Caption, &e.ThumbnailURL, &e.Path, &at); err != nil {
			return nil, fmt.Errorf("reading history: %w", err)
		}
		e.Kind = media.ParseKind(kind)
		e.DownloadedAt = time.UnixMilli(at)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}

// Remove deletes every entry recorded for a descriptor ID.
func (s *Store) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM downloads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("removing history entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Clear deletes all entries.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM downloads`); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// FormatForDisplay creates one display line per entry.
func FormatForDisplay(entries []media.HistoryEntry) []string {
	return lo.Map(entries, func(e media.HistoryEntry, _ int) string {
		caption := e.Caption
		if r := []rune(caption); len(r) > 40 {
			caption = string(r[:39]) + "…"
		}
		return fmt.Sprintf("%s  %-9s %-6s %s · %s  %s",
			e.DownloadedAt.Local().Format("2006-01-02 15:04"), e.Platform, e.Kind, e.Author, caption, e.ID)
	})
}
