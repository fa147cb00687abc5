package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nikbrunner/shelf/internal/model"
)

const currentSchemaVersion = 2

// SQLiteCache keeps a copy of the last collection loaded from the store.
// It is read only when the store cannot be asked, e.g. `shelf ls --cached`.
type SQLiteCache struct {
	db   *sql.DB
	path string
}

// NewSQLiteCache opens or creates the cache database at path.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	c := &SQLiteCache{db: db, path: path}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache: %w", err)
	}

	return c, nil
}

// Path returns the database file path.
func (c *SQLiteCache) Path() string {
	return c.path
}

// Close closes the database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// SchemaVersion reports the schema version stored in the database.
func (c *SQLiteCache) SchemaVersion() (int, error) {
	var version int
	err := c.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	return version, err
}

func (c *SQLiteCache) migrate() error {
	version, err := c.SchemaVersion()
	if err != nil {
		// Table doesn't exist or is empty, start fresh
		version = 0
	}
	if version >= currentSchemaVersion {
		return nil
	}

	if version < 1 {
		if err := c.migrateV1(); err != nil {
			return err
		}
	}

	if version < 2 {
		if err := c.migrateV2(); err != nil {
			return err
		}
	}

	return nil
}

// migrateV1 creates the bookmarks table.
func (c *SQLiteCache) migrateV1() error {
	schema := `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS bookmarks (
			id TEXT PRIMARY KEY NOT NULL,
			url TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]',
			summary TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_bookmarks_order ON bookmarks(position, created_at);

		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := c.db.Exec(schema)
	return err
}

// migrateV2 adds snapshot metadata (owning account, sync time).
func (c *SQLiteCache) migrateV2() error {
	migration := `
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY NOT NULL,
			value TEXT NOT NULL
		);
		UPDATE schema_version SET version = 2;
	`
	_, err := c.db.Exec(migration)
	return err
}

// LoadSnapshot reads the cached collection in display order.
// An empty cache yields an empty store.
func (c *SQLiteCache) LoadSnapshot() (*model.Store, error) {
	store := model.NewStore()

	meta, err := c.loadMeta()
	if err != nil {
		return nil, err
	}
	store.Account = meta["account"]
	if synced, ok := meta["synced_at"]; ok {
		store.SyncedAt, _ = time.Parse(time.RFC3339, synced)
	}

	rows, err := c.db.Query(`
		SELECT id, url, title, tags, summary, position, created_at
		FROM bookmarks
		ORDER BY position, created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var b model.Bookmark
		var tagsJSON string

		if err := rows.Scan(&b.ID, &b.URL, &b.Title, &tagsJSON, &b.Summary, &b.Position, &b.CreatedAt); err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(tagsJSON), &b.Tags); err != nil || b.Tags == nil {
			b.Tags = []string{}
		}

		store.Bookmarks = append(store.Bookmarks, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return store, nil
}

// Account returns the account the cached collection belongs to, or "" when
// the cache is empty.
func (c *SQLiteCache) Account() (string, error) {
	var account string
	err := c.db.QueryRow("SELECT value FROM meta WHERE key = 'account'").Scan(&account)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return account, err
}

func (c *SQLiteCache) loadMeta() (map[string]string, error) {
	rows, err := c.db.Query("SELECT key, value FROM meta")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meta := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		meta[key] = value
	}
	return meta, rows.Err()
}

// SaveSnapshot replaces the cached collection with store.
// Uses a transaction for atomicity - all or nothing.
func (c *SQLiteCache) SaveSnapshot(store *model.Store) error {
	if store == nil {
		return errors.New("nil store")
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM bookmarks"); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO bookmarks (id, url, title, tags, summary, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range store.Bookmarks {
		tagsJSON, _ := json.Marshal(b.Tags)
		if b.Tags == nil {
			tagsJSON = []byte("[]")
		}

		if _, err := stmt.Exec(
			b.ID, b.URL, b.Title, string(tagsJSON), b.Summary, b.Position, b.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert bookmark %s: %w", b.ID, err)
		}
	}

	metaStmt, err := tx.Prepare("INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer metaStmt.Close()

	syncedAt := store.SyncedAt
	if syncedAt.IsZero() {
		syncedAt = time.Now()
	}
	meta := map[string]string{
		"account":   store.Account,
		"synced_at": syncedAt.UTC().Format(time.RFC3339),
	}
	for key, value := range meta {
		if _, err := metaStmt.Exec(key, value); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Clear drops the cached collection, e.g. on logout.
func (c *SQLiteCache) Clear() error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM bookmarks"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM meta"); err != nil {
		return err
	}
	return tx.Commit()
}
