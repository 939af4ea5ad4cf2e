package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"lemmy-automod/models"

	"github.com/mattn/go-sqlite3"
)

// ErrDuplicateRule is matched (via errors.Is) by a StorageError caused by a
// rule that collides with an existing primary key.
var ErrDuplicateRule = errors.New("rule already exists")

// StorageError wraps any failure of the underlying database.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique) {
		err = fmt.Errorf("%w: %v", ErrDuplicateRule, err)
	}
	return &StorageError{Op: op, Err: err}
}

// Store is the automod rule store.
type Store struct {
	db *sql.DB
}

// InitDB opens (creating if needed) the SQLite database at dbPath and makes
// sure every automod table exists.
func InitDB(dbPath string) (*Store, error) {
	// Ensure the directory for the database file exists.
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	log.Println("Successfully connected to the database at", dbPath)
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return storageErr("ping", s.db.PingContext(ctx))
}

var tableQueries = []string{`
    CREATE TABLE IF NOT EXISTS automod_community (
        id              INTEGER PRIMARY KEY,
        name            TEXT NOT NULL,
        community_id    INTEGER NOT NULL
    );`, `
    CREATE TABLE IF NOT EXISTS automod_post (
        field               TEXT NOT NULL,
        match               TEXT NOT NULL,
        type                TEXT NOT NULL,
        community_id        INTEGER NOT NULL,
        whitelist_exempt    INTEGER NOT NULL,
        mod_exempt          INTEGER NOT NULL,
        message             TEXT,
        reason              TEXT,
        PRIMARY KEY(field, match, community_id),
        FOREIGN KEY(community_id) REFERENCES automod_community(id)
    );`, `
    CREATE TABLE IF NOT EXISTS automod_comment (
        match               TEXT NOT NULL,
        type                TEXT NOT NULL,
        community_id        INTEGER NOT NULL,
        whitelist_exempt    INTEGER NOT NULL,
        mod_exempt          INTEGER NOT NULL,
        message             TEXT,
        reason              TEXT,
        PRIMARY KEY(match, type, community_id),
        FOREIGN KEY(community_id) REFERENCES automod_community(id)
    );`, `
    CREATE TABLE IF NOT EXISTS automod_mention (
        command         TEXT NOT NULL,
        action          TEXT NOT NULL,
        community_id    INTEGER NOT NULL,
        message         TEXT,
        PRIMARY KEY(command, action, community_id),
        FOREIGN KEY(community_id) REFERENCES automod_community(id)
    );`, `
    CREATE TABLE IF NOT EXISTS automod_exception (
        user_actor_id   TEXT NOT NULL,
        community_id    INTEGER NOT NULL,
        PRIMARY KEY(user_actor_id, community_id),
        FOREIGN KEY(community_id) REFERENCES automod_community(id)
    );`, `
    CREATE TABLE IF NOT EXISTS automod_processed (
        kind            TEXT NOT NULL,
        event_id        INTEGER NOT NULL,
        processed_at    INTEGER NOT NULL,
        PRIMARY KEY(kind, event_id)
    );`, `
    CREATE TABLE IF NOT EXISTS automod_high_water (
        kind            TEXT PRIMARY KEY,
        event_id        INTEGER NOT NULL
    );`,
}

// createTables runs the table creation queries; it is safe on every start.
func createTables(db *sql.DB) error {
	for _, query := range tableQueries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute table creation query: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_community_name ON automod_community(name, community_id);",
		"CREATE INDEX IF NOT EXISTS idx_post_community ON automod_post(community_id);",
		"CREATE INDEX IF NOT EXISTS idx_comment_community ON automod_comment(community_id);",
		"CREATE INDEX IF NOT EXISTS idx_mention_community ON automod_mention(community_id);",
		"CREATE INDEX IF NOT EXISTS idx_processed_at ON automod_processed(processed_at);",
	}
	for _, indexQuery := range indexes {
		if _, err := db.Exec(indexQuery); err != nil {
			log.Printf("Warning: failed to create index: %v", err)
		}
	}
	return nil
}

// GetCommunity returns the internal id for a community name and platform id.
func (s *Store) GetCommunity(ctx context.Context, name string, platformID int64) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM automod_community WHERE name = ? AND community_id = ? ORDER BY id LIMIT 1`,
		name, platformID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storageErr("get community", err)
	}
	return id, true, nil
}

// AddCommunity inserts a new community. It does not check for an existing
// row; callers look the community up first.
func (s *Store) AddCommunity(ctx context.Context, name string, platformID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO automod_community (name, community_id) VALUES (?, ?)`, name, platformID)
	if err != nil {
		return 0, storageErr("add community", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("add community", err)
	}
	return id, nil
}

// ListCommunities returns every stored community whose name starts with
// prefix, ordered by name.
func (s *Store) ListCommunities(ctx context.Context, prefix string) ([]models.Community, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, community_id FROM automod_community WHERE name LIKE ? || '%' ORDER BY name, id`,
		prefix)
	if err != nil {
		return nil, storageErr("list communities", err)
	}
	defer rows.Close()

	var communities []models.Community
	for rows.Next() {
		var c models.Community
		if err := rows.Scan(&c.ID, &c.Name, &c.PlatformID); err != nil {
			return nil, storageErr("list communities", err)
		}
		communities = append(communities, c)
	}
	return communities, storageErr("list communities", rows.Err())
}
