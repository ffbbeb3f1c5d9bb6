package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const (
	currentSchemaVersion = 2
)

// Store represents the application's persistent state: local media items,
// playlists, the Discogs catalogue entities linked to them, and songs.
type Store struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path
func Open(path string) (*Store, error) {
	// Foreign keys are off by default in SQLite; the join tables rely on them
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection per invocation: all access is serialized
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

// New wraps an already opened database without running migrations.
// Used by tests that drive the store through a mock driver.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// SQLiteVersion returns the SQLite version string
func SQLiteVersion() string {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return ""
	}
	defer db.Close()

	var version string
	if err := db.QueryRow("SELECT sqlite_version()").Scan(&version); err != nil {
		return ""
	}
	return version
}

// CheckIntegrity runs PRAGMA integrity_check and PRAGMA foreign_key_check
func (s *Store) CheckIntegrity() error {
	var result string
	if err := s.db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	rows, err := s.db.Query("PRAGMA foreign_key_check")
	if err != nil {
		return fmt.Errorf("foreign key check query failed: %w", err)
	}
	defer rows.Close()

	violations := 0
	for rows.Next() {
		violations++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("foreign key check failed: %w", err)
	}
	if violations > 0 {
		return fmt.Errorf("foreign key check failed: %d violations", violations)
	}

	return nil
}

// migrate applies database migrations
func (s *Store) migrate() error {
	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}

	if version >= currentSchemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Schema v1 - items, playlists and the Discogs catalogue
	if version < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
		if err := s.setSchemaVersion(tx, 1); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	// Schema v2 - songs and song/item links
	if version < 2 {
		if _, err := tx.Exec(schemaV2); err != nil {
			return fmt.Errorf("failed to apply schema v2: %w", err)
		}
		if err := s.setSchemaVersion(tx, 2); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version
func (s *Store) getSchemaVersion() (int, error) {
	var exists int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, err
	}

	if exists == 0 {
		return 0, nil
	}

	var version int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion records a schema version in a transaction
func (s *Store) setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// Transaction executes a function within a transaction
func (s *Store) Transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Item is a downloaded video (or other asset) tracked by the local database
type Item struct {
	ID             string
	Title          string
	Description    string
	Uploader       string
	Duration       float64 // seconds
	UploadDate     string
	Width          int
	Height         int
	VideoFile      string
	Thumbnail      string
	Deleted        bool
	Downloaded     bool
	IsTune         bool
	CatalogTrackID int64 // 0 when not enriched
	LastUpdated    time.Time
}

// Playlist is a source playlist that items were imported from
type Playlist struct {
	ID          string
	Title       string
	Description string
	Enabled     bool
	LastUpdated time.Time
}

// Release is a Discogs release as stored locally
type Release struct {
	ID          int64
	Title       string
	Year        int
	Country     string
	Formats     []string
	Genres      []string
	Styles      []string
	URI         string
	LastUpdated time.Time
}

// Artist is a Discogs artist as stored locally
type Artist struct {
	ID          int64
	Name        string
	Profile     string
	URI         string
	LastUpdated time.Time
}

// ReleaseArtist is an artist credited on a release
type ReleaseArtist struct {
	Artist
	Role     string
	Position int
}

// Track is one recorded piece on a release
type Track struct {
	ID        int64
	ReleaseID int64
	Title     string
	Duration  string
	Position  string
	Type      string
}

// Song groups recordings of the same composition by artist and title
type Song struct {
	ID         int64
	ArtistName string
	Title      string
}

// VersionType describes how an item relates to its song
type VersionType string

const (
	VersionOriginal VersionType = "original"
	VersionLive     VersionType = "live"
	VersionCover    VersionType = "cover"
	VersionLesson   VersionType = "lesson"
	VersionOther    VersionType = "other"
)
