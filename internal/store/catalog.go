package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/franz/yarkie/internal/util"
)

// UpsertRelease inserts a release or updates it in place when the Discogs id already exists
func (s *Store) UpsertRelease(r *Release) error {
	formats, err := encodeList(r.Formats)
	if err != nil {
		return err
	}
	genres, err := encodeList(r.Genres)
	if err != nil {
		return err
	}
	styles, err := encodeList(r.Styles)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO releases (id, title, year, country, formats, genres, styles, uri)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			year = excluded.year,
			country = excluded.country,
			formats = excluded.formats,
			genres = excluded.genres,
			styles = excluded.styles,
			uri = excluded.uri,
			last_updated = CURRENT_TIMESTAMP
	`, r.ID, r.Title, r.Year, r.Country, formats, genres, styles, r.URI)

	if err != nil {
		return fmt.Errorf("failed to upsert release %d: %w", r.ID, err)
	}

	return nil
}

// GetRelease retrieves a release by Discogs id
func (s *Store) GetRelease(id int64) (*Release, error) {
	r := &Release{}
	var formats, genres, styles string
	err := s.db.QueryRow(`
		SELECT id, title, COALESCE(year, 0), COALESCE(country, ''),
		       COALESCE(formats, ''), COALESCE(genres, ''), COALESCE(styles, ''),
		       COALESCE(uri, ''), last_updated
		FROM releases WHERE id = ?
	`, id).Scan(
		&r.ID, &r.Title, &r.Year, &r.Country,
		&formats, &genres, &styles,
		&r.URI, &r.LastUpdated,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get release: %w", err)
	}

	if r.Formats, err = decodeList(formats); err != nil {
		return nil, err
	}
	if r.Genres, err = decodeList(genres); err != nil {
		return nil, err
	}
	if r.Styles, err = decodeList(styles); err != nil {
		return nil, err
	}

	return r, nil
}

// UpsertArtist inserts or updates an artist and links it to a release.
// Re-linking an artist to the same release replaces its role and position.
func (s *Store) UpsertArtist(a *Artist, releaseID int64, role string, position int) error {
	_, err := s.db.Exec(`
		INSERT INTO artists (id, name, profile, uri)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			profile = excluded.profile,
			uri = excluded.uri,
			last_updated = CURRENT_TIMESTAMP
	`, a.ID, a.Name, a.Profile, a.URI)

	if err != nil {
		return fmt.Errorf("failed to upsert artist %d: %w", a.ID, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO release_artists (release_id, artist_id, role, position)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(release_id, artist_id) DO UPDATE SET
			role = excluded.role,
			position = excluded.position
	`, releaseID, a.ID, role, position)

	if err != nil {
		return fmt.Errorf("failed to link artist %d to release %d: %w", a.ID, releaseID, err)
	}

	return nil
}

// GetArtist retrieves an artist by Discogs id
func (s *Store) GetArtist(id int64) (*Artist, error) {
	a := &Artist{}
	err := s.db.QueryRow(`
		SELECT id, name, COALESCE(profile, ''), COALESCE(uri, ''), last_updated
		FROM artists WHERE id = ?
	`, id).Scan(&a.ID, &a.Name, &a.Profile, &a.URI, &a.LastUpdated)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artist: %w", err)
	}

	return a, nil
}

// GetReleaseArtists returns the artists linked to a release in credit order
func (s *Store) GetReleaseArtists(releaseID int64) ([]*ReleaseArtist, error) {
	rows, err := s.db.Query(`
		SELECT a.id, a.name, COALESCE(a.profile, ''), COALESCE(a.uri, ''), a.last_updated,
		       COALESCE(ra.role, ''), COALESCE(ra.position, 0)
		FROM release_artists ra
		JOIN artists a ON a.id = ra.artist_id
		WHERE ra.release_id = ?
		ORDER BY ra.position, a.id
	`, releaseID)

	if err != nil {
		return nil, fmt.Errorf("failed to query release artists: %w", err)
	}
	defer rows.Close()

	var artists []*ReleaseArtist
	for rows.Next() {
		ra := &ReleaseArtist{}
		if err := rows.Scan(
			&ra.ID, &ra.Name, &ra.Profile, &ra.URI, &ra.LastUpdated,
			&ra.Role, &ra.Position,
		); err != nil {
			return nil, fmt.Errorf("failed to scan release artist: %w", err)
		}
		artists = append(artists, ra)
	}

	return artists, rows.Err()
}

// UpsertTrack inserts or updates a track keyed by (release_id, title) and
// links it to the item. Returns the track id. A missing item yields
// util.ErrNotFound after the track row has been written.
func (s *Store) UpsertTrack(t *Track, itemID string) (int64, error) {
	_, err := s.db.Exec(`
		INSERT INTO tracks (release_id, title, duration, position, type)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(release_id, title) DO UPDATE SET
			duration = excluded.duration,
			position = excluded.position,
			type = excluded.type
	`, t.ReleaseID, t.Title, t.Duration, t.Position, t.Type)

	if err != nil {
		return 0, fmt.Errorf("failed to upsert track: %w", err)
	}

	// last_insert_rowid is not updated by the DO UPDATE branch
	var trackID int64
	err = s.db.QueryRow(
		"SELECT id FROM tracks WHERE release_id = ? AND title = ?",
		t.ReleaseID, t.Title,
	).Scan(&trackID)
	if err != nil {
		return 0, fmt.Errorf("failed to get track ID: %w", err)
	}
	t.ID = trackID

	result, err := s.db.Exec(`
		UPDATE items SET catalog_track_id = ?, last_updated = CURRENT_TIMESTAMP
		WHERE id = ?
	`, trackID, itemID)
	if err != nil {
		return 0, fmt.Errorf("failed to link track to item %s: %w", itemID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to link track to item %s: %w", itemID, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("item %s: %w", itemID, util.ErrNotFound)
	}

	return trackID, nil
}

// GetTrack retrieves a track by its local id
func (s *Store) GetTrack(id int64) (*Track, error) {
	t := &Track{}
	err := s.db.QueryRow(`
		SELECT id, release_id, title, COALESCE(duration, ''), COALESCE(position, ''), COALESCE(type, '')
		FROM tracks WHERE id = ?
	`, id).Scan(&t.ID, &t.ReleaseID, &t.Title, &t.Duration, &t.Position, &t.Type)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}

	return t, nil
}

// CatalogCounts summarizes table sizes for doctor and batch summaries
type CatalogCounts struct {
	Items      int
	Unenriched int
	Releases   int
	Artists    int
	Tracks     int
	Songs      int
	Playlists  int
}

// GetCatalogCounts counts rows in the main tables
func (s *Store) GetCatalogCounts() (*CatalogCounts, error) {
	c := &CatalogCounts{}
	err := s.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM items),
			(SELECT COUNT(*) FROM items WHERE catalog_track_id IS NULL AND is_tune = 1 AND deleted = 0),
			(SELECT COUNT(*) FROM releases),
			(SELECT COUNT(*) FROM artists),
			(SELECT COUNT(*) FROM tracks),
			(SELECT COUNT(*) FROM songs),
			(SELECT COUNT(*) FROM playlists)
	`).Scan(&c.Items, &c.Unenriched, &c.Releases, &c.Artists, &c.Tracks, &c.Songs, &c.Playlists)

	if err != nil {
		return nil, fmt.Errorf("failed to count catalog: %w", err)
	}

	return c, nil
}

func encodeList(values []string) (string, error) {
	if len(values) == 0 {
		return "", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(data), nil
}

func decodeList(data string) ([]string, error) {
	if data == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	return values, nil
}
