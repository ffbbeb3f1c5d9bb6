package store

import (
	"database/sql"
	"fmt"
)

// UpsertSong returns the id of the song with the given artist and title,
// creating it when missing
func (s *Store) UpsertSong(artistName, title string) (int64, error) {
	_, err := s.db.Exec(`
		INSERT INTO songs (artist_name, title) VALUES (?, ?)
		ON CONFLICT(artist_name, title) DO NOTHING
	`, artistName, title)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert song: %w", err)
	}

	var id int64
	err = s.db.QueryRow(
		"SELECT id FROM songs WHERE artist_name = ? AND title = ?",
		artistName, title,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to get song ID: %w", err)
	}

	return id, nil
}

// LinkSongItem makes songID the song of the item. Links from the item to any
// other song are dropped, so re-enrichment replaces rather than accumulates.
func (s *Store) LinkSongItem(songID int64, itemID string, versionType VersionType) error {
	if versionType == "" {
		versionType = VersionOriginal
	}

	return s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			"DELETE FROM song_items WHERE item_id = ? AND song_id != ?",
			itemID, songID,
		); err != nil {
			return fmt.Errorf("failed to clear song links: %w", err)
		}

		_, err := tx.Exec(`
			INSERT INTO song_items (song_id, item_id, version_type) VALUES (?, ?, ?)
			ON CONFLICT(song_id, item_id) DO UPDATE SET version_type = excluded.version_type
		`, songID, itemID, string(versionType))
		if err != nil {
			return fmt.Errorf("failed to link song %d to item %s: %w", songID, itemID, err)
		}
		return nil
	})
}

// ClearItemSongs drops every song link of the item
func (s *Store) ClearItemSongs(itemID string) error {
	if _, err := s.db.Exec("DELETE FROM song_items WHERE item_id = ?", itemID); err != nil {
		return fmt.Errorf("failed to clear song links of item %s: %w", itemID, err)
	}
	return nil
}

// SongLink is a song together with how one item relates to it
type SongLink struct {
	Song
	VersionType VersionType
}

// GetItemSongs returns the songs linked to an item
func (s *Store) GetItemSongs(itemID string) ([]*SongLink, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.artist_name, s.title, si.version_type
		FROM song_items si
		JOIN songs s ON s.id = si.song_id
		WHERE si.item_id = ?
		ORDER BY s.id
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query item songs: %w", err)
	}
	defer rows.Close()

	var links []*SongLink
	for rows.Next() {
		l := &SongLink{}
		var vt string
		if err := rows.Scan(&l.ID, &l.ArtistName, &l.Title, &vt); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		l.VersionType = VersionType(vt)
		links = append(links, l)
	}

	return links, rows.Err()
}

// Enrichment is everything the catalogue knows about one item
type Enrichment struct {
	Item    *Item
	Track   *Track
	Release *Release
	Artists []*ReleaseArtist
	Songs   []*SongLink
}

// GetEnrichment resolves an item's track, release, artists and songs.
// Returns nil when the item does not exist.
func (s *Store) GetEnrichment(itemID string) (*Enrichment, error) {
	item, err := s.GetItem(itemID)
	if err != nil || item == nil {
		return nil, err
	}

	e := &Enrichment{Item: item}

	if item.CatalogTrackID != 0 {
		if e.Track, err = s.GetTrack(item.CatalogTrackID); err != nil {
			return nil, err
		}
	}
	if e.Track != nil {
		if e.Release, err = s.GetRelease(e.Track.ReleaseID); err != nil {
			return nil, err
		}
		if e.Artists, err = s.GetReleaseArtists(e.Track.ReleaseID); err != nil {
			return nil, err
		}
	}
	if e.Songs, err = s.GetItemSongs(itemID); err != nil {
		return nil, err
	}

	return e, nil
}
