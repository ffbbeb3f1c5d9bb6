package store

import (
	"database/sql"
	"fmt"
)

// UpsertPlaylist inserts or updates a playlist
func (s *Store) UpsertPlaylist(p *Playlist) error {
	_, err := s.db.Exec(`
		INSERT INTO playlists (id, title, description, enabled)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			last_updated = CURRENT_TIMESTAMP
	`, p.ID, p.Title, p.Description, p.Enabled)

	if err != nil {
		return fmt.Errorf("failed to upsert playlist %s: %w", p.ID, err)
	}

	return nil
}

// AddPlaylistEntry links an item to a playlist; existing links are kept
func (s *Store) AddPlaylistEntry(playlistID, itemID string) error {
	_, err := s.db.Exec(`
		INSERT INTO playlist_entries (playlist_id, item_id) VALUES (?, ?)
		ON CONFLICT(playlist_id, item_id) DO NOTHING
	`, playlistID, itemID)

	if err != nil {
		return fmt.Errorf("failed to add item %s to playlist %s: %w", itemID, playlistID, err)
	}

	return nil
}

// DisablePlaylists marks playlists as disabled and returns how many existed
func (s *Store) DisablePlaylists(ids []string) (int, error) {
	disabled := 0
	for _, id := range ids {
		result, err := s.db.Exec(`
			UPDATE playlists SET enabled = 0, last_updated = CURRENT_TIMESTAMP WHERE id = ?
		`, id)
		if err != nil {
			return disabled, fmt.Errorf("failed to disable playlist %s: %w", id, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			disabled += int(n)
		}
	}
	return disabled, nil
}

// DeletePlaylists removes playlists and their entries; the items stay.
// Returns how many playlists were deleted.
func (s *Store) DeletePlaylists(ids []string) (int, error) {
	deleted := 0
	err := s.Transaction(func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.Exec("DELETE FROM playlist_entries WHERE playlist_id = ?", id); err != nil {
				return fmt.Errorf("failed to delete entries of playlist %s: %w", id, err)
			}
			result, err := tx.Exec("DELETE FROM playlists WHERE id = ?", id)
			if err != nil {
				return fmt.Errorf("failed to delete playlist %s: %w", id, err)
			}
			if n, err := result.RowsAffected(); err == nil {
				deleted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// PlaylistSummary is a playlist with its entry count
type PlaylistSummary struct {
	Playlist
	Items int
}

// ListPlaylists returns all playlists with entry counts, ordered by title
func (s *Store) ListPlaylists() ([]*PlaylistSummary, error) {
	rows, err := s.db.Query(`
		SELECT p.id, p.title, COALESCE(p.description, ''), p.enabled, p.last_updated,
		       (SELECT COUNT(*) FROM playlist_entries pe WHERE pe.playlist_id = p.id)
		FROM playlists p
		ORDER BY p.title, p.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*PlaylistSummary
	for rows.Next() {
		p := &PlaylistSummary{}
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Enabled, &p.LastUpdated, &p.Items); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}

	return playlists, rows.Err()
}
