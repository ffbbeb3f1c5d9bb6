package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/franz/yarkie/internal/util"
)

const itemColumns = `
	id, title, COALESCE(description, ''), COALESCE(uploader, ''),
	COALESCE(duration, 0), COALESCE(upload_date, ''), COALESCE(width, 0), COALESCE(height, 0),
	COALESCE(video_file, ''), COALESCE(thumbnail, ''),
	deleted, downloaded, is_tune, catalog_track_id, last_updated`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*Item, error) {
	item := &Item{}
	var trackID sql.NullInt64
	err := row.Scan(
		&item.ID, &item.Title, &item.Description, &item.Uploader,
		&item.Duration, &item.UploadDate, &item.Width, &item.Height,
		&item.VideoFile, &item.Thumbnail,
		&item.Deleted, &item.Downloaded, &item.IsTune, &trackID, &item.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	if trackID.Valid {
		item.CatalogTrackID = trackID.Int64
	}
	return item, nil
}

// UpsertItem inserts an item or refreshes its descriptive fields.
// Download state, the tune flag and the catalogue link are left untouched on conflict.
func (s *Store) UpsertItem(item *Item) error {
	_, err := s.db.Exec(`
		INSERT INTO items (id, title, description, uploader, duration, upload_date,
		                   width, height, video_file, thumbnail, deleted, downloaded, is_tune)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			uploader = excluded.uploader,
			duration = excluded.duration,
			upload_date = excluded.upload_date,
			width = excluded.width,
			height = excluded.height,
			last_updated = CURRENT_TIMESTAMP
	`, item.ID, item.Title, item.Description, item.Uploader, item.Duration, item.UploadDate,
		item.Width, item.Height, item.VideoFile, item.Thumbnail, item.Deleted, item.Downloaded, item.IsTune)

	if err != nil {
		return fmt.Errorf("failed to upsert item %s: %w", item.ID, err)
	}

	return nil
}

// GetItem retrieves an item by id
func (s *Store) GetItem(id string) (*Item, error) {
	item, err := scanItem(s.db.QueryRow("SELECT "+itemColumns+" FROM items WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// NextUnenrichedItem returns the next tune item without a catalogue link,
// skipping offset rows in id order. With random set the offset is ignored
// and any matching item may be returned. Returns nil when none remain.
func (s *Store) NextUnenrichedItem(offset int, random bool) (*Item, error) {
	query := "SELECT " + itemColumns + `
		FROM items
		WHERE catalog_track_id IS NULL AND is_tune = 1 AND deleted = 0`

	var row *sql.Row
	if random {
		row = s.db.QueryRow(query + " ORDER BY RANDOM() LIMIT 1")
	} else {
		if offset < 0 {
			offset = 0
		}
		row = s.db.QueryRow(query+" ORDER BY id LIMIT 1 OFFSET ?", offset)
	}

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next unenriched item: %w", err)
	}
	return item, nil
}

// CountUnenriched returns how many tune items still lack a catalogue link
func (s *Store) CountUnenriched() (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM items
		WHERE catalog_track_id IS NULL AND is_tune = 1 AND deleted = 0
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unenriched items: %w", err)
	}
	return count, nil
}

// ItemFilter narrows ListItems. Nil pointers mean "any".
type ItemFilter struct {
	Downloaded *bool
	Deleted    *bool
	Unenriched bool
	Limit      int
}

// ListItems returns items matching the filter ordered by id
func (s *Store) ListItems(filter ItemFilter) ([]*Item, error) {
	var where []string
	var args []interface{}

	if filter.Downloaded != nil {
		where = append(where, "downloaded = ?")
		args = append(args, *filter.Downloaded)
	}
	if filter.Deleted != nil {
		where = append(where, "deleted = ?")
		args = append(args, *filter.Deleted)
	}
	if filter.Unenriched {
		where = append(where, "catalog_track_id IS NULL AND is_tune = 1 AND deleted = 0")
	}

	query := "SELECT " + itemColumns + " FROM items"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// SetTune marks an item as music-relevant or not
func (s *Store) SetTune(id string, tune bool) error {
	result, err := s.db.Exec(`
		UPDATE items SET is_tune = ?, last_updated = CURRENT_TIMESTAMP WHERE id = ?
	`, tune, id)
	if err != nil {
		return fmt.Errorf("failed to update item %s: %w", id, err)
	}
	return requireAffected(result, "item "+id)
}

// SetDownloaded records the download state and local file paths of an item
func (s *Store) SetDownloaded(id string, downloaded bool, videoFile, thumbnail string) error {
	result, err := s.db.Exec(`
		UPDATE items SET downloaded = ?, video_file = ?, thumbnail = ?, last_updated = CURRENT_TIMESTAMP
		WHERE id = ?
	`, downloaded, videoFile, thumbnail, id)
	if err != nil {
		return fmt.Errorf("failed to update item %s: %w", id, err)
	}
	return requireAffected(result, "item "+id)
}

// DeleteItem removes an item. Join rows go first so no child ever
// references a missing parent.
func (s *Store) DeleteItem(id string) error {
	return s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM song_items WHERE item_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete song links: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM playlist_entries WHERE item_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete playlist entries: %w", err)
		}
		result, err := tx.Exec("DELETE FROM items WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete item %s: %w", id, err)
		}
		return requireAffected(result, "item "+id)
	})
}

func requireAffected(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, util.ErrNotFound)
	}
	return nil
}
