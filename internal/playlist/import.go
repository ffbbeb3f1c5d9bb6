// Package playlist loads yt-dlp playlist dumps into the item catalogue
package playlist

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/franz/yarkie/internal/report"
	"github.com/franz/yarkie/internal/store"
	"github.com/franz/yarkie/internal/util"
)

// Dump is the part of `yt-dlp -J` output that is imported. A single video
// dump has no entries and is imported as one item.
type Dump struct {
	Entry
	Type    string   `json:"_type"`
	Entries []*Entry `json:"entries"`
}

// Entry is one video of a playlist dump
type Entry struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Uploader    string  `json:"uploader"`
	Duration    float64 `json:"duration"`
	UploadDate  string  `json:"upload_date"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
}

// Parse decodes a dump
func Parse(r io.Reader) (*Dump, error) {
	var d Dump
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode playlist dump: %w", err)
	}
	if d.ID == "" {
		return nil, fmt.Errorf("%w: playlist dump has no id", util.ErrInvalidConfig)
	}
	return &d, nil
}

// ReadFile decodes a dump from disk
func ReadFile(path string) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Store is where imported playlists and items are written
type Store interface {
	UpsertPlaylist(p *store.Playlist) error
	UpsertItem(item *store.Item) error
	AddPlaylistEntry(playlistID, itemID string) error
}

// Result summarizes one import
type Result struct {
	PlaylistID string
	Items      int
	Skipped    int // entries without an id (private or deleted videos)
}

// Importer writes dumps into a Store
type Importer struct {
	store  Store
	logger *report.EventLogger
}

// NewImporter creates an importer; logger may be nil
func NewImporter(s Store, logger *report.EventLogger) *Importer {
	if logger == nil {
		logger = report.NullLogger()
	}
	return &Importer{store: s, logger: logger}
}

// Import upserts the playlist, its items and the entries linking them.
// Existing items keep their download state, tune flag and catalogue link.
func (i *Importer) Import(d *Dump) (*Result, error) {
	if d.Type != "" && d.Type != "playlist" && len(d.Entries) == 0 {
		if err := i.store.UpsertItem(toItem(&d.Entry)); err != nil {
			return nil, err
		}
		i.logger.LogImport("", d.ID)
		return &Result{Items: 1}, nil
	}

	result := &Result{PlaylistID: d.ID}
	if err := i.store.UpsertPlaylist(&store.Playlist{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Enabled:     true,
	}); err != nil {
		return nil, err
	}

	for _, e := range d.Entries {
		if e == nil || e.ID == "" {
			result.Skipped++
			continue
		}
		if err := i.store.UpsertItem(toItem(e)); err != nil {
			return result, err
		}
		if err := i.store.AddPlaylistEntry(d.ID, e.ID); err != nil {
			return result, err
		}
		i.logger.LogImport(d.ID, e.ID)
		result.Items++
	}

	util.DebugLog("Imported %d items into playlist %s (%d skipped)", result.Items, d.ID, result.Skipped)
	return result, nil
}

func toItem(e *Entry) *store.Item {
	return &store.Item{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Uploader:    e.Uploader,
		Duration:    e.Duration,
		UploadDate:  e.UploadDate,
		Width:       e.Width,
		Height:      e.Height,
		IsTune:      true,
	}
}
