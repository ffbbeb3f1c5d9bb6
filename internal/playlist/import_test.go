package playlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/franz/yarkie/internal/store"
)

const playlistDump = `{
  "_type": "playlist",
  "id": "PL1",
  "title": "Tunes",
  "description": "Things to learn",
  "entries": [
    {
      "id": "vid1",
      "title": "The Rolling Stones - Brown Sugar (Official Video)",
      "description": "Provided to YouTube by Universal\n\nBrown Sugar · The Rolling Stones",
      "uploader": "The Rolling Stones - Topic",
      "duration": 229,
      "upload_date": "20190612",
      "width": 1920,
      "height": 1080
    },
    null,
    {"id": "", "title": "[Private video]"},
    {"id": "vid2", "title": "Sway", "duration": 231.5, "width": null}
  ]
}`

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "yarkie.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestImportPlaylist(t *testing.T) {
	st := openTestStore(t)

	dump, err := Parse(strings.NewReader(playlistDump))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	result, err := NewImporter(st, nil).Import(dump)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.PlaylistID != "PL1" || result.Items != 2 || result.Skipped != 2 {
		t.Errorf("unexpected result %+v", result)
	}

	item, err := st.GetItem("vid1")
	if err != nil || item == nil {
		t.Fatalf("expected vid1, got %v, %v", item, err)
	}
	if item.Uploader != "The Rolling Stones - Topic" || item.Duration != 229 || item.UploadDate != "20190612" || item.Width != 1920 {
		t.Errorf("unexpected item %+v", item)
	}
	if !item.IsTune {
		t.Error("imported items should be tunes by default")
	}

	playlists, err := st.ListPlaylists()
	if err != nil {
		t.Fatalf("ListPlaylists failed: %v", err)
	}
	if len(playlists) != 1 || playlists[0].Title != "Tunes" || playlists[0].Items != 2 {
		t.Errorf("unexpected playlists %+v", playlists)
	}
}

func TestImportKeepsLocalState(t *testing.T) {
	st := openTestStore(t)
	importer := NewImporter(st, nil)

	dump, err := Parse(strings.NewReader(playlistDump))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, err := importer.Import(dump); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if err := st.SetDownloaded("vid1", true, "/videos/vid1.mp4", "/thumbs/vid1.jpg"); err != nil {
		t.Fatalf("SetDownloaded failed: %v", err)
	}
	if err := st.SetTune("vid2", false); err != nil {
		t.Fatalf("SetTune failed: %v", err)
	}

	dump.Entries[0].Title = "Brown Sugar (2009 Remaster)"
	if _, err := importer.Import(dump); err != nil {
		t.Fatalf("second Import failed: %v", err)
	}

	item, _ := st.GetItem("vid1")
	if item.Title != "Brown Sugar (2009 Remaster)" {
		t.Errorf("expected refreshed title, got %q", item.Title)
	}
	if !item.Downloaded || item.VideoFile != "/videos/vid1.mp4" {
		t.Errorf("download state lost: %+v", item)
	}
	other, _ := st.GetItem("vid2")
	if other.IsTune {
		t.Error("tune flag was reset by re-import")
	}

	playlists, _ := st.ListPlaylists()
	if len(playlists) != 1 || playlists[0].Items != 2 {
		t.Errorf("re-import duplicated entries: %+v", playlists)
	}
}

func TestImportSingleVideo(t *testing.T) {
	st := openTestStore(t)

	dump, err := Parse(strings.NewReader(`{"_type": "video", "id": "vid9", "title": "Sway", "uploader": "Stones"}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	result, err := NewImporter(st, nil).Import(dump)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Items != 1 || result.PlaylistID != "" {
		t.Errorf("unexpected result %+v", result)
	}

	item, _ := st.GetItem("vid9")
	if item == nil || item.Uploader != "Stones" {
		t.Errorf("unexpected item %+v", item)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse(strings.NewReader("not json")); err == nil {
		t.Error("expected decode error")
	}
	if _, err := Parse(strings.NewReader(`{"title": "no id"}`)); err == nil {
		t.Error("expected error for dump without id")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist.json")
	if err := os.WriteFile(path, []byte(playlistDump), 0644); err != nil {
		t.Fatalf("failed to write dump: %v", err)
	}

	dump, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if dump.Title != "Tunes" || len(dump.Entries) != 4 {
		t.Errorf("unexpected dump %+v", dump)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
