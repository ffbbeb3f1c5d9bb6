package enrich

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franz/yarkie/internal/discogs"
	"github.com/franz/yarkie/internal/score"
	"github.com/franz/yarkie/internal/store"
	"github.com/franz/yarkie/internal/util"
)

// fakeCatalog serves canned Discogs data and records the searches it saw
type fakeCatalog struct {
	search       map[string][]discogs.Release
	releases     map[int64]*discogs.Release
	masters      map[int64]*discogs.Release
	artists      map[int64]*discogs.Artist
	artistSearch map[string][]discogs.ArtistCredit
	err          error

	searches       []string
	artistSearches []string
	fetched        []int64
}

func (c *fakeCatalog) SearchReleases(ctx context.Context, query string) ([]discogs.Release, error) {
	c.searches = append(c.searches, query)
	if c.err != nil {
		return nil, c.err
	}
	results := c.search[query]
	if len(results) == 0 {
		return nil, fmt.Errorf("search %q: %w", query, util.ErrNotFound)
	}
	return append([]discogs.Release(nil), results...), nil
}

func (c *fakeCatalog) SearchArtists(ctx context.Context, query string) ([]discogs.ArtistCredit, error) {
	c.artistSearches = append(c.artistSearches, query)
	results := c.artistSearch[query]
	if len(results) == 0 {
		return nil, fmt.Errorf("artist search %q: %w", query, util.ErrNotFound)
	}
	return results, nil
}

func (c *fakeCatalog) FetchRelease(ctx context.Context, id int64) (*discogs.Release, error) {
	c.fetched = append(c.fetched, id)
	r, ok := c.releases[id]
	if !ok {
		return nil, fmt.Errorf("release %d: %w", id, util.ErrNotFound)
	}
	copied := *r
	return &copied, nil
}

func (c *fakeCatalog) FetchMaster(ctx context.Context, id int64) (*discogs.Release, error) {
	m, ok := c.masters[id]
	if !ok {
		return nil, fmt.Errorf("master %d: %w", id, util.ErrNotFound)
	}
	copied := *m
	return &copied, nil
}

func (c *fakeCatalog) FetchArtist(ctx context.Context, id int64) (*discogs.Artist, error) {
	a, ok := c.artists[id]
	if !ok {
		return nil, fmt.Errorf("artist %d: %w", id, util.ErrNotFound)
	}
	copied := *a
	return &copied, nil
}

func stickyFingers() *discogs.Release {
	return &discogs.Release{
		ID:      42,
		Type:    discogs.SearchTypeRelease,
		Title:   "Sticky Fingers",
		Artist:  "The Rolling Stones",
		Year:    1971,
		Country: "UK",
		Formats: []string{"Vinyl", "LP", "Album"},
		Genres:  []string{"Rock"},
		Styles:  []string{"Blues Rock"},
		URI:     "https://www.discogs.com/release/42",
		Artists: []discogs.ArtistCredit{{ID: 20991, Name: "The Rolling Stones"}},
		Tracklist: []discogs.Track{
			{Title: "Side A", Type: "heading"},
			{Title: "Brown Sugar", Duration: "3:48", Position: "A1", Type: "track"},
			{Title: "Sway", Duration: "3:51", Position: "A2", Type: "track"},
		},
	}
}

func newBrownSugarCatalog() *fakeCatalog {
	return &fakeCatalog{
		search: map[string][]discogs.Release{
			"Brown Sugar": {
				{ID: 100, Type: discogs.SearchTypeRelease, Artist: "The Rolling Stones", Title: "Brown Sugar", Year: 1971, Formats: []string{"Vinyl", "7\"", "Single"}},
				{ID: 42, Type: discogs.SearchTypeRelease, Artist: "The Rolling Stones", Title: "Sticky Fingers", Year: 1971, Formats: []string{"Vinyl", "LP", "Album"}},
				{ID: 500, Type: discogs.SearchTypeRelease, Artist: "Various", Title: "Rock Hits Video", Formats: []string{"VHS"}},
			},
		},
		releases: map[int64]*discogs.Release{
			42: stickyFingers(),
			100: {
				ID:        100,
				Title:     "Brown Sugar",
				Year:      1971,
				Artists:   []discogs.ArtistCredit{{ID: 20991, Name: "The Rolling Stones"}},
				Tracklist: []discogs.Track{{Title: "Brown Sugar", Position: "A"}, {Title: "Bitch", Position: "B"}},
			},
		},
		artists: map[int64]*discogs.Artist{
			20991: {ID: 20991, Name: "The Rolling Stones", Profile: "English rock band", URI: "https://www.discogs.com/artist/20991"},
			7:     {ID: 7, Name: "Mick Jagger"},
		},
	}
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "yarkie.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func insertItem(t *testing.T, st *store.Store, id, title string) *store.Item {
	t.Helper()
	item := &store.Item{ID: id, Title: title, IsTune: true}
	require.NoError(t, st.UpsertItem(item))
	return item
}

func newTestWorkflow(t *testing.T, catalog Catalog, repo Repository, strategy Strategy) *Workflow {
	t.Helper()
	w, err := NewWorkflow(&Config{
		Catalog:  catalog,
		Repo:     repo,
		Strategy: strategy,
		Policy:   score.DefaultPolicy(),
	})
	require.NoError(t, err)
	return w
}

func TestNewWorkflow_RequiresCollaborators(t *testing.T) {
	_, err := NewWorkflow(&Config{Catalog: &fakeCatalog{}})
	assert.ErrorIs(t, err, util.ErrInvalidConfig)

	_, err = NewWorkflow(nil)
	assert.ErrorIs(t, err, util.ErrInvalidConfig)
}

func TestProcess_PersistsAlbumTrack(t *testing.T) {
	st := openTestStore(t)
	item := insertItem(t, st, "vid1", "The Rolling Stones - Brown Sugar (Official Video)")
	catalog := newBrownSugarCatalog()

	w := newTestWorkflow(t, catalog, st, &Scripted{})
	result := w.Process(context.Background(), item, []string{"Brown Sugar"})

	require.True(t, result.Success, result.Message)
	assert.Equal(t, StatePersisted, result.State)
	assert.Equal(t, int64(42), result.ReleaseID)
	assert.Equal(t, []int64{20991}, result.ArtistIDs)
	assert.NotZero(t, result.TrackID)
	assert.NotZero(t, result.SongID)
	assert.NoError(t, result.Err)
	assert.Contains(t, result.Message, `"Brown Sugar" from release 42 "Sticky Fingers" (1971)`)

	e, err := st.GetEnrichment("vid1")
	require.NoError(t, err)
	require.NotNil(t, e.Track)
	assert.Equal(t, result.TrackID, e.Item.CatalogTrackID)
	assert.Equal(t, "Brown Sugar", e.Track.Title)
	assert.Equal(t, "A1", e.Track.Position)
	require.NotNil(t, e.Release)
	assert.Equal(t, "Sticky Fingers", e.Release.Title)
	assert.Equal(t, []string{"Vinyl", "LP", "Album"}, e.Release.Formats)
	require.Len(t, e.Artists, 1)
	assert.Equal(t, "Rolling Stones", e.Artists[0].Name)
	assert.Equal(t, "English rock band", e.Artists[0].Profile)
	require.Len(t, e.Songs, 1)
	assert.Equal(t, "Rolling Stones", e.Songs[0].ArtistName)
	assert.Equal(t, "Brown Sugar", e.Songs[0].Title)
	assert.Equal(t, store.VersionOriginal, e.Songs[0].VersionType)
}

func TestProcess_EmptySearchWithoutManualID(t *testing.T) {
	st := openTestStore(t)
	item := insertItem(t, st, "vid1", "Unknown jam")

	w := newTestWorkflow(t, &fakeCatalog{}, st, &Scripted{})
	result := w.Process(context.Background(), item, []string{"unknown jam"})

	assert.False(t, result.Success)
	assert.Equal(t, StateAbandoned, result.State)
	assert.NoError(t, result.Err)
	assert.Contains(t, result.Message, "selecting release")

	counts, err := st.GetCatalogCounts()
	require.NoError(t, err)
	assert.Zero(t, counts.Releases)
	assert.Zero(t, counts.Tracks)
	assert.Equal(t, 1, counts.Unenriched)
}

func TestProcess_ManualReleaseID(t *testing.T) {
	tests := []struct {
		name      string
		releaseID string
		success   bool
		message   string
	}{
		{name: "valid id", releaseID: "42", success: true},
		{name: "not numeric", releaseID: "sticky", message: "invalid release id"},
		{name: "unknown id", releaseID: "999", message: "release 999 not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := openTestStore(t)
			item := insertItem(t, st, "vid1", "Brown Sugar")

			catalog := newBrownSugarCatalog()
			w := newTestWorkflow(t, catalog, st, &Scripted{ReleaseID: tt.releaseID})
			result := w.Process(context.Background(), item, []string{"nothing matches"})

			assert.Equal(t, tt.success, result.Success, result.Message)
			assert.NoError(t, result.Err)
			if tt.message != "" {
				assert.Contains(t, result.Message, tt.message)
			}
			if tt.success {
				assert.Equal(t, int64(42), result.ReleaseID)
			}
		})
	}
}

func TestProcess_ArtistsPersistedInOrder(t *testing.T) {
	st := openTestStore(t)
	item := insertItem(t, st, "vid1", "Brown Sugar live")
	catalog := newBrownSugarCatalog()
	release := catalog.releases[42]
	release.Artists = []discogs.ArtistCredit{
		{ID: 20991, Name: "The Rolling Stones"},
		{ID: 7, Name: "Mick Jagger", Role: "Vocals"},
		{ID: 20991, Name: "The Rolling Stones"},
		{ID: 0, Name: "Various"},
	}

	w := newTestWorkflow(t, catalog, st, &Scripted{})
	result := w.Process(context.Background(), item, []string{"Brown Sugar"})
	require.True(t, result.Success, result.Message)
	assert.Equal(t, []int64{20991, 7}, result.ArtistIDs)

	artists, err := st.GetReleaseArtists(42)
	require.NoError(t, err)
	require.Len(t, artists, 2)
	assert.Equal(t, int64(20991), artists[0].ID)
	assert.Equal(t, int64(7), artists[1].ID)
	assert.Equal(t, "Vocals", artists[1].Role)

	songs, err := st.GetItemSongs("vid1")
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, store.VersionLive, songs[0].VersionType)
}

func TestProcess_DeclinedArtistSkipped(t *testing.T) {
	st := openTestStore(t)
	item := insertItem(t, st, "vid1", "Brown Sugar")
	catalog := newBrownSugarCatalog()
	catalog.releases[42].Artists = []discogs.ArtistCredit{
		{ID: 20991, Name: "The Rolling Stones"},
		{ID: 7, Name: "Mick Jagger"},
	}

	w := newTestWorkflow(t, catalog, st, &Scripted{ArtistConfirmations: []bool{false, true}})
	result := w.Process(context.Background(), item, []string{"Brown Sugar"})
	require.True(t, result.Success, result.Message)
	assert.Equal(t, []int64{7}, result.ArtistIDs)

	songs, err := st.GetItemSongs("vid1")
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, "Mick Jagger", songs[0].ArtistName)
}

func TestProcess_MissingArtistSkipped(t *testing.T) {
	st := openTestStore(t)
	item := insertItem(t, st, "vid1", "Brown Sugar")
	catalog := newBrownSugarCatalog()
	catalog.releases[42].Artists = []discogs.ArtistCredit{
		{ID: 404, Name: "Gone"},
		{ID: 20991, Name: "The Rolling Stones"},
	}

	w := newTestWorkflow(t, catalog, st, &Scripted{})
	result := w.Process(context.Background(), item, []string{"Brown Sugar"})
	require.True(t, result.Success, result.Message)
	assert.Equal(t, []int64{20991}, result.ArtistIDs)
}

func TestProcess_ManualArtistSearch(t *testing.T) {
	st := openTestStore(t)
	item := insertItem(t, st, "vid1", "Brown Sugar")
	catalog := newBrownSugarCatalog()
	catalog.releases[42].Artists = nil
	catalog.artistSearch = map[string][]discogs.ArtistCredit{
		"stones": {{ID: 20991, Name: "The Rolling Stones"}},
	}

	w := newTestWorkflow(t, catalog, st, &Scripted{ArtistQuery: "stones"})
	result := w.Process(context.Background(), item, []string{"Brown Sugar"})
	require.True(t, result.Success, result.Message)
	assert.Equal(t, []string{"stones"}, catalog.artistSearches)
	assert.Equal(t, []int64{20991}, result.ArtistIDs)
}

func TestProcess_NoArtistsStillLinksTrack(t *testing.T) {
	st := openTestStore(t)
	item := insertItem(t, st, "vid1", "Brown Sugar")
	catalog := newBrownSugarCatalog()

	w := newTestWorkflow(t, catalog, st, &Scripted{ArtistConfirmations: []bool{false}})
	result := w.Process(context.Background(), item, []string{"Brown Sugar"})
	require.True(t, result.Success, result.Message)
	assert.Empty(t, result.ArtistIDs)
	assert.Zero(t, result.SongID)

	got, err := st.GetItem("vid1")
	require.NoError(t, err)
	assert.Equal(t, result.TrackID, got.CatalogTrackID)
}

func TestProcess_NoArtistsClearsPreviousSong(t *testing.T) {
	st := openTestStore(t)
	item := insertItem(t, st, "vid1", "Brown Sugar")
	songID, err := st.UpsertSong("Somebody Else", "Brown Sugar")
	require.NoError(t, err)
	require.NoError(t, st.LinkSongItem(songID, "vid1", store.VersionCover))

	w := newTestWorkflow(t, newBrownSugarCatalog(), st, &Scripted{ArtistConfirmations: []bool{false}})
	result := w.Process(context.Background(), item, []string{"Brown Sugar"})
	require.True(t, result.Success, result.Message)

	songs, err := st.GetItemSongs("vid1")
	require.NoError(t, err)
	assert.Empty(t, songs)
}

func TestProcess_ArtistNamesCleaned(t *testing.T) {
	st := openTestStore(t)
	item := insertItem(t, st, "vid1", "Brown Sugar")
	catalog := newBrownSugarCatalog()
	catalog.releases[42].Artists = []discogs.ArtistCredit{
		{ID: 20991, Name: "Rolling Stones, The (2)"},
		{ID: 7, Name: "Mick Jagger"},
	}
	catalog.artists[20991].Name = "Rolling Stones, The (2)"

	w := newTestWorkflow(t, catalog, st, &Scripted{})
	result := w.Process(context.Background(), item, []string{"Brown Sugar"})
	require.True(t, result.Success, result.Message)

	artists, err := st.GetReleaseArtists(42)
	require.NoError(t, err)
	require.Len(t, artists, 2)
	assert.Equal(t, "Rolling Stones", artists[0].Name)
	assert.Equal(t, "Mick Jagger", artists[1].Name)
}

func TestProcess_AbandonAtEachStepLeavesLinkUnchanged(t *testing.T) {
	tests := []struct {
		name     string
		strategy *Scripted
		message  string
	}{
		{name: "query", strategy: &Scripted{QuitAt: StepQuery}, message: "selecting query"},
		{name: "release", strategy: &Scripted{QuitAt: StepRelease}, message: "selecting release"},
		{name: "track", strategy: &Scripted{QuitAt: StepTrack}, message: "selecting track"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := openTestStore(t)
			item := insertItem(t, st, "vid1", "Brown Sugar")

			// An earlier enrichment that must survive the abandoned run
			require.NoError(t, st.UpsertRelease(&store.Release{ID: 100, Title: "Brown Sugar"}))
			trackID, err := st.UpsertTrack(&store.Track{ReleaseID: 100, Title: "Brown Sugar"}, "vid1")
			require.NoError(t, err)

			w := newTestWorkflow(t, newBrownSugarCatalog(), st, tt.strategy)
			result := w.Process(context.Background(), item, []string{"Brown Sugar"})

			assert.False(t, result.Success)
			assert.Equal(t, StateAbandoned, result.State)
			assert.NoError(t, result.Err)
			assert.Contains(t, result.Message, tt.message)

			got, err := st.GetItem("vid1")
			require.NoError(t, err)
			assert.Equal(t, trackID, got.CatalogTrackID)

			release, err := st.GetRelease(42)
			require.NoError(t, err)
			assert.Nil(t, release)
		})
	}
}

func TestProcess_TracklistWithoutTracks(t *testing.T) {
	st := openTestStore(t)
	item := insertItem(t, st, "vid1", "Brown Sugar")
	catalog := newBrownSugarCatalog()
	catalog.releases[42].Tracklist = []discogs.Track{{Title: "Side A", Type: "heading"}}

	w := newTestWorkflow(t, catalog, st, &Scripted{})
	result := w.Process(context.Background(), item, []string{"Brown Sugar"})
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "has no tracks")
}

func TestProcess_Deterministic(t *testing.T) {
	var first *Result
	for i := 0; i < 3; i++ {
		st := openTestStore(t)
		item := insertItem(t, st, "vid1", "Brown Sugar")
		catalog := newBrownSugarCatalog()

		w := newTestWorkflow(t, catalog, st, &Scripted{TrackIndex: 1})
		result := w.Process(context.Background(), item, []string{"Brown Sugar"})
		require.True(t, result.Success, result.Message)

		if first == nil {
			first = result
			continue
		}
		assert.Equal(t, first.ReleaseID, result.ReleaseID)
		assert.Equal(t, first.ArtistIDs, result.ArtistIDs)
		assert.Equal(t, first.Message, result.Message)
	}
	assert.Contains(t, first.Message, `"Sway"`)
}

func TestProcess_CustomQuerySearchesAgain(t *testing.T) {
	st := openTestStore(t)
	item := insertItem(t, st, "vid1", "Brown Sugar")
	catalog := newBrownSugarCatalog()
	catalog.search["stones brown sugar"] = []discogs.Release{
		{ID: 100, Type: discogs.SearchTypeRelease, Artist: "The Rolling Stones", Title: "Brown Sugar", Year: 1971, Formats: []string{"Single"}},
	}

	w := newTestWorkflow(t, catalog, st, &Scripted{CustomQuery: "stones brown sugar"})
	result := w.Process(context.Background(), item, []string{"Brown Sugar"})

	require.True(t, result.Success, result.Message)
	assert.Equal(t, []string{"Brown Sugar", "stones brown sugar"}, catalog.searches)
	assert.Equal(t, int64(100), result.ReleaseID)
}

// requeryForever always asks for another search
type requeryForever struct {
	Scripted
}

func (s *requeryForever) ChooseRelease(query string, candidates []discogs.Release) ReleaseChoice {
	return ReleaseChoice{Query: "Brown Sugar"}
}

func TestProcess_RequeryIsBounded(t *testing.T) {
	st := openTestStore(t)
	item := insertItem(t, st, "vid1", "Brown Sugar")
	catalog := newBrownSugarCatalog()

	w, err := NewWorkflow(&Config{
		Catalog:    catalog,
		Repo:       st,
		Strategy:   &requeryForever{},
		MaxRequery: 3,
	})
	require.NoError(t, err)

	result := w.Process(context.Background(), item, []string{"Brown Sugar"})
	assert.False(t, result.Success)
	assert.NoError(t, result.Err)
	assert.Len(t, catalog.searches, 4)
}

func TestProcess_MasterResolvesToMainRelease(t *testing.T) {
	st := openTestStore(t)
	item := insertItem(t, st, "vid1", "Brown Sugar")
	catalog := newBrownSugarCatalog()
	catalog.search["Brown Sugar"] = []discogs.Release{
		{ID: 3000, Type: discogs.SearchTypeMaster, Artist: "The Rolling Stones", Title: "Sticky Fingers", Year: 1971},
	}
	catalog.masters = map[int64]*discogs.Release{
		3000: {ID: 3000, Type: discogs.SearchTypeMaster, Title: "Sticky Fingers", MainRelease: 42},
	}

	w := newTestWorkflow(t, catalog, st, &Scripted{})
	result := w.Process(context.Background(), item, []string{"Brown Sugar"})

	require.True(t, result.Success, result.Message)
	assert.Equal(t, int64(42), result.ReleaseID)
	assert.Equal(t, []int64{42}, catalog.fetched)
}

func TestProcess_CatalogErrorFails(t *testing.T) {
	st := openTestStore(t)
	item := insertItem(t, st, "vid1", "Brown Sugar")
	catalog := &fakeCatalog{err: fmt.Errorf("search: %w", util.ErrRateLimited)}

	w := newTestWorkflow(t, catalog, st, &Scripted{})
	result := w.Process(context.Background(), item, []string{"Brown Sugar"})

	assert.False(t, result.Success)
	assert.Equal(t, StateAbandoned, result.State)
	assert.ErrorIs(t, result.Err, util.ErrRateLimited)
	assert.Contains(t, result.Message, "Failed while selecting release")
}

func TestProcess_CancelledContext(t *testing.T) {
	st := openTestStore(t)
	item := insertItem(t, st, "vid1", "Brown Sugar")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := newTestWorkflow(t, newBrownSugarCatalog(), st, &Scripted{})
	result := w.Process(ctx, item, []string{"Brown Sugar"})
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, context.Canceled)
}

func TestProcess_PersistenceFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO releases").WillReturnError(errors.New("disk I/O error"))

	w := newTestWorkflow(t, newBrownSugarCatalog(), store.New(db), &Scripted{})
	result := w.Process(context.Background(), &store.Item{ID: "vid1", Title: "Brown Sugar"}, []string{"Brown Sugar"})

	assert.False(t, result.Success)
	assert.Equal(t, StateAbandoned, result.State)
	assert.ErrorIs(t, result.Err, util.ErrPersistence)
	assert.Contains(t, result.Message, "disk I/O error")
	assert.Zero(t, result.TrackID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// panicStrategy blows up in the middle of a run
type panicStrategy struct {
	Scripted
}

func (s *panicStrategy) ChooseTrack(tracks []discogs.Track) (discogs.Track, bool) {
	panic("boom")
}

func TestProcess_RecoversFromPanic(t *testing.T) {
	st := openTestStore(t)
	item := insertItem(t, st, "vid1", "Brown Sugar")

	w := newTestWorkflow(t, newBrownSugarCatalog(), st, &panicStrategy{})
	result := w.Process(context.Background(), item, []string{"Brown Sugar"})

	assert.False(t, result.Success)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "boom")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "SelectingRelease", StateSelectingRelease.String())
	assert.Equal(t, "Persisted", StatePersisted.String())
	assert.Equal(t, "Unknown", State(99).String())
}
