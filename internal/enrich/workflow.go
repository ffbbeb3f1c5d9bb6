package enrich

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/franz/yarkie/internal/discogs"
	"github.com/franz/yarkie/internal/meta"
	"github.com/franz/yarkie/internal/report"
	"github.com/franz/yarkie/internal/score"
	"github.com/franz/yarkie/internal/store"
	"github.com/franz/yarkie/internal/util"
)

const (
	// DefaultMaxRequery bounds how often one item may search again
	DefaultMaxRequery = 5

	// maxArtistResults caps the manual artist search menu
	maxArtistResults = 10
)

// Catalog is the subset of the Discogs client the workflow needs
type Catalog interface {
	SearchReleases(ctx context.Context, query string) ([]discogs.Release, error)
	SearchArtists(ctx context.Context, query string) ([]discogs.ArtistCredit, error)
	FetchRelease(ctx context.Context, id int64) (*discogs.Release, error)
	FetchMaster(ctx context.Context, id int64) (*discogs.Release, error)
	FetchArtist(ctx context.Context, id int64) (*discogs.Artist, error)
}

// Repository is where enrichment results are written
type Repository interface {
	UpsertRelease(r *store.Release) error
	UpsertArtist(a *store.Artist, releaseID int64, role string, position int) error
	UpsertTrack(t *store.Track, itemID string) (int64, error)
	UpsertSong(artistName, title string) (int64, error)
	LinkSongItem(songID int64, itemID string, versionType store.VersionType) error
	ClearItemSongs(itemID string) error
}

// State is where an item is in the enrichment workflow
type State int

const (
	StateSelectingQuery State = iota
	StateSelectingRelease
	StateSelectingArtists
	StateSelectingTrack
	StatePersisted
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateSelectingQuery:
		return "SelectingQuery"
	case StateSelectingRelease:
		return "SelectingRelease"
	case StateSelectingArtists:
		return "SelectingArtists"
	case StateSelectingTrack:
		return "SelectingTrack"
	case StatePersisted:
		return "Persisted"
	case StateAbandoned:
		return "Abandoned"
	default:
		return "Unknown"
	}
}

// Result is the outcome of processing one item
type Result struct {
	Success   bool
	ItemID    string
	State     State // StatePersisted or StateAbandoned
	ReleaseID int64
	ArtistIDs []int64
	TrackID   int64
	SongID    int64
	Message   string
	Err       error // set when the item failed rather than being skipped
}

// Config holds the workflow's collaborators
type Config struct {
	Catalog    Catalog
	Repo       Repository
	Strategy   Strategy
	Policy     score.Policy
	Logger     *report.EventLogger
	MaxRequery int
}

// Workflow enriches one item at a time:
// query → release → artists → track → persist.
// Nothing is written until a track is selected.
type Workflow struct {
	catalog    Catalog
	repo       Repository
	strategy   Strategy
	policy     score.Policy
	logger     *report.EventLogger
	maxRequery int
}

// NewWorkflow creates a workflow; Catalog, Repo and Strategy are required
func NewWorkflow(cfg *Config) (*Workflow, error) {
	if cfg == nil || cfg.Catalog == nil || cfg.Repo == nil || cfg.Strategy == nil {
		return nil, fmt.Errorf("%w: workflow needs a catalog, a repository and a strategy", util.ErrInvalidConfig)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = report.NullLogger()
	}
	maxRequery := cfg.MaxRequery
	if maxRequery <= 0 {
		maxRequery = DefaultMaxRequery
	}
	return &Workflow{
		catalog:    cfg.Catalog,
		repo:       cfg.Repo,
		strategy:   cfg.Strategy,
		policy:     cfg.Policy,
		logger:     logger,
		maxRequery: maxRequery,
	}, nil
}

// selection accumulates the choices for one item
type selection struct {
	item    *store.Item
	query   string
	release *discogs.Release
	artists []*discogs.Artist
	credits []discogs.ArtistCredit
	track   discogs.Track
}

// abandon ends the workflow without an error: the operator or the catalog
// gave nothing to continue with
type abandon struct {
	state  State
	reason string
}

func (a *abandon) Error() string {
	return a.reason
}

func (a *abandon) Unwrap() error {
	return util.ErrAbandoned
}

func skip(state State, format string, args ...interface{}) error {
	return &abandon{state: state, reason: fmt.Sprintf(format, args...)}
}

// Process runs the workflow for one item. queries are the generated search
// strings offered in the query menu.
func (w *Workflow) Process(ctx context.Context, item *store.Item, queries []string) (result *Result) {
	result = &Result{ItemID: item.ID, State: StateAbandoned}

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.State = StateAbandoned
			result.Err = fmt.Errorf("panic while enriching %s: %v", item.ID, r)
			result.Message = result.Err.Error()
			w.logger.LogError(report.EventError, item.ID, result.Err)
		}
	}()

	sel := &selection{item: item}
	state := StateSelectingQuery

	for state != StatePersisted {
		if err := ctx.Err(); err != nil {
			return w.fail(result, state, err)
		}

		var err error
		switch state {
		case StateSelectingQuery:
			err = w.selectQuery(sel, queries)
		case StateSelectingRelease:
			err = w.selectRelease(ctx, sel)
		case StateSelectingArtists:
			err = w.selectArtists(ctx, sel)
		case StateSelectingTrack:
			err = w.selectTrack(sel)
		}
		if err != nil {
			return w.fail(result, state, err)
		}

		state++
		if state == StatePersisted {
			if err := w.persist(sel, result); err != nil {
				return w.fail(result, state, err)
			}
		}
	}

	result.Success = true
	result.State = StatePersisted
	result.Message = fmt.Sprintf("Persisted %q from release %d %q%s, artists %v, track %d",
		sel.track.Title, sel.release.ID, sel.release.Title, yearSuffix(sel.release.Year), result.ArtistIDs, result.TrackID)
	return result
}

// fail turns a step error into an abandoned result
func (w *Workflow) fail(result *Result, state State, err error) *Result {
	result.Success = false
	result.State = StateAbandoned

	var a *abandon
	if errors.As(err, &a) {
		result.Message = fmt.Sprintf("Abandoned while %s: %s", describeState(a.state), a.reason)
		w.logger.LogSkip(result.ItemID, a.state.String(), a.reason)
		return result
	}

	result.Err = err
	result.Message = fmt.Sprintf("Failed while %s: %v", describeState(state), err)
	w.logger.LogError(report.EventError, result.ItemID, err)
	return result
}

func describeState(s State) string {
	switch s {
	case StateSelectingQuery:
		return "selecting query"
	case StateSelectingRelease:
		return "selecting release"
	case StateSelectingArtists:
		return "selecting artists"
	case StateSelectingTrack:
		return "selecting track"
	case StatePersisted:
		return "persisting"
	default:
		return strings.ToLower(s.String())
	}
}

func yearSuffix(year int) string {
	if year <= 0 {
		return ""
	}
	return fmt.Sprintf(" (%d)", year)
}

func (w *Workflow) selectQuery(sel *selection, queries []string) error {
	query, ok := w.strategy.ChooseQuery(sel.item.ID, queries)
	query = strings.TrimSpace(query)
	if !ok || query == "" {
		return skip(StateSelectingQuery, "no query selected")
	}
	sel.query = query
	w.logger.LogQuery(sel.item.ID, query)
	return nil
}

// selectRelease searches, ranks and asks until a release is resolved. A new
// query from the menu searches again, at most maxRequery times.
func (w *Workflow) selectRelease(ctx context.Context, sel *selection) error {
	query := sel.query

	for requeries := 0; ; requeries++ {
		start := time.Now()
		candidates, err := w.catalog.SearchReleases(ctx, query)
		w.logger.LogSearch(sel.item.ID, query, len(candidates), time.Since(start), err)

		if errors.Is(err, util.ErrNotFound) {
			id, ok := w.strategy.PromptReleaseID(query)
			if !ok {
				return skip(StateSelectingRelease, "no results for %q", query)
			}
			return w.fetchManualRelease(ctx, sel, id)
		}
		if err != nil {
			return err
		}

		ranked := score.RankReleases(candidates, w.policy)
		choice := w.strategy.ChooseRelease(query, ranked)

		switch {
		case choice.Release != nil:
			release, err := w.resolve(ctx, *choice.Release)
			if err != nil {
				return err
			}
			sel.release = release
			w.logger.LogSelect(sel.item.ID, release.ID, release.Title, false)
			return nil

		case choice.ReleaseID != "":
			return w.fetchManualRelease(ctx, sel, choice.ReleaseID)

		case strings.TrimSpace(choice.Query) != "":
			if requeries >= w.maxRequery {
				return skip(StateSelectingRelease, "gave up after %d searches", requeries+1)
			}
			query = strings.TrimSpace(choice.Query)
			sel.query = query
			w.logger.LogQuery(sel.item.ID, query)

		default:
			return skip(StateSelectingRelease, "no release selected")
		}
	}
}

// fetchManualRelease loads a release by an operator-entered id
func (w *Workflow) fetchManualRelease(ctx context.Context, sel *selection, rawID string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		return skip(StateSelectingRelease, "invalid release id %q", rawID)
	}

	release, err := w.catalog.FetchRelease(ctx, id)
	if errors.Is(err, util.ErrNotFound) {
		return skip(StateSelectingRelease, "release %d not found", id)
	}
	if err != nil {
		return err
	}

	sel.release = release
	w.logger.LogSelect(sel.item.ID, release.ID, release.Title, true)
	return nil
}

// resolve fetches the full record of a search candidate. Masters resolve to
// their main release so persisted ids are always release ids.
func (w *Workflow) resolve(ctx context.Context, candidate discogs.Release) (*discogs.Release, error) {
	id := candidate.ID
	if candidate.Type == discogs.SearchTypeMaster {
		master, err := w.catalog.FetchMaster(ctx, candidate.ID)
		if errors.Is(err, util.ErrNotFound) {
			return nil, skip(StateSelectingRelease, "master %d not found", candidate.ID)
		}
		if err != nil {
			return nil, err
		}
		if master.MainRelease <= 0 {
			return nil, skip(StateSelectingRelease, "master %d has no main release", candidate.ID)
		}
		id = master.MainRelease
	}

	release, err := w.catalog.FetchRelease(ctx, id)
	if errors.Is(err, util.ErrNotFound) {
		return nil, skip(StateSelectingRelease, "release %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return release, nil
}

// selectArtists confirms the credited artists in order, falling back to a
// manual artist search when none is kept. Zero artists is allowed.
func (w *Workflow) selectArtists(ctx context.Context, sel *selection) error {
	seen := make(map[int64]bool)
	if err := w.confirmArtists(ctx, sel, sel.release.Artists, seen); err != nil {
		return err
	}
	if len(sel.artists) > 0 {
		return nil
	}

	query, ok := w.strategy.SearchArtistManually()
	query = strings.TrimSpace(query)
	if !ok || query == "" {
		util.DebugLog("No artist confirmed for %s", sel.item.ID)
		return nil
	}

	found, err := w.catalog.SearchArtists(ctx, query)
	if errors.Is(err, util.ErrNotFound) {
		util.WarnLog("No artists found for %q", query)
		return nil
	}
	if err != nil {
		return err
	}
	if len(found) > maxArtistResults {
		found = found[:maxArtistResults]
	}
	return w.confirmArtists(ctx, sel, found, seen)
}

func (w *Workflow) confirmArtists(ctx context.Context, sel *selection, credits []discogs.ArtistCredit, seen map[int64]bool) error {
	for _, credit := range credits {
		if credit.ID <= 0 || seen[credit.ID] {
			continue
		}
		seen[credit.ID] = true

		confirmed := w.strategy.ConfirmArtist(credit)
		w.logger.LogArtist(sel.item.ID, sel.release.ID, credit.ID, credit.Name, confirmed)
		if !confirmed {
			continue
		}

		artist, err := w.catalog.FetchArtist(ctx, credit.ID)
		if errors.Is(err, util.ErrNotFound) {
			util.WarnLog("Artist %d (%s) not found, skipping", credit.ID, credit.Name)
			continue
		}
		if err != nil {
			return err
		}
		sel.artists = append(sel.artists, artist)
		sel.credits = append(sel.credits, credit)
	}
	return nil
}

func (w *Workflow) selectTrack(sel *selection) error {
	var tracks []discogs.Track
	for _, t := range sel.release.Tracklist {
		if t.IsTrack() && strings.TrimSpace(t.Title) != "" {
			tracks = append(tracks, t)
		}
	}
	if len(tracks) == 0 {
		return skip(StateSelectingTrack, "release %d has no tracks", sel.release.ID)
	}

	track, ok := w.strategy.ChooseTrack(tracks)
	if !ok {
		return skip(StateSelectingTrack, "no track selected")
	}
	sel.track = track
	w.logger.LogTrack(sel.item.ID, sel.release.ID, track.Title, track.Position)
	return nil
}

// persist writes release, artists, track and song. A failure part way leaves
// the earlier rows in place; re-running the item overwrites them.
func (w *Workflow) persist(sel *selection, result *Result) error {
	r := sel.release
	err := w.write(sel, result)
	w.logger.LogPersist(sel.item.ID, r.ID, result.ArtistIDs, result.TrackID, err)
	if err != nil {
		return fmt.Errorf("%w: %w", util.ErrPersistence, err)
	}
	return nil
}

func (w *Workflow) write(sel *selection, result *Result) error {
	r := sel.release
	if err := w.repo.UpsertRelease(&store.Release{
		ID:      r.ID,
		Title:   r.Title,
		Year:    r.Year,
		Country: r.Country,
		Formats: r.Formats,
		Genres:  r.Genres,
		Styles:  r.Styles,
		URI:     r.URI,
	}); err != nil {
		return fmt.Errorf("release %d: %w", r.ID, err)
	}
	result.ReleaseID = r.ID

	for i, a := range sel.artists {
		if err := w.repo.UpsertArtist(&store.Artist{
			ID:      a.ID,
			Name:    meta.CleanArtistName(a.Name),
			Profile: a.Profile,
			URI:     a.URI,
		}, r.ID, sel.credits[i].Role, i); err != nil {
			return fmt.Errorf("artist %d: %w", a.ID, err)
		}
		result.ArtistIDs = append(result.ArtistIDs, a.ID)
	}

	trackID, err := w.repo.UpsertTrack(&store.Track{
		ReleaseID: r.ID,
		Title:     sel.track.Title,
		Duration:  sel.track.Duration,
		Position:  sel.track.Position,
		Type:      sel.track.Type,
	}, sel.item.ID)
	if err != nil {
		return fmt.Errorf("track %q: %w", sel.track.Title, err)
	}
	result.TrackID = trackID

	// without a primary artist there is no song, and an older link would point at the wrong one
	if len(sel.artists) == 0 {
		if err := w.repo.ClearItemSongs(sel.item.ID); err != nil {
			return fmt.Errorf("song links: %w", err)
		}
		return nil
	}

	songID, err := w.repo.UpsertSong(meta.CleanArtistName(sel.artists[0].Name), meta.CleanString(sel.track.Title))
	if err != nil {
		return fmt.Errorf("song: %w", err)
	}
	if err := w.repo.LinkSongItem(songID, sel.item.ID, meta.DetectVersionType(sel.item.Title)); err != nil {
		return fmt.Errorf("song %d: %w", songID, err)
	}
	result.SongID = songID
	return nil
}
