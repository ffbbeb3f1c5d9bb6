package enrich

import (
	"github.com/franz/yarkie/internal/discogs"
)

// Step names accepted by Scripted.QuitAt
const (
	StepQuery   = "query"
	StepRelease = "release"
	StepTrack   = "track"
)

// Scripted answers every decision from presets. The zero value picks the
// first option everywhere, confirms every artist and keeps going after
// errors, which is what unattended batch runs want.
type Scripted struct {
	QueryIndex   int
	ReleaseIndex int
	TrackIndex   int

	// CustomQuery is returned once from the first release menu, so the
	// workflow searches again with it and then picks ReleaseIndex
	CustomQuery string

	// ReleaseID is returned from the release menu (after any CustomQuery)
	// and from the manual id prompt
	ReleaseID string

	// ArtistConfirmations answers ConfirmArtist calls in order; calls past
	// the end confirm
	ArtistConfirmations []bool

	// ArtistQuery is the manual artist search string
	ArtistQuery string

	// QuitAt makes the named step return no selection
	QuitAt string

	// AbortOnError stops a batch at the first failed item
	AbortOnError bool

	customQueryUsed bool
	artistCalls     int
}

// ChooseQuery returns options[QueryIndex], clamped to the last option
func (s *Scripted) ChooseQuery(itemID string, options []string) (string, bool) {
	if s.QuitAt == StepQuery || len(options) == 0 {
		return "", false
	}
	return options[clampIndex(s.QueryIndex, len(options))], true
}

// ChooseRelease returns the one-shot custom query, then the manual id, then
// candidates[ReleaseIndex] clamped to the last candidate
func (s *Scripted) ChooseRelease(query string, candidates []discogs.Release) ReleaseChoice {
	if s.QuitAt == StepRelease {
		return ReleaseChoice{}
	}
	if s.CustomQuery != "" && !s.customQueryUsed {
		s.customQueryUsed = true
		return ReleaseChoice{Query: s.CustomQuery}
	}
	if s.ReleaseID != "" {
		return ReleaseChoice{ReleaseID: s.ReleaseID}
	}
	if len(candidates) == 0 {
		return ReleaseChoice{}
	}
	chosen := candidates[clampIndex(s.ReleaseIndex, len(candidates))]
	return ReleaseChoice{Release: &chosen}
}

// PromptReleaseID returns ReleaseID when set
func (s *Scripted) PromptReleaseID(query string) (string, bool) {
	if s.ReleaseID == "" {
		return "", false
	}
	return s.ReleaseID, true
}

// ConfirmArtist consumes the next preset confirmation
func (s *Scripted) ConfirmArtist(artist discogs.ArtistCredit) bool {
	i := s.artistCalls
	s.artistCalls++
	if i < len(s.ArtistConfirmations) {
		return s.ArtistConfirmations[i]
	}
	return true
}

// SearchArtistManually returns ArtistQuery when set
func (s *Scripted) SearchArtistManually() (string, bool) {
	if s.ArtistQuery == "" {
		return "", false
	}
	return s.ArtistQuery, true
}

// ChooseTrack returns tracks[TrackIndex], clamped to the last track
func (s *Scripted) ChooseTrack(tracks []discogs.Track) (discogs.Track, bool) {
	if s.QuitAt == StepTrack || len(tracks) == 0 {
		return discogs.Track{}, false
	}
	return tracks[clampIndex(s.TrackIndex, len(tracks))], true
}

// ContinueAfterError keeps going unless AbortOnError is set
func (s *Scripted) ContinueAfterError(err error) bool {
	return !s.AbortOnError
}

// Reset clears per-item state so one Scripted can serve a whole batch
func (s *Scripted) Reset() {
	s.customQueryUsed = false
	s.artistCalls = 0
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
