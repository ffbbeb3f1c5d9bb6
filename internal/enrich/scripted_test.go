package enrich

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franz/yarkie/internal/discogs"
)

func TestScripted_ClampsIndices(t *testing.T) {
	s := &Scripted{QueryIndex: 5, ReleaseIndex: -1, TrackIndex: 9}

	query, ok := s.ChooseQuery("vid1", []string{"a", "b"})
	assert.True(t, ok)
	assert.Equal(t, "b", query)

	choice := s.ChooseRelease("a", testCandidates)
	require.NotNil(t, choice.Release)
	assert.Equal(t, int64(42), choice.Release.ID)

	track, ok := s.ChooseTrack([]discogs.Track{{Title: "Brown Sugar"}, {Title: "Sway"}})
	assert.True(t, ok)
	assert.Equal(t, "Sway", track.Title)
}

func TestScripted_EmptyOptions(t *testing.T) {
	s := &Scripted{}

	_, ok := s.ChooseQuery("vid1", nil)
	assert.False(t, ok)
	assert.Equal(t, ReleaseChoice{}, s.ChooseRelease("a", nil))
	_, ok = s.ChooseTrack(nil)
	assert.False(t, ok)
	_, ok = s.PromptReleaseID("a")
	assert.False(t, ok)
	_, ok = s.SearchArtistManually()
	assert.False(t, ok)
}

func TestScripted_ArtistConfirmationsInOrder(t *testing.T) {
	s := &Scripted{ArtistConfirmations: []bool{false, true, false}}
	artist := discogs.ArtistCredit{ID: 1, Name: "A"}

	got := []bool{
		s.ConfirmArtist(artist),
		s.ConfirmArtist(artist),
		s.ConfirmArtist(artist),
		s.ConfirmArtist(artist),
	}
	assert.Equal(t, []bool{false, true, false, true}, got)

	s.Reset()
	assert.False(t, s.ConfirmArtist(artist))
}

func TestScripted_CustomQueryThenReleaseID(t *testing.T) {
	s := &Scripted{CustomQuery: "stones", ReleaseID: "42"}

	assert.Equal(t, ReleaseChoice{Query: "stones"}, s.ChooseRelease("a", testCandidates))
	assert.Equal(t, ReleaseChoice{ReleaseID: "42"}, s.ChooseRelease("stones", testCandidates))

	s.Reset()
	assert.Equal(t, ReleaseChoice{Query: "stones"}, s.ChooseRelease("a", testCandidates))
}

func TestScripted_ContinueAfterError(t *testing.T) {
	err := errors.New("boom")
	assert.True(t, (&Scripted{}).ContinueAfterError(err))
	assert.False(t, (&Scripted{AbortOnError: true}).ContinueAfterError(err))
}
