package enrich

import (
	"github.com/franz/yarkie/internal/discogs"
)

// ReleaseChoice is the answer to a release menu. At most one field is set;
// all empty means the operator made no selection.
type ReleaseChoice struct {
	Release   *discogs.Release // a candidate from the menu
	Query     string           // search again with this string
	ReleaseID string           // fetch this release id directly, skipping search
}

// Strategy makes every decision the workflow needs. The scripted variant
// answers from presets; the interactive variant asks a human.
type Strategy interface {
	// ChooseQuery picks one of the generated search strings or supplies a
	// custom one. false means no selection.
	ChooseQuery(itemID string, options []string) (string, bool)

	// ChooseRelease picks a ranked candidate, a new query or a manual id
	ChooseRelease(query string, candidates []discogs.Release) ReleaseChoice

	// PromptReleaseID asks for a release id after a search found nothing
	PromptReleaseID(query string) (string, bool)

	// ConfirmArtist decides whether a credited artist is kept
	ConfirmArtist(artist discogs.ArtistCredit) bool

	// SearchArtistManually supplies an artist search string when no credited
	// artist was confirmed
	SearchArtistManually() (string, bool)

	// ChooseTrack picks the track matching the item
	ChooseTrack(tracks []discogs.Track) (discogs.Track, bool)

	// ContinueAfterError decides whether a batch goes on after an item failed
	ContinueAfterError(err error) bool
}
