package discogs

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind is the release type used for ranking
type Kind string

const (
	KindUnknown     Kind = ""
	KindAlbum       Kind = "album"
	KindCompilation Kind = "compilation"
	KindSingle      Kind = "single"
	KindEP          Kind = "ep"
	KindVideo       Kind = "video"
	KindOther       Kind = "other"
)

// Release is a search candidate or a fully fetched release/master.
// Search results carry no credits or tracklist.
type Release struct {
	ID          int64
	Type        string // "release" or "master"
	Title       string
	Artist      string // display artist from search titles
	Year        int    // 0 when undated
	Country     string
	Formats     []string
	Genres      []string
	Styles      []string
	URI         string
	Kind        Kind // overrides format-based classification when set
	Artists     []ArtistCredit
	Tracklist   []Track
	MainRelease int64 // masters only
}

// ArtistCredit is an artist credited on a release
type ArtistCredit struct {
	ID   int64
	Name string
	Role string
}

// Artist is the detail record of an artist
type Artist struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Profile string `json:"profile"`
	URI     string `json:"uri"`
}

// Track is a tracklist entry. Type is "track", "heading" or "index".
type Track struct {
	Title    string
	Duration string
	Position string
	Type     string
}

// IsTrack reports whether the entry is a playable track rather than a heading
func (t Track) IsTrack() bool {
	return t.Type == "" || t.Type == "track"
}

// DisplayTitle renders "Artist - Title" when the artist is known
func (r Release) DisplayTitle() string {
	if r.Artist == "" {
		return r.Title
	}
	return r.Artist + " - " + r.Title
}

// year accepts a JSON number, a numeric string, an empty string or null.
// Search results send strings, release details send numbers.
type year int

func (y *year) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*y = year(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*y = 0
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		*y = 0
		return nil
	}
	*y = year(n)
	return nil
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID       int64    `json:"id"`
	Type     string   `json:"type"`
	Title    string   `json:"title"`
	Year     year     `json:"year"`
	Country  string   `json:"country"`
	Format   []string `json:"format"`
	Genre    []string `json:"genre"`
	Style    []string `json:"style"`
	URI      string   `json:"uri"`
	MasterID int64    `json:"master_id"`
}

func (r searchResult) toRelease() Release {
	artist, title := splitSearchTitle(r.Title)
	return Release{
		ID:      r.ID,
		Type:    r.Type,
		Title:   title,
		Artist:  artist,
		Year:    int(r.Year),
		Country: r.Country,
		Formats: r.Format,
		Genres:  r.Genre,
		Styles:  r.Style,
		URI:     r.URI,
	}
}

// splitSearchTitle splits "Artist - Title" on the first separator
func splitSearchTitle(s string) (artist, title string) {
	if idx := strings.Index(s, " - "); idx != -1 {
		return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+3:])
	}
	return "", strings.TrimSpace(s)
}

type releaseResponse struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Year        year     `json:"year"`
	Country     string   `json:"country"`
	Genres      []string `json:"genres"`
	Styles      []string `json:"styles"`
	URI         string   `json:"uri"`
	MainRelease int64    `json:"main_release"`
	Formats     []struct {
		Name         string   `json:"name"`
		Descriptions []string `json:"descriptions"`
	} `json:"formats"`
	Artists []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Role string `json:"role"`
	} `json:"artists"`
	Tracklist []struct {
		Position string `json:"position"`
		Type     string `json:"type_"`
		Title    string `json:"title"`
		Duration string `json:"duration"`
	} `json:"tracklist"`
}

func (r releaseResponse) toRelease(kind string) Release {
	release := Release{
		ID:          r.ID,
		Type:        kind,
		Title:       r.Title,
		Year:        int(r.Year),
		Country:     r.Country,
		Genres:      r.Genres,
		Styles:      r.Styles,
		URI:         r.URI,
		MainRelease: r.MainRelease,
	}

	for _, f := range r.Formats {
		if f.Name != "" {
			release.Formats = append(release.Formats, f.Name)
		}
		release.Formats = append(release.Formats, f.Descriptions...)
	}

	names := make([]string, 0, len(r.Artists))
	for _, a := range r.Artists {
		release.Artists = append(release.Artists, ArtistCredit{ID: a.ID, Name: a.Name, Role: a.Role})
		names = append(names, a.Name)
	}
	release.Artist = strings.Join(names, ", ")

	for _, t := range r.Tracklist {
		release.Tracklist = append(release.Tracklist, Track{
			Title:    t.Title,
			Duration: t.Duration,
			Position: t.Position,
			Type:     t.Type,
		})
	}

	return release
}
