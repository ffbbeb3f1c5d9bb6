package score

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"github.com/franz/yarkie/internal/discogs"
)

func ids(releases []discogs.Release) []int64 {
	out := make([]int64, len(releases))
	for i, r := range releases {
		out[i] = r.ID
	}
	return out
}

func TestRankReleasesEmpty(t *testing.T) {
	result := RankReleases(nil, DefaultPolicy())
	if result == nil || len(result) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", result)
	}
}

func TestRankReleasesAlbumBeatsSingle(t *testing.T) {
	// Search relevance puts the single first
	candidates := []discogs.Release{
		{ID: 1, Title: "Brown Sugar", Year: 1971, Kind: discogs.KindSingle},
		{ID: 2, Title: "Brown Sugar", Year: 1971, Kind: discogs.KindAlbum},
	}

	result := RankReleases(candidates, DefaultPolicy())

	if got := ids(result); !reflect.DeepEqual(got, []int64{2, 1}) {
		t.Errorf("expected album first [2 1], got %v", got)
	}
	if ids(candidates)[0] != 1 {
		t.Error("input slice was mutated")
	}
}

func TestRankReleasesSameArtistDifferentTitles(t *testing.T) {
	// The album containing the single has a different title
	candidates := []discogs.Release{
		{ID: 1, Artist: "The Rolling Stones", Title: "Brown Sugar", Year: 1971, Formats: []string{"Vinyl", `7"`, "45 RPM", "Single"}},
		{ID: 2, Artist: "The Rolling Stones", Title: "Sticky Fingers", Year: 1971, Formats: []string{"Vinyl", "LP", "Album"}},
		{ID: 3, Artist: "Rolling Stones, The", Title: "Hot Rocks 1964-1971", Year: 1971, Formats: []string{"Vinyl", "LP", "Compilation"}},
	}

	result := RankReleases(candidates, DefaultPolicy())

	if got := ids(result); !reflect.DeepEqual(got, []int64{2, 3, 1}) {
		t.Errorf("expected [2 3 1], got %v", got)
	}
}

func TestRankReleasesEarliestFirst(t *testing.T) {
	candidates := []discogs.Release{
		{ID: 1, Title: "Angie", Year: 1993, Kind: discogs.KindAlbum},
		{ID: 2, Title: "Angie", Year: 1973, Kind: discogs.KindAlbum},
		{ID: 3, Title: "Angie", Year: 1980, Kind: discogs.KindAlbum},
	}

	result := RankReleases(candidates, DefaultPolicy())

	if got := ids(result); !reflect.DeepEqual(got, []int64{2, 3, 1}) {
		t.Errorf("expected [2 3 1], got %v", got)
	}
}

func TestRankReleasesUndatedLast(t *testing.T) {
	candidates := []discogs.Release{
		{ID: 1, Title: "Angie", Kind: discogs.KindAlbum},
		{ID: 2, Title: "Other", Year: 2001, Kind: discogs.KindSingle},
		{ID: 3, Title: "Angie", Year: 1973, Kind: discogs.KindSingle},
	}

	result := RankReleases(candidates, DefaultPolicy())

	if result[len(result)-1].ID != 1 {
		t.Errorf("expected undated candidate last, got %v", ids(result))
	}
}

func TestRankReleasesVideoLast(t *testing.T) {
	candidates := []discogs.Release{
		{ID: 1, Title: "Brown Sugar", Year: 1971, Formats: []string{"DVD", "PAL"}},
		{ID: 2, Title: "Brown Sugar", Year: 1975, Formats: []string{"CD", "Single"}},
		{ID: 3, Title: "Something Else", Year: 1990, Formats: []string{"CD"}},
	}

	result := RankReleases(candidates, DefaultPolicy())

	if got := ids(result); !reflect.DeepEqual(got, []int64{2, 3, 1}) {
		t.Errorf("expected video last [2 3 1], got %v", got)
	}
}

func TestRankReleasesYearWindow(t *testing.T) {
	candidates := []discogs.Release{
		{ID: 1, Title: "Song", Year: 1970, Kind: discogs.KindSingle},
		{ID: 2, Title: "Song", Year: 1971, Kind: discogs.KindAlbum},
	}

	tests := []struct {
		window   int
		expected []int64
	}{
		{0, []int64{1, 2}}, // treated as 1: different years, oldest wins
		{1, []int64{1, 2}},
		{2, []int64{2, 1}}, // 1970 and 1971 share a bucket: album wins
	}

	for _, tt := range tests {
		result := RankReleases(candidates, Policy{YearWindow: tt.window})
		if got := ids(result); !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("window %d: expected %v, got %v", tt.window, tt.expected, got)
		}
	}
}

func TestRankReleasesGroupsKeepUpstreamOrder(t *testing.T) {
	candidates := []discogs.Release{
		{ID: 1, Artist: "B", Title: "x", Year: 2000, Kind: discogs.KindSingle},
		{ID: 2, Artist: "A", Title: "y", Year: 1960, Kind: discogs.KindAlbum},
		{ID: 3, Artist: "B", Title: "z", Year: 2000, Kind: discogs.KindAlbum},
	}

	result := RankReleases(candidates, DefaultPolicy())

	if got := ids(result); !reflect.DeepEqual(got, []int64{3, 1, 2}) {
		t.Errorf("expected [3 1 2], got %v", got)
	}
}

func TestRankReleasesIsPermutation(t *testing.T) {
	kinds := []discogs.Kind{
		discogs.KindAlbum, discogs.KindSingle, discogs.KindEP, discogs.KindCompilation,
		discogs.KindVideo, discogs.KindOther, discogs.KindUnknown,
	}
	artists := []string{"", "A", "B", "C (2)"}
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 200; round++ {
		n := rng.Intn(12)
		candidates := make([]discogs.Release, n)
		for i := range candidates {
			year := 0
			if rng.Intn(4) != 0 {
				year = 1960 + rng.Intn(10)
			}
			candidates[i] = discogs.Release{
				ID:     int64(i + 1),
				Artist: artists[rng.Intn(len(artists))],
				Title:  "Song",
				Year:   year,
				Kind:   kinds[rng.Intn(len(kinds))],
			}
		}

		result := RankReleases(candidates, Policy{YearWindow: 1 + rng.Intn(3)})

		got := ids(result)
		want := ids(candidates)
		sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round %d: result is not a permutation: %v vs %v", round, got, want)
		}

		// Dated candidates always precede undated ones
		seenUndated := false
		for _, r := range result {
			if r.Year == 0 {
				seenUndated = true
			} else if seenUndated {
				t.Fatalf("round %d: dated candidate after undated: %v", round, ids(result))
			}
		}

		// Deterministic
		again := RankReleases(candidates, Policy{YearWindow: 1})
		once := RankReleases(candidates, Policy{YearWindow: 1})
		if !reflect.DeepEqual(ids(again), ids(once)) {
			t.Fatalf("round %d: ranking not deterministic", round)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		release  discogs.Release
		expected discogs.Kind
	}{
		{"explicit kind wins", discogs.Release{Kind: discogs.KindSingle, Formats: []string{"LP"}}, discogs.KindSingle},
		{"lp", discogs.Release{Formats: []string{"Vinyl", "LP", "Album"}}, discogs.KindAlbum},
		{"compilation", discogs.Release{Formats: []string{"CD", "Album", "Compilation"}}, discogs.KindCompilation},
		{"seven inch", discogs.Release{Formats: []string{"Vinyl", `7"`, "45 RPM"}}, discogs.KindSingle},
		{"ep", discogs.Release{Formats: []string{"Vinyl", `7"`, "EP"}}, discogs.KindEP},
		{"dvd", discogs.Release{Formats: []string{"DVD", "Album"}}, discogs.KindVideo},
		{"vhs", discogs.Release{Formats: []string{"VHS", "PAL"}}, discogs.KindVideo},
		{"bare cd", discogs.Release{Formats: []string{"CD"}}, discogs.KindOther},
		{"no formats", discogs.Release{}, discogs.KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.release); got != tt.expected {
				t.Errorf("Classify() = %q, want %q", got, tt.expected)
			}
		})
	}
}
