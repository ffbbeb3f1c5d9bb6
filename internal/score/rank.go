package score

import (
	"sort"
	"strings"

	"github.com/franz/yarkie/internal/discogs"
	"github.com/franz/yarkie/internal/meta"
)

// Policy controls candidate ranking
type Policy struct {
	// YearWindow is the width in years of the aligned buckets that count as
	// "the same time". Within a bucket albums beat singles; across buckets
	// the earlier bucket wins. Values below 1 mean 1 (same calendar year).
	YearWindow int
}

// DefaultPolicy ranks albums ahead of singles released in the same calendar year
func DefaultPolicy() Policy {
	return Policy{YearWindow: 1}
}

// Tier values: lower ranks first
const (
	tierAlbum = iota
	tierSingle
	tierOther
	tierVideo
)

// rankedCandidate carries the precomputed sort keys of one candidate
type rankedCandidate struct {
	release discogs.Release
	index   int // upstream relevance order
	group   int // similarity group, numbered by first appearance
	bucket  int
	tier    int
	undated bool
}

// RankReleases orders search candidates so the canonical match comes first.
// The result is a new slice holding a permutation of the input.
//
// Order: dated before undated, non-video before video, then by similarity
// group (same credited artist, in upstream order of first appearance), year
// bucket, tier (album/compilation, single/EP, other), year, and finally
// upstream index.
func RankReleases(candidates []discogs.Release, policy Policy) []discogs.Release {
	if len(candidates) == 0 {
		return []discogs.Release{}
	}

	window := policy.YearWindow
	if window < 1 {
		window = 1
	}

	groups := make(map[string]int)
	ranked := make([]rankedCandidate, len(candidates))
	for i, c := range candidates {
		key := similarityKey(c)
		group, ok := groups[key]
		if !ok {
			group = len(groups)
			groups[key] = group
		}

		ranked[i] = rankedCandidate{
			release: c,
			index:   i,
			group:   group,
			bucket:  c.Year / window,
			tier:    tierOf(Classify(c)),
			undated: c.Year <= 0,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i], ranked[j])
	})

	result := make([]discogs.Release, len(ranked))
	for i, r := range ranked {
		result[i] = r.release
	}
	return result
}

// less compares two candidates
// Tie-breakers: dated → non-video → group → bucket → tier → year → upstream index
func less(a, b rankedCandidate) bool {
	// Undated candidates go last
	if a.undated != b.undated {
		return !a.undated
	}

	// Video releases are never the canonical audio match
	aVideo, bVideo := a.tier == tierVideo, b.tier == tierVideo
	if aVideo != bVideo {
		return !aVideo
	}

	if a.group != b.group {
		return a.group < b.group
	}

	// Earlier time window first
	if a.bucket != b.bucket {
		return a.bucket < b.bucket
	}

	// Same window: album beats single
	if a.tier != b.tier {
		return a.tier < b.tier
	}

	// Oldest instance first
	if a.release.Year != b.release.Year {
		return a.release.Year < b.release.Year
	}

	// Deterministic: keep upstream relevance
	return a.index < b.index
}

// similarityKey groups candidates credited to the same artist. Search titles
// carry the artist ("Artist - Title"); when they do not, the normalized
// title is used instead.
func similarityKey(r discogs.Release) string {
	if artist := meta.NormalizeArtist(r.Artist); artist != "" {
		return "a:" + artist
	}
	return "t:" + meta.NormalizeTitle(r.Title)
}

// Classify determines the release kind. An explicit Kind wins; otherwise
// the Discogs format strings decide.
func Classify(r discogs.Release) discogs.Kind {
	if r.Kind != discogs.KindUnknown {
		return r.Kind
	}

	formats := make(map[string]bool, len(r.Formats))
	for _, f := range r.Formats {
		formats[strings.ToLower(strings.TrimSpace(f))] = true
	}

	has := func(names ...string) bool {
		for _, n := range names {
			if formats[n] {
				return true
			}
		}
		return false
	}

	switch {
	case has("vhs", "dvd", "dvdr", "blu-ray", "blu-ray-r", "pal", "ntsc", "laserdisc", "betamax"):
		return discogs.KindVideo
	case has("compilation"):
		return discogs.KindCompilation
	case has("album", "lp", "33 ⅓ rpm", "mini-album"):
		return discogs.KindAlbum
	case has("ep"):
		return discogs.KindEP
	case has("single", "maxi-single", "45 rpm", "flexi-disc", `7"`, `12"`):
		return discogs.KindSingle
	default:
		return discogs.KindOther
	}
}

func tierOf(kind discogs.Kind) int {
	switch kind {
	case discogs.KindAlbum, discogs.KindCompilation:
		return tierAlbum
	case discogs.KindSingle, discogs.KindEP:
		return tierSingle
	case discogs.KindVideo:
		return tierVideo
	default:
		return tierOther
	}
}
