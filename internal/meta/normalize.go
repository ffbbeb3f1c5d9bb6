package meta

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/franz/yarkie/internal/store"
)

var (
	whitespacePattern = regexp.MustCompile(`\s+`)

	versionSuffixPatterns = []*regexp.Regexp{
		// Parentheses: (Remix), (Live), (Remaster), (Radio Edit), (Official Video), etc.
		regexp.MustCompile(`(?i)\s*\([^)]*?(remix|live|acoustic|demo|instrumental|radio|edit|extended|version|mix|remaster|deluxe|bonus|anniversary|edition|unplugged|session|concert|recording|alternate|original|single|album|explicit|clean|vocal|karaoke|cover|official|video|audio|lyric|visualizer|hd|hq).*?\)`),

		// Brackets: [Remaster], [Official Video], [Live], etc.
		regexp.MustCompile(`(?i)\s*\[[^\]]*?(remix|live|acoustic|demo|instrumental|radio|edit|extended|version|mix|remaster|deluxe|bonus|anniversary|edition|unplugged|session|concert|recording|alternate|original|single|album|explicit|clean|vocal|karaoke|cover|official|video|audio|lyric|visualizer|hd|hq).*?\]`),

		// Trailing patterns without punctuation: "Song Title Remastered", "Song Title Live"
		regexp.MustCompile(`(?i)\s+(remastered|remix|live|acoustic|demo|instrumental|unplugged)$`),
	}

	// Discogs appends " (2)", " (13)" to disambiguate artists sharing a name
	disambiguationPattern = regexp.MustCompile(`\s*\(\d+\)$`)
)

// NormalizeArtist normalizes an artist name for comparison
func NormalizeArtist(artist string) string {
	if artist == "" {
		return ""
	}

	// Unicode NFC normalization
	artist = norm.NFC.String(artist)

	// Lowercase
	artist = strings.ToLower(artist)

	// Trim whitespace
	artist = strings.TrimSpace(artist)

	artist = disambiguationPattern.ReplaceAllString(artist, "")

	// Handle "Artist, The" -> "the artist"
	if strings.HasSuffix(artist, ", the") {
		artist = "the " + strings.TrimSuffix(artist, ", the")
	}

	// Remove common punctuation
	artist = removePunctuation(artist)

	// Collapse multiple spaces
	artist = collapseWhitespace(artist)

	return artist
}

// NormalizeTitle normalizes a song or release title for comparison
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}

	// Unicode NFC normalization
	title = norm.NFC.String(title)

	// Lowercase
	title = strings.ToLower(title)

	// Trim whitespace
	title = strings.TrimSpace(title)

	// Remove version suffixes in parentheses (keep base title)
	// e.g., "Song (Remix)" -> "song"
	title = removeVersionSuffixes(title)

	// Remove common punctuation
	title = removePunctuation(title)

	// Collapse whitespace
	title = collapseWhitespace(title)

	return title
}

// CleanString performs basic string cleaning (Unicode, trim, collapse)
func CleanString(s string) string {
	if s == "" {
		return ""
	}

	// Unicode NFC normalization
	s = norm.NFC.String(s)

	// Trim whitespace
	s = strings.TrimSpace(s)

	// Collapse whitespace
	s = collapseWhitespace(s)

	return s
}

// CleanArtistName turns a Discogs artist name into the form used for songs:
// "Rolling Stones, The (2)" -> "Rolling Stones", "The Beatles" -> "Beatles"
func CleanArtistName(artist string) string {
	artist = CleanString(artist)
	artist = disambiguationPattern.ReplaceAllString(artist, "")
	artist = strings.TrimSuffix(artist, ", The")

	if len(artist) > 4 && strings.EqualFold(artist[:4], "the ") {
		artist = artist[4:]
	}

	return strings.TrimSpace(artist)
}

// removePunctuation removes common punctuation characters
func removePunctuation(s string) string {
	// Remove: . , ! ? ' " : ; - /
	replacer := strings.NewReplacer(
		".", "",
		",", "",
		"!", "",
		"?", "",
		"'", "",
		"\"", "",
		":", "",
		";", "",
		"-", " ",
		"_", " ",
		"&", "and",
		"/", "",
	)
	return replacer.Replace(s)
}

// collapseWhitespace replaces multiple spaces with a single space
func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// removeVersionSuffixes removes version and upload-decoration suffixes so
// "Song (Live)", "Song [Official Video]" and "Song" compare equal
func removeVersionSuffixes(s string) string {
	for _, re := range versionSuffixPatterns {
		s = re.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}

var (
	lessonPattern = regexp.MustCompile(`(?i)\b(lesson|tutorial|how to play|guitar chords|play along)\b`)
	coverPattern  = regexp.MustCompile(`(?i)\b(cover|covered by|tribute|performed by)\b`)
	livePattern   = regexp.MustCompile(`(?i)\b(live|concert|session|unplugged)\b`)
	otherPattern  = regexp.MustCompile(`(?i)\b(remix|karaoke|instrumental|backing track|mashup|bootleg)\b`)
)

// DetectVersionType detects how a recording relates to its song from a title.
// Precedence: lesson > cover > live > other > original
func DetectVersionType(title string) store.VersionType {
	switch {
	case title == "":
		return store.VersionOriginal
	case lessonPattern.MatchString(title):
		return store.VersionLesson
	case coverPattern.MatchString(title):
		return store.VersionCover
	case livePattern.MatchString(title):
		return store.VersionLive
	case otherPattern.MatchString(title):
		return store.VersionOther
	default:
		return store.VersionOriginal
	}
}
