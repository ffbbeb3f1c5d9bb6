package meta

import (
	"regexp"
	"strings"

	"github.com/franz/yarkie/internal/store"
)

var parentheticalPattern = regexp.MustCompile(` \(.*?\)`)

const descriptionPrefixLen = 64

// GenerateQueries builds candidate search strings for an item, most specific
// first: the cleaned title, "title - uploader", a line from the description,
// then "artist - title" from embedded file tags when available. Empty and
// duplicate strings are dropped; order is kept.
func GenerateQueries(item *store.Item, fileTags *FileTags) []string {
	var queries []string

	cleanTitle := strings.TrimSpace(parentheticalPattern.ReplaceAllString(item.Title, ""))
	queries = append(queries, cleanTitle)

	if item.Uploader != "" {
		// YouTube appends " - Topic" to auto-generated artist channels
		uploader := strings.TrimSpace(strings.ReplaceAll(item.Uploader, " - Topic", ""))
		if uploader != "" {
			queries = append(queries, cleanTitle+" - "+uploader)
		}
	}

	if item.Description != "" {
		if line := descriptionLine(item.Description); line != "" {
			if strings.Contains(line, cleanTitle) {
				queries = append(queries, line)
			} else {
				queries = append(queries, cleanTitle+" - "+line)
			}
		}
	}

	if fileTags != nil && fileTags.Artist != "" && fileTags.Title != "" {
		queries = append(queries, fileTags.Artist+" - "+fileTags.Title)
	}

	return dedupe(queries)
}

// descriptionLine picks the third line of an auto-generated description
// ("Provided to YouTube by ...", blank, "Title · Artist"), or the start of
// the first line for free-form descriptions
func descriptionLine(description string) string {
	lines := strings.Split(strings.ReplaceAll(description, "\r\n", "\n"), "\n")

	var line string
	if len(lines) >= 3 {
		line = lines[2]
	} else {
		line = lines[0]
		if runes := []rune(line); len(runes) > descriptionPrefixLen {
			line = string(runes[:descriptionPrefixLen])
		}
	}

	return CleanString(strings.ReplaceAll(line, " · ", " "))
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result
}
