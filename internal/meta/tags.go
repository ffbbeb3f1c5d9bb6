package meta

import (
	"fmt"
	"os"

	"github.com/dhowden/tag"
)

// FileTags holds the embedded tags of a local media file
type FileTags struct {
	Format string
	Artist string
	Album  string
	Title  string
	Year   int
}

// ReadFileTags reads embedded tags with dhowden/tag. Files without a
// supported tag block return an error; callers treat that as "no tags".
func ReadFileTags(path string) (*FileTags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	artist := m.Artist()
	if artist == "" {
		artist = m.AlbumArtist()
	}

	return &FileTags{
		Format: string(m.Format()),
		Artist: CleanString(artist),
		Album:  CleanString(m.Album()),
		Title:  CleanString(m.Title()),
		Year:   m.Year(),
	}, nil
}
