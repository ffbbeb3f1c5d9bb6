package enrich

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/franz/yarkie/internal/discogs"
	"github.com/franz/yarkie/internal/report"
)

const quitToken = "q"

// Interactive asks a human through numbered menus. Invalid input re-prompts;
// end of input counts as quitting.
type Interactive struct {
	scanner *bufio.Scanner
	out     io.Writer
	eof     bool
}

// NewInteractive reads answers from in and writes menus to out
func NewInteractive(in io.Reader, out io.Writer) *Interactive {
	return &Interactive{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// readLine prompts and returns the trimmed answer; false at end of input
func (s *Interactive) readLine(prompt string) (string, bool) {
	if s.eof {
		return "", false
	}
	fmt.Fprint(s.out, prompt)
	if !s.scanner.Scan() {
		s.eof = true
		fmt.Fprintln(s.out)
		return "", false
	}
	return strings.TrimSpace(s.scanner.Text()), true
}

// parseChoice converts a 1-based menu answer into an index
func parseChoice(answer string, n int) (int, bool) {
	i, err := strconv.Atoi(answer)
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// ChooseQuery shows the generated search strings; free text is a custom query
func (s *Interactive) ChooseQuery(itemID string, options []string) (string, bool) {
	rows := make([][]string, len(options))
	for i, o := range options {
		rows[i] = []string{strconv.Itoa(i + 1), o}
	}
	fmt.Fprintf(s.out, "\nItem %s\n%s\n", itemID, report.RenderTable([]string{"#", "Search string"}, rows, []report.Alignment{report.AlignRight}))

	prompt := fmt.Sprintf("Select [1-%d], type a custom search, or %s to quit: ", len(options), quitToken)
	if len(options) == 0 {
		prompt = fmt.Sprintf("Type a search, or %s to quit: ", quitToken)
	}

	for {
		answer, ok := s.readLine(prompt)
		if !ok || strings.EqualFold(answer, quitToken) {
			return "", false
		}
		if answer == "" {
			continue
		}
		if i, ok := parseChoice(answer, len(options)); ok {
			return options[i], true
		}
		return answer, true
	}
}

// ChooseRelease shows the ranked candidates. "#<id>" enters a release id,
// other free text searches again.
func (s *Interactive) ChooseRelease(query string, candidates []discogs.Release) ReleaseChoice {
	rows := make([][]string, len(candidates))
	for i, c := range candidates {
		year := ""
		if c.Year > 0 {
			year = strconv.Itoa(c.Year)
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			c.Artist,
			c.Title,
			year,
			c.Country,
			strings.Join(c.Formats, ", "),
			fmt.Sprintf("%s %d", c.Type, c.ID),
		}
	}
	fmt.Fprintf(s.out, "\nResults for %q\n%s\n", query, report.RenderTable(
		[]string{"#", "Artist", "Title", "Year", "Country", "Format", "ID"},
		rows,
		[]report.Alignment{report.AlignRight, report.AlignLeft, report.AlignLeft, report.AlignRight},
	))

	prompt := fmt.Sprintf("Select [1-%d], #<id> for a release id, type a new search, or %s to quit: ", len(candidates), quitToken)

	for {
		answer, ok := s.readLine(prompt)
		if !ok || strings.EqualFold(answer, quitToken) {
			return ReleaseChoice{}
		}
		if answer == "" {
			continue
		}
		if strings.HasPrefix(answer, "#") {
			id := strings.TrimSpace(strings.TrimPrefix(answer, "#"))
			if !isNumeric(id) {
				fmt.Fprintf(s.out, "Invalid release id %q\n", id)
				continue
			}
			return ReleaseChoice{ReleaseID: id}
		}
		if i, ok := parseChoice(answer, len(candidates)); ok {
			chosen := candidates[i]
			return ReleaseChoice{Release: &chosen}
		}
		return ReleaseChoice{Query: answer}
	}
}

// PromptReleaseID asks for a numeric release id after an empty search
func (s *Interactive) PromptReleaseID(query string) (string, bool) {
	fmt.Fprintf(s.out, "\nNo results for %q\n", query)
	for {
		answer, ok := s.readLine(fmt.Sprintf("Enter a Discogs release id, or %s to skip: ", quitToken))
		if !ok || strings.EqualFold(answer, quitToken) {
			return "", false
		}
		answer = strings.TrimPrefix(answer, "#")
		if isNumeric(answer) {
			return answer, true
		}
		if answer != "" {
			fmt.Fprintf(s.out, "Invalid release id %q\n", answer)
		}
	}
}

// ConfirmArtist asks y/n; quitting or end of input declines
func (s *Interactive) ConfirmArtist(artist discogs.ArtistCredit) bool {
	label := artist.Name
	if artist.Role != "" {
		label += " [" + artist.Role + "]"
	}
	return s.confirm(fmt.Sprintf("Include artist %s (%d)? [y/n]: ", label, artist.ID))
}

// SearchArtistManually asks for an artist search string; an empty answer
// continues without artists
func (s *Interactive) SearchArtistManually() (string, bool) {
	answer, ok := s.readLine("No artist confirmed. Artist search (empty to continue without artists): ")
	if !ok || answer == "" || strings.EqualFold(answer, quitToken) {
		return "", false
	}
	return answer, true
}

// ChooseTrack shows the tracklist
func (s *Interactive) ChooseTrack(tracks []discogs.Track) (discogs.Track, bool) {
	rows := make([][]string, len(tracks))
	for i, t := range tracks {
		rows[i] = []string{strconv.Itoa(i + 1), t.Position, t.Title, t.Duration}
	}
	fmt.Fprintf(s.out, "\n%s\n", report.RenderTable(
		[]string{"#", "Pos", "Title", "Duration"},
		rows,
		[]report.Alignment{report.AlignRight, report.AlignLeft, report.AlignLeft, report.AlignRight},
	))

	prompt := fmt.Sprintf("Select track [1-%d], or %s to quit: ", len(tracks), quitToken)
	for {
		answer, ok := s.readLine(prompt)
		if !ok || strings.EqualFold(answer, quitToken) {
			return discogs.Track{}, false
		}
		if i, ok := parseChoice(answer, len(tracks)); ok {
			return tracks[i], true
		}
		if answer != "" {
			fmt.Fprintf(s.out, "Invalid choice %q\n", answer)
		}
	}
}

// ContinueAfterError asks whether the batch goes on
func (s *Interactive) ContinueAfterError(err error) bool {
	fmt.Fprintf(s.out, "\nError: %v\n", err)
	return s.confirm("Continue with the next item? [y/n]: ")
}

func (s *Interactive) confirm(prompt string) bool {
	for {
		answer, ok := s.readLine(prompt)
		if !ok {
			return false
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true
		case "n", "no", quitToken:
			return false
		}
	}
}
