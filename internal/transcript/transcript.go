// Package transcript parses timestamped model output into segments and
// renders them back as the downloadable transcript text.
package transcript

import (
	"regexp"
	"strings"
)

var reMarker = regexp.MustCompile(`\[\d{1,2}:\d{2}\]`)

// Segment is one timestamped unit of transcribed speech. Timestamp is empty
// for untimed text.
type Segment struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// Parser splits raw text on [MM:SS] markers. The zero value drops markers
// that are not followed by any text; KeepEmpty preserves them as segments
// with empty text.
type Parser struct {
	KeepEmpty bool
}

// Format parses raw with the default Parser.
func Format(raw string) []Segment {
	return Parser{}.Parse(raw)
}

// Parse never fails: text without markers becomes a single untimed segment.
func (p Parser) Parse(raw string) []Segment {
	locs := reMarker.FindAllStringIndex(raw, -1)
	if len(locs) == 0 {
		return []Segment{{Text: strings.TrimSpace(raw)}}
	}

	segs := make([]Segment, 0, len(locs)+1)
	if lead := strings.TrimSpace(raw[:locs[0][0]]); lead != "" {
		segs = append(segs, Segment{Text: lead})
	}

	for i, loc := range locs {
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		text := strings.TrimSpace(raw[loc[1]:end])
		if text == "" && !p.KeepEmpty {
			continue
		}
		segs = append(segs, Segment{Timestamp: raw[loc[0]:loc[1]], Text: text})
	}
	return segs
}

// Render produces one "[MM:SS] text" line per segment, joined by "\n".
func Render(segs []Segment) string {
	lines := make([]string, 0, len(segs))
	for _, s := range segs {
		switch {
		case s.Timestamp == "":
			lines = append(lines, s.Text)
		case s.Text == "":
			lines = append(lines, s.Timestamp)
		default:
			lines = append(lines, s.Timestamp+" "+s.Text)
		}
	}
	return strings.Join(lines, "\n")
}

// Text joins segment texts without timestamps, for summarization input.
func Text(segs []Segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, "\n")
}
