// Package markup parses and renders the small markup subset used in
// assistant replies: "**bold**" spans, "• " bullet lines and "_emphasis_" lines.
package markup

import "strings"

const (
	boldMarker   = "**"
	bulletPrefix = "• "
	emphMarker   = "_"
)

// LineKind classifies a line of content.
type LineKind int

const (
	LinePlain LineKind = iota
	LineBullet
	LineEmphasis
)

// Segment is a run of text inside a line.
type Segment struct {
	Text string
	Bold bool
}

// Line is one parsed line. For bullets the prefix is not part of Segments;
// for emphasis lines the underscores are not part of Segments.
type Line struct {
	Kind     LineKind
	Segments []Segment
}

// Text returns the line's visible text without markers.
func (l Line) Text() string {
	var b strings.Builder
	for _, s := range l.Segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Parse splits content into lines and recognises the markup subset.
func Parse(content string) []Line {
	raw := strings.Split(content, "\n")
	lines := make([]Line, 0, len(raw))
	for _, r := range raw {
		lines = append(lines, parseLine(r))
	}
	return lines
}

func parseLine(s string) Line {
	switch {
	case strings.HasPrefix(s, bulletPrefix):
		return Line{Kind: LineBullet, Segments: parseSpans(strings.TrimPrefix(s, bulletPrefix))}
	case len(s) >= 2 && strings.HasPrefix(s, emphMarker) && strings.HasSuffix(s, emphMarker):
		return Line{Kind: LineEmphasis, Segments: []Segment{{Text: s[1 : len(s)-1]}}}
	default:
		return Line{Kind: LinePlain, Segments: parseSpans(s)}
	}
}

// parseSpans splits s on bold markers. An unmatched trailing marker stays literal.
func parseSpans(s string) []Segment {
	parts := strings.Split(s, boldMarker)
	if len(parts)%2 == 0 {
		last := len(parts) - 1
		parts[last-1] = parts[last-1] + boldMarker + parts[last]
		parts = parts[:last]
	}

	segs := make([]Segment, 0, len(parts))
	for i, p := range parts {
		bold := i%2 == 1
		if p == "" && !bold {
			continue
		}
		segs = append(segs, Segment{Text: p, Bold: bold})
	}
	return segs
}

// Format turns parsed lines back into markup. Format(Parse(s)) == s.
func Format(lines []Line) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		var b strings.Builder
		switch l.Kind {
		case LineBullet:
			b.WriteString(bulletPrefix)
		case LineEmphasis:
			b.WriteString(emphMarker + l.Text() + emphMarker)
			out = append(out, b.String())
			continue
		}
		for _, s := range l.Segments {
			if s.Bold {
				b.WriteString(boldMarker + s.Text + boldMarker)
			} else {
				b.WriteString(s.Text)
			}
		}
		out = append(out, b.String())
	}
	return strings.Join(out, "\n")
}

// Strip returns content with bold and emphasis markers removed. Bullet
// prefixes are kept since they are visible text.
func Strip(content string) string {
	lines := Parse(content)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Kind == LineBullet {
			out = append(out, bulletPrefix+l.Text())
			continue
		}
		out = append(out, l.Text())
	}
	return strings.Join(out, "\n")
}
