package outline

import (
	"errors"
	"fmt"
)

// ErrInvalidOutline is returned by Validate when two headings share a start
// line or appear out of document order.
var ErrInvalidOutline = errors.New("invalid outline")

// Position is a point in a document, addressed both by line/column and by
// byte offset from the start of the text. Line and Col are 0-based.
type Position struct {
	Line   int `json:"line"`
	Col    int `json:"col"`
	Offset int `json:"offset"`
}

// Span is a half-open range of the document text.
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Heading is a single heading line.
//
// Position.End.Offset points at the character terminating the heading line:
// the newline, or len(text) when the heading is the last line of the text.
type Heading struct {
	Text     string `json:"heading"`
	Level    int    `json:"level"`
	Position Span   `json:"position"`
}

// Tag is an inline #tag. Name includes the leading '#'.
type Tag struct {
	Name     string `json:"tag"`
	Position Span   `json:"position"`
}

// Outline is the structural summary of one document. Headings are in
// document order.
type Outline struct {
	Headings []Heading `json:"headings"`
	Tags     []Tag     `json:"tags"`
}

// Validate checks that heading start lines are strictly increasing, so that
// every tag line resolves to at most one heading.
func (o *Outline) Validate() error {
	for i := 1; i < len(o.Headings); i++ {
		prev, cur := o.Headings[i-1], o.Headings[i]
		if cur.Position.Start.Line <= prev.Position.Start.Line {
			return fmt.Errorf("%w: heading %q on line %d follows %q on line %d",
				ErrInvalidOutline, cur.Text, cur.Position.Start.Line, prev.Text, prev.Position.Start.Line)
		}
	}
	return nil
}

// HeadingAt returns the first heading starting on the given line.
func (o *Outline) HeadingAt(line int) (Heading, bool) {
	for _, h := range o.Headings {
		if h.Position.Start.Line == line {
			return h, true
		}
	}
	return Heading{}, false
}
