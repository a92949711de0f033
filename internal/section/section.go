// Package section extracts heading-bounded sections from document text.
//
// A section is the body of a heading: everything from the line after the
// heading up to the next heading at the same or a shallower level, or the
// end of the text. Deeper sub-headings are part of the body.
package section

import (
	"strings"

	"github.com/dgallion1/docsect/internal/outline"
)

// Section is one extracted heading body.
type Section struct {
	Heading string `json:"heading"`
	Link    string `json:"link"`
	Content string `json:"content"`
}

// TagMatcher selects tags.
type TagMatcher func(outline.Tag) bool

// HeadingMatcher selects headings.
type HeadingMatcher func(outline.Heading) bool

// TagName matches tags by exact name, including the leading '#'.
func TagName(name string) TagMatcher {
	return func(t outline.Tag) bool { return t.Name == name }
}

// AnyTag matches tags whose name is any of names.
func AnyTag(names ...string) TagMatcher {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(t outline.Tag) bool { return set[t.Name] }
}

// HeadingLevel matches headings of exactly the given level.
func HeadingLevel(level int) HeadingMatcher {
	return func(h outline.Heading) bool { return h.Level == level }
}

// HeadingText matches headings by exact title text.
func HeadingText(text string) HeadingMatcher {
	return func(h outline.Heading) bool { return h.Text == text }
}

// ExtractByTag emits one section for every matching tag that sits on a
// heading's start line, in tag order. Tags on any other line are skipped.
// Two matching tags on the same heading produce two sections.
func ExtractByTag(docName, text string, ol *outline.Outline, match TagMatcher, links Linker) []Section {
	var sections []Section
	for _, tag := range ol.Tags {
		if !match(tag) {
			continue
		}
		h, ok := ol.HeadingAt(tag.Position.Start.Line)
		if !ok {
			continue
		}
		sections = append(sections, build(docName, text, ol.Headings, h, links))
	}
	return sections
}

// ExtractByHeading emits one section per matching heading, in document order.
func ExtractByHeading(docName, text string, ol *outline.Outline, match HeadingMatcher, links Linker) []Section {
	var sections []Section
	for _, h := range ol.Headings {
		if match(h) {
			sections = append(sections, build(docName, text, ol.Headings, h, links))
		}
	}
	return sections
}

func build(docName, text string, headings []outline.Heading, h outline.Heading, links Linker) Section {
	start := h.Position.End.Offset + 1 // skip the newline ending the heading line
	end := len(text)
	if next, ok := nextBoundary(headings, h); ok {
		end = next.Position.Start.Offset
	}
	return Section{
		Heading: RenderHeading(h.Text, h.Level),
		Link:    links.SectionLink(docName, h.Text),
		Content: substring(text, start, end),
	}
}

// nextBoundary finds the first heading after h at the same or a shallower
// level.
func nextBoundary(headings []outline.Heading, h outline.Heading) (outline.Heading, bool) {
	for _, next := range headings {
		if next.Level <= h.Level && next.Position.Start.Line > h.Position.Start.Line {
			return next, true
		}
	}
	return outline.Heading{}, false
}

// substring slices text[start:end] with both bounds clamped to the text, so
// a heading on the last line with no trailing newline yields "".
func substring(text string, start, end int) string {
	start = min(max(start, 0), len(text))
	end = min(max(end, 0), len(text))
	if start >= end {
		return ""
	}
	return text[start:end]
}

// RenderHeading returns the heading line as written: level '#' markers and a
// space before the text, or the bare text for a non-positive level.
func RenderHeading(text string, level int) string {
	if level > 0 {
		return strings.Repeat("#", level) + " " + text
	}
	return text
}
