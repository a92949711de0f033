package format

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docsect/internal/outline"
	"golang.org/x/net/html"
)

// HTMLFormat handles HTML files. The document text is the raw markup; the
// outline is computed with the tokenizer so offsets point into that markup.
type HTMLFormat struct{}

func (f *HTMLFormat) Render(src []byte) (string, error) {
	return string(src), nil
}

func (f *HTMLFormat) Outline(doc string) (*outline.Outline, error) {
	idx := outline.NewLineIndex(doc)
	ol := &outline.Outline{}
	z := html.NewTokenizer(strings.NewReader(doc))

	var (
		offset int
		skip   int // depth inside script/style
		cur    *outline.Heading
		title  strings.Builder
	)

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				break
			}
			return nil, fmt.Errorf("tokenize html: %w", z.Err())
		}
		start := offset
		offset += len(z.Raw())

		switch tt {
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				skip++
				continue
			}
			if level := headingLevel(tag); level > 0 && cur == nil {
				cur = &outline.Heading{Level: level}
				cur.Position.Start = idx.Position(idx.LineStart(idx.Position(start).Line))
				title.Reset()
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && skip > 0 {
				skip--
				continue
			}
			if cur != nil && headingLevel(tag) == cur.Level {
				cur.Text = strings.Join(strings.Fields(title.String()), " ")
				cur.Position.End = idx.Position(headingEnd(doc, offset))
				ol.Headings = append(ol.Headings, *cur)
				cur = nil
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			if cur != nil {
				title.Write(z.Text())
			}
			ol.Tags = append(ol.Tags, outline.ScanTags(doc, start, offset, idx)...)
		}
	}
	return ol, nil
}

// headingEnd picks the End offset for a heading whose closing tag ends at
// offset. When the closing tag ends its line the newline terminates the
// heading; otherwise the last byte of the tag does, so the section body
// starts immediately after it.
func headingEnd(doc string, offset int) int {
	if offset < len(doc) && doc[offset] == '\n' {
		return offset
	}
	return offset - 1
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}
