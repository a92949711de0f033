package format

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/dgallion1/docsect/internal/outline"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownFormat handles Markdown files using goldmark. The document text is
// the file itself.
type MarkdownFormat struct{}

func (f *MarkdownFormat) Render(src []byte) (string, error) {
	return string(src), nil
}

func (f *MarkdownFormat) Outline(doc string) (*outline.Outline, error) {
	return markdownOutline(doc)
}

var setextUnderline = regexp.MustCompile(`^[ \t>]*(?:=+|-+)[ \t\r]*$`)

// markdownOutline walks the goldmark AST of doc and records headings and
// hashtags with their positions in doc.
//
// Tags are scanned over whole block lines rather than per text node, since
// goldmark splits text at emphasis delimiters such as '_'. Inline code and
// raw HTML are blanked in a copy first so tags inside them are not found.
func markdownOutline(doc string) (*outline.Outline, error) {
	src := []byte(doc)
	blankFrontMatter(src)

	root := goldmark.New().Parser().Parse(text.NewReader(src))
	idx := outline.NewLineIndex(doc)
	ol := &outline.Outline{}
	scan := bytes.Clone(src)
	var blocks []ast.Node

	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if h, ok := markdownHeading(node, doc, idx); ok {
				ol.Headings = append(ol.Headings, h)
			}
			blocks = append(blocks, node)
		case *ast.Paragraph, *ast.TextBlock:
			blocks = append(blocks, node)
		case *ast.CodeSpan:
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					blankSegment(scan, t.Segment)
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			for i := 0; i < node.Segments.Len(); i++ {
				blankSegment(scan, node.Segments.At(i))
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	scanText := string(scan)
	for _, b := range blocks {
		lines := b.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			ol.Tags = append(ol.Tags, outline.ScanTags(scanText, seg.Start, seg.Stop, idx)...)
		}
	}
	return ol, nil
}

func blankSegment(src []byte, seg text.Segment) {
	for i := max(seg.Start, 0); i < seg.Stop && i < len(src); i++ {
		if src[i] != '\n' {
			src[i] = ' '
		}
	}
}

// markdownHeading locates a heading node in doc. The span covers whole
// lines: from the start of the first line to the end of the last one, which
// for a setext heading is its underline. Headings with no text have no
// segments to locate and are skipped.
func markdownHeading(node *ast.Heading, doc string, idx *outline.LineIndex) (outline.Heading, bool) {
	lines := node.Lines()
	if lines.Len() == 0 {
		return outline.Heading{}, false
	}

	var parts []string
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		parts = append(parts, strings.TrimSpace(doc[seg.Start:seg.Stop]))
	}

	first := idx.Position(lines.At(0).Start).Line
	lastSeg := lines.At(lines.Len() - 1)
	last := idx.Position(max(lastSeg.Start, lastSeg.Stop-1)).Line
	start := idx.LineStart(first)
	if !atxPrefix.MatchString(doc[start:idx.LineEnd(first)]) && last+1 < idx.Lines() {
		if setextUnderline.MatchString(doc[idx.LineStart(last+1):idx.LineEnd(last+1)]) {
			last++
		}
	}

	return outline.Heading{
		Text:  strings.Join(parts, " "),
		Level: node.Level,
		Position: outline.Span{
			Start: idx.Position(start),
			End:   idx.Position(idx.LineEnd(last)),
		},
	}, true
}

// blankFrontMatter overwrites a leading YAML front matter block with spaces,
// keeping newlines, so goldmark does not read its closing fence as a setext
// underline while offsets stay unchanged.
func blankFrontMatter(src []byte) {
	if !bytes.HasPrefix(src, []byte("---\n")) {
		return
	}
	end := bytes.Index(src[4:], []byte("\n---"))
	if end < 0 {
		return
	}
	stop := 4 + end + len("\n---")
	if stop < len(src) && src[stop] != '\n' && src[stop] != '\r' {
		return
	}
	for i := 0; i < stop; i++ {
		if src[i] != '\n' {
			src[i] = ' '
		}
	}
}
