package format

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dgallion1/docsect/internal/outline"
)

// Format turns stored document bytes into document text and computes the
// outline of that text. Outline positions are byte offsets into the exact
// string returned by Render.
type Format interface {
	Render(src []byte) (string, error)
	Outline(text string) (*outline.Outline, error)
}

// Options configures the formats returned by ForFile.
type Options struct {
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
	".txt":      true,
}

// ForFile returns the format for a filename using default options.
func ForFile(filename string) (Format, error) {
	return Options{}.ForFile(filename)
}

// ForFile returns the appropriate format for a filename.
func (o Options) ForFile(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return &MarkdownFormat{}, nil
	case ".html", ".htm":
		return &HTMLFormat{}, nil
	case ".pdf":
		return &PDFFormat{FallbackPdftotext: o.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXFormat{}, nil
	case ".txt":
		return &TextFormat{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// atxPrefix matches the opening of an ATX heading line, including one nested
// inside block quotes.
var atxPrefix = regexp.MustCompile(`^[ \t>]*#{1,6}(?:[ \t]|$)`)

// escapeHeading keeps a converted body line from reading as a heading,
// either on its own or as the underline of the line above it.
func escapeHeading(line string) string {
	i := -1
	switch {
	case atxPrefix.MatchString(line):
		i = strings.IndexByte(line, '#')
	case setextUnderline.MatchString(line):
		i = strings.IndexAny(line, "=-")
	}
	if i < 0 {
		return line
	}
	return line[:i] + `\` + line[i:]
}

func headingLine(level int, text string) string {
	return strings.Repeat("#", level) + " " + strings.Join(strings.Fields(text), " ")
}
