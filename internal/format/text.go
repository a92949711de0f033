package format

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/docsect/internal/outline"
)

// TextFormat handles plain text files. Paragraphs are kept as Markdown text
// blocks with heading-like lines escaped, so a text file never has sections
// but its tags are still found.
type TextFormat struct{}

func (f *TextFormat) Render(src []byte) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(escapeHeading(line))
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if len(paragraphs) == 0 {
		return "", nil
	}
	return strings.Join(paragraphs, "\n\n") + "\n", nil
}

func (f *TextFormat) Outline(doc string) (*outline.Outline, error) {
	return markdownOutline(doc)
}
