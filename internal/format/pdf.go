package format

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/docsect/internal/outline"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFFormat handles PDF files. Each non-empty page is rendered as a
// "# Page N" section. It tries the Go library first, then falls back to
// pdftotext if enabled.
type PDFFormat struct {
	FallbackPdftotext bool
}

func (f *PDFFormat) Render(src []byte) (string, error) {
	pages, err := extractPDFPages(src)
	if err != nil && f.FallbackPdftotext {
		pages, err = extractPdftotext(src)
	}
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	return renderPages(pages), nil
}

func (f *PDFFormat) Outline(doc string) (*outline.Outline, error) {
	return markdownOutline(doc)
}

func renderPages(pages []string) string {
	var buf strings.Builder
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(headingLine(1, fmt.Sprintf("Page %d", i+1)))
		buf.WriteString("\n\n")
		for _, line := range strings.Split(page, "\n") {
			buf.WriteString(escapeHeading(strings.TrimRight(line, " \t\r")))
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

func extractPDFPages(src []byte) ([]string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// extractPdftotext shells out to pdftotext, which needs a file path.
func extractPdftotext(src []byte) ([]string, error) {
	tmp, err := os.CreateTemp("", "docsect-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(src); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	out, err := exec.Command("pdftotext", "-layout", tmpPath, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	// Pages are separated by form feeds.
	return strings.Split(string(out), "\f"), nil
}
