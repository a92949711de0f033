package outline

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// tagPattern matches a hashtag body: letters, digits, '_', '-' and '/' for
// nested tags.
var tagPattern = regexp.MustCompile(`#[\p{L}\p{N}_/\-]+`)

// ScanTags finds the hashtags in text[start:stop]. A '#' only starts a tag
// at the beginning of the text or after whitespace, and the tag must contain
// at least one non-digit, so "#1" and "a#b" are not tags.
func ScanTags(text string, start, stop int, idx *LineIndex) []Tag {
	if start < 0 {
		start = 0
	}
	if stop > len(text) {
		stop = len(text)
	}
	if start >= stop {
		return nil
	}

	var tags []Tag
	for _, loc := range tagPattern.FindAllStringIndex(text[start:stop], -1) {
		from, to := start+loc[0], start+loc[1]
		if from > 0 {
			r, _ := utf8.DecodeLastRuneInString(text[:from])
			if !unicode.IsSpace(r) {
				continue
			}
		}
		name := text[from:to]
		if !hasNonDigit(name[1:]) {
			continue
		}
		tags = append(tags, Tag{
			Name:     name,
			Position: Span{Start: idx.Position(from), End: idx.Position(to)},
		})
	}
	return tags
}

func hasNonDigit(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
