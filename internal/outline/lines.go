package outline

import "sort"

// LineIndex maps byte offsets of a text to line/column positions.
type LineIndex struct {
	starts []int
	size   int
}

func NewLineIndex(text string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts, size: len(text)}
}

// Lines returns the number of lines, counting a trailing empty line.
func (x *LineIndex) Lines() int {
	return len(x.starts)
}

// Position resolves a byte offset. Offsets outside the text are clamped.
func (x *LineIndex) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > x.size {
		offset = x.size
	}
	line := sort.Search(len(x.starts), func(i int) bool { return x.starts[i] > offset }) - 1
	return Position{Line: line, Col: offset - x.starts[line], Offset: offset}
}

// LineStart returns the offset of the first byte of line.
func (x *LineIndex) LineStart(line int) int {
	if line <= 0 {
		return 0
	}
	if line >= len(x.starts) {
		return x.size
	}
	return x.starts[line]
}

// LineEnd returns the offset of the newline ending line, or the text length
// for the last line.
func (x *LineIndex) LineEnd(line int) int {
	if line+1 >= len(x.starts) {
		return x.size
	}
	return x.starts[line+1] - 1
}
