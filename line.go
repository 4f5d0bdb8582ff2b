package vtcore

import "strings"

// Line is one row of cells plus a flag recording whether the logical
// line continues onto the next physical row (set when auto-wrap split
// it mid-word, as opposed to an explicit newline).
type Line struct {
	Cells   []Cell
	Wrapped bool
}

// NewLine returns a line of the given width filled with blank cells.
func NewLine(cols int) Line {
	cells := make([]Cell, cols)
	for i := range cells {
		cells[i] = NewCell()
	}
	return Line{Cells: cells}
}

// Clone returns a deep-enough copy (Cell has no slice fields, so a
// backing-array copy suffices).
func (l Line) Clone() Line {
	cells := make([]Cell, len(l.Cells))
	copy(cells, l.Cells)
	return Line{Cells: cells, Wrapped: l.Wrapped}
}

// Erase fills cells [start, end) with blank cells carrying attr.
func (l *Line) Erase(start, end int, attr Attribute) {
	if start < 0 {
		start = 0
	}
	if end > len(l.Cells) {
		end = len(l.Cells)
	}
	for i := start; i < end; i++ {
		l.Cells[i].ResetWithAttr(attr)
	}
}

// InsertCells shifts cells [col, len-n) right by n, and fills the
// vacated [col, col+n) with blanks carrying attr. Cells pushed past the
// right edge are dropped.
func (l *Line) InsertCells(col, n int, attr Attribute) {
	cols := len(l.Cells)
	if col < 0 || col >= cols || n <= 0 {
		return
	}
	if n > cols-col {
		n = cols - col
	}
	copy(l.Cells[col+n:cols], l.Cells[col:cols-n])
	for i := col; i < col+n; i++ {
		l.Cells[i].ResetWithAttr(attr)
	}
}

// DeleteCells shifts cells [col+n, len) left by n into [col, ...), and
// fills the vacated tail with blanks carrying attr.
func (l *Line) DeleteCells(col, n int, attr Attribute) {
	cols := len(l.Cells)
	if col < 0 || col >= cols || n <= 0 {
		return
	}
	if n > cols-col {
		n = cols - col
	}
	copy(l.Cells[col:cols-n], l.Cells[col+n:cols])
	for i := cols - n; i < cols; i++ {
		l.Cells[i].ResetWithAttr(attr)
	}
}

// TranslateToString concatenates the non-continuation cells in
// [start, end), substituting a space for any cell with empty content.
// When trimRight is set, trailing spaces are stripped.
func (l Line) TranslateToString(trimRight bool, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(l.Cells) {
		end = len(l.Cells)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		c := l.Cells[i]
		if c.IsContinuation() {
			continue
		}
		if c.Content == "" {
			b.WriteByte(' ')
		} else {
			b.WriteString(c.Content)
		}
	}

	s := b.String()
	if trimRight {
		s = strings.TrimRight(s, " ")
	}
	return s
}

// Resize grows or shrinks the line in place to newCols, preserving
// existing content in [0, min(old,new)) and filling new columns with
// blanks.
func (l *Line) Resize(newCols int) {
	old := len(l.Cells)
	if newCols == old {
		return
	}
	cells := make([]Cell, newCols)
	n := old
	if newCols < n {
		n = newCols
	}
	copy(cells, l.Cells[:n])
	for i := n; i < newCols; i++ {
		cells[i] = NewCell()
	}
	l.Cells = cells
}
