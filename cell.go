package vtcore

// Cell is one grid position: a grapheme cluster, its display width, and
// the style attributes in effect when it was written.
//
// A wide glyph (Width == 2) occupies two consecutive cells: the left
// cell holds the grapheme with Width 2, the immediate right cell is a
// continuation with Width 0 and the same Attr. Writers must write both
// cells atomically; readers must skip Width-0 continuation cells when
// iterating for display.
//
// A combining mark appended to a non-empty cell extends Content; it
// does not itself occupy a column.
type Cell struct {
	Content string
	Width   int8
	Attr    Attribute

	Hyperlink *Hyperlink // non-nil while inside an OSC 8 span
	Image     *CellImage // non-nil when covered by a graphics placement
}

// Hyperlink associates a cell with a clickable link (OSC 8).
type Hyperlink struct {
	ID  string
	URI string
}

// blankCell is the default/empty cell: a single space, width 1, default
// attributes, no hyperlink or image. It is never mutated; copy it out.
var blankCell = Cell{Content: " ", Width: 1, Attr: DefaultAttr()}

// NewCell returns a default empty cell (a space with default attributes).
func NewCell() Cell {
	return blankCell
}

// continuationCell is the right half of a wide glyph pair.
func continuationCell(attr Attribute) Cell {
	return Cell{Content: "", Width: 0, Attr: attr}
}

// IsContinuation reports whether c is the right half of a wide glyph.
func (c Cell) IsContinuation() bool { return c.Width == 0 }

// IsWide reports whether c is the left half of a wide glyph.
func (c Cell) IsWide() bool { return c.Width == 2 }

// Write overwrites the cell's grapheme, width, and attributes, clearing
// any hyperlink/image reference (callers re-attach those afterward if
// still applicable).
func (c *Cell) Write(grapheme string, width int8, attr Attribute) {
	c.Content = grapheme
	c.Width = width
	c.Attr = attr
	c.Hyperlink = nil
	c.Image = nil
}

// Combine appends a combining mark to the cell's grapheme cluster.
// Defined only when the cell is already non-empty (has a base
// character); combining marks with no base are silently discarded by
// the caller before reaching here.
func (c *Cell) Combine(mark rune) {
	if c.Content == "" {
		return
	}
	c.Content += string(mark)
}

// Reset restores the cell to the blank/default state.
func (c *Cell) Reset() {
	*c = blankCell
}

// ResetWithAttr restores the cell to blank content under the given
// erase attribute (used by erase/clear operations, which paint blanks
// with the attribute currently in effect rather than the hard default).
func (c *Cell) ResetWithAttr(attr Attribute) {
	c.Content = " "
	c.Width = 1
	c.Attr = attr
	c.Hyperlink = nil
	c.Image = nil
}

// Copy returns a value copy of the cell (Cell contains no slices, so
// this is identical to plain assignment; kept for call-site clarity).
func (c Cell) Copy() Cell { return c }
