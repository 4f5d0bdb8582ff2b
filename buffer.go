package vtcore

// Position identifies a cell location (0-based, row then column).
type Position struct {
	Row int
	Col int
}

// Before reports whether p sorts before other in reading order.
func (p Position) Before(other Position) bool {
	if p.Row != other.Row {
		return p.Row < other.Row
	}
	return p.Col < other.Col
}

// Buffer is a single screen: a grid of Rows x Cols cells, a cursor, a
// scroll region, and (for the normal buffer only) a scrollback ring.
// The alternate buffer is built with a nil Scrollback, per §4.5: it has
// no history at all.
type Buffer struct {
	cols, rows int
	screen     []Line
	scrollback *Scrollback

	cursorX, cursorY int
	wrapPending      bool
	attr             Attribute // current SGR template applied to new writes/erases

	scrollTop, scrollBottom int // inclusive, 0-based

	currentHyperlink *Hyperlink // attached to cells as they are written

	saved *SavedCursor

	viewportY int
	tabStops  []bool

	dirtyMin, dirtyMax int // -1 => no damage pending
	cleared            bool
}

// NewBuffer creates a buffer of the given size. Pass a non-nil
// Scrollback to give it history (the normal buffer); pass nil for the
// alternate buffer.
func NewBuffer(cols, rows int, scrollback *Scrollback) *Buffer {
	b := &Buffer{
		cols:         cols,
		rows:         rows,
		screen:       make([]Line, rows),
		scrollback:   scrollback,
		scrollTop:    0,
		scrollBottom: rows - 1,
		attr:         DefaultAttr(),
		tabStops:     make([]bool, cols),
		dirtyMin:     -1,
		dirtyMax:     -1,
	}
	for i := range b.screen {
		b.screen[i] = NewLine(cols)
	}
	for c := 0; c < cols; c += 8 {
		b.tabStops[c] = true
	}
	return b
}

func (b *Buffer) Cols() int { return b.cols }
func (b *Buffer) Rows() int { return b.rows }

// CursorX, CursorY return the current cursor position. CursorX may
// equal Cols when a pending-wrap is latched.
func (b *Buffer) CursorX() int { return b.cursorX }
func (b *Buffer) CursorY() int { return b.cursorY }

func (b *Buffer) WrapPending() bool { return b.wrapPending }

func (b *Buffer) CurrentAttr() Attribute     { return b.attr }
func (b *Buffer) SetCurrentAttr(a Attribute) { b.attr = a }

// SetCurrentHyperlink sets (or clears, with nil) the hyperlink attached
// to cells written by subsequent WriteGrapheme calls, per OSC 8.
func (b *Buffer) SetCurrentHyperlink(h *Hyperlink) { b.currentHyperlink = h }

// ScrollRegion returns the current DECSTBM bounds, inclusive, 0-based.
func (b *Buffer) ScrollRegion() (top, bottom int) { return b.scrollTop, b.scrollBottom }

// --- damage tracking ---

func (b *Buffer) markDirty(row int) {
	if row < 0 || row >= b.rows {
		return
	}
	if b.dirtyMin == -1 || row < b.dirtyMin {
		b.dirtyMin = row
	}
	if row > b.dirtyMax {
		b.dirtyMax = row
	}
}

func (b *Buffer) markDirtyRange(from, to int) {
	for r := from; r <= to; r++ {
		b.markDirty(r)
	}
}

// Damage returns the dirty row range since the last call and whether
// the whole buffer was cleared, then resets tracking.
func (b *Buffer) Damage() (minRow, maxRow int, cleared bool) {
	minRow, maxRow, cleared = b.dirtyMin, b.dirtyMax, b.cleared
	b.dirtyMin, b.dirtyMax = -1, -1
	b.cleared = false
	return
}

// --- logical line addressing (scrollback + screen) ---

// BaseY is the number of lines currently held in scrollback.
func (b *Buffer) BaseY() int {
	if b.scrollback == nil {
		return 0
	}
	return b.scrollback.Len()
}

// MaxScrollback is the largest legal ViewportY value.
func (b *Buffer) MaxScrollback() int { return b.BaseY() }

// Length is the total number of logical lines (scrollback + screen).
func (b *Buffer) Length() int { return b.BaseY() + b.rows }

// ViewportY returns the index into the logical line sequence currently
// at the top of the viewport.
func (b *Buffer) ViewportY() int { return b.viewportY }

// IsAtBottom reports whether the viewport shows the live screen area.
func (b *Buffer) IsAtBottom() bool { return b.viewportY == b.BaseY() }

// Line returns the logical line at index i (0 is the oldest scrollback
// line, or row 0 of the screen if there is no scrollback), or false if
// out of range.
func (b *Buffer) Line(i int) (Line, bool) {
	base := b.BaseY()
	if i < 0 || i >= base+b.rows {
		return Line{}, false
	}
	if i < base {
		return b.scrollback.Get(i)
	}
	return b.screen[i-base], true
}

// Cell returns a pointer to the live screen cell at (row, col), or nil
// if out of bounds. Only addresses the live screen, not scrollback.
func (b *Buffer) Cell(row, col int) *Cell {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols {
		return nil
	}
	return &b.screen[row].Cells[col]
}

// --- viewport scrolling ---

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (b *Buffer) ScrollToLine(abs int) {
	b.viewportY = clampInt(abs, 0, b.MaxScrollback())
}

func (b *Buffer) ScrollLines(delta int) {
	b.ScrollToLine(b.viewportY + delta)
}

func (b *Buffer) ScrollToTop() { b.viewportY = 0 }

func (b *Buffer) ScrollToBottom() { b.viewportY = b.BaseY() }

// --- writing ---

// CarriageReturn moves the cursor to column 0 and clears pending wrap.
func (b *Buffer) CarriageReturn() {
	b.cursorX = 0
	b.wrapPending = false
}

// LineFeed advances the cursor one row. A cursor exactly on the
// region's bottom line scrolls the region up instead of moving; a
// cursor outside the region (legal with origin mode off) just
// advances, bounded by the last physical row, since it has no
// boundary to scroll at.
func (b *Buffer) LineFeed() {
	if b.cursorY == b.scrollBottom {
		b.ScrollUp(1)
		return
	}
	if b.cursorY < b.rows-1 {
		b.cursorY++
	}
}

// ReverseIndex moves the cursor up one row. A cursor exactly on the
// region's top line scrolls the region down instead of moving; a
// cursor outside the region (above scrollTop) just retreats, bounded
// by row 0.
func (b *Buffer) ReverseIndex() {
	if b.cursorY == b.scrollTop {
		b.ScrollDown(1)
		return
	}
	if b.cursorY > 0 {
		b.cursorY--
	}
}

// WriteGrapheme writes one decoded grapheme (already charset-translated)
// at the cursor, honoring pending wrap, wide-cell pairing, and
// combining-mark accumulation. width is the display width (0, 1, or 2)
// as reported by the width table; autoWrap and insertMode reflect the
// current DECAWM/IRM mode state.
func (b *Buffer) WriteGrapheme(grapheme string, width int, autoWrap, insertMode bool) {
	if width == 0 {
		b.combine(grapheme)
		return
	}

	if b.wrapPending {
		b.wrapPending = false
		if b.cursorY >= 0 && b.cursorY < b.rows {
			b.screen[b.cursorY].Wrapped = true
		}
		b.cursorX = 0
		b.cursorY++
		if b.cursorY > b.scrollBottom {
			b.cursorY = b.scrollBottom
			b.ScrollUp(1)
		}
	}

	// A wide glyph that cannot fit in the last column wraps immediately
	// rather than latching a pending wrap (there is no second cell to
	// reserve).
	if width == 2 && b.cursorX == b.cols-1 {
		if autoWrap {
			b.screen[b.cursorY].Wrapped = true
			b.cursorX = 0
			b.cursorY++
			if b.cursorY > b.scrollBottom {
				b.cursorY = b.scrollBottom
				b.ScrollUp(1)
			}
		} else {
			return
		}
	}

	row := b.cursorY
	if row < 0 || row >= b.rows {
		return
	}

	if insertMode {
		b.screen[row].InsertCells(b.cursorX, width, b.attr)
	}

	cell := &b.screen[row].Cells[b.cursorX]
	cell.Write(grapheme, int8(width), b.attr)
	cell.Hyperlink = b.currentHyperlink
	b.markDirty(row)

	newX := b.cursorX + width
	if width == 2 && b.cursorX+1 < b.cols {
		b.screen[row].Cells[b.cursorX+1] = continuationCell(b.attr)
	}

	if newX >= b.cols {
		if autoWrap {
			b.wrapPending = true
			b.cursorX = b.cols
		} else {
			b.cursorX = b.cols - 1
		}
	} else {
		b.cursorX = newX
	}
}

func (b *Buffer) combine(mark string) {
	if b.cursorX <= 0 || b.cursorY < 0 || b.cursorY >= b.rows {
		return
	}
	col := b.cursorX - 1
	cell := &b.screen[b.cursorY].Cells[col]
	if cell.IsContinuation() && col > 0 {
		cell = &b.screen[b.cursorY].Cells[col-1]
	}
	for _, r := range mark {
		cell.Combine(r)
	}
	b.markDirty(b.cursorY)
}

// --- cursor motion ---

func (b *Buffer) CursorUp(n int) {
	if n < 1 {
		n = 1
	}
	b.cursorY = clampInt(b.cursorY-n, 0, b.rows-1)
}

func (b *Buffer) CursorDown(n int) {
	if n < 1 {
		n = 1
	}
	b.cursorY = clampInt(b.cursorY+n, 0, b.rows-1)
}

func (b *Buffer) CursorForward(n int) {
	if n < 1 {
		n = 1
	}
	b.cursorX = clampInt(b.cursorX+n, 0, b.cols-1)
	b.wrapPending = false
}

func (b *Buffer) CursorBack(n int) {
	if n < 1 {
		n = 1
	}
	b.cursorX = clampInt(b.cursorX-n, 0, b.cols-1)
	b.wrapPending = false
}

// SetCursorPosition sets the absolute 0-based position, clamped to the
// grid. Origin-mode offsetting is the caller's responsibility (it is
// terminal-wide state, not buffer state).
func (b *Buffer) SetCursorPosition(row, col int) {
	b.cursorY = clampInt(row, 0, b.rows-1)
	b.cursorX = clampInt(col, 0, b.cols-1)
	b.wrapPending = false
}

func (b *Buffer) SetCursorCol(col int) {
	b.cursorX = clampInt(col, 0, b.cols-1)
	b.wrapPending = false
}

func (b *Buffer) SetCursorRow(row int) {
	b.cursorY = clampInt(row, 0, b.rows-1)
}

// --- scrolling ---

// ScrollUp shifts lines [scrollTop, scrollBottom] up by n, evicting the
// top lines (into scrollback, if this buffer has one and the region is
// the full screen) and filling the bottom n lines with blanks under the
// current attribute.
func (b *Buffer) ScrollUp(n int) {
	b.scrollRegionUp(b.scrollTop, b.scrollBottom, n, true)
}

// ScrollDown shifts lines [scrollTop, scrollBottom] down by n, filling
// the top n lines with blanks. Never touches scrollback.
func (b *Buffer) ScrollDown(n int) {
	b.scrollRegionDown(b.scrollTop, b.scrollBottom, n)
}

func (b *Buffer) scrollRegionUp(top, bottom, n int, allowScrollback bool) {
	if n <= 0 || top > bottom {
		return
	}
	span := bottom - top + 1
	if n > span {
		n = span
	}

	fullScreen := top == 0 && bottom == b.rows-1
	if allowScrollback && b.scrollback != nil && fullScreen {
		for i := 0; i < n; i++ {
			b.scrollback.Push(b.screen[top+i])
		}
	}

	copy(b.screen[top:bottom+1-n], b.screen[top+n:bottom+1])
	for i := bottom + 1 - n; i <= bottom; i++ {
		b.screen[i] = NewLine(b.cols)
		for j := range b.screen[i].Cells {
			b.screen[i].Cells[j].ResetWithAttr(b.attr)
		}
	}
	b.markDirtyRange(top, bottom)
}

func (b *Buffer) scrollRegionDown(top, bottom, n int) {
	if n <= 0 || top > bottom {
		return
	}
	span := bottom - top + 1
	if n > span {
		n = span
	}

	copy(b.screen[top+n:bottom+1], b.screen[top:bottom+1-n])
	for i := top; i < top+n; i++ {
		b.screen[i] = NewLine(b.cols)
		for j := range b.screen[i].Cells {
			b.screen[i].Cells[j].ResetWithAttr(b.attr)
		}
	}
	b.markDirtyRange(top, bottom)
}

// --- erase ---

func (b *Buffer) EraseInDisplay(mode int) {
	switch mode {
	case 0:
		b.screen[b.cursorY].Erase(b.cursorX, b.cols, b.attr)
		b.markDirty(b.cursorY)
		for r := b.cursorY + 1; r < b.rows; r++ {
			b.screen[r].Erase(0, b.cols, b.attr)
			b.markDirty(r)
		}
	case 1:
		for r := 0; r < b.cursorY; r++ {
			b.screen[r].Erase(0, b.cols, b.attr)
			b.markDirty(r)
		}
		b.screen[b.cursorY].Erase(0, b.cursorX+1, b.attr)
		b.markDirty(b.cursorY)
	case 2, 3:
		for r := 0; r < b.rows; r++ {
			b.screen[r].Erase(0, b.cols, b.attr)
		}
		b.markDirtyRange(0, b.rows-1)
		if mode == 3 && b.scrollback != nil {
			b.scrollback.Clear()
		}
		b.cleared = true
	}
}

func (b *Buffer) EraseInLine(mode int) {
	switch mode {
	case 0:
		b.screen[b.cursorY].Erase(b.cursorX, b.cols, b.attr)
	case 1:
		b.screen[b.cursorY].Erase(0, b.cursorX+1, b.attr)
	case 2:
		b.screen[b.cursorY].Erase(0, b.cols, b.attr)
	}
	b.markDirty(b.cursorY)
}

func (b *Buffer) EraseChars(n int) {
	if n < 1 {
		n = 1
	}
	end := b.cursorX + n
	if end > b.cols {
		end = b.cols
	}
	b.screen[b.cursorY].Erase(b.cursorX, end, b.attr)
	b.markDirty(b.cursorY)
}

// --- line/char insert+delete ---

// InsertLines inserts n blank lines at the cursor row, only when the
// cursor is within the scroll region; lines below shift down and those
// pushed past scrollBottom are discarded.
func (b *Buffer) InsertLines(n int) {
	if b.cursorY < b.scrollTop || b.cursorY > b.scrollBottom {
		return
	}
	if n < 1 {
		n = 1
	}
	b.scrollRegionDown(b.cursorY, b.scrollBottom, n)
}

// DeleteLines removes n lines at the cursor row, only when the cursor
// is within the scroll region.
func (b *Buffer) DeleteLines(n int) {
	if b.cursorY < b.scrollTop || b.cursorY > b.scrollBottom {
		return
	}
	if n < 1 {
		n = 1
	}
	b.scrollRegionUp(b.cursorY, b.scrollBottom, n, false)
}

func (b *Buffer) InsertChars(n int) {
	if n < 1 {
		n = 1
	}
	b.screen[b.cursorY].InsertCells(b.cursorX, n, b.attr)
	b.markDirty(b.cursorY)
}

func (b *Buffer) DeleteChars(n int) {
	if n < 1 {
		n = 1
	}
	b.screen[b.cursorY].DeleteCells(b.cursorX, n, b.attr)
	b.markDirty(b.cursorY)
}

// --- scroll region / cursor save-restore ---

// SetScrollRegion sets DECSTBM bounds from 1-based top/bot, clamping to
// the grid and requiring top < bot (otherwise the whole screen becomes
// the region).
func (b *Buffer) SetScrollRegion(top, bot int) {
	top--
	bot--
	top = clampInt(top, 0, b.rows-1)
	bot = clampInt(bot, 0, b.rows-1)
	if top >= bot {
		top, bot = 0, b.rows-1
	}
	b.scrollTop = top
	b.scrollBottom = bot
}

// SaveCursor snapshots the buffer-local portion of cursor state. The
// caller (Terminal) fills in the terminal-wide fields (charsets, origin
// mode) before storing the result.
func (b *Buffer) SaveCursor() SavedCursor {
	return SavedCursor{
		X:           b.cursorX,
		Y:           b.cursorY,
		Attr:        b.attr,
		WrapPending: b.wrapPending,
	}
}

// RestoreCursor applies a previously saved buffer-local cursor state.
func (b *Buffer) RestoreCursor(s SavedCursor) {
	b.cursorX = clampInt(s.X, 0, b.cols)
	b.cursorY = clampInt(s.Y, 0, b.rows-1)
	b.attr = s.Attr
	b.wrapPending = s.WrapPending
}

func (b *Buffer) SetSaved(s *SavedCursor) { b.saved = s }
func (b *Buffer) Saved() *SavedCursor     { return b.saved }

// --- tab stops ---

func (b *Buffer) SetTabStop(col int) {
	if col >= 0 && col < b.cols {
		b.tabStops[col] = true
	}
}

func (b *Buffer) ClearTabStop(col int) {
	if col >= 0 && col < b.cols {
		b.tabStops[col] = false
	}
}

func (b *Buffer) ClearAllTabStops() {
	for i := range b.tabStops {
		b.tabStops[i] = false
	}
}

func (b *Buffer) NextTabStop(col int) int {
	for c := col + 1; c < b.cols; c++ {
		if b.tabStops[c] {
			return c
		}
	}
	return b.cols - 1
}

func (b *Buffer) PrevTabStop(col int) int {
	for c := col - 1; c >= 0; c-- {
		if b.tabStops[c] {
			return c
		}
	}
	return 0
}

// --- resize ---

// Resize changes the buffer's dimensions atomically. Existing cells are
// preserved within min(old,new) on both axes. When rows shrink, rows
// pushed off the top of the live area move into scrollback (if this
// buffer has one) before being dropped from the grid.
func (b *Buffer) Resize(cols, rows int) {
	if rows < b.rows && b.scrollback != nil {
		lost := b.rows - rows
		for i := 0; i < lost; i++ {
			b.scrollback.Push(b.screen[i])
		}
		b.screen = b.screen[lost:]
		if b.cursorY >= lost {
			b.cursorY -= lost
		} else {
			b.cursorY = 0
		}
	}

	newScreen := make([]Line, rows)
	for i := range newScreen {
		if i < len(b.screen) {
			newScreen[i] = b.screen[i]
			newScreen[i].Resize(cols)
		} else {
			newScreen[i] = NewLine(cols)
		}
	}
	b.screen = newScreen

	newTabs := make([]bool, cols)
	copy(newTabs, b.tabStops)
	for c := len(b.tabStops); c < cols; c += 8 {
		newTabs[c] = true
	}
	b.tabStops = newTabs

	b.cols = cols
	b.rows = rows
	b.scrollTop = 0
	b.scrollBottom = rows - 1

	b.cursorX = clampInt(b.cursorX, 0, cols-1)
	b.cursorY = clampInt(b.cursorY, 0, rows-1)
	b.wrapPending = false

	b.viewportY = clampInt(b.viewportY, 0, b.MaxScrollback())
	b.cleared = true
	b.dirtyMin, b.dirtyMax = -1, -1
}
