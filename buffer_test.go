package vtcore

import "testing"

func TestBufferWriteAdvancesCursor(t *testing.T) {
	b := NewBuffer(10, 5, nil)
	b.WriteGrapheme("A", 1, true, false)
	if b.CursorX() != 1 || b.CursorY() != 0 {
		t.Fatalf("expected cursor at (1,0), got (%d,%d)", b.CursorX(), b.CursorY())
	}
	if b.Cell(0, 0).Content != "A" {
		t.Errorf("expected 'A' written at (0,0), got %q", b.Cell(0, 0).Content)
	}
}

// TestBufferAutoWrapLatchesAtLastColumn exercises the pending-wrap
// protocol: writing into the last column does not move the cursor to
// the next row until another grapheme is actually written.
func TestBufferAutoWrapLatchesAtLastColumn(t *testing.T) {
	b := NewBuffer(3, 2, nil)
	b.WriteGrapheme("a", 1, true, false)
	b.WriteGrapheme("b", 1, true, false)
	b.WriteGrapheme("c", 1, true, false)
	if !b.WrapPending() {
		t.Fatal("expected wrap pending after filling the last column")
	}
	if b.CursorY() != 0 {
		t.Fatalf("expected cursor to still be on row 0 before the next write, got row %d", b.CursorY())
	}
	b.WriteGrapheme("d", 1, true, false)
	if b.WrapPending() {
		t.Error("expected wrap pending to be discharged")
	}
	if b.CursorY() != 1 || b.CursorX() != 1 {
		t.Fatalf("expected cursor at (1,1) after wrap, got (%d,%d)", b.CursorX(), b.CursorY())
	}
	if !b.screen[0].Wrapped {
		t.Error("expected row 0 to be marked as wrapped into row 1")
	}
}

// TestBufferWideGlyphWrapsImmediatelyAtLastColumn covers the edge case
// where a width-2 glyph cannot fit in the single remaining column: it
// must wrap right away rather than latch a pending wrap, since there is
// no second cell available to reserve.
func TestBufferWideGlyphWrapsImmediatelyAtLastColumn(t *testing.T) {
	b := NewBuffer(3, 2, nil)
	b.WriteGrapheme("a", 1, true, false)
	b.WriteGrapheme("b", 1, true, false)
	b.WriteGrapheme("中", 2, true, false)
	if b.CursorY() != 1 {
		t.Fatalf("expected wide glyph to wrap immediately to row 1, got row %d", b.CursorY())
	}
	if b.Cell(0, 2).Content != " " {
		t.Errorf("expected last column of row 0 left blank, got %q", b.Cell(0, 2).Content)
	}
	if b.Cell(1, 0).Content != "中" || !b.Cell(1, 0).IsWide() {
		t.Errorf("expected wide glyph at (1,0), got %+v", b.Cell(1, 0))
	}
	if !b.Cell(1, 1).IsContinuation() {
		t.Error("expected continuation cell at (1,1)")
	}
}

func TestBufferCombiningMarkExtendsPriorCell(t *testing.T) {
	b := NewBuffer(10, 2, nil)
	b.WriteGrapheme("e", 1, true, false)
	b.WriteGrapheme("́", 0, true, false)
	if got := b.Cell(0, 0).Content; got != "é" {
		t.Errorf("expected combining mark merged into prior cell, got %q", got)
	}
	if b.CursorX() != 1 {
		t.Errorf("expected combining mark not to move the cursor, got x=%d", b.CursorX())
	}
}

// TestBufferScrollRegionConfinesLineFeed checks that LineFeed scrolls
// only within a DECSTBM region and leaves rows outside it untouched.
func TestBufferScrollRegionConfinesLineFeed(t *testing.T) {
	b := NewBuffer(4, 5, nil)
	for r := 0; r < 5; r++ {
		b.SetCursorPosition(r, 0)
		b.WriteGrapheme(string(rune('0'+r)), 1, true, false)
	}
	b.SetScrollRegion(2, 4) // rows 1..3, 0-based
	b.SetCursorPosition(3, 0)
	b.LineFeed()
	if b.Cell(0, 0).Content != "0" || b.Cell(4, 0).Content != "4" {
		t.Error("expected rows outside the scroll region to be untouched by LineFeed")
	}
	if b.Cell(1, 0).Content != "2" {
		t.Errorf("expected region to have scrolled up one line, got %q", b.Cell(1, 0).Content)
	}
	if b.Cell(3, 0).Content != " " {
		t.Errorf("expected blank line scrolled in at bottom of region, got %q", b.Cell(3, 0).Content)
	}
}

// TestBufferLineFeedBelowRegionDoesNotScroll checks that a cursor
// legitimately positioned below the scroll region (legal with origin
// mode off) advances toward the bottom of the physical screen on
// LineFeed instead of scrolling the region.
func TestBufferLineFeedBelowRegionDoesNotScroll(t *testing.T) {
	b := NewBuffer(4, 5, nil)
	for r := 0; r < 5; r++ {
		b.SetCursorPosition(r, 0)
		b.WriteGrapheme(string(rune('0'+r)), 1, true, false)
	}
	b.SetScrollRegion(2, 4) // rows 1..3, 0-based
	b.SetCursorPosition(4, 0)
	b.LineFeed()
	if b.CursorY() != 4 {
		t.Errorf("expected cursor bounded at last row, got y=%d", b.CursorY())
	}
	if b.Cell(1, 0).Content != "1" || b.Cell(3, 0).Content != "3" {
		t.Error("expected region untouched by a LineFeed below it")
	}
}

func TestBufferInsertDeleteLinesRequireCursorInRegion(t *testing.T) {
	b := NewBuffer(4, 5, nil)
	b.SetScrollRegion(2, 4)
	b.SetCursorPosition(0, 0) // outside region
	b.InsertLines(1)          // must be a no-op

	b.SetCursorPosition(1, 0)
	for c := 0; c < 4; c++ {
		b.Cell(1, c).Write("x", 1, DefaultAttr())
	}
	b.InsertLines(1)
	if b.Cell(1, 0).Content != " " {
		t.Errorf("expected inserted blank line at cursor row, got %q", b.Cell(1, 0).Content)
	}
	if b.Cell(2, 0).Content != "x" {
		t.Errorf("expected old row 1 shifted to row 2, got %q", b.Cell(2, 0).Content)
	}
}

// TestBufferScrollUpFeedsScrollbackOnlyForFullScreenRegion verifies
// that a restricted scroll region never writes evicted lines into
// scrollback, only a full-screen scroll does.
func TestBufferScrollUpFeedsScrollbackOnlyForFullScreenRegion(t *testing.T) {
	sb := NewScrollback(10)
	b := NewBuffer(4, 3, sb)
	b.SetScrollRegion(2, 3) // rows 1..2, not full screen
	b.ScrollUp(1)
	if sb.Len() != 0 {
		t.Errorf("expected no scrollback growth from a partial-region scroll, got %d", sb.Len())
	}

	b2 := NewBuffer(4, 3, sb)
	b2.Cell(0, 0).Write("z", 1, DefaultAttr())
	b2.ScrollUp(1)
	if sb.Len() != 1 {
		t.Fatalf("expected one evicted line in scrollback after full-screen scroll, got %d", sb.Len())
	}
	evicted, _ := sb.Get(0)
	if evicted.Cells[0].Content != "z" {
		t.Errorf("expected evicted line to carry its content into scrollback, got %q", evicted.Cells[0].Content)
	}
}

func TestBufferDamageTracksWrittenRowsAndResets(t *testing.T) {
	b := NewBuffer(5, 4, nil)
	b.WriteGrapheme("a", 1, true, false)
	b.SetCursorPosition(3, 0)
	b.WriteGrapheme("b", 1, true, false)
	minRow, maxRow, cleared := b.Damage()
	if minRow != 0 || maxRow != 3 || cleared {
		t.Errorf("expected damage [0,3] uncleaned, got [%d,%d] cleared=%v", minRow, maxRow, cleared)
	}
	minRow, _, _ = b.Damage()
	if minRow != -1 {
		t.Errorf("expected damage to reset after being read, got minRow=%d", minRow)
	}
}

func TestBufferEraseInDisplayMode2MarksCleared(t *testing.T) {
	b := NewBuffer(5, 4, nil)
	b.WriteGrapheme("a", 1, true, false)
	b.Damage() // drain
	b.EraseInDisplay(2)
	_, _, cleared := b.Damage()
	if !cleared {
		t.Error("expected EraseInDisplay(2) to set the cleared flag")
	}
	if b.Cell(0, 0).Content != " " {
		t.Errorf("expected screen blanked, got %q", b.Cell(0, 0).Content)
	}
}

func TestBufferSaveRestoreCursor(t *testing.T) {
	b := NewBuffer(10, 5, nil)
	b.SetCursorPosition(2, 3)
	b.attr.SetFlag(FlagBold)
	saved := b.SaveCursor()

	b.SetCursorPosition(0, 0)
	b.attr.Reset()
	b.RestoreCursor(saved)

	if b.CursorX() != 3 || b.CursorY() != 2 {
		t.Fatalf("expected cursor restored to (3,2), got (%d,%d)", b.CursorX(), b.CursorY())
	}
	if !b.CurrentAttr().HasFlag(FlagBold) {
		t.Error("expected attribute restored along with cursor")
	}
}

// TestBufferResizeShrinkPushesToScrollback checks that shrinking the
// row count moves the lines pushed off the top into scrollback rather
// than discarding them outright.
func TestBufferResizeShrinkPushesToScrollback(t *testing.T) {
	sb := NewScrollback(10)
	b := NewBuffer(4, 3, sb)
	for r := 0; r < 3; r++ {
		b.Cell(r, 0).Write(string(rune('a'+r)), 1, DefaultAttr())
	}
	b.SetCursorPosition(2, 0)
	b.Resize(4, 2)
	if sb.Len() != 1 {
		t.Fatalf("expected one line evicted to scrollback, got %d", sb.Len())
	}
	evicted, _ := sb.Get(0)
	if evicted.Cells[0].Content != "a" {
		t.Errorf("expected evicted line to be the old top row, got %q", evicted.Cells[0].Content)
	}
	if b.CursorY() != 1 {
		t.Errorf("expected cursor row to shift down by the number of lost rows, got %d", b.CursorY())
	}
}

// TestBufferResizeGrowFillsBlanks checks that growing the grid adds
// blank rows/cols rather than garbage, and preserves existing content.
func TestBufferResizeGrowFillsBlanks(t *testing.T) {
	b := NewBuffer(3, 2, nil)
	b.Cell(0, 0).Write("X", 1, DefaultAttr())
	b.Resize(5, 4)
	if b.Cols() != 5 || b.Rows() != 4 {
		t.Fatalf("expected 5x4 grid, got %dx%d", b.Cols(), b.Rows())
	}
	if b.Cell(0, 0).Content != "X" {
		t.Error("expected existing content preserved after grow")
	}
	if b.Cell(3, 4).Content != " " {
		t.Errorf("expected new cells blank, got %q", b.Cell(3, 4).Content)
	}
}

func TestBufferTabStops(t *testing.T) {
	b := NewBuffer(20, 2, nil)
	if got := b.NextTabStop(0); got != 8 {
		t.Errorf("expected default tab stop at col 8, got %d", got)
	}
	b.ClearTabStop(8)
	if got := b.NextTabStop(0); got != 16 {
		t.Errorf("expected next tab stop at 16 after clearing 8, got %d", got)
	}
	b.SetTabStop(3)
	if got := b.PrevTabStop(5); got != 3 {
		t.Errorf("expected previous tab stop at 3, got %d", got)
	}
}
