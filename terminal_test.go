package vtcore

import (
	"fmt"
	"testing"
)

// TestTerminalSGRComposition checks that separate SGR parameters
// compose onto the current attribute rather than replacing it, and
// that a bare reset (CSI 0 m or CSI m) clears everything back to
// default.
func TestTerminalSGRComposition(t *testing.T) {
	term := New(WithCols(10), WithRows(3))
	term.WriteString("\x1b[1m\x1b[31mX")
	c, ok := term.Cell(0, 0)
	if !ok {
		t.Fatal("expected cell at (0,0)")
	}
	if !c.Attr.HasFlag(FlagBold) {
		t.Error("expected bold to still be set after a later SGR call")
	}
	if c.Attr.Fg.Mode != ColorIndexed || c.Attr.Fg.Value != 1 {
		t.Errorf("expected red foreground (index 1), got %+v", c.Attr.Fg)
	}

	term.WriteString("\x1b[0mY")
	c2, _ := term.Cell(0, 1)
	if c2.Attr != DefaultAttr() {
		t.Errorf("expected SGR reset to restore default attr, got %+v", c2.Attr)
	}
}

// TestTerminalCUPMovesCursor checks CSI H (cursor position) converts
// 1-based row/col parameters to the 0-based cursor the Read API
// reports.
func TestTerminalCUPMovesCursor(t *testing.T) {
	term := New(WithCols(20), WithRows(10))
	term.WriteString("\x1b[5;10H")
	x, y := term.CursorPos()
	if x != 9 || y != 4 {
		t.Errorf("expected 0-based cursor (9,4) from CSI 5;10H, got (%d,%d)", x, y)
	}
}

// TestTerminalEraseDisplayLeavesCursorUnchanged checks that CSI 2J
// clears the whole screen but never moves the cursor.
func TestTerminalEraseDisplayLeavesCursorUnchanged(t *testing.T) {
	term := New(WithCols(10), WithRows(5))
	term.WriteString("\x1b[3;3Hhi\x1b[2J")
	x, y := term.CursorPos()
	if x != 4 || y != 2 {
		t.Errorf("expected cursor unchanged by ED 2J at (4,2), got (%d,%d)", x, y)
	}
	c, _ := term.Cell(2, 2)
	if c.Content != " " {
		t.Errorf("expected screen cleared, got %q at the cursor's old content cell", c.Content)
	}
}

// TestTerminalLineFeedWithoutConvertEol checks that with ConvertEol
// disabled (the default), a bare LF advances the row without
// returning to column 0 — callers must send their own CR.
func TestTerminalLineFeedWithoutConvertEol(t *testing.T) {
	term := New(WithCols(10), WithRows(5), WithConvertEol(false))
	term.WriteString("ab\ncd")
	x, y := term.CursorPos()
	if y != 1 {
		t.Fatalf("expected LF to advance to row 1, got row %d", y)
	}
	if x != 4 {
		t.Errorf("expected LF alone not to reset column (cursor at col 4), got col %d", x)
	}
	c2, _ := term.Cell(1, 2)
	c3, _ := term.Cell(1, 3)
	if c2.Content != "c" || c3.Content != "d" {
		t.Errorf("expected 'cd' written starting at column 2 (no carriage return from LF alone), got %q %q", c2.Content, c3.Content)
	}
	c0, _ := term.Cell(1, 0)
	if c0.Content != " " {
		t.Errorf("expected row 1 columns before the LF's column to remain blank, got %q", c0.Content)
	}
}

// TestTerminalAlternateBufferRoundTrip checks DECSET/DECRST 1049:
// entering the alternate screen saves the cursor and clears the new
// screen; leaving it restores both the buffer contents and the saved
// cursor position.
func TestTerminalAlternateBufferRoundTrip(t *testing.T) {
	term := New(WithCols(10), WithRows(5))
	term.WriteString("\x1b[3;4Hhome")
	xBefore, yBefore := term.CursorPos()

	term.WriteString("\x1b[?1049h")
	if term.BufferKind() != BufferAlternate {
		t.Fatal("expected mode 1049 to switch to the alternate buffer")
	}
	term.WriteString("\x1b[1;1Halt screen text")

	term.WriteString("\x1b[?1049l")
	if term.BufferKind() != BufferNormal {
		t.Fatal("expected mode 1049 reset to return to the normal buffer")
	}
	xAfter, yAfter := term.CursorPos()
	if xAfter != xBefore || yAfter != yBefore {
		t.Errorf("expected cursor restored to (%d,%d), got (%d,%d)", xBefore, yBefore, xAfter, yAfter)
	}
	c, _ := term.Cell(2, 3)
	if c.Content != "h" {
		t.Errorf("expected normal-buffer content preserved across the alternate round trip, got %q", c.Content)
	}
}

// TestTerminalDSRCursorPositionReport checks that CSI 6n (DSR, cursor
// position report) replies on the data-out event with the terminal's
// current 1-based cursor position — this only works because Write
// flushes queued events after releasing its lock.
func TestTerminalDSRCursorPositionReport(t *testing.T) {
	term := New(WithCols(20), WithRows(10))
	term.WriteString("\x1b[4;8H")

	var got []byte
	sub := term.Events.DataOut.Subscribe(func(b []byte) { got = b })
	defer sub.Cancel()

	term.WriteString("\x1b[6n")

	x, y := term.CursorPos()
	want := fmt.Sprintf("\x1b[%d;%dR", y+1, x+1)
	if string(got) != want {
		t.Errorf("expected DSR reply %q, got %q", want, string(got))
	}
}

// TestTerminalKeyEncodingWithModifiers checks that a modified arrow
// key (Ctrl+Shift+Up) is encoded using xterm's modified-CSI form
// rather than the bare application/normal-mode sequence.
func TestTerminalKeyEncodingWithModifiers(t *testing.T) {
	term := New(WithCols(10), WithRows(5))
	var got []byte
	sub := term.Events.DataOut.Subscribe(func(b []byte) { got = b })
	defer sub.Cancel()

	b := term.GenerateKeyInput(KeyUp, 0, ModCtrl|ModShift)
	want := "\x1b[1;6A" // xtermParam: 1 (base) + 1 (shift) + 4 (ctrl) = 6
	if string(b) != want {
		t.Errorf("expected %q from GenerateKeyInput, got %q", want, string(b))
	}
	if string(got) != want {
		t.Errorf("expected the same bytes delivered on data-out, got %q", string(got))
	}
}

// TestTerminalBellFiresAfterWriteUnlocks is a regression test for a
// bug where queued events (bell, title, data-out) were appended to
// Terminal.pending but never drained, so subscribers calling back into
// the Read API from inside their callback would deadlock and, short of
// that, simply never heard about the event.
func TestTerminalBellFiresAfterWriteUnlocks(t *testing.T) {
	term := New(WithCols(10), WithRows(5))
	rang := false
	var seenCols int
	sub := term.Events.Bell.Subscribe(func(struct{}) {
		rang = true
		seenCols = term.Cols() // must not deadlock against Write's lock
	})
	defer sub.Cancel()

	term.WriteString("\a")
	if !rang {
		t.Fatal("expected bell event to fire")
	}
	if seenCols != 10 {
		t.Errorf("expected callback to read terminal state without deadlocking, got cols=%d", seenCols)
	}
}

func TestTerminalTitleChangedFires(t *testing.T) {
	term := New(WithCols(10), WithRows(5))
	var title string
	sub := term.Events.TitleChanged.Subscribe(func(s string) { title = s })
	defer sub.Cancel()

	term.WriteString("\x1b]0;my title\x07")
	if title != "my title" {
		t.Errorf("expected title event 'my title', got %q", title)
	}
	if term.Title() != "my title" {
		t.Errorf("expected Title() to reflect the same value, got %q", term.Title())
	}
}

func TestTerminalResizeGrowsViewport(t *testing.T) {
	term := New(WithCols(10), WithRows(5))
	var resized Resize
	sub := term.Events.Resized.Subscribe(func(r Resize) { resized = r })
	defer sub.Cancel()

	term.Resize(20, 15)
	if term.Cols() != 20 || term.Rows() != 15 {
		t.Fatalf("expected 20x15, got %dx%d", term.Cols(), term.Rows())
	}
	if resized != (Resize{Cols: 20, Rows: 15}) {
		t.Errorf("expected resized event payload {20,15}, got %+v", resized)
	}
}

func TestTerminalHardResetClearsEverything(t *testing.T) {
	term := New(WithCols(10), WithRows(5))
	term.WriteString("\x1b[1mhello\x1b[3;3H")
	term.Reset()
	x, y := term.CursorPos()
	if x != 0 || y != 0 {
		t.Errorf("expected cursor home after RIS, got (%d,%d)", x, y)
	}
	c, _ := term.Cell(0, 0)
	if c.Content != " " || c.Attr != DefaultAttr() {
		t.Errorf("expected blank default cell after RIS, got %+v", c)
	}
}
