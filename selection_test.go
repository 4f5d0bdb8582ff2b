package vtcore

import "testing"

func TestSelectionSetNormalizesOrder(t *testing.T) {
	term := New(WithCols(20), WithRows(5))
	term.SetSelection(Position{Row: 2, Col: 5}, Position{Row: 1, Col: 3}, false)
	sel, ok := term.SelectionRange()
	if !ok {
		t.Fatal("expected a selection to be active")
	}
	if sel.Start != (Position{Row: 1, Col: 3}) || sel.End != (Position{Row: 2, Col: 5}) {
		t.Errorf("expected normalized reading order, got %+v", sel)
	}
}

func TestSelectionClear(t *testing.T) {
	term := New(WithCols(20), WithRows(5))
	term.SetSelection(Position{}, Position{Row: 0, Col: 3}, false)
	term.ClearSelection()
	if _, ok := term.SelectionRange(); ok {
		t.Error("expected selection cleared")
	}
}

func TestGetSelectedTextSingleLine(t *testing.T) {
	term := New(WithCols(20), WithRows(5))
	term.WriteString("hello world")
	term.SetSelection(Position{Row: 0, Col: 0}, Position{Row: 0, Col: 4}, false)
	if got := term.GetSelectedText(); got != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}
}

func TestGetSelectedTextSpansLines(t *testing.T) {
	term := New(WithCols(5), WithRows(5), WithConvertEol(true))
	term.WriteString("ab\ncd")
	term.SetSelection(Position{Row: 0, Col: 0}, Position{Row: 1, Col: 1}, false)
	want := "ab\ncd"
	if got := term.GetSelectedText(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestGetSelectedTextBlockSelection(t *testing.T) {
	term := New(WithCols(10), WithRows(5), WithConvertEol(true))
	term.WriteString("abcdef\nghijkl")
	term.SetSelection(Position{Row: 0, Col: 1}, Position{Row: 1, Col: 3}, true)
	want := "bcd\nhij"
	if got := term.GetSelectedText(); got != want {
		t.Errorf("expected block selection %q, got %q", want, got)
	}
}

func TestSelectWordExpandsToWordBoundaries(t *testing.T) {
	term := New(WithCols(20), WithRows(5))
	term.WriteString("foo bar-baz qux")
	term.SelectWord(Position{Row: 0, Col: 5}) // inside "bar"
	if got := term.GetSelectedText(); got != "bar" {
		t.Errorf("expected double-click to select 'bar', got %q", got)
	}
}

func TestSelectWordOnPunctuationSelectsSingleCluster(t *testing.T) {
	term := New(WithCols(20), WithRows(5))
	term.WriteString("foo-bar")
	term.SelectWord(Position{Row: 0, Col: 3}) // the '-'
	if got := term.GetSelectedText(); got != "-" {
		t.Errorf("expected punctuation to select just itself, got %q", got)
	}
}

// TestSelectLineFollowsWrappedRows checks that a word-wrapped paragraph
// (consecutive rows with Wrapped set) selects as a single logical line
// spanning all of its physical rows.
func TestSelectLineFollowsWrappedRows(t *testing.T) {
	term := New(WithCols(4), WithRows(5), WithConvertEol(true))
	term.WriteString("abcdefgh")
	count := term.SelectLine(0)
	sel, ok := term.SelectionRange()
	if !ok {
		t.Fatal("expected SelectLine to set a selection")
	}
	if sel.Start.Row != 0 || sel.End.Row != 1 {
		t.Errorf("expected selection to span both wrapped rows, got %+v", sel)
	}
	if count != 8 {
		t.Errorf("expected 8 graphemes counted across the wrapped line, got %d", count)
	}
}
