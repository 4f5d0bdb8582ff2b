package vtcore

import "strings"

// Selection tracks a rectangular-in-time, stream-in-space text
// selection: two Positions in reading order plus whether it is a
// block (column) selection rather than the default linear one.
type Selection struct {
	Start, End Position
	Block      bool
}

// SetSelection opens or replaces the active selection. a and b may be
// given in either order; they are normalized to reading order.
func (t *Terminal) SetSelection(a, b Position, block bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b.Before(a) {
		a, b = b, a
	}
	t.selection = &Selection{Start: a, End: b, Block: block}
}

func (t *Terminal) ClearSelection() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selection = nil
}

// SelectionRange returns the active selection's bounds, or false if
// there is none.
func (t *Terminal) SelectionRange() (Selection, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.selection == nil {
		return Selection{}, false
	}
	return *t.selection, true
}

// isWordCluster reports whether cluster counts as part of a "word" for
// double-click selection purposes: letters, digits, and underscore (by
// first rune), matching the common terminal convention that punctuation
// and whitespace delimit words.
func isWordCluster(cluster string) bool {
	for _, r := range cluster {
		return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') || r > 0x7F
	}
	return false
}

// SelectWord expands the selection to the grapheme-cluster-delimited
// word under pos (a double-click gesture), using uniseg so that
// multi-rune clusters (combining marks, joined emoji) are never split in
// the middle. If pos does not land on a word cluster, selects that
// single cluster instead.
func (t *Terminal) SelectWord(pos Position) {
	t.mu.Lock()
	defer t.mu.Unlock()
	line, ok := t.active.Line(pos.Row)
	if !ok {
		return
	}
	text := line.TranslateToString(false, 0, len(line.Cells))
	clusters := graphemeClusters(text)
	if len(clusters) == 0 {
		return
	}
	col := clampInt(pos.Col, 0, len(clusters)-1)

	start, end := col, col
	if isWordCluster(clusters[col]) {
		for start > 0 && isWordCluster(clusters[start-1]) {
			start--
		}
		for end < len(clusters)-1 && isWordCluster(clusters[end+1]) {
			end++
		}
	}
	t.selection = &Selection{Start: Position{Row: pos.Row, Col: start}, End: Position{Row: pos.Row, Col: end}}
}

// SelectLine expands the selection to the whole logical line containing
// row, following Line.Wrapped both upward and downward so a word-wrapped
// paragraph selects as one unit, and reports the selected cluster count
// (via uniseg) rather than a byte or rune count.
func (t *Terminal) SelectLine(row int) (clusterCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	start := row
	for start > 0 {
		prev, ok := t.active.Line(start - 1)
		if !ok || !prev.Wrapped {
			break
		}
		start--
	}
	end := row
	for {
		line, ok := t.active.Line(end)
		if !ok || !line.Wrapped {
			break
		}
		end++
	}
	endLine, ok := t.active.Line(end)
	endCol := 0
	if ok && len(endLine.Cells) > 0 {
		endCol = len(endLine.Cells) - 1
	}
	t.selection = &Selection{Start: Position{Row: start, Col: 0}, End: Position{Row: end, Col: endCol}}

	for r := start; r <= end; r++ {
		if line, ok := t.active.Line(r); ok {
			clusterCount += graphemeCount(line.TranslateToString(true, 0, len(line.Cells)))
		}
	}
	return clusterCount
}

// GetSelectedText renders the active selection as plain text. Rows are
// joined with "\n", except that in a linear selection a row marked
// Wrapped runs straight on into the next one. A block selection takes the
// same column range from every row instead of running start-to-end of
// line; a linear selection runs from Start to the end of its first row,
// full rows in between, and the beginning of its last row up to End.
func (t *Terminal) GetSelectedText() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.selection == nil {
		return ""
	}
	sel := *t.selection

	var b strings.Builder
	for row := sel.Start.Row; row <= sel.End.Row; row++ {
		line, ok := t.active.Line(row)
		if !ok {
			continue
		}
		start, end := 0, len(line.Cells)
		switch {
		case sel.Block:
			start, end = sel.Start.Col, sel.End.Col+1
		case row == sel.Start.Row && row == sel.End.Row:
			start, end = sel.Start.Col, sel.End.Col+1
		case row == sel.Start.Row:
			start = sel.Start.Col
		case row == sel.End.Row:
			end = sel.End.Col + 1
		}
		b.WriteString(line.TranslateToString(true, start, end))
		if row < sel.End.Row {
			if !line.Wrapped || sel.Block {
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}
