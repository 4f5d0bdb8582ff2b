package vtcore

import (
	"github.com/mattn/go-runewidth"
	"github.com/unilibs/uniwidth"
)

// runeWidth returns the display width of r: 2 for wide characters (CJK
// ideographs, fullwidth forms, most emoji), 1 for normal characters, 0
// for combining marks and other zero-width runes.
//
// uniwidth is authoritative; go-runewidth is consulted only for the
// ambiguous-width class uniwidth reports as narrow, since terminal
// emulators disagree on ambiguous-width handling and go-runewidth's
// table is the one most widely matched against real terminfo entries.
func runeWidth(r rune) int {
	w := uniwidth.RuneWidth(r)
	if w == 1 && runewidth.IsAmbiguousWidth(r) {
		return runewidth.RuneWidth(r)
	}
	return w
}

// isWideRune reports whether r occupies two columns.
func isWideRune(r rune) bool { return runeWidth(r) == 2 }

// StringWidth returns the total display width of s, summing per-rune
// widths (not grapheme clusters: a base rune plus combining marks
// counts only the base's width, since combining marks are width 0).
func StringWidth(s string) int {
	total := 0
	for _, r := range s {
		total += runeWidth(r)
	}
	return total
}
