package vtcore

// lineDrawingTable maps the ASCII bytes VT100 special-graphics mode
// (charset designator '0') assigns to box-drawing glyphs. Bytes not
// present pass through unchanged.
var lineDrawingTable = map[rune]rune{
	'`': '◆',
	'a': '▒',
	'b': '␉', // HT symbol
	'c': '␌', // FF symbol
	'd': '␍', // CR symbol
	'e': '␊', // LF symbol
	'f': '°',
	'g': '±',
	'h': '␤', // NL symbol
	'i': '␋', // VT symbol
	'j': '┘',
	'k': '┐',
	'l': '┌',
	'm': '└',
	'n': '┼',
	'o': '⎺',
	'p': '⎻',
	'q': '─',
	'r': '⎼',
	's': '⎽',
	't': '├',
	'u': '┤',
	'v': '┴',
	'w': '┬',
	'x': '│',
	'y': '≤',
	'z': '≥',
	'{': 'π',
	'|': '≠',
	'}': '£',
	'~': '·',
}

// translateCharset maps r through the given charset's substitution
// table. Only CharsetLineDrawing has one; all others pass bytes
// through unchanged (the UK set differs from ASCII only at '#', which
// we treat as out of scope for a UTF-8-native emulator).
func translateCharset(cs Charset, r rune) rune {
	if cs != CharsetLineDrawing {
		return r
	}
	if mapped, ok := lineDrawingTable[r]; ok {
		return mapped
	}
	return r
}
