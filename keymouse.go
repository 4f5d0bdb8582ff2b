package vtcore

import "fmt"

// Key names the non-printable keys the encoder knows how to translate.
// Printable keys are passed through EncodeKey's r parameter instead of
// a Key constant (KeyRune).
type Key int

const (
	KeyRune Key = iota
	KeyBackspace
	KeyTab
	KeyEnter
	KeyEscape
	KeyUp
	KeyDown
	KeyRight
	KeyLeft
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// Modifiers is a bitmask of held modifier keys, used by both the key
// and mouse encoders.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModAlt
	ModCtrl
)

// xtermParam packs modifiers into the 1+N parameter xterm uses in
// modified key sequences (`CSI 1 ; M final`).
func (m Modifiers) xtermParam() int {
	n := 1
	if m&ModShift != 0 {
		n += 1
	}
	if m&ModAlt != 0 {
		n += 2
	}
	if m&ModCtrl != 0 {
		n += 4
	}
	return n
}

var arrowFinal = map[Key]byte{KeyUp: 'A', KeyDown: 'B', KeyRight: 'C', KeyLeft: 'D'}
var fnFinal = map[Key]byte{KeyF1: 'P', KeyF2: 'Q', KeyF3: 'R', KeyF4: 'S'}

// fnTilde maps F5-F12 to their CSI n ~ codes.
var fnTilde = map[Key]int{
	KeyF5: 15, KeyF6: 17, KeyF7: 18, KeyF8: 19,
	KeyF9: 20, KeyF10: 21, KeyF11: 23, KeyF12: 24,
}

// EncodeKey translates one key press into the byte sequence an
// xterm-compatible program expects on its input stream (§4.11).
// appCursorKeys reflects DECCKM; r is the printable
// rune when key == KeyRune (ignored otherwise).
func EncodeKey(key Key, r rune, mods Modifiers, appCursorKeys bool) []byte {
	switch key {
	case KeyRune:
		return encodePrintable(r, mods)
	case KeyBackspace:
		return []byte{0x7F}
	case KeyTab:
		return []byte{'\t'}
	case KeyEnter:
		return []byte{'\r'}
	case KeyEscape:
		return []byte{0x1B}
	case KeyUp, KeyDown, KeyRight, KeyLeft:
		final := arrowFinal[key]
		if mods != 0 {
			return []byte(fmt.Sprintf("\x1b[1;%d%c", mods.xtermParam(), final))
		}
		if appCursorKeys {
			return []byte{0x1B, 'O', final}
		}
		return []byte{0x1B, '[', final}
	case KeyHome:
		return homeEndSeq('H', mods, appCursorKeys)
	case KeyEnd:
		return homeEndSeq('F', mods, appCursorKeys)
	case KeyPageUp:
		return tildeSeq(5, mods)
	case KeyPageDown:
		return tildeSeq(6, mods)
	case KeyInsert:
		return tildeSeq(2, mods)
	case KeyDelete:
		return tildeSeq(3, mods)
	case KeyF1, KeyF2, KeyF3, KeyF4:
		final := fnFinal[key]
		if mods != 0 {
			return []byte(fmt.Sprintf("\x1b[1;%d%c", mods.xtermParam(), final))
		}
		return []byte{0x1B, 'O', final}
	case KeyF5, KeyF6, KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyF12:
		return tildeSeq(fnTilde[key], mods)
	}
	return nil
}

func homeEndSeq(final byte, mods Modifiers, appCursorKeys bool) []byte {
	if mods != 0 {
		return []byte(fmt.Sprintf("\x1b[1;%d%c", mods.xtermParam(), final))
	}
	if appCursorKeys {
		return []byte{0x1B, 'O', final}
	}
	return []byte{0x1B, '[', final}
}

func tildeSeq(n int, mods Modifiers) []byte {
	if mods != 0 {
		return []byte(fmt.Sprintf("\x1b[%d;%d~", n, mods.xtermParam()))
	}
	return []byte(fmt.Sprintf("\x1b[%d~", n))
}

func encodePrintable(r rune, mods Modifiers) []byte {
	if mods&ModCtrl != 0 && r >= 'a' && r <= 'z' {
		b := []byte{byte(r) &^ 0x60}
		return prefixAlt(b, mods)
	}
	if mods&ModCtrl != 0 && r >= 'A' && r <= 'Z' {
		b := []byte{byte(r) &^ 0x40}
		return prefixAlt(b, mods)
	}
	return prefixAlt([]byte(string(r)), mods)
}

func prefixAlt(b []byte, mods Modifiers) []byte {
	if mods&ModAlt != 0 {
		return append([]byte{0x1B}, b...)
	}
	return b
}

// MouseAction identifies what kind of mouse event is being encoded.
type MouseAction int

const (
	MousePress MouseAction = iota
	MouseRelease
	MouseMotion
	MouseWheelUp
	MouseWheelDown
)

// MouseProtocol selects the wire encoding EncodeMouse produces,
// determined by which of modes 1006/1015/(neither) is active.
type MouseProtocol int

const (
	MouseProtocolX10 MouseProtocol = iota
	MouseProtocolSGR
	MouseProtocolURXVT
)

// EncodeMouse translates a mouse event into the active protocol's byte
// sequence (§4.11). button is 0/1/2 for left/middle/right; motion
// reports send it with 0x20 added, and wheel actions ignore it. x, y are
// 0-based cell coordinates.
func EncodeMouse(proto MouseProtocol, button int, action MouseAction, x, y int, mods Modifiers) []byte {
	cb := button
	switch action {
	case MouseRelease:
		if proto == MouseProtocolX10 {
			cb = 3
		}
	case MouseMotion:
		cb |= 0x20
	case MouseWheelUp:
		cb = 0x40 | 0
	case MouseWheelDown:
		cb = 0x40 | 1
	}
	if mods&ModShift != 0 {
		cb |= 0x04
	}
	if mods&ModAlt != 0 {
		cb |= 0x08
	}
	if mods&ModCtrl != 0 {
		cb |= 0x10
	}

	switch proto {
	case MouseProtocolSGR:
		final := byte('M')
		if action == MouseRelease {
			final = 'm'
		}
		return []byte(fmt.Sprintf("\x1b[<%d;%d;%d%c", cb, x+1, y+1, final))
	case MouseProtocolURXVT:
		return []byte(fmt.Sprintf("\x1b[%d;%d;%d M", cb+32, x+1, y+1))
	default: // X10
		cx, cy := x+1+32, y+1+32
		if cx > 255 {
			cx = 255
		}
		if cy > 255 {
			cy = 255
		}
		return []byte{0x1B, '[', 'M', byte(cb + 32), byte(cx), byte(cy)}
	}
}
