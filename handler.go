package vtcore

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// This file implements the Dispatcher interface (parser.go) against a
// Terminal: it turns the events the parser produces while scanning a
// byte stream into mutations of the active Buffer, the palette, the
// image manager and the rest of the terminal-wide state. Every method
// here runs with t.mu already held by Write, so none of them may lock
// it themselves; anything that needs to reach a listener (a reply
// written to data-out, a fired event) goes through t.queueEvent so it
// runs only after Write has released the lock.

var _ Dispatcher = (*Terminal)(nil)

// --- C0/printable dispatch ---

func (t *Terminal) Print(r rune) {
	cs := t.charsets[t.activeSlot]
	r = translateCharset(cs, r)
	w := runeWidth(r)
	autoWrap := t.modes&ModeLineWrap != 0
	insert := t.modes&ModeInsert != 0
	t.active.WriteGrapheme(string(r), w, autoWrap, insert)
}

func (t *Terminal) Execute(b byte) {
	switch b {
	case 0x07: // BEL
		t.queueEvent(func() { t.Events.Bell.Fire(struct{}{}) })
	case 0x08: // BS
		t.active.CursorBack(1)
	case 0x09: // HT
		t.active.SetCursorCol(t.active.NextTabStop(t.active.CursorX()))
	case 0x0A, 0x0B, 0x0C: // LF, VT, FF
		t.active.LineFeed()
		if t.convertEol || t.modes&ModeLineFeedNewLine != 0 {
			t.active.CarriageReturn()
		}
		t.queueEvent(func() { t.Events.LineFed.Fire(struct{}{}) })
	case 0x0D: // CR
		t.active.CarriageReturn()
	case 0x0E: // SO - shift out to G1
		t.activeSlot = CharsetSlotG1
	case 0x0F: // SI - shift in to G0
		t.activeSlot = CharsetSlotG0
	}
}

// --- ESC dispatch ---

func (t *Terminal) EscDispatch(final byte, intermediates []byte) {
	if len(intermediates) > 0 {
		switch intermediates[0] {
		case '(', ')', '*', '+':
			t.designateCharset(intermediates[0], final)
			return
		}
	}
	switch final {
	case 'D': // IND
		t.active.LineFeed()
	case 'E': // NEL
		t.active.LineFeed()
		t.active.CarriageReturn()
	case 'M': // RI
		t.active.ReverseIndex()
	case '7': // DECSC
		t.saveCursor(t.active)
	case '8': // DECRC
		t.restoreCursor(t.active)
	case 'c': // RIS
		t.resetState()
	}
}

func (t *Terminal) designateCharset(slotByte, final byte) {
	var slot CharsetSlot
	switch slotByte {
	case '(':
		slot = CharsetSlotG0
	case ')':
		slot = CharsetSlotG1
	case '*':
		slot = CharsetSlotG2
	case '+':
		slot = CharsetSlotG3
	default:
		return
	}
	var cs Charset
	switch final {
	case '0':
		cs = CharsetLineDrawing
	case 'A':
		cs = CharsetUK
	case 'B':
		cs = CharsetASCII
	default:
		return
	}
	t.charsets[slot] = cs
}

func (t *Terminal) saveCursor(b *Buffer) {
	s := b.SaveCursor()
	s.OriginMode = t.modes&ModeOrigin != 0
	s.Charsets = t.charsets
	s.ActiveSlot = t.activeSlot
	b.SetSaved(&s)
}

func (t *Terminal) restoreCursor(b *Buffer) {
	s := b.Saved()
	if s == nil {
		return
	}
	b.RestoreCursor(*s)
	if s.OriginMode {
		t.modes |= ModeOrigin
	} else {
		t.modes &^= ModeOrigin
	}
	t.charsets = s.Charsets
	t.activeSlot = s.ActiveSlot
}

// --- CSI dispatch ---

func (t *Terminal) CsiDispatch(final byte, intermediates []byte, private byte, params *Params) {
	switch final {
	case '@': // ICH
		t.active.InsertChars(int(clampCount(params.Get(0, 1))))
	case 'A': // CUU
		t.active.CursorUp(int(clampCount(params.Get(0, 1))))
	case 'B': // CUD
		t.active.CursorDown(int(clampCount(params.Get(0, 1))))
	case 'C': // CUF
		t.active.CursorForward(int(clampCount(params.Get(0, 1))))
	case 'D': // CUB
		t.active.CursorBack(int(clampCount(params.Get(0, 1))))
	case 'E': // CNL
		t.active.CursorDown(int(clampCount(params.Get(0, 1))))
		t.active.SetCursorCol(0)
	case 'F': // CPL
		t.active.CursorUp(int(clampCount(params.Get(0, 1))))
		t.active.SetCursorCol(0)
	case 'G', '`': // CHA / HPA
		t.active.SetCursorCol(int(params.Get(0, 1)) - 1)
	case 'H', 'f': // CUP / HVP
		t.setCursorPosition(params.Get(0, 1), params.Get(1, 1))
	case 'I': // CHT
		t.tabForward(int(clampCount(params.Get(0, 1))))
	case 'Z': // CBT
		t.tabBackward(int(clampCount(params.Get(0, 1))))
	case 'J': // ED
		t.active.EraseInDisplay(int(params.Get(0, 0)))
	case 'K': // EL
		t.active.EraseInLine(int(params.Get(0, 0)))
	case 'L': // IL
		t.active.InsertLines(int(clampCount(params.Get(0, 1))))
	case 'M': // DL
		t.active.DeleteLines(int(clampCount(params.Get(0, 1))))
	case 'P': // DCH
		t.active.DeleteChars(int(clampCount(params.Get(0, 1))))
	case 'X': // ECH
		t.active.EraseChars(int(clampCount(params.Get(0, 1))))
	case 'S': // SU
		if private == 0 {
			t.active.ScrollUp(int(clampCount(params.Get(0, 1))))
		}
	case 'T': // SD
		if private == 0 {
			t.active.ScrollDown(int(clampCount(params.Get(0, 1))))
		}
	case 'd': // VPA
		t.active.SetCursorRow(int(params.Get(0, 1)) - 1)
	case 'g': // TBC
		t.tabClear(int(params.Get(0, 0)))
	case 'h':
		t.setModes(private, params, true)
	case 'l':
		t.setModes(private, params, false)
	case 'm': // SGR
		t.applySGR(params)
	case 'n': // DSR
		t.reportDeviceStatus(private, params)
	case 'r': // DECSTBM
		if private == 0 {
			t.setScrollRegion(params)
		}
	case 's': // SCO cursor save (no private prefix, no params)
		if private == 0 && params.Len() == 0 {
			t.saveCursor(t.active)
		}
	case 'u': // SCO cursor restore
		if private == 0 && params.Len() == 0 {
			t.restoreCursor(t.active)
		}
	case 't': // window manipulation
		t.windowManipulation(params)
	case 'q':
		if len(intermediates) == 1 && intermediates[0] == ' ' {
			t.setCursorStyle(params)
		}
	case 'c': // DA1
		if private == 0 && params.Get(0, 0) == 0 {
			t.queueOut("\x1b[?1;2c")
		}
	}
}

// clampCount normalizes a count parameter: omitted means 1, an
// explicit 0 is treated the same as 1 (§4.7 edge case).
func clampCount(n int32) int32 {
	if n < 1 {
		return 1
	}
	return n
}

func (t *Terminal) setCursorPosition(row1, col1 int32) {
	row := int(row1) - 1
	col := int(col1) - 1
	if row < 0 {
		row = 0
	}
	if col < 0 {
		col = 0
	}
	if t.modes&ModeOrigin != 0 {
		top, bottom := t.active.ScrollRegion()
		row += top
		if row > bottom {
			row = bottom
		}
	}
	t.active.SetCursorPosition(row, col)
}

func (t *Terminal) tabForward(n int) {
	col := t.active.CursorX()
	for ; n > 0; n-- {
		col = t.active.NextTabStop(col)
	}
	t.active.SetCursorCol(col)
}

func (t *Terminal) tabBackward(n int) {
	col := t.active.CursorX()
	for ; n > 0; n-- {
		col = t.active.PrevTabStop(col)
	}
	t.active.SetCursorCol(col)
}

func (t *Terminal) tabClear(mode int) {
	switch mode {
	case 0:
		t.active.ClearTabStop(t.active.CursorX())
	case 3:
		t.active.ClearAllTabStops()
	}
}

func (t *Terminal) setScrollRegion(params *Params) {
	rows := t.active.Rows()
	top := params.Get(0, 1)
	bottom := params.Get(1, int32(rows))
	t.active.SetScrollRegion(int(top), int(bottom))
	if t.modes&ModeOrigin != 0 {
		newTop, _ := t.active.ScrollRegion()
		t.active.SetCursorPosition(newTop, 0)
	} else {
		t.active.SetCursorPosition(0, 0)
	}
}

func (t *Terminal) reportDeviceStatus(private byte, params *Params) {
	if private != 0 {
		return
	}
	if params.Get(0, 0) == 6 {
		row := t.active.CursorY() + 1
		col := t.active.CursorX() + 1
		t.queueOut(fmt.Sprintf("\x1b[%d;%dR", row, col))
	}
}

func cursorStyleFromParam(n int32) (CursorStyle, bool) {
	switch n {
	case 0, 1:
		return CursorStyleBlinkingBlock, true
	case 2:
		return CursorStyleSteadyBlock, false
	case 3:
		return CursorStyleBlinkingUnderline, true
	case 4:
		return CursorStyleSteadyUnderline, false
	case 5:
		return CursorStyleBlinkingBar, true
	case 6:
		return CursorStyleSteadyBar, false
	}
	return CursorStyleBlinkingBlock, true
}

func (t *Terminal) setCursorStyle(params *Params) {
	style, blink := cursorStyleFromParam(params.Get(0, 1))
	t.cursorStyle = style
	t.cursorBlink = blink
	t.queueEvent(func() {
		t.Events.CursorStyleChanged.Fire(CursorStyleChange{Style: style, Blink: blink})
	})
}

func (t *Terminal) windowManipulation(params *Params) {
	ps := params.Get(0, 0)
	switch ps {
	case 1:
		t.queueEvent(func() { t.Events.Window.Fire(WindowRestored) })
	case 2:
		t.queueEvent(func() { t.Events.Window.Fire(WindowMinimized) })
	case 3:
		t.queueEvent(func() { t.Events.Window.Fire(WindowMoved) })
	case 4:
		t.queueEvent(func() { t.Events.Window.Fire(WindowResized) })
	case 8:
		t.queueEvent(func() { t.Events.Window.Fire(WindowResized) })
	case 9:
		if params.Get(1, 0) == 0 {
			t.queueEvent(func() { t.Events.Window.Fire(WindowRestored) })
		} else {
			t.queueEvent(func() { t.Events.Window.Fire(WindowMaximized) })
		}
	case 11, 13, 14, 18, 19, 20, 21:
		kind := int(ps)
		t.queueEvent(func() {
			t.Events.WindowInfoRequested.Fire(WindowInfoRequest{
				Kind:    kind,
				Resolve: func(reply string) { t.Events.DataOut.Fire([]byte(reply)) },
			})
		})
	}
}

// --- SM/RM and DECSET/DECRST ---

func (t *Terminal) setModes(private byte, params *Params, set bool) {
	for _, i := range params.Fields() {
		code := params.Get(i, 0)
		if private == '?' {
			t.setPrivateMode(code, set)
		} else {
			t.setAnsiMode(code, set)
		}
	}
}

func (t *Terminal) setAnsiMode(code int32, set bool) {
	switch code {
	case 4:
		t.setModeBit(ModeInsert, set)
	case 20:
		t.setModeBit(ModeLineFeedNewLine, set)
	}
}

func (t *Terminal) setModeBit(bit Mode, set bool) {
	if set {
		t.modes |= bit
	} else {
		t.modes &^= bit
	}
}

func (t *Terminal) setPrivateMode(code int32, set bool) {
	switch code {
	case 1:
		t.setModeBit(ModeCursorKeys, set)
	case 3: // DECCOLM
		cols := 80
		if set {
			cols = 132
		}
		t.setModeBit(ModeColumnMode, set)
		t.resizeLocked(cols, t.rows)
		t.active.EraseInDisplay(2)
		t.active.SetCursorPosition(0, 0)
	case 6: // DECOM
		t.setModeBit(ModeOrigin, set)
		if set {
			top, _ := t.active.ScrollRegion()
			t.active.SetCursorPosition(top, 0)
		} else {
			t.active.SetCursorPosition(0, 0)
		}
	case 7:
		t.setModeBit(ModeLineWrap, set)
	case 8:
		t.setModeBit(ModeAutoRepeat, set)
	case 9:
		t.setModeBit(ModeMouseX10, set)
	case 25:
		t.setModeBit(ModeShowCursor, set)
	case 47:
		t.switchBuffer(set, false)
	case 66:
		t.setModeBit(ModeKeypadApplication, set)
	case 67:
		t.setModeBit(ModeBackarrowKey, set)
	case 1000:
		t.setModeBit(ModeMouseVT200, set)
	case 1001:
		t.setModeBit(ModeMouseVT200Highlight, set)
	case 1002:
		t.setModeBit(ModeMouseButtonEvent, set)
	case 1003:
		t.setModeBit(ModeMouseAnyEvent, set)
	case 1004:
		t.setModeBit(ModeFocusInOut, set)
	case 1005:
		t.setModeBit(ModeMouseUTF8, set)
	case 1006:
		t.setModeBit(ModeMouseSGR, set)
	case 1007:
		t.setModeBit(ModeAlternateScroll, set)
	case 1015:
		t.setModeBit(ModeMouseURXVT, set)
	case 1047:
		if set {
			t.switchBuffer(true, false)
		} else {
			t.alternate.EraseInDisplay(2)
			t.switchBuffer(false, false)
		}
	case 1049:
		t.switchBuffer(set, true)
	case 2004:
		t.setModeBit(ModeBracketedPaste, set)
	}
}

// switchBuffer moves between the normal and alternate screens. saveCur
// additionally saves/restores the cursor through the DECSC slot, which
// only mode 1049 does; plain 47/1047 just swap the active buffer (each
// buffer already tracks its own cursor independently).
func (t *Terminal) switchBuffer(toAlternate, saveCur bool) {
	before := t.kind
	if toAlternate {
		if t.kind == BufferAlternate {
			return
		}
		if saveCur {
			t.saveCursor(t.normal)
		}
		t.active = t.alternate
		t.kind = BufferAlternate
		t.active.EraseInDisplay(2)
		t.active.SetCurrentHyperlink(t.currentHyperlink)
	} else {
		if t.kind == BufferNormal {
			return
		}
		t.active = t.normal
		t.kind = BufferNormal
		if saveCur {
			t.restoreCursor(t.normal)
		}
		t.active.SetCurrentHyperlink(t.currentHyperlink)
	}
	if before != t.kind {
		kind := t.kind
		t.queueEvent(func() { t.Events.BufferChanged.Fire(kind) })
	}
}

// --- SGR ---

func (t *Terminal) applySGR(params *Params) {
	attr := t.active.CurrentAttr()
	if params.Len() == 0 {
		t.active.SetCurrentAttr(DefaultAttr())
		return
	}
	i := 0
	for i < params.Len() {
		code := params.Get(i, 0)
		switch code {
		case 0:
			attr = DefaultAttr()
			i++
		case 1:
			attr.SetFlag(FlagBold)
			i++
		case 2:
			attr.SetFlag(FlagDim)
			i++
		case 3:
			attr.SetFlag(FlagItalic)
			i++
		case 4:
			start, end := params.Group(i)
			if end > start+1 {
				attr.Underline = underlineStyleFromParam(params.Get(start+1, 1))
			} else {
				attr.Underline = UnderlineSingle
			}
			i = end
		case 5:
			attr.SetFlag(FlagBlink)
			i++
		case 7:
			attr.SetFlag(FlagInverse)
			i++
		case 8:
			attr.SetFlag(FlagInvisible)
			i++
		case 9:
			attr.SetFlag(FlagStrikethrough)
			i++
		case 22:
			attr.ClearFlag(FlagBold)
			attr.ClearFlag(FlagDim)
			i++
		case 23:
			attr.ClearFlag(FlagItalic)
			i++
		case 24:
			attr.Underline = UnderlineNone
			i++
		case 25:
			attr.ClearFlag(FlagBlink)
			i++
		case 27:
			attr.ClearFlag(FlagInverse)
			i++
		case 28:
			attr.ClearFlag(FlagInvisible)
			i++
		case 29:
			attr.ClearFlag(FlagStrikethrough)
			i++
		case 30, 31, 32, 33, 34, 35, 36, 37:
			attr.SetFg(Indexed(code - 30))
			i++
		case 38:
			consumed, c, ok := parseExtendedColor(params, i)
			if ok {
				attr.SetFg(c)
			}
			i += consumed
		case 39:
			attr.SetFg(DefaultFg)
			i++
		case 40, 41, 42, 43, 44, 45, 46, 47:
			attr.SetBg(Indexed(code - 40))
			i++
		case 48:
			consumed, c, ok := parseExtendedColor(params, i)
			if ok {
				attr.SetBg(c)
			}
			i += consumed
		case 49:
			attr.SetBg(DefaultBg)
			i++
		case 53:
			attr.SetFlag(FlagOverline)
			i++
		case 55:
			attr.ClearFlag(FlagOverline)
			i++
		case 90, 91, 92, 93, 94, 95, 96, 97:
			attr.SetFg(Indexed(code - 90 + 8))
			i++
		case 100, 101, 102, 103, 104, 105, 106, 107:
			attr.SetBg(Indexed(code - 100 + 8))
			i++
		default:
			i++
		}
	}
	t.active.SetCurrentAttr(attr)
}

func underlineStyleFromParam(n int32) UnderlineStyle {
	switch n {
	case 0:
		return UnderlineNone
	case 2:
		return UnderlineDouble
	case 3:
		return UnderlineCurly
	case 4:
		return UnderlineDotted
	case 5:
		return UnderlineDashed
	default:
		return UnderlineSingle
	}
}

// parseExtendedColor decodes the 38/48 extended-color sequence starting
// at params field i, supporting both the colon-subparameter form
// (`38:2::r:g:b`, `38:5:n`) and the legacy semicolon form
// (`38;2;r;g;b`, `38;5;n`). It returns how many fields were consumed so
// the caller can advance past them.
func parseExtendedColor(params *Params, i int) (consumed int, c Color, ok bool) {
	start, end := params.Group(i)
	if end > start+1 {
		mode := params.Get(start+1, -1)
		switch mode {
		case 2:
			var r, g, b int32
			if end-start >= 6 {
				r, g, b = params.Get(start+3, 0), params.Get(start+4, 0), params.Get(start+5, 0)
			} else {
				r, g, b = params.Get(start+2, 0), params.Get(start+3, 0), params.Get(start+4, 0)
			}
			return end - start, RGB(uint8(r), uint8(g), uint8(b)), true
		case 5:
			idx := params.Get(start+2, 0)
			return end - start, Indexed(idx), true
		}
		return end - start, Color{}, false
	}

	mode := params.Get(i+1, -1)
	switch mode {
	case 5:
		idx := params.Get(i+2, 0)
		return 3, Indexed(idx), true
	case 2:
		r, g, b := params.Get(i+2, 0), params.Get(i+3, 0), params.Get(i+4, 0)
		return 5, RGB(uint8(r), uint8(g), uint8(b)), true
	}
	return 1, Color{}, false
}

// --- OSC dispatch ---

func (t *Terminal) OscDispatch(data []byte) {
	s := string(data)
	code, rest := s, ""
	if idx := strings.IndexByte(s, ';'); idx >= 0 {
		code, rest = s[:idx], s[idx+1:]
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return
	}
	switch n {
	case 0, 1, 2:
		t.title = rest
		t.queueEvent(func() { t.Events.TitleChanged.Fire(rest) })
	case 4:
		t.oscSetPalette(rest)
	case 7:
		t.workingDirectory = parseFileURIPath(rest)
	case 8:
		t.oscHyperlink(rest)
	case 10:
		t.oscColor(10, rest, colorRoleForeground)
	case 11:
		t.oscColor(11, rest, colorRoleBackground)
	case 12:
		t.oscColor(12, rest, colorRoleCursor)
	case 52:
		// clipboard access: advisory only, no event type defined for it.
	case 104:
		t.oscResetPalette(rest)
	case 110:
		t.palette.ResetForeground()
	case 111:
		t.palette.ResetBackground()
	case 112:
		t.palette.ResetCursorColor()
	case 133:
		t.oscSemanticPrompt(rest)
	}
}

type colorRole int

const (
	colorRoleForeground colorRole = iota
	colorRoleBackground
	colorRoleCursor
)

func (t *Terminal) oscSetPalette(rest string) {
	fields := strings.Split(rest, ";")
	for i := 0; i+1 < len(fields); i += 2 {
		idx, err := strconv.Atoi(fields[i])
		if err != nil {
			continue
		}
		if fields[i+1] == "?" {
			reply := fmt.Sprintf("\x1b]4;%d;%s\x07", idx, formatXColor(t.palette.Index(idx)))
			t.queueOut(reply)
			continue
		}
		if c, ok := parseXColor(fields[i+1]); ok {
			t.palette.SetIndex(idx, c)
		}
	}
}

func (t *Terminal) oscResetPalette(rest string) {
	if rest == "" {
		t.palette.ResetAll()
		return
	}
	for _, f := range strings.Split(rest, ";") {
		if idx, err := strconv.Atoi(f); err == nil {
			t.palette.ResetIndex(idx)
		}
	}
}

func (t *Terminal) oscColor(code int, rest string, role colorRole) {
	if rest == "?" {
		var c color.RGBA
		switch role {
		case colorRoleForeground:
			c = t.palette.Foreground()
		case colorRoleBackground:
			c = t.palette.Background()
		case colorRoleCursor:
			c = t.palette.CursorColor()
		}
		t.queueOut(fmt.Sprintf("\x1b]%d;%s\x07", code, formatXColor(c)))
		return
	}
	c, ok := parseXColor(rest)
	if !ok {
		return
	}
	switch role {
	case colorRoleForeground:
		t.palette.SetForeground(c)
	case colorRoleBackground:
		t.palette.SetBackground(c)
	case colorRoleCursor:
		t.palette.SetCursorColor(c)
	}
}

func (t *Terminal) oscHyperlink(rest string) {
	idx := strings.IndexByte(rest, ';')
	params, uri := "", rest
	if idx >= 0 {
		params, uri = rest[:idx], rest[idx+1:]
	}
	if uri == "" {
		t.currentHyperlink = nil
		t.active.SetCurrentHyperlink(nil)
		return
	}
	id := extractHyperlinkID(params)
	if id == "" {
		t.nextLinkID++
		id = strconv.Itoa(t.nextLinkID)
	}
	link := &Hyperlink{ID: id, URI: uri}
	t.currentHyperlink = link
	t.active.SetCurrentHyperlink(link)
}

func extractHyperlinkID(params string) string {
	for _, kv := range strings.Split(params, ":") {
		if v, ok := strings.CutPrefix(kv, "id="); ok {
			return v
		}
	}
	return ""
}

func (t *Terminal) oscSemanticPrompt(rest string) {
	parts := strings.SplitN(rest, ";", 2)
	exitCode := -1
	if len(parts) > 1 {
		if v, err := strconv.Atoi(parts[1]); err == nil {
			exitCode = v
		}
	}
	switch parts[0] {
	case "A":
		t.recordPromptMark(PromptStart, -1)
	case "B":
		t.recordPromptMark(CommandStart, -1)
	case "C":
		t.recordPromptMark(CommandExecuted, -1)
	case "D":
		t.recordPromptMark(CommandFinished, exitCode)
	}
}

func parseFileURIPath(rest string) string {
	trimmed, ok := strings.CutPrefix(rest, "file://")
	if !ok {
		return rest
	}
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[idx:]
	}
	return trimmed
}

func parseXColor(spec string) (color.RGBA, bool) {
	if rest, ok := strings.CutPrefix(spec, "rgb:"); ok {
		parts := strings.Split(rest, "/")
		if len(parts) != 3 {
			return color.RGBA{}, false
		}
		r, ok1 := parseColorComponent(parts[0])
		g, ok2 := parseColorComponent(parts[1])
		b, ok3 := parseColorComponent(parts[2])
		if !ok1 || !ok2 || !ok3 {
			return color.RGBA{}, false
		}
		return color.RGBA{R: r, G: g, B: b, A: 255}, true
	}
	if strings.HasPrefix(spec, "#") && len(spec) == 7 {
		v, err := strconv.ParseUint(spec[1:], 16, 32)
		if err != nil {
			return color.RGBA{}, false
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true
	}
	return color.RGBA{}, false
}

// parseColorComponent parses one "rgb:" component, which xterm allows
// to be 1-4 hex digits, normalizing it to an 8-bit value the same way
// xterm does: by using the most-significant byte of the 16-bit form.
func parseColorComponent(s string) (uint8, bool) {
	if s == "" || len(s) > 4 {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, false
	}
	bits := uint(len(s) * 4)
	v <<= 16 - bits
	return uint8(v >> 8), true
}

func formatXColor(c color.RGBA) string {
	return fmt.Sprintf("rgb:%02x%02x/%02x%02x/%02x%02x", c.R, c.R, c.G, c.G, c.B, c.B)
}

// --- APC dispatch (Kitty graphics) ---

func (t *Terminal) ApcDispatch(data []byte) {
	if len(data) > 0 && data[0] == 'G' {
		t.handleKittyGraphics(data)
	}
}

func (t *Terminal) handleKittyGraphics(data []byte) {
	cmd, err := ParseKittyGraphics(data)
	if err != nil {
		return
	}
	switch cmd.Action {
	case KittyActionQuery:
		if cmd.Quiet < 2 {
			t.queueOut(FormatKittyResponse(cmd.ImageID, "", false))
		}
	case KittyActionTransmit:
		t.kittyTransmit(cmd)
	case KittyActionTransmitDisplay:
		if t.kittyTransmit(cmd) && !cmd.More {
			t.kittyDisplay(cmd)
		}
	case KittyActionDisplay:
		t.kittyDisplay(cmd)
	case KittyActionDelete:
		t.kittyDelete(cmd)
	}
}

// kittyTransmit accumulates (or stores, on the final chunk) a
// transmitted image's payload. It reports whether an image is now
// fully stored and ready to display.
func (t *Terminal) kittyTransmit(cmd *KittyCommand) bool {
	if cmd.More {
		t.apc.payload = append(t.apc.payload, cmd.Payload...)
		t.apc.pending = true
		t.apc.imageID = cmd.ImageID
		t.apc.format = cmd.Format
		t.apc.width = cmd.Width
		t.apc.height = cmd.Height
		t.apc.compression = cmd.Compression
		return false
	}

	payload := cmd.Payload
	if t.apc.pending {
		payload = append(t.apc.payload, cmd.Payload...)
		if cmd.ImageID == 0 {
			cmd.ImageID = t.apc.imageID
		}
		if cmd.Width == 0 {
			cmd.Width = t.apc.width
		}
		if cmd.Height == 0 {
			cmd.Height = t.apc.height
		}
		if cmd.Compression == 0 {
			cmd.Compression = t.apc.compression
		}
		t.apc.reset()
	}

	cmd.Payload = payload
	rgba, width, height, err := cmd.DecodeImageData()
	if err != nil || width == 0 || height == 0 {
		if cmd.Quiet < 2 {
			t.queueOut(FormatKittyResponse(cmd.ImageID, "ENODATA:could not decode image", true))
		}
		return false
	}

	if cmd.ImageID > 0 {
		t.images.StoreWithID(cmd.ImageID, width, height, rgba)
	} else {
		cmd.ImageID = t.images.Store(width, height, rgba)
	}
	if cmd.Quiet < 1 {
		t.queueOut(FormatKittyResponse(cmd.ImageID, "", false))
	}
	return true
}

func (t *Terminal) kittyDisplay(cmd *KittyCommand) {
	img := t.images.Image(cmd.ImageID)
	if img == nil {
		return
	}
	cols, rows := int(cmd.Cols), int(cmd.Rows)
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}
	row0, col0 := t.active.CursorY(), t.active.CursorX()
	p := &ImagePlacement{
		ImageID: cmd.ImageID,
		Row:     row0,
		Col:     col0,
		Cols:    cols,
		Rows:    rows,
		SrcX:    cmd.SrcX, SrcY: cmd.SrcY, SrcW: cmd.SrcW, SrcH: cmd.SrcH,
		ZIndex:  cmd.ZIndex,
		OffsetX: cmd.CellOffsetX, OffsetY: cmd.CellOffsetY,
	}
	placementID := t.images.Place(p)
	t.paintImageCells(row0, col0, cols, rows, placementID, cmd.ImageID, cmd.ZIndex)
	if !cmd.DoNotMoveCursor {
		t.active.SetCursorPosition(row0, col0+cols)
	}
}

func (t *Terminal) paintImageCells(row0, col0, cols, rows int, placementID, imageID uint32, zIndex int32) {
	maxRow := t.active.Rows() - 1
	maxCol := t.active.Cols() - 1
	for r := 0; r < rows; r++ {
		row := row0 + r
		if row < 0 || row > maxRow {
			continue
		}
		for c := 0; c < cols; c++ {
			col := col0 + c
			if col < 0 || col > maxCol {
				continue
			}
			cell := t.active.Cell(row, col)
			if cell == nil {
				continue
			}
			cell.Image = &CellImage{
				PlacementID: placementID,
				ImageID:     imageID,
				U0:          float32(c) / float32(cols),
				V0:          float32(r) / float32(rows),
				U1:          float32(c+1) / float32(cols),
				V1:          float32(r+1) / float32(rows),
				ZIndex:      zIndex,
			}
		}
	}
	t.active.markDirtyRange(row0, minInt(row0+rows-1, maxRow))
}

func (t *Terminal) kittyDelete(cmd *KittyCommand) {
	switch cmd.Delete {
	case 0, KittyDeleteAll:
		for _, p := range t.images.Placements() {
			t.images.RemovePlacement(p.ID)
		}
	case KittyDeleteAllWithData:
		t.images.Clear()
	case KittyDeleteByID:
		t.images.RemovePlacementsForImage(cmd.ImageID)
	case KittyDeleteByIDWithData:
		t.images.DeleteImage(cmd.ImageID)
	case KittyDeleteAtCursor, KittyDeleteAtCursorData:
		t.images.DeletePlacementsByPosition(t.active.CursorY(), t.active.CursorX())
	case KittyDeleteByZIndex, KittyDeleteByZIndexData:
		t.images.DeletePlacementsByZIndex(cmd.ZIndex)
	case KittyDeleteByRow, KittyDeleteByRowData:
		t.images.DeletePlacementsInRow(int(cmd.SrcY))
	case KittyDeleteByCol, KittyDeleteByColData:
		t.images.DeletePlacementsInColumn(int(cmd.SrcX))
	}
	t.active.markDirtyRange(0, t.active.Rows()-1)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// --- DCS dispatch (Sixel passthrough) ---

func (t *Terminal) DcsHook(final byte, intermediates []byte, private byte, params *Params) {
	t.dcs.active = final == 'q' && private == 0
	if !t.dcs.active {
		return
	}
	t.dcs.params = paramsToInt64(params)
	t.dcs.buf = t.dcs.buf[:0]
}

func (t *Terminal) DcsPut(b byte) {
	if t.dcs.active {
		t.dcs.buf = append(t.dcs.buf, b)
	}
}

func (t *Terminal) DcsUnhook() {
	if !t.dcs.active {
		return
	}
	t.dcs.active = false
	img, err := ParseSixel(t.dcs.params, t.dcs.buf)
	t.dcs.buf = nil
	if err != nil || img == nil || img.Width == 0 || img.Height == 0 {
		return
	}
	t.placeSixelImage(img)
}

// defaultCellPixelWidth/Height are the pixel-per-cell assumption used
// to size a Sixel image in cells; a headless core has no real font
// metrics, so this is an advisory placeholder a renderer can override
// by re-deriving the placement itself from img.Width/img.Height.
const (
	defaultCellPixelWidth  = 10
	defaultCellPixelHeight = 20
)

func (t *Terminal) placeSixelImage(img *SixelImage) {
	id := t.images.Store(img.Width, img.Height, img.Data)
	cols := int((img.Width + defaultCellPixelWidth - 1) / defaultCellPixelWidth)
	rows := int((img.Height + defaultCellPixelHeight - 1) / defaultCellPixelHeight)
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	row0, col0 := t.active.CursorY(), t.active.CursorX()
	p := &ImagePlacement{ImageID: id, Row: row0, Col: col0, Cols: cols, Rows: rows, SrcW: img.Width, SrcH: img.Height}
	placementID := t.images.Place(p)
	t.paintImageCells(row0, col0, cols, rows, placementID, id, 0)
}

func paramsToInt64(p *Params) []int64 {
	out := make([]int64, p.Len())
	for i := 0; i < p.Len(); i++ {
		out[i] = int64(p.Get(i, 0))
	}
	return out
}

// --- Hard reset (RIS) ---

// resetState performs a full terminal reset: both buffers cleared and
// reallocated, scrollback dropped, modes/charsets/palette restored to
// default, images and prompt marks cleared, cursor home.
func (t *Terminal) resetState() {
	t.normal = NewBuffer(t.cols, t.rows, NewScrollback(t.scrollbackCap))
	t.alternate = NewBuffer(t.cols, t.rows, nil)
	t.active = t.normal
	t.kind = BufferNormal
	t.modes = defaultModes
	t.charsets = [4]Charset{CharsetASCII, CharsetASCII, CharsetASCII, CharsetASCII}
	t.activeSlot = CharsetSlotG0
	t.palette = NewPalette()
	t.title = ""
	t.currentHyperlink = nil
	t.nextLinkID = 0
	t.images.Clear()
	t.promptMarks = nil
	t.workingDirectory = ""
	t.selection = nil
	t.dcs = dcsState{}
	t.apc = apcState{}
	t.parser.Reset()
}
