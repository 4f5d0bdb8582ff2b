package vtcore

import "unicode/utf8"

// parserState names a node in the VT500-series parser state machine.
type parserState uint8

const (
	stateGround parserState = iota
	stateEscape
	stateEscapeIntermediate
	stateCsiEntry
	stateCsiParam
	stateCsiIntermediate
	stateCsiIgnore
	stateDcsEntry
	stateDcsParam
	stateDcsIntermediate
	stateDcsPassthrough
	stateDcsIgnore
	stateOscString
	stateSosPmApcString
)

const maxIntermediates = 2
const maxOscLen = 8192

// Dispatcher receives the events produced by Parser as it consumes a
// byte stream. Exactly one of these methods is called per recognized
// unit of input.
type Dispatcher interface {
	// Print is called once per decoded Unicode scalar value destined for
	// the screen.
	Print(r rune)
	// Execute is called for a C0/C1 control character that takes
	// immediate action (LF, CR, BEL, ...).
	Execute(b byte)
	// CsiDispatch is called when a CSI sequence's final byte arrives.
	// private is the leading '<','=','>','?' byte, or 0 if none.
	CsiDispatch(final byte, intermediates []byte, private byte, params *Params)
	// EscDispatch is called when a two-or-three-byte escape sequence's
	// final byte arrives (not a CSI/DCS/OSC/SOS/PM/APC introducer).
	EscDispatch(final byte, intermediates []byte)
	// OscDispatch is called with the raw bytes between `ESC ]` and the
	// terminator (BEL or ST), not including either.
	OscDispatch(data []byte)
	// ApcDispatch is called with the raw bytes of an APC string
	// (`ESC _ ... ST`), used for the Kitty graphics protocol.
	ApcDispatch(data []byte)
	// DcsHook is called when a DCS sequence's final byte arrives,
	// opening a passthrough span that DcsPut feeds.
	DcsHook(final byte, intermediates []byte, private byte, params *Params)
	// DcsPut is called once per data byte inside an open DCS span.
	DcsPut(b byte)
	// DcsUnhook closes the span opened by the last DcsHook.
	DcsUnhook()
}

// Parser is a deterministic VT500-series escape sequence state machine.
// It owns no terminal semantics; it only recognizes control functions
// in a byte stream and reports them to a Dispatcher. Feed it bytes with
// Advance.
type Parser struct {
	state parserState

	intermediates    [maxIntermediates]byte
	intermediateCount int
	private          byte

	params Params

	oscBuf   []byte
	apcBuf   []byte
	stringIsApc bool

	utf8Buf [4]byte
	utf8Len int

	// stEscape is set when the last byte was an ESC that closed a
	// DCS/OSC/SOS/PM/APC string, so a following '\' completes ST.
	stEscape bool
}

// NewParser returns a parser in the ground state.
func NewParser() *Parser {
	return &Parser{oscBuf: make([]byte, 0, 256)}
}

// Reset returns the parser to the ground state, discarding any
// partially-parsed sequence. Use after a stream discontinuity.
func (p *Parser) Reset() {
	p.state = stateGround
	p.intermediateCount = 0
	p.private = 0
	p.params.Reset()
	p.oscBuf = p.oscBuf[:0]
	p.apcBuf = p.apcBuf[:0]
	p.utf8Len = 0
}

func (p *Parser) clear() {
	p.intermediateCount = 0
	p.private = 0
	p.params.Reset()
}

func (p *Parser) collectIntermediate(b byte) {
	if p.intermediateCount < maxIntermediates {
		p.intermediates[p.intermediateCount] = b
		p.intermediateCount++
	}
}

func (p *Parser) intermediateBytes() []byte {
	return p.intermediates[:p.intermediateCount]
}

func isC0Executable(b byte) bool {
	return b <= 0x17 || b == 0x19 || (b >= 0x1C && b <= 0x1F)
}

// Advance feeds one byte to the parser, possibly invoking the
// dispatcher.
func (p *Parser) Advance(b byte, d Dispatcher) {
	stTail := p.stEscape
	p.stEscape = false

	// Anywhere transitions, per the VT500 table: CAN/SUB abort whatever
	// sequence is in progress and return to ground; ESC always starts a
	// fresh escape sequence, closing out any open DCS/OSC/APC span.
	switch b {
	case 0x18, 0x1A:
		if p.state == stateDcsPassthrough {
			d.DcsUnhook()
		}
		p.clear()
		p.state = stateGround
		d.Execute(b)
		return
	case 0x1B:
		p.stEscape = p.state == stateDcsPassthrough || p.state == stateOscString || p.state == stateSosPmApcString
		switch p.state {
		case stateDcsPassthrough:
			d.DcsUnhook()
		case stateOscString:
			d.OscDispatch(p.oscBuf)
		case stateSosPmApcString:
			if p.stringIsApc {
				d.ApcDispatch(p.apcBuf)
			}
		}
		p.clear()
		p.state = stateEscape
		return
	}

	// Second byte of ST (ESC \): the string it terminates was already
	// dispatched when the ESC arrived.
	if stTail && b == '\\' && p.state == stateEscape {
		p.state = stateGround
		return
	}

	switch p.state {
	case stateGround:
		p.advanceGround(b, d)
	case stateEscape:
		p.advanceEscape(b, d)
	case stateEscapeIntermediate:
		p.advanceEscapeIntermediate(b, d)
	case stateCsiEntry:
		p.advanceCsiEntry(b, d)
	case stateCsiParam:
		p.advanceCsiParam(b, d)
	case stateCsiIntermediate:
		p.advanceCsiIntermediate(b, d)
	case stateCsiIgnore:
		p.advanceCsiIgnore(b)
	case stateDcsEntry:
		p.advanceDcsEntry(b, d)
	case stateDcsParam:
		p.advanceDcsParam(b, d)
	case stateDcsIntermediate:
		p.advanceDcsIntermediate(b, d)
	case stateDcsPassthrough:
		p.advanceDcsPassthrough(b, d)
	case stateDcsIgnore:
		p.advanceDcsIgnore(b)
	case stateOscString:
		p.advanceOscString(b, d)
	case stateSosPmApcString:
		p.advanceSosPmApcString(b, d)
	}
}

// AdvanceString feeds a whole chunk, equivalent to calling Advance once
// per byte.
func (p *Parser) AdvanceString(data []byte, d Dispatcher) {
	for _, b := range data {
		p.Advance(b, d)
	}
}

func (p *Parser) advanceGround(b byte, d Dispatcher) {
	switch {
	case isC0Executable(b):
		d.Execute(b)
	case b == 0x7F:
		// ignore (DEL)
	case b < 0x20:
		d.Execute(b) // 0x18/0x1A/0x1B handled above; nothing else reaches here
	case b < 0x80:
		d.Print(rune(b))
	default:
		p.feedUTF8(b, d)
	}
}

func (p *Parser) feedUTF8(b byte, d Dispatcher) {
	if p.utf8Len == 0 && b < 0xC2 {
		// stray continuation or overlong lead byte: not a valid sequence
		// start, emit the replacement character for this byte alone.
		d.Print(utf8.RuneError)
		return
	}
	if p.utf8Len < len(p.utf8Buf) {
		p.utf8Buf[p.utf8Len] = b
		p.utf8Len++
	}
	buf := p.utf8Buf[:p.utf8Len]
	if !utf8.FullRune(buf) {
		return
	}
	r, size := utf8.DecodeRune(buf)
	d.Print(r)
	if size < p.utf8Len {
		copy(p.utf8Buf[:], p.utf8Buf[size:p.utf8Len])
		p.utf8Len -= size
	} else {
		p.utf8Len = 0
	}
}

func (p *Parser) advanceEscape(b byte, d Dispatcher) {
	switch {
	case isC0Executable(b):
		d.Execute(b)
	case b == 0x7F:
	case b >= 0x20 && b <= 0x2F:
		p.collectIntermediate(b)
		p.state = stateEscapeIntermediate
	case b == 0x50: // DCS
		p.clear()
		p.state = stateDcsEntry
	case b == 0x58 || b == 0x5E || b == 0x5F: // SOS, PM, APC
		p.clear()
		p.stringIsApc = b == 0x5F
		p.apcBuf = p.apcBuf[:0]
		p.state = stateSosPmApcString
	case b == 0x5B: // CSI
		p.clear()
		p.state = stateCsiEntry
	case b == 0x5D: // OSC
		p.clear()
		p.oscBuf = p.oscBuf[:0]
		p.state = stateOscString
	case b >= 0x30 && b <= 0x7E:
		d.EscDispatch(b, p.intermediateBytes())
		p.state = stateGround
	}
}

func (p *Parser) advanceEscapeIntermediate(b byte, d Dispatcher) {
	switch {
	case isC0Executable(b):
		d.Execute(b)
	case b == 0x7F:
	case b >= 0x20 && b <= 0x2F:
		p.collectIntermediate(b)
	case b >= 0x30 && b <= 0x7E:
		d.EscDispatch(b, p.intermediateBytes())
		p.state = stateGround
	}
}

func (p *Parser) advanceCsiEntry(b byte, d Dispatcher) {
	switch {
	case isC0Executable(b):
		d.Execute(b)
	case b == 0x7F:
	case b >= 0x20 && b <= 0x2F:
		p.collectIntermediate(b)
		p.state = stateCsiIntermediate
	case b >= 0x30 && b <= 0x39:
		p.params.StartField()
		p.params.AddDigit(int32(b - 0x30))
		p.state = stateCsiParam
	case b == 0x3B: // empty first field, then the one after the ';'
		p.params.StartField()
		p.params.StartField()
		p.state = stateCsiParam
	case b == 0x3A:
		p.params.StartSubField()
		p.state = stateCsiParam
	case b >= 0x3C && b <= 0x3F:
		p.private = b
		p.state = stateCsiParam
	case b >= 0x40 && b <= 0x7E:
		d.CsiDispatch(b, p.intermediateBytes(), p.private, &p.params)
		p.state = stateGround
	}
}

func (p *Parser) advanceCsiParam(b byte, d Dispatcher) {
	switch {
	case isC0Executable(b):
		d.Execute(b)
	case b == 0x7F:
	case b >= 0x30 && b <= 0x39:
		p.params.AddDigit(int32(b - 0x30))
	case b == 0x3B:
		if p.params.Len() == 0 {
			p.params.StartField()
		}
		p.params.StartField()
	case b == 0x3A:
		p.params.StartSubField()
	case b >= 0x3C && b <= 0x3F:
		p.state = stateCsiIgnore
	case b >= 0x20 && b <= 0x2F:
		p.collectIntermediate(b)
		p.state = stateCsiIntermediate
	case b >= 0x40 && b <= 0x7E:
		d.CsiDispatch(b, p.intermediateBytes(), p.private, &p.params)
		p.state = stateGround
	}
}

func (p *Parser) advanceCsiIntermediate(b byte, d Dispatcher) {
	switch {
	case isC0Executable(b):
		d.Execute(b)
	case b == 0x7F:
	case b >= 0x20 && b <= 0x2F:
		p.collectIntermediate(b)
	case b >= 0x30 && b <= 0x3F:
		p.state = stateCsiIgnore
	case b >= 0x40 && b <= 0x7E:
		d.CsiDispatch(b, p.intermediateBytes(), p.private, &p.params)
		p.state = stateGround
	}
}

func (p *Parser) advanceCsiIgnore(b byte) {
	switch {
	case b >= 0x40 && b <= 0x7E:
		p.state = stateGround
	}
}

func (p *Parser) advanceDcsEntry(b byte, d Dispatcher) {
	switch {
	case b == 0x7F || isC0Executable(b):
	case b >= 0x20 && b <= 0x2F:
		p.collectIntermediate(b)
		p.state = stateDcsIntermediate
	case b >= 0x30 && b <= 0x39:
		p.params.StartField()
		p.params.AddDigit(int32(b - 0x30))
		p.state = stateDcsParam
	case b == 0x3B: // empty first field, then the one after the ';'
		p.params.StartField()
		p.params.StartField()
		p.state = stateDcsParam
	case b == 0x3A:
		p.params.StartSubField()
		p.state = stateDcsParam
	case b >= 0x3C && b <= 0x3F:
		p.private = b
		p.state = stateDcsParam
	case b >= 0x40 && b <= 0x7E:
		d.DcsHook(b, p.intermediateBytes(), p.private, &p.params)
		p.state = stateDcsPassthrough
	}
}

func (p *Parser) advanceDcsParam(b byte, d Dispatcher) {
	switch {
	case b == 0x7F || isC0Executable(b):
	case b >= 0x30 && b <= 0x39:
		p.params.AddDigit(int32(b - 0x30))
	case b == 0x3B:
		if p.params.Len() == 0 {
			p.params.StartField()
		}
		p.params.StartField()
	case b == 0x3A:
		p.params.StartSubField()
	case b >= 0x3C && b <= 0x3F:
		p.state = stateDcsIgnore
	case b >= 0x20 && b <= 0x2F:
		p.collectIntermediate(b)
		p.state = stateDcsIntermediate
	case b >= 0x40 && b <= 0x7E:
		d.DcsHook(b, p.intermediateBytes(), p.private, &p.params)
		p.state = stateDcsPassthrough
	}
}

func (p *Parser) advanceDcsIntermediate(b byte, d Dispatcher) {
	switch {
	case b == 0x7F || isC0Executable(b):
	case b >= 0x20 && b <= 0x2F:
		p.collectIntermediate(b)
	case b >= 0x30 && b <= 0x3F:
		p.state = stateDcsIgnore
	case b >= 0x40 && b <= 0x7E:
		d.DcsHook(b, p.intermediateBytes(), p.private, &p.params)
		p.state = stateDcsPassthrough
	}
}

func (p *Parser) advanceDcsPassthrough(b byte, d Dispatcher) {
	switch {
	case isC0Executable(b) || (b >= 0x20 && b <= 0x7E):
		d.DcsPut(b)
	case b == 0x7F:
	}
}

func (p *Parser) advanceDcsIgnore(b byte) {
	_ = b
}

func (p *Parser) advanceOscString(b byte, d Dispatcher) {
	switch {
	case b == 0x07: // BEL terminator
		d.OscDispatch(p.oscBuf)
		p.state = stateGround
	case b < 0x20:
		// ignore other C0 controls inside an OSC string
	case b >= 0x20 && b <= 0x7F:
		if len(p.oscBuf) < maxOscLen {
			p.oscBuf = append(p.oscBuf, b)
		}
	default:
		if len(p.oscBuf) < maxOscLen {
			p.oscBuf = append(p.oscBuf, b)
		}
	}
}

func (p *Parser) advanceSosPmApcString(b byte, d Dispatcher) {
	if !p.stringIsApc {
		return
	}
	if b < 0x20 && b != 0x09 {
		return
	}
	if len(p.apcBuf) < maxOscLen {
		p.apcBuf = append(p.apcBuf, b)
	}
}
