package vtcore

import "sync"

// config collects the functional options New accepts.
type config struct {
	cols, rows  int
	scrollback  int
	convertEol  bool
	cursorStyle CursorStyle
	cursorBlink bool
	termName    string
}

func defaultConfig() config {
	return config{
		cols:        80,
		rows:        24,
		scrollback:  1000,
		cursorStyle: CursorStyleBlinkingBlock,
		cursorBlink: true,
		termName:    "xterm-256color",
	}
}

// Option configures a Terminal at construction time.
type Option func(*config)

func WithCols(n int) Option                { return func(c *config) { c.cols = n } }
func WithRows(n int) Option                { return func(c *config) { c.rows = n } }
func WithScrollback(n int) Option          { return func(c *config) { c.scrollback = n } }
func WithConvertEol(b bool) Option         { return func(c *config) { c.convertEol = b } }
func WithCursorStyle(s CursorStyle) Option { return func(c *config) { c.cursorStyle = s } }
func WithCursorBlink(b bool) Option        { return func(c *config) { c.cursorBlink = b } }
func WithTermName(name string) Option      { return func(c *config) { c.termName = name } }

// Terminal is a headless VT100/xterm-compatible terminal core: feed it
// bytes with Write, read back the resulting cell grid through the
// Buffer/Line/Cell API, and turn host input events into the byte
// sequences an interactive program expects via EncodeKey/EncodeMouse.
//
// A Terminal guards its state with a RWMutex so a renderer goroutine
// can call the Read API concurrently with the goroutine driving Write;
// it does not itself serialize concurrent Write calls against each
// other (the parser is not reentrant), so a single writer is assumed.
type Terminal struct {
	mu sync.RWMutex

	cols, rows int
	normal     *Buffer
	alternate  *Buffer
	active     *Buffer
	kind       BufferKind

	modes      Mode
	charsets   [4]Charset
	activeSlot CharsetSlot

	palette *Palette

	title       string
	cursorStyle CursorStyle
	cursorBlink bool

	currentHyperlink *Hyperlink
	nextLinkID       int

	images *ImageManager

	promptMarks      []PromptMark
	workingDirectory string
	shellIntegration ShellIntegrationProvider

	selection *Selection

	parser *Parser

	convertEol    bool
	termName      string
	scrollbackCap int

	dcs dcsState
	apc apcState

	// pending accumulates event-bus fires produced while dispatching a
	// Write chunk; Write flushes them once it has released mu, so a
	// listener calling back into the Read API never deadlocks against
	// the writer goroutine's own lock (see §5 concurrency model).
	pending []func()

	Events Events
}

func (t *Terminal) queueEvent(fn func()) { t.pending = append(t.pending, fn) }

func (t *Terminal) queueOut(s string) {
	b := []byte(s)
	t.queueEvent(func() { t.Events.DataOut.Fire(b) })
}

// dcsState tracks an in-progress Sixel DCS passthrough span, the only
// DCS-hooked sequence this core decodes.
type dcsState struct {
	active bool
	params []int64
	buf    []byte
}

// apcState carries a Kitty graphics transmission across the `m=1`
// chunk boundary: the protocol lets a client split one image's base64
// payload over several APC sequences, with only the first chunk
// carrying the image's metadata. This lives on Terminal rather
// than on the image store itself, since it is transport reassembly
// state, not anything about a stored image.
type apcState struct {
	payload     []byte
	pending     bool
	imageID     uint32
	format      KittyFormat
	width       uint32
	height      uint32
	compression byte
}

func (a *apcState) reset() { *a = apcState{} }

// New constructs a Terminal ready to accept Write calls.
func New(opts ...Option) *Terminal {
	c := defaultConfig()
	for _, o := range opts {
		o(&c)
	}
	if c.cols < 1 {
		c.cols = 1
	}
	if c.rows < 1 {
		c.rows = 1
	}

	t := &Terminal{
		cols:             c.cols,
		rows:             c.rows,
		modes:            defaultModes,
		palette:          NewPalette(),
		images:           NewImageManager(),
		parser:           NewParser(),
		convertEol:       c.convertEol,
		cursorStyle:      c.cursorStyle,
		cursorBlink:      c.cursorBlink,
		termName:         c.termName,
		shellIntegration: NoopShellIntegration{},
	}
	t.normal = NewBuffer(c.cols, c.rows, NewScrollback(c.scrollback))
	t.alternate = NewBuffer(c.cols, c.rows, nil)
	t.active = t.normal
	t.kind = BufferNormal
	t.charsets = [4]Charset{CharsetASCII, CharsetASCII, CharsetASCII, CharsetASCII}
	return t
}

// --- Input API (§6) ---

// Write feeds a chunk of bytes through the parser. Partial escape
// sequences at a chunk boundary are preserved in parser state and
// completed by the next Write.
func (t *Terminal) Write(data []byte) {
	t.mu.Lock()
	t.parser.AdvanceString(data, t)
	minRow, maxRow, cleared := t.active.Damage()
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
	if minRow != -1 || cleared {
		t.Events.Damage.Fire(DamageRange{MinRow: minRow, MaxRow: maxRow, Cleared: cleared})
	}
}

// WriteString is a convenience wrapper around Write.
func (t *Terminal) WriteString(s string) { t.Write([]byte(s)) }

// Resize changes the terminal's dimensions. cols and rows must both be
// >= 1; otherwise Resize is a no-op and no resized event fires.
func (t *Terminal) Resize(cols, rows int) {
	if cols < 1 || rows < 1 {
		return
	}
	t.mu.Lock()
	t.cols, t.rows = cols, rows
	t.normal.Resize(cols, rows)
	t.alternate.Resize(cols, rows)
	t.mu.Unlock()
	t.Events.Resized.Fire(Resize{Cols: cols, Rows: rows})
}

// resizeLocked is Resize for callers that already hold t.mu (DECCOLM
// inside Write); the resized event is queued until Write releases it.
func (t *Terminal) resizeLocked(cols, rows int) {
	t.cols, t.rows = cols, rows
	t.normal.Resize(cols, rows)
	t.alternate.Resize(cols, rows)
	t.queueEvent(func() { t.Events.Resized.Fire(Resize{Cols: cols, Rows: rows}) })
}

// GenerateKeyInput encodes a key press for the terminal's current
// cursor-key mode and delivers it on the data-out event, also returning
// the bytes produced.
func (t *Terminal) GenerateKeyInput(key Key, r rune, mods Modifiers) []byte {
	t.mu.RLock()
	appCursor := t.modes&ModeCursorKeys != 0
	t.mu.RUnlock()
	b := EncodeKey(key, r, mods, appCursor)
	if len(b) > 0 {
		t.Events.DataOut.Fire(b)
	}
	return b
}

// GenerateMouseInput encodes a mouse event under the currently active
// mouse-tracking protocol and delivers it on data-out. Returns nil
// without firing the event if no mouse-tracking mode is enabled.
func (t *Terminal) GenerateMouseInput(button int, action MouseAction, x, y int, mods Modifiers) []byte {
	t.mu.RLock()
	proto := MouseProtocolX10
	switch {
	case t.modes&ModeMouseSGR != 0:
		proto = MouseProtocolSGR
	case t.modes&ModeMouseURXVT != 0:
		proto = MouseProtocolURXVT
	}
	reporting := t.modes.mouseReportingActive()
	t.mu.RUnlock()
	if !reporting {
		return nil
	}
	b := EncodeMouse(proto, button, action, x, y, mods)
	t.Events.DataOut.Fire(b)
	return b
}

// SwitchToAlternateBuffer enters the alternate screen, equivalent to
// DECSET 1049 (saves cursor, clears the alternate buffer).
func (t *Terminal) SwitchToAlternateBuffer() {
	t.mu.Lock()
	t.enterAlternate()
	t.mu.Unlock()
	t.Events.BufferChanged.Fire(BufferAlternate)
}

// SwitchToNormalBuffer leaves the alternate screen, equivalent to
// DECRST 1049 (restores the cursor saved on entry).
func (t *Terminal) SwitchToNormalBuffer() {
	t.mu.Lock()
	t.leaveAlternate()
	t.mu.Unlock()
	t.Events.BufferChanged.Fire(BufferNormal)
}

func (t *Terminal) enterAlternate() {
	if t.kind == BufferAlternate {
		return
	}
	saved := t.normal.SaveCursor()
	saved.OriginMode = t.modes&ModeOrigin != 0
	saved.Charsets = t.charsets
	saved.ActiveSlot = t.activeSlot
	t.normal.SetSaved(&saved)
	t.active = t.alternate
	t.kind = BufferAlternate
	t.active.EraseInDisplay(2)
	t.active.SetCurrentHyperlink(t.currentHyperlink)
}

func (t *Terminal) leaveAlternate() {
	if t.kind == BufferNormal {
		return
	}
	t.active = t.normal
	t.kind = BufferNormal
	if s := t.normal.Saved(); s != nil {
		t.normal.RestoreCursor(*s)
		if s.OriginMode {
			t.modes |= ModeOrigin
		} else {
			t.modes &^= ModeOrigin
		}
		t.charsets = s.Charsets
		t.activeSlot = s.ActiveSlot
	}
	t.active.SetCurrentHyperlink(t.currentHyperlink)
}

func (t *Terminal) ScrollToTop()       { t.mu.Lock(); t.active.ScrollToTop(); t.mu.Unlock() }
func (t *Terminal) ScrollToBottom()    { t.mu.Lock(); t.active.ScrollToBottom(); t.mu.Unlock() }
func (t *Terminal) ScrollToLine(n int) { t.mu.Lock(); t.active.ScrollToLine(n); t.mu.Unlock() }
func (t *Terminal) ScrollLines(d int)  { t.mu.Lock(); t.active.ScrollLines(d); t.mu.Unlock() }

// Reset performs a hard reset (RIS): both buffers cleared, scrollback
// dropped, modes/charsets/attributes restored to default, cursor home.
func (t *Terminal) Reset() {
	t.mu.Lock()
	t.resetState()
	t.mu.Unlock()
	t.Events.BufferChanged.Fire(BufferNormal)
}

// --- Read API (§6) ---

func (t *Terminal) Cols() int { t.mu.RLock(); defer t.mu.RUnlock(); return t.cols }
func (t *Terminal) Rows() int { t.mu.RLock(); defer t.mu.RUnlock(); return t.rows }

func (t *Terminal) CursorPos() (x, y int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active.CursorX(), t.active.CursorY()
}

func (t *Terminal) CursorVisible() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.modes&ModeShowCursor != 0
}

func (t *Terminal) CursorStyle() (CursorStyle, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cursorStyle, t.cursorBlink
}

func (t *Terminal) ViewportY() int     { t.mu.RLock(); defer t.mu.RUnlock(); return t.active.ViewportY() }
func (t *Terminal) BaseY() int         { t.mu.RLock(); defer t.mu.RUnlock(); return t.active.BaseY() }
func (t *Terminal) Length() int        { t.mu.RLock(); defer t.mu.RUnlock(); return t.active.Length() }
func (t *Terminal) MaxScrollback() int { t.mu.RLock(); defer t.mu.RUnlock(); return t.active.MaxScrollback() }
func (t *Terminal) IsAtBottom() bool   { t.mu.RLock(); defer t.mu.RUnlock(); return t.active.IsAtBottom() }

func (t *Terminal) Line(i int) (Line, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active.Line(i)
}

// Cell returns a copy of the live screen cell at (row, col).
func (t *Terminal) Cell(row, col int) (Cell, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c := t.active.Cell(row, col)
	if c == nil {
		return Cell{}, false
	}
	return *c, true
}

func (t *Terminal) BufferKind() BufferKind { t.mu.RLock(); defer t.mu.RUnlock(); return t.kind }
func (t *Terminal) Title() string          { t.mu.RLock(); defer t.mu.RUnlock(); return t.title }
func (t *Terminal) Palette() *Palette      { return t.palette }
func (t *Terminal) Images() *ImageManager  { return t.images }

func (t *Terminal) WorkingDirectory() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.workingDirectory
}

// Damage reports and clears the active buffer's pending dirty-row span.
// Write already fires the Damage event after each chunk; this is for
// callers that poll instead of subscribing.
func (t *Terminal) Damage() (minRow, maxRow int, cleared bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active.Damage()
}
