package vtcore

// ShellIntegrationMark enumerates the OSC 133 mark types a shell's
// prompt can report.
type ShellIntegrationMark int

const (
	PromptStart ShellIntegrationMark = iota
	CommandStart
	CommandExecuted
	CommandFinished
)

// PromptMark records one OSC 133 mark: its type, the absolute row it
// occurred on (scrollback-relative, so it stays stable as the screen
// scrolls), and the exit code for CommandFinished marks.
type PromptMark struct {
	Type     ShellIntegrationMark
	Row      int
	ExitCode int
}

// ShellIntegrationProvider is notified whenever a mark is recorded, in
// addition to the mark being appended to PromptMarks.
type ShellIntegrationProvider interface {
	OnMark(mark ShellIntegrationMark, exitCode int)
}

// NoopShellIntegration ignores all marks; it is the default provider.
type NoopShellIntegration struct{}

func (NoopShellIntegration) OnMark(ShellIntegrationMark, int) {}

var _ ShellIntegrationProvider = (*NoopShellIntegration)(nil)

// ShellIntegrationMarkReceived records an OSC 133 mark at the cursor's
// current absolute row. exitCode is only meaningful for CommandFinished
// marks; pass -1 otherwise.
func (t *Terminal) ShellIntegrationMarkReceived(mark ShellIntegrationMark, exitCode int) {
	t.mu.Lock()
	absoluteRow := t.active.BaseY() + t.active.CursorY()
	t.promptMarks = append(t.promptMarks, PromptMark{Type: mark, Row: absoluteRow, ExitCode: exitCode})
	provider := t.shellIntegration
	t.mu.Unlock()
	if provider != nil {
		provider.OnMark(mark, exitCode)
	}
}

// recordPromptMark is the OSC 133 path: it runs inside Write with t.mu
// held, so the provider is notified once Write releases the lock.
func (t *Terminal) recordPromptMark(mark ShellIntegrationMark, exitCode int) {
	absoluteRow := t.active.BaseY() + t.active.CursorY()
	t.promptMarks = append(t.promptMarks, PromptMark{Type: mark, Row: absoluteRow, ExitCode: exitCode})
	if provider := t.shellIntegration; provider != nil {
		t.queueEvent(func() { provider.OnMark(mark, exitCode) })
	}
}

// PromptMarks returns a copy of every mark recorded so far.
func (t *Terminal) PromptMarks() []PromptMark {
	t.mu.RLock()
	defer t.mu.RUnlock()
	marks := make([]PromptMark, len(t.promptMarks))
	copy(marks, t.promptMarks)
	return marks
}

func (t *Terminal) PromptMarkCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.promptMarks)
}

func (t *Terminal) ClearPromptMarks() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.promptMarks = nil
}

// NextPromptRow returns the absolute row of the next mark after
// currentAbsRow, or -1 if none. Pass markType -1 to match any type.
func (t *Terminal) NextPromptRow(currentAbsRow int, markType ShellIntegrationMark) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, m := range t.promptMarks {
		if m.Row > currentAbsRow && (int(markType) == -1 || m.Type == markType) {
			return m.Row
		}
	}
	return -1
}

// PrevPromptRow returns the absolute row of the previous mark before
// currentAbsRow, or -1 if none. Pass markType -1 to match any type.
func (t *Terminal) PrevPromptRow(currentAbsRow int, markType ShellIntegrationMark) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.promptMarks) - 1; i >= 0; i-- {
		m := t.promptMarks[i]
		if m.Row < currentAbsRow && (int(markType) == -1 || m.Type == markType) {
			return m.Row
		}
	}
	return -1
}

func (t *Terminal) GetPromptMarkAt(absRow int) *PromptMark {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := range t.promptMarks {
		if t.promptMarks[i].Row == absRow {
			m := t.promptMarks[i]
			return &m
		}
	}
	return nil
}

func (t *Terminal) SetShellIntegrationProvider(p ShellIntegrationProvider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shellIntegration = p
}

func (t *Terminal) ShellIntegrationProviderValue() ShellIntegrationProvider {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.shellIntegration
}

// GetLastCommandOutput returns the text between the most recent valid
// CommandExecuted/CommandFinished pair, or "" if none exists.
func (t *Terminal) GetLastCommandOutput() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var executed, finished *PromptMark
	for i := len(t.promptMarks) - 1; i >= 0; i-- {
		m := &t.promptMarks[i]
		if finished == nil && m.Type == CommandFinished {
			finished = m
		}
		if executed == nil && m.Type == CommandExecuted {
			executed = m
		}
		if executed != nil && finished != nil {
			if executed.Row < finished.Row {
				break
			}
			executed, finished = nil, nil
		}
	}
	if executed == nil || finished == nil {
		return ""
	}
	return t.extractTextBetweenRows(executed.Row, finished.Row)
}

// extractTextBetweenRows joins the logical lines [startRow, endRow),
// addressed as absolute rows into the active buffer, trimming trailing
// blank lines.
func (t *Terminal) extractTextBetweenRows(startRow, endRow int) string {
	var lines []string
	for row := startRow; row < endRow; row++ {
		line, ok := t.active.Line(row)
		content := ""
		if ok {
			content = line.TranslateToString(true, 0, len(line.Cells))
		}
		lines = append(lines, content)
	}

	last := -1
	for i, l := range lines {
		if l != "" {
			last = i
		}
	}
	if last < 0 {
		return ""
	}

	result := ""
	for i := 0; i <= last; i++ {
		if i > 0 {
			result += "\n"
		}
		result += lines[i]
	}
	return result
}
