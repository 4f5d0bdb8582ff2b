// Package vtcore implements the core of a headless VT100/xterm-compatible
// terminal emulator.
//
// A Terminal consumes a byte stream produced by a shell, a PTY, or a test
// driver (via Write) and maintains a rectangular cell grid plus scrollback,
// updated according to the VT500-series escape sequence grammar. It also
// turns key and mouse input events into the byte sequences xterm-compatible
// programs expect to receive (via EncodeKey / EncodeMouse).
//
// Rendering is explicitly out of scope: Terminal exposes the Buffer/Line/
// Cell read API and a damage notification stream; turning that into pixels
// or a console frame is the host's job.
//
// The package is organized around three tightly-coupled subsystems:
//
//   - Parser (parser.go, params.go): a deterministic state machine
//     implementing the VT500 parser, producing dispatch events.
//   - Handler (handler.go): translates dispatch events into mutations of
//     the active Buffer — cursor motion, scrolling, SGR composition, mode
//     changes, erase/insert/delete, buffer switching, charset selection,
//     device/status reports.
//   - Buffer (buffer.go, line.go, cell.go, scrollback.go): the dual
//     (normal + alternate) grid model with circular scrollback, packed
//     cell attributes, wide-character/combining-mark handling, viewport
//     tracking, and DECSTBM scroll regions.
//
// All public operations are synchronous; the package spawns no
// goroutines. Callers are responsible for serializing concurrent calls
// to Write, Resize, and the input encoders, though the Read API
// (CursorPos, Cell, Line, ...) may safely be called from a separate
// rendering goroutine — Terminal guards its state with a sync.RWMutex
// for that reason alone, not to offer any concurrency semantics beyond
// what the design promises.
package vtcore
