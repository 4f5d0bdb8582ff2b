package vtcore

import (
	"fmt"
	"reflect"
	"testing"
)

// recordingDispatcher captures every event the parser emits as a
// sequence of tagged records, so tests can compare the event stream
// produced by feeding a sequence whole against feeding it in pieces.
type recordingDispatcher struct {
	events []string
}

func (r *recordingDispatcher) Print(ru rune) { r.events = append(r.events, "print:"+string(ru)) }
func (r *recordingDispatcher) Execute(b byte) {
	r.events = append(r.events, "exec:"+string(rune(b)))
}
func (r *recordingDispatcher) CsiDispatch(final byte, intermediates []byte, private byte, params *Params) {
	vals := make([]int32, params.Len())
	for i := range vals {
		vals[i] = params.Get(i, -1)
	}
	r.events = append(r.events, fmt.Sprintf("csi:%s%s%c:%v", string(private), string(intermediates), final, vals))
}
func (r *recordingDispatcher) EscDispatch(final byte, intermediates []byte) {
	r.events = append(r.events, "esc:"+string(intermediates)+string(final))
}
func (r *recordingDispatcher) OscDispatch(data []byte) { r.events = append(r.events, "osc:"+string(data)) }
func (r *recordingDispatcher) ApcDispatch(data []byte) { r.events = append(r.events, "apc:"+string(data)) }
func (r *recordingDispatcher) DcsHook(final byte, intermediates []byte, private byte, params *Params) {
	r.events = append(r.events, "dcshook:"+string(final))
}
func (r *recordingDispatcher) DcsPut(b byte) { r.events = append(r.events, "dcsput:"+string(rune(b))) }
func (r *recordingDispatcher) DcsUnhook()    { r.events = append(r.events, "dcsunhook") }

var _ Dispatcher = (*recordingDispatcher)(nil)

func TestParserPrintAndExecute(t *testing.T) {
	p := NewParser()
	d := &recordingDispatcher{}
	p.AdvanceString([]byte("A\nB"), d)
	want := []string{"print:A", "exec:\n", "print:B"}
	if !reflect.DeepEqual(d.events, want) {
		t.Errorf("got %v, want %v", d.events, want)
	}
}

func TestParserCsiDispatchWithParams(t *testing.T) {
	p := NewParser()
	d := &recordingDispatcher{}
	p.AdvanceString([]byte("\x1b[5;10H"), d)
	if len(d.events) != 1 {
		t.Fatalf("expected one event, got %v", d.events)
	}
}

func TestParserChunkingIsIdempotent(t *testing.T) {
	// Property (spec §8.7): feeding a sequence as one chunk must produce
	// the same dispatch as feeding an arbitrary prefix then the suffix.
	seq := []byte("\x1b[1;32mHello\x1b[0m")

	whole := &recordingDispatcher{}
	pWhole := NewParser()
	pWhole.AdvanceString(seq, whole)

	for split := 0; split <= len(seq); split++ {
		parts := &recordingDispatcher{}
		pParts := NewParser()
		pParts.AdvanceString(seq[:split], parts)
		pParts.AdvanceString(seq[split:], parts)
		if !reflect.DeepEqual(parts.events, whole.events) {
			t.Fatalf("split at %d diverged: got %v, want %v", split, parts.events, whole.events)
		}
	}
}

func TestParserResetAbortsInProgressSequence(t *testing.T) {
	p := NewParser()
	d := &recordingDispatcher{}
	p.AdvanceString([]byte("\x1b[1;"), d)
	p.Reset()
	p.AdvanceString([]byte("A"), d)
	want := []string{"print:A"}
	if !reflect.DeepEqual(d.events, want) {
		t.Errorf("expected reset to discard in-progress CSI, got %v", d.events)
	}
}

func TestParserOscTerminatedByBel(t *testing.T) {
	p := NewParser()
	d := &recordingDispatcher{}
	p.AdvanceString([]byte("\x1b]0;title\x07"), d)
	want := []string{"osc:0;title"}
	if !reflect.DeepEqual(d.events, want) {
		t.Errorf("got %v, want %v", d.events, want)
	}
}

func TestParserOscTerminatedByST(t *testing.T) {
	p := NewParser()
	d := &recordingDispatcher{}
	p.AdvanceString([]byte("\x1b]0;title\x1b\\"), d)
	if len(d.events) != 1 || d.events[0] != "osc:0;title" {
		t.Errorf("got %v", d.events)
	}
}

func TestParserDcsPassthrough(t *testing.T) {
	p := NewParser()
	d := &recordingDispatcher{}
	p.AdvanceString([]byte("\x1bPq#0;2;0;0;0abc\x1b\\"), d)
	if d.events[0] != "dcshook:q" {
		t.Fatalf("expected dcshook first, got %v", d.events)
	}
	found := false
	for _, e := range d.events {
		if e == "dcsunhook" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a dcsunhook once ST closes the passthrough span, got %v", d.events)
	}
}

func TestParserMultiByteUTF8(t *testing.T) {
	p := NewParser()
	d := &recordingDispatcher{}
	p.AdvanceString([]byte("café"), d)
	want := []string{"print:c", "print:a", "print:f", "print:é"}
	if !reflect.DeepEqual(d.events, want) {
		t.Errorf("got %v, want %v", d.events, want)
	}
}

func TestParserUTF8SplitAcrossChunks(t *testing.T) {
	// é is 2 bytes in UTF-8; split the rune across two Advance calls.
	full := []byte("é")
	p := NewParser()
	d := &recordingDispatcher{}
	p.Advance(full[0], d)
	if len(d.events) != 0 {
		t.Fatalf("expected no event from a lone lead byte, got %v", d.events)
	}
	p.Advance(full[1], d)
	if len(d.events) != 1 || d.events[0] != "print:é" {
		t.Errorf("expected print:é once both bytes arrive, got %v", d.events)
	}
}
