package vtcore

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestParseKittyGraphicsControlData(t *testing.T) {
	cmd, err := ParseKittyGraphics([]byte("Ga=T,f=32,s=2,v=1,i=7;AAAA"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Action != KittyActionTransmitDisplay {
		t.Errorf("expected action 'T', got %q", cmd.Action)
	}
	if cmd.Format != KittyFormatRGBA || cmd.Width != 2 || cmd.Height != 1 || cmd.ImageID != 7 {
		t.Errorf("unexpected parsed fields: %+v", cmd)
	}
	if len(cmd.Payload) == 0 {
		t.Error("expected base64 payload to be decoded")
	}
}

func TestParseKittyGraphicsDefaultsWithNoControlData(t *testing.T) {
	cmd, err := ParseKittyGraphics([]byte("G"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Action != KittyActionTransmitDisplay || cmd.Transmission != KittyTransmitDirect {
		t.Errorf("expected default action/transmission, got %+v", cmd)
	}
}

func TestKittyDecodeImageDataRGBA(t *testing.T) {
	pixels := []byte{255, 0, 0, 255, 0, 255, 0, 255} // two RGBA pixels
	cmd := &KittyCommand{Format: KittyFormatRGBA, Width: 2, Height: 1, Payload: pixels}
	rgba, w, h, err := cmd.DecodeImageData()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 2 || h != 1 || len(rgba) != 8 {
		t.Errorf("expected 2x1 RGBA, got %dx%d len=%d", w, h, len(rgba))
	}
}

func TestKittyDecodeImageDataRGBExpandsToRGBA(t *testing.T) {
	pixels := []byte{10, 20, 30}
	cmd := &KittyCommand{Format: KittyFormatRGB, Width: 1, Height: 1, Payload: pixels}
	rgba, _, _, err := cmd.DecodeImageData()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{10, 20, 30, 255}
	if string(rgba) != string(want) {
		t.Errorf("expected opaque RGBA %v, got %v", want, rgba)
	}
}

func TestKittyDecodeImageDataRejectsShortBuffer(t *testing.T) {
	cmd := &KittyCommand{Format: KittyFormatRGBA, Width: 4, Height: 4, Payload: []byte{1, 2, 3}}
	if _, _, _, err := cmd.DecodeImageData(); err == nil {
		t.Error("expected an error for insufficient pixel data")
	}
}

func TestFormatKittyResponseOKAndError(t *testing.T) {
	ok := FormatKittyResponse(5, "", false)
	if !strings.HasPrefix(ok, "\x1b_Gi=5;OK") || !strings.HasSuffix(ok, "\x1b\\") {
		t.Errorf("unexpected OK response: %q", ok)
	}
	errResp := FormatKittyResponse(5, "EINVAL:bad", true)
	if !strings.Contains(errResp, "EINVAL:bad") {
		t.Errorf("expected error message embedded, got %q", errResp)
	}
}

// TestTerminalKittyTransmitDisplayPaintsCells drives a full transmit+
// display APC sequence through Terminal.Write and checks the resulting
// cell grid carries an image reference plus an OK response on data-out.
func TestTerminalKittyTransmitDisplayPaintsCells(t *testing.T) {
	term := New(WithCols(10), WithRows(5))
	pixels := make([]byte, 2*2*4)
	for i := range pixels {
		pixels[i] = 0x80
	}
	b64 := base64.StdEncoding.EncodeToString(pixels)

	var out []byte
	sub := term.Events.DataOut.Subscribe(func(b []byte) { out = b })
	defer sub.Cancel()

	seq := "\x1b_Ga=T,f=32,s=2,v=2,c=1,r=1,i=9;" + b64 + "\x1b\\"
	term.WriteString(seq)

	c, _ := term.Cell(0, 0)
	if c.Image == nil {
		t.Fatal("expected the display command to paint an image reference onto the cursor cell")
	}
	if c.Image.ImageID != 9 {
		t.Errorf("expected image id 9, got %d", c.Image.ImageID)
	}
	if !strings.Contains(string(out), "OK") {
		t.Errorf("expected an OK response on data-out, got %q", string(out))
	}
}
