package vtcore

import "testing"

func TestDefaultAttrSentinels(t *testing.T) {
	a := DefaultAttr()
	if a.Fg != DefaultFg || a.Bg != DefaultBg {
		t.Errorf("expected default fg/bg sentinels, got %+v", a)
	}
	if a.Fg.Value != DefaultFgIndex || a.Bg.Value != DefaultBgIndex {
		t.Errorf("expected sentinel indices 256/257, got fg=%d bg=%d", a.Fg.Value, a.Bg.Value)
	}
}

func TestAttributeFlags(t *testing.T) {
	var a Attribute
	a.SetFlag(FlagBold)
	a.SetFlag(FlagItalic)
	if !a.HasFlag(FlagBold) || !a.HasFlag(FlagItalic) {
		t.Fatal("expected both flags set")
	}
	a.ClearFlag(FlagBold)
	if a.HasFlag(FlagBold) {
		t.Error("expected bold cleared")
	}
	if !a.HasFlag(FlagItalic) {
		t.Error("expected italic to remain set")
	}
}

func TestAttributeResetIsDefault(t *testing.T) {
	a := Attribute{Flags: FlagBold, Fg: RGB(1, 2, 3)}
	a.Reset()
	if a != DefaultAttr() {
		t.Errorf("expected Reset to produce DefaultAttr, got %+v", a)
	}
}

func TestAttributeEqual(t *testing.T) {
	a := DefaultAttr()
	b := DefaultAttr()
	if !a.Equal(b) {
		t.Error("expected two default attrs to be equal")
	}
	b.SetFlag(FlagDim)
	if a.Equal(b) {
		t.Error("expected attrs to differ after SetFlag")
	}
}

func TestIndexedClamps(t *testing.T) {
	if Indexed(-5).Value != 0 {
		t.Error("expected negative index clamped to 0")
	}
	if Indexed(999).Value != 255 {
		t.Error("expected large index clamped to 255")
	}
}

func TestRGBRoundTrip(t *testing.T) {
	c := RGB(10, 20, 30)
	r, g, b := c.RGB24()
	if r != 10 || g != 20 || b != 30 {
		t.Errorf("expected (10,20,30), got (%d,%d,%d)", r, g, b)
	}
}
