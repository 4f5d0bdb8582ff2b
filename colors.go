package vtcore

import "image/color"

// basePalette is the standard 256-color palette: 16 named colors
// (0-15), a 6x6x6 color cube (16-231), and 24 grayscale steps
// (232-255). It never changes; Palette.ResetIndex and
// Palette.ResetAll restore entries to it.
var basePalette = [256]color.RGBA{
	{0, 0, 0, 255},
	{205, 49, 49, 255},
	{13, 188, 121, 255},
	{229, 229, 16, 255},
	{36, 114, 200, 255},
	{188, 63, 188, 255},
	{17, 168, 205, 255},
	{229, 229, 229, 255},

	{102, 102, 102, 255},
	{241, 76, 76, 255},
	{35, 209, 139, 255},
	{245, 245, 67, 255},
	{59, 142, 234, 255},
	{214, 112, 214, 255},
	{41, 184, 219, 255},
	{255, 255, 255, 255},
}

func init() {
	i := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				basePalette[i] = color.RGBA{R: uint8(r * 51), G: uint8(g * 51), B: uint8(b * 51), A: 255}
				i++
			}
		}
	}
	for j := 0; j < 24; j++ {
		gray := uint8(8 + j*10)
		basePalette[232+j] = color.RGBA{R: gray, G: gray, B: gray, A: 255}
	}
}

var defaultForeground = color.RGBA{R: 229, G: 229, B: 229, A: 255}
var defaultBackground = color.RGBA{R: 0, G: 0, B: 0, A: 255}
var defaultCursorColor = color.RGBA{R: 229, G: 229, B: 229, A: 255}

// Palette holds the mutable 256-color table plus the default
// foreground/background/cursor colors, all of which OSC 4/10/11/12 and
// their reset counterparts (OSC 104/110/111/112) can override for the
// lifetime of the session.
type Palette struct {
	indexed    [256]color.RGBA
	foreground color.RGBA
	background color.RGBA
	cursor     color.RGBA
}

// NewPalette returns a palette seeded with the default 256 colors.
func NewPalette() *Palette {
	p := &Palette{
		foreground: defaultForeground,
		background: defaultBackground,
		cursor:     defaultCursorColor,
	}
	copy(p.indexed[:], basePalette[:])
	return p
}

// SetIndex overrides palette slot i (OSC 4).
func (p *Palette) SetIndex(i int, c color.RGBA) {
	if i >= 0 && i < 256 {
		p.indexed[i] = c
	}
}

// ResetIndex restores palette slot i to its default (OSC 104).
func (p *Palette) ResetIndex(i int) {
	if i >= 0 && i < 256 {
		p.indexed[i] = basePalette[i]
	}
}

// ResetAll restores every indexed slot to its default (bare OSC 104).
func (p *Palette) ResetAll() { copy(p.indexed[:], basePalette[:]) }

func (p *Palette) SetForeground(c color.RGBA) { p.foreground = c }
func (p *Palette) SetBackground(c color.RGBA) { p.background = c }
func (p *Palette) SetCursorColor(c color.RGBA) { p.cursor = c }
func (p *Palette) ResetForeground()           { p.foreground = defaultForeground }
func (p *Palette) ResetBackground()           { p.background = defaultBackground }
func (p *Palette) ResetCursorColor()          { p.cursor = defaultCursorColor }

func (p *Palette) Foreground() color.RGBA { return p.foreground }
func (p *Palette) Background() color.RGBA { return p.background }
func (p *Palette) CursorColor() color.RGBA { return p.cursor }

// Index returns palette slot i, clamped into range.
func (p *Palette) Index(i int) color.RGBA {
	if i < 0 {
		i = 0
	}
	if i > 255 {
		i = 255
	}
	return p.indexed[i]
}

// dim returns c scaled toward black; Resolve applies it to any color,
// explicit or default, when the SGR "dim" attribute is set.
func dim(c color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * 0.66),
		G: uint8(float64(c.G) * 0.66),
		B: uint8(float64(c.B) * 0.66),
		A: c.A,
	}
}

// Resolve turns a packed Color into a concrete RGBA using this
// palette, applying the dim attribute if requested.
func (p *Palette) Resolve(c Color, fg bool, dimmed bool) color.RGBA {
	var out color.RGBA
	switch c.Mode {
	case ColorRGB:
		r, g, b := c.RGB24()
		out = color.RGBA{R: r, G: g, B: b, A: 255}
	case ColorIndexed:
		out = p.Index(int(c.Value))
	default: // ColorDefault
		if fg {
			out = p.foreground
		} else {
			out = p.background
		}
	}
	if dimmed {
		out = dim(out)
	}
	return out
}
