package vtcore

import "image/color"

// SixelImage is a decoded Sixel image: packed RGBA pixels at the
// size actually drawn (the DCS sequence carries no reliable
// dimensions up front, so the canvas grows to fit whatever the data
// paints).
type SixelImage struct {
	Width       uint32
	Height      uint32
	Data        []byte // RGBA
	Transparent bool
}

// sixelCanvas accumulates one Sixel stream's pixels before they are
// flattened into a SixelImage.
type sixelCanvas struct {
	colors      [256]color.RGBA
	color       int // currently selected palette index
	x, y        int // cursor within the six-row sixel band
	maxX, maxY  int
	cells       map[int]map[int]color.RGBA
	transparent bool
}

// ParseSixel decodes a Sixel DCS body. params holds the DCS numeric
// parameters (P1;P2;P3 — only P2, background selection, is honored);
// data is the raw bytes between the introducer and ST.
func ParseSixel(params []int64, data []byte) (*SixelImage, error) {
	c := &sixelCanvas{cells: make(map[int]map[int]color.RGBA)}
	c.loadVGAPalette()
	if len(params) >= 2 && params[1] == 1 {
		c.transparent = true
	}
	c.decode(data)
	return c.flatten(), nil
}

// loadVGAPalette seeds the default 16-color VGA palette plus a
// grayscale ramp filling the rest of the 256-entry table, matching
// what a real VT340 ships with before any `#` color redefinitions.
func (c *sixelCanvas) loadVGAPalette() {
	vga := [16]color.RGBA{
		{0, 0, 0, 255}, {0, 0, 205, 255}, {205, 0, 0, 255}, {205, 0, 205, 255},
		{0, 205, 0, 255}, {0, 205, 205, 255}, {205, 205, 0, 255}, {205, 205, 205, 255},
		{0, 0, 0, 255}, {0, 0, 255, 255}, {255, 0, 0, 255}, {255, 0, 255, 255},
		{0, 255, 0, 255}, {0, 255, 255, 255}, {255, 255, 0, 255}, {255, 255, 255, 255},
	}
	copy(c.colors[:], vga[:])
	for i := 16; i < 256; i++ {
		gray := uint8((i - 16) * 255 / 239)
		c.colors[i] = color.RGBA{gray, gray, gray, 255}
	}
}

// decode runs the Sixel byte-stream state machine: carriage return
// ($), newline (-), repeat introducer (!), color introducer (#),
// raster attributes ("), and sixel data characters (?-~).
func (c *sixelCanvas) decode(data []byte) {
	for i := 0; i < len(data); {
		b := data[i]
		i++
		switch {
		case b == '$':
			c.x = 0
		case b == '-':
			c.x = 0
			c.y += 6
		case b == '!':
			var count int64
			count, i = readNumber(data, i)
			if i < len(data) {
				sixel := data[i]
				i++
				if sixel >= '?' && sixel <= '~' {
					c.paint(sixel, int(count))
				}
			}
		case b == '#':
			i = c.selectColor(data, i)
		case b >= '?' && b <= '~':
			c.paint(b, 1)
		case b == '"':
			i = skipRasterAttributes(data, i)
		}
	}
}

// selectColor handles the `#` introducer: `#n` selects palette entry
// n, and `#n;type;v1;v2;v3` additionally redefines it (type 1 is HLS,
// with hue in degrees and lightness/saturation as 0-100 percentages;
// anything else is RGB, each component a 0-100 percentage).
func (c *sixelCanvas) selectColor(data []byte, i int) int {
	colorNum, i := readNumber(data, i)
	if i < len(data) && data[i] == ';' {
		var ptype, v1, v2, v3 int64
		var ok bool
		ptype, v1, v2, v3, i, ok = readColorDefinition(data, i+1)
		if ok && colorNum >= 0 && colorNum < 256 {
			if ptype == 1 {
				c.colors[colorNum] = hlsToRGB(int(v1), int(v2), int(v3))
			} else {
				c.colors[colorNum] = color.RGBA{
					R: uint8(v1 * 255 / 100),
					G: uint8(v2 * 255 / 100),
					B: uint8(v3 * 255 / 100),
					A: 255,
				}
			}
		}
	}
	if colorNum >= 0 && colorNum < 256 {
		c.color = int(colorNum)
	}
	return i
}

// readColorDefinition reads the `type;v1;v2;v3` tail of a color
// introducer, returning ok=false if the fields are incomplete (in
// which case only the color selection, not the redefinition, applies).
func readColorDefinition(data []byte, i int) (ptype, v1, v2, v3 int64, next int, ok bool) {
	var n int64
	if n, i = readNumber(data, i); i >= len(data) || data[i] != ';' {
		return 0, 0, 0, 0, i, false
	}
	ptype, i = n, i+1
	if n, i = readNumber(data, i); i >= len(data) || data[i] != ';' {
		return 0, 0, 0, 0, i, false
	}
	v1, i = n, i+1
	if n, i = readNumber(data, i); i >= len(data) || data[i] != ';' {
		return 0, 0, 0, 0, i, false
	}
	v2, i = n, i+1
	v3, i = readNumber(data, i)
	return ptype, v1, v2, v3, i, true
}

// skipRasterAttributes scans past a `"Pan;Pad;Ph;Pv` raster-attributes
// sequence. Ph/Pv nominally give the image's pixel dimensions, but
// since this decoder sizes its canvas from the pixels actually
// painted, they carry no information it needs.
func skipRasterAttributes(data []byte, i int) int {
	for i < len(data) {
		switch {
		case data[i] == '$', data[i] == '-', data[i] == '#', data[i] == '!':
			return i
		case data[i] >= '?' && data[i] <= '~':
			return i
		}
		i++
	}
	return i
}

// readNumber reads a run of decimal digits starting at i.
func readNumber(data []byte, i int) (int64, int) {
	var n int64
	for i < len(data) && data[i] >= '0' && data[i] <= '9' {
		n = n*10 + int64(data[i]-'0')
		i++
	}
	return n, i
}

// paint plants count copies of one sixel character at the cursor,
// each bit of the 6-bit character selecting one of six vertical
// pixels in the current palette color, then advances the cursor.
func (c *sixelCanvas) paint(ch byte, count int) {
	if count <= 0 {
		count = 1
	}
	bits := ch - '?'
	rgba := c.colors[c.color]

	for n := 0; n < count; n++ {
		for bit := 0; bit < 6; bit++ {
			if bits&(1<<bit) == 0 {
				continue
			}
			py, px := c.y+bit, c.x
			row := c.cells[py]
			if row == nil {
				row = make(map[int]color.RGBA)
				c.cells[py] = row
			}
			row[px] = rgba
			if px > c.maxX {
				c.maxX = px
			}
			if py > c.maxY {
				c.maxY = py
			}
		}
		c.x++
	}
}

// flatten renders the sparse pixel set into a dense RGBA SixelImage
// sized to the bounding box of everything painted.
func (c *sixelCanvas) flatten() *SixelImage {
	if len(c.cells) == 0 {
		return &SixelImage{}
	}

	width, height := uint32(c.maxX+1), uint32(c.maxY+1)
	data := make([]byte, width*height*4)

	if !c.transparent {
		bg := c.colors[0]
		for i := uint32(0); i < width*height; i++ {
			data[i*4], data[i*4+1], data[i*4+2], data[i*4+3] = bg.R, bg.G, bg.B, bg.A
		}
	}

	for y, row := range c.cells {
		for x, rgba := range row {
			if x < 0 || x >= int(width) || y < 0 || y >= int(height) {
				continue
			}
			o := (uint32(y)*width + uint32(x)) * 4
			data[o], data[o+1], data[o+2], data[o+3] = rgba.R, rgba.G, rgba.B, rgba.A
		}
	}

	return &SixelImage{Width: width, Height: height, Data: data, Transparent: c.transparent}
}

// hlsToRGB converts a Sixel HLS triple to RGB. Sixel's color wheel is
// rotated from the usual one (hue 0 is blue, 120 is red, 240 is
// green, rather than red/green/blue), and lightness/saturation run
// 0-100 rather than 0-1.
func hlsToRGB(h, l, s int) color.RGBA {
	if s == 0 {
		v := uint8(l * 255 / 100)
		return color.RGBA{v, v, v, 255}
	}

	hue := float64(h)/360.0 + 2.0/3.0 // rotate onto the standard red/green/blue wheel
	if hue >= 1.0 {
		hue -= 1.0
	}
	lum := float64(l) / 100.0
	sat := float64(s) / 100.0

	q := lum*(1+sat)
	if lum >= 0.5 {
		q = lum + sat - lum*sat
	}
	p := 2*lum - q

	return color.RGBA{
		R: uint8(hueChannel(p, q, hue+1.0/3.0) * 255),
		G: uint8(hueChannel(p, q, hue) * 255),
		B: uint8(hueChannel(p, q, hue-1.0/3.0) * 255),
		A: 255,
	}
}

// hueChannel samples one RGB channel from a hue fraction t, per the
// standard HSL-to-RGB piecewise formula.
func hueChannel(p, q, t float64) float64 {
	switch {
	case t < 0:
		t += 1
	case t > 1:
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
