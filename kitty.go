package vtcore

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/png" // register PNG with image.Decode
	"io"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP with image.Decode
	_ "golang.org/x/image/tiff" // register TIFF with image.Decode
)

// KittyAction is the `a=` key of a Kitty graphics command: what the
// client wants done with the rest of the command.
type KittyAction byte

const (
	KittyActionTransmit        KittyAction = 't'
	KittyActionTransmitDisplay KittyAction = 'T'
	KittyActionQuery           KittyAction = 'q'
	KittyActionDisplay         KittyAction = 'p'
	KittyActionDelete          KittyAction = 'd'
)

// KittyTransmission is the `t=` key: how the payload reaches the
// terminal. Only direct (inline base64) transmission is implemented —
// a headless core has no filesystem or shared-memory segment to read
// file-backed transmissions from.
type KittyTransmission byte

const KittyTransmitDirect KittyTransmission = 'd'

// KittyFormat is the `f=` key: the pixel encoding of the payload.
type KittyFormat uint32

const (
	KittyFormatRGB  KittyFormat = 24
	KittyFormatRGBA KittyFormat = 32
	KittyFormatPNG  KittyFormat = 100
)

// KittyDelete is the `d=` key of a delete command, selecting which
// placements (and optionally their backing image data) to drop.
type KittyDelete byte

const (
	KittyDeleteAll          KittyDelete = 'a'
	KittyDeleteAllWithData  KittyDelete = 'A'
	KittyDeleteByID         KittyDelete = 'i'
	KittyDeleteByIDWithData KittyDelete = 'I'
	KittyDeleteAtCursor     KittyDelete = 'c'
	KittyDeleteAtCursorData KittyDelete = 'C'
	KittyDeleteAtPos        KittyDelete = 'p'
	KittyDeleteAtPosData    KittyDelete = 'P'
	KittyDeleteByCol        KittyDelete = 'x'
	KittyDeleteByColData    KittyDelete = 'X'
	KittyDeleteByRow        KittyDelete = 'y'
	KittyDeleteByRowData    KittyDelete = 'Y'
	KittyDeleteByZIndex     KittyDelete = 'z'
	KittyDeleteByZIndexData KittyDelete = 'Z'
)

// KittyCommand is one parsed Kitty graphics APC command (the `G`
// payload of `ESC _ G ... ESC \`).
type KittyCommand struct {
	Action       KittyAction
	Transmission KittyTransmission
	Format       KittyFormat
	Compression  byte // 'z' for zlib, 0 for none

	ImageID uint32 // i=

	Width  uint32 // s=
	Height uint32 // v=
	More   bool   // m=1: more payload chunks follow

	SrcX, SrcY      uint32 // x=, y=
	SrcW, SrcH      uint32 // w=, h=
	Cols, Rows      uint32 // c=, r=
	CellOffsetX     uint32 // X=
	CellOffsetY     uint32 // Y=
	ZIndex          int32  // z=
	DoNotMoveCursor bool   // C=1

	Delete KittyDelete // d=

	Quiet uint32 // q=: 0 normal, 1 suppress OK, 2 suppress all

	Payload []byte // base64-decoded
}

// kittyControlKeys maps each one-letter control key to a setter run
// against the command being built, keeping ParseKittyGraphics itself
// to a split-and-dispatch loop instead of one long switch.
var kittyControlKeys = map[byte]func(*KittyCommand, []byte){
	'a': func(c *KittyCommand, v []byte) {
		if len(v) > 0 {
			c.Action = KittyAction(v[0])
		}
	},
	't': func(c *KittyCommand, v []byte) {
		if len(v) > 0 {
			c.Transmission = KittyTransmission(v[0])
		}
	},
	'f': func(c *KittyCommand, v []byte) { c.Format = KittyFormat(parseUintField(v)) },
	'o': func(c *KittyCommand, v []byte) {
		if len(v) > 0 {
			c.Compression = v[0]
		}
	},
	'i': func(c *KittyCommand, v []byte) { c.ImageID = parseUintField(v) },
	's': func(c *KittyCommand, v []byte) { c.Width = parseUintField(v) },
	'v': func(c *KittyCommand, v []byte) { c.Height = parseUintField(v) },
	'm': func(c *KittyCommand, v []byte) { c.More = parseUintField(v) == 1 },
	'x': func(c *KittyCommand, v []byte) { c.SrcX = parseUintField(v) },
	'y': func(c *KittyCommand, v []byte) { c.SrcY = parseUintField(v) },
	'w': func(c *KittyCommand, v []byte) { c.SrcW = parseUintField(v) },
	'h': func(c *KittyCommand, v []byte) { c.SrcH = parseUintField(v) },
	'c': func(c *KittyCommand, v []byte) { c.Cols = parseUintField(v) },
	'r': func(c *KittyCommand, v []byte) { c.Rows = parseUintField(v) },
	'X': func(c *KittyCommand, v []byte) { c.CellOffsetX = parseUintField(v) },
	'Y': func(c *KittyCommand, v []byte) { c.CellOffsetY = parseUintField(v) },
	'z': func(c *KittyCommand, v []byte) { c.ZIndex = parseIntField(v) },
	'C': func(c *KittyCommand, v []byte) { c.DoNotMoveCursor = parseUintField(v) == 1 },
	'd': func(c *KittyCommand, v []byte) {
		if len(v) > 0 {
			c.Delete = KittyDelete(v[0])
		}
	},
	'q': func(c *KittyCommand, v []byte) { c.Quiet = parseUintField(v) },
}

// ParseKittyGraphics parses the content of a Kitty graphics APC
// command: a leading "G" (optional), comma-separated key=value control
// data, then ";" and a base64 payload.
func ParseKittyGraphics(data []byte) (*KittyCommand, error) {
	cmd := &KittyCommand{
		Action:       KittyActionTransmitDisplay,
		Transmission: KittyTransmitDirect,
		Format:       KittyFormatRGBA,
	}

	if len(data) > 0 && data[0] == 'G' {
		data = data[1:]
	}

	controlData, payload := data, []byte(nil)
	if i := bytes.IndexByte(data, ';'); i >= 0 {
		controlData, payload = data[:i], data[i+1:]
	}

	for _, pair := range bytes.Split(controlData, []byte(",")) {
		eq := bytes.IndexByte(pair, '=')
		if eq <= 0 {
			continue
		}
		if set, ok := kittyControlKeys[pair[0]]; ok {
			set(cmd, pair[eq+1:])
		}
	}

	if len(payload) > 0 {
		decoded, err := base64.StdEncoding.DecodeString(string(payload))
		if err != nil {
			if decoded, err = base64.RawStdEncoding.DecodeString(string(payload)); err != nil {
				return nil, fmt.Errorf("kitty graphics: bad base64 payload: %w", err)
			}
		}
		cmd.Payload = decoded
	}

	return cmd, nil
}

// DecodeImageData decompresses (if needed) and decodes the command's
// payload per its Format, returning RGBA pixels and dimensions.
func (cmd *KittyCommand) DecodeImageData() ([]byte, uint32, uint32, error) {
	data := cmd.Payload
	if cmd.Compression == 'z' && len(data) > 0 {
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, 0, 0, fmt.Errorf("kitty graphics: zlib: %w", err)
		}
		defer zr.Close()
		if data, err = io.ReadAll(zr); err != nil {
			return nil, 0, 0, fmt.Errorf("kitty graphics: zlib: %w", err)
		}
	}

	switch cmd.Format {
	case KittyFormatPNG:
		return decodeRasterImage(data)
	case KittyFormatRGB:
		return expandRGBToRGBA(data, cmd.Width, cmd.Height)
	case KittyFormatRGBA:
		return takeRGBA(data, cmd.Width, cmd.Height)
	default:
		return nil, 0, 0, fmt.Errorf("kitty graphics: unsupported format %d", cmd.Format)
	}
}

func expandRGBToRGBA(data []byte, width, height uint32) ([]byte, uint32, uint32, error) {
	if width == 0 || height == 0 {
		return nil, 0, 0, fmt.Errorf("kitty graphics: RGB requires width and height")
	}
	if want := int(width * height * 3); len(data) < want {
		return nil, 0, 0, fmt.Errorf("kitty graphics: short RGB buffer: got %d want %d", len(data), want)
	}
	rgba := make([]byte, width*height*4)
	for i := uint32(0); i < width*height; i++ {
		copy(rgba[i*4:i*4+3], data[i*3:i*3+3])
		rgba[i*4+3] = 255
	}
	return rgba, width, height, nil
}

func takeRGBA(data []byte, width, height uint32) ([]byte, uint32, uint32, error) {
	if width == 0 || height == 0 {
		return nil, 0, 0, fmt.Errorf("kitty graphics: RGBA requires width and height")
	}
	if want := int(width * height * 4); len(data) < want {
		return nil, 0, 0, fmt.Errorf("kitty graphics: short RGBA buffer: got %d want %d", len(data), want)
	}
	return data[:width*height*4], width, height, nil
}

// decodeRasterImage decodes a PNG (or, by extension, any image format
// blank-imported for side-effecting registration with the image
// package) into packed RGBA pixels.
func decodeRasterImage(data []byte) ([]byte, uint32, uint32, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("kitty graphics: image decode: %w", err)
	}

	bounds := img.Bounds()
	width, height := uint32(bounds.Dx()), uint32(bounds.Dy())
	rgba := make([]byte, width*height*4)
	for y := 0; y < int(height); y++ {
		for x := 0; x < int(width); x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			o := (uint32(y)*width + uint32(x)) * 4
			rgba[o], rgba[o+1], rgba[o+2], rgba[o+3] = byte(r>>8), byte(g>>8), byte(b>>8), byte(a>>8)
		}
	}
	return rgba, width, height, nil
}

func parseUintField(b []byte) uint32 {
	n, _ := strconv.ParseUint(string(b), 10, 32)
	return uint32(n)
}

func parseIntField(b []byte) int32 {
	n, _ := strconv.ParseInt(string(b), 10, 32)
	return int32(n)
}

// FormatKittyResponse builds the APC reply a client expects after a
// transmit or query command: "OK" on success, or an error code and
// message (e.g. "ENODATA:could not decode image") on failure.
func FormatKittyResponse(imageID uint32, message string, isError bool) string {
	var sb strings.Builder
	sb.WriteString("\x1b_G")
	if imageID > 0 {
		fmt.Fprintf(&sb, "i=%d", imageID)
	}
	sb.WriteByte(';')
	if isError {
		sb.WriteString(message)
	} else {
		sb.WriteString("OK")
	}
	sb.WriteString("\x1b\\")
	return sb.String()
}
