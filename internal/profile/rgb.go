package profile

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/restyle/internal/docx"
)

// RGB is a 24-bit color, 0xRRGGBB. It serializes as "RRGGBB".
type RGB uint32

// ParseRGB parses a hex color such as "1F4E79" or "#1f4e79".
func ParseRGB(hex string) (RGB, error) {
	c, err := docx.ParseHexColor(hex)
	if err != nil {
		return 0, fmt.Errorf("parse color %q: %w", hex, err)
	}
	return FromColor(c), nil
}

// FromColor quantizes a color to 8 bits per channel.
func FromColor(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// Hex formats the value as uppercase hex. Values wider than 24 bits keep
// their extra digits and are rejected by docx.Run.SetColor.
func (c RGB) Hex() string { return fmt.Sprintf("%06X", uint32(c)) }

func (c RGB) String() string { return c.Hex() }

func (c RGB) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

func (c *RGB) UnmarshalText(b []byte) error {
	v, err := ParseRGB(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c RGB) MarshalYAML() (any, error) { return c.Hex(), nil }

func (c *RGB) UnmarshalYAML(n *yaml.Node) error {
	return c.UnmarshalText([]byte(n.Value))
}
