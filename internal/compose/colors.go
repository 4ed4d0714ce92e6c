package compose

import (
	"fmt"
	"image/color"
	"strings"
)

// ParseHexColor parses #RGB, #RRGGBB and #RRGGBBAA strings. An empty
// string is not a color; callers treat it as "absent" before parsing.
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var c color.NRGBA
	c.A = 0xFF

	hexByte := func(hi, lo byte) (uint8, error) {
		var v uint8
		for _, b := range []byte{hi, lo} {
			v <<= 4
			switch {
			case b >= '0' && b <= '9':
				v |= b - '0'
			case b >= 'a' && b <= 'f':
				v |= b - 'a' + 10
			case b >= 'A' && b <= 'F':
				v |= b - 'A' + 10
			default:
				return 0, fmt.Errorf("invalid hex digit %q", string(b))
			}
		}
		return v, nil
	}

	var err error
	switch len(s) {
	case 3:
		if c.R, err = hexByte(s[0], s[0]); err != nil {
			return c, err
		}
		if c.G, err = hexByte(s[1], s[1]); err != nil {
			return c, err
		}
		c.B, err = hexByte(s[2], s[2])
	case 6:
		if c.R, err = hexByte(s[0], s[1]); err != nil {
			return c, err
		}
		if c.G, err = hexByte(s[2], s[3]); err != nil {
			return c, err
		}
		c.B, err = hexByte(s[4], s[5])
	case 8:
		if c.R, err = hexByte(s[0], s[1]); err != nil {
			return c, err
		}
		if c.G, err = hexByte(s[2], s[3]); err != nil {
			return c, err
		}
		if c.B, err = hexByte(s[4], s[5]); err != nil {
			return c, err
		}
		c.A, err = hexByte(s[6], s[7])
	default:
		return c, fmt.Errorf("invalid color %q", s)
	}
	return c, err
}
