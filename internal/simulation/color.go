package simulation

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

var fallbackColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// ParseColor reads a CSS color: "#rgb", "#rrggbb", "#rrggbbaa", "rgb(r, g, b)",
// "rgba(r, g, b, a)" or a named color such as "red". Anything else is white.
func ParseColor(s string) color.RGBA {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c
	}
	if strings.HasPrefix(s, "rgb") {
		if c, ok := parseRGBFunc(s); ok {
			return c
		}
		return fallbackColor
	}
	return parseHex(strings.TrimPrefix(s, "#"))
}

func parseHex(s string) color.RGBA {
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return fallbackColor
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fallbackColor
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}

// parseRGBFunc reads "rgb(r, g, b)" and "rgba(r, g, b, a)" with a in [0, 1].
func parseRGBFunc(s string) (color.RGBA, bool) {
	var (
		r, g, b int
		a       = 1.0
		n       int
		err     error
	)
	s = strings.ReplaceAll(s, " ", "")
	if strings.HasPrefix(s, "rgba(") {
		n, err = fmt.Sscanf(s, "rgba(%d,%d,%d,%g)", &r, &g, &b, &a)
		if err != nil || n != 4 {
			return color.RGBA{}, false
		}
	} else {
		n, err = fmt.Sscanf(s, "rgb(%d,%d,%d)", &r, &g, &b)
		if err != nil || n != 3 {
			return color.RGBA{}, false
		}
	}
	if !inByte(r) || !inByte(g) || !inByte(b) || a < 0 || a > 1 {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: uint8(a*255 + 0.5)}, true
}

func inByte(v int) bool {
	return v >= 0 && v <= 255
}
