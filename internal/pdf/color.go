package pdf

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Color is an RGB colour with channels in [0,1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Black is the default text colour.
var Black = Color{}

// Validate rejects channels outside [0,1]. Out-of-range values are never clamped.
// Channels are checked in r, g, b order.
func (c Color) Validate() error {
	channels := []struct {
		name  string
		value float64
	}{
		{"r", c.R},
		{"g", c.G},
		{"b", c.B},
	}

	for _, ch := range channels {
		if math.IsNaN(ch.value) || ch.value < 0 || ch.value > 1 {
			return fmt.Errorf("%w: color channel %s=%v outside [0,1]", ErrInvalidRequest, ch.name, ch.value)
		}
	}
	return nil
}

// UnmarshalJSON accepts either {"r":..,"g":..,"b":..} or a "#RRGGBB" string.
func (c *Color) UnmarshalJSON(data []byte) error {
	var hex string
	if err := json.Unmarshal(data, &hex); err == nil {
		parsed, err := ParseHex(hex)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	type rgb Color
	var v rgb
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Color(v)
	return nil
}

// Hex returns the colour as #RRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", channel(c.R), channel(c.G), channel(c.B))
}

// ParseHex parses a #RRGGBB string.
func ParseHex(s string) (Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("%w: color %q must be #RRGGBB", ErrInvalidRequest, s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: color %q: %v", ErrInvalidRequest, s, err)
	}

	return Color{
		R: float64((v>>16)&0xFF) / 255,
		G: float64((v>>8)&0xFF) / 255,
		B: float64(v&0xFF) / 255,
	}, nil
}

func channel(v float64) uint8 {
	return uint8(math.Round(v * 255))
}
