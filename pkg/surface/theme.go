package surface

import (
	"github.com/lucasb-eyer/go-colorful"
)

// Palette base colours.
const (
	FieldColor  = "#96CCFF"
	EntityColor = "#137752"
	EmptyFill   = "white"
)

// Theme holds the node colours.
type Theme struct {
	Field        string
	FieldAccent  string
	Entity       string
	EntityAccent string
	Empty        string
}

// DefaultTheme returns the light-blue field / dark-green entity palette.
func DefaultTheme() Theme {
	return Theme{
		Field:        FieldColor,
		FieldAccent:  Adjust(FieldColor, -40),
		Entity:       EntityColor,
		EntityAccent: Adjust(EntityColor, -10),
		Empty:        EmptyFill,
	}
}

// Fill returns the circle fill. Nodes hiding children are filled with their
// base colour, everything else is empty.
func (t Theme) Fill(entity, collapsed bool) string {
	switch {
	case !collapsed:
		return t.Empty
	case entity:
		return t.Entity
	default:
		return t.Field
	}
}

// Stroke returns the circle outline colour.
func (t Theme) Stroke(entity bool) string {
	if entity {
		return t.EntityAccent
	}
	return t.FieldAccent
}

// StrokeWidth returns the outline width in pixels.
func (t Theme) StrokeWidth(entity bool) float64 {
	if entity {
		return 2
	}
	return 1
}

// Adjust darkens (negative amount) or lightens a hex colour by shifting
// each RGB channel, clamped to [0, 255]. Unparseable input is returned
// unchanged.
func Adjust(hex string, amount int) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	r, g, b := c.RGB255()
	return colorful.Color{R: shift(r, amount), G: shift(g, amount), B: shift(b, amount)}.Hex()
}

func shift(v uint8, amount int) float64 {
	return float64(min(255, max(0, int(v)+amount))) / 255
}
