package deck

import "strings"

// Swatch is a named display colour.
type Swatch struct {
	Name string
	Hex  string
}

// Palette lists the colours offered when creating or editing a deck.
var Palette = []Swatch{
	{Name: "pink", Hex: "#ffb6c1"},
	{Name: "red", Hex: "#ff7f7f"},
	{Name: "babyblue", Hex: "#a8dadc"},
	{Name: "lightgreen", Hex: "#b5e48c"},
	{Name: "yellow", Hex: "#ffd868"},
	{Name: "folder", Hex: "#ffcb91"},
	{Name: "lavender", Hex: "#e0b1cb"},
	{Name: "teal", Hex: "#006d77"},
}

// ResolveColor maps a palette name to its hex value. Anything that is not a
// palette name is returned unchanged.
func ResolveColor(nameOrHex string) string {
	for _, sw := range Palette {
		if strings.EqualFold(sw.Name, nameOrHex) {
			return sw.Hex
		}
	}
	return nameOrHex
}
