package version

import "image/color"

// PaletteStrategy fills the palette a room starts from before its own colours load.
type PaletteStrategy interface {
	Setup(pal []color.RGBA)
}

// EGAPalette seeds the first 16 entries with the EGA colours and clears the rest.
type EGAPalette struct{}

var egaColors = [16]color.RGBA{
	{0x00, 0x00, 0x00, 0xFF}, {0x00, 0x00, 0xAA, 0xFF}, {0x00, 0xAA, 0x00, 0xFF}, {0x00, 0xAA, 0xAA, 0xFF},
	{0xAA, 0x00, 0x00, 0xFF}, {0xAA, 0x00, 0xAA, 0xFF}, {0xAA, 0x55, 0x00, 0xFF}, {0xAA, 0xAA, 0xAA, 0xFF},
	{0x55, 0x55, 0x55, 0xFF}, {0x55, 0x55, 0xFF, 0xFF}, {0x55, 0xFF, 0x55, 0xFF}, {0x55, 0xFF, 0xFF, 0xFF},
	{0xFF, 0x55, 0x55, 0xFF}, {0xFF, 0x55, 0xFF, 0xFF}, {0xFF, 0xFF, 0x55, 0xFF}, {0xFF, 0xFF, 0xFF, 0xFF},
}

func (EGAPalette) Setup(pal []color.RGBA) {
	for i := range pal {
		if i < len(egaColors) {
			pal[i] = egaColors[i]
		} else {
			pal[i] = color.RGBA{A: 0xFF}
		}
	}
}

// ZeroPalette clears every entry to opaque black.
type ZeroPalette struct{}

func (ZeroPalette) Setup(pal []color.RGBA) {
	for i := range pal {
		pal[i] = color.RGBA{A: 0xFF}
	}
}
