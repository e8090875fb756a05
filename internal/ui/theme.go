package ui

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// ANSI color codes. DisableColors blanks all of them.
var (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorRed    = "\033[91m"
	ColorGreen  = "\033[92m"
	ColorYellow = "\033[93m"
	ColorBlue   = "\033[94m"
	ColorPurple = "\033[95m"
	ColorCyan   = "\033[96m"
)

// Status line symbols.
const (
	SymbolCheck    = "✓"
	SymbolCross    = "✗"
	SymbolDownload = "⬇"
	SymbolInfo     = "ℹ"
	SymbolWarning  = "⚠"
)

// ActiveTheme names the palette in use, or "none" when colors are off.
var ActiveTheme = defaultTheme

const defaultTheme = "nordonedark"

// palette lists red, green, yellow, blue, purple and cyan, in that order.
type palette struct {
	rgb  [6][3]uint8
	x256 [6]int
}

var palettes = map[string]palette{
	"nordonedark": {
		rgb: [6][3]uint8{
			{224, 108, 117}, {152, 195, 121}, {229, 192, 123},
			{143, 188, 255}, {180, 142, 255}, {136, 220, 255},
		},
		x256: [6]int{210, 114, 222, 111, 183, 159},
	},
	"vivid": {
		rgb: [6][3]uint8{
			{255, 76, 102}, {80, 250, 123}, {255, 221, 87},
			{110, 196, 255}, {215, 130, 255}, {0, 245, 255},
		},
		x256: [6]int{203, 84, 227, 81, 177, 51},
	},
}

func init() {
	InitColorPalette()
}

// InitColorPalette applies the palette named by RIFT_THEME (nordonedark or
// vivid). NO_COLOR, RIFT_THEME=none or a non-terminal stdout disable colors.
func InitColorPalette() {
	name := strings.ToLower(strings.TrimSpace(os.Getenv("RIFT_THEME")))
	if os.Getenv("NO_COLOR") != "" || name == "none" || !term.IsTerminal(int(os.Stdout.Fd())) {
		DisableColors()
		return
	}
	p, ok := palettes[name]
	if !ok {
		name, p = defaultTheme, palettes[defaultTheme]
	}
	applyPalette(p, colorDepth())
	ActiveTheme = name
}

func applyPalette(p palette, depth int) {
	ColorReset, ColorBold = "\033[0m", "\033[1m"
	slots := []*string{&ColorRed, &ColorGreen, &ColorYellow, &ColorBlue, &ColorPurple, &ColorCyan}
	for i, slot := range slots {
		switch depth {
		case 24:
			*slot = fmt.Sprintf("\033[1;38;2;%d;%d;%dm", p.rgb[i][0], p.rgb[i][1], p.rgb[i][2])
		case 8:
			*slot = fmt.Sprintf("\033[1;38;5;%dm", p.x256[i])
		default:
			*slot = fmt.Sprintf("\033[1;%dm", 91+i)
		}
	}
}

// DisableColors blanks every color code.
func DisableColors() {
	for _, slot := range []*string{&ColorReset, &ColorBold, &ColorRed, &ColorGreen, &ColorYellow, &ColorBlue, &ColorPurple, &ColorCyan} {
		*slot = ""
	}
	ActiveTheme = "none"
}

// colorDepth reports 24, 8 or 4 bits of color from TERM and COLORTERM.
func colorDepth() int {
	env := strings.ToLower(os.Getenv("COLORTERM") + " " + os.Getenv("TERM"))
	switch {
	case strings.Contains(env, "truecolor"), strings.Contains(env, "24bit"):
		return 24
	case strings.Contains(env, "256color"):
		return 8
	default:
		return 4
	}
}
