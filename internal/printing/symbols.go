package printing

import "github.com/fatih/color"

// Icon is a symbol peregrine prints next to its output.
type Icon int

const (
	Flask Icon = iota
	FailedFlask
	Timer
	Build
	Failure
	Success
	RightArrow
	FilledBlock
	ShadedBlock
)

// nerdFont holds the Nerd Font code points for each Icon.
var nerdFont = map[Icon]string{
	Flask:       "\U000F0093",
	FailedFlask: "\U000F1244",
	Timer:       "\U000F051B",
	Build:       "\U000F1323",
	Failure:     "\uea87",
	Success:     "\uebb1",
	RightArrow:  "\U000F17A9",
	FilledBlock: "█",
	ShadedBlock: "░",
}

// plain holds the ASCII fallback for each Icon. The block glyphs have no
// ASCII equivalent and are printed as-is.
var plain = map[Icon]string{
	Flask:       "*",
	FailedFlask: "!",
	Timer:       "@",
	Build:       "%",
	Failure:     "!",
	Success:     "",
	RightArrow:  ">",
	FilledBlock: "█",
	ShadedBlock: "░",
}

// Symbols selects between Nerd Font icons and their plaintext fallbacks.
type Symbols struct {
	Plain bool
}

// Get returns the string to print for the icon.
func (s Symbols) Get(icon Icon) string {
	if s.Plain {
		return plain[icon]
	}
	return nerdFont[icon]
}

// Colours used across peregrine's output.
var (
	GreenBold = color.New(color.FgGreen, color.Bold)
	RedBold   = color.New(color.FgRed, color.Bold)
	CyanBold  = color.New(color.FgCyan, color.Bold)
	Cyan      = color.New(color.FgCyan)
)
