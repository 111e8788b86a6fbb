// ABOUTME: Icon system with Nerd Font detection and Unicode fallback
// ABOUTME: Provides consistent iconography across different terminal capabilities

package icons

import (
	"os"
	"strings"
	"sync"
)

var (
	useNerdFonts     bool
	nerdFontDetected sync.Once
)

// detectNerdFonts checks if Nerd Fonts should be used
func detectNerdFonts() bool {
	// Explicit override via environment variable
	if env := os.Getenv("TRAINER_ADMIN_NERD_FONTS"); env != "" {
		return env == "1" || strings.ToLower(env) == "true"
	}

	term := os.Getenv("TERM")
	termProgram := os.Getenv("TERM_PROGRAM")

	nerdFontTerminals := []string{
		"iTerm.app",
		"alacritty",
		"WezTerm",
		"kitty",
		"ghostty",
	}

	for _, t := range nerdFontTerminals {
		if strings.Contains(termProgram, t) || strings.Contains(term, strings.ToLower(t)) {
			return true
		}
	}

	return os.Getenv("NERD_FONTS") == "1"
}

// HasNerdFonts returns true if Nerd Fonts are available
func HasNerdFonts() bool {
	nerdFontDetected.Do(func() {
		useNerdFonts = detectNerdFonts()
	})
	return useNerdFonts
}

// Icon represents an icon with Nerd Font and Unicode fallback variants
type Icon struct {
	NerdFont string
	Fallback string
}

// String returns the appropriate icon based on font availability
func (i Icon) String() string {
	if HasNerdFonts() {
		return i.NerdFont
	}
	return i.Fallback
}

// Icon definitions - Nerd Font codepoints with Unicode fallbacks
var (
	// People and roles
	Users   = Icon{"󰡉", "☰"} // nf-md-account_group
	Admin   = Icon{"󰀉", "♛"} // nf-md-account_tie
	Trainer = Icon{"󰖏", "♞"} // nf-md-whistle
	Trainee = Icon{"󰀄", "☺"} // nf-md-account
	Active  = Icon{"󰄬", "●"} // nf-md-check

	// Status indicators
	CheckOK  = Icon{"\U000F05E0", "✓"} // nf-md-check_circle
	Warning  = Icon{"\U000F0026", "⚠"} // nf-md-alert
	Critical = Icon{"\U000F0159", "✗"} // nf-md-close_circle
	Info     = Icon{"\U000F02FC", "ℹ"} // nf-md-information

	// Actions
	Add    = Icon{"󰐕", "+"} // nf-md-plus
	Edit   = Icon{"󰏫", "✎"} // nf-md-pencil
	Delete = Icon{"󰆴", "✗"} // nf-md-delete
	Search = Icon{"󰍉", "⌕"} // nf-md-magnify
	Filter = Icon{"󰈲", "▽"} // nf-md-filter

	// Application
	App  = Icon{"󰑴", "◈"} // nf-md-school
	Lock = Icon{"󰌾", "⚿"} // nf-md-lock
)
