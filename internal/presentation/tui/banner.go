package tui

import (
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"  _            _",
	" | |_ ___   __| | ___  ___",
	" | __/ _ \\ / _` |/ _ \\/ __|",
	" | || (_) | (_| | (_) \\__ \\",
	"  \\__\\___/ \\__,_|\\___/|___/",
}

var bannerColors = []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6"}

// Banner returns the ASCII art title colored for profile.
func Banner(p termenv.Profile) string {
	var b strings.Builder
	b.WriteString("\n")
	for i, line := range bannerLines {
		b.WriteString(p.String(line).Foreground(p.Color(bannerColors[i])).String())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}
