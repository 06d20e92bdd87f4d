package output

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Section renders a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

// KeyValue renders an aligned "label value" line for detail views.
func KeyValue(label, value string) string {
	return fmt.Sprintf("  %s %s", StyleLabel.Render(label), StyleValue.Render(value))
}

// StateBadge renders a live/dead indicator for status output.
func StateBadge(running bool) string {
	if running {
		return StyleRunning.Render("● running")
	}
	return StyleStopped.Render("○ stopped")
}

// Truncate clips s to at most max runes, appending an ellipsis when
// clipped. History rows carry whole shell command lines, which can run
// long.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
