package tmux

import "regexp"

// ansiRE matches CSI sequences, OSC sequences terminated by BEL, and
// charset selection sequences.
var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]|\x1b\][^\x07]*\x07|\x1b[()][0-9A-Za-z]`)

// StripANSI removes ANSI escape sequences from captured pane text.
func StripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}
