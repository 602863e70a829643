// Package marker turns an interactive terminal pane into a
// request/response channel. A dispatched command is wrapped between two
// generated delimiter strings; captured pane text is later parsed to
// recover the command's output and exit status.
package marker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/muxdrive/muxdrive/internal/shell"
)

// StartMarker returns the start delimiter for a command id.
func StartMarker(id string) string {
	return fmt.Sprintf("<<START:%s>>", id)
}

// endMarkerPrefix returns the end delimiter up to (not including) the
// exit code. The full end marker printed by the shell is
// "<<END:{id}:{code}>>".
func endMarkerPrefix(id string) string {
	return fmt.Sprintf("<<END:%s:", id)
}

// BuildWrapped produces the text to type into a pane: print the start
// marker, run the caller's command, print the end marker with the
// shell's exit-status variable appended. The trailing newline makes the
// pane execute it as a submitted line. The caller's command text is not
// shell-escaped.
func BuildWrapped(id, command string, sh shell.Shell) string {
	sep := sh.Separator()
	return fmt.Sprintf("echo \"%s\"%s %s%s echo \"%s%s>>\"\n",
		StartMarker(id), sep, command, sep, endMarkerPrefix(id), sh.ExitStatusVar())
}

// Result is the outcome of parsing captured pane text for one command.
type Result struct {
	// Found is true once the end marker with a numeric exit code is
	// present; Output and ExitCode are only meaningful then.
	Found bool
	// StartSeen reports whether the start marker occurs anywhere in the
	// capture. When false the pane may have scrolled past the evidence.
	StartSeen bool
	Output    string
	ExitCode  int
}

// Parse locates this command's markers in captured pane text.
//
// The pane echoes the typed wrapper line before executing it, so the
// capture usually contains the marker strings twice. The echoed end
// marker carries the literal exit-status variable ("$?" or "$status")
// rather than digits, so only end markers followed by a number count as
// completion. The last such match wins, and the output is the text
// between the nearest preceding start marker and that match.
func Parse(captured, id string) Result {
	endRE := regexp.MustCompile(regexp.QuoteMeta(endMarkerPrefix(id)) + `(-?\d+)>>`)
	start := StartMarker(id)

	res := Result{StartSeen: strings.Contains(captured, start)}

	matches := endRE.FindAllStringSubmatchIndex(captured, -1)
	if len(matches) == 0 {
		return res
	}
	m := matches[len(matches)-1]

	code, err := strconv.Atoi(captured[m[2]:m[3]])
	if err != nil {
		return res
	}

	startIdx := strings.LastIndex(captured[:m[0]], start)
	if startIdx < 0 {
		return res
	}

	// The echoed wrapper line contains the start marker and the
	// non-numeric end marker on one line; a start marker directly
	// followed by the echo of the rest of the wrapper is still fine
	// because the last numeric end match always comes from real output.
	between := captured[startIdx+len(start) : m[0]]

	res.Found = true
	res.ExitCode = code
	res.Output = trimMarkerResidue(between)
	return res
}

// trimMarkerResidue cleans the slice between the markers: normalize
// line endings, drop a leftover echoed wrapper fragment (the `"; ...`
// tail that follows the start marker on the typed line), and trim
// surrounding blank space.
func trimMarkerResidue(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "")

	lines := strings.Split(s, "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], `"`) {
		// First line is the remainder of the echoed wrapper, not output.
		lines = lines[1:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
