// Package shell maps a configured shell to the textual conventions
// needed to delimit a command and read its exit status inside that
// shell's interactive syntax.
package shell

import (
	"fmt"
	"strings"
)

// Shell identifies a supported interactive shell.
type Shell string

const (
	Bash Shell = "bash"
	Zsh  Shell = "zsh"
	Fish Shell = "fish"
)

// Parse validates a shell identifier from config. Unsupported values
// are rejected here so misconfiguration fails at startup, not on the
// first command.
func Parse(name string) (Shell, error) {
	switch Shell(strings.ToLower(strings.TrimSpace(name))) {
	case Bash:
		return Bash, nil
	case Zsh:
		return Zsh, nil
	case Fish:
		return Fish, nil
	case "":
		return Bash, nil
	default:
		return "", fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish)", name)
	}
}

// ExitStatusVar returns the variable that holds the most recent
// command's exit status. It must be referenced immediately after the
// command so no intervening statement clobbers it.
func (s Shell) ExitStatusVar() string {
	if s == Fish {
		return "$status"
	}
	return "$?"
}

// Separator returns the statement separator. All supported shells use
// ";" but the call site should not assume that.
func (s Shell) Separator() string {
	return ";"
}

func (s Shell) String() string {
	return string(s)
}
