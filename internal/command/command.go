// Package command tracks shell commands dispatched into tmux panes.
//
// A command runs inside an independent terminal emulator, not as a
// child process of this server, so there is no process handle and no
// completion signal. Completion is detected by polling the pane's
// captured text for the marker strings the wrapper printed around the
// command (see the marker package). This trades latency for
// simplicity: it works identically regardless of what program the pane
// is running.
package command

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Status is the lifecycle state of a tracked command. Transitions only
// move forward: pending -> completed or pending -> error. Terminal
// states are immutable.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// RawModeResult is stored as the result of a raw-mode command, which is
// dispatched without markers and never transitions automatically.
const RawModeResult = "raw mode - output not tracked, use capture_pane to inspect the pane"

// Command is one dispatched command. The registry is its sole owner;
// mutation after creation happens only through the engine's
// status-check transition.
type Command struct {
	ID        string    `json:"id"`
	PaneID    string    `json:"pane_id"`
	Command   string    `json:"command"`
	StartTime time.Time `json:"start_time"`
	Status    Status    `json:"status"`
	// ExitCode is set if and only if Status is not pending.
	ExitCode *int   `json:"exit_code,omitempty"`
	Result   string `json:"result"`
	// Raw marks a command dispatched without completion tracking.
	Raw bool `json:"raw_mode"`
}

// Terminal reports whether the command has reached a final state.
func (c *Command) Terminal() bool {
	return c.Status != StatusPending
}

// newID returns a fresh opaque command identifier. Ids are embedded in
// marker strings, so short hex keeps the typed wrapper line compact.
func newID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return hex.EncodeToString(b)
}
