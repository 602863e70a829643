// Package tmux drives the tmux binary. It is the only package that
// talks to the multiplexer; everything above it sees pane ids and text.
package tmux

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrTmuxNotAvailable is returned when tmux is not installed.
var ErrTmuxNotAvailable = errors.New("tmux is not available in PATH")

// PaneUnavailableError reports that a target pane cannot be reached:
// it was killed, never existed, or the tmux server is down. It is a
// request-scoped failure, never fatal to the process.
type PaneUnavailableError struct {
	Target string
	Err    error
}

func (e *PaneUnavailableError) Error() string {
	return fmt.Sprintf("pane %s unavailable: %v", e.Target, e.Err)
}

func (e *PaneUnavailableError) Unwrap() error { return e.Err }

// Session describes a tmux session.
type Session struct {
	Name     string `json:"name"`
	Windows  int    `json:"windows"`
	Attached bool   `json:"attached"`
}

// Window describes a tmux window within a session.
type Window struct {
	Session string `json:"session"`
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Active  bool   `json:"active"`
}

// Pane describes a tmux pane. ID is the server-unique pane id ("%3"),
// the unit of command execution and capture.
type Pane struct {
	ID      string `json:"id"`
	Session string `json:"session"`
	Window  int    `json:"window"`
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Command string `json:"current_command"`
	Active  bool   `json:"active"`
}

// Client drives tmux via its CLI.
type Client struct{}

// NewClient returns a tmux client.
func NewClient() *Client {
	return &Client{}
}

// Available returns true if tmux is installed.
func (c *Client) Available() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}

// ListSessions returns all tmux sessions. A missing server yields an
// empty list, not an error.
func (c *Client) ListSessions() ([]Session, error) {
	out, err := c.output("list-sessions", "-F", "#{session_name}\t#{session_windows}\t#{session_attached}")
	if err != nil {
		// tmux exits 1 when no server is running.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("tmux list-sessions failed: %w", err)
	}

	var sessions []Session
	for _, line := range splitLines(out) {
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		windows, _ := strconv.Atoi(parts[1])
		attached, _ := strconv.Atoi(parts[2])
		sessions = append(sessions, Session{
			Name:     parts[0],
			Windows:  windows,
			Attached: attached > 0,
		})
	}
	return sessions, nil
}

// ListWindows returns the windows of a session.
func (c *Client) ListWindows(session string) ([]Window, error) {
	out, err := c.output("list-windows", "-t", session,
		"-F", "#{window_index}\t#{window_name}\t#{window_active}")
	if err != nil {
		return nil, fmt.Errorf("tmux list-windows failed: %w", err)
	}

	var windows []Window
	for _, line := range splitLines(out) {
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		index, _ := strconv.Atoi(parts[0])
		windows = append(windows, Window{
			Session: session,
			Index:   index,
			Name:    parts[1],
			Active:  parts[2] == "1",
		})
	}
	return windows, nil
}

// ListPanes returns all panes across all sessions. When session is
// non-empty only that session's panes are returned.
func (c *Client) ListPanes(session string) ([]Pane, error) {
	format := "#{pane_id}\t#{session_name}\t#{window_index}\t#{pane_index}\t#{pane_title}\t#{pane_current_command}\t#{pane_active}"
	args := []string{"list-panes", "-F", format}
	if session == "" {
		args = append(args, "-a")
	} else {
		args = append(args, "-s", "-t", session)
	}
	out, err := c.output(args...)
	if err != nil {
		return nil, fmt.Errorf("tmux list-panes failed: %w", err)
	}

	var panes []Pane
	for _, line := range splitLines(out) {
		parts := strings.SplitN(line, "\t", 7)
		if len(parts) != 7 {
			continue
		}
		window, _ := strconv.Atoi(parts[2])
		index, _ := strconv.Atoi(parts[3])
		panes = append(panes, Pane{
			ID:      parts[0],
			Session: parts[1],
			Window:  window,
			Index:   index,
			Title:   parts[4],
			Command: parts[5],
			Active:  parts[6] == "1",
		})
	}
	return panes, nil
}

// PaneExists reports whether a pane id is still alive.
func (c *Client) PaneExists(paneID string) bool {
	return exec.Command("tmux", "display-message", "-t", paneID, "-p", "").Run() == nil
}

// CapturePane captures the trailing lines of a pane. If lines <= 0 the
// visible pane content is captured. The -J flag joins wrapped lines so
// marker strings split across visual lines are reassembled. Unless
// includeColor is set, escape sequences are stripped from the result.
func (c *Client) CapturePane(paneID string, lines int, includeColor bool) (string, error) {
	args := []string{"capture-pane", "-p", "-J", "-t", paneID}
	if includeColor {
		args = append(args, "-e")
	}
	if lines > 0 {
		args = append(args, "-S", fmt.Sprintf("-%d", lines))
	}

	cmd := exec.Command("tmux", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &PaneUnavailableError{Target: paneID, Err: wrapStderr(err, stderr.String())}
	}

	out := stdout.String()
	if !includeColor {
		out = StripANSI(out)
	}
	return out, nil
}

// SendText types text into a pane and submits it with Enter. The text
// is sent with -l (literal) so tmux does not interpret key names, then
// Enter is sent separately after a short delay so the pane's foreground
// program has processed the text.
func (c *Client) SendText(paneID, text string) error {
	if err := c.run("send-keys", "-l", "-t", paneID, text); err != nil {
		return &PaneUnavailableError{Target: paneID, Err: err}
	}

	// Scale the delay with text length; long pastes take longer to land.
	delay := 50 * time.Millisecond
	if len(text) > 500 {
		delay += time.Duration(len(text)/100) * time.Millisecond
		if delay > 500*time.Millisecond {
			delay = 500 * time.Millisecond
		}
	}
	time.Sleep(delay)

	if err := c.run("send-keys", "-t", paneID, "Enter"); err != nil {
		return &PaneUnavailableError{Target: paneID, Err: err}
	}
	return nil
}

// SendRawKeys sends key names ("C-c", "Escape", "Up") to a pane without
// literal interpretation and without a trailing Enter.
func (c *Client) SendRawKeys(paneID, keys string) error {
	if err := c.run("send-keys", "-t", paneID, keys); err != nil {
		return &PaneUnavailableError{Target: paneID, Err: err}
	}
	return nil
}

// CreateSession creates a detached session and returns its first pane.
func (c *Client) CreateSession(name string) (Pane, error) {
	if err := c.run("new-session", "-d", "-s", name); err != nil {
		return Pane{}, fmt.Errorf("tmux new-session failed: %w", err)
	}
	return c.firstPane(name)
}

// CreateWindow creates a window in a session and returns its pane.
func (c *Client) CreateWindow(session, name string) (Pane, error) {
	args := []string{"new-window", "-d", "-t", session}
	if name != "" {
		args = append(args, "-n", name)
	}
	if err := c.run(args...); err != nil {
		return Pane{}, fmt.Errorf("tmux new-window failed: %w", err)
	}
	panes, err := c.ListPanes(session)
	if err != nil {
		return Pane{}, err
	}
	if len(panes) == 0 {
		return Pane{}, fmt.Errorf("no panes found in session %q after new-window", session)
	}
	return panes[len(panes)-1], nil
}

// SplitPane splits a pane and returns the new pane's id. vertical=true
// stacks the new pane below (tmux -v); otherwise beside (-h).
func (c *Client) SplitPane(paneID string, vertical bool, sizePercent int) (string, error) {
	direction := "-h"
	if vertical {
		direction = "-v"
	}
	args := []string{"split-window", direction, "-d", "-t", paneID, "-P", "-F", "#{pane_id}"}
	if sizePercent > 0 {
		args = append(args, "-p", strconv.Itoa(sizePercent))
	}
	out, err := c.output(args...)
	if err != nil {
		return "", &PaneUnavailableError{Target: paneID, Err: err}
	}
	return strings.TrimSpace(out), nil
}

// KillPane destroys a pane.
func (c *Client) KillPane(paneID string) error {
	if err := c.run("kill-pane", "-t", paneID); err != nil {
		return &PaneUnavailableError{Target: paneID, Err: err}
	}
	return nil
}

func (c *Client) firstPane(session string) (Pane, error) {
	panes, err := c.ListPanes(session)
	if err != nil {
		return Pane{}, err
	}
	if len(panes) == 0 {
		return Pane{}, fmt.Errorf("no panes found in session %q", session)
	}
	return panes[0], nil
}

func (c *Client) run(args ...string) error {
	if !c.Available() {
		return ErrTmuxNotAvailable
	}
	out, err := exec.Command("tmux", args...).CombinedOutput()
	if err != nil {
		return wrapStderr(err, string(out))
	}
	return nil
}

func (c *Client) output(args ...string) (string, error) {
	if !c.Available() {
		return "", ErrTmuxNotAvailable
	}
	cmd := exec.Command("tmux", args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", wrapStderr(err, string(exitErr.Stderr))
		}
		return "", err
	}
	return string(out), nil
}

func wrapStderr(err error, stderr string) error {
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		return err
	}
	return fmt.Errorf("%w (%s)", err, msg)
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
