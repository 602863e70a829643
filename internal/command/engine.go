package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/muxdrive/muxdrive/internal/marker"
	"github.com/muxdrive/muxdrive/internal/shell"
)

// ErrNotFound is returned by CheckStatus for an id the registry has no
// record of: never issued, or already swept. A normal negative result,
// not an exceptional condition.
var ErrNotFound = errors.New("command not found")

// ErrUnresolvableCompletion is returned when the capture window no
// longer contains the start marker and the end marker was never seen:
// the pane scrolled past the evidence. Reported distinctly from
// pending so callers can tell "still running" from "lost track of it".
// The registry entry is left as-is; no state is invented.
var ErrUnresolvableCompletion = errors.New("completion undetectable: markers scrolled out of the capture window")

// PaneIO is the slice of the tmux client the engine needs. The engine
// never touches the multiplexer directly.
type PaneIO interface {
	CapturePane(paneID string, lines int, includeColor bool) (string, error)
	SendText(paneID, text string) error
	SendRawKeys(paneID, keys string) error
}

// Options tune the engine. Zero values fall back to defaults.
type Options struct {
	// CaptureLines bounds the trailing window captured per status
	// check. Markers for an in-progress or just-finished command are
	// always near the tail, so the full scrollback is never needed.
	CaptureLines int
	// ResolveGrace is how long a pending command may show neither
	// marker before a status check reports ErrUnresolvableCompletion.
	ResolveGrace time.Duration
}

const (
	defaultCaptureLines = 200
	defaultResolveGrace = 30 * time.Second
)

// Engine dispatches commands into panes and resolves their status by
// polling captured pane text. One engine serves the whole process.
type Engine struct {
	panes        PaneIO
	registry     *Registry
	sh           shell.Shell
	captureLines int
	resolveGrace time.Duration
}

// NewEngine wires an engine to its pane transport and registry.
func NewEngine(panes PaneIO, registry *Registry, sh shell.Shell, opts Options) *Engine {
	captureLines := opts.CaptureLines
	if captureLines <= 0 {
		captureLines = defaultCaptureLines
	}
	resolveGrace := opts.ResolveGrace
	if resolveGrace <= 0 {
		resolveGrace = defaultResolveGrace
	}
	return &Engine{
		panes:        panes,
		registry:     registry,
		sh:           sh,
		captureLines: captureLines,
		resolveGrace: resolveGrace,
	}
}

// Execute dispatches a command to a pane and returns immediately with
// an identifier; it never waits for completion. The real command runs
// in an environment outside this process's control for an unbounded
// duration.
//
// noEnter implies raw mode: keystrokes without a trailing submit have
// no completion signal to wait for. Raw-mode commands are stored
// pending with an advisory result and never transition automatically.
func (e *Engine) Execute(paneID, commandText string, rawMode, noEnter bool) (string, error) {
	if noEnter {
		rawMode = true
	}

	id := newID()
	cmd := &Command{
		ID:        id,
		PaneID:    paneID,
		Command:   commandText,
		StartTime: time.Now(),
		Status:    StatusPending,
		Raw:       rawMode,
	}

	if rawMode {
		cmd.Result = RawModeResult
		var err error
		if noEnter {
			err = e.panes.SendRawKeys(paneID, commandText)
		} else {
			err = e.panes.SendText(paneID, commandText)
		}
		if err != nil {
			return "", fmt.Errorf("send to pane %s: %w", paneID, err)
		}
		e.registry.add(cmd)
		return id, nil
	}

	wrapped := marker.BuildWrapped(id, commandText, e.sh)
	if err := e.panes.SendText(paneID, wrapped); err != nil {
		return "", fmt.Errorf("send to pane %s: %w", paneID, err)
	}
	// The stored command is the caller's literal text; markers are an
	// internal affair and never shown.
	e.registry.add(cmd)
	return id, nil
}

// CheckStatus returns the current state of a command, re-checking the
// pane for completion when it is still pending. Repeated polling after
// completion is idempotent and never touches the pane again.
func (e *Engine) CheckStatus(id string) (Command, error) {
	cmd, ok := e.registry.Get(id)
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if cmd.Terminal() || cmd.Raw {
		return cmd, nil
	}

	captured, err := e.panes.CapturePane(cmd.PaneID, e.captureLines, false)
	if err != nil {
		return cmd, fmt.Errorf("capture pane %s: %w", cmd.PaneID, err)
	}

	res := marker.Parse(captured, id)
	if !res.Found {
		if !res.StartSeen && time.Since(cmd.StartTime) > e.resolveGrace {
			return cmd, ErrUnresolvableCompletion
		}
		// Start marker present, end marker absent: still running.
		return cmd, nil
	}

	status := StatusCompleted
	if res.ExitCode != 0 {
		status = StatusError
	}
	exitCode := res.ExitCode
	updated, ok := e.registry.transition(id, func(c *Command) {
		c.Status = status
		c.ExitCode = &exitCode
		c.Result = res.Output
	})
	if !ok {
		// Swept between Get and transition.
		return Command{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return updated, nil
}

// Registry exposes the backing store for enumeration and sweeping.
func (e *Engine) Registry() *Registry {
	return e.registry
}
