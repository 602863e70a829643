//go:build !windows

package tmux

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupStubTmux(t *testing.T) (logPath string) {
	t.Helper()

	dir := t.TempDir()
	tmuxPath := filepath.Join(dir, "tmux")
	logPath = filepath.Join(dir, "tmux.log")

	script := `#!/bin/sh
set -eu

if [ -n "${TMUX_STUB_LOG:-}" ]; then
  printf '%s\n' "$*" >> "${TMUX_STUB_LOG}"
fi

cmd="${1:-}"
case "$cmd" in
  list-sessions)
    if [ -n "${TMUX_STUB_LIST_SESSIONS_EXIT:-}" ]; then
      exit "${TMUX_STUB_LIST_SESSIONS_EXIT}"
    fi
    if [ -n "${TMUX_STUB_LIST_SESSIONS_OUTPUT:-}" ]; then
      printf '%s\n' "${TMUX_STUB_LIST_SESSIONS_OUTPUT}"
    fi
    exit 0
    ;;
  list-windows)
    if [ -n "${TMUX_STUB_LIST_WINDOWS_OUTPUT:-}" ]; then
      printf '%s\n' "${TMUX_STUB_LIST_WINDOWS_OUTPUT}"
    fi
    exit 0
    ;;
  list-panes)
    if [ -n "${TMUX_STUB_LIST_PANES_OUTPUT:-}" ]; then
      printf '%s\n' "${TMUX_STUB_LIST_PANES_OUTPUT}"
    fi
    exit 0
    ;;
  capture-pane)
    if [ -n "${TMUX_STUB_CAPTURE_EXIT:-}" ]; then
      if [ -n "${TMUX_STUB_CAPTURE_STDERR:-}" ]; then
        printf '%s\n' "${TMUX_STUB_CAPTURE_STDERR}" 1>&2
      fi
      exit "${TMUX_STUB_CAPTURE_EXIT}"
    fi
    if [ -n "${TMUX_STUB_CAPTURE_OUTPUT:-}" ]; then
      printf '%s' "${TMUX_STUB_CAPTURE_OUTPUT}"
    fi
    exit 0
    ;;
  send-keys)
    if [ -n "${TMUX_STUB_SEND_KEYS_EXIT:-}" ]; then
      if [ -n "${TMUX_STUB_SEND_KEYS_STDERR:-}" ]; then
        printf '%s\n' "${TMUX_STUB_SEND_KEYS_STDERR}" 1>&2
      fi
      exit "${TMUX_STUB_SEND_KEYS_EXIT}"
    fi
    exit 0
    ;;
  display-message)
    if [ -n "${TMUX_STUB_DISPLAY_EXIT:-}" ]; then
      exit "${TMUX_STUB_DISPLAY_EXIT}"
    fi
    exit 0
    ;;
  split-window)
    if [ -n "${TMUX_STUB_SPLIT_OUTPUT:-}" ]; then
      printf '%s\n' "${TMUX_STUB_SPLIT_OUTPUT}"
    fi
    exit 0
    ;;
  *)
    exit 0
    ;;
esac
`
	if err := os.WriteFile(tmuxPath, []byte(script), 0o755); err != nil {
		t.Fatalf("write tmux stub: %v", err)
	}

	t.Setenv("PATH", dir)
	t.Setenv("TMUX_STUB_LOG", logPath)
	t.Setenv("TMUX_STUB_LIST_SESSIONS_EXIT", "")
	t.Setenv("TMUX_STUB_LIST_SESSIONS_OUTPUT", "")
	t.Setenv("TMUX_STUB_LIST_WINDOWS_OUTPUT", "")
	t.Setenv("TMUX_STUB_LIST_PANES_OUTPUT", "")
	t.Setenv("TMUX_STUB_CAPTURE_EXIT", "")
	t.Setenv("TMUX_STUB_CAPTURE_STDERR", "")
	t.Setenv("TMUX_STUB_CAPTURE_OUTPUT", "")
	t.Setenv("TMUX_STUB_SEND_KEYS_EXIT", "")
	t.Setenv("TMUX_STUB_SEND_KEYS_STDERR", "")
	t.Setenv("TMUX_STUB_SPLIT_OUTPUT", "")
	t.Setenv("TMUX_STUB_DISPLAY_EXIT", "")

	return logPath
}

func setupNoTmux(t *testing.T) {
	t.Helper()
	t.Setenv("PATH", t.TempDir())
}

func readLogLines(t *testing.T, logPath string) []string {
	t.Helper()
	data, err := os.ReadFile(logPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		t.Fatalf("read log: %v", err)
	}
	out := strings.TrimSpace(string(data))
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func TestAvailable(t *testing.T) {
	c := NewClient()

	setupNoTmux(t)
	if c.Available() {
		t.Error("Available() = true with empty PATH")
	}

	setupStubTmux(t)
	if !c.Available() {
		t.Error("Available() = false with stub on PATH")
	}
}

func TestListSessions(t *testing.T) {
	logPath := setupStubTmux(t)
	t.Setenv("TMUX_STUB_LIST_SESSIONS_OUTPUT", "main\t2\t1\ndev\t1\t0")

	c := NewClient()
	sessions, err := c.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].Name != "main" || sessions[0].Windows != 2 || !sessions[0].Attached {
		t.Errorf("sessions[0] = %+v", sessions[0])
	}
	if sessions[1].Name != "dev" || sessions[1].Windows != 1 || sessions[1].Attached {
		t.Errorf("sessions[1] = %+v", sessions[1])
	}

	lines := readLogLines(t, logPath)
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "list-sessions") {
		t.Errorf("stub log = %v", lines)
	}
}

func TestListSessionsNoServer(t *testing.T) {
	setupStubTmux(t)
	t.Setenv("TMUX_STUB_LIST_SESSIONS_EXIT", "1")

	c := NewClient()
	sessions, err := c.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions with no server: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("got %d sessions, want none", len(sessions))
	}
}

func TestListSessionsNoTmux(t *testing.T) {
	setupNoTmux(t)
	c := NewClient()
	if _, err := c.ListSessions(); !errors.Is(err, ErrTmuxNotAvailable) {
		t.Errorf("error = %v, want ErrTmuxNotAvailable", err)
	}
}

func TestListWindows(t *testing.T) {
	setupStubTmux(t)
	t.Setenv("TMUX_STUB_LIST_WINDOWS_OUTPUT", "0\tvim\t1\n1\tshell\t0")

	c := NewClient()
	windows, err := c.ListWindows("main")
	if err != nil {
		t.Fatalf("ListWindows: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(windows))
	}
	if windows[0].Session != "main" || windows[0].Index != 0 || windows[0].Name != "vim" || !windows[0].Active {
		t.Errorf("windows[0] = %+v", windows[0])
	}
	if windows[1].Index != 1 || windows[1].Active {
		t.Errorf("windows[1] = %+v", windows[1])
	}
}

func TestListPanes(t *testing.T) {
	logPath := setupStubTmux(t)
	t.Setenv("TMUX_STUB_LIST_PANES_OUTPUT",
		"%0\tmain\t0\t0\teditor\tvim\t1\n%3\tdev\t1\t0\t\tbash\t0")

	c := NewClient()
	panes, err := c.ListPanes("")
	if err != nil {
		t.Fatalf("ListPanes: %v", err)
	}
	if len(panes) != 2 {
		t.Fatalf("got %d panes, want 2", len(panes))
	}
	p := panes[0]
	if p.ID != "%0" || p.Session != "main" || p.Window != 0 || p.Title != "editor" || p.Command != "vim" || !p.Active {
		t.Errorf("panes[0] = %+v", p)
	}
	if panes[1].ID != "%3" || panes[1].Session != "dev" || panes[1].Window != 1 {
		t.Errorf("panes[1] = %+v", panes[1])
	}

	lines := readLogLines(t, logPath)
	if len(lines) != 1 || !strings.Contains(lines[0], "-a") {
		t.Errorf("all-sessions listing missing -a: %v", lines)
	}
}

func TestListPanesSessionScoped(t *testing.T) {
	logPath := setupStubTmux(t)

	c := NewClient()
	if _, err := c.ListPanes("dev"); err != nil {
		t.Fatalf("ListPanes(dev): %v", err)
	}

	lines := readLogLines(t, logPath)
	if len(lines) != 1 || !strings.Contains(lines[0], "-s -t dev") {
		t.Errorf("session-scoped listing args: %v", lines)
	}
}

func TestCapturePane(t *testing.T) {
	logPath := setupStubTmux(t)
	t.Setenv("TMUX_STUB_CAPTURE_OUTPUT", "\x1b[31mred\x1b[0m text\nplain line\n")

	c := NewClient()
	out, err := c.CapturePane("%1", 100, false)
	if err != nil {
		t.Fatalf("CapturePane: %v", err)
	}
	if out != "red text\nplain line\n" {
		t.Errorf("captured %q, want color-stripped text", out)
	}

	lines := readLogLines(t, logPath)
	if len(lines) != 1 {
		t.Fatalf("stub log = %v", lines)
	}
	for _, want := range []string{"-p", "-J", "-t %1", "-S -100"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("capture-pane args %q missing %q", lines[0], want)
		}
	}
	if strings.Contains(lines[0], "-e") {
		t.Errorf("capture-pane args %q include -e without includeColor", lines[0])
	}
}

func TestCapturePaneIncludeColor(t *testing.T) {
	logPath := setupStubTmux(t)
	t.Setenv("TMUX_STUB_CAPTURE_OUTPUT", "\x1b[31mred\x1b[0m")

	c := NewClient()
	out, err := c.CapturePane("%1", 0, true)
	if err != nil {
		t.Fatalf("CapturePane: %v", err)
	}
	if out != "\x1b[31mred\x1b[0m" {
		t.Errorf("captured %q, want escapes preserved", out)
	}

	lines := readLogLines(t, logPath)
	if len(lines) != 1 || !strings.Contains(lines[0], "-e") {
		t.Errorf("capture-pane args missing -e: %v", lines)
	}
	if strings.Contains(lines[0], "-S") {
		t.Errorf("capture-pane args include -S with lines=0: %v", lines)
	}
}

func TestCapturePaneUnavailable(t *testing.T) {
	setupStubTmux(t)
	t.Setenv("TMUX_STUB_CAPTURE_EXIT", "1")
	t.Setenv("TMUX_STUB_CAPTURE_STDERR", "can't find pane: %9")

	c := NewClient()
	_, err := c.CapturePane("%9", 100, false)
	var paneErr *PaneUnavailableError
	if !errors.As(err, &paneErr) {
		t.Fatalf("error = %v, want PaneUnavailableError", err)
	}
	if paneErr.Target != "%9" {
		t.Errorf("Target = %q, want %%9", paneErr.Target)
	}
	if !strings.Contains(paneErr.Error(), "can't find pane") {
		t.Errorf("error message %q lost tmux stderr", paneErr.Error())
	}
}

func TestSendText(t *testing.T) {
	logPath := setupStubTmux(t)

	c := NewClient()
	if err := c.SendText("%1", "echo hello"); err != nil {
		t.Fatalf("SendText: %v", err)
	}

	lines := readLogLines(t, logPath)
	if len(lines) != 2 {
		t.Fatalf("stub log = %v, want literal text then Enter", lines)
	}
	if !strings.Contains(lines[0], "-l") || !strings.Contains(lines[0], "echo hello") {
		t.Errorf("first send-keys %q should be literal text", lines[0])
	}
	if !strings.HasSuffix(lines[1], "Enter") {
		t.Errorf("second send-keys %q should submit with Enter", lines[1])
	}
}

func TestSendTextFailure(t *testing.T) {
	setupStubTmux(t)
	t.Setenv("TMUX_STUB_SEND_KEYS_EXIT", "1")
	t.Setenv("TMUX_STUB_SEND_KEYS_STDERR", "can't find pane: %9")

	c := NewClient()
	err := c.SendText("%9", "ls")
	var paneErr *PaneUnavailableError
	if !errors.As(err, &paneErr) {
		t.Fatalf("error = %v, want PaneUnavailableError", err)
	}
}

func TestSendRawKeys(t *testing.T) {
	logPath := setupStubTmux(t)

	c := NewClient()
	if err := c.SendRawKeys("%1", "C-c"); err != nil {
		t.Fatalf("SendRawKeys: %v", err)
	}

	lines := readLogLines(t, logPath)
	if len(lines) != 1 {
		t.Fatalf("stub log = %v, want a single send-keys", lines)
	}
	if strings.Contains(lines[0], "-l") {
		t.Errorf("raw keys %q sent literally; key names must stay interpretable", lines[0])
	}
	if !strings.HasSuffix(lines[0], "C-c") {
		t.Errorf("raw keys line = %q", lines[0])
	}
}

func TestSplitPane(t *testing.T) {
	logPath := setupStubTmux(t)
	t.Setenv("TMUX_STUB_SPLIT_OUTPUT", "%5")

	c := NewClient()
	newID, err := c.SplitPane("%1", true, 30)
	if err != nil {
		t.Fatalf("SplitPane: %v", err)
	}
	if newID != "%5" {
		t.Errorf("new pane id = %q, want %%5", newID)
	}

	lines := readLogLines(t, logPath)
	if len(lines) != 1 {
		t.Fatalf("stub log = %v", lines)
	}
	for _, want := range []string{"-v", "-d", "-t %1", "-p 30", "#{pane_id}"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("split-window args %q missing %q", lines[0], want)
		}
	}
}

func TestSplitPaneHorizontalDefault(t *testing.T) {
	logPath := setupStubTmux(t)
	t.Setenv("TMUX_STUB_SPLIT_OUTPUT", "%6")

	c := NewClient()
	if _, err := c.SplitPane("%1", false, 0); err != nil {
		t.Fatalf("SplitPane: %v", err)
	}

	lines := readLogLines(t, logPath)
	if len(lines) != 1 || !strings.Contains(lines[0], "-h") {
		t.Errorf("horizontal split args: %v", lines)
	}
	if strings.Contains(lines[0], "-p ") {
		t.Errorf("split args include -p with sizePercent=0: %v", lines)
	}
}

func TestPaneExists(t *testing.T) {
	setupStubTmux(t)

	c := NewClient()
	if !c.PaneExists("%1") {
		t.Error("PaneExists(%1) = false with a healthy stub")
	}

	t.Setenv("TMUX_STUB_DISPLAY_EXIT", "1")
	if c.PaneExists("%9") {
		t.Error("PaneExists(%9) = true for a dead pane")
	}
}

func TestKillPane(t *testing.T) {
	logPath := setupStubTmux(t)

	c := NewClient()
	if err := c.KillPane("%2"); err != nil {
		t.Fatalf("KillPane: %v", err)
	}

	lines := readLogLines(t, logPath)
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "kill-pane") || !strings.Contains(lines[0], "-t %2") {
		t.Errorf("kill-pane args: %v", lines)
	}
}
