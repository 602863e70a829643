package mcp

import (
	"github.com/muxdrive/muxdrive/internal/gitworktree"
	"github.com/muxdrive/muxdrive/internal/tmux"
)

// ExecuteCommandInput is the input for the execute_command tool.
type ExecuteCommandInput struct {
	PaneID  string `json:"pane_id" jsonschema:"required,Target tmux pane id (e.g. %3)"`
	Command string `json:"command" jsonschema:"required,Shell command text to execute in the pane"`
	RawMode bool   `json:"raw_mode,omitempty" jsonschema:"Send the text without completion tracking; the command stays pending and the pane must be inspected with capture_pane"`
	NoEnter bool   `json:"no_enter,omitempty" jsonschema:"Send raw keystrokes without a trailing Enter. Implies raw_mode."`
}

// ExecuteCommandOutput is the output for the execute_command tool.
type ExecuteCommandOutput struct {
	CommandID string `json:"command_id"`
	Guidance  string `json:"guidance"`
}

// CommandResultInput is the input for the get_command_result tool.
type CommandResultInput struct {
	CommandID string `json:"command_id" jsonschema:"required,Identifier returned by execute_command"`
}

// CommandResultOutput is the output for the get_command_result tool.
// ExitCode is absent while the command is pending.
type CommandResultOutput struct {
	CommandID string `json:"command_id"`
	Status    string `json:"status"`
	ExitCode  *int   `json:"exit_code,omitempty"`
	Command   string `json:"command"`
	Output    string `json:"output,omitempty"`
	Note      string `json:"note,omitempty"`
}

// CapturePaneInput is the input for the capture_pane tool.
type CapturePaneInput struct {
	PaneID string `json:"pane_id" jsonschema:"required,Pane id to capture"`
	Lines  int    `json:"lines,omitempty" jsonschema:"Number of trailing lines to capture (default: 200)"`
}

// CapturePaneOutput is the output for the capture_pane tool.
type CapturePaneOutput struct {
	PaneID  string `json:"pane_id"`
	Content string `json:"content"`
}

// SendKeysInput is the input for the send_keys tool.
type SendKeysInput struct {
	PaneID string `json:"pane_id" jsonschema:"required,Pane id to send keys to"`
	Keys   string `json:"keys" jsonschema:"required,tmux key names (e.g. C-c, Escape, Up) sent without a trailing Enter"`
}

// SendKeysOutput is the output for the send_keys tool.
type SendKeysOutput struct {
	Sent bool `json:"sent"`
}

// ListSessionsOutput is the output for the list_sessions tool.
type ListSessionsOutput struct {
	Sessions []tmux.Session `json:"sessions"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	Session string `json:"session" jsonschema:"required,Session name"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []tmux.Window `json:"windows"`
}

// ListPanesInput is the input for the list_panes tool.
type ListPanesInput struct {
	Session string `json:"session,omitempty" jsonschema:"Optional session name; all sessions when omitted"`
}

// ListPanesOutput is the output for the list_panes tool.
type ListPanesOutput struct {
	Panes []tmux.Pane `json:"panes"`
}

// CreateSessionInput is the input for the create_session tool.
type CreateSessionInput struct {
	Name string `json:"name" jsonschema:"required,Name of the session to create (detached)"`
}

// CreateSessionOutput is the output for the create_session tool.
type CreateSessionOutput struct {
	Pane tmux.Pane `json:"pane"`
}

// CreateWindowInput is the input for the create_window tool.
type CreateWindowInput struct {
	Session string `json:"session" jsonschema:"required,Session to create the window in"`
	Name    string `json:"name,omitempty" jsonschema:"Optional window name"`
}

// CreateWindowOutput is the output for the create_window tool.
type CreateWindowOutput struct {
	Pane tmux.Pane `json:"pane"`
}

// SplitPaneInput is the input for the split_pane tool.
type SplitPaneInput struct {
	PaneID      string `json:"pane_id" jsonschema:"required,Pane to split"`
	Vertical    bool   `json:"vertical,omitempty" jsonschema:"Stack the new pane below instead of beside"`
	SizePercent int    `json:"size_percent,omitempty" jsonschema:"Size of the new pane as a percentage"`
}

// SplitPaneOutput is the output for the split_pane tool.
type SplitPaneOutput struct {
	NewPaneID string `json:"new_pane_id"`
}

// KillPaneInput is the input for the kill_pane tool.
type KillPaneInput struct {
	PaneID string `json:"pane_id" jsonschema:"required,Pane to destroy"`
}

// KillPaneOutput is the output for the kill_pane tool.
type KillPaneOutput struct {
	Killed bool `json:"killed"`
}

// ListWorktreesInput is the input for the list_worktrees tool.
type ListWorktreesInput struct {
	RepoPath string `json:"repo_path" jsonschema:"required,Path to the git repository"`
}

// ListWorktreesOutput is the output for the list_worktrees tool.
type ListWorktreesOutput struct {
	Worktrees []gitworktree.Worktree `json:"worktrees"`
}

// AddWorktreeInput is the input for the add_worktree tool.
type AddWorktreeInput struct {
	RepoPath string `json:"repo_path" jsonschema:"required,Path to the git repository"`
	Path     string `json:"path" jsonschema:"required,Filesystem path for the new worktree"`
	Branch   string `json:"branch,omitempty" jsonschema:"Optional new branch name for the worktree"`
}

// AddWorktreeOutput is the output for the add_worktree tool.
type AddWorktreeOutput struct {
	Created bool   `json:"created"`
	Path    string `json:"path"`
}

// RemoveWorktreeInput is the input for the remove_worktree tool.
type RemoveWorktreeInput struct {
	RepoPath string `json:"repo_path" jsonschema:"required,Path to the git repository"`
	Path     string `json:"path" jsonschema:"required,Worktree path to remove"`
	Force    bool   `json:"force,omitempty" jsonschema:"Remove even if the worktree is dirty"`
}

// RemoveWorktreeOutput is the output for the remove_worktree tool.
type RemoveWorktreeOutput struct {
	Removed bool `json:"removed"`
}
