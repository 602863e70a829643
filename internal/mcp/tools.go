package mcp

import (
	"context"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/muxdrive/muxdrive/internal/command"
	"github.com/muxdrive/muxdrive/internal/gitworktree"
	"github.com/muxdrive/muxdrive/internal/logging"
)

func (s *Server) handleExecuteCommand(_ context.Context, _ *mcpsdk.CallToolRequest, args ExecuteCommandInput) (*mcpsdk.CallToolResult, ExecuteCommandOutput, error) {
	s.sweep()

	if args.PaneID == "" {
		return nil, ExecuteCommandOutput{}, fmt.Errorf("pane_id is required")
	}
	if args.Command == "" {
		return nil, ExecuteCommandOutput{}, fmt.Errorf("command is required")
	}

	id, err := s.engine.Execute(args.PaneID, args.Command, args.RawMode, args.NoEnter)
	if err != nil {
		if s.logger != nil {
			s.logger.Log(logging.ActionExecute, map[string]interface{}{
				"pane":  args.PaneID,
				"error": err.Error(),
			})
		}
		return nil, ExecuteCommandOutput{}, err
	}

	s.addCommandResource(id, args.Command)

	if s.logger != nil {
		previewLen := s.config.Logging.PreviewLength
		s.logger.Log(logging.ActionExecute, map[string]interface{}{
			"pane":            args.PaneID,
			"command_id":      id,
			"raw_mode":        args.RawMode || args.NoEnter,
			"command_preview": logging.Truncate(args.Command, previewLen),
		})
	}

	guidance := fmt.Sprintf("command dispatched; poll get_command_result with command_id %q or read %s", id, commandResultURI(id))
	if args.RawMode || args.NoEnter {
		guidance = fmt.Sprintf("raw input sent; tracking is disabled for command_id %q, use capture_pane on %s to inspect the outcome", id, args.PaneID)
	}
	return nil, ExecuteCommandOutput{CommandID: id, Guidance: guidance}, nil
}

func (s *Server) handleGetCommandResult(_ context.Context, _ *mcpsdk.CallToolRequest, args CommandResultInput) (*mcpsdk.CallToolResult, CommandResultOutput, error) {
	s.sweep()

	out, err := s.commandResult(args.CommandID)
	if err != nil {
		return nil, CommandResultOutput{}, err
	}
	if s.logger != nil {
		s.logger.Log(logging.ActionCheck, map[string]interface{}{
			"command_id": args.CommandID,
			"status":     out.Status,
		})
	}
	return nil, out, nil
}

// commandResult runs a live status check and renders the outcome.
// Not-found and unresolvable completion are normal results, not tool
// errors; pane failures propagate.
func (s *Server) commandResult(id string) (CommandResultOutput, error) {
	cmd, err := s.engine.CheckStatus(id)
	switch {
	case errors.Is(err, command.ErrNotFound):
		return CommandResultOutput{
			CommandID: id,
			Status:    "not_found",
			Note:      "no record of this command id; it was never issued or has been swept by age",
		}, nil
	case errors.Is(err, command.ErrUnresolvableCompletion):
		return CommandResultOutput{
			CommandID: id,
			Status:    "unresolvable",
			Command:   cmd.Command,
			Note:      "the capture window no longer contains this command's markers; it may have finished and scrolled away, or still be running",
		}, nil
	case err != nil:
		return CommandResultOutput{}, err
	}

	out := CommandResultOutput{
		CommandID: cmd.ID,
		Status:    string(cmd.Status),
		ExitCode:  cmd.ExitCode,
		Command:   cmd.Command,
		Output:    cmd.Result,
	}
	if cmd.Raw {
		out.Note = "raw mode: completion tracking disabled"
	}
	return out, nil
}

func (s *Server) handleCapturePane(_ context.Context, _ *mcpsdk.CallToolRequest, args CapturePaneInput) (*mcpsdk.CallToolResult, CapturePaneOutput, error) {
	lines := args.Lines
	if lines <= 0 {
		lines = s.config.Command.CaptureLines
	}
	content, err := s.tmux.CapturePane(args.PaneID, lines, false)
	if err != nil {
		return nil, CapturePaneOutput{}, err
	}
	if s.logger != nil {
		s.logger.Log(logging.ActionCapture, map[string]interface{}{
			"pane":  args.PaneID,
			"lines": lines,
		})
	}
	return nil, CapturePaneOutput{PaneID: args.PaneID, Content: content}, nil
}

func (s *Server) handleSendKeys(_ context.Context, _ *mcpsdk.CallToolRequest, args SendKeysInput) (*mcpsdk.CallToolResult, SendKeysOutput, error) {
	if err := s.tmux.SendRawKeys(args.PaneID, args.Keys); err != nil {
		return nil, SendKeysOutput{}, err
	}
	if s.logger != nil {
		s.logger.Log(logging.ActionSend, map[string]interface{}{
			"pane": args.PaneID,
			"keys": args.Keys,
		})
	}
	return nil, SendKeysOutput{Sent: true}, nil
}

func (s *Server) handleListSessions(_ context.Context, _ *mcpsdk.CallToolRequest, _ struct{}) (*mcpsdk.CallToolResult, ListSessionsOutput, error) {
	sessions, err := s.tmux.ListSessions()
	if err != nil {
		return nil, ListSessionsOutput{}, err
	}
	return nil, ListSessionsOutput{Sessions: sessions}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	windows, err := s.tmux.ListWindows(args.Session)
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	return nil, ListWindowsOutput{Windows: windows}, nil
}

func (s *Server) handleListPanes(_ context.Context, _ *mcpsdk.CallToolRequest, args ListPanesInput) (*mcpsdk.CallToolResult, ListPanesOutput, error) {
	panes, err := s.tmux.ListPanes(args.Session)
	if err != nil {
		return nil, ListPanesOutput{}, err
	}
	s.refreshPaneResources()
	return nil, ListPanesOutput{Panes: panes}, nil
}

func (s *Server) handleCreateSession(_ context.Context, _ *mcpsdk.CallToolRequest, args CreateSessionInput) (*mcpsdk.CallToolResult, CreateSessionOutput, error) {
	pane, err := s.tmux.CreateSession(args.Name)
	if err != nil {
		return nil, CreateSessionOutput{}, err
	}
	s.refreshPaneResources()
	if s.logger != nil {
		s.logger.Log(logging.ActionPane, map[string]interface{}{
			"op":      "create_session",
			"session": args.Name,
			"pane":    pane.ID,
		})
	}
	return nil, CreateSessionOutput{Pane: pane}, nil
}

func (s *Server) handleCreateWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args CreateWindowInput) (*mcpsdk.CallToolResult, CreateWindowOutput, error) {
	pane, err := s.tmux.CreateWindow(args.Session, args.Name)
	if err != nil {
		return nil, CreateWindowOutput{}, err
	}
	s.refreshPaneResources()
	if s.logger != nil {
		s.logger.Log(logging.ActionPane, map[string]interface{}{
			"op":      "create_window",
			"session": args.Session,
			"pane":    pane.ID,
		})
	}
	return nil, CreateWindowOutput{Pane: pane}, nil
}

func (s *Server) handleSplitPane(_ context.Context, _ *mcpsdk.CallToolRequest, args SplitPaneInput) (*mcpsdk.CallToolResult, SplitPaneOutput, error) {
	newID, err := s.tmux.SplitPane(args.PaneID, args.Vertical, args.SizePercent)
	if err != nil {
		return nil, SplitPaneOutput{}, err
	}
	s.refreshPaneResources()
	if s.logger != nil {
		s.logger.Log(logging.ActionPane, map[string]interface{}{
			"op":   "split_pane",
			"pane": args.PaneID,
			"new":  newID,
		})
	}
	return nil, SplitPaneOutput{NewPaneID: newID}, nil
}

func (s *Server) handleKillPane(_ context.Context, _ *mcpsdk.CallToolRequest, args KillPaneInput) (*mcpsdk.CallToolResult, KillPaneOutput, error) {
	if err := s.tmux.KillPane(args.PaneID); err != nil {
		return nil, KillPaneOutput{}, err
	}
	s.refreshPaneResources()
	if s.logger != nil {
		s.logger.Log(logging.ActionPane, map[string]interface{}{
			"op":   "kill_pane",
			"pane": args.PaneID,
		})
	}
	return nil, KillPaneOutput{Killed: true}, nil
}

func (s *Server) handleListWorktrees(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWorktreesInput) (*mcpsdk.CallToolResult, ListWorktreesOutput, error) {
	worktrees, err := gitworktree.List(args.RepoPath)
	if err != nil {
		return nil, ListWorktreesOutput{}, err
	}
	return nil, ListWorktreesOutput{Worktrees: worktrees}, nil
}

func (s *Server) handleAddWorktree(_ context.Context, _ *mcpsdk.CallToolRequest, args AddWorktreeInput) (*mcpsdk.CallToolResult, AddWorktreeOutput, error) {
	if err := gitworktree.Add(args.RepoPath, args.Path, args.Branch); err != nil {
		return nil, AddWorktreeOutput{}, err
	}
	if s.logger != nil {
		s.logger.Log(logging.ActionWorktree, map[string]interface{}{
			"op":   "add",
			"repo": args.RepoPath,
			"path": args.Path,
		})
	}
	return nil, AddWorktreeOutput{Created: true, Path: args.Path}, nil
}

func (s *Server) handleRemoveWorktree(_ context.Context, _ *mcpsdk.CallToolRequest, args RemoveWorktreeInput) (*mcpsdk.CallToolResult, RemoveWorktreeOutput, error) {
	if err := gitworktree.Remove(args.RepoPath, args.Path, args.Force); err != nil {
		return nil, RemoveWorktreeOutput{}, err
	}
	if s.logger != nil {
		s.logger.Log(logging.ActionWorktree, map[string]interface{}{
			"op":   "remove",
			"repo": args.RepoPath,
			"path": args.Path,
		})
	}
	return nil, RemoveWorktreeOutput{Removed: true}, nil
}
