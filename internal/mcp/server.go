// Package mcp exposes tmux automation as an MCP server: tools for
// enumerating and driving panes, an asynchronous command execution
// engine, and a read model of command results and pane captures
// addressable by URI.
package mcp

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/muxdrive/muxdrive/internal/command"
	"github.com/muxdrive/muxdrive/internal/config"
	"github.com/muxdrive/muxdrive/internal/logging"
	"github.com/muxdrive/muxdrive/internal/tmux"
)

const (
	ServerName    = "muxdrive"
	ServerVersion = "0.1.0"
)

// Server is the MCP server backed by tmux.
type Server struct {
	mcpServer *mcpsdk.Server
	config    *config.Config
	tmux      *tmux.Client
	registry  *command.Registry
	engine    *command.Engine
	logger    *logging.Logger
	retention time.Duration

	mu sync.Mutex
	// commandURIs tracks the concrete per-command resources currently
	// registered, so a sweep can unregister exactly what it evicted.
	commandURIs map[string]string // command id -> resource URI
	paneURIs    map[string]bool   // pane resource URIs currently registered
}

// NewServer creates the MCP server. The shell configuration is
// validated here: an unsupported shell aborts startup rather than
// failing on the first command.
func NewServer(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := tmux.NewClient()
	if !client.Available() {
		return nil, fmt.Errorf("tmux is required but not found in PATH")
	}

	var logger *logging.Logger
	if cfg.Logging.Enabled {
		var err error
		logger, err = logging.New(logging.Config{
			Enabled:       cfg.Logging.Enabled,
			Level:         logging.ParseLevel(cfg.Logging.Level),
			FilePath:      cfg.Logging.File,
			MaxSizeMB:     cfg.Logging.MaxSizeMB,
			MaxFiles:      cfg.Logging.MaxFiles,
			PreviewLength: cfg.Logging.PreviewLength,
		})
		if err != nil {
			log.Printf("Warning: failed to initialize action logger: %v", err)
			logger = nil
		}
	}

	registry := command.NewRegistry()
	engine := command.NewEngine(client, registry, cfg.ShellType(), command.Options{
		CaptureLines: cfg.Command.CaptureLines,
		ResolveGrace: time.Duration(cfg.Command.ResolveGraceSeconds) * time.Second,
	})

	s := &Server{
		config:      cfg,
		tmux:        client,
		registry:    registry,
		engine:      engine,
		logger:      logger,
		retention:   time.Duration(cfg.Command.RetentionMinutes) * time.Minute,
		commandURIs: make(map[string]string),
		paneURIs:    make(map[string]bool),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close releases server resources.
func (s *Server) Close() error {
	if s == nil || s.logger == nil {
		return nil
	}
	return s.logger.Close()
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name: "execute_command",
		Description: "Execute a shell command inside a tmux pane. Returns immediately " +
			"with a command id; the command runs in the pane's own shell and its " +
			"completion is detected later. Poll get_command_result (or read the " +
			"tmux://command/{id}/result resource) until status leaves pending.",
	}, s.handleExecuteCommand)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name: "get_command_result",
		Description: "Check the status of a command started with execute_command. " +
			"Re-checks the pane for completion; returns status, exit code and output " +
			"once finished. Entries older than the retention window are swept and " +
			"report not-found.",
	}, s.handleGetCommandResult)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "capture_pane",
		Description: "Capture the trailing visible text of a tmux pane, color-stripped.",
	}, s.handleCapturePane)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "send_keys",
		Description: "Send raw tmux key names (e.g. C-c, Escape) to a pane without a trailing Enter.",
	}, s.handleSendKeys)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_sessions",
		Description: "List tmux sessions with their window counts and attachment state.",
	}, s.handleListSessions)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List the windows of a tmux session.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_panes",
		Description: "List tmux panes with their ids, either for one session or across all sessions.",
	}, s.handleListPanes)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_session",
		Description: "Create a new detached tmux session and return its first pane.",
	}, s.handleCreateSession)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_window",
		Description: "Create a new window in a tmux session and return its pane.",
	}, s.handleCreateWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "split_pane",
		Description: "Split a tmux pane horizontally or vertically and return the new pane id.",
	}, s.handleSplitPane)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "kill_pane",
		Description: "Destroy a tmux pane. Commands still tracked for it stop resolving.",
	}, s.handleKillPane)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_worktrees",
		Description: "List git worktrees of a repository.",
	}, s.handleListWorktrees)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "add_worktree",
		Description: "Create a git worktree, optionally on a new branch.",
	}, s.handleAddWorktree)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "remove_worktree",
		Description: "Remove a git worktree.",
	}, s.handleRemoveWorktree)
}

// sweep evicts aged registry entries and unregisters their resources.
// Called opportunistically before enumeration and lookups; there is no
// background timer.
func (s *Server) sweep() {
	removed := s.registry.Sweep(s.retention)
	if len(removed) == 0 {
		return
	}

	s.mu.Lock()
	uris := make([]string, 0, len(removed))
	for _, id := range removed {
		if uri, ok := s.commandURIs[id]; ok {
			uris = append(uris, uri)
			delete(s.commandURIs, id)
		}
	}
	s.mu.Unlock()

	if len(uris) > 0 {
		s.mcpServer.RemoveResources(uris...)
	}
	if s.logger != nil {
		s.logger.Log(logging.ActionSweep, map[string]interface{}{
			"removed": len(removed),
		})
	}
}
