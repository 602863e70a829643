package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/muxdrive/muxdrive/internal/logging"
)

const (
	sessionsURI       = "tmux://sessions"
	commandURIPrefix  = "tmux://command/"
	commandURISuffix  = "/result"
	paneURIPrefix     = "tmux://pane/"
	commandSchemaURI  = commandURIPrefix + "{commandId}" + commandURISuffix
	paneSchemaURI     = paneURIPrefix + "{paneId}"
	jsonMIMEType      = "application/json"
	plainTextMIMEType = "text/plain"
)

func commandResultURI(id string) string {
	return commandURIPrefix + id + commandURISuffix
}

func paneURI(id string) string {
	return paneURIPrefix + id
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcpsdk.Resource{
		URI:         sessionsURI,
		Name:        "tmux-sessions",
		Description: "All tmux sessions with their window counts and attachment state.",
		MIMEType:    jsonMIMEType,
	}, s.readSessionsResource)

	s.mcpServer.AddResourceTemplate(&mcpsdk.ResourceTemplate{
		URITemplate: commandSchemaURI,
		Name:        "command-result",
		Description: "Live status and output of a command started with execute_command.",
		MIMEType:    jsonMIMEType,
	}, s.readCommandResource)

	s.mcpServer.AddResourceTemplate(&mcpsdk.ResourceTemplate{
		URITemplate: paneSchemaURI,
		Name:        "pane-content",
		Description: "Trailing visible text of a tmux pane, color-stripped.",
		MIMEType:    plainTextMIMEType,
	}, s.readPaneResource)
}

// addCommandResource registers a concrete resource for a freshly issued
// command so clients discover it through resources/list. The matching
// sweep unregisters it when the registry entry ages out.
func (s *Server) addCommandResource(id, commandText string) {
	uri := commandResultURI(id)

	s.mu.Lock()
	s.commandURIs[id] = uri
	s.mu.Unlock()

	preview := logging.Truncate(commandText, s.config.Logging.PreviewLength)
	s.mcpServer.AddResource(&mcpsdk.Resource{
		URI:         uri,
		Name:        "command-" + id,
		Description: fmt.Sprintf("Status and output of %q.", preview),
		MIMEType:    jsonMIMEType,
	}, s.readCommandResource)
}

// refreshPaneResources reconciles the registered pane resources with
// the panes tmux currently reports. Called after operations that change
// the pane topology.
func (s *Server) refreshPaneResources() {
	panes, err := s.tmux.ListPanes("")
	if err != nil {
		return
	}

	live := make(map[string]bool, len(panes))
	for _, p := range panes {
		live[paneURI(p.ID)] = true
	}

	s.mu.Lock()
	var stale []string
	for uri := range s.paneURIs {
		if !live[uri] {
			stale = append(stale, uri)
			delete(s.paneURIs, uri)
		}
	}
	var added []tmuxPaneRef
	for _, p := range panes {
		uri := paneURI(p.ID)
		if !s.paneURIs[uri] {
			s.paneURIs[uri] = true
			added = append(added, tmuxPaneRef{id: p.ID, uri: uri, title: p.Title})
		}
	}
	s.mu.Unlock()

	if len(stale) > 0 {
		s.mcpServer.RemoveResources(stale...)
	}
	for _, p := range added {
		desc := "Visible content of pane " + p.id
		if p.title != "" {
			desc += " (" + p.title + ")"
		}
		s.mcpServer.AddResource(&mcpsdk.Resource{
			URI:         p.uri,
			Name:        "pane-" + strings.TrimPrefix(p.id, "%"),
			Description: desc + ".",
			MIMEType:    plainTextMIMEType,
		}, s.readPaneResource)
	}
}

type tmuxPaneRef struct {
	id    string
	uri   string
	title string
}

func (s *Server) readSessionsResource(_ context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
	sessions, err := s.tmux.ListSessions()
	if err != nil {
		return nil, err
	}
	return jsonResourceResult(req.Params.URI, ListSessionsOutput{Sessions: sessions})
}

// readCommandResource serves tmux://command/{commandId}/result. Reads
// run the same live status check as the get_command_result tool.
func (s *Server) readCommandResource(_ context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
	id, err := commandIDFromURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	s.sweep()

	out, err := s.commandResult(id)
	if err != nil {
		return nil, err
	}
	return jsonResourceResult(req.Params.URI, out)
}

// readPaneResource serves tmux://pane/{paneId}.
func (s *Server) readPaneResource(_ context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
	paneID, err := paneIDFromURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	content, err := s.tmux.CapturePane(paneID, s.config.Command.CaptureLines, false)
	if err != nil {
		return nil, err
	}
	return &mcpsdk.ReadResourceResult{
		Contents: []*mcpsdk.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: plainTextMIMEType,
			Text:     content,
		}},
	}, nil
}

func commandIDFromURI(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, commandURIPrefix)
	if !ok {
		return "", fmt.Errorf("unexpected command resource uri %q", uri)
	}
	id, ok := strings.CutSuffix(rest, commandURISuffix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("unexpected command resource uri %q", uri)
	}
	return unescapeURIPart(id), nil
}

func paneIDFromURI(uri string) (string, error) {
	id, ok := strings.CutPrefix(uri, paneURIPrefix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("unexpected pane resource uri %q", uri)
	}
	return unescapeURIPart(id), nil
}

// unescapeURIPart tolerates clients that percent-encode pane ids like
// %3 when expanding the URI template.
func unescapeURIPart(s string) string {
	if decoded, err := url.PathUnescape(s); err == nil && decoded != "" {
		return decoded
	}
	return s
}

func jsonResourceResult(uri string, v interface{}) (*mcpsdk.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode resource %s: %w", uri, err)
	}
	return &mcpsdk.ReadResourceResult{
		Contents: []*mcpsdk.ResourceContents{{
			URI:      uri,
			MIMEType: jsonMIMEType,
			Text:     string(data),
		}},
	}, nil
}
