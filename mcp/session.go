package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/hupe1980/jobtrack/logging"
)

// State is the session lifecycle state.
type State int

const (
	// StateDisconnected is the initial state before Connect and the state
	// after a failed connection attempt.
	StateDisconnected State = iota
	// StateConnecting covers spawn plus handshake.
	StateConnecting
	// StateReady means the handshake completed and calls are accepted.
	StateReady
	// StateClosed is terminal; a closed session cannot reconnect.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// SessionOptions configures a Session instance.
type SessionOptions struct {
	// ConnectTimeout bounds spawn plus handshake.
	ConnectTimeout time.Duration
	// ClientName / ClientVersion identify this client during the handshake.
	ClientName    string
	ClientVersion string
	// Logger receives session lifecycle and call events.
	Logger logging.Logger
}

// Session is a stateful handle to one spawned MCP server process. It owns
// the stdio transport, performs the one-time handshake, snapshots the tool
// catalog and exposes a correlated call/response primitive.
//
// A session is owned exclusively by its creator. At most one tool call is in
// flight at a time; concurrent callers are serialized by an internal mutex.
// Close is idempotent.
type Session struct {
	server string
	cfg    ServerConfig
	opts   SessionOptions
	logger logging.Logger

	mu      sync.Mutex // guards state and serializes calls
	state   State
	client  *client.Client
	catalog *Catalog
}

// NewSession creates a disconnected session for the given logical server.
func NewSession(server string, cfg ServerConfig, optFns ...func(o *SessionOptions)) *Session {
	opts := SessionOptions{
		ConnectTimeout: 30 * time.Second,
		ClientName:     "jobtrack",
		ClientVersion:  "1.0.0",
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Session{
		server: server,
		cfg:    cfg,
		opts:   opts,
		logger: opts.Logger,
		state:  StateDisconnected,
	}
}

// Server returns the logical server key this session wraps.
func (s *Session) Server() string { return s.server }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect spawns the server process and performs the protocol handshake.
// It fails with *ConnectionError if the process cannot start or the
// handshake does not complete within the configured timeout. Connecting an
// already ready session is a no-op; a closed session cannot reconnect.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateReady:
		return nil
	case StateClosed:
		return &NotConnectedError{Op: "connect", State: s.state}
	}

	s.state = StateConnecting

	cfg := s.cfg
	env := os.Environ()
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}

	commandFunc := func(ctx context.Context, command string, env []string, args []string) (*exec.Cmd, error) {
		cmd := exec.CommandContext(ctx, command, args...)
		cmd.Env = env
		if cfg.Cwd != "" {
			cmd.Dir = cfg.Cwd
		}
		return cmd, nil
	}

	c, err := client.NewStdioMCPClientWithOptions(
		cfg.Command,
		env,
		cfg.Args,
		transport.WithCommandFunc(commandFunc),
	)
	if err != nil {
		s.state = StateDisconnected
		return &ConnectionError{Server: s.server, Err: err}
	}

	handshakeCtx, cancel := context.WithTimeout(ctx, s.opts.ConnectTimeout)
	defer cancel()

	initReq := mcpgo.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpgo.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpgo.Implementation{
		Name:    s.opts.ClientName,
		Version: s.opts.ClientVersion,
	}

	if _, err := c.Initialize(handshakeCtx, initReq); err != nil {
		_ = c.Close()
		s.state = StateDisconnected
		return &ConnectionError{Server: s.server, Err: fmt.Errorf("handshake: %w", err)}
	}

	s.client = c
	s.state = StateReady

	s.logger.Info("mcp.session.connected", "server", s.server, "command", cfg.Command)

	return nil
}

// ListTools returns the session's tool catalog, fetching it on first use and
// reusing the snapshot afterwards. Requires a ready session.
func (s *Session) ListTools(ctx context.Context) (*Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return nil, &NotConnectedError{Op: "list_tools", State: s.state}
	}

	if s.catalog != nil {
		return s.catalog, nil
	}

	res, err := s.client.ListTools(ctx, mcpgo.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcp: listing tools on %s: %w", s.server, err)
	}

	tools := make([]ToolDescriptor, 0, len(res.Tools))
	for _, t := range res.Tools {
		schema := map[string]any{"type": t.InputSchema.Type}
		if t.InputSchema.Properties != nil {
			schema["properties"] = t.InputSchema.Properties
		}
		if len(t.InputSchema.Required) > 0 {
			schema["required"] = t.InputSchema.Required
		}
		tools = append(tools, ToolDescriptor{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		})
	}

	s.catalog = NewCatalog(tools)

	s.logger.Debug("mcp.session.tools", "server", s.server, "count", s.catalog.Len())

	return s.catalog, nil
}

// CallTool sends one correlated request and awaits the matching response.
// A zero timeout means no per-call deadline beyond ctx. Failures reported by
// the tool surface as *ToolError; a missed deadline surfaces as
// *TimeoutError. Requires a ready session.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any, timeout time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return "", &NotConnectedError{Op: "call_tool", State: s.state}
	}

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()

	req := mcpgo.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.client.CallTool(callCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			s.logger.Warn("mcp.call.timeout", "server", s.server, "tool", name, "timeout", timeout)
			return "", &TimeoutError{Tool: name, Timeout: timeout}
		}
		s.logger.Error("mcp.call.error", "server", s.server, "tool", name, "error", err.Error())
		return "", &ToolError{Tool: name, Message: err.Error()}
	}

	text := flattenContent(res.Content)
	if res.IsError {
		s.logger.Error("mcp.call.tool_error", "server", s.server, "tool", name, "error", text)
		return "", &ToolError{Tool: name, Message: text}
	}

	s.logger.Debug("mcp.call.success",
		"server", s.server,
		"tool", name,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return text, nil
}

// Close releases the transport and terminates the server process. It is safe
// to call repeatedly; subsequent operations fail with *NotConnectedError.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}

	var err error
	if s.client != nil {
		err = s.client.Close()
		s.client = nil
	}
	s.catalog = nil
	s.state = StateClosed

	if err != nil {
		s.logger.Warn("mcp.session.close_error", "server", s.server, "error", err.Error())
		return err
	}

	s.logger.Info("mcp.session.closed", "server", s.server)

	return nil
}

// flattenContent joins the textual content segments of a tool result.
// Non-text segments are skipped; errors travel out-of-band.
func flattenContent(content []mcpgo.Content) string {
	var b strings.Builder
	for _, c := range content {
		switch tc := c.(type) {
		case mcpgo.TextContent:
			b.WriteString(tc.Text)
		case *mcpgo.TextContent:
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}
