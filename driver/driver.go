package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/jobtrack/core"
	"github.com/hupe1980/jobtrack/logging"
	"github.com/hupe1980/jobtrack/model"
)

// ToolCaller executes one named tool call against a protocol session. The
// session serializes calls internally; the driver additionally guarantees it
// never issues a second call before the previous result is in history.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any, timeout time.Duration) (string, error)
}

// LoopExceededError reports that a conversation did not terminate within the
// configured round cap.
type LoopExceededError struct {
	Rounds int
}

func (e *LoopExceededError) Error() string {
	return fmt.Sprintf("driver: conversation exceeded %d rounds without completing", e.Rounds)
}

// Options configures a Driver instance.
type Options struct {
	// System is the fixed system prompt sent on every reasoning-engine call.
	System string
	// MaxRounds caps the number of reasoning-engine calls per Run. Exceeding
	// it fails the run with *LoopExceededError.
	MaxRounds int
	// ToolTimeout bounds each individual tool call.
	ToolTimeout time.Duration
	// Logger receives per-round and per-call events.
	Logger logging.Logger
}

// Driver alternates reasoning-engine calls and tool executions until the
// engine produces a reply with no tool invocation.
//
// Per round, only the FIRST tool-use segment of the reply is executed; any
// further tool-use segments in the same reply are dropped (logged, never
// executed). The result of the executed call is appended to history before
// the next reasoning-engine call, so no two tool calls from one driver are
// ever in flight concurrently.
//
// Tool failures and timeouts are not retried or fed back to the engine; they
// abort the run and propagate to the caller unchanged.
type Driver struct {
	llm    model.Model
	caller ToolCaller
	tools  []model.ToolDefinition
	opts   Options
	logger logging.Logger
}

// New creates a Driver for one reasoning engine, one tool caller and the
// tool catalog snapshot it will advertise on every call.
func New(llm model.Model, caller ToolCaller, tools []model.ToolDefinition, optFns ...func(o *Options)) *Driver {
	opts := Options{
		MaxRounds:   10,
		ToolTimeout: 60 * time.Second,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Driver{
		llm:    llm,
		caller: caller,
		tools:  tools,
		opts:   opts,
		logger: opts.Logger,
	}
}

// Result is the outcome of a completed conversation.
type Result struct {
	// Text is the accumulated text output of every round.
	Text string
	// Rounds is the number of reasoning-engine calls performed.
	Rounds int
	// History is the full message history including tool results.
	History []core.Message
}

// Run drives one conversation: it seeds history with the instruction,
// then alternates engine calls and single tool executions until a reply
// carries no tool invocation.
func (d *Driver) Run(ctx context.Context, instruction string) (*Result, error) {
	runID := uuid.NewString()
	history := []core.Message{core.NewUserText(instruction)}

	var text strings.Builder

	d.logger.Debug("driver.run.start", "run", runID, "tools", len(d.tools))

	for round := 1; round <= d.opts.MaxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := d.llm.Generate(ctx, model.Request{
			System:   d.opts.System,
			Messages: history,
			Tools:    d.tools,
		})
		if err != nil {
			return nil, fmt.Errorf("reasoning engine: %w", err)
		}

		reply := resp.Message
		history = append(history, reply)

		use, executed, err := d.scanAndExecute(ctx, runID, round, reply, &text)
		if err != nil {
			return nil, err
		}

		if !executed {
			d.logger.Debug("driver.run.done", "run", runID, "rounds", round)
			return &Result{Text: text.String(), Rounds: round, History: history}, nil
		}

		history = append(history, core.NewToolResultMessage(*use))
	}

	d.logger.Warn("driver.run.loop_exceeded", "run", runID, "max_rounds", d.opts.MaxRounds)

	return nil, &LoopExceededError{Rounds: d.opts.MaxRounds}
}

// scanAndExecute walks the reply's parts in order, accumulating text until
// the first tool use, which it executes. Everything after the first tool use
// is dropped; dropped tool uses are logged.
func (d *Driver) scanAndExecute(
	ctx context.Context,
	runID string,
	round int,
	reply core.Message,
	text *strings.Builder,
) (*core.ToolResult, bool, error) {
	for i, p := range reply.Parts {
		switch part := p.(type) {
		case core.TextPart:
			text.WriteString(part.Text)
		case core.ToolUsePart:
			if dropped := countToolUses(reply.Parts[i+1:]); dropped > 0 {
				d.logger.Warn("driver.tool.dropped",
					"run", runID,
					"round", round,
					"count", dropped,
				)
			}
			result, err := d.executeTool(ctx, runID, round, part.ToolUse)
			if err != nil {
				return nil, false, err
			}
			return result, true, nil
		}
	}
	return nil, false, nil
}

// executeTool decodes the argument object and performs the call via the
// tool caller. Call failures propagate unchanged so callers can inspect the
// protocol error types.
func (d *Driver) executeTool(ctx context.Context, runID string, round int, use core.ToolUse) (*core.ToolResult, error) {
	if use.ID == "" {
		use.ID = uuid.NewString()
	}

	args := map[string]any{}
	if use.Arguments != "" {
		if err := json.Unmarshal([]byte(use.Arguments), &args); err != nil {
			return nil, fmt.Errorf("driver: decoding arguments for tool %q: %w", use.Name, err)
		}
	}

	d.logger.Info("driver.tool.execute",
		"run", runID,
		"round", round,
		"tool", use.Name,
		"invocation_id", use.ID,
	)

	start := time.Now()
	content, err := d.caller.CallTool(ctx, use.Name, args, d.opts.ToolTimeout)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("driver.tool.result",
		"run", runID,
		"round", round,
		"tool", use.Name,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &core.ToolResult{ID: use.ID, Content: content}, nil
}

func countToolUses(parts []core.Part) int {
	n := 0
	for _, p := range parts {
		if _, ok := p.(core.ToolUsePart); ok {
			n++
		}
	}
	return n
}
