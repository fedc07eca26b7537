// Package jobtrack provides a high-level façade over the protocol sessions,
// the conversation driver, the state store and the tracker, enabling
// construction of a complete job-application tracking application. Most
// programs interact with this package by:
//  1. Creating an App via New() (optionally overriding config, model or logger)
//  2. Calling Connect() to spawn the record backend and snapshot its tools
//  3. Processing events (ProcessCall, ProcessEmail) or querying state
//
// The façade delegates conversation orchestration to driver.Driver and event
// handling to tracker.Tracker while keeping setup concise. All defaults are
// read from ~/.jobtrack; production deployments typically supply an explicit
// config path and a structured logger.
package jobtrack

import (
	"context"
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/jobtrack/config"
	"github.com/hupe1980/jobtrack/driver"
	"github.com/hupe1980/jobtrack/logging"
	"github.com/hupe1980/jobtrack/mailbox"
	"github.com/hupe1980/jobtrack/mcp"
	"github.com/hupe1980/jobtrack/model"
	"github.com/hupe1980/jobtrack/model/anthropic"
	"github.com/hupe1980/jobtrack/model/openai"
	"github.com/hupe1980/jobtrack/state"
	"github.com/hupe1980/jobtrack/tracker"
)

// mailboxServer is the logical server key the mailbox attaches to when the
// launch configuration defines it. Its absence just disables email fetching.
const mailboxServer = "gmail"

// systemPrompt is sent on every reasoning-engine call.
const systemPrompt = "You are a job application tracking assistant. " +
	"You maintain application records in the connected workspace using the available tools. " +
	"When asked to update a company record, first locate it (or create it when missing), " +
	"then apply exactly the changes requested. Keep note content verbatim; do not summarize it further. " +
	"When no further tool call is needed, reply with a short confirmation of what was done."

// Options configures the App instance.
type Options struct {
	// ConfigPath overrides the config file location (default ~/.jobtrack/config.yaml).
	ConfigPath string
	// Config short-circuits file loading entirely when set.
	Config *config.Config
	// Model overrides the provider selected by the config.
	Model model.Model
	// Logger (defaults to a slog text logger at the configured level if nil).
	Logger logging.Logger
}

// App is the high-level façade aggregating the sessions, the driver, the
// tracker and the state store.
type App struct {
	cfg    *config.Config
	logger logging.Logger

	store  *state.Store
	llm    model.Model
	record *mcp.Session
	mail   *mcp.Session

	tracker *tracker.Tracker
	mailbox *mailbox.Mailbox
}

// New creates a disconnected App: config and state are loaded, the record
// session is prepared but no process is spawned until Connect.
func New(optFns ...func(o *Options)) (*App, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.New(&logging.Config{
			Level:  logging.ParseLevel(cfg.LogLevel),
			Format: "text",
		})
	}

	store, err := state.NewStore(cfg.StateFile, func(o *state.Options) {
		o.Logger = logging.WithComponent(logger, "state")
	})
	if err != nil {
		return nil, fmt.Errorf("jobtrack: opening state store: %w", err)
	}

	llm := opts.Model
	if llm == nil {
		llm = newModel(cfg.Provider)
	}

	servers, err := mcp.LoadServerConfigs(cfg.ServerConfig)
	if err != nil {
		return nil, err
	}

	recordCfg, ok := servers[cfg.RecordServer]
	if !ok {
		return nil, fmt.Errorf("jobtrack: server %q not found in %s", cfg.RecordServer, cfg.ServerConfig)
	}

	app := &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
		llm:    llm,
		record: newSession(cfg.RecordServer, recordCfg, cfg, logger),
	}

	if mailCfg, ok := servers[mailboxServer]; ok {
		app.mail = newSession(mailboxServer, mailCfg, cfg, logger)
	}

	return app, nil
}

// newSession builds a session with the config's timeouts applied.
func newSession(server string, cfg mcp.ServerConfig, appCfg *config.Config, logger logging.Logger) *mcp.Session {
	return mcp.NewSession(server, cfg, func(o *mcp.SessionOptions) {
		o.ConnectTimeout = appCfg.ConnectTimeoutDuration()
		o.Logger = logging.WithComponent(logger, "session")
	})
}

// newModel selects a reasoning engine per the provider config.
func newModel(p config.ProviderConfig) model.Model {
	switch p.Name {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if p.Model != "" {
				o.Model = p.Model
			}
			if p.Temperature > 0 {
				o.Temperature = p.Temperature
			}
			if p.MaxTokens > 0 {
				o.MaxCompletionTokens = p.MaxTokens
			}
		})
	default:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if p.Model != "" {
				o.Model = anthropicsdk.Model(p.Model)
			}
			if p.Temperature > 0 {
				o.Temperature = p.Temperature
			}
			if p.MaxTokens > 0 {
				o.MaxTokens = p.MaxTokens
			}
		})
	}
}

// Connect spawns the configured servers, snapshots the record backend's tool
// catalog and assembles the driver and the tracker. It must be called before
// processing events.
func (a *App) Connect(ctx context.Context) error {
	if err := a.record.Connect(ctx); err != nil {
		return err
	}

	catalog, err := a.record.ListTools(ctx)
	if err != nil {
		return err
	}

	d := driver.New(a.llm, a.record, catalog.Definitions(), func(o *driver.Options) {
		o.System = systemPrompt
		o.MaxRounds = a.cfg.Driver.MaxRounds
		o.ToolTimeout = a.cfg.ToolTimeoutDuration()
		o.Logger = logging.WithComponent(a.logger, "driver")
	})

	a.tracker = tracker.New(d, a.store, func(o *tracker.Options) {
		o.Logger = logging.WithComponent(a.logger, "tracker")
	})

	if a.mail != nil {
		if err := a.mail.Connect(ctx); err != nil {
			return err
		}
		a.mailbox = mailbox.New(a.mail, func(o *mailbox.Options) {
			o.CallTimeout = a.cfg.ToolTimeoutDuration()
			o.Logger = logging.WithComponent(a.logger, "mailbox")
		})
	}

	a.logger.Info("app.connected",
		"record_server", a.cfg.RecordServer,
		"tools", catalog.Len(),
		"model", a.llm.Info().Name,
	)

	return nil
}

// Close terminates all spawned server processes. Safe to call repeatedly.
func (a *App) Close() error {
	var firstErr error
	if err := a.record.Close(); err != nil {
		firstErr = err
	}
	if a.mail != nil {
		if err := a.mail.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ProcessCall records one call: the transcript is read by the caller,
// audioPath (optional) dates the call, companyHint skips extraction.
func (a *App) ProcessCall(ctx context.Context, transcript, audioPath, companyHint string) (*tracker.ProcessResult, error) {
	if a.tracker == nil {
		return nil, fmt.Errorf("jobtrack: not connected")
	}
	return a.tracker.ProcessCall(ctx, transcript, audioPath, companyHint)
}

// ProcessEmail records one email. With an id the email is fetched directly;
// otherwise the most recent application-related email for companyHint is used.
func (a *App) ProcessEmail(ctx context.Context, id, companyHint string) (*tracker.ProcessResult, error) {
	if a.tracker == nil {
		return nil, fmt.Errorf("jobtrack: not connected")
	}
	if a.mailbox == nil {
		return nil, fmt.Errorf("jobtrack: no %q server configured", mailboxServer)
	}

	var email *tracker.Email
	switch {
	case id != "":
		fetched, err := a.mailbox.GetEmail(ctx, id)
		if err != nil {
			return nil, err
		}
		email = fetched
	case companyHint != "":
		found, err := a.mailbox.SearchCompanyEmails(ctx, companyHint, 1)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("jobtrack: no emails found for company %q", companyHint)
		}
		email = &found[0]
	default:
		return nil, fmt.Errorf("jobtrack: either an email id or a company is required")
	}

	return a.tracker.ProcessEmail(ctx, *email, companyHint)
}

// SearchCompanies returns tracked companies whose name contains the query.
func (a *App) SearchCompanies(query string) map[string]map[string]any {
	query = strings.ToLower(query)
	out := map[string]map[string]any{}
	for name, record := range a.store.GetAllCompanies() {
		if strings.Contains(strings.ToLower(name), query) {
			out[name] = record
		}
	}
	return out
}

// Status returns the state snapshot and aggregate stats for one company.
func (a *App) Status(company string) tracker.CompanyStatus {
	return tracker.CompanyStatus{
		Company: company,
		State:   a.store.GetCompanyState(company),
		Stats:   a.store.GetStats(),
	}
}

// Stats returns the aggregate application statistics.
func (a *App) Stats() state.Stats { return a.store.GetStats() }

// Store exposes the underlying state store.
func (a *App) Store() *state.Store { return a.store }

// TestConnections connects to every configured server in turn, lists its
// tools and disconnects. The result maps each server key to its failure, or
// nil on success.
func (a *App) TestConnections(ctx context.Context) map[string]error {
	results := map[string]error{}

	servers, err := mcp.LoadServerConfigs(a.cfg.ServerConfig)
	if err != nil {
		results[a.cfg.RecordServer] = err
		return results
	}

	for key, cfg := range servers {
		session := newSession(key, cfg, a.cfg, a.logger)
		results[key] = func() error {
			if err := session.Connect(ctx); err != nil {
				return err
			}
			defer session.Close()
			if _, err := session.ListTools(ctx); err != nil {
				return err
			}
			return nil
		}()
	}

	return results
}
