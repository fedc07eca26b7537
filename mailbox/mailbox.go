// Package mailbox fetches emails through a mailbox MCP server. It wraps the
// server's search_emails and get_email tools behind typed methods and decodes
// their JSON payloads into tracker.Email values.
package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/jobtrack/logging"
	"github.com/hupe1980/jobtrack/tracker"
)

// jobKeywords narrow company searches to application-related mail.
var jobKeywords = []string{
	"interview", "application", "job opportunity", "position", "employment",
}

// ToolCaller executes one named tool call. *mcp.Session satisfies it.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any, timeout time.Duration) (string, error)
}

// Options configures a Mailbox instance.
type Options struct {
	// CallTimeout bounds each tool call against the mailbox server.
	CallTimeout time.Duration
	Logger      logging.Logger
}

// Mailbox is a thin typed view over a mailbox MCP session.
type Mailbox struct {
	caller ToolCaller
	opts   Options
	logger logging.Logger
}

// New creates a Mailbox over a connected session.
func New(caller ToolCaller, optFns ...func(o *Options)) *Mailbox {
	opts := Options{
		CallTimeout: 30 * time.Second,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Mailbox{
		caller: caller,
		opts:   opts,
		logger: opts.Logger,
	}
}

// GetEmail fetches one email by message id.
func (m *Mailbox) GetEmail(ctx context.Context, id string) (*tracker.Email, error) {
	raw, err := m.caller.CallTool(ctx, "get_email", map[string]any{"message_id": id}, m.opts.CallTimeout)
	if err != nil {
		return nil, fmt.Errorf("mailbox: fetching email %s: %w", id, err)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("mailbox: decoding email %s: %w", id, err)
	}
	if msg, ok := payload["error"].(string); ok && msg != "" {
		return nil, fmt.Errorf("mailbox: email %s: %s", id, msg)
	}

	email := decodeEmail(payload)
	if email.ID == "" {
		email.ID = id
	}

	return &email, nil
}

// SearchEmails runs a mailbox search query and returns up to limit results.
func (m *Mailbox) SearchEmails(ctx context.Context, query string, limit int) ([]tracker.Email, error) {
	raw, err := m.caller.CallTool(ctx, "search_emails", map[string]any{
		"query":       query,
		"max_results": limit,
	}, m.opts.CallTimeout)
	if err != nil {
		return nil, fmt.Errorf("mailbox: searching emails: %w", err)
	}

	var payload struct {
		Emails []map[string]any `json:"emails"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("mailbox: decoding search results: %w", err)
	}

	emails := make([]tracker.Email, 0, len(payload.Emails))
	for _, e := range payload.Emails {
		emails = append(emails, decodeEmail(e))
	}

	m.logger.Debug("mailbox.search", "query", query, "count", len(emails))

	return emails, nil
}

// SearchCompanyEmails searches recent application-related mail mentioning the
// company. The most recent match comes first.
func (m *Mailbox) SearchCompanyEmails(ctx context.Context, company string, limit int) ([]tracker.Email, error) {
	terms := make([]string, len(jobKeywords))
	for i, kw := range jobKeywords {
		terms[i] = `"` + kw + `"`
	}

	query := fmt.Sprintf("(%s) AND (%s) newer_than:3m", company, strings.Join(terms, " OR "))

	return m.SearchEmails(ctx, query, limit)
}

// decodeEmail maps a loosely-typed payload onto the fields the tracker needs.
func decodeEmail(payload map[string]any) tracker.Email {
	str := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := payload[k].(string); ok && v != "" {
				return v
			}
		}
		return ""
	}

	return tracker.Email{
		ID:      str("id", "message_id"),
		From:    str("from", "sender"),
		Subject: str("subject"),
		Date:    str("date"),
		Body:    str("body", "snippet"),
	}
}
