package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/jobtrack/driver"
	"github.com/hupe1980/jobtrack/extract"
	"github.com/hupe1980/jobtrack/logging"
	"github.com/hupe1980/jobtrack/state"
)

// ErrNoCompany is returned when neither the caller nor the extractors can
// determine which company an event belongs to.
var ErrNoCompany = errors.New("tracker: could not determine company name")

// Email carries the metadata and body of one fetched email.
type Email struct {
	ID      string
	From    string
	Subject string
	Date    string // ISO-8601 or provider format
	Body    string
}

// CallExtractor pulls a company name and key points out of a call
// transcript. Implementations are thin and replaceable.
type CallExtractor interface {
	Company(transcript string) string
	KeyPoints(transcript string) []string
}

// EmailExtractor pulls a company name and key points out of an email.
type EmailExtractor interface {
	Company(email Email) string
	KeyPoints(email Email) []string
}

// NoteRunner executes one note-keeping task against the record backend.
// *driver.Driver satisfies it.
type NoteRunner interface {
	Run(ctx context.Context, instruction string) (*driver.Result, error)
}

// StateStore is the durable state surface the tracker records into.
// *state.Store satisfies it.
type StateStore interface {
	GetCompanyState(name string) map[string]any
	UpdateCompanyState(name string, updates map[string]any)
	GetAllCompanies() map[string]map[string]any
	GetStats() state.Stats
}

// RegexCallExtractor is the default CallExtractor built on the extract
// package heuristics.
type RegexCallExtractor struct{}

// Company implements CallExtractor.
func (RegexCallExtractor) Company(transcript string) string {
	return extract.CompanyFromTranscript(transcript)
}

// KeyPoints implements CallExtractor.
func (RegexCallExtractor) KeyPoints(transcript string) []string {
	return extract.TranscriptKeyPoints(transcript)
}

// RegexEmailExtractor is the default EmailExtractor built on the extract
// package heuristics.
type RegexEmailExtractor struct{}

// Company implements EmailExtractor.
func (RegexEmailExtractor) Company(email Email) string {
	return extract.CompanyFromEmail(email.From, email.Subject, email.Body)
}

// KeyPoints implements EmailExtractor.
func (RegexEmailExtractor) KeyPoints(email Email) []string {
	return extract.EmailKeyPoints(email.Subject, email.From, email.Date, email.Body)
}

// Options configures a Tracker instance.
type Options struct {
	CallExtractor  CallExtractor
	EmailExtractor EmailExtractor
	Logger         logging.Logger
}

// Tracker composes note text from an event, pushes it through the
// conversation driver and records the interaction in the state store. It is
// thin by design: the driver and the store carry the correctness contracts.
type Tracker struct {
	runner NoteRunner
	store  StateStore
	calls  CallExtractor
	emails EmailExtractor
	logger logging.Logger
}

// New creates a Tracker over a note runner and a state store.
func New(runner NoteRunner, store StateStore, optFns ...func(o *Options)) *Tracker {
	opts := Options{
		CallExtractor:  RegexCallExtractor{},
		EmailExtractor: RegexEmailExtractor{},
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Tracker{
		runner: runner,
		store:  store,
		calls:  opts.CallExtractor,
		emails: opts.EmailExtractor,
		logger: opts.Logger,
	}
}

// ProcessResult references the processed record plus the state snapshot for
// that company after the update.
type ProcessResult struct {
	Company string
	Output  string         // accumulated text produced by the driver
	State   map[string]any // company state snapshot after the update
}

// ProcessCall handles one call recording: extracts the company (unless
// hinted) and key points, composes the note, drives the record update and
// records the interaction. audioPath may be empty for live transcripts; the
// call date then defaults to today.
func (t *Tracker) ProcessCall(ctx context.Context, transcript, audioPath, companyHint string) (*ProcessResult, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, errors.New("tracker: no transcript available")
	}

	company := companyHint
	if company == "" {
		company = t.calls.Company(transcript)
	}
	if company == "" {
		return nil, ErrNoCompany
	}

	callDate := time.Now().Format("2006-01-02")
	if audioPath != "" {
		callDate = extract.DateFromFilename(audioPath)
	}

	keyPoints := t.calls.KeyPoints(transcript)
	note := composeCallNote(callDate, transcript, keyPoints)

	instruction := fmt.Sprintf(
		"Append the following call note to the record for company %q, under its Interactions section. "+
			"Create the record with default properties if it does not exist, then set its Status to %q and Next Step to %q.\n\n%s",
		company, state.StatusInterview, "Follow Up", note,
	)

	res, err := t.runner.Run(ctx, instruction)
	if err != nil {
		return nil, err
	}

	t.store.UpdateCompanyState(company, map[string]any{
		"last_interaction":      "call",
		"last_interaction_date": callDate,
		"has_calls":             true,
	})

	t.logger.Info("tracker.call.processed", "company", company, "date", callDate)

	return &ProcessResult{
		Company: company,
		Output:  res.Text,
		State:   t.store.GetCompanyState(company),
	}, nil
}

// ProcessEmail handles one email: extracts the company (unless hinted) and
// key points, infers a status from the body, composes the note, drives the
// record update and records the interaction.
func (t *Tracker) ProcessEmail(ctx context.Context, email Email, companyHint string) (*ProcessResult, error) {
	company := companyHint
	if company == "" {
		company = t.emails.Company(email)
	}
	if company == "" {
		return nil, ErrNoCompany
	}

	keyPoints := t.emails.KeyPoints(email)
	note := composeEmailNote(email, keyPoints)
	status, nextStep := inferEmailStatus(email.Body)

	instruction := fmt.Sprintf(
		"Append the following email note to the record for company %q, under its Interactions section. "+
			"Create the record with default properties if it does not exist, then set its Status to %q and Next Step to %q.\n\n%s",
		company, status, nextStep, note,
	)

	res, err := t.runner.Run(ctx, instruction)
	if err != nil {
		return nil, err
	}

	date := email.Date
	if date == "" {
		date = time.Now().Format(time.RFC3339)
	}

	t.store.UpdateCompanyState(company, map[string]any{
		"last_interaction":      "email",
		"last_interaction_date": date,
		"has_emails":            true,
	})

	t.logger.Info("tracker.email.processed", "company", company, "status", status)

	return &ProcessResult{
		Company: company,
		Output:  res.Text,
		State:   t.store.GetCompanyState(company),
	}, nil
}

// SearchCompanies returns the state records of companies whose name
// contains the query, case-insensitively.
func (t *Tracker) SearchCompanies(query string) map[string]map[string]any {
	query = strings.ToLower(query)
	out := map[string]map[string]any{}
	for name, record := range t.store.GetAllCompanies() {
		if strings.Contains(strings.ToLower(name), query) {
			out[name] = record
		}
	}
	return out
}

// CompanyStatus is the combined view of one company.
type CompanyStatus struct {
	Company string
	State   map[string]any
	Stats   state.Stats
}

// Status returns the current state snapshot for a company. The state map is
// empty for unknown companies.
func (t *Tracker) Status(name string) CompanyStatus {
	return CompanyStatus{
		Company: name,
		State:   t.store.GetCompanyState(name),
		Stats:   t.store.GetStats(),
	}
}

// Email body keyword tables for status inference. Evaluated in order; the
// first table with a hit decides.
var (
	interviewKeywords = []string{"interview", "schedule", "meet", "discuss"}
	offerKeywords     = []string{"offer", "compensation", "salary", "package"}
	rejectionKeywords = []string{"unfortunately", "not moving forward", "other candidates", "not selected"}
)

// inferEmailStatus maps an email body to the status and next step the note
// instruction proposes for the record.
func inferEmailStatus(body string) (status, nextStep string) {
	lower := strings.ToLower(body)

	containsAny := func(keywords []string) bool {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
		return false
	}

	switch {
	case containsAny(interviewKeywords):
		return state.StatusInterview, "Prepare"
	case containsAny(offerKeywords):
		return state.StatusOffer, "Follow Up"
	case containsAny(rejectionKeywords):
		return state.StatusRejected, "Apply"
	default:
		return state.StatusApplied, "Follow Up"
	}
}
