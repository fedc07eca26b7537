package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hupe1980/jobtrack/logging"
)

// SchemaVersion is written into every persisted document.
const SchemaVersion = "1.0"

// Application status values for a company record.
const (
	StatusNotApplied = "Not Applied"
	StatusApplied    = "Applied"
	StatusInterview  = "Interview"
	StatusOffer      = "Offer"
	StatusRejected   = "Rejected"
	StatusDeclined   = "Declined"
)

// Stats aggregates application counters across all companies. Counters are
// monotonic; each update increments at most one of them.
type Stats struct {
	ApplicationsSent    int `json:"applications_sent"`
	InterviewsScheduled int `json:"interviews_scheduled"`
	OffersReceived      int `json:"offers_received"`
	Rejections          int `json:"rejections"`
}

// Document is the full persisted state: one instance per store, guarded by
// one lock, written to disk on every mutation. Company records are free-form
// maps because updates merge arbitrary keys and the persisted form
// round-trips through JSON anyway.
type Document struct {
	Version     string                    `json:"version"`
	LastUpdated string                    `json:"last_updated"`
	Companies   map[string]map[string]any `json:"companies"`
	Stats       Stats                     `json:"stats"`
	Settings    map[string]any            `json:"settings"`
}

func defaultDocument() Document {
	return Document{
		Version:     SchemaVersion,
		LastUpdated: time.Now().Format(time.RFC3339),
		Companies:   map[string]map[string]any{},
		Settings:    map[string]any{},
	}
}

// Options configures a Store instance.
type Options struct {
	Logger logging.Logger
}

// Store is a durable mapping from company name to a status record, with
// aggregate statistics. All operations are linearizable: one mutex is held
// for the duration of each read or write, including the file I/O of a write.
//
// Persistence is crash consistent: every mutation writes the whole document
// to a temporary file in the target's directory, then renames it over the
// target, so readers never observe a partial write. A malformed file at load
// time is copied to a timestamped backup and replaced by defaults.
type Store struct {
	path   string
	logger logging.Logger

	mu  sync.Mutex
	doc Document
}

// NewStore creates a store backed by the given file, loading any previously
// persisted document. The parent directory is created if missing.
func NewStore(path string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("state: creating state directory: %w", err)
	}

	s := &Store{
		path:   path,
		logger: opts.Logger,
		doc:    defaultDocument(),
	}
	s.load()

	s.logger.Info("state.store.ready", "path", path)

	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// load overlays a previously persisted document onto the defaults. A
// malformed file is backed up and ignored; a missing file is fine.
func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("state.load.error", "path", s.path, "error", err.Error())
		}
		return
	}

	var loaded Document
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.Error("state.load.corrupt", "path", s.path, "error", err.Error())
		s.backupCorrupt(data)
		return
	}

	if loaded.Version != "" {
		s.doc.Version = loaded.Version
	}
	if loaded.LastUpdated != "" {
		s.doc.LastUpdated = loaded.LastUpdated
	}
	if loaded.Companies != nil {
		s.doc.Companies = loaded.Companies
	}
	if loaded.Settings != nil {
		s.doc.Settings = loaded.Settings
	}
	s.doc.Stats = loaded.Stats
}

// backupCorrupt copies an unreadable state file to <path>.bak.<timestamp>.
// No partial recovery is attempted.
func (s *Store) backupCorrupt(data []byte) {
	backup := fmt.Sprintf("%s.bak.%s", s.path, time.Now().Format("20060102150405"))
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		s.logger.Error("state.backup.error", "path", backup, "error", err.Error())
		return
	}
	s.logger.Warn("state.backup.created", "path", backup)
}

// persist writes the whole document atomically. Write failures are logged
// only; the in-memory document stays authoritative and the next mutation
// retries. Callers must hold s.mu.
func (s *Store) persist() {
	s.doc.LastUpdated = time.Now().Format(time.RFC3339)

	data, err := json.MarshalIndent(&s.doc, "", "  ")
	if err != nil {
		s.logger.Error("state.save.error", "path", s.path, "error", err.Error())
		return
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.logger.Error("state.save.error", "path", tmp, "error", err.Error())
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.logger.Error("state.save.error", "path", s.path, "error", err.Error())
		return
	}

	s.logger.Debug("state.saved", "path", s.path)
}

// GetCompanyState returns the record for a company as a map copy, or an
// empty map if the company is unknown. It never fails.
func (s *Store) GetCompanyState(name string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.doc.Companies[name]
	if !ok {
		return map[string]any{}
	}
	return copyRecord(record)
}

// UpdateCompanyState merges updates onto a company record, creating it with
// defaults if absent, and persists the document.
//
// Two derived effects run before persisting:
//   - if updates carries both last_interaction and last_interaction_date, one
//     interaction entry {type, date, details?, notes?} is appended
//   - if updates carries a status different from the current one, exactly one
//     stats counter is incremented per the transition table (first match wins)
func (s *Store) UpdateCompanyState(name string, updates map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.doc.Companies[name]
	if !ok {
		record = map[string]any{
			"created_at":   time.Now().Format(time.RFC3339),
			"status":       StatusNotApplied,
			"interactions": []any{},
		}
		s.doc.Companies[name] = record
	}

	oldStatus, _ := record["status"].(string)

	for k, v := range updates {
		record[k] = v
	}

	if itype, hasType := updates["last_interaction"]; hasType {
		if date, hasDate := updates["last_interaction_date"]; hasDate {
			entry := map[string]any{
				"type": itype,
				"date": date,
			}
			for _, key := range []string{"details", "notes"} {
				if v, ok := updates[key]; ok {
					entry[key] = v
				}
			}
			interactions, _ := record["interactions"].([]any)
			record["interactions"] = append(interactions, entry)
		}
	}

	if newStatus, ok := updates["status"].(string); ok && newStatus != oldStatus {
		s.applyTransition(oldStatus, newStatus)
	}

	s.persist()
}

// applyTransition increments the single stats counter matching the status
// change. Order matters: the first matching rule wins.
func (s *Store) applyTransition(oldStatus, newStatus string) {
	switch {
	case newStatus == StatusApplied && (oldStatus == "" || oldStatus == StatusNotApplied):
		s.doc.Stats.ApplicationsSent++
	case newStatus == StatusInterview && oldStatus != StatusInterview:
		s.doc.Stats.InterviewsScheduled++
	case newStatus == StatusOffer && oldStatus != StatusOffer:
		s.doc.Stats.OffersReceived++
	case newStatus == StatusRejected && oldStatus != StatusRejected:
		s.doc.Stats.Rejections++
	}
}

// GetAllCompanies returns a deep copy of every company record.
func (s *Store) GetAllCompanies() map[string]map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]map[string]any, len(s.doc.Companies))
	for name, record := range s.doc.Companies {
		out[name] = copyRecord(record)
	}
	return out
}

// GetStats returns a snapshot of the aggregate counters.
func (s *Store) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Stats
}

// GetSetting returns a setting value, or the default if unset.
func (s *Store) GetSetting(key string, def any) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.doc.Settings[key]; ok {
		return v
	}
	return def
}

// UpdateSetting sets a setting value and persists the document.
func (s *Store) UpdateSetting(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Settings[key] = value
	s.persist()
}

// Clear resets companies, stats and settings to defaults, keeping the
// schema version, and persists.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := s.doc.Version
	s.doc = defaultDocument()
	s.doc.Version = version
	s.persist()
}

// copyRecord deep-copies one company record so callers cannot mutate
// internal state without going through the update API.
func copyRecord(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyRecord(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
