package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	return s
}

func TestNewStore_Defaults(t *testing.T) {
	s := newTestStore(t)

	assert.Empty(t, s.GetAllCompanies())
	assert.Equal(t, Stats{}, s.GetStats())
	assert.Equal(t, "ack", s.GetSetting("missing", "ack"))
}

func TestGetCompanyState_UnknownCompany(t *testing.T) {
	s := newTestStore(t)

	record := s.GetCompanyState("Nowhere Inc")
	require.NotNil(t, record)
	assert.Empty(t, record)
}

func TestUpdateCompanyState_CreatesWithDefaults(t *testing.T) {
	s := newTestStore(t)

	s.UpdateCompanyState("Acme", map[string]any{"position": "Engineer"})

	record := s.GetCompanyState("Acme")
	assert.Equal(t, StatusNotApplied, record["status"])
	assert.Equal(t, "Engineer", record["position"])
	assert.NotEmpty(t, record["created_at"])
	assert.Empty(t, record["interactions"])
}

func TestUpdateCompanyState_MergeKeepsExistingKeys(t *testing.T) {
	s := newTestStore(t)

	s.UpdateCompanyState("Acme", map[string]any{"position": "Engineer"})
	s.UpdateCompanyState("Acme", map[string]any{"recruiter": "Sam"})

	record := s.GetCompanyState("Acme")
	assert.Equal(t, "Engineer", record["position"])
	assert.Equal(t, "Sam", record["recruiter"])
}

func TestUpdateCompanyState_AppendsInteraction(t *testing.T) {
	s := newTestStore(t)

	s.UpdateCompanyState("Acme", map[string]any{
		"last_interaction":      "call",
		"last_interaction_date": "2026-08-25",
		"notes":                 "intro call",
	})

	record := s.GetCompanyState("Acme")
	interactions, ok := record["interactions"].([]any)
	require.True(t, ok)
	require.Len(t, interactions, 1)

	entry, ok := interactions[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "call", entry["type"])
	assert.Equal(t, "2026-08-25", entry["date"])
	assert.Equal(t, "intro call", entry["notes"])
}

func TestUpdateCompanyState_NoInteractionWithoutDate(t *testing.T) {
	s := newTestStore(t)

	s.UpdateCompanyState("Acme", map[string]any{"last_interaction": "call"})

	record := s.GetCompanyState("Acme")
	assert.Empty(t, record["interactions"])
}

func TestStatsTransitions(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want Stats
	}{
		{"fresh to applied", "", StatusApplied, Stats{ApplicationsSent: 1}},
		{"not applied to applied", StatusNotApplied, StatusApplied, Stats{ApplicationsSent: 1}},
		{"applied to interview", StatusApplied, StatusInterview, Stats{InterviewsScheduled: 1}},
		{"fresh to interview", "", StatusInterview, Stats{InterviewsScheduled: 1}},
		{"interview to offer", StatusInterview, StatusOffer, Stats{OffersReceived: 1}},
		{"applied to rejected", StatusApplied, StatusRejected, Stats{Rejections: 1}},
		{"offer to declined", StatusOffer, StatusDeclined, Stats{}},
		{"interview to applied", StatusInterview, StatusApplied, Stats{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			if tt.from != "" && tt.from != StatusNotApplied {
				// seed without touching the counters
				s.UpdateCompanyState("Acme", map[string]any{})
				s.mu.Lock()
				s.doc.Companies["Acme"]["status"] = tt.from
				s.mu.Unlock()
			}

			s.UpdateCompanyState("Acme", map[string]any{"status": tt.to})

			assert.Equal(t, tt.want, s.GetStats())
		})
	}
}

func TestStatsTransition_SameStatusNoIncrement(t *testing.T) {
	s := newTestStore(t)

	s.UpdateCompanyState("Acme", map[string]any{"status": StatusInterview})
	s.UpdateCompanyState("Acme", map[string]any{"status": StatusInterview})

	assert.Equal(t, Stats{InterviewsScheduled: 1}, s.GetStats())
}

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := NewStore(path)
	require.NoError(t, err)

	s.UpdateCompanyState("Acme", map[string]any{
		"status":                StatusApplied,
		"last_interaction":      "email",
		"last_interaction_date": "2026-08-20",
	})
	s.UpdateSetting("digest", true)

	reopened, err := NewStore(path)
	require.NoError(t, err)

	record := reopened.GetCompanyState("Acme")
	assert.Equal(t, StatusApplied, record["status"])
	interactions, _ := record["interactions"].([]any)
	assert.Len(t, interactions, 1)
	assert.Equal(t, Stats{ApplicationsSent: 1}, reopened.GetStats())
	assert.Equal(t, true, reopened.GetSetting("digest", false))
}

func TestStore_PersistedFileIsCompleteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := NewStore(path)
	require.NoError(t, err)
	s.UpdateCompanyState("Acme", map[string]any{"status": StatusApplied})

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, SchemaVersion, doc.Version)
	assert.NotEmpty(t, doc.LastUpdated)
	assert.Contains(t, doc.Companies, "Acme")

	// no temp file left behind
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestStore_CorruptFileBackedUpAndReset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := NewStore(path)
	require.NoError(t, err)

	assert.Empty(t, s.GetAllCompanies())
	assert.Equal(t, Stats{}, s.GetStats())

	matches, err := filepath.Glob(path + ".bak.*")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	backup, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(backup))
}

func TestStore_SnapshotsAreIsolated(t *testing.T) {
	s := newTestStore(t)
	s.UpdateCompanyState("Acme", map[string]any{
		"status":                StatusApplied,
		"last_interaction":      "call",
		"last_interaction_date": "2026-08-25",
	})

	record := s.GetCompanyState("Acme")
	record["status"] = "tampered"
	if interactions, ok := record["interactions"].([]any); ok && len(interactions) > 0 {
		interactions[0].(map[string]any)["type"] = "tampered"
	}

	fresh := s.GetCompanyState("Acme")
	assert.Equal(t, StatusApplied, fresh["status"])
	interactions, _ := fresh["interactions"].([]any)
	require.Len(t, interactions, 1)
	assert.Equal(t, "call", interactions[0].(map[string]any)["type"])

	all := s.GetAllCompanies()
	all["Acme"]["status"] = "tampered"
	assert.Equal(t, StatusApplied, s.GetCompanyState("Acme")["status"])
}

func TestStore_Clear(t *testing.T) {
	s := newTestStore(t)
	s.UpdateCompanyState("Acme", map[string]any{"status": StatusApplied})
	s.UpdateSetting("digest", true)

	s.Clear()

	assert.Empty(t, s.GetAllCompanies())
	assert.Equal(t, Stats{}, s.GetStats())
	assert.Equal(t, false, s.GetSetting("digest", false))
}

func TestStore_MissingParentDirectoryCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "state.json")

	s, err := NewStore(path)
	require.NoError(t, err)

	s.UpdateCompanyState("Acme", map[string]any{"status": StatusApplied})

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
