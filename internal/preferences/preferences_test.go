package preferences

import (
	"errors"
	"strings"
	"testing"
)

type memStore struct {
	payload string
	exists  bool

	saveErr  error
	clearErr error
	clears   int
}

func (s *memStore) Load() (string, bool) { return s.payload, s.exists }

func (s *memStore) Save(payload string) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.payload = payload
	s.exists = true
	return nil
}

func (s *memStore) Clear() error {
	s.clears++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.payload = ""
	s.exists = false
	return nil
}

func validPrefs() Preferences {
	return Preferences{
		Income:                "50000",
		Occupation:            "engineer",
		Purpose:               "home",
		RecommendedProductIDs: []string{"a", "b"},
	}
}

func TestNewManager_EmptyStore(t *testing.T) {
	m := NewManager(&memStore{})
	if m.State() != StateNoPreferences {
		t.Errorf("expected StateNoPreferences, got %v", m.State())
	}
	if m.Current() != nil {
		t.Error("expected no current preferences")
	}
}

func TestNewManager_CorruptPayloadDiscarded(t *testing.T) {
	store := &memStore{payload: `{"this is not`, exists: true}
	m := NewManager(store)
	if m.State() != StateNoPreferences {
		t.Errorf("expected StateNoPreferences, got %v", m.State())
	}
	if store.clears != 1 {
		t.Errorf("expected corrupt payload to be cleared, clears=%d", store.clears)
	}
}

func TestNewManager_UnknownSchemaVersionDiscarded(t *testing.T) {
	store := &memStore{
		payload: `{"schemaVersion":99,"income":"1","occupation":"x","purpose":"y"}`,
		exists:  true,
	}
	m := NewManager(store)
	if m.State() != StateNoPreferences {
		t.Errorf("expected StateNoPreferences, got %v", m.State())
	}
}

func TestNewManager_LoadsStoredPreferences(t *testing.T) {
	store := &memStore{
		payload: `{"schemaVersion":1,"income":"50000","occupation":"engineer","purpose":"home","recommendedProductIds":["a"],"timestamp":123}`,
		exists:  true,
	}
	m := NewManager(store)
	if m.State() != StateHasPreferences {
		t.Fatalf("expected StateHasPreferences, got %v", m.State())
	}
	prefs := m.Current()
	if prefs == nil || prefs.Income != "50000" || len(prefs.RecommendedProductIDs) != 1 {
		t.Errorf("unexpected loaded preferences: %+v", prefs)
	}
}

func TestLifecycle_HappyPath(t *testing.T) {
	store := &memStore{}
	m := NewManager(store)

	if err := m.ShowForm(); err != nil {
		t.Fatalf("ShowForm: %v", err)
	}
	if err := m.BeginSubmit(); err != nil {
		t.Fatalf("BeginSubmit: %v", err)
	}
	if err := m.CompleteSubmit(validPrefs()); err != nil {
		t.Fatalf("CompleteSubmit: %v", err)
	}
	if m.State() != StateHasPreferences {
		t.Errorf("expected StateHasPreferences, got %v", m.State())
	}
	if !strings.Contains(store.payload, `"schemaVersion":1`) {
		t.Errorf("stored payload missing version tag: %s", store.payload)
	}
	if m.Current().Timestamp == 0 {
		t.Error("expected timestamp to be filled in")
	}

	// A fresh manager over the same store picks the profile back up.
	again := NewManager(store)
	if again.State() != StateHasPreferences {
		t.Errorf("expected reload to find preferences, got %v", again.State())
	}
}

func TestLifecycle_InvalidTransitions(t *testing.T) {
	m := NewManager(&memStore{})

	if err := m.BeginSubmit(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("BeginSubmit from NoPreferences: %v", err)
	}
	if err := m.CompleteSubmit(validPrefs()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("CompleteSubmit from NoPreferences: %v", err)
	}
	if err := m.FailSubmit(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("FailSubmit from NoPreferences: %v", err)
	}
	if err := m.Reset(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Reset from NoPreferences: %v", err)
	}

	if err := m.ShowForm(); err != nil {
		t.Fatalf("ShowForm: %v", err)
	}
	if err := m.ShowForm(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("ShowForm twice: %v", err)
	}
}

func TestCompleteSubmit_IncompleteProfile(t *testing.T) {
	m := NewManager(&memStore{})
	_ = m.ShowForm()
	_ = m.BeginSubmit()

	prefs := validPrefs()
	prefs.Purpose = ""
	if err := m.CompleteSubmit(prefs); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if m.State() != StateSubmitting {
		t.Errorf("state should be unchanged after validation failure, got %v", m.State())
	}
}

func TestCompleteSubmit_TruncatesRecommendations(t *testing.T) {
	m := NewManager(&memStore{})
	_ = m.ShowForm()
	_ = m.BeginSubmit()

	prefs := validPrefs()
	prefs.RecommendedProductIDs = []string{"a", "b", "c", "d", "e", "f", "g"}
	if err := m.CompleteSubmit(prefs); err != nil {
		t.Fatalf("CompleteSubmit: %v", err)
	}
	if got := len(m.Current().RecommendedProductIDs); got != 5 {
		t.Errorf("expected 5 stored ids, got %d", got)
	}
}

func TestCompleteSubmit_SaveFailureReturnsToForm(t *testing.T) {
	store := &memStore{saveErr: errors.New("quota exceeded")}
	m := NewManager(store)
	_ = m.ShowForm()
	_ = m.BeginSubmit()

	if err := m.CompleteSubmit(validPrefs()); err == nil {
		t.Fatal("expected save error")
	}
	if m.State() != StateFormVisible {
		t.Errorf("expected StateFormVisible after save failure, got %v", m.State())
	}
	if m.Current() != nil {
		t.Error("preferences must not be retained after a failed save")
	}
}

func TestFailSubmit_ReturnsToForm(t *testing.T) {
	m := NewManager(&memStore{})
	_ = m.ShowForm()
	_ = m.BeginSubmit()

	if err := m.FailSubmit(); err != nil {
		t.Fatalf("FailSubmit: %v", err)
	}
	if m.State() != StateFormVisible {
		t.Errorf("expected StateFormVisible, got %v", m.State())
	}
}

func TestReset_DiscardsStoredData(t *testing.T) {
	store := &memStore{}
	m := NewManager(store)
	_ = m.ShowForm()
	_ = m.BeginSubmit()
	if err := m.CompleteSubmit(validPrefs()); err != nil {
		t.Fatalf("CompleteSubmit: %v", err)
	}

	if err := m.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if m.State() != StateFormVisible {
		t.Errorf("expected StateFormVisible after reset, got %v", m.State())
	}
	if m.Current() != nil {
		t.Error("expected preferences discarded")
	}
	if store.exists {
		t.Error("expected store cleared")
	}
}
