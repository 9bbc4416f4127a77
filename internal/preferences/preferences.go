// Package preferences manages the visitor's onboarding profile and the
// recommendation list derived from it. State lives on the client, behind an
// explicit Store handed to the Manager, and is serialized with a schema tag
// so future format changes migrate explicitly instead of being silently
// discarded.
package preferences

import (
	"encoding/json"
	"errors"
	"time"
)

// SchemaVersion tags the serialized envelope. Payloads carrying a different
// version pass through migrate before use.
const SchemaVersion = 1

// maxRecommendedIDs bounds the stored recommendation list.
const maxRecommendedIDs = 5

// Preferences is the captured onboarding profile plus the recommendation
// it produced.
type Preferences struct {
	Income                string   `json:"income"`
	Occupation            string   `json:"occupation"`
	Purpose               string   `json:"purpose"`
	RecommendedProductIDs []string `json:"recommendedProductIds"`
	Timestamp             int64    `json:"timestamp"`
}

type envelope struct {
	SchemaVersion int `json:"schemaVersion"`
	Preferences
}

// Store is the persistence the Manager writes through. A browser client
// backs it with local storage; tests use an in-memory map.
type Store interface {
	// Load returns the serialized payload and whether one exists.
	Load() (string, bool)
	Save(payload string) error
	Clear() error
}

// State is the preference lifecycle state.
type State int

const (
	// StateNoPreferences: nothing stored; the onboarding form should be offered.
	StateNoPreferences State = iota
	// StateFormVisible: the form is being shown.
	StateFormVisible
	// StateSubmitting: a recommendation request is in flight.
	StateSubmitting
	// StateHasPreferences: a stored profile exists.
	StateHasPreferences
)

var (
	// ErrInvalidTransition is returned when a lifecycle method is called
	// from the wrong state.
	ErrInvalidTransition = errors.New("invalid preference state transition")
	// ErrIncomplete is returned when a submitted profile misses a field.
	ErrIncomplete = errors.New("income, occupation and purpose are required")
)

// Manager drives the preference lifecycle:
// NoPreferences -> FormVisible -> Submitting -> HasPreferences, with failure
// returning to FormVisible and an explicit reset discarding stored data.
// Stored preferences never expire on their own.
type Manager struct {
	store Store
	state State
	prefs *Preferences
}

// NewManager loads any stored preferences. A missing, corrupted, or
// differently-versioned payload that cannot migrate is treated as absent.
func NewManager(store Store) *Manager {
	m := &Manager{store: store, state: StateNoPreferences}
	raw, ok := store.Load()
	if !ok {
		return m
	}
	prefs, err := decode(raw)
	if err != nil {
		// Unreadable state is discarded; the visitor just onboards again.
		_ = store.Clear()
		return m
	}
	m.prefs = prefs
	m.state = StateHasPreferences
	return m
}

func decode(raw string) (*Preferences, error) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, err
	}
	if env.SchemaVersion != SchemaVersion {
		migrated, err := migrate(env)
		if err != nil {
			return nil, err
		}
		env = migrated
	}
	if env.Income == "" && env.Occupation == "" && env.Purpose == "" {
		return nil, errors.New("empty preference payload")
	}
	return &env.Preferences, nil
}

// migrate upgrades an envelope from an older schema version. There are no
// published older versions yet, so anything unversioned is rejected.
func migrate(env envelope) (envelope, error) {
	return envelope{}, errors.New("unknown preference schema version")
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return m.state
}

// Current returns the stored preferences, or nil outside HasPreferences.
func (m *Manager) Current() *Preferences {
	return m.prefs
}

// ShowForm offers the onboarding form to a visitor without preferences.
func (m *Manager) ShowForm() error {
	if m.state != StateNoPreferences {
		return ErrInvalidTransition
	}
	m.state = StateFormVisible
	return nil
}

// BeginSubmit marks a recommendation request as in flight.
func (m *Manager) BeginSubmit() error {
	if m.state != StateFormVisible {
		return ErrInvalidTransition
	}
	m.state = StateSubmitting
	return nil
}

// CompleteSubmit stores the submitted profile and its recommendation list,
// truncated to five entries, and moves to HasPreferences.
func (m *Manager) CompleteSubmit(prefs Preferences) error {
	if m.state != StateSubmitting {
		return ErrInvalidTransition
	}
	if prefs.Income == "" || prefs.Occupation == "" || prefs.Purpose == "" {
		return ErrIncomplete
	}
	if len(prefs.RecommendedProductIDs) > maxRecommendedIDs {
		prefs.RecommendedProductIDs = prefs.RecommendedProductIDs[:maxRecommendedIDs]
	}
	if prefs.Timestamp == 0 {
		prefs.Timestamp = time.Now().UnixMilli()
	}

	payload, err := json.Marshal(envelope{SchemaVersion: SchemaVersion, Preferences: prefs})
	if err != nil {
		return err
	}
	if err := m.store.Save(string(payload)); err != nil {
		m.state = StateFormVisible
		return err
	}
	m.prefs = &prefs
	m.state = StateHasPreferences
	return nil
}

// FailSubmit returns to the form after a failed recommendation request.
func (m *Manager) FailSubmit() error {
	if m.state != StateSubmitting {
		return ErrInvalidTransition
	}
	m.state = StateFormVisible
	return nil
}

// Reset discards stored preferences ("get new suggestions") and re-offers
// the form.
func (m *Manager) Reset() error {
	if m.state != StateHasPreferences {
		return ErrInvalidTransition
	}
	if err := m.store.Clear(); err != nil {
		return err
	}
	m.prefs = nil
	m.state = StateFormVisible
	return nil
}
