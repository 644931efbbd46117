package testutil

import (
	"context"
	"sync"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/freeze"
	"github.com/randalmurphal/qw/snapshot"
)

// MemoryStore is an in-memory snapshot persister and component registry.
type MemoryStore struct {
	mu sync.Mutex

	Store      *snapshot.Store
	Components []artifact.Component

	// LoadErr and SaveErr are returned by Load and Save when set.
	LoadErr error
	SaveErr error

	// Saves counts successful saves.
	Saves int
}

// NewMemoryStore creates a store holding records and the default
// component registry.
func NewMemoryStore(records ...snapshot.Record) *MemoryStore {
	return &MemoryStore{
		Store:      snapshot.NewStore(records...),
		Components: artifact.DefaultComponents(),
	}
}

// Load implements snapshot.Persister.
func (m *MemoryStore) Load() (*snapshot.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return snapshot.NewStore(m.Store.Records()...), nil
}

// Save implements snapshot.Persister.
func (m *MemoryStore) Save(s *snapshot.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Store = snapshot.NewStore(s.Records()...)
	m.Saves++
	return nil
}

// LoadComponents implements snapshot.Registry.
func (m *MemoryStore) LoadComponents() ([]artifact.Component, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]artifact.Component(nil), m.Components...), nil
}

// SaveComponents implements snapshot.Registry.
func (m *MemoryStore) SaveComponents(components []artifact.Component) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Components = append([]artifact.Component(nil), components...)
	return nil
}

// RecordingDecider answers from a fixed map and records every question.
type RecordingDecider struct {
	// Bump answers version bump questions by artifact id. Unlisted ids
	// are declined.
	Bump map[artifact.ID]bool

	// Remove answers removal questions for every id.
	Remove bool

	Asked   []artifact.ID
	Removed []artifact.ID
}

var (
	_ freeze.Decider        = (*RecordingDecider)(nil)
	_ freeze.RemovalDecider = (*RecordingDecider)(nil)
)

// ConfirmVersionBump implements freeze.Decider.
func (d *RecordingDecider) ConfirmVersionBump(_ context.Context, a *artifact.Artifact, _ snapshot.Record, _ []freeze.FieldDiff) (bool, error) {
	d.Asked = append(d.Asked, a.ID)
	return d.Bump[a.ID], nil
}

// ConfirmRemoval implements freeze.RemovalDecider.
func (d *RecordingDecider) ConfirmRemoval(_ context.Context, prev snapshot.Record) (bool, error) {
	d.Removed = append(d.Removed, prev.ID)
	return d.Remove, nil
}
