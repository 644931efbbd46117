package snapshot

import (
	"sort"

	"github.com/randalmurphal/qw/artifact"
)

// Record is the frozen state of one artifact.
type Record struct {
	ID            artifact.ID       `json:"id"`
	Kind          artifact.Kind     `json:"kind"`
	IsPR          bool              `json:"is_pr,omitempty"`
	Title         string            `json:"title"`
	Version       int               `json:"version"`
	ContentHash   string            `json:"content_hash"`
	ParentRefs    []artifact.ID     `json:"parent_refs,omitempty"`
	ComponentCode string            `json:"component_code,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`

	// ParentVersions is the version of each parent at the time this record
	// was last written. A parent whose current version is higher has been
	// bumped since.
	ParentVersions map[artifact.ID]int `json:"parent_versions,omitempty"`

	// Deleted marks an artifact that no longer exists on the hosting
	// service but was kept in the store.
	Deleted bool `json:"deleted,omitempty"`
}

// FromArtifact builds the record of a at the given version.
func FromArtifact(a *artifact.Artifact, version int, parentVersions map[artifact.ID]int) Record {
	r := Record{
		ID:            a.ID,
		Kind:          a.Kind,
		IsPR:          a.IsPR,
		Title:         a.Title,
		Version:       version,
		ContentHash:   a.ContentHash,
		ParentRefs:    artifact.SortIDs(append([]artifact.ID(nil), a.ParentRefs...)),
		ComponentCode: a.ComponentCode,
		Fields:        artifact.HashedFields(a),
	}
	if len(parentVersions) > 0 {
		r.ParentVersions = parentVersions
	}
	if len(r.Fields) == 0 {
		r.Fields = nil
	}
	return r
}

// DisplayName renders "Requirement #6 (Dose limit)".
func (r Record) DisplayName() string {
	a := artifact.Artifact{ID: r.ID, Kind: r.Kind, Title: r.Title}
	return a.DisplayName()
}

// Store is the frozen graph: one record per artifact id.
type Store struct {
	records map[artifact.ID]Record
}

// NewStore creates a store holding records. Later records replace earlier
// ones with the same id.
func NewStore(records ...Record) *Store {
	s := &Store{records: make(map[artifact.ID]Record, len(records))}
	for _, r := range records {
		s.Put(r)
	}
	return s
}

// Get returns the record for id.
func (s *Store) Get(id artifact.ID) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	r, ok := s.records[id]
	return r, ok
}

// Put adds or replaces the record for r.ID.
func (s *Store) Put(r Record) {
	if s.records == nil {
		s.records = make(map[artifact.ID]Record)
	}
	s.records[r.ID] = r
}

// Remove drops the record for id.
func (s *Store) Remove(id artifact.ID) {
	delete(s.records, id)
}

// Len returns the number of records.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Records returns every record sorted by id.
func (s *Store) Records() []Record {
	if s == nil {
		return nil
	}
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Version returns the frozen version of id, or 0 if it was never frozen.
func (s *Store) Version(id artifact.ID) int {
	r, _ := s.Get(id)
	return r.Version
}
