package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/errors"
)

// Store layout inside the repository.
const (
	DefaultDir     = ".qw"
	RecordsFile    = "store.jsonl"
	ComponentsFile = "components.csv"
)

// maxRecordSize bounds one encoded record line.
const maxRecordSize = 16 << 20

// Persister loads and saves the frozen graph.
type Persister interface {
	Load() (*Store, error)
	Save(s *Store) error
}

// Registry loads and saves the component registry.
type Registry interface {
	LoadComponents() ([]artifact.Component, error)
	SaveComponents(components []artifact.Component) error
}

// Encode writes one JSON record per line, sorted by id.
func Encode(w io.Writer, s *Store) error {
	bw := bufio.NewWriter(w)
	for _, r := range s.Records() {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", r.ID, err)
		}
		bw.Write(data)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Decode reads a store written by Encode. Blank lines are skipped. Any
// malformed line, invalid record or repeated id is an error naming the line.
func Decode(r io.Reader) (*Store, error) {
	s := NewStore()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}

		var rec Record
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := validate(rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if _, dup := s.Get(rec.ID); dup {
			return nil, fmt.Errorf("line %d: duplicate record for %s", line, rec.ID)
		}
		s.Put(rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func validate(r Record) error {
	if r.ID <= 0 {
		return fmt.Errorf("invalid id %d", r.ID)
	}
	if !r.Kind.IsQw() {
		return fmt.Errorf("%s: invalid kind %q", r.ID, r.Kind)
	}
	if r.Version < 1 {
		return fmt.Errorf("%s: invalid version %d", r.ID, r.Version)
	}
	if r.ContentHash == "" {
		return fmt.Errorf("%s: missing content hash", r.ID)
	}
	return nil
}

// FileStore persists the store under a directory, usually .qw in the
// repository root.
type FileStore struct {
	Dir string
}

// NewFileStore creates a file store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// Path returns the records file.
func (f *FileStore) Path() string {
	return filepath.Join(f.Dir, RecordsFile)
}

// ComponentsPath returns the component registry file.
func (f *FileStore) ComponentsPath() string {
	return filepath.Join(f.Dir, ComponentsFile)
}

// Initialized reports whether the store directory exists.
func (f *FileStore) Initialized() bool {
	info, err := os.Stat(f.Dir)
	return err == nil && info.IsDir()
}

// Load reads the records file. A missing file is an empty store; unreadable
// content is a corrupt store error.
func (f *FileStore) Load() (*Store, error) {
	path := f.Path()
	file, err := os.Open(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		slog.Debug("no snapshot yet", "path", path)
		return NewStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer file.Close()

	s, err := Decode(file)
	if err != nil {
		return nil, errors.NewCorruptStoreError(path, err)
	}
	slog.Debug("loaded snapshot", "path", path, "records", s.Len())
	return s, nil
}

// Save replaces the records file atomically.
func (f *FileStore) Save(s *Store) error {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return err
	}
	if err := writeAtomic(f.Path(), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	slog.Debug("saved snapshot", "path", f.Path(), "records", s.Len())
	return nil
}

// LoadComponents reads the component registry. A missing file yields the
// default registry.
func (f *FileStore) LoadComponents() ([]artifact.Component, error) {
	path := f.ComponentsPath()
	file, err := os.Open(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return artifact.DefaultComponents(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open components: %w", err)
	}
	defer file.Close()
	return LoadComponents(file, path)
}

// SaveComponents replaces the component registry atomically.
func (f *FileStore) SaveComponents(components []artifact.Component) error {
	var buf bytes.Buffer
	if err := WriteComponents(&buf, components); err != nil {
		return err
	}
	if err := writeAtomic(f.ComponentsPath(), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save components: %w", err)
	}
	return nil
}

// writeAtomic writes data to a temporary file in the target directory and
// renames it over path. Readers see the old content or the new content,
// never a partial write.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
