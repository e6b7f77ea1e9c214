package session

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/matzehuels/cratetree/pkg/collapse"
	"github.com/matzehuels/cratetree/pkg/errors"
)

// DefaultStateDir is the state directory, relative to the working directory.
const DefaultStateDir = ".cratetree"

// stateFile is the file holding all saved states of a directory.
const stateFile = "state.json"

// SavedState is the expansion state of one document.
type SavedState struct {
	collapse.State
	Source  string    `json:"source,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

// FileStore persists expansion states in a single JSON file, keyed by the
// content hash of the document they were saved for. A document that changes
// gets a fresh hash, so stale states are never applied.
type FileStore struct {
	mu      sync.Mutex
	baseDir string
}

// NewFileStore creates a file-based state store.
// If baseDir is empty, DefaultStateDir is used.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		baseDir = DefaultStateDir
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create state dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Path returns the state file path.
func (s *FileStore) Path() string {
	return filepath.Join(s.baseDir, stateFile)
}

// Get returns the state saved for docHash and whether one exists.
func (s *FileStore) Get(docHash string) (SavedState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return SavedState{}, false, err
	}
	st, ok := all[docHash]
	return st, ok, nil
}

// Set saves st for docHash.
func (s *FileStore) Set(docHash string, st SavedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	if st.SavedAt.IsZero() {
		st.SavedAt = time.Now().UTC()
	}
	all[docHash] = st
	return s.write(all)
}

// Delete removes the state saved for docHash.
func (s *FileStore) Delete(docHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := all[docHash]; !ok {
		return nil
	}
	delete(all, docHash)
	return s.write(all)
}

// Cleanup removes states saved before cutoff and returns how many were
// removed.
func (s *FileStore) Cleanup(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return 0, err
	}
	removed := 0
	for k, st := range all {
		if st.SavedAt.Before(cutoff) {
			delete(all, k)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.write(all)
}

func (s *FileStore) read() (map[string]SavedState, error) {
	all := make(map[string]SavedState)
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return all, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read state file")
	}
	// A corrupt state file is treated as empty and overwritten.
	if err := json.Unmarshal(data, &all); err != nil {
		return make(map[string]SavedState), nil
	}
	return all, nil
}

func (s *FileStore) write(all map[string]SavedState) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal state")
	}
	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write state file")
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "replace state file")
	}
	return nil
}
