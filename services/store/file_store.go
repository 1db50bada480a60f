package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"sjsage522/aptwatcher/logger"
	apperrors "sjsage522/aptwatcher/pkg/errors"
)

const component = "store"

// FileStore keeps the seen ids as a JSON array of strings in one file
type FileStore struct {
	path string
	log  *logger.Logger
}

// Ensure FileStore implements Store
var _ Store = (*FileStore)(nil)

// NewFileStore creates a store backed by path
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		log:  logger.ForStore().WithField("file", path),
	}
}

// Path returns the state file location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the state file. A missing or empty file is an empty set; a file
// that is not a JSON array of strings is a state corruption error, so the
// caller never mistakes a damaged file for "nothing seen yet".
func (s *FileStore) Load() (IDSet, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Info().Msg("No state file yet, starting with an empty set")
		return NewIDSet(), nil
	}
	if err != nil {
		return nil, apperrors.NewStateCorrupt(component, fmt.Sprintf("read %s", s.path), err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return NewIDSet(), nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, apperrors.NewStateCorrupt(component, fmt.Sprintf("decode %s", s.path), err)
	}

	return NewIDSet(ids...), nil
}

// Save writes previous ∪ current, sorted numerically, through a temporary
// file in the same directory that is renamed over the old state.
func (s *FileStore) Save(previous, current IDSet) (IDSet, error) {
	union := previous.Union(current)

	data, err := json.Marshal(union.Sorted())
	if err != nil {
		return nil, fmt.Errorf("encode seen ids: %w", err)
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		return nil, fmt.Errorf("save seen ids: %w", err)
	}

	s.log.Debug().
		Int("previous", len(previous)).
		Int("saved", len(union)).
		Msg("Saved seen ids")

	return union, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return renameio.WriteFile(path, data, 0o644, renameio.WithTempDir(dir))
}
