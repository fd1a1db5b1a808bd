package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"flowfarm/domain/model"
	"flowfarm/domain/repository"
)

// FileLaneStore keeps lane credential records in one flat JSON file, the
// format the external capture tool writes. Reads load the whole file; writes
// rewrite it atomically (tmp + rename).
type FileLaneStore struct {
	mu   sync.Mutex
	path string
}

func NewFileLaneStore(path string) *FileLaneStore {
	return &FileLaneStore{path: path}
}

var _ repository.ILaneStore = (*FileLaneStore)(nil)

func (s *FileLaneStore) load() ([]model.Lane, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read lane file %s: %w", s.path, err)
	}
	var lanes []model.Lane
	if err := json.Unmarshal(data, &lanes); err != nil {
		return nil, fmt.Errorf("parse lane file %s: %w", s.path, err)
	}
	return lanes, nil
}

func (s *FileLaneStore) write(lanes []model.Lane) error {
	data, err := json.MarshalIndent(lanes, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "lanes-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileLaneStore) ListAll(_ context.Context) ([]model.Lane, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileLaneStore) FindByName(_ context.Context, name string) (*model.Lane, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lanes, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range lanes {
		if lanes[i].Name == name {
			return &lanes[i], nil
		}
	}
	return nil, nil
}

func (s *FileLaneStore) Save(_ context.Context, lane *model.Lane) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lanes, err := s.load()
	if err != nil {
		return err
	}
	replaced := false
	for i := range lanes {
		if lanes[i].Name == lane.Name {
			lanes[i] = *lane
			replaced = true
			break
		}
	}
	if !replaced {
		lanes = append(lanes, *lane)
	}
	return s.write(lanes)
}

func (s *FileLaneStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lanes, err := s.load()
	if err != nil {
		return err
	}
	kept := lanes[:0]
	for _, l := range lanes {
		if l.Name != name {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(lanes) {
		return fmt.Errorf("lane %s not found", name)
	}
	return s.write(kept)
}
