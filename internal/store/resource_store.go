package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cyris-project/cyris/internal/filelock"
)

// ResourceStore persists ResourceInventory documents to
// ranges_resources.json.
type ResourceStore struct {
	path string
}

func NewResourceStore(path string) *ResourceStore {
	return &ResourceStore{path: path}
}

func (s *ResourceStore) readAll() (map[string]*ResourceInventory, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]*ResourceInventory{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return map[string]*ResourceInventory{}, nil
	}

	var inv map[string]*ResourceInventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.path, err)
	}
	return inv, nil
}

func (s *ResourceStore) writeAll(inv map[string]*ResourceInventory) error {
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Get returns the inventory for rangeID, or nil if none is recorded (§4.L
// "if the file is missing, a best-effort scan discovers resources").
func (s *ResourceStore) Get(rangeID string) (*ResourceInventory, error) {
	var result *ResourceInventory

	err := filelock.WithLock(s.path, func() error {
		inv, err := s.readAll()
		if err != nil {
			return err
		}
		result = inv[rangeID]
		return nil
	})

	return result, err
}

func (s *ResourceStore) Put(r *ResourceInventory) error {
	return filelock.WithLock(s.path, func() error {
		inv, err := s.readAll()
		if err != nil {
			return err
		}
		inv[r.RangeID] = r
		return s.writeAll(inv)
	})
}

// Mutate loads (or creates, if absent) the inventory for rangeID, applies
// fn, and persists the result under a single lock hold.
func (s *ResourceStore) Mutate(rangeID string, fn func(*ResourceInventory) error) error {
	return filelock.WithLock(s.path, func() error {
		inv, err := s.readAll()
		if err != nil {
			return err
		}

		r, ok := inv[rangeID]
		if !ok {
			r = &ResourceInventory{RangeID: rangeID}
			inv[rangeID] = r
		}

		if err := fn(r); err != nil {
			return err
		}

		return s.writeAll(inv)
	})
}

func (s *ResourceStore) Delete(rangeID string) error {
	return filelock.WithLock(s.path, func() error {
		inv, err := s.readAll()
		if err != nil {
			return err
		}
		delete(inv, rangeID)
		return s.writeAll(inv)
	})
}

// ReferencesImage reports whether any range's recorded resources still
// reference imagePath as a backing file.
func (s *ResourceStore) ReferencesImage(imagePath string) (bool, error) {
	var referenced bool

	err := filelock.WithLock(s.path, func() error {
		inv, err := s.readAll()
		if err != nil {
			return err
		}
		for _, r := range inv {
			if r.ReferencesImage(imagePath) {
				referenced = true
				return nil
			}
		}
		return nil
	})

	return referenced, err
}
