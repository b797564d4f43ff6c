package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cyris-project/cyris/internal/filelock"
)

// MetadataStore persists RangeMetadata documents to ranges_metadata.json
// (§3, §6 persisted state layout), guarding every mutation with an
// exclusive file lock.
type MetadataStore struct {
	path string
}

func NewMetadataStore(path string) *MetadataStore {
	return &MetadataStore{path: path}
}

func (s *MetadataStore) readAll() (map[string]*RangeMetadata, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]*RangeMetadata{}, nil
	}
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return map[string]*RangeMetadata{}, nil
	}

	var ranges map[string]*RangeMetadata
	if err := json.Unmarshal(data, &ranges); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.path, err)
	}

	return ranges, nil
}

func (s *MetadataStore) writeAll(ranges map[string]*RangeMetadata) error {
	data, err := json.MarshalIndent(ranges, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}

// Get returns the metadata for rangeID, or nil if it does not exist.
func (s *MetadataStore) Get(rangeID string) (*RangeMetadata, error) {
	var result *RangeMetadata

	err := filelock.WithLock(s.path, func() error {
		ranges, err := s.readAll()
		if err != nil {
			return err
		}
		result = ranges[rangeID]
		return nil
	})

	return result, err
}

// List returns all known range metadata, in no particular order.
func (s *MetadataStore) List() ([]*RangeMetadata, error) {
	var result []*RangeMetadata

	err := filelock.WithLock(s.path, func() error {
		ranges, err := s.readAll()
		if err != nil {
			return err
		}
		for _, m := range ranges {
			result = append(result, m)
		}
		return nil
	})

	return result, err
}

// Put creates or overwrites the metadata entry for m.RangeID.
func (s *MetadataStore) Put(m *RangeMetadata) error {
	return filelock.WithLock(s.path, func() error {
		ranges, err := s.readAll()
		if err != nil {
			return err
		}
		ranges[m.RangeID] = m
		return s.writeAll(ranges)
	})
}

// Mutate loads the current metadata for rangeID, applies fn, and persists
// the result, all under a single file-lock hold so concurrent callers can't
// interleave a read-modify-write cycle.
func (s *MetadataStore) Mutate(rangeID string, fn func(*RangeMetadata) error) error {
	return filelock.WithLock(s.path, func() error {
		ranges, err := s.readAll()
		if err != nil {
			return err
		}

		m, ok := ranges[rangeID]
		if !ok {
			return fmt.Errorf("range %s not found", rangeID)
		}

		if err := fn(m); err != nil {
			return err
		}

		return s.writeAll(ranges)
	})
}

// Delete removes the metadata entry for rangeID (§4.J "REMOVED deletes
// metadata").
func (s *MetadataStore) Delete(rangeID string) error {
	return filelock.WithLock(s.path, func() error {
		ranges, err := s.readAll()
		if err != nil {
			return err
		}
		delete(ranges, rangeID)
		return s.writeAll(ranges)
	})
}
