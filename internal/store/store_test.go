package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataStore_PutGetList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranges_metadata.json")
	s := NewMetadataStore(path)

	m := &RangeMetadata{RangeID: "basic", Status: StatusCreating}
	require.NoError(t, s.Put(m))

	got, err := s.Get("basic")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StatusCreating, got.Status)

	list, err := s.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMetadataStore_MutateAndDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranges_metadata.json")
	s := NewMetadataStore(path)

	require.NoError(t, s.Put(&RangeMetadata{RangeID: "basic", Status: StatusCreating}))

	err := s.Mutate("basic", func(m *RangeMetadata) error {
		return m.Transition(StatusActive)
	})
	require.NoError(t, err)

	got, _ := s.Get("basic")
	assert.Equal(t, StatusActive, got.Status)

	require.NoError(t, s.Delete("basic"))
	got, _ = s.Get("basic")
	assert.Nil(t, got)
}

func TestRangeMetadata_IllegalTransition(t *testing.T) {
	m := &RangeMetadata{Status: StatusDestroyed}
	err := m.Transition(StatusActive)
	assert.Error(t, err)
	assert.Equal(t, StatusDestroyed, m.Status)
}

func TestRangeMetadata_RemovedIsTerminal(t *testing.T) {
	assert.False(t, CanTransition(StatusRemoved, StatusActive))
	assert.False(t, CanTransition(StatusRemoved, StatusCreating))
}

func TestResourceStore_ReferencesImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranges_resources.json")
	s := NewResourceStore(path)

	err := s.Mutate("basic", func(r *ResourceInventory) error {
		r.AddDomain(DomainResource{Name: "cyris-desktop-abc123", BackingImage: "/images/ubuntu.qcow2"})
		return nil
	})
	require.NoError(t, err)

	referenced, err := s.ReferencesImage("/images/ubuntu.qcow2")
	require.NoError(t, err)
	assert.True(t, referenced)

	referenced, err = s.ReferencesImage("/images/other.qcow2")
	require.NoError(t, err)
	assert.False(t, referenced)
}
