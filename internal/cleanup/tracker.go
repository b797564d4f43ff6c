// Package cleanup implements the Cleanup & Resource Tracker (§4.L):
// recording every non-trivial resource a create workflow acquires so
// destroy can reverse exactly those resources without re-parsing the
// range's description, and falling back to a best-effort scan when even
// the resource inventory itself is missing.
package cleanup

import (
	"github.com/cyris-project/cyris/internal/store"
)

// Tracker records resources into a range's ResourceInventory as they are
// acquired during create.
type Tracker struct {
	store *store.ResourceStore
}

func NewTracker(s *store.ResourceStore) *Tracker {
	return &Tracker{store: s}
}

func (t *Tracker) RecordDomain(rangeID string, d store.DomainResource) error {
	return t.store.Mutate(rangeID, func(inv *store.ResourceInventory) error {
		inv.AddDomain(d)
		return nil
	})
}

func (t *Tracker) RecordBridge(rangeID, bridge, hostID string) error {
	return t.store.Mutate(rangeID, func(inv *store.ResourceInventory) error {
		inv.AddBridge(store.BridgeResource{Name: bridge, HostID: hostID})
		return nil
	})
}

func (t *Tracker) RecordIPReservations(rangeID string, assignments []store.IPAssignment) error {
	return t.store.Mutate(rangeID, func(inv *store.ResourceInventory) error {
		inv.IPReservations = append(inv.IPReservations, assignments...)
		return nil
	})
}

func (t *Tracker) RecordBuiltImage(rangeID, imagePath string) error {
	return t.store.Mutate(rangeID, func(inv *store.ResourceInventory) error {
		for _, existing := range inv.BuiltImages {
			if existing == imagePath {
				return nil
			}
		}
		inv.BuiltImages = append(inv.BuiltImages, imagePath)
		return nil
	})
}

func (t *Tracker) RecordAppliedRules(rangeID string, marks []store.AppliedRuleMark) error {
	return t.store.Mutate(rangeID, func(inv *store.ResourceInventory) error {
		inv.AppliedRules = append(inv.AppliedRules, marks...)
		return nil
	})
}

func (t *Tracker) Inventory(rangeID string) (*store.ResourceInventory, error) {
	return t.store.Get(rangeID)
}

// ImageInUse reports whether any range's inventory still has an overlay
// backed by imagePath, used to decide whether a built image can be
// garbage-collected.
func (t *Tracker) ImageInUse(imagePath string) (bool, error) {
	return t.store.ReferencesImage(imagePath)
}
