package orchestrator

import (
	"os"
	"time"

	"github.com/cyris-project/cyris/internal/cleanup"
	"github.com/cyris-project/cyris/internal/cyrierr"
	"github.com/cyris-project/cyris/internal/cyrislog"
	"github.com/cyris-project/cyris/internal/hypervisor"
	"github.com/cyris-project/cyris/internal/ledger"
	"github.com/cyris-project/cyris/internal/store"
	"github.com/cyris-project/cyris/internal/topology"
)

// destroyGrace is how long Destroy waits for a clean domain shutdown
// before forcing it off (§4.J "shutdown domains (grace 30s, then force)").
const destroyGrace = 30 * time.Second

func primaryHostID(m *store.RangeMetadata) string {
	if len(m.ClonedGuests) > 0 {
		return m.ClonedGuests[0].HostID
	}
	return ""
}

// Destroy runs the destroy workflow: shutdown every domain, undefine it
// (attached ISOs go with the definition), delete overlays, tear down bridges and forwarding rules, then
// leave the range's metadata in DESTROYED. It is idempotent: destroying a
// range that is already DESTROYED, or that has partial resources left
// over from a crashed create, still succeeds, reversing whatever is
// actually found.
func (o *Orchestrator) Destroy(rangeID string) error {
	meta, err := o.Metadata.Get(rangeID)
	if err != nil {
		return cyrierr.Wrap(cyrierr.Resource, err, "load range metadata")
	}

	if meta.Status == store.StatusDestroyed {
		return nil
	}
	if err := meta.Transition(store.StatusDestroying); err != nil {
		return cyrierr.Wrap(cyrierr.Resource, err, "transition to destroying")
	}
	o.Metadata.Put(meta)

	tracker := o.tracker()
	inv, err := tracker.Inventory(rangeID)
	if err != nil || inv == nil {
		domains, bridges := cleanup.BestEffortScan(rangeID)
		inv = &store.ResourceInventory{RangeID: rangeID}
		for _, d := range domains {
			inv.AddDomain(store.DomainResource{Name: d})
		}
		for _, b := range bridges {
			inv.AddBridge(store.BridgeResource{Name: b})
		}
	}

	var failures []error
	fallbackHost := primaryHostID(meta)

	for _, d := range inv.Domains {
		hostID := d.HostID
		if hostID == "" {
			hostID = fallbackHost
		}

		hv, err := o.HypervisorFor(hostID)
		if err != nil {
			failures = append(failures, err)
			continue
		}

		if d.ISOPath != "" {
			// the adapter has no detach-only operation; undefine below
			// removes the attached device along with the domain.
			cyrislog.Debug("destroy: domain %s carries iso %s, dropped with undefine", d.Name, d.ISOPath)
		}

		if err := shutdownThenForce(hv, d.Name); err != nil {
			cyrislog.Warn("destroy: %s did not stop cleanly: %v", d.Name, err)
		}
		if err := hv.Undefine(d.Name); err != nil {
			cyrislog.Warn("destroy: undefine of %s failed: %v", d.Name, err)
		}
		if err := deleteOverlay(d.OverlayPath); err != nil {
			failures = append(failures, err)
		}

		if o.Resolver != nil {
			o.Resolver.Invalidate(d.Name)
		}
	}

	ctx := ledger.Context{RangeID: rangeID, Phase: "destroy"}
	account := o.Credentials(fallbackHost).User
	topology.Teardown(o.Ledger, ctx, rangeID, inv.AppliedRules, o.Elevator, fallbackHost, account)

	for _, bridge := range inv.Bridges {
		hostID := bridge.HostID
		if hostID == "" {
			hostID = fallbackHost
		}

		hv, err := o.HypervisorFor(hostID)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		if err := hv.NetworkDestroy(bridge.Name); err != nil {
			cyrislog.Warn("destroy: network_destroy of %s failed: %v", bridge.Name, err)
		}
	}

	meta.Transition(store.StatusDestroyed)
	o.Metadata.Put(meta)

	if len(failures) > 0 {
		return cyrierr.New(cyrierr.Resource, "destroy completed with errors, see log").WithField(rangeID)
	}
	return nil
}

func shutdownThenForce(hv hypervisor.Adapter, name string) error {
	if err := hv.Shutdown(name, destroyGrace); err == nil {
		return nil
	}
	return hv.Destroy(name)
}

func deleteOverlay(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return cyrierr.Wrap(cyrierr.Resource, err, "delete overlay "+path)
	}
	return nil
}
