// Package orchestrator implements the Range Orchestrator (§4.J): the
// create/destroy/remove workflows and the range lifecycle state machine
// that every other component answers to.
package orchestrator

import (
	"fmt"

	"github.com/gofrs/uuid"

	"github.com/cyris-project/cyris/internal/cleanup"
	"github.com/cyris-project/cyris/internal/config"
	"github.com/cyris-project/cyris/internal/cyrierr"
	"github.com/cyris-project/cyris/internal/elevate"
	"github.com/cyris-project/cyris/internal/hypervisor"
	"github.com/cyris-project/cyris/internal/imagebuild"
	"github.com/cyris-project/cyris/internal/ipresolve"
	"github.com/cyris-project/cyris/internal/ledger"
	"github.com/cyris-project/cyris/internal/progress"
	"github.com/cyris-project/cyris/internal/sshexec"
	"github.com/cyris-project/cyris/internal/store"
)

// DefaultConcurrency is the default bound on cross-guest parallel work
// (§4.J step 8, "min(number_of_guests, 8)").
const DefaultConcurrency = 8

// Orchestrator wires together every other component into the three
// range-lifecycle workflows.
type Orchestrator struct {
	Metadata   *store.MetadataStore
	Resources  *store.ResourceStore
	Ledger     *ledger.Registry
	Resolver   *ipresolve.Resolver
	Builder    *imagebuild.Builder
	Elevator   *elevate.Executor
	Reporter   progress.Reporter
	CyberRangeDir string
	Concurrency   int

	// HypervisorFor resolves the Adapter for a given host_id, since each
	// host in clone_settings may need its own libvirt connection URI.
	HypervisorFor func(hostID string) (hypervisor.Adapter, error)

	// Credentials resolves the SSH identity to use against a host.
	Credentials func(hostID string) sshexec.Credentials
}

func (o *Orchestrator) concurrency(nGuests int) int {
	c := o.Concurrency
	if c <= 0 {
		c = DefaultConcurrency
	}
	if nGuests < c {
		return nGuests
	}
	return c
}

// NewRangeID generates a fresh range identifier (§3 RangeMetadata
// "user-supplied or generated"), grounded on the pack's gofrs/uuid usage.
func NewRangeID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", cyrierr.Wrap(cyrierr.Environment, err, "generate range id")
	}
	return "r-" + id.String()[:8], nil
}

func rangeDir(base, rangeID string) string {
	return fmt.Sprintf("%s/%s", base, rangeID)
}

// tracker adapts the Orchestrator's resource store into the
// interface internal/cleanup expects, keeping that package ignorant of
// how metadata/resources are actually persisted.
func (o *Orchestrator) tracker() *cleanup.Tracker {
	return cleanup.NewTracker(o.Resources)
}
