// Package topology implements the Topology & L3 Policy component (§4.H):
// range-local bridge naming, deterministic IP allocation, and forwarding
// rule synthesis/application.
package topology

import "fmt"

// BridgeName returns the per-range, per-network bridge name. Bridges are
// never shared across ranges even when two ranges declare a network with
// the same name.
func BridgeName(rangeID, networkName string) string {
	return fmt.Sprintf("cr-br-%s-%s", rangeID, networkName)
}
