// Package ipresolve implements the VM-IP Resolver (§4.E): finding the
// management address of a freshly cloned guest through a chain of
// increasingly expensive and increasingly unreliable methods, caching
// whatever answer is found for 60 seconds.
package ipresolve

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/cyris-project/cyris/internal/cyrierr"
	"github.com/cyris-project/cyris/internal/cyrislog"
)

// Method identifies which resolution strategy produced an address.
type Method string

const (
	MethodTopology  Method = "topology_metadata"
	MethodLease     Method = "hypervisor_lease"
	MethodCLI       Method = "hypervisor_cli"
	MethodARP       Method = "arp_scan"
	MethodDHCPLease Method = "dhcp_leases"
	MethodBridgeFDB Method = "bridge_scan"
)

// orderedMethods is the priority order from §4.E: cheapest and most
// trustworthy source first, most invasive scan last.
var orderedMethods = []Method{
	MethodTopology,
	MethodLease,
	MethodCLI,
	MethodARP,
	MethodDHCPLease,
	MethodBridgeFDB,
}

const cacheTTL = 60 * time.Second

// confidence is the trust weight attached to each method's answer (§4.E,
// §8 scenario 3), highest for the allocation CyRIS itself recorded and
// lowest for a passive neighbor-table scan that only works after the guest has sent
// a frame.
var confidence = map[Method]float64{
	MethodTopology:  1.0,
	MethodLease:     0.9,
	MethodCLI:       0.85,
	MethodARP:       0.6,
	MethodDHCPLease: 0.7,
	MethodBridgeFDB: 0.4,
}

// Source is implemented once per Method; Resolve returns the address it
// was able to find, or ("", 0, false) when the method has nothing to
// offer without it being a hard failure (e.g. no lease on file yet).
type Source interface {
	Resolve(guestID, mac string) (ip string, confidence float64, ok bool)
}

// Resolver chains Sources in priority order and caches hits.
type Resolver struct {
	sources map[Method]Source
	cache   *cache.Cache
}

func NewResolver() *Resolver {
	return &Resolver{
		sources: make(map[Method]Source),
		cache:   cache.New(cacheTTL, cacheTTL),
	}
}

// Register installs (or replaces) the Source backing a Method.
func (r *Resolver) Register(m Method, s Source) {
	r.sources[m] = s
}

// Invalidate drops any cached address for guestID, called by the
// orchestrator on every range state transition since an old lease can go
// stale the moment a VM is stopped or destroyed.
func (r *Resolver) Invalidate(guestID string) {
	r.cache.Delete(guestID)
}

// Resolve returns the guest's current address, the method that produced
// it, and a confidence score in [0,1] (§4.E, §8 scenario 3), trying each
// registered Source in priority order.
func (r *Resolver) Resolve(guestID, mac string) (string, Method, float64, error) {
	if cached, ok := r.cache.Get(guestID); ok {
		entry := cached.(cacheEntry)
		return entry.ip, entry.method, entry.confidence, nil
	}

	for _, m := range orderedMethods {
		src, ok := r.sources[m]
		if !ok {
			continue
		}
		ip, conf, found := src.Resolve(guestID, mac)
		if !found {
			continue
		}
		if conf == 0 {
			conf = confidence[m]
		}
		cyrislog.Debug("ipresolve: %s resolved via %s -> %s (confidence %.2f)", guestID, m, ip, conf)
		r.cache.Set(guestID, cacheEntry{ip: ip, method: m, confidence: conf}, cacheTTL)
		return ip, m, conf, nil
	}

	return "", "", 0, cyrierr.New(cyrierr.Network, fmt.Sprintf("could not resolve an address for guest %s", guestID))
}

type cacheEntry struct {
	ip         string
	method     Method
	confidence float64
}
