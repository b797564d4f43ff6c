package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cyris-project/cyris/internal/appconfig"
	"github.com/cyris-project/cyris/internal/elevate"
	"github.com/cyris-project/cyris/internal/hypervisor"
	"github.com/cyris-project/cyris/internal/ipresolve"
	"github.com/cyris-project/cyris/internal/ledger"
	"github.com/cyris-project/cyris/internal/orchestrator"
	"github.com/cyris-project/cyris/internal/progress"
	"github.com/cyris-project/cyris/internal/sshexec"
	"github.com/cyris-project/cyris/internal/store"
)

// buildOrchestrator wires every component into one Orchestrator for a
// single CLI invocation, binding phase to the current subcommand's
// ledger context since a process lives for exactly one workflow.
func buildOrchestrator(cfg *appconfig.Config, phase string) *orchestrator.Orchestrator {
	metaPath := filepath.Join(cfg.CyberRangeDir, "ranges_metadata.json")
	resPath := filepath.Join(cfg.CyberRangeDir, "ranges_resources.json")

	reg := ledger.NewRegistry()
	metaStore := store.NewMetadataStore(metaPath)
	resolver := ipresolve.NewResolver()

	elev := elevate.NewExecutor(func(host string) (string, error) {
		return elevate.ReadPasswordPrompt(0, func(prompt string) { fmt.Fprint(os.Stderr, prompt) })
	})

	wireResolver(resolver, cfg, reg, elev, metaStore, phase)

	return &orchestrator.Orchestrator{
		Metadata:      metaStore,
		Resources:     store.NewResourceStore(resPath),
		Ledger:        reg,
		Resolver:      resolver,
		Elevator:      elev,
		Reporter:      progress.NewPlainReporter(os.Stdout, true),
		CyberRangeDir: cfg.CyberRangeDir,
		HypervisorFor: func(hostID string) (hypervisor.Adapter, error) {
			ctx := ledger.Context{Phase: phase}
			return hypervisor.NewKVM(cfg.LibvirtURI, reg, ctx, elev, hostID, cfg.GWAccount), nil
		},
		Credentials: func(hostID string) sshexec.Credentials {
			return sshexec.Credentials{User: cfg.GWAccount}
		},
	}
}

// wireResolver registers every ipresolve.Source in §4.E's priority order.
// Without this, Resolver.Resolve has nothing to try and every lookup
// fails outright (§4.J step 7's readiness wait would never succeed).
// TopologySource and CLISource are fully general; HypervisorLeaseSource,
// ARPSource, and BridgeFDBSource need a specific network/bridge to probe
// that is only known once a range's topology exists, so they are wired
// against libvirt's "default" network and an unset bridge respectively --
// a range whose topology names its own bridges can still resolve through
// TopologySource or CLISource ahead of them in the chain.
func wireResolver(resolver *ipresolve.Resolver, cfg *appconfig.Config, reg *ledger.Registry, elev *elevate.Executor, metaStore *store.MetadataStore, phase string) {
	leaseHV := hypervisor.NewKVM(cfg.LibvirtURI, reg, ledger.Context{Phase: phase}, elev, "", cfg.GWAccount)

	resolver.Register(ipresolve.MethodTopology, ipresolve.TopologySource{
		Lookup: func(guestID string) (string, bool) {
			ranges, err := metaStore.List()
			if err != nil {
				return "", false
			}
			for _, m := range ranges {
				for _, a := range m.IPAssignments {
					if a.GuestID == guestID {
						return a.IP, true
					}
				}
			}
			return "", false
		},
	})

	resolver.Register(ipresolve.MethodLease, ipresolve.HypervisorLeaseSource{
		Lookup: func(mac string) (string, bool) {
			if mac == "" {
				return "", false
			}
			leases, err := leaseHV.Leases("default")
			if err != nil {
				return "", false
			}
			for _, l := range leases {
				if strings.EqualFold(l.MAC, mac) {
					return l.IP, true
				}
			}
			return "", false
		},
	})

	resolver.Register(ipresolve.MethodCLI, ipresolve.CLISource{})

	resolver.Register(ipresolve.MethodARP, ipresolve.ARPSource{})

	resolver.Register(ipresolve.MethodDHCPLease, ipresolve.DHCPLeaseFileSource{
		Path: "/var/lib/libvirt/dnsmasq/default.leases",
	})

	resolver.Register(ipresolve.MethodBridgeFDB, ipresolve.BridgeFDBSource{})
}
