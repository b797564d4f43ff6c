package ipresolve

import (
	"bufio"
	"os"
	"os/exec"
	"strings"
)

// TopologySource answers from the IP assignment already recorded in range
// metadata (the address CyRIS itself allocated during topology synthesis),
// the cheapest and most trustworthy source of all.
type TopologySource struct {
	Lookup func(guestID string) (string, bool)
}

func (s TopologySource) Resolve(guestID, mac string) (string, float64, bool) {
	if s.Lookup == nil {
		return "", 0, false
	}
	ip, ok := s.Lookup(guestID)
	return ip, confidence[MethodTopology], ok
}

// HypervisorLeaseSource asks the hypervisor adapter for a DHCP lease it
// handed out on a libvirt-managed network.
type HypervisorLeaseSource struct {
	Lookup func(mac string) (string, bool)
}

func (s HypervisorLeaseSource) Resolve(guestID, mac string) (string, float64, bool) {
	if s.Lookup == nil {
		return "", 0, false
	}
	ip, ok := s.Lookup(mac)
	return ip, confidence[MethodLease], ok
}

// CLISource runs "virsh domifaddr <guest>" and parses the reported
// address, the same tool the hypervisor adapter itself shells out to.
type CLISource struct {
	VirshPath string
}

func (s CLISource) Resolve(guestID, mac string) (string, float64, bool) {
	virsh := s.VirshPath
	if virsh == "" {
		virsh = "virsh"
	}

	out, err := exec.Command(virsh, "domifaddr", guestID).Output()
	if err != nil {
		return "", 0, false
	}

	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		addr := fields[3] // "192.168.1.10/24"
		if idx := strings.Index(addr, "/"); idx > 0 {
			return addr[:idx], confidence[MethodCLI], true
		}
	}
	return "", 0, false
}

// DHCPLeaseFileSource parses a dnsmasq-style leases file looking for a
// MAC match, used when the hypervisor lease API is unavailable but the
// same dnsmasq instance still wrote its lease database to disk.
type DHCPLeaseFileSource struct {
	Path string
}

func (s DHCPLeaseFileSource) Resolve(guestID, mac string) (string, float64, bool) {
	f, err := os.Open(s.Path)
	if err != nil {
		return "", 0, false
	}
	defer f.Close()

	mac = strings.ToLower(mac)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		// dnsmasq.leases: <expiry> <mac> <ip> <hostname> <client-id>
		if len(fields) < 3 {
			continue
		}
		if strings.ToLower(fields[1]) == mac {
			return fields[2], confidence[MethodDHCPLease], true
		}
	}
	return "", 0, false
}

// BridgeFDBSource is the last resort: scan the bridge's neighbor table
// ("ip neigh show dev <bridge>") for an entry whose lladdr is mac. This
// only works once the guest has sent at least one frame.
type BridgeFDBSource struct {
	Bridge string
}

func (s BridgeFDBSource) Resolve(guestID, mac string) (string, float64, bool) {
	out, err := exec.Command("ip", "neigh", "show", "dev", s.Bridge).Output()
	if err != nil {
		return "", 0, false
	}

	mac = strings.ToLower(mac)
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		// "192.168.1.10 lladdr 52:54:00:aa:bb:cc REACHABLE"
		if len(fields) < 3 {
			continue
		}
		for i, f := range fields {
			if f == "lladdr" && i+1 < len(fields) && strings.ToLower(fields[i+1]) == mac {
				return fields[0], confidence[MethodBridgeFDB], true
			}
		}
	}
	return "", 0, false
}
