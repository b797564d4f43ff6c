package topology

import (
	"net"
	"sort"

	"github.com/cyris-project/cyris/internal/config"
	"github.com/cyris-project/cyris/internal/cyrierr"
	"github.com/cyris-project/cyris/internal/store"
)

// AllocateIPs assigns one reserved address per member interface in each
// declared network, walking members in sorted (guest_id, iface) order so
// the same topology always produces the same assignment regardless of
// declaration order in the description file.
func AllocateIPs(host config.CloneHost) ([]store.IPAssignment, error) {
	var assignments []store.IPAssignment

	for _, name := range config.SortedNetworkNames(host) {
		netDecl, ok := findNetwork(host, name)
		if !ok {
			continue
		}

		addrs, err := usableAddresses(netDecl.Subnet)
		if err != nil {
			return nil, cyrierr.Wrap(cyrierr.Network, err, "network "+name).WithField("topology.networks." + name + ".subnet")
		}

		members := sortedMembers(netDecl.Members)
		if len(members) > len(addrs) {
			return nil, cyrierr.New(cyrierr.Network, "subnet "+netDecl.Subnet+" has too few addresses for network "+name).
				WithField("topology.networks." + name)
		}

		for i, m := range members {
			assignments = append(assignments, store.IPAssignment{
				GuestID: m.GuestID,
				Iface:   m.Iface,
				Network: name,
				IP:      addrs[i],
			})
		}
	}

	return assignments, nil
}

func findNetwork(host config.CloneHost, name string) (config.Network, bool) {
	for _, topo := range host.Topology {
		for _, n := range topo.Networks {
			if n.Name == name {
				return n, true
			}
		}
	}
	return config.Network{}, false
}

func allForwardingRules(host config.CloneHost) []config.ForwardingRule {
	var rules []config.ForwardingRule
	for _, topo := range host.Topology {
		rules = append(rules, topo.ForwardingRules...)
	}
	return rules
}

func sortedMembers(members []config.NetworkMember) []config.NetworkMember {
	sorted := make([]config.NetworkMember, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].GuestID != sorted[j].GuestID {
			return sorted[i].GuestID < sorted[j].GuestID
		}
		return sorted[i].Iface < sorted[j].Iface
	})
	return sorted
}

// usableAddresses returns every host address in subnet except the network
// address, the broadcast address, and .1 (reserved for the bridge's own
// gateway address), in ascending order.
func usableAddresses(subnet string) ([]string, error) {
	_, ipnet, err := net.ParseCIDR(subnet)
	if err != nil {
		return nil, err
	}

	var addrs []string
	ip := ipnet.IP.Mask(ipnet.Mask)
	gateway := nextIP(ip)

	for cur := nextIP(gateway); ipnet.Contains(cur); cur = nextIP(cur) {
		if isBroadcast(cur, ipnet) {
			break
		}
		addrs = append(addrs, cur.String())
	}
	return addrs, nil
}

func nextIP(ip net.IP) net.IP {
	next := make(net.IP, len(ip))
	copy(next, ip)
	for i := len(next) - 1; i >= 0; i-- {
		next[i]++
		if next[i] != 0 {
			break
		}
	}
	return next
}

func isBroadcast(ip net.IP, ipnet *net.IPNet) bool {
	broadcast := make(net.IP, len(ipnet.IP))
	for i := range ipnet.IP {
		broadcast[i] = ipnet.IP[i] | ^ipnet.Mask[i]
	}
	return ip.Equal(broadcast)
}
