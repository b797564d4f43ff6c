package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyris-project/cyris/internal/config"
)

func twoGuestHost() config.CloneHost {
	return config.CloneHost{
		HostID: "host1",
		Guests: []config.GuestClone{{GuestID: "desktop", Number: 2}},
		Topology: []config.Topology{{
			Networks: []config.Network{
				{
					Name:   "office",
					Subnet: "192.168.10.0/24",
					Members: []config.NetworkMember{
						{GuestID: "desktop.1", Iface: "eth0"},
						{GuestID: "desktop.2", Iface: "eth0"},
					},
				},
				{
					Name:   "dmz",
					Subnet: "192.168.20.0/24",
					Members: []config.NetworkMember{
						{GuestID: "desktop.1", Iface: "eth1"},
					},
				},
			},
			ForwardingRules: []config.ForwardingRule{
				{SrcNetwork: "office", DstNetwork: "dmz", DPort: 80},
			},
		}},
	}
}

func TestBridgeName(t *testing.T) {
	assert.Equal(t, "cr-br-tid-office", BridgeName("tid", "office"))
}

func TestAllocateIPs_DeterministicAndSkipsGatewayAndBroadcast(t *testing.T) {
	host := twoGuestHost()
	assignments, err := AllocateIPs(host)
	require.NoError(t, err)
	require.Len(t, assignments, 3)

	// Networks are walked in sorted name order, so "dmz" comes before "office".
	assert.Equal(t, "192.168.20.2", assignments[0].IP)
	assert.Equal(t, "192.168.10.2", assignments[1].IP)
	assert.Equal(t, "192.168.10.3", assignments[2].IP)

	for _, a := range assignments {
		assert.NotEqual(t, "192.168.10.1", a.IP)
		assert.NotEqual(t, "192.168.10.255", a.IP)
	}
}

func TestSynthesizeRules_IncludesDportAndCatchAll(t *testing.T) {
	host := twoGuestHost()
	rules, err := SynthesizeRules("tid", host)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Contains(t, rules[0], "192.168.10.0/24")
	assert.Contains(t, rules[0], "192.168.20.0/24")
	assert.Contains(t, rules[0], "--dport 80")
	assert.Contains(t, rules[1], "ESTABLISHED,RELATED")
}

func TestSynthesizeRules_UnknownNetworkErrors(t *testing.T) {
	host := twoGuestHost()
	host.Topology[0].ForwardingRules[0].SrcNetwork = "missing"

	_, err := SynthesizeRules("tid", host)
	require.Error(t, err)
}
