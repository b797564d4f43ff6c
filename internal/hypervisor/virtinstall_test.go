package hypervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildVirtInstallArgs_DeterministicOrder(t *testing.T) {
	spec := DomainSpec{
		Name:        "desktop",
		MemoryMiB:   2048,
		VCPUs:       2,
		OverlayPath: "/var/lib/cyris/desktop.qcow2",
		Network:     "cr-br-r1-office",
		OSVariant:   "ubuntu20.04",
	}

	args := BuildVirtInstallArgs(spec)
	a := BuildVirtInstallArgs(spec)
	assert.Equal(t, args, a)

	assert.Equal(t, []string{"--name", "desktop"}, args[0:2])
	assert.Equal(t, "--import", args[len(args)-2])
	assert.Equal(t, "--noautoconsole", args[len(args)-1])
}

func TestBuildVirtInstallArgs_DefaultsGraphicsAndNetworkModel(t *testing.T) {
	spec := DomainSpec{Name: "x", MemoryMiB: 512, VCPUs: 1, OverlayPath: "/tmp/x.qcow2"}
	args := BuildVirtInstallArgs(spec)
	assert.Contains(t, args, "--graphics")

	idx := indexOf(args, "--graphics")
	assert.Equal(t, "vnc", args[idx+1])
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
