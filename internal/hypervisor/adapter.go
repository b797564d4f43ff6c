// Package hypervisor implements the Hypervisor Adapter (§4.F): a provider
// interface with a libvirt/KVM backend that shells out to virsh,
// qemu-img, and virt-install, and an AWS stub that reports itself
// unavailable (AWS guests are explicitly out of scope, spec §1 Non-goals).
package hypervisor

import (
	"time"

	"github.com/cyris-project/cyris/internal/config"
)

// DomainSpec describes the domain to define/clone/start.
type DomainSpec struct {
	Name          string
	BaseImage     string // backing qcow2 for a kvm-auto clone
	OverlayPath   string // this domain's own qcow2 overlay
	VCPUs         int
	MemoryMiB     int
	Network       string // bridge name to attach the primary NIC to
	Graphics      config.GraphicsType
	GraphicsPort  int
	NetworkModel  config.NetworkModel
	OSVariant     string
	ExtraArgs     []string
}

// Lease is a DHCP lease reported by the hypervisor's own network manager.
type Lease struct {
	MAC string
	IP  string
}

// Adapter is implemented once per target hypervisor.
type Adapter interface {
	Define(spec DomainSpec) error
	DefineFromXML(xmlPath string, spec DomainSpec) error
	Start(name string) error
	Shutdown(name string, timeout time.Duration) error
	Destroy(name string) error
	Undefine(name string) error
	Clone(baseImage, overlayPath string) error
	AttachISO(name, isoPath string) error
	NetworkCreate(bridge, subnet string) error
	NetworkDestroy(bridge string) error
	Leases(network string) ([]Lease, error)
}
