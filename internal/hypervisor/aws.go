package hypervisor

import (
	"time"

	"github.com/cyris-project/cyris/internal/cyrierr"
)

// AWS is a stub Adapter: cloud guests are declared in the entity model
// (config.BaseVMType "aws") but provisioning them is out of scope, so
// every operation fails fast with an ENVIRONMENT error that names the
// missing capability rather than a generic "not implemented".
type AWS struct{}

func (AWS) unsupported(op string) error {
	return cyrierr.New(cyrierr.Environment, "aws adapter: "+op+" is not supported").
		WithAdvice("use basevm_type: kvm or kvm-auto for guests CyRIS provisions directly")
}

func (a AWS) Define(spec DomainSpec) error                         { return a.unsupported("define") }
func (a AWS) DefineFromXML(xmlPath string, spec DomainSpec) error  { return a.unsupported("define") }
func (a AWS) Start(name string) error                             { return a.unsupported("start") }
func (a AWS) Shutdown(name string, timeout time.Duration) error   { return a.unsupported("shutdown") }
func (a AWS) Destroy(name string) error                           { return a.unsupported("destroy") }
func (a AWS) Undefine(name string) error                          { return a.unsupported("undefine") }
func (a AWS) Clone(baseImage, overlayPath string) error           { return a.unsupported("clone") }
func (a AWS) AttachISO(name, isoPath string) error                { return a.unsupported("attach_iso") }
func (a AWS) NetworkCreate(bridge, subnet string) error           { return a.unsupported("network_create") }
func (a AWS) NetworkDestroy(bridge string) error                  { return a.unsupported("network_destroy") }
func (a AWS) Leases(network string) ([]Lease, error)               { return nil, a.unsupported("leases") }
