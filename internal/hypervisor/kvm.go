package hypervisor

import (
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/cyris-project/cyris/internal/cyrierr"
	"github.com/cyris-project/cyris/internal/elevate"
	"github.com/cyris-project/cyris/internal/ledger"
)

// KVM is the libvirt/KVM Adapter implementation. Every command it runs is
// recorded through the operation ledger so create/destroy workflows leave
// a full audit trail of what was shelled out. Host/Account name the
// identity virsh/virt-install/qemu-img/ip must be elevated as (§4.C);
// Elevator is nil for a local, already-privileged invocation.
type KVM struct {
	URI      string
	Ledger   *ledger.Registry
	Context  ledger.Context
	Elevator *elevate.Executor
	Host     string
	Account  string
	pool     *connPool
}

func NewKVM(uri string, reg *ledger.Registry, ctx ledger.Context, elev *elevate.Executor, host, account string) *KVM {
	return &KVM{URI: uri, Ledger: reg, Context: ctx, Elevator: elev, Host: host, Account: account, pool: newConnPool()}
}

// runElevated runs cmd as Account on Host via Elevator when one is
// configured, falling back to running it as the current process's own
// identity otherwise.
func (k *KVM) runElevated(cmd *exec.Cmd) (string, string, int, error) {
	if k.Elevator != nil && k.Account != "" {
		res, err := k.Elevator.Run(k.Host, k.Account, cmd)
		if err != nil {
			return res.Stdout, res.Stderr, res.ExitCode, err
		}
		return res.Stdout, res.Stderr, res.ExitCode, nil
	}

	out, err := cmd.CombinedOutput()
	exitCode := 0
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		} else {
			exitCode = 1
		}
	}
	return string(out), "", exitCode, nil
}

func (k *KVM) virsh(args ...string) (string, error) {
	release, err := k.pool.Acquire(k.URI)
	if err != nil {
		return "", err
	}
	defer release()

	full := append([]string{"-c", k.URI}, args...)
	_, err = k.Ledger.Run(ledger.KindHypervisor, k.Context, "virsh "+strings.Join(full, " "), false, func() (string, string, int, error) {
		return k.runElevated(exec.Command("virsh", full...))
	})
	if err != nil {
		return "", cyrierr.Wrap(cyrierr.Hypervisor, err, "virsh "+args[0])
	}
	return "", nil
}

func (k *KVM) Define(spec DomainSpec) error {
	args := BuildVirtInstallArgs(spec)
	_, err := k.Ledger.Run(ledger.KindHypervisor, k.Context, "virt-install "+strings.Join(args, " "), false, func() (string, string, int, error) {
		return k.runElevated(exec.Command("virt-install", args...))
	})
	if err != nil {
		return cyrierr.Wrap(cyrierr.Hypervisor, err, "define "+spec.Name)
	}
	return nil
}

// DefineFromXML defines a domain from a libvirt domain XML template
// (§4.F's "classic" clone-from-XML path, distinct from the kvm-auto
// virt-install synthesis), after rewriting the template's <name> and
// backing-disk <source file=...> to this clone's own overlay.
func (k *KVM) DefineFromXML(xmlPath string, spec DomainSpec) error {
	rendered, err := renderDomainXML(xmlPath, spec)
	if err != nil {
		return cyrierr.Wrap(cyrierr.Hypervisor, err, "render domain xml for "+spec.Name)
	}

	tmp := spec.OverlayPath + ".xml"
	_, err = k.Ledger.Run(ledger.KindHypervisor, k.Context, "virsh define "+tmp, false, func() (string, string, int, error) {
		if err := writeFile(tmp, rendered); err != nil {
			return "", err.Error(), 1, nil
		}
		return k.runElevated(exec.Command("virsh", "-c", k.URI, "define", tmp))
	})
	if err != nil {
		return cyrierr.Wrap(cyrierr.Hypervisor, err, "define "+spec.Name+" from "+xmlPath)
	}
	return nil
}

func (k *KVM) Start(name string) error {
	_, err := k.virsh("start", name)
	return err
}

func (k *KVM) Shutdown(name string, timeout time.Duration) error {
	if _, err := k.virsh("shutdown", name); err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		out, _, _, _ := k.runElevated(exec.Command("virsh", "-c", k.URI, "domstate", name))
		if strings.Contains(out, "shut off") {
			return nil
		}
		time.Sleep(2 * time.Second)
	}

	_, err := k.virsh("destroy", name)
	return err
}

func (k *KVM) Destroy(name string) error {
	_, err := k.virsh("destroy", name)
	return err
}

func (k *KVM) Undefine(name string) error {
	_, err := k.virsh("undefine", name, "--remove-all-storage")
	return err
}

// Clone creates a qcow2 overlay backed by baseImage, grounded on the
// rebase/commit pattern used for image customization: this is the
// create-overlay half rather than the flatten half.
func (k *KVM) Clone(baseImage, overlayPath string) error {
	_, err := k.Ledger.Run(ledger.KindHypervisor, k.Context,
		fmt.Sprintf("qemu-img create -f qcow2 -F qcow2 -b %s %s", baseImage, overlayPath), false,
		func() (string, string, int, error) {
			return k.runElevated(exec.Command("qemu-img", "create", "-f", "qcow2", "-F", "qcow2", "-b", baseImage, overlayPath))
		})
	if err != nil {
		return cyrierr.Wrap(cyrierr.Hypervisor, err, "clone overlay")
	}
	return nil
}

func (k *KVM) AttachISO(name, isoPath string) error {
	_, err := k.virsh("attach-disk", name, isoPath, "hdc", "--type", "cdrom", "--mode", "readonly")
	return err
}

func (k *KVM) NetworkCreate(bridge, subnet string) error {
	_, err := k.Ledger.Run(ledger.KindHypervisor, k.Context, fmt.Sprintf("ip link add name %s type bridge", bridge), false,
		func() (string, string, int, error) {
			return k.runElevated(exec.Command("ip", "link", "add", "name", bridge, "type", "bridge"))
		})
	if err != nil {
		return cyrierr.Wrap(cyrierr.Network, err, "create bridge "+bridge)
	}
	_, _, _, err = k.runElevated(exec.Command("ip", "link", "set", bridge, "up"))
	return err
}

func (k *KVM) NetworkDestroy(bridge string) error {
	_, err := k.Ledger.Run(ledger.KindHypervisor, k.Context, fmt.Sprintf("ip link delete %s", bridge), true,
		func() (string, string, int, error) {
			return k.runElevated(exec.Command("ip", "link", "delete", bridge))
		})
	return err
}

// Leases parses "virsh net-dhcp-leases <network>" output for §4.E's
// hypervisor-lease resolution method.
func (k *KVM) Leases(network string) ([]Lease, error) {
	out, _, exitCode, err := k.runElevated(exec.Command("virsh", "-c", k.URI, "net-dhcp-leases", network))
	if err != nil || exitCode != 0 {
		return nil, cyrierr.Wrap(cyrierr.Hypervisor, err, "net-dhcp-leases "+network)
	}

	var leases []Lease
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		mac := fields[2]
		ipCIDR := fields[4]
		if !strings.Contains(mac, ":") {
			continue
		}
		ip := ipCIDR
		if idx := strings.Index(ipCIDR, "/"); idx > 0 {
			ip = ipCIDR[:idx]
		}
		leases = append(leases, Lease{MAC: mac, IP: ip})
	}
	return leases, nil
}
