package hypervisor

import "fmt"

// BuildVirtInstallArgs returns the virt-install flags for spec in a fixed
// order (name, memory, vcpus, disk, network, graphics, os-variant, extra,
// then the two flags that are always present) so the synthesized command
// is identical for identical input and diffable in the operation ledger.
func BuildVirtInstallArgs(spec DomainSpec) []string {
	args := []string{
		"--name", spec.Name,
		"--memory", fmt.Sprintf("%d", spec.MemoryMiB),
		"--vcpus", fmt.Sprintf("%d", spec.VCPUs),
		"--disk", fmt.Sprintf("path=%s,device=disk", spec.OverlayPath),
	}

	if spec.Network != "" {
		model := spec.NetworkModel
		if model == "" {
			model = "virtio"
		}
		args = append(args, "--network", fmt.Sprintf("bridge=%s,model=%s", spec.Network, model))
	}

	graphics := spec.Graphics
	if graphics == "" {
		graphics = "vnc"
	}
	graphicsArg := string(graphics)
	if graphics != "none" && spec.GraphicsPort > 0 {
		graphicsArg = fmt.Sprintf("%s,port=%d", graphics, spec.GraphicsPort)
	}
	args = append(args, "--graphics", graphicsArg)

	if spec.OSVariant != "" {
		args = append(args, "--os-variant", spec.OSVariant)
	}

	args = append(args, spec.ExtraArgs...)

	return append(args, "--import", "--noautoconsole")
}
