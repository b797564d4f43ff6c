// Package config holds the typed entity model for a declarative cyber-range
// description (§3 Host/Guest/CloneSetting/Network/ForwardingRule) and the
// strict-by-default YAML parser that produces it (§4.K).
package config

// BaseVMType discriminates how a Guest's VM is provisioned.
type BaseVMType string

const (
	BaseVMKVM     BaseVMType = "kvm"
	BaseVMKVMAuto BaseVMType = "kvm-auto"
	BaseVMAWS     BaseVMType = "aws"
)

// GraphicsType is a virt-install --graphics value.
type GraphicsType string

const (
	GraphicsVNC   GraphicsType = "vnc"
	GraphicsSpice GraphicsType = "spice"
	GraphicsSDL   GraphicsType = "sdl"
	GraphicsNone  GraphicsType = "none"
)

// NetworkModel is a virt-install --network model= value.
type NetworkModel string

const (
	NetModelVirtio NetworkModel = "virtio"
	NetModelE1000  NetworkModel = "e1000"
	NetModelRTL8139 NetworkModel = "rtl8139"
	NetModelNE2kPCI NetworkModel = "ne2k_pci"
)

// Host is §3 Host: exists for the life of the process.
type Host struct {
	ID                string `yaml:"id" mapstructure:"id"`
	MgmtAddr          string `yaml:"mgmt_addr" mapstructure:"mgmt_addr"`
	VirtualBridgeAddr string `yaml:"virbr_addr" mapstructure:"virbr_addr"`
	Account           string `yaml:"account" mapstructure:"account"`
}

// VirtInstallOverrides carries the optional virt-install flags a kvm-auto
// Guest may override (§3, §4.F virt-install command synthesis).
type VirtInstallOverrides struct {
	Graphics      GraphicsType `yaml:"graphics,omitempty" mapstructure:"graphics"`
	GraphicsPort  int          `yaml:"graphics_port,omitempty" mapstructure:"graphics_port"`
	GraphicsListen string      `yaml:"graphics_listen,omitempty" mapstructure:"graphics_listen"`
	NetworkModel  NetworkModel `yaml:"network_model,omitempty" mapstructure:"network_model"`
	OSVariant     string       `yaml:"os_variant,omitempty" mapstructure:"os_variant"`
	CPUModel      string       `yaml:"cpu_model,omitempty" mapstructure:"cpu_model"`
	ConsoleType   string       `yaml:"console_type,omitempty" mapstructure:"console_type"`
	BootOptions   string       `yaml:"boot_options,omitempty" mapstructure:"boot_options"`
	ExtraArgs     string       `yaml:"extra_args,omitempty" mapstructure:"extra_args"`
}

// Task is §4.9 (§4.I): one entry of a Guest's ordered task list. Exactly one
// of the kind-named fields is populated; Kind mirrors whichever was set
// during parsing so the executor can dispatch without re-inspecting the map.
type Task struct {
	Kind         string                 `yaml:"-" mapstructure:"-"`
	Fatal        bool                   `yaml:"fatal,omitempty" mapstructure:"fatal"`
	AlsoRuntime  bool                   `yaml:"also_runtime,omitempty" mapstructure:"also_runtime"`
	Params       map[string]interface{} `yaml:"-" mapstructure:"-"`
}

// Guest is §3 Guest.
type Guest struct {
	ID         string     `yaml:"id" mapstructure:"id"`
	BaseVMType BaseVMType `yaml:"basevm_type" mapstructure:"basevm_type"`

	// kvm fields
	BaseVMConfigFile string `yaml:"basevm_config_file,omitempty" mapstructure:"basevm_config_file"`
	BaseVMHost       string `yaml:"basevm_host,omitempty" mapstructure:"basevm_host"`
	BaseVMOSType     string `yaml:"basevm_os_type,omitempty" mapstructure:"basevm_os_type"`

	// kvm-auto fields
	ImageName string `yaml:"image_name,omitempty" mapstructure:"image_name"`
	VCPUs     int    `yaml:"vcpus,omitempty" mapstructure:"vcpus"`
	MemoryMiB int    `yaml:"memory,omitempty" mapstructure:"memory"`
	DiskSize  string `yaml:"disk_size,omitempty" mapstructure:"disk_size"`

	VirtInstall VirtInstallOverrides `yaml:"virt_install,omitempty" mapstructure:"virt_install"`

	Tasks []Task `yaml:"tasks,omitempty" mapstructure:"tasks"`
}

// NetworkMember is a "guest_id.iface" topology member reference.
type NetworkMember struct {
	GuestID string
	Iface   string
}

// Network is §3 Network.
type Network struct {
	Name    string          `yaml:"name" mapstructure:"name"`
	Subnet  string          `yaml:"subnet,omitempty" mapstructure:"subnet"`
	Members []NetworkMember `yaml:"members" mapstructure:"members"`
}

// ForwardingRule is §3 Forwarding Rule.
type ForwardingRule struct {
	SrcNetwork string `yaml:"src_network" mapstructure:"src_network"`
	DstNetwork string `yaml:"dst_network" mapstructure:"dst_network"`
	SPort      int    `yaml:"sport,omitempty" mapstructure:"sport"`
	DPort      int    `yaml:"dport,omitempty" mapstructure:"dport"`
	Protocol   string `yaml:"protocol,omitempty" mapstructure:"protocol"`
}

// Topology is the set of networks + forwarding rules declared for a
// clone_settings host block.
type Topology struct {
	Type            string           `yaml:"type,omitempty" mapstructure:"type"`
	Networks        []Network        `yaml:"networks,omitempty" mapstructure:"networks"`
	ForwardingRules []ForwardingRule `yaml:"forwarding_rules,omitempty" mapstructure:"forwarding_rules"`
}

// GuestClone is one `guests:` entry under a clone_settings host block.
type GuestClone struct {
	GuestID    string `yaml:"guest_id" mapstructure:"guest_id"`
	Number     int    `yaml:"number" mapstructure:"number"`
	EntryPoint bool   `yaml:"entry_point,omitempty" mapstructure:"entry_point"`
}

// CloneHost is one `hosts:` entry under clone_settings.
type CloneHost struct {
	HostID         string       `yaml:"host_id" mapstructure:"host_id"`
	InstanceNumber int          `yaml:"instance_number" mapstructure:"instance_number"`
	Guests         []GuestClone `yaml:"guests" mapstructure:"guests"`
	Topology       []Topology   `yaml:"topology,omitempty" mapstructure:"topology"`
}

// CloneSetting is §3 CloneSetting.
type CloneSetting struct {
	RangeID string      `yaml:"range_id" mapstructure:"range_id"`
	Hosts   []CloneHost `yaml:"hosts" mapstructure:"hosts"`
}

// Description is the top-level parsed YAML document (§6).
type Description struct {
	HostSettings  []Host         `yaml:"host_settings" mapstructure:"host_settings"`
	GuestSettings []Guest        `yaml:"guest_settings" mapstructure:"guest_settings"`
	CloneSettings []CloneSetting `yaml:"clone_settings" mapstructure:"clone_settings"`
}

// FindHost returns the host with the given id, or nil.
func (d *Description) FindHost(id string) *Host {
	for i := range d.HostSettings {
		if d.HostSettings[i].ID == id {
			return &d.HostSettings[i]
		}
	}
	return nil
}

// FindGuest returns the guest template with the given id, or nil.
func (d *Description) FindGuest(id string) *Guest {
	for i := range d.GuestSettings {
		if d.GuestSettings[i].ID == id {
			return &d.GuestSettings[i]
		}
	}
	return nil
}
