package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cyris-project/cyris/internal/cyrierr"
	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a "guest_id.iface" member reference into its parts.
func (m *NetworkMember) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	i := strings.Index(s, ".")
	if i <= 0 || i == len(s)-1 {
		return fmt.Errorf("network member %q is not of the form guest_id.iface", s)
	}
	m.GuestID, m.Iface = s[:i], s[i+1:]
	return nil
}

// osTypePrefixes maps a case-insensitive image_name prefix to the derived
// basevm_os_type (§3 "Derived: basevm_os_type inferred from image_name").
// Longest prefix wins so e.g. "ubuntu-20.04" doesn't fall through to a bare
// "ubuntu" entry if one were added later.
var osTypePrefixes = []struct {
	prefix string
	osType string
}{
	{"ubuntu-20.04", "ubuntu_20"},
	{"ubuntu-18.04", "ubuntu_18"},
	{"ubuntu-16.04", "ubuntu_16"},
	{"centos-8", "centos_8"},
	{"centos-7", "centos_7"},
	{"debian-10", "debian_10"},
	{"debian-11", "debian_11"},
	{"windows-10", "windows_10"},
	{"windows-7", "windows_7"},
}

// DeriveOSType infers basevm_os_type from a kvm-auto image_name.
func DeriveOSType(imageName string) string {
	lower := strings.ToLower(imageName)

	best := ""
	for _, e := range osTypePrefixes {
		if strings.HasPrefix(lower, e.prefix) && len(e.prefix) > len(best) {
			best = e.prefix
		}
	}

	for _, e := range osTypePrefixes {
		if e.prefix == best && best != "" {
			return e.osType
		}
	}

	return "unknown"
}

// LoadDescription reads and validates a declarative range description from
// path. legacy enables the "legacy compatibility" mode that tolerates
// unknown top-level keys (§4.K); otherwise the parser is strict-by-default.
func LoadDescription(path string, legacy bool) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cyrierr.Wrap(cyrierr.Config, err, "opening description file")
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(!legacy)

	var desc Description
	if err := dec.Decode(&desc); err != nil {
		return nil, cyrierr.Wrap(cyrierr.Config, err, "parsing description YAML")
	}

	applyDerivations(&desc)

	if err := Validate(&desc); err != nil {
		return nil, err
	}

	return &desc, nil
}

func applyDerivations(desc *Description) {
	for i := range desc.GuestSettings {
		g := &desc.GuestSettings[i]
		if g.BaseVMType == BaseVMKVMAuto && g.BaseVMOSType == "" && g.ImageName != "" {
			g.BaseVMOSType = DeriveOSType(g.ImageName)
		}
	}
}

// Validate checks entity invariants and returns a *cyrierr.Error naming the
// first offending field path (§4.K "Validation errors name field paths").
func Validate(desc *Description) error {
	hostIDs := make(map[string]bool)
	for i, h := range desc.HostSettings {
		path := fmt.Sprintf("host_settings[%d]", i)

		if h.ID == "" {
			return cyrierr.New(cyrierr.Config, "host id is required").WithField(path + ".id")
		}
		if hostIDs[h.ID] {
			return cyrierr.New(cyrierr.Config, "duplicate host id").WithField(path + ".id")
		}
		hostIDs[h.ID] = true

		if h.MgmtAddr == "" {
			return cyrierr.New(cyrierr.Config, "mgmt_addr is required").WithField(path + ".mgmt_addr")
		}
	}

	guestIDs := make(map[string]bool)
	for i, g := range desc.GuestSettings {
		path := fmt.Sprintf("guest_settings[%d]", i)

		if g.ID == "" {
			return cyrierr.New(cyrierr.Config, "guest id is required").WithField(path + ".id")
		}
		if guestIDs[g.ID] {
			return cyrierr.New(cyrierr.Config, "duplicate guest id").WithField(path + ".id")
		}
		guestIDs[g.ID] = true

		if err := validateGuest(path, g); err != nil {
			return err
		}
	}

	for i, cs := range desc.CloneSettings {
		path := fmt.Sprintf("clone_settings[%d]", i)

		if cs.RangeID == "" {
			return cyrierr.New(cyrierr.Config, "range_id is required").WithField(path + ".range_id")
		}

		if err := validateCloneSetting(path, cs, hostIDs, guestIDs); err != nil {
			return err
		}
	}

	return nil
}

func validateGuest(path string, g Guest) error {
	switch g.BaseVMType {
	case BaseVMKVM:
		if g.BaseVMConfigFile == "" {
			return cyrierr.New(cyrierr.Config, "kvm guests require basevm_config_file").WithField(path + ".basevm_config_file")
		}
	case BaseVMKVMAuto:
		if g.BaseVMConfigFile != "" {
			return cyrierr.New(cyrierr.Config, "kvm-auto guests must not set basevm_config_file").WithField(path + ".basevm_config_file")
		}
		if g.ImageName == "" {
			return cyrierr.New(cyrierr.Config, "kvm-auto guests require image_name").WithField(path + ".image_name")
		}
		if g.VCPUs < 1 || g.VCPUs > 32 {
			return cyrierr.New(cyrierr.Config, "vcpus must be in [1,32]").WithField(path + ".vcpus")
		}
		if g.MemoryMiB < 256 || g.MemoryMiB > 32768 {
			return cyrierr.New(cyrierr.Config, "memory must be in [256,32768] MiB").WithField(path + ".memory")
		}
	case BaseVMAWS:
		// AWS adapter wiring is a thin stub (§1 Non-goals); no further
		// field validation applies here.
	default:
		return cyrierr.New(cyrierr.Config, fmt.Sprintf("unknown basevm_type %q", g.BaseVMType)).WithField(path + ".basevm_type")
	}

	for ti, t := range g.Tasks {
		if !validTaskKinds[t.Kind] {
			return cyrierr.New(cyrierr.Config, fmt.Sprintf("unknown task kind %q", t.Kind)).
				WithField(fmt.Sprintf("%s.tasks[%d]", path, ti))
		}
	}

	return nil
}

var validTaskKinds = map[string]bool{
	"add_account":                     true,
	"modify_account":                  true,
	"install_package":                 true,
	"copy_content":                    true,
	"execute_program":                 true,
	"emulate_attack":                  true,
	"emulate_malware":                 true,
	"emulate_traffic_capture_file":    true,
	"firewall_rules":                  true,
}

func validateCloneSetting(path string, cs CloneSetting, hostIDs, guestIDs map[string]bool) error {
	for hi, h := range cs.Hosts {
		hpath := fmt.Sprintf("%s.hosts[%d]", path, hi)

		if !hostIDs[h.HostID] {
			return cyrierr.New(cyrierr.Config, fmt.Sprintf("unknown host_id %q", h.HostID)).WithField(hpath + ".host_id")
		}

		networks := make(map[string]bool)
		for _, topo := range h.Topology {
			for _, n := range topo.Networks {
				networks[n.Name] = true
			}
		}

		for gi, gc := range h.Guests {
			gpath := fmt.Sprintf("%s.guests[%d]", hpath, gi)
			if !guestIDs[gc.GuestID] {
				return cyrierr.New(cyrierr.Config, fmt.Sprintf("unknown guest_id %q", gc.GuestID)).WithField(gpath + ".guest_id")
			}
			if gc.Number < 1 {
				return cyrierr.New(cyrierr.Config, "number must be >= 1").WithField(gpath + ".number")
			}
		}

		for ti, topo := range h.Topology {
			tpath := fmt.Sprintf("%s.topology[%d]", hpath, ti)
			for fi, rule := range topo.ForwardingRules {
				fpath := fmt.Sprintf("%s.forwarding_rules[%d]", tpath, fi)
				if !networks[rule.SrcNetwork] {
					return cyrierr.New(cyrierr.Config, fmt.Sprintf("unknown src_network %q", rule.SrcNetwork)).WithField(fpath + ".src_network")
				}
				if !networks[rule.DstNetwork] {
					return cyrierr.New(cyrierr.Config, fmt.Sprintf("unknown dst_network %q", rule.DstNetwork)).WithField(fpath + ".dst_network")
				}
			}
		}
	}

	return nil
}

// SortedNetworkNames returns a clone host's declared network names in
// deterministic (sorted) order, used by §4.H IP allocation.
func SortedNetworkNames(h CloneHost) []string {
	seen := make(map[string]bool)
	var names []string

	for _, topo := range h.Topology {
		for _, n := range topo.Networks {
			if !seen[n.Name] {
				seen[n.Name] = true
				names = append(names, n.Name)
			}
		}
	}

	sort.Strings(names)
	return names
}

// DiskSizeMiB converts a disk_size value like "20G" or "512M" into
// mebibytes. An unparseable or empty value yields 0, leaving it to the
// hypervisor adapter's own default.
func DiskSizeMiB(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	unit := s[len(s)-1]
	var multiplier int
	switch unit {
	case 'G', 'g':
		multiplier = 1024
	case 'M', 'm':
		multiplier = 1
	case 'T', 't':
		multiplier = 1024 * 1024
	default:
		unit = 0
	}

	numeric := s
	if multiplier != 0 {
		numeric = s[:len(s)-1]
	} else {
		multiplier = 1
	}

	n, err := strconv.Atoi(strings.TrimSpace(numeric))
	if err != nil {
		return 0
	}
	return n * multiplier
}
