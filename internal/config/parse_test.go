package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cyris-project/cyris/internal/cyrierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
host_settings:
  - id: host_1
    mgmt_addr: localhost
    virbr_addr: 192.168.122.1
    account: ubuntu

guest_settings:
  - id: desktop
    basevm_type: kvm-auto
    image_name: ubuntu-20.04
    vcpus: 1
    memory: 1024
    disk_size: 10G
    tasks:
      - add_account: [{ account: trainee, passwd: t123 }]

clone_settings:
  - range_id: basic
    hosts:
      - host_id: host_1
        instance_number: 1
        guests: [{ guest_id: desktop, number: 1, entry_point: true }]
        topology:
          - type: custom
            networks:
              - name: office
                members: [desktop.eth0]
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "range.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDescription_Minimal(t *testing.T) {
	path := writeTemp(t, minimalYAML)

	desc, err := LoadDescription(path, false)
	require.NoError(t, err)

	require.Len(t, desc.GuestSettings, 1)
	assert.Equal(t, "ubuntu_20", desc.GuestSettings[0].BaseVMOSType)
	assert.Equal(t, "add_account", desc.GuestSettings[0].Tasks[0].Kind)

	items, ok := desc.GuestSettings[0].Tasks[0].Params["items"].([]interface{})
	require.True(t, ok)
	require.Len(t, items, 1)
}

func TestValidate_VCPUOutOfRange(t *testing.T) {
	bad := `
host_settings:
  - id: host_1
    mgmt_addr: localhost
guest_settings:
  - id: desktop
    basevm_type: kvm-auto
    image_name: ubuntu-20.04
    vcpus: 64
    memory: 1024
    disk_size: 10G
clone_settings: []
`
	path := writeTemp(t, bad)

	_, err := LoadDescription(path, false)
	require.Error(t, err)
	assert.True(t, cyrierr.Is(err, cyrierr.Config))

	var cerr *cyrierr.Error
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Field, "vcpus")
}

func TestValidate_MemoryOutOfRange(t *testing.T) {
	bad := `
host_settings:
  - id: host_1
    mgmt_addr: localhost
guest_settings:
  - id: desktop
    basevm_type: kvm-auto
    image_name: ubuntu-20.04
    vcpus: 2
    memory: 128
    disk_size: 10G
clone_settings: []
`
	path := writeTemp(t, bad)

	_, err := LoadDescription(path, false)
	require.Error(t, err)

	var cerr *cyrierr.Error
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Field, "memory")
}

func TestValidate_KVMAutoForbidsConfigFile(t *testing.T) {
	bad := `
host_settings:
  - id: host_1
    mgmt_addr: localhost
guest_settings:
  - id: desktop
    basevm_type: kvm-auto
    basevm_config_file: /some/path.xml
    image_name: ubuntu-20.04
    vcpus: 2
    memory: 1024
    disk_size: 10G
clone_settings: []
`
	path := writeTemp(t, bad)

	_, err := LoadDescription(path, false)
	require.Error(t, err)

	var cerr *cyrierr.Error
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Field, "basevm_config_file")
}

func TestValidate_KVMRequiresConfigFile(t *testing.T) {
	bad := `
host_settings:
  - id: host_1
    mgmt_addr: localhost
guest_settings:
  - id: desktop
    basevm_type: kvm
clone_settings: []
`
	path := writeTemp(t, bad)

	_, err := LoadDescription(path, false)
	require.Error(t, err)

	var cerr *cyrierr.Error
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Field, "basevm_config_file")
}

func TestValidate_UnknownFieldRejectedStrict(t *testing.T) {
	bad := `
host_settings:
  - id: host_1
    mgmt_addr: localhost
    bogus_field: true
guest_settings: []
clone_settings: []
`
	path := writeTemp(t, bad)

	_, err := LoadDescription(path, false)
	require.Error(t, err)
}

func TestValidate_UnknownFieldAllowedLegacy(t *testing.T) {
	ok := `
host_settings:
  - id: host_1
    mgmt_addr: localhost
    bogus_field: true
guest_settings: []
clone_settings: []
`
	path := writeTemp(t, ok)

	_, err := LoadDescription(path, true)
	require.NoError(t, err)
}

func TestDeriveOSType(t *testing.T) {
	assert.Equal(t, "ubuntu_20", DeriveOSType("ubuntu-20.04"))
	assert.Equal(t, "ubuntu_20", DeriveOSType("Ubuntu-20.04-server"))
	assert.Equal(t, "centos_7", DeriveOSType("centos-7-minimal"))
	assert.Equal(t, "unknown", DeriveOSType("freebsd-13"))
}

func TestValidate_UnknownForwardingNetwork(t *testing.T) {
	bad := `
host_settings:
  - id: host_1
    mgmt_addr: localhost
guest_settings:
  - id: desktop
    basevm_type: kvm-auto
    image_name: ubuntu-20.04
    vcpus: 1
    memory: 1024
    disk_size: 10G
clone_settings:
  - range_id: basic
    hosts:
      - host_id: host_1
        instance_number: 1
        guests: [{ guest_id: desktop, number: 1 }]
        topology:
          - type: custom
            networks:
              - name: office
                members: [desktop.eth0]
            forwarding_rules:
              - { src_network: office, dst_network: dmz, dport: 80 }
`
	path := writeTemp(t, bad)

	_, err := LoadDescription(path, false)
	require.Error(t, err)

	var cerr *cyrierr.Error
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Field, "dst_network")
}
