package store

// DomainResource is one defined libvirt domain created for a range.
type DomainResource struct {
	Name         string `json:"name"`
	HostID       string `json:"host_id"`
	OverlayPath  string `json:"overlay_path"`
	BackingImage string `json:"backing_image"`
	ISOPath      string `json:"iso_path,omitempty"`
}

// BridgeResource is one network bridge created on a specific host for a
// range, so destroy can tear it down through the same host's hypervisor
// connection that created it.
type BridgeResource struct {
	Name   string `json:"name"`
	HostID string `json:"host_id"`
}

// ResourceInventory is §4.L: every created, non-trivial resource for one
// range, keyed by range_id so destroy is robust to mid-create crashes
// without re-parsing the description.
type ResourceInventory struct {
	RangeID        string            `json:"range_id"`
	Domains        []DomainResource  `json:"domains"`
	Bridges        []BridgeResource  `json:"bridges"`
	IPReservations []IPAssignment    `json:"ip_reservations"`
	BuiltImages    []string          `json:"built_images"`
	AppliedRules   []AppliedRuleMark `json:"applied_rules"`
}

// AppliedRuleMark records enough to reverse one applied forwarding rule
// (§4.H "record rollback entries so destroy can reverse them").
type AppliedRuleMark struct {
	Chain string `json:"chain"`
	Spec  string `json:"spec"`
}

func (r *ResourceInventory) AddDomain(d DomainResource) {
	r.Domains = append(r.Domains, d)
}

func (r *ResourceInventory) AddBridge(b BridgeResource) {
	for _, existing := range r.Bridges {
		if existing.Name == b.Name {
			return
		}
	}
	r.Bridges = append(r.Bridges, b)
}

// ReferencesImage reports whether any overlay in the inventory still backs
// onto imagePath (§3 "the image is garbage-collected only when no metadata
// entry references it"; §8 "removing the backing image is refused while any
// overlay references it").
func (r *ResourceInventory) ReferencesImage(imagePath string) bool {
	for _, d := range r.Domains {
		if d.BackingImage == imagePath {
			return true
		}
	}
	return false
}
