package store

import "time"

// APIGroup is the group of the apiVersion/kind/spec Envelope below (§3
// "Config document versioning"). MetadataStore and ResourceStore write
// their documents without this envelope.
const APIGroup = "cyris.cyberrange"

// Envelope wraps a versioned document. Spec is kept as a generic map so
// RangeMetadata and ResourceInventory can both be stored with the same
// wrapper without an interface hierarchy.
type Envelope struct {
	APIVersion string                 `json:"apiVersion" yaml:"apiVersion"`
	Kind       string                 `json:"kind" yaml:"kind"`
	Created    time.Time              `json:"created" yaml:"created"`
	Spec       map[string]interface{} `json:"spec" yaml:"spec"`
}

func NewEnvelope(kind string) Envelope {
	return Envelope{
		APIVersion: APIGroup + "/v1",
		Kind:       kind,
		Created:    time.Now(),
		Spec:       map[string]interface{}{},
	}
}
