package ipresolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_PrefersHigherPriorityMethod(t *testing.T) {
	r := NewResolver()
	r.Register(MethodCLI, stubSource{ip: "10.0.0.5", ok: true})
	r.Register(MethodARP, stubSource{ip: "10.0.0.99", ok: true})

	ip, method, conf, err := r.Resolve("desktop", "52:54:00:00:00:01")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", ip)
	assert.Equal(t, MethodCLI, method)
	assert.Greater(t, conf, 0.0)
}

func TestResolver_FallsThroughWhenSourceHasNoAnswer(t *testing.T) {
	r := NewResolver()
	r.Register(MethodTopology, stubSource{ok: false})
	r.Register(MethodDHCPLease, stubSource{ip: "10.0.0.7", ok: true})

	ip, method, _, err := r.Resolve("desktop", "52:54:00:00:00:01")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", ip)
	assert.Equal(t, MethodDHCPLease, method)
}

func TestResolver_ErrorsWhenNoSourceResolves(t *testing.T) {
	r := NewResolver()
	r.Register(MethodTopology, stubSource{ok: false})

	_, _, _, err := r.Resolve("desktop", "52:54:00:00:00:01")
	require.Error(t, err)
}

func TestResolver_CachesResolvedAddress(t *testing.T) {
	r := NewResolver()
	calls := 0
	r.Register(MethodTopology, countingSource{n: &calls, ip: "10.0.0.5"})

	ip1, _, _, _ := r.Resolve("desktop", "mac")
	ip2, _, _, _ := r.Resolve("desktop", "mac")

	assert.Equal(t, ip1, ip2)
	assert.Equal(t, 1, calls)
}

func TestResolver_InvalidateForcesReResolve(t *testing.T) {
	r := NewResolver()
	calls := 0
	r.Register(MethodTopology, countingSource{n: &calls, ip: "10.0.0.5"})

	r.Resolve("desktop", "mac")
	r.Invalidate("desktop")
	r.Resolve("desktop", "mac")

	assert.Equal(t, 2, calls)
}

func TestResolver_ConfidenceReflectsMethod(t *testing.T) {
	r := NewResolver()
	r.Register(MethodBridgeFDB, stubSource{ip: "10.0.0.9", ok: true})

	_, method, conf, err := r.Resolve("desktop", "mac")
	require.NoError(t, err)
	assert.Equal(t, MethodBridgeFDB, method)
	assert.Equal(t, confidence[MethodBridgeFDB], conf)
}

type stubSource struct {
	ip string
	ok bool
}

func (s stubSource) Resolve(guestID, mac string) (string, float64, bool) {
	return s.ip, 0, s.ok
}

type countingSource struct {
	n  *int
	ip string
}

func (s countingSource) Resolve(guestID, mac string) (string, float64, bool) {
	*s.n++
	return s.ip, 0, true
}
