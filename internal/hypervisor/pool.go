package hypervisor

import (
	"os/exec"
	"sync"

	"github.com/cyris-project/cyris/internal/cyrierr"
)

// connPool tracks how many callers currently hold a connection to a given
// libvirt URI so a host shared across several guest operations is probed
// for reachability only once rather than on every virsh invocation.
type connPool struct {
	mu    sync.Mutex
	conns map[string]*pooledConn
}

type pooledConn struct {
	refs     int
	verified bool
}

func newConnPool() *connPool {
	return &connPool{conns: make(map[string]*pooledConn)}
}

// Acquire increments the URI's refcount, verifying connectivity with
// "virsh -c <uri> nodeinfo" the first time it is requested.
func (p *connPool) Acquire(uri string) (func(), error) {
	p.mu.Lock()
	c, ok := p.conns[uri]
	if !ok {
		c = &pooledConn{}
		p.conns[uri] = c
	}
	c.refs++
	verified := c.verified
	p.mu.Unlock()

	if !verified {
		if _, err := exec.Command("virsh", "-c", uri, "nodeinfo").CombinedOutput(); err != nil {
			p.Release(uri)
			return nil, cyrierr.Wrap(cyrierr.Hypervisor, err, "connect "+uri)
		}
		p.mu.Lock()
		c.verified = true
		p.mu.Unlock()
	}

	return func() { p.Release(uri) }, nil
}

func (p *connPool) Release(uri string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.conns[uri]; ok && c.refs > 0 {
		c.refs--
	}
}
