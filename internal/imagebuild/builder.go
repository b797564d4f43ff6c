package imagebuild

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/cyris-project/cyris/internal/config"
	"github.com/cyris-project/cyris/internal/cyrierr"
	"github.com/cyris-project/cyris/internal/elevate"
	"github.com/cyris-project/cyris/internal/ledger"
)

// Request describes one image build: a kvm-auto Guest's declared image,
// disk size, and build-time task list (§4.G step 1/2).
type Request struct {
	ImageName string
	DiskSize  int // MiB
	Tasks     []config.Task
}

// Builder serializes concurrent requests for the same build Key so two
// guests that need an identical image do not race to build it twice, and
// caches a finished build on disk so a later CLI invocation with the same
// Key reuses it without rebuilding (§4.G step 1: "qcow2 at
// <cache>/<image_name>-<hash>.qcow2").
type Builder struct {
	Elevator *elevate.Executor
	Ledger   *ledger.Registry
	Context  ledger.Context
	Host     string
	Account  string
	CacheDir string

	mu       sync.Mutex
	inFlight map[string]*sync.Mutex
	built    map[string]string // key -> built image path
}

func NewBuilder(elev *elevate.Executor, reg *ledger.Registry, ctx ledger.Context, host, account, cacheDir string) *Builder {
	if cacheDir == "" {
		cacheDir = "/var/lib/cyris/build"
	}
	return &Builder{
		Elevator: elev,
		Ledger:   reg,
		Context:  ctx,
		Host:     host,
		Account:  account,
		CacheDir: cacheDir,
		inFlight: make(map[string]*sync.Mutex),
		built:    make(map[string]string),
	}
}

func (b *Builder) keyLock(key string) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.inFlight[key]
	if !ok {
		l = &sync.Mutex{}
		b.inFlight[key] = l
	}
	return l
}

// Build produces the qcow2 base image for req, reusing a prior build for
// the same key whether that build happened in this process (b.built) or a
// previous one (the cache file is already on disk). A second caller with
// the same key blocks until the first build finishes rather than racing it.
func (b *Builder) Build(key string, req Request) (string, error) {
	lock := b.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	b.mu.Lock()
	if path, ok := b.built[key]; ok {
		b.mu.Unlock()
		return path, nil
	}
	b.mu.Unlock()

	path := fmt.Sprintf("%s/%s-%s.qcow2", b.CacheDir, req.ImageName, key)

	if _, err := os.Stat(path); err == nil {
		b.mu.Lock()
		b.built[key] = path
		b.mu.Unlock()
		return path, nil
	}

	if err := os.MkdirAll(b.CacheDir, 0o755); err != nil {
		return "", cyrierr.Wrap(cyrierr.Resource, err, "create build cache dir")
	}

	if err := b.runBuilder(req, path); err != nil {
		return "", cyrierr.Wrap(cyrierr.Hypervisor, err, "build base image for "+req.ImageName)
	}

	// Customization runs offline against the built image via
	// virt-customize rather than booting a domain, avoiding the boot-race
	// cost of running tasks over SSH against a VM that may not yet have
	// come up (§4.G step 2).
	if args := customizeArgs(req.Tasks); len(args) > 0 {
		if err := b.runCustomize(path, args); err != nil {
			return "", cyrierr.Wrap(cyrierr.Task, err, "customize base image for "+req.ImageName)
		}
	}

	b.mu.Lock()
	b.built[key] = path
	b.mu.Unlock()

	return path, nil
}

func (b *Builder) runElevated(cmd *exec.Cmd) (string, string, int, error) {
	if b.Elevator != nil && b.Account != "" {
		res, err := b.Elevator.Run(b.Host, b.Account, cmd)
		if err != nil {
			return res.Stdout, res.Stderr, res.ExitCode, err
		}
		return res.Stdout, res.Stderr, res.ExitCode, nil
	}

	out, err := cmd.CombinedOutput()
	exitCode := 0
	if err != nil {
		exitCode = 1
	}
	return string(out), "", exitCode, nil
}

func (b *Builder) runBuilder(req Request, path string) error {
	args := []string{req.ImageName, "--format", "qcow2", "-o", path}
	if req.DiskSize > 0 {
		args = append(args, "--size", fmt.Sprintf("%dM", req.DiskSize))
	}

	_, err := b.Ledger.Run(ledger.KindBuilder, b.Context, "virt-builder "+strings.Join(args, " "), false,
		func() (string, string, int, error) {
			return b.runElevated(exec.Command("virt-builder", args...))
		})
	return err
}

func (b *Builder) runCustomize(path string, args []string) error {
	full := append([]string{"-a", path}, args...)

	_, err := b.Ledger.Run(ledger.KindBuilder, b.Context, "virt-customize "+strings.Join(full, " "), false,
		func() (string, string, int, error) {
			return b.runElevated(exec.Command("virt-customize", full...))
		})
	return err
}
