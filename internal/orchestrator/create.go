package orchestrator

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cyris-project/cyris/internal/cleanup"
	"github.com/cyris-project/cyris/internal/config"
	"github.com/cyris-project/cyris/internal/cyrierr"
	"github.com/cyris-project/cyris/internal/cyrislog"
	"github.com/cyris-project/cyris/internal/hypervisor"
	"github.com/cyris-project/cyris/internal/imagebuild"
	"github.com/cyris-project/cyris/internal/ledger"
	"github.com/cyris-project/cyris/internal/sshexec"
	"github.com/cyris-project/cyris/internal/store"
	"github.com/cyris-project/cyris/internal/tasks"
	"github.com/cyris-project/cyris/internal/topology"
)

// instance is one guest clone resolved from a CloneSetting, flattening
// "instance_number" x "guests[].number" into concrete names, e.g.
// "desktop.1", "desktop.2".
type instance struct {
	Name    string
	GuestID string
	HostID  string
	Guest   config.Guest
	Host    config.Host
	Entry   bool
}

func expandInstances(desc *config.Description, host config.CloneHost) ([]instance, error) {
	h := desc.FindHost(host.HostID)
	if h == nil {
		return nil, fmt.Errorf("clone_settings references unknown host %q", host.HostID)
	}

	var out []instance
	for _, gc := range host.Guests {
		g := desc.FindGuest(gc.GuestID)
		if g == nil {
			return nil, fmt.Errorf("clone_settings references unknown guest %q", gc.GuestID)
		}
		for i := 1; i <= gc.Number; i++ {
			out = append(out, instance{
				Name:    fmt.Sprintf("%s.%d", gc.GuestID, i),
				GuestID: gc.GuestID,
				HostID:  host.HostID,
				Guest:   *g,
				Host:    *h,
				Entry:   gc.EntryPoint,
			})
		}
	}
	return out, nil
}

// CreateRequest bundles the inputs Create needs beyond the parsed
// description: step 1 (parse/validate) happens before Create is ever
// called, so by this point desc is already known-good.
type CreateRequest struct {
	Description  *config.Description
	CloneSetting config.CloneSetting
	ConfigPath   string
	Owner        string

	// BuildOnly stops after base images are built, skipping clone/network/tasks.
	BuildOnly bool
	// SkipBuilder skips the base-image build phase entirely. Classic kvm
	// guests still clone from their basevm_config_file; no existing built
	// image is looked up for kvm-auto guests, so cloning one fails.
	SkipBuilder bool
}

// Create runs the nine-step create workflow (§4.J).
func (o *Orchestrator) Create(req CreateRequest) (*store.RangeMetadata, error) {
	desc := req.Description
	cs := req.CloneSetting

	rangeID := cs.RangeID
	if rangeID == "" {
		var err error
		rangeID, err = NewRangeID()
		if err != nil {
			return nil, err
		}
	}

	dir := rangeDir(o.CyberRangeDir, rangeID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, cyrierr.Wrap(cyrierr.Resource, err, "create range directory")
	}
	if err := o.Ledger.OpenRangeLog(rangeID, dir); err != nil {
		return nil, cyrierr.Wrap(cyrierr.Resource, err, "open creation log")
	}
	defer o.Ledger.CloseRangeLog(rangeID)

	meta := &store.RangeMetadata{
		RangeID:    rangeID,
		Name:       rangeID,
		Status:     store.StatusCreating,
		CreatedAt:  time.Now(),
		Owner:      req.Owner,
		Tags:       map[string]string{},
		ConfigPath: req.ConfigPath,
		LogsPath:   dir,
	}
	if err := o.Metadata.Put(meta); err != nil {
		return nil, cyrierr.Wrap(cyrierr.Resource, err, "persist initial metadata")
	}

	rollback := &Stack{}
	start := time.Now()

	if err := o.createBody(desc, cs, rangeID, meta, rollback, req.BuildOnly, req.SkipBuilder); err != nil {
		rollback.Unwind()
		o.invalidateClonedGuests(meta)
		meta.Transition(store.StatusError)
		o.Metadata.Put(meta)
		o.Ledger.WriteStatusFile(rangeID, true, time.Since(start))
		if o.Reporter != nil {
			o.Reporter.Finish(false, time.Since(start))
		}
		return meta, err
	}

	meta.Transition(store.StatusActive)
	o.Metadata.Put(meta)
	o.invalidateClonedGuests(meta)
	rolledBack := o.Ledger.Failures(rangeID) > 0
	o.Ledger.WriteStatusFile(rangeID, rolledBack, time.Since(start))
	if o.Reporter != nil {
		o.Reporter.Finish(!rolledBack, time.Since(start))
	}

	return meta, nil
}

// invalidateClonedGuests drops any cached resolution for every guest
// touched by this create, since the range's own state transition just
// happened and any cache entry from a prior range reusing the same
// instance name would now be stale (§4.E).
func (o *Orchestrator) invalidateClonedGuests(meta *store.RangeMetadata) {
	if o.Resolver == nil {
		return
	}
	for _, g := range meta.ClonedGuests {
		o.Resolver.Invalidate(g.Name)
	}
}

func (o *Orchestrator) createBody(desc *config.Description, cs config.CloneSetting, rangeID string, meta *store.RangeMetadata, rollback *Stack, buildOnly, skipBuilder bool) error {
	tracker := o.tracker()
	ctx := ledger.Context{RangeID: rangeID, Phase: "create"}

	builtImages := map[string]string{}
	if !skipBuilder {
		if o.Reporter != nil {
			o.Reporter.StartPhase("Base images")
		}
		built, err := o.buildBaseImages(desc, cs, rangeID, ctx, tracker)
		if err != nil {
			return err
		}
		builtImages = built
	}

	if buildOnly {
		return nil
	}

	for _, host := range cs.Hosts {
		instances, err := expandInstances(desc, host)
		if err != nil {
			return err
		}

		if o.Reporter != nil {
			o.Reporter.StartPhase(fmt.Sprintf("Clone VMs on %s", host.HostID))
		}
		if err := o.cloneAndDefine(host, instances, builtImages, rangeID, tracker, rollback, meta); err != nil {
			return err
		}

		if o.Reporter != nil {
			o.Reporter.StartPhase("Network topology")
		}
		assignments, err := o.setupTopology(host, rangeID, ctx, tracker, rollback)
		if err != nil {
			return err
		}
		meta.IPAssignments = append(meta.IPAssignments, assignments...)

		if o.Reporter != nil {
			o.Reporter.StartPhase("Start VMs and run tasks")
		}
		outcomes := o.startAndRunTasks(host, instances)
		for _, list := range outcomes {
			for _, oc := range list {
				meta.TaskResults = append(meta.TaskResults, toTaskResult(oc))
			}
		}
	}

	return nil
}

func toTaskResult(o tasks.Outcome) store.TaskResult {
	return store.TaskResult{
		TaskID:             o.TaskID,
		TaskType:           o.Task.Kind,
		VMName:             o.VMName,
		VMIP:               o.VMIP,
		Success:            o.Result.Success,
		Message:            o.Result.Message,
		Elapsed:            o.Elapsed,
		Output:             o.Result.Output,
		Error:              o.Result.Error,
		Evidence:           o.Result.Evidence,
		VerificationPassed: o.Result.Verified,
		Timestamp:          o.Timestamp,
	}
}

// multiHostImages groups, per build key, the management addresses of every
// host that clones a kvm-auto guest from that key, including the one that
// built it -- the candidate targets imagebuild.Distribute copies it to so
// every host cloning from the key has a local qcow2.
func multiHostImages(desc *config.Description, cs config.CloneSetting) map[string][]string {
	hostsByKey := map[string][]string{}

	for _, host := range cs.Hosts {
		h := desc.FindHost(host.HostID)
		if h == nil {
			continue
		}
		for _, gc := range host.Guests {
			g := desc.FindGuest(gc.GuestID)
			if g == nil || g.BaseVMType != config.BaseVMKVMAuto {
				continue
			}
			key := imagebuild.Key(g.ImageName, config.DiskSizeMiB(g.DiskSize), g.Tasks)
			hostsByKey[key] = appendUnique(hostsByKey[key], h.MgmtAddr)
		}
	}

	return hostsByKey
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func (o *Orchestrator) buildBaseImages(desc *config.Description, cs config.CloneSetting, rangeID string, ctx ledger.Context, tracker *cleanup.Tracker) (map[string]string, error) {
	built := make(map[string]string)
	builtOnHost := map[string]string{} // key -> host_id that built it

	for _, host := range cs.Hosts {
		for _, gc := range host.Guests {
			g := desc.FindGuest(gc.GuestID)
			if g == nil || g.BaseVMType != config.BaseVMKVMAuto {
				continue
			}

			diskMiB := config.DiskSizeMiB(g.DiskSize)
			key := imagebuild.Key(g.ImageName, diskMiB, g.Tasks)
			if _, ok := built[key]; ok {
				continue
			}

			b := o.Builder
			if b == nil {
				account := o.Credentials(host.HostID).User
				cacheDir := fmt.Sprintf("%s/build", o.CyberRangeDir)
				b = imagebuild.NewBuilder(o.Elevator, o.Ledger, ctx, host.HostID, account, cacheDir)
			}

			path, err := b.Build(key, imagebuild.Request{
				ImageName: g.ImageName,
				DiskSize:  diskMiB,
				Tasks:     g.Tasks,
			})
			if err != nil {
				return nil, err
			}

			built[key] = path
			builtOnHost[key] = host.HostID
			tracker.RecordBuiltImage(rangeID, path)
		}
	}

	if err := o.distributeBaseImages(desc, cs, built, builtOnHost); err != nil {
		return nil, err
	}

	return built, nil
}

// distributeBaseImages copies each built image to every other host in the
// range that clones from it, per §4.G step 3. A single-host range has
// nothing to distribute.
func (o *Orchestrator) distributeBaseImages(desc *config.Description, cs config.CloneSetting, built map[string]string, builtOnHost map[string]string) error {
	if len(cs.Hosts) < 2 {
		return nil
	}

	hostsByKey := multiHostImages(desc, cs)

	for key, path := range built {
		builderHostID := builtOnHost[key]
		builderHost := desc.FindHost(builderHostID)

		var targets []string
		for _, addr := range hostsByKey[key] {
			if builderHost != nil && addr == builderHost.MgmtAddr {
				continue
			}
			targets = append(targets, addr)
		}
		if len(targets) == 0 {
			continue
		}

		creds := o.Credentials(builderHostID)
		if err := imagebuild.Distribute(path, targets, creds, path, o.concurrency(len(targets)), 10*time.Minute); err != nil {
			return cyrierr.Wrap(cyrierr.Resource, err, "distribute base image "+path)
		}
	}

	return nil
}

func (o *Orchestrator) cloneAndDefine(host config.CloneHost, instances []instance, builtImages map[string]string, rangeID string, tracker *cleanup.Tracker, rollback *Stack, meta *store.RangeMetadata) error {
	hv, err := o.HypervisorFor(host.HostID)
	if err != nil {
		return err
	}

	g, _ := errgroup.WithContext(context.Background())
	sem := make(chan struct{}, o.concurrency(len(instances)))
	var mu sync.Mutex

	for _, inst := range instances {
		inst := inst
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			overlay := fmt.Sprintf("%s/%s/%s.qcow2", o.CyberRangeDir, rangeID, inst.Name)
			spec := hypervisor.DomainSpec{
				Name:         inst.Name,
				OverlayPath:  overlay,
				VCPUs:        inst.Guest.VCPUs,
				MemoryMiB:    inst.Guest.MemoryMiB,
				Graphics:     inst.Guest.VirtInstall.Graphics,
				NetworkModel: inst.Guest.VirtInstall.NetworkModel,
				OSVariant:    inst.Guest.VirtInstall.OSVariant,
			}

			var base string
			if inst.Guest.BaseVMType == config.BaseVMKVM {
				// classic clone-from-XML path (§4.F, §1): the backing
				// disk comes from the domain template's own <source
				// file=...>, not from the image builder.
				xmlPath := inst.Guest.BaseVMConfigFile
				diskSrc, err := hypervisor.ExtractDiskSource(xmlPath)
				if err != nil {
					return cyrierr.Wrap(cyrierr.Hypervisor, err, "read backing disk for "+inst.Name)
				}
				base = diskSrc
				if err := hv.Clone(base, overlay); err != nil {
					return err
				}
				if err := hv.DefineFromXML(xmlPath, spec); err != nil {
					return err
				}
			} else {
				base = builtImages[imagebuild.Key(inst.Guest.ImageName, config.DiskSizeMiB(inst.Guest.DiskSize), inst.Guest.Tasks)]
				if base == "" {
					return cyrierr.New(cyrierr.Resource, "no built base image for guest "+inst.GuestID)
				}
				if err := hv.Clone(base, overlay); err != nil {
					return err
				}
				if err := hv.Define(spec); err != nil {
					return err
				}
			}

			tracker.RecordDomain(rangeID, store.DomainResource{Name: inst.Name, HostID: host.HostID, OverlayPath: overlay, BackingImage: base})

			mu.Lock()
			rollback.Push(func() error { return hv.Undefine(inst.Name) })
			rollback.Push(func() error { return deleteOverlay(overlay) })
			meta.ClonedGuests = append(meta.ClonedGuests, store.ClonedGuest{Name: inst.Name, GuestID: inst.GuestID, HostID: host.HostID, EntryPoint: inst.Entry})
			mu.Unlock()
			return nil
		})
	}

	return g.Wait()
}

func (o *Orchestrator) setupTopology(host config.CloneHost, rangeID string, ctx ledger.Context, tracker *cleanup.Tracker, rollback *Stack) ([]store.IPAssignment, error) {
	for _, name := range config.SortedNetworkNames(host) {
		bridge := topology.BridgeName(rangeID, name)
		hv, err := o.HypervisorFor(host.HostID)
		if err != nil {
			return nil, err
		}
		if err := hv.NetworkCreate(bridge, ""); err != nil {
			return nil, err
		}
		rollback.Push(func() error { return hv.NetworkDestroy(bridge) })
		tracker.RecordBridge(rangeID, bridge, host.HostID)
	}

	assignments, err := topology.AllocateIPs(host)
	if err != nil {
		return nil, err
	}
	tracker.RecordIPReservations(rangeID, assignments)

	rules, err := topology.SynthesizeRules(rangeID, host)
	if err != nil {
		return nil, err
	}

	account := o.Credentials(host.HostID).User
	marks, err := topology.Apply(o.Ledger, ctx, rangeID, rules, o.Elevator, host.HostID, account)
	if err != nil {
		return nil, err
	}
	rollback.Push(func() error {
		topology.Teardown(o.Ledger, ctx, rangeID, marks, o.Elevator, host.HostID, account)
		return nil
	})
	tracker.RecordAppliedRules(rangeID, marks)

	return assignments, nil
}

// startAndRunTasks boots every instance and runs its guest task list.
// A readiness failure is non-fatal: that guest's tasks are skipped and
// the rest of the range still proceeds. kvm-auto guests already ran their
// offline-representable tasks during the image build (§4.G step 2), so
// only their also_runtime tasks and the kinds the image build leaves for
// the running guest run here (tasks.RuntimeTasks); classic kvm guests run
// their full declared list, since they were never customized offline.
func (o *Orchestrator) startAndRunTasks(host config.CloneHost, instances []instance) map[string][]tasks.Outcome {
	results := make(map[string][]tasks.Outcome)

	type outcome struct {
		name     string
		outcomes []tasks.Outcome
	}

	sem := make(chan struct{}, o.concurrency(len(instances)))
	out := make(chan outcome, len(instances))

	for _, inst := range instances {
		inst := inst
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()

			hv, err := o.HypervisorFor(inst.HostID)
			if err != nil {
				out <- outcome{inst.Name, nil}
				return
			}
			if err := hv.Start(inst.Name); err != nil {
				cyrislog.Warn("orchestrator: start %s failed: %v", inst.Name, err)
				out <- outcome{inst.Name, nil}
				return
			}

			ip, ready := awaitReady(func() (string, error) {
				ip, _, _, err := o.Resolver.Resolve(inst.Name, "")
				return ip, err
			})
			if !ready {
				out <- outcome{inst.Name, nil}
				return
			}

			taskList := inst.Guest.Tasks
			if inst.Guest.BaseVMType == config.BaseVMKVMAuto {
				taskList = tasks.RuntimeTasks(inst.Guest.Tasks)
			}

			creds := o.Credentials(inst.HostID)
			client := sshexec.NewClient(ip, creds)
			outcomes, err := tasks.RunAll(client, inst.Name, ip, 30*time.Second, taskList)
			if err != nil {
				cyrislog.Error("orchestrator: %s: %v", inst.Name, err)
			}

			out <- outcome{inst.Name, outcomes}
		}()
	}

	for range instances {
		r := <-out
		results[r.name] = r.outcomes
	}

	return results
}
