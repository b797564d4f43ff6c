package orchestrator

import (
	"os"

	"github.com/cyris-project/cyris/internal/cyrierr"
	"github.com/cyris-project/cyris/internal/store"
)

// Remove deletes a destroyed range's directory and metadata entry,
// transitioning it to REMOVED (§4.J "REMOVED deletes metadata"). A range
// that is not yet DESTROYED is refused unless force is set, in which case
// Remove destroys it first.
func (o *Orchestrator) Remove(rangeID string, force bool) error {
	meta, err := o.Metadata.Get(rangeID)
	if err != nil {
		return cyrierr.Wrap(cyrierr.Resource, err, "load range metadata")
	}

	if meta.Status != store.StatusDestroyed {
		if !force {
			return cyrierr.New(cyrierr.Resource, "range "+rangeID+" is not destroyed; pass force to destroy and remove it")
		}
		if err := o.Destroy(rangeID); err != nil {
			return err
		}
		meta, err = o.Metadata.Get(rangeID)
		if err != nil {
			return cyrierr.Wrap(cyrierr.Resource, err, "reload range metadata")
		}
	}

	if err := meta.Transition(store.StatusRemoved); err != nil {
		return cyrierr.Wrap(cyrierr.Resource, err, "transition to removed")
	}

	if meta.LogsPath != "" {
		if err := os.RemoveAll(meta.LogsPath); err != nil {
			return cyrierr.Wrap(cyrierr.Resource, err, "delete range directory")
		}
	}

	if err := o.Resources.Delete(rangeID); err != nil {
		return cyrierr.Wrap(cyrierr.Resource, err, "delete resource inventory")
	}
	if err := o.Metadata.Delete(rangeID); err != nil {
		return cyrierr.Wrap(cyrierr.Resource, err, "delete range metadata")
	}

	return nil
}
