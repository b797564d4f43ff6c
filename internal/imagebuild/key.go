// Package imagebuild implements the Image Builder (§4.G): building a
// kvm-auto base image once per distinct (image, disk size, build-time
// task list) combination, then distributing the resulting qcow2 to every
// host that needs it.
package imagebuild

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/cyris-project/cyris/internal/config"
)

// Key returns a stable identifier for a build: two guests that request
// the same image, disk size, and build-time tasks share one build rather
// than each triggering its own.
func Key(imageName string, diskSize int, tasks []config.Task) string {
	type taskKey struct {
		Kind   string                 `json:"kind"`
		Params map[string]interface{} `json:"params"`
	}

	keys := make([]taskKey, len(tasks))
	for i, t := range tasks {
		keys[i] = taskKey{Kind: t.Kind, Params: t.Params}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Kind < keys[j].Kind })

	payload, _ := json.Marshal(struct {
		Image string    `json:"image"`
		Disk  int       `json:"disk"`
		Tasks []taskKey `json:"tasks"`
	}{Image: imageName, Disk: diskSize, Tasks: keys})

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])[:16]
}
