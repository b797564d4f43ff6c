package imagebuild

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cyris-project/cyris/internal/config"
)

func TestKey_StableAcrossTaskOrder(t *testing.T) {
	tasks1 := []config.Task{
		{Kind: "install_package", Params: map[string]interface{}{"items": []interface{}{"nmap"}}},
		{Kind: "add_account", Params: map[string]interface{}{"account": "trainee"}},
	}
	tasks2 := []config.Task{tasks1[1], tasks1[0]}

	assert.Equal(t, Key("desktop", 10240, tasks1), Key("desktop", 10240, tasks2))
}

func TestKey_DiffersOnDiskSize(t *testing.T) {
	assert.NotEqual(t, Key("desktop", 10240, nil), Key("desktop", 20480, nil))
}
