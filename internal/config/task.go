package config

import "fmt"

var taskSidecarKeys = map[string]bool{
	"fatal":        true,
	"also_runtime": true,
}

// UnmarshalYAML decodes one `tasks:` list entry. Each entry is a single-key
// map naming the task kind (e.g. `add_account`), plus optional sibling keys
// `fatal` and `also_runtime` (§4.I, §4.9). The kind's value may be a single
// object or a list of objects (e.g. several accounts in one add_account
// task); either form is normalized into Params, with a list form stashed
// under the "items" key so handlers don't need to special-case it.
func (t *Task) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	for k, v := range raw {
		if taskSidecarKeys[k] {
			continue
		}

		if t.Kind != "" {
			return fmt.Errorf("task entry has more than one kind key (%q and %q)", t.Kind, k)
		}
		t.Kind = k

		switch val := v.(type) {
		case []interface{}:
			t.Params = map[string]interface{}{"items": val}
		case map[string]interface{}:
			t.Params = val
		case nil:
			t.Params = map[string]interface{}{}
		default:
			t.Params = map[string]interface{}{"value": val}
		}
	}

	if t.Kind == "" {
		return fmt.Errorf("task entry has no kind key")
	}

	if v, ok := raw["fatal"].(bool); ok {
		t.Fatal = v
	}
	if v, ok := raw["also_runtime"].(bool); ok {
		t.AlsoRuntime = v
	}

	return nil
}
