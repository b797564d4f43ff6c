package tasks

import "github.com/cyris-project/cyris/internal/config"

func stringParam(task config.Task, key string) string {
	v, ok := task.Params[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func intParam(task config.Task, key string) int {
	v, ok := task.Params[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func sliceParam(task config.Task, key string) []string {
	v, ok := task.Params[key]
	if !ok {
		return nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
