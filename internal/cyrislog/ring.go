package cyrislog

import (
	"container/ring"
	"sync"
)

// Ring is a fixed-size, concurrency-safe buffer of recent log lines; Dump
// returns the last lines without re-reading a log file. `status --verbose`
// reads creation.log from disk and does not use it.
type Ring struct {
	size int

	mu sync.Mutex
	r  *ring.Ring
}

func NewRing(size int) *Ring {
	return &Ring{r: ring.New(size), size: size}
}

func (l *Ring) Append(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.r = l.r.Next()
	l.r.Value = line
}

// Dump returns buffered lines, oldest first.
func (l *Ring) Dump() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	res := make([]string, 0, l.size)

	l.r.Next().Do(func(v interface{}) {
		if v == nil {
			return
		}
		res = append(res, v.(string))
	})

	return res
}
