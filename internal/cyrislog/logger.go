package cyrislog

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Logger is a single named, leveled sink. Multiple Loggers can be registered
// against the package-level functions so that, e.g., a range's creation.log
// and the process's stderr both receive the same events at different
// levels.
type Logger struct {
	name  string
	out   *log.Logger
	level Level
	color bool
	ring  *Ring
}

var (
	mu      sync.RWMutex
	loggers = make(map[string]*Logger)
)

// AddLogger registers a named logger writing to w at the given level. If
// ring is non-nil, every line is also appended to it.
func AddLogger(name string, w io.Writer, level Level, useColor bool, ring *Ring) {
	mu.Lock()
	defer mu.Unlock()

	loggers[name] = &Logger{
		name:  name,
		out:   log.New(w, "", log.LstdFlags),
		level: level,
		color: useColor,
		ring:  ring,
	}
}

// DelLogger removes a previously registered logger.
func DelLogger(name string) {
	mu.Lock()
	defer mu.Unlock()
	delete(loggers, name)
}

func levelColor(l Level) *color.Color {
	switch l {
	case DEBUG:
		return color.New(color.FgBlue)
	case INFO:
		return color.New(color.FgGreen)
	case WARN:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func dispatch(level Level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	mu.RLock()
	defer mu.RUnlock()

	for _, l := range loggers {
		if level < l.level {
			continue
		}

		line := fmt.Sprintf("%s: %s: %s", level, l.name, msg)

		if l.color {
			line = levelColor(level).Sprint(line)
		}

		l.out.Println(line)

		if l.ring != nil {
			l.ring.Append(line)
		}
	}
}

func Debug(format string, args ...interface{}) { dispatch(DEBUG, format, args...) }
func Info(format string, args ...interface{})  { dispatch(INFO, format, args...) }
func Warn(format string, args ...interface{})   { dispatch(WARN, format, args...) }
func Error(format string, args ...interface{})  { dispatch(ERROR, format, args...) }

// Fatal logs at FATAL and then exits the process. Used only at the top of
// cmd/cyris, never from library code.
func Fatal(format string, args ...interface{}) {
	dispatch(FATAL, format, args...)
	os.Exit(1)
}
