package types

import (
	"strings"
	"sync"
)

// Level is the severity of a log event
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	// LevelError is only reachable by escalation and aborts the build
	LevelError Level = "error"
)

// Priority orders levels for filtering
func (l Level) Priority() int {
	switch l {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return -1
	}
}

// Event is a warning or log event. It is transient: raised, dispatched and
// discarded. Events must not be copied after first use.
type Event struct {
	Code        string
	Message     string
	Plugin      string
	ID          string   // module id the event refers to
	Names       []string // offending option keys, module ids, ...
	Deprecation bool

	renderOnce sync.Once
	rendered   string
}

// NewEvent creates an event with a code and message
func NewEvent(code, message string) *Event {
	return &Event{Code: code, Message: message}
}

// String returns the human-readable rendering. It is computed on first use
// and cached for the lifetime of the event.
func (e *Event) String() string {
	e.renderOnce.Do(func() {
		var b strings.Builder
		if e.Plugin != "" {
			b.WriteString("[plugin ")
			b.WriteString(e.Plugin)
			b.WriteString("] ")
		}
		b.WriteString(e.Message)
		if e.ID != "" {
			b.WriteString(" (")
			b.WriteString(e.ID)
			b.WriteString(")")
		}
		e.rendered = b.String()
	})
	return e.rendered
}
