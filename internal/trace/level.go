package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	// LevelOff disables tracing.
	LevelOff      Level = iota // no tracing
	LevelError                 // only faults
	LevelObject                // runtime + object lifecycle
	LevelDispatch              // + method dispatch and exceptions
	LevelDebug                 // everything including per-value events
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelObject:
		return "object"
	case LevelDispatch:
		return "dispatch"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "object":
		return LevelObject, nil
	case "dispatch":
		return LevelDispatch, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|object|dispatch|debug)", s)
	}
}

// ShouldEmit returns true if the given scope should emit at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelOff:
		return false
	case LevelError:
		return false // faults bypass scope filtering, see Allows
	case LevelObject:
		return scope <= ScopeObject
	case LevelDispatch:
		return scope <= ScopeDispatch
	case LevelDebug:
		return true
	}
	return false
}

// Allows reports whether ev passes this level. Heartbeats and faults pass
// every level except off.
func (l Level) Allows(ev *Event) bool {
	if ev.Kind == KindHeartbeat || ev.Kind == KindFault {
		return l > LevelOff
	}
	return l.ShouldEmit(ev.Scope)
}
