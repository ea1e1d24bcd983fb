package diagnostics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/chunklink/pkg/types"
)

// LogLevel is the configured minimum level; "silent" suppresses everything
type LogLevel string

const (
	LogLevelSilent LogLevel = "silent"
	LogLevelWarn   LogLevel = "warn"
	LogLevelInfo   LogLevel = "info"
	LogLevelDebug  LogLevel = "debug"
)

// ErrInvalidLogLevel is returned for an unrecognized log level
var ErrInvalidLogLevel = errors.New("invalid log level")

// ParseLogLevel parses a configured log level
func ParseLogLevel(s string) (LogLevel, error) {
	switch l := LogLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case LogLevelSilent, LogLevelWarn, LogLevelInfo, LogLevelDebug:
		return l, nil
	case "":
		return LogLevelInfo, nil
	default:
		return "", fmt.Errorf("%w: %q (expected silent, warn, info or debug)", ErrInvalidLogLevel, s)
	}
}

// minPriority returns the lowest event priority that passes the filter
func (l LogLevel) minPriority() int {
	switch l {
	case LogLevelSilent:
		return types.LevelError.Priority() + 1
	case LogLevelWarn:
		return types.LevelWarn.Priority()
	case LogLevelDebug:
		return types.LevelDebug.Priority()
	default:
		return types.LevelInfo.Priority()
	}
}

// Continue hands a (possibly rewritten) event onwards
type Continue func(level types.Level, ev *types.Event)

// LogHook is the level-aware host hook. Calling next with types.LevelError
// escalates the event into a fatal error. Not calling next suppresses it.
type LogHook func(level types.Level, ev *types.Event, next Continue)

// WarnHook is the legacy warn-only host hook. Calling next delivers the
// (possibly rewritten) warning to the default renderer.
type WarnHook func(ev *types.Event, next func(*types.Event))

// Variant is the resolved combination of host hooks
type Variant int

const (
	VariantNone Variant = iota
	VariantLegacy
	VariantLevelAware
	VariantBoth
)

func (v Variant) String() string {
	switch v {
	case VariantLegacy:
		return "legacy"
	case VariantLevelAware:
		return "level-aware"
	case VariantBoth:
		return "both"
	default:
		return "none"
	}
}

// Config holds dispatcher configuration
type Config struct {
	LogLevel           LogLevel
	StrictDeprecations bool
	OnLog              LogHook
	OnWarn             WarnHook
	Renderer           Renderer // nil discards delivered events
}

// Dispatcher delivers events to host hooks and the default renderer
type Dispatcher struct {
	minPriority int
	strict      bool
	variant     Variant
	dispatch    func(level types.Level, ev *types.Event) error
}

// New resolves the hook variant and builds the dispatch function
func New(cfg Config) (*Dispatcher, error) {
	level, err := ParseLogLevel(string(cfg.LogLevel))
	if err != nil {
		return nil, err
	}

	renderer := cfg.Renderer
	if renderer == nil {
		renderer = Discard{}
	}

	d := &Dispatcher{
		minPriority: level.minPriority(),
		strict:      cfg.StrictDeprecations,
	}

	// Default path: warn-level events detour through the legacy hook
	deliver := renderer.Render
	if cfg.OnWarn != nil {
		onWarn := cfg.OnWarn
		deliver = func(level types.Level, ev *types.Event) {
			if level != types.LevelWarn {
				renderer.Render(level, ev)
				return
			}
			onWarn(ev, func(rewritten *types.Event) {
				renderer.Render(types.LevelWarn, orEvent(rewritten, ev))
			})
		}
	}

	switch {
	case cfg.OnLog != nil && cfg.OnWarn != nil:
		d.variant = VariantBoth
	case cfg.OnLog != nil:
		d.variant = VariantLevelAware
	case cfg.OnWarn != nil:
		d.variant = VariantLegacy
	default:
		d.variant = VariantNone
	}

	if cfg.OnLog == nil {
		d.dispatch = func(level types.Level, ev *types.Event) error {
			deliver(level, ev)
			return nil
		}
		return d, nil
	}

	onLog := cfg.OnLog
	d.dispatch = func(level types.Level, ev *types.Event) error {
		var escalated error
		onLog(level, ev, func(next types.Level, rewritten *types.Event) {
			rewritten = orEvent(rewritten, ev)
			if next == types.LevelError {
				if escalated == nil {
					escalated = escalate(rewritten)
				}
				return
			}
			if next.Priority() >= d.minPriority {
				deliver(next, rewritten)
			}
		})
		return escalated
	}
	return d, nil
}

// Variant returns the resolved hook combination
func (d *Dispatcher) Variant() Variant {
	return d.variant
}

// Enabled reports whether events of the level pass the log-level filter
func (d *Dispatcher) Enabled(level types.Level) bool {
	return level.Priority() >= d.minPriority
}

// Log raises an event at the given level. The returned error is non-nil
// only when a hook escalated the event.
func (d *Dispatcher) Log(level types.Level, ev *types.Event) error {
	if ev == nil {
		return nil
	}
	if level == types.LevelError {
		return escalate(ev)
	}
	if !d.Enabled(level) {
		return nil
	}
	return d.dispatch(level, ev)
}

// Warn raises a warn-level event
func (d *Dispatcher) Warn(ev *types.Event) error {
	return d.Log(types.LevelWarn, ev)
}

// Info raises an info-level event
func (d *Dispatcher) Info(ev *types.Event) error {
	return d.Log(types.LevelInfo, ev)
}

// Debug raises a debug-level event
func (d *Dispatcher) Debug(ev *types.Event) error {
	return d.Log(types.LevelDebug, ev)
}

// Deprecate raises a deprecation warning, or returns a fatal configuration
// error under strict deprecations
func (d *Dispatcher) Deprecate(ev *types.Event) error {
	ev.Deprecation = true
	if ev.Code == "" {
		ev.Code = types.CodeDeprecatedFeature
	}
	if d.strict {
		return &types.Error{
			Kind:    types.KindConfig,
			Code:    types.CodeDeprecatedFeature,
			Message: ev.Message + ". This is a warning by default but strictDeprecations is enabled",
		}
	}
	return d.Warn(ev)
}

func escalate(ev *types.Event) error {
	return &types.Error{
		Kind:    types.KindPlugin,
		Code:    types.CodePluginError,
		Message: ev.String(),
	}
}

func orEvent(ev, fallback *types.Event) *types.Event {
	if ev == nil {
		return fallback
	}
	return ev
}
