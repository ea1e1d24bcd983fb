package diagnostics

import (
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/chunklink/pkg/types"
)

// Renderer is the default destination for delivered events
type Renderer interface {
	Render(level types.Level, ev *types.Event)
}

// Discard drops every event
type Discard struct{}

// Render implements Renderer
func (Discard) Render(types.Level, *types.Event) {}

// ZapRenderer writes events to a zap logger
type ZapRenderer struct {
	logger *zap.Logger
}

// NewZapRenderer creates a renderer backed by logger. A nil logger discards output.
func NewZapRenderer(logger *zap.Logger) *ZapRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapRenderer{logger: logger}
}

// Render implements Renderer
func (r *ZapRenderer) Render(level types.Level, ev *types.Event) {
	fields := make([]zap.Field, 0, 4)
	if ev.Code != "" {
		fields = append(fields, zap.String("code", ev.Code))
	}
	if ev.Plugin != "" {
		fields = append(fields, zap.String("plugin", ev.Plugin))
	}
	if ev.ID != "" {
		fields = append(fields, zap.String("id", ev.ID))
	}
	if len(ev.Names) > 0 {
		fields = append(fields, zap.Strings("names", ev.Names))
	}

	switch level {
	case types.LevelDebug:
		r.logger.Debug(ev.String(), fields...)
	case types.LevelInfo:
		r.logger.Info(ev.String(), fields...)
	default:
		r.logger.Warn(ev.String(), fields...)
	}
}

// Entry is one delivered event as seen by a Recorder
type Entry struct {
	Level   types.Level
	Code    string
	Message string
}

// Recorder keeps delivered events in delivery order. It can wrap another
// renderer so events are both recorded and rendered.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	next    Renderer
}

// NewRecorder creates a recorder that forwards to next (may be nil)
func NewRecorder(next Renderer) *Recorder {
	return &Recorder{next: next}
}

// Render implements Renderer
func (r *Recorder) Render(level types.Level, ev *types.Event) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{
		Level:   level,
		Code:    ev.Code,
		Message: ev.String(),
	})
	r.mu.Unlock()

	if r.next != nil {
		r.next.Render(level, ev)
	}
}

// Entries returns a copy of the recorded entries
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Levels returns the levels of the recorded entries in delivery order
func (r *Recorder) Levels() []types.Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Level, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Level
	}
	return out
}

// Count returns how many entries carry the given code
func (r *Recorder) Count(code string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Code == code {
			n++
		}
	}
	return n
}
