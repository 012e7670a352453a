// Package testlog provides an in-memory logx.Logger for assertions in tests.
package testlog

import (
	"sync"

	"service-fulfillment/internal/logx"
)

// Entry is one recorded log call.
type Entry struct {
	Level  string
	Msg    string
	Fields []logx.Field
}

// Value returns the value of the named field and whether it was present.
func (e Entry) Value(key string) (any, bool) {
	for i := len(e.Fields) - 1; i >= 0; i-- {
		if e.Fields[i].Key == key {
			return e.Fields[i].Value, true
		}
	}
	return nil, false
}

// Recorder collects entries from every logger it hands out.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func New() *Recorder { return &Recorder{} }

// Logger returns a logx.Logger that writes into r.
func (r *Recorder) Logger() logx.Logger {
	return sink{r: r}
}

// Entries returns a snapshot of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// ByLevel returns the entries recorded at level.
func (r *Recorder) ByLevel(level string) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Messages returns the message of every entry in order.
func (r *Recorder) Messages() []string {
	entries := r.Entries()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Msg)
	}
	return out
}

func (r *Recorder) record(level, msg string, base, fields []logx.Field) {
	all := make([]logx.Field, 0, len(base)+len(fields))
	all = append(all, base...)
	all = append(all, fields...)

	r.mu.Lock()
	r.entries = append(r.entries, Entry{Level: level, Msg: msg, Fields: all})
	r.mu.Unlock()
}

type sink struct {
	r    *Recorder
	base []logx.Field
}

func (s sink) Debug(msg string, f ...logx.Field) { s.r.record("debug", msg, s.base, f) }
func (s sink) Info(msg string, f ...logx.Field)  { s.r.record("info", msg, s.base, f) }
func (s sink) Warn(msg string, f ...logx.Field)  { s.r.record("warn", msg, s.base, f) }
func (s sink) Error(msg string, f ...logx.Field) { s.r.record("error", msg, s.base, f) }

func (s sink) With(f ...logx.Field) logx.Logger {
	base := make([]logx.Field, 0, len(s.base)+len(f))
	base = append(base, s.base...)
	base = append(base, f...)
	return sink{r: s.r, base: base}
}

func (s sink) Sync() error { return nil }

var _ logx.Logger = sink{}
