// Package progress reports what a long-running operation is doing and how
// far along it is.
package progress

import (
	"math"
	"sync"

	"go.uber.org/zap"
)

// Done is reported once an operation has finished. It is greater than every
// fraction, so a sink that only moves forward still accepts it.
var Done = math.Inf(1)

// IsDone reports whether p is the Done sentinel.
func IsDone(p float64) bool { return math.IsInf(p, 1) }

// Sink receives progress reports. Implementations must be safe for
// concurrent use.
type Sink interface {
	SetCurrentAction(action string)
	// SetProgress reports a fraction in [0, 1], or Done.
	SetProgress(p float64)
}

// Nop returns a sink that discards everything.
func Nop() Sink { return nopSink{} }

type nopSink struct{}

func (nopSink) SetCurrentAction(string) {}
func (nopSink) SetProgress(float64)     {}

// Log returns a sink writing reports to a zap logger: actions at Info,
// progress at Debug.
func Log(logger *zap.Logger) Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logSink{logger: logger}
}

type logSink struct {
	logger *zap.Logger
}

func (s *logSink) SetCurrentAction(action string) {
	s.logger.Info(action)
}

func (s *logSink) SetProgress(p float64) {
	if IsDone(p) {
		s.logger.Debug("progress", zap.Bool("done", true))
		return
	}
	s.logger.Debug("progress", zap.Float64("fraction", p))
}

// Monotonic wraps s so that progress never moves backwards and fractions
// stay within [0, 1]. Reports after Done are dropped.
func Monotonic(s Sink) Sink {
	return &monotonicSink{next: s}
}

type monotonicSink struct {
	next Sink

	mu   sync.Mutex
	last float64
	done bool
}

func (m *monotonicSink) SetCurrentAction(action string) {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if !done {
		m.next.SetCurrentAction(action)
	}
}

func (m *monotonicSink) SetProgress(p float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done {
		return
	}
	if IsDone(p) {
		m.done = true
		m.next.SetProgress(Done)
		return
	}
	if math.IsNaN(p) {
		return
	}
	p = math.Max(0, math.Min(1, p))
	if p < m.last {
		return
	}
	m.last = p
	m.next.SetProgress(p)
}

// Multi fans reports out to several sinks.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

type multiSink []Sink

func (m multiSink) SetCurrentAction(action string) {
	for _, s := range m {
		s.SetCurrentAction(action)
	}
}

func (m multiSink) SetProgress(p float64) {
	for _, s := range m {
		s.SetProgress(p)
	}
}

// Recorder is a sink that keeps every report, for tests and diagnostics.
type Recorder struct {
	mu       sync.Mutex
	actions  []string
	progress []float64
}

func (r *Recorder) SetCurrentAction(action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
}

func (r *Recorder) SetProgress(p float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
}

// Actions returns the reported actions in order.
func (r *Recorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.actions...)
}

// Progress returns the reported fractions in order.
func (r *Recorder) Progress() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.progress...)
}
