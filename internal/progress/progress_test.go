package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMonotonic(t *testing.T) {
	rec := &Recorder{}
	s := Monotonic(rec)

	for _, p := range []float64{0.1, 0.5, 0.3, 1.7, -1, 0.9} {
		s.SetProgress(p)
	}
	s.SetProgress(Done)
	s.SetProgress(0.2)
	s.SetCurrentAction("ignored after done")

	got := rec.Progress()
	assert.Equal(t, []float64{0.1, 0.5, 1}, got[:3])
	assert.Len(t, got, 4)
	assert.True(t, IsDone(got[3]))
	assert.Empty(t, rec.Actions())
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := Log(zap.New(core))

	s.SetCurrentAction("Reading schemas")
	s.SetProgress(0.25)
	s.SetProgress(Done)

	entries := logs.All()
	assert.Len(t, entries, 3)
	assert.Equal(t, "Reading schemas", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, 0.25, entries[1].ContextMap()["fraction"])
	assert.Equal(t, true, entries[2].ContextMap()["done"])
}

func TestMulti(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	s := Multi(a, b)
	s.SetCurrentAction("x")
	s.SetProgress(0.5)

	assert.Equal(t, []string{"x"}, a.Actions())
	assert.Equal(t, []float64{0.5}, b.Progress())
}

func TestBar(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar(&buf)

	b.SetCurrentAction("Reading tables")
	b.SetProgress(0.5)
	b.SetProgress(Done)

	out := buf.String()
	assert.Contains(t, out, "Reading tables")
	assert.Contains(t, out, "50%")
	assert.Contains(t, out, "done")
}
