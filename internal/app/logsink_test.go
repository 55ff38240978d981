package app

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLogCapture_KeepsLastLines(t *testing.T) {
	l := newLogCapture(3)
	for i := range 5 {
		_, _ = fmt.Fprintf(l, "line %d\r\n", i)
	}
	assert.Equal(t, "line 2\nline 3\nline 4", l.Text())
}

func TestLogCapture_NotifiesOnWrite(t *testing.T) {
	l := newLogCapture(10)
	calls := 0
	l.setNotify(func() { calls++ })
	_, _ = l.Write([]byte("a\nb\n"))
	assert.Equal(t, 1, calls)
}

func TestLogCapture_Core(t *testing.T) {
	l := newLogCapture(10)
	logger := zap.New(l.core(zapcore.InfoLevel))

	logger.Info("catalog loaded", zap.Int("indexed", 3))
	logger.Debug("feature defaulted to 0")

	text := l.Text()
	assert.Contains(t, text, "INFO")
	assert.Contains(t, text, "catalog loaded")
	assert.Contains(t, text, `"indexed": 3`)
	assert.False(t, strings.Contains(text, "feature defaulted"))
}

func TestLogDebouncer_CoalescesBursts(t *testing.T) {
	var flushes atomic.Int32
	d := newLogDebouncer(20*time.Millisecond, func() { flushes.Add(1) })
	defer d.Stop()

	for range 50 {
		d.Request()
	}
	require.Eventually(t, func() bool { return flushes.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.EqualValues(t, 1, flushes.Load())
}

func TestLogDebouncer_StopEndsLoop(t *testing.T) {
	var flushes atomic.Int32
	d := newLogDebouncer(time.Hour, func() { flushes.Add(1) })
	d.Request()

	stopped := make(chan struct{})
	go func() {
		d.Stop()
		d.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("debouncer loop did not exit")
	}
	d.Request()
	assert.Zero(t, flushes.Load())
}

func TestLogCapture_DetachedNotify(t *testing.T) {
	var calls atomic.Int32
	l := newLogCapture(10)
	l.setNotify(func() { calls.Add(1) })
	_, _ = fmt.Fprintln(l, "one")
	l.setNotify(nil)
	_, _ = fmt.Fprintln(l, "two")
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, "one\ntwo", l.Text())
}
