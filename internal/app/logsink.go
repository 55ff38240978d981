package app

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logLineLimit = 200

// logCapture keeps the last log lines for the log panel. It is written by
// a zap core and read by the debounced UI updater.
type logCapture struct {
	mu     sync.Mutex
	lines  []string
	limit  int
	notify func()
}

func newLogCapture(limit int) *logCapture {
	return &logCapture{limit: limit}
}

func (l *logCapture) Write(p []byte) (int, error) {
	l.mu.Lock()
	text := strings.ReplaceAll(string(p), "\r\n", "\n")
	for _, part := range strings.Split(text, "\n") {
		if part == "" {
			continue
		}
		l.lines = append(l.lines, part)
	}
	if len(l.lines) > l.limit {
		l.lines = l.lines[len(l.lines)-l.limit:]
	}
	notify := l.notify
	l.mu.Unlock()

	if notify != nil {
		notify()
	}
	return len(p), nil
}

func (l *logCapture) Sync() error { return nil }

func (l *logCapture) setNotify(fn func()) {
	l.mu.Lock()
	l.notify = fn
	l.mu.Unlock()
}

func (l *logCapture) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

// core encodes entries as short console lines for the panel.
func (l *logCapture) core(level zapcore.LevelEnabler) zapcore.Core {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.CallerKey = ""
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), l, level)
}

// logDebouncer coalesces bursts of log writes into one flush per interval.
// Stop ends the loop and waits for it to exit.
type logDebouncer struct {
	trigger  chan struct{}
	done     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
}

func newLogDebouncer(interval time.Duration, flush func()) *logDebouncer {
	d := &logDebouncer{
		trigger: make(chan struct{}, 1),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	go d.loop(interval, flush)
	return d
}

func (d *logDebouncer) Request() {
	select {
	case d.trigger <- struct{}{}:
	default:
	}
}

func (d *logDebouncer) Stop() {
	d.stopOnce.Do(func() { close(d.done) })
	<-d.exited
}

func (d *logDebouncer) loop(interval time.Duration, flush func()) {
	defer close(d.exited)
	timer := time.NewTimer(interval)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-d.done:
			return
		case <-d.trigger:
			timer.Reset(interval)
		case <-timer.C:
			flush()
		}
	}
}
