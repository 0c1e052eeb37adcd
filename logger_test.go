package userstate

import (
	"fmt"
	"sync"
)

type logEntry struct {
	Level string
	Msg   string
	Args  []any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
	onLog   func(logEntry)
}

func (l *recordingLogger) Debug(msg string, args ...any) {
	l.record(logEntry{Level: "debug", Msg: msg, Args: args})
}

func (l *recordingLogger) Error(msg string, args ...any) {
	l.record(logEntry{Level: "error", Msg: msg, Args: args})
}

func (l *recordingLogger) record(entry logEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	hook := l.onLog
	l.mu.Unlock()
	if hook != nil {
		hook(entry)
	}
}

func (l *recordingLogger) Entries() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]logEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *recordingLogger) Messages(level string) []string {
	var out []string
	for _, entry := range l.Entries() {
		if entry.Level == level {
			out = append(out, entry.Msg)
		}
	}
	return out
}

func (e logEntry) arg(key string) (any, bool) {
	for i := 0; i+1 < len(e.Args); i += 2 {
		if fmt.Sprint(e.Args[i]) == key {
			return e.Args[i+1], true
		}
	}
	return nil, false
}
