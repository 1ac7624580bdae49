// Package testlog provides a log handler for unit tests.
package testlog

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

// Testing interface to log to. Standard Go testing.TB implements this.
type Testing interface {
	Logf(format string, args ...any)
	Helper()
	Name() string
}

// testWriter forwards every complete log line to the unit test log.
type testWriter struct {
	t   Testing
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// keep the incomplete line for the next write
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.t.Logf("%s", strings.TrimSuffix(line, "\n"))
	}
	return len(p), nil
}

// Logger returns a logger which logs to the unit test log of t.
func Logger(t Testing, level slog.Level) log.Logger {
	return log.NewLogger(Handler(t, level))
}

// Handler returns a terminal handler writing to the unit test log of t.
func Handler(t Testing, level slog.Level) slog.Handler {
	return log.NewTerminalHandlerWithLevel(&testWriter{t: t}, level, false)
}
