// Package logx gates verbose diagnostics behind a runtime switch so hot
// paths (per-fix GPS decisions, env overrides) stay quiet by default.
package logx

import (
	"log"
	"os"
	"sync/atomic"
)

var (
	debugEnabled atomic.Bool
	logger       = log.New(os.Stderr, "[debug] ", log.Ldate|log.Ltime|log.Lmicroseconds)
)

// EnableDebug toggles debug logging.
func EnableDebug(enable bool) {
	debugEnabled.Store(enable)
}

func Enabled() bool { return debugEnabled.Load() }

// Debugf prints when debug logging is on.
func Debugf(format string, args ...any) {
	if !debugEnabled.Load() {
		return
	}
	logger.Printf(format, args...)
}
