package bliss

import (
	"log/slog"
	"sync/atomic"

	"github.com/benjivesterby/go-bliss/internal/log"
)

const levelDebug = slog.LevelDebug

var pkgLogger atomic.Pointer[log.Logger]

// SetLogHandler routes the package's log records to h. Records carry a
// "module" attribute set to "bliss". A nil handler restores the default
// logger, whose level is read from the BLISS_LOG_LEVEL environment
// variable (warn if unset).
func SetLogHandler(h slog.Handler) {
	if h == nil {
		pkgLogger.Store(nil)
		return
	}
	pkgLogger.Store(log.NewWithHandler(h).Module("bliss"))
}

func logger() *log.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	return log.Default().Module("bliss")
}
