package logging

import (
	"fmt"
	"io"
	"os"
)

// Backend names accepted by New.
const (
	BackendSlog = "slog"
	BackendText = "text"
	BackendZap  = "zap"
)

// New builds a Logger for the named backend writing to stdout.
func New(backend string, debug bool) (Logger, error) {
	return NewTo(os.Stdout, backend, debug)
}

// NewTo is New with an explicit destination. "slog" and "zap" emit JSON,
// "text" emits key=value lines for humans; debug enables the debug level.
func NewTo(w io.Writer, backend string, debug bool) (Logger, error) {
	switch backend {
	case "", BackendSlog:
		return newSlog(w, true, debug), nil
	case BackendText:
		return newSlog(w, false, debug), nil
	case BackendZap:
		return newZap(w, debug), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}
