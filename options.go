package emailrule

import (
	"io"

	"github.com/charmbracelet/log"
)

// Logger receives a warning whenever a remote lookup fails.
// *log.Logger from github.com/charmbracelet/log satisfies it.
type Logger interface {
	Warn(msg interface{}, keyvals ...interface{})
}

// discardLogger is used when WithLogger is given nil.
var discardLogger Logger = log.New(io.Discard)

// ConcurrencyOptions configures concurrent processing for ValidateMany.
type ConcurrencyOptions struct {
	// Workers is the number of concurrent lookups. Default: 5
	Workers int
}

func defaultConcurrencyOptions() ConcurrencyOptions {
	return ConcurrencyOptions{Workers: 5}
}
