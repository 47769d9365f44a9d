package config

import (
	"io"
	"log"
	"os"
)

// LogFlags matches the teacher's choice of a UTC date/time prefix on every
// log line, so logs from different machines line up when aggregated.
const LogFlags = log.Ldate | log.Ltime | log.LUTC

// Logger is satisfied by *log.Logger; it also satisfies diskcache.Logger,
// so ErrorLogger can be handed to diskcache.WithLogger.
type Logger interface {
	Printf(format string, v ...any)
}

// setLoggers wires AccessLogger/ErrorLogger from LogLevel. "none" silences
// the access logger entirely; the error logger always stays live, since a
// silent cache that also hides its own errors is never what an operator
// wants.
func (c *Config) setLoggers() {
	c.AccessLogger = log.New(os.Stdout, "", LogFlags)
	c.ErrorLogger = log.New(os.Stderr, "", LogFlags)

	if c.LogLevel == "none" {
		c.AccessLogger.(*log.Logger).SetOutput(io.Discard)
	}
}
