package main

import (
	"net"
	"os"

	"github.com/rs/zerolog"

	"github.com/whereami-sh/whereami/geolib"
)

type logger struct {
	lookupLog zerolog.Logger
}

// Individual provider failures are an expected condition, not an
// incident, so they go out on debug level only.
func (l *logger) LookupError(ip net.IP, name string, err error) {
	l.lookupLog.Debug().Str("provider", name).Stringer("ip", ip).Err(err).Msg("")
}

func newLogger() geolib.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	return &logger{
		lookupLog: zerolog.New(os.Stderr).With().Timestamp().Str("event_name", "lookup").Logger(),
	}
}
