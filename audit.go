package authsession

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/teamer-dev/authsession/internal/audit"
)

// AuditEvent is one security event. It carries the token id, never the
// token.
type AuditEvent = audit.Event

// AuditSink receives audit events from the engine's dispatcher goroutine.
type AuditSink = audit.Sink

type (
	NoOpSink       = audit.NoOpSink
	ChannelSink    = audit.ChannelSink
	JSONWriterSink = audit.JSONWriterSink
	LogSink        = audit.LogSink
)

func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewLogSink writes audit events as zerolog lines.
func NewLogSink(logger zerolog.Logger) LogSink {
	return audit.NewLogSink(logger)
}
