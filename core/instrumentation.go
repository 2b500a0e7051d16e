package kiosk

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-kiosk/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	discardedCounter, _ = meter.Int64Counter("kiosk.frames.discarded",
		metric.WithDescription("Inbound frames that were unrecognised or stale"))
	droppedCounter, _ = meter.Int64Counter("kiosk.requests.dropped",
		metric.WithDescription("Outbound requests dropped because no connection was open"))
)
