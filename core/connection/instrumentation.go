package connection

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-kiosk/core/connection"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	reconnectCounter, _ = meter.Int64Counter("kiosk.connection.reconnects",
		metric.WithDescription("Reconnect attempts scheduled after a lost or failed connection"))
)
