package openai

import "go.opentelemetry.io/otel"

const scopeName = "github.com/koscakluka/ema-kiosk/core/speechtotext/openai"

var tracer = otel.Tracer(scopeName)
