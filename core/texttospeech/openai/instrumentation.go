package openai

import "go.opentelemetry.io/otel"

const scopeName = "github.com/koscakluka/ema-kiosk/core/texttospeech/openai"

var tracer = otel.Tracer(scopeName)
