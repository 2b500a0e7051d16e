package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/koscakluka/ema-kiosk/core/audio"
	"github.com/koscakluka/ema-kiosk/core/texttospeech"
)

type websocketMessage struct {
	Type string `json:"type"`
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	clearMsg = websocketMessage{Type: "Clear"}
	closeMsg = websocketMessage{Type: "Close"}
)

// speakSocket serialises writes; the read side is owned by Synthesize.
type speakSocket struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (s *speakSocket) send(msg any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write deepgram message: %w", err)
	}
	return nil
}

// Synthesize speaks one utterance over a fresh websocket. It returns once
// deepgram reports the text as flushed.
func (c *TextToSpeechClient) Synthesize(ctx context.Context, text string, onAudio func([]byte), opts ...texttospeech.TextToSpeechOption) error {
	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()

	options := texttospeech.NewTextToSpeechOptions(audio.NewEncodingInfo(audio.DefaultPlaybackSampleRate, string(audio.EncodingLinear16)), opts...)
	voice := c.voice
	if options.Voice != "" {
		voice = deepgramVoice(options.Voice)
	}
	span.SetAttributes(attribute.String("request.voice", string(voice)), attribute.Int("request.text_length", len(text)))

	if err := c.synthesize(ctx, text, voice, options.EncodingInfo, onAudio); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (c *TextToSpeechClient) synthesize(ctx context.Context, text string, voice deepgramVoice, encodingInfo audio.EncodingInfo, onAudio func([]byte)) error {
	ws, err := c.connectWebsocket(ctx, voice, encodingInfo)
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}
	socket := &speakSocket{ws: ws}
	defer ws.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = socket.send(clearMsg)
		_ = ws.Close()
	})
	defer stop()

	if err := socket.send(speakMessage{Type: "Speak", Text: text}); err != nil {
		return err
	}
	if err := socket.send(flushMsg); err != nil {
		return err
	}

	for {
		msgType, msg, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("deepgram speak socket closed before flush: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			onAudio(msg)
		case websocket.TextMessage:
			var parsedMsg websocketMessage
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Warn("failed to unmarshal deepgram message", "error", err)
				continue
			}
			switch parsedMsg.Type {
			case "Flushed":
				if err := socket.send(closeMsg); err != nil {
					logger.Debug("failed to close deepgram stream", "error", err)
				}
				return nil
			case "Warning", "Error":
				logger.Warn("deepgram speak message", "message", string(msg))
			}
		}
	}
}

func (c *TextToSpeechClient) connectWebsocket(ctx context.Context, voice deepgramVoice, encodingInfo audio.EncodingInfo) (*websocket.Conn, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	speakURL, err := url.Parse(c.speakURL)
	if err != nil {
		return nil, fmt.Errorf("invalid speak url: %w", err)
	}
	urlValues := speakURL.Query()
	urlValues.Set("encoding", encodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("model", string(voice))
	urlValues.Set("container", "none")
	speakURL.RawQuery = urlValues.Encode()

	conn, resp, err := c.dialer.DialContext(ctx, speakURL.String(),
		http.Header{"Authorization": {"token " + c.apiKey}})
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

var _ texttospeech.Synthesizer = (*TextToSpeechClient)(nil)
