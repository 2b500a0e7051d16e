package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/koscakluka/ema-kiosk/core/audio"
	"github.com/koscakluka/ema-kiosk/core/speechtotext"
)

// chunkDuration is how much audio goes into one binary frame.
const chunkDuration = 100 // ms

// Transcribe streams a finished recording through the listen websocket and
// returns the concatenated final transcript.
func (c *TranscriptionClient) Transcribe(ctx context.Context, pcm []byte, opts ...speechtotext.TranscriptionOption) (string, error) {
	ctx, span := tracer.Start(ctx, "transcribe recording")
	defer span.End()

	options := speechtotext.NewTranscriptionOptions(opts...)
	span.SetAttributes(
		attribute.Int("audio.bytes", len(pcm)),
		attribute.String("request.model", c.model),
	)

	transcript, err := c.transcribe(ctx, pcm, options)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return transcript, nil
}

func (c *TranscriptionClient) transcribe(ctx context.Context, pcm []byte, options speechtotext.TranscriptionOptions) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("deepgram api key not found")
	}
	if len(pcm) == 0 {
		return "", speechtotext.ErrEmptyTranscript
	}
	language := c.language
	if options.Language != "" {
		language = options.Language
	}
	params, err := newListenParams(options.EncodingInfo, c.model, language)
	if err != nil {
		return "", fmt.Errorf("invalid encoding: %w", err)
	}

	conn, err := c.connectWebsocket(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to open websocket: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	writeErr := make(chan error, 1)
	go func() {
		writeErr <- sendRecording(conn, pcm, options.EncodingInfo)
	}()

	var transcript strings.Builder
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				logger.Debug("deepgram listen socket closed", "error", err)
			}
			break
		}
		if msgType == websocket.BinaryMessage {
			continue
		}
		if segment, ok := finalSegment(msg); ok {
			if transcript.Len() > 0 {
				transcript.WriteByte(' ')
			}
			transcript.WriteString(segment)
		}
	}

	if err := <-writeErr; err != nil && transcript.Len() == 0 {
		return "", err
	}
	if transcript.Len() == 0 {
		return "", speechtotext.ErrEmptyTranscript
	}
	return transcript.String(), nil
}

func (c *TranscriptionClient) connectWebsocket(ctx context.Context, params listenParams) (*websocket.Conn, error) {
	listenURL, err := params.url(c.listenURL)
	if err != nil {
		return nil, err
	}

	conn, resp, err := c.dialer.DialContext(ctx, listenURL,
		http.Header{"Authorization": {"Token " + c.apiKey}})
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

// sendRecording writes the audio in fixed size chunks and asks the server
// to flush and close once everything is sent.
func sendRecording(conn *websocket.Conn, pcm []byte, info audio.EncodingInfo) error {
	chunkSize := info.BytesPerSecond() * chunkDuration / 1000
	if chunkSize <= 0 {
		chunkSize = len(pcm)
	}

	for start := 0; start < len(pcm); start += chunkSize {
		end := min(start+chunkSize, len(pcm))
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[start:end]); err != nil {
			return fmt.Errorf("failed to write to deepgram client: %w", err)
		}
	}

	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("failed to close deepgram stream: %w", err)
	}
	return nil
}

// finalSegment extracts the transcript of a final Results message.
func finalSegment(msg []byte) (string, bool) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return "", false
	}
	if api.TypeResponse(parsedMsg.Type) != api.TypeMessageResponse {
		return "", false
	}

	var msgResp api.MessageResponse
	if err := json.Unmarshal(msg, &msgResp); err != nil {
		logger.Warn("failed to unmarshal deepgram results", "error", err)
		return "", false
	}
	if !msgResp.IsFinal || len(msgResp.Channel.Alternatives) == 0 {
		return "", false
	}

	transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
	return transcript, transcript != ""
}

var _ speechtotext.Transcriber = (*TranscriptionClient)(nil)
