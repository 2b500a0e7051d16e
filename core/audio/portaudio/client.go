package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-kiosk/core/audio"
)

// Client drives the default PortAudio input and output devices with
// blocking streams.
type Client struct {
	bufferSize int
	sampleRate int

	input  *inputStream
	output *outputStream
}

func NewClient(bufferSize, sampleRate int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	in := make([]int16, bufferSize)
	inStream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), bufferSize, in)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio input stream: %w", err)
	}

	out := make([]int16, bufferSize)
	outStream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), bufferSize, out)
	if err != nil {
		_ = inStream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio output stream: %w", err)
	}
	if err := outStream.Start(); err != nil {
		_ = inStream.Close()
		_ = outStream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to start portaudio output stream: %w", err)
	}

	encoding := audio.EncodingInfo{SampleRate: sampleRate, Format: audio.EncodingLinear16}
	client := &Client{
		bufferSize: bufferSize,
		sampleRate: sampleRate,
		input:      &inputStream{stream: inStream, in: in, encoding: encoding},
		output:     newOutputStream(outStream, out, encoding),
	}
	return client, nil
}

func (c *Client) Input() audio.Input   { return c.input }
func (c *Client) Output() audio.Output { return c.output }

func (c *Client) Close() {
	_ = c.input.StopCapture()
	c.output.close()
	_ = c.input.stream.Close()
	_ = portaudio.Terminate()
}

type inputStream struct {
	stream   *portaudio.Stream
	in       []int16
	encoding audio.EncodingInfo

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *inputStream) EncodingInfo() audio.EncodingInfo { return s.encoding }

func (s *inputStream) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("failed to start portaudio input stream: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.read(ctx, onAudio, s.done)
	return nil
}

func (s *inputStream) read(ctx context.Context, onAudio func(audio []byte), done chan struct{}) {
	defer close(done)
	for ctx.Err() == nil {
		if err := s.stream.Read(); err != nil {
			logger.Warn("failed to read from portaudio stream", "error", err)
			continue
		}

		audioBuffer := bytes.Buffer{}
		_ = binary.Write(&audioBuffer, binary.LittleEndian, s.in)
		onAudio(audioBuffer.Bytes())
	}
}

func (s *inputStream) StopCapture() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	if err := s.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop portaudio input stream: %w", err)
	}
	return nil
}

type outputChunk struct {
	audio []byte
	mark  *outputMark
}

type outputMark struct {
	name     string
	callback func(string)
}

type outputStream struct {
	stream   *portaudio.Stream
	out      []int16
	encoding audio.EncodingInfo

	mu       sync.Mutex
	queue    []outputChunk
	leftover []byte
	wake     chan struct{}
	closed   chan struct{}
}

func newOutputStream(stream *portaudio.Stream, out []int16, encoding audio.EncodingInfo) *outputStream {
	s := &outputStream{
		stream:   stream,
		out:      out,
		encoding: encoding,
		wake:     make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *outputStream) EncodingInfo() audio.EncodingInfo { return s.encoding }

func (s *outputStream) SendAudio(audio []byte) error {
	s.push(outputChunk{audio: audio})
	return nil
}

func (s *outputStream) Mark(name string, callback func(string)) error {
	s.push(outputChunk{mark: &outputMark{name: name, callback: callback}})
	return nil
}

func (s *outputStream) ClearBuffer() {
	s.mu.Lock()
	pending := s.queue
	s.queue = nil
	s.leftover = nil
	s.mu.Unlock()

	for _, chunk := range pending {
		if chunk.mark != nil {
			go chunk.mark.callback(chunk.mark.name)
		}
	}
}

func (s *outputStream) push(chunk outputChunk) {
	s.mu.Lock()
	s.queue = append(s.queue, chunk)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *outputStream) loop() {
	frameBytes := len(s.out) * 2
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.closed:
				return
			}
		}
		chunk := s.queue[0]
		s.queue = s.queue[1:]
		if chunk.mark != nil {
			s.mu.Unlock()
			chunk.mark.callback(chunk.mark.name)
			continue
		}
		pending := append(s.leftover, chunk.audio...)
		s.leftover = nil
		s.mu.Unlock()

		for len(pending) >= frameBytes {
			_ = binary.Read(bytes.NewReader(pending[:frameBytes]), binary.LittleEndian, s.out)
			if err := s.stream.Write(); err != nil {
				logger.Warn("failed to write to portaudio stream", "error", err)
			}
			pending = pending[frameBytes:]
		}

		s.mu.Lock()
		s.leftover = append(pending, s.leftover...)
		s.mu.Unlock()
	}
}

func (s *outputStream) close() {
	select {
	case <-s.closed:
		return
	default:
		close(s.closed)
	}
	_ = s.stream.Stop()
	_ = s.stream.Close()
}
