package deepgram

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/koscakluka/ema-kiosk/core/audio"
)

// listenParams is the query of one listen request.
type listenParams struct {
	encoding   string
	sampleRate int
	model      string
	language   string
}

func newListenParams(encoding audio.EncodingInfo, model, language string) (listenParams, error) {
	switch encoding.SampleRate {
	case 8000, 16000, 24000, 32000, 48000:
	default:
		return listenParams{}, fmt.Errorf("unsupported sample rate %d", encoding.SampleRate)
	}

	params := listenParams{sampleRate: encoding.SampleRate, model: model, language: language}
	switch encoding.Format {
	case audio.EncodingLinear16:
		params.encoding = "linear16"
	case audio.EncodingALaw, audio.EncodingMulaw:
		// telephony encodings are only accepted at 8kHz
		if encoding.SampleRate != 8000 {
			return listenParams{}, fmt.Errorf("unsupported sample rate %d for %s encoding", encoding.SampleRate, encoding.Format.Name())
		}
		params.encoding = encoding.Format.Name()
	default:
		return listenParams{}, fmt.Errorf("unsupported encoding %q", encoding.Format.Name())
	}
	return params, nil
}

func (p listenParams) url(base string) (string, error) {
	listenURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listen url: %w", err)
	}

	query := listenURL.Query()
	query.Set("encoding", p.encoding)
	query.Set("sample_rate", strconv.Itoa(p.sampleRate))
	query.Set("channels", "1")
	query.Set("model", p.model)
	if p.language != "" {
		query.Set("language", p.language)
	}
	query.Set("smart_format", "true")
	listenURL.RawQuery = query.Encode()
	return listenURL.String(), nil
}
