package events

const (
	KindSpeechStarted  Kind = "voice.speech_started"
	KindSpeechEnded    Kind = "voice.speech_ended"
	KindCaptureStarted Kind = "voice.capture_started"
	KindCaptureEnded   Kind = "voice.capture_ended"
	KindUserTranscript Kind = "voice.user_transcript"
)

type SpeechStarted struct {
	Base
	Text string
}

func NewSpeechStarted(text string) SpeechStarted {
	return SpeechStarted{Base: NewBase(KindSpeechStarted), Text: text}
}

type SpeechEnded struct {
	Base
	Text      string
	Cancelled bool
}

func NewSpeechEnded(text string, cancelled bool) SpeechEnded {
	return SpeechEnded{Base: NewBase(KindSpeechEnded), Text: text, Cancelled: cancelled}
}

type CaptureStarted struct{ Base }

func NewCaptureStarted() CaptureStarted {
	return CaptureStarted{Base: NewBase(KindCaptureStarted)}
}

type CaptureEnded struct {
	Base
	Err error
}

func NewCaptureEnded(err error) CaptureEnded {
	return CaptureEnded{Base: NewBase(KindCaptureEnded), Err: err}
}

type UserTranscript struct {
	Base
	Text string
}

func NewUserTranscript(text string) UserTranscript {
	return UserTranscript{Base: NewBase(KindUserTranscript), Text: text}
}
