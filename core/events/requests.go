package events

import "github.com/koscakluka/ema-kiosk/core/protocol"

const (
	KindRequestSent    Kind = "request.sent"
	KindRequestDropped Kind = "request.dropped"
)

type RequestSent struct {
	Base
	Type protocol.RequestType
}

func NewRequestSent(requestType protocol.RequestType) RequestSent {
	return RequestSent{Base: NewBase(KindRequestSent), Type: requestType}
}

type RequestDropped struct {
	Base
	Type protocol.RequestType
	Err  error
}

func NewRequestDropped(requestType protocol.RequestType, err error) RequestDropped {
	return RequestDropped{Base: NewBase(KindRequestDropped), Type: requestType, Err: err}
}
