package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnrecognized = errors.New("unrecognized message")

type decoder func(payload []byte) (Message, error)

func decodeAs[T Message](payload []byte) (Message, error) {
	var msg T
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}
	return msg, nil
}

var decoders = map[string]decoder{
	string(KindStart):             decodeAs[Start],
	string(KindConverse):          decodeConverse,
	string(KindOrderStart):        decodeAs[OrderStart],
	string(KindAskTemperature):    decodeAs[AskTemperature],
	string(KindAskSize):           decodeAs[AskSize],
	string(KindAskDetailOptionYN): decodeAs[AskDetailOptionYN],
	string(KindShowDetailOptions): decodeAs[ShowDetailOptions],
	string(KindOrderItemComplete): decodeAs[OrderItemComplete],
	string(KindCart):              decodeAs[Cart],
	string(KindCartUpdated):       decodeAs[CartUpdated],
	string(KindOrderConfirm):      decodeAs[OrderConfirm],
	string(KindRecentOrders):      decodeAs[RecentOrders],
	string(KindRecentOrderDetail): decodeAs[RecentOrderDetail],
	string(KindRecentOrderToCart): decodeAs[RecentOrderToCart],
	string(KindSessionEnd):        decodeAs[SessionEnd],
	"SESSION_ENDED":               decodeAs[SessionEnd],
	string(KindQRLogin):           decodeAs[QRLogin],
	string(KindPhoneNumLogin):     decodeAs[PhoneNumLogin],
}

func decodeConverse(payload []byte) (Message, error) {
	var msg Converse
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}
	if msg.Items == nil {
		msg.Items = []RecommendedItem{}
	}
	return msg, nil
}

// Canonicalize maps a raw inbound frame to exactly one Message variant.
//
// An explicit string "type" field wins. Without one, two legacy shapes are
// recognised: a string "reply" is a conversational reply and a non-empty
// "sessionId" is a handshake acknowledgment. Everything else yields an error
// wrapping ErrUnrecognized.
func Canonicalize(raw []byte) (Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrUnrecognized)
	}

	if discriminant, ok := stringField(fields, "type"); ok && discriminant != "" {
		decode, ok := decoders[discriminant]
		if !ok {
			return nil, fmt.Errorf("%w: unknown type %q", ErrUnrecognized, discriminant)
		}
		msg, err := decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decode %s: %v", ErrUnrecognized, discriminant, err)
		}
		return msg, nil
	}

	if _, ok := stringField(fields, "reply"); ok {
		msg, err := decodeConverse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decode untagged reply: %v", ErrUnrecognized, err)
		}
		return msg, nil
	}

	if sessionID, ok := stringField(fields, "sessionId"); ok && sessionID != "" {
		return SessionAck{SessionID: sessionID}, nil
	}

	return nil, fmt.Errorf("%w: no type and no known shape", ErrUnrecognized)
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return value, true
}
