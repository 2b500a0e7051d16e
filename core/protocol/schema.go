package protocol

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// RequestSchema describes the payload of one outbound request type.
type RequestSchema struct {
	Type   RequestType        `json:"type"`
	Schema *jsonschema.Schema `json:"schema"`
}

var requestPayloads = []struct {
	kind    RequestType
	payload any
}{
	{RequestStart, StartData{}},
	{RequestConverse, ConverseData{}},
	{RequestOrderStart, OrderStartData{}},
	{RequestSelectTemperature, SelectTemperatureData{}},
	{RequestSelectSize, SelectSizeData{}},
	{RequestDetailOptionYN, DetailOptionYNData{}},
	{RequestSelectDetailOptions, SelectDetailOptionsData{}},
	{RequestGetCart, nil},
	{RequestDeleteCartItem, DeleteCartItemData{}},
	{RequestOrderConfirm, nil},
	{RequestRecentOrders, nil},
	{RequestRecentOrderDetail, RecentOrderDetailData{}},
	{RequestRecentOrderToCart, RecentOrderToCartData{}},
	{RequestSessionEnd, nil},
	{RequestQRLogin, QRLoginData{}},
	{RequestPhoneNumLogin, PhoneNumLoginData{}},
}

// RequestSchemas reflects a JSON schema for the data of every outbound
// request type, in a stable order. Requests without a payload are described
// as null.
func RequestSchemas() []RequestSchema {
	reflector := jsonschema.Reflector{DoNotReference: true}

	schemas := make([]RequestSchema, 0, len(requestPayloads))
	for _, p := range requestPayloads {
		var schema *jsonschema.Schema
		if p.payload == nil {
			schema = &jsonschema.Schema{Type: "null"}
		} else {
			schema = reflector.ReflectFromType(reflect.TypeOf(p.payload))
			schema.Title = reflect.TypeOf(p.payload).Name()
		}
		schemas = append(schemas, RequestSchema{Type: p.kind, Schema: schema})
	}
	return schemas
}
