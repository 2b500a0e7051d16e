package protocol

import (
	"encoding/json"
	"fmt"
)

type RequestType string

const (
	RequestStart               RequestType = "start"
	RequestConverse            RequestType = "converse"
	RequestOrderStart          RequestType = "order_start"
	RequestSelectTemperature   RequestType = "select_temperature"
	RequestSelectSize          RequestType = "select_size"
	RequestDetailOptionYN      RequestType = "detail_option_yn"
	RequestSelectDetailOptions RequestType = "select_detail_options"
	RequestGetCart             RequestType = "get_cart"
	RequestDeleteCartItem      RequestType = "delete_cart_item"
	RequestOrderConfirm        RequestType = "order_confirm"
	RequestRecentOrders        RequestType = "recent_orders"
	RequestRecentOrderDetail   RequestType = "recent_order_detail"
	RequestRecentOrderToCart   RequestType = "recent_order_to_cart"
	RequestSessionEnd          RequestType = "session_end"
	RequestQRLogin             RequestType = "qr_login"
	RequestPhoneNumLogin       RequestType = "phone_num_login"
)

// Request is a single outbound frame. Data is nil for requests without a
// payload and is then sent as JSON null.
type Request struct {
	Type RequestType `json:"type"`
	Data any         `json:"data"`
}

func (r Request) Encode() ([]byte, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", r.Type, err)
	}
	return payload, nil
}

type StartData struct {
	StoreID     string `json:"storeId"`
	MenuVersion int    `json:"menuVersion"`
}

type ConverseData struct {
	UserText string `json:"userText"`
}

type OrderStartData struct {
	MenuName string `json:"menuName"`
}

type SelectTemperatureData struct {
	Temperature string `json:"temperature"`
}

type SelectSizeData struct {
	Size string `json:"size"`
}

type DetailOptionYNData struct {
	Answer string `json:"answer"`
}

type SelectDetailOptionsData struct {
	SelectedOptionValueIDs []int64 `json:"selectedOptionValueIds"`
}

type DeleteCartItemData struct {
	OrderDetailID int64 `json:"orderDetailId"`
}

type RecentOrderDetailData struct {
	OrderID int64 `json:"orderId"`
}

type RecentOrderToCartData struct {
	OrderID       int64  `json:"orderId"`
	OrderDetailID *int64 `json:"orderDetailId,omitempty"`
}

type QRLoginData struct {
	QRCode string `json:"qrCode"`
}

type PhoneNumLoginData struct {
	PhoneNumber string `json:"phoneNumber"`
}

func NewStartRequest(storeID string, menuVersion int) Request {
	return Request{Type: RequestStart, Data: StartData{StoreID: storeID, MenuVersion: menuVersion}}
}

func NewConverseRequest(userText string) Request {
	return Request{Type: RequestConverse, Data: ConverseData{UserText: userText}}
}

func NewOrderStartRequest(menuName string) Request {
	return Request{Type: RequestOrderStart, Data: OrderStartData{MenuName: menuName}}
}

func NewSelectTemperatureRequest(temperature string) Request {
	return Request{Type: RequestSelectTemperature, Data: SelectTemperatureData{Temperature: temperature}}
}

func NewSelectSizeRequest(size string) Request {
	return Request{Type: RequestSelectSize, Data: SelectSizeData{Size: size}}
}

func NewDetailOptionYNRequest(answer string) Request {
	return Request{Type: RequestDetailOptionYN, Data: DetailOptionYNData{Answer: answer}}
}

// NewSelectDetailOptionsRequest copies ids; a nil slice is sent as an empty
// array.
func NewSelectDetailOptionsRequest(ids []int64) Request {
	selected := make([]int64, len(ids))
	copy(selected, ids)
	return Request{Type: RequestSelectDetailOptions, Data: SelectDetailOptionsData{SelectedOptionValueIDs: selected}}
}

func NewGetCartRequest() Request { return Request{Type: RequestGetCart} }

func NewDeleteCartItemRequest(orderDetailID int64) Request {
	return Request{Type: RequestDeleteCartItem, Data: DeleteCartItemData{OrderDetailID: orderDetailID}}
}

func NewOrderConfirmRequest() Request { return Request{Type: RequestOrderConfirm} }

func NewRecentOrdersRequest() Request { return Request{Type: RequestRecentOrders} }

func NewRecentOrderDetailRequest(orderID int64) Request {
	return Request{Type: RequestRecentOrderDetail, Data: RecentOrderDetailData{OrderID: orderID}}
}

func NewRecentOrderToCartRequest(orderID int64, orderDetailID *int64) Request {
	return Request{Type: RequestRecentOrderToCart, Data: RecentOrderToCartData{OrderID: orderID, OrderDetailID: orderDetailID}}
}

func NewSessionEndRequest() Request { return Request{Type: RequestSessionEnd} }

func NewQRLoginRequest(qrCode string) Request {
	return Request{Type: RequestQRLogin, Data: QRLoginData{QRCode: qrCode}}
}

func NewPhoneNumLoginRequest(phoneNumber string) Request {
	return Request{Type: RequestPhoneNumLogin, Data: PhoneNumLoginData{PhoneNumber: phoneNumber}}
}
