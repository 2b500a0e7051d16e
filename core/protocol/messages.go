package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Kind string

const (
	KindStart             Kind = "start"
	KindConverse          Kind = "converse"
	KindSessionAck        Kind = "session_ack"
	KindOrderStart        Kind = "order_start"
	KindAskTemperature    Kind = "ask_temperature"
	KindAskSize           Kind = "ask_size"
	KindAskDetailOptionYN Kind = "ask_detail_option_yn"
	KindShowDetailOptions Kind = "show_detail_options"
	KindOrderItemComplete Kind = "order_item_complete"
	KindCart              Kind = "cart"
	KindCartUpdated       Kind = "cart_updated"
	KindOrderConfirm      Kind = "order_confirm"
	KindRecentOrders      Kind = "recent_orders"
	KindRecentOrderDetail Kind = "recent_order_detail"
	KindRecentOrderToCart Kind = "recent_order_to_cart"
	KindSessionEnd        Kind = "session_end"
	KindQRLogin           Kind = "qr_login"
	KindPhoneNumLogin     Kind = "phone_num_login"
)

// Message is a canonical inbound message. The set of implementations is
// closed: only this package can add variants.
type Message interface {
	Kind() Kind
	session() string
}

// SessionOf returns the server session id carried by msg, if any.
func SessionOf(msg Message) string {
	if msg == nil {
		return ""
	}
	return msg.session()
}

// FlexString accepts both JSON strings and numbers. The backend is not
// consistent about identifier types.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

type Start struct {
	StoreID     FlexString `json:"storeId"`
	MenuVersion int        `json:"menuVersion"`
	SessionID   string     `json:"sessionId"`
	MenuCount   int        `json:"menuCount"`
}

// SessionAck is the untagged handshake acknowledgment carrying only a session id.
type SessionAck struct {
	SessionID string `json:"sessionId"`
}

type RecommendedItem struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageRef string `json:"menu_image"`
}

type Converse struct {
	// StoreID is sent as "storedId" by the backend.
	StoreID     FlexString        `json:"storedId"`
	MenuVersion int               `json:"menuVersion"`
	SessionID   string            `json:"sessionId"`
	UserText    string            `json:"userText"`
	Reply       string            `json:"reply"`
	Intent      *string           `json:"intent"`
	Reason      *string           `json:"reason"`
	Items       []RecommendedItem `json:"items"`
}

type OrderStart struct {
	MenuName string `json:"menuName"`
}

type AskTemperature struct {
	MenuName string   `json:"menuName"`
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
}

type AskSize struct {
	MenuName    string   `json:"menuName"`
	Temperature string   `json:"temperature"`
	Question    string   `json:"question"`
	Choices     []string `json:"choices"`
}

type AskDetailOptionYN struct {
	MenuName    string   `json:"menuName"`
	Temperature string   `json:"temperature"`
	Size        string   `json:"size"`
	Question    string   `json:"question"`
	Choices     []string `json:"choices"`
}

type Option struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ExtraPrice int64  `json:"extraPrice"`
}

type OptionGroup struct {
	GroupName string   `json:"groupName"`
	MaxSelect int      `json:"maxSelect"`
	Options   []Option `json:"options"`
}

type ShowDetailOptions struct {
	MenuName     string        `json:"menuName"`
	OptionGroups []OptionGroup `json:"optionGroups"`
}

type OrderItemComplete struct {
	Message string `json:"message"`
}

type CartOption struct {
	OptionGroupID   int64  `json:"optionGroupId"`
	OptionGroupName string `json:"optionGroupName"`
	OptionValueID   int64  `json:"optionValueId"`
	OptionValueName string `json:"optionValueName"`
	ExtraPrice      int64  `json:"extraPrice"`
}

type CartItem struct {
	OrderDetailID  int64        `json:"orderDetailId"`
	MenuID         int64        `json:"menuId"`
	MenuName       string       `json:"menuName"`
	MenuImage      string       `json:"menuImage"`
	Quantity       int          `json:"quantity"`
	UnitPrice      int64        `json:"unitPrice"`
	LineTotalPrice int64        `json:"lineTotalPrice"`
	Temperature    string       `json:"temperature"`
	Size           string       `json:"size"`
	Options        []CartOption `json:"options"`
}

type Cart struct {
	StoreID    FlexString `json:"storeId"`
	SessionID  string     `json:"sessionId"`
	TotalPrice int64      `json:"totalPrice"`
	Items      []CartItem `json:"items"`
}

// CartUpdated follows a cart mutation such as a line deletion.
type CartUpdated struct {
	Cart
}

type OrderConfirm struct {
	OrderID       int64      `json:"orderId"`
	StoreID       FlexString `json:"storeId"`
	StoreName     string     `json:"storeName"`
	SessionID     string     `json:"sessionId"`
	OrderDateTime string     `json:"orderDateTime"`
	TotalPrice    int64      `json:"totalPrice"`
	WaitingNum    *int64     `json:"waitingNum"`
	Items         []CartItem `json:"items"`
}

type RecentOrderSummary struct {
	OrderID        int64  `json:"orderId"`
	TotalPrice     int64  `json:"totalPrice"`
	OrderDateTime  string `json:"orderDateTime"`
	DaysAgo        int    `json:"daysAgo"`
	MainMenuName   string `json:"mainMenuName"`
	MainMenuPrice  int64  `json:"mainMenuPrice"`
	OtherMenuCount int    `json:"otherMenuCount"`
}

type RecentOrders struct {
	Orders []RecentOrderSummary `json:"orders"`
}

type RecentOrderDetail struct {
	OrderID       int64      `json:"orderId"`
	StoreID       FlexString `json:"storeId"`
	StoreName     string     `json:"storeName"`
	SessionID     string     `json:"sessionId"`
	OrderDateTime string     `json:"orderDateTime"`
	TotalPrice    int64      `json:"totalPrice"`
	Items         []CartItem `json:"items"`
}

type RecentOrderToCart struct {
	OrderID       int64      `json:"orderId"`
	StoreID       FlexString `json:"storeId"`
	StoreName     string     `json:"storeName"`
	SessionID     string     `json:"sessionId"`
	OrderDateTime string     `json:"orderDateTime"`
	TotalPrice    int64      `json:"totalPrice"`
	WaitingNum    *int64     `json:"waitingNum"`
	Items         []CartItem `json:"items"`
}

type SessionEnd struct {
	Message string `json:"message"`
}

type QRLogin struct {
	LoginSuccess bool    `json:"login_success"`
	Message      string  `json:"message"`
	UserID       *int64  `json:"userId"`
	Username     *string `json:"username"`
}

type PhoneNumLogin struct {
	LoginSuccess bool    `json:"login_success"`
	Message      string  `json:"message"`
	UserID       *int64  `json:"userId"`
	Username     *string `json:"username"`
	MaskedPhone  *string `json:"maskedPhone"`
}

func (Start) Kind() Kind             { return KindStart }
func (SessionAck) Kind() Kind        { return KindSessionAck }
func (Converse) Kind() Kind          { return KindConverse }
func (OrderStart) Kind() Kind        { return KindOrderStart }
func (AskTemperature) Kind() Kind    { return KindAskTemperature }
func (AskSize) Kind() Kind           { return KindAskSize }
func (AskDetailOptionYN) Kind() Kind { return KindAskDetailOptionYN }
func (ShowDetailOptions) Kind() Kind { return KindShowDetailOptions }
func (OrderItemComplete) Kind() Kind { return KindOrderItemComplete }
func (Cart) Kind() Kind              { return KindCart }
func (CartUpdated) Kind() Kind       { return KindCartUpdated }
func (OrderConfirm) Kind() Kind      { return KindOrderConfirm }
func (RecentOrders) Kind() Kind      { return KindRecentOrders }
func (RecentOrderDetail) Kind() Kind { return KindRecentOrderDetail }
func (RecentOrderToCart) Kind() Kind { return KindRecentOrderToCart }
func (SessionEnd) Kind() Kind        { return KindSessionEnd }
func (QRLogin) Kind() Kind           { return KindQRLogin }
func (PhoneNumLogin) Kind() Kind     { return KindPhoneNumLogin }

func (m Start) session() string             { return m.SessionID }
func (m SessionAck) session() string        { return m.SessionID }
func (m Converse) session() string          { return m.SessionID }
func (OrderStart) session() string          { return "" }
func (AskTemperature) session() string      { return "" }
func (AskSize) session() string             { return "" }
func (AskDetailOptionYN) session() string   { return "" }
func (ShowDetailOptions) session() string   { return "" }
func (OrderItemComplete) session() string   { return "" }
func (m Cart) session() string              { return m.SessionID }
func (m OrderConfirm) session() string      { return m.SessionID }
func (RecentOrders) session() string        { return "" }
func (m RecentOrderDetail) session() string { return m.SessionID }
func (m RecentOrderToCart) session() string { return m.SessionID }
func (SessionEnd) session() string          { return "" }
func (QRLogin) session() string             { return "" }
func (PhoneNumLogin) session() string       { return "" }
