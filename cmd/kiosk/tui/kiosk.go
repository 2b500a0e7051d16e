package tui

import (
	"context"

	"github.com/koscakluka/ema-kiosk/core/flow"
)

// Kiosk is what the terminal UI drives. *kiosk.Client satisfies it.
type Kiosk interface {
	State() flow.State
	SessionID() string

	Converse(text string) error
	StartOrder(menuName string) error
	SelectChoice(choice string) error
	ChooseOption(optionID *int64) error
	GetCart() error
	DeleteCartItem(orderDetailID int64) error
	ConfirmOrder() error
	RecentOrders() error
	RecentOrderDetail(orderID int64) error
	RecentOrderToCart(orderID int64, orderDetailID *int64) error
	LoginWithQR(code string) error
	LoginWithPhone(phoneNumber string) error
	EndSession() error
	StartCapture(ctx context.Context) (string, error)
	Restart(ctx context.Context) error
	Leave()
}
