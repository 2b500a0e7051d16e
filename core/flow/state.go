package flow

import (
	"github.com/jinzhu/copier"

	"github.com/koscakluka/ema-kiosk/core/protocol"
)

type Step int

const (
	StepIdle Step = iota
	StepConversing
	StepAwaitingTemperature
	StepAwaitingSize
	StepAwaitingOptionYesNo
	StepPresentingOptionGroup
	StepItemAdded
	StepViewingCart
	StepOrderConfirmed
	StepViewingRecentOrders
	StepViewingRecentOrderDetail
	StepSessionEnded
)

func (s Step) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepConversing:
		return "conversing"
	case StepAwaitingTemperature:
		return "awaiting_temperature"
	case StepAwaitingSize:
		return "awaiting_size"
	case StepAwaitingOptionYesNo:
		return "awaiting_option_yes_no"
	case StepPresentingOptionGroup:
		return "presenting_option_group"
	case StepItemAdded:
		return "item_added"
	case StepViewingCart:
		return "viewing_cart"
	case StepOrderConfirmed:
		return "order_confirmed"
	case StepViewingRecentOrders:
		return "viewing_recent_orders"
	case StepViewingRecentOrderDetail:
		return "viewing_recent_order_detail"
	case StepSessionEnded:
		return "session_ended"
	default:
		return "unknown"
	}
}

// Question is a server question waiting for one of its choices.
type Question struct {
	Text    string
	Choices []string
}

func (q *Question) Offers(choice string) bool {
	if q == nil {
		return false
	}
	for _, c := range q.Choices {
		if c == choice {
			return true
		}
	}
	return false
}

// Exchange is the latest conversational turn. Seq increases with every
// reply so observers can tell a repeated reply text from a new reply.
type Exchange struct {
	Seq      uint64
	UserText string
	Reply    string
	Intent   *string
	Reason   *string
	Items    []protocol.RecommendedItem
}

// Draft accumulates the item currently being ordered.
type Draft struct {
	MenuName     string
	Temperature  *string
	Size         *string
	OptionGroups []protocol.OptionGroup
	// Cursor indexes OptionGroups while they are being walked.
	Cursor   int
	Selected []int64
	// Submitted is set once the selections were sent and the server has not
	// yet answered.
	Submitted bool
}

type Cart struct {
	StoreID    string
	TotalPrice int64
	Items      []protocol.CartItem
}

type Confirmation struct {
	OrderID       int64
	WaitingNum    *int64
	StoreName     string
	OrderDateTime string
	TotalPrice    int64
}

type LoginMethod string

const (
	LoginQR    LoginMethod = "qr"
	LoginPhone LoginMethod = "phone"
)

type Membership struct {
	Method      LoginMethod
	Success     bool
	Message     string
	UserID      *int64
	Username    *string
	MaskedPhone *string
}

// State is everything the flow machine owns. Values are treated as
// immutable: Transition and Choose return modified copies.
type State struct {
	Step     Step
	Question *Question
	Exchange *Exchange
	// Replies counts conversational replies seen so far.
	Replies uint64

	Draft             Draft
	ItemMessage       string
	Cart              *Cart
	Confirmation      *Confirmation
	RecentOrders      []protocol.RecentOrderSummary
	RecentOrderDetail *protocol.RecentOrderDetail
	Membership        *Membership
	EndMessage        string
}

func Initial() State {
	return State{Step: StepIdle}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	var out State
	copier.CopyWithOption(&out, &s, copier.Option{DeepCopy: true})
	return out
}

// VoiceEligible reports whether voice capture may be offered.
func (s State) VoiceEligible() bool {
	return s.Step == StepIdle || s.Step == StepConversing
}

// CurrentGroup returns the option group awaiting a choice, or nil.
func (s State) CurrentGroup() *protocol.OptionGroup {
	if s.Step != StepPresentingOptionGroup || s.Draft.Submitted {
		return nil
	}
	if s.Draft.Cursor < 0 || s.Draft.Cursor >= len(s.Draft.OptionGroups) {
		return nil
	}
	group := s.Draft.OptionGroups[s.Draft.Cursor]
	return &group
}
