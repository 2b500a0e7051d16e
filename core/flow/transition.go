package flow

import (
	"errors"
	"fmt"

	"github.com/koscakluka/ema-kiosk/core/protocol"
	"github.com/koscakluka/ema-kiosk/internal/utils"
)

var (
	ErrNoPendingQuestion = errors.New("no question is pending")
	ErrChoiceNotOffered  = errors.New("choice was not offered")
)

// Transition applies an inbound message to s and returns the next state
// together with any requests the machine itself must send. The input state
// is never modified.
//
// Messages are applied regardless of the current step; the server decides
// sequencing.
func Transition(s State, msg protocol.Message) (State, []protocol.Request) {
	next := s.Clone()

	switch m := msg.(type) {
	case protocol.Start, protocol.SessionAck:
		// session bookkeeping belongs to the session context

	case protocol.Converse:
		next.Replies++
		next.Step = StepConversing
		next.Question = nil
		next.Exchange = &Exchange{
			Seq:      next.Replies,
			UserText: m.UserText,
			Reply:    m.Reply,
			Intent:   cloneString(m.Intent),
			Reason:   cloneString(m.Reason),
			Items:    append([]protocol.RecommendedItem{}, m.Items...),
		}

	case protocol.OrderStart:
		next.Draft = Draft{MenuName: m.MenuName}

	case protocol.AskTemperature:
		next.Step = StepAwaitingTemperature
		next.Question = newQuestion(m.Question, m.Choices)
		next.Draft.MenuName = firstNonEmpty(m.MenuName, next.Draft.MenuName)
		next.Draft.Temperature = nil
		next.Draft.Size = nil

	case protocol.AskSize:
		next.Step = StepAwaitingSize
		next.Question = newQuestion(m.Question, m.Choices)
		next.Draft.MenuName = firstNonEmpty(m.MenuName, next.Draft.MenuName)
		next.Draft.Temperature = optionalString(m.Temperature)
		next.Draft.Size = nil

	case protocol.AskDetailOptionYN:
		next.Step = StepAwaitingOptionYesNo
		next.Question = newQuestion(m.Question, m.Choices)
		next.Draft.MenuName = firstNonEmpty(m.MenuName, next.Draft.MenuName)
		next.Draft.Temperature = optionalString(m.Temperature)
		next.Draft.Size = optionalString(m.Size)

	case protocol.ShowDetailOptions:
		next.Step = StepPresentingOptionGroup
		next.Question = nil
		next.Draft.MenuName = firstNonEmpty(m.MenuName, next.Draft.MenuName)
		next.Draft.OptionGroups = append([]protocol.OptionGroup{}, m.OptionGroups...)
		return next, startGroups(&next)

	case protocol.OrderItemComplete:
		next.Step = StepItemAdded
		next.Question = nil
		next.ItemMessage = m.Message

	case protocol.Cart:
		next.viewCart(m.StoreID, m.TotalPrice, m.Items)

	case protocol.CartUpdated:
		next.viewCart(m.StoreID, m.TotalPrice, m.Items)

	case protocol.RecentOrderToCart:
		next.viewCart(m.StoreID, m.TotalPrice, m.Items)

	case protocol.OrderConfirm:
		next.Step = StepOrderConfirmed
		next.Question = nil
		next.Cart = &Cart{
			StoreID:    string(m.StoreID),
			TotalPrice: m.TotalPrice,
			Items:      append([]protocol.CartItem{}, m.Items...),
		}
		next.Confirmation = &Confirmation{
			OrderID:       m.OrderID,
			WaitingNum:    cloneInt(m.WaitingNum),
			StoreName:     m.StoreName,
			OrderDateTime: m.OrderDateTime,
			TotalPrice:    m.TotalPrice,
		}

	case protocol.RecentOrders:
		next.Step = StepViewingRecentOrders
		next.Question = nil
		next.RecentOrders = append([]protocol.RecentOrderSummary{}, m.Orders...)

	case protocol.RecentOrderDetail:
		next.Step = StepViewingRecentOrderDetail
		next.Question = nil
		detail := m
		detail.Items = append([]protocol.CartItem{}, m.Items...)
		next.RecentOrderDetail = &detail

	case protocol.SessionEnd:
		next = State{
			Step:       StepSessionEnded,
			Replies:    next.Replies,
			EndMessage: m.Message,
		}

	case protocol.QRLogin:
		next.Membership = &Membership{
			Method:   LoginQR,
			Success:  m.LoginSuccess,
			Message:  m.Message,
			UserID:   cloneInt(m.UserID),
			Username: cloneString(m.Username),
		}

	case protocol.PhoneNumLogin:
		next.Membership = &Membership{
			Method:      LoginPhone,
			Success:     m.LoginSuccess,
			Message:     m.Message,
			UserID:      cloneInt(m.UserID),
			Username:    cloneString(m.Username),
			MaskedPhone: cloneString(m.MaskedPhone),
		}
	}

	return next, nil
}

// SelectChoice builds the answer to the pending question. It never changes
// the state; the server's next message does.
func SelectChoice(s State, choice string) (protocol.Request, error) {
	if s.Question == nil {
		return protocol.Request{}, ErrNoPendingQuestion
	}
	if !s.Question.Offers(choice) {
		return protocol.Request{}, fmt.Errorf("%w: %q", ErrChoiceNotOffered, choice)
	}

	switch s.Step {
	case StepAwaitingTemperature:
		return protocol.NewSelectTemperatureRequest(choice), nil
	case StepAwaitingSize:
		return protocol.NewSelectSizeRequest(choice), nil
	case StepAwaitingOptionYesNo:
		return protocol.NewDetailOptionYNRequest(choice), nil
	default:
		return protocol.Request{}, ErrNoPendingQuestion
	}
}

// Reset returns to Idle keeping only the reply counter.
func Reset(s State) State {
	return State{Step: StepIdle, Replies: s.Replies}
}

func (s *State) viewCart(storeID protocol.FlexString, total int64, items []protocol.CartItem) {
	s.Step = StepViewingCart
	s.Question = nil
	s.Cart = &Cart{
		StoreID:    string(storeID),
		TotalPrice: total,
		Items:      append([]protocol.CartItem{}, items...),
	}
}

func newQuestion(text string, choices []string) *Question {
	return &Question{Text: text, Choices: append([]string{}, choices...)}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return utils.Ptr(v)
}

func cloneString(p *string) *string { return clonePtr(p) }

func cloneInt(p *int64) *int64 { return clonePtr(p) }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return utils.Ptr(*p)
}
