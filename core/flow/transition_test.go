package flow

import (
	"errors"
	"reflect"
	"testing"

	"github.com/koscakluka/ema-kiosk/core/protocol"
	"github.com/koscakluka/ema-kiosk/internal/utils"
)

func replay(s State, msgs []protocol.Message) (State, []protocol.Request) {
	var sent []protocol.Request
	for _, msg := range msgs {
		var requests []protocol.Request
		s, requests = Transition(s, msg)
		sent = append(sent, requests...)
	}
	return s, sent
}

func TestTransitionIsPure(t *testing.T) {
	msgs := []protocol.Message{
		protocol.SessionAck{SessionID: "s1"},
		protocol.Converse{Reply: "What would you like?", Items: []protocol.RecommendedItem{{Name: "Latte", Price: 4500}}},
		protocol.OrderStart{MenuName: "Latte"},
		protocol.AskTemperature{MenuName: "Latte", Question: "ICE or HOT?", Choices: []string{"ICE", "HOT"}},
		protocol.AskSize{MenuName: "Latte", Temperature: "ICE", Question: "Size?", Choices: []string{"S", "L"}},
		protocol.ShowDetailOptions{MenuName: "Latte", OptionGroups: []protocol.OptionGroup{
			{GroupName: "Syrup", Options: nil},
		}},
		protocol.Cart{TotalPrice: 4500, Items: []protocol.CartItem{{OrderDetailID: 1, MenuName: "Latte"}}},
	}

	seed := Initial()
	first, firstSent := replay(seed, msgs)
	second, secondSent := replay(seed, msgs)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical states, got %#v and %#v", first, second)
	}
	if !reflect.DeepEqual(firstSent, secondSent) {
		t.Fatalf("expected identical requests, got %#v and %#v", firstSent, secondSent)
	}
	if seed.Step != StepIdle || seed.Exchange != nil || seed.Replies != 0 {
		t.Fatalf("expected seed state to be untouched, got %#v", seed)
	}
}

func TestTransitionDoesNotMutateInput(t *testing.T) {
	s, _ := Transition(Initial(), protocol.AskTemperature{Question: "ICE or HOT?", Choices: []string{"ICE", "HOT"}})
	next, _ := Transition(s, protocol.AskSize{Question: "Size?", Choices: []string{"S"}, Temperature: "ICE"})
	next.Question.Choices[0] = "XL"

	if s.Step != StepAwaitingTemperature || s.Question.Text != "ICE or HOT?" {
		t.Fatalf("expected input state unchanged, got %#v", s)
	}
	if s.Question.Choices[0] != "ICE" || s.Draft.Temperature != nil {
		t.Fatalf("expected input question and draft unchanged, got %#v", s)
	}

	clone := next.Clone()
	clone.Question.Choices[0] = "M"
	*clone.Draft.Temperature = "HOT"
	if next.Question.Choices[0] != "XL" || *next.Draft.Temperature != "ICE" {
		t.Fatalf("expected clone to be independent, got %#v", next)
	}
}

func TestScenarioSessionAckThenTemperature(t *testing.T) {
	s, _ := Transition(Initial(), protocol.SessionAck{SessionID: "s1"})
	if s.Step != StepIdle {
		t.Fatalf("expected step unchanged, got %s", s.Step)
	}

	s, requests := Transition(s, protocol.AskTemperature{MenuName: "Latte", Question: "ICE or HOT?", Choices: []string{"ICE", "HOT"}})
	if len(requests) != 0 {
		t.Fatalf("expected no requests, got %d", len(requests))
	}
	if s.Step != StepAwaitingTemperature {
		t.Fatalf("expected awaiting temperature, got %s", s.Step)
	}
	if !reflect.DeepEqual(s.Question.Choices, []string{"ICE", "HOT"}) {
		t.Fatalf("expected ICE/HOT choices, got %v", s.Question.Choices)
	}

	request, err := SelectChoice(s, "ICE")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if request.Type != protocol.RequestSelectTemperature {
		t.Fatalf("expected select_temperature, got %s", request.Type)
	}
	if data := request.Data.(protocol.SelectTemperatureData); data.Temperature != "ICE" {
		t.Fatalf("expected ICE, got %q", data.Temperature)
	}
	if s.Step != StepAwaitingTemperature {
		t.Fatalf("expected step unchanged after choice, got %s", s.Step)
	}
}

func TestSelectChoiceRoutesByStep(t *testing.T) {
	cases := []struct {
		msg  protocol.Message
		want protocol.RequestType
	}{
		{protocol.AskTemperature{Choices: []string{"A"}}, protocol.RequestSelectTemperature},
		{protocol.AskSize{Choices: []string{"A"}}, protocol.RequestSelectSize},
		{protocol.AskDetailOptionYN{Choices: []string{"A"}}, protocol.RequestDetailOptionYN},
	}

	for _, tc := range cases {
		s, _ := Transition(Initial(), tc.msg)
		request, err := SelectChoice(s, "A")
		if err != nil {
			t.Fatalf("expected no error for %s, got %v", tc.msg.Kind(), err)
		}
		if request.Type != tc.want {
			t.Fatalf("expected %s, got %s", tc.want, request.Type)
		}
	}
}

func TestSelectChoiceRejectsInvalidChoices(t *testing.T) {
	if _, err := SelectChoice(Initial(), "ICE"); !errors.Is(err, ErrNoPendingQuestion) {
		t.Fatalf("expected ErrNoPendingQuestion, got %v", err)
	}

	s, _ := Transition(Initial(), protocol.AskTemperature{Choices: []string{"ICE", "HOT"}})
	if _, err := SelectChoice(s, "WARM"); !errors.Is(err, ErrChoiceNotOffered) {
		t.Fatalf("expected ErrChoiceNotOffered, got %v", err)
	}
}

func TestOutOfOrderMessagesAreApplied(t *testing.T) {
	s, _ := Transition(Initial(), protocol.ShowDetailOptions{OptionGroups: []protocol.OptionGroup{
		{GroupName: "Shot", Options: []protocol.Option{{ID: 1, Name: "Extra"}}},
	}})
	if s.Step != StepPresentingOptionGroup {
		t.Fatalf("expected presenting option group from idle, got %s", s.Step)
	}
}

func TestConverseReplacesExchange(t *testing.T) {
	s, _ := Transition(Initial(), protocol.Converse{Reply: "one", Items: []protocol.RecommendedItem{{Name: "Latte"}}})
	s, _ = Transition(s, protocol.Converse{Reply: "one"})

	if s.Step != StepConversing {
		t.Fatalf("expected conversing, got %s", s.Step)
	}
	if s.Exchange.Seq != 2 {
		t.Fatalf("expected second reply sequence, got %d", s.Exchange.Seq)
	}
	if len(s.Exchange.Items) != 0 {
		t.Fatalf("expected items replaced wholesale, got %v", s.Exchange.Items)
	}
	if !s.VoiceEligible() {
		t.Fatalf("expected conversing to be voice eligible")
	}
}

func TestCartIsReplacedWholesale(t *testing.T) {
	s, _ := Transition(Initial(), protocol.Cart{TotalPrice: 9000, Items: []protocol.CartItem{{OrderDetailID: 1}, {OrderDetailID: 2}}})
	s, _ = Transition(s, protocol.CartUpdated{Cart: protocol.Cart{TotalPrice: 4500, Items: []protocol.CartItem{{OrderDetailID: 2}}}})

	if s.Step != StepViewingCart {
		t.Fatalf("expected viewing cart, got %s", s.Step)
	}
	if s.Cart.TotalPrice != 4500 || len(s.Cart.Items) != 1 || s.Cart.Items[0].OrderDetailID != 2 {
		t.Fatalf("expected server cart, got %#v", s.Cart)
	}
	if s.VoiceEligible() {
		t.Fatalf("expected cart view not to be voice eligible")
	}
}

func TestOrderConfirmRecordsConfirmation(t *testing.T) {
	s, _ := Transition(Initial(), protocol.OrderConfirm{
		OrderID:    42,
		StoreName:  "Main",
		TotalPrice: 4500,
		WaitingNum: utils.Ptr[int64](7),
		Items:      []protocol.CartItem{{OrderDetailID: 1}},
	})

	if s.Step != StepOrderConfirmed {
		t.Fatalf("expected order confirmed, got %s", s.Step)
	}
	if s.Confirmation.OrderID != 42 || *s.Confirmation.WaitingNum != 7 {
		t.Fatalf("expected order 42 waiting 7, got %#v", s.Confirmation)
	}
	if s.Cart.TotalPrice != 4500 {
		t.Fatalf("expected cart total from server, got %d", s.Cart.TotalPrice)
	}
}

func TestOrderStartResetsDraftOnly(t *testing.T) {
	s, _ := Transition(Initial(), protocol.AskSize{MenuName: "Mocha", Temperature: "HOT", Choices: []string{"S"}})
	s, _ = Transition(s, protocol.OrderStart{MenuName: "Latte"})

	if s.Step != StepAwaitingSize {
		t.Fatalf("expected step unchanged, got %s", s.Step)
	}
	if s.Draft.MenuName != "Latte" || s.Draft.Temperature != nil {
		t.Fatalf("expected fresh draft for Latte, got %#v", s.Draft)
	}
}

func TestSessionEndClearsOrderState(t *testing.T) {
	s, _ := Transition(Initial(), protocol.Cart{Items: []protocol.CartItem{{OrderDetailID: 1}}})
	s, _ = Transition(s, protocol.SessionEnd{Message: "bye"})

	if s.Step != StepSessionEnded {
		t.Fatalf("expected session ended, got %s", s.Step)
	}
	if s.Cart != nil || s.EndMessage != "bye" {
		t.Fatalf("expected cleared cart and end message, got %#v", s)
	}
}

func TestLoginResultIsStoredAsMembership(t *testing.T) {
	s, _ := Transition(Initial(), protocol.PhoneNumLogin{LoginSuccess: true, MaskedPhone: utils.Ptr("010-****-5678")})

	if s.Step != StepIdle {
		t.Fatalf("expected step unchanged, got %s", s.Step)
	}
	if s.Membership == nil || !s.Membership.Success || s.Membership.Method != LoginPhone {
		t.Fatalf("expected successful phone membership, got %#v", s.Membership)
	}
}
