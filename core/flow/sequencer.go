package flow

import (
	"errors"
	"fmt"

	"github.com/koscakluka/ema-kiosk/core/protocol"
)

var (
	ErrNoOptionGroup       = errors.New("no option group is being presented")
	ErrSelectionsSubmitted = errors.New("option selections already submitted")
	ErrUnknownOption       = errors.New("option does not belong to the current group")
)

// Choose records a choice for the current option group (nil skips it) and
// moves to the next group. Passing the last group produces the finalize
// requests.
func Choose(s State, optionID *int64) (State, []protocol.Request, error) {
	if s.Step != StepPresentingOptionGroup {
		return s, nil, ErrNoOptionGroup
	}
	if s.Draft.Submitted {
		return s, nil, ErrSelectionsSubmitted
	}
	group := s.CurrentGroup()
	if group == nil {
		return s, nil, ErrNoOptionGroup
	}
	if optionID != nil && !hasOption(group, *optionID) {
		return s, nil, fmt.Errorf("%w: %d in %q", ErrUnknownOption, *optionID, group.GroupName)
	}

	next := s.Clone()
	if optionID != nil {
		next.Draft.Selected = append(next.Draft.Selected, *optionID)
	}
	next.Draft.Cursor++
	return next, settleGroups(&next), nil
}

func startGroups(s *State) []protocol.Request {
	s.Draft.Cursor = 0
	s.Draft.Selected = []int64{}
	s.Draft.Submitted = false
	return settleGroups(s)
}

// settleGroups skips groups without options starting at the cursor and
// finalizes once the cursor runs past the last group. Each iteration
// advances the cursor so it always terminates.
func settleGroups(s *State) []protocol.Request {
	groups := s.Draft.OptionGroups
	for s.Draft.Cursor < len(groups) && len(groups[s.Draft.Cursor].Options) == 0 {
		s.Draft.Cursor++
	}
	if s.Draft.Cursor < len(groups) {
		return nil
	}
	return finalizeGroups(s)
}

func finalizeGroups(s *State) []protocol.Request {
	requests := []protocol.Request{
		protocol.NewSelectDetailOptionsRequest(s.Draft.Selected),
		protocol.NewGetCartRequest(),
	}
	s.Draft.Cursor = 0
	s.Draft.Selected = []int64{}
	s.Draft.Submitted = true
	return requests
}

func hasOption(group *protocol.OptionGroup, id int64) bool {
	for _, option := range group.Options {
		if option.ID == id {
			return true
		}
	}
	return false
}
