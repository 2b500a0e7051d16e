package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/koscakluka/ema-kiosk/core/flow"
	"github.com/koscakluka/ema-kiosk/internal/utils"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	stepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

const helpLine = "1-9 pick  s skip  m speak  c cart  o confirm  r recent  x end  n new  q quit"

func (m Model) View() string {
	var b strings.Builder

	connection := "offline"
	if m.connected {
		connection = "online"
	}
	session := m.sessionID
	if session == "" {
		session = "-"
	}
	b.WriteString(titleStyle.Render("Kiosk"))
	b.WriteString(" ")
	b.WriteString(stepStyle.Render(m.state.Step.String()))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s  session %s", connection, session)))
	if m.capturing {
		b.WriteString(statusStyle.Render("  listening"))
	} else if m.speaking {
		b.WriteString(mutedStyle.Render("  speaking"))
	}
	b.WriteString("\n\n")

	width := max(m.width-4, 20)
	b.WriteString(panelStyle.Width(width).Render(renderStep(m.state, width-4)))
	b.WriteString("\n")

	if m.ready {
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render(helpLine))
	return b.String()
}

func renderStep(s flow.State, width int) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		b.WriteString(wordwrap.String(fmt.Sprintf(format, args...), width))
		b.WriteString("\n")
	}

	switch s.Step {
	case flow.StepIdle:
		line("Welcome! Type or speak your order.")
	case flow.StepConversing:
		if s.Exchange == nil {
			break
		}
		line("%s", s.Exchange.Reply)
		for i, item := range s.Exchange.Items {
			line("  %d. %s  %d", i+1, item.Name, item.Price)
		}
	case flow.StepAwaitingTemperature, flow.StepAwaitingSize, flow.StepAwaitingOptionYesNo:
		if s.Question == nil {
			break
		}
		line("%s: %s", s.Draft.MenuName, s.Question.Text)
		for i, choice := range s.Question.Choices {
			line("  %d. %s", i+1, choice)
		}
	case flow.StepPresentingOptionGroup:
		group := s.CurrentGroup()
		if group == nil {
			line("Adding %s...", s.Draft.MenuName)
			break
		}
		line("%s: %s (%d of %d, up to %d)", s.Draft.MenuName, group.GroupName, s.Draft.Cursor+1, len(s.Draft.OptionGroups), group.MaxSelect)
		for i, option := range group.Options {
			line("  %d. %s  +%d", i+1, option.Name, option.ExtraPrice)
		}
	case flow.StepItemAdded:
		line("%s", s.ItemMessage)
	case flow.StepViewingCart:
		b.WriteString(renderCart(s.Cart, width))
	case flow.StepOrderConfirmed:
		if c := s.Confirmation; c != nil {
			line("Order %d confirmed at %s", c.OrderID, c.StoreName)
			if c.WaitingNum != nil {
				line("Your number is %d", *c.WaitingNum)
			}
			line("Total %d", c.TotalPrice)
		}
	case flow.StepViewingRecentOrders:
		if len(s.RecentOrders) == 0 {
			line("No recent orders.")
		}
		for _, o := range s.RecentOrders {
			line("  #%d  %s  %s (+%d)  %d", o.OrderID, o.OrderDateTime, o.MainMenuName, o.OtherMenuCount, o.TotalPrice)
		}
	case flow.StepViewingRecentOrderDetail:
		if d := s.RecentOrderDetail; d != nil {
			line("Order #%d at %s, %s", d.OrderID, d.StoreName, d.OrderDateTime)
			for _, item := range d.Items {
				line("  %s x%d  %d", item.MenuName, item.Quantity, item.LineTotalPrice)
			}
			line("Total %d", d.TotalPrice)
		}
	case flow.StepSessionEnded:
		line("%s", firstNonEmpty(s.EndMessage, "Session ended. Press n to start again."))
	}

	if s.Membership != nil {
		b.WriteString(mutedStyle.Render(membershipLine(s)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderCart(cart *flow.Cart, width int) string {
	if cart == nil || len(cart.Items) == 0 {
		return "Your cart is empty."
	}

	var b strings.Builder
	for _, item := range cart.Items {
		b.WriteString(fmt.Sprintf("[%d] %s x%d  %d\n", item.OrderDetailID, item.MenuName, item.Quantity, item.LineTotalPrice))
		var details []string
		for _, detail := range []string{item.Temperature, item.Size} {
			if detail != "" {
				details = append(details, detail)
			}
		}
		for _, option := range item.Options {
			details = append(details, option.OptionValueName)
		}
		if len(details) > 0 {
			b.WriteString(indent.String(wordwrap.String(strings.Join(details, ", "), width-4), 4))
			b.WriteString("\n")
		}
	}
	b.WriteString(fmt.Sprintf("Total %d", cart.TotalPrice))
	return b.String()
}

func membershipLine(s flow.State) string {
	m := s.Membership
	if !m.Success {
		return "login failed: " + m.Message
	}
	if name := firstNonEmpty(utils.Deref(m.Username, ""), utils.Deref(m.MaskedPhone, "")); name != "" {
		return "signed in as " + name
	}
	if m.UserID != nil {
		return fmt.Sprintf("signed in as member %d", *m.UserID)
	}
	return "signed in"
}

func renderLog(lines []string, width int) string {
	if width <= 0 {
		return strings.Join(lines, "\n")
	}
	wrapped := make([]string, len(lines))
	for i, l := range lines {
		wrapped[i] = wordwrap.String(l, width)
	}
	return strings.Join(wrapped, "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
