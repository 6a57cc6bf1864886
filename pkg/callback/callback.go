// Package callback encodes and decodes Telegram callback data.
// Button payloads are parsed once, at the transport boundary, into a tagged
// Action value; nothing downstream re-parses strings.
package callback

import (
	"fmt"
	"strings"
)

// Kind tags an inbound attendance action
type Kind int

const (
	// Accept is a yes answer to the survey prompt
	Accept Kind = iota
	// Decline is a no answer to the survey prompt
	Decline
	// ChooseDish is a menu selection following an accept
	ChooseDish
	// ResetAllConfirm confirms the admin reset of every balance
	ResetAllConfirm
	// ResetAllCancel aborts the admin reset of every balance
	ResetAllCancel
)

// Action is a parsed callback payload
type Action struct {
	Kind Kind
	Date string
	// Dish is set only for ChooseDish
	Dish string
}

// AcceptData builds the callback payload for a yes button
func AcceptData(date string) string {
	return "attendance_yes_" + date
}

// DeclineData builds the callback payload for a no button
func DeclineData(date string) string {
	return "attendance_no_" + date
}

// ChooseDishData builds the callback payload for a dish button
func ChooseDishData(code, date string) string {
	return "menu_" + code + "_" + date
}

// ResetAllConfirmData builds the payload confirming a reset of all balances
func ResetAllConfirmData() string {
	return "reset_all_balances_confirm"
}

// ResetAllCancelData builds the payload aborting a reset of all balances
func ResetAllCancelData() string {
	return "reset_all_balances_cancel"
}

// Parse decodes a callback payload into an Action
func Parse(data string) (Action, error) {
	switch {
	case data == "reset_all_balances_confirm":
		return Action{Kind: ResetAllConfirm}, nil
	case data == "reset_all_balances_cancel":
		return Action{Kind: ResetAllCancel}, nil
	case strings.HasPrefix(data, "attendance_"):
		rest := strings.TrimPrefix(data, "attendance_")
		parts := strings.SplitN(rest, "_", 2)
		if len(parts) != 2 || parts[1] == "" {
			return Action{}, fmt.Errorf("malformed attendance callback: %q", data)
		}
		switch parts[0] {
		case "yes":
			return Action{Kind: Accept, Date: parts[1]}, nil
		case "no":
			return Action{Kind: Decline, Date: parts[1]}, nil
		}
		return Action{}, fmt.Errorf("unknown attendance answer in %q", data)
	case strings.HasPrefix(data, "menu_"):
		rest := strings.TrimPrefix(data, "menu_")
		parts := strings.SplitN(rest, "_", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return Action{}, fmt.Errorf("malformed menu callback: %q", data)
		}
		return Action{Kind: ChooseDish, Dish: parts[0], Date: parts[1]}, nil
	}
	return Action{}, fmt.Errorf("unknown callback: %q", data)
}
