package menu

import (
	"testing"

	"github.com/akbarov/tushlikbot/pkg/callback"
)

func TestDishName(t *testing.T) {
	if name, ok := DishName("9"); !ok || name != "Osh" {
		t.Errorf("DishName(9) = %q, %v", name, ok)
	}
	if name, ok := DishName("11"); !ok || name != "Xonim" {
		t.Errorf("DishName(11) = %q, %v", name, ok)
	}
	if _, ok := DishName("12"); ok {
		t.Error("DishName(12) = ok, want missing")
	}
}

func TestEveryCodeHasADish(t *testing.T) {
	if len(Codes) != len(dishes) {
		t.Fatalf("codes = %d, dishes = %d", len(Codes), len(dishes))
	}
	for _, code := range Codes {
		if _, ok := dishes[code]; !ok {
			t.Errorf("code %s has no dish", code)
		}
	}
}

func TestKeyboardCoversTheMenu(t *testing.T) {
	kb := Keyboard("2025-03-10")

	var buttons int
	for _, row := range kb.InlineKeyboard {
		if len(row) > 2 {
			t.Errorf("row has %d buttons, want at most 2", len(row))
		}
		for _, btn := range row {
			action, err := callback.Parse(*btn.CallbackData)
			if err != nil {
				t.Fatalf("button payload %q: %v", *btn.CallbackData, err)
			}
			if action.Kind != callback.ChooseDish || action.Date != "2025-03-10" {
				t.Errorf("button action = %+v", action)
			}
			if _, ok := DishName(action.Dish); !ok {
				t.Errorf("button carries unknown dish code %q", action.Dish)
			}
			buttons++
		}
	}
	if buttons != len(Codes) {
		t.Errorf("keyboard has %d buttons, want %d", buttons, len(Codes))
	}
}

func TestSurveyKeyboardRoundTrips(t *testing.T) {
	kb := SurveyKeyboard("2025-03-10")
	if len(kb.InlineKeyboard) != 1 || len(kb.InlineKeyboard[0]) != 2 {
		t.Fatalf("survey keyboard shape = %v", kb.InlineKeyboard)
	}
	yes, err := callback.Parse(*kb.InlineKeyboard[0][0].CallbackData)
	if err != nil || yes.Kind != callback.Accept || yes.Date != "2025-03-10" {
		t.Errorf("yes button = %+v, err %v", yes, err)
	}
	no, err := callback.Parse(*kb.InlineKeyboard[0][1].CallbackData)
	if err != nil || no.Kind != callback.Decline || no.Date != "2025-03-10" {
		t.Errorf("no button = %+v, err %v", no, err)
	}
}
