package menu

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/akbarov/tushlikbot/pkg/callback"
)

// Codes lists the dish codes in menu order
var Codes = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"}

// dishes maps a dish code to its name
var dishes = map[string]string{
	"1":  "Qovurma Lag'mon",
	"2":  "Teftel Jarkob",
	"3":  "Mastava",
	"4":  "Sho'rva",
	"5":  "Sokoro",
	"6":  "Do'lma",
	"7":  "Teftel sho'rva",
	"8":  "Suyuq lag'mon",
	"9":  "Osh",
	"10": "Qovurma Makron",
	"11": "Xonim",
}

// DishName returns the dish name for a code
func DishName(code string) (string, bool) {
	name, ok := dishes[code]
	return name, ok
}

// SurveyKeyboard builds the yes/no attendance keyboard for a date
func SurveyKeyboard(date string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Ha ✅", callback.AcceptData(date)),
			tgbotapi.NewInlineKeyboardButtonData("Yo'q ❌", callback.DeclineData(date)),
		),
	)
}

// Keyboard builds the dish selection keyboard for a date, two dishes per row
func Keyboard(date string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, code := range Codes {
		label := code + ". " + dishes[code]
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, callback.ChooseDishData(code, date)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
