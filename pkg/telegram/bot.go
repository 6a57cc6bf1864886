package telegram

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/akbarov/tushlikbot/pkg/logger"
)

// Bot represents a Telegram bot instance
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *logger.Logger
}

// CommandHandler handles a Telegram command message
type CommandHandler func(message *tgbotapi.Message)

// CallbackHandler handles a Telegram callback query
type CallbackHandler func(callback *tgbotapi.CallbackQuery)

// MessageHandler handles a plain (non-command) message
type MessageHandler func(message *tgbotapi.Message)

// New creates a new Telegram bot instance
func New(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	bot := &Bot{
		api:    api,
		logger: logger.New("telegram"),
	}

	bot.logger.Info("Telegram bot created: @%s", api.Self.UserName)
	return bot, nil
}

// Start starts the long-poll update loop. Commands go to commandHandlers,
// every callback query goes to callbackHandler, anything else to
// defaultHandler.
func (b *Bot) Start(commandHandlers map[string]CommandHandler, callbackHandler CallbackHandler, defaultHandler MessageHandler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message != nil && update.Message.IsCommand() {
			command := update.Message.Command()
			if handler, ok := commandHandlers[command]; ok {
				b.logger.Info("Handling command: %s from user %s", command, update.Message.From.UserName)
				handler(update.Message)
			}
			continue
		}

		if update.CallbackQuery != nil {
			if callbackHandler != nil {
				b.logger.Info("Handling callback: %s from user %s", update.CallbackQuery.Data, update.CallbackQuery.From.UserName)
				callbackHandler(update.CallbackQuery)
			}
			continue
		}

		if update.Message != nil && defaultHandler != nil {
			defaultHandler(update.Message)
		}
	}

	return nil
}

// Notify delivers one message to one participant, optionally with buttons.
// It implements notify.Notifier.
func (b *Bot) Notify(id, text string, choices *tgbotapi.InlineKeyboardMarkup) error {
	chatID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", id, err)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if choices != nil {
		msg.ReplyMarkup = *choices
	}
	_, err = b.api.Send(msg)
	return err
}

// SendMessage sends a text message to a chat
func (b *Bot) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	return b.api.Send(msg)
}

// SendMessageWithKeyboard sends a text message with an inline keyboard
func (b *Bot) SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return b.api.Send(msg)
}

// RequestContactKeyboard builds the one-time reply keyboard asking the user
// to share their phone number
func RequestContactKeyboard(label string) tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewOneTimeReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact(label),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// AnswerCallbackQuery answers a callback query
func (b *Bot) AnswerCallbackQuery(callbackID string, text string) error {
	callback := tgbotapi.NewCallback(callbackID, text)
	_, err := b.api.Request(callback)
	return err
}

// EditMessage edits a message
func (b *Bot) EditMessage(chatID int64, messageID int, text string) (tgbotapi.Message, error) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	return b.api.Send(edit)
}

// EditMessageWithKeyboard edits a message and replaces its inline keyboard
func (b *Bot) EditMessageWithKeyboard(chatID int64, messageID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, keyboard)
	return b.api.Send(edit)
}

// Send sends a Chattable to Telegram
func (b *Bot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return b.api.Send(c)
}
