package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/akbarov/tushlikbot/pkg/attendance"
	"github.com/akbarov/tushlikbot/pkg/callback"
	"github.com/akbarov/tushlikbot/pkg/config"
	"github.com/akbarov/tushlikbot/pkg/httpadmin"
	"github.com/akbarov/tushlikbot/pkg/ledger"
	"github.com/akbarov/tushlikbot/pkg/logger"
	"github.com/akbarov/tushlikbot/pkg/menu"
	"github.com/akbarov/tushlikbot/pkg/messages"
	"github.com/akbarov/tushlikbot/pkg/models"
	"github.com/akbarov/tushlikbot/pkg/roster"
	"github.com/akbarov/tushlikbot/pkg/scheduler"
	"github.com/akbarov/tushlikbot/pkg/storage"
	"github.com/akbarov/tushlikbot/pkg/telegram"
)

func main() {
	// Initialize logger
	log := logger.Global
	log.Info("Starting Tushlik bot...")

	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// Initialize storage
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		log.Error("Failed to initialize storage: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	// Start BadgerDB garbage collection
	store.StartGCRoutine(10 * time.Minute)

	// Initialize services
	rosterService := roster.New(store)
	conversations := telegram.NewConversations()

	// Initialize Telegram bot
	bot, err := telegram.New(cfg.BotToken)
	if err != nil {
		log.Error("Failed to initialize Telegram bot: %v", err)
		os.Exit(1)
	}

	// Initialize the phase scheduler
	sched := scheduler.New(store, bot, cfg)

	userID := func(message *tgbotapi.Message) string {
		return strconv.FormatInt(message.From.ID, 10)
	}

	// requireAdmin replies with a rejection and returns false for non-admins
	requireAdmin := func(message *tgbotapi.Message) bool {
		if !rosterService.IsAdmin(userID(message)) {
			bot.SendMessage(message.Chat.ID, messages.NotAdmin())
			return false
		}
		return true
	}

	// adjustBalance handles the add/subtract admin commands
	adjustBalance := func(message *tgbotapi.Message, subtract bool) {
		if !requireAdmin(message) {
			return
		}
		args := strings.Fields(message.CommandArguments())
		if len(args) != 2 {
			bot.SendMessage(message.Chat.ID, fmt.Sprintf("Masalan: /%s 123456789 25000", message.Command()))
			return
		}
		amount, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			bot.SendMessage(message.Chat.ID, messages.InvalidNumber())
			return
		}
		targetID := args[0]
		var name string
		var oldBalance, newBalance int64
		err = store.Update(func(state *models.State) error {
			acct, ok := state.Users[targetID]
			if !ok {
				return ledger.ErrUnknownAccount
			}
			name = acct.Name
			oldBalance = acct.Balance
			var opErr error
			if subtract {
				opErr = ledger.Debit(state, targetID, amount)
			} else {
				opErr = ledger.Credit(state, targetID, amount)
			}
			newBalance = acct.Balance
			return opErr
		})
		switch {
		case errors.Is(err, ledger.ErrUnknownAccount):
			bot.SendMessage(message.Chat.ID, messages.UserNotFound())
		case errors.Is(err, ledger.ErrInvalidAmount):
			bot.SendMessage(message.Chat.ID, messages.NegativeNumber())
		case err != nil:
			log.Error("Failed to adjust balance of %s: %v", targetID, err)
		default:
			bot.SendMessage(message.Chat.ID, messages.BalanceChanged(name, oldBalance, newBalance))
		}
	}

	// Setup command handlers
	commandHandlers := map[string]telegram.CommandHandler{
		"start": func(message *tgbotapi.Message) {
			acct, err := rosterService.Account(userID(message))
			if err == nil {
				bot.SendMessage(message.Chat.ID, messages.WelcomeBack(acct.Name))
				return
			}
			conversations.Set(message.Chat.ID, telegram.Conversation{Step: telegram.StepAwaitingPhone})
			msg := tgbotapi.NewMessage(message.Chat.ID, messages.AskPhone())
			msg.ReplyMarkup = telegram.RequestContactKeyboard("Telefon raqamni yuborish")
			bot.Send(msg)
		},
		"balans": func(message *tgbotapi.Message) {
			acct, err := rosterService.Account(userID(message))
			if err != nil {
				bot.SendMessage(message.Chat.ID, messages.NotRegistered())
				return
			}
			bot.SendMessage(message.Chat.ID, messages.Balance(acct.Balance))
		},
		"qatnashish": func(message *tgbotapi.Message) {
			dates, err := rosterService.AttendanceDates(userID(message))
			if err != nil {
				bot.SendMessage(message.Chat.ID, messages.NotRegistered())
				return
			}
			bot.SendMessage(message.Chat.ID, messages.AttendanceHistory(dates))
		},
		"bekor": func(message *tgbotapi.Message) {
			now := time.Now().In(cfg.Location)
			date := models.DateKey(now)
			cutoff := cfg.CutoffAt.On(now)
			err := store.Update(func(state *models.State) error {
				return attendance.Cancel(state, date, userID(message), now, cutoff)
			})
			switch {
			case errors.Is(err, attendance.ErrPastCutoff):
				bot.SendMessage(message.Chat.ID, messages.PastCutoff())
			case errors.Is(err, attendance.ErrSettled):
				bot.SendMessage(message.Chat.ID, messages.AlreadySettled())
			case errors.Is(err, attendance.ErrNoRecord):
				bot.SendMessage(message.Chat.ID, messages.NoLunchToday())
			case err != nil:
				log.Error("Failed to cancel lunch for %s: %v", userID(message), err)
			default:
				bot.SendMessage(message.Chat.ID, messages.Cancelled())
			}
		},
		"ism_ozgartirish": func(message *tgbotapi.Message) {
			if _, err := rosterService.Account(userID(message)); err != nil {
				bot.SendMessage(message.Chat.ID, messages.NotRegistered())
				return
			}
			conversations.Set(message.Chat.ID, telegram.Conversation{Step: telegram.StepAwaitingNewName})
			bot.SendMessage(message.Chat.ID, messages.AskNewName())
		},
		"yordam": func(message *tgbotapi.Message) {
			bot.SendMessage(message.Chat.ID, messages.Help(rosterService.IsAdmin(userID(message))))
		},
		"admin_qoshish": func(message *tgbotapi.Message) {
			args := strings.Fields(message.CommandArguments())
			if len(args) != 1 {
				bot.SendMessage(message.Chat.ID, "Yangi admin uchun foydalanuvchi ID kiriting. Masalan: /admin_qoshish 123456789")
				return
			}
			target := args[0]
			err := rosterService.AddAdmin(userID(message), target)
			switch {
			case errors.Is(err, roster.ErrNotAdmin):
				bot.SendMessage(message.Chat.ID, messages.NotAdmin())
			case errors.Is(err, roster.ErrAlreadyAdmin):
				bot.SendMessage(message.Chat.ID, messages.AlreadyAdmin())
			case errors.Is(err, ledger.ErrUnknownAccount):
				bot.SendMessage(message.Chat.ID, messages.UserNotFound())
			case err != nil:
				log.Error("Failed to add admin %s: %v", target, err)
			default:
				if err := bot.Notify(target, messages.AdminPromoted(), nil); err != nil {
					log.Error("Failed to notify new admin %s: %v", target, err)
				}
				bot.SendMessage(message.Chat.ID, messages.AdminAdded(target))
			}
		},
		"admin_ochirish": func(message *tgbotapi.Message) {
			args := strings.Fields(message.CommandArguments())
			if len(args) != 1 {
				bot.SendMessage(message.Chat.ID, "Adminni o'chirish uchun foydalanuvchi ID kiriting. Masalan: /admin_ochirish 123456789")
				return
			}
			target := args[0]
			err := rosterService.RemoveAdmin(userID(message), target)
			switch {
			case errors.Is(err, roster.ErrNotAdmin):
				bot.SendMessage(message.Chat.ID, messages.NotAdmin())
			case errors.Is(err, roster.ErrLastAdmin):
				bot.SendMessage(message.Chat.ID, messages.LastAdmin())
			case errors.Is(err, ledger.ErrUnknownAccount):
				bot.SendMessage(message.Chat.ID, messages.UserNotFound())
			case err != nil:
				log.Error("Failed to remove admin %s: %v", target, err)
			default:
				if err := bot.Notify(target, messages.AdminDemoted(), nil); err != nil {
					log.Error("Failed to notify removed admin %s: %v", target, err)
				}
				bot.SendMessage(message.Chat.ID, messages.AdminRemoved(target))
			}
		},
		"balans_qoshish": func(message *tgbotapi.Message) {
			adjustBalance(message, false)
		},
		"balans_kamaytirish": func(message *tgbotapi.Message) {
			adjustBalance(message, true)
		},
		"kunlik_narx": func(message *tgbotapi.Message) {
			if !requireAdmin(message) {
				return
			}
			args := strings.Fields(message.CommandArguments())
			if len(args) != 2 {
				bot.SendMessage(message.Chat.ID, "Masalan: /kunlik_narx 123456789 20000")
				return
			}
			price, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				bot.SendMessage(message.Chat.ID, messages.InvalidNumber())
				return
			}
			targetID := args[0]
			var name string
			err = store.Update(func(state *models.State) error {
				acct, ok := state.Users[targetID]
				if !ok {
					return ledger.ErrUnknownAccount
				}
				name = acct.Name
				return ledger.SetDailyPrice(state, targetID, price)
			})
			switch {
			case errors.Is(err, ledger.ErrUnknownAccount):
				bot.SendMessage(message.Chat.ID, messages.UserNotFound())
			case errors.Is(err, ledger.ErrInvalidAmount):
				bot.SendMessage(message.Chat.ID, messages.NegativeNumber())
			case err != nil:
				log.Error("Failed to set daily price for %s: %v", targetID, err)
			default:
				bot.SendMessage(message.Chat.ID, messages.DailyPriceChanged(name, price))
			}
		},
		"balans_nol": func(message *tgbotapi.Message) {
			if !requireAdmin(message) {
				return
			}
			args := strings.Fields(message.CommandArguments())
			if len(args) == 1 {
				targetID := args[0]
				var name string
				var oldBalance int64
				err := store.Update(func(state *models.State) error {
					acct, ok := state.Users[targetID]
					if !ok {
						return ledger.ErrUnknownAccount
					}
					name = acct.Name
					oldBalance = acct.Balance
					return ledger.SetBalance(state, targetID, 0)
				})
				if errors.Is(err, ledger.ErrUnknownAccount) {
					bot.SendMessage(message.Chat.ID, messages.UserNotFound())
					return
				}
				if err != nil {
					log.Error("Failed to reset balance of %s: %v", targetID, err)
					return
				}
				bot.SendMessage(message.Chat.ID, messages.BalanceReset(name, oldBalance))
				return
			}
			kb := tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("Ha ✅", callback.ResetAllConfirmData()),
					tgbotapi.NewInlineKeyboardButtonData("Yo'q ❌", callback.ResetAllCancelData()),
				),
			)
			bot.SendMessageWithKeyboard(message.Chat.ID, messages.ResetAllPrompt(), kb)
		},
		"balanslar": func(message *tgbotapi.Message) {
			if !requireAdmin(message) {
				return
			}
			accounts, err := rosterService.Accounts()
			if err != nil {
				log.Error("Failed to list accounts: %v", err)
				return
			}
			bot.SendMessage(message.Chat.ID, messages.BalanceList(accounts))
		},
		"foydalanuvchilar": func(message *tgbotapi.Message) {
			if !requireAdmin(message) {
				return
			}
			accounts, err := rosterService.Accounts()
			if err != nil {
				log.Error("Failed to list accounts: %v", err)
				return
			}
			bot.SendMessage(message.Chat.ID, messages.UserList(accounts))
		},
		"bugun": func(message *tgbotapi.Message) {
			if !requireAdmin(message) {
				return
			}
			date := models.DateKey(time.Now().In(cfg.Location))
			var text string
			err := store.View(func(state *models.State) error {
				rec, ok := state.DailyAttendance[date]
				if !ok {
					text = messages.NoLunchToday()
					return nil
				}
				if len(rec.Confirmed) == 0 {
					text = messages.NobodyToday()
					return nil
				}
				text = messages.TodayHeader(date)
				for i, id := range rec.Confirmed {
					acct, ok := state.Users[id]
					if !ok {
						continue
					}
					dish := "N/A"
					if code, ok := rec.Menu[id]; ok {
						if name, ok := menu.DishName(code); ok {
							dish = name
						}
					}
					text += fmt.Sprintf("%d. %s - %s\n", i+1, acct.Name, dish)
				}
				return nil
			})
			if err != nil {
				log.Error("Failed to read today's attendance: %v", err)
				return
			}
			bot.SendMessage(message.Chat.ID, strings.TrimRight(text, "\n"))
		},
		"kassa": func(message *tgbotapi.Message) {
			if !requireAdmin(message) {
				return
			}
			var kassa int64
			if err := store.View(func(state *models.State) error {
				kassa = state.Kassa
				return nil
			}); err != nil {
				log.Error("Failed to read kassa: %v", err)
				return
			}
			bot.SendMessage(message.Chat.ID, messages.Kassa(kassa))
		},
		"eslatma": func(message *tgbotapi.Message) {
			if !requireAdmin(message) {
				return
			}
			var debtors []*models.Account
			if err := store.View(func(state *models.State) error {
				debtors = ledger.Debtors(state, cfg.LowBalanceThreshold)
				return nil
			}); err != nil {
				log.Error("Failed to list debtors: %v", err)
				return
			}
			if len(debtors) == 0 {
				bot.SendMessage(message.Chat.ID, messages.NoDebtors())
				return
			}
			sent, failed := 0, 0
			for _, acct := range debtors {
				if err := bot.Notify(acct.ID, messages.Balance(acct.Balance), nil); err != nil {
					log.Error("Failed to send reminder to %s: %v", acct.ID, err)
					failed++
					continue
				}
				sent++
			}
			bot.SendMessage(message.Chat.ID, messages.ReminderReport(sent, failed))
		},
		"test_survey": func(message *tgbotapi.Message) {
			if !requireAdmin(message) {
				return
			}
			sched.RunSurvey(time.Now().In(cfg.Location), true)
			bot.SendMessage(message.Chat.ID, "Test survey yuborildi!")
		},
	}

	// Callback queries carry the attendance answers and the reset
	// confirmation; all payloads are parsed here, once.
	callbackHandler := func(cb *tgbotapi.CallbackQuery) {
		uid := strconv.FormatInt(cb.From.ID, 10)
		chatID := cb.Message.Chat.ID
		action, err := callback.Parse(cb.Data)
		if err != nil {
			log.Warn("Unparsable callback from %s: %v", uid, err)
			bot.AnswerCallbackQuery(cb.ID, messages.InvalidChoice())
			return
		}
		bot.AnswerCallbackQuery(cb.ID, "")

		switch action.Kind {
		case callback.Accept:
			err := store.Update(func(state *models.State) error {
				return attendance.Accept(state, action.Date, uid)
			})
			if errors.Is(err, attendance.ErrSettled) {
				bot.EditMessage(chatID, cb.Message.MessageID, messages.AlreadySettled())
				return
			}
			if err != nil {
				log.Error("Failed to record accept from %s: %v", uid, err)
				return
			}
			bot.EditMessageWithKeyboard(chatID, cb.Message.MessageID, messages.ChooseDish(), menu.Keyboard(action.Date))
		case callback.Decline:
			err := store.Update(func(state *models.State) error {
				return attendance.Decline(state, action.Date, uid)
			})
			if errors.Is(err, attendance.ErrSettled) {
				bot.EditMessage(chatID, cb.Message.MessageID, messages.AlreadySettled())
				return
			}
			if err != nil {
				log.Error("Failed to record decline from %s: %v", uid, err)
				return
			}
			bot.EditMessage(chatID, cb.Message.MessageID, messages.DeclineRecorded())
		case callback.ChooseDish:
			dishName, ok := menu.DishName(action.Dish)
			if !ok {
				bot.EditMessage(chatID, cb.Message.MessageID, messages.InvalidChoice())
				return
			}
			err := store.Update(func(state *models.State) error {
				return attendance.ChooseDish(state, action.Date, uid, action.Dish)
			})
			if errors.Is(err, attendance.ErrSettled) {
				bot.EditMessage(chatID, cb.Message.MessageID, messages.AlreadySettled())
				return
			}
			if err != nil {
				log.Error("Failed to record dish choice from %s: %v", uid, err)
				return
			}
			bot.EditMessage(chatID, cb.Message.MessageID, messages.DishChosen(dishName))
		case callback.ResetAllConfirm:
			if !rosterService.IsAdmin(uid) {
				bot.EditMessage(chatID, cb.Message.MessageID, messages.NotAdmin())
				return
			}
			var count int
			var total int64
			if err := store.Update(func(state *models.State) error {
				count, total = ledger.ResetAllBalances(state)
				return nil
			}); err != nil {
				log.Error("Failed to reset balances: %v", err)
				return
			}
			bot.EditMessage(chatID, cb.Message.MessageID, messages.ResetAllDone(count, total))
		case callback.ResetAllCancel:
			if !rosterService.IsAdmin(uid) {
				bot.EditMessage(chatID, cb.Message.MessageID, messages.NotAdmin())
				return
			}
			bot.EditMessage(chatID, cb.Message.MessageID, messages.ResetAllCancelled())
		}
	}

	// Plain messages only matter inside the registration and rename flows
	defaultHandler := func(message *tgbotapi.Message) {
		chatID := message.Chat.ID
		conv := conversations.Get(chatID)

		switch conv.Step {
		case telegram.StepAwaitingPhone:
			if message.Contact == nil {
				bot.SendMessage(chatID, messages.PressContactButton())
				return
			}
			conversations.Set(chatID, telegram.Conversation{
				Step:  telegram.StepAwaitingName,
				Phone: message.Contact.PhoneNumber,
			})
			msg := tgbotapi.NewMessage(chatID, messages.AskName())
			msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
			bot.Send(msg)
		case telegram.StepAwaitingName:
			if message.Text == "" {
				bot.SendMessage(chatID, messages.AskName())
				return
			}
			_, err := rosterService.Register(userID(message), message.Text, conv.Phone)
			if err != nil && !errors.Is(err, roster.ErrAlreadyRegistered) {
				log.Error("Failed to register %s: %v", userID(message), err)
				return
			}
			conversations.Clear(chatID)
			bot.SendMessage(chatID, messages.Registered(message.Text))
		case telegram.StepAwaitingNewName:
			if message.Text == "" {
				bot.SendMessage(chatID, messages.AskNewName())
				return
			}
			oldName, err := rosterService.Rename(userID(message), message.Text)
			conversations.Clear(chatID)
			if err != nil {
				bot.SendMessage(chatID, messages.NotRegistered())
				return
			}
			bot.SendMessage(chatID, messages.NameChanged(oldName, message.Text))
		}
	}

	// Start the phase scheduler
	sched.Start()
	defer sched.Stop()

	// Start the read-only admin HTTP server if configured
	if cfg.AdminAddr != "" {
		adminServer := httpadmin.New(store, rosterService)
		go func() {
			if err := adminServer.ListenAndServe(cfg.AdminAddr); err != nil {
				log.Error("Admin HTTP server stopped: %v", err)
			}
		}()
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down...")
		sched.Stop()
		store.Close()
		os.Exit(0)
	}()

	// Start the bot
	log.Info("Bot is now running. Press CTRL-C to exit.")
	if err := bot.Start(commandHandlers, callbackHandler, defaultHandler); err != nil {
		log.Error("Error running bot: %v", err)
		os.Exit(1)
	}
}
