// Package messages holds the user-facing Uzbek texts and their formatting
// helpers. Texts are fixed templates; sums are printed with thousand
// separators ("25,000 so'm").
package messages

import (
	"fmt"
	"strings"

	"github.com/akbarov/tushlikbot/pkg/models"
)

// FormatSum renders an amount with thousand separators and a sign for
// non-negative values
func FormatSum(amount int64) string {
	sign := ""
	if amount >= 0 {
		sign = "+"
	}
	return sign + groupDigits(amount)
}

// groupDigits inserts comma separators into an integer
func groupDigits(amount int64) string {
	s := fmt.Sprintf("%d", amount)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		return "-" + out
	}
	return out
}

// WelcomeBack greets a returning registered user by first name
func WelcomeBack(fullName string) string {
	first := fullName
	if i := strings.IndexByte(fullName, ' '); i > 0 {
		first = fullName[:i]
	}
	return fmt.Sprintf("👋 Salom, %s!\n\nMy Tushlik botga qaytganingizdan xursandmiz!", first)
}

// AskPhone starts the registration conversation
func AskPhone() string {
	return "Salom! My Tushlik botiga xush kelibsiz. Ro'yxatdan o'tish uchun telefon raqamingizni yuboring."
}

// AskName asks for the full name after the phone was received
func AskName() string {
	return "Rahmat! Endi to'liq ismingizni kiriting (Masalan: Abdurahmonov Sardor)."
}

// Registered confirms a completed registration
func Registered(fullName string) string {
	return fmt.Sprintf("Ro'yxatdan o'tdingiz, %s!", fullName)
}

// NotRegistered asks the user to register first
func NotRegistered() string {
	return "Siz ro'yxatdan o'tmagansiz. /start buyrug'ini yuboring."
}

// NotAdmin rejects a non-admin caller
func NotAdmin() string {
	return "Siz admin emassiz."
}

// SurveyPrompt is the daily attendance question
func SurveyPrompt() string {
	return "Bugun tushlikka qatnashasizmi? (Sizning kunlik narxingiz qo'llaniladi)"
}

// LastCall reminds a still-pending user that the cancel window is closing
func LastCall(cutoff string) string {
	return fmt.Sprintf("⏰ Eslatma: bugungi tushlik so'roviga hali javob bermadingiz. Javob berish va bekor qilish %s gacha mumkin.", cutoff)
}

// ChooseDish asks an accepted user to pick from the menu
func ChooseDish() string {
	return "Iltimos, menyudan tanlang:"
}

// DishChosen confirms a menu selection
func DishChosen(dish string) string {
	return "Siz tanladingiz: " + dish
}

// DeclineRecorded confirms a no answer
func DeclineRecorded() string {
	return "Tushlik uchun javobingiz qayd etildi."
}

// Cancelled confirms a lunch cancellation
func Cancelled() string {
	return "Siz tushlikni bekor qildingiz."
}

// PastCutoff rejects a cancellation after the cutoff
func PastCutoff() string {
	return "Tushlikni bekor qilish muddati o'tib ketdi."
}

// NoLunchToday means no survey record exists for today
func NoLunchToday() string {
	return "Bugun uchun tushlik ma'lumotlari topilmadi."
}

// InvalidChoice rejects an unparsable button press
func InvalidChoice() string {
	return "Noto'g'ri tanlov."
}

// Balance shows the user's own balance
func Balance(balance int64) string {
	return fmt.Sprintf("Sizning balansingiz: %s so'm", FormatSum(balance))
}

// LowBalance asks the user to top up
func LowBalance(balance int64) string {
	return fmt.Sprintf("Hurmatli foydalanuvchi, sizning balansingiz %s so'mga yetdi.\nIltimos, balansingizni to'ldiring. Rahmat!", FormatSum(balance))
}

// Kassa shows the cash pool balance
func Kassa(balance int64) string {
	return fmt.Sprintf("💰 Kassa: %s so'm", FormatSum(balance))
}

// AttendanceHistory lists the dates the user attended
func AttendanceHistory(dates []string) string {
	if len(dates) == 0 {
		return "Siz jami 0 marta tushlikda qatnashgansiz.\n\nTarix:\nMa'lumot topilmadi."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Siz jami %d marta tushlikda qatnashgansiz.\n\nTarix:\n", len(dates))
	for _, date := range dates {
		sb.WriteString("✅ " + date + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Summary renders the settlement summary sent to admins
func Summary(s *models.Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🍽️ %s - Tushlik qatnashuvchilari: %d\n\n", s.Date, s.Confirmed)
	if len(s.Lines) == 0 {
		sb.WriteString("❌ Bugun tushlik qatnashuvchilar yo'q.")
		return sb.String()
	}
	for i, line := range s.Lines {
		fmt.Fprintf(&sb, "%d. %s - %s\n", i+1, line.Name, line.Dish)
	}
	fmt.Fprintf(&sb, "\n💰 Jami: %s so'm", FormatSum(s.Total))
	return sb.String()
}

// UserList renders the registered users for admins
func UserList(accounts []*models.Account) string {
	if len(accounts) == 0 {
		return "Foydalanuvchilar ro'yxati bo'sh."
	}
	var sb strings.Builder
	sb.WriteString("👥 Foydalanuvchilar ro'yxati:\n\n")
	for i, acct := range accounts {
		fmt.Fprintf(&sb, "%d. ID: %s, Ism: %s, Telefon: %s\n", i+1, acct.ID, acct.Name, acct.Phone)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// BalanceList renders all balances for admins, lowest first
func BalanceList(accounts []*models.Account) string {
	if len(accounts) == 0 {
		return "Foydalanuvchilar ro'yxati bo'sh."
	}
	var sb strings.Builder
	sb.WriteString("📊 BALANSLAR RO'YXATI:\n\n")
	var total int64
	for i, acct := range accounts {
		fmt.Fprintf(&sb, "%d. %s: %s so'm\n", i+1, acct.Name, groupDigits(acct.Balance))
		total += acct.Balance
	}
	fmt.Fprintf(&sb, "\n💰 Jami balans: %s so'm", groupDigits(total))
	return sb.String()
}

// BalanceChanged reports an admin balance adjustment
func BalanceChanged(name string, oldBalance, newBalance int64) string {
	return fmt.Sprintf("%s ning balansi %s so'mdan %s so'mga o'zgartirildi.", name, groupDigits(oldBalance), groupDigits(newBalance))
}

// DailyPriceChanged reports an admin daily price adjustment
func DailyPriceChanged(name string, price int64) string {
	return fmt.Sprintf("%s ning kunlik narxi %s so'mga o'zgartirildi.", name, groupDigits(price))
}

// AskNewName starts the rename conversation
func AskNewName() string {
	return "Yangi ismingizni kiriting:"
}

// PressContactButton nudges the user to share the contact, not type it
func PressContactButton() string {
	return "Iltimos, \"Telefon raqamni yuborish\" tugmasini bosing."
}

// AlreadySettled rejects a response after the day was settled
func AlreadySettled() string {
	return "Bugungi tushlik allaqachon yakunlangan."
}

// NameChanged reports a completed rename
func NameChanged(oldName, newName string) string {
	return fmt.Sprintf("Sizning ismingiz %s dan %s ga o'zgartirildi.", oldName, newName)
}

// UserNotFound means the target id has no account
func UserNotFound() string {
	return "Bu foydalanuvchi topilmadi."
}

// AdminAdded reports a promotion to the caller
func AdminAdded(id string) string {
	return fmt.Sprintf("Foydalanuvchi %s admin sifatida tayinlandi.", id)
}

// AdminPromoted congratulates the new admin
func AdminPromoted() string {
	return "Tabriklaymiz! Siz admin sifatida tayinlandingiz."
}

// AdminRemoved reports a demotion to the caller
func AdminRemoved(id string) string {
	return fmt.Sprintf("Foydalanuvchi %s admin ro'yxatidan o'chirildi.", id)
}

// AdminDemoted notifies the demoted admin
func AdminDemoted() string {
	return "Sizning admin huquqlaringiz bekor qilindi."
}

// AlreadyAdmin means the target is already in the admin set
func AlreadyAdmin() string {
	return "Bu foydalanuvchi allaqachon admin."
}

// LastAdmin rejects the only admin removing themselves
func LastAdmin() string {
	return "Siz yagona admin, o'zingizni o'chira olmaysiz."
}

// BalanceReset reports a single-account balance reset
func BalanceReset(name string, oldBalance int64) string {
	return fmt.Sprintf("%s ning balansi %s so'mdan 0 so'mga tushirildi.", name, groupDigits(oldBalance))
}

// ResetAllPrompt asks for confirmation before zeroing every balance
func ResetAllPrompt() string {
	return "Hamma foydalanuvchilarning balanslarini nolga tushurishni xohlaysizmi?"
}

// ResetAllDone reports a completed reset of every balance
func ResetAllDone(count int, total int64) string {
	return fmt.Sprintf("✅ %d foydalanuvchining jami %s so'mli balansi nolga tushirildi.", count, groupDigits(total))
}

// ResetAllCancelled reports an aborted reset
func ResetAllCancelled() string {
	return "Balanslarni nolga tushirish bekor qilindi."
}

// ReminderReport summarizes a manual debtor reminder run
func ReminderReport(sent, failed int) string {
	return fmt.Sprintf("✅ %d ta foydalanuvchiga eslatma yuborildi.\n❌ %d ta yuborilmadi.", sent, failed)
}

// NoDebtors means nobody is below the threshold
func NoDebtors() string {
	return "Hech kimda balans muammosi yo'q."
}

// InvalidNumber rejects an unparsable amount argument
func InvalidNumber() string {
	return "Iltimos, to'g'ri raqam kiriting."
}

// NegativeNumber rejects a negative amount argument
func NegativeNumber() string {
	return "Iltimos, musbat raqam kiriting."
}

// TodayHeader opens the admin view of today's confirmed participants
func TodayHeader(date string) string {
	return fmt.Sprintf("🍽️ %s - Bugungi tushlik qatnashuvchilari:\n\n", date)
}

// NobodyToday means no one is confirmed for today yet
func NobodyToday() string {
	return "Bugun tushlik qatnashuvchilar yo'q."
}

// Help lists the available commands
func Help(isAdmin bool) string {
	var sb strings.Builder
	sb.WriteString("🍽️ MY TUSHLIK BOT BUYRUQLARI:\n\n")
	sb.WriteString("👤 FOYDALANUVCHI UCHUN:\n")
	sb.WriteString("/start - Botni ishga tushirish va ro'yxatdan o'tish\n")
	sb.WriteString("/balans - Balansingizni ko'rish\n")
	sb.WriteString("/qatnashish - Qatnashishlaringiz tarixi\n")
	sb.WriteString("/bekor - Tushlikni bekor qilish (faqat kesimgacha)\n")
	sb.WriteString("/ism_ozgartirish - Ismingizni o'zgartirish\n")
	sb.WriteString("/yordam - Yordam\n")
	if isAdmin {
		sb.WriteString("\n👑 ADMINISTRATOR UCHUN:\n")
		sb.WriteString("/admin_qoshish [id] - Yangi admin qo'shish\n")
		sb.WriteString("/admin_ochirish [id] - Adminni o'chirish\n")
		sb.WriteString("/balans_qoshish [id] [summa] - Balans qo'shish\n")
		sb.WriteString("/balans_kamaytirish [id] [summa] - Balans kamaytirish\n")
		sb.WriteString("/kunlik_narx [id] [narx] - Kunlik narxni sozlash\n")
		sb.WriteString("/balans_nol - Barcha balanslarni nolga tushirish\n")
		sb.WriteString("/balanslar - Barcha foydalanuvchilarning balanslari\n")
		sb.WriteString("/bugun - Bugungi tushlik qatnashuvchilari\n")
		sb.WriteString("/foydalanuvchilar - Foydalanuvchilar ro'yxati\n")
		sb.WriteString("/eslatma - Kam balansli foydalanuvchilarga eslatma\n")
		sb.WriteString("/kassa - 💰 Kassa balansini ko'rish\n")
		sb.WriteString("/test_survey - (Test) Tushlik so'rovini yuborish\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
