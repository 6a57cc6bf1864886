package scheduler

import (
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/akbarov/tushlikbot/pkg/config"
	"github.com/akbarov/tushlikbot/pkg/models"
	"github.com/akbarov/tushlikbot/pkg/storage"
)

// monday is a regular business day under the default rest days
var monday = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

var errBlocked = errors.New("blocked by recipient")

type sentMessage struct {
	id   string
	text string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[string]error
}

func (f *fakeNotifier) Notify(id, text string, choices *tgbotapi.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[id]; ok {
		return err
	}
	f.sent = append(f.sent, sentMessage{id: id, text: text})
	return nil
}

func (f *fakeNotifier) sentTo(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, m := range f.sent {
		if m.id == id {
			count++
		}
	}
	return count
}

func newTestService(t *testing.T) (*Service, *storage.Store, *fakeNotifier) {
	t.Helper()
	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		Location:            time.UTC,
		SurveyAt:            config.TimeOfDay{Hour: 7},
		CutoffAt:            config.TimeOfDay{Hour: 10},
		SettleAt:            config.TimeOfDay{Hour: 10, Minute: 5},
		SweepAt:             config.TimeOfDay{Hour: 12},
		RestDays:            map[time.Weekday]bool{time.Saturday: true, time.Sunday: true},
		DefaultPrice:        25000,
		LowBalanceThreshold: 100000,
	}
	notifier := &fakeNotifier{fail: make(map[string]error)}
	return New(store, notifier, cfg), store, notifier
}

func registerUser(t *testing.T, store *storage.Store, id, name string, balance int64) {
	t.Helper()
	err := store.Update(func(state *models.State) error {
		state.Users[id] = &models.Account{ID: id, Name: name, Balance: balance}
		return nil
	})
	if err != nil {
		t.Fatalf("registerUser(%s) error = %v", id, err)
	}
}

func TestNextOccurrenceSkipsRestDays(t *testing.T) {
	svc, _, _ := newTestService(t)
	at := config.TimeOfDay{Hour: 7}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "same day when the time is still ahead",
			now:  time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC),
		},
		{
			name: "next day when the time already passed",
			now:  time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 11, 7, 0, 0, 0, time.UTC),
		},
		{
			name: "friday evening jumps over the weekend",
			now:  time.Date(2025, 3, 14, 11, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 17, 7, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at the phase time moves to the next occurrence",
			now:  time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 11, 7, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.NextOccurrence(at, tt.now); !got.Equal(tt.want) {
				t.Errorf("NextOccurrence(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestNeedsCatchUp(t *testing.T) {
	svc, _, _ := newTestService(t)
	at := config.TimeOfDay{Hour: 7}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "before the phase time", now: time.Date(2025, 3, 10, 6, 59, 0, 0, time.UTC), want: false},
		{name: "at the phase time", now: time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC), want: true},
		{name: "after the phase time", now: monday, want: true},
		{name: "rest day", now: time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.NeedsCatchUp(at, tt.now); got != tt.want {
				t.Errorf("NeedsCatchUp(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestRunSurveySkipsRestDay(t *testing.T) {
	svc, store, notifier := newTestService(t)
	registerUser(t, store, "1", "Aziz", 0)
	saturday := time.Date(2025, 3, 15, 7, 0, 0, 0, time.UTC)

	svc.RunSurvey(saturday, false)

	if len(notifier.sent) != 0 {
		t.Errorf("rest-day survey sent %d prompts, want 0", len(notifier.sent))
	}
	err := store.View(func(state *models.State) error {
		if _, ok := state.DailyAttendance[models.DateKey(saturday)]; ok {
			t.Error("rest-day survey created an attendance record")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
}

func TestRunSurveyPromptsRoster(t *testing.T) {
	svc, store, notifier := newTestService(t)
	registerUser(t, store, "1", "Aziz", 0)
	registerUser(t, store, "2", "Bekzod", 0)

	svc.RunSurvey(monday, false)

	if len(notifier.sent) != 2 {
		t.Fatalf("survey sent %d prompts, want 2", len(notifier.sent))
	}
	err := store.View(func(state *models.State) error {
		rec, ok := state.DailyAttendance[models.DateKey(monday)]
		if !ok {
			t.Fatal("survey did not create the attendance record")
		}
		if len(rec.Pending) != 2 {
			t.Errorf("pending = %v, want both participants", rec.Pending)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
}

func TestRunSurveyRerunPromptsOnlyUnanswered(t *testing.T) {
	svc, store, notifier := newTestService(t)
	registerUser(t, store, "1", "Aziz", 0)
	registerUser(t, store, "2", "Bekzod", 0)

	svc.RunSurvey(monday, false)
	err := store.Update(func(state *models.State) error {
		rec := state.DailyAttendance[models.DateKey(monday)]
		rec.Pending = []string{"2"}
		rec.Confirmed = []string{"1"}
		rec.Menu["1"] = "9"
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	registerUser(t, store, "3", "Davron", 0)

	svc.RunSurvey(monday, false)

	if got := notifier.sentTo("1"); got != 1 {
		t.Errorf("confirmed participant prompted %d times, want 1 (first run only)", got)
	}
	if got := notifier.sentTo("3"); got != 1 {
		t.Errorf("late joiner prompted %d times, want 1", got)
	}
}

func TestRunCutoffRemindsOnlyPending(t *testing.T) {
	svc, store, notifier := newTestService(t)
	registerUser(t, store, "1", "Aziz", 0)
	registerUser(t, store, "2", "Bekzod", 0)
	svc.RunSurvey(monday, false)
	err := store.Update(func(state *models.State) error {
		rec := state.DailyAttendance[models.DateKey(monday)]
		rec.Pending = []string{"2"}
		rec.Confirmed = []string{"1"}
		rec.Menu["1"] = "9"
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	notifier.sent = nil

	svc.RunCutoff(monday)

	if len(notifier.sent) != 1 || notifier.sent[0].id != "2" {
		t.Errorf("last-call reminders = %v, want just participant 2", notifier.sent)
	}
}

func TestRunSettleChargesAndReportsToAdmins(t *testing.T) {
	svc, store, notifier := newTestService(t)
	registerUser(t, store, "1", "Aziz", 0)
	registerUser(t, store, "2", "Bekzod", 0)
	err := store.Update(func(state *models.State) error {
		state.Admins = []string{"2"}
		rec := models.NewAttendanceRecord()
		rec.Confirmed = []string{"1"}
		rec.Menu["1"] = "9"
		state.DailyAttendance[models.DateKey(monday)] = rec
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	svc.RunSettle(monday)

	err = store.View(func(state *models.State) error {
		if got := state.Users["1"].Balance; got != -25000 {
			t.Errorf("balance = %d, want -25000", got)
		}
		if state.Kassa != 25000 {
			t.Errorf("kassa = %d, want 25000", state.Kassa)
		}
		if _, ok := state.AttendanceHistory[models.DateKey(monday)]; !ok {
			t.Error("settlement did not freeze the day into history")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if got := notifier.sentTo("2"); got != 1 {
		t.Errorf("admin received %d summaries, want 1", got)
	}
	if got := notifier.sentTo("1"); got != 0 {
		t.Errorf("non-admin received %d summaries, want 0", got)
	}

	// A repeated trigger (restart catch-up) must not charge twice.
	svc.RunSettle(monday)
	err = store.View(func(state *models.State) error {
		if got := state.Users["1"].Balance; got != -25000 {
			t.Errorf("balance after re-trigger = %d, want -25000", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if got := notifier.sentTo("2"); got != 1 {
		t.Errorf("admin received %d summaries after re-trigger, want still 1", got)
	}
}

func TestRunSweepNotifiesOncePerDay(t *testing.T) {
	svc, store, notifier := newTestService(t)
	registerUser(t, store, "1", "Aziz", -50000)
	registerUser(t, store, "2", "Bekzod", 200000)

	svc.RunSweep(monday)
	if got := notifier.sentTo("1"); got != 1 {
		t.Fatalf("debtor received %d reminders, want 1", got)
	}
	if got := notifier.sentTo("2"); got != 0 {
		t.Errorf("solvent participant received %d reminders, want 0", got)
	}

	svc.RunSweep(monday)
	if got := notifier.sentTo("1"); got != 1 {
		t.Errorf("debtor received %d reminders after second sweep, want still 1", got)
	}

	tuesday := monday.AddDate(0, 0, 1)
	svc.RunSweep(tuesday)
	if got := notifier.sentTo("1"); got != 2 {
		t.Errorf("debtor received %d reminders after next-day sweep, want 2", got)
	}
}

func TestRunSweepRetriesFailedDelivery(t *testing.T) {
	svc, store, notifier := newTestService(t)
	registerUser(t, store, "1", "Aziz", -50000)
	notifier.fail["1"] = errBlocked

	svc.RunSweep(monday)
	if got := notifier.sentTo("1"); got != 0 {
		t.Fatalf("blocked debtor received %d reminders, want 0", got)
	}

	delete(notifier.fail, "1")
	svc.RunSweep(monday)
	if got := notifier.sentTo("1"); got != 1 {
		t.Errorf("debtor received %d reminders after unblock, want 1 (failure must not mark the day)", got)
	}
}
