package settle

import (
	"errors"
	"testing"

	"github.com/akbarov/tushlikbot/pkg/models"
)

const testDate = "2025-03-10"

func testState() *models.State {
	state := models.NewState()
	state.Users["a"] = &models.Account{ID: "a", Name: "Aziz"}
	state.Users["b"] = &models.Account{ID: "b", Name: "Bekzod", DailyPrice: 30000}
	state.Users["c"] = &models.Account{ID: "c", Name: "Davron"}
	rec := models.NewAttendanceRecord()
	rec.Confirmed = []string{"a", "b"}
	rec.Declined = []string{}
	rec.Pending = []string{"c"}
	rec.Menu = map[string]string{"a": "9", "b": "3"}
	state.DailyAttendance[testDate] = rec
	return state
}

func TestSettleChargesEffectivePrices(t *testing.T) {
	state := testState()

	summary, err := Settle(state, testDate, 25000)
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}

	if got := state.Users["a"].Balance; got != -25000 {
		t.Errorf("a.Balance = %d, want -25000 (default price)", got)
	}
	if got := state.Users["b"].Balance; got != -30000 {
		t.Errorf("b.Balance = %d, want -30000 (custom price)", got)
	}
	if state.Kassa != 55000 {
		t.Errorf("Kassa = %d, want 55000", state.Kassa)
	}
	if summary.Confirmed != 2 {
		t.Errorf("summary.Confirmed = %d, want 2", summary.Confirmed)
	}
	if summary.Total != 55000 {
		t.Errorf("summary.Total = %d, want 55000", summary.Total)
	}
	want := []models.SummaryLine{{Name: "Aziz", Dish: "Osh"}, {Name: "Bekzod", Dish: "Mastava"}}
	if len(summary.Lines) != len(want) {
		t.Fatalf("summary.Lines = %v, want %v", summary.Lines, want)
	}
	for i, line := range want {
		if summary.Lines[i] != line {
			t.Errorf("summary.Lines[%d] = %v, want %v", i, summary.Lines[i], line)
		}
	}
}

func TestSettleIsIdempotent(t *testing.T) {
	state := testState()

	if _, err := Settle(state, testDate, 25000); err != nil {
		t.Fatalf("first Settle() error = %v", err)
	}
	balanceA := state.Users["a"].Balance
	balanceB := state.Users["b"].Balance
	kassa := state.Kassa

	_, err := Settle(state, testDate, 25000)
	if !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("second Settle() error = %v, want ErrAlreadySettled", err)
	}

	if state.Users["a"].Balance != balanceA || state.Users["b"].Balance != balanceB {
		t.Error("second settlement changed balances")
	}
	if state.Kassa != kassa {
		t.Errorf("second settlement changed kassa: %d -> %d", kassa, state.Kassa)
	}
	if len(state.AttendanceHistory) != 1 {
		t.Errorf("history entries = %d, want 1", len(state.AttendanceHistory))
	}
}

func TestSettleLeavesPendingUncharged(t *testing.T) {
	state := testState()

	if _, err := Settle(state, testDate, 25000); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}

	if got := state.Users["c"].Balance; got != 0 {
		t.Errorf("pending account charged: balance = %d, want 0", got)
	}
	entry := state.AttendanceHistory[testDate]
	for _, id := range entry.Declined {
		if id == "c" {
			t.Error("pending account was forced into declined")
		}
	}
}

func TestSettleFreezesRecordSnapshot(t *testing.T) {
	state := testState()

	if _, err := Settle(state, testDate, 25000); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}

	entry := state.AttendanceHistory[testDate]
	rec := state.DailyAttendance[testDate]
	// Mutating the live record must not reach into the frozen entry.
	rec.Confirmed = append(rec.Confirmed, "c")
	rec.Menu["c"] = "1"

	if len(entry.Confirmed) != 2 {
		t.Errorf("history confirmed = %v, want the settled two", entry.Confirmed)
	}
	if _, ok := entry.Menu["c"]; ok {
		t.Error("history menu shares storage with the live record")
	}
}

func TestSettleWithoutRecordFreezesEmptyDay(t *testing.T) {
	state := models.NewState()

	summary, err := Settle(state, testDate, 25000)
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if summary.Confirmed != 0 || summary.Total != 0 {
		t.Errorf("summary = %+v, want empty", summary)
	}
	if _, ok := state.AttendanceHistory[testDate]; !ok {
		t.Error("empty day must still be frozen so settlement cannot re-run")
	}
	if _, err := Settle(state, testDate, 25000); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("re-settle error = %v, want ErrAlreadySettled", err)
	}
}

func TestSettleSkipsUnregisteredConfirmed(t *testing.T) {
	state := testState()
	rec := state.DailyAttendance[testDate]
	rec.Confirmed = append(rec.Confirmed, "ghost")

	summary, err := Settle(state, testDate, 25000)
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if state.Kassa != 55000 {
		t.Errorf("Kassa = %d, want 55000 (ghost not charged)", state.Kassa)
	}
	if len(summary.Lines) != 2 {
		t.Errorf("summary.Lines = %v, want 2 entries", summary.Lines)
	}
}
