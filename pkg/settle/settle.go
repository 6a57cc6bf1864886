// Package settle implements the once-per-date settlement: charge every
// confirmed account, credit the kassa, freeze the day into history.
package settle

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/akbarov/tushlikbot/pkg/ledger"
	"github.com/akbarov/tushlikbot/pkg/menu"
	"github.com/akbarov/tushlikbot/pkg/models"
)

// ErrAlreadySettled means history already holds the date. Callers treat it
// as a benign skip, not a failure.
var ErrAlreadySettled = errors.New("date already settled")

var settlementsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tushlik_settlements_total",
	Help: "Days settled since process start.",
})

// Settle charges each confirmed account its effective price, credits the
// kassa by the same amounts and writes the history entry for the date. The
// caller runs it inside a single store update, so either everything commits
// or nothing does. The history entry is the idempotency marker: a second
// call for the same date returns ErrAlreadySettled and changes nothing.
//
// Pending accounts are left as they stand: they are charged nothing and are
// frozen into history as neither confirmed nor declined.
func Settle(state *models.State, date string, defaultPrice int64) (*models.Summary, error) {
	if _, ok := state.AttendanceHistory[date]; ok {
		return nil, ErrAlreadySettled
	}

	rec, ok := state.DailyAttendance[date]
	if !ok {
		// No survey ran for the date; freeze an empty day so settlement
		// still refuses to re-run.
		rec = models.NewAttendanceRecord()
	}

	summary := &models.Summary{Date: date, Confirmed: len(rec.Confirmed)}
	for _, id := range rec.Confirmed {
		acct, ok := state.Users[id]
		if !ok {
			// Confirmed id no longer registered; nothing to charge.
			continue
		}
		price := ledger.EffectivePrice(acct, defaultPrice)
		if err := ledger.Debit(state, id, price); err != nil {
			return nil, fmt.Errorf("failed to charge account %s: %w", id, err)
		}
		state.Kassa += price
		summary.Total += price

		dish := "N/A"
		if code, ok := rec.Menu[id]; ok {
			if name, ok := menu.DishName(code); ok {
				dish = name
			}
		}
		summary.Lines = append(summary.Lines, models.SummaryLine{Name: acct.Name, Dish: dish})
	}

	state.AttendanceHistory[date] = &models.HistoryEntry{
		Confirmed: append([]string{}, rec.Confirmed...),
		Declined:  append([]string{}, rec.Declined...),
		Menu:      copyMenu(rec.Menu),
	}
	settlementsTotal.Inc()
	return summary, nil
}

func copyMenu(menu map[string]string) map[string]string {
	out := make(map[string]string, len(menu))
	for k, v := range menu {
		out[k] = v
	}
	return out
}
