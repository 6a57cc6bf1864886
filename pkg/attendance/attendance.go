// Package attendance implements the per-day survey state machine.
// Transitions mutate an in-memory snapshot only; callers persist through the
// store's single-writer Update.
package attendance

import (
	"errors"
	"sort"
	"time"

	"github.com/akbarov/tushlikbot/pkg/models"
)

var (
	// ErrPastCutoff means a reversal was attempted at or after the cutoff
	ErrPastCutoff = errors.New("cancel window is closed for this date")
	// ErrSettled means the date is already frozen into history
	ErrSettled = errors.New("date is already settled")
	// ErrNoRecord means no survey was opened for the date
	ErrNoRecord = errors.New("no attendance record for this date")
)

// Open ensures an attendance record exists for the date and enrolls every
// registered account that has not already answered into pending. Calling it
// again never resets existing responses. Returns the ids to be prompted in
// deterministic order.
func Open(state *models.State, date string) ([]string, error) {
	if _, ok := state.AttendanceHistory[date]; ok {
		return nil, ErrSettled
	}
	rec := ensureRecord(state, date)

	var toAsk []string
	for id := range state.Users {
		if contains(rec.Confirmed, id) || contains(rec.Declined, id) {
			continue
		}
		if !contains(rec.Pending, id) {
			rec.Pending = append(rec.Pending, id)
		}
		toAsk = append(toAsk, id)
	}
	sort.Strings(toAsk)
	return toAsk, nil
}

// Accept moves the account into the transient menu-selection state: it is
// removed from all three sets and counts as confirmed only once a dish is
// chosen.
func Accept(state *models.State, date, id string) error {
	if _, ok := state.AttendanceHistory[date]; ok {
		return ErrSettled
	}
	rec := ensureRecord(state, date)
	strip(rec, id)
	return nil
}

// ChooseDish confirms the account for the date and records its dish.
// Re-selection before settlement overwrites the previous dish.
func ChooseDish(state *models.State, date, id, code string) error {
	if _, ok := state.AttendanceHistory[date]; ok {
		return ErrSettled
	}
	rec := ensureRecord(state, date)
	strip(rec, id)
	rec.Confirmed = append(rec.Confirmed, id)
	rec.Menu[id] = code
	return nil
}

// Decline records a no answer for the date
func Decline(state *models.State, date, id string) error {
	if _, ok := state.AttendanceHistory[date]; ok {
		return ErrSettled
	}
	rec := ensureRecord(state, date)
	strip(rec, id)
	rec.Declined = append(rec.Declined, id)
	return nil
}

// Cancel reverses a confirmation into a decline. Reversals are rejected at or
// after the cutoff instant for the date.
func Cancel(state *models.State, date, id string, now, cutoff time.Time) error {
	if _, ok := state.AttendanceHistory[date]; ok {
		return ErrSettled
	}
	if !now.Before(cutoff) {
		return ErrPastCutoff
	}
	rec, ok := state.DailyAttendance[date]
	if !ok {
		return ErrNoRecord
	}
	strip(rec, id)
	rec.Declined = append(rec.Declined, id)
	return nil
}

// Reopen reverses a decline back into pending so the account can answer
// again. Same cutoff gate as Cancel.
func Reopen(state *models.State, date, id string, now, cutoff time.Time) error {
	if _, ok := state.AttendanceHistory[date]; ok {
		return ErrSettled
	}
	if !now.Before(cutoff) {
		return ErrPastCutoff
	}
	rec, ok := state.DailyAttendance[date]
	if !ok {
		return ErrNoRecord
	}
	strip(rec, id)
	rec.Pending = append(rec.Pending, id)
	return nil
}

// ensureRecord returns the record for the date, creating it if absent
func ensureRecord(state *models.State, date string) *models.AttendanceRecord {
	rec, ok := state.DailyAttendance[date]
	if !ok {
		rec = models.NewAttendanceRecord()
		state.DailyAttendance[date] = rec
	}
	return rec
}

// strip removes the id from all three sets and the menu map, so that every
// transition inserts into at most one set afterwards. This is what keeps the
// sets disjoint no matter the transition sequence.
func strip(rec *models.AttendanceRecord, id string) {
	rec.Pending = remove(rec.Pending, id)
	rec.Confirmed = remove(rec.Confirmed, id)
	rec.Declined = remove(rec.Declined, id)
	delete(rec.Menu, id)
}

func remove(list []string, id string) []string {
	for i, v := range list {
		if v == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
