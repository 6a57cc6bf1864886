package models

import (
	"time"
)

// DateLayout is the calendar-date key format used throughout the snapshot
const DateLayout = "2006-01-02"

// DateKey formats a time as a snapshot date key
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Account represents a registered lunch participant
type Account struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Balance int64  `json:"balance"`
	// DailyPrice overrides the configured default price; 0 means use the default
	DailyPrice int64 `json:"daily_price,omitempty"`
	// LastBalanceNotification is the date key of the last low-balance reminder
	LastBalanceNotification string    `json:"last_balance_notification,omitempty"`
	RegisteredAt            time.Time `json:"registration_date"`
}

// AttendanceRecord tracks one day's survey responses.
// An account id appears in at most one of Pending, Confirmed and Declined;
// every id in Menu is in Confirmed.
type AttendanceRecord struct {
	Pending   []string          `json:"pending"`
	Confirmed []string          `json:"confirmed"`
	Declined  []string          `json:"declined"`
	Menu      map[string]string `json:"menu"`
}

// NewAttendanceRecord creates an empty attendance record
func NewAttendanceRecord() *AttendanceRecord {
	return &AttendanceRecord{
		Pending:   []string{},
		Confirmed: []string{},
		Declined:  []string{},
		Menu:      make(map[string]string),
	}
}

// HistoryEntry is the frozen snapshot of a settled day.
// Its presence for a date means the date has been settled.
type HistoryEntry struct {
	Confirmed []string          `json:"confirmed"`
	Declined  []string          `json:"declined"`
	Menu      map[string]string `json:"menu"`
}

// State is the full persisted snapshot
type State struct {
	// Version is bumped on every save and used to reject racing writers
	Version           uint64                       `json:"version"`
	Users             map[string]*Account          `json:"users"`
	DailyAttendance   map[string]*AttendanceRecord `json:"daily_attendance"`
	AttendanceHistory map[string]*HistoryEntry     `json:"attendance_history"`
	Kassa             int64                        `json:"kassa"`
	Admins            []string                     `json:"admins"`
}

// NewState creates an empty snapshot
func NewState() *State {
	s := &State{}
	s.Normalize()
	return s
}

// Normalize defaults any missing substructure to empty, so an older or
// partially written snapshot loads without errors
func (s *State) Normalize() {
	if s.Users == nil {
		s.Users = make(map[string]*Account)
	}
	if s.DailyAttendance == nil {
		s.DailyAttendance = make(map[string]*AttendanceRecord)
	}
	for _, rec := range s.DailyAttendance {
		if rec.Menu == nil {
			rec.Menu = make(map[string]string)
		}
	}
	if s.AttendanceHistory == nil {
		s.AttendanceHistory = make(map[string]*HistoryEntry)
	}
	if s.Admins == nil {
		s.Admins = []string{}
	}
}

// IsAdmin reports whether the id is in the admin set
func (s *State) IsAdmin(id string) bool {
	for _, a := range s.Admins {
		if a == id {
			return true
		}
	}
	return false
}

// SummaryLine is one confirmed participant in a settlement summary
type SummaryLine struct {
	Name string `json:"name"`
	Dish string `json:"dish"`
}

// Summary is the settlement result handed to the transport for admins
type Summary struct {
	Date      string        `json:"date"`
	Confirmed int           `json:"confirmed"`
	Total     int64         `json:"total"`
	Lines     []SummaryLine `json:"lines"`
}
