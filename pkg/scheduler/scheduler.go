package scheduler

import (
	"errors"
	"time"

	"github.com/akbarov/tushlikbot/pkg/attendance"
	"github.com/akbarov/tushlikbot/pkg/config"
	"github.com/akbarov/tushlikbot/pkg/ledger"
	"github.com/akbarov/tushlikbot/pkg/logger"
	"github.com/akbarov/tushlikbot/pkg/menu"
	"github.com/akbarov/tushlikbot/pkg/messages"
	"github.com/akbarov/tushlikbot/pkg/models"
	"github.com/akbarov/tushlikbot/pkg/notify"
	"github.com/akbarov/tushlikbot/pkg/settle"
	"github.com/akbarov/tushlikbot/pkg/storage"
)

// Service fires the daily phases against the store and the notifier
type Service struct {
	store    *storage.Store
	notifier notify.Notifier
	cfg      *config.Config
	logger   *logger.Logger
	stopChan chan struct{}
}

// New creates a new scheduler service
func New(store *storage.Store, notifier notify.Notifier, cfg *config.Config) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.New("scheduler"),
		stopChan: make(chan struct{}),
	}
}

// Start starts one goroutine per phase
func (s *Service) Start() {
	s.logger.Info("Starting lunch scheduler (survey %s, cutoff %s, settle %s, sweep %s)",
		s.cfg.SurveyAt, s.cfg.CutoffAt, s.cfg.SettleAt, s.cfg.SweepAt)

	go s.runPhase("survey", s.cfg.SurveyAt, func(now time.Time) { s.RunSurvey(now, false) })
	go s.runPhase("cutoff", s.cfg.CutoffAt, s.RunCutoff)
	go s.runPhase("settle", s.cfg.SettleAt, s.RunSettle)
	go s.runPhase("sweep", s.cfg.SweepAt, s.RunSweep)
}

// Stop stops the scheduler
func (s *Service) Stop() {
	s.logger.Info("Stopping lunch scheduler")
	close(s.stopChan)
}

// runPhase fires fn at each next occurrence of the phase time. If the process
// started after today's occurrence already passed, fn fires once immediately;
// every phase is idempotent at the data level, so a catch-up after a phase
// that did run is harmless.
func (s *Service) runPhase(name string, at config.TimeOfDay, fn func(now time.Time)) {
	now := time.Now().In(s.cfg.Location)
	if s.NeedsCatchUp(at, now) {
		s.logger.Info("Catching up %s phase for %s after restart", name, models.DateKey(now))
		fn(now)
	}

	for {
		now = time.Now().In(s.cfg.Location)
		next := s.NextOccurrence(at, now)
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-timer.C:
			fn(time.Now().In(s.cfg.Location))
		case <-s.stopChan:
			timer.Stop()
			return
		}
	}
}

// NeedsCatchUp reports whether today's occurrence of the phase time already
// passed, so the phase must fire once immediately on start
func (s *Service) NeedsCatchUp(at config.TimeOfDay, now time.Time) bool {
	return s.IsBusinessDay(now) && !now.Before(at.On(now))
}

// NextOccurrence returns the next instant strictly after now at which the
// phase time falls on a business day
func (s *Service) NextOccurrence(at config.TimeOfDay, now time.Time) time.Time {
	day := now
	for {
		t := at.On(day)
		if t.After(now) && s.IsBusinessDay(t) {
			return t
		}
		day = day.AddDate(0, 0, 1)
	}
}

// IsBusinessDay reports whether t falls outside the configured rest days
func (s *Service) IsBusinessDay(t time.Time) bool {
	return !s.cfg.RestDays[t.Weekday()]
}

// RunSurvey opens the day's attendance record and prompts everyone who has
// not answered yet. Reopening never resets existing responses. force skips
// the business-day check for the test command.
func (s *Service) RunSurvey(now time.Time, force bool) {
	if !force && !s.IsBusinessDay(now) {
		s.logger.Info("Skipping survey on rest day %s", models.DateKey(now))
		return
	}
	date := models.DateKey(now)

	var toAsk []string
	err := s.store.Update(func(state *models.State) error {
		ids, err := attendance.Open(state, date)
		if err != nil {
			return err
		}
		toAsk = ids
		return nil
	})
	if errors.Is(err, attendance.ErrSettled) {
		s.logger.Warn("Survey for %s skipped: date already settled", date)
		return
	}
	if err != nil {
		s.logger.Error("Failed to open survey for %s: %v", date, err)
		return
	}

	s.logger.Info("Survey opened for %s, prompting %d participants", date, len(toAsk))
	kb := menu.SurveyKeyboard(date)
	report := notify.Broadcast(s.notifier, toAsk, messages.SurveyPrompt(), &kb, s.logger)
	s.logger.Info("Survey prompts for %s: %s", date, report)
}

// RunCutoff sends a last-call reminder to participants still pending. The
// cancel window itself is enforced by timestamp in the transition functions,
// not by this phase.
func (s *Service) RunCutoff(now time.Time) {
	if !s.IsBusinessDay(now) {
		return
	}
	date := models.DateKey(now)

	var pending []string
	err := s.store.View(func(state *models.State) error {
		if _, ok := state.AttendanceHistory[date]; ok {
			return settle.ErrAlreadySettled
		}
		if rec, ok := state.DailyAttendance[date]; ok {
			pending = append(pending, rec.Pending...)
		}
		return nil
	})
	if errors.Is(err, settle.ErrAlreadySettled) {
		return
	}
	if err != nil {
		s.logger.Error("Failed to read pending list for %s: %v", date, err)
		return
	}
	if len(pending) == 0 {
		return
	}

	kb := menu.SurveyKeyboard(date)
	report := notify.Broadcast(s.notifier, pending, messages.LastCall(s.cfg.CutoffAt.String()), &kb, s.logger)
	s.logger.Info("Last-call reminders for %s: %s", date, report)
}

// RunSettle settles the day and delivers the summary to the admins. A date
// already present in history is a logged no-op.
func (s *Service) RunSettle(now time.Time) {
	if !s.IsBusinessDay(now) {
		return
	}
	date := models.DateKey(now)

	var summary *models.Summary
	var admins []string
	err := s.store.Update(func(state *models.State) error {
		sum, err := settle.Settle(state, date, s.cfg.DefaultPrice)
		if err != nil {
			return err
		}
		summary = sum
		admins = append(admins, state.Admins...)
		return nil
	})
	if errors.Is(err, settle.ErrAlreadySettled) {
		s.logger.Info("Settlement for %s already done, skipping", date)
		return
	}
	if err != nil {
		s.logger.Error("Settlement for %s failed: %v", date, err)
		return
	}

	s.logger.Info("Settled %s: %d confirmed, %d so'm collected", date, summary.Confirmed, summary.Total)
	report := notify.Broadcast(s.notifier, admins, messages.Summary(summary), nil, s.logger)
	s.logger.Info("Summary delivery for %s: %s", date, report)
}

// RunSweep notifies accounts below the low-balance threshold, at most once
// per account per day. The notification date is recorded only for deliveries
// that succeeded, so a failed recipient is retried on the next sweep.
func (s *Service) RunSweep(now time.Time) {
	if !s.IsBusinessDay(now) {
		return
	}
	today := models.DateKey(now)

	type reminder struct {
		id      string
		balance int64
	}
	var due []reminder
	err := s.store.View(func(state *models.State) error {
		for _, acct := range ledger.Debtors(state, s.cfg.LowBalanceThreshold) {
			if acct.LastBalanceNotification == today {
				continue
			}
			due = append(due, reminder{id: acct.ID, balance: acct.Balance})
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to list low balances: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}

	var notified []string
	for _, r := range due {
		if err := s.notifier.Notify(r.id, messages.LowBalance(r.balance), nil); err != nil {
			s.logger.Error("Low-balance reminder to %s failed: %v", r.id, err)
			continue
		}
		notified = append(notified, r.id)
	}
	if len(notified) == 0 {
		return
	}

	err = s.store.Update(func(state *models.State) error {
		for _, id := range notified {
			if acct, ok := state.Users[id]; ok {
				acct.LastBalanceNotification = today
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to record low-balance notifications: %v", err)
	}
	s.logger.Info("Low-balance sweep for %s: %d of %d reminders delivered", today, len(notified), len(due))
}
