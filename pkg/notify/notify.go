// Package notify fans messages out to participants. Delivery is best effort:
// a failed recipient is recorded in the report and never stops the loop or
// rolls anything back.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/akbarov/tushlikbot/pkg/logger"
)

var deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tushlik_deliveries_total",
	Help: "Outbound message deliveries by result.",
}, []string{"result"})

// Notifier delivers one message to one recipient, optionally with buttons
type Notifier interface {
	Notify(id, text string, choices *tgbotapi.InlineKeyboardMarkup) error
}

// Failure is one undelivered recipient
type Failure struct {
	ID  string
	Err error
}

// Report aggregates per-recipient delivery outcomes of a broadcast
type Report struct {
	Delivered int
	Failures  []Failure
}

// Failed returns the number of failed deliveries
func (r Report) Failed() int {
	return len(r.Failures)
}

// String summarizes the report for logging
func (r Report) String() string {
	return fmt.Sprintf("%d delivered, %d failed", r.Delivered, r.Failed())
}

// Broadcast delivers the message to every recipient and collects the
// outcomes. Failures are logged under a per-broadcast correlation id.
func Broadcast(n Notifier, recipients []string, text string, choices *tgbotapi.InlineKeyboardMarkup, log *logger.Logger) Report {
	corrID := uuid.NewString()
	var report Report
	for _, id := range recipients {
		if err := n.Notify(id, text, choices); err != nil {
			log.Error("broadcast %s: delivery to %s failed: %v", corrID, id, err)
			deliveriesTotal.WithLabelValues("failed").Inc()
			report.Failures = append(report.Failures, Failure{ID: id, Err: err})
			continue
		}
		deliveriesTotal.WithLabelValues("ok").Inc()
		report.Delivered++
	}
	if report.Failed() > 0 {
		log.Warn("broadcast %s: %s", corrID, report)
	}
	return report
}
