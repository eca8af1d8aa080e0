package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerBlocksAppendedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docledger",
		Subsystem: "ledger",
		Name:      "blocks_appended_total",
		Help:      "Count of blocks appended to the chain.",
	}, []string{"action", "status"})

	ledgerAppendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docledger",
		Subsystem: "ledger",
		Name:      "append_duration_seconds",
		Help:      "Duration of a mutating ledger operation including persistence.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"action", "status"})

	ledgerIntegrityChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docledger",
		Subsystem: "ledger",
		Name:      "integrity_checks_total",
		Help:      "Count of full chain integrity walks.",
	}, []string{"status"})

	ledgerIntegrityCheckDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docledger",
		Subsystem: "ledger",
		Name:      "integrity_check_duration_seconds",
		Help:      "Duration of a full chain integrity walk.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	ledgerTamperDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "docledger",
		Subsystem: "ledger",
		Name:      "tamper_detected_total",
		Help:      "Count of verifications that detected a modified document.",
	})

	ledgerSaveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docledger",
		Subsystem: "ledger",
		Name:      "snapshot_saves_total",
		Help:      "Count of ledger snapshot writes.",
	}, []string{"status"})

	ledgerSaveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docledger",
		Subsystem: "ledger",
		Name:      "snapshot_save_duration_seconds",
		Help:      "Duration of a ledger snapshot write.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})
)

// Ledger tracks metrics for ledger operations.
type Ledger struct{}

// NewLedger constructs a Ledger metrics recorder.
func NewLedger() *Ledger {
	return &Ledger{}
}

// ObserveAppend records the outcome and duration of a mutating operation.
func (m *Ledger) ObserveAppend(action string, err error, started time.Time) {
	status := outcome(err)
	ledgerBlocksAppendedTotal.WithLabelValues(action, status).Inc()
	ledgerAppendDuration.WithLabelValues(action, status).
		Observe(time.Since(started).Seconds())
}

// ObserveIntegrityCheck records a full chain walk.
func (m *Ledger) ObserveIntegrityCheck(valid bool, started time.Time) {
	status := "valid"
	if !valid {
		status = "compromised"
	}
	ledgerIntegrityChecksTotal.WithLabelValues(status).Inc()
	ledgerIntegrityCheckDuration.WithLabelValues(status).
		Observe(time.Since(started).Seconds())
}

// RecordTamperDetected counts a verification that found modified content.
func (m *Ledger) RecordTamperDetected() {
	ledgerTamperDetectedTotal.Inc()
}

// ObserveSave records the outcome and duration of a snapshot write.
func (m *Ledger) ObserveSave(err error, started time.Time) {
	status := outcome(err)
	ledgerSaveTotal.WithLabelValues(status).Inc()
	ledgerSaveDuration.WithLabelValues(status).
		Observe(time.Since(started).Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
