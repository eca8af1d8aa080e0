package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func delta(t *testing.T, collector prometheus.Collector, observe func()) float64 {
	t.Helper()

	before := testutil.ToFloat64(collector)
	observe()
	after := testutil.ToFloat64(collector)
	return after - before
}

func TestLedgerObserveAppend(t *testing.T) {
	m := NewLedger()
	start := time.Now().Add(-time.Millisecond)

	if inc := delta(t, ledgerBlocksAppendedTotal.WithLabelValues("created", "success"), func() {
		m.ObserveAppend("created", nil, start)
	}); inc != 1 {
		t.Fatalf("expected append success counter increment, got %v", inc)
	}

	if inc := delta(t, ledgerBlocksAppendedTotal.WithLabelValues("verified", "error"), func() {
		m.ObserveAppend("verified", errors.New("disk full"), start)
	}); inc != 1 {
		t.Fatalf("expected append error counter increment, got %v", inc)
	}
}

func TestLedgerObserveIntegrityCheck(t *testing.T) {
	m := NewLedger()
	start := time.Now().Add(-time.Millisecond)

	if inc := delta(t, ledgerIntegrityChecksTotal.WithLabelValues("compromised"), func() {
		m.ObserveIntegrityCheck(false, start)
	}); inc != 1 {
		t.Fatalf("expected compromised counter increment, got %v", inc)
	}

	m.ObserveIntegrityCheck(true, start)
}

func TestLedgerRecordTamperDetected(t *testing.T) {
	m := NewLedger()

	if inc := delta(t, ledgerTamperDetectedTotal, func() {
		m.RecordTamperDetected()
	}); inc != 1 {
		t.Fatalf("expected tamper counter increment, got %v", inc)
	}
}

func TestLedgerObserveSave(t *testing.T) {
	m := NewLedger()

	if inc := delta(t, ledgerSaveTotal.WithLabelValues("error"), func() {
		m.ObserveSave(errors.New("boom"), time.Now())
	}); inc != 1 {
		t.Fatalf("expected save error counter increment, got %v", inc)
	}

	m.ObserveSave(nil, time.Now().Add(-time.Millisecond))
	if n := testutil.CollectAndCount(ledgerSaveDuration); n < 2 {
		t.Fatalf("expected save duration series for both statuses, got %d", n)
	}
}
