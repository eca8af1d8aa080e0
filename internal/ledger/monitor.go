package ledger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Alerter receives chain integrity violations found by the monitor.
type Alerter interface {
	SendChainBrokenAlert(blockIndex int, expected, actual string) error
}

// Monitor re-runs the full chain integrity walk on an interval and raises
// an alert when a violation appears. Verification never repairs anything;
// the violation stays visible until an operator investigates.
type Monitor struct {
	ledger   *Ledger
	interval time.Duration
	alerts   Alerter
	logger   *zap.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewMonitor builds a monitor. A nil alerts sink disables alerting; an
// interval of zero disables the periodic loop, leaving only the startup
// check.
func NewMonitor(l *Ledger, interval time.Duration, alerts Alerter, logger *zap.Logger) *Monitor {
	return &Monitor{
		ledger:   l,
		interval: interval,
		alerts:   alerts,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start runs one immediate integrity check, then launches the periodic
// loop. A violation at startup is reported but does not prevent the
// process from running: the chain stays available for audit.
func (m *Monitor) Start(ctx context.Context) error {
	if err := m.check(); err != nil {
		m.logger.Error("startup integrity check failed", zap.Error(err))
	} else {
		m.logger.Info("startup integrity check passed")
	}

	if m.interval > 0 {
		m.wg.Add(1)
		go m.run(ctx)
	}

	return nil
}

// Stop terminates the periodic loop and waits for it to exit.
func (m *Monitor) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.check(); err != nil {
				m.logger.Error("periodic integrity check failed", zap.Error(err))
			}
		}
	}
}

func (m *Monitor) check() error {
	err := m.ledger.VerifyIntegrity()
	if err == nil {
		return nil
	}

	if ie := AsIntegrityError(err); ie != nil && m.alerts != nil {
		if alertErr := m.alerts.SendChainBrokenAlert(ie.BlockIndex, ie.Expected, ie.Actual); alertErr != nil {
			m.logger.Error("failed to send chain-broken alert", zap.Error(alertErr))
		}
	}

	return err
}
