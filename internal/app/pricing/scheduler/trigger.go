package scheduler

import (
	"sync"
	"time"
)

// Trigger delivers the ticks that start a sweep.
type Trigger interface {
	C() <-chan time.Time
	Stop()
}

type tickerTrigger struct {
	t *time.Ticker
}

// NewTickerTrigger fires every period.
func NewTickerTrigger(period time.Duration) Trigger {
	return &tickerTrigger{t: time.NewTicker(period)}
}

func (tt *tickerTrigger) C() <-chan time.Time { return tt.t.C }
func (tt *tickerTrigger) Stop()               { tt.t.Stop() }

// ManualTrigger fires only when told to. It holds at most one pending tick.
type ManualTrigger struct {
	ch   chan time.Time
	once sync.Once
	stop chan struct{}
}

// NewManualTrigger creates an idle ManualTrigger.
func NewManualTrigger() *ManualTrigger {
	return &ManualTrigger{
		ch:   make(chan time.Time, 1),
		stop: make(chan struct{}),
	}
}

// Fire queues a tick and reports whether it was accepted. A tick is refused
// while another one is still pending or after Stop.
func (m *ManualTrigger) Fire(at time.Time) bool {
	select {
	case <-m.stop:
		return false
	default:
	}
	select {
	case m.ch <- at:
		return true
	default:
		return false
	}
}

func (m *ManualTrigger) C() <-chan time.Time { return m.ch }

func (m *ManualTrigger) Stop() {
	m.once.Do(func() { close(m.stop) })
}
