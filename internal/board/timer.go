// internal/board/timer.go
package board

import (
	"context"
	"sync"
	"time"

	"clockmaker-go/uart"
	"clockmaker-go/x/mathx"
	"clockmaker-go/x/timex"
)

// Timer models the TC0 timer/counter in normal waveform mode: it counts
// at clock/prescaler and raises the overflow vector every period+1
// ticks. Host pacing uses a time.Ticker; tests drive Tick directly for
// determinism.
type Timer struct {
	pmic *PMIC

	mu        sync.Mutex
	prescaler uint32
	period    uint32
	level     uart.IntLevel
	running   bool
	cancel    context.CancelFunc
}

func newTimer(pmic *PMIC) *Timer {
	return &Timer{pmic: pmic}
}

// Configure sets prescaler, period and the overflow interrupt level.
func (t *Timer) Configure(prescaler, period uint32, level uart.IntLevel) {
	t.mu.Lock()
	if prescaler == 0 {
		prescaler = 1
	}
	t.prescaler, t.period, t.level = prescaler, period, level
	t.mu.Unlock()
}

// Tick forces one overflow, regardless of pacing. Test hook.
func (t *Timer) Tick() {
	t.mu.Lock()
	lvl := t.level
	t.mu.Unlock()
	t.pmic.Raise(VecTimerOvf, lvl)
}

// Start begins host-time pacing from the given peripheral clock. Overflow
// frequency is clockHz / prescaler / (period+1), floored at 1 Hz so very
// long demo periods still move.
func (t *Timer) Start(ctx context.Context, clockHz uint32) {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	cctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	ticks := uint64(t.prescaler) * (uint64(t.period) + 1)
	t.mu.Unlock()

	hz := mathx.Clamp(uint64(clockHz)/ticks, 1, 1_000_000)
	period := timex.PeriodFromHz(hz)

	go func() {
		tick := time.NewTicker(period)
		defer tick.Stop()
		for {
			select {
			case <-cctx.Done():
				return
			case <-tick.C:
				t.Tick()
			}
		}
	}()
}

// Stop ends pacing.
func (t *Timer) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.running = false
	t.cancel = nil
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
