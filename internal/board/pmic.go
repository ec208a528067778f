// internal/board/pmic.go
package board

import (
	"context"
	"sync"

	"clockmaker-go/errcode"
	"clockmaker-go/uart"
)

// Vector identifies one interrupt source of the simulated device. Each
// USART instance owns a receive-complete and a data-register-empty
// vector; the demo timer owns the overflow vector.
type Vector uint8

// RxcVector returns the receive-complete vector of a USART identity.
func RxcVector(id uart.PortID) Vector { return Vector(id) * 2 }

// DreVector returns the data-register-empty vector of a USART identity.
func DreVector(id uart.PortID) Vector { return Vector(id)*2 + 1 }

const (
	VecTimerOvf Vector = uart.NumPorts * 2

	numVectors = int(VecTimerOvf) + 1
)

// Handler is an interrupt service routine. It runs on the controller's
// dispatch goroutine, never concurrently with another handler.
type Handler func()

// PMIC models the prioritized interrupt controller. Peripheral models
// raise vectors at a level; a single dispatch goroutine drains pending
// vectors highest enabled level first, FIFO within a level. Running all
// handlers on one goroutine preserves the single-writer-per-ring-index
// discipline the transport relies on.
//
// True preemption of a running handler is not modelled: priority decides
// dispatch order between pending vectors, which is the part the transport
// semantics depend on.
type PMIC struct {
	mu   sync.Mutex
	cond *sync.Cond

	handlers [numVectors]Handler
	queues   [uart.IntHi + 1][]Vector // indexed by level; IntOff unused
	enabled  [uart.IntHi + 1]bool

	started  bool
	stopped  bool
	inflight bool
}

func NewPMIC() *PMIC {
	p := &PMIC{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Register binds a handler to a vector. Binding is explicit and happens
// once, at board construction; rebinding a live vector is refused.
func (p *PMIC) Register(v Vector, h Handler) error {
	if int(v) >= numVectors || h == nil {
		return errcode.InvalidParams
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handlers[v] != nil {
		return errcode.VectorInUse
	}
	p.handlers[v] = h
	return nil
}

// EnableLevel unmasks one priority level, like setting the matching
// PMIC.CTRL bit.
func (p *PMIC) EnableLevel(l uart.IntLevel) {
	if l == uart.IntOff {
		return
	}
	p.mu.Lock()
	p.enabled[l] = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// EnableAll unmasks every level (the sei() moment).
func (p *PMIC) EnableAll() {
	p.mu.Lock()
	for l := uart.IntLo; l <= uart.IntHi; l++ {
		p.enabled[l] = true
	}
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Raise queues a vector at a level. Raising at IntOff is a no-op, the
// source is masked.
func (p *PMIC) Raise(v Vector, l uart.IntLevel) {
	if l == uart.IntOff || int(v) >= numVectors {
		return
	}
	p.mu.Lock()
	p.queues[l] = append(p.queues[l], v)
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Clear drops pending occurrences of a vector; peripherals call it when
// a level-triggered request condition goes away (e.g. DRE masked).
func (p *PMIC) Clear(v Vector) {
	p.mu.Lock()
	for l := uart.IntLo; l <= uart.IntHi; l++ {
		q := p.queues[l][:0]
		for _, pv := range p.queues[l] {
			if pv != v {
				q = append(q, pv)
			}
		}
		p.queues[l] = q
	}
	p.mu.Unlock()
}

// Start launches the dispatch goroutine. It stops when ctx is cancelled.
func (p *PMIC) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.dispatch()
	go func() {
		<-ctx.Done()
		p.Stop()
	}()
}

// Stop ends dispatching; pending vectors are discarded.
func (p *PMIC) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Sync blocks until no runnable vector is pending and no handler is
// running. Callers must quiesce periodic sources first.
func (p *PMIC) Sync() {
	p.mu.Lock()
	for !p.stopped && (p.runnableLocked() || p.inflight) {
		p.cond.Wait()
	}
	p.mu.Unlock()
}

func (p *PMIC) runnableLocked() bool {
	for l := uart.IntHi; l >= uart.IntLo; l-- {
		if p.enabled[l] && len(p.queues[l]) > 0 {
			return true
		}
	}
	return false
}

func (p *PMIC) popLocked() (Vector, bool) {
	for l := uart.IntHi; l >= uart.IntLo; l-- {
		if p.enabled[l] && len(p.queues[l]) > 0 {
			v := p.queues[l][0]
			p.queues[l] = p.queues[l][1:]
			return v, true
		}
	}
	return 0, false
}

func (p *PMIC) dispatch() {
	p.mu.Lock()
	for {
		for !p.stopped && !p.runnableLocked() {
			p.cond.Wait()
		}
		if p.stopped {
			p.mu.Unlock()
			return
		}
		v, _ := p.popLocked()
		h := p.handlers[v]
		p.inflight = true
		p.mu.Unlock()

		if h != nil {
			h()
		}

		p.mu.Lock()
		p.inflight = false
		p.cond.Broadcast()
	}
}
