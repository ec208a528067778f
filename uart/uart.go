// uart/uart.go
//
// Buffered, interrupt-driven transport for one USART instance: two SPSC
// rings bridge the byte-oriented hardware to non-interrupt code. The
// receive-complete handler is the sole producer of the rx ring and the
// data-register-empty handler the sole consumer of the tx ring; the
// application side owns the opposite index of each. Everything is
// non-blocking: reads report a sentinel when empty, writes drop under
// backpressure.
package uart

import (
	"sync/atomic"

	"clockmaker-go/errcode"
)

// NoData is returned by GetByte when the receive ring is empty. It sits
// outside the valid byte range so absence of data is distinct from 0x00.
const NoData uint16 = 0x0100

// DefaultBufferSize is the per-direction ring capacity when the config
// leaves it zero.
const DefaultBufferSize = 32

// Config carries everything Configure needs to bring a port up.
type Config struct {
	ClockHz   uint32
	Baud      uint32
	ClkDouble bool     // halve the oversampling factor
	RxcLevel  IntLevel // receive-complete priority; default lo
	DreLevel  IntLevel // data-register-empty priority; default lo
	DataBits  uint8    // default 8
	StopBits  uint8    // default 1
	Parity    Parity
	RingSize  int // power of two; default DefaultBufferSize
}

// Stats is a snapshot of the transport's drop and throughput counters.
// Dropped bytes are the design's failure mode (no stall, no fault), so
// the counters are the only observability hook.
type Stats struct {
	RxBytes uint32
	TxBytes uint32
	RxDrops uint32 // receive ring full on receive-complete
	TxDrops uint32 // transmit ring full on PutByte
}

// UART binds one Port to a receive/transmit ring pair. One instance
// exists per enabled peripheral identity, created at board construction
// and never destroyed.
type UART struct {
	port Port
	rx   *Ring
	tx   *Ring

	dreLevel IntLevel // level used to arm the transmit-empty source

	rxBytes atomic.Uint32
	txBytes atomic.Uint32
	rxDrops atomic.Uint32
	txDrops atomic.Uint32
}

// New binds a transport to a port. The transport is unusable until
// Configure has run.
func New(port Port) *UART {
	return &UART{port: port}
}

// ID returns the bound peripheral identity.
func (u *UART) ID() PortID { return u.port.ID() }

// Configure computes the baud register pair, programs frame format and
// pin directions, enables the receiver and transmitter, and resets both
// rings. The transmit-empty source stays masked until there is data.
func (u *UART) Configure(cfg Config) error {
	if cfg.ClockHz == 0 || cfg.Baud == 0 {
		return errcode.InvalidParams
	}
	if cfg.DataBits == 0 {
		cfg.DataBits = 8
	}
	if cfg.StopBits == 0 {
		cfg.StopBits = 1
	}
	if cfg.RxcLevel == IntOff {
		cfg.RxcLevel = IntLo
	}
	if cfg.DreLevel == IntOff {
		cfg.DreLevel = IntLo
	}
	size := cfg.RingSize
	if size == 0 {
		size = DefaultBufferSize
	}
	if size < 2 || (size&(size-1)) != 0 {
		return errcode.InvalidParams
	}

	route, err := RouteFor(u.port.ID())
	if err != nil {
		return err
	}

	scale := BScale(cfg.ClockHz, cfg.Baud, cfg.ClkDouble)
	sel := BSel(cfg.ClockHz, cfg.Baud, scale, cfg.ClkDouble)

	if u.rx == nil || u.rx.Size() != size {
		u.rx = NewRing(size)
		u.tx = NewRing(size)
	} else {
		u.rx.Clear()
		u.tx.Clear()
	}
	u.dreLevel = cfg.DreLevel

	if err := u.port.SetFormat(cfg.DataBits, cfg.StopBits, cfg.Parity); err != nil {
		return err
	}
	u.port.SetBaud(sel, scale, cfg.ClkDouble)
	u.port.EnableRx()
	u.port.EnableTx()
	u.port.SetRxcLevel(cfg.RxcLevel)
	u.port.SetDreLevel(IntOff)
	return u.port.ConfigurePins(route)
}

// GetByte pops one byte from the receive ring. The low byte of the
// result holds the data; NoData means the ring was empty.
func (u *UART) GetByte() uint16 {
	b, ok := u.rx.Get()
	if !ok {
		return NoData
	}
	return uint16(b) & 0x00ff
}

// Buffered returns the number of received bytes waiting in the ring.
func (u *UART) Buffered() int { return u.rx.Used() }

// TxFree returns the free space of the transmit ring.
func (u *UART) TxFree() int { return u.tx.Free() }

// PutByte queues one byte for transmission and arms the transmit-empty
// source so draining resumes. With a full ring the byte is silently
// dropped (and counted); callers needing delivery must check TxFree.
func (u *UART) PutByte(b byte) {
	if !u.tx.Put(b) {
		u.txDrops.Add(1)
		return
	}
	u.port.SetDreLevel(u.dreLevel)
}

// PutString queues each byte of s in sequence. There is no atomicity
// across the string: individual bytes may be dropped under backpressure.
func (u *UART) PutString(s string) {
	for i := 0; i < len(s); i++ {
		u.PutByte(s[i])
	}
}

// PutBytes queues each byte of p in sequence, with PutString's caveats.
func (u *UART) PutBytes(p []byte) {
	for _, b := range p {
		u.PutByte(b)
	}
}

// ReceiveComplete is the receive-complete interrupt handler: it moves the
// one available byte from the hardware data register into the receive
// ring. A full ring drops the byte.
func (u *UART) ReceiveComplete() {
	b := u.port.RxData()
	if u.rx.Put(b) {
		u.rxBytes.Add(1)
	} else {
		u.rxDrops.Add(1)
	}
}

// DataRegEmpty is the transmit-register-empty interrupt handler: it moves
// one byte from the transmit ring into the hardware data register, and
// masks the source once the ring has drained so an empty transmitter does
// not storm. A late PutByte racing the mask is re-armed by the recheck.
func (u *UART) DataRegEmpty() {
	if b, ok := u.tx.Get(); ok {
		u.port.TxData(b)
		u.txBytes.Add(1)
	}
	if u.tx.Used() == 0 {
		u.port.SetDreLevel(IntOff)
		if u.tx.Used() > 0 {
			u.port.SetDreLevel(u.dreLevel)
		}
	}
}

// Stats returns a snapshot of the counters.
func (u *UART) Stats() Stats {
	return Stats{
		RxBytes: u.rxBytes.Load(),
		TxBytes: u.txBytes.Load(),
		RxDrops: u.rxDrops.Load(),
		TxDrops: u.txDrops.Load(),
	}
}
