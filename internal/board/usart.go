// internal/board/usart.go
package board

import (
	"sync"

	"clockmaker-go/errcode"
	"clockmaker-go/uart"
)

// rxFifoCap bounds the simulated receive queue between injection and the
// receive-complete handler. The real part holds two bytes; the sim is
// more forgiving but still drops (and counts) past the cap.
const rxFifoCap = 1024

// USARTRegs is a monitor-friendly snapshot of the register state.
type USARTRegs struct {
	BSel     uint16
	BScale   int8
	Clk2x    bool
	DataBits uint8
	StopBits uint8
	Parity   uart.Parity
	RxEnable bool
	TxEnable bool
	RxcLevel uart.IntLevel
	DreLevel uart.IntLevel
}

// USART simulates one Xmega USART register block. It implements
// uart.Port; the transport is its only register client. Received bytes
// are injected by the host side (monitor, PTY bridge, tests) and raise
// the receive-complete vector; transmitted bytes leave through the sink
// and keep the data-register-empty vector asserted while armed.
type USART struct {
	id   uart.PortID
	pmic *PMIC
	gpio *GPIO

	mu       sync.Mutex
	regs     USARTRegs
	rxFifo   []byte
	sink     func(byte)
	overruns uint32
}

func newUSART(id uart.PortID, pmic *PMIC, gpio *GPIO) *USART {
	return &USART{id: id, pmic: pmic, gpio: gpio}
}

// SetSink installs the consumer of transmitted bytes.
func (s *USART) SetSink(sink func(byte)) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

// Regs returns a snapshot of the register state.
func (s *USART) Regs() USARTRegs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs
}

// Overruns returns the count of injected bytes lost to a full hardware
// queue.
func (s *USART) Overruns() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overruns
}

// InjectByte models a byte arriving on the wire: it enters the hardware
// queue and, if the source is armed, raises receive-complete.
func (s *USART) InjectByte(b byte) {
	s.mu.Lock()
	if !s.regs.RxEnable || len(s.rxFifo) >= rxFifoCap {
		s.overruns++
		s.mu.Unlock()
		return
	}
	s.rxFifo = append(s.rxFifo, b)
	lvl := s.regs.RxcLevel
	s.mu.Unlock()

	s.pmic.Raise(RxcVector(s.id), lvl)
}

// InjectBytes injects each byte of p in order.
func (s *USART) InjectBytes(p []byte) {
	for _, b := range p {
		s.InjectByte(b)
	}
}

// ---- uart.Port ----

func (s *USART) ID() uart.PortID { return s.id }

func (s *USART) SetBaud(bsel uint16, bscale int8, clk2x bool) {
	s.mu.Lock()
	s.regs.BSel, s.regs.BScale, s.regs.Clk2x = bsel, bscale, clk2x
	s.mu.Unlock()
}

func (s *USART) SetFormat(dataBits, stopBits uint8, parity uart.Parity) error {
	if dataBits < 5 || dataBits > 8 {
		return errcode.BadFormat
	}
	if stopBits != 1 && stopBits != 2 {
		return errcode.BadFormat
	}
	s.mu.Lock()
	s.regs.DataBits, s.regs.StopBits, s.regs.Parity = dataBits, stopBits, parity
	s.mu.Unlock()
	return nil
}

func (s *USART) EnableRx() {
	s.mu.Lock()
	s.regs.RxEnable = true
	s.mu.Unlock()
}

func (s *USART) EnableTx() {
	s.mu.Lock()
	s.regs.TxEnable = true
	s.mu.Unlock()
}

func (s *USART) ConfigurePins(route uart.PinRoute) error {
	port := s.gpio.Port(route.Port)
	if port == nil {
		return errcode.UnknownUsart
	}
	port.DirSet(Pin(route.TxPin))
	port.DirClr(Pin(route.RxPin))
	return nil
}

func (s *USART) SetRxcLevel(l uart.IntLevel) {
	s.mu.Lock()
	prev := s.regs.RxcLevel
	s.regs.RxcLevel = l
	pending := len(s.rxFifo)
	s.mu.Unlock()

	if l == uart.IntOff {
		s.pmic.Clear(RxcVector(s.id))
		return
	}
	if prev == uart.IntOff {
		// re-assert queued receive conditions
		for i := 0; i < pending; i++ {
			s.pmic.Raise(RxcVector(s.id), l)
		}
	}
}

func (s *USART) SetDreLevel(l uart.IntLevel) {
	s.mu.Lock()
	prev := s.regs.DreLevel
	s.regs.DreLevel = l
	s.mu.Unlock()

	if l == uart.IntOff {
		s.pmic.Clear(DreVector(s.id))
		return
	}
	if prev == uart.IntOff {
		// data register is always empty between TxData calls, so an
		// arming edge asserts the condition immediately
		s.pmic.Raise(DreVector(s.id), l)
	}
}

func (s *USART) RxData() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rxFifo) == 0 {
		return 0
	}
	b := s.rxFifo[0]
	s.rxFifo = s.rxFifo[1:]
	return b
}

func (s *USART) TxData(b byte) {
	s.mu.Lock()
	sink := s.sink
	lvl := s.regs.DreLevel
	enabled := s.regs.TxEnable
	s.mu.Unlock()

	if !enabled {
		return
	}
	if sink != nil {
		sink(b)
	}
	// the register drains immediately; while armed the empty condition
	// re-asserts, which is what keeps the transmit path moving
	if lvl != uart.IntOff {
		s.pmic.Raise(DreVector(s.id), lvl)
	}
}
