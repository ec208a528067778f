// internal/board/board.go
//
// Assembly of the simulated Xmega board: interrupt controller, clock
// system, I/O ports, the enabled USART instances with their transports,
// and the timer/DAC pair the demo drives. Construction is config-driven
// and happens exactly once; every enabled USART identity gets one
// statically-held transport, bound to its two interrupt vectors by
// explicit registration. Disabled identities hold nil.
package board

import (
	"context"

	"clockmaker-go/bus"
	"clockmaker-go/errcode"
	"clockmaker-go/types"
	"clockmaker-go/uart"
	"clockmaker-go/x/timex"
)

// Bus topics published by the board.
var (
	TopicDac = bus.T("board", "dac", "sample")
)

// TopicPin is the retained output-register topic of one I/O port.
func TopicPin(name byte) bus.Topic { return bus.T("board", "pin", string(name)) }

// TopicUartTx carries bytes shifted out of one USART.
func TopicUartTx(id uart.PortID) bus.Topic { return bus.T("board", "uart", id.String(), "tx") }

// Board owns the simulated hardware. Peripheral models raise interrupts
// into the PMIC; the firmware and host tooling reach hardware only
// through the exported fields and accessors.
type Board struct {
	PMIC  *PMIC
	Clock ClockSystem
	GPIO  *GPIO
	Timer *Timer
	DAC   *DAC

	cfg  types.BoardConfig
	conn *bus.Connection

	usarts [uart.NumPorts]*USART
	uarts  [uart.NumPorts]*uart.UART
}

// New builds a board from config. conn may be nil; then no events are
// published.
func New(cfg types.BoardConfig, conn *bus.Connection) (*Board, error) {
	b := &Board{
		PMIC: NewPMIC(),
		cfg:  cfg,
		conn: conn,
	}
	b.Clock = newSimClock()
	b.GPIO = newGPIO(b.publishPin)
	b.Timer = newTimer(b.PMIC)
	b.DAC = newDAC(b.publishDac)

	for _, id := range cfg.EnabledUARTs {
		if int(id) >= uart.NumPorts {
			return nil, errcode.UnknownUsart
		}
		if b.usarts[id] != nil {
			continue
		}
		s := newUSART(id, b.PMIC, b.GPIO)
		u := uart.New(s)
		s.SetSink(b.txPublisher(id))
		if err := b.PMIC.Register(RxcVector(id), u.ReceiveComplete); err != nil {
			return nil, err
		}
		if err := b.PMIC.Register(DreVector(id), u.DataRegEmpty); err != nil {
			return nil, err
		}
		b.usarts[id] = s
		b.uarts[id] = u
	}
	return b, nil
}

// Start launches the interrupt dispatcher. The firmware still has to
// unmask priority levels before anything fires.
func (b *Board) Start(ctx context.Context) { b.PMIC.Start(ctx) }

// Config returns the construction-time configuration.
func (b *Board) Config() types.BoardConfig { return b.cfg }

// UART returns the transport of an enabled identity, or nil.
func (b *Board) UART(id uart.PortID) *uart.UART {
	if int(id) >= uart.NumPorts {
		return nil
	}
	return b.uarts[id]
}

// USART returns the register model of an enabled identity, or nil. Host
// tooling uses it to inject received bytes and read register state.
func (b *Board) USART(id uart.PortID) *USART {
	if int(id) >= uart.NumPorts {
		return nil
	}
	return b.usarts[id]
}

// SetTxSink attaches an extra consumer of bytes transmitted on id, in
// addition to the bus publication. The console bridge uses this.
func (b *Board) SetTxSink(id uart.PortID, sink func(byte)) error {
	s := b.USART(id)
	if s == nil {
		return errcode.NotEnabled
	}
	pub := b.txPublisher(id)
	s.SetSink(func(c byte) {
		pub(c)
		if sink != nil {
			sink(c)
		}
	})
	return nil
}

func (b *Board) txPublisher(id uart.PortID) func(byte) {
	if b.conn == nil {
		return func(byte) {}
	}
	topic := TopicUartTx(id)
	name := id.String()
	return func(c byte) {
		b.conn.Publish(topic, types.SerialTxEvent{
			Port: name,
			Data: []byte{c},
			TsMs: timex.NowMs(),
		}, false)
	}
}

func (b *Board) publishPin(name byte, out uint8) {
	if b.conn == nil {
		return
	}
	b.conn.Publish(TopicPin(name), types.PinEvent{Port: name, Out: out, TsMs: timex.NowMs()}, true)
}

func (b *Board) publishDac(v uint16) {
	if b.conn == nil {
		return
	}
	b.conn.Publish(TopicDac, types.DacSample{Channel: 0, Value: v, TsMs: timex.NowMs()}, false)
}
