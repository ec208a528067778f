// uart/port.go
package uart

import "clockmaker-go/errcode"

// PortID identifies one physical USART instance. The Xmega carries up to
// eight, named after the I/O port they live on.
type PortID uint8

const (
	UsartC0 PortID = iota
	UsartC1
	UsartD0
	UsartD1
	UsartE0
	UsartE1
	UsartF0
	UsartF1

	NumPorts = 8
)

var portNames = [NumPorts]string{"usartC0", "usartC1", "usartD0", "usartD1", "usartE0", "usartE1", "usartF0", "usartF1"}

func (id PortID) String() string {
	if int(id) < len(portNames) {
		return portNames[id]
	}
	return "usart?"
}

// ParsePortID maps a name like "usartF0" (or "f0") back to its identity.
func ParsePortID(s string) (PortID, error) {
	for i, n := range portNames {
		if s == n || (len(s) == 2 && n[5:] == upper2(s)) {
			return PortID(i), nil
		}
	}
	return 0, errcode.UnknownUsart
}

func upper2(s string) string {
	b := []byte{s[0], s[1]}
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

// Parity is the frame parity mode.
type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

func (p Parity) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	default:
		return "none"
	}
}

// IntLevel is an interrupt priority level of the programmable interrupt
// controller. Off masks the source entirely.
type IntLevel uint8

const (
	IntOff IntLevel = iota
	IntLo
	IntMed
	IntHi
)

func (l IntLevel) String() string {
	switch l {
	case IntLo:
		return "lo"
	case IntMed:
		return "med"
	case IntHi:
		return "hi"
	default:
		return "off"
	}
}

// PinRoute is the TXD/RXD pin assignment of one USART instance.
type PinRoute struct {
	Port  byte  // I/O port letter, 'C'..'F'
	TxPin uint8 // pin number, driven as output
	RxPin uint8 // pin number, driven as input
}

// The even instance of each port sits on pins 2/3, the odd one on 6/7.
var pinRoutes = [NumPorts]PinRoute{
	UsartC0: {'C', 3, 2},
	UsartC1: {'C', 7, 6},
	UsartD0: {'D', 3, 2},
	UsartD1: {'D', 7, 6},
	UsartE0: {'E', 3, 2},
	UsartE1: {'E', 7, 6},
	UsartF0: {'F', 3, 2},
	UsartF1: {'F', 7, 6},
}

// RouteFor returns the pin assignment for an identity. Unknown identities
// are a configuration error, not a silent no-op.
func RouteFor(id PortID) (PinRoute, error) {
	if int(id) >= NumPorts {
		return PinRoute{}, errcode.UnknownUsart
	}
	return pinRoutes[id], nil
}

// Port is the register surface of one USART instance. The transport talks
// to hardware exclusively through it: directly during initialization and
// from the two interrupt handlers afterwards. Implementations exist for
// the simulated board and, on RP2 builds, the machine UART.
type Port interface {
	ID() PortID

	// Initialization-time register writes.
	SetBaud(bsel uint16, bscale int8, clk2x bool)
	SetFormat(dataBits, stopBits uint8, parity Parity) error
	EnableRx()
	EnableTx()
	ConfigurePins(route PinRoute) error

	// Interrupt-level control. SetDreLevel(IntOff) masks the
	// data-register-empty source; any other level arms it.
	SetRxcLevel(l IntLevel)
	SetDreLevel(l IntLevel)

	// Data register access, used only inside interrupt handlers.
	RxData() byte
	TxData(b byte)
}
