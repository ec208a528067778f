// internal/platform/console_rp2xxx.go
//go:build rp2040 || rp2350

package platform

import (
	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"
)

// MachineConsole configures the Pico's UART0 on the default pins and
// returns it behind the drivers.UART interface. On RP2 builds the
// machine's own interrupt-driven driver replaces the simulated board's
// console path.
func MachineConsole(baud uint32) drivers.UART {
	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       uartx.UART0_TX_PIN,
		RX:       uartx.UART0_RX_PIN,
	})
	return u
}

// ConsoleSink adapts the machine console to the board's byte sink shape.
func ConsoleSink(u drivers.UART) func(byte) {
	return func(b byte) {
		u.Write([]byte{b})
	}
}
