package types

import "clockmaker-go/uart"

// ------------------------
// Board configuration
// ------------------------

// BoardRev selects the LED pin map. The prototype board routed the
// red/blue LEDs the other way around.
type BoardRev uint8

const (
	RevProto BoardRev = iota
	RevRelease
)

func (r BoardRev) String() string {
	if r == RevProto {
		return "proto"
	}
	return "release"
}

// BoardConfig fixes the simulated hardware at construction time. The set
// of enabled USART instances is not discovered at runtime: exactly the
// listed identities get an instance, handlers and buffers; the rest
// contribute nothing.
type BoardConfig struct {
	XOSCHz       uint32        `json:"xosc_hz"`    // external crystal
	PLLFactor    uint8         `json:"pll_factor"` // main clock = xosc * factor
	EnabledUARTs []uart.PortID `json:"enabled_uarts"`
}

// DefaultBoardConfig mirrors the clockmaker hardware: 16 MHz crystal
// doubled to 32 MHz, console on USARTF0.
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		XOSCHz:       16_000_000,
		PLLFactor:    2,
		EnabledUARTs: []uart.PortID{uart.UsartF0},
	}
}

// FirmwareConfig tunes the demo application.
type FirmwareConfig struct {
	Rev         BoardRev    `json:"rev"`
	Console     uart.PortID `json:"console"`
	Baud        uint32      `json:"baud"`
	ConsoleRing int         `json:"console_ring,omitempty"` // power of two
	BlinkCount  int         `json:"blink_count,omitempty"`
	BlinkOnMs   int         `json:"blink_on_ms,omitempty"`
	BlinkOffMs  int         `json:"blink_off_ms,omitempty"`
}

// DefaultFirmwareConfig mirrors main()'s constants: banner on USARTF0 at
// 230400, ten boot blinks. The console ring is large enough to hold the
// whole banner so none of it is dropped before draining starts.
func DefaultFirmwareConfig() FirmwareConfig {
	return FirmwareConfig{
		Rev:         RevProto,
		Console:     uart.UsartF0,
		Baud:        230_400,
		ConsoleRing: 256,
		BlinkCount:  10,
		BlinkOnMs:   2,
		BlinkOffMs:  20,
	}
}
