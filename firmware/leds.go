// firmware/leds.go
package firmware

import (
	"clockmaker-go/bus"
	"clockmaker-go/internal/board"
	"clockmaker-go/types"
	"clockmaker-go/x/timex"
)

// Led colors of the status LEDs.
const (
	LedRed   = "red"
	LedGreen = "green"
	LedBlue  = "blue"
)

type ledPin struct {
	port byte
	pin  uint8
}

// The prototype board swapped red and blue relative to the release
// routing; green moved from PORTC to PORTF.
var ledMaps = map[types.BoardRev]map[string]ledPin{
	types.RevProto: {
		LedRed:   {'F', 0},
		LedGreen: {'C', 0},
		LedBlue:  {'F', 1},
	},
	types.RevRelease: {
		LedRed:   {'F', 1},
		LedGreen: {'F', 0},
		LedBlue:  {'C', 0},
	},
}

// TopicLed carries the on/off edges of one status LED.
func TopicLed(color string) bus.Topic { return bus.T("fw", "led", color) }

// LEDs drives the three status LEDs through the board's I/O ports.
type LEDs struct {
	gpio *board.GPIO
	pins map[string]ledPin
	conn *bus.Connection
}

// NewLEDs builds the LED driver for a board revision and configures the
// pins as outputs.
func NewLEDs(g *board.GPIO, rev types.BoardRev, conn *bus.Connection) *LEDs {
	pins, ok := ledMaps[rev]
	if !ok {
		pins = ledMaps[types.RevProto]
	}
	l := &LEDs{gpio: g, pins: pins, conn: conn}
	for _, p := range pins {
		l.gpio.Port(p.port).DirSet(board.Pin(p.pin))
	}
	return l
}

// Set switches one LED and publishes the edge.
func (l *LEDs) Set(color string, on bool) {
	p, ok := l.pins[color]
	if !ok {
		return
	}
	port := l.gpio.Port(p.port)
	if on {
		port.OutSet(board.Pin(p.pin))
	} else {
		port.OutClr(board.Pin(p.pin))
	}
	if l.conn != nil {
		l.conn.Publish(TopicLed(color), types.LedEvent{Color: color, On: on, TsMs: timex.NowMs()}, true)
	}
}

// On and Off are convenience wrappers around Set.
func (l *LEDs) On(color string)  { l.Set(color, true) }
func (l *LEDs) Off(color string) { l.Set(color, false) }
