// firmware/app.go
//
// The clockmaker demo application: bring the main clock up from the
// external crystal, blink the blue LED, put the banner on the console
// UART and leave the timer stepping the DAC. This is the glue the
// original firmware ran from reset; the buffered UART transport does the
// interesting work underneath.
package firmware

import (
	"context"
	"time"

	"clockmaker-go/bus"
	"clockmaker-go/errcode"
	"clockmaker-go/internal/board"
	"clockmaker-go/types"
	"clockmaker-go/uart"
	"clockmaker-go/x/conv"
)

// clockReadyPolls bounds the oscillator wait loops. The original code
// spun forever; a crystal that never locks now surfaces as an error
// instead of a hang.
const clockReadyPolls = 10000

// Timer setup from the original demo: 32 MHz / 1024 prescaler, long
// normal-mode period.
const (
	timerPrescaler = 1024
	timerPeriod    = 500000
)

// App is the firmware application bound to one board.
type App struct {
	b    *board.Board
	cfg  types.FirmwareConfig
	conn *bus.Connection
	leds *LEDs

	stepCounter uint8

	// sleep is swappable so tests boot instantly.
	sleep func(time.Duration)
}

// NewApp binds the application to a board. conn may be nil.
func NewApp(b *board.Board, cfg types.FirmwareConfig, conn *bus.Connection) *App {
	return &App{b: b, cfg: cfg, conn: conn, sleep: time.Sleep}
}

// Console returns the console transport, nil before Run.
func (a *App) Console() *uart.UART { return a.b.UART(a.cfg.Console) }

// Run executes the boot sequence and leaves the timer running until ctx
// is cancelled. It returns once boot is complete.
func (a *App) Run(ctx context.Context) error {
	a.leds = NewLEDs(a.b.GPIO, a.cfg.Rev, a.conn)

	if err := a.bringUpClock(); err != nil {
		return err
	}
	a.b.PMIC.EnableAll()

	a.bootBlink()

	console := a.b.UART(a.cfg.Console)
	if console == nil {
		return errcode.NotEnabled
	}
	err := console.Configure(uart.Config{
		ClockHz:  a.b.Clock.MainHz(),
		Baud:     a.cfg.Baud,
		RingSize: a.cfg.ConsoleRing,
	})
	if err != nil {
		return err
	}
	console.PutString(a.banner())

	if err := a.initWave(ctx); err != nil {
		return err
	}
	return nil
}

// bringUpClock runs the 32 MHz from 16 MHz external crystal sequence
// against the black-box clock driver.
func (a *App) bringUpClock() error {
	c := a.b.Clock
	bcfg := a.b.Config()

	c.ConfigureXOSC(bcfg.XOSCHz)
	c.Enable(board.SrcXOSC)
	if err := waitReady(c, board.SrcXOSC); err != nil {
		return err
	}

	c.ConfigurePLL(board.SrcXOSC, bcfg.PLLFactor)
	c.Enable(board.SrcPLL)
	if err := waitReady(c, board.SrcPLL); err != nil {
		return err
	}

	if err := c.SelectMain(board.SrcPLL); err != nil {
		return err
	}
	c.Disable(board.SrcRC2M)
	c.Disable(board.SrcRC32M)
	return nil
}

func waitReady(c board.ClockSystem, src board.ClockSource) error {
	for i := 0; i < clockReadyPolls; i++ {
		if c.Ready(src) {
			return nil
		}
	}
	return errcode.ClockTimeout
}

// bootBlink pulses the blue LED a configured number of times.
func (a *App) bootBlink() {
	on := time.Duration(a.cfg.BlinkOnMs) * time.Millisecond
	off := time.Duration(a.cfg.BlinkOffMs) * time.Millisecond
	for i := 0; i < a.cfg.BlinkCount; i++ {
		a.leds.On(LedBlue)
		a.sleep(on)
		a.leds.Off(LedBlue)
		a.sleep(off)
	}
}

// banner is the startup text sent over the console. The original kept
// CR after LF, so the sim's terminal view matches a real one.
func (a *App) banner() string {
	buf := make([]byte, 0, 96)
	buf = append(buf, "\n\r\n\rxmega-clockmaker\n\rclk="...)
	buf = conv.Utoa(buf, uint64(a.b.Clock.MainHz()))
	buf = append(buf, " baud="...)
	buf = conv.Utoa(buf, uint64(a.cfg.Baud))
	buf = append(buf, "\n\r"...)
	return string(buf)
}

// initWave configures the timer-driven DAC stepper and the debug pins it
// mirrors.
func (a *App) initWave(ctx context.Context) error {
	portD := a.b.GPIO.Port('D')
	portD.OutClr(board.Pin(0) | board.Pin(1))
	portD.DirSet(board.Pin(0) | board.Pin(1))

	if err := a.b.PMIC.Register(board.VecTimerOvf, a.onTimerOverflow); err != nil {
		return err
	}
	a.b.Timer.Configure(timerPrescaler, timerPeriod, uart.IntLo)
	a.b.DAC.Enable()
	a.b.Timer.Start(ctx, a.b.Clock.MainHz())
	return nil
}

// onTimerOverflow steps the 2-bit counter onto the debug pins and loads
// the next step into the DAC, one event ahead like the original ISR.
func (a *App) onTimerOverflow() {
	a.stepCounter++
	if a.stepCounter > 3 {
		a.stepCounter = 0
	}
	a.b.GPIO.Port('D').SetOut(a.stepCounter & 0b11)
	a.b.GPIO.Port('F').SetOut(a.stepCounter & 0b11)

	toDac := uint16(a.stepCounter) + 1
	if toDac > 3 {
		toDac = 0
	}
	a.b.DAC.SetCh0(toDac << 10)
}
