// internal/board/clock.go
package board

import (
	"sync"

	"clockmaker-go/errcode"
)

// ClockSource names an oscillator of the clock system.
type ClockSource uint8

const (
	SrcRC2M ClockSource = iota // 2 MHz internal, the reset default
	SrcRC32M
	SrcXOSC
	SrcPLL
)

func (s ClockSource) String() string {
	switch s {
	case SrcRC2M:
		return "rc2m"
	case SrcRC32M:
		return "rc32m"
	case SrcXOSC:
		return "xosc"
	default:
		return "pll"
	}
}

// ClockSystem is the vendor clock-configuration driver, treated as a
// black box: configure an oscillator, enable it, poll until ready,
// select the main clock. The firmware's bring-up sequence is written
// against this interface only.
type ClockSystem interface {
	ConfigureXOSC(freqHz uint32)
	ConfigurePLL(src ClockSource, factor uint8)
	Enable(src ClockSource)
	Ready(src ClockSource) bool
	SelectMain(src ClockSource) error
	Disable(src ClockSource)
	MainHz() uint32
}

// simClock is the simulated clock system. An enabled oscillator reports
// ready after a fixed number of polls, so bring-up code exercises its
// wait loop without wall-clock delays.
type simClock struct {
	mu        sync.Mutex
	xoscHz    uint32
	pllSrc    ClockSource
	pllFactor uint8
	enabled   [SrcPLL + 1]bool
	readyIn   [SrcPLL + 1]int
	main      ClockSource
}

// readyPolls is how many Ready calls an oscillator needs before it locks.
const readyPolls = 3

func newSimClock() *simClock {
	c := &simClock{main: SrcRC2M}
	c.enabled[SrcRC2M] = true
	return c
}

func (c *simClock) ConfigureXOSC(freqHz uint32) {
	c.mu.Lock()
	c.xoscHz = freqHz
	c.mu.Unlock()
}

func (c *simClock) ConfigurePLL(src ClockSource, factor uint8) {
	c.mu.Lock()
	c.pllSrc, c.pllFactor = src, factor
	c.mu.Unlock()
}

func (c *simClock) Enable(src ClockSource) {
	c.mu.Lock()
	if !c.enabled[src] {
		c.enabled[src] = true
		c.readyIn[src] = readyPolls
	}
	c.mu.Unlock()
}

func (c *simClock) Ready(src ClockSource) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled[src] {
		return false
	}
	if c.readyIn[src] > 0 {
		c.readyIn[src]--
		return false
	}
	return true
}

func (c *simClock) SelectMain(src ClockSource) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled[src] || c.readyIn[src] > 0 {
		return errcode.ClockSource
	}
	c.main = src
	return nil
}

func (c *simClock) Disable(src ClockSource) {
	c.mu.Lock()
	if src != c.main {
		c.enabled[src] = false
	}
	c.mu.Unlock()
}

func (c *simClock) MainHz() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.main {
	case SrcRC2M:
		return 2_000_000
	case SrcRC32M:
		return 32_000_000
	case SrcXOSC:
		return c.xoscHz
	default:
		hz := uint32(0)
		switch c.pllSrc {
		case SrcXOSC:
			hz = c.xoscHz
		case SrcRC2M:
			hz = 2_000_000
		case SrcRC32M:
			hz = 32_000_000
		}
		return hz * uint32(c.pllFactor)
	}
}
