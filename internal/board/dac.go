// internal/board/dac.go
package board

import "sync"

// dacHistory caps the recorded waveform so a long-running demo does not
// grow without bound.
const dacHistory = 1024

// DAC models one channel of the DACB peripheral: a 12-bit data register
// plus a bounded history of latched values for the monitor and tests.
type DAC struct {
	mu      sync.Mutex
	enabled bool
	ch0     uint16
	samples []uint16

	onSample func(v uint16)
}

func newDAC(onSample func(v uint16)) *DAC {
	return &DAC{onSample: onSample}
}

// Enable turns the channel on. Writes while disabled are ignored, as on
// the real part.
func (d *DAC) Enable() {
	d.mu.Lock()
	d.enabled = true
	d.mu.Unlock()
}

// SetCh0 latches a value into the channel data register.
func (d *DAC) SetCh0(v uint16) {
	v &= 0x0fff
	d.mu.Lock()
	if !d.enabled {
		d.mu.Unlock()
		return
	}
	d.ch0 = v
	if len(d.samples) == dacHistory {
		d.samples = d.samples[1:]
	}
	d.samples = append(d.samples, v)
	cb := d.onSample
	d.mu.Unlock()
	if cb != nil {
		cb(v)
	}
}

// Ch0 returns the current channel value.
func (d *DAC) Ch0() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ch0
}

// Samples returns a copy of the recorded waveform.
func (d *DAC) Samples() []uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uint16(nil), d.samples...)
}
