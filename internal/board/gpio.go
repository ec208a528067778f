// internal/board/gpio.go
package board

import "sync"

// Pin returns the bit mask of pin n, like the PINn_bm constants.
func Pin(n uint8) uint8 { return 1 << (n & 7) }

// GPIOPort models one Xmega I/O port: a direction register and an output
// register with set/clear/toggle access. An optional observer sees every
// output change (the board uses it to publish pin events).
type GPIOPort struct {
	name byte // 'B'..'F'

	mu  sync.Mutex
	dir uint8
	out uint8

	onOut func(name byte, out uint8)
}

func (p *GPIOPort) Name() byte { return p.name }

func (p *GPIOPort) DirSet(mask uint8) {
	p.mu.Lock()
	p.dir |= mask
	p.mu.Unlock()
}

func (p *GPIOPort) DirClr(mask uint8) {
	p.mu.Lock()
	p.dir &^= mask
	p.mu.Unlock()
}

func (p *GPIOPort) Dir() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dir
}

func (p *GPIOPort) OutSet(mask uint8) { p.writeOut(func(v uint8) uint8 { return v | mask }) }
func (p *GPIOPort) OutClr(mask uint8) { p.writeOut(func(v uint8) uint8 { return v &^ mask }) }
func (p *GPIOPort) OutTgl(mask uint8) { p.writeOut(func(v uint8) uint8 { return v ^ mask }) }

// SetOut replaces the whole output register (the PORTx.OUT = v idiom).
func (p *GPIOPort) SetOut(v uint8) { p.writeOut(func(uint8) uint8 { return v }) }

func (p *GPIOPort) Out() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out
}

func (p *GPIOPort) writeOut(f func(uint8) uint8) {
	p.mu.Lock()
	prev := p.out
	p.out = f(p.out)
	changed := p.out != prev
	cb := p.onOut
	out := p.out
	p.mu.Unlock()
	if changed && cb != nil {
		cb(p.name, out)
	}
}

// GPIO is the set of I/O ports the clockmaker hardware touches.
type GPIO struct {
	ports map[byte]*GPIOPort
}

func newGPIO(onOut func(name byte, out uint8)) *GPIO {
	g := &GPIO{ports: make(map[byte]*GPIOPort)}
	for _, name := range []byte{'B', 'C', 'D', 'E', 'F'} {
		g.ports[name] = &GPIOPort{name: name, onOut: onOut}
	}
	return g
}

// Port returns the port with the given letter, or nil.
func (g *GPIO) Port(name byte) *GPIOPort { return g.ports[name] }
