package board

import (
	"context"
	"sync"
	"testing"

	"clockmaker-go/errcode"
	"clockmaker-go/types"
	"clockmaker-go/uart"
)

func newTestBoard(t *testing.T, ids ...uart.PortID) (*Board, context.CancelFunc) {
	t.Helper()
	cfg := types.DefaultBoardConfig()
	if len(ids) > 0 {
		cfg.EnabledUARTs = ids
	}
	b, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.Start(ctx)
	b.PMIC.EnableAll()
	return b, cancel
}

func configureUART(t *testing.T, b *Board, id uart.PortID) *uart.UART {
	t.Helper()
	u := b.UART(id)
	if u == nil {
		t.Fatalf("UART(%v) = nil", id)
	}
	err := u.Configure(uart.Config{ClockHz: 32_000_000, Baud: 230400, RingSize: 64})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	return u
}

func TestBoardRejectsUnknownIdentity(t *testing.T) {
	cfg := types.DefaultBoardConfig()
	cfg.EnabledUARTs = []uart.PortID{uart.PortID(9)}
	if _, err := New(cfg, nil); err != errcode.UnknownUsart {
		t.Fatalf("err = %v, want %v", err, errcode.UnknownUsart)
	}
}

func TestBoardDisabledIdentityIsNil(t *testing.T) {
	b, cancel := newTestBoard(t, uart.UsartF0)
	defer cancel()
	if b.UART(uart.UsartC0) != nil || b.USART(uart.UsartC0) != nil {
		t.Fatal("disabled identity is live")
	}
	if err := b.SetTxSink(uart.UsartC0, func(byte) {}); err != errcode.NotEnabled {
		t.Fatalf("SetTxSink on disabled identity: err = %v", err)
	}
}

func TestReceivePath(t *testing.T) {
	b, cancel := newTestBoard(t, uart.UsartF0)
	defer cancel()
	u := configureUART(t, b, uart.UsartF0)

	b.USART(uart.UsartF0).InjectBytes([]byte("hello"))
	b.PMIC.Sync()

	got := make([]byte, 0, 5)
	for {
		v := u.GetByte()
		if v == uart.NoData {
			break
		}
		got = append(got, byte(v))
	}
	if string(got) != "hello" {
		t.Fatalf("received %q, want %q", got, "hello")
	}
}

func TestTransmitPath(t *testing.T) {
	b, cancel := newTestBoard(t, uart.UsartF0)
	defer cancel()

	var mu sync.Mutex
	var sent []byte
	if err := b.SetTxSink(uart.UsartF0, func(c byte) {
		mu.Lock()
		sent = append(sent, c)
		mu.Unlock()
	}); err != nil {
		t.Fatal(err)
	}

	u := configureUART(t, b, uart.UsartF0)
	u.PutString("clockmaker")
	b.PMIC.Sync()

	mu.Lock()
	got := string(sent)
	mu.Unlock()
	if got != "clockmaker" {
		t.Fatalf("sink saw %q, want %q", got, "clockmaker")
	}
	if lvl := b.USART(uart.UsartF0).Regs().DreLevel; lvl != uart.IntOff {
		t.Fatalf("dre level after drain = %v, want off", lvl)
	}
}

func TestTransmitResumesAfterDrain(t *testing.T) {
	b, cancel := newTestBoard(t, uart.UsartF0)
	defer cancel()

	var mu sync.Mutex
	var sent []byte
	if err := b.SetTxSink(uart.UsartF0, func(c byte) {
		mu.Lock()
		sent = append(sent, c)
		mu.Unlock()
	}); err != nil {
		t.Fatal(err)
	}

	u := configureUART(t, b, uart.UsartF0)
	u.PutString("one")
	b.PMIC.Sync()
	u.PutString("two")
	b.PMIC.Sync()

	mu.Lock()
	got := string(sent)
	mu.Unlock()
	if got != "onetwo" {
		t.Fatalf("sink saw %q, want %q", got, "onetwo")
	}
}

func TestConfigureSetsPinDirections(t *testing.T) {
	b, cancel := newTestBoard(t, uart.UsartD0)
	defer cancel()
	configureUART(t, b, uart.UsartD0)

	dir := b.GPIO.Port('D').Dir()
	if dir&Pin(3) == 0 {
		t.Fatal("TXD pin not driven as output")
	}
	if dir&Pin(2) != 0 {
		t.Fatal("RXD pin driven as output")
	}
}

func TestInjectWhileReceiverDisabledOverruns(t *testing.T) {
	b, cancel := newTestBoard(t, uart.UsartF0)
	defer cancel()

	s := b.USART(uart.UsartF0)
	s.InjectByte('x') // receiver not yet enabled
	if s.Overruns() != 1 {
		t.Fatalf("overruns = %d, want 1", s.Overruns())
	}
}

func TestUSARTFormatValidation(t *testing.T) {
	b, cancel := newTestBoard(t, uart.UsartF0)
	defer cancel()
	s := b.USART(uart.UsartF0)

	if err := s.SetFormat(4, 1, uart.ParityNone); err != errcode.BadFormat {
		t.Fatalf("4 data bits: err = %v", err)
	}
	if err := s.SetFormat(8, 3, uart.ParityNone); err != errcode.BadFormat {
		t.Fatalf("3 stop bits: err = %v", err)
	}
	if err := s.SetFormat(8, 2, uart.ParityEven); err != nil {
		t.Fatalf("8E2: err = %v", err)
	}
}

func TestSimClockBringUp(t *testing.T) {
	c := newSimClock()
	if hz := c.MainHz(); hz != 2_000_000 {
		t.Fatalf("reset MainHz = %d, want 2 MHz", hz)
	}

	c.ConfigureXOSC(16_000_000)
	c.Enable(SrcXOSC)
	if err := c.SelectMain(SrcXOSC); err != errcode.ClockSource {
		t.Fatalf("SelectMain before ready: err = %v", err)
	}
	polls := 0
	for !c.Ready(SrcXOSC) {
		polls++
		if polls > 10 {
			t.Fatal("oscillator never became ready")
		}
	}
	if polls != readyPolls {
		t.Fatalf("ready after %d polls, want %d", polls, readyPolls)
	}

	c.ConfigurePLL(SrcXOSC, 2)
	c.Enable(SrcPLL)
	for !c.Ready(SrcPLL) {
	}
	if err := c.SelectMain(SrcPLL); err != nil {
		t.Fatalf("SelectMain: %v", err)
	}
	if hz := c.MainHz(); hz != 32_000_000 {
		t.Fatalf("MainHz = %d, want 32 MHz", hz)
	}

	// the selected source cannot be disabled out from under the core
	c.Disable(SrcPLL)
	if hz := c.MainHz(); hz != 32_000_000 {
		t.Fatalf("MainHz after Disable(main) = %d", hz)
	}
}

func TestTimerTickRaisesOverflow(t *testing.T) {
	b, cancel := newTestBoard(t)
	defer cancel()

	fired := make(chan struct{}, 4)
	if err := b.PMIC.Register(VecTimerOvf, func() { fired <- struct{}{} }); err != nil {
		t.Fatal(err)
	}
	b.Timer.Configure(1024, 500_000, uart.IntLo)
	b.Timer.Tick()
	b.PMIC.Sync()
	select {
	case <-fired:
	default:
		t.Fatal("overflow handler did not run")
	}
}

func TestDACMasksAndRecords(t *testing.T) {
	d := newDAC(nil)
	d.SetCh0(100) // ignored while disabled
	if d.Ch0() != 0 || len(d.Samples()) != 0 {
		t.Fatal("write while disabled took effect")
	}

	d.Enable()
	d.SetCh0(0xffff)
	if d.Ch0() != 0x0fff {
		t.Fatalf("Ch0 = %#04x, want 12-bit mask", d.Ch0())
	}
	d.SetCh0(1024)
	got := d.Samples()
	if len(got) != 2 || got[0] != 0x0fff || got[1] != 1024 {
		t.Fatalf("samples = %v", got)
	}
}
