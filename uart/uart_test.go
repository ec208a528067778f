package uart

import (
	"testing"

	"clockmaker-go/errcode"
)

// fakePort records register writes and plays the hardware side of the
// transport: rxReg feeds RxData, sent collects TxData.
type fakePort struct {
	id PortID

	bsel   uint16
	bscale int8
	clk2x  bool

	dataBits uint8
	stopBits uint8
	parity   Parity

	rxEnabled bool
	txEnabled bool
	route     PinRoute
	pinsSet   bool

	rxcLevel IntLevel
	dreLevel IntLevel

	rxReg byte
	sent  []byte
}

func (f *fakePort) ID() PortID { return f.id }

func (f *fakePort) SetBaud(bsel uint16, bscale int8, clk2x bool) {
	f.bsel, f.bscale, f.clk2x = bsel, bscale, clk2x
}

func (f *fakePort) SetFormat(dataBits, stopBits uint8, parity Parity) error {
	f.dataBits, f.stopBits, f.parity = dataBits, stopBits, parity
	return nil
}

func (f *fakePort) EnableRx() { f.rxEnabled = true }
func (f *fakePort) EnableTx() { f.txEnabled = true }

func (f *fakePort) ConfigurePins(route PinRoute) error {
	f.route = route
	f.pinsSet = true
	return nil
}

func (f *fakePort) SetRxcLevel(l IntLevel) { f.rxcLevel = l }
func (f *fakePort) SetDreLevel(l IntLevel) { f.dreLevel = l }

func (f *fakePort) RxData() byte  { return f.rxReg }
func (f *fakePort) TxData(b byte) { f.sent = append(f.sent, b) }

func mustConfigure(t *testing.T, u *UART, cfg Config) {
	t.Helper()
	if err := u.Configure(cfg); err != nil {
		t.Fatalf("Configure: %v", err)
	}
}

func TestConfigureProgramsPort(t *testing.T) {
	f := &fakePort{id: UsartF0}
	u := New(f)
	mustConfigure(t, u, Config{ClockHz: 32000000, Baud: 230400})

	if f.bscale != -7 || f.bsel != 983 {
		t.Fatalf("baud registers = (%d, %d), want (983, -7)", f.bsel, f.bscale)
	}
	if f.dataBits != 8 || f.stopBits != 1 || f.parity != ParityNone {
		t.Fatalf("frame = %d%s%d, want 8N1", f.dataBits, f.parity, f.stopBits)
	}
	if !f.rxEnabled || !f.txEnabled {
		t.Fatal("receiver or transmitter left disabled")
	}
	if !f.pinsSet || f.route != (PinRoute{'F', 3, 2}) {
		t.Fatalf("pin route = %+v", f.route)
	}
	if f.rxcLevel != IntLo {
		t.Fatalf("rxc level = %v, want lo", f.rxcLevel)
	}
	if f.dreLevel != IntOff {
		t.Fatalf("dre level = %v, want off before first PutByte", f.dreLevel)
	}
}

func TestConfigureRejectsBadParams(t *testing.T) {
	u := New(&fakePort{id: UsartC0})
	if err := u.Configure(Config{Baud: 9600}); err != errcode.InvalidParams {
		t.Fatalf("zero clock: err = %v", err)
	}
	if err := u.Configure(Config{ClockHz: 2000000}); err != errcode.InvalidParams {
		t.Fatalf("zero baud: err = %v", err)
	}
	if err := u.Configure(Config{ClockHz: 2000000, Baud: 9600, RingSize: 12}); err != errcode.InvalidParams {
		t.Fatalf("non power-of-two ring: err = %v", err)
	}
}

func TestConfigureUnknownIdentity(t *testing.T) {
	u := New(&fakePort{id: PortID(42)})
	if err := u.Configure(Config{ClockHz: 2000000, Baud: 9600}); err != errcode.UnknownUsart {
		t.Fatalf("err = %v, want %v", err, errcode.UnknownUsart)
	}
}

func TestGetByteNoData(t *testing.T) {
	u := New(&fakePort{id: UsartD0})
	mustConfigure(t, u, Config{ClockHz: 2000000, Baud: 9600})
	if got := u.GetByte(); got != NoData {
		t.Fatalf("GetByte on empty ring = %#04x, want %#04x", got, NoData)
	}
}

func TestReceivePreservesOrder(t *testing.T) {
	f := &fakePort{id: UsartD0}
	u := New(f)
	mustConfigure(t, u, Config{ClockHz: 2000000, Baud: 9600})

	for _, b := range []byte{0x41, 0x42, 0x43} {
		f.rxReg = b
		u.ReceiveComplete()
	}
	if u.Buffered() != 3 {
		t.Fatalf("Buffered = %d, want 3", u.Buffered())
	}
	for _, want := range []byte{0x41, 0x42, 0x43} {
		got := u.GetByte()
		if got != uint16(want) {
			t.Fatalf("GetByte = %#04x, want %#04x", got, want)
		}
	}
	if got := u.GetByte(); got != NoData {
		t.Fatalf("trailing GetByte = %#04x, want NoData", got)
	}
	if s := u.Stats(); s.RxBytes != 3 || s.RxDrops != 0 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestReceiveOverflowDrops(t *testing.T) {
	f := &fakePort{id: UsartD0}
	u := New(f)
	mustConfigure(t, u, Config{ClockHz: 2000000, Baud: 9600, RingSize: 4})

	for i := 0; i < 6; i++ {
		f.rxReg = byte(i)
		u.ReceiveComplete()
	}
	if u.Buffered() != 4 {
		t.Fatalf("Buffered = %d, want 4", u.Buffered())
	}
	if s := u.Stats(); s.RxBytes != 4 || s.RxDrops != 2 {
		t.Fatalf("stats = %+v", s)
	}
	// the survivors are the oldest bytes
	for i := 0; i < 4; i++ {
		if got := u.GetByte(); got != uint16(i) {
			t.Fatalf("GetByte #%d = %#04x", i, got)
		}
	}
}

func TestPutByteArmsTransmit(t *testing.T) {
	f := &fakePort{id: UsartE0}
	u := New(f)
	mustConfigure(t, u, Config{ClockHz: 2000000, Baud: 9600, DreLevel: IntMed})

	u.PutByte('x')
	if f.dreLevel != IntMed {
		t.Fatalf("dre level after PutByte = %v, want med", f.dreLevel)
	}
}

func TestDataRegEmptyDrainsAndMasks(t *testing.T) {
	f := &fakePort{id: UsartE0}
	u := New(f)
	mustConfigure(t, u, Config{ClockHz: 2000000, Baud: 9600})

	u.PutString("ok")
	u.DataRegEmpty()
	u.DataRegEmpty()
	if string(f.sent) != "ok" {
		t.Fatalf("sent = %q, want %q", f.sent, "ok")
	}
	if f.dreLevel != IntOff {
		t.Fatalf("dre level after drain = %v, want off", f.dreLevel)
	}

	// a spurious interrupt on a drained ring writes nothing
	u.DataRegEmpty()
	if len(f.sent) != 2 {
		t.Fatalf("spurious handler wrote a byte: sent = %q", f.sent)
	}
	if s := u.Stats(); s.TxBytes != 2 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestPutStringBackpressure(t *testing.T) {
	f := &fakePort{id: UsartE0}
	u := New(f)
	mustConfigure(t, u, Config{ClockHz: 2000000, Baud: 9600, RingSize: 4})

	u.PutString("abcdef") // two more than the ring holds
	if free := u.TxFree(); free != 0 {
		t.Fatalf("TxFree = %d, want 0", free)
	}
	if s := u.Stats(); s.TxDrops != 2 {
		t.Fatalf("TxDrops = %d, want 2", s.TxDrops)
	}
	for i := 0; i < 4; i++ {
		u.DataRegEmpty()
	}
	if string(f.sent) != "abcd" {
		t.Fatalf("sent = %q, want %q", f.sent, "abcd")
	}
}

func TestReconfigureResetsRings(t *testing.T) {
	f := &fakePort{id: UsartF1}
	u := New(f)
	mustConfigure(t, u, Config{ClockHz: 2000000, Baud: 9600})

	f.rxReg = 0x55
	u.ReceiveComplete()
	u.PutByte(0xaa)

	mustConfigure(t, u, Config{ClockHz: 2000000, Baud: 9600})
	if u.Buffered() != 0 {
		t.Fatalf("rx ring survived reconfigure: %d buffered", u.Buffered())
	}
	if got := u.GetByte(); got != NoData {
		t.Fatalf("GetByte after reconfigure = %#04x", got)
	}
	u.DataRegEmpty()
	if len(f.sent) != 0 {
		t.Fatalf("tx ring survived reconfigure: sent = %q", f.sent)
	}
}
