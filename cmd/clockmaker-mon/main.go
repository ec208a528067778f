// cmd/clockmaker-mon/main.go
//
// Interactive monitor for the simulated board: boot the firmware, type
// bytes into a UART, watch its console output, inspect registers, pins,
// DAC samples and transport counters. Lines in a script file run through
// the same commands.
package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"strings"
	"sync"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"
	"github.com/google/shlex"

	"clockmaker-go/bus"
	"clockmaker-go/firmware"
	"clockmaker-go/internal/board"
	"clockmaker-go/types"
	"clockmaker-go/uart"
	"clockmaker-go/x/conv"
)

type session struct {
	mu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	bus *bus.Bus
	brd *board.Board
	app *firmware.App
	cfg types.FirmwareConfig

	console []byte // captured console UART output
}

func (s *session) boot() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.brd != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := bus.NewBus(64)
	brd, err := board.New(types.DefaultBoardConfig(), b.NewConnection("board"))
	if err != nil {
		cancel()
		return err
	}
	brd.Start(ctx)

	cfg := types.DefaultFirmwareConfig()
	brd.SetTxSink(cfg.Console, func(c byte) {
		s.mu.Lock()
		s.console = append(s.console, c)
		s.mu.Unlock()
	})

	app := firmware.NewApp(brd, cfg, b.NewConnection("fw"))
	if err := app.Run(ctx); err != nil {
		cancel()
		return err
	}
	s.ctx, s.cancel = ctx, cancel
	s.bus, s.brd, s.app, s.cfg = b, brd, app, cfg
	return nil
}

func (s *session) halt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.brd.Timer.Stop()
		s.cancel()
	}
	s.ctx, s.cancel = nil, nil
	s.bus, s.brd, s.app = nil, nil, nil
	s.console = nil
}

func (s *session) takeConsole() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.console
	s.console = nil
	return out
}

func (s *session) board() *board.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brd
}

func main() {
	flag.Parse()
	defer glog.Flush()

	sess := &session{}
	sh := ishell.New()
	sh.Println("clockmaker monitor (type 'help')")
	sh.SetPrompt("mon> ")

	sh.AddCmd(&ishell.Cmd{
		Name: "boot",
		Help: "boot the simulated board and firmware",
		Func: func(c *ishell.Context) {
			if err := sess.boot(); err != nil {
				c.Err(err)
				return
			}
			c.Println("booted; console on", sess.cfg.Console.String())
		},
	})

	sh.AddCmd(&ishell.Cmd{
		Name: "halt",
		Help: "stop the simulation",
		Func: func(c *ishell.Context) {
			sess.halt()
			c.Println("halted")
		},
	})

	sh.AddCmd(&ishell.Cmd{
		Name: "send",
		Help: "send <port> <text> - inject bytes into a UART's receive side",
		Func: func(c *ishell.Context) {
			brd := sess.board()
			if brd == nil {
				c.Err(errNotBooted)
				return
			}
			if len(c.Args) < 2 {
				c.Err(errUsage)
				return
			}
			id, err := uart.ParsePortID(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			usart := brd.USART(id)
			if usart == nil {
				c.Println(id.String(), "not enabled")
				return
			}
			usart.InjectBytes([]byte(strings.Join(c.Args[1:], " ")))
			brd.PMIC.Sync()
		},
	})

	sh.AddCmd(&ishell.Cmd{
		Name: "recv",
		Help: "recv <port> - read bytes the firmware has buffered",
		Func: func(c *ishell.Context) {
			brd := sess.board()
			if brd == nil {
				c.Err(errNotBooted)
				return
			}
			if len(c.Args) != 1 {
				c.Err(errUsage)
				return
			}
			id, err := uart.ParsePortID(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			u := brd.UART(id)
			if u == nil {
				c.Println(id.String(), "not enabled")
				return
			}
			var out []byte
			for {
				d := u.GetByte()
				if d == uart.NoData {
					break
				}
				out = append(out, byte(d))
			}
			c.Printf("%d bytes: %q\n", len(out), out)
		},
	})

	sh.AddCmd(&ishell.Cmd{
		Name: "console",
		Help: "show console output captured since the last call",
		Func: func(c *ishell.Context) {
			c.Printf("%s", sess.takeConsole())
			c.Println()
		},
	})

	sh.AddCmd(&ishell.Cmd{
		Name: "regs",
		Help: "regs <port> - dump USART registers and transport counters",
		Func: func(c *ishell.Context) {
			brd := sess.board()
			if brd == nil {
				c.Err(errNotBooted)
				return
			}
			if len(c.Args) != 1 {
				c.Err(errUsage)
				return
			}
			id, err := uart.ParsePortID(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			usart := brd.USART(id)
			if usart == nil {
				c.Println(id.String(), "not enabled")
				return
			}
			r := usart.Regs()
			c.Printf("bsel=%d bscale=%d clk2x=%v format=%d%s%d rx=%v tx=%v rxc=%s dre=%s\n",
				r.BSel, r.BScale, r.Clk2x, r.DataBits, parityLetter(r.Parity), r.StopBits,
				r.RxEnable, r.TxEnable, r.RxcLevel, r.DreLevel)
			st := brd.UART(id).Stats()
			c.Printf("rx_bytes=%d tx_bytes=%d rx_drops=%d tx_drops=%d hw_overruns=%d\n",
				st.RxBytes, st.TxBytes, st.RxDrops, st.TxDrops, usart.Overruns())
		},
	})

	sh.AddCmd(&ishell.Cmd{
		Name: "pins",
		Help: "dump I/O port direction and output registers",
		Func: func(c *ishell.Context) {
			brd := sess.board()
			if brd == nil {
				c.Err(errNotBooted)
				return
			}
			for _, name := range []byte{'B', 'C', 'D', 'E', 'F'} {
				p := brd.GPIO.Port(name)
				line := append([]byte("PORT"), name)
				line = append(line, " dir="...)
				line = conv.Hex8(line, p.Dir())
				line = append(line, " out="...)
				line = conv.Hex8(line, p.Out())
				c.Println(string(line))
			}
		},
	})

	sh.AddCmd(&ishell.Cmd{
		Name: "dac",
		Help: "show the DAC channel value and recent samples",
		Func: func(c *ishell.Context) {
			brd := sess.board()
			if brd == nil {
				c.Err(errNotBooted)
				return
			}
			samples := brd.DAC.Samples()
			if len(samples) > 8 {
				samples = samples[len(samples)-8:]
			}
			c.Printf("ch0=%d recent=%v\n", brd.DAC.Ch0(), samples)
		},
	})

	sh.AddCmd(&ishell.Cmd{
		Name: "tick",
		Help: "tick [n] - force timer overflows",
		Func: func(c *ishell.Context) {
			brd := sess.board()
			if brd == nil {
				c.Err(errNotBooted)
				return
			}
			n := 1
			if len(c.Args) == 1 {
				n = atoiDefault(c.Args[0], 1)
			}
			for i := 0; i < n; i++ {
				brd.Timer.Tick()
			}
			brd.PMIC.Sync()
		},
	})

	sh.AddCmd(&ishell.Cmd{
		Name: "script",
		Help: "script <file> - run monitor commands from a file",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errUsage)
				return
			}
			f, err := os.Open(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			defer f.Close()
			scan := bufio.NewScanner(f)
			for scan.Scan() {
				line := strings.TrimSpace(scan.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				args, err := shlex.Split(line)
				if err != nil {
					c.Err(err)
					return
				}
				if err := sh.Process(args...); err != nil {
					glog.Errorf("script %s: %q: %v", c.Args[0], line, err)
					c.Err(err)
					return
				}
			}
		},
	})

	sh.Run()
	sess.halt()
}

var (
	errNotBooted = errString("not booted; run 'boot' first")
	errUsage     = errString("bad arguments; see 'help'")
)

type errString string

func (e errString) Error() string { return string(e) }

func parityLetter(p uart.Parity) string {
	switch p {
	case uart.ParityEven:
		return "E"
	case uart.ParityOdd:
		return "O"
	default:
		return "N"
	}
}

func atoiDefault(s string, def int) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return def
		}
		n = n*10 + int(s[i]-'0')
	}
	if n == 0 {
		return def
	}
	return n
}
