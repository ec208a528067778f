// cmd/clockmaker/main.go
//
// Host demo: boots the simulated board, runs the firmware and mirrors the
// console UART to stdout. With -pty the console is additionally exposed
// as a pseudo-terminal, so a real terminal program can attach to the sim.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"

	"clockmaker-go/bus"
	"clockmaker-go/firmware"
	"clockmaker-go/internal/board"
	"clockmaker-go/internal/platform"
	"clockmaker-go/types"
	"clockmaker-go/uart"
)

var usePty = flag.Bool("pty", false, "expose the console UART as a pty")

func main() {
	flag.Parse()
	defer glog.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := bus.NewBus(64)
	brd, err := board.New(types.DefaultBoardConfig(), b.NewConnection("board"))
	if err != nil {
		glog.Exitf("board: %v", err)
	}
	brd.Start(ctx)

	fwCfg := types.DefaultFirmwareConfig()
	stdout := platform.StdoutSink()
	sink := stdout
	var pty *platform.PTY
	if *usePty {
		pty, err = platform.OpenPTY()
		if err != nil {
			glog.Exitf("pty: %v", err)
		}
		defer pty.Close()
		glog.Infof("console pty at %s", pty.Path)
		ptySink := pty.Sink()
		sink = func(c byte) {
			stdout(c)
			ptySink(c)
		}
	}
	if err := brd.SetTxSink(fwCfg.Console, sink); err != nil {
		glog.Exitf("console sink: %v", err)
	}

	app := firmware.NewApp(brd, fwCfg, b.NewConnection("fw"))
	if err := app.Run(ctx); err != nil {
		glog.Exitf("firmware boot: %v", err)
	}
	glog.Infof("firmware up, console on %s at %d baud", fwCfg.Console, fwCfg.Baud)

	if pty != nil {
		usart := brd.USART(fwCfg.Console)
		go pty.ReadLoop(ctx, usart.InjectByte)
	}

	// Drain whatever the firmware receives so the rx ring cannot silently
	// overflow while nobody is looking.
	console := app.Console()
	go func() {
		tick := time.NewTicker(5 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
			}
			for {
				d := console.GetByte()
				if d == uart.NoData {
					break
				}
				glog.V(1).Infof("console rx byte %#02x", byte(d))
			}
		}
	}()

	<-ctx.Done()
	glog.Info("shutting down")
}
