package main

import (
	"context"
	"time"

	"clockmaker-go/bus"
	"clockmaker-go/firmware"
	"clockmaker-go/internal/board"
	"clockmaker-go/internal/platform"
	"clockmaker-go/types"
)

func main() {
	println("boot")

	ctx := context.Background()
	b := bus.NewBus(16)

	brd, err := board.New(types.DefaultBoardConfig(), b.NewConnection("board"))
	if err != nil {
		println("board:", err.Error())
		return
	}
	brd.Start(ctx)

	fwCfg := types.DefaultFirmwareConfig()
	brd.SetTxSink(fwCfg.Console, platform.StdoutSink())

	app := firmware.NewApp(brd, fwCfg, b.NewConnection("fw"))
	if err := app.Run(ctx); err != nil {
		println("firmware:", err.Error())
		return
	}

	// Periodic stats.
	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	console := app.Console()
	for t := range tick.C {
		s := console.Stats()
		println(t.Format("15:04:05"), "console tx:", s.TxBytes, "rx:", s.RxBytes, "dac:", brd.DAC.Ch0())
	}
}
