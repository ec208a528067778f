// internal/platform/pty_linux.go
//go:build linux

package platform

import (
	"context"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// PTY is a pseudo-terminal endpoint for the simulated console: whatever
// the firmware transmits appears at Path, and anything typed there is
// fed back as received bytes. Attach a real terminal program to Path to
// talk to the sim like a serial port.
type PTY struct {
	Master *os.File
	Path   string
}

// OpenPTY allocates a pty pair and unlocks the slave side.
func OpenPTY() (*PTY, error) {
	master, err := os.OpenFile("/dev/ptmx", os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	if err := unix.IoctlSetPointerInt(int(master.Fd()), unix.TIOCSPTLCK, 0); err != nil {
		master.Close()
		return nil, err
	}
	n, err := unix.IoctlGetInt(int(master.Fd()), unix.TIOCGPTN)
	if err != nil {
		master.Close()
		return nil, err
	}
	return &PTY{Master: master, Path: "/dev/pts/" + strconv.Itoa(n)}, nil
}

// Sink returns a byte sink writing to the pty.
func (p *PTY) Sink() func(byte) { return WriterSink(p.Master) }

// ReadLoop feeds bytes arriving on the pty into inject until ctx is
// cancelled or the pty closes.
func (p *PTY) ReadLoop(ctx context.Context, inject func(byte)) {
	go func() {
		<-ctx.Done()
		p.Master.Close()
	}()
	buf := make([]byte, 256)
	for {
		n, err := p.Master.Read(buf)
		for i := 0; i < n; i++ {
			inject(buf[i])
		}
		if err != nil {
			return
		}
	}
}

// Close releases the master side.
func (p *PTY) Close() error { return p.Master.Close() }
