// internal/platform/pty_stub.go
//go:build !linux && !(rp2040 || rp2350)

package platform

import (
	"context"
	"os"

	"clockmaker-go/errcode"
)

// PTY is unavailable off Linux; OpenPTY reports unsupported.
type PTY struct {
	Master *os.File
	Path   string
}

func OpenPTY() (*PTY, error) { return nil, errcode.Unsupported }

func (p *PTY) Sink() func(byte)                                { return func(byte) {} }
func (p *PTY) ReadLoop(ctx context.Context, inject func(byte)) {}
func (p *PTY) Close() error                                    { return nil }
