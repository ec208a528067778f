// internal/platform/console.go
//go:build !(rp2040 || rp2350)

package platform

import (
	"io"
	"os"
	"sync"
)

// WriterSink adapts an io.Writer to the byte-at-a-time sink the board's
// USART models call from the interrupt path.
func WriterSink(w io.Writer) func(byte) {
	var mu sync.Mutex
	return func(b byte) {
		mu.Lock()
		defer mu.Unlock()
		w.Write([]byte{b})
	}
}

// StdoutSink mirrors console bytes to the process stdout.
func StdoutSink() func(byte) { return WriterSink(os.Stdout) }
