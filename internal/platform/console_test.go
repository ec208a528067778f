//go:build !(rp2040 || rp2350)

package platform

import (
	"bytes"
	"sync"
	"testing"
)

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := WriterSink(&buf)
	for _, b := range []byte("uart") {
		sink(b)
	}
	if buf.String() != "uart" {
		t.Fatalf("wrote %q", buf.String())
	}
}

func TestWriterSinkConcurrent(t *testing.T) {
	var buf bytes.Buffer
	sink := WriterSink(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sink('x')
			}
		}()
	}
	wg.Wait()
	if buf.Len() != 800 {
		t.Fatalf("len = %d, want 800", buf.Len())
	}
}
