package realtime

import (
	"fmt"
	"sync"
	"testing"
)

// TestSendAfterClose verifies Send on a closed connection reports an error
// instead of panicking, no matter how often it is retried.
func TestSendAfterClose(t *testing.T) {
	ws, _ := dialPair(t)
	conn := NewConnection("u1", "A", ws)
	conn.Start()

	conn.Close(1000, "bye")

	for i := 0; i < 10; i++ {
		if err := conn.Send([]byte("x")); err == nil {
			t.Fatalf("attempt %d: Send after Close must fail", i)
		}
	}
}

// TestConcurrentSendAndClose hammers Send from several goroutines while one
// closes the connection. Deliveries racing the close may succeed or fail, but
// nothing may panic.
func TestConcurrentSendAndClose(t *testing.T) {
	ws, _ := dialPair(t)
	conn := NewConnection("u1", "A", ws)
	conn.Start()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = conn.Send([]byte(fmt.Sprintf("g%d-%d", g, i)))
			}
		}(g)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		conn.Close(1001, "shutdown")
	}()

	wg.Wait()
}

// TestSlowClientEviction verifies that overrunning the send buffer closes the
// connection rather than blocking the broadcaster.
func TestSlowClientEviction(t *testing.T) {
	ws, _ := dialPair(t)
	conn := NewConnection("u1", "A", ws)
	// Write loop deliberately not started, so the buffer fills up.

	var lastErr error
	for i := 0; i < 256; i++ {
		if err := conn.Send([]byte("x")); err != nil {
			lastErr = err
			break
		}
	}
	if lastErr == nil {
		t.Fatal("expected eviction once the buffer overran")
	}
	if err := conn.Send([]byte("x")); err == nil {
		t.Fatal("evicted connection must reject further sends")
	}
}
