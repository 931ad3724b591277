package services

import (
	"context"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// Clients attach and detach from handler goroutines while the hub's loop
// owns the broadcast side; this must be safe under the race detector.
func TestMetricsHubConcurrentClients(t *testing.T) {
	hub := NewMetricsHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				conn := &websocket.Conn{}
				hub.Add(conn)
				hub.Remove(conn)
			}
		}()
	}
	wg.Wait()
}
