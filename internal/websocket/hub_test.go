package websocket_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/dom/courier-backend/internal/domain"
	"github.com/dom/courier-backend/internal/websocket"
)

func TestHubStopConcurrent(t *testing.T) {
	hub := websocket.NewHub(nil)
	go hub.Run()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Stop()
		}()
	}
	wg.Wait()

	// A late Stop returns immediately and publishing never blocks.
	hub.Stop()
	hub.Notify(domain.UserLoggedIn{UserID: uuid.New()})
}
