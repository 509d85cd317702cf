package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/posterforge/posterforge/internal/pkg/metrics"
)

// ProgressSocketHandler returns a WebSocket handler that streams a job's
// progress events as JSON text frames. The first frame is the job's current
// snapshot; the connection closes after the terminal event, so a client can
// simply read until EOF.
func ProgressSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		jobID := c.Params("id")
		log := slog.Default().With("component", "ws", "job_id", jobID)
		log.Debug("ws client connected", "remote", c.RemoteAddr().String())

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		events, cancel, err := deps.Posters.Subscribe(jobID)
		if err != nil {
			_ = writeJSON(map[string]string{"error": "job not found: " + jobID})
			return
		}
		defer cancel()

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// Drain client frames so close and pong frames are processed; a
		// read error means the client went away.
		clientGone := make(chan struct{})
		go func() {
			defer close(clientGone)
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					log.Debug("ws stream finished")
					return
				}
				if err := writeJSON(ev); err != nil {
					log.Debug("ws write failed", "error", err)
					return
				}
			case <-clientGone:
				log.Debug("ws client disconnected")
				return
			}
		}
	}
}
