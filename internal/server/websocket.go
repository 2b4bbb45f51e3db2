package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/cnharrison/harq/internal/filter"
	"github.com/cnharrison/harq/internal/query"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WatchMessage is one push on /api/watch
type WatchMessage struct {
	Count   int                    `json:"count"`
	Records []query.CombinedRecord `json:"records"`
	Error   string                 `json:"error,omitempty"`
}

// handleWatch upgrades to WebSocket and streams the filtered combined records
// on connect, on Refresh and on every poll tick.
func (s *Server) handleWatch(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	if _, err := f.Compile(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	refresh, unsubscribe := s.subscribe()
	defer unsubscribe()

	// Read pump: detect client disconnect.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var tick <-chan time.Time
	if s.poll > 0 {
		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()
		tick = ticker.C
	}

	ctx := c.Request.Context()
	for {
		if err := s.push(ctx, conn, f); err != nil {
			s.log.Debug("websocket write failed: %v", err)
			return
		}
		select {
		case <-gone:
			return
		case <-s.stop:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case <-refresh:
		case <-tick:
		}
	}
}

func (s *Server) push(ctx context.Context, conn *websocket.Conn, f filter.QueryFilter) error {
	var msg WatchMessage
	records, err := s.queries.RequestAndResponseData(ctx, f)
	if err != nil {
		msg.Error = err.Error()
	} else {
		msg.Count = len(records)
		msg.Records = records
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
