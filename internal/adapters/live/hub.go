// Package live pushes vote updates to browsers watching a results page.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/polls/internal/core/domain"
)

const (
	sendBuffer   = 16
	writeTimeout = 5 * time.Second
)

// client is one websocket connection following a single question.
type client struct {
	questionID uuid.UUID
	send       chan []byte
}

// Hub owns the set of connected clients. All map access happens on the Run
// goroutine; everything else talks to it over channels.
type Hub struct {
	clients    map[uuid.UUID]map[*client]struct{}
	broadcast  chan domain.VoteCast
	register   chan *client
	unregister chan *client
	stopped    chan struct{}
	count      atomic.Int64
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[uuid.UUID]map[*client]struct{}),
		broadcast:  make(chan domain.VoteCast, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		stopped:    make(chan struct{}),
		logger:     logger,
	}
}

// Run dispatches messages until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for _, conns := range h.clients {
			for c := range conns {
				close(c.send)
			}
		}
		h.clients = nil
		h.count.Store(0)
		close(h.stopped)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			conns := h.clients[c.questionID]
			if conns == nil {
				conns = make(map[*client]struct{})
				h.clients[c.questionID] = conns
			}
			conns[c] = struct{}{}
			h.count.Add(1)

		case c := <-h.unregister:
			h.remove(c)

		case event := <-h.broadcast:
			conns := h.clients[event.QuestionID]
			if len(conns) == 0 {
				continue
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to encode vote update", "error", err)
				continue
			}
			for c := range conns {
				select {
				case c.send <- payload:
				default:
					// Slow reader; drop it rather than stall everyone else.
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	conns := h.clients[c.questionID]
	if conns == nil {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.send)
	h.count.Add(-1)
	if len(conns) == 0 {
		delete(h.clients, c.questionID)
	}
}

// Publish queues event for every client following its question.
func (h *Hub) Publish(ctx context.Context, event domain.VoteCast) error {
	select {
	case h.broadcast <- event:
		return nil
	case <-h.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close is a no-op; the hub stops with the context given to Run.
func (h *Hub) Close() error {
	return nil
}

// Subscribers reports how many connections are currently attached.
func (h *Hub) Subscribers() int {
	return int(h.count.Load())
}

// Serve streams updates for questionID to conn until the peer goes away,
// ctx ends or the hub stops.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, questionID uuid.UUID) {
	c := &client{questionID: questionID, send: make(chan []byte, sendBuffer)}

	select {
	case h.register <- c:
	case <-h.stopped:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	case <-ctx.Done():
		return
	}

	defer func() {
		select {
		case h.unregister <- c:
		case <-h.stopped:
		}
	}()

	// We never expect messages from the browser; CloseRead handles pings
	// and cancels ctx once the peer disconnects.
	ctx = conn.CloseRead(ctx)

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case msg, ok := <-c.send:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "")
				return
			}
			if err := write(ctx, conn, msg); err != nil {
				h.logger.Debug("failed to write vote update", "question_id", questionID, "error", err)
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, msg)
}
