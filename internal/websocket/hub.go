package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeBookingConfirmed MessageType = "booking_confirmed"
	MessageTypeSeatsReleased    MessageType = "seats_released"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// SeatUpdate represents a seat status change
type SeatUpdate struct {
	SeatID string `json:"seatId"`
	Status string `json:"status"` // occupied, available
}

// Message represents a WebSocket message
type Message struct {
	Type        MessageType  `json:"type"`
	ResultIndex string       `json:"resultIndex"`
	Seats       []SeatUpdate `json:"seats,omitempty"`
	Message     string       `json:"message,omitempty"`
	Timestamp   int64        `json:"timestamp"`
}

// Client is one browser watching the seat map of an offer
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	resultIndex string
}

// Hub fans seat changes out to every client watching the same offer
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zap.Logger
	upgrader   websocket.Upgrader
}

// NewHub creates a new Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Run is the hub's main loop; it returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.resultIndex] == nil {
				h.clients[client.resultIndex] = make(map[*Client]bool)
			}
			h.clients[client.resultIndex][client] = true
			total := len(h.clients[client.resultIndex])
			h.mu.Unlock()
			h.logger.Debug("websocket client registered", zap.String("resultIndex", client.resultIndex), zap.Int("total", total))

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				h.logger.Error("failed to marshal websocket message", zap.Error(err))
				continue
			}

			h.mu.RLock()
			var slow []*Client
			for client := range h.clients[message.ResultIndex] {
				select {
				case client.send <- data:
				default:
					slow = append(slow, client)
				}
			}
			count := len(h.clients[message.ResultIndex])
			h.mu.RUnlock()

			for _, client := range slow {
				h.remove(client)
			}
			h.logger.Debug("websocket broadcast",
				zap.String("type", string(message.Type)),
				zap.String("resultIndex", message.ResultIndex),
				zap.Int("clients", count))
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.resultIndex]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.resultIndex)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
		delete(h.clients, key)
	}
}

// Publish queues a message for every client watching msg.ResultIndex.
func (h *Hub) Publish(msg *Message) {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping message", zap.String("resultIndex", msg.ResultIndex))
	}
}

// BroadcastBookingConfirmed notifies watchers that a booking was completed
func (h *Hub) BroadcastBookingConfirmed(resultIndex string, seatIDs []string) {
	h.Publish(&Message{
		Type:        MessageTypeBookingConfirmed,
		ResultIndex: resultIndex,
		Seats:       seatUpdates(seatIDs, "occupied"),
		Message:     "Seats have been booked",
	})
}

// BroadcastSeatsReleased notifies watchers that held seats are free again
func (h *Hub) BroadcastSeatsReleased(resultIndex string, seatIDs []string) {
	h.Publish(&Message{
		Type:        MessageTypeSeatsReleased,
		ResultIndex: resultIndex,
		Seats:       seatUpdates(seatIDs, "available"),
		Message:     "Seats are available again",
	})
}

func seatUpdates(seatIDs []string, status string) []SeatUpdate {
	seats := make([]SeatUpdate, len(seatIDs))
	for i, seatID := range seatIDs {
		seats[i] = SeatUpdate{SeatID: seatID, Status: status}
	}
	return seats
}

// ClientCount returns the number of clients watching an offer
func (h *Hub) ClientCount(resultIndex string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[resultIndex])
}

// ServeWS upgrades the request and subscribes it to resultIndex.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, resultIndex string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:         h,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		resultIndex: resultIndex,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only drains control frames; clients never send data.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
