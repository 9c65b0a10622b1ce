package ws

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 256
)

// ReadingPayload is pushed to dashboard clients watching a practice. It
// carries the same reading shape the AR stream serves.
type ReadingPayload struct {
	ReadingID        uint      `json:"reading_id"`
	PracticeID       uint      `json:"practice_id"`
	Pitch            float64   `json:"pitch"`
	Roll             float64   `json:"roll"`
	Yaw              float64   `json:"yaw"`
	Force            float64   `json:"force"`
	Pressure         *float64  `json:"pressure,omitempty"`
	TechniqueCorrect bool      `json:"technique_correct"`
	Timestamp        time.Time `json:"timestamp"`
}

type liveMessage struct {
	practiceID uint
	payload    []byte
}

// LiveHub fans stored readings out to websocket clients, each scoped to the
// practice it watches.
type LiveHub struct {
	register   chan *liveClient
	unregister chan *liveClient
	broadcast  chan liveMessage
	clients    map[*liveClient]struct{}
}

func NewLiveHub() *LiveHub {
	return &LiveHub{
		register:   make(chan *liveClient),
		unregister: make(chan *liveClient),
		broadcast:  make(chan liveMessage, 256),
		clients:    make(map[*liveClient]struct{}),
	}
}

func (h *LiveHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				client.conn.Close()
			}
		case msg := <-h.broadcast:
			for client := range h.clients {
				if client.practiceID != msg.practiceID {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					delete(h.clients, client)
					close(client.send)
					client.conn.Close()
				}
			}
		}
	}
}

// Broadcast pushes one reading to every client watching its practice.
func (h *LiveHub) Broadcast(payload ReadingPayload) {
	if h == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws: failed to marshal payload: %v", err)
		return
	}
	h.broadcast <- liveMessage{
		practiceID: payload.PracticeID,
		payload:    data,
	}
}

type liveClient struct {
	hub        *LiveHub
	conn       *websocket.Conn
	send       chan []byte
	practiceID uint
}

func newLiveClient(hub *LiveHub, conn *websocket.Conn, practiceID uint) *liveClient {
	return &liveClient{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		practiceID: practiceID,
	}
}

func (c *liveClient) readPump() {
	defer func() {
		c.hub.unregister <- c
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *liveClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			if err := w.Close(); err != nil {
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
