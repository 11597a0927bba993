package notify

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ashkan-django/bookstore-api/models"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 16
)

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes paid orders to connected back-office websocket clients. Each
// client has its own queue and writer, so a stalled reader only loses its
// own connection.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*hubClient]bool
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*hubClient]bool),
	}
}

// GET /admin/orders/ws
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := &hubClient{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	go h.writePump(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(client)
			return
		}
	}
}

func (h *Hub) writePump(client *hubClient) {
	defer client.conn.Close()
	for data := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(client)
			return
		}
	}
	client.conn.SetWriteDeadline(time.Now().Add(writeWait))
	client.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// remove must not be called with h.mu held.
func (h *Hub) remove(client *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(client)
}

func (h *Hub) drop(client *hubClient) {
	if h.clients[client] {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

type orderEvent struct {
	Type  string       `json:"type"`
	Order models.Order `json:"order"`
}

// SendOrderPaid queues the order for every client and never blocks. A client
// whose queue is full is disconnected.
func (h *Hub) SendOrderPaid(_ context.Context, order models.Order) error {
	data, err := json.Marshal(orderEvent{Type: "order.paid", Order: order})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			log.Printf("notify: websocket client not reading, disconnecting")
			h.drop(client)
		}
	}
	return nil
}
