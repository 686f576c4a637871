package orderControllers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/arvand-shop/storefront-api/events"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans order-status changes out to connected websocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.WriteMessage(websocket.TextMessage, data)
	}
}

// OrderStatusFeed upgrades the connection and keeps it registered until the
// client hangs up. The read loop exists only to detect closure.
func OrderStatusFeed(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		hub.add(conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				hub.remove(conn)
				break
			}
		}
	}
}

// RegisterBroadcaster bridges the in-process event bus onto the hub.
func RegisterBroadcaster(bus *events.Bus, hub *Hub) {
	bus.Subscribe(events.OrderStatusChanged{}.Name(), func(event events.Event) {
		change, ok := event.(events.OrderStatusChanged)
		if !ok {
			return
		}
		hub.Broadcast(gin.H{
			"type":     "order_status_changed",
			"order_id": change.OrderID,
			"user_id":  change.UserID,
			"status":   change.Status.String(),
		})
	})
}
