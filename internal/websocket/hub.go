package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"studyden-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans session events out to every open client of a workspace. Events
// travel through redis pub/sub so timer ticks published on one server node
// reach clients connected to another.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
	redisClient *redis.Client
	jwtSecret   []byte
	cancelFuncs map[uuid.UUID]context.CancelFunc
}

func NewHub(redisClient *redis.Client, jwtSecret string) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*websocket.Conn),
		redisClient: redisClient,
		jwtSecret:   []byte(jwtSecret),
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	workspaceIDStr, _ := claims["workspace_id"].(string)
	workspaceID, err := uuid.Parse(workspaceIDStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.registerConnection(workspaceID, conn)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(workspaceID, conn)
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(workspaceID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[workspaceID] = append(h.connections[workspaceID], conn)

	// Start pub/sub subscription on the first connection for this workspace
	if len(h.connections[workspaceID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[workspaceID] = cancel
		go h.subscribeToPubSub(ctx, workspaceID)
	}

	log.Printf("WebSocket connected: workspace %s (total: %d)", workspaceID, len(h.connections[workspaceID]))
}

func (h *Hub) unregisterConnection(workspaceID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[workspaceID]
	for i, c := range conns {
		if c == conn {
			h.connections[workspaceID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	// If no more connections, cancel pub/sub
	if len(h.connections[workspaceID]) == 0 {
		delete(h.connections, workspaceID)
		if cancel, ok := h.cancelFuncs[workspaceID]; ok {
			cancel()
			delete(h.cancelFuncs, workspaceID)
		}
	}

	log.Printf("WebSocket disconnected: workspace %s", workspaceID)
}

func (h *Hub) subscribeToPubSub(ctx context.Context, workspaceID uuid.UUID) {
	pubsub := h.redisClient.Subscribe(ctx, services.WorkspaceChannel(workspaceID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(workspaceID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(workspaceID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[workspaceID] {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

// SendToWorkspace sends a message directly to a workspace's local
// connections, bypassing pub/sub.
func (h *Hub) SendToWorkspace(workspaceID uuid.UUID, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.broadcast(workspaceID, data)
}
