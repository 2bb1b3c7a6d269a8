package room

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ethx42/tabula-room-service/internal/bus"
	"github.com/ethx42/tabula-room-service/internal/deck"
	"github.com/ethx42/tabula-room-service/internal/logging"
	"github.com/ethx42/tabula-room-service/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub owns the registry of live Rooms and is the WebSocket upgrade
// entry point. It mirrors the session registry pattern of spec §5: a
// mutex-guarded map plus per-room grace-period cleanup timers, so a Host
// that reconnects within the grace window resumes the same Room instead
// of losing it.
type Hub struct {
	mu                sync.Mutex
	rooms             map[ID]*Room
	pendingCleanups   map[ID]*time.Timer
	cleanupGrace      time.Duration
	reactionWindow    time.Duration
	heartbeatInterval time.Duration
	sendQueueDepth    int
	allowedOrigins    map[string]struct{}
	bus               *bus.Service
	upgrader          websocket.Upgrader
}

// NewHub constructs a Hub. allowedOrigins of nil or containing "*"
// disables origin checking (development mode). reactionWindow configures
// the REACTION_BURST tumbling window (config.Config.ReactionWindow);
// heartbeatInterval and sendQueueDepth configure every Client dialed
// through ServeWs (config.Config.HeartbeatInterval and
// config.Config.OutboundQueueDepth). Zero values fall back to the room
// package's own defaults.
func NewHub(cleanupGrace, reactionWindow, heartbeatInterval time.Duration, sendQueueDepth int, allowedOrigins []string, busService *bus.Service) *Hub {
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[o] = struct{}{}
	}

	h := &Hub{
		rooms:             make(map[ID]*Room),
		pendingCleanups:   make(map[ID]*time.Timer),
		cleanupGrace:      cleanupGrace,
		reactionWindow:    reactionWindow,
		heartbeatInterval: heartbeatInterval,
		sendQueueDepth:    sendQueueDepth,
		allowedOrigins:    originSet,
		bus:               busService,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if _, wildcard := h.allowedOrigins["*"]; wildcard || len(h.allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	_, ok := h.allowedOrigins[origin]
	return ok
}

// CreateRoom allocates a fresh Room bound to d with a random id and
// seed, registers it, and returns it. Collisions against the id
// alphabet are retried; with a 4-character, 32-symbol alphabet this
// practically never loops more than once.
func (h *Hub) CreateRoom(d deck.Deck) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	var id ID
	for {
		id = NewID()
		if _, exists := h.rooms[id]; !exists {
			break
		}
	}

	r := NewRoom(id, d, RandomSeed(), h.bus, h.reactionWindow)
	h.rooms[id] = r
	metrics.ActiveRooms.Inc()
	return r
}

// createRoomRequest is the POST /rooms body: a caller-supplied Deck the
// new Room's shuffle is drawn over.
type createRoomRequest struct {
	Deck deck.Deck `json:"deck" binding:"required"`
}

type createRoomResponse struct {
	RoomID string `json:"roomId"`
}

// CreateRoomHandler is the HTTP entry point a Host uses before opening
// its WebSocket connection: it validates the submitted Deck, allocates a
// Room, and returns the room code the Host (and, out of band, any
// Controller/Spectator) then dials into via ServeWs.
func (h *Hub) CreateRoomHandler(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Deck.ValidateForRoom(2); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	r := h.CreateRoom(req.Deck)
	c.JSON(http.StatusCreated, createRoomResponse{RoomID: string(r.ID)})
}

func (h *Hub) get(id ID) (*Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[id]
	return r, ok
}

// scheduleCleanup arms a grace-period timer for id; if the Host has not
// reconnected by the time it fires, the Room is torn down. Called after
// a Host disconnects (not after ordinary departure of a Controller or
// Spectator).
func (h *Hub) scheduleCleanup(id ID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.pendingCleanups[id]; ok {
		existing.Stop()
	}
	h.pendingCleanups[id] = time.AfterFunc(h.cleanupGrace, func() { h.finalizeCleanup(id) })
}

func (h *Hub) cancelCleanup(id ID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.pendingCleanups[id]; ok {
		existing.Stop()
		delete(h.pendingCleanups, id)
	}
}

func (h *Hub) finalizeCleanup(id ID) {
	h.mu.Lock()
	r, ok := h.rooms[id]
	if !ok {
		h.mu.Unlock()
		return
	}
	if !r.IsEmpty() {
		h.mu.Unlock()
		return
	}
	delete(h.rooms, id)
	delete(h.pendingCleanups, id)
	h.mu.Unlock()

	r.EndGame(context.Background())
	r.Close()
	metrics.ActiveRooms.Dec()
}

// ServeWs upgrades the HTTP request to a WebSocket connection and binds
// it into the Room named by the "roomId" path parameter under the role
// named by the "role" query parameter. ServeWs never creates a room:
// rooms are created beforehand through CreateRoomHandler (POST /rooms),
// and an unknown roomId is answered with 404 before any upgrade.
func (h *Hub) ServeWs(c *gin.Context) {
	roomID := ID(c.Param("roomId"))
	role, ok := ParseRole(c.Query("role"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing role"})
		return
	}

	r, found := h.get(roomID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": string(ReasonRoomNotFound)})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Error(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(uuid.New().String(), conn, r, h.sendQueueDepth, h.heartbeatInterval)
	ctx := c.Request.Context()

	var joinErr error
	switch role {
	case RoleHost:
		h.cancelCleanup(roomID)
		joinErr = r.JoinHost(client)
	case RoleController:
		joinErr = r.JoinController(ctx, client)
	case RoleSpectator:
		joinErr = r.JoinSpectator(ctx, client)
	}
	if joinErr != nil {
		client.closeWithReason(reasonFor(joinErr))
		return
	}

	client.Run(ctx)

	r.Leave(ctx, client)
	if role == RoleHost {
		h.scheduleCleanup(roomID)
	}
}

func reasonFor(err error) CloseReason {
	switch {
	case err == ErrRoomNotFound:
		return ReasonRoomNotFound
	case err == ErrAlreadyConnected:
		return ReasonAlreadyConnected
	case err == ErrGameEnded:
		return ReasonGameEnded
	default:
		return ReasonInternalError
	}
}
