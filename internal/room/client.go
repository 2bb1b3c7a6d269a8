package room

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/ethx42/tabula-room-service/internal/logging"
	"github.com/ethx42/tabula-room-service/internal/metrics"
	"github.com/ethx42/tabula-room-service/internal/protocol"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait is the deadline for a single outbound frame write.
	writeWait = 10 * time.Second
	// defaultPingPeriod is how often the server pings an idle connection
	// when a Client is constructed with a zero heartbeat interval, per
	// spec §4.8. Deployments may override it via
	// config.Config.HeartbeatInterval.
	defaultPingPeriod = 20 * time.Second
	// defaultSendQueueDepth bounds the per-connection outbound backlog
	// before a client is treated as a slow consumer, used when a Client is
	// constructed with a zero queue depth, per spec §4.8's default of 64.
	// Deployments may override it via config.Config.OutboundQueueDepth.
	defaultSendQueueDepth = 64
)

// pongWaitFor tolerates two consecutive missed pings at the given period
// before a connection is treated as HeartbeatLost (spec §4.8), plus a
// small margin for write/schedule jitter.
func pongWaitFor(pingPeriod time.Duration) time.Duration {
	return 2*pingPeriod + 5*time.Second
}

// wsConnection is the subset of *websocket.Conn the Connection Loop
// depends on, narrowed so tests can substitute a fake transport.
type wsConnection interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	SetReadDeadline(time.Time) error
	SetWriteDeadline(time.Time) error
	SetPongHandler(func(string) error)
	Close() error
}

// Client is one participant's live connection, bound to exactly one Role
// within exactly one Room.
type Client struct {
	ID   string
	Role Role
	Room *Room

	conn       wsConnection
	send       chan []byte
	pingPeriod time.Duration
	pongWait   time.Duration

	closeOnce bool
}

// NewClient wraps conn with the bookkeeping the Connection Loop needs. id
// should be a fresh, unique connection identifier (e.g. uuid.New()).
// queueDepth of zero falls back to defaultSendQueueDepth; pingPeriod of
// zero falls back to defaultPingPeriod.
func NewClient(id string, conn wsConnection, r *Room, queueDepth int, pingPeriod time.Duration) *Client {
	if queueDepth <= 0 {
		queueDepth = defaultSendQueueDepth
	}
	if pingPeriod <= 0 {
		pingPeriod = defaultPingPeriod
	}
	return &Client{
		ID:         id,
		Room:       r,
		conn:       conn,
		send:       make(chan []byte, queueDepth),
		pingPeriod: pingPeriod,
		pongWait:   pongWaitFor(pingPeriod),
	}
}

// closeWithReason sends an ERROR frame naming reason, then closes the
// underlying connection. It is safe to call more than once.
func (c *Client) closeWithReason(reason CloseReason) {
	if c.closeOnce {
		return
	}
	c.closeOnce = true

	if data, err := protocol.Encode(protocol.ErrorFrame{Reason: string(reason)}); err == nil {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.conn.WriteMessage(websocket.TextMessage, data)
	}
	_ = c.conn.Close()
}

// Run drives the Connection Loop for c: it blocks until the connection
// closes, running readPump on the calling goroutine and writePump on a
// spawned one. Callers are responsible for removing c from its Room
// (Leave) once Run returns.
func (c *Client) Run(ctx context.Context) {
	metrics.IncConnection()
	defer metrics.DecConnection()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump()
	}()

	c.readPump(ctx)
	close(c.send)
	<-writerDone
}

func (c *Client) readPump(ctx context.Context) {
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				c.closeWithReason(ReasonHeartbeatLost)
			}
			return
		}

		frame, err := protocol.Decode(raw)
		if err != nil {
			metrics.DroppedFrames.WithLabelValues("bad_frame").Inc()
			c.closeWithReason(ReasonBadFrame)
			return
		}

		if err := c.Room.HandleFrame(ctx, c, frame); err != nil {
			logging.Warn(ctx, "frame rejected", zap.String("participant_id", c.ID), zap.Error(err))
			metrics.WebsocketEvents.WithLabelValues(string(frame.FrameType()), "rejected").Inc()
			continue
		}
		metrics.WebsocketEvents.WithLabelValues(string(frame.FrameType()), "accepted").Inc()
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.closeWithReason(ReasonHeartbeatLost)
				return
			}
		}
	}
}
