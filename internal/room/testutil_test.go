package room_test

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ethx42/tabula-room-service/internal/room"
)

// fakeConn is a minimal in-memory stand-in for *websocket.Conn, letting
// tests drive the Connection Loop without a real socket. Writes are
// captured; ReadMessage blocks on an inbound channel until fed or closed.
type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	closed  bool

	inbound chan []byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 16)}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	data, ok := <-f.inbound
	if !ok {
		return 0, nil, errClosed
	}
	return 1, data, nil
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	f.written = append(f.written, cp)
	return nil
}

func (f *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.inbound)
	}
	return nil
}

func (f *fakeConn) lastWritten() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.written) == 0 {
		return nil
	}
	return f.written[len(f.written)-1]
}

type fakeConnError struct{ msg string }

func (e *fakeConnError) Error() string { return e.msg }

var errClosed = &fakeConnError{"fake connection closed"}

// newTestClient builds a Client over a fakeConn, suitable for exercising
// Join*/Leave/HandleFrame without a real network connection.
func newTestClient(id string, r *room.Room) (*room.Client, *fakeConn) {
	conn := newFakeConn()
	return room.NewClient(id, conn, r, 0, 0), conn
}

// containsType reports whether raw is a JSON frame whose "type"
// discriminator equals want.
func containsType(raw []byte, want string) bool {
	var env map[string]any
	return json.Unmarshal(raw, &env) == nil && env["type"] == want
}
