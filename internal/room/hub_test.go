package room_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethx42/tabula-room-service/internal/room"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCreateRoomHandlerReturnsRoomID(t *testing.T) {
	h := room.NewHub(5*time.Second, 100*time.Millisecond, 0, 0, nil, nil)

	body, _ := json.Marshal(map[string]any{
		"deck": map[string]any{
			"id": "d1",
			"items": []map[string]string{
				{"id": "A1", "name": "One"},
				{"id": "A2", "name": "Two"},
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/rooms", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = req

	h.CreateRoomHandler(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp["roomId"], 4)
}

func TestCreateRoomHandlerRejectsUndersizedDeck(t *testing.T) {
	h := room.NewHub(5*time.Second, 100*time.Millisecond, 0, 0, nil, nil)

	body, _ := json.Marshal(map[string]any{
		"deck": map[string]any{
			"id":    "d1",
			"items": []map[string]string{{"id": "A1", "name": "One"}},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/rooms", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = req

	h.CreateRoomHandler(c)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestServeWsRejectsUnknownRoom(t *testing.T) {
	h := room.NewHub(5*time.Second, 100*time.Millisecond, 0, 0, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/ws/ZZZZ?role=host", nil)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = req
	c.Params = gin.Params{{Key: "roomId", Value: "ZZZZ"}}

	h.ServeWs(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeWsRejectsInvalidRole(t *testing.T) {
	h := room.NewHub(5*time.Second, 100*time.Millisecond, 0, 0, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/ws/ZZZZ?role=referee", nil)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = req
	c.Params = gin.Params{{Key: "roomId", Value: "ZZZZ"}}

	h.ServeWs(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
