package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motomarket-chat/internal/auth"
	"motomarket-chat/internal/chat"
	"motomarket-chat/internal/models"
	"motomarket-chat/internal/repositories"
)

type marketplace struct {
	router *gin.Engine
	tokens *auth.TokenManager
}

func newMarketplace(t *testing.T) *marketplace {
	return newMarketplaceWithDebug(t, false)
}

func newMarketplaceWithDebug(t *testing.T, debug bool) *marketplace {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := repositories.NewMemoryStore()
	store.PutUser(models.User{ID: "u1", FirstName: "Ana", LastName: "Buyer"})
	store.PutUser(models.User{ID: "u2", FirstName: "Sam", LastName: "Seller"})
	store.PutUser(models.User{ID: "u3", FirstName: "Eve", LastName: "Outsider"})
	store.PutVehicle(models.Vehicle{ID: "v1", SellerID: "u2", Brand: "Ducati", Model: "Monster", Year: 2020, Price: 890000})

	svc := chat.NewService(chat.Deps{Rooms: store, Messages: store, Users: store, Vehicles: store, Logger: logger})
	tokens := auth.NewTokenManager("scenario-secret", time.Hour)
	router := NewRouter(RouterDeps{
		Service:     svc,
		Connections: fixedCounter(0),
		Tokens:      tokens,
		Logger:      logger,
		ServiceName: "chat-test",
		Debug:       debug,
	})
	return &marketplace{router: router, tokens: tokens}
}

func (m *marketplace) do(t *testing.T, userID, role, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := m.tokens.Issue(userID, role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	m.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestBuyerSellerOutsiderScenario(t *testing.T) {
	m := newMarketplace(t)

	// buyer opens a room on the listing
	rec := m.do(t, "u1", "user", http.MethodPost, "/chat-rooms", `{"vehicleId":"v1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	room := decode[models.ChatRoom](t, rec)
	assert.Equal(t, "u2", room.SellerID)

	// asking again returns the same room
	rec = m.do(t, "u1", "user", http.MethodPost, "/chat-rooms", `{"vehicleId":"v1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, room.ID, decode[models.ChatRoom](t, rec).ID)

	// the seller cannot open a room on their own listing
	rec = m.do(t, "u2", "user", http.MethodPost, "/chat-rooms", `{"vehicleId":"v1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = m.do(t, "u1", "user", http.MethodPost, "/chat-rooms", `{"vehicleId":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = m.do(t, "u1", "user", http.MethodPost, "/chat-rooms/"+room.ID+"/messages", `{"content":"Hi, is the Monster available?"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = m.do(t, "u2", "user", http.MethodPost, "/chat-rooms/"+room.ID+"/messages", `{"content":"Yes, come by Saturday"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// the outsider can neither read nor write
	rec = m.do(t, "u3", "user", http.MethodGet, "/chat-rooms/"+room.ID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = m.do(t, "u3", "user", http.MethodPost, "/chat-rooms/"+room.ID+"/messages", `{"content":"me too"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = m.do(t, "u3", "user", http.MethodGet, "/chat-rooms", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[struct {
		ChatRooms []models.ChatRoomDetails `json:"chatRooms"`
	}](t, rec).ChatRooms)

	// the seller sees the room with ordered, enriched history
	rec = m.do(t, "u2", "user", http.MethodGet, "/chat-rooms/"+room.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	details := decode[models.ChatRoomDetails](t, rec)
	require.Len(t, details.Messages, 2)
	assert.Equal(t, "Hi, is the Monster available?", details.Messages[0].Content)
	assert.Equal(t, "Ana", details.Messages[0].Sender.FirstName)
	assert.Equal(t, "Yes, come by Saturday", details.Messages[1].Content)
	require.NotNil(t, details.Vehicle)
	assert.Equal(t, "Ducati", details.Vehicle.Brand)
	assert.Equal(t, "Sam", details.Seller.FirstName)

	rec = m.do(t, "u1", "user", http.MethodGet, "/chat-rooms/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterAuthAndAdminGates(t *testing.T) {
	m := newMarketplace(t)

	rec := m.do(t, "", "", http.MethodGet, "/chat-rooms", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = m.do(t, "u1", "user", http.MethodGet, "/admin/chat-stats", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_ = m.do(t, "u1", "user", http.MethodPost, "/chat-rooms", `{"vehicleId":"v1"}`)

	rec = m.do(t, "root", auth.RoleAdmin, http.MethodGet, "/admin/chat-stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[models.ChatStats](t, rec).Rooms)

	rec = m.do(t, "root", auth.RoleAdmin, http.MethodDelete, "/admin/chat-rooms", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[models.ClearResult](t, rec).Rooms)

	rec = m.do(t, "u1", "user", http.MethodGet, "/chat-rooms", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"chatRooms":[]`)
}

func TestRouterHealthAndMetrics(t *testing.T) {
	m := newMarketplace(t)

	rec := m.do(t, "", "", http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = m.do(t, "", "", http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chat_http_requests_total")
}

func TestDebugRoutesRequireAdmin(t *testing.T) {
	m := newMarketplaceWithDebug(t, true)

	rec := m.do(t, "u1", "user", http.MethodGet, "/admin/debug/connections", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = m.do(t, "u1", "user", http.MethodGet, "/debug/connections", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = m.do(t, "root", auth.RoleAdmin, http.MethodGet, "/admin/debug/connections", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"liveConnections":0}`, rec.Body.String())
}
