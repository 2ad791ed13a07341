package ws

import (
	"log/slog"
	"sync"

	"motomarket-chat/internal/observability"
)

// Registry maps a user id to that user's single live connection.
// A later registration for the same user wins.
type Registry struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		logger:  logger.With("component", "ws_registry"),
	}
}

// Register binds userID to client. An earlier client of the same user is
// superseded but left open; its later Unregister is a no-op.
func (r *Registry) Register(userID string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.clients[userID]; ok && prev != client {
		prev.registeredAs = ""
		r.logger.Debug("connection superseded", "user_id", userID, "conn_id", prev.info.ConnID)
	}
	if client.registeredAs != "" && client.registeredAs != userID && r.clients[client.registeredAs] == client {
		delete(r.clients, client.registeredAs)
	}
	client.registeredAs = userID
	r.clients[userID] = client
	observability.SetRegisteredUsers(len(r.clients))
}

// Unregister removes client if it is still the registered connection of its user.
func (r *Registry) Unregister(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID := client.registeredAs
	if userID == "" {
		return
	}
	if r.clients[userID] == client {
		delete(r.clients, userID)
	}
	client.registeredAs = ""
	observability.SetRegisteredUsers(len(r.clients))
}

// ConnectionFor returns the live connection of userID.
func (r *Registry) ConnectionFor(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	if !ok || c.Closed() {
		return nil, false
	}
	return c, true
}

// Count returns the number of registered users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Shutdown closes every registered connection and empties the registry.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		c.registeredAs = ""
		clients = append(clients, c)
	}
	r.clients = make(map[string]*Client)
	observability.SetRegisteredUsers(0)
	r.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	r.logger.Info("websocket registry shut down", "closed", len(clients))
}
