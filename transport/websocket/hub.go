package websocket

import (
	"log/slog"
	"sync"
)

const lobbyGroup = "lobby"

// Hub tracks live clients and the groups they are subscribed to.
// A group is either the lobby or a game id.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]map[string]struct{}
	groups  map[string]map[*Client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With("component", "websocket-hub"),
		clients: make(map[*Client]map[string]struct{}),
		groups:  make(map[string]map[*Client]struct{}),
	}
}

func (that *Hub) register(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.clients[client] = make(map[string]struct{})
}

// unregister drops the client from every group and closes its send queue.
func (that *Hub) unregister(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	groups, ok := that.clients[client]
	if !ok {
		return
	}

	for group := range groups {
		that.leaveLocked(group, client)
	}

	delete(that.clients, client)
	close(client.send)

	that.logger.Debug("client unregistered", "clientID", client.id)
}

func (that *Hub) Join(group string, client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	groups, ok := that.clients[client]
	if !ok {
		return
	}

	members, ok := that.groups[group]
	if !ok {
		members = make(map[*Client]struct{})
		that.groups[group] = members
	}

	members[client] = struct{}{}
	groups[group] = struct{}{}
}

func (that *Hub) Leave(group string, client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.leaveLocked(group, client)
}

func (that *Hub) leaveLocked(group string, client *Client) {
	if groups, ok := that.clients[client]; ok {
		delete(groups, group)
	}

	members, ok := that.groups[group]
	if !ok {
		return
	}

	delete(members, client)

	if len(members) == 0 {
		delete(that.groups, group)
	}
}

// Broadcast queues data for every member of group.
func (that *Hub) Broadcast(group string, data []byte) {
	that.BroadcastExcept(group, data, nil)
}

// BroadcastExcept queues data for every member of group other than except.
func (that *Hub) BroadcastExcept(group string, data []byte, except *Client) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for client := range that.groups[group] {
		if client != except {
			that.enqueue(client, data)
		}
	}
}

// Send queues data for a single client. It reports false when the client is gone.
func (that *Hub) Send(client *Client, data []byte) bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if _, ok := that.clients[client]; !ok {
		return false
	}

	return that.enqueue(client, data)
}

func (that *Hub) IsMember(group string, client *Client) bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	_, ok := that.groups[group][client]

	return ok
}

// closeAll closes every live connection, which ends their read pumps.
func (that *Hub) closeAll() {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for client := range that.clients {
		_ = client.conn.Close()
	}
}

func (that *Hub) GroupSize(group string) int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.groups[group])
}

// enqueue must be called with the lock held.
func (that *Hub) enqueue(client *Client, data []byte) bool {
	select {
	case client.send <- data:
		return true
	default:
		// slow consumer, its read pump will notice the closed connection and unregister it
		that.logger.Warn("client send queue is full, closing connection", "clientID", client.id)
		_ = client.conn.Close()
		return false
	}
}
