package tcp

import (
	"log/slog"
	"sync"
)

// ConnectionManager tracks every accepted socket, authenticated or not,
// so the server can close them all on shutdown.
type ConnectionManager struct {
	clients map[string]*ClientConnection
	// key: client ID, value: ClientConnection pointer
	mu     sync.RWMutex
	logger *slog.Logger
}

// constructor for ConnectionManager
func NewConnectionManager(logger *slog.Logger) *ConnectionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectionManager{
		clients: make(map[string]*ClientConnection),
		logger:  logger,
	}
}

func (m *ConnectionManager) AddConnection(client *ClientConnection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[client.ID()] = client
	m.logger.Debug("client_added", "client_id", client.ID())
}

func (m *ConnectionManager) RemoveConnection(client *ClientConnection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, client.ID())
	m.logger.Debug("client_removed", "client_id", client.ID())
}

// Len reports the number of tracked sockets.
func (m *ConnectionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// CloseAllConnections closes every tracked socket. Each Listen loop then
// tears its own session down and unregisters itself.
func (m *ConnectionManager) CloseAllConnections() {
	m.mu.RLock()
	clients := make([]*ClientConnection, 0, len(m.clients))
	for _, client := range m.clients {
		clients = append(clients, client)
	}
	m.mu.RUnlock()

	for _, client := range clients {
		client.Close()
	}
	m.logger.Info("tcp_connections_closed", "count", len(clients))
}
