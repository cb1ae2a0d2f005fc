package ws

import (
	"sort"
	"sync"

	"github.com/gorilla/websocket"
)

// Conn is one registered device connection. Writes are serialised;
// gorilla connections allow one writer at a time.
type Conn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// WriteJSON writes v as a JSON message on this connection.
func (d *Conn) WriteJSON(v any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conn.WriteJSON(v)
}

// Manager keeps track of recording devices connected over websocket.
type Manager struct {
	mu          sync.RWMutex
	connections map[string]*Conn // deviceID -> conn
}

func NewManager() *Manager {
	return &Manager{connections: make(map[string]*Conn)}
}

// Register registers a device connection, replacing any existing one, and
// returns the handle replies to that connection go through.
func (m *Manager) Register(deviceID string, conn *websocket.Conn) *Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.connections[deviceID]; ok && old.conn != conn {
		_ = old.conn.Close()
	}
	dc := &Conn{conn: conn}
	m.connections[deviceID] = dc
	return dc
}

// Unregister removes the device connection, but only if it is still conn.
// A device that reconnected keeps its newer connection.
func (m *Manager) Unregister(deviceID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.connections[deviceID]; ok && current.conn == conn {
		delete(m.connections, deviceID)
	}
	_ = conn.Close()
}

func (m *Manager) IsConnected(deviceID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.connections[deviceID]
	return ok
}

// List returns the connected device IDs in sorted order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.connections))
	for id := range m.connections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
