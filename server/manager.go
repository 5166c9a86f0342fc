package server

import "sync"

// SpectatorManager 管理观战连接的生命周期
type SpectatorManager struct {
	mu      sync.RWMutex
	clients map[*ClientConn]struct{}
}

func NewSpectatorManager() *SpectatorManager {
	return &SpectatorManager{clients: make(map[*ClientConn]struct{})}
}

// Add 登记连接，返回当前数量
func (m *SpectatorManager) Add(c *ClientConn) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c] = struct{}{}
	return len(m.clients)
}

// Remove 移除并关闭连接，返回当前数量
func (m *SpectatorManager) Remove(c *ClientConn) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[c]; ok {
		delete(m.clients, c)
		c.Close()
	}
	return len(m.clients)
}

func (m *SpectatorManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Broadcast 非阻塞投递给每个连接
func (m *SpectatorManager) Broadcast(b []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for c := range m.clients {
		c.Enqueue(b)
	}
}

// CloseAll 关闭全部连接
func (m *SpectatorManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for c := range m.clients {
		c.Close()
		delete(m.clients, c)
	}
}
