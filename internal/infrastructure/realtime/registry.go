package realtime

import (
	"sync"
)

// Registry tracks live websocket connections and which room each one is
// currently joined to. A connection is in at most one room at a time; joining
// a new room implicitly leaves the previous one. Fan-out is best-effort,
// at-most-once per currently open connection.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*Connection            // sessionID -> connection
	rooms       map[string]map[string]*Connection // roomID -> sessionID -> connection
	sessionRoom map[string]string                 // sessionID -> joined roomID
}

// NewRegistry constructs an initialized Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]*Connection),
		rooms:       make(map[string]map[string]*Connection),
		sessionRoom: make(map[string]string),
	}
}

// Attach registers a connection and starts its write loop.
func (r *Registry) Attach(conn *Connection) {
	r.mu.Lock()
	r.sessions[conn.ID] = conn
	r.mu.Unlock()

	conn.Start()
}

// Detach removes a connection if it is still tracked, leaving any joined room.
func (r *Registry) Detach(conn *Connection) {
	r.mu.Lock()
	r.detachLocked(conn.ID)
	r.mu.Unlock()
}

// Join binds the connection to the room as a broadcast target, replacing any
// previous room membership.
func (r *Registry) Join(roomID string, conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[conn.ID]; !ok {
		return
	}

	if prev, ok := r.sessionRoom[conn.ID]; ok && prev != roomID {
		r.leaveLocked(prev, conn.ID)
	}

	room := r.rooms[roomID]
	if room == nil {
		room = make(map[string]*Connection)
		r.rooms[roomID] = room
	}
	room[conn.ID] = conn
	r.sessionRoom[conn.ID] = roomID
}

// Room reports the room the connection is currently joined to, if any.
func (r *Registry) Room(conn *Connection) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.sessionRoom[conn.ID]
	return roomID, ok
}

// Broadcast writes payload to every connection currently joined to the room,
// the sender included. Returns the number of successful deliveries.
func (r *Registry) Broadcast(roomID string, payload []byte) int {
	r.mu.RLock()
	room := r.rooms[roomID]
	if len(room) == 0 {
		r.mu.RUnlock()
		return 0
	}

	delivered := 0
	for _, conn := range room {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	r.mu.RUnlock()
	return delivered
}

// Close terminates all tracked connections and clears registry state.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := make([]*Connection, 0, len(r.sessions))
	for _, conn := range r.sessions {
		sessions = append(sessions, conn)
	}
	r.sessions = make(map[string]*Connection)
	r.rooms = make(map[string]map[string]*Connection)
	r.sessionRoom = make(map[string]string)
	r.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "registry shutdown")
	}
}

func (r *Registry) detachLocked(sessionID string) {
	if _, ok := r.sessions[sessionID]; !ok {
		return
	}
	delete(r.sessions, sessionID)
	if roomID, ok := r.sessionRoom[sessionID]; ok {
		r.leaveLocked(roomID, sessionID)
	}
}

func (r *Registry) leaveLocked(roomID string, sessionID string) {
	room := r.rooms[roomID]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(r.rooms, roomID)
	}
	delete(r.sessionRoom, sessionID)
}
