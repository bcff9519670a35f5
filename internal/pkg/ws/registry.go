package ws

import (
	"sync"
)

// Registry 活跃连接登记表：用户 -> 连接集合，外加反向索引与房间集合。
// 一个用户可以同时持有多端连接。仅进程内状态，不持久化。
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn            // connID -> conn
	users map[string]map[string]Conn // userID -> connID -> conn
	rooms map[string]map[string]Conn // roomID -> connID -> conn
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]Conn),
		users: make(map[string]map[string]Conn),
		rooms: make(map[string]map[string]Conn),
	}
}

// Identify 将连接登记到用户名下，重复登记为幂等操作。
// 返回该连接是否是用户的首个活跃连接（触发上线广播的依据）。
func (r *Registry) Identify(conn Conn) (first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[conn.ID()] = conn

	set, ok := r.users[conn.UserID()]
	if !ok {
		set = make(map[string]Conn)
		r.users[conn.UserID()] = set
	}
	first = len(set) == 0
	set[conn.ID()] = conn
	return first
}

// Disconnect 注销连接。未知连接静默忽略（传输层可能重复触发断开事件）。
// last 表示这是该用户最后一条连接，应触发离线转换。
func (r *Registry) Disconnect(connID string) (userID string, last bool, known bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return "", false, false
	}
	delete(r.conns, connID)

	userID = conn.UserID()
	if set, ok := r.users[userID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.users, userID)
			last = true
		}
	}

	for roomID, members := range r.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, roomID)
		}
	}

	return userID, last, true
}

// ConnectionsFor 返回用户当前的活跃连接，可能为空
func (r *Registry) ConnectionsFor(userID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.users[userID]
	res := make([]Conn, 0, len(set))
	for _, c := range set {
		res = append(res, c)
	}
	return res
}

// AllConnections 返回全部活跃连接，用于全局广播
func (r *Registry) AllConnections() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		res = append(res, c)
	}
	return res
}

// JoinRoom 房间仅作透传分组，不参与一致性语义
func (r *Registry) JoinRoom(roomID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[conn.ID()]; !ok {
		return
	}
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]Conn)
		r.rooms[roomID] = members
	}
	members[conn.ID()] = conn
}

func (r *Registry) LeaveRoom(roomID string, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, roomID)
		}
	}
}

// RoomConnections 返回房间内的连接
func (r *Registry) RoomConnections(roomID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[roomID]
	res := make([]Conn, 0, len(members))
	for _, c := range members {
		res = append(res, c)
	}
	return res
}

// Count 当前活跃连接数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
