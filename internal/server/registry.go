package server

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ConnId identifies one live session of a user in one order's chat.
type ConnId string

func NewConnId(userId, orderId int) ConnId {
	return ConnId(fmt.Sprintf("user_%d_order_%d", userId, orderId))
}

// RoomLabel returns the broadcast domain of an order's chat.
func RoomLabel(orderId int) string {
	return fmt.Sprintf("order_%d", orderId)
}

// Peer is the transport handle the registry delivers to.
type Peer interface {
	Deliver(msg *ServerMessage) error
	Close() error
}

type DeliveryStatus int

const (
	Delivered DeliveryStatus = iota
	NotConnected
	SendFailed
)

func (d DeliveryStatus) String() string {
	switch d {
	case Delivered:
		return "delivered"
	case NotConnected:
		return "not_connected"
	case SendFailed:
		return "send_failed"
	default:
		return "unknown"
	}
}

// Registry is the process-wide directory of live chat connections and the
// rooms they joined. An id is present in rooms only while it is present in
// peers.
type Registry struct {
	log   *zap.Logger
	mu    sync.RWMutex
	peers map[ConnId]Peer
	rooms map[ConnId]map[string]struct{}
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		log:   logger,
		peers: make(map[ConnId]Peer),
		rooms: make(map[ConnId]map[string]struct{}),
	}
}

// Connect registers peer under id and adds room to the id's room set. A
// different peer previously registered under the same id is replaced and
// closed.
func (r *Registry) Connect(id ConnId, room string, peer Peer) {
	r.mu.Lock()
	old := r.peers[id]
	r.peers[id] = peer
	set, ok := r.rooms[id]
	if !ok {
		set = make(map[string]struct{})
		r.rooms[id] = set
	}
	set[room] = struct{}{}
	r.mu.Unlock()

	if old != nil && old != peer {
		r.log.Info("replacing existing connection", zap.String("conn_id", string(id)))
		if err := old.Close(); err != nil {
			r.log.Warn("close replaced connection", zap.String("conn_id", string(id)), zap.Error(err))
		}
	}
}

// Disconnect removes id from the registry. Unknown ids are ignored.
func (r *Registry) Disconnect(id ConnId, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.remove(id, room)
}

// DisconnectPeer removes id only while it is still registered to peer, so a
// session that has been replaced cannot evict its successor. It reports
// whether an entry was removed.
func (r *Registry) DisconnectPeer(id ConnId, room string, peer Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.peers[id]; !ok || cur != peer {
		return false
	}
	r.remove(id, room)

	return true
}

func (r *Registry) remove(id ConnId, room string) {
	delete(r.peers, id)
	if set, ok := r.rooms[id]; ok {
		delete(set, room)
	}
	// without a transport the id is unreachable, so its room set goes too
	delete(r.rooms, id)
}

// SendToOne hands msg to the peer registered under id without blocking.
func (r *Registry) SendToOne(id ConnId, msg *ServerMessage) DeliveryStatus {
	r.mu.RLock()
	peer, ok := r.peers[id]
	r.mu.RUnlock()

	if !ok {
		return NotConnected
	}

	if err := peer.Deliver(msg); err != nil {
		r.log.Warn("failed to deliver message",
			zap.String("conn_id", string(id)),
			zap.String("type", msg.Type),
			zap.Error(err),
		)
		return SendFailed
	}

	return Delivered
}

// BroadcastToRoom delivers msg to every id in room except exclude and
// returns the number of successful deliveries.
func (r *Registry) BroadcastToRoom(room string, msg *ServerMessage, exclude ConnId) int {
	r.mu.RLock()
	recipients := make([]ConnId, 0, len(r.rooms))
	for id, set := range r.rooms {
		if id == exclude {
			continue
		}
		if _, ok := set[room]; ok {
			recipients = append(recipients, id)
		}
	}
	r.mu.RUnlock()

	delivered := 0
	for _, id := range recipients {
		if r.SendToOne(id, msg) == Delivered {
			delivered++
		}
	}

	return delivered
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.peers)
}

// Rooms returns the rooms id has joined.
func (r *Registry) Rooms(id ConnId) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.rooms[id]
	rooms := make([]string, 0, len(set))
	for room := range set {
		rooms = append(rooms, room)
	}

	return rooms
}

// CloseAll closes every registered peer. Entries are removed by the owning
// sessions as they wind down.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	peers := make(map[ConnId]Peer, len(r.peers))
	for id, p := range r.peers {
		peers[id] = p
	}
	r.mu.RUnlock()

	for id, p := range peers {
		if err := p.Close(); err != nil {
			r.log.Warn("close connection", zap.String("conn_id", string(id)), zap.Error(err))
		}
	}
}
