package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/artemav/huddle/internal/core"
	"github.com/artemav/huddle/internal/domain"
)

// roomState is the registry-private record for one active room.
// Participants are keyed by user id: two connections for the same user
// collapse into a single slot and the later join's connection wins.
type roomState struct {
	id           domain.RoomID
	createdAt    time.Time
	lastActivity time.Time
	participants map[domain.UserID]*domain.Participant
}

// RoomRegistry owns all room and participant records. Rooms are created
// lazily on first join and deleted synchronously when their participant
// set becomes empty.
type RoomRegistry struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomID]*roomState
	byConn map[core.ConnectionID]domain.RoomID
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:  make(map[domain.RoomID]*roomState),
		byConn: make(map[core.ConnectionID]domain.RoomID),
	}
}

// JoinResult is returned to the joiner so it can initialize its local peer
// list without racing the user-joined broadcast.
type JoinResult struct {
	RoomID      domain.RoomID
	Participant domain.Participant
	Others      []domain.Participant
}

// LeaveInfo reports what a removal changed, for presence broadcasts.
type LeaveInfo struct {
	RoomID      domain.RoomID
	Participant domain.Participant
	Remaining   []domain.Participant
	RoomClosed  bool
}

// RoomStatsView is a read-only snapshot for get-room-stats.
type RoomStatsView struct {
	RoomID           domain.RoomID
	ParticipantCount int
	CreatedAt        time.Time
	Participants     []domain.Participant
}

// Join adds the session's user to roomID, creating the room if absent.
// The caller must have removed the connection from any previous room first
// (the orchestrator does leave-then-join within one handler invocation).
func (r *RoomRegistry) Join(sess core.PeerSession, roomID domain.RoomID) JoinResult {
	now := time.Now()
	user := sess.User()

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		room = &roomState{
			id:           roomID,
			createdAt:    now,
			participants: make(map[domain.UserID]*domain.Participant),
		}
		r.rooms[roomID] = room
		log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Msg("room created")
	}
	room.lastActivity = now

	// Same user joining again replaces the slot; the stale connection's
	// room mapping is dropped so its later leave is a no-op.
	if prev, ok := room.participants[user.ID]; ok {
		delete(r.byConn, core.ConnectionID(prev.ConnectionID))
	}

	p := &domain.Participant{
		UserID:       user.ID,
		DisplayName:  user.DisplayName,
		ConnectionID: string(sess.ID()),
		JoinedAt:     now,
		State:        domain.ConnectionStateConnecting,
	}
	others := snapshotExcept(room, user.ID)
	room.participants[user.ID] = p
	r.byConn[sess.ID()] = roomID

	log.Info().Str("module", "app.rooms").
		Str("room", string(roomID)).
		Str("user", string(user.ID)).
		Int("participants", len(room.participants)).
		Msg("participant joined")

	return JoinResult{RoomID: roomID, Participant: *p, Others: others}
}

// Leave removes the connection's participant from its current room and
// deletes the room when it empties. Returns false when the connection is
// not in any room.
func (r *RoomRegistry) Leave(connID core.ConnectionID) (LeaveInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomID, ok := r.byConn[connID]
	if !ok {
		return LeaveInfo{}, false
	}
	delete(r.byConn, connID)

	room, ok := r.rooms[roomID]
	if !ok {
		return LeaveInfo{}, false
	}
	room.lastActivity = time.Now()

	var left *domain.Participant
	for uid, p := range room.participants {
		if p.ConnectionID == string(connID) {
			left = p
			delete(room.participants, uid)
			break
		}
	}
	if left == nil {
		return LeaveInfo{}, false
	}

	info := LeaveInfo{
		RoomID:      roomID,
		Participant: *left,
		Remaining:   snapshotExcept(room, left.UserID),
	}
	if len(room.participants) == 0 {
		delete(r.rooms, roomID)
		info.RoomClosed = true
		log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Msg("room closed, last participant left")
	}
	return info, true
}

// SetMediaState applies a partial update to the connection's participant.
// A connection with no current room is a stale or late message, not a
// protocol violation, so the update silently does nothing.
func (r *RoomRegistry) SetMediaState(connID core.ConnectionID, patch domain.MediaStatePatch) (domain.Participant, []domain.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, p, ok := r.participantByConn(connID)
	if !ok {
		return domain.Participant{}, nil, false
	}
	if patch.Video != nil {
		p.VideoEnabled = *patch.Video
	}
	if patch.Audio != nil {
		p.AudioEnabled = *patch.Audio
	}
	if patch.ScreenShare != nil {
		p.ScreenShareEnabled = *patch.ScreenShare
	}
	room.lastActivity = time.Now()
	return *p, snapshotExcept(room, p.UserID), true
}

// RoomOf reports the connection's current room, if any.
func (r *RoomRegistry) RoomOf(connID core.ConnectionID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.byConn[connID]
	return roomID, ok
}

// Stats returns a snapshot of one room, or false if it does not exist.
func (r *RoomRegistry) Stats(roomID domain.RoomID) (RoomStatsView, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return RoomStatsView{}, false
	}
	return RoomStatsView{
		RoomID:           roomID,
		ParticipantCount: len(room.participants),
		CreatedAt:        room.createdAt,
		Participants:     snapshotExcept(room, ""),
	}, true
}

// RoomList is a compact listing for the REST surface.
type RoomList struct {
	RoomID           domain.RoomID `json:"roomId"`
	ParticipantCount int           `json:"participantCount"`
}

func (r *RoomRegistry) List() []RoomList {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomList, 0, len(r.rooms))
	for id, room := range r.rooms {
		out = append(out, RoomList{RoomID: id, ParticipantCount: len(room.participants)})
	}
	return out
}

// EvictIdle removes rooms whose last activity is older than ttl, even if
// they still list participants. Defensive cleanup against state leaked by
// abnormal disconnects that bypassed normal teardown.
func (r *RoomRegistry) EvictIdle(ttl time.Duration) []domain.RoomID {
	cutoff := time.Now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []domain.RoomID
	for id, room := range r.rooms {
		if room.lastActivity.After(cutoff) {
			continue
		}
		for _, p := range room.participants {
			delete(r.byConn, core.ConnectionID(p.ConnectionID))
		}
		delete(r.rooms, id)
		evicted = append(evicted, id)
	}
	return evicted
}

// Counts reports active rooms and participants for observability.
func (r *RoomRegistry) Counts() (rooms, participants int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, room := range r.rooms {
		participants += len(room.participants)
	}
	return len(r.rooms), participants
}

func (r *RoomRegistry) participantByConn(connID core.ConnectionID) (*roomState, *domain.Participant, bool) {
	roomID, ok := r.byConn[connID]
	if !ok {
		return nil, nil, false
	}
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, nil, false
	}
	for _, p := range room.participants {
		if p.ConnectionID == string(connID) {
			return room, p, true
		}
	}
	return nil, nil, false
}

func snapshotExcept(room *roomState, except domain.UserID) []domain.Participant {
	out := make([]domain.Participant, 0, len(room.participants))
	for uid, p := range room.participants {
		if uid == except {
			continue
		}
		out = append(out, *p)
	}
	return out
}
