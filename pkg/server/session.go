// Package server implements the Weframe collaborative video-editing
// session core: the per-room authoritative replica (Session), the
// directory of sessions with idle expiry (Manager), the per-connection
// WebSocket loop, and the HTTP surface that bootstraps them.
package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/weframe/weframe-server/internal/model"
	"github.com/weframe/weframe-server/internal/protocol"
	"github.com/weframe/weframe-server/internal/transform"
	"github.com/weframe/weframe-server/pkg/logger"
)

// Metadata holds a session's immutable-ish descriptive fields.
type Metadata struct {
	Name        string
	CreatedAt   time.Time
	MaxDuration time.Duration
}

// state is the shared mutable state protected by Session.mu. It is a
// single unit of exclusion — never split its fields across locks.
type state struct {
	project    *model.Project
	operations []protocol.OTOperation // committed history, by server_version-1 index
}

// Session is the authoritative per-room replica: project, roster,
// version counter, and broadcast fan-out, all guarded by one
// read-write exclusion.
type Session struct {
	id   string
	meta Metadata

	mu    sync.RWMutex
	st    *state
	version uint64 // server_version; starts at 0, incremented once per submit

	killed       atomic.Bool
	lastActivity atomic.Int64 // unix nanos

	subscribers map[string]chan *protocol.ServerMsg
	broadcastBufferSize int
}

// NewSession creates a new collaborative session with an empty project.
func NewSession(id string, meta Metadata, broadcastBufferSize int) *Session {
	s := &Session{
		id:   id,
		meta: meta,
		st: &state{
			project:    model.NewProject(id),
			operations: make([]protocol.OTOperation, 0),
		},
		subscribers:          make(map[string]chan *protocol.ServerMsg),
		broadcastBufferSize:  broadcastBufferSize,
	}
	s.lastActivity.Store(time.Now().UnixNano())
	return s
}

// ID returns the session's room id.
func (s *Session) ID() string { return s.id }

// LastActivity returns the time of the session's last commit, join,
// leave or chat message.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// Killed reports whether the session has been torn down.
func (s *Session) Killed() bool { return s.killed.Load() }

// ServerVersion returns the current committed version.
func (s *Session) ServerVersion() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a deep copy of the project and the server_version it
// was read at, safe to hand to a joining client.
func (s *Session) Snapshot() (*model.Project, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.project.Clone(), s.version
}

// Join registers the client's outbound channel and collaborator entry,
// then broadcasts NewClient to every subscriber, including the joiner.
// Duplicate join for an existing id is a no-op on the roster.
func (s *Session) Join(clientID, name string) (*model.Project, uint64, <-chan *protocol.ServerMsg) {
	s.mu.Lock()
	s.lastActivity.Store(time.Now().UnixNano())

	ch := make(chan *protocol.ServerMsg, s.broadcastBufferSize)
	s.subscribers[clientID] = ch

	alreadyPresent := s.st.project.HasCollaborator(clientID)
	if !alreadyPresent {
		s.st.project.Apply(model.EditOperation{AddCollaborator: &model.AddCollaboratorOp{
			Collaborator: model.Collaborator{ID: clientID, Name: name},
		}})
	}
	snapshot := s.st.project.Clone()
	version := s.version
	s.mu.Unlock()

	s.broadcast(protocol.NewNewClientMsg(clientID, name))
	return snapshot, version, ch
}

// Leave removes clientID from the roster and subscriber set and
// broadcasts ClientDisconnected.
func (s *Session) Leave(clientID string) {
	s.mu.Lock()
	s.lastActivity.Store(time.Now().UnixNano())
	s.st.project.Apply(model.EditOperation{RemoveCollaborator: &model.RemoveCollaboratorOp{ID: clientID}})
	if ch, ok := s.subscribers[clientID]; ok {
		close(ch)
		delete(s.subscribers, clientID)
	}
	s.mu.Unlock()

	s.broadcast(protocol.NewClientDisconnectedMsg(clientID))
}

// Submit is the authoritative commit path:
//  1. Update last activity.
//  2. Transform op against every committed op since op.ServerVersion.
//  3. Apply the transformed op to the project.
//  4. Increment server_version and stamp it onto the transformed op.
//  5. Broadcast the transformed op to every client, including origin.
func (s *Session) Submit(op protocol.OTOperation) protocol.OTOperation {
	s.mu.Lock()
	s.lastActivity.Store(time.Now().UnixNano())

	base := op.ServerVersion
	transformed := op
	if base < uint64(len(s.st.operations)) {
		for _, committed := range s.st.operations[base:] {
			transformed = transform.Transform(committed, transformed, s.version)
		}
	}

	s.st.project.Apply(transformed.Operation)
	s.version++
	transformed.ServerVersion = s.version
	s.st.operations = append(s.st.operations, transformed)
	s.mu.Unlock()

	logger.Debug("session %s: committed %s from %s at version %d", s.id, transformed.Operation.Kind(), transformed.ClientID, transformed.ServerVersion)

	s.broadcast(protocol.NewClientOperationMsg(transformed))
	return transformed
}

// Ping computes the elapsed time since sentAtMillis under the session's
// normal exclusion, to avoid clock skew observations across goroutines.
func (s *Session) Ping(sentAtMillis uint64) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := uint64(time.Now().UnixMilli())
	if now < sentAtMillis {
		return 0
	}
	return now - sentAtMillis
}

// SendChat rebroadcasts a chat line verbatim, uncommitted: chat never
// touches the Document Model or server_version.
func (s *Session) SendChat(clientID, message string) {
	s.lastActivity.Store(time.Now().UnixNano())
	s.broadcast(protocol.NewChatMessageMsg(clientID, message))
}

// SendError delivers a message to a single originating client.
func (s *Session) SendError(clientID, message string) {
	s.mu.RLock()
	ch, ok := s.subscribers[clientID]
	s.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case ch <- protocol.NewErrorMsg(clientID, message):
	default:
		logger.Error("session %s: error channel full for client %s, dropping", s.id, clientID)
	}
}

// broadcast fans msg out to every subscriber without holding the
// session's write exclusion across the sends: a stalled or gone client
// never blocks the commit path. Bounded channels drop the new message
// (not evict an old one) when full.
func (s *Session) broadcast(msg *protocol.ServerMsg) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, ch := range s.subscribers {
		select {
		case ch <- msg:
		default:
			logger.Error("session %s: outbound queue full for client %s, dropping message", s.id, id)
		}
	}
}

// Kill tears the session down, closing every subscriber channel so each
// connection's broadcast-forwarding goroutine observes closure and
// exits. The connection read loops are not closed by Kill.
func (s *Session) Kill() {
	if !s.killed.CompareAndSwap(false, true) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = make(map[string]chan *protocol.ServerMsg)
}
