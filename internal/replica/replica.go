// Package replica implements the Client Replica: the local, optimistic
// copy of a VideoProject held by a single connected editor. It follows
// the session/connection idiom used elsewhere in this module — a small
// mutex-guarded struct with explicit methods, no hidden goroutines,
// since the replica is single-threaded within its host runtime.
package replica

import (
	"fmt"
	"sync"

	"github.com/weframe/weframe-server/internal/model"
	"github.com/weframe/weframe-server/internal/protocol"
)

// OutboundSink is the transport a Replica sends locally-originated
// operations through. pkg/server's websocket connection satisfies a
// server-side analogue of this on the wire; on the client side this is
// whatever framing layer owns the socket.
type OutboundSink interface {
	SendOperation(op protocol.OTOperation) error
}

// Replica holds one client's local, optimistically-updated copy of a
// project plus the version bookkeeping needed to frame outbound edits
// and reconcile inbound ones.
type Replica struct {
	mu sync.Mutex

	project *model.Project

	clientID        string
	clientVersion   uint64
	lastServerVersion uint64

	sink OutboundSink
}

// New constructs a replica seeded with a project snapshot and the
// server_version that snapshot was taken at. The initial ProjectUpdate
// message carries only the project, not a server_version.
func New(clientID string, project *model.Project, serverVersion uint64, sink OutboundSink) *Replica {
	return &Replica{
		project:           project,
		clientID:          clientID,
		lastServerVersion: serverVersion,
		sink:              sink,
	}
}

// Project returns a snapshot of the replica's current local state.
func (r *Replica) Project() *model.Project {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.project.Clone()
}

// ClientVersion returns the number of locally-originated edits sent so
// far that have not necessarily been confirmed by the server.
func (r *Replica) ClientVersion() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clientVersion
}

// LastServerVersion returns the highest server_version this replica has
// observed via on_inbound.
func (r *Replica) LastServerVersion() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastServerVersion
}

// LocalIntent applies edit optimistically to the local project, frames
// it as an OTOperation stamped with the replica's current client_version
// and the last server_version it has observed, and sends it upstream.
// Applied locally before the send, so the editor sees its own edit with
// no round-trip latency.
func (r *Replica) LocalIntent(edit model.EditOperation) error {
	r.mu.Lock()
	op := protocol.OTOperation{
		ClientID:      r.clientID,
		ClientVersion: r.clientVersion,
		ServerVersion: r.lastServerVersion,
		Operation:     edit,
	}
	r.project.Apply(edit)
	r.clientVersion++
	r.mu.Unlock()

	if err := r.sink.SendOperation(op); err != nil {
		return fmt.Errorf("send operation: %w", err)
	}
	return nil
}

// RosterListener receives roster/chat events surfaced by on_inbound for
// messages that do not mutate the Document Model. A host embedding a
// Replica implements this to update its own UI or logs.
type RosterListener interface {
	OnNewClient(clientID, name string)
	OnClientDisconnected(clientID string)
	OnChatMessage(clientID, message string)
}

// OnInbound applies a server message to the local project and
// bookkeeping. ClientOperation is applied unconditionally, including
// echoes of the replica's own edits: Apply is idempotent for every
// operation kind (model.Project.Apply), so a double-application of an
// already-applied edit is a no-op rather than a correctness hazard.
// Unknown/empty variants are ignored. listener may be nil if the host
// does not care about roster/chat events.
func (r *Replica) OnInbound(msg *protocol.ServerMsg, listener RosterListener) {
	switch {
	case msg.ClientOperation != nil:
		r.mu.Lock()
		r.project.Apply(msg.ClientOperation.Operation)
		r.lastServerVersion = msg.ClientOperation.ServerVersion
		r.mu.Unlock()

	case msg.ProjectUpdate != nil:
		r.mu.Lock()
		r.project = msg.ProjectUpdate.Clone()
		r.mu.Unlock()

	case msg.NewClient != nil:
		if listener != nil {
			listener.OnNewClient(msg.NewClient.ClientID, msg.NewClient.Name)
		}

	case msg.ClientDisconnected != nil:
		if listener != nil {
			listener.OnClientDisconnected(*msg.ClientDisconnected)
		}

	case msg.ChatMessage != nil:
		if listener != nil {
			listener.OnChatMessage(msg.ChatMessage.ClientID, msg.ChatMessage.Message)
		}
	}
}
