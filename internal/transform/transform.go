// Package transform implements the OT engine: a pure function that
// reconciles a client's intended operation with a server operation that
// committed ahead of it. It is deliberately not a general OT for
// arbitrary operation graphs — it is a per-pair function suitable for
// the small closed alphabet of EditOperation variants. Convergence rests
// on two properties: transforms commute on disjoint subtrees (the
// default pass-through case below), and conflicting same-target pairs
// resolve to a deterministic winner (the explicit cases below).
package transform

import (
	"time"

	"github.com/weframe/weframe-server/internal/model"
	"github.com/weframe/weframe-server/internal/protocol"
)

// Transform returns the operation that should be applied on top of
// serverOp to reflect clientOp's intent. The returned envelope carries
// clientOp's client_id and client_version and the caller-supplied
// serverVersion.
func Transform(serverOp, clientOp protocol.OTOperation, serverVersion uint64) protocol.OTOperation {
	result := clientOp
	result.ServerVersion = serverVersion
	result.Operation = transformEditOperation(serverOp.Operation, clientOp.Operation, serverOp.ClientID, clientOp.ClientID)
	return result
}

func transformEditOperation(server, client model.EditOperation, serverClientID, clientClientID string) model.EditOperation {
	switch {
	case server.AddClip != nil && client.AddClip != nil:
		return transformAddClipAddClip(server.AddClip, client.AddClip, serverClientID, clientClientID)

	case server.RemoveClip != nil && client.RemoveClip != nil:
		if server.RemoveClip.ID == client.RemoveClip.ID {
			return model.EditOperation{RemoveClip: &model.RemoveClipOp{ID: client.RemoveClip.ID}}
		}
		return client

	case server.MoveClip != nil && client.MoveClip != nil:
		if server.MoveClip.ID == client.MoveClip.ID {
			// Server wins; client's move is discarded in favor of the
			// already-committed move on the same clip.
			return model.EditOperation{MoveClip: &model.MoveClipOp{
				ID:           server.MoveClip.ID,
				NewStartTime: server.MoveClip.NewStartTime,
				NewTrack:     server.MoveClip.NewTrack,
			}}
		}
		return client

	case server.TrimClip != nil && client.TrimClip != nil:
		if server.TrimClip.ID == client.TrimClip.ID {
			return model.EditOperation{TrimClip: &model.TrimClipOp{
				ID:           client.TrimClip.ID,
				NewStartTime: maxDuration(server.TrimClip.NewStartTime, client.TrimClip.NewStartTime),
				NewEndTime:   minDuration(server.TrimClip.NewEndTime, client.TrimClip.NewEndTime),
			}}
		}
		return client

	case server.SetProjectDuration != nil && client.SetProjectDuration != nil:
		return model.EditOperation{SetProjectDuration: &model.SetProjectDurationOp{
			Duration: server.SetProjectDuration.Duration,
		}}

	default:
		// All other pairs commute: operations on disjoint subtrees (or on
		// variants with no defined conflict resolution) pass the client's
		// intent through unchanged. Cross-variant conflicts on the same
		// clip (e.g. RemoveClip vs TrimClip) are intentionally resolved
		// this way; Apply's no-op-on-missing rule makes the result safe
		// even when the client's target no longer exists.
		return client
	}
}

// transformAddClipAddClip resolves two concurrent AddClip operations.
// Tie-break is lexicographic client id: when serverOp comes from the
// smaller id, the client's clip is shifted by the server clip's duration
// so the two clips don't start at the same time. When serverOp comes
// from the larger id, the client's clip passes through unchanged.
func transformAddClipAddClip(server, client *model.AddClipOp, serverClientID, clientClientID string) model.EditOperation {
	if serverClientID < clientClientID {
		shifted := client.Clip
		offset := server.Clip.EndTime - server.Clip.StartTime
		shifted.StartTime = client.Clip.StartTime + offset
		shifted.EndTime = shifted.StartTime + (client.Clip.EndTime - client.Clip.StartTime)
		return model.EditOperation{AddClip: &model.AddClipOp{Clip: shifted}}
	}
	return model.EditOperation{AddClip: &model.AddClipOp{Clip: client.Clip}}
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
