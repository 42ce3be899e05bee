package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weframe/weframe-server/internal/model"
	"github.com/weframe/weframe-server/internal/protocol"
)

func TestTransformTrimClipSameTargetIntersects(t *testing.T) {
	server := protocol.OTOperation{
		ClientID: "a",
		Operation: model.EditOperation{TrimClip: &model.TrimClipOp{
			ID: "c1", NewStartTime: 2 * time.Second, NewEndTime: 8 * time.Second,
		}},
	}
	client := protocol.OTOperation{
		ClientID: "b",
		Operation: model.EditOperation{TrimClip: &model.TrimClipOp{
			ID: "c1", NewStartTime: 0, NewEndTime: 6 * time.Second,
		}},
	}

	result := Transform(server, client, 5)

	require.Equal(t, uint64(5), result.ServerVersion)
	require.NotNil(t, result.Operation.TrimClip)
	require.Equal(t, 2*time.Second, result.Operation.TrimClip.NewStartTime)
	require.Equal(t, 6*time.Second, result.Operation.TrimClip.NewEndTime)
}

func TestTransformMoveClipSameTargetServerWins(t *testing.T) {
	server := protocol.OTOperation{ClientID: "a", Operation: model.EditOperation{MoveClip: &model.MoveClipOp{ID: "c1", NewStartTime: time.Second, NewTrack: 1}}}
	client := protocol.OTOperation{ClientID: "b", Operation: model.EditOperation{MoveClip: &model.MoveClipOp{ID: "c1", NewStartTime: 2 * time.Second, NewTrack: 2}}}

	result := Transform(server, client, 9)

	require.Equal(t, time.Second, result.Operation.MoveClip.NewStartTime)
	require.Equal(t, 1, result.Operation.MoveClip.NewTrack)
}

func TestTransformAddClipAddClipDeterministicTiebreak(t *testing.T) {
	server := protocol.OTOperation{ClientID: "aaa", Operation: model.EditOperation{AddClip: &model.AddClipOp{
		Clip: model.Clip{ID: "s1", StartTime: 0, EndTime: 5 * time.Second},
	}}}
	client := protocol.OTOperation{ClientID: "bbb", Operation: model.EditOperation{AddClip: &model.AddClipOp{
		Clip: model.Clip{ID: "c1", StartTime: 0, EndTime: 3 * time.Second},
	}}}

	result := Transform(server, client, 1)

	require.Equal(t, 5*time.Second, result.Operation.AddClip.Clip.StartTime)
	require.Equal(t, 8*time.Second, result.Operation.AddClip.Clip.EndTime)

	// Swapping which operation is "server" and which is "client" must not
	// change who absorbs the shift: "aaa" is still the lexicographically
	// smaller id, so its clip ("s1") still passes through unmodified.
	reversed := Transform(client, server, 1)
	require.Equal(t, "s1", reversed.Operation.AddClip.Clip.ID)
	require.Equal(t, time.Duration(0), reversed.Operation.AddClip.Clip.StartTime)
}

func TestTransformDisjointPairsPassThroughUnchanged(t *testing.T) {
	server := protocol.OTOperation{ClientID: "a", Operation: model.EditOperation{RemoveClip: &model.RemoveClipOp{ID: "other"}}}
	client := protocol.OTOperation{ClientID: "b", Operation: model.EditOperation{MoveClip: &model.MoveClipOp{ID: "c1", NewStartTime: time.Second}}}

	result := Transform(server, client, 4)

	require.Equal(t, client.Operation, result.Operation)
}

func TestTransformConvergesRegardlessOfApplicationOrder(t *testing.T) {
	base := model.NewProject("p1")
	base.Apply(model.EditOperation{AddClip: &model.AddClipOp{Clip: model.Clip{ID: "c1", StartTime: 0, EndTime: 10 * time.Second}}})

	serverOp := protocol.OTOperation{ClientID: "srv", Operation: model.EditOperation{TrimClip: &model.TrimClipOp{ID: "c1", NewStartTime: 0, NewEndTime: 8 * time.Second}}}
	clientOp := protocol.OTOperation{ClientID: "cli", Operation: model.EditOperation{TrimClip: &model.TrimClipOp{ID: "c1", NewStartTime: 1 * time.Second, NewEndTime: 10 * time.Second}}}

	serverSide := base.Clone()
	serverSide.Apply(serverOp.Operation)
	transformedForClient := Transform(serverOp, clientOp, 1)
	serverSide.Apply(transformedForClient.Operation)

	clientSide := base.Clone()
	clientSide.Apply(clientOp.Operation)
	transformedForServer := Transform(clientOp, serverOp, 1)
	clientSide.Apply(transformedForServer.Operation)

	require.Equal(t, serverSide.ClipByID("c1"), clientSide.ClipByID("c1"))
}
