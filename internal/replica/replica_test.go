package replica

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weframe/weframe-server/internal/model"
	"github.com/weframe/weframe-server/internal/protocol"
)

type fakeSink struct {
	sent []protocol.OTOperation
}

func (f *fakeSink) SendOperation(op protocol.OTOperation) error {
	f.sent = append(f.sent, op)
	return nil
}

type fakeListener struct {
	joined      []string
	left        []string
	chatMessage string
}

func (l *fakeListener) OnNewClient(clientID, name string)    { l.joined = append(l.joined, name) }
func (l *fakeListener) OnClientDisconnected(clientID string) { l.left = append(l.left, clientID) }
func (l *fakeListener) OnChatMessage(clientID, message string) { l.chatMessage = message }

func TestLocalIntentAppliesOptimisticallyAndFrames(t *testing.T) {
	sink := &fakeSink{}
	r := New("alice", model.NewProject("proj1"), 0, sink)

	edit := model.EditOperation{AddClip: &model.AddClipOp{
		Clip: model.Clip{ID: "c1", StartTime: 0, EndTime: 5 * time.Second},
	}}
	require.NoError(t, r.LocalIntent(edit))

	require.Len(t, r.Project().Clips, 1)
	require.Equal(t, uint64(1), r.ClientVersion())
	require.Len(t, sink.sent, 1)
	require.Equal(t, "alice", sink.sent[0].ClientID)
	require.Equal(t, uint64(0), sink.sent[0].ClientVersion)
}

func TestOnInboundClientOperationAppliesAndAdvancesVersion(t *testing.T) {
	sink := &fakeSink{}
	r := New("alice", model.NewProject("proj1"), 0, sink)

	op := protocol.OTOperation{
		ClientID:      "bob",
		ServerVersion: 3,
		Operation: model.EditOperation{AddClip: &model.AddClipOp{
			Clip: model.Clip{ID: "c2"},
		}},
	}
	r.OnInbound(&protocol.ServerMsg{ClientOperation: &op}, nil)

	require.Len(t, r.Project().Clips, 1)
	require.Equal(t, uint64(3), r.LastServerVersion())
}

func TestOnInboundEchoOfOwnEditIsIdempotent(t *testing.T) {
	sink := &fakeSink{}
	r := New("alice", model.NewProject("proj1"), 0, sink)

	edit := model.EditOperation{AddClip: &model.AddClipOp{Clip: model.Clip{ID: "c1"}}}
	require.NoError(t, r.LocalIntent(edit))
	require.Len(t, r.Project().Clips, 1)

	echo := protocol.OTOperation{ClientID: "alice", ServerVersion: 1, Operation: edit}
	r.OnInbound(&protocol.ServerMsg{ClientOperation: &echo}, nil)

	require.Len(t, r.Project().Clips, 1)
	require.Equal(t, uint64(1), r.LastServerVersion())
}

func TestOnInboundRosterEventsNotifyListener(t *testing.T) {
	sink := &fakeSink{}
	r := New("alice", model.NewProject("proj1"), 0, sink)
	listener := &fakeListener{}

	r.OnInbound(protocol.NewNewClientMsg("bob-id", "bob"), listener)
	require.Equal(t, []string{"bob"}, listener.joined)

	r.OnInbound(protocol.NewClientDisconnectedMsg("bob-id"), listener)
	require.Equal(t, []string{"bob-id"}, listener.left)

	r.OnInbound(protocol.NewChatMessageMsg("bob-id", "hi"), listener)
	require.Equal(t, "hi", listener.chatMessage)
}
