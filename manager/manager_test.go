package manager_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bcolloran/temporal-input-buffer/core"
	"github.com/bcolloran/temporal-input-buffer/demoinput"
	"github.com/bcolloran/temporal-input-buffer/manager"
)

func TestNewRejectsUnknownLocalPlayer(t *testing.T) {
	_, err := manager.New[demoinput.Input](99, []core.PlayerID{0, 1}, demoinput.Codec{}, manager.DefaultConfig())
	require.Error(t, err)
	var unknown *core.UnknownPlayerError
	require.ErrorAs(t, err, &unknown)
}

func TestNewAppliesConfigDefaults(t *testing.T) {
	m, err := manager.New[demoinput.Input](0, []core.PlayerID{0, 1}, demoinput.Codec{}, manager.Config{})
	require.NoError(t, err)
	require.Equal(t, manager.DefaultConfig(), m.Config())
}

func TestSubmitLocalInputAndOutboundSlice(t *testing.T) {
	m, err := manager.New[demoinput.Input](0, []core.PlayerID{0, 1}, demoinput.Codec{}, manager.DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, m.SubmitLocalInput(0, demoinput.Input{Buttons: 1}))
	require.NoError(t, m.SubmitLocalInput(1, demoinput.Input{Buttons: 2}))

	start, inputs, err := m.OutboundSliceFor(1, 0)
	require.NoError(t, err)
	require.Equal(t, core.Tick(0), start)
	require.Equal(t, []demoinput.Input{{Buttons: 1}, {Buttons: 2}}, inputs)
}

func TestOutboundSliceForRespectsAckState(t *testing.T) {
	m, err := manager.New[demoinput.Input](0, []core.PlayerID{0, 1}, demoinput.Codec{}, manager.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, m.SubmitLocalInput(0, demoinput.Input{}))
	require.NoError(t, m.SubmitLocalInput(1, demoinput.Input{}))
	m.NoteAck(1, 0)

	start, inputs, err := m.OutboundSliceFor(1, 0)
	require.NoError(t, err)
	require.Equal(t, core.Tick(1), start)
	require.Len(t, inputs, 1)
}

func TestOutboundSliceForWindowCap(t *testing.T) {
	m, err := manager.New[demoinput.Input](0, []core.PlayerID{0, 1}, demoinput.Codec{}, manager.DefaultConfig())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, m.SubmitLocalInput(core.Tick(i), demoinput.Input{}))
	}
	_, inputs, err := m.OutboundSliceFor(1, 3)
	require.NoError(t, err)
	require.Len(t, inputs, 3)
}

func TestPendingAckQueueAndPop(t *testing.T) {
	m, err := manager.New[demoinput.Input](0, []core.PlayerID{0, 1}, demoinput.Codec{}, manager.DefaultConfig())
	require.NoError(t, err)

	_, ok := m.PopPendingAck(1)
	require.False(t, ok)

	m.QueuePendingAck(1, 5)
	m.QueuePendingAck(1, 3) // lower value must not override
	tick, ok := m.PopPendingAck(1)
	require.True(t, ok)
	require.Equal(t, core.Tick(5), tick)

	_, ok = m.PopPendingAck(1)
	require.False(t, ok, "popping clears the pending ack")
}

func TestNoteAckIsMonotone(t *testing.T) {
	m, err := manager.New[demoinput.Input](0, []core.PlayerID{0, 1}, demoinput.Codec{}, manager.DefaultConfig())
	require.NoError(t, err)
	m.NoteAck(1, 10)
	m.NoteAck(1, 5)
	require.Equal(t, core.Tick(10), m.AckState(1))
}

func TestPruneIsNoopWithoutSessionFrontier(t *testing.T) {
	m, err := manager.New[demoinput.Input](0, []core.PlayerID{0, 1}, demoinput.Codec{}, manager.DefaultConfig())
	require.NoError(t, err)
	m.Prune()
	require.Equal(t, core.Tick(0), m.PrunedBelow())
}

func TestBuildFinalizedRowsMatchesSessionFrontier(t *testing.T) {
	m, err := manager.New[demoinput.Input](0, []core.PlayerID{0, 1}, demoinput.Codec{}, manager.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, m.RecordFinalizedFor(0, 0, demoinput.Input{Buttons: 1}))
	require.NoError(t, m.RecordFinalizedFor(1, 0, demoinput.Input{Buttons: 2}))

	rows, playerIDs, err := m.BuildFinalizedRows(0, 0)
	require.NoError(t, err)
	require.Equal(t, []uint16{0, 1}, playerIDs)
	require.Len(t, rows, 1)
	require.Len(t, rows[0], 2)
}

func TestRTTEstimator(t *testing.T) {
	m, err := manager.New[demoinput.Input](0, []core.PlayerID{0, 1}, demoinput.Codec{}, manager.DefaultConfig())
	require.NoError(t, err)
	_, ok := m.RTTMs()
	require.False(t, ok)
	m.ObserveRTTMsToHost(50)
	v, ok := m.RTTMs()
	require.True(t, ok)
	require.Equal(t, 50.0, v)
}
