package inputbuffer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bcolloran/temporal-input-buffer/core"
	"github.com/bcolloran/temporal-input-buffer/demoinput"
)

func newMultiBuf(players ...core.PlayerID) *MultiplayerInputBuffer[demoinput.Input] {
	return NewMultiplayerInputBuffer[demoinput.Input](players, demoinput.Codec{})
}

func TestPlayersAreSorted(t *testing.T) {
	m := newMultiBuf(3, 1, 2)
	require.Equal(t, []core.PlayerID{1, 2, 3}, m.Players())
}

func TestRecordFinalizedUnknownPlayer(t *testing.T) {
	m := newMultiBuf(0, 1)
	err := m.RecordFinalized(99, 0, demoinput.Input{})
	require.Error(t, err)
	var unknown *core.UnknownPlayerError
	require.ErrorAs(t, err, &unknown)
}

func TestSessionFinalizedThroughIsMinAcrossPlayers(t *testing.T) {
	m := newMultiBuf(0, 1)
	_, ok := m.SessionFinalizedThrough()
	require.False(t, ok, "no player has finalized anything yet")

	require.NoError(t, m.RecordFinalized(0, 0, demoinput.Input{}))
	require.NoError(t, m.RecordFinalized(0, 1, demoinput.Input{}))
	require.NoError(t, m.RecordFinalized(1, 0, demoinput.Input{}))
	sft, ok := m.SessionFinalizedThrough()
	require.True(t, ok)
	require.Equal(t, core.Tick(0), sft, "player 1 is still only finalized through tick 0")

	require.NoError(t, m.RecordFinalized(1, 1, demoinput.Input{}))
	sft, ok = m.SessionFinalizedThrough()
	require.True(t, ok)
	require.Equal(t, core.Tick(1), sft)
}

func TestFinalizedSliceErrorsOnUnfinalizedUpperBound(t *testing.T) {
	m := newMultiBuf(0, 1)
	require.NoError(t, m.RecordFinalized(0, 0, demoinput.Input{}))
	require.NoError(t, m.RecordFinalized(0, 1, demoinput.Input{}))

	_, err := m.FinalizedSlice(0, 1)
	require.Error(t, err)
	var notFinalized *core.NotFinalizedError
	require.ErrorAs(t, err, &notFinalized)
}

func TestFinalizedSliceErrorsBelowRetentionFloor(t *testing.T) {
	m := newMultiBuf(0, 1)
	require.NoError(t, m.RecordFinalized(0, 0, demoinput.Input{}))
	require.NoError(t, m.RecordFinalized(1, 0, demoinput.Input{}))
	require.NoError(t, m.RecordFinalized(0, 1, demoinput.Input{}))
	require.NoError(t, m.RecordFinalized(1, 1, demoinput.Input{}))
	m.PruneBelow(1)

	_, err := m.FinalizedSlice(0, 1)
	require.Error(t, err)
	var outOfWindow *core.OutOfWindowError
	require.ErrorAs(t, err, &outOfWindow)
}

func TestFinalizedSliceReturnsPerPlayerValues(t *testing.T) {
	m := newMultiBuf(0, 1)
	p0v := demoinput.Input{Buttons: demoinput.ButtonJump}
	p1v := demoinput.Input{Buttons: demoinput.ButtonFire}
	require.NoError(t, m.RecordFinalized(0, 0, p0v))
	require.NoError(t, m.RecordFinalized(1, 0, p1v))

	slice, err := m.FinalizedSlice(0, 0)
	require.NoError(t, err)
	require.Equal(t, []demoinput.Input{p0v}, slice[0])
	require.Equal(t, []demoinput.Input{p1v}, slice[1])
}

func TestPredictedSliceNeverErrors(t *testing.T) {
	m := newMultiBuf(0, 1)
	slice := m.PredictedSlice(0, 3)
	require.Len(t, slice[0], 4)
	require.Len(t, slice[1], 4)
}
