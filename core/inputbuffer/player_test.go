package inputbuffer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bcolloran/temporal-input-buffer/core"
	"github.com/bcolloran/temporal-input-buffer/demoinput"
)

func newBuf() *PlayerInputBuffer[demoinput.Input] {
	return NewPlayerInputBuffer[demoinput.Input](0, demoinput.Codec{})
}

func TestGetBeforeAnyWriteSynthesizesDefault(t *testing.T) {
	b := newBuf()
	s := b.Get(5)
	require.Equal(t, Predicted, s.Kind)
	require.Equal(t, demoinput.Input{}, s.Value)
}

func TestRecordFinalizedAdvancesContiguousFrontier(t *testing.T) {
	b := newBuf()
	require.NoError(t, b.RecordFinalized(0, demoinput.Input{Buttons: 1}))
	ft, ok := b.FinalizedThrough()
	require.True(t, ok)
	require.Equal(t, core.Tick(0), ft)

	require.NoError(t, b.RecordFinalized(2, demoinput.Input{Buttons: 2}))
	ft, ok = b.FinalizedThrough()
	require.True(t, ok)
	require.Equal(t, core.Tick(0), ft, "tick 1 is missing, so the frontier must not jump to 2")

	require.NoError(t, b.RecordFinalized(1, demoinput.Input{Buttons: 3}))
	ft, ok = b.FinalizedThrough()
	require.True(t, ok)
	require.Equal(t, core.Tick(2), ft, "filling the gap at tick 1 should advance through the already-finalized tick 2")
}

func TestRecordFinalizedIdempotentOnEqualValue(t *testing.T) {
	b := newBuf()
	v := demoinput.Input{Buttons: 1}
	require.NoError(t, b.RecordFinalized(0, v))
	require.NoError(t, b.RecordFinalized(0, v))
}

func TestRecordFinalizedConflictOnDifferentValue(t *testing.T) {
	b := newBuf()
	require.NoError(t, b.RecordFinalized(0, demoinput.Input{Buttons: 1}))
	err := b.RecordFinalized(0, demoinput.Input{Buttons: 2})
	require.Error(t, err)
	var conflict *core.ConflictingFinalizeError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, core.Tick(0), conflict.Tick)
}

func TestRecordPredictedNeverDemotesFinalized(t *testing.T) {
	b := newBuf()
	v := demoinput.Input{Buttons: 1}
	require.NoError(t, b.RecordFinalized(5, v))

	require.NoError(t, b.RecordPredicted(5, v))
	s := b.Get(5)
	require.Equal(t, Finalized, s.Kind)

	err := b.RecordPredicted(5, demoinput.Input{Buttons: 9})
	require.Error(t, err)
	var conflict *core.ConflictingFinalizeError
	require.ErrorAs(t, err, &conflict)

	s = b.Get(5)
	require.Equal(t, Finalized, s.Kind, "a rejected predicted write must not change the slot's kind")
}

func TestGetBeyondFrontierCarriesLastObservedForward(t *testing.T) {
	b := newBuf()
	v := demoinput.Input{Buttons: 7, AxisX: 3}
	require.NoError(t, b.RecordFinalized(0, v))

	s := b.Get(10)
	require.Equal(t, Predicted, s.Kind)
	require.Equal(t, v, s.Value)

	s2 := b.Get(10)
	require.Equal(t, s, s2, "repeated Get on the same unfinalized tick must be idempotent")
}

func TestGetAtOrBelowFrontierWithNoStoredSlotIsMissing(t *testing.T) {
	b := newBuf()
	require.NoError(t, b.RecordFinalized(0, demoinput.Input{}))
	require.NoError(t, b.RecordFinalized(1, demoinput.Input{}))
	b.PruneBelow(1)

	s := b.Get(0)
	require.Equal(t, Missing, s.Kind)
}

func TestPruneBelowRespectsFinalizedThroughAndWatermark(t *testing.T) {
	b := newBuf()
	require.NoError(t, b.RecordFinalized(0, demoinput.Input{}))
	require.NoError(t, b.RecordFinalized(1, demoinput.Input{}))
	b.PruneBelow(1)
	require.Equal(t, core.Tick(1), b.PrunedBelow())

	ft, ok := b.FinalizedThrough()
	require.True(t, ok)
	require.Equal(t, core.Tick(1), ft, "pruning must never lower finalizedThrough")

	b.PruneBelow(0)
	require.Equal(t, core.Tick(1), b.PrunedBelow(), "watermark must never go backwards")
}
