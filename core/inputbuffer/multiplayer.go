package inputbuffer

import (
	"sort"

	"github.com/bcolloran/temporal-input-buffer/core"
	"github.com/bcolloran/temporal-input-buffer/core/codec"
)

// MultiplayerInputBuffer holds one PlayerInputBuffer per session member
// plus session-wide tick bookkeeping. The player set is fixed for the
// life of the buffer: there is no join/leave in the core.
type MultiplayerInputBuffer[T any] struct {
	codec   codec.Codec[T]
	players []core.PlayerID
	buffers map[core.PlayerID]*PlayerInputBuffer[T]
}

// NewMultiplayerInputBuffer constructs a buffer with one PlayerInputBuffer
// per id in players, sorted into a stable order.
func NewMultiplayerInputBuffer[T any](players []core.PlayerID, c codec.Codec[T]) *MultiplayerInputBuffer[T] {
	sorted := append([]core.PlayerID(nil), players...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	buffers := make(map[core.PlayerID]*PlayerInputBuffer[T], len(sorted))
	for _, p := range sorted {
		buffers[p] = NewPlayerInputBuffer[T](p, c)
	}
	return &MultiplayerInputBuffer[T]{codec: c, players: sorted, buffers: buffers}
}

// Players returns the session's stable, sorted player set. The returned
// slice must not be modified.
func (m *MultiplayerInputBuffer[T]) Players() []core.PlayerID {
	return m.players
}

// Owns reports whether player is a member of this session.
func (m *MultiplayerInputBuffer[T]) Owns(player core.PlayerID) bool {
	_, ok := m.buffers[player]
	return ok
}

// Buffer returns the named player's underlying buffer.
func (m *MultiplayerInputBuffer[T]) Buffer(player core.PlayerID) (*PlayerInputBuffer[T], bool) {
	b, ok := m.buffers[player]
	return b, ok
}

// RecordPredicted delegates to player's buffer.
func (m *MultiplayerInputBuffer[T]) RecordPredicted(player core.PlayerID, tick core.Tick, v T) error {
	b, ok := m.buffers[player]
	if !ok {
		return &core.UnknownPlayerError{Player: player}
	}
	return b.RecordPredicted(tick, v)
}

// RecordFinalized delegates to player's buffer. session_finalized_through
// is not stored: SessionFinalizedThrough derives it from the buffers on
// every call, so it reflects this write immediately.
func (m *MultiplayerInputBuffer[T]) RecordFinalized(player core.PlayerID, tick core.Tick, v T) error {
	b, ok := m.buffers[player]
	if !ok {
		return &core.UnknownPlayerError{Player: player}
	}
	return b.RecordFinalized(tick, v)
}

// SessionFinalizedThrough returns the minimum finalized_through across all
// players, or false if any player (or the session) has none.
func (m *MultiplayerInputBuffer[T]) SessionFinalizedThrough() (core.Tick, bool) {
	if len(m.players) == 0 {
		return core.NoTick, false
	}
	var min core.Tick
	for i, p := range m.players {
		ft, ok := m.buffers[p].FinalizedThrough()
		if !ok {
			return core.NoTick, false
		}
		if i == 0 || ft < min {
			min = ft
		}
	}
	return min, true
}

// PrunedBelow returns the highest retention watermark among all players'
// buffers: the floor below which a session-wide range read is stale.
func (m *MultiplayerInputBuffer[T]) PrunedBelow() core.Tick {
	var floor core.Tick
	for i, p := range m.players {
		pb := m.buffers[p].PrunedBelow()
		if i == 0 || pb > floor {
			floor = pb
		}
	}
	return floor
}

// PruneBelow prunes every player's buffer below tick.
func (m *MultiplayerInputBuffer[T]) PruneBelow(tick core.Tick) {
	for _, p := range m.players {
		m.buffers[p].PruneBelow(tick)
	}
}

// FinalizedSlice returns each player's Finalized input for every tick in
// [from, to]. It returns *core.OutOfWindowError if from is below the
// retention watermark, or *core.NotFinalizedError if any player is not
// yet finalized through to.
func (m *MultiplayerInputBuffer[T]) FinalizedSlice(from, to core.Tick) (map[core.PlayerID][]T, error) {
	if floor := m.PrunedBelow(); from < floor {
		return nil, &core.OutOfWindowError{Tick: from, RetainFloor: floor}
	}
	for _, p := range m.players {
		ft, ok := m.buffers[p].FinalizedThrough()
		if !ok || ft < to {
			return nil, &core.NotFinalizedError{Player: p, Tick: to}
		}
	}

	out := make(map[core.PlayerID][]T, len(m.players))
	for _, p := range m.players {
		vals := make([]T, 0, int(to-from)+1)
		for t := from; t <= to; t++ {
			s := m.buffers[p].Get(t)
			vals = append(vals, s.Value)
		}
		out[p] = vals
	}
	return out, nil
}

// PredictedSlice returns each player's input for every tick in [from, to],
// synthesizing Predicted values for ticks that are not yet Finalized. It
// never errors and never mutates a Finalized slot, though it may create
// new Predicted slots as a side effect of reading them (per Get).
func (m *MultiplayerInputBuffer[T]) PredictedSlice(from, to core.Tick) map[core.PlayerID][]T {
	out := make(map[core.PlayerID][]T, len(m.players))
	for _, p := range m.players {
		vals := make([]T, 0, int(to-from)+1)
		for t := from; t <= to; t++ {
			s := m.buffers[p].Get(t)
			vals = append(vals, s.Value)
		}
		out[p] = vals
	}
	return out
}
