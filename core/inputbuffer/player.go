// Package inputbuffer implements the per-player and multiplayer input
// history: an ordered tick -> slot mapping with a finalized-through
// watermark and a "last observation carried forward" prediction policy.
package inputbuffer

import (
	"github.com/bcolloran/temporal-input-buffer/core"
	"github.com/bcolloran/temporal-input-buffer/core/codec"
)

// PlayerInputBuffer holds one player's tick -> slot history.
type PlayerInputBuffer[T any] struct {
	codec  codec.Codec[T]
	player core.PlayerID

	slots map[core.Tick]Slot[T]

	// finalizedThrough is the largest tick t such that every tick in
	// [0, t] is Finalized, or core.NoTick if tick 0 is not yet finalized.
	finalizedThrough core.Tick

	// highestFinalized is the largest tick ever finalized, contiguous or
	// not; it drives lastObserved independently of finalizedThrough.
	highestFinalized core.Tick

	// lastObserved is the most recently finalized input value, used as
	// the carried-forward prediction. Nil until the first finalize.
	lastObserved *T

	// prunedBelow is the retention watermark: slots below it have been
	// removed by PruneBelow. It never lowers finalizedThrough.
	prunedBelow core.Tick
}

// NewPlayerInputBuffer constructs an empty buffer for one player.
func NewPlayerInputBuffer[T any](player core.PlayerID, c codec.Codec[T]) *PlayerInputBuffer[T] {
	return &PlayerInputBuffer[T]{
		codec:            c,
		player:           player,
		slots:            make(map[core.Tick]Slot[T]),
		finalizedThrough: core.NoTick,
		highestFinalized: core.NoTick,
		prunedBelow:      0,
	}
}

// RecordPredicted writes a Predicted slot at tick. If the slot is already
// Finalized with a different encoded value, it returns
// *core.ConflictingFinalizeError and leaves state unchanged. If the slot
// is already Finalized with an equal value, the write is a silent no-op:
// a Finalized slot is never demoted back to Predicted.
func (b *PlayerInputBuffer[T]) RecordPredicted(tick core.Tick, v T) error {
	if existing, ok := b.slots[tick]; ok && existing.Kind == Finalized {
		if !codec.Equal(b.codec, existing.Value, v) {
			return &core.ConflictingFinalizeError{
				Player:    b.player,
				Tick:      tick,
				Existing:  b.codec.Encode(existing.Value),
				Attempted: b.codec.Encode(v),
			}
		}
		return nil
	}
	b.slots[tick] = Slot[T]{Kind: Predicted, Value: v}
	return nil
}

// RecordFinalized writes a Finalized slot at tick. Re-finalizing with an
// equal value is idempotent. Re-finalizing with a different value returns
// *core.ConflictingFinalizeError and leaves the existing value in place.
// Finalizing tick == finalizedThrough+1 (or tick 0 when finalizedThrough
// is none) advances finalizedThrough as far as contiguous Finalized slots
// reach. lastObserved is updated whenever tick exceeds the highest tick
// ever finalized, independent of contiguity.
func (b *PlayerInputBuffer[T]) RecordFinalized(tick core.Tick, v T) error {
	if existing, ok := b.slots[tick]; ok && existing.Kind == Finalized {
		if !codec.Equal(b.codec, existing.Value, v) {
			return &core.ConflictingFinalizeError{
				Player:    b.player,
				Tick:      tick,
				Existing:  b.codec.Encode(existing.Value),
				Attempted: b.codec.Encode(v),
			}
		}
		return nil
	}

	b.slots[tick] = Slot[T]{Kind: Finalized, Value: v}

	if tick == b.finalizedThrough+1 || (b.finalizedThrough == core.NoTick && tick == 0) {
		t := tick
		for {
			s, ok := b.slots[t]
			if !ok || s.Kind != Finalized {
				break
			}
			b.finalizedThrough = t
			t++
		}
	}

	if b.highestFinalized == core.NoTick || tick > b.highestFinalized {
		b.highestFinalized = tick
		vv := v
		b.lastObserved = &vv
	}

	return nil
}

// Get returns the stored slot at tick. If no slot is stored and tick is
// beyond finalizedThrough, a Predicted slot is synthesized via the "last
// observation carried forward" policy, stored, and returned: repeated
// Get calls for the same unfinalized tick are idempotent until a
// Finalized write changes the value.
func (b *PlayerInputBuffer[T]) Get(tick core.Tick) Slot[T] {
	if s, ok := b.slots[tick]; ok {
		return s
	}
	if tick <= b.finalizedThrough {
		return Slot[T]{Kind: Missing}
	}

	var v T
	if b.lastObserved != nil {
		v = *b.lastObserved
	} else {
		v = b.codec.Default()
	}
	s := Slot[T]{Kind: Predicted, Value: v}
	b.slots[tick] = s
	return s
}

// PruneBelow removes all slots with tick' < tick. finalizedThrough is
// never lowered by pruning.
func (b *PlayerInputBuffer[T]) PruneBelow(tick core.Tick) {
	if tick <= 0 {
		return
	}
	for t := range b.slots {
		if t < tick {
			delete(b.slots, t)
		}
	}
	if tick > b.prunedBelow {
		b.prunedBelow = tick
	}
}

// FinalizedThrough returns the buffer's finalized-through watermark, and
// false if no tick has ever been finalized.
func (b *PlayerInputBuffer[T]) FinalizedThrough() (core.Tick, bool) {
	if b.finalizedThrough == core.NoTick {
		return core.NoTick, false
	}
	return b.finalizedThrough, true
}

// PrunedBelow returns the buffer's retention watermark.
func (b *PlayerInputBuffer[T]) PrunedBelow() core.Tick {
	return b.prunedBelow
}

// Player returns the id this buffer belongs to.
func (b *PlayerInputBuffer[T]) Player() core.PlayerID {
	return b.player
}
