// Package host implements the authoritative finalizer: the peer that
// decides which (player, tick) inputs become Finalized session-wide. It
// collects guest slices, finalizes them, acks the sender, and broadcasts
// the session's finalized inputs to every guest.
package host

import (
	"errors"

	"github.com/bcolloran/temporal-input-buffer/core"
	"github.com/bcolloran/temporal-input-buffer/core/codec"
	"github.com/bcolloran/temporal-input-buffer/core/wire"
	"github.com/bcolloran/temporal-input-buffer/manager"
)

// Manager is the host's view of a lockstep session: it owns one player
// (the host's own) and treats every other session member as a guest it
// exchanges slices with directly. Each remote peer is assumed to own
// exactly one player id, the common lockstep topology this spec's
// scenarios describe.
type Manager[T any] struct {
	mgr    *manager.Manager[T]
	guests []core.PlayerID
}

// New constructs a host Manager for localPlayer among players.
func New[T any](localPlayer core.PlayerID, players []core.PlayerID, c codec.Codec[T], cfg manager.Config, opts ...manager.Option) (*Manager[T], error) {
	m, err := manager.New[T](localPlayer, players, c, cfg, opts...)
	if err != nil {
		return nil, err
	}
	guests := make([]core.PlayerID, 0, len(players)-1)
	for _, p := range players {
		if p != localPlayer {
			guests = append(guests, p)
		}
	}
	return &Manager[T]{mgr: m, guests: guests}, nil
}

// SubmitLocalInput records the host's own input for tick as Finalized.
func (h *Manager[T]) SubmitLocalInput(tick core.Tick, v T) error {
	return h.mgr.SubmitLocalInput(tick, v)
}

// SessionFinalizedThrough returns the session-wide finalized frontier.
func (h *Manager[T]) SessionFinalizedThrough() (core.Tick, bool) {
	return h.mgr.SessionFinalizedThrough()
}

// PlayerFinalizedThrough returns player's own finalized_through watermark,
// independent of the session-wide minimum.
func (h *Manager[T]) PlayerFinalizedThrough(player core.PlayerID) (core.Tick, bool) {
	return h.mgr.PlayerFinalizedThrough(player)
}

// FinalizedSlice returns every player's finalized input in [from, to].
func (h *Manager[T]) FinalizedSlice(from, to core.Tick) (map[core.PlayerID][]T, error) {
	return h.mgr.FinalizedSlice(from, to)
}

// PredictedSlice returns every player's (possibly synthesized) input in
// [from, to].
func (h *Manager[T]) PredictedSlice(from, to core.Tick) map[core.PlayerID][]T {
	return h.mgr.PredictedSlice(from, to)
}

// ObserveRTTMsToHost feeds sampleMs into the shared RTT estimator, exactly
// as the guest's method does; it is exposed so host and guest managers
// share one call signature.
func (h *Manager[T]) ObserveRTTMsToHost(sampleMs float64) {
	h.mgr.ObserveRTTMsToHost(sampleMs)
}

// Prune drops slots below the retention watermark on every buffer.
func (h *Manager[T]) Prune() { h.mgr.Prune() }

// Guests returns the non-host player ids this manager broadcasts to.
func (h *Manager[T]) Guests() []core.PlayerID {
	out := make([]core.PlayerID, len(h.guests))
	copy(out, h.guests)
	return out
}

// IngestBytes applies every message concatenated in data, which was
// received from fromPeer. A guest's UnfinalizedSlice for its own player
// is finalized; for any other player it is silently ignored (only the
// owning peer is trusted for a player's input). Ack messages update
// ack_state for fromPeer. Malformed trailing bytes stop decoding and are
// reported, but any messages successfully decoded before the failure are
// still applied.
func (h *Manager[T]) IngestBytes(fromPeer core.PlayerID, data []byte) error {
	msgs, err := wire.DecodeAll(data, h.mgr.ByteWidth())
	for _, raw := range msgs {
		switch m := raw.(type) {
		case *wire.UnfinalizedSlice:
			h.handleUnfinalizedSlice(fromPeer, m)
		case *wire.Ack:
			h.mgr.NoteAck(fromPeer, m.UpToTick)
		case *wire.KeepAlive:
			// no state change
		}
	}
	return err
}

func (h *Manager[T]) handleUnfinalizedSlice(fromPeer core.PlayerID, m *wire.UnfinalizedSlice) {
	player := core.PlayerID(m.PlayerID)
	if player != fromPeer {
		h.mgr.LogDroppedf("unowned-player", "host: dropping slice from peer %d claiming player %d", fromPeer, player)
		return
	}
	if !h.mgr.OwnsPlayer(player) {
		h.mgr.LogDroppedf("unknown-player", "host: dropping slice for unknown player %d", player)
		return
	}
	for i, raw := range m.Inputs {
		tick := m.StartTick + core.Tick(i)
		v, err := h.mgr.Codec().Decode(raw)
		if err != nil {
			h.mgr.LogDroppedf("decode", "host: dropping malformed input for player %d tick %d: %v", player, tick, err)
			continue
		}
		if err := h.mgr.RecordFinalizedFor(player, tick, v); err != nil {
			var conflict *core.ConflictingFinalizeError
			if errors.As(err, &conflict) {
				// Host's existing finalization wins; the guest is the
				// authority for its own input, so a divergence here is a
				// protocol-level fault rather than routine packet loss.
				h.mgr.LogDroppedf("conflicting-finalize", "host: conflicting finalize from player %d at tick %d", player, tick)
				h.mgr.Metrics().IncConflict()
			}
			continue
		}
	}
	if ft, ok := h.mgr.PlayerFinalizedThrough(player); ok {
		h.mgr.QueuePendingAck(player, ft)
	}
}

// Broadcast returns, for every guest, the wire bytes the host should send
// this tick: a pending Ack (if one is owed), followed by a FinalizedSlice
// covering [ack_state[guest]+1, session_finalized_through] if that range
// is non-empty, or a KeepAlive if there is nothing new to report. Empty
// FinalizedSlices are permitted and serve the same purpose.
func (h *Manager[T]) Broadcast() map[core.PlayerID][]byte {
	out := make(map[core.PlayerID][]byte, len(h.guests))
	sft, haveFrontier := h.mgr.SessionFinalizedThrough()

	for _, g := range h.guests {
		var frames [][]byte
		if tick, ok := h.mgr.PopPendingAck(g); ok {
			frames = append(frames, wire.EncodeAck(&wire.Ack{UpToTick: tick}))
		}

		start := h.mgr.AckState(g) + 1
		if haveFrontier && start <= sft {
			rows, playerIDs, err := h.mgr.BuildFinalizedRows(start, sft)
			if err == nil {
				frames = append(frames, wire.EncodeFinalizedSlice(&wire.FinalizedSlice{
					StartTick: start,
					PlayerIDs: playerIDs,
					Inputs:    rows,
				}, h.mgr.ByteWidth()))
			}
		}
		if len(frames) == 0 {
			frames = append(frames, wire.EncodeKeepAlive())
		}
		out[g] = wire.Concat(frames...)
	}
	h.mgr.Metrics().IncOutbound(len(out))
	return out
}

// DrainOutboundBytes is an alias for Broadcast, named to match the
// library's external-interface naming in spec.md §6.
func (h *Manager[T]) DrainOutboundBytes() map[core.PlayerID][]byte {
	return h.Broadcast()
}
