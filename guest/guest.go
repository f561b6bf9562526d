// Package guest implements a non-authoritative session member: it sends
// its own unfinalized inputs toward the host, ingests the host's
// finalized broadcasts, and tracks ack state for both streams.
package guest

import (
	"errors"

	"github.com/bcolloran/temporal-input-buffer/core"
	"github.com/bcolloran/temporal-input-buffer/core/codec"
	"github.com/bcolloran/temporal-input-buffer/core/wire"
	"github.com/bcolloran/temporal-input-buffer/manager"
)

// Manager is the guest's view of a lockstep session.
type Manager[T any] struct {
	mgr      *manager.Manager[T]
	hostPeer core.PlayerID
}

// New constructs a guest Manager for localPlayer, given the host's player
// id and the session's full player set.
func New[T any](localPlayer, hostPlayer core.PlayerID, players []core.PlayerID, c codec.Codec[T], cfg manager.Config, opts ...manager.Option) (*Manager[T], error) {
	m, err := manager.New[T](localPlayer, players, c, cfg, opts...)
	if err != nil {
		return nil, err
	}
	if !m.OwnsPlayer(hostPlayer) {
		return nil, &core.UnknownPlayerError{Player: hostPlayer}
	}
	return &Manager[T]{mgr: m, hostPeer: hostPlayer}, nil
}

// SubmitLocalInput records the guest's own input for tick as Finalized.
// It also implicitly marks the tick as needing transmission: the next
// OutboundToHost/DrainOutboundBytes call will include it until the host
// acks it.
func (g *Manager[T]) SubmitLocalInput(tick core.Tick, v T) error {
	return g.mgr.SubmitLocalInput(tick, v)
}

// SessionFinalizedThrough returns the session-wide finalized frontier as
// observed locally.
func (g *Manager[T]) SessionFinalizedThrough() (core.Tick, bool) {
	return g.mgr.SessionFinalizedThrough()
}

// FinalizedSlice returns every player's finalized input in [from, to].
func (g *Manager[T]) FinalizedSlice(from, to core.Tick) (map[core.PlayerID][]T, error) {
	return g.mgr.FinalizedSlice(from, to)
}

// PredictedSlice returns every player's (possibly synthesized) input in
// [from, to].
func (g *Manager[T]) PredictedSlice(from, to core.Tick) map[core.PlayerID][]T {
	return g.mgr.PredictedSlice(from, to)
}

// ObserveRTTMsToHost feeds an externally-measured round trip sample into
// the RTT estimator.
func (g *Manager[T]) ObserveRTTMsToHost(sampleMs float64) {
	g.mgr.ObserveRTTMsToHost(sampleMs)
}

// Prune drops slots below the retention watermark on every buffer.
func (g *Manager[T]) Prune() { g.mgr.Prune() }

// IngestBytes applies every message concatenated in data, received from
// the host. FinalizedSlice entries are recorded as Finalized for every
// (player, tick) they cover; Ack entries advance ack_state for the host.
func (g *Manager[T]) IngestBytes(data []byte) error {
	msgs, err := wire.DecodeAll(data, g.mgr.ByteWidth())
	for _, raw := range msgs {
		switch m := raw.(type) {
		case *wire.FinalizedSlice:
			g.handleFinalizedSlice(m)
		case *wire.Ack:
			g.mgr.NoteAck(g.hostPeer, m.UpToTick)
		case *wire.KeepAlive:
			// no state change
		}
	}
	return err
}

func (g *Manager[T]) handleFinalizedSlice(m *wire.FinalizedSlice) {
	count := len(m.Inputs)
	for ti := 0; ti < count; ti++ {
		tick := m.StartTick + core.Tick(ti)
		row := m.Inputs[ti]
		for pi, rawPlayer := range m.PlayerIDs {
			if pi >= len(row) {
				break
			}
			player := core.PlayerID(rawPlayer)
			if !g.mgr.OwnsPlayer(player) {
				g.mgr.LogDroppedf("unknown-player", "guest: dropping broadcast entry for unknown player %d", player)
				continue
			}
			v, err := g.mgr.Codec().Decode(row[pi])
			if err != nil {
				g.mgr.LogDroppedf("decode", "guest: dropping malformed input for player %d tick %d: %v", player, tick, err)
				continue
			}
			if err := g.mgr.RecordFinalizedFor(player, tick, v); err != nil {
				var conflict *core.ConflictingFinalizeError
				if errors.As(err, &conflict) {
					g.mgr.LogDroppedf("conflicting-finalize", "guest: conflicting finalize for player %d at tick %d", player, tick)
					g.mgr.Metrics().IncConflict()
				}
				continue
			}
		}
	}
	if sft, ok := g.mgr.SessionFinalizedThrough(); ok {
		g.mgr.QueuePendingAck(g.hostPeer, sft)
	}
}

// OutboundToHost returns the guest's unfinalized slice toward the host:
// start = host_ack+1 through the guest's highest locally-produced tick,
// capped at the configured outbound window. ok is false when there is
// nothing new to send (the caller should fall back to a KeepAlive).
func (g *Manager[T]) OutboundToHost() (start core.Tick, inputs []T, ok bool) {
	start, inputs, _ = g.mgr.OutboundSliceFor(g.hostPeer, g.mgr.Config().OutboundWindowTicks)
	return start, inputs, len(inputs) > 0
}

// DrainOutboundBytes returns the wire bytes the guest should send to the
// host this tick: a pending Ack (if one is owed), followed by an
// UnfinalizedSlice if there is new local input to report, or a KeepAlive
// if there is nothing new. Until the host acks a tick, it keeps
// reappearing in this slice: retransmission is implicit in how
// OutboundToHost computes its starting point from ack_state, not an
// explicit retry timer.
func (g *Manager[T]) DrainOutboundBytes() []byte {
	var frames [][]byte
	if tick, ok := g.mgr.PopPendingAck(g.hostPeer); ok {
		frames = append(frames, wire.EncodeAck(&wire.Ack{UpToTick: tick}))
	}

	start, inputs, ok := g.OutboundToHost()
	if ok {
		raws := make([][]byte, len(inputs))
		for i, v := range inputs {
			raws[i] = g.mgr.Codec().Encode(v)
		}
		frames = append(frames, wire.EncodeUnfinalizedSlice(&wire.UnfinalizedSlice{
			PlayerID:  uint16(g.mgr.LocalPlayer()),
			StartTick: start,
			Inputs:    raws,
		}, g.mgr.ByteWidth()))
	}
	if len(frames) == 0 {
		frames = append(frames, wire.EncodeKeepAlive())
	}
	out := wire.Concat(frames...)
	g.mgr.Metrics().IncOutbound(1)
	return out
}
