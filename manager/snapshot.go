package manager

import (
	"github.com/bcolloran/temporal-input-buffer/core"
	"github.com/bcolloran/temporal-input-buffer/internal/diag"
)

// Snapshot captures the manager's current buffer and ack state for
// out-of-band inspection (logging, a debug endpoint, a test fixture). It
// is a point-in-time copy; nothing it returns aliases live state.
func (m *Manager[T]) Snapshot() diag.Snapshot {
	players := m.buf.Players()
	ps := make([]diag.PlayerSnapshot, len(players))
	for i, p := range players {
		b, _ := m.buf.Buffer(p)
		ft, ok := b.FinalizedThrough()
		ps[i] = diag.PlayerSnapshot{
			Player:           p,
			FinalizedThrough: ft,
			HasFinalized:     ok,
			PrunedBelow:      b.PrunedBelow(),
		}
	}

	ack := make(map[core.PlayerID]core.Tick, len(m.ackState))
	for peer, t := range m.ackState {
		ack[peer] = t
	}

	sft, haveFrontier := m.buf.SessionFinalizedThrough()
	rttMs, haveRTT := m.rtt.Get()

	return diag.Snapshot{
		LocalPlayer:             m.localPlayer,
		SessionFinalizedThrough: sft,
		HasSessionFrontier:      haveFrontier,
		Players:                 ps,
		AckState:                ack,
		RTTMs:                   rttMs,
		HasRTT:                  haveRTT,
	}
}
