// Package manager implements the logic shared by host and guest
// managers: applying inbound slices, producing outbound slices, pruning,
// tracking per-peer ack state, and smoothing an externally-supplied RTT
// sample. It is generalized from the ack/retransmit bookkeeping the
// teacher's client2 package performs for its ARQ layer, adapted to a
// synchronous, atemporal core: nothing here starts a goroutine, reads a
// clock, or retries on a timer. The owner drives every transition by
// calling a method.
package manager

import (
	"errors"
	"os"

	"github.com/charmbracelet/log"

	"github.com/bcolloran/temporal-input-buffer/core"
	"github.com/bcolloran/temporal-input-buffer/core/codec"
	"github.com/bcolloran/temporal-input-buffer/core/ewma"
	"github.com/bcolloran/temporal-input-buffer/core/inputbuffer"
	"github.com/bcolloran/temporal-input-buffer/internal/metrics"
)

// Manager holds the state and operations common to HostManager and
// GuestManager: the multiplayer input buffer, local production tracking,
// per-peer ack state, the RTT estimator, and pending acks awaiting
// transmission.
type Manager[T any] struct {
	codec       codec.Codec[T]
	localPlayer core.PlayerID
	cfg         Config

	buf                      *inputbuffer.MultiplayerInputBuffer[T]
	highestLocalTickProduced core.Tick

	ackState    map[core.PlayerID]core.Tick
	pendingAcks map[core.PlayerID]core.Tick

	rtt *ewma.EWMA

	log     *log.Logger
	metrics *metrics.Registry
}

// Option configures a Manager at construction time.
type Option func(*options)

type options struct {
	logger  *log.Logger
	metrics *metrics.Registry
}

// WithLogger overrides the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics attaches a metrics registry; nil (the default) disables
// metrics recording entirely.
func WithMetrics(r *metrics.Registry) Option {
	return func(o *options) { o.metrics = r }
}

// New constructs a Manager for localPlayer among players, using c to
// encode/decode the input type and cfg (zero fields fall back to
// DefaultConfig's values).
func New[T any](localPlayer core.PlayerID, players []core.PlayerID, c codec.Codec[T], cfg Config, opts ...Option) (*Manager[T], error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false, Prefix: "lockstep"})
	}

	cfg = cfg.withDefaults()
	if cfg.EWMAAlpha <= 0 || cfg.EWMAAlpha > 1 {
		return nil, errors.New("manager: EWMAAlpha must be in (0, 1]")
	}
	rtt, err := ewma.New(cfg.EWMAAlpha)
	if err != nil {
		return nil, err
	}

	found := false
	for _, p := range players {
		if p == localPlayer {
			found = true
			break
		}
	}
	if !found {
		return nil, &core.UnknownPlayerError{Player: localPlayer}
	}

	return &Manager[T]{
		codec:                    c,
		localPlayer:              localPlayer,
		cfg:                      cfg,
		buf:                      inputbuffer.NewMultiplayerInputBuffer[T](players, c),
		highestLocalTickProduced: core.NoTick,
		ackState:                 make(map[core.PlayerID]core.Tick),
		pendingAcks:              make(map[core.PlayerID]core.Tick),
		rtt:                      rtt,
		log:                      o.logger,
		metrics:                  o.metrics,
	}, nil
}

// LocalPlayer returns the manager's own player id.
func (m *Manager[T]) LocalPlayer() core.PlayerID { return m.localPlayer }

// Codec returns the input codec this manager was constructed with.
func (m *Manager[T]) Codec() codec.Codec[T] { return m.codec }

// ByteWidth is a shorthand for Codec().ByteWidth().
func (m *Manager[T]) ByteWidth() int { return m.codec.ByteWidth() }

// Config returns the effective (defaulted) configuration.
func (m *Manager[T]) Config() Config { return m.cfg }

// Metrics returns the attached metrics registry, or nil if none.
func (m *Manager[T]) Metrics() *metrics.Registry { return m.metrics }

// OwnsPlayer reports whether player is a member of this session.
func (m *Manager[T]) OwnsPlayer(player core.PlayerID) bool { return m.buf.Owns(player) }

// Players returns the session's stable player set.
func (m *Manager[T]) Players() []core.PlayerID { return m.buf.Players() }

// SubmitLocalInput records tick as Finalized for the local player. A tick
// may be submitted at most once per local player; resubmitting with a
// different encoding returns *core.ConflictingFinalizeError.
func (m *Manager[T]) SubmitLocalInput(tick core.Tick, v T) error {
	if err := m.buf.RecordFinalized(m.localPlayer, tick, v); err != nil {
		return err
	}
	if m.highestLocalTickProduced == core.NoTick || tick > m.highestLocalTickProduced {
		m.highestLocalTickProduced = tick
	}
	m.metrics.IncTicksFinalized(1)
	if sft, ok := m.buf.SessionFinalizedThrough(); ok {
		m.metrics.SetSessionFrontier(int64(sft))
	}
	return nil
}

// RecordFinalizedFor finalizes tick for player (any player, not just the
// local one) — used by host and guest when ingesting a peer's message.
func (m *Manager[T]) RecordFinalizedFor(player core.PlayerID, tick core.Tick, v T) error {
	err := m.buf.RecordFinalized(player, tick, v)
	if err == nil {
		if sft, ok := m.buf.SessionFinalizedThrough(); ok {
			m.metrics.SetSessionFrontier(int64(sft))
		}
	}
	return err
}

// PlayerFinalizedThrough returns player's finalized_through watermark.
func (m *Manager[T]) PlayerFinalizedThrough(player core.PlayerID) (core.Tick, bool) {
	b, ok := m.buf.Buffer(player)
	if !ok {
		return core.NoTick, false
	}
	return b.FinalizedThrough()
}

// SessionFinalizedThrough returns the session-wide finalized frontier.
func (m *Manager[T]) SessionFinalizedThrough() (core.Tick, bool) {
	return m.buf.SessionFinalizedThrough()
}

// FinalizedSlice returns every player's finalized input in [from, to].
func (m *Manager[T]) FinalizedSlice(from, to core.Tick) (map[core.PlayerID][]T, error) {
	return m.buf.FinalizedSlice(from, to)
}

// PredictedSlice returns every player's (possibly synthesized) input in
// [from, to].
func (m *Manager[T]) PredictedSlice(from, to core.Tick) map[core.PlayerID][]T {
	return m.buf.PredictedSlice(from, to)
}

// AckState returns the highest tick peer has acknowledged.
func (m *Manager[T]) AckState(peer core.PlayerID) core.Tick {
	if t, ok := m.ackState[peer]; ok {
		return t
	}
	return core.NoTick
}

// NoteAck records that peer has acknowledged up_to_tick; ack_state never
// decreases.
func (m *Manager[T]) NoteAck(peer core.PlayerID, upToTick core.Tick) {
	if cur, ok := m.ackState[peer]; !ok || upToTick > cur {
		m.ackState[peer] = upToTick
	}
}

// QueuePendingAck records that the next outbound batch to peer should
// carry an Ack(up_to=tick). The highest queued tick wins.
func (m *Manager[T]) QueuePendingAck(peer core.PlayerID, tick core.Tick) {
	if cur, ok := m.pendingAcks[peer]; !ok || tick > cur {
		m.pendingAcks[peer] = tick
	}
}

// PopPendingAck returns and clears the pending ack for peer, if any.
func (m *Manager[T]) PopPendingAck(peer core.PlayerID) (core.Tick, bool) {
	t, ok := m.pendingAcks[peer]
	if ok {
		delete(m.pendingAcks, peer)
	}
	return t, ok
}

// OutboundSliceFor packages the local player's inputs from
// ack_state[peer]+1 through highest_local_tick_produced, capped at
// window ticks. It returns a nil slice (not an error) when there is
// nothing new to send.
func (m *Manager[T]) OutboundSliceFor(peer core.PlayerID, window uint16) (start core.Tick, inputs []T, err error) {
	start = m.AckState(peer) + 1
	if m.highestLocalTickProduced == core.NoTick {
		return start, nil, nil
	}
	end := m.highestLocalTickProduced
	if start > end {
		return start, nil, nil
	}
	if window > 0 && end-start+1 > core.Tick(window) {
		end = start + core.Tick(window) - 1
	}

	localBuf, ok := m.buf.Buffer(m.localPlayer)
	if !ok {
		return start, nil, &core.UnknownPlayerError{Player: m.localPlayer}
	}
	for t := start; t <= end; t++ {
		s := localBuf.Get(t)
		inputs = append(inputs, s.Value)
	}
	return start, inputs, nil
}

// BuildFinalizedRows returns, for each tick in [from, to], the encoded
// bytes of every player's finalized input, in the stable player-id order,
// along with that order as uint16s ready for the wire. It errors exactly
// as FinalizedSlice does if the range is not fully finalized.
func (m *Manager[T]) BuildFinalizedRows(from, to core.Tick) (rows [][][]byte, playerIDs []uint16, err error) {
	slice, err := m.buf.FinalizedSlice(from, to)
	if err != nil {
		return nil, nil, err
	}
	players := m.buf.Players()
	playerIDs = make([]uint16, len(players))
	for i, p := range players {
		playerIDs[i] = uint16(p)
	}
	n := int(to-from) + 1
	rows = make([][][]byte, n)
	for i := range rows {
		row := make([][]byte, len(players))
		for j, p := range players {
			row[j] = m.codec.Encode(slice[p][i])
		}
		rows[i] = row
	}
	return rows, playerIDs, nil
}

// ObserveRTTMsToHost feeds sampleMs into the RTT estimator. The sample is
// an explicit argument; the estimator never reads a clock.
func (m *Manager[T]) ObserveRTTMsToHost(sampleMs float64) {
	m.rtt.Observe(sampleMs)
}

// RTTMs returns the current smoothed RTT estimate in milliseconds, and
// false if no sample has ever been observed.
func (m *Manager[T]) RTTMs() (float64, bool) {
	return m.rtt.Get()
}

// Prune calls PruneBelow(session_finalized_through - RetainTicksBehindFrontier)
// on every buffer. It is a no-op if the session has no finalized frontier
// yet.
func (m *Manager[T]) Prune() {
	sft, ok := m.buf.SessionFinalizedThrough()
	if !ok {
		return
	}
	floor := sft - core.Tick(m.cfg.RetainTicksBehindFrontier)
	if floor < 0 {
		floor = 0
	}
	m.buf.PruneBelow(floor)
}

// PrunedBelow returns the session-wide retention watermark.
func (m *Manager[T]) PrunedBelow() core.Tick {
	return m.buf.PrunedBelow()
}

// LogDroppedf logs (at warn level) and, if metrics are attached, counts a
// dropped inbound message under reason.
func (m *Manager[T]) LogDroppedf(reason, format string, args ...interface{}) {
	m.log.Warnf(format, args...)
	m.metrics.IncDropped(reason)
}

// Logger returns the manager's logger.
func (m *Manager[T]) Logger() *log.Logger { return m.log }
