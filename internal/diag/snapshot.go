// Package diag produces an out-of-band CBOR snapshot of a manager's
// buffer and ack state, for tooling that inspects a running session from
// outside the hot path (log shipping, a debug endpoint, a test fixture).
// It is never consulted by the core lockstep logic itself.
package diag

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/bcolloran/temporal-input-buffer/core"
)

// TagSet registers the CBOR tags used by Snapshot and its nested types,
// following the plugin wire convention of assigning each struct an
// IANA-unassigned tag number so a mixed stream of snapshot kinds can
// self-describe.
var TagSet = cbor.NewTagSet()

func init() {
	TagSet.Add(
		cbor.TagOptions{EncTag: cbor.EncTagRequired, DecTag: cbor.DecTagRequired},
		reflect.TypeOf(Snapshot{}), 1501)
	TagSet.Add(
		cbor.TagOptions{EncTag: cbor.EncTagRequired, DecTag: cbor.DecTagRequired},
		reflect.TypeOf(PlayerSnapshot{}), 1502)
}

// PlayerSnapshot captures one player's buffer state at the moment the
// snapshot was taken.
type PlayerSnapshot struct {
	Player           core.PlayerID
	FinalizedThrough core.Tick
	HasFinalized     bool
	PrunedBelow      core.Tick
}

// Snapshot captures a manager's session-wide state: every player's buffer
// watermark plus this peer's ack bookkeeping toward every other peer.
type Snapshot struct {
	LocalPlayer             core.PlayerID
	SessionFinalizedThrough core.Tick
	HasSessionFrontier      bool
	Players                 []PlayerSnapshot
	AckState                map[core.PlayerID]core.Tick
	RTTMs                   float64
	HasRTT                  bool
}

// Marshal serializes the snapshot using the tag set registered in init, so
// a decoder can distinguish a Snapshot from other tagged CBOR values in
// the same stream.
func (s *Snapshot) Marshal() ([]byte, error) {
	em, err := cbor.CTAP2EncOptions().EncModeWithTags(TagSet)
	if err != nil {
		return nil, err
	}
	return em.Marshal(s)
}

// Unmarshal decodes a snapshot previously produced by Marshal.
func Unmarshal(data []byte, s *Snapshot) error {
	dm, err := cbor.DecOptions{}.DecModeWithTags(TagSet)
	if err != nil {
		return err
	}
	return dm.Unmarshal(data, s)
}
