// Package wire implements the fixed-layout binary encoding of the four
// message kinds exchanged between host and guest managers. It knows
// nothing about the user input type beyond its byte width: callers decode
// the raw per-tick byte blocks with their own codec.Codec[T].
//
// All integers are little-endian. Encoding is total. Decoding validates
// every length field against the remaining bytes and returns a
// *core.DecodeError on any mismatch; it never panics.
package wire

import (
	"encoding/binary"

	"github.com/bcolloran/temporal-input-buffer/core"
)

// Kind tags the body that follows it on the wire.
type Kind uint8

const (
	KindUnfinalizedSlice Kind = 1
	KindFinalizedSlice   Kind = 2
	KindAck              Kind = 3
	KindKeepAlive        Kind = 4
)

// UnfinalizedSlice carries one player's own recent, not-yet-finalized (or
// just-finalized-locally) inputs, sent by a guest toward the host.
type UnfinalizedSlice struct {
	PlayerID  uint16
	StartTick core.Tick
	Inputs    [][]byte // each exactly byteWidth bytes
}

// FinalizedSlice carries a contiguous tick range of finalized inputs for
// one or more players, sent by the host toward a guest.
type FinalizedSlice struct {
	StartTick core.Tick
	PlayerIDs []uint16   // len == players
	Inputs    [][][]byte // [tick index][player index], each entry byteWidth bytes
}

// Ack states the highest tick the sender has recorded as Finalized for
// the stream it is acknowledging.
type Ack struct {
	UpToTick core.Tick
}

// KeepAlive carries no payload; it is a permitted empty message used to
// keep a session's outbound cadence alive when there is nothing to send.
type KeepAlive struct{}

func putUint64(buf []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(buf[off:off+8], v)
}

func getUint64(buf []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(buf[off : off+8])
}

// EncodeUnfinalizedSlice serializes m. byteWidth must match the codec the
// caller uses for the inner payloads.
func EncodeUnfinalizedSlice(m *UnfinalizedSlice, byteWidth int) []byte {
	count := len(m.Inputs)
	buf := make([]byte, 1+2+8+2+count*byteWidth)
	buf[0] = byte(KindUnfinalizedSlice)
	binary.LittleEndian.PutUint16(buf[1:3], m.PlayerID)
	putUint64(buf, 3, uint64(m.StartTick))
	binary.LittleEndian.PutUint16(buf[11:13], uint16(count))
	off := 13
	for _, in := range m.Inputs {
		copy(buf[off:off+byteWidth], in)
		off += byteWidth
	}
	return buf
}

// DecodeUnfinalizedSlice parses a body (with the kind tag already
// stripped) of an UnfinalizedSlice message.
func DecodeUnfinalizedSlice(body []byte, byteWidth int) (*UnfinalizedSlice, error) {
	const headerLen = 2 + 8 + 2
	if len(body) < headerLen {
		return nil, &core.DecodeError{Reason: "UnfinalizedSlice: short header"}
	}
	playerID := binary.LittleEndian.Uint16(body[0:2])
	startTick := core.Tick(getUint64(body, 2))
	count := int(binary.LittleEndian.Uint16(body[10:12]))
	want := headerLen + count*byteWidth
	if len(body) != want {
		return nil, &core.DecodeError{Reason: "UnfinalizedSlice: count does not match remaining bytes"}
	}
	inputs := make([][]byte, count)
	off := headerLen
	for i := 0; i < count; i++ {
		raw := make([]byte, byteWidth)
		copy(raw, body[off:off+byteWidth])
		inputs[i] = raw
		off += byteWidth
	}
	return &UnfinalizedSlice{PlayerID: playerID, StartTick: startTick, Inputs: inputs}, nil
}

// EncodeFinalizedSlice serializes m.
func EncodeFinalizedSlice(m *FinalizedSlice, byteWidth int) []byte {
	count := len(m.Inputs)
	players := len(m.PlayerIDs)
	size := 1 + 8 + 2 + 1 + count*players*byteWidth + players*2
	buf := make([]byte, size)
	buf[0] = byte(KindFinalizedSlice)
	putUint64(buf, 1, uint64(m.StartTick))
	binary.LittleEndian.PutUint16(buf[9:11], uint16(count))
	buf[11] = byte(players)
	off := 12
	for _, row := range m.Inputs {
		for _, in := range row {
			copy(buf[off:off+byteWidth], in)
			off += byteWidth
		}
	}
	for _, pid := range m.PlayerIDs {
		binary.LittleEndian.PutUint16(buf[off:off+2], pid)
		off += 2
	}
	return buf
}

// DecodeFinalizedSlice parses a body (kind tag already stripped) of a
// FinalizedSlice message.
func DecodeFinalizedSlice(body []byte, byteWidth int) (*FinalizedSlice, error) {
	const headerLen = 8 + 2 + 1
	if len(body) < headerLen {
		return nil, &core.DecodeError{Reason: "FinalizedSlice: short header"}
	}
	startTick := core.Tick(getUint64(body, 0))
	count := int(binary.LittleEndian.Uint16(body[8:10]))
	players := int(body[10])
	want := headerLen + count*players*byteWidth + players*2
	if len(body) != want {
		return nil, &core.DecodeError{Reason: "FinalizedSlice: count/players does not match remaining bytes"}
	}

	off := headerLen
	inputs := make([][][]byte, count)
	for t := 0; t < count; t++ {
		row := make([][]byte, players)
		for p := 0; p < players; p++ {
			raw := make([]byte, byteWidth)
			copy(raw, body[off:off+byteWidth])
			row[p] = raw
			off += byteWidth
		}
		inputs[t] = row
	}
	playerIDs := make([]uint16, players)
	for p := 0; p < players; p++ {
		playerIDs[p] = binary.LittleEndian.Uint16(body[off : off+2])
		off += 2
	}
	return &FinalizedSlice{StartTick: startTick, PlayerIDs: playerIDs, Inputs: inputs}, nil
}

// EncodeAck serializes an Ack.
func EncodeAck(m *Ack) []byte {
	buf := make([]byte, 1+8)
	buf[0] = byte(KindAck)
	putUint64(buf, 1, uint64(m.UpToTick))
	return buf
}

// DecodeAck parses a body (kind tag already stripped) of an Ack message.
func DecodeAck(body []byte) (*Ack, error) {
	if len(body) != 8 {
		return nil, &core.DecodeError{Reason: "Ack: body must be exactly 8 bytes"}
	}
	return &Ack{UpToTick: core.Tick(getUint64(body, 0))}, nil
}

// EncodeKeepAlive serializes a KeepAlive.
func EncodeKeepAlive() []byte {
	return []byte{byte(KindKeepAlive)}
}

// DecodeKeepAlive parses a body (kind tag already stripped) of a
// KeepAlive message.
func DecodeKeepAlive(body []byte) (*KeepAlive, error) {
	if len(body) != 0 {
		return nil, &core.DecodeError{Reason: "KeepAlive: body must be empty"}
	}
	return &KeepAlive{}, nil
}

// Concat frames multiple already-encoded messages back to back into one
// datagram. Each message is self-describing (tag + length-implying
// fields), so the receiver can decode them sequentially with DecodeAll.
func Concat(frames ...[]byte) []byte {
	n := 0
	for _, f := range frames {
		n += len(f)
	}
	out := make([]byte, 0, n)
	for _, f := range frames {
		out = append(out, f...)
	}
	return out
}
