// Package demoinput provides a concrete fixed-width input type: a button
// mask plus two signed analog axes. It exists to give the core codec
// contract, the wire format, and the demo CLI something real to encode,
// and is not itself part of the library's public surface.
package demoinput

import (
	"encoding/binary"
	"fmt"

	"github.com/bcolloran/temporal-input-buffer/core/codec"
)

// Buttons bit positions.
const (
	ButtonJump uint8 = 1 << iota
	ButtonFire
	ButtonDash
)

// Input is one tick's worth of player input: a button bitmask and two
// analog axes (e.g. a movement stick), each an int16 in [-32768, 32767].
type Input struct {
	Buttons uint8
	AxisX   int16
	AxisY   int16
}

const byteWidth = 5 // 1 (buttons) + 2 (axisX) + 2 (axisY)

// Codec implements codec.Codec[Input] with the fixed 5-byte layout above.
type Codec struct{}

var _ codec.Codec[Input] = Codec{}

// ByteWidth returns the fixed encoded length of an Input.
func (Codec) ByteWidth() int { return byteWidth }

// Encode writes v's fields in little-endian fixed layout.
func (Codec) Encode(v Input) []byte {
	b := make([]byte, byteWidth)
	b[0] = v.Buttons
	binary.LittleEndian.PutUint16(b[1:3], uint16(v.AxisX))
	binary.LittleEndian.PutUint16(b[3:5], uint16(v.AxisY))
	return b
}

// Decode reads an Input from exactly ByteWidth() bytes, never panicking on
// malformed input.
func (Codec) Decode(b []byte) (Input, error) {
	if len(b) != byteWidth {
		return Input{}, fmt.Errorf("demoinput: want %d bytes, got %d", byteWidth, len(b))
	}
	return Input{
		Buttons: b[0],
		AxisX:   int16(binary.LittleEndian.Uint16(b[1:3])),
		AxisY:   int16(binary.LittleEndian.Uint16(b[3:5])),
	}, nil
}

// Default returns the neutral input: no buttons held, axes centered.
func (Codec) Default() Input {
	return Input{}
}
