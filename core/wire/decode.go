package wire

import "github.com/bcolloran/temporal-input-buffer/core"

// DecodeOne decodes a single message from the front of buf and returns
// it along with the number of bytes consumed. byteWidth must match the
// codec used for the inner per-tick payloads.
func DecodeOne(buf []byte, byteWidth int) (msg interface{}, consumed int, err error) {
	if len(buf) < 1 {
		return nil, 0, &core.DecodeError{Reason: "message: empty buffer"}
	}
	switch Kind(buf[0]) {
	case KindUnfinalizedSlice:
		const headerLen = 1 + 2 + 8 + 2
		if len(buf) < headerLen {
			return nil, 0, &core.DecodeError{Reason: "UnfinalizedSlice: short header"}
		}
		count := int(buf[11]) | int(buf[12])<<8
		n := headerLen + count*byteWidth
		if len(buf) < n {
			return nil, 0, &core.DecodeError{Reason: "UnfinalizedSlice: truncated buffer"}
		}
		m, err := DecodeUnfinalizedSlice(buf[1:n], byteWidth)
		if err != nil {
			return nil, 0, err
		}
		return m, n, nil

	case KindFinalizedSlice:
		const headerLen = 1 + 8 + 2 + 1
		if len(buf) < headerLen {
			return nil, 0, &core.DecodeError{Reason: "FinalizedSlice: short header"}
		}
		count := int(buf[9]) | int(buf[10])<<8
		players := int(buf[11])
		n := headerLen + count*players*byteWidth + players*2
		if len(buf) < n {
			return nil, 0, &core.DecodeError{Reason: "FinalizedSlice: truncated buffer"}
		}
		m, err := DecodeFinalizedSlice(buf[1:n], byteWidth)
		if err != nil {
			return nil, 0, err
		}
		return m, n, nil

	case KindAck:
		const n = 1 + 8
		if len(buf) < n {
			return nil, 0, &core.DecodeError{Reason: "Ack: truncated buffer"}
		}
		m, err := DecodeAck(buf[1:n])
		if err != nil {
			return nil, 0, err
		}
		return m, n, nil

	case KindKeepAlive:
		m, err := DecodeKeepAlive(buf[1:1])
		if err != nil {
			return nil, 0, err
		}
		return m, 1, nil

	default:
		return nil, 0, &core.DecodeError{Reason: "unknown message kind tag"}
	}
}

// DecodeAll decodes every message concatenated in buf. It is best-effort:
// if a message partway through the buffer fails to decode, DecodeAll
// returns every message successfully decoded before it along with the
// error, and stops (the stream cannot be resynchronized past a malformed
// length field).
func DecodeAll(buf []byte, byteWidth int) ([]interface{}, error) {
	var out []interface{}
	for len(buf) > 0 {
		msg, n, err := DecodeOne(buf, byteWidth)
		if err != nil {
			return out, err
		}
		out = append(out, msg)
		buf = buf[n:]
	}
	return out, nil
}
