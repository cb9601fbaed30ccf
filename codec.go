package chatwire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Payload layout, all integers big-endian:
//
//	int32 type | int64 timestamp | string sender | string target | string content
//
// where every string is a 4-byte length prefix followed by raw bytes.
// On the TCP transport the payload travels behind an additional 4-byte
// big-endian length prefix (see netConn); on websockets the ws frame
// provides the outer delimiting instead.

// ErrMalformedFrame reports a truncated or inconsistent payload. Callers
// treat it the same as a disconnect: the session tears down.
var ErrMalformedFrame = errors.New("chatwire: malformed frame")

// ErrFrameTooLarge reports a frame whose declared length exceeds
// MaxFrameSize. Same handling as ErrMalformedFrame.
var ErrFrameTooLarge = errors.New("chatwire: frame exceeds size limit")

// MaxFrameSize bounds a single encoded payload. The protocol itself has
// no maximum, but accepting an arbitrary int32 from the peer before
// allocating would let one frame exhaust memory.
const MaxFrameSize = 16 << 20

// Encode serializes a message payload. It is total: any in-range field
// values produce a valid frame.
func Encode(m Message) []byte {
	n := 4 + 8 + 4 + len(m.Sender) + 4 + len(m.Target) + 4 + len(m.Content)
	buf := make([]byte, 0, n)
	buf = binary.BigEndian.AppendUint32(buf, uint32(m.Type))
	buf = binary.BigEndian.AppendUint64(buf, uint64(m.Timestamp))
	buf = appendString(buf, m.Sender)
	buf = appendString(buf, m.Target)
	buf = appendString(buf, m.Content)
	return buf
}

// Decode parses a payload produced by Encode. Any field whose declared
// length would read past the end of data fails with ErrMalformedFrame;
// it never reads out of bounds and never panics.
func Decode(data []byte) (Message, error) {
	var m Message
	pos := 0

	typeCode, err := readInt32(data, &pos)
	if err != nil {
		return Message{}, err
	}
	m.Type = MessageType(typeCode)

	if pos+8 > len(data) {
		return Message{}, fmt.Errorf("%w: truncated timestamp", ErrMalformedFrame)
	}
	m.Timestamp = int64(binary.BigEndian.Uint64(data[pos:]))
	pos += 8

	if m.Sender, err = readString(data, &pos); err != nil {
		return Message{}, err
	}
	if m.Target, err = readString(data, &pos); err != nil {
		return Message{}, err
	}
	if m.Content, err = readString(data, &pos); err != nil {
		return Message{}, err
	}
	return m, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

func readInt32(data []byte, pos *int) (int32, error) {
	if *pos+4 > len(data) {
		return 0, fmt.Errorf("%w: truncated int32", ErrMalformedFrame)
	}
	v := int32(binary.BigEndian.Uint32(data[*pos:]))
	*pos += 4
	return v, nil
}

func readString(data []byte, pos *int) (string, error) {
	n, err := readInt32(data, pos)
	if err != nil {
		return "", err
	}
	if n < 0 || *pos+int(n) > len(data) {
		return "", fmt.Errorf("%w: invalid string length %d", ErrMalformedFrame, n)
	}
	s := string(data[*pos : *pos+int(n)])
	*pos += int(n)
	return s, nil
}
