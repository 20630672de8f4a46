package mq

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// A frame is laid out as [type][length][payload]. The type is the kernel's
// own message type (a C long) and is not counted in the transfer size. The
// length is a native size_t, so counterpart processes written against the
// same platform decode it byte for byte.
const (
	typeSize   = 8
	lengthSize = 8
	headerSize = typeSize + lengthSize
)

// encodeFrame appends a frame for the payload to buf and returns the result.
func encodeFrame(buf []byte, tag int64, payload []byte) []byte {
	buf = binary.NativeEndian.AppendUint64(buf, uint64(tag)) //nolint:gosec
	buf = binary.NativeEndian.AppendUint64(buf, uint64(len(payload)))

	return append(buf, payload...)
}

// frameType returns the message type of a frame.
func frameType(frame []byte) int64 {
	return int64(binary.NativeEndian.Uint64(frame[:typeSize])) //nolint:gosec
}

// decodeFrame returns the type and a copy of the payload of a frame, where
// frame spans the type and all bytes the kernel delivered.
func decodeFrame(frame []byte) (int64, []byte, error) {
	if len(frame) < headerSize {
		return 0, nil, fmt.Errorf("(mq) %w: %d bytes is shorter than the header", ErrMalformedFrame, len(frame))
	}

	tag := frameType(frame)
	length := binary.NativeEndian.Uint64(frame[typeSize:headerSize])

	if length > uint64(len(frame)-headerSize) {
		return tag, nil, fmt.Errorf("(mq) %w: length prefix %d exceeds %d delivered bytes",
			ErrMalformedFrame, length, len(frame)-headerSize)
	}

	return tag, bytes.Clone(frame[headerSize : headerSize+int(length)]), nil //nolint:gosec
}
