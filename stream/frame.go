// Package stream frames encoded values for transport over byte streams.
//
// Each frame is a header line followed by the payload and a newline:
//
//	@frame{v=1 seq=N len=N [kind=K] [crc=XXXXXXXX] [final=true]}\n
//	<payload bytes>\n
//
// The payload is sjson text passed to the decoder unchanged. len gives
// message boundaries, seq gives ordering, crc gives integrity.
package stream

import (
	"errors"
	"fmt"
	"hash/crc32"
)

// Version is the framing protocol version.
const Version uint8 = 1

// MaxPayloadSize is the default maximum payload size (64 MiB).
const MaxPayloadSize = 64 * 1024 * 1024

// FrameKind indicates the semantic category of a frame's payload.
type FrameKind uint8

const (
	KindValue FrameKind = 0 // Encoded value
	KindError FrameKind = 1 // Producer-side failure; payload is an encoded string
)

// String returns the kind name.
func (k FrameKind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ParseKind parses a kind name or numeric value.
func ParseKind(s string) (FrameKind, bool) {
	switch s {
	case "value", "0":
		return KindValue, true
	case "error", "1":
		return KindError, true
	default:
		return 0, false
	}
}

// Frame is a single framed payload.
type Frame struct {
	Version uint8
	Seq     uint64 // Starts at 1, increments by one per frame
	Kind    FrameKind
	Payload []byte

	CRC   *uint32 // CRC-32 of payload (nil if not present)
	Final bool    // No frames follow
}

// HasCRC returns true if CRC is present.
func (f *Frame) HasCRC() bool {
	return f.CRC != nil
}

// Checksum computes CRC-32 IEEE of data.
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// ErrPayloadTooLarge is returned for frames above the reader's limit.
var ErrPayloadTooLarge = errors.New("stream: payload too large")

// ParseError reports a malformed frame header.
type ParseError struct {
	Reason string
	Offset int64 // Stream offset of the header, or -1
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("stream: %s at offset %d", e.Reason, e.Offset)
	}
	return fmt.Sprintf("stream: %s", e.Reason)
}

// CRCMismatchError is returned when CRC verification fails.
type CRCMismatchError struct {
	Seq      uint64
	Expected uint32
	Got      uint32
}

func (e *CRCMismatchError) Error() string {
	return fmt.Sprintf("stream: CRC mismatch in frame %d: expected %08x, got %08x", e.Seq, e.Expected, e.Got)
}

// SequenceError is returned when frames arrive out of order.
type SequenceError struct {
	Expected uint64
	Got      uint64
}

func (e *SequenceError) Error() string {
	if e.Got < e.Expected {
		return fmt.Sprintf("stream: sequence not monotonic: got %d, expected %d", e.Got, e.Expected)
	}
	return fmt.Sprintf("stream: sequence gap: expected %d, got %d", e.Expected, e.Got)
}

// RemoteError carries the message of a KindError frame.
type RemoteError struct {
	Seq     uint64
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("stream: producer error at frame %d: %s", e.Seq, e.Message)
}
