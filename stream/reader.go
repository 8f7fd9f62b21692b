package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Neumenon/sjson/sjson"
)

// Reader reads frames from an io.Reader.
type Reader struct {
	r          *bufio.Reader
	maxPayload int
	verifyCRC  bool
	offset     int64  // Bytes consumed so far
	lastSeq    uint64 // Sequence of the last frame returned
	done       bool   // Final frame seen
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxPayload sets the maximum payload size (default: 64 MiB).
func WithMaxPayload(max int) ReaderOption {
	return func(r *Reader) {
		r.maxPayload = max
	}
}

// WithCRCVerification enables or disables CRC verification (default on).
func WithCRCVerification(enabled bool) ReaderOption {
	return func(r *Reader) {
		r.verifyCRC = enabled
	}
}

// NewReader creates a frame reader.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	reader := &Reader{
		r:          bufio.NewReader(r),
		maxPayload: MaxPayloadSize,
		verifyCRC:  true,
	}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// Next reads and returns the next frame. It returns io.EOF at the end of
// input or after the final frame.
func (r *Reader) Next() (*Frame, error) {
	if r.done {
		return nil, io.EOF
	}
	start := r.offset
	headerLine, err := r.r.ReadString('\n')
	r.offset += int64(len(headerLine))
	if err != nil {
		if err == io.EOF && strings.TrimSpace(headerLine) == "" {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	frame, payloadLen, err := parseHeader(headerLine, start)
	if err != nil {
		return nil, err
	}
	if payloadLen > r.maxPayload {
		return nil, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, payloadLen, r.maxPayload)
	}

	if payloadLen > 0 {
		frame.Payload = make([]byte, payloadLen)
		n, err := io.ReadFull(r.r, frame.Payload)
		r.offset += int64(n)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
	}

	// Trailing newline is optional at EOF.
	if b, err := r.r.ReadByte(); err == nil {
		if b == '\n' {
			r.offset++
		} else {
			r.r.UnreadByte()
		}
	}

	if frame.Seq != r.lastSeq+1 {
		return nil, &SequenceError{Expected: r.lastSeq + 1, Got: frame.Seq}
	}
	if r.verifyCRC && frame.CRC != nil {
		if got := Checksum(frame.Payload); got != *frame.CRC {
			return nil, &CRCMismatchError{Seq: frame.Seq, Expected: *frame.CRC, Got: got}
		}
	}

	r.lastSeq = frame.Seq
	r.done = frame.Final
	return frame, nil
}

// parseHeader parses the @frame{...} header line.
func parseHeader(line string, offset int64) (*Frame, int, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "@frame{") {
		return nil, 0, &ParseError{Reason: "expected @frame{", Offset: offset}
	}
	if !strings.HasSuffix(line, "}") {
		return nil, 0, &ParseError{Reason: "missing closing }", Offset: offset}
	}

	frame := &Frame{Version: Version}
	payloadLen := -1
	for _, pair := range strings.Fields(line[len("@frame{") : len(line)-1]) {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		switch key {
		case "v":
			v, err := strconv.ParseUint(val, 10, 8)
			if err != nil || uint8(v) != Version {
				return nil, 0, &ParseError{Reason: "unsupported version " + val, Offset: offset}
			}
			frame.Version = uint8(v)
		case "seq":
			seq, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid seq", Offset: offset}
			}
			frame.Seq = seq
		case "kind":
			kind, ok := ParseKind(val)
			if !ok {
				return nil, 0, &ParseError{Reason: "invalid kind: " + val, Offset: offset}
			}
			frame.Kind = kind
		case "len":
			l, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid len", Offset: offset}
			}
			payloadLen = int(l)
		case "crc":
			crc, err := strconv.ParseUint(strings.TrimPrefix(val, "crc32:"), 16, 32)
			if err != nil || len(strings.TrimPrefix(val, "crc32:")) != 8 {
				return nil, 0, &ParseError{Reason: "invalid crc: " + val, Offset: offset}
			}
			c := uint32(crc)
			frame.CRC = &c
		case "final":
			frame.Final = val == "true" || val == "1"
		}
	}
	if payloadLen < 0 {
		return nil, 0, &ParseError{Reason: "missing len", Offset: offset}
	}
	return frame, payloadLen, nil
}

// ReadAll reads all frames until EOF.
func (r *Reader) ReadAll() ([]*Frame, error) {
	var frames []*Frame
	for {
		frame, err := r.Next()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
}

// DecodeFrame decodes a value frame through codec. Error frames yield a
// *RemoteError.
func DecodeFrame[T any](f *sjson.Format, codec sjson.Codec[T], frame *Frame) (T, error) {
	var zero T
	switch frame.Kind {
	case KindValue:
		return sjson.Decode(f, codec, string(frame.Payload))
	case KindError:
		msg, err := sjson.Decode(sjson.Default, sjson.String, string(frame.Payload))
		if err != nil {
			msg = string(frame.Payload)
		}
		return zero, &RemoteError{Seq: frame.Seq, Message: msg}
	default:
		return zero, fmt.Errorf("stream: unexpected frame kind %s", frame.Kind)
	}
}

// ReadValue reads the next frame carrying a payload and decodes it. It
// returns io.EOF at the end of the stream.
func ReadValue[T any](r *Reader, f *sjson.Format, codec sjson.Codec[T]) (T, error) {
	var zero T
	frame, err := r.Next()
	if err != nil {
		return zero, err
	}
	if frame.Final && len(frame.Payload) == 0 {
		return zero, io.EOF
	}
	v, err := DecodeFrame(f, codec, frame)
	var de *sjson.DecodingError
	if errors.As(err, &de) {
		return zero, fmt.Errorf("frame %d: %w", frame.Seq, err)
	}
	return v, err
}
