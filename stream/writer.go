package stream

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/Neumenon/sjson/sjson"
)

// Writer writes frames to an io.Writer. It is safe for concurrent use;
// sequence numbers are assigned in write order.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	withCRC bool
	seq     uint64
	closed  bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCRC includes a CRC-32 of each payload in its header.
func WithCRC() WriterOption {
	return func(w *Writer) {
		w.withCRC = true
	}
}

// NewWriter creates a frame writer.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	writer := &Writer{w: w}
	for _, opt := range opts {
		opt(writer)
	}
	return writer
}

// Seq returns the sequence number of the last frame written.
func (w *Writer) Seq() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seq
}

// writeFrame assigns the next sequence number and writes the frame.
func (w *Writer) writeFrame(kind FrameKind, payload []byte, final bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("stream: write after final frame")
	}
	w.seq++
	f := &Frame{Version: Version, Seq: w.seq, Kind: kind, Payload: payload, Final: final}
	if w.withCRC && len(payload) > 0 {
		crc := Checksum(payload)
		f.CRC = &crc
	}
	if err := writeFrame(w.w, f); err != nil {
		return err
	}
	w.closed = final
	return nil
}

// writeFrame writes a single frame.
func writeFrame(out io.Writer, f *Frame) error {
	var header strings.Builder
	header.WriteString("@frame{v=")
	if f.Version == 0 {
		header.WriteByte('1')
	} else {
		header.WriteString(strconv.Itoa(int(f.Version)))
	}

	header.WriteString(" seq=")
	header.WriteString(strconv.FormatUint(f.Seq, 10))

	header.WriteString(" len=")
	header.WriteString(strconv.Itoa(len(f.Payload)))

	if f.Kind != KindValue {
		header.WriteString(" kind=")
		header.WriteString(f.Kind.String())
	}
	if f.CRC != nil {
		fmt.Fprintf(&header, " crc=%08x", *f.CRC)
	}
	if f.Final {
		header.WriteString(" final=true")
	}
	header.WriteString("}\n")

	if _, err := io.WriteString(out, header.String()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if len(f.Payload) > 0 {
		if _, err := out.Write(f.Payload); err != nil {
			return fmt.Errorf("write payload: %w", err)
		}
	}
	if _, err := io.WriteString(out, "\n"); err != nil {
		return fmt.Errorf("write trailing newline: %w", err)
	}
	return nil
}

// WritePayload frames already-encoded text.
func (w *Writer) WritePayload(payload []byte) error {
	return w.writeFrame(KindValue, payload, false)
}

// WriteError frames a producer-side failure message.
func (w *Writer) WriteError(msg string) error {
	text, err := sjson.Encode(sjson.Default, sjson.String, msg)
	if err != nil {
		return err
	}
	return w.writeFrame(KindError, []byte(text), false)
}

// Close writes an empty final frame. Further writes fail.
func (w *Writer) Close() error {
	return w.writeFrame(KindValue, nil, true)
}

// WriteValue encodes v through codec and writes it as one frame.
// The payload may span several lines.
func WriteValue[T any](w *Writer, f *sjson.Format, codec sjson.Codec[T], v T) error {
	text, err := sjson.Encode(f, codec, v)
	if err != nil {
		return err
	}
	return w.WritePayload([]byte(text))
}
