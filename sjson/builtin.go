package sjson

import (
	"time"

	"github.com/google/uuid"
)

// UUID encodes uuid.UUID in its canonical hyphenated string form.
var UUID Codec[uuid.UUID] = NewCodec(Primitive("uuid.UUID", PrimitiveString),
	func(e *Encoder, v uuid.UUID) error { return e.EncodeString(v.String()) },
	func(d *Decoder) (uuid.UUID, error) {
		pos := d.Position()
		s, err := d.DecodeString()
		if err != nil {
			return uuid.Nil, err
		}
		u, err := uuid.Parse(s)
		if err != nil {
			return uuid.Nil, d.Fail(ErrTypeMismatch, pos, "invalid UUID '%s': %v", s, err)
		}
		return u, nil
	})

// Time encodes time.Time as an RFC 3339 string with nanoseconds.
var Time Codec[time.Time] = NewCodec(Primitive("time.Time", PrimitiveString),
	func(e *Encoder, v time.Time) error { return e.EncodeString(v.Format(time.RFC3339Nano)) },
	func(d *Decoder) (time.Time, error) {
		pos := d.Position()
		s, err := d.DecodeString()
		if err != nil {
			return time.Time{}, err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, d.Fail(ErrTypeMismatch, pos, "invalid timestamp '%s': %v", s, err)
		}
		return t, nil
	})
