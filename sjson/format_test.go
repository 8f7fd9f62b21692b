package sjson

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type call struct {
	op       Op
	typeName string
	failed   bool
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []call
}

func (r *recordingObserver) Observe(op Op, typeName string, elapsed time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{op: op, typeName: typeName, failed: err != nil})
}

func TestFormat_Observer(t *testing.T) {
	obs := &recordingObserver{}
	f := New(DefaultConfig(), WithObserver(obs))

	_, err := Encode(f, pairCodec, pair{A: 1, B: 2})
	require.NoError(t, err)
	_, err = Decode(f, ListOf(Int), "[1,x]")
	require.Error(t, err)

	assert.Equal(t, []call{
		{op: OpEncode, typeName: "C"},
		{op: OpDecode, typeName: "list", failed: true},
	}, obs.calls)
}

func TestFormat_LogsSkippedKeys(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := DefaultConfig()
	cfg.IgnoreUnknownKeys = true
	f := New(cfg, WithLogger(zap.New(core)))

	got, err := Decode(f, singleCodec, `{"a":1,"extra":[1,2]}`)
	require.NoError(t, err)
	assert.Equal(t, single{A: 1}, got)

	entries := logs.FilterMessage("skipping unknown key").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "extra", fields["key"])
	assert.Equal(t, int64(7), fields["offset"])
	assert.Equal(t, "A", fields["type"])
}

func TestFormat_LogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	f := New(DefaultConfig(), WithLogger(zap.New(core)))

	_, err := Decode(f, Int, "x")
	require.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("sjson call failed").Len())
}

func TestFormat_NilOptionsKeepDefaults(t *testing.T) {
	f := New(DefaultConfig(), WithLogger(nil), WithRegistry(nil))
	assert.NotNil(t, f.Logger())
	require.NotNil(t, f.Registry())
	assert.Contains(t, f.Registry().Names(), "int")
}

func TestFormat_ConcurrentUse(t *testing.T) {
	f := unquotedFormat()
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int32) {
			defer wg.Done()
			text, err := Encode(f, pairCodec, pair{A: n, B: n + 1})
			if err != nil {
				errs <- err
				return
			}
			got, err := Decode(f, pairCodec, text)
			if err != nil {
				errs <- err
				return
			}
			if got.A != n {
				errs <- errors.New("mismatched value")
			}
		}(int32(i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

// ============================================================
// Registry
// ============================================================

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	f := New(UnquotedConfig(), WithRegistry(r))

	_, err := EncodeRegistered(f, pair{A: 1, B: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoCodec))

	Register(r, pairCodec)
	text, err := EncodeRegistered(f, pair{A: 1, B: 2})
	require.NoError(t, err)
	assert.Equal(t, "{b:2,a:1}", text)

	got, err := DecodeRegistered[pair](f, "{a:3}")
	require.NoError(t, err)
	assert.Equal(t, pair{A: 3, B: 42}, got)

	codec, err := Lookup[pair](r)
	require.NoError(t, err)
	assert.Equal(t, "C", codec.Descriptor().Name())
	assert.Equal(t, []string{"C"}, r.Names())
}

func TestBuiltinRegistry(t *testing.T) {
	n, err := DecodeRegistered[int64](Default, "42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	text, err := EncodeRegistered(Default, "hi")
	require.NoError(t, err)
	assert.Equal(t, `"hi"`, text)

	r := NewBuiltinRegistry()
	assert.Contains(t, r.Names(), "uuid.UUID")
	assert.Contains(t, r.Names(), "sjson.Value")

	d, ok := r.Descriptor("long")
	require.True(t, ok)
	assert.Equal(t, PrimitiveLong, d.PrimitiveKind())
	_, ok = r.Descriptor("nope")
	assert.False(t, ok)
}

func TestRegistry_PerFormat(t *testing.T) {
	a := New(DefaultConfig())
	b := New(DefaultConfig())
	require.NotSame(t, a.Registry(), b.Registry())

	Register(a.Registry(), pairCodec)
	_, err := EncodeRegistered(a, pair{A: 1, B: 2})
	require.NoError(t, err)

	_, err = EncodeRegistered(b, pair{A: 1, B: 2})
	assert.True(t, errors.Is(err, ErrNoCodec), "got %v", err)
	_, err = EncodeRegistered(Default, pair{A: 1, B: 2})
	assert.True(t, errors.Is(err, ErrNoCodec), "got %v", err)

	shared := NewRegistry()
	c := New(DefaultConfig(), WithRegistry(shared))
	d := New(UnquotedConfig(), WithRegistry(shared))
	assert.Same(t, c.Registry(), d.Registry())
}

// ============================================================
// Builtin codecs
// ============================================================

func TestUUIDCodec(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	text, err := Encode(Default, UUID, id)
	require.NoError(t, err)
	assert.Equal(t, `"6ba7b810-9dad-11d1-80b4-00c04fd430c8"`, text)

	got, err := Decode(Default, UUID, text)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = Decode(Default, UUID, `"not-a-uuid"`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	ids, err := Decode(Default, MapOf(String, UUID), `{"x":"6ba7b810-9dad-11d1-80b4-00c04fd430c8"}`)
	require.NoError(t, err)
	assert.Equal(t, id, ids["x"])
}

func TestTimeCodec(t *testing.T) {
	ts := time.Date(2024, 3, 9, 10, 30, 0, 500, time.UTC)

	text, err := Encode(Default, Time, ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-09T10:30:00.0000005Z"`, text)

	got, err := Decode(Default, Time, text)
	require.NoError(t, err)
	assert.True(t, ts.Equal(got))

	_, err = Decode(Default, Time, `"yesterday"`)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}
