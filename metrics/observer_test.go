package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/sjson/sjson"
)

func TestObserver_CountsCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewObserver(reg, Options{})
	require.NoError(t, err)

	f := sjson.New(sjson.DefaultConfig(), sjson.WithObserver(obs))
	codec := sjson.ListOf(sjson.Int)

	_, err = sjson.Encode(f, codec, []int32{1, 2})
	require.NoError(t, err)
	_, err = sjson.Decode(f, codec, `[1,2]`)
	require.NoError(t, err)
	_, err = sjson.Decode(f, codec, `[1,"x"]`)
	require.Error(t, err)
	_, err = sjson.Decode(f, codec, `[1] 2`)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(obs.calls.WithLabelValues("encode", "list", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.calls.WithLabelValues("decode", "list", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.calls.WithLabelValues("decode", "list", "type_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.calls.WithLabelValues("decode", "list", "trailing_data")))

	assert.Equal(t, 2, testutil.CollectAndCount(obs.duration))
}

func TestObserver_Names(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := MustNewObserver(reg, Options{Namespace: "app", Subsystem: "codec"})
	obs.Observe(sjson.OpDecode, "Point", 0, nil)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.ElementsMatch(t, []string{"app_codec_calls_total", "app_codec_call_duration_seconds"}, names)
}

func TestObserver_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewObserver(reg, Options{})
	require.NoError(t, err)

	_, err = NewObserver(reg, Options{})
	assert.Error(t, err)
}

func TestResult(t *testing.T) {
	_, decErr := sjson.Decode(sjson.Default, sjson.Int, `{`)
	require.Error(t, decErr)

	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{sjson.ErrMissingField, "missing_field"},
		{decErr, "type_mismatch"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Result(tt.err))
	}
}
