package sjson

import (
	"time"

	"github.com/tidwall/jsonc"
	"go.uber.org/zap"
)

// Op identifies an engine call for observers.
type Op string

const (
	OpEncode Op = "encode"
	OpDecode Op = "decode"
)

// Observer is notified after every Encode and Decode call of a Format.
// Implementations must be safe for concurrent use.
type Observer interface {
	Observe(op Op, typeName string, elapsed time.Duration, err error)
}

// Format is an immutable configuration plus ambient collaborators. A Format
// is safe for concurrent use; every call gets its own Encoder or Decoder.
type Format struct {
	cfg      Config
	logger   *zap.Logger
	observer Observer
	registry *Registry
}

// Option configures a Format.
type Option func(*Format)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Format) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithObserver sets the call observer.
func WithObserver(o Observer) Option {
	return func(f *Format) { f.observer = o }
}

// WithRegistry sets the registry used by EncodeRegistered and
// DecodeRegistered. Defaults to a fresh NewBuiltinRegistry.
func WithRegistry(r *Registry) Option {
	return func(f *Format) {
		if r != nil {
			f.registry = r
		}
	}
}

// New creates a Format. cfg is copied.
func New(cfg Config, opts ...Option) *Format {
	f := &Format{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	if f.registry == nil {
		f.registry = NewBuiltinRegistry()
	}
	return f
}

// Default is the strict JSON format. Its registry holds the builtin codecs;
// programs registering their own codecs create their own Format.
var Default = New(DefaultConfig())

// Config returns a copy of the format's configuration.
func (f *Format) Config() Config { return f.cfg }

// Logger returns the format's logger.
func (f *Format) Logger() *zap.Logger { return f.logger }

// Registry returns the registry used by EncodeRegistered and
// DecodeRegistered.
func (f *Format) Registry() *Registry { return f.registry }

// treeFormat is f for the text trip of ToValue and FromValue. Strings are
// always quoted so they cannot be read back as numbers or literals.
func (f *Format) treeFormat() *Format {
	cp := *f
	cp.cfg.Unquoted = false
	cp.cfg.PrettyPrint = false
	cp.cfg.AllowComments = false
	return &cp
}

func (f *Format) finish(op Op, desc *Descriptor, start time.Time, err error) {
	if f.observer != nil {
		f.observer.Observe(op, desc.Name(), time.Since(start), err)
	}
	if err != nil {
		f.logger.Debug("sjson call failed",
			zap.String("op", string(op)),
			zap.String("type", desc.Name()),
			zap.Error(err))
	}
}

// Encode writes v as text through codec.
func Encode[T any](f *Format, codec Codec[T], v T) (string, error) {
	start := time.Now()
	e := newEncoder(f.cfg)
	err := codec.Encode(e, v)
	f.finish(OpEncode, codec.Descriptor(), start, err)
	if err != nil {
		return "", err
	}
	return e.String(), nil
}

// Decode reads text through codec. The whole input must be consumed.
func Decode[T any](f *Format, codec Codec[T], text string) (T, error) {
	start := time.Now()
	if f.cfg.AllowComments {
		text = string(jsonc.ToJSON([]byte(text)))
	}
	d := newDecoder(text, f.cfg, f.logger)
	v, err := codec.Decode(d)
	if err == nil {
		err = d.finish()
	}
	f.finish(OpDecode, codec.Descriptor(), start, err)
	if err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// EncodeToText encodes v under cfg.
func EncodeToText[T any](v T, codec Codec[T], cfg Config) (string, error) {
	return Encode(New(cfg), codec, v)
}

// DecodeFromText decodes text under cfg.
func DecodeFromText[T any](text string, codec Codec[T], cfg Config) (T, error) {
	return Decode(New(cfg), codec, text)
}
