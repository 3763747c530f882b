// Package persist stores values in a storage.Store wrapped in a versioned
// envelope:
//
//	{"version":"1.0","timestamp":1718000000000,"data":<value>}
//
// Payloads that are not valid JSON or carry a different version are
// discarded on load and their key is purged.
package persist

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jonboulle/clockwork"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xenking/galaxy-store/internal/storage"
)

// DefaultVersion is the envelope version written and accepted by default.
const DefaultVersion = "1.0"

// Encoder writes a value as JSON.
type Encoder interface {
	Encode(e *jx.Encoder)
}

// EncoderFunc adapts a function to Encoder.
type EncoderFunc func(e *jx.Encoder)

// Encode calls f(e).
func (f EncoderFunc) Encode(e *jx.Encoder) { f(e) }

// Option configures an Adapter.
type Option func(*Adapter)

// WithVersion sets the envelope version.
func WithVersion(v string) Option {
	return func(a *Adapter) { a.version = v }
}

// WithClock sets the clock used for envelope timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(a *Adapter) { a.clock = c }
}

// WithLogger sets the logger.
func WithLogger(lg *zap.Logger) Option {
	return func(a *Adapter) { a.lg = lg }
}

// Adapter reads and writes enveloped values.
type Adapter struct {
	store   storage.Store
	version string
	clock   clockwork.Clock
	lg      *zap.Logger
}

// New returns an Adapter on top of store.
func New(store storage.Store, opts ...Option) *Adapter {
	a := &Adapter{
		store:   store,
		version: DefaultVersion,
		clock:   clockwork.NewRealClock(),
		lg:      zap.NewNop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Version returns the envelope version the adapter writes.
func (a *Adapter) Version() string {
	return a.version
}

// Save wraps v in an envelope and writes it under key. A full backend
// yields an error wrapping storage.ErrQuotaExceeded.
func (a *Adapter) Save(ctx context.Context, key string, v Encoder) error {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("version", func(e *jx.Encoder) { e.Str(a.version) })
		e.Field("timestamp", func(e *jx.Encoder) { e.Int64(a.clock.Now().UnixMilli()) })
		e.Field("data", v.Encode)
	})

	if err := a.store.Set(ctx, key, e.Bytes()); err != nil {
		if errors.Is(err, storage.ErrQuotaExceeded) {
			a.lg.Error("Storage quota exceeded", zap.String("key", key), zap.Int("size", len(e.Bytes())))
		} else {
			a.lg.Error("Save failed", zap.String("key", key), zap.Error(err))
		}
		return errors.Wrapf(err, "save %q", key)
	}
	return nil
}

// Load returns the data stored under key. ok is false when the key is
// missing, the payload is malformed, the version differs or there is no
// data. Malformed and outdated payloads are purged.
func (a *Adapter) Load(ctx context.Context, key string) (data jx.Raw, ok bool) {
	b, err := a.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			a.lg.Error("Load failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	if !jsoniter.ConfigFastest.Valid(b) {
		a.lg.Warn("Discarding malformed payload", zap.String("key", key))
		a.purge(ctx, key)
		return nil, false
	}

	env, err := decodeEnvelope(b)
	if err != nil {
		a.lg.Warn("Discarding malformed envelope", zap.String("key", key), zap.Error(err))
		a.purge(ctx, key)
		return nil, false
	}
	if env.version != a.version {
		a.lg.Warn("Discarding outdated payload",
			zap.String("key", key),
			zap.String("version", env.version),
			zap.String("want", a.version),
		)
		a.purge(ctx, key)
		return nil, false
	}
	if len(env.data) == 0 || env.data.Type() == jx.Null {
		return nil, false
	}
	return env.data, true
}

// Remove deletes key. Removing a missing key is not an error.
func (a *Adapter) Remove(ctx context.Context, key string) error {
	if err := a.store.Delete(ctx, key); err != nil {
		return errors.Wrapf(err, "remove %q", key)
	}
	return nil
}

func (a *Adapter) purge(ctx context.Context, key string) {
	if err := a.store.Delete(ctx, key); err != nil {
		a.lg.Error("Purge failed", zap.String("key", key), zap.Error(err))
	}
}

type envelope struct {
	version   string
	timestamp int64
	data      jx.Raw
}

func decodeEnvelope(b []byte) (envelope, error) {
	var env envelope
	d := jx.DecodeBytes(b)
	if d.Next() != jx.Object {
		return env, errors.New("envelope is not an object")
	}
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "version":
			if d.Next() != jx.String {
				return d.Skip()
			}
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "version")
			}
			env.version = v
		case "timestamp":
			if d.Next() != jx.Number {
				return d.Skip()
			}
			v, err := d.Int64()
			if err != nil {
				return errors.Wrap(err, "timestamp")
			}
			env.timestamp = v
		case "data":
			v, err := d.Raw()
			if err != nil {
				return errors.Wrap(err, "data")
			}
			env.data = append(jx.Raw(nil), v...)
		default:
			return d.Skip()
		}
		return nil
	})
	return env, err
}
