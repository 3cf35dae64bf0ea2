package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DescriptorMargin is reserved out of the backend ceiling for the descriptor envelope.
const DescriptorMargin = 2000

// fragmentPrefix marks keys that hold a fragment of a split value.
const fragmentPrefix = "$$$"

var (
	// ErrTypeMismatch is returned when a value is read or written with the wrong type tag.
	ErrTypeMismatch = errors.New("value type mismatch")
	// ErrReservedKey is returned when a caller key lies in the fragment namespace.
	ErrReservedKey = errors.New("key uses the reserved fragment prefix")
)

// ValueType tags the kind of value held by an entry.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeNumber  ValueType = "number"
	TypeBoolean ValueType = "boolean"
	TypeObject  ValueType = "object"
)

// Codec converts objects to and from their stored text form.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec is the default Codec.
type JSONCodec struct{}

// Marshal implements Codec.
func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal implements Codec.
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// descriptor is the envelope written under the caller's key.
// Exactly one of Value and Keys is set; Sum is the xxhash of a split value.
type descriptor struct {
	Value *string   `json:"value,omitempty"`
	Keys  []string  `json:"keys,omitempty"`
	Sum   string    `json:"sum,omitempty"`
	Type  ValueType `json:"type"`
	TTL   int64     `json:"ttl,omitempty"`
	Time  int64     `json:"time"`
}

// Cache is a typed cache that splits oversized values across backend keys.
type Cache struct {
	backend Backend
	codec   Codec
	logger  *zap.Logger
	now     func() time.Time
	sf      singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithCodec replaces the object codec.
func WithCodec(codec Codec) Option {
	return func(c *Cache) { c.codec = codec }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithClock overrides the clock used to stamp write times.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache over the given backend.
func New(backend Backend, opts ...Option) *Cache {
	c := &Cache{
		backend: backend,
		codec:   JSONCodec{},
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PutString stores a string value.
func (c *Cache) PutString(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.putValue(ctx, key, value, TypeString, ttl)
}

// GetString reads a string value.
func (c *Cache) GetString(ctx context.Context, key string) (string, bool, error) {
	return c.getValue(ctx, key, TypeString)
}

// PutNumber stores a numeric value.
func (c *Cache) PutNumber(ctx context.Context, key string, value float64, ttl time.Duration) error {
	return c.putValue(ctx, key, strconv.FormatFloat(value, 'g', -1, 64), TypeNumber, ttl)
}

// GetNumber reads a numeric value.
func (c *Cache) GetNumber(ctx context.Context, key string) (float64, bool, error) {
	raw, found, err := c.getValue(ctx, key, TypeNumber)
	if err != nil || !found {
		return 0, found, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("decode number %s: %w", key, err)
	}
	return v, true, nil
}

// PutBoolean stores a boolean value.
func (c *Cache) PutBoolean(ctx context.Context, key string, value bool, ttl time.Duration) error {
	return c.putValue(ctx, key, strconv.FormatBool(value), TypeBoolean, ttl)
}

// GetBoolean reads a boolean value.
func (c *Cache) GetBoolean(ctx context.Context, key string) (bool, bool, error) {
	raw, found, err := c.getValue(ctx, key, TypeBoolean)
	if err != nil || !found {
		return false, found, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("decode boolean %s: %w", key, err)
	}
	return v, true, nil
}

// PutObject serializes value with the codec and stores it.
func (c *Cache) PutObject(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := ensureValueType(value, TypeObject); err != nil {
		return err
	}
	data, err := c.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode object %s: %w", key, err)
	}
	return c.putValue(ctx, key, string(data), TypeObject, ttl)
}

// GetObject reads an object into out.
func (c *Cache) GetObject(ctx context.Context, key string, out any) (bool, error) {
	raw, found, err := c.getValue(ctx, key, TypeObject)
	if err != nil || !found {
		return found, err
	}
	if err := c.codec.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode object %s: %w", key, err)
	}
	return true, nil
}

// Put stores a dynamically typed value after checking it matches typ.
func (c *Cache) Put(ctx context.Context, key string, value any, typ ValueType, ttl time.Duration) error {
	if err := ensureValueType(value, typ); err != nil {
		return err
	}

	switch typ {
	case TypeString:
		return c.PutString(ctx, key, value.(string), ttl)
	case TypeNumber:
		return c.PutNumber(ctx, key, reflect.ValueOf(value).Convert(reflect.TypeOf(float64(0))).Float(), ttl)
	case TypeBoolean:
		return c.PutBoolean(ctx, key, value.(bool), ttl)
	default:
		return c.PutObject(ctx, key, value, ttl)
	}
}

// Get reads a dynamically typed value. Objects are decoded into generic
// maps and slices by the codec.
func (c *Cache) Get(ctx context.Context, key string, typ ValueType) (any, bool, error) {
	var (
		value any
		found bool
		err   error
	)
	switch typ {
	case TypeString:
		value, found, err = c.GetString(ctx, key)
	case TypeNumber:
		value, found, err = c.GetNumber(ctx, key)
	case TypeBoolean:
		value, found, err = c.GetBoolean(ctx, key)
	case TypeObject:
		var out any
		found, err = c.GetObject(ctx, key, &out)
		value = out
	default:
		return nil, false, fmt.Errorf("%w: unknown type %q", ErrTypeMismatch, typ)
	}
	if err != nil || !found {
		return nil, found, err
	}
	return value, true, nil
}

// Remove deletes key together with any fragments it was split into.
func (c *Cache) Remove(ctx context.Context, key string) error {
	d, err := c.descriptor(ctx, key)
	if err != nil {
		return err
	}
	if d != nil {
		for _, k := range d.Keys {
			if err := c.backend.Remove(ctx, k); err != nil {
				return err
			}
		}
	}
	return c.backend.Remove(ctx, key)
}

// LastUpdated returns when key was last written.
func (c *Cache) LastUpdated(ctx context.Context, key string) (time.Time, bool, error) {
	d, err := c.descriptor(ctx, key)
	if err != nil || d == nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(d.Time), true, nil
}

// GetOrLoad reads an object into out, calling load on a miss and caching its
// result. Concurrent misses on the same key share one load call.
// A failure to write the loaded value back is logged, not returned.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, out any, load func(ctx context.Context) (any, error)) error {
	found, err := c.GetObject(ctx, key, out)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	result, err, _ := c.sf.Do(key, func() (any, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.PutObject(ctx, key, value, ttl); err != nil {
			c.logger.Warn("Failed to cache loaded value", zap.String("key", key), zap.Error(err))
		}
		return value, nil
	})
	if err != nil {
		return err
	}

	data, err := c.codec.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode loaded value %s: %w", key, err)
	}
	return c.codec.Unmarshal(data, out)
}

func (c *Cache) descriptor(ctx context.Context, key string) (*descriptor, error) {
	if key == "" {
		return nil, errors.New("cache key must not be empty")
	}
	raw, found, err := c.backend.Get(ctx, key)
	if err != nil || !found {
		return nil, err
	}
	var d descriptor
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decode descriptor %s: %w", key, err)
	}
	return &d, nil
}

// putValue writes value under key. Fragment keys are "$$$" + key + index, so
// fragment 10 of "a" and fragment 0 of "a1" share a backend key; the stored
// checksum turns such a clash into a miss on read instead of a corrupt value.
func (c *Cache) putValue(ctx context.Context, key, value string, typ ValueType, ttl time.Duration) error {
	if strings.HasPrefix(key, fragmentPrefix) {
		return fmt.Errorf("%w: %q", ErrReservedKey, key)
	}
	// Drop fragments of the previous value so a shorter value leaves none behind.
	if err := c.Remove(ctx, key); err != nil {
		return err
	}

	d := descriptor{
		Type: typ,
		TTL:  int64(ttl / time.Second),
		Time: c.now().UnixMilli(),
	}

	limit := c.backend.MaxValueSize() - DescriptorMargin
	if limit <= 0 {
		return fmt.Errorf("backend size limit %d leaves no room for values", c.backend.MaxValueSize())
	}

	if encodedLen(value) > limit {
		c.logger.Debug("Splitting cache value", zap.String("key", key), zap.Int("length", len(value)))
		d.Keys = make([]string, 0, len(value)/limit+1)
		d.Sum = checksum(value)
		remaining := value
		for {
			k := fragmentKey(key, len(d.Keys))
			end := min(limit, len(remaining))
			if err := c.backend.Put(ctx, k, remaining[:end], ttl); err != nil {
				return fmt.Errorf("store fragment %s: %w", k, err)
			}
			d.Keys = append(d.Keys, k)
			remaining = remaining[end:]
			if len(remaining) == 0 {
				break
			}
		}
	} else {
		d.Value = &value
	}

	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode descriptor %s: %w", key, err)
	}
	return c.backend.Put(ctx, key, string(data), ttl)
}

func (c *Cache) getValue(ctx context.Context, key string, typ ValueType) (string, bool, error) {
	d, err := c.descriptor(ctx, key)
	if err != nil || d == nil {
		return "", false, err
	}
	if d.Type != typ {
		return "", false, fmt.Errorf("%w: expected %s, actual %s", ErrTypeMismatch, typ, d.Type)
	}
	if d.Value != nil {
		return *d.Value, true, nil
	}

	var b strings.Builder
	for _, k := range d.Keys {
		part, found, err := c.backend.Get(ctx, k)
		if err != nil {
			return "", false, err
		}
		if !found {
			// A fragment expired or was evicted; the entry is unusable.
			c.logger.Debug("Cache fragment missing", zap.String("key", key), zap.String("fragment", k))
			return "", false, nil
		}
		b.WriteString(part)
	}
	value := b.String()
	if d.Sum != "" && checksum(value) != d.Sum {
		c.logger.Warn("Cache fragments overwritten by another entry", zap.String("key", key))
		return "", false, nil
	}
	return value, true, nil
}

func checksum(value string) string {
	return strconv.FormatUint(xxhash.Sum64String(value), 16)
}

func fragmentKey(key string, index int) string {
	return fragmentPrefix + key + strconv.Itoa(index)
}

// encodedLen is the length of value once escaped inside the descriptor JSON.
func encodedLen(value string) int {
	data, err := json.Marshal(value)
	if err != nil {
		return len(value)
	}
	return len(data)
}

func ensureValueType(value any, typ ValueType) error {
	var ok bool
	switch typ {
	case TypeString:
		_, ok = value.(string)
	case TypeBoolean:
		_, ok = value.(bool)
	case TypeNumber:
		if value != nil {
			switch reflect.TypeOf(value).Kind() {
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
				reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
				reflect.Float32, reflect.Float64:
				ok = true
			}
		}
	case TypeObject:
		ok = true
		if value != nil {
			switch reflect.TypeOf(value).Kind() {
			case reflect.String, reflect.Bool,
				reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
				reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
				reflect.Float32, reflect.Float64:
				ok = false
			}
		}
	}
	if !ok {
		return fmt.Errorf("%w: expected %s, actual %T", ErrTypeMismatch, typ, value)
	}
	return nil
}
