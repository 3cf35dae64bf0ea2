// Package cache provides the entry cache: a typed read-through cache over a
// size-limited key/value backing store.
//
// Backing stores (in-process memory, Redis) impose a hard ceiling on the size of
// a single value. The cache wraps every value in a descriptor that records its
// type tag, TTL and write time. When the serialized value does not fit under the
// ceiling (minus DescriptorMargin), it is split into ordered fragments stored
// under derived keys ("$$$" + key + index) and the descriptor only records the
// fragment keys. Reads reassemble fragments by concatenation in index order.
//
// # Typed Access
//
// Values are tagged as string, number, boolean or object. Reading a key with a
// different type than it was written with fails with ErrTypeMismatch; this is a
// programming error and is not meant to be recovered from. A missing key is not
// an error: getters report found=false.
//
// Objects are serialized with a pluggable Codec (JSON by default).
//
// # Usage
//
//	backend := cache.NewMemoryBackend(128 * 1024)
//	c := cache.New(backend, cache.WithLogger(log))
//
//	if err := c.PutString(ctx, "greeting", "hello", time.Minute); err != nil {
//	    return err
//	}
//	v, found, err := c.GetString(ctx, "greeting")
//
//	// Read-through with stampede protection
//	var docs []remote.Item
//	err := c.GetOrLoad(ctx, "docs:listing", 10*time.Minute, &docs, loadDocs)
package cache
