package utils

// Chunk splits items into consecutive groups of at most size elements.
// The last group holds the remainder. A non-positive size yields a single group.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(items)
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunk := make([]T, end-start)
		copy(chunk, items[start:end])
		chunks = append(chunks, chunk)
	}
	return chunks
}

// Difference returns the members of a that are not in b.
func Difference[K comparable](a, b map[K]struct{}) map[K]struct{} {
	diff := make(map[K]struct{})
	for k := range a {
		if _, ok := b[k]; !ok {
			diff[k] = struct{}{}
		}
	}
	return diff
}

// SetOf builds a set from a slice.
func SetOf[K comparable](keys []K) map[K]struct{} {
	set := make(map[K]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Reverse swaps keys and values. When values repeat, the last key seen wins,
// so callers that need injectivity must check len(result) == len(m).
func Reverse[K, V comparable](m map[K]V) map[V]K {
	r := make(map[V]K, len(m))
	for k, v := range m {
		r[v] = k
	}
	return r
}

// Pop returns a copy of m without key, along with the removed value.
// If key is absent, def is returned and the copy equals m.
func Pop[K comparable, V any](m map[K]V, key K, def V) (map[K]V, V) {
	rest := make(map[K]V, len(m))
	val := def
	for k, v := range m {
		if k == key {
			val = v
			continue
		}
		rest[k] = v
	}
	return rest, val
}
