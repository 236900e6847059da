// Package stats contains statistics calculations and reporting.
package stats

import (
	"bytes"
	"cmp"
	"encoding/json"
	"iter"
	"maps"
	"slices"
)

// OrderedMap is a map whose helpers iterate in ascending key order.
type OrderedMap[K cmp.Ordered, V any] map[K]V

// Update applies fn to the current value of key, or to the zero value
// when key is absent, and stores the result.
func (m OrderedMap[K, V]) Update(key K, fn func(V) V) {
	m[key] = fn(m[key])
}

// Keys returns the keys in ascending order.
func (m OrderedMap[K, V]) Keys() []K {
	return slices.Sorted(maps.Keys(m))
}

// Values returns the values in ascending key order.
func (m OrderedMap[K, V]) Values() []V {
	keys := m.Keys()
	out := make([]V, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

// All iterates key/value pairs in ascending key order.
func (m OrderedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range m.Keys() {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}

// MarshalJSON writes the object in ascending key order. Numeric keys
// are quoted, as encoding/json does for integer map keys.
func (m OrderedMap[K, V]) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for k, v := range m.All() {
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		if key[0] != '"' {
			key = append(append([]byte{'"'}, key...), '"')
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Sum adds all values of an integer map.
func Sum[K cmp.Ordered](m OrderedMap[K, int]) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

// Max returns the largest value, or 0 for an empty map.
func Max[K cmp.Ordered](m OrderedMap[K, int]) int {
	best := 0
	first := true
	for _, v := range m {
		if first || v > best {
			best = v
			first = false
		}
	}
	return best
}

func add(delta int) func(int) int {
	return func(v int) int { return v + delta }
}

func appendTo[T any](item T) func([]T) []T {
	return func(v []T) []T { return append(v, item) }
}
