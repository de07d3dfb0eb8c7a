// Package flatten converts arbitrarily nested vendor payloads into flat,
// path-keyed records. A payload is represented as a tagged Value variant
// (null, scalar, list, or ordered map) so that shapes unknown until runtime
// can be traversed without reflection.
//
// Path encoding is deterministic: nested mapping keys are joined with ".",
// and a list element appends "[i]" to the preceding segment, so
// {"a": {"b": 1, "c": [2, 3]}} flattens to a.b, a.c[0], a.c[1].
package flatten

// Kind identifies which variant a Value holds.
type Kind int

// Value kinds.
const (
	KindNull Kind = iota
	KindScalar
	KindList
	KindMap
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is one node of a raw vendor payload. Maps preserve insertion order,
// which keeps flattening and everything downstream deterministic.
type Value struct {
	kind   Kind
	scalar any // string, float64, or bool
	list   []Value
	keys   []string
	items  map[string]Value
}

// Member is one key/value pair of a map Value, used by Object.
type Member struct {
	Key   string
	Value Value
}

// Null returns the null Value.
func Null() Value {
	return Value{kind: KindNull}
}

// String returns a string scalar Value.
func String(s string) Value {
	return Value{kind: KindScalar, scalar: s}
}

// Number returns a numeric scalar Value.
func Number(f float64) Value {
	return Value{kind: KindScalar, scalar: f}
}

// Bool returns a boolean scalar Value.
func Bool(b bool) Value {
	return Value{kind: KindScalar, scalar: b}
}

// List returns a list Value with the given elements in order.
func List(elems ...Value) Value {
	return Value{kind: KindList, list: elems}
}

// Object returns a map Value with the given members in order.
// A duplicate key overwrites the earlier value but keeps its first position.
func Object(members ...Member) Value {
	v := Value{kind: KindMap, items: make(map[string]Value, len(members))}
	for _, m := range members {
		v.set(m.Key, m.Value)
	}
	return v
}

// set inserts or replaces a key on a map Value.
func (v *Value) set(key string, child Value) {
	if _, ok := v.items[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.items[key] = child
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null Value. The zero Value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Scalar returns the scalar payload (string, float64, or bool).
// It returns nil for non-scalar values.
func (v Value) Scalar() any {
	if v.kind != KindScalar {
		return nil
	}
	return v.scalar
}

// Len returns the number of elements of a list or members of a map.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.keys)
	default:
		return 0
	}
}

// Index returns the i-th element of a list Value.
func (v Value) Index(i int) Value {
	return v.list[i]
}

// Keys returns the map keys in insertion order. The slice is shared; callers
// must not modify it.
func (v Value) Keys() []string {
	return v.keys
}

// Get looks up a key on a map Value.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	child, ok := v.items[key]
	return child, ok
}

// Dig descends through nested map keys, returning false if any
// segment is missing or not a map.
func (v Value) Dig(keys ...string) (Value, bool) {
	cur := v
	for _, key := range keys {
		next, ok := cur.Get(key)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}
