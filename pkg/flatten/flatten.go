package flatten

import (
	"strconv"
	"strings"
)

// FlatRecord is one subject after flattening: a mapping from unique path to
// scalar. A nil entry records an explicit null in the payload, which is
// distinct from the path being absent from the record entirely.
type FlatRecord map[string]any

// Flatten converts a payload into a flat record. Each top-level key of a map
// payload is flattened independently, so one payload can carry an identity
// field alongside a nested data field. A non-map payload yields an empty
// record; callers degrade such rows to identity-only records.
//
// Raw keys are used verbatim. A key containing ".", "[", or "]" can collide
// with a path produced from nesting; escape such keys upstream if the vendor
// schema allows them.
func Flatten(v Value) FlatRecord {
	out := make(FlatRecord)
	if v.kind != KindMap {
		return out
	}
	for _, key := range v.keys {
		flattenInto(key, v.items[key], out)
	}
	return out
}

// flattenInto recursively flattens v under prefix. Empty maps and lists
// contribute no paths, indistinguishable from the field being absent.
func flattenInto(prefix string, v Value, out FlatRecord) {
	switch v.kind {
	case KindNull:
		out[prefix] = nil
	case KindScalar:
		out[prefix] = v.scalar
	case KindList:
		for i, elem := range v.list {
			flattenInto(prefix+"["+strconv.Itoa(i)+"]", elem, out)
		}
	case KindMap:
		for _, key := range v.keys {
			flattenInto(prefix+"."+key, v.items[key], out)
		}
	}
}

// Nest wraps a payload under a dotted prefix, so that flattening the result
// produces paths namespaced by the prefix. Nest("data.attributes", v) yields
// {"data": {"attributes": v}}. An empty prefix returns v unchanged.
func Nest(prefix string, v Value) Value {
	if prefix == "" {
		return v
	}
	segments := strings.Split(prefix, ".")
	for i := len(segments) - 1; i >= 0; i-- {
		v = Object(Member{Key: segments[i], Value: v})
	}
	return v
}
