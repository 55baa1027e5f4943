// Package matcher produces a deterministic string form of tool-call
// arguments. Policy rules and caches compare arguments by this key, so
// {a:1,b:2} and {b:2,a:1} must serialize identically, and serialization
// must never hang or panic on nested or cyclic input.
package matcher

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// circularSentinel marks a true cycle in the input value.
const circularSentinel = `"[Circular]"`

// Reducer lets a value substitute a reduced form of itself before
// serialization. The reduced value is serialized recursively. If Reduce
// panics, the raw value is serialized instead.
type Reducer interface {
	Reduce() any
}

// Serialize returns a deterministic serialization of v.
// Object keys are emitted in lexicographic order regardless of insertion
// order; arrays keep their order; functions and channels serialize as null.
// Cycles are detected along the ancestor chain only, so the same value
// appearing twice in non-circular positions serializes normally while a
// true cycle emits a "[Circular]" sentinel and stops recursing.
func Serialize(v any) string {
	var b strings.Builder
	writeValue(&b, reflect.ValueOf(v), nil)
	return b.String()
}

// writeValue serializes rv into b. ancestors holds the identity of every
// container currently being serialized on the path from the root.
func writeValue(b *strings.Builder, rv reflect.Value, ancestors []uintptr) {
	if !rv.IsValid() {
		b.WriteString("null")
		return
	}

	if reduced, ok := reduce(rv); ok {
		writeValue(b, reflect.ValueOf(reduced), ancestors)
		return
	}

	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			b.WriteString("null")
			return
		}
		if rv.Kind() == reflect.Pointer {
			if onAncestorChain(ancestors, rv.Pointer()) {
				b.WriteString(circularSentinel)
				return
			}
			writeValue(b, rv.Elem(), append(ancestors, rv.Pointer()))
			return
		}
		writeValue(b, rv.Elem(), ancestors)

	case reflect.Map:
		if rv.IsNil() {
			b.WriteString("null")
			return
		}
		if onAncestorChain(ancestors, rv.Pointer()) {
			b.WriteString(circularSentinel)
			return
		}
		writeMap(b, rv, append(ancestors, rv.Pointer()))

	case reflect.Slice:
		if rv.IsNil() {
			b.WriteString("null")
			return
		}
		if onAncestorChain(ancestors, rv.Pointer()) {
			b.WriteString(circularSentinel)
			return
		}
		writeArray(b, rv, append(ancestors, rv.Pointer()))

	case reflect.Array:
		writeArray(b, rv, ancestors)

	case reflect.Struct:
		writeStruct(b, rv, ancestors)

	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		b.WriteString("null")

	default:
		writeScalar(b, rv)
	}
}

// writeMap emits a map as an object with lexicographically sorted keys.
func writeMap(b *strings.Builder, rv reflect.Value, ancestors []uintptr) {
	keys := make([]string, 0, rv.Len())
	byKey := make(map[string]reflect.Value, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := fmt.Sprint(iter.Key().Interface())
		keys = append(keys, k)
		byKey[k] = iter.Value()
	}
	sort.Strings(keys)

	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		writeString(b, k)
		b.WriteByte(':')
		writeValue(b, byKey[k], ancestors)
	}
	b.WriteByte('}')
}

// writeStruct emits exported fields as an object with sorted names.
// A json tag, when present, overrides the field name; "-" skips the field.
func writeStruct(b *strings.Builder, rv reflect.Value, ancestors []uintptr) {
	t := rv.Type()
	names := make([]string, 0, t.NumField())
	byName := make(map[string]reflect.Value, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		names = append(names, name)
		byName[name] = rv.Field(i)
	}
	sort.Strings(names)

	b.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		writeString(b, name)
		b.WriteByte(':')
		writeValue(b, byName[name], ancestors)
	}
	b.WriteByte('}')
}

func writeArray(b *strings.Builder, rv reflect.Value, ancestors []uintptr) {
	b.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		writeValue(b, rv.Index(i), ancestors)
	}
	b.WriteByte(']')
}

// writeScalar emits primitives using JSON encoding rules.
func writeScalar(b *strings.Builder, rv reflect.Value) {
	data, err := json.Marshal(rv.Interface())
	if err != nil {
		b.WriteString("null")
		return
	}
	b.Write(data)
}

func writeString(b *strings.Builder, s string) {
	data, err := json.Marshal(s)
	if err != nil {
		b.WriteString(`""`)
		return
	}
	b.Write(data)
}

// reduce applies the Reducer hook when rv implements it. A panicking
// Reduce is swallowed and reports no reduction.
func reduce(rv reflect.Value) (reduced any, ok bool) {
	if !rv.CanInterface() {
		return nil, false
	}
	r, isReducer := rv.Interface().(Reducer)
	if !isReducer {
		return nil, false
	}
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, false
	}
	defer func() {
		if recover() != nil {
			reduced, ok = nil, false
		}
	}()
	return r.Reduce(), true
}

func onAncestorChain(ancestors []uintptr, p uintptr) bool {
	for _, a := range ancestors {
		if a == p {
			return true
		}
	}
	return false
}
