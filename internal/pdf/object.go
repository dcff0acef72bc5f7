package pdf

import (
	"fmt"
	"slices"
)

// Object is any PDF value: Name, Integer, Real, Boolean, Null, String,
// Array, *Dict, *Stream or Reference.
type Object interface {
	isObject()
}

// ObjectID identifies an indirect object inside a document.
type ObjectID struct {
	Number     uint32
	Generation uint16
}

// IsZero reports whether id is the reserved object 0.
func (id ObjectID) IsZero() bool {
	return id.Number == 0
}

func (id ObjectID) String() string {
	return fmt.Sprintf("%d %d", id.Number, id.Generation)
}

// Less orders ids by number, then generation.
func (id ObjectID) Less(other ObjectID) bool {
	if id.Number != other.Number {
		return id.Number < other.Number
	}
	return id.Generation < other.Generation
}

type (
	Name    string
	Integer int64
	Real    float64
	Boolean bool
	Null    struct{}
	Array   []Object
)

// String holds raw string bytes. Hex records the source form so the
// writer can round-trip it.
type String struct {
	Value []byte
	Hex   bool
}

// Reference points at an indirect object.
type Reference ObjectID

// Ref builds a Reference to id.
func Ref(id ObjectID) Reference {
	return Reference(id)
}

// ID returns the referenced object id.
func (r Reference) ID() ObjectID {
	return ObjectID(r)
}

// Stream is a dictionary followed by raw (possibly encoded) bytes.
type Stream struct {
	Dict *Dict
	Data []byte
}

func (Name) isObject()      {}
func (Integer) isObject()   {}
func (Real) isObject()      {}
func (Boolean) isObject()   {}
func (Null) isObject()      {}
func (Array) isObject()     {}
func (String) isObject()    {}
func (Reference) isObject() {}
func (*Dict) isObject()     {}
func (*Stream) isObject()   {}

// NewString returns a literal string object.
func NewString(s string) String {
	return String{Value: []byte(s)}
}

// Dict is a PDF dictionary that keeps insertion order, so serialized
// output is stable.
type Dict struct {
	keys    []Name
	entries map[Name]Object
}

// NewDict returns an empty dictionary.
func NewDict() *Dict {
	return &Dict{entries: make(map[Name]Object)}
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []Name {
	if d == nil {
		return nil
	}
	return slices.Clone(d.keys)
}

// Get returns the value stored under key.
func (d *Dict) Get(key Name) (Object, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.entries[key]
	return v, ok
}

// Has reports whether key is present.
func (d *Dict) Has(key Name) bool {
	_, ok := d.Get(key)
	return ok
}

// Set stores value under key, keeping the original position of an
// existing key.
func (d *Dict) Set(key Name, value Object) {
	if _, ok := d.entries[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.entries[key] = value
}

// Delete removes key if present.
func (d *Dict) Delete(key Name) {
	if _, ok := d.entries[key]; !ok {
		return
	}
	delete(d.entries, key)
	d.keys = slices.DeleteFunc(d.keys, func(k Name) bool { return k == key })
}

// MergeMissing copies entries of other whose keys are absent from d.
// Existing entries win.
func (d *Dict) MergeMissing(other *Dict) {
	for _, k := range other.Keys() {
		if !d.Has(k) {
			v, _ := other.Get(k)
			d.Set(k, v)
		}
	}
}

// Type returns the /Type name, or "" when absent.
func (d *Dict) Type() Name {
	n, _ := d.Name("Type")
	return n
}

// Name returns the entry under key when it is a Name.
func (d *Dict) Name(key Name) (Name, bool) {
	v, ok := d.Get(key)
	if !ok {
		return "", false
	}
	n, ok := v.(Name)
	return n, ok
}

// Int returns the entry under key when it is an Integer.
func (d *Dict) Int(key Name) (int64, bool) {
	v, ok := d.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case Integer:
		return int64(n), true
	case Real:
		return int64(n), true
	}
	return 0, false
}

// Reference returns the entry under key when it is a Reference.
func (d *Dict) Reference(key Name) (ObjectID, bool) {
	v, ok := d.Get(key)
	if !ok {
		return ObjectID{}, false
	}
	r, ok := v.(Reference)
	return r.ID(), ok
}

// Clone returns a deep copy of d. Streams inside are shared.
func (d *Dict) Clone() *Dict {
	if d == nil {
		return nil
	}
	c := &Dict{
		keys:    slices.Clone(d.keys),
		entries: make(map[Name]Object, len(d.entries)),
	}
	for k, v := range d.entries {
		c.entries[k] = cloneObject(v)
	}
	return c
}

func cloneObject(obj Object) Object {
	switch v := obj.(type) {
	case *Dict:
		return v.Clone()
	case Array:
		out := make(Array, len(v))
		for i, item := range v {
			out[i] = cloneObject(item)
		}
		return out
	case String:
		return String{Value: slices.Clone(v.Value), Hex: v.Hex}
	}
	return obj
}

// dictOf returns the dictionary of a Dict or Stream object.
func dictOf(obj Object) (*Dict, bool) {
	switch v := obj.(type) {
	case *Dict:
		return v, true
	case *Stream:
		return v.Dict, v.Dict != nil
	}
	return nil, false
}
