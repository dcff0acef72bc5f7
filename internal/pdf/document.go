package pdf

import (
	"fmt"
	"slices"
)

// inheritable page attributes, pushed down onto each page before the page
// is detached from its original tree.
var inheritable = []Name{"Resources", "MediaBox", "CropBox", "Rotate"}

// Document is an in-memory object table plus trailer.
type Document struct {
	Version string
	Objects map[ObjectID]Object
	Trailer *Dict
	// MaxID is the highest object number in use.
	MaxID uint32
}

// NewDocument returns an empty PDF 1.4 document.
func NewDocument() *Document {
	return &Document{
		Version: "1.4",
		Objects: make(map[ObjectID]Object),
		Trailer: NewDict(),
	}
}

// Add stores obj under the next free object number.
func (d *Document) Add(obj Object) ObjectID {
	d.MaxID++
	id := ObjectID{Number: d.MaxID}
	d.Objects[id] = obj
	return id
}

// Get returns the object stored under id.
func (d *Document) Get(id ObjectID) (Object, bool) {
	obj, ok := d.Objects[id]
	return obj, ok
}

// Resolve follows references until a direct object is reached. A
// dangling reference resolves to Null.
func (d *Document) Resolve(obj Object) Object {
	for range 32 {
		ref, ok := obj.(Reference)
		if !ok {
			return obj
		}
		target, ok := d.Objects[ref.ID()]
		if !ok {
			return Null{}
		}
		obj = target
	}
	return Null{}
}

// ResolveDict resolves obj and returns its dictionary, if any.
func (d *Document) ResolveDict(obj Object) (*Dict, bool) {
	return dictOf(d.Resolve(obj))
}

// IDs returns every object id in ascending order.
func (d *Document) IDs() []ObjectID {
	return sortedIDs(d.Objects)
}

func sortedIDs(objects map[ObjectID]Object) []ObjectID {
	ids := make([]ObjectID, 0, len(objects))
	for id := range objects {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b ObjectID) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return ids
}

// Catalog returns the document catalog referenced by the trailer.
func (d *Document) Catalog() (ObjectID, *Dict, error) {
	id, ok := d.Trailer.Reference("Root")
	if !ok {
		return ObjectID{}, nil, &MissingRootError{Kind: "Catalog"}
	}
	cat, ok := d.ResolveDict(Ref(id))
	if !ok {
		return ObjectID{}, nil, &MissingRootError{Kind: "Catalog"}
	}
	return id, cat, nil
}

// Pages returns page object ids in reading order, walking the page tree
// from the catalog. Inheritable attributes missing on a page are copied
// down from its ancestors as a side effect.
func (d *Document) Pages() ([]ObjectID, error) {
	_, cat, err := d.Catalog()
	if err != nil {
		return nil, err
	}
	root, ok := cat.Reference("Pages")
	if !ok {
		return nil, &MissingRootError{Kind: "Pages"}
	}

	var pages []ObjectID
	visited := make(map[ObjectID]bool)
	var walk func(id ObjectID, inherited *Dict) error
	walk = func(id ObjectID, inherited *Dict) error {
		if visited[id] {
			return fmt.Errorf("%w: object %s", ErrPageTreeCycle, id)
		}
		visited[id] = true

		node, ok := d.ResolveDict(Ref(id))
		if !ok {
			return nil
		}
		kidsObj, hasKids := node.Get("Kids")
		if node.Type() == "Page" || (!hasKids && node.Type() != "Pages") {
			for _, k := range inheritable {
				if !node.Has(k) {
					if v, ok := inherited.Get(k); ok {
						node.Set(k, cloneObject(v))
					}
				}
			}
			pages = append(pages, id)
			return nil
		}

		scope := inherited.Clone()
		for _, k := range inheritable {
			if v, ok := node.Get(k); ok {
				scope.Set(k, v)
			}
		}
		kids, _ := d.Resolve(kidsObj).(Array)
		for _, kid := range kids {
			ref, ok := kid.(Reference)
			if !ok {
				continue
			}
			if err := walk(ref.ID(), scope); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root, NewDict()); err != nil {
		return nil, err
	}
	return pages, nil
}

// RenumberFrom assigns contiguous numbers starting at start, in ascending
// id order, and rewrites every reference. Dangling references become
// Null. It returns the old-to-new mapping.
func (d *Document) RenumberFrom(start uint32) map[ObjectID]ObjectID {
	if start == 0 {
		start = 1
	}
	ids := d.IDs()
	mapping := make(map[ObjectID]ObjectID, len(ids))
	for i, id := range ids {
		mapping[id] = ObjectID{Number: start + uint32(i)}
	}

	objects := make(map[ObjectID]Object, len(ids))
	for _, id := range ids {
		objects[mapping[id]] = remapRefs(d.Objects[id], mapping)
	}
	d.Objects = objects
	d.Trailer = remapRefs(d.Trailer, mapping).(*Dict)
	d.MaxID = start + uint32(len(ids)) - 1
	return mapping
}

// Renumber compacts object numbers to 1..n.
func (d *Document) Renumber() map[ObjectID]ObjectID {
	return d.RenumberFrom(1)
}

func remapRefs(obj Object, mapping map[ObjectID]ObjectID) Object {
	switch v := obj.(type) {
	case Reference:
		if id, ok := mapping[v.ID()]; ok {
			return Ref(id)
		}
		return Null{}
	case Array:
		for i, item := range v {
			v[i] = remapRefs(item, mapping)
		}
		return v
	case *Dict:
		for _, k := range v.keys {
			v.entries[k] = remapRefs(v.entries[k], mapping)
		}
		return v
	case *Stream:
		remapRefs(v.Dict, mapping)
		return v
	}
	return obj
}

// Compress flate-encodes every stream that carries no filter yet.
func (d *Document) Compress() error {
	for id, obj := range d.Objects {
		s, ok := obj.(*Stream)
		if !ok || s.Dict.Has("Filter") || len(s.Data) == 0 {
			continue
		}
		enc, err := deflate(s.Data)
		if err != nil {
			return fmt.Errorf("compressing object %s: %w", id, err)
		}
		if len(enc) >= len(s.Data) {
			continue
		}
		s.Data = enc
		s.Dict.Set("Filter", Name("FlateDecode"))
		s.Dict.Set("Length", Integer(len(enc)))
	}
	return nil
}
