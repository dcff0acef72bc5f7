package pdf

import (
	"bytes"
)

// Info holds document information fields. Nil fields are omitted.
type Info struct {
	Title    *string
	Author   *string
	Subject  *string
	Creator  *string
	Producer *string
}

func (i *Info) dict() *Dict {
	d := NewDict()
	for _, f := range []struct {
		key Name
		val *string
	}{
		{"Title", i.Title},
		{"Author", i.Author},
		{"Subject", i.Subject},
		{"Creator", i.Creator},
		{"Producer", i.Producer},
	} {
		if f.val != nil {
			d.Set(f.key, TextString(*f.val))
		}
	}
	return d
}

// SetInfo replaces the information dictionary with exactly the fields in
// info. The dictionary lands on the object the trailer already names, or
// object 1 when the trailer names none and 1 is free, or a new object.
func (d *Document) SetInfo(info *Info) ObjectID {
	target, ok := d.Trailer.Reference("Info")
	if !ok {
		target = ObjectID{Number: 1}
		if _, taken := d.Objects[target]; taken {
			target = ObjectID{Number: d.MaxID + 1}
		}
	}
	d.Objects[target] = info.dict()
	d.MaxID = max(d.MaxID, target.Number)
	d.Trailer.Set("Info", Ref(target))
	return target
}

// Info returns the current information dictionary, if any.
func (d *Document) Info() (*Dict, bool) {
	v, ok := d.Trailer.Get("Info")
	if !ok {
		return nil, false
	}
	dict, ok := d.Resolve(v).(*Dict)
	return dict, ok
}

// StampInfo rewrites data with info as its information dictionary. A nil
// info returns data untouched.
func StampInfo(data []byte, info *Info) ([]byte, error) {
	if info == nil {
		return data, nil
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SetInfo(info)
	if err := doc.Compress(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
