package pdf

// Outline item flags (/F).
const (
	OutlineItalic = 1 << 0
	OutlineBold   = 1 << 1
)

// Bookmark is one outline entry pointing at a page.
type Bookmark struct {
	Title    string
	Page     ObjectID
	Level    int
	Color    [3]float64
	Flags    int
	Children []*Bookmark
}

// isPage reports whether id names a /Page dictionary in d.
func (d *Document) isPage(id ObjectID) bool {
	if id.IsZero() {
		return false
	}
	obj, ok := d.Objects[id]
	if !ok {
		return false
	}
	dict, ok := obj.(*Dict)
	return ok && dict.Type() == "Page"
}

// NormalizeBookmarks retargets bookmarks whose page is object 0 or not a
// page to the first descendant that has a valid page. Entries left with
// no valid target and no children are dropped.
func (d *Document) NormalizeBookmarks(marks []*Bookmark) []*Bookmark {
	out := marks[:0:0]
	for _, m := range marks {
		m.Children = d.NormalizeBookmarks(m.Children)
		if !d.isPage(m.Page) {
			target, ok := d.firstValidPage(m.Children)
			if !ok {
				if len(m.Children) == 0 {
					continue
				}
			} else {
				m.Page = target
			}
		}
		out = append(out, m)
	}
	return out
}

func (d *Document) firstValidPage(marks []*Bookmark) (ObjectID, bool) {
	for _, m := range marks {
		if d.isPage(m.Page) {
			return m.Page, true
		}
		if id, ok := d.firstValidPage(m.Children); ok {
			return id, true
		}
	}
	return ObjectID{}, false
}

// BuildOutline writes marks as an outline tree and attaches it to the
// catalog. It reports false when there was nothing to build.
func (d *Document) BuildOutline(marks []*Bookmark) (ObjectID, bool, error) {
	if len(marks) == 0 {
		return ObjectID{}, false, nil
	}
	_, cat, err := d.Catalog()
	if err != nil {
		return ObjectID{}, false, err
	}

	root := NewDict()
	root.Set("Type", Name("Outlines"))
	rootID := d.Add(root)

	first, last, count := d.addOutlineItems(marks, rootID)
	root.Set("First", Ref(first))
	root.Set("Last", Ref(last))
	root.Set("Count", Integer(count))

	cat.Set("Outlines", Ref(rootID))
	return rootID, true, nil
}

// addOutlineItems adds one sibling level and returns its ends plus the
// number of visible descendants.
func (d *Document) addOutlineItems(marks []*Bookmark, parent ObjectID) (first, last ObjectID, count int) {
	ids := make([]ObjectID, len(marks))
	items := make([]*Dict, len(marks))
	for i, m := range marks {
		item := NewDict()
		item.Set("Title", TextString(m.Title))
		item.Set("Parent", Ref(parent))
		if !m.Page.IsZero() {
			item.Set("Dest", Array{Ref(m.Page), Name("Fit")})
		}
		if m.Color != ([3]float64{}) {
			item.Set("C", Array{Real(m.Color[0]), Real(m.Color[1]), Real(m.Color[2])})
		}
		if m.Flags != 0 {
			item.Set("F", Integer(m.Flags))
		}
		items[i] = item
		ids[i] = d.Add(item)
	}

	count = len(marks)
	for i, item := range items {
		if i > 0 {
			item.Set("Prev", Ref(ids[i-1]))
		}
		if i < len(items)-1 {
			item.Set("Next", Ref(ids[i+1]))
		}
		if kids := marks[i].Children; len(kids) > 0 {
			f, l, c := d.addOutlineItems(kids, ids[i])
			item.Set("First", Ref(f))
			item.Set("Last", Ref(l))
			item.Set("Count", Integer(c))
			count += c
		}
	}
	return ids[0], ids[len(ids)-1], count
}
