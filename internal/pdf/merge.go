package pdf

import (
	"fmt"
)

// bookmarkColor is the outline color given to per-document bookmarks.
var bookmarkColor = [3]float64{0, 0, 1}

// Merge combines docs into one document, in order, without re-rendering.
// Object numbers of each input are shifted past the previous one, the
// first Catalog and first Pages become canonical, every page is re-parented
// to the canonical Pages node, source outlines are dropped and replaced by
// one bookmark per input document pointing at its first page.
//
// Merge takes ownership of docs; they are modified in place.
func Merge(docs []*Document) (*Document, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	out := NewDocument()
	all := make(map[ObjectID]Object)
	var (
		pageIDs   []ObjectID
		bookmarks []*Bookmark
		info      Object
		next      uint32 = 1
	)

	for _, doc := range docs {
		doc.RenumberFrom(next)
		next = doc.MaxID + 1
		out.Version = maxVersion(out.Version, doc.Version)

		pages, err := doc.Pages()
		if err != nil && !isMissingRoot(err) {
			return nil, err
		}
		if len(pages) > 0 {
			bookmarks = append(bookmarks, &Bookmark{
				Title: fmt.Sprintf("Page_%d", len(bookmarks)+1),
				Page:  pages[0],
				Color: bookmarkColor,
			})
		}
		pageIDs = append(pageIDs, pages...)

		if info == nil {
			if ref, ok := doc.Trailer.Get("Info"); ok {
				if _, isRef := ref.(Reference); isRef {
					info = ref
				}
			}
		}
		for id, obj := range doc.Objects {
			all[id] = obj
		}
	}

	var (
		catalogID, pagesID ObjectID
		catalog, pagesNode *Dict
	)
	for _, id := range sortedIDs(all) {
		obj := all[id]
		dict, isDict := obj.(*Dict)
		if !isDict {
			out.Objects[id] = obj
			continue
		}
		switch dict.Type() {
		case "Catalog":
			if catalog == nil {
				catalogID, catalog = id, dict
			}
		case "Pages":
			if pagesNode == nil {
				pagesID, pagesNode = id, dict
			} else {
				pagesNode.MergeMissing(dict)
			}
		case "Page":
			// Added below in reading order.
		case "Outlines", "Outline":
		default:
			out.Objects[id] = obj
		}
	}

	if pagesNode == nil {
		return nil, &MissingRootError{Kind: "Pages"}
	}
	if catalog == nil {
		return nil, &MissingRootError{Kind: "Catalog"}
	}

	kids := make(Array, 0, len(pageIDs))
	for _, id := range pageIDs {
		page, ok := all[id].(*Dict)
		if !ok {
			continue
		}
		page.Set("Parent", Ref(pagesID))
		pinInherited(page, pagesNode)
		out.Objects[id] = page
		kids = append(kids, Ref(id))
	}

	pagesNode.Delete("Parent")
	pagesNode.Set("Count", Integer(len(kids)))
	pagesNode.Set("Kids", kids)
	out.Objects[pagesID] = pagesNode

	catalog.Set("Pages", Ref(pagesID))
	catalog.Delete("Outlines")
	out.Objects[catalogID] = catalog

	out.Trailer.Set("Root", Ref(catalogID))
	if info != nil {
		if _, ok := out.Objects[info.(Reference).ID()]; ok {
			out.Trailer.Set("Info", info)
		}
	}
	for id := range out.Objects {
		out.MaxID = max(out.MaxID, id.Number)
	}

	// Outline items and nodes dropped above leave holes; close them and
	// carry the bookmark targets along.
	mapping := out.Renumber()
	for _, b := range bookmarks {
		if id, ok := mapping[b.Page]; ok {
			b.Page = id
		} else {
			b.Page = ObjectID{}
		}
	}

	bookmarks = out.NormalizeBookmarks(bookmarks)
	if _, _, err := out.BuildOutline(bookmarks); err != nil {
		return nil, err
	}
	if err := out.Compress(); err != nil {
		return nil, err
	}
	return out, nil
}

// MergeBytes parses each input, merges them and serializes the result.
func MergeBytes(inputs [][]byte) ([]byte, error) {
	docs := make([]*Document, 0, len(inputs))
	for i, data := range inputs {
		doc, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parsing document %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	merged, err := Merge(docs)
	if err != nil {
		return nil, err
	}
	return merged.Bytes()
}

func isMissingRoot(err error) bool {
	_, ok := err.(*MissingRootError)
	return ok
}

// maxVersion compares "major.minor" header versions.
func maxVersion(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	var amaj, amin, bmaj, bmin int
	_, _ = fmt.Sscanf(a, "%d.%d", &amaj, &amin)
	_, _ = fmt.Sscanf(b, "%d.%d", &bmaj, &bmin)
	if bmaj > amaj || (bmaj == amaj && bmin > amin) {
		return b
	}
	return a
}

// pinInherited gives page an explicit value for every inheritable key the
// canonical Pages node carries but page lacks, so the root's first-wins
// values never apply to pages of later documents. MediaBox has no neutral
// value and is left to inherit.
func pinInherited(page, root *Dict) {
	for _, k := range inheritable {
		if page.Has(k) || !root.Has(k) {
			continue
		}
		switch k {
		case "Rotate":
			page.Set(k, Integer(0))
		case "Resources":
			page.Set(k, NewDict())
		case "CropBox":
			if box, ok := page.Get("MediaBox"); ok {
				page.Set(k, cloneObject(box))
			}
		}
	}
}
