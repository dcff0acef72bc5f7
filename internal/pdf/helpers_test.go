package pdf

import (
	"bytes"
	"fmt"
	"testing"
)

// newTestDocument builds a document with n pages, each carrying its own
// content stream. Object 1 is the page tree root.
func newTestDocument(t *testing.T, n int) *Document {
	t.Helper()

	doc := NewDocument()
	pages := NewDict()
	pages.Set("Type", Name("Pages"))
	pagesID := doc.Add(pages)

	kids := Array{}
	for i := range n {
		content := &Stream{
			Dict: NewDict(),
			Data: fmt.Appendf(nil, "BT /F1 12 Tf 72 720 Td (page %d) Tj ET", i+1),
		}
		contentID := doc.Add(content)

		page := NewDict()
		page.Set("Type", Name("Page"))
		page.Set("Parent", Ref(pagesID))
		page.Set("MediaBox", Array{Integer(0), Integer(0), Integer(612), Integer(792)})
		page.Set("Contents", Ref(contentID))
		kids = append(kids, Ref(doc.Add(page)))
	}
	pages.Set("Kids", kids)
	pages.Set("Count", Integer(n))

	cat := NewDict()
	cat.Set("Type", Name("Catalog"))
	cat.Set("Pages", Ref(pagesID))
	doc.Trailer.Set("Root", Ref(doc.Add(cat)))
	return doc
}

func mustBytes(t *testing.T, doc *Document) []byte {
	t.Helper()
	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}
	return data
}

func mustParse(t *testing.T, data []byte) *Document {
	t.Helper()
	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return doc
}

// serialize renders a single object the way the writer does.
func serialize(obj Object) string {
	var buf bytes.Buffer
	writeObject(&buf, obj)
	return buf.String()
}

// pagesNode returns the page tree root of doc.
func pagesNode(t *testing.T, doc *Document) (ObjectID, *Dict) {
	t.Helper()
	_, cat, err := doc.Catalog()
	if err != nil {
		t.Fatalf("Catalog() error: %v", err)
	}
	id, ok := cat.Reference("Pages")
	if !ok {
		t.Fatal("catalog has no /Pages reference")
	}
	d, ok := doc.ResolveDict(Ref(id))
	if !ok {
		t.Fatalf("object %s is not a dictionary", id)
	}
	return id, d
}

// outlineTitles walks the top level of the outline tree.
func outlineTitles(t *testing.T, doc *Document) ([]string, []ObjectID) {
	t.Helper()
	_, cat, err := doc.Catalog()
	if err != nil {
		t.Fatalf("Catalog() error: %v", err)
	}
	root, ok := doc.ResolveDict(mustGet(t, cat, "Outlines"))
	if !ok {
		t.Fatal("catalog has no outline")
	}

	var titles []string
	var dests []ObjectID
	next, ok := root.Get("First")
	for ok {
		item, isDict := doc.ResolveDict(next)
		if !isDict {
			t.Fatal("outline item is not a dictionary")
		}
		title, _ := item.Get("Title")
		titles = append(titles, DecodeText(title.(String)))
		dest, _ := item.Get("Dest")
		dests = append(dests, dest.(Array)[0].(Reference).ID())
		next, ok = item.Get("Next")
	}
	return titles, dests
}

func mustGet(t *testing.T, d *Dict, key Name) Object {
	t.Helper()
	v, ok := d.Get(key)
	if !ok {
		t.Fatalf("missing /%s", key)
	}
	return v
}
