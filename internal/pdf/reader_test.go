package pdf

// Notes:
// - Documents under test are either produced by the writer or hand-written
//   with no cross-reference data, which forces the recovery scan.
// - The cross-reference stream case builds exact byte offsets by hand so the
//   non-recovery path is exercised end to end.

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

// ---------------------------------------------------------------------------
// TestParse - Round trip through the writer
// ---------------------------------------------------------------------------

func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()

	src := newTestDocument(t, 3)
	doc := mustParse(t, mustBytes(t, src))

	if doc.Version != "1.4" {
		t.Errorf("Version = %q, want %q", doc.Version, "1.4")
	}
	if len(doc.Objects) != len(src.Objects) {
		t.Errorf("object count = %d, want %d", len(doc.Objects), len(src.Objects))
	}
	if doc.MaxID != src.MaxID {
		t.Errorf("MaxID = %d, want %d", doc.MaxID, src.MaxID)
	}

	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages() error: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("page count = %d, want 3", len(pages))
	}

	page, _ := doc.ResolveDict(Ref(pages[1]))
	content, ok := doc.Resolve(mustGet(t, page, "Contents")).(*Stream)
	if !ok {
		t.Fatal("page contents is not a stream")
	}
	if want := "BT /F1 12 Tf 72 720 Td (page 2) Tj ET"; string(content.Data) != want {
		t.Errorf("content = %q, want %q", content.Data, want)
	}
}

func TestParse_TrailerKeepsOnlyDocumentKeys(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, mustBytes(t, newTestDocument(t, 1)))

	for _, k := range doc.Trailer.Keys() {
		if k != "Root" && k != "Info" && k != "ID" {
			t.Errorf("unexpected trailer key /%s", k)
		}
	}
	if !doc.Trailer.Has("Root") {
		t.Error("trailer lost /Root")
	}
}

// ---------------------------------------------------------------------------
// TestParse - Recovery scan
// ---------------------------------------------------------------------------

const handWrittenPDF = `%PDF-1.7
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 100 100] >>
endobj
3 0 obj
<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>
endobj
4 0 obj
<< /Length 5 0 R >>
stream
hello world
endstream
endobj
5 0 obj
11
endobj
trailer
<< /Root 1 0 R >>
%%EOF
`

func TestParse_WithoutCrossReference(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, []byte(handWrittenPDF))

	if doc.Version != "1.7" {
		t.Errorf("Version = %q, want %q", doc.Version, "1.7")
	}
	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages() error: %v", err)
	}
	if len(pages) != 1 || pages[0] != (ObjectID{Number: 3}) {
		t.Fatalf("pages = %v, want [3 0]", pages)
	}

	s, ok := doc.Objects[ObjectID{Number: 4}].(*Stream)
	if !ok {
		t.Fatal("object 4 is not a stream")
	}
	if string(s.Data) != "hello world" {
		t.Errorf("stream data = %q, want %q", s.Data, "hello world")
	}
	if n, _ := s.Dict.Int("Length"); n != 11 {
		t.Errorf("Length = %d, want 11", n)
	}
}

func TestParse_InheritedMediaBoxPushedDown(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, []byte(handWrittenPDF))
	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages() error: %v", err)
	}

	page, _ := doc.ResolveDict(Ref(pages[0]))
	if got := serialize(mustGet(t, page, "MediaBox")); got != "[0 0 100 100]" {
		t.Errorf("MediaBox = %s, want [0 0 100 100]", got)
	}
}

func TestParse_WithoutTrailerFindsCatalog(t *testing.T) {
	t.Parallel()

	data := bytes.Replace([]byte(handWrittenPDF), []byte("trailer\n<< /Root 1 0 R >>\n"), nil, 1)
	doc := mustParse(t, data)

	root, ok := doc.Trailer.Reference("Root")
	if !ok || root != (ObjectID{Number: 1}) {
		t.Errorf("Root = %v, want 1 0", root)
	}
}

func TestParse_BrokenStartxref(t *testing.T) {
	t.Parallel()

	data := mustBytes(t, newTestDocument(t, 2))
	idx := bytes.LastIndex(data, []byte("startxref"))
	data = append(data[:idx:idx], []byte("startxref\n99999999\n%%EOF\n")...)

	doc := mustParse(t, data)
	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages() error: %v", err)
	}
	if len(pages) != 2 {
		t.Errorf("page count = %d, want 2", len(pages))
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	encrypted := newTestDocument(t, 1)
	encrypted.Trailer.Set("Encrypt", Ref(encrypted.Add(NewDict())))

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"not a pdf", []byte("hello"), ErrNotPDF},
		{"empty", nil, ErrNotPDF},
		{"no objects", []byte("%PDF-1.4\n%%EOF\n"), ErrXref},
		{"encrypted", mustBytes(t, encrypted), ErrEncrypted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestParse - Cross-reference and object streams
// ---------------------------------------------------------------------------

// buildCompressedPDF writes a PDF 1.5 file whose page tree lives in an
// object stream indexed by a cross-reference stream.
func buildCompressedPDF(t *testing.T) []byte {
	t.Helper()

	members := []string{
		"<</Type/Pages/Kids[3 0 R]/Count 1>>",
		"<</Type/Page/Parent 2 0 R/MediaBox[0 0 10 10]>>",
	}
	header := fmt.Sprintf("2 0 3 %d ", len(members[0])+1)
	packed, err := deflate([]byte(header + members[0] + " " + members[1]))
	if err != nil {
		t.Fatalf("deflate() error: %v", err)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.5\n")

	off1 := buf.Len()
	buf.WriteString("1 0 obj\n<</Type/Catalog/Pages 2 0 R>>\nendobj\n")

	off4 := buf.Len()
	fmt.Fprintf(&buf, "4 0 obj\n<</Type/ObjStm/N 2/First %d/Filter/FlateDecode/Length %d>>\nstream\n", len(header), len(packed))
	buf.Write(packed)
	buf.WriteString("\nendstream\nendobj\n")

	off5 := buf.Len()
	rows := [][]byte{
		{0, 0, 0, 0},
		{1, byte(off1 >> 8), byte(off1), 0},
		{2, 0, 4, 0},
		{2, 0, 4, 1},
		{1, byte(off4 >> 8), byte(off4), 0},
		{1, byte(off5 >> 8), byte(off5), 0},
	}
	xref := bytes.Join(rows, nil)
	fmt.Fprintf(&buf, "5 0 obj\n<</Type/XRef/Size 6/W[1 2 1]/Root 1 0 R/Length %d>>\nstream\n", len(xref))
	buf.Write(xref)
	buf.WriteString("\nendstream\nendobj\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", off5)
	return buf.Bytes()
}

func TestParse_CrossReferenceStream(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, buildCompressedPDF(t))

	if doc.Version != "1.5" {
		t.Errorf("Version = %q, want %q", doc.Version, "1.5")
	}
	for _, id := range []ObjectID{{Number: 4}, {Number: 5}} {
		if _, ok := doc.Objects[id]; ok {
			t.Errorf("container object %s should not survive parsing", id)
		}
	}

	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages() error: %v", err)
	}
	if len(pages) != 1 || pages[0] != (ObjectID{Number: 3}) {
		t.Errorf("pages = %v, want [3 0]", pages)
	}
	for _, k := range doc.Trailer.Keys() {
		if k == "W" || k == "Size" || k == "Type" {
			t.Errorf("trailer kept stream key /%s", k)
		}
	}
}

func TestParse_ObjectStreamRecoveredByScan(t *testing.T) {
	t.Parallel()

	data := buildCompressedPDF(t)
	idx := bytes.LastIndex(data, []byte("startxref"))
	data = data[:idx:idx]

	doc := mustParse(t, data)
	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages() error: %v", err)
	}
	if len(pages) != 1 {
		t.Errorf("page count = %d, want 1", len(pages))
	}
}

// ---------------------------------------------------------------------------
// TestApplyPredictor - PNG row filters
// ---------------------------------------------------------------------------

func TestApplyPredictor(t *testing.T) {
	t.Parallel()

	parms := NewDict()
	parms.Set("Predictor", Integer(12))
	parms.Set("Columns", Integer(3))

	// Row 1 uses "Up" against a zero row, row 2 adds 1 to each byte above.
	data := []byte{
		2, 10, 20, 30,
		2, 1, 1, 1,
	}
	got, err := applyPredictor(data, parms)
	if err != nil {
		t.Fatalf("applyPredictor() error: %v", err)
	}
	want := []byte{10, 20, 30, 11, 21, 31}
	if !bytes.Equal(got, want) {
		t.Errorf("applyPredictor() = %v, want %v", got, want)
	}
}
