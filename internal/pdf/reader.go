package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
)

// trailerKeys are the trailer entries that survive a parse. Everything
// else describes the source file layout and is rebuilt by the writer.
var trailerKeys = []Name{"Root", "Info", "ID"}

var objHeaderPattern = regexp.MustCompile(`(\d+)[ \t\r\n\f\x00]+(\d+)[ \t\r\n\f\x00]+obj\b`)

type xrefEntry struct {
	offset     int
	gen        uint16
	compressed bool
	stream     uint32
	index      int
}

type reader struct {
	data      []byte
	entries   map[uint32]xrefEntry
	trailer   *Dict
	objects   map[ObjectID]Object
	objStms   map[uint32][]objStmSlot
	resolving int
}

type objStmSlot struct {
	num    uint32
	offset int
	data   []byte
}

func newReader(data []byte) *reader {
	return &reader{
		data:    data,
		entries: make(map[uint32]xrefEntry),
		objects: make(map[ObjectID]Object),
		objStms: make(map[uint32][]objStmSlot),
	}
}

// Parse reads a complete document. Damaged cross-reference data is
// recovered by scanning the file for object headers.
func Parse(data []byte) (*Document, error) {
	version, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	r := newReader(data)
	err = r.readXref()
	if errors.Is(err, ErrEncrypted) {
		return nil, err
	}
	if err == nil {
		err = r.loadAll(false)
	}
	if err != nil {
		r = newReader(data)
		if err := r.scan(); err != nil {
			return nil, err
		}
	}
	if r.trailer.Has("Encrypt") {
		return nil, ErrEncrypted
	}
	return r.document(version), nil
}

func parseHeader(data []byte) (string, error) {
	limit := min(len(data), 1024)
	idx := bytes.Index(data[:limit], []byte("%PDF-"))
	if idx < 0 {
		return "", ErrNotPDF
	}
	l := newLexer(data, idx+5)
	start := l.pos
	for !l.eof() && (isDigit(l.peek()) || l.peek() == '.') {
		l.pos++
	}
	version := string(data[start:l.pos])
	if version == "" {
		version = "1.4"
	}
	return version, nil
}

func findStartXref(data []byte) (int, error) {
	tail := data[max(0, len(data)-1024):]
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("%w: startxref not found", ErrXref)
	}
	l := newLexer(tail, idx+len("startxref"))
	l.skipSpace()
	off, ok := l.uint()
	if !ok || int(off) >= len(data) {
		return 0, fmt.Errorf("%w: bad startxref offset", ErrXref)
	}
	return int(off), nil
}

// readXref walks the cross-reference chain from startxref through /Prev.
// Newer sections are read first, so the first entry seen for a number wins.
func (r *reader) readXref() error {
	off, err := findStartXref(r.data)
	if err != nil {
		return err
	}

	seen := make(map[int]bool)
	for !seen[off] {
		seen[off] = true
		if off < 0 || off >= len(r.data) {
			return fmt.Errorf("%w: offset %d out of range", ErrXref, off)
		}

		l := newLexer(r.data, off)
		l.skipSpace()
		var trailer *Dict
		if l.hasPrefixAt("xref") {
			trailer, err = r.readXrefTable(l)
		} else {
			trailer, err = r.readXrefStream(off)
		}
		if err != nil {
			return err
		}

		if r.trailer == nil {
			r.trailer = trailer.Clone()
		} else {
			r.trailer.MergeMissing(trailer)
		}

		if stm, ok := trailer.Int("XRefStm"); ok {
			// Hybrid files: the stream is supplementary, failures are not fatal.
			_, _ = r.readXrefStream(int(stm))
		}

		prev, ok := trailer.Int("Prev")
		if !ok {
			break
		}
		off = int(prev)
	}

	if !r.trailer.Has("Root") {
		return fmt.Errorf("%w: trailer has no /Root", ErrXref)
	}
	if r.trailer.Has("Encrypt") {
		return ErrEncrypted
	}
	return nil
}

func (r *reader) readXrefTable(l *lexer) (*Dict, error) {
	l.pos += len("xref")
	for {
		l.skipSpace()
		if l.hasPrefixAt("trailer") {
			l.pos += len("trailer")
			obj, err := l.readObject()
			if err != nil {
				return nil, err
			}
			d, ok := obj.(*Dict)
			if !ok {
				return nil, fmt.Errorf("%w: trailer is not a dictionary", ErrXref)
			}
			return d, nil
		}

		first, ok := l.uint()
		if !ok {
			return nil, fmt.Errorf("%w: bad subsection header at %d", ErrXref, l.pos)
		}
		l.skipSpace()
		count, ok := l.uint()
		if !ok {
			return nil, fmt.Errorf("%w: bad subsection count at %d", ErrXref, l.pos)
		}

		for i := uint64(0); i < count; i++ {
			l.skipSpace()
			off, ok1 := l.uint()
			l.skipSpace()
			gen, ok2 := l.uint()
			l.skipSpace()
			kind := l.keyword()
			if !ok1 || !ok2 || (kind != "n" && kind != "f") {
				return nil, fmt.Errorf("%w: bad entry at %d", ErrXref, l.pos)
			}
			num := uint32(first + i)
			if _, exists := r.entries[num]; exists || kind == "f" || num == 0 {
				continue
			}
			r.entries[num] = xrefEntry{offset: int(off), gen: uint16(gen)}
		}
	}
}

func (r *reader) readXrefStream(off int) (*Dict, error) {
	_, obj, err := r.parseIndirect(off)
	if err != nil {
		return nil, err
	}
	s, ok := obj.(*Stream)
	if !ok || s.Dict.Type() != "XRef" {
		return nil, fmt.Errorf("%w: no cross-reference stream at %d", ErrXref, off)
	}
	if err := r.addXrefStreamEntries(s); err != nil {
		return nil, err
	}
	return s.Dict, nil
}

func (r *reader) addXrefStreamEntries(s *Stream) error {
	wv, _ := s.Dict.Get("W")
	warr, ok := wv.(Array)
	if !ok || len(warr) != 3 {
		return fmt.Errorf("%w: bad /W array", ErrXref)
	}
	var w [3]int
	for i, v := range warr {
		n, ok := v.(Integer)
		if !ok || n < 0 || n > 8 {
			return fmt.Errorf("%w: bad /W array", ErrXref)
		}
		w[i] = int(n)
	}

	size, _ := s.Dict.Int("Size")
	index := []int64{0, size}
	if iv, ok := s.Dict.Get("Index"); ok {
		if arr, ok := iv.(Array); ok && len(arr)%2 == 0 {
			index = index[:0]
			for _, v := range arr {
				n, _ := v.(Integer)
				index = append(index, int64(n))
			}
		}
	}

	data, err := decodeStream(s)
	if err != nil {
		return err
	}

	rowLen := w[0] + w[1] + w[2]
	if rowLen == 0 {
		return fmt.Errorf("%w: empty /W", ErrXref)
	}
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		first, count := index[i], index[i+1]
		for j := int64(0); j < count; j++ {
			if pos+rowLen > len(data) {
				return nil
			}
			row := data[pos : pos+rowLen]
			pos += rowLen

			kind := int64(1)
			if w[0] > 0 {
				kind = readField(row[:w[0]])
			}
			f2 := readField(row[w[0] : w[0]+w[1]])
			f3 := readField(row[w[0]+w[1]:])

			num := uint32(first + j)
			if _, exists := r.entries[num]; exists || num == 0 {
				continue
			}
			switch kind {
			case 1:
				r.entries[num] = xrefEntry{offset: int(f2), gen: uint16(f3)}
			case 2:
				r.entries[num] = xrefEntry{compressed: true, stream: uint32(f2), index: int(f3)}
			}
		}
	}
	return nil
}

func readField(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

// parseIndirect parses "num gen obj <object> [stream ...]" at off.
func (r *reader) parseIndirect(off int) (ObjectID, Object, error) {
	if off < 0 || off >= len(r.data) {
		return ObjectID{}, nil, &SyntaxError{Offset: off, Msg: "offset out of range"}
	}
	l := newLexer(r.data, off)
	id, err := l.readIndirectHeader()
	if err != nil {
		return ObjectID{}, nil, err
	}
	obj, err := l.readObject()
	if err != nil {
		return ObjectID{}, nil, err
	}

	d, ok := obj.(*Dict)
	if !ok {
		return id, obj, nil
	}
	l.skipSpace()
	if !l.hasPrefixAt("stream") {
		return id, obj, nil
	}
	l.pos += len("stream")
	data, err := r.streamData(l, d)
	if err != nil {
		return ObjectID{}, nil, err
	}
	return id, &Stream{Dict: d, Data: data}, nil
}

// streamData slices the raw stream payload following the "stream" keyword.
// A missing or wrong /Length falls back to searching for "endstream".
func (r *reader) streamData(l *lexer, d *Dict) ([]byte, error) {
	if l.peek() == '\r' {
		l.pos++
	}
	if l.peek() == '\n' {
		l.pos++
	}
	start := l.pos

	if n, ok := r.streamLength(d); ok && n >= 0 && start+n <= len(r.data) {
		after := newLexer(r.data, start+n)
		after.skipSpace()
		if after.hasPrefixAt("endstream") {
			d.Set("Length", Integer(n))
			return r.data[start : start+n], nil
		}
	}

	idx := bytes.Index(r.data[start:], []byte("endstream"))
	if idx < 0 {
		return nil, &SyntaxError{Offset: start, Msg: "stream without endstream"}
	}
	end := start + idx
	if end > start && r.data[end-1] == '\n' {
		end--
	}
	if end > start && r.data[end-1] == '\r' {
		end--
	}
	d.Set("Length", Integer(end-start))
	return r.data[start:end], nil
}

func (r *reader) streamLength(d *Dict) (int, bool) {
	v, ok := d.Get("Length")
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case Integer:
		return int(n), true
	case Reference:
		if r.resolving > 2 {
			return 0, false
		}
		r.resolving++
		defer func() { r.resolving-- }()
		obj, err := r.load(n.Number)
		if err != nil {
			return 0, false
		}
		if i, ok := obj.(Integer); ok {
			return int(i), true
		}
	}
	return 0, false
}

// load returns object num, parsing it on first use.
func (r *reader) load(num uint32) (Object, error) {
	e, ok := r.entries[num]
	if !ok {
		return nil, fmt.Errorf("%w: object %d not in cross-reference", ErrXref, num)
	}
	id := ObjectID{Number: num, Generation: e.gen}
	if obj, ok := r.objects[id]; ok {
		return obj, nil
	}

	var obj Object
	if e.compressed {
		o, err := r.loadCompressed(num, e)
		if err != nil {
			return nil, err
		}
		obj = o
	} else {
		got, o, err := r.parseIndirect(e.offset)
		if err != nil {
			return nil, err
		}
		if got.Number != num {
			return nil, fmt.Errorf("%w: expected object %d at offset %d, found %d", ErrXref, num, e.offset, got.Number)
		}
		obj = o
	}
	r.objects[id] = obj
	return obj, nil
}

func (r *reader) loadCompressed(num uint32, e xrefEntry) (Object, error) {
	slots, err := r.objectStream(e.stream)
	if err != nil {
		return nil, err
	}
	for _, s := range slots {
		if s.num == num {
			return newLexer(s.data, s.offset).readObject()
		}
	}
	return nil, fmt.Errorf("%w: object %d missing from object stream %d", ErrXref, num, e.stream)
}

// objectStream decodes an /ObjStm container and indexes its members.
func (r *reader) objectStream(num uint32) ([]objStmSlot, error) {
	if slots, ok := r.objStms[num]; ok {
		return slots, nil
	}
	obj, err := r.load(num)
	if err != nil {
		return nil, err
	}
	s, ok := obj.(*Stream)
	if !ok || s.Dict.Type() != "ObjStm" {
		return nil, fmt.Errorf("%w: object %d is not an object stream", ErrXref, num)
	}
	slots, err := parseObjectStream(s)
	if err != nil {
		return nil, err
	}
	r.objStms[num] = slots
	return slots, nil
}

func parseObjectStream(s *Stream) ([]objStmSlot, error) {
	data, err := decodeStream(s)
	if err != nil {
		return nil, err
	}
	n, _ := s.Dict.Int("N")
	first, _ := s.Dict.Int("First")
	if n < 0 || first < 0 || int(first) > len(data) {
		return nil, fmt.Errorf("%w: bad object stream header", ErrMalformed)
	}

	l := newLexer(data, 0)
	slots := make([]objStmSlot, 0, n)
	for i := int64(0); i < n; i++ {
		l.skipSpace()
		num, ok1 := l.uint()
		l.skipSpace()
		off, ok2 := l.uint()
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: bad object stream index", ErrMalformed)
		}
		slots = append(slots, objStmSlot{num: uint32(num), offset: int(first) + int(off), data: data})
	}
	return slots, nil
}

func (r *reader) loadAll(lenient bool) error {
	nums := make([]uint32, 0, len(r.entries))
	for num := range r.entries {
		nums = append(nums, num)
	}
	slices.Sort(nums)
	for _, num := range nums {
		if _, err := r.load(num); err != nil {
			if lenient {
				delete(r.entries, num)
				continue
			}
			return err
		}
	}
	return nil
}

// scan rebuilds the cross-reference table from "n g obj" headers.
func (r *reader) scan() error {
	for _, m := range objHeaderPattern.FindAllSubmatchIndex(r.data, -1) {
		num, err1 := strconv.ParseUint(string(r.data[m[2]:m[3]]), 10, 32)
		gen, err2 := strconv.ParseUint(string(r.data[m[4]:m[5]]), 10, 16)
		if err1 != nil || err2 != nil || num == 0 {
			continue
		}
		// Later definitions belong to incremental updates and win.
		r.entries[uint32(num)] = xrefEntry{offset: m[0], gen: uint16(gen)}
	}
	if len(r.entries) == 0 {
		return fmt.Errorf("%w: no objects found", ErrXref)
	}
	_ = r.loadAll(true)

	// Members of object streams have no header of their own.
	for id, obj := range r.objects {
		s, ok := obj.(*Stream)
		if !ok || s.Dict.Type() != "ObjStm" {
			continue
		}
		slots, err := parseObjectStream(s)
		if err != nil {
			continue
		}
		r.objStms[id.Number] = slots
		for i, slot := range slots {
			if _, exists := r.entries[slot.num]; exists {
				continue
			}
			e := xrefEntry{compressed: true, stream: id.Number, index: i}
			r.entries[slot.num] = e
			if _, err := r.load(slot.num); err != nil {
				delete(r.entries, slot.num)
			}
		}
	}

	r.trailer = r.scanTrailer()
	if !r.trailer.Has("Root") {
		return fmt.Errorf("%w: no document catalog found", ErrXref)
	}
	return nil
}

// scanTrailer merges every "trailer" dictionary and cross-reference stream
// dictionary, newest first, then falls back to locating the catalog.
func (r *reader) scanTrailer() *Dict {
	trailer := NewDict()
	rest := r.data
	for {
		idx := bytes.LastIndex(rest, []byte("trailer"))
		if idx < 0 {
			break
		}
		l := newLexer(r.data, idx+len("trailer"))
		if obj, err := l.readObject(); err == nil {
			if d, ok := obj.(*Dict); ok {
				trailer.MergeMissing(d)
			}
		}
		rest = rest[:idx]
	}

	for _, id := range sortedIDs(r.objects) {
		if s, ok := r.objects[id].(*Stream); ok && s.Dict.Type() == "XRef" {
			trailer.MergeMissing(s.Dict)
		}
	}

	if root, ok := trailer.Reference("Root"); ok {
		if _, exists := r.objects[root]; !exists {
			trailer.Delete("Root")
		}
	}
	if !trailer.Has("Root") {
		for _, id := range sortedIDs(r.objects) {
			if d, ok := r.objects[id].(*Dict); ok && d.Type() == "Catalog" {
				trailer.Set("Root", Ref(id))
				break
			}
		}
	}
	return trailer
}

func (r *reader) document(version string) *Document {
	doc := NewDocument()
	doc.Version = version
	for id, obj := range r.objects {
		if s, ok := obj.(*Stream); ok {
			switch s.Dict.Type() {
			case "XRef", "ObjStm":
				continue
			}
		}
		doc.Objects[id] = obj
		doc.MaxID = max(doc.MaxID, id.Number)
	}
	for _, k := range trailerKeys {
		if v, ok := r.trailer.Get(k); ok {
			doc.Trailer.Set(k, v)
		}
	}
	return doc
}
