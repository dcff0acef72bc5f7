package pdf

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// binaryMarker follows the header so transports treat the file as binary.
const binaryMarker = "%\xE2\xE3\xCF\xD3\n"

// countingWriter tracks byte offsets for the cross-reference table.
type countingWriter struct {
	w   *bufio.Writer
	n   int
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += n
	c.err = err
	return n, err
}

func (c *countingWriter) WriteString(s string) {
	_, _ = c.Write([]byte(s))
}

// Write serializes the document with a classic cross-reference table.
func (d *Document) Write(w io.Writer) error {
	cw := &countingWriter{w: bufio.NewWriter(w)}
	version := d.Version
	if version == "" {
		version = "1.4"
	}
	cw.WriteString("%PDF-" + version + "\n" + binaryMarker)

	ids := d.IDs()
	var size uint32
	if len(ids) > 0 {
		size = ids[len(ids)-1].Number + 1
	}
	offsets := make(map[uint32]int, len(ids))
	gens := make(map[uint32]uint16, len(ids))

	var buf bytes.Buffer
	for _, id := range ids {
		offsets[id.Number] = cw.n
		gens[id.Number] = id.Generation

		buf.Reset()
		fmt.Fprintf(&buf, "%d %d obj\n", id.Number, id.Generation)
		writeObject(&buf, d.Objects[id])
		buf.WriteString("\nendobj\n")
		_, _ = cw.Write(buf.Bytes())
	}

	xrefOffset := cw.n
	fmt.Fprintf(cw, "xref\n0 %d\n", max(size, 1))
	cw.WriteString("0000000000 65535 f \n")
	for num := uint32(1); num < size; num++ {
		off, ok := offsets[num]
		if !ok {
			cw.WriteString("0000000000 00000 f \n")
			continue
		}
		fmt.Fprintf(cw, "%010d %05d n \n", off, gens[num])
	}

	trailer := d.Trailer.Clone()
	if trailer == nil {
		trailer = NewDict()
	}
	trailer.Delete("Prev")
	trailer.Delete("XRefStm")
	trailer.Set("Size", Integer(max(size, 1)))

	buf.Reset()
	buf.WriteString("trailer\n")
	writeObject(&buf, trailer)
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
	_, _ = cw.Write(buf.Bytes())

	if cw.err != nil {
		return cw.err
	}
	return cw.w.Flush()
}

// Bytes serializes the document into memory.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeObject(buf *bytes.Buffer, obj Object) {
	switch v := obj.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Boolean:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case Integer:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case Real:
		buf.WriteString(formatReal(float64(v)))
	case Name:
		writeName(buf, v)
	case String:
		writeString(buf, v)
	case Reference:
		fmt.Fprintf(buf, "%d %d R", v.Number, v.Generation)
	case Array:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			writeObject(buf, item)
		}
		buf.WriteByte(']')
	case *Dict:
		buf.WriteString("<<")
		for _, k := range v.keys {
			writeName(buf, k)
			buf.WriteByte(' ')
			writeObject(buf, v.entries[k])
		}
		buf.WriteString(">>")
	case *Stream:
		v.Dict.Set("Length", Integer(len(v.Data)))
		writeObject(buf, v.Dict)
		buf.WriteString("\nstream\n")
		buf.Write(v.Data)
		buf.WriteString("\nendstream")
	}
}

func formatReal(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if s == "-0" {
		return "0"
	}
	return s
}

func writeName(buf *bytes.Buffer, n Name) {
	buf.WriteByte('/')
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c < 0x21 || c > 0x7E || c == '#' || isDelimiter(c) {
			fmt.Fprintf(buf, "#%02X", c)
			continue
		}
		buf.WriteByte(c)
	}
}

func writeString(buf *bytes.Buffer, s String) {
	if s.Hex {
		buf.WriteByte('<')
		for _, c := range s.Value {
			fmt.Fprintf(buf, "%02X", c)
		}
		buf.WriteByte('>')
		return
	}
	buf.WriteByte('(')
	for _, c := range s.Value {
		switch c {
		case '(', ')', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		case '\r':
			buf.WriteString(`\r`)
		case '\n':
			buf.WriteString(`\n`)
		default:
			buf.WriteByte(c)
		}
	}
	buf.WriteByte(')')
}
