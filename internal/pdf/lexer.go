package pdf

import (
	"bytes"
	"strconv"
)

// maxNesting bounds array/dictionary depth to keep hostile input from
// exhausting the stack.
const maxNesting = 256

// lexer parses PDF objects out of an in-memory buffer.
type lexer struct {
	data  []byte
	pos   int
	depth int
}

func newLexer(data []byte, pos int) *lexer {
	return &lexer{data: data, pos: pos}
}

func (l *lexer) errorf(msg string) error {
	return &SyntaxError{Offset: l.pos, Msg: msg}
}

func (l *lexer) eof() bool {
	return l.pos >= len(l.data)
}

func (l *lexer) peek() byte {
	if l.eof() {
		return 0
	}
	return l.data[l.pos]
}

// skipSpace skips whitespace and comments.
func (l *lexer) skipSpace() {
	for !l.eof() {
		c := l.data[l.pos]
		switch {
		case isWhitespace(c):
			l.pos++
		case c == '%':
			for !l.eof() && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		default:
			return
		}
	}
}

// keyword reads a bare regular-character token such as "obj" or "true".
func (l *lexer) keyword() string {
	start := l.pos
	for !l.eof() && isRegular(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

// expectKeyword consumes kw or fails.
func (l *lexer) expectKeyword(kw string) error {
	l.skipSpace()
	start := l.pos
	if got := l.keyword(); got != kw {
		l.pos = start
		return l.errorf("expected " + kw)
	}
	return nil
}

// readObject parses the next object.
func (l *lexer) readObject() (Object, error) {
	l.skipSpace()
	if l.eof() {
		return nil, l.errorf("unexpected end of data")
	}

	switch c := l.data[l.pos]; {
	case c == '/':
		return l.readName()
	case c == '(':
		return l.readLiteralString()
	case c == '<':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
			return l.readDict()
		}
		return l.readHexString()
	case c == '[':
		return l.readArray()
	case c == '+' || c == '-' || c == '.' || isDigit(c):
		return l.readNumberOrReference()
	case isRegular(c):
		start := l.pos
		switch kw := l.keyword(); kw {
		case "true":
			return Boolean(true), nil
		case "false":
			return Boolean(false), nil
		case "null":
			return Null{}, nil
		default:
			l.pos = start
			return nil, l.errorf("unexpected keyword " + strconv.Quote(kw))
		}
	default:
		return nil, l.errorf("unexpected character " + strconv.QuoteRune(rune(c)))
	}
}

func (l *lexer) readName() (Name, error) {
	l.pos++ // '/'
	var b []byte
	for !l.eof() {
		c := l.data[l.pos]
		if !isRegular(c) {
			break
		}
		if c == '#' && l.pos+2 < len(l.data) && isHex(l.data[l.pos+1]) && isHex(l.data[l.pos+2]) {
			b = append(b, unhex(l.data[l.pos+1])<<4|unhex(l.data[l.pos+2]))
			l.pos += 3
			continue
		}
		b = append(b, c)
		l.pos++
	}
	return Name(b), nil
}

func (l *lexer) readLiteralString() (String, error) {
	l.pos++ // '('
	var b []byte
	depth := 1
	for {
		if l.eof() {
			return String{}, l.errorf("unterminated string")
		}
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return String{Value: b}, nil
			}
		case '\\':
			if l.eof() {
				return String{}, l.errorf("unterminated escape")
			}
			e := l.data[l.pos]
			l.pos++
			switch e {
			case 'n':
				b = append(b, '\n')
			case 'r':
				b = append(b, '\r')
			case 't':
				b = append(b, '\t')
			case 'b':
				b = append(b, '\b')
			case 'f':
				b = append(b, '\f')
			case '\r':
				// line continuation
				if l.peek() == '\n' {
					l.pos++
				}
			case '\n':
			case '0', '1', '2', '3', '4', '5', '6', '7':
				v := int(e - '0')
				for i := 0; i < 2 && !l.eof() && l.data[l.pos] >= '0' && l.data[l.pos] <= '7'; i++ {
					v = v*8 + int(l.data[l.pos]-'0')
					l.pos++
				}
				b = append(b, byte(v))
			default:
				b = append(b, e)
			}
			continue
		}
		b = append(b, c)
	}
}

func (l *lexer) readHexString() (String, error) {
	l.pos++ // '<'
	var digits []byte
	for {
		if l.eof() {
			return String{}, l.errorf("unterminated hex string")
		}
		c := l.data[l.pos]
		l.pos++
		if c == '>' {
			break
		}
		if isWhitespace(c) {
			continue
		}
		if !isHex(c) {
			return String{}, l.errorf("invalid hex digit")
		}
		digits = append(digits, c)
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		out[i] = unhex(digits[2*i])<<4 | unhex(digits[2*i+1])
	}
	return String{Value: out, Hex: true}, nil
}

func (l *lexer) readArray() (Array, error) {
	if l.depth++; l.depth > maxNesting {
		return nil, l.errorf("nesting too deep")
	}
	defer func() { l.depth-- }()

	l.pos++ // '['
	arr := Array{}
	for {
		l.skipSpace()
		if l.eof() {
			return nil, l.errorf("unterminated array")
		}
		if l.data[l.pos] == ']' {
			l.pos++
			return arr, nil
		}
		obj, err := l.readObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (l *lexer) readDict() (*Dict, error) {
	if l.depth++; l.depth > maxNesting {
		return nil, l.errorf("nesting too deep")
	}
	defer func() { l.depth-- }()

	l.pos += 2 // '<<'
	d := NewDict()
	for {
		l.skipSpace()
		if l.eof() {
			return nil, l.errorf("unterminated dictionary")
		}
		if l.data[l.pos] == '>' {
			if l.pos+1 < len(l.data) && l.data[l.pos+1] == '>' {
				l.pos += 2
				return d, nil
			}
			return nil, l.errorf("stray '>' in dictionary")
		}
		if l.data[l.pos] != '/' {
			return nil, l.errorf("dictionary key is not a name")
		}
		key, err := l.readName()
		if err != nil {
			return nil, err
		}
		l.skipSpace()
		if !l.eof() && l.data[l.pos] == '>' {
			// Key with no value; treat as null and let the loop close.
			d.Set(key, Null{})
			continue
		}
		val, err := l.readObject()
		if err != nil {
			return nil, err
		}
		d.Set(key, val)
	}
}

// readNumberOrReference reads a number, upgrading "n g R" to a Reference.
func (l *lexer) readNumberOrReference() (Object, error) {
	tok, isInt := l.numberToken()
	if tok == "" {
		return nil, l.errorf("invalid number")
	}
	if !isInt {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, l.errorf("invalid real " + strconv.Quote(tok))
		}
		return Real(f), nil
	}
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return nil, l.errorf("invalid integer " + strconv.Quote(tok))
	}

	if tok[0] != '+' && tok[0] != '-' {
		if ref, ok := l.tryReference(n); ok {
			return ref, nil
		}
	}
	return Integer(n), nil
}

// tryReference looks past an integer for "gen R" and rewinds when absent.
func (l *lexer) tryReference(num int64) (Reference, bool) {
	save := l.pos
	l.skipSpace()
	genStart := l.pos
	for !l.eof() && isDigit(l.data[l.pos]) {
		l.pos++
	}
	if l.pos == genStart {
		l.pos = save
		return Reference{}, false
	}
	gen, err := strconv.ParseUint(string(l.data[genStart:l.pos]), 10, 16)
	if err != nil {
		l.pos = save
		return Reference{}, false
	}
	l.skipSpace()
	if l.eof() || l.data[l.pos] != 'R' || (l.pos+1 < len(l.data) && isRegular(l.data[l.pos+1])) {
		l.pos = save
		return Reference{}, false
	}
	l.pos++
	if num < 0 || num > int64(^uint32(0)) {
		return Reference{}, false
	}
	return Reference{Number: uint32(num), Generation: uint16(gen)}, true
}

func (l *lexer) numberToken() (string, bool) {
	start := l.pos
	isInt := true
	if c := l.peek(); c == '+' || c == '-' {
		l.pos++
	}
	for !l.eof() {
		c := l.data[l.pos]
		if c == '.' {
			isInt = false
		} else if !isDigit(c) {
			break
		}
		l.pos++
	}
	tok := string(l.data[start:l.pos])
	// Some producers emit "--5" or "5-"; keep the valid prefix only.
	if tok == "+" || tok == "-" || tok == "." {
		return "", false
	}
	return tok, isInt
}

// readIndirectHeader parses "num gen obj" at the current position.
func (l *lexer) readIndirectHeader() (ObjectID, error) {
	l.skipSpace()
	num, ok := l.uint()
	if !ok {
		return ObjectID{}, l.errorf("expected object number")
	}
	l.skipSpace()
	gen, ok := l.uint()
	if !ok {
		return ObjectID{}, l.errorf("expected generation number")
	}
	if err := l.expectKeyword("obj"); err != nil {
		return ObjectID{}, err
	}
	return ObjectID{Number: uint32(num), Generation: uint16(gen)}, nil
}

func (l *lexer) uint() (uint64, bool) {
	start := l.pos
	for !l.eof() && isDigit(l.data[l.pos]) {
		l.pos++
	}
	if start == l.pos {
		return 0, false
	}
	v, err := strconv.ParseUint(string(l.data[start:l.pos]), 10, 32)
	return v, err == nil
}

// hasPrefixAt reports whether data at the current position starts with p.
func (l *lexer) hasPrefixAt(p string) bool {
	return bytes.HasPrefix(l.data[l.pos:], []byte(p))
}

func isWhitespace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegular(c byte) bool {
	return !isWhitespace(c) && !isDelimiter(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case isDigit(c):
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
