package pdf

// Notes:
// - Objects are compared through their serialized form so the tests do not
//   depend on Dict internals.
// - Stream parsing needs a reader (for indirect /Length) and is covered in
//   reader_test.go.

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// TestReadObject - Direct object syntax
// ---------------------------------------------------------------------------

func TestReadObject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"integer", "42", "42"},
		{"signed integer", "+7", "7"},
		{"negative integer", "-3", "-3"},
		{"real", "2.50", "2.5"},
		{"leading dot real", ".5", "0.5"},
		{"negative leading dot real", "-.5", "-0.5"},
		{"two integers are not a reference", "4 5", "4"},
		{"reference", "12 0 R", "12 0 R"},
		{"true", "true", "true"},
		{"false", "false", "false"},
		{"null", "null", "null"},
		{"name", "/Type", "/Type"},
		{"name with hex escape", "/Name#20with", "/Name#20with"},
		{"literal string", "(hello)", "(hello)"},
		{"balanced parens", "(a(b)c)", `(a\(b\)c)`},
		{"escaped parens", `(a\(b)`, `(a\(b)`},
		{"newline escape", `(line\nbreak)`, `(line\nbreak)`},
		{"octal escapes", `(\101\102)`, "(AB)"},
		{"line continuation", "(ab\\\ncd)", "(abcd)"},
		{"hex string", "<48 65 6C6C6F>", "<48656C6C6F>"},
		{"odd hex string", "<41424>", "<414240>"},
		{"array", "[1 2.5 -3 /X true null]", "[1 2.5 -3 /X true null]"},
		{"nested array", "[[1] [2 [3]]]", "[[1] [2 [3]]]"},
		{"dictionary", "<</A 1 0 R /B [2 0 R 3]>>", "<</A 1 0 R/B [2 0 R 3]>>"},
		{"nested dictionary", "<< /Outer << /Inner (x) >> >>", "<</Outer <</Inner (x)>>>>"},
		{"comment before object", "% comment\n 42", "42"},
		{"empty array", "[]", "[]"},
		{"empty dictionary", "<<>>", "<<>>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			obj, err := newLexer([]byte(tt.input), 0).readObject()
			if err != nil {
				t.Fatalf("readObject(%q) error: %v", tt.input, err)
			}
			if got := serialize(obj); got != tt.want {
				t.Errorf("readObject(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestReadObject_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"unterminated string", "(abc"},
		{"unterminated array", "[1 2"},
		{"unterminated dictionary", "<</A 1"},
		{"invalid hex digit", "<zz>"},
		{"unknown keyword", "foo"},
		{"stray close paren", ")"},
		{"dictionary key not a name", "<<1 2>>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := newLexer([]byte(tt.input), 0).readObject()
			if err == nil {
				t.Fatalf("readObject(%q) expected error", tt.input)
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestReadObject_NestingLimit(t *testing.T) {
	t.Parallel()

	input := make([]byte, 0, maxNesting+2)
	for range maxNesting + 1 {
		input = append(input, '[')
	}

	_, err := newLexer(input, 0).readObject()
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("error = %v, want ErrMalformed", err)
	}
}

// ---------------------------------------------------------------------------
// TestReadIndirectHeader - "n g obj" prefix
// ---------------------------------------------------------------------------

func TestReadIndirectHeader(t *testing.T) {
	t.Parallel()

	l := newLexer([]byte("  7 2 obj\n<</A 1>>\nendobj"), 0)
	id, err := l.readIndirectHeader()
	if err != nil {
		t.Fatalf("readIndirectHeader() error: %v", err)
	}
	if id != (ObjectID{Number: 7, Generation: 2}) {
		t.Errorf("id = %v, want 7 2", id)
	}

	if _, err := newLexer([]byte("7 2 foo"), 0).readIndirectHeader(); err == nil {
		t.Error("expected error for missing obj keyword")
	}
}
