// Package yamlutil decodes size-limited YAML documents.
// It is the only package that imports the YAML library.
package yamlutil

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// DefaultMaxSize caps YAML input at 1 MiB.
const DefaultMaxSize = 1 << 20

var (
	ErrEmptyInput     = errors.New("yamlutil: empty input")
	ErrNilDestination = errors.New("yamlutil: nil destination")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

type options struct {
	strict  bool
	maxSize int
}

// Option adjusts decoding.
type Option func(*options)

// Strict rejects keys that do not map to a destination field.
func Strict() Option {
	return func(o *options) { o.strict = true }
}

// MaxSize overrides DefaultMaxSize. Values <= 0 are ignored.
func MaxSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSize = n
		}
	}
}

func newOptions(opts []Option) options {
	o := options{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any, opts ...Option) error {
	o := newOptions(opts)
	if len(data) == 0 {
		return ErrEmptyInput
	}
	if len(data) > o.maxSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), o.maxSize)
	}
	if v == nil {
		return ErrNilDestination
	}

	var decodeOpts []yaml.DecodeOption
	if o.strict {
		decodeOpts = append(decodeOpts, yaml.Strict())
	}
	if err := yaml.UnmarshalWithOptions(data, v, decodeOpts...); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// ReadFile decodes the file at path into v without reading more than the
// size limit into memory.
func ReadFile(path string, v any, opts ...Option) error {
	o := newOptions(opts)

	f, err := os.Open(path) // #nosec G304 -- path is chosen by the operator
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, int64(o.maxSize)+1))
	if err != nil {
		return fmt.Errorf("yamlutil: reading %s: %w", path, err)
	}
	return Unmarshal(data, v, opts...)
}

// Marshal encodes v as YAML.
func Marshal(v any) ([]byte, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return out, nil
}
