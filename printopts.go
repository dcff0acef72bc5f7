package pdfrender

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod/lib/proto"
)

// PaperFormat names a standard paper size.
type PaperFormat string

// Supported paper formats.
const (
	FormatA0      PaperFormat = "A0"
	FormatA1      PaperFormat = "A1"
	FormatA2      PaperFormat = "A2"
	FormatA3      PaperFormat = "A3"
	FormatA4      PaperFormat = "A4"
	FormatA5      PaperFormat = "A5"
	FormatA6      PaperFormat = "A6"
	FormatA7      PaperFormat = "A7"
	FormatLetter  PaperFormat = "Letter"
	FormatLegal   PaperFormat = "Legal"
	FormatTabloid PaperFormat = "Tabloid"
)

// paperSize is width x height in inches.
type paperSize struct {
	width, height float64
}

var paperSizes = map[PaperFormat]paperSize{
	FormatA0:      {33.1, 46.8},
	FormatA1:      {23.4, 33.1},
	FormatA2:      {16.5, 23.4},
	FormatA3:      {11.7, 16.5},
	FormatA4:      {8.27, 11.69},
	FormatA5:      {5.83, 8.27},
	FormatA6:      {4.13, 5.83},
	FormatA7:      {2.91, 4.13},
	FormatLetter:  {8.5, 11},
	FormatLegal:   {8.5, 14},
	FormatTabloid: {11, 17},
}

// Print defaults applied when neither the request nor the format decides.
const (
	DefaultFormat            = FormatA4
	DefaultScale             = 1.0
	DefaultMargin            = 0.0
	DefaultPrintBackground   = true
	DefaultPreferCSSPageSize = true
)

// Scale bounds accepted by the browser.
const (
	MinScale = 0.1
	MaxScale = 2.0
)

// ParsePaperFormat matches s case-insensitively against the supported formats.
func ParsePaperFormat(s string) (PaperFormat, error) {
	for f := range paperSizes {
		if strings.EqualFold(string(f), strings.TrimSpace(s)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPaperFormat, s)
}

// PaperFormats lists the supported formats.
func PaperFormats() []PaperFormat {
	return []PaperFormat{
		FormatA0, FormatA1, FormatA2, FormatA3, FormatA4, FormatA5, FormatA6, FormatA7,
		FormatLetter, FormatLegal, FormatTabloid,
	}
}

// UnmarshalText parses a format name so JSON and YAML inputs are case-insensitive.
func (f *PaperFormat) UnmarshalText(text []byte) error {
	parsed, err := ParsePaperFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// PrintOptions are per-job print settings. Nil fields fall back to the
// format-implied value (paper width and height only) and then to defaults.
// Lengths are in inches.
type PrintOptions struct {
	Format              *PaperFormat `json:"format,omitempty"`
	PaperWidth          *float64     `json:"paperWidth,omitempty"`
	PaperHeight         *float64     `json:"paperHeight,omitempty"`
	MarginTop           *float64     `json:"marginTop,omitempty"`
	MarginBottom        *float64     `json:"marginBottom,omitempty"`
	MarginLeft          *float64     `json:"marginLeft,omitempty"`
	MarginRight         *float64     `json:"marginRight,omitempty"`
	Scale               *float64     `json:"scale,omitempty"`
	Landscape           *bool        `json:"landscape,omitempty"`
	DisplayHeaderFooter *bool        `json:"displayHeaderFooter,omitempty"`
	PrintBackground     *bool        `json:"printBackground,omitempty"`
	PreferCSSPageSize   *bool        `json:"preferCSSPageSize,omitempty"`
	HeaderTemplate      *string      `json:"headerTemplate,omitempty"`
	FooterTemplate      *string      `json:"footerTemplate,omitempty"`
	PageRanges          *string      `json:"pageRanges,omitempty"`

	// IgnoreInvalidPageRanges prints the whole document when the browser
	// rejects PageRanges (for example "5-9" on a three-page document).
	IgnoreInvalidPageRanges *bool `json:"ignoreInvalidPageRanges,omitempty"`
}

// Validate rejects values the browser would refuse.
// Returns nil if o is nil (nil means use defaults).
func (o *PrintOptions) Validate() error {
	if o == nil {
		return nil
	}
	if o.Format != nil {
		if _, ok := paperSizes[*o.Format]; !ok {
			return fmt.Errorf("%w: %q", ErrInvalidPaperFormat, *o.Format)
		}
	}
	for name, v := range map[string]*float64{
		"paper width":  o.PaperWidth,
		"paper height": o.PaperHeight,
	} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalidPrintOptions, name, *v)
		}
	}
	for name, v := range map[string]*float64{
		"margin top":    o.MarginTop,
		"margin bottom": o.MarginBottom,
		"margin left":   o.MarginLeft,
		"margin right":  o.MarginRight,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %g", ErrInvalidPrintOptions, name, *v)
		}
	}
	if o.Scale != nil && (*o.Scale < MinScale || *o.Scale > MaxScale) {
		return fmt.Errorf("%w: scale %g (must be between %g and %g)", ErrInvalidPrintOptions, *o.Scale, MinScale, MaxScale)
	}
	return nil
}

// ResolvedPrintOptions has every print setting decided.
type ResolvedPrintOptions struct {
	PaperWidth          float64
	PaperHeight         float64
	MarginTop           float64
	MarginBottom        float64
	MarginLeft          float64
	MarginRight         float64
	Scale               float64
	Landscape           bool
	DisplayHeaderFooter bool
	PrintBackground     bool
	PreferCSSPageSize   bool
	HeaderTemplate      string
	FooterTemplate      string
	PageRanges          string

	IgnoreInvalidPageRanges bool
}

// ResolvePrintOptions fills every unset field. Paper dimensions come from the
// explicit value, then the requested format, then A4. It never fails; call
// Validate first to reject bad input.
func ResolvePrintOptions(o *PrintOptions) ResolvedPrintOptions {
	if o == nil {
		o = &PrintOptions{}
	}

	size := paperSizes[DefaultFormat]
	if o.Format != nil {
		if s, ok := paperSizes[*o.Format]; ok {
			size = s
		}
	}

	return ResolvedPrintOptions{
		PaperWidth:          valueOr(o.PaperWidth, size.width),
		PaperHeight:         valueOr(o.PaperHeight, size.height),
		MarginTop:           valueOr(o.MarginTop, DefaultMargin),
		MarginBottom:        valueOr(o.MarginBottom, DefaultMargin),
		MarginLeft:          valueOr(o.MarginLeft, DefaultMargin),
		MarginRight:         valueOr(o.MarginRight, DefaultMargin),
		Scale:               valueOr(o.Scale, DefaultScale),
		Landscape:           valueOr(o.Landscape, false),
		DisplayHeaderFooter: valueOr(o.DisplayHeaderFooter, false),
		PrintBackground:     valueOr(o.PrintBackground, DefaultPrintBackground),
		PreferCSSPageSize:   valueOr(o.PreferCSSPageSize, DefaultPreferCSSPageSize),
		HeaderTemplate:      valueOr(o.HeaderTemplate, ""),
		FooterTemplate:      valueOr(o.FooterTemplate, ""),
		PageRanges:          valueOr(o.PageRanges, ""),

		IgnoreInvalidPageRanges: valueOr(o.IgnoreInvalidPageRanges, false),
	}
}

// CDP converts the options to the DevTools print command.
func (r ResolvedPrintOptions) CDP() *proto.PagePrintToPDF {
	return &proto.PagePrintToPDF{
		Landscape:           r.Landscape,
		DisplayHeaderFooter: r.DisplayHeaderFooter,
		PrintBackground:     r.PrintBackground,
		Scale:               floatPtr(r.Scale),
		PaperWidth:          floatPtr(r.PaperWidth),
		PaperHeight:         floatPtr(r.PaperHeight),
		MarginTop:           floatPtr(r.MarginTop),
		MarginBottom:        floatPtr(r.MarginBottom),
		MarginLeft:          floatPtr(r.MarginLeft),
		MarginRight:         floatPtr(r.MarginRight),
		PageRanges:          r.PageRanges,
		HeaderTemplate:      r.HeaderTemplate,
		FooterTemplate:      r.FooterTemplate,
		PreferCSSPageSize:   r.PreferCSSPageSize,
	}
}

// withoutPageRanges returns the options to retry with after the browser
// rejected the page ranges. ok is false when no retry applies.
func (r ResolvedPrintOptions) withoutPageRanges() (ResolvedPrintOptions, bool) {
	if !r.IgnoreInvalidPageRanges || r.PageRanges == "" {
		return r, false
	}
	r.PageRanges = ""
	return r, true
}

func valueOr[T any](p *T, def T) T {
	if p != nil {
		return *p
	}
	return def
}

func floatPtr(v float64) *float64 {
	return &v
}
