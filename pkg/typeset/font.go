package typeset

import (
	"sort"
	"strings"

	"github.com/rivo/uniseg"
)

// Font family names provided by DefaultFontBook.
const (
	FamilySans  = "Sans"
	FamilySerif = "Serif"
	FamilyMono  = "Mono"
	FamilyMath  = "Math"
)

// Font carries the metrics of a font family. All metrics are fractions of
// the font size.
type Font struct {
	Family    string
	Ascender  float64
	Descender float64

	// Advance is the width of a single-cell grapheme.
	Advance float64
}

// Cluster is one grapheme cluster with its measured advance in points.
type Cluster struct {
	Text    string
	Offset  int
	Advance float64
}

// Shape splits text into grapheme clusters and measures each at size.
// Wide characters occupy two cells; zero-width clusters advance nothing.
func (f *Font) Shape(text string, size float64) []Cluster {
	clusters := make([]Cluster, 0, len(text))
	state := -1
	offset := 0
	rest := text
	for rest != "" {
		var cluster string
		var width int
		cluster, rest, width, state = uniseg.FirstGraphemeClusterInString(rest, state)
		clusters = append(clusters, Cluster{
			Text:    cluster,
			Offset:  offset,
			Advance: float64(width) * f.Advance * size,
		})
		offset += len(cluster)
	}
	return clusters
}

// Measure returns the advance width of text at size.
func (f *Font) Measure(text string, size float64) float64 {
	return float64(uniseg.StringWidth(text)) * f.Advance * size
}

// FontBook resolves font families. Implementations must be safe for
// concurrent reads.
type FontBook interface {
	// Font returns the font for a family name, matched case-insensitively.
	Font(family string) (*Font, bool)

	// Fallback returns the font used when a family is unknown.
	Fallback() *Font

	// Families lists the available family names.
	Families() []string
}

// StaticFontBook is an immutable FontBook.
type StaticFontBook struct {
	fonts    map[string]*Font
	fallback *Font
}

// NewStaticFontBook builds a font book from fonts. The first font is the
// fallback.
func NewStaticFontBook(fonts ...*Font) *StaticFontBook {
	book := &StaticFontBook{fonts: make(map[string]*Font, len(fonts))}
	for _, f := range fonts {
		book.fonts[strings.ToLower(f.Family)] = f
	}
	if len(fonts) > 0 {
		book.fallback = fonts[0]
	}
	return book
}

// DefaultFontBook returns the built-in families.
func DefaultFontBook() *StaticFontBook {
	return NewStaticFontBook(
		&Font{Family: FamilySans, Ascender: 0.8, Descender: 0.2, Advance: 0.5},
		&Font{Family: FamilySerif, Ascender: 0.75, Descender: 0.25, Advance: 0.48},
		&Font{Family: FamilyMono, Ascender: 0.8, Descender: 0.2, Advance: 0.6},
		&Font{Family: FamilyMath, Ascender: 0.85, Descender: 0.25, Advance: 0.55},
	)
}

// Font implements FontBook.
func (b *StaticFontBook) Font(family string) (*Font, bool) {
	f, ok := b.fonts[strings.ToLower(family)]
	return f, ok
}

// Fallback implements FontBook.
func (b *StaticFontBook) Fallback() *Font {
	return b.fallback
}

// Families implements FontBook.
func (b *StaticFontBook) Families() []string {
	names := make([]string, 0, len(b.fonts))
	for _, f := range b.fonts {
		names = append(names, f.Family)
	}
	sort.Strings(names)
	return names
}
