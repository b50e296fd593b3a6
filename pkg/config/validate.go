package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/text/language"
)

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

// ParseColor parses a hex color ("#rgb" or "#rrggbb").
func ParseColor(s string) (colorful.Color, error) {
	c, err := colorful.Hex(strings.TrimSpace(s))
	if err != nil {
		return colorful.Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return c, nil
}

// Fields returns the theme's colors keyed by field name, in declaration
// order.
func (t Theme) Fields() []ThemeField {
	return []ThemeField{
		{"background", t.Background},
		{"foreground", t.Foreground},
		{"primary", t.Primary},
		{"secondary", t.Secondary},
		{"tertiary", t.Tertiary},
		{"outline", t.Outline},
		{"error", t.Error},
	}
}

// ThemeField is one named theme color.
type ThemeField struct {
	Name  string
	Value string
}

// Normalized returns the theme with every set color rewritten as lowercase
// "#rrggbb". Colors that fail to parse are left untouched.
func (t Theme) Normalized() Theme {
	norm := func(s string) string {
		if s == "" {
			return s
		}
		c, err := ParseColor(s)
		if err != nil {
			return s
		}
		return c.Hex()
	}
	return Theme{
		Background: norm(t.Background),
		Foreground: norm(t.Foreground),
		Primary:    norm(t.Primary),
		Secondary:  norm(t.Secondary),
		Tertiary:   norm(t.Tertiary),
		Outline:    norm(t.Outline),
		Error:      norm(t.Error),
	}
}

// Validate checks the render parameters. All problems are reported, joined
// with errors.Join; each is a *ValidationError.
func (r Render) Validate() error {
	var errs []error
	add := func(field string, value any, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
	}

	if r.Width != nil && (*r.Width <= 0 || math.IsInf(*r.Width, 0) || math.IsNaN(*r.Width)) {
		add("render.width", *r.Width, "must be a positive number of points")
	}
	if r.HeightCutoff != nil && (*r.HeightCutoff < 0 || math.IsNaN(*r.HeightCutoff)) {
		add("render.height_cutoff", *r.HeightCutoff, "must not be negative")
	}
	if r.PixelPerPt <= 0 || math.IsInf(r.PixelPerPt, 0) || math.IsNaN(r.PixelPerPt) {
		add("render.pixel_per_pt", r.PixelPerPt, "must be positive")
	}
	switch r.Encoding {
	case EncodingSVG, EncodingPNG:
	default:
		add("render.encoding", r.Encoding, "must be %q or %q", EncodingSVG, EncodingPNG)
	}
	for _, f := range r.Theme.Fields() {
		if f.Value == "" {
			continue
		}
		if _, err := ParseColor(f.Value); err != nil {
			add("render.theme."+f.Name, f.Value, "must be a hex color")
		}
	}
	if r.Locale != "" {
		if _, err := language.Parse(r.Locale); err != nil {
			add("render.locale", r.Locale, "must be a BCP 47 language tag")
		}
	}
	if strings.ContainsAny(r.Font, "\"\\\n") {
		add("render.font", r.Font, "must not contain quotes, backslashes or line breaks")
	}

	return errors.Join(errs...)
}

// Language returns the base language of the locale, or "" when the locale
// is unset or invalid.
func (r Render) Language() string {
	if r.Locale == "" {
		return ""
	}
	tag, err := language.Parse(r.Locale)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	return base.String()
}
