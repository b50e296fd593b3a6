// Package config defines core configuration types for livetype.
// These types are pure data structures; loading and layering live in
// internal/configloader.
package config

// Default render parameters.
const (
	DefaultPixelPerPt = 2.0
	DefaultEncoding   = "svg"
	DefaultLocale     = "en"
	DefaultFont       = "Sans"
)

// Payload encodings accepted for preview fragments.
const (
	EncodingSVG = "svg"
	EncodingPNG = "png"
)

// Theme holds the colors of the preview. Every field is a hex color such
// as "#1d4ed8"; an empty field leaves the compiler default in place.
type Theme struct {
	Background string `mapstructure:"background" yaml:"background,omitempty" json:"background,omitempty"`
	Foreground string `mapstructure:"foreground" yaml:"foreground,omitempty" json:"foreground,omitempty"`
	Primary    string `mapstructure:"primary" yaml:"primary,omitempty" json:"primary,omitempty"`
	Secondary  string `mapstructure:"secondary" yaml:"secondary,omitempty" json:"secondary,omitempty"`
	Tertiary   string `mapstructure:"tertiary" yaml:"tertiary,omitempty" json:"tertiary,omitempty"`
	Outline    string `mapstructure:"outline" yaml:"outline,omitempty" json:"outline,omitempty"`
	Error      string `mapstructure:"error" yaml:"error,omitempty" json:"error,omitempty"`
}

// Render holds the per-document rendering parameters.
type Render struct {
	// Width is the page width in points. Nil lets the page fit its content.
	Width *float64 `mapstructure:"width" yaml:"width,omitempty" json:"width,omitempty"`

	// HeightCutoff drops fragments that start at or below this offset.
	HeightCutoff *float64 `mapstructure:"height_cutoff" yaml:"height_cutoff,omitempty" json:"height_cutoff,omitempty"`

	// PixelPerPt is the raster density for PNG fragments.
	PixelPerPt float64 `mapstructure:"pixel_per_pt" yaml:"pixel_per_pt" json:"pixel_per_pt"`

	// Encoding is the fragment payload format: "svg" or "png".
	Encoding string `mapstructure:"encoding" yaml:"encoding" json:"encoding"`

	Theme  Theme  `mapstructure:"theme" yaml:"theme" json:"theme"`
	Locale string `mapstructure:"locale" yaml:"locale" json:"locale"`
	Font   string `mapstructure:"font" yaml:"font" json:"font"`
}

// OutputFormat specifies the output format of the CLI.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Config is the root configuration structure for livetype.
type Config struct {
	// Render holds the defaults applied to every opened document.
	Render Render `mapstructure:"render" yaml:"render" json:"render"`

	// Prelude is markup inserted after the engine prelude of every document.
	Prelude string `mapstructure:"prelude" yaml:"prelude,omitempty" json:"prelude,omitempty"`

	// PreludeFile names a file whose content is appended to Prelude at load
	// time. Relative paths resolve against the config file's directory.
	PreludeFile string `mapstructure:"prelude_file" yaml:"prelude_file,omitempty" json:"prelude_file,omitempty"`

	// Format specifies the output format.
	Format OutputFormat `mapstructure:"format" yaml:"format" json:"format"`

	// Jobs specifies the number of parallel workers. 0 means GOMAXPROCS.
	Jobs int `mapstructure:"jobs" yaml:"jobs" json:"jobs"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`

	// Output is the directory fragment payloads are written to.
	Output string `mapstructure:"output" yaml:"output,omitempty" json:"output,omitempty"`

	// CLI-level options (not persisted to config files).

	// Serve is the listen address of the HTTP host.
	Serve string `mapstructure:"-" yaml:"-" json:"-"`
}

// NewRender returns render parameters with sensible defaults.
func NewRender() Render {
	return Render{
		PixelPerPt: DefaultPixelPerPt,
		Encoding:   DefaultEncoding,
		Theme:      DefaultTheme(),
		Locale:     DefaultLocale,
		Font:       DefaultFont,
	}
}

// DefaultTheme returns a light theme.
func DefaultTheme() Theme {
	return Theme{
		Background: "#ffffff",
		Foreground: "#1f2328",
		Primary:    "#0969da",
		Secondary:  "#8250df",
		Tertiary:   "#1a7f37",
		Outline:    "#d0d7de",
		Error:      "#cf222e",
	}
}

// NewConfig returns a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Render:   NewRender(),
		Format:   FormatText,
		Jobs:     0,
		LogLevel: "warn",
	}
}
