package configloader

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/yaklabco/livetype/pkg/config"
)

// envVarPrefix is the prefix for all livetype environment variables.
const envVarPrefix = "LIVETYPE_"

// envFieldType represents the type of a configuration field.
type envFieldType int

const (
	envTypeString envFieldType = iota
	envTypeInt
	envTypeFloat
	envTypeOptFloat
)

// envMapping defines environment variable to config field mappings.
type envMapping struct {
	field string
	typ   envFieldType
	doc   string
}

// envMappings maps environment variable names (without prefix) to config fields.
//
//nolint:gochecknoglobals // Read-only lookup table.
var envMappings = map[string]envMapping{
	"FORMAT":                  {field: "format", typ: envTypeString, doc: "Output format: text or json"},
	"JOBS":                    {field: "jobs", typ: envTypeInt, doc: "Number of parallel workers (0 = auto)"},
	"LOG_LEVEL":               {field: "log_level", typ: envTypeString, doc: "Log level: debug, info, warn or error"},
	"OUTPUT":                  {field: "output", typ: envTypeString, doc: "Directory fragment payloads are written to"},
	"PRELUDE_FILE":            {field: "prelude_file", typ: envTypeString, doc: "Markup file placed before every document"},
	"RENDER_WIDTH":            {field: "render.width", typ: envTypeOptFloat, doc: "Page width in points, or auto"},
	"RENDER_HEIGHT_CUTOFF":    {field: "render.height_cutoff", typ: envTypeOptFloat, doc: "Fragment cutoff in points, or none"},
	"RENDER_PIXEL_PER_PT":     {field: "render.pixel_per_pt", typ: envTypeFloat, doc: "Raster density of PNG fragments"},
	"RENDER_ENCODING":         {field: "render.encoding", typ: envTypeString, doc: "Fragment payload format: svg or png"},
	"RENDER_LOCALE":           {field: "render.locale", typ: envTypeString, doc: "Text language as a BCP 47 tag"},
	"RENDER_FONT":             {field: "render.font", typ: envTypeString, doc: "Body font family"},
	"RENDER_THEME_BACKGROUND": {field: "render.theme.background", typ: envTypeString, doc: "Page background color"},
	"RENDER_THEME_FOREGROUND": {field: "render.theme.foreground", typ: envTypeString, doc: "Text color"},
	"RENDER_THEME_PRIMARY":    {field: "render.theme.primary", typ: envTypeString, doc: "Primary theme color"},
}

// loadFromEnv applies LIVETYPE_* overrides read through getenv.
func loadFromEnv(cfg *config.Config, getenv func(string) string) error {
	if cfg == nil {
		return nil
	}

	for envSuffix, mapping := range envMappings {
		envVar := envVarPrefix + envSuffix
		value := getenv(envVar)
		if value == "" {
			continue
		}

		if err := applyEnvValue(cfg, mapping, value, envVar); err != nil {
			return err
		}
	}

	return nil
}

// applyEnvValue applies a single environment variable value to the config.
func applyEnvValue(cfg *config.Config, mapping envMapping, value, envVar string) error {
	switch mapping.typ {
	case envTypeString:
		return setStringField(cfg, mapping.field, value)
	case envTypeInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %q", envVar, value)
		}
		return setIntField(cfg, mapping.field, i)
	case envTypeFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for %s: %q", envVar, value)
		}
		return setFloatField(cfg, mapping.field, &f)
	case envTypeOptFloat:
		switch strings.ToLower(value) {
		case "auto", "none":
			return setFloatField(cfg, mapping.field, nil)
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for %s: %q (expected a number, auto or none)", envVar, value)
		}
		return setFloatField(cfg, mapping.field, &f)
	default:
		return fmt.Errorf("unknown field type for %s", envVar)
	}
}

// setStringField sets a string field on the config by field path.
func setStringField(cfg *config.Config, field, value string) error {
	switch field {
	case "format":
		cfg.Format = config.OutputFormat(value)
	case "log_level":
		cfg.LogLevel = value
	case "output":
		cfg.Output = value
	case "prelude_file":
		cfg.PreludeFile = value
	case "render.encoding":
		cfg.Render.Encoding = value
	case "render.locale":
		cfg.Render.Locale = value
	case "render.font":
		cfg.Render.Font = value
	case "render.theme.primary":
		cfg.Render.Theme.Primary = value
	case "render.theme.background":
		cfg.Render.Theme.Background = value
	case "render.theme.foreground":
		cfg.Render.Theme.Foreground = value
	default:
		return fmt.Errorf("unknown string field: %s", field)
	}
	return nil
}

// setIntField sets an integer field on the config by field path.
func setIntField(cfg *config.Config, field string, value int) error {
	switch field {
	case "jobs":
		cfg.Jobs = value
	default:
		return fmt.Errorf("unknown integer field: %s", field)
	}
	return nil
}

// setFloatField sets a numeric field. A nil value clears an optional field.
func setFloatField(cfg *config.Config, field string, value *float64) error {
	switch field {
	case "render.width":
		cfg.Render.Width = value
	case "render.height_cutoff":
		cfg.Render.HeightCutoff = value
	case "render.pixel_per_pt":
		if value == nil {
			return fmt.Errorf("%s cannot be unset", field)
		}
		cfg.Render.PixelPerPt = *value
	default:
		return fmt.Errorf("unknown numeric field: %s", field)
	}
	return nil
}

// GetEnvVarName returns the full environment variable name for a config field.
func GetEnvVarName(field string) string {
	for suffix, mapping := range envMappings {
		if mapping.field == field {
			return envVarPrefix + suffix
		}
	}
	return ""
}

// ListEnvVars returns all supported environment variables with their
// descriptions.
func ListEnvVars() map[string]string {
	out := make(map[string]string, len(envMappings))
	for suffix, mapping := range envMappings {
		out[envVarPrefix+suffix] = mapping.doc
	}
	return out
}

// EnvVarNames returns the supported environment variables in sorted order.
func EnvVarNames() []string {
	names := make([]string, 0, len(envMappings))
	for suffix := range envMappings {
		names = append(names, envVarPrefix+suffix)
	}
	sort.Strings(names)
	return names
}
