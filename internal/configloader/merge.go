package configloader

import "github.com/yaklabco/livetype/pkg/config"

// merge combines two configurations, with override taking precedence over base.
// The merge follows these rules:
//   - Scalar values: override overwrites base if override is non-zero
//   - Pointers: override overwrites base if non-nil
//   - Theme colors: merged field by field
func merge(base, override *config.Config) *config.Config {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	result := base.Clone()

	if override.Prelude != "" {
		result.Prelude = override.Prelude
	}
	if override.PreludeFile != "" {
		result.PreludeFile = override.PreludeFile
	}
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Jobs != 0 {
		result.Jobs = override.Jobs
	}
	if override.LogLevel != "" {
		result.LogLevel = override.LogLevel
	}
	if override.Output != "" {
		result.Output = override.Output
	}
	if override.Serve != "" {
		result.Serve = override.Serve
	}

	result.Render = mergeRender(result.Render, override.Render)
	return result
}

// mergeRender merges render parameters field by field.
func mergeRender(base, override config.Render) config.Render {
	result := base.Clone()
	override = override.Clone()

	if override.Width != nil {
		result.Width = override.Width
	}
	if override.HeightCutoff != nil {
		result.HeightCutoff = override.HeightCutoff
	}
	if override.PixelPerPt != 0 {
		result.PixelPerPt = override.PixelPerPt
	}
	if override.Encoding != "" {
		result.Encoding = override.Encoding
	}
	if override.Locale != "" {
		result.Locale = override.Locale
	}
	if override.Font != "" {
		result.Font = override.Font
	}
	result.Theme = mergeTheme(result.Theme, override.Theme)
	return result
}

func mergeTheme(base, override config.Theme) config.Theme {
	pick := func(b, o string) string {
		if o != "" {
			return o
		}
		return b
	}
	return config.Theme{
		Background: pick(base.Background, override.Background),
		Foreground: pick(base.Foreground, override.Foreground),
		Primary:    pick(base.Primary, override.Primary),
		Secondary:  pick(base.Secondary, override.Secondary),
		Tertiary:   pick(base.Tertiary, override.Tertiary),
		Outline:    pick(base.Outline, override.Outline),
		Error:      pick(base.Error, override.Error),
	}
}

// MergeAll merges multiple configurations in order, with later configs taking precedence.
func MergeAll(configs ...*config.Config) *config.Config {
	if len(configs) == 0 {
		return nil
	}

	result := configs[0]
	for i := 1; i < len(configs); i++ {
		result = merge(result, configs[i])
	}
	return result
}
