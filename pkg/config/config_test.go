package config_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/livetype/pkg/config"
)

func ptr(f float64) *float64 { return &f }

func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	assert.Equal(t, config.FormatText, cfg.Format)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Nil(t, cfg.Render.Width)
	assert.Nil(t, cfg.Render.HeightCutoff)
	assert.InDelta(t, config.DefaultPixelPerPt, cfg.Render.PixelPerPt, 0)
	assert.Equal(t, config.EncodingSVG, cfg.Render.Encoding)
	assert.Equal(t, "#ffffff", cfg.Render.Theme.Background)
	require.NoError(t, cfg.Render.Validate())
}

func TestConfigClone(t *testing.T) {
	t.Parallel()

	t.Run("nil config returns nil", func(t *testing.T) {
		t.Parallel()
		var c *config.Config
		assert.Nil(t, c.Clone())
	})

	t.Run("deep copies render pointers", func(t *testing.T) {
		t.Parallel()
		original := config.NewConfig()
		original.Render.Width = ptr(300)
		original.Render.HeightCutoff = ptr(1000)
		original.Serve = ":8080"

		clone := original.Clone()
		require.NotNil(t, clone)
		assert.NotSame(t, original.Render.Width, clone.Render.Width)
		assert.Equal(t, ":8080", clone.Serve)

		*clone.Render.Width = 10
		assert.InDelta(t, 300.0, *original.Render.Width, 0)
	})
}

func TestRenderValidate(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name   string
		mutate func(r *config.Render)
		fields []string
	}

	tests := []testCase{
		{name: "defaults are valid", mutate: func(*config.Render) {}},
		{name: "short hex is valid", mutate: func(r *config.Render) { r.Theme.Primary = "#abc" }},
		{name: "empty theme color is valid", mutate: func(r *config.Render) { r.Theme.Error = "" }},
		{name: "region locale is valid", mutate: func(r *config.Render) { r.Locale = "de-CH" }},
		{
			name:   "zero width",
			mutate: func(r *config.Render) { r.Width = ptr(0) },
			fields: []string{"render.width"},
		},
		{
			name:   "negative cutoff",
			mutate: func(r *config.Render) { r.HeightCutoff = ptr(-1) },
			fields: []string{"render.height_cutoff"},
		},
		{
			name:   "zero density",
			mutate: func(r *config.Render) { r.PixelPerPt = 0 },
			fields: []string{"render.pixel_per_pt"},
		},
		{
			name:   "unknown encoding",
			mutate: func(r *config.Render) { r.Encoding = "gif" },
			fields: []string{"render.encoding"},
		},
		{
			name:   "bad color",
			mutate: func(r *config.Render) { r.Theme.Primary = "blue-ish" },
			fields: []string{"render.theme.primary"},
		},
		{
			name:   "bad locale",
			mutate: func(r *config.Render) { r.Locale = "not a locale" },
			fields: []string{"render.locale"},
		},
		{
			name:   "quoted font",
			mutate: func(r *config.Render) { r.Font = `Comic "Sans"` },
			fields: []string{"render.font"},
		},
		{
			name: "several problems",
			mutate: func(r *config.Render) {
				r.PixelPerPt = -1
				r.Theme.Background = "#zzzzzz"
			},
			fields: []string{"render.pixel_per_pt", "render.theme.background"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := config.NewRender()
			tc.mutate(&r)
			err := r.Validate()
			if len(tc.fields) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)

			var got []string
			for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
				var verr *config.ValidationError
				require.True(t, errors.As(e, &verr))
				got = append(got, verr.Field)
			}
			assert.Equal(t, tc.fields, got)
		})
	}
}

func TestThemeNormalized(t *testing.T) {
	t.Parallel()

	theme := config.Theme{Background: "#FFF", Primary: "#0969DA", Error: "nope"}
	norm := theme.Normalized()
	assert.Equal(t, "#ffffff", norm.Background)
	assert.Equal(t, "#0969da", norm.Primary)
	assert.Equal(t, "nope", norm.Error)
	assert.Empty(t, norm.Outline)
}

func TestRenderLanguage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "de", config.Render{Locale: "de-CH"}.Language())
	assert.Equal(t, "en", config.Render{Locale: "en"}.Language())
	assert.Empty(t, config.Render{}.Language())
	assert.Empty(t, config.Render{Locale: "not a locale"}.Language())
}

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	f, err := config.ParseOutputFormat("")
	require.NoError(t, err)
	assert.Equal(t, config.FormatText, f)

	f, err = config.ParseOutputFormat("json")
	require.NoError(t, err)
	assert.Equal(t, config.FormatJSON, f)

	_, err = config.ParseOutputFormat("sarif")
	require.Error(t, err)
}

func TestYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.Render.Width = ptr(420)
	cfg.Prelude = "#set par(leading: 1em)"
	cfg.Serve = ":9999"

	data, err := cfg.ToYAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "width: 420")
	assert.NotContains(t, string(data), "height_cutoff")
	assert.NotContains(t, string(data), "9999")

	parsed, err := config.FromYAML(data)
	require.NoError(t, err)
	require.NotNil(t, parsed.Render.Width)
	assert.InDelta(t, 420.0, *parsed.Render.Width, 0)
	assert.Equal(t, cfg.Prelude, parsed.Prelude)
	assert.Equal(t, cfg.Render.Theme, parsed.Render.Theme)
	assert.Empty(t, parsed.Serve)
}

func TestToYAMLWithHeader(t *testing.T) {
	t.Parallel()

	data, err := config.NewConfig().ToYAMLWithHeader("# header")
	require.NoError(t, err)
	assert.Regexp(t, `^# header\n\nrender:`, string(data))

	var nilCfg *config.Config
	data, err = nilCfg.ToYAML()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestFromYAMLInvalid(t *testing.T) {
	t.Parallel()

	_, err := config.FromYAML([]byte("render: [1, 2"))
	require.Error(t, err)
}

func TestGenerateTemplate(t *testing.T) {
	t.Parallel()

	t.Run("full template parses to defaults", func(t *testing.T) {
		t.Parallel()

		data, err := config.GenerateTemplate(config.TemplateOptions{Full: true})
		require.NoError(t, err)

		cfg, err := config.FromYAML(data)
		require.NoError(t, err)
		defaults := config.NewConfig()
		assert.Equal(t, defaults.Render, cfg.Render)
		assert.Equal(t, defaults.Format, cfg.Format)
		assert.Equal(t, defaults.LogLevel, cfg.LogLevel)
	})

	t.Run("minimal template is all comments", func(t *testing.T) {
		t.Parallel()

		data, err := config.GenerateTemplate(config.TemplateOptions{})
		require.NoError(t, err)

		cfg, err := config.FromYAML(data)
		require.NoError(t, err)
		assert.Equal(t, config.Config{}, *cfg)
		assert.Contains(t, string(data), "# livetype configuration")
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		data, err := config.GenerateTemplate(config.TemplateOptions{Format: "json"})
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "text", decoded["format"])
		assert.Contains(t, decoded, "render")
	})
}
