package configloader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/livetype/pkg/config"
)

func isolated(dir string) LoadOptions {
	return LoadOptions{
		WorkingDir:         dir,
		IgnoreSystemConfig: true,
		IgnoreUserConfig:   true,
		Getenv:             func(string) string { return "" },
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	result, err := Load(context.Background(), isolated(t.TempDir()))
	require.NoError(t, err)
	require.NotNil(t, result.Config)

	assert.Equal(t, config.NewConfig(), result.Config)
	assert.Empty(t, result.LoadedFrom)
}

func TestLoad_ProjectConfig(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".livetype.yml"), `
jobs: 3
render:
  width: 320
  encoding: png
  theme:
    primary: "#FF0000"
`)

	result, err := Load(context.Background(), isolated(tmpDir))
	require.NoError(t, err)

	cfg := result.Config
	assert.Equal(t, 3, cfg.Jobs)
	require.NotNil(t, cfg.Render.Width)
	assert.InDelta(t, 320.0, *cfg.Render.Width, 0)
	assert.Equal(t, "png", cfg.Render.Encoding)
	assert.Equal(t, "#FF0000", cfg.Render.Theme.Primary)
	assert.Equal(t, config.DefaultTheme().Background, cfg.Render.Theme.Background, "unset colors keep defaults")
	assert.InDelta(t, config.DefaultPixelPerPt, cfg.Render.PixelPerPt, 0)
	assert.Len(t, result.LoadedFrom, 1)
}

func TestLoad_ProjectConfigSearchStopsAtVCSRoot(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".livetype.yml"), "jobs: 3\n")
	repo := filepath.Join(tmpDir, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o755))
	nested := filepath.Join(repo, "docs", "notes")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, err := FindProjectConfig(context.Background(), nested)
	require.NoError(t, err)
	assert.Empty(t, path)

	writeFile(t, filepath.Join(repo, "docs", "livetype.yaml"), "jobs: 5\n")
	path, err = FindProjectConfig(context.Background(), nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(repo, "docs", "livetype.yaml"), path)
}

func TestLoad_Precedence(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".livetype.yml"), `
jobs: 2
log_level: info
render:
  locale: fr
  font: Serif
`)
	explicit := filepath.Join(tmpDir, "custom.yml")
	writeFile(t, explicit, `
jobs: 4
render:
  locale: de
`)

	env := map[string]string{
		"LIVETYPE_JOBS":         "6",
		"LIVETYPE_RENDER_WIDTH": "auto",
		"LIVETYPE_LOG_LEVEL":    "debug",
	}
	opts := isolated(tmpDir)
	opts.ExplicitPath = explicit
	opts.Getenv = func(k string) string { return env[k] }
	opts.CLIConfig = &config.Config{Jobs: 8}

	result, err := Load(context.Background(), opts)
	require.NoError(t, err)

	cfg := result.Config
	assert.Equal(t, 8, cfg.Jobs, "CLI wins")
	assert.Equal(t, "debug", cfg.LogLevel, "env beats files")
	assert.Equal(t, "de", cfg.Render.Locale, "explicit beats project")
	assert.Equal(t, "Serif", cfg.Render.Font, "project beats defaults")
	assert.Nil(t, cfg.Render.Width)
	assert.Equal(t, []string{filepath.Join(tmpDir, ".livetype.yml"), explicit}, result.LoadedFrom)
}

func TestLoad_PreludeFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "styles", "prelude.typ"), "#set par(leading: 1em)\n")
	writeFile(t, filepath.Join(tmpDir, ".livetype.yml"), `
prelude: "#let accent = red"
prelude_file: styles/prelude.typ
`)

	result, err := Load(context.Background(), isolated(tmpDir))
	require.NoError(t, err)
	assert.Equal(t, "#let accent = red\n#set par(leading: 1em)", result.Config.Prelude)
	assert.Equal(t, filepath.Join(tmpDir, "styles", "prelude.typ"), result.Config.PreludeFile)
}

func TestLoad_MissingPreludeFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".livetype.yml"), "prelude_file: nope.typ\n")

	_, err := Load(context.Background(), isolated(tmpDir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read prelude file")
}

func TestLoad_InvalidConfig(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name    string
		content string
		field   string
	}

	tests := []testCase{
		{name: "format", content: "format: sarif\n", field: "format"},
		{name: "jobs", content: "jobs: -1\n", field: "jobs"},
		{name: "log level", content: "log_level: loud\n", field: "log_level"},
		{name: "encoding", content: "render:\n  encoding: gif\n", field: "render.encoding"},
		{name: "color", content: "render:\n  theme:\n    outline: grey\n", field: "render.theme.outline"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tmpDir := t.TempDir()
			writeFile(t, filepath.Join(tmpDir, ".livetype.yml"), tc.content)

			_, err := Load(context.Background(), isolated(tmpDir))
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Parallel()

	opts := isolated(t.TempDir())
	opts.Getenv = func(k string) string {
		if k == "LIVETYPE_JOBS" {
			return "many"
		}
		return ""
	}

	_, err := Load(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LIVETYPE_JOBS")
}

func TestLoad_UnknownFontWarns(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".livetype.yml"), "render:\n  font: Garamond\n")

	result, err := Load(context.Background(), isolated(tmpDir))
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Garamond")
}

func TestLoad_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, isolated(t.TempDir()))
	require.Error(t, err)
}

func TestMergeAll(t *testing.T) {
	t.Parallel()

	width := 200.0
	merged := MergeAll(
		config.NewConfig(),
		&config.Config{Render: config.Render{Width: &width, Theme: config.Theme{Error: "#000"}}},
		&config.Config{Format: config.FormatJSON},
	)
	require.NotNil(t, merged)
	assert.Equal(t, config.FormatJSON, merged.Format)
	require.NotNil(t, merged.Render.Width)
	assert.InDelta(t, 200.0, *merged.Render.Width, 0)
	assert.NotSame(t, &width, merged.Render.Width)
	assert.Equal(t, "#000", merged.Render.Theme.Error)
	assert.Equal(t, config.DefaultTheme().Primary, merged.Render.Theme.Primary)

	assert.Nil(t, MergeAll())
}

func TestEnvVars(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "LIVETYPE_RENDER_PIXEL_PER_PT", GetEnvVarName("render.pixel_per_pt"))
	assert.Empty(t, GetEnvVarName("nope"))

	names := EnvVarNames()
	assert.Contains(t, names, "LIVETYPE_JOBS")
	assert.IsIncreasing(t, names)
	assert.Len(t, ListEnvVars(), len(names))

	cfg := config.NewConfig()
	err := loadFromEnv(cfg, func(k string) string {
		switch k {
		case "LIVETYPE_RENDER_HEIGHT_CUTOFF":
			return "500"
		case "LIVETYPE_RENDER_PIXEL_PER_PT":
			return "3"
		}
		return ""
	})
	require.NoError(t, err)
	require.NotNil(t, cfg.Render.HeightCutoff)
	assert.InDelta(t, 500.0, *cfg.Render.HeightCutoff, 0)
	assert.InDelta(t, 3.0, cfg.Render.PixelPerPt, 0)
}
