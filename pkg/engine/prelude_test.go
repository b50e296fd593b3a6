package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yaklabco/livetype/pkg/config"
	"github.com/yaklabco/livetype/pkg/engine"
)

func TestPrelude(t *testing.T) {
	t.Parallel()

	width := 320.5
	sized := config.NewRender()
	sized.Width = &width

	bare := config.NewRender()
	bare.Theme = config.Theme{Primary: "#ABC"}
	bare.Font = ""
	bare.Locale = "de-CH"

	tests := []struct {
		name     string
		mode     engine.Mode
		render   config.Render
		contains []string
		excludes []string
	}{
		{
			name:   "preview defaults",
			mode:   engine.ModePreview,
			render: config.NewRender(),
			contains: []string{
				`#let theme = (background: rgb("#ffffff"), foreground: rgb("#1f2328"), primary: rgb("#0969da")`,
				"#set page(width: auto, height: auto, margin: 0pt, fill: theme.background)\n",
				`#set text(fill: theme.foreground, font: "Sans", lang: "en")` + "\n",
				"#set heading(fill: theme.primary)\n",
				"#set link(fill: theme.primary)\n",
			},
		},
		{
			name:     "fixed width",
			mode:     engine.ModeInteractive,
			render:   sized,
			contains: []string{"#set page(width: 320.5pt, height: auto, margin: 0pt"},
		},
		{
			name:     "print ignores theme and width",
			mode:     engine.ModePrint,
			render:   sized,
			contains: []string{"#set page(width: 595pt, height: 842pt, margin: 48pt)\n", `font: "Sans"`},
			excludes: []string{"theme", "320.5pt"},
		},
		{
			name:   "partial theme",
			mode:   engine.ModePreview,
			render: bare,
			contains: []string{
				`#let theme = (primary: rgb("#aabbcc"))` + "\n",
				"#set page(width: auto, height: auto, margin: 0pt)\n",
				`#set text(lang: "de")` + "\n",
				"#set heading(fill: theme.primary)\n",
			},
			excludes: []string{"theme.background", "font:"},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			prelude := engine.Prelude(testCase.mode, testCase.render)
			for _, want := range testCase.contains {
				assert.Contains(t, prelude, want)
			}
			for _, unwanted := range testCase.excludes {
				assert.NotContains(t, prelude, unwanted)
			}
		})
	}
}
