package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yaklabco/livetype/pkg/config"
)

// Print page geometry in points (A4).
const (
	printWidth  = 595.0
	printHeight = 842.0
	printMargin = 48.0
)

func pt(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "pt"
}

// Prelude renders the engine prelude for the given mode. The prelude binds
// the theme colors to a dictionary named theme and sets page, text, heading
// and link defaults from it. Print output ignores the theme colors.
func Prelude(mode Mode, r config.Render) string {
	var b strings.Builder
	theme := r.Theme.Normalized()
	colors := map[string]bool{}
	if mode != ModePrint {
		var entries []string
		for _, f := range theme.Fields() {
			if f.Value == "" {
				continue
			}
			colors[f.Name] = true
			entries = append(entries, fmt.Sprintf("%s: rgb(%q)", f.Name, f.Value))
		}
		if len(entries) > 0 {
			fmt.Fprintf(&b, "#let theme = (%s)\n", strings.Join(entries, ", "))
		}
	}
	ref := func(args []string, param, name string) []string {
		if colors[name] {
			return append(args, param+": theme."+name)
		}
		return args
	}

	var page []string
	if mode == ModePrint {
		page = []string{"width: " + pt(printWidth), "height: " + pt(printHeight), "margin: " + pt(printMargin)}
	} else {
		width := "auto"
		if r.Width != nil {
			width = pt(*r.Width)
		}
		page = []string{"width: " + width, "height: auto", "margin: 0pt"}
		page = ref(page, "fill", "background")
	}
	fmt.Fprintf(&b, "#set page(%s)\n", strings.Join(page, ", "))

	var text []string
	text = ref(text, "fill", "foreground")
	if r.Font != "" {
		text = append(text, fmt.Sprintf("font: %q", r.Font))
	}
	if lang := r.Language(); lang != "" {
		text = append(text, fmt.Sprintf("lang: %q", lang))
	}
	if len(text) > 0 {
		fmt.Fprintf(&b, "#set text(%s)\n", strings.Join(text, ", "))
	}
	if colors["primary"] {
		b.WriteString("#set heading(fill: theme.primary)\n")
		b.WriteString("#set link(fill: theme.primary)\n")
	}
	return b.String()
}
