package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// commentWrapWidth is the maximum width for wrapped comments in templates.
const commentWrapWidth = 70

// TemplateOptions controls configuration template generation.
type TemplateOptions struct {
	// Full writes every setting with its default value. A minimal template
	// leaves everything commented out.
	Full bool

	// Format is the output format: "yaml" or "json".
	Format string
}

// templateEntry documents one setting of the template.
type templateEntry struct {
	key     string
	value   string
	comment string
}

func renderEntries(r Render) []templateEntry {
	return []templateEntry{
		{"width", "auto", "Page width in points, or auto to fit the content."},
		{"height_cutoff", "none", "Fragments starting at or below this offset are not rendered."},
		{"pixel_per_pt", strconv.FormatFloat(r.PixelPerPt, 'f', -1, 64), "Raster density of PNG fragments."},
		{"encoding", r.Encoding, "Fragment payload format: svg or png."},
		{"locale", r.Locale, "Text language as a BCP 47 tag."},
		{"font", r.Font, "Body font family."},
	}
}

// GenerateTemplate creates a configuration file template.
func GenerateTemplate(opts TemplateOptions) ([]byte, error) {
	if opts.Format == "json" {
		return templateToJSON()
	}

	defaults := NewConfig()
	prefix := "# "
	if opts.Full {
		prefix = ""
	}

	var buf bytes.Buffer
	buf.WriteString(templateHeader())
	buf.WriteString("\n\n")

	writeEntry := func(indent string, e templateEntry) {
		fmt.Fprintf(&buf, "%s# %s\n", indent, wrapComment(e.comment, commentWrapWidth, indent))
		if e.value == "auto" || e.value == "none" {
			// Unset pointers are expressed by omission.
			fmt.Fprintf(&buf, "%s# %s:\n", indent, e.key)
			return
		}
		fmt.Fprintf(&buf, "%s%s%s: %s\n", indent, prefix, e.key, e.value)
	}

	buf.WriteString("# Output format: text or json\n")
	fmt.Fprintf(&buf, "%sformat: %s\n\n", prefix, defaults.Format)
	buf.WriteString("# Number of parallel workers (0 = auto)\n")
	fmt.Fprintf(&buf, "%sjobs: %d\n\n", prefix, defaults.Jobs)
	buf.WriteString("# Log level: debug, info, warn or error\n")
	fmt.Fprintf(&buf, "%slog_level: %s\n\n", prefix, defaults.LogLevel)
	buf.WriteString("# Markup placed before every document, inline or from a file\n")
	buf.WriteString("# prelude: |\n#   #set par(leading: 0.8em)\n")
	buf.WriteString("# prelude_file: prelude.typ\n\n")

	fmt.Fprintf(&buf, "%srender:\n", prefix)
	for _, e := range renderEntries(defaults.Render) {
		writeEntry("  ", e)
	}
	buf.WriteString("  # Theme colors as hex values\n")
	fmt.Fprintf(&buf, "  %stheme:\n", prefix)
	for _, f := range defaults.Render.Theme.Fields() {
		fmt.Fprintf(&buf, "    %s%s: %q\n", prefix, f.Name, f.Value)
	}

	return buf.Bytes(), nil
}

// wrapComment wraps a comment to fit within maxWidth characters.
func wrapComment(text string, maxWidth int, indent string) string {
	if len(text) <= maxWidth {
		return text
	}

	var lines []string
	words := strings.Fields(text)
	currentLine := ""

	for _, word := range words {
		switch {
		case currentLine == "":
			currentLine = word
		case len(currentLine)+1+len(word) <= maxWidth:
			currentLine += " " + word
		default:
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return strings.Join(lines, "\n"+indent+"# ")
}

// templateToJSON renders the defaults as JSON. JSON has no comments, so the
// full and minimal templates are the same.
func templateToJSON() ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(NewConfig(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal JSON: %w", err)
	}
	return jsonBytes, nil
}

// templateHeader returns the default header for generated configs.
func templateHeader() string {
	return `# livetype configuration
# See: https://github.com/yaklabco/livetype`
}
