package cli

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yaklabco/livetype/internal/ui/pretty"
)

// HelpStyles contains Lipgloss styles for command help formatting.
type HelpStyles struct {
	Command     lipgloss.Style
	Heading     lipgloss.Style
	Subcommand  lipgloss.Style
	Flag        lipgloss.Style
	Description lipgloss.Style
	Example     lipgloss.Style
	Dim         lipgloss.Style
}

// NewHelpStyles creates help styles based on color mode.
func NewHelpStyles(colorEnabled bool) *HelpStyles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return &HelpStyles{
			Command:     plain,
			Heading:     plain,
			Subcommand:  plain,
			Flag:        plain,
			Description: plain,
			Example:     plain,
			Dim:         plain,
		}
	}
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	return &HelpStyles{
		Command:     lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		Heading:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Subcommand:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Flag:        lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Description: lipgloss.NewStyle(),
		Example:     dim,
		Dim:         dim,
	}
}

// HelpFormatter provides styled help output for Cobra commands.
type HelpFormatter struct {
	styles *HelpStyles
}

// NewHelpFormatter creates a new help formatter with the given color mode.
func NewHelpFormatter(colorMode string, writer io.Writer) *HelpFormatter {
	return &HelpFormatter{styles: NewHelpStyles(pretty.IsColorEnabled(colorMode, writer))}
}

const usageTemplate = `{{ heading "Usage:" }}
{{- if .Runnable}}
  {{ command .UseLine }}{{end}}
{{- if .HasAvailableSubCommands}}
  {{ command .CommandPath }} [command]{{end}}

{{- if .HasAvailableSubCommands}}

{{ heading "Commands:" }}{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{ subcommand (rpad .Name .NamePadding) }} {{ description .Short }}{{end}}{{end}}
{{- end}}

{{- if .HasAvailableLocalFlags}}

{{ heading "Flags:" }}
{{ flags .LocalFlags }}
{{- end}}

{{- if .HasAvailableInheritedFlags}}

{{ heading "Global Flags:" }}
{{ flags .InheritedFlags }}
{{- end}}

{{- if .HasAvailableSubCommands}}

Use "{{ command (print .CommandPath " [command] --help") }}" for more information about a command.
{{- end}}
`

const helpTemplate = `{{with (or .Long .Short)}}{{ body . }}

{{end}}` + usageTemplate

func (h *HelpFormatter) funcs() template.FuncMap {
	return template.FuncMap{
		"command":     h.styles.Command.Render,
		"heading":     h.styles.Heading.Render,
		"subcommand":  h.styles.Subcommand.Render,
		"description": h.styles.Description.Render,
		"flags":       h.flagUsages,
		"body":        h.body,
		"rpad": func(s string, n int) string {
			return s + strings.Repeat(" ", max(n-len(s), 0))
		},
	}
}

// body styles a long description: everything after an "Examples:" line
// is dimmed.
func (h *HelpFormatter) body(text string) string {
	lines := strings.Split(strings.TrimRight(text, " \t\n"), "\n")
	inExamples := false
	for i, line := range lines {
		line = strings.TrimRight(line, " \t")
		switch {
		case line == "Examples:":
			inExamples = true
			line = h.styles.Heading.Render(line)
		case inExamples && line != "":
			line = h.styles.Example.Render(line)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// flagUsages styles pflag's usage block line by line.
func (h *HelpFormatter) flagUsages(set *pflag.FlagSet) string {
	usages := strings.TrimSuffix(set.FlagUsages(), "\n")
	if usages == "" {
		return ""
	}
	lines := strings.Split(usages, "\n")
	for i, line := range lines {
		lines[i] = h.flagLine(line)
	}
	return strings.Join(lines, "\n")
}

// flagLine styles one "  -o, --output string   description" line. The
// flag part ends at the first run of at least two spaces.
func (h *HelpFormatter) flagLine(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	indent := line[:len(line)-len(trimmed)]

	split := strings.Index(trimmed, "  ")
	if split < 0 {
		return line
	}
	spec, desc := trimmed[:split], strings.TrimLeft(trimmed[split:], " ")

	var b strings.Builder
	for i, token := range strings.Fields(spec) {
		if i > 0 {
			b.WriteByte(' ')
		}
		name, comma := strings.CutSuffix(token, ",")
		if strings.HasPrefix(name, "-") {
			b.WriteString(h.styles.Flag.Render(name))
		} else {
			b.WriteString(h.styles.Dim.Render(name))
		}
		if comma {
			b.WriteByte(',')
		}
	}
	pad := strings.Repeat(" ", len(trimmed)-len(desc)-len(spec))
	return indent + b.String() + pad + h.styles.Description.Render(desc)
}

func (h *HelpFormatter) execute(cmd *cobra.Command, name, text string) error {
	tmpl, err := template.New(name).Funcs(h.funcs()).Parse(text)
	if err != nil {
		return fmt.Errorf("parse %s template: %w", name, err)
	}
	if err := tmpl.Execute(cmd.OutOrStdout(), cmd); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

// ApplyToCommand applies styled help to a Cobra command and its
// subcommands.
func (h *HelpFormatter) ApplyToCommand(cmd *cobra.Command) {
	cmd.SetUsageFunc(func(c *cobra.Command) error {
		return h.execute(c, "usage", usageTemplate)
	})
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		if err := h.execute(c, "help", helpTemplate); err != nil {
			c.PrintErrln(err)
		}
	})
}
