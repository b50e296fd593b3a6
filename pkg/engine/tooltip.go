package engine

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/yaklabco/livetype/pkg/typeset"
)

// tooltipRenderer turns tooltip content into sanitized HTML.
type tooltipRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func newTooltipRenderer() *tooltipRenderer {
	return &tooltipRenderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
	}
}

// HTML renders tip. Text tooltips are markdown; code tooltips become a
// fenced block in the document language.
func (r *tooltipRenderer) HTML(tip typeset.TooltipContent) (string, error) {
	markdown := tip.Value
	if tip.Kind == typeset.TooltipCode {
		fence := "```"
		for strings.Contains(tip.Value, fence) {
			fence += "`"
		}
		markdown = fence + "typ\n" + tip.Value + "\n" + fence + "\n"
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render tooltip: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}
