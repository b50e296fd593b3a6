package config

import "fmt"

// ParseOutputFormat validates an output format name. The empty string
// selects text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected text or json)", s)
	}
}
