package typeset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/yaklabco/livetype/pkg/source"
	"github.com/yaklabco/livetype/pkg/syntax"
)

// value is the result of evaluating an expression. The concrete types are
// string, float64, bool, length, ratio, angle, Color, noneValue, autoValue,
// content, array, *dict, *closure and *builtin.
type value any

// length is an absolute part in points plus a part relative to the font size.
type length struct {
	pt float64
	em float64
}

func (l length) resolve(size float64) float64 {
	return l.pt + l.em*size
}

func (l length) String() string {
	switch {
	case l.em == 0:
		return formatFloat(l.pt) + "pt"
	case l.pt == 0:
		return formatFloat(l.em) + "em"
	default:
		return formatFloat(l.pt) + "pt + " + formatFloat(l.em) + "em"
	}
}

type ratio float64

type angle float64

type noneValue struct{}

type autoValue struct{}

type array []value

// dict keeps insertion order for display.
type dict struct {
	keys   []string
	values map[string]value
}

func newDict() *dict {
	return &dict{values: make(map[string]value)}
}

func (d *dict) set(key string, v value) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

type param struct {
	name   string
	def    value
	hasDef bool
}

// closure is a user-defined function.
type closure struct {
	name   string
	params []param
	body   *syntax.Node
	scope  *scope
	file   source.ID
}

type builtin struct {
	name   string
	params []string
	doc    string
	call   func(e *evaluator, args *callArgs) (value, error)
}

// unitFactors converts absolute units to points.
//
//nolint:gochecknoglobals // Read-only lookup table.
var unitFactors = map[string]float64{
	"pt": 1,
	"mm": 72 / 25.4,
	"cm": 72 / 2.54,
	"in": 72,
}

// parseNumeric converts a numeric literal with an optional unit.
func parseNumeric(lit string) (value, error) {
	end := len(lit)
	for end > 0 && (lit[end-1] == '%' || (lit[end-1] >= 'a' && lit[end-1] <= 'z') || (lit[end-1] >= 'A' && lit[end-1] <= 'Z')) {
		end--
	}
	num, unit := lit[:end], lit[end:]
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", lit)
	}

	switch unit {
	case "":
		return f, nil
	case "em":
		return length{em: f}, nil
	case "%":
		return ratio(f / 100), nil
	case "deg":
		return angle(f), nil
	case "rad":
		return angle(f * 180 / math.Pi), nil
	}
	if factor, ok := unitFactors[unit]; ok {
		return length{pt: f * factor}, nil
	}
	return nil, fmt.Errorf("invalid unit %q", unit)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// typeName describes a value for error messages.
func typeName(v value) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "float"
	case bool:
		return "boolean"
	case length:
		return "length"
	case ratio:
		return "ratio"
	case angle:
		return "angle"
	case Color:
		return "color"
	case noneValue:
		return "none"
	case autoValue:
		return "auto"
	case content:
		return "content"
	case array:
		return "array"
	case *dict:
		return "dictionary"
	case *closure, *builtin:
		return "function"
	default:
		return "unknown"
	}
}

// repr renders a value as code.
func repr(v value) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case float64:
		return formatFloat(v)
	case bool:
		return strconv.FormatBool(v)
	case length:
		return v.String()
	case ratio:
		return formatFloat(float64(v)*100) + "%"
	case angle:
		return formatFloat(float64(v)) + "deg"
	case Color:
		return fmt.Sprintf("rgb(%q)", v.Hex())
	case noneValue:
		return "none"
	case autoValue:
		return "auto"
	case content:
		return "[..]"
	case array:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = repr(item)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *dict:
		if len(v.keys) == 0 {
			return "(:)"
		}
		parts := make([]string, len(v.keys))
		for i, k := range v.keys {
			parts[i] = k + ": " + repr(v.values[k])
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *closure:
		names := make([]string, len(v.params))
		for i, p := range v.params {
			names[i] = p.name
		}
		return v.name + "(" + strings.Join(names, ", ") + ")"
	case *builtin:
		return v.name
	default:
		return "?"
	}
}

// display converts a value into text for markup. ok is false for values that
// produce no output.
func display(v value) (string, bool) {
	switch v := v.(type) {
	case noneValue:
		return "", false
	case string:
		return v, true
	default:
		return repr(v), true
	}
}

type scope struct {
	parent *scope
	vars   map[string]value
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]value)}
}

func (s *scope) define(name string, v value) {
	s.vars[name] = v
}

func (s *scope) lookup(name string) (value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// names lists all visible bindings, innermost first.
func (s *scope) names() []string {
	seen := make(map[string]bool)
	var out []string
	for cur := s; cur != nil; cur = cur.parent {
		for name := range cur.vars {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
