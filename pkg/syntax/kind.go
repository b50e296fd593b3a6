package syntax

// Kind classifies a node in the markup parse tree.
type Kind uint16

// Node kinds. Markup kinds appear at the top level; code kinds appear after '#'
// and inside argument lists.
const (
	Markup Kind = iota
	Text
	Space
	Parbreak
	Linebreak
	Escape
	Heading
	Marker
	ListItem
	EnumItem
	Strong
	Emph
	Raw
	Equation
	LineComment
	BlockComment

	Keyword
	Ident
	Str
	Numeric
	Bool
	None
	Auto
	FuncCall
	Args
	Array
	Named
	Params
	ContentBlock
	LetBinding
	SetRule
	ShowRule
	ModuleImport
	ModuleInclude

	Error
)

//nolint:gochecknoglobals // Read-only lookup table.
var kindNames = [...]string{
	Markup:        "Markup",
	Text:          "Text",
	Space:         "Space",
	Parbreak:      "Parbreak",
	Linebreak:     "Linebreak",
	Escape:        "Escape",
	Heading:       "Heading",
	Marker:        "Marker",
	ListItem:      "ListItem",
	EnumItem:      "EnumItem",
	Strong:        "Strong",
	Emph:          "Emph",
	Raw:           "Raw",
	Equation:      "Equation",
	LineComment:   "LineComment",
	BlockComment:  "BlockComment",
	Keyword:       "Keyword",
	Ident:         "Ident",
	Str:           "Str",
	Numeric:       "Numeric",
	Bool:          "Bool",
	None:          "None",
	Auto:          "Auto",
	FuncCall:      "FuncCall",
	Args:          "Args",
	Array:         "Array",
	Named:         "Named",
	Params:        "Params",
	ContentBlock:  "ContentBlock",
	LetBinding:    "LetBinding",
	SetRule:       "SetRule",
	ShowRule:      "ShowRule",
	ModuleImport:  "ModuleImport",
	ModuleInclude: "ModuleInclude",
	Error:         "Error",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// IsTrivia reports whether the kind carries only whitespace.
func (k Kind) IsTrivia() bool {
	return k == Space || k == Parbreak
}

// IsStatement reports whether nodes of this kind produce no visible content
// of their own.
func (k Kind) IsStatement() bool {
	switch k {
	case LetBinding, SetRule, ShowRule, ModuleImport, ModuleInclude,
		LineComment, BlockComment, Linebreak:
		return true
	default:
		return false
	}
}
