package engine

import (
	"strings"

	"github.com/yaklabco/livetype/pkg/indexmap"
	"github.com/yaklabco/livetype/pkg/syntax"
)

// breakDirective ends the layout flow after a block so that every block
// starts at a fresh vertical position.
const breakDirective = "\n#block(above: 0pt, below: 0pt)"

// Mode selects how a document is synthesized.
type Mode int

const (
	// ModePreview synthesizes for fragment rendering.
	ModePreview Mode = iota

	// ModePrint synthesizes a paginated document without break directives.
	ModePrint

	// ModeInteractive uses preview settings but nothing is rendered.
	ModeInteractive
)

func (m Mode) String() string {
	switch m {
	case ModePreview:
		return "preview"
	case ModePrint:
		return "print"
	case ModeInteractive:
		return "interactive"
	default:
		return "unknown"
	}
}

// Block is a run of contiguous top-level nodes of the user document.
type Block struct {
	// Start and End delimit the block in user bytes.
	Start int `json:"start"`
	End   int `json:"end"`

	// Kind is the kind of the block's last non-trivia node.
	Kind syntax.Kind `json:"-"`

	// Standalone is set when a break directive follows the block.
	Standalone bool `json:"standalone"`

	// Neutralized is set by the compile loop when the block was blanked.
	Neutralized bool `json:"neutralized"`
}

// Synthesis is a compilable document derived from user text.
type Synthesis struct {
	// Text is the synthesized document.
	Text string

	// Blocks lists the user blocks in document order.
	Blocks []Block

	// Mapper translates between user bytes (A) and synthesized bytes (B).
	Mapper *indexmap.Mapper

	// PreludeEnd is the synthesized offset at which user content starts.
	PreludeEnd int
}

// synthesizer accumulates the synthesized text.
type synthesizer struct {
	user string
	mode Mode
	out  strings.Builder
	syn  *Synthesis
	open int

	// last is the most recent inflection; recorded is false before the
	// first one.
	last     indexmap.Inflection
	recorded bool

	// end is the inflection closing the previous block. It is written
	// only when the next block does not start at the same user offset.
	end        indexmap.Inflection
	endPending bool
}

// record adds an inflection for user offset a at the current output end.
func (s *synthesizer) record(a int) {
	s.recordAt(a, s.out.Len())
}

// recordAt adds the inflection (a, b). A repeat of the last inflection is
// dropped.
func (s *synthesizer) recordAt(a, b int) {
	if s.recorded && a == s.last.A && b == s.last.B {
		return
	}
	s.syn.Mapper.Record(a, b)
	s.last = indexmap.Inflection{A: a, B: b}
	s.recorded = true
}

// flushEnd writes the pending block end unless a block starting at
// startA replaces it. An adjacent block start must win: it is the
// inflection that places the next block's bytes.
func (s *synthesizer) flushEnd(startA int) {
	if !s.endPending {
		return
	}
	s.endPending = false
	if s.end.A == startA {
		return
	}
	s.recordAt(s.end.A, s.end.B)
}

func (s *synthesizer) openBlock(n *syntax.Node) {
	s.flushEnd(n.Start)
	s.record(n.Start)
	s.syn.Blocks = append(s.syn.Blocks, Block{Start: n.Start, End: n.End, Kind: n.Kind})
	s.open = len(s.syn.Blocks) - 1
}

// closeBlock copies the open block up to end and terminates it.
func (s *synthesizer) closeBlock(end int, directive bool) {
	blk := &s.syn.Blocks[s.open]
	blk.End = end
	s.out.WriteString(s.user[blk.Start:blk.End])
	if directive && s.mode != ModePrint && !blk.Kind.IsStatement() {
		s.out.WriteString(breakDirective)
		blk.Standalone = true
	}
	s.end = indexmap.Inflection{A: blk.End, B: s.out.Len()}
	s.endPending = true
	s.out.WriteByte('\n')
	s.open = -1
}

// Synthesize builds the compilable document for text. The engine prelude
// comes first, then the caller prelude, then the user blocks.
func Synthesize(text, enginePrelude, callerPrelude string, mode Mode) *Synthesis {
	s := &synthesizer{
		user: text,
		mode: mode,
		syn:  &Synthesis{Mapper: indexmap.New()},
		open: -1,
	}
	s.out.WriteString(enginePrelude)
	s.out.WriteString(callerPrelude)
	s.out.WriteByte('\n')
	s.syn.PreludeEnd = s.out.Len()
	s.record(0)

	root := syntax.Parse(text)
	for _, n := range root.Children {
		switch {
		case n.Kind.IsTrivia() && n.HasNewline():
			if s.open >= 0 {
				s.closeBlock(n.Start+strings.IndexByte(n.Text, '\n'), true)
			}
		case n.IsCall("pagebreak"):
			if s.open >= 0 {
				s.closeBlock(s.syn.Blocks[s.open].End, true)
			}
			s.openBlock(n)
			s.closeBlock(n.End, false)
		case s.open >= 0:
			blk := &s.syn.Blocks[s.open]
			blk.End = n.End
			if !n.Kind.IsTrivia() {
				blk.Kind = n.Kind
			}
		default:
			s.openBlock(n)
		}
	}
	if s.open >= 0 {
		s.closeBlock(s.syn.Blocks[s.open].End, true)
	}
	s.flushEnd(-1)

	s.syn.Text = s.out.String()
	return s.syn
}
