// Package indexmap translates byte offsets between two documents that share
// content piecewise, such as a user document and the compilable text derived
// from it.
//
// The correspondence is recorded as inflection points. Between two consecutive
// inflections both coordinate spaces advance one to one.
package indexmap

import (
	"fmt"
	"sort"
)

// Inflection pairs a coordinate in space A with its counterpart in space B.
type Inflection struct {
	A int
	B int
}

// Mapper is an ordered list of inflections, strictly increasing in both
// coordinates.
type Mapper struct {
	inflections []Inflection
}

// New creates an empty mapper.
func New() *Mapper {
	return &Mapper{}
}

// Record appends an inflection. Calls must be strictly increasing in both
// coordinates; use Validate in tests to check a finished mapper.
func (m *Mapper) Record(a, b int) {
	m.inflections = append(m.inflections, Inflection{A: a, B: b})
}

// Inflections returns a copy of the recorded inflections.
func (m *Mapper) Inflections() []Inflection {
	out := make([]Inflection, len(m.inflections))
	copy(out, m.inflections)
	return out
}

// Len returns the number of inflections.
func (m *Mapper) Len() int {
	return len(m.inflections)
}

// Validate reports the first inflection that breaks strict monotonicity.
func (m *Mapper) Validate() error {
	for i := 1; i < len(m.inflections); i++ {
		prev, cur := m.inflections[i-1], m.inflections[i]
		if cur.A <= prev.A || cur.B <= prev.B {
			return fmt.Errorf("inflection %d (%d, %d) does not follow (%d, %d)",
				i, cur.A, cur.B, prev.A, prev.B)
		}
	}
	return nil
}

// AToB maps x from space A to space B. The governing inflection is the last
// one whose A coordinate is at or before x. It returns false when x precedes
// every inflection.
func (m *Mapper) AToB(x int) (int, bool) {
	return m.lookup(x, true, false)
}

// BToA maps x from space B to space A with the same at-or-before rule.
func (m *Mapper) BToA(x int) (int, bool) {
	return m.lookup(x, false, false)
}

// AToBStrict maps x from space A to space B using the last inflection strictly
// before x. It is meant for exclusive range ends: an end that coincides with
// the next inflection stays in the interval it closes.
func (m *Mapper) AToBStrict(x int) (int, bool) {
	return m.lookup(x, true, true)
}

// BToAStrict is the strict variant of BToA.
func (m *Mapper) BToAStrict(x int) (int, bool) {
	return m.lookup(x, false, true)
}

func (m *Mapper) lookup(x int, fromA, strict bool) (int, bool) {
	key := func(i int) int {
		if fromA {
			return m.inflections[i].A
		}
		return m.inflections[i].B
	}

	// First index whose key is past x (or at x for strict lookups).
	idx := sort.Search(len(m.inflections), func(i int) bool {
		if strict {
			return key(i) >= x
		}
		return key(i) > x
	})
	if idx == 0 {
		return 0, false
	}

	governing := m.inflections[idx-1]
	if fromA {
		return governing.B + (x - governing.A), true
	}
	return governing.A + (x - governing.B), true
}
