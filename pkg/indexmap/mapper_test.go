package indexmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/livetype/pkg/indexmap"
)

func newSample() *indexmap.Mapper {
	m := indexmap.New()
	m.Record(0, 100)
	m.Record(10, 130)
	m.Record(25, 170)
	return m
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	m := newSample()
	require.NoError(t, m.Validate())

	for _, inf := range m.Inflections() {
		b, ok := m.AToB(inf.A)
		require.True(t, ok)
		assert.Equal(t, inf.B, b)

		a, ok := m.BToA(inf.B)
		require.True(t, ok)
		assert.Equal(t, inf.A, a)
	}
}

func TestMonotonicWithinInterval(t *testing.T) {
	t.Parallel()

	m := newSample()
	intervals := [][2]int{{0, 10}, {10, 25}, {25, 60}}

	for _, iv := range intervals {
		prev := -1
		for x := iv[0]; x < iv[1]; x++ {
			got, ok := m.AToB(x)
			require.True(t, ok)
			assert.Greater(t, got, prev)
			prev = got
		}
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	m := newSample()

	tests := []struct {
		name   string
		lookup func(int) (int, bool)
		in     int
		want   int
		wantOK bool
	}{
		{"a to b inside first interval", m.AToB, 4, 104, true},
		{"a to b at boundary takes new interval", m.AToB, 10, 130, true},
		{"a to b strict at boundary stays in old interval", m.AToBStrict, 10, 110, true},
		{"a to b past last inflection", m.AToB, 40, 185, true},
		{"b to a inside gap", m.BToA, 120, 20, true},
		{"b to a strict at boundary", m.BToAStrict, 170, 50, true},
		{"b to a before first inflection", m.BToA, 50, 0, false},
		{"a to b strict at first inflection", m.AToBStrict, 0, 0, false},
		{"a to b negative", m.AToB, -3, 0, false},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got, ok := testCase.lookup(testCase.in)
			assert.Equal(t, testCase.wantOK, ok)
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestEmptyMapper(t *testing.T) {
	t.Parallel()

	m := indexmap.New()
	_, ok := m.AToB(0)
	assert.False(t, ok)
	assert.Zero(t, m.Len())
	assert.NoError(t, m.Validate())
}

func TestValidateRejectsNonMonotonic(t *testing.T) {
	t.Parallel()

	m := indexmap.New()
	m.Record(0, 10)
	m.Record(5, 10)

	assert.Error(t, m.Validate())
}
