package tagset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuiltinLookup(t *testing.T) {
	ts := New()
	br := ts.Get("br", HTML)
	require.NotNil(t, br)
	require.True(t, br.Is(Void))
	require.True(t, br.Is(Known))

	div := ts.Get("div", HTML)
	require.True(t, div.Is(Block))

	require.Nil(t, ts.Get("frobnicate", HTML))
}

func TestValueOfCreatesUnknownTag(t *testing.T) {
	ts := New()
	var created []*Tag
	ts.OnNewTag(func(tg *Tag) { created = append(created, tg) })

	tg := ts.ValueOf("my-widget", "my-widget", HTML, true)
	require.False(t, tg.Is(Known))
	require.Len(t, created, 1)

	again := ts.ValueOf("my-widget", "my-widget", HTML, true)
	require.Same(t, tg, again)
	require.Len(t, created, 1)
}

func TestValueOfPreserveCaseClonesSharedTag(t *testing.T) {
	ts := New()
	lower := ts.Get("div", HTML)

	preserved := ts.ValueOf("Div", "div", HTML, true)
	require.NotSame(t, lower, preserved)
	require.Equal(t, "Div", preserved.Name)
	require.True(t, preserved.Is(Block))

	noPreserve := ts.ValueOf("DIV", "div", HTML, false)
	require.Same(t, lower, noPreserve)
}

func TestCloneIsIndependentOfSource(t *testing.T) {
	ts := New()
	clone := ts.Clone()

	br := clone.Get("br", HTML)
	require.NotNil(t, br)

	custom := clone.ValueOf("x-custom", "x-custom", HTML, true)
	require.Nil(t, ts.Get("x-custom", HTML))
	require.NotNil(t, custom)
}
