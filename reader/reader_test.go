package reader

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsumeRawData(t *testing.T) {
	r := NewFromString("hello <b>world</b>")
	defer r.Close()

	data := r.ConsumeRawData()
	require.Equal(t, "hello ", data)
	require.True(t, r.Matches('<'))
}

func TestConsumeToString(t *testing.T) {
	r := NewFromString("one two THREE four")
	defer r.Close()

	s, found := r.ConsumeToString("THREE")
	require.True(t, found)
	require.Equal(t, "one two ", s)
	require.True(t, r.MatchConsume("THREE"))
	require.Equal(t, " four", r.ConsumeToEnd())
}

func TestConsumeToStringAcrossRefill(t *testing.T) {
	// Force tiny reads so the delimiter search must span a refill boundary.
	r := New(&iotest{data: []byte("aaaaaaaaaaaaaaaaEND-here"), chunk: 3})
	defer r.Close()

	s, found := r.ConsumeToString("END")
	require.True(t, found)
	require.Equal(t, "aaaaaaaaaaaaaaaa", s)
}

type iotest struct {
	data  []byte
	chunk int
	pos   int
}

func (it *iotest) Read(p []byte) (int, error) {
	if it.pos >= len(it.data) {
		return 0, io.EOF
	}
	n := it.chunk
	if n > len(p) {
		n = len(p)
	}
	if it.pos+n > len(it.data) {
		n = len(it.data) - it.pos
	}
	copy(p, it.data[it.pos:it.pos+n])
	it.pos += n
	return n, nil
}

func TestMarkRewind(t *testing.T) {
	r := NewFromString("abcdef")
	defer r.Close()

	r.Advance()
	r.Advance()
	r.Mark()
	r.Advance()
	r.Advance()
	r.RewindToMark()
	c, ok := r.Current()
	require.True(t, ok)
	require.Equal(t, byte('c'), c)
}

func TestLineTracking(t *testing.T) {
	r := NewFromString("a\nbb\nccc")
	r.EnableLineTracking()
	defer r.Close()

	require.Equal(t, 1, r.LineNumber(0))
	require.Equal(t, 2, r.LineNumber(2))
	require.Equal(t, 3, r.LineNumber(5))
	require.Equal(t, 1, r.ColumnNumber(5))
}

func TestInternCacheTransparent(t *testing.T) {
	r := NewFromString(strings.Repeat("ab", 10))
	defer r.Close()

	first := r.ConsumeMatching(func(b byte) bool { return b == 'a' || b == 'b' }, 4)
	r2 := NewFromString(strings.Repeat("ab", 10))
	defer r2.Close()
	second := r2.ConsumeMatching(func(b byte) bool { return b == 'a' || b == 'b' }, 4)
	require.Equal(t, first, second)
}

func TestUnconsumePanicsWithoutConsume(t *testing.T) {
	r := NewFromString("a")
	defer r.Close()
	require.Panics(t, func() { r.Unconsume() })
}
