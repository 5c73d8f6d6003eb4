// Package pool provides the soft, reusable scratch buffers shared by the
// reader and serializer. Entries are backed by sync.Pool: the runtime may
// reclaim them under memory pressure without any correctness impact, which
// is the "thread-local soft pool" the core's resource model calls for.
package pool

import "sync"

// defaultCharBufSize is the default capacity for a scratch buffer (spec
// §4.1: "2048 chars" default).
const defaultCharBufSize = 2048

// defaultInternTableSize is the default slot count for the reader's
// small-string intern table (spec §4.1: "512 slots" default).
const defaultInternTableSize = 512

var stringInternPool = sync.Pool{
	New: func() any {
		t := make(map[uint64]string, defaultInternTableSize)
		return &t
	},
}

// GetInternTable borrows a fresh small-string intern table.
func GetInternTable() *map[uint64]string {
	t := stringInternPool.Get().(*map[uint64]string)
	return t
}

// PutInternTable releases an intern table borrowed from GetInternTable.
func PutInternTable(t *map[uint64]string) {
	if len(*t) > defaultInternTableSize*8 {
		*t = make(map[uint64]string, defaultInternTableSize)
	} else {
		for k := range *t {
			delete(*t, k)
		}
	}
	stringInternPool.Put(t)
}

var byteBufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, defaultCharBufSize)
		return &buf
	},
}

// GetByteBuf borrows a []byte scratch buffer, truncated to zero length.
// Shared by the reader (its input staging buffer) and the serializer (its
// escaped-output accumulator).
func GetByteBuf() *[]byte {
	b := byteBufPool.Get().(*[]byte)
	*b = (*b)[:0]
	return b
}

// PutByteBuf releases a buffer borrowed from GetByteBuf.
func PutByteBuf(b *[]byte) {
	if cap(*b) > defaultCharBufSize*4 {
		return
	}
	byteBufPool.Put(b)
}
