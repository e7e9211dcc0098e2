package trie

import (
	"bytes"
	"fmt"
)

// valueBufferInit is the initial capacity of a terminal node's value buffer.
const valueBufferInit = 256

// maxSharedPrefix caps the compressed prefix length so the header fits in a
// single ASCII digit.
const maxSharedPrefix = 9

// addValue records value at the terminal node of an insertion. In
// membership-only mode the node is just marked present. Otherwise the value
// (compressed first, if enabled) is appended to the node's buffer with a
// newline separating it from earlier values.
func (b *Builder) addValue(nodeID uint32, key, value []byte) error {
	if !b.withContent {
		b.nodes.Get(nodeID).Data = 1
		return nil
	}
	v := value
	if b.useCompress {
		v = compressValue(key, value)
	}
	first := b.nodes.Get(nodeID).Data == 0
	if first {
		id, err := b.values.Alloc()
		if err != nil {
			return fmt.Errorf("%w: value buffers: %v", ErrArenaFull, err)
		}
		b.values.Get(id).buf = make([]byte, 0, valueBufferInit)
		b.nodes.Get(nodeID).Data = id
	}
	vb := b.values.Get(b.nodes.Get(nodeID).Data)
	if !first {
		vb.buf = append(vb.buf, '\n')
	}
	vb.buf = append(vb.buf, v...)
	return nil
}

// compressValue rewrites value as a one-byte ASCII digit header naming the
// length of the prefix shared with key, followed by the remaining suffix.
// The full suffix is always copied.
func compressValue(key, value []byte) []byte {
	p := 0
	for p < maxSharedPrefix && p < len(key) && p < len(value) && key[p] == value[p] {
		p++
	}
	out := make([]byte, 0, 1+len(value)-p)
	out = append(out, byte('0'+p))
	return append(out, value[p:]...)
}

// decompressValue reconstructs the newline-joined value list stored in blob
// by prepending the headed number of key bytes to each piece. A header that
// is out of range for the key is treated as zero rather than panicking on a
// damaged file.
func decompressValue(blob, key []byte) []byte {
	out := make([]byte, 0, len(blob)+len(key))
	for i, piece := range bytes.Split(blob, []byte{'\n'}) {
		if i > 0 {
			out = append(out, '\n')
		}
		if len(piece) == 0 {
			continue
		}
		p := int(piece[0]) - '0'
		if p < 0 || p > maxSharedPrefix || p > len(key) {
			p = 0
		}
		out = append(out, key[:p]...)
		out = append(out, piece[1:]...)
	}
	return out
}
