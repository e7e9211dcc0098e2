package trie

import (
	"bytes"
	"sort"

	"triefile/internal/format"
)

// sealedImage is the reshaped, pointer-free form of a built trie: the exact
// byte regions Serialize writes, in order.
type sealedImage struct {
	header format.Header
	nodes  []format.Node
	chunks []format.Chunk
	data   []byte
}

// seal reshapes the build pools into the serializable image. The node pool is
// rewritten in place: FirstChunk/NumChunks become contiguous sorted runs and
// Data becomes a byte offset into the consolidated data region.
func (b *Builder) seal() *sealedImage {
	img := &sealedImage{
		chunks: b.reorderChunks(),
	}
	if b.withContent {
		img.data = b.consolidate()
	}
	img.nodes = b.nodes.All()
	img.header = format.Header{
		WithContent: b.withContent,
		UseCompress: b.useCompress,
		NodesUsed:   uint32(len(img.nodes)),
		ChunksUsed:  uint32(len(img.chunks)),
		DataUsed:    uint32(len(img.data)),
	}
	return img
}

// reorderChunks flattens each node's linked chunk list into a run of sealed
// chunks sorted ascending by key, assigning runs from a single monotonic
// cursor. Position 0 stays reserved as the null sentinel.
func (b *Builder) reorderChunks() []format.Chunk {
	sealed := make([]format.Chunk, b.chunks.Len())
	nodes := b.nodes.All()
	pos := uint32(1)

	for id := 1; id < len(nodes); id++ {
		head := nodes[id].FirstChunk
		if head == 0 {
			continue
		}
		start := pos
		for cid := head; cid != 0; cid = b.chunks.Get(cid).next {
			ch := b.chunks.Get(cid)
			sealed[pos] = format.Chunk{Target: ch.target, Key: ch.key}
			pos++
		}
		run := sealed[start:pos]
		sort.Slice(run, func(i, j int) bool { return run[i].Key < run[j].Key })
		nodes[id].FirstChunk = start
		nodes[id].NumChunks = uint8(len(run))
	}
	return sealed[:pos]
}

// consolidate packs every node's value buffer into one data region with
// global deduplication: blobs are sorted, identical runs collapse to a single
// copy, and each node's Data field is rebound to the offset of its canonical
// blob. Offset 0 is reserved to mean "no value", so packing starts at 1.
// A node whose values collapsed to the empty string still gets a blob (a lone
// NUL) so presence survives the round trip.
func (b *Builder) consolidate() []byte {
	nodes := b.nodes.All()

	blobs := make([][]byte, 0, b.values.Len()-1)
	total := 0
	for id := 1; id < len(nodes); id++ {
		if nodes[id].Data == 0 {
			continue
		}
		buf := b.values.Get(nodes[id].Data).buf
		blobs = append(blobs, buf)
		total += len(buf) + 1
	}
	sort.Slice(blobs, func(i, j int) bool { return bytes.Compare(blobs[i], blobs[j]) < 0 })

	data := make([]byte, 1, 1+total)
	unique := make([][]byte, 0, len(blobs))
	offsets := make([]uint32, 0, len(blobs))
	for i, blob := range blobs {
		if i > 0 && bytes.Equal(blob, blobs[i-1]) {
			continue
		}
		unique = append(unique, blob)
		offsets = append(offsets, uint32(len(data)))
		data = append(data, blob...)
		data = append(data, 0)
	}

	for id := 1; id < len(nodes); id++ {
		if nodes[id].Data == 0 {
			continue
		}
		buf := b.values.Get(nodes[id].Data).buf
		k := sort.Search(len(unique), func(i int) bool { return bytes.Compare(unique[i], buf) >= 0 })
		nodes[id].Data = offsets[k]
	}
	b.values = nil
	return data
}
