package format

import "encoding/binary"

// Node is the fixed node record. FirstChunk names the start of the node's run
// of child chunks in the chunk region, NumChunks its length. Data is 0 when no
// value is associated, 1 in membership-only files, otherwise a byte offset into
// the data region.
//
// During build the same record is used with FirstChunk pointing at the head of
// a linked chunk list and Data indexing a value buffer pool; sealing rewrites
// both fields into their on-disk meaning. Keeping one record for both phases is
// what lets serialization write the node pool back to back without fixups.
type Node struct {
	FirstChunk uint32
	Data       uint32
	NumChunks  uint8
}

// Chunk is the sealed child record: one (key byte, target node) pair. A node's
// chunks occupy consecutive records sorted ascending by Key.
type Chunk struct {
	Target uint32
	Key    byte
}

// EncodeNodeInto writes the node record into buf at offset 0.
// The buffer must be at least NodeSize bytes.
func EncodeNodeInto(n Node, buf []byte) int {
	binary.LittleEndian.PutUint32(buf[0:4], n.FirstChunk)
	binary.LittleEndian.PutUint32(buf[4:8], n.Data)
	buf[8] = n.NumChunks
	return NodeSize
}

// DecodeNode reads a node record from buf at offset 0.
// The buffer must be at least NodeSize bytes.
func DecodeNode(buf []byte) Node {
	return Node{
		FirstChunk: binary.LittleEndian.Uint32(buf[0:4]),
		Data:       binary.LittleEndian.Uint32(buf[4:8]),
		NumChunks:  buf[8],
	}
}

// EncodeChunkInto writes the chunk record into buf at offset 0.
// The buffer must be at least ChunkSize bytes.
func EncodeChunkInto(c Chunk, buf []byte) int {
	binary.LittleEndian.PutUint32(buf[0:4], c.Target)
	buf[4] = c.Key
	return ChunkSize
}

// DecodeChunk reads a chunk record from buf at offset 0.
// The buffer must be at least ChunkSize bytes.
func DecodeChunk(buf []byte) Chunk {
	return Chunk{
		Target: binary.LittleEndian.Uint32(buf[0:4]),
		Key:    buf[4],
	}
}
