// Package format defines the on-disk layout of serialized trie files.
//
// A trie file is little-endian throughout and laid out as four regions:
//
//	Header:  version (1) | withContent (1) | useCompress (1) | pad (1) |
//	         nodesUsed (4) | chunksUsed (4) | dataUsed (4)
//	Nodes:   firstChunk (4) | data (4) | numChunks (1)   (repeated nodesUsed times)
//	Chunks:  target (4) | key (1)                        (repeated chunksUsed times)
//	Data:    dataUsed raw bytes                          (present iff withContent)
//
// Node id 0 and chunk id 0 are reserved sentinels and occupy real records so
// that valid ids start at 1 and array bases can be bound by plain arithmetic.
// The header is always encoded field by field; the in-memory representation is
// never written to disk directly.
package format

import (
	"encoding/binary"
	"errors"
)

const (
	// Version identifies the current file layout. Readers reject any other
	// value in byte 0 of the file.
	Version = 16

	HeaderSize = 16
	NodeSize   = 9
	ChunkSize  = 5
)

var (
	ErrHeaderTooSmall = errors.New("header too small")
	ErrBadVersion     = errors.New("unrecognized format version")
	ErrBadFlags       = errors.New("invalid header flag byte")
)

// Header is the decoded form of the fixed file header. Region sizes are
// derived from the counters alone; it carries no pointers or offsets.
type Header struct {
	WithContent bool
	UseCompress bool
	NodesUsed   uint32
	ChunksUsed  uint32
	DataUsed    uint32
}

// EncodeInto writes the header into the given buffer at offset 0.
// The buffer must be at least HeaderSize bytes.
// Returns the number of bytes written (always HeaderSize).
func (h Header) EncodeInto(buf []byte) int {
	buf[0] = Version
	buf[1] = encodeBool(h.WithContent)
	buf[2] = encodeBool(h.UseCompress)
	buf[3] = 0
	binary.LittleEndian.PutUint32(buf[4:8], h.NodesUsed)
	binary.LittleEndian.PutUint32(buf[8:12], h.ChunksUsed)
	binary.LittleEndian.PutUint32(buf[12:16], h.DataUsed)
	return HeaderSize
}

// DecodeHeader reads and validates a header from the given buffer.
// Returns ErrHeaderTooSmall if buf is shorter than HeaderSize,
// ErrBadVersion if byte 0 is not the current version, and ErrBadFlags
// if either flag byte is not 0 or 1.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrHeaderTooSmall
	}
	if buf[0] != Version {
		return Header{}, ErrBadVersion
	}
	if buf[1] > 1 || buf[2] > 1 {
		return Header{}, ErrBadFlags
	}
	return Header{
		WithContent: buf[1] == 1,
		UseCompress: buf[2] == 1,
		NodesUsed:   binary.LittleEndian.Uint32(buf[4:8]),
		ChunksUsed:  binary.LittleEndian.Uint32(buf[8:12]),
		DataUsed:    binary.LittleEndian.Uint32(buf[12:16]),
	}, nil
}

// FileSize returns the total file length implied by the counters.
func (h Header) FileSize() int64 {
	size := int64(HeaderSize)
	size += int64(h.NodesUsed) * NodeSize
	size += int64(h.ChunksUsed) * ChunkSize
	if h.WithContent {
		size += int64(h.DataUsed)
	}
	return size
}

func encodeBool(b bool) byte {
	if b {
		return 1
	}
	return 0
}
