package trie

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"syscall"

	"triefile/internal/format"
	"triefile/internal/logging"
)

// Found is the value returned for present keys by membership-only files. It
// is shared; callers must not modify it.
var Found = []byte("Found")

// Reader is a trie opened from a serialized file. The file is memory-mapped
// read-only and the mapping is the runtime image: lookups navigate it
// directly with no deserialization. A Reader is immutable and safe for
// concurrent Lookup calls; all lookup state is stack-local.
type Reader struct {
	file   *os.File
	mapped []byte
	header format.Header

	// Region views into mapped, bound once at Open.
	nodes  []byte
	chunks []byte
	data   []byte

	logger *slog.Logger
}

// Open maps the trie file at path and validates it. The header version must
// match (ErrBadVersion otherwise) and the region sizes implied by the
// counters must agree exactly with the file length (ErrMalformedFile
// otherwise). On any validation failure the mapping is released before
// returning.
func Open(path string, logger *slog.Logger) (*Reader, error) {
	logger = logging.Default(logger).With("component", "trie-reader")

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trie file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat trie file: %w", err)
	}
	if info.Size() < format.HeaderSize {
		f.Close()
		return nil, fmt.Errorf("%w: file shorter than header", ErrMalformedFile)
	}

	mapped, err := syscall.Mmap(int(f.Fd()), 0, int(info.Size()), syscall.PROT_READ, syscall.MAP_PRIVATE)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("map trie file: %w", err)
	}

	header, err := format.DecodeHeader(mapped)
	if err != nil {
		unmapAndClose(mapped, f)
		if errors.Is(err, format.ErrBadVersion) {
			return nil, fmt.Errorf("open trie file: %w", ErrBadVersion)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	if header.FileSize() != info.Size() {
		unmapAndClose(mapped, f)
		return nil, fmt.Errorf("%w: region sizes disagree with file length", ErrMalformedFile)
	}
	// The sentinel node and root must exist, as must the sentinel chunk and
	// the reserved data byte when a data region is present.
	if header.NodesUsed < 2 || header.ChunksUsed < 1 || (header.WithContent && header.DataUsed < 1) {
		unmapAndClose(mapped, f)
		return nil, fmt.Errorf("%w: counters below reserved minimums", ErrMalformedFile)
	}

	nodesEnd := format.HeaderSize + int64(header.NodesUsed)*format.NodeSize
	chunksEnd := nodesEnd + int64(header.ChunksUsed)*format.ChunkSize
	r := &Reader{
		file:   f,
		mapped: mapped,
		header: header,
		nodes:  mapped[format.HeaderSize:nodesEnd],
		chunks: mapped[nodesEnd:chunksEnd],
		logger: logger,
	}
	if header.WithContent {
		r.data = mapped[chunksEnd : chunksEnd+int64(header.DataUsed)]
	}
	logger.Debug("trie file opened",
		"path", path,
		"nodes", header.NodesUsed,
		"chunks", header.ChunksUsed,
		"data_bytes", header.DataUsed)
	return r, nil
}

// WithContent reports whether the file stores values.
func (r *Reader) WithContent() bool { return r.header.WithContent }

// UseCompress reports whether stored values are prefix-compressed.
func (r *Reader) UseCompress() bool { return r.header.UseCompress }

// Lookup returns the value stored for key, or (nil, false) if the key is
// absent. Multiple values accumulated under one key come back joined by '\n'
// in insertion order.
//
// Ownership of the returned bytes depends on the file: membership-only files
// return the shared Found slice; uncompressed files return a view into the
// mapping that is valid only until Close; compressed files return a freshly
// allocated buffer owned by the caller. In no case may the result be
// modified in place.
func (r *Reader) Lookup(key []byte) ([]byte, bool) {
	current := uint32(rootID)
	for _, c := range key {
		n, ok := r.node(current)
		if !ok {
			return nil, false
		}
		current = r.findChild(n, c)
		if current == 0 {
			return nil, false
		}
	}
	n, ok := r.node(current)
	if !ok || n.Data == 0 {
		return nil, false
	}
	if !r.header.WithContent {
		return Found, true
	}

	off := int(n.Data)
	if off >= len(r.data) {
		return nil, false
	}
	end := bytes.IndexByte(r.data[off:], 0)
	if end < 0 {
		return nil, false
	}
	blob := r.data[off : off+end]
	if r.header.UseCompress {
		return decompressValue(blob, key), true
	}
	return blob, true
}

// node decodes the fixed record for id, rejecting ids outside the mapped
// node region.
func (r *Reader) node(id uint32) (format.Node, bool) {
	off := int64(id) * format.NodeSize
	if off+format.NodeSize > int64(len(r.nodes)) {
		return format.Node{}, false
	}
	return format.DecodeNode(r.nodes[off:]), true
}

// findChild binary-searches the node's sorted chunk run for key and returns
// the target node id, or 0 when the key byte has no child. A run that
// reaches outside the chunk region counts as no child.
func (r *Reader) findChild(n format.Node, key byte) uint32 {
	count := int(n.NumChunks)
	base := int64(n.FirstChunk) * format.ChunkSize
	if count == 0 || base <= 0 || base+int64(count)*format.ChunkSize > int64(len(r.chunks)) {
		return 0
	}
	run := r.chunks[base : base+int64(count)*format.ChunkSize]
	i := sort.Search(count, func(i int) bool {
		return run[i*format.ChunkSize+4] >= key
	})
	if i == count || run[i*format.ChunkSize+4] != key {
		return 0
	}
	return format.DecodeChunk(run[i*format.ChunkSize:]).Target
}

// Close releases the mapping and the underlying file. Safe to call more than
// once. Lookup results that alias the mapping are invalid afterwards.
func (r *Reader) Close() error {
	var err error
	if r.mapped != nil {
		if unmapErr := syscall.Munmap(r.mapped); unmapErr != nil {
			err = unmapErr
		}
		r.mapped = nil
		r.nodes = nil
		r.chunks = nil
		r.data = nil
	}
	if r.file != nil {
		if closeErr := r.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		r.file = nil
	}
	return err
}

func unmapAndClose(mapped []byte, f *os.File) {
	_ = syscall.Munmap(mapped)
	_ = f.Close()
}
