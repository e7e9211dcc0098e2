package trie

import (
	"bufio"
	"fmt"
	"os"

	"triefile/internal/format"
)

// Serialize seals the trie and writes it to path as a single file. Once
// sealing has begun the builder is consumed: its pools are released and every
// further operation returns ErrSealed. A failure to create the output leaves
// the builder untouched; a failure mid-write additionally leaves the output
// file in an unspecified state, and callers must treat partial files as
// invalid.
func (b *Builder) Serialize(path string) error {
	if b.sealed {
		return ErrSealed
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trie file: %w", err)
	}

	// Sealing rewrites the pools destructively, so from here on the builder
	// is consumed whether or not the write succeeds. Stats must be read
	// before the pools are cleared.
	stats := b.Stats()
	img := b.seal()
	b.sealed = true
	b.nodes = nil
	b.chunks = nil
	b.values = nil

	w := bufio.NewWriter(f)
	writeErr := writeImage(w, img)
	if writeErr == nil {
		writeErr = w.Flush()
	}
	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return fmt.Errorf("write trie file: %w", writeErr)
	}

	b.logger.Info("trie serialized",
		"path", path,
		"nodes", stats.Nodes,
		"chunks", stats.Chunks,
		"value_buffers", stats.ValueBuffers,
		"data_bytes", img.header.DataUsed)
	return nil
}

// writeImage writes the fixed regions in file order: header, nodes, chunks,
// data. Every record is encoded field by field; nothing in-memory is blitted.
func writeImage(w *bufio.Writer, img *sealedImage) error {
	var hdr [format.HeaderSize]byte
	img.header.EncodeInto(hdr[:])
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	var node [format.NodeSize]byte
	for _, n := range img.nodes {
		format.EncodeNodeInto(n, node[:])
		if _, err := w.Write(node[:]); err != nil {
			return err
		}
	}

	var chunk [format.ChunkSize]byte
	for _, c := range img.chunks {
		format.EncodeChunkInto(c, chunk[:])
		if _, err := w.Write(chunk[:]); err != nil {
			return err
		}
	}

	if len(img.data) > 0 {
		if _, err := w.Write(img.data); err != nil {
			return err
		}
	}
	return nil
}
