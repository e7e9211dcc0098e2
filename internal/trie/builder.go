// Package trie implements a persistent, read-optimized byte trie mapping keys
// to one or more string values.
//
// The package has two types with disjoint lifecycles. A Builder accumulates
// insertions in index-addressed arena pools and writes a single file via
// Serialize. A Reader memory-maps such a file and answers point lookups with
// no per-query allocation in the common case. Neither type can observe the
// other's state: a Builder is never readable, a Reader is never mutable.
package trie

import (
	"bytes"
	"fmt"
	"log/slog"

	"triefile/internal/arena"
	"triefile/internal/format"
	"triefile/internal/logging"
)

// rootID is the node every key walk starts from. Id 0 is the null sentinel.
const rootID = 1

// buildChunk is the pre-seal child record: a singly linked list element used
// while a node's children arrive in arbitrary order. Sealing rewrites these
// lists into sorted contiguous format.Chunk runs.
type buildChunk struct {
	next   uint32
	target uint32
	key    byte
}

// valueBuffer accumulates the newline-separated values inserted under one
// terminal node.
type valueBuffer struct {
	buf []byte
}

// Builder is a trie in build mode. It is not safe for concurrent use.
type Builder struct {
	withContent bool
	useCompress bool
	sealed      bool

	nodes  *arena.Pool[format.Node]
	chunks *arena.Pool[buildChunk]
	values *arena.Pool[valueBuffer]

	logger *slog.Logger
}

// NewBuilder returns an empty trie in build mode. When withContent is false
// the trie records key presence only and stores no values. When useCompress
// is true each value is stored with its key-shared prefix elided.
func NewBuilder(withContent, useCompress bool, logger *slog.Logger) *Builder {
	b := &Builder{
		withContent: withContent,
		useCompress: useCompress,
		nodes:       arena.NewPool[format.Node](),
		chunks:      arena.NewPool[buildChunk](),
		logger:      logging.Default(logger).With("component", "trie-builder"),
	}
	if withContent {
		b.values = arena.NewPool[valueBuffer]()
	}
	// The pools reserve id 0; the root takes id 1.
	root, err := b.nodes.Alloc()
	if err != nil || root != rootID {
		panic("trie: fresh node pool did not yield the root id")
	}
	return b
}

// WithContent reports whether the builder stores values.
func (b *Builder) WithContent() bool { return b.withContent }

// UseCompress reports whether stored values are prefix-compressed.
func (b *Builder) UseCompress() bool { return b.useCompress }

// Insert associates value with key. Repeated insertions under the same key
// accumulate in insertion order. The empty key is valid and targets the root
// node directly. Values must not contain '\n' or '\0'; in membership-only
// mode the value is ignored entirely.
func (b *Builder) Insert(key, value []byte) error {
	if b.sealed {
		return ErrSealed
	}
	if b.withContent && bytes.ContainsAny(value, "\n\x00") {
		return ErrInvalidValue
	}
	current := uint32(rootID)
	for _, c := range key {
		next, err := b.findOrCreateChild(current, c)
		if err != nil {
			return err
		}
		current = next
	}
	return b.addValue(current, key, value)
}

// findOrCreateChild walks the parent's chunk list for key and descends, or
// appends a fresh chunk and node at the tail. The list is unordered; a key
// byte appears at most once by construction.
func (b *Builder) findOrCreateChild(parent uint32, key byte) (uint32, error) {
	var last uint32
	for id := b.nodes.Get(parent).FirstChunk; id != 0; id = b.chunks.Get(id).next {
		ch := b.chunks.Get(id)
		if ch.key == key {
			return ch.target, nil
		}
		last = id
	}

	chunkID, err := b.chunks.Alloc()
	if err != nil {
		return 0, fmt.Errorf("%w: chunks: %v", ErrArenaFull, err)
	}
	nodeID, err := b.nodes.Alloc()
	if err != nil {
		return 0, fmt.Errorf("%w: nodes: %v", ErrArenaFull, err)
	}
	*b.chunks.Get(chunkID) = buildChunk{key: key, target: nodeID}
	if last != 0 {
		b.chunks.Get(last).next = chunkID
	} else {
		b.nodes.Get(parent).FirstChunk = chunkID
	}
	return nodeID, nil
}

// Stats reports the pool high-water marks of a builder, excluding the
// reserved sentinel records. Zero after the builder has been serialized.
type Stats struct {
	Nodes        uint32
	Chunks       uint32
	ValueBuffers uint32
}

// Stats returns the current pool usage.
func (b *Builder) Stats() Stats {
	if b.sealed {
		return Stats{}
	}
	s := Stats{
		Nodes:  b.nodes.Len() - 1,
		Chunks: b.chunks.Len() - 1,
	}
	if b.values != nil {
		s.ValueBuffers = b.values.Len() - 1
	}
	return s
}
