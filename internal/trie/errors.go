package trie

import "errors"

var (
	// ErrSealed is returned by builder operations after a successful
	// Serialize has consumed the builder.
	ErrSealed = errors.New("trie already serialized")

	// ErrArenaFull is returned by Insert when a pool's uint32 id space is
	// exhausted.
	ErrArenaFull = errors.New("arena pool exhausted")

	// ErrInvalidValue is returned by Insert when a value contains a byte
	// reserved by the storage format ('\n' separates accumulated values,
	// '\0' terminates blobs). Keys may contain any byte.
	ErrInvalidValue = errors.New("value contains reserved byte")

	// ErrBadVersion is returned by Open when byte 0 of the file is not a
	// version this reader recognizes.
	ErrBadVersion = errors.New("trie file has unrecognized version")

	// ErrMalformedFile is returned by Open when region sizes disagree with
	// the file length or the header counters are inconsistent.
	ErrMalformedFile = errors.New("malformed trie file")
)
