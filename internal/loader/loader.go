// Package loader feeds delimited text records into a trie builder.
//
// The input is one record per line: key, a single-byte delimiter, value. The
// value runs from the first byte after the delimiter to the end of the line.
// Lines of length 1 or less are skipped. A line with no delimiter is skipped
// when the builder stores values, and treated as a bare key otherwise.
// Duplicate keys are legal and accumulate.
package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"triefile/internal/trie"
)

const (
	// DefaultDelimiter separates key from value when no override is given.
	DefaultDelimiter = ':'

	// progressInterval is the record count between progress callbacks.
	progressInterval = 1000

	maxLineSize = 1 << 20
)

// Config controls a Load run.
type Config struct {
	// Delimiter is the byte separating key from value.
	// Zero means DefaultDelimiter.
	Delimiter byte

	// Progress, when non-nil, is called with the running insert count after
	// every 1000th successful insert.
	Progress func(inserted uint64)
}

// Load reads records from r until EOF and inserts them into b. It returns
// the number of records inserted.
func Load(r io.Reader, b *trie.Builder, cfg Config) (uint64, error) {
	delim := cfg.Delimiter
	if delim == 0 {
		delim = DefaultDelimiter
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var count uint64
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) <= 1 {
			continue
		}
		key := line
		var value []byte
		if idx := bytes.IndexByte(line, delim); idx >= 0 {
			key = line[:idx]
			value = line[idx+1:]
		} else if b.WithContent() {
			continue
		}
		if err := b.Insert(key, value); err != nil {
			return count, fmt.Errorf("insert record: %w", err)
		}
		count++
		if cfg.Progress != nil && count%progressInterval == 0 {
			cfg.Progress(count)
		}
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("read input: %w", err)
	}
	return count, nil
}
