// Command query answers point lookups against a compiled trie index.
//
// Usage: query FILE
//
// Keys are read from standard input, one per line, until EOF. For each key
// the stored value (or values, newline-separated) is printed, or "Not found".
//
// Exit codes: 0 on success, 1 on usage errors, 2 when the index cannot be
// loaded.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"triefile/internal/trie"

	"github.com/spf13/cobra"
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cmd := &cobra.Command{
		Use:           "query FILE",
		Short:         "Look up keys in a compiled trie index",
		Long:          "Load the trie index FILE and answer lookups for keys read from standard input, one per line. This program has no other options.",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], logger)
		},
	}
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		os.Exit(1)
	}
}

func run(path string, logger *slog.Logger) error {
	reader, err := trie.Open(path, logger)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer reader.Close()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		value, ok := reader.Lookup(scanner.Bytes())
		if !ok {
			value = []byte("Not found")
		}
		out.Write(value)
		out.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}
