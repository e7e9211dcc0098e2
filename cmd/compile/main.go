// Command compile builds a serialized trie index from a delimited text file.
//
// Usage: compile [-d DELIM] [-e] [-c] INPUT OUTPUT
//
// Exit codes: 0 on success and for -h, 1 on usage errors, 2 when the input
// file cannot be opened.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"triefile/internal/loader"
	"triefile/internal/trie"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cmd := newCommand(logger)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		os.Exit(1)
	}
}

func newCommand(logger *slog.Logger) *cobra.Command {
	var (
		delimiter      string
		membershipOnly bool
		compress       bool
	)

	cmd := &cobra.Command{
		Use:           "compile INPUT OUTPUT",
		Short:         "Compile a delimited text file into a trie index",
		Long:          "Read key/value records from INPUT, one per line, and write a binary trie index to OUTPUT for fast point lookups.",
		Args:          cobra.ExactArgs(2),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			delim := byte(loader.DefaultDelimiter)
			if delimiter != "" {
				// Only the first byte of the delimiter is effective.
				delim = delimiter[0]
			}
			return run(args[0], args[1], delim, membershipOnly, compress, logger)
		},
	}
	cmd.Flags().StringVarP(&delimiter, "delimiter", "d", ":", "delimiter between key and value")
	cmd.Flags().BoolVarP(&membershipOnly, "empty", "e", false, "do not store data associated with keys")
	cmd.Flags().BoolVarP(&compress, "compress", "c", false, "compress values against their keys")
	return cmd
}

func run(inputPath, outputPath string, delim byte, membershipOnly, compress bool, logger *slog.Logger) error {
	input, err := os.Open(inputPath)
	if err != nil {
		return &exitError{code: 2, err: fmt.Errorf("open input file: %w", err)}
	}
	defer input.Close()

	builder := trie.NewBuilder(!membershipOnly, compress, logger)

	cfg := loader.Config{Delimiter: delim}
	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	if interactive {
		cfg.Progress = func(inserted uint64) {
			fmt.Printf("\rInserted %s records", humanize.Comma(int64(inserted)))
		}
	}

	count, err := loader.Load(input, builder, cfg)
	if err != nil {
		return err
	}
	if interactive {
		fmt.Print("\r")
	}
	fmt.Printf("Inserted %s records\n", humanize.Comma(int64(count)))

	// Stats become zero once Serialize consumes the builder.
	stats := builder.Stats()
	if err := builder.Serialize(outputPath); err != nil {
		return err
	}
	if membershipOnly {
		fmt.Printf("Index holds %s nodes\n", humanize.Comma(int64(stats.Nodes)))
	} else {
		fmt.Printf("Index holds %s nodes, %s keys with values\n",
			humanize.Comma(int64(stats.Nodes)), humanize.Comma(int64(stats.ValueBuffers)))
	}
	if info, err := os.Stat(outputPath); err == nil {
		logger.Info("index written",
			"path", outputPath,
			"records", count,
			"nodes", stats.Nodes,
			"chunks", stats.Chunks,
			"value_buffers", stats.ValueBuffers,
			"size", humanize.Bytes(uint64(info.Size())))
	}
	return nil
}
