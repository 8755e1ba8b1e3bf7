package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newTranslateCmd(a *app) *cobra.Command {
	var direct bool

	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate fragments one by one through the batching dispatcher",
		Long: `Translate each argument (or each stdin line when no arguments are given).

Fragments are requested concurrently, so fragments that miss the cache are
coalesced into as few service calls as the batch size allows.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			texts := args
			if len(texts) == 0 {
				var err error
				if texts, err = readLines(a.stdin); err != nil {
					return err
				}
			}

			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			results := make([]string, len(texts))
			var g errgroup.Group
			for i, text := range texts {
				g.Go(func() error {
					if direct {
						results[i] = s.translator.TranslateDirect(ctx, text)
					} else {
						results[i] = s.translator.TranslateOne(ctx, text)
					}
					// An interrupted run would print source text as if it
					// were the translation.
					return ctx.Err()
				})
			}
			if err := g.Wait(); err != nil {
				return fmt.Errorf("translate interrupted: %w", err)
			}

			for i, text := range texts {
				fmt.Fprintf(a.stdout, "%s\t%s\n", text, results[i])
			}

			stats := s.translator.Stats()
			a.logger.Info("translate finished",
				"fragments", len(texts),
				"batches", stats.Batches,
				"failures", stats.Failures)
			return nil
		},
	}

	cmd.Flags().BoolVar(&direct, "direct", false, "bypass batching and use the single-text endpoint")
	return cmd
}

func newBatchCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Translate a list of fragments with one bulk call",
		Long: `Read one fragment per line from file (or stdin) and translate them all with
a single direct call, serving cache hits locally.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			texts, err := readInputLines(a, args)
			if err != nil {
				return err
			}

			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			results := s.translator.TranslateMany(cmd.Context(), texts)
			return writeResults(a.stdout, format, texts, results)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "tsv", "output format: tsv or json")
	return cmd
}

func readInputLines(a *app, args []string) ([]string, error) {
	if len(args) == 0 {
		return readLines(a.stdin)
	}
	f, err := os.Open(args[0]) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	defer f.Close()
	return readLines(f)
}

// readLines returns the non-blank lines of r.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimRight(scanner.Text(), "\r"); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return lines, nil
}

func writeResults(w io.Writer, format string, texts []string, results map[string]string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(results)
	case "tsv":
		for _, text := range texts {
			fmt.Fprintf(w, "%s\t%s\n", text, results[text])
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want tsv or json)", format)
	}
}

