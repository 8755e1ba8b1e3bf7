package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ZaguanLabs/gotlui"
	"github.com/ZaguanLabs/gotlui/processor"
	"github.com/spf13/cobra"
)

func newHTMLCmd(a *app) *cobra.Command {
	var (
		output string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "html [file]",
		Short: "Translate the visible text of an HTML page",
		Long: `Extract the text nodes and translatable attributes of an HTML page, translate
them in one bulk call, and write the page back with lang and dir set.

Content of script, style, code, pre and textarea elements, and of elements
marked data-no-translate or translate="no", is left alone.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(a, args)
			if err != nil {
				return err
			}

			proc := processor.NewHTMLProcessor()
			if dryRun {
				return runDryRun(a, proc, input)
			}

			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := proc.TranslateDocument(cmd.Context(), input, s.translator)
			if err != nil {
				return fmt.Errorf("translation failed: %w", err)
			}

			var out io.Writer = a.stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			_, err = fmt.Fprint(out, result)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list fragments and skip decisions without translating")
	return cmd
}

// dryRunFragment is one line of the dry-run report.
type dryRunFragment struct {
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
	Skip    string `json:"skip,omitempty"`
}

// runDryRun shows what would be translated without calling the service.
func runDryRun(a *app, proc *processor.HTMLProcessor, input string) error {
	doc, err := proc.Parse(input)
	if err != nil {
		return fmt.Errorf("extracting text: %w", err)
	}

	var report []dryRunFragment
	for _, f := range doc.Fragments() {
		report = append(report, dryRunFragment{
			Text:    f.Text,
			Context: f.Context,
			Skip:    string(gotlui.Classify(f.Text, a.cfg.TargetLang)),
		})
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(report)
}

func readInput(a *app, args []string) (string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0]) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), nil
}
