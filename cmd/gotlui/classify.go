package main

import (
	"fmt"

	"github.com/ZaguanLabs/gotlui"
	"github.com/spf13/cobra"
)

func newClassifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [text...]",
		Short: "Show which fragments would be sent for translation",
		Long: `Print the skip rule matching each fragment for the target language, or
"translate" when the fragment would be sent to the service. No network
calls are made.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			texts := args
			if len(texts) == 0 {
				var err error
				if texts, err = readLines(a.stdin); err != nil {
					return err
				}
			}

			for _, text := range texts {
				reason := string(gotlui.Classify(text, a.cfg.TargetLang))
				if reason == "" {
					reason = "translate"
				}
				fmt.Fprintf(a.stdout, "%s\t%s\n", reason, text)
			}
			return nil
		},
	}
}
