package main

import (
	"fmt"
	"strconv"

	"github.com/ZaguanLabs/gotlui/cache"
	"github.com/spf13/cobra"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the translation cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every cached translation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(func(store *cache.Store) error {
					if err := store.Clear(); err != nil {
						return err
					}
					fmt.Fprintln(a.stdout, "cache cleared")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "evict [count]",
			Short: "Release space by removing entries in storage order",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n := a.cfg.Cache.EvictCount
				if len(args) == 1 {
					var err error
					if n, err = strconv.Atoi(args[0]); err != nil || n < 0 {
						return fmt.Errorf("invalid count %q", args[0])
					}
				}
				return a.withStore(func(store *cache.Store) error {
					removed, err := store.Evict(n)
					if err != nil {
						return err
					}
					fmt.Fprintf(a.stdout, "evicted %d entries\n", removed)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "export <file>",
			Short: "Write fresh entries to a JSON or YAML file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(func(store *cache.Store) error {
					meta := map[string]string{"target_lang": a.cfg.TargetLang}
					if err := cache.NewExporter(store).ExportToFile(args[0], meta); err != nil {
						return err
					}
					fmt.Fprintf(a.stdout, "exported to %s\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "import <file>",
			Short: "Load entries from a JSON or YAML export",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(func(store *cache.Store) error {
					result, err := cache.NewImporter(store).ImportFromFile(args[0])
					if err != nil {
						return err
					}
					if lang := result.Metadata["target_lang"]; lang != "" && lang != a.cfg.TargetLang {
						a.logger.Warn("import was exported for another target language",
							"exported", lang, "target_lang", a.cfg.TargetLang)
					}
					fmt.Fprintf(a.stdout, "imported %d, expired %d, failed %d\n",
						result.Imported, result.Expired, result.Failed)
					return nil
				})
			},
		},
	)
	return cmd
}

func (a *app) withStore(fn func(*cache.Store) error) error {
	store, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(store)
}
