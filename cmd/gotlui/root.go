package main

import (
	"io"
	"log/slog"

	"github.com/ZaguanLabs/gotlui"
	"github.com/ZaguanLabs/gotlui/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		v:      config.New(),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	root := &cobra.Command{
		Use:   gotlui.Name,
		Short: gotlui.Description,
		Long: `gotlui translates user interface strings into a target language.

Fragments that never need translation (emails, URLs, ids, numbers, text
already in the target script) are passed through. Everything else is
served from a persistent cache or sent to the translation service in
batches.

Example:
  gotlui translate --lang ar "Dashboard" "Create Task"
  gotlui batch --lang he strings.txt
  gotlui html --lang fa -o page.fa.html page.html`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       gotlui.FullVersion(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.gotlui.yaml)")
	pf.StringP("lang", "l", "", "target language code (e.g. ar, he_IL)")
	pf.String("source", "", "source language code")
	pf.String("provider", "", "translation service: openai, http or catalog")
	pf.String("base-url", "", "translation service base URL")
	pf.String("catalog-dir", "", "directory of <lang>.po catalogs for the catalog provider")
	pf.String("store", "", "cache backend: sqlite, redis or memory")
	pf.String("store-path", "", "SQLite database path")
	pf.String("log-level", "", "log level: debug, info, warn or error")

	a.bind(pf.Lookup("lang"), "target_lang")
	a.bind(pf.Lookup("source"), "source_lang")
	a.bind(pf.Lookup("provider"), "provider.kind")
	a.bind(pf.Lookup("base-url"), "provider.base_url")
	a.bind(pf.Lookup("catalog-dir"), "provider.catalog_dir")
	a.bind(pf.Lookup("store"), "store.kind")
	a.bind(pf.Lookup("store-path"), "store.path")
	a.bind(pf.Lookup("log-level"), "log.level")

	root.AddCommand(
		newTranslateCmd(a),
		newBatchCmd(a),
		newHTMLCmd(a),
		newClassifyCmd(a),
		newCacheCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) bind(flag *pflag.Flag, key string) {
	_ = a.v.BindPFlag(key, flag)
}

func (a *app) load() error {
	used, err := config.ReadFile(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.Log.NewLogger(a.stderr)
	if used != "" {
		a.logger.Info("using config file", "path", used)
	}
	return nil
}
