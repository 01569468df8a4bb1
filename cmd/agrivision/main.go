// Package main is the AgriVision command: an interactive terminal shell and
// a loopback JSON API for a browser front-end, both driving the same app.
package main

import (
	"cmp"
	"fmt"
	"os"

	"github.com/atinyakov/AgriVision/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// flags holds the command-line overrides shared by all commands.
type flags struct {
	configPath string
	envFile    string
	store      string
	data       string
	addr       string
	model      string
	lat        float64
	lon        float64
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:          "agrivision",
		Short:        "Crop disease detection and farm planning assistant",
		SilenceUsage: true,
	}
	f.register(root.PersistentFlags())

	root.AddCommand(newShellCmd(f), newServeCmd(f), newVersionCmd())
	return root
}

// register binds the flags to pf.
func (f *flags) register(pf *pflag.FlagSet) {
	pf.StringVarP(&f.configPath, "config", "c", "", "path to YAML config file")
	pf.StringVar(&f.envFile, "env-file", ".env", "path to .env file")
	pf.StringVar(&f.store, "store", "", "store backend: file, sqlite or memory")
	pf.StringVar(&f.data, "data", "", "store file or database path")
	pf.StringVarP(&f.addr, "addr", "a", "", "local API listen address (ip:port)")
	pf.StringVar(&f.model, "model", "", "Gemini model name")
	pf.Float64Var(&f.lat, "lat", 0, "device latitude")
	pf.Float64Var(&f.lon, "lon", 0, "device longitude")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// options loads the layered configuration and applies the flags that were
// set explicitly.
func (f *flags) options(cmd *cobra.Command) (config.Options, error) {
	opts, err := config.Load(f.configPath, f.envFile)
	if err != nil {
		return config.Options{}, err
	}

	changed := cmd.Flags().Changed
	if changed("store") {
		opts.Store = config.StoreKind(f.store)
	}
	if changed("data") {
		opts.DataPath = f.data
	}
	if changed("addr") {
		opts.Addr = f.addr
	}
	if changed("model") {
		opts.Model = f.model
	}
	if changed("lat") {
		opts.Lat = &f.lat
	}
	if changed("lon") {
		opts.Lon = &f.lon
	}
	if changed("log-level") {
		opts.LogLevel = f.logLevel
	}
	return opts, opts.Validate()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version and date",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Build version: %s\nBuild date: %s\n",
				cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		},
	}
}
