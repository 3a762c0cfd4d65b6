package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nativekit/extprobe"
)

var (
	flagManifest string
	flagConfig   string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "extprobe",
	Short: "Probe the host platform for buildable native extension modules",
	Long: `extprobe decides which of a runtime's optional native extension modules
the host system can build. It probes the compiler toolchain, resolves the
macOS SDK root when one is active, searches header and library directories,
and filters the declared module list accordingly.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagManifest, "manifest", "m", "modules.toml", "module manifest file")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "configuration variables file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// newLogger builds the run's logger from the verbosity flag.
func newLogger() *log.Logger {
	logger := log.New(os.Stderr)
	if flagVerbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}

// loadConfigVars assembles the configuration store from the optional config
// file plus environment overrides.
func loadConfigVars() (*extprobe.ConfigVars, error) {
	cfg := extprobe.NewConfigVars()
	if flagConfig != "" {
		if err := cfg.LoadFile(flagConfig); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
