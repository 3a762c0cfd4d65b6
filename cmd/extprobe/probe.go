package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nativekit/extprobe"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Run discovery and print the configuration report",
	Long: `Probe the host for every module declared in the manifest and print the
resulting build configuration: which modules will be compiled (in build
order), which are missing their headers or libraries, and which are
disabled.

Configuration variables (CC, CFLAGS, srcdir, ...) come from the --config
file and may be overridden through EXTPROBE_-prefixed environment
variables.`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfigVars()
	if err != nil {
		return err
	}
	manifest, err := extprobe.LoadManifest(flagManifest)
	if err != nil {
		return err
	}

	disc, err := extprobe.NewDiscovery(cfg, manifest, extprobe.DiscoveryOptions{
		Logger: logger,
	})
	if err != nil {
		return err
	}

	report, err := disc.Run(cmd.Context())
	if err != nil {
		return err
	}

	for _, ext := range report.Configured {
		fmt.Fprintln(os.Stdout, ext.Name)
	}
	fmt.Fprintln(os.Stdout)
	fmt.Fprint(os.Stdout, report.Summary())
	return nil
}
