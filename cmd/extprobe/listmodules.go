package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nativekit/extprobe"
)

var listModulesCmd = &cobra.Command{
	Use:   "list-modules",
	Short: "Print the names of all modules the manifest declares",
	Long: `Print every module name the manifest declares, one per line, sorted.
No probing happens; disabled and platform-restricted modules are listed
too. Useful for tooling that needs the complete module name inventory.`,
	Args: cobra.NoArgs,
	RunE: runListModules,
}

func init() {
	rootCmd.AddCommand(listModulesCmd)
}

func runListModules(cmd *cobra.Command, args []string) error {
	manifest, err := extprobe.LoadManifest(flagManifest)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(manifest.Modules))
	for i := range manifest.Modules {
		names = append(names, manifest.Modules[i].Name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(os.Stdout, name)
	}
	return nil
}
