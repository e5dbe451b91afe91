package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ilo/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "ilo",
	Short: "Ilograph diagram toolchain",
	Long:  `ilo reads, checks, and safely rewrites Ilograph YAML diagrams`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(impactCmd)
	rootCmd.AddCommand(fmtCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(resourceCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(relationCmd)
	rootCmd.AddCommand(perspectiveCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(aliasCmd)
	rootCmd.AddCommand(overrideCmd)
	rootCmd.AddCommand(sequenceCmd)
	rootCmd.AddCommand(walkthroughCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Int("max-findings", 512, "maximum number of findings to show")

	cobra.OnInitialize(applyColorMode)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
