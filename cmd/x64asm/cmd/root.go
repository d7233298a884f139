package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "x64asm",
	Short: "A table-driven x86-64 assembler",
	Long:  `x64asm assembles x86-64 source files into relocatable ELF or Mach-O object files.`,
}

// Execute runs the root command, exiting with status 1 on any error a
// subcommand reports.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "arch",
		Title: "Architectures",
	})
	rootCmd.AddCommand(x8664Cmd)
}
