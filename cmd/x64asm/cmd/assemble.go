package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corvidlabs/x64asm/assembler"
	"github.com/corvidlabs/x64asm/internal/lexer"
	"github.com/corvidlabs/x64asm/internal/objectwriter"
	"github.com/spf13/cobra"
)

var machoOutput bool

// AssembleCmd assembles every source file given on the command line into a
// relocatable object file beside it. A file already ending in ".o" is
// skipped with a diagnostic rather than treated as source — running the
// assembler twice over the same argument list should not try to reassemble
// its own output.
var AssembleCmd = &cobra.Command{
	Use:     "assemble <file>...",
	GroupID: "file-operations",
	Short:   "Assemble one or more x86-64 source files into object files.",
	Long:    `Assemble one or more x86-64 source files into relocatable ELF or Mach-O object files.`,
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runAssemble(cmd, args); err != nil {
			cmd.PrintErrln("Error:", err)
			os.Exit(1)
		}
	},
}

func init() {
	AssembleCmd.Flags().BoolVar(&machoOutput, "macho", false, "emit a Mach-O object instead of ELF")
}

func runAssemble(cmd *cobra.Command, args []string) error {
	failed := false
	for _, arg := range args {
		if strings.HasSuffix(arg, ".o") {
			cmd.PrintErrln("skipping", arg, ": already an object file")
			continue
		}
		if err := assembleFile(cmd, arg); err != nil {
			cmd.PrintErrln("Error:", arg, ":", err)
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("one or more files failed to assemble")
	}
	return nil
}

func assembleFile(cmd *cobra.Command, path string) error {
	fullPath, err := resolveFilePath(path)
	if err != nil {
		return err
	}

	source, err := readSourceFile(fullPath)
	if err != nil {
		return err
	}

	tokens, err := lexer.New(source).Tokenize()
	if err != nil {
		return fmt.Errorf("lexing: %w", err)
	}

	mod := assembler.NewModule(fullPath)
	mod.Drive(tokens)
	if mod.HasErrors() {
		for _, e := range mod.Errors() {
			cmd.PrintErrln(e.String())
		}
		return fmt.Errorf("%d error(s)", len(mod.Errors()))
	}

	container := objectwriter.ELF64
	if machoOutput {
		container = objectwriter.MachO64
	}

	out, err := objectwriter.Write(mod, container)
	if err != nil {
		return fmt.Errorf("writing object file: %w", err)
	}

	outPath := outputPath(fullPath)
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	cmd.Println(outPath)
	return nil
}

// resolveFilePath validates the argument and returns its absolute path.
func resolveFilePath(arg string) (string, error) {
	if arg == "" {
		return "", fmt.Errorf("assembly file path is empty")
	}
	fullPath := arg
	if !filepath.IsAbs(arg) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("unable to get current working directory: %w", err)
		}
		fullPath = filepath.Join(cwd, arg)
	}
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return "", fmt.Errorf("assembly file does not exist at path: %s", fullPath)
	}
	return fullPath, nil
}

// readSourceFile reads the assembly source file and returns its content.
func readSourceFile(path string) (string, error) {
	sourceBytes, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read assembly file: %w", err)
	}
	return string(sourceBytes), nil
}

// outputPath swaps the input file's extension for ".o".
func outputPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".o"
}
