package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func TestOutputPath(t *testing.T) {
	cases := map[string]string{
		"/tmp/foo.asm": "/tmp/foo.o",
		"/tmp/foo":     "/tmp/foo.o",
		"bar.s":        "bar.o",
	}
	for in, want := range cases {
		if got := outputPath(in); got != want {
			t.Errorf("outputPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveFilePath_MissingFile(t *testing.T) {
	if _, err := resolveFilePath("does-not-exist.asm"); err == nil {
		t.Fatal("expected an error for a nonexistent file")
	}
}

func TestResolveFilePath_EmptyArg(t *testing.T) {
	if _, err := resolveFilePath(""); err == nil {
		t.Fatal("expected an error for an empty path")
	}
}

func TestAssembleFile_WritesObjectFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "add.asm")
	if err := os.WriteFile(src, []byte("mov rax, rbx\nret\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := &cobra.Command{}
	if err := assembleFile(cmd, src); err != nil {
		t.Fatalf("assembleFile: %v", err)
	}

	out := filepath.Join(dir, "add.o")
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(data) < 4 || data[0] != 0x7f || data[1] != 'E' || data[2] != 'L' || data[3] != 'F' {
		t.Fatalf("expected an ELF magic header, got %x", data[:min(4, len(data))])
	}
}

func TestAssembleFile_MachO(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "ret.asm")
	if err := os.WriteFile(src, []byte("ret\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	machoOutput = true
	defer func() { machoOutput = false }()

	cmd := &cobra.Command{}
	if err := assembleFile(cmd, src); err != nil {
		t.Fatalf("assembleFile: %v", err)
	}

	out := filepath.Join(dir, "ret.o")
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(data) < 4 || data[0] != 0xcf || data[1] != 0xfa || data[2] != 0xed || data[3] != 0xfe {
		t.Fatalf("expected a Mach-O 64-bit magic header, got %x", data[:min(4, len(data))])
	}
}

func TestAssembleFile_ReportsUnrecognizedMnemonic(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.asm")
	if err := os.WriteFile(src, []byte("bogus_mnemonic rax\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := &cobra.Command{}
	if err := assembleFile(cmd, src); err == nil {
		t.Fatal("expected an error for an unrecognized mnemonic")
	}
}
