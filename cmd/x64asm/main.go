package main

import "github.com/corvidlabs/x64asm/cmd/x64asm/cmd"

func main() {
	cmd.Execute()
}
