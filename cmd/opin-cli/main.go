package main

import "github.com/nfrund/opin/cmd/opin-cli/cmd"

func main() {
	cmd.Execute()
}
