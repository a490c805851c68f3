package main

import "github.com/nfrund/nettable/cmd/nettable-cli/cmd"

func main() {
	cmd.Execute()
}
