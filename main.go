package main

import "github.com/oo-cli/oo/cmd"

func main() {
	cmd.Execute()
}
