package main

import "github.com/expendi/expendi-cli/cmd"

func main() {
	cmd.Execute()
}
