package main

import "github.com/isabela-labs/tortoisefind/apps/finderctl/cmd"

func main() {
	cmd.Execute()
}
