package main

import "github.com/isabela-labs/tortoisefind/apps/finderworker/cmd"

func main() {
	cmd.Execute()
}
