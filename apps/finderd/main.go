package main

import "github.com/isabela-labs/tortoisefind/apps/finderd/cmd"

func main() {
	cmd.Execute()
}
