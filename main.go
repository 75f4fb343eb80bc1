// Package main is the entry point for the vulnsift CLI.
package main

import "vulnsift.dev/pkg/vulnsift/cmd"

func main() {
	cmd.Execute()
}
