// Package main is the entry point for the stapper CLI.
package main

import "stapper.dev/pkg/stapper/cmd"

func main() {
	cmd.Execute()
}
