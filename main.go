// Package main is the entry point for the trapcov CLI.
package main

import "trapcov.dev/pkg/trapcov/cmd"

func main() {
	cmd.Execute()
}
