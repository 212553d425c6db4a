// Package main is the entry point for the okto CLI.
package main

import "github.com/oktotech/okto-go/internal/cli"

func main() {
	cli.Execute()
}
