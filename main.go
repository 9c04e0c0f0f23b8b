// Package main is the entry point for the ethframe Ethernet header decoder.
package main

import (
	"os"

	"firestige.xyz/ethframe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
