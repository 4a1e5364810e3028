// Package main provides a banner entry point for tomasim.
// tomasim is a cycle-accurate out-of-order simulator implementing
// Tomasulo's algorithm with a reorder buffer.
//
// For the full CLI, use: go run ./cmd/tomasim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("tomasim - Tomasulo out-of-order simulator")
	fmt.Println("")
	fmt.Println("Usage: tomasim [options] <program.asm>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config      Path to a simulator configuration JSON file")
	fmt.Println("  -reference   Use the reference dual-issue Tomasulo configuration")
	fmt.Println("  -cycles      Run at most this many cycles (0 = run to completion)")
	fmt.Println("  -v           Print pipeline status after every cycle")
	fmt.Println("  -dump-mem    Dump a data-memory range after completion")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/tomasim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/tomasim' instead.")
	}
}
