// Package main provides the entry point for replsim.
// replsim is a cache replacement policy simulator built on Akita, centered
// on a perceptron reuse predictor.
//
// For the full CLI, use: go run ./cmd/replsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("replsim - Cache Replacement Policy Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: replsim [options] <trace>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -policy    Replacement policy (lru, random, srrip, perceptron)")
	fmt.Println("  -config    Path to cache configuration JSON file")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/replsim' for the full CLI.")
	fmt.Println("Run 'go run ./cmd/benchmark' to compare policies on synthetic workloads.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/replsim' instead.")
	}
}
