// Command benchmark runs every synthetic workload against the replacement
// policies and compares hit rates.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv       Output results in CSV format (default: human-readable)
//	-json      Output results in JSON format
//	-policies  Comma-separated policies to compare (default: all)
//	-config    Path to cache configuration JSON file
//	-v         Print each run as it completes
//
// Example:
//
//	# Compare LRU against the perceptron predictor
//	go run ./cmd/benchmark -policies lru,perceptron
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sarchlab/replsim/benchmarks"
	"github.com/sarchlab/replsim/timing/cache"
	"github.com/sarchlab/replsim/timing/replacement"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results in JSON format")
	policies := flag.String("policies", "", "Comma-separated policies to compare (default: all)")
	configPath := flag.String("config", "", "Path to cache configuration JSON file")
	verbose := flag.Bool("v", false, "Print each run as it completes")
	flag.Parse()

	config := benchmarks.DefaultConfig()
	config.Output = os.Stdout
	config.Verbose = *verbose && !*csvOutput && !*jsonOutput

	if *configPath != "" {
		loaded, err := cache.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading cache config: %v\n", err)
			os.Exit(1)
		}
		config.Cache = *loaded
	}

	if *policies != "" {
		kinds, err := parsePolicies(*policies)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		config.Policies = kinds
	}

	harness := benchmarks.NewHarness(config)
	harness.AddWorkloads(benchmarks.GetWorkloads(config.Cache))

	if !*csvOutput && !*jsonOutput {
		fmt.Println("Replacement Policy Benchmark Harness")
		fmt.Println("====================================")
		fmt.Printf("Policies: %v\n", config.Policies)
		fmt.Println("")
	}

	results, err := harness.RunAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}
}

func parsePolicies(list string) ([]replacement.Kind, error) {
	var kinds []replacement.Kind
	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		kind, err := replacement.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no policies in %q", list)
	}
	return kinds, nil
}
