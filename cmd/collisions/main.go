package main

import (
	"fmt"
	"os"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "query":
		if err := runQuery(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "predict":
		if err := runPredict(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "config":
		if err := runConfig(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "--version", "-v":
		fmt.Printf("collisions %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`collisions %s — road collision analytics service

Usage:
  collisions <command> [arguments]

Commands:
  serve               Run the dashboard HTTP service
  query <view>        Run one view (trend, heatmap, distribution) and print JSON
  predict <model>     Run a model prediction from a JSON form on stdin
  config              Print the resolved configuration and value sources
  version             Print version

Serve Flags:
  --config <path>     Config file (default ~/.collisions/config.yaml)
  --listen <addr>     Listen address (overrides config and env)
  --data <dir>        Data root directory

Query Flags:
  --variable <name>   Distribution variable (distribution view)
  --mode hour|month   Heatmap second axis (heatmap view)
  --severity <name>   Repeatable severity filter

Flags:
  -h, --help          Show this help message
  -v, --version       Print version
`, version)
}
