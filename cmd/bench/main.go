// Command bench runs every .asm program in a directory through the
// engine and prints a one-line stats summary for each, so timing
// characteristics (IPC, cycles) can be compared across programs or
// configurations.
//
// Usage:
//
//	go run ./cmd/bench [-config path.json] <dir>
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sarchlab/tomasim/asm"
	"github.com/sarchlab/tomasim/config"
	"github.com/sarchlab/tomasim/core/engine"
)

var configPath = flag.String("config", "", "Path to a simulator configuration JSON file (default: reference configuration)")

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: bench [-config path.json] <dir>\n")
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	files, err := programFiles(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}

	fmt.Printf("%-30s %10s %14s %8s\n", "Program", "Cycles", "Instructions", "IPC")
	for _, path := range files {
		stats, err := runOne(cfg, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}
		fmt.Printf("%-30s %10d %14d %8.3f\n",
			filepath.Base(path), stats.Cycles, stats.Instructions, stats.IPC)
	}
}

func loadConfig() (*config.Config, error) {
	if *configPath != "" {
		return config.Load(*configPath)
	}
	return config.Reference(), nil
}

func programFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".asm") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func runOne(cfg *config.Config, path string) (engine.Stats, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return engine.Stats{}, err
	}
	program, err := asm.Parse(string(text))
	if err != nil {
		return engine.Stats{}, err
	}

	e := engine.New(cfg.MemorySize, cfg.ROBSize,
		cfg.IntStations, cfg.LoadStations, cfg.AddStations, cfg.MultStations,
		cfg.IssueWidth)
	for _, spec := range cfg.FunctionalUnits {
		e.InitExecUnit(spec.FunitType(), spec.Latency, spec.Instances)
	}
	e.LoadProgram(cfg.ProgramBase, program, cfg.InstructionMemorySize)
	e.Run(0)

	return e.Stats(), nil
}
