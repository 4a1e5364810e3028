// Package main provides the entry point for tomasim.
// tomasim is a cycle-accurate out-of-order simulator implementing
// Tomasulo's algorithm with a reorder buffer for precise exceptions
// and speculative execution.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/tomasim/asm"
	"github.com/sarchlab/tomasim/config"
	"github.com/sarchlab/tomasim/core/engine"
	"github.com/sarchlab/tomasim/report"
)

var (
	configPath = flag.String("config", "", "Path to a simulator configuration JSON file")
	reference  = flag.Bool("reference", false, "Use the reference dual-issue Tomasulo configuration")
	cycles     = flag.Int("cycles", 0, "Run at most this many cycles (0 = run to completion)")
	verbose    = flag.Bool("v", false, "Print pipeline status after every cycle")
	dumpMem    = flag.String("dump-mem", "", "Dump a data-memory range after completion, as start:end hex addresses")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: tomasim [options] <program.asm>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	text, err := os.ReadFile(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading program: %v\n", err)
		os.Exit(1)
	}

	program, err := asm.Parse(string(text))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error assembling program: %v\n", err)
		os.Exit(1)
	}

	e := buildEngine(cfg)
	e.LoadProgram(cfg.ProgramBase, program, cfg.InstructionMemorySize)

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Instructions: %d\n", len(program))
	}

	run(e)

	if *dumpMem != "" {
		start, end, err := parseRange(*dumpMem)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -dump-mem: %v\n", err)
			os.Exit(1)
		}
		report.Memory(os.Stdout, e, start, end)
	}

	report.Registers(os.Stdout, e)
	report.Log(os.Stdout, e)
	report.Stats(os.Stdout, e)
}

func loadConfig() (*config.Config, error) {
	switch {
	case *configPath != "":
		return config.Load(*configPath)
	case *reference:
		return config.Reference(), nil
	default:
		return config.Default(), nil
	}
}

func buildEngine(cfg *config.Config) *engine.Engine {
	e := engine.New(cfg.MemorySize, cfg.ROBSize,
		cfg.IntStations, cfg.LoadStations, cfg.AddStations, cfg.MultStations,
		cfg.IssueWidth)
	for _, spec := range cfg.FunctionalUnits {
		e.InitExecUnit(spec.FunitType(), spec.Latency, spec.Instances)
	}
	return e
}

// run drives the engine cycle by cycle (so -v can print status each
// cycle) or straight to completion, honoring -cycles as a cap either
// way.
func run(e *engine.Engine) {
	if !*verbose {
		e.Run(*cycles)
		return
	}
	for i := 0; (*cycles == 0 || i < *cycles) && !e.Done(); i++ {
		e.Run(1)
		fmt.Printf("=== cycle %d ===\n", e.Cycle())
		report.Status(os.Stdout, e)
	}
}

func parseRange(spec string) (start, end uint32, err error) {
	var colon int
	for colon = 0; colon < len(spec); colon++ {
		if spec[colon] == ':' {
			break
		}
	}
	if colon == len(spec) {
		return 0, 0, fmt.Errorf("expected start:end, got %q", spec)
	}
	if _, err := fmt.Sscanf(spec[:colon], "%x", &start); err != nil {
		return 0, 0, fmt.Errorf("bad start address %q: %w", spec[:colon], err)
	}
	if _, err := fmt.Sscanf(spec[colon+1:], "%x", &end); err != nil {
		return 0, 0, fmt.Errorf("bad end address %q: %w", spec[colon+1:], err)
	}
	return start, end, nil
}
