// Package config holds the simulator's construction-time parameters:
// memory size, ROB size, per-class reservation-station counts, issue
// width, and the functional-unit pool's (type, latency, instances)
// triples.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/tomasim/insts"
)

// FunitSpec is one init_exec_unit call's arguments.
type FunitSpec struct {
	Type      string `json:"type"`
	Latency   int    `json:"latency"`
	Instances int    `json:"instances"`
}

// Config is the simulator's full construction-time configuration.
type Config struct {
	// MemorySize is the data memory's size in bytes.
	MemorySize uint32 `json:"memory_size"`

	// ROBSize is the reorder buffer's entry count.
	ROBSize int `json:"rob_size"`

	// IntStations, LoadStations, AddStations, MultStations are the
	// per-class reservation-station counts.
	IntStations  int `json:"int_stations"`
	LoadStations int `json:"load_stations"`
	AddStations  int `json:"add_stations"`
	MultStations int `json:"mult_stations"`

	// IssueWidth is the maximum instructions issued per cycle.
	IssueWidth int `json:"issue_width"`

	// FunctionalUnits lists the functional-unit pool's init_exec_unit
	// calls, applied in order.
	FunctionalUnits []FunitSpec `json:"functional_units"`

	// ProgramBase is the byte address the loaded program starts at.
	ProgramBase uint32 `json:"program_base"`

	// InstructionMemorySize is the instruction memory's size, in
	// instructions (not bytes).
	InstructionMemorySize int `json:"instruction_memory_size"`
}

// Default returns a small, single-issue configuration suitable for
// quick experiments: two INTEGER, MEMORY and ADDER units and one
// MULTIPLIER and DIVIDER unit, modest station counts, and a 16-entry
// ROB.
func Default() *Config {
	return &Config{
		MemorySize:            64 * 1024,
		ROBSize:                16,
		IntStations:            4,
		LoadStations:           4,
		AddStations:            2,
		MultStations:           2,
		IssueWidth:             1,
		ProgramBase:            0,
		InstructionMemorySize:  1024,
		FunctionalUnits: []FunitSpec{
			{Type: "INTEGER", Latency: 1, Instances: 2},
			{Type: "MEMORY", Latency: 2, Instances: 2},
			{Type: "ADDER", Latency: 2, Instances: 2},
			{Type: "MULTIPLIER", Latency: 4, Instances: 1},
			{Type: "DIVIDER", Latency: 8, Instances: 1},
		},
	}
}

// Reference returns the classic Tomasulo-course configuration: a
// dual-issue engine with the station/unit counts commonly used to
// teach the algorithm (3 ADD stations, 2 MULT, 3 LOAD, 6 INT, a
// 6-entry ROB).
func Reference() *Config {
	return &Config{
		MemorySize:            64 * 1024,
		ROBSize:                6,
		IntStations:            6,
		LoadStations:           3,
		AddStations:            3,
		MultStations:           2,
		IssueWidth:             2,
		ProgramBase:            0,
		InstructionMemorySize:  512,
		FunctionalUnits: []FunitSpec{
			{Type: "INTEGER", Latency: 1, Instances: 2},
			{Type: "MEMORY", Latency: 2, Instances: 2},
			{Type: "ADDER", Latency: 2, Instances: 3},
			{Type: "MULTIPLIER", Latency: 10, Instances: 1},
			{Type: "DIVIDER", Latency: 40, Instances: 1},
		},
	}
}

// Load reads a Config from a JSON file, starting from Default() so
// unspecified fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the Config to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects an unusable configuration: no functional units
// configured, or a zero-size ROB or station class.
func (c *Config) Validate() error {
	if c.ROBSize <= 0 {
		return fmt.Errorf("config: rob_size must be > 0")
	}
	if c.IntStations <= 0 || c.LoadStations <= 0 || c.AddStations <= 0 || c.MultStations <= 0 {
		return fmt.Errorf("config: every station class must have at least one slot")
	}
	if c.IssueWidth <= 0 {
		return fmt.Errorf("config: issue_width must be > 0")
	}
	if len(c.FunctionalUnits) == 0 {
		return fmt.Errorf("config: no functional units configured")
	}
	for _, spec := range c.FunctionalUnits {
		if _, err := parseFunitType(spec.Type); err != nil {
			return err
		}
		if spec.Instances <= 0 {
			return fmt.Errorf("config: functional unit %s must have at least one instance", spec.Type)
		}
		if spec.Latency <= 0 {
			return fmt.Errorf("config: functional unit %s must have a positive latency", spec.Type)
		}
	}
	return nil
}

func parseFunitType(name string) (insts.FunitType, error) {
	switch name {
	case "INTEGER":
		return insts.FunitInteger, nil
	case "MEMORY":
		return insts.FunitMemory, nil
	case "ADDER":
		return insts.FunitAdder, nil
	case "MULTIPLIER":
		return insts.FunitMultiplier, nil
	case "DIVIDER":
		return insts.FunitDivider, nil
	default:
		return insts.FunitNone, fmt.Errorf("config: unknown functional unit type %q", name)
	}
}

// FunitType resolves this spec's string type to its insts.FunitType.
func (f FunitSpec) FunitType() insts.FunitType {
	t, err := parseFunitType(f.Type)
	if err != nil {
		panic(err)
	}
	return t
}
