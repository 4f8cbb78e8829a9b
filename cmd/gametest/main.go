// Command gametest assembles small in-memory test programs through the
// real toolchain - encoder and memlayout - then loads the result back
// through vm to check the round trip: header fields, variable access,
// and memory-management invariants all agree with what was written.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zengine-project/zengine/encoder"
	"github.com/zengine-project/zengine/memlayout"
	"github.com/zengine-project/zengine/vm"
	"github.com/zengine-project/zengine/zversion"
)

// TestResult captures the outcome of one round-trip case.
type TestResult struct {
	Name     string   `json:"name"`
	Version  uint8    `json:"version"`
	Success  bool     `json:"success"`
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func main() {
	outputDir := flag.String("output", "testdata", "directory to write results to")
	flag.Parse()

	var results []TestResult
	for _, v := range []zversion.Version{zversion.V3, zversion.V4, zversion.V5} {
		results = append(results, runRoundTrip(v))
	}

	passed, failed := 0, 0
	for _, r := range results {
		status := "PASS"
		if !r.Success {
			status = "FAIL"
			failed++
		} else {
			passed++
		}
		fmt.Printf("[%s] %s (v%d)\n", status, r.Name, r.Version)
		for _, w := range r.Warnings {
			fmt.Printf("    warning: %s\n", w)
		}
		if r.Error != "" {
			fmt.Printf("    error: %s\n", r.Error)
		}
	}
	fmt.Printf("\n=== SUMMARY ===\nPassed: %d\nFailed: %d\nTotal: %d\n", passed, failed, len(results))

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Printf("failed to create output directory: %v\n", err)
		os.Exit(1)
	}
	resultsPath := filepath.Join(*outputDir, "test_results.json")
	resultsJSON, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile(resultsPath, resultsJSON, 0644); err != nil {
		fmt.Printf("failed to write results: %v\n", err)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// runRoundTrip builds a minimal story: one global, one object with a
// property, and a start routine that returns true, then loads it back
// through vm and checks everything agrees.
func runRoundTrip(version zversion.Version) (result TestResult) {
	result.Name = "minimal-story"
	result.Version = uint8(version)

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	layout := memlayout.New(version)
	scoreAddr := layout.AllocateGlobal("SCORE")

	layout.StartObject("PLAYER")
	layout.AddProperty("DESC", []byte("you"))
	layout.EndObject()

	layout.AddDictionaryWord("look")
	layout.AddDictionaryWord("north")

	rtrueBytes, err := encoder.Encode(encoder.Instruction{Mnemonic: "RTRUE", Version: version}, nil)
	if err != nil {
		result.Error = fmt.Sprintf("encoding RTRUE: %v", err)
		return
	}
	layout.AddRoutine("GO", rtrueBytes)
	layout.SetStart("GO")

	storyData, err := layout.GenerateStoryFile()
	if err != nil {
		result.Error = fmt.Sprintf("generating story file: %v", err)
		return
	}

	machine, err := vm.NewVM(storyData)
	if err != nil {
		result.Error = fmt.Sprintf("loading story file: %v", err)
		return
	}

	if machine.Header().Version != version {
		result.Error = fmt.Sprintf("expected version %d, got %d", version, machine.Header().Version)
		return
	}
	if !machine.ValidateMemoryManagement() {
		result.Error = "memory management validation failed on a freshly generated story file"
		return
	}
	if got := machine.GetVariable(uint8(16 + (scoreAddr-0x40)/2)); got != 0 {
		result.Error = fmt.Sprintf("expected SCORE to read back 0, got %d", got)
		return
	}

	result.Warnings = memlayout.ValidateStoryFile(storyData, version)
	result.Success = true
	return
}
