// Command zcheck loads a story file and reports its header fields and
// any memory-layout warnings, without executing a single instruction.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zengine-project/zengine/memlayout"
	"github.com/zengine-project/zengine/vm"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: zcheck story-file")
		os.Exit(2)
	}

	machine, err := vm.LoadStoryFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "zcheck: %v\n", err)
		os.Exit(1)
	}

	h := machine.Header()
	fmt.Printf("version:           %d\n", h.Version)
	fmt.Printf("release:           %d\n", h.ReleaseNumber)
	fmt.Printf("high memory base:  0x%04x\n", h.HighMemoryBase)
	fmt.Printf("initial PC:        0x%04x\n", h.InitialPC)
	fmt.Printf("dictionary base:   0x%04x\n", h.DictionaryBase)
	fmt.Printf("object table base: 0x%04x\n", h.ObjectTableBase)
	fmt.Printf("global table base: 0x%04x\n", h.GlobalVariableBase)
	fmt.Printf("static memory base:0x%04x\n", h.StaticMemoryBase)
	fmt.Printf("file checksum:     0x%04x\n", h.FileChecksum)

	if !machine.ValidateMemoryManagement() {
		fmt.Fprintln(os.Stderr, "zcheck: memory management validation FAILED: a region base is out of range or out of order")
	}

	warnings := memlayout.ValidateStoryFile(machine.StoryData(), h.Version)
	if len(warnings) == 0 {
		fmt.Println("no warnings")
		return
	}
	for _, w := range warnings {
		fmt.Printf("warning: %s\n", w)
	}
	os.Exit(1)
}
