// Command zasm assembles a ZAP source file into a story file, the
// assembler package's source-in/story-file-out pipeline exposed as a
// CLI.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zengine-project/zengine/assembler"
)

func main() {
	outputPath := flag.String("o", "", "output story file path (default: input with its .zap suffix swapped for .z#)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: zasm [-o output] input.zap")
		os.Exit(2)
	}
	inputPath := flag.Arg(0)

	src, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zasm: %v\n", err)
		os.Exit(1)
	}

	result, err := assembler.AssembleZAP(string(src), inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zasm: %v\n", err)
		os.Exit(1)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "zasm: warning: %s\n", w)
	}

	dest := *outputPath
	if dest == "" {
		dest = defaultOutputPath(inputPath, result.StoryData)
	}
	if err := os.WriteFile(dest, result.StoryData, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "zasm: writing %s: %v\n", dest, err)
		os.Exit(1)
	}
	fmt.Printf("zasm: wrote %s (%d bytes, v%d)\n", dest, len(result.StoryData), result.StoryData[0])
}

func defaultOutputPath(inputPath string, storyData []byte) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	version := uint8(3)
	if len(storyData) > 0 {
		version = storyData[0]
	}
	return fmt.Sprintf("%s.z%d", base, version)
}
