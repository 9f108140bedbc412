package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/23skdu/longbow-fletch/internal/corpus"
	"github.com/23skdu/longbow-fletch/internal/vocab"
)

func main() {
	corpusFile := flag.String("corpus", "", "Path to a raw corpus file")
	line := flag.String("line", "ls -la", "Line to encode")
	maxLen := flag.Int("max-len", 64, "Fixed encoded width")
	flag.Parse()

	if *corpusFile == "" {
		log.Fatal("Please provide -corpus")
	}

	raw, err := corpus.ReadFile(*corpusFile)
	if err != nil {
		log.Fatalf("Failed to read corpus: %v", err)
	}
	lines := corpus.Parse(raw)
	vt := vocab.Build(lines)

	fmt.Printf("Built vocabulary from %d lines. Size: %d (begin=%d end=%d)\n",
		len(lines), vt.Size(), vt.BeginID(), vt.EndID())

	fmt.Println("--- Characters in ID order ---")
	for id, r := range vt.Chars() {
		fmt.Printf("[%d]: %q\n", id, r)
	}

	fmt.Printf("\n--- Encoding Test ---\n")
	fmt.Printf("Input: %q\n", *line)
	ids, err := vt.Encode(*line, *maxLen, true)
	if err != nil {
		fmt.Printf("Strict encode failed: %v\n", err)
		var dropped int
		ids, dropped, err = vt.EncodeLossy(*line, *maxLen, true)
		if err != nil {
			log.Fatalf("Lossy encode failed: %v", err)
		}
		fmt.Printf("Lossy encode dropped %d characters\n", dropped)
	}
	fmt.Printf("IDs: %v\n", ids)
	fmt.Printf("Decoded: %q\n", vt.Decode(ids))
}
