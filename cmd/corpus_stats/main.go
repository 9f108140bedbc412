package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/23skdu/longbow-fletch/internal/corpus"
)

func main() {
	corpusFile := flag.String("corpus", "", "Path to a raw corpus file")
	corpusURL := flag.String("url", "", "URL to fetch the corpus from when no file is given")
	cachePath := flag.String("cache", "", "SQLite cache to save the parsed lines to")
	show := flag.Int("show", 10, "Number of parsed lines to print")
	flag.Parse()

	var raw string
	var err error
	var source string
	switch {
	case *corpusFile != "":
		source = *corpusFile
		raw, err = corpus.ReadFile(*corpusFile)
	case *corpusURL != "":
		source = *corpusURL
		raw, err = corpus.Fetch(context.Background(), *corpusURL)
	default:
		log.Fatal("Please provide -corpus or -url")
	}
	if err != nil {
		log.Fatalf("Failed to load corpus: %v", err)
	}

	lines := corpus.Parse(raw)
	s := corpus.Stats(lines)

	fmt.Printf("Lines: %d\n", s.Lines)
	fmt.Printf("Chars: %d\n", s.Chars)
	fmt.Printf("Distinct chars: %d\n", s.DistinctChars)
	fmt.Printf("Length mean=%.1f stddev=%.1f p50=%.0f p90=%.0f max=%d\n",
		s.MeanLen, s.StddevLen, s.P50Len, s.P90Len, s.MaxLen)

	fmt.Printf("\n--- First %d lines ---\n", *show)
	for i := 0; i < *show && i < len(lines); i++ {
		fmt.Printf("[%d]: %q\n", i, lines[i])
	}

	if *cachePath != "" {
		store, err := corpus.OpenStore(*cachePath)
		if err != nil {
			log.Fatalf("Failed to open cache: %v", err)
		}
		defer store.Close()
		if err := store.SaveLines(source, lines); err != nil {
			log.Fatalf("Failed to cache lines: %v", err)
		}
		fmt.Printf("\nCached %d lines to %s\n", len(lines), *cachePath)
	}
}
