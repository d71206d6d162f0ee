package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cloudcell/cvocgen"
	"github.com/cloudcell/cvocgen/artifacts"
	"github.com/dustin/go-humanize"
	"github.com/yargevad/filepathx"
)

// displaySampleSz caps how many vocabulary entries the load modes print.
const displaySampleSz = 20

// gatherCorpus reads the corpus lines behind an input path: a single
// file (optionally gzipped), or a directory scanned recursively for
// `.txt` files.
func gatherCorpus(inputPath string) ([]string, error) {
	stat, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}
	if !stat.IsDir() {
		return cvocgen.ReadCorpus(inputPath)
	}
	textPaths, err := filepathx.Glob(inputPath + "/**/*.txt")
	if err != nil {
		return nil, err
	}
	if len(textPaths) == 0 {
		return nil, errors.New(fmt.Sprintf(
			"%s does not contain any .txt files", inputPath))
	}
	lines := make([]string, 0, 4096)
	for _, textPath := range textPaths {
		fileLines, readErr := cvocgen.ReadCorpus(textPath)
		if readErr != nil {
			return nil, readErr
		}
		lines = append(lines, fileLines...)
	}
	return lines, nil
}

// displayVocabulary prints the merge rules and a sample of the
// vocabulary entries, mirroring the load-and-display modes.
func displayVocabulary(vocab *cvocgen.FrequencyTable,
	rules []cvocgen.MergeRule) {
	fmt.Printf("Loaded %d merge operations:\n", len(rules))
	for i, rule := range rules {
		fmt.Printf("  %d. %s\n", i+1, rule.PairKey())
	}
	fmt.Printf("\nLoaded vocabulary (showing first %d entries):\n",
		displaySampleSz)
	shown := 0
	vocab.Each(func(token string, count int) bool {
		fmt.Printf("  - %s: %d\n", token, count)
		shown++
		return shown < displaySampleSz
	})
	fmt.Printf("Total vocabulary size: %d tokens\n", vocab.Len())
}

func main() {
	inputPath := flag.String("input", "",
		"corpus file (.txt or .gz), or directory of .txt files")
	numMerges := flag.Int("merges", 0,
		"number of merge rounds to perform")
	notationStr := flag.String("type", "selfies",
		"input format type [smiles, selfies]")
	outputDir := flag.String("output", ".",
		"output directory for vocabulary files, created if absent")
	workers := flag.Int("workers", 4,
		"worker goroutines for the pair-statistics scan")
	loadPath := flag.String("load", "",
		"load and display a plain vocabulary file")
	loadJsonPath := flag.String("loadjson", "",
		"load and display a JSON vocabulary file")
	flag.Parse()

	if *loadPath != "" {
		vocab, rules, err := artifacts.LoadVocabulary(*loadPath)
		if err != nil {
			log.Fatalf("Failed to load vocabulary from %s: %v",
				*loadPath, err)
		}
		displayVocabulary(vocab, rules)
		return
	}
	if *loadJsonPath != "" {
		vocab, rules, _, err := artifacts.LoadVocabularyJSON(*loadJsonPath)
		if err != nil {
			log.Fatalf("Failed to load JSON vocabulary from %s: %v",
				*loadJsonPath, err)
		}
		displayVocabulary(vocab, rules)
		return
	}

	if *inputPath == "" {
		flag.Usage()
		log.Fatal("Must provide -input for corpus source")
	}
	notation, err := cvocgen.ParseNotation(*notationStr)
	if err != nil {
		log.Fatal(err)
	}
	if mkdirErr := os.MkdirAll(*outputDir, 0755); mkdirErr != nil {
		log.Fatalf("Could not create output directory %q: %v",
			*outputDir, mkdirErr)
	}

	log.Printf("Training on %s with %d merges (format: %s)",
		*inputPath, *numMerges, notation)
	lines, err := gatherCorpus(*inputPath)
	if err != nil {
		log.Fatalf("Error reading corpus: %v", err)
	}
	log.Printf("Read %s corpus lines", humanize.Comma(int64(len(lines))))

	trainer, err := cvocgen.NewTrainer(cvocgen.TrainerConfig{
		Notation: notation,
		Merges:   *numMerges,
		Workers:  *workers,
		Verbose:  true,
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := trainer.Train(context.Background(), lines); err != nil {
		log.Fatalf("Training failed: %v", err)
	}
	rules := trainer.MergeRules()
	if len(rules) < *numMerges {
		log.Printf("Ran out of mergeable pairs after %d of %d rounds",
			len(rules), *numMerges)
	}

	base := filepath.Join(*outputDir, fmt.Sprintf("vocab_%d", *numMerges))
	if err := artifacts.SaveVocabulary(trainer.Vocabulary(), rules,
		base+".txt"); err != nil {
		log.Fatalf("Error saving vocabulary: %v", err)
	}
	if _, err := artifacts.SaveVocabularyJSON(trainer.Vocabulary(),
		base); err != nil {
		log.Fatalf("Error saving JSON vocabulary: %v", err)
	}
	log.Printf("Vocabulary of %s tokens saved to %s.txt, %s.json and "+
		"%s_freq.json",
		humanize.Comma(int64(trainer.Vocabulary().Len())),
		base, base, base)
}
