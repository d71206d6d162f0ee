package cvocgen

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// syntheticCorpus builds a repetitive bracket-notation corpus with a
// controllable amount of token variety.
func syntheticCorpus(lines int) []string {
	corpus := make([]string, 0, lines)
	atoms := []string{"[C]", "[N]", "[O]", "[S]", "[P]"}
	for i := 0; i < lines; i++ {
		line := ""
		for j := 0; j < 16; j++ {
			line += atoms[(i+j*j)%len(atoms)]
		}
		corpus = append(corpus, line)
	}
	return corpus
}

func BenchmarkTrainer_Train(b *testing.B) {
	corpus := syntheticCorpus(2000)
	const merges = 32
	b.ResetTimer()
	start := time.Now()
	rounds := 0
	for i := 0; i < b.N; i++ {
		trainer, err := NewTrainer(TrainerConfig{
			Notation: NotationSELFIES,
			Merges:   merges,
			Workers:  4,
		})
		if err != nil {
			b.Fatal(err)
		}
		if err := trainer.Train(context.Background(),
			corpus); err != nil {
			b.Fatal(err)
		}
		rounds += len(trainer.MergeRules())
	}
	elapsed := time.Since(start)
	b.ReportMetric(float64(rounds)/elapsed.Seconds(), "merges/sec")
}

func BenchmarkCollectPairStats(b *testing.B) {
	tokenizer, err := NewSequenceTokenizer(NotationSELFIES)
	if err != nil {
		b.Fatal(err)
	}
	corpus := syntheticCorpus(5000)
	seqs := make([]TokenSequence, len(corpus))
	for i, line := range corpus {
		seqs[i] = tokenizer.Tokenize(line)
	}
	for _, workers := range []int{1, 4, 8} {
		b.Run(fmt.Sprintf("workers_%d", workers),
			func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					if _, err := CollectPairStatsParallel(seqs,
						workers); err != nil {
						b.Fatal(err)
					}
				}
			})
	}
}

func BenchmarkTokenizer_Tokenize(b *testing.B) {
	tokenizer, err := NewSequenceTokenizer(NotationSMILES)
	if err != nil {
		b.Fatal(err)
	}
	line := "CC(=O)Oc1ccccc1C(=O)O"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tokenizer.Tokenize(line)
	}
}
