package cvocgen

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"
)

// The five reserved vocabulary entries. Artifact index maps assign them
// indices 0-4 ahead of every corpus-derived token.
const (
	TokenBOS  = "<s>"
	TokenPad  = "<pad>"
	TokenEOS  = "</s>"
	TokenUnk  = "<unk>"
	TokenMask = "<mask>"
)

// SpecialTokens lists the reserved entries in index order.
var SpecialTokens = []string{TokenBOS, TokenPad, TokenEOS, TokenUnk,
	TokenMask}

// progressInterval throttles training progress reports.
const progressInterval = 10 * time.Second

// MergeRule records one pair-of-tokens to merged-token transformation,
// in discovery order.
type MergeRule struct {
	Left   string
	Right  string
	Merged string
}

// PairKey returns the rule's canonical pair key.
func (r MergeRule) PairKey() string {
	return PairKey(r.Left, r.Right)
}

// TrainerConfig is the immutable configuration for one training run.
type TrainerConfig struct {
	// Notation selects the token grammar.
	Notation Notation
	// Merges is the requested number of merge rounds. Zero is valid
	// and yields the unmerged initial vocabulary.
	Merges int
	// Workers shards the pair-statistics scan. Values below 2 keep
	// the scan serial.
	Workers int
	// Verbose enables throttled progress logging.
	Verbose bool
}

// Trainer drives the merge rounds over an in-memory corpus and owns the
// resulting vocabulary and ordered merge-rule list.
type Trainer struct {
	cfg       TrainerConfig
	tokenizer *SequenceTokenizer
	sequences []TokenSequence
	vocab     *FrequencyTable
	rules     []MergeRule
	trained   bool
	lastLog   time.Time
}

// NewTrainer
// Returns a Trainer for the given configuration.
func NewTrainer(cfg TrainerConfig) (*Trainer, error) {
	if cfg.Merges < 0 {
		return nil, fmt.Errorf(
			"cvocgen: number of merges must be non-negative, got %d",
			cfg.Merges)
	}
	tokenizer, err := NewSequenceTokenizer(cfg.Notation)
	if err != nil {
		return nil, err
	}
	return &Trainer{
		cfg:       cfg,
		tokenizer: tokenizer,
		vocab:     NewFrequencyTable(DefaultTableSize, DefaultLoadThreshold),
	}, nil
}

// Train tokenizes every corpus line, seeds the vocabulary with the
// initial token frequencies, and runs up to cfg.Merges rounds of
// collect, select, record, apply. Running out of mergeable pairs before
// the requested round count is a normal successful termination; callers
// detect it only by comparing len(MergeRules()) against cfg.Merges.
//
// ctx is consulted at the start of each round, which is the only point
// where no round is partially applied.
func (tr *Trainer) Train(ctx context.Context, lines []string) error {
	if tr.trained {
		return fmt.Errorf("cvocgen: trainer already consumed")
	}
	tr.trained = true

	tr.sequences = make([]TokenSequence, 0, len(lines))
	for _, line := range lines {
		seq := tr.tokenizer.Tokenize(line)
		if len(seq) == 0 {
			continue
		}
		tr.sequences = append(tr.sequences, seq)
		for _, token := range seq {
			if err := tr.vocab.InsertOrIncrement(token); err != nil {
				return err
			}
		}
	}
	if tr.cfg.Verbose {
		log.Printf("Tokenized %s sequences, initial vocabulary of %s tokens",
			humanize.Comma(int64(len(tr.sequences))),
			humanize.Comma(int64(tr.vocab.Len())))
	}

	for round := 1; round <= tr.cfg.Merges; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats, err := CollectPairStatsParallel(tr.sequences, tr.cfg.Workers)
		if err != nil {
			return err
		}
		pairKey, freq, ok := BestPair(stats)
		if !ok {
			// No sequence has two tokens left to pair. Success.
			break
		}
		left, right, ok := SplitPairKey(pairKey)
		if !ok {
			return fmt.Errorf("cvocgen: invalid pair key %q", pairKey)
		}
		rule := MergeRule{Left: left, Right: right, Merged: left + right}
		tr.rules = append(tr.rules, rule)

		// The merged token's stored frequency is this round's pair
		// frequency, overwriting any earlier value for the same
		// token string. Last writer wins.
		if err := tr.vocab.Set(rule.Merged, freq); err != nil {
			return err
		}

		for i := range tr.sequences {
			tr.sequences[i] = MergePair(tr.sequences[i], left, right)
		}
		tr.report(round, rule, freq)
	}
	return nil
}

// report emits a throttled progress line. The final round always logs
// so a quiet run still ends with a summary.
func (tr *Trainer) report(round int, rule MergeRule, freq int) {
	if !tr.cfg.Verbose {
		return
	}
	if time.Since(tr.lastLog) < progressInterval &&
		round != tr.cfg.Merges {
		return
	}
	tr.lastLog = time.Now()
	log.Printf("Merge %d/%d: best pair %q (frequency %s)",
		round, tr.cfg.Merges, rule.PairKey(),
		humanize.Comma(int64(freq)))
}

// Vocabulary returns the trained token frequency table.
func (tr *Trainer) Vocabulary() *FrequencyTable {
	return tr.vocab
}

// MergeRules returns the ordered merge rules discovered during training.
func (tr *Trainer) MergeRules() []MergeRule {
	return tr.rules
}

// Tokenizer returns the tokenizer used for this run.
func (tr *Trainer) Tokenizer() *SequenceTokenizer {
	return tr.tokenizer
}
