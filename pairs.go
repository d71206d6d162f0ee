package cvocgen

import (
	"strings"
	"sync"
)

// PairKey joins two adjacent tokens into the canonical pair-statistics
// key. The single-space separator is only unambiguous because the token
// grammars never emit a token containing a space byte; that invariant
// belongs to the tokenizer, not to this key scheme.
func PairKey(left, right string) string {
	return left + " " + right
}

// SplitPairKey splits a canonical pair key back into its two tokens.
func SplitPairKey(key string) (left, right string, ok bool) {
	idx := strings.IndexByte(key, ' ')
	if idx < 0 {
		return "", "", false
	}
	return key[:idx], key[idx+1:], true
}

// CollectPairStats accumulates the frequency of every adjacent ordered
// token pair across seqs into stats. Sequences with fewer than two
// tokens contribute nothing.
func CollectPairStats(seqs []TokenSequence, stats *FrequencyTable) error {
	for _, seq := range seqs {
		if len(seq) < 2 {
			continue
		}
		for i := 0; i+1 < len(seq); i++ {
			if err := stats.InsertOrIncrement(
				PairKey(seq[i], seq[i+1])); err != nil {
				return err
			}
		}
	}
	return nil
}

// CollectPairStatsParallel shards the corpus scan across workers, each
// filling a private FrequencyTable, and reduces the partial tables by
// key. Pair counts are associative and commutative, so the reduced
// table is identical to a serial scan regardless of shard boundaries.
func CollectPairStatsParallel(seqs []TokenSequence, workers int) (
	*FrequencyTable, error) {
	stats := NewFrequencyTable(DefaultTableSize, DefaultLoadThreshold)
	if workers <= 1 || len(seqs) < workers*2 {
		if err := CollectPairStats(seqs, stats); err != nil {
			return nil, err
		}
		return stats, nil
	}

	partials := make([]*FrequencyTable, workers)
	errs := make([]error, workers)
	shardSz := (len(seqs) + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		begin := w * shardSz
		if begin > len(seqs) {
			begin = len(seqs)
		}
		end := begin + shardSz
		if end > len(seqs) {
			end = len(seqs)
		}
		wg.Add(1)
		go func(w int, shard []TokenSequence) {
			defer wg.Done()
			partial := NewFrequencyTable(DefaultTableSize,
				DefaultLoadThreshold)
			errs[w] = CollectPairStats(shard, partial)
			partials[w] = partial
		}(w, seqs[begin:end])
	}
	wg.Wait()

	for w := 0; w < workers; w++ {
		if errs[w] != nil {
			return nil, errs[w]
		}
		var addErr error
		partials[w].Each(func(key string, count int) bool {
			addErr = stats.Add(key, count)
			return addErr == nil
		})
		if addErr != nil {
			return nil, addErr
		}
	}
	return stats, nil
}

// BestPair returns the pair key with the strictly maximal count. Ties
// are broken by the lexicographically smallest pair key rather than
// bucket order, so selection does not depend on hash layout or on the
// reduction order of a sharded scan.
func BestPair(stats *FrequencyTable) (pair string, count int, ok bool) {
	stats.Each(func(key string, c int) bool {
		if c > count || (c == count && ok && key < pair) {
			pair, count, ok = key, c, true
		}
		return true
	})
	return pair, count, ok
}

// MergePair rewrites seq in a single left-to-right pass, collapsing
// every non-overlapping occurrence of (left, right) into their
// concatenation. A freshly emitted merged token is never re-examined
// against the following token within the same pass.
func MergePair(seq TokenSequence, left, right string) TokenSequence {
	merged := left + right
	out := make(TokenSequence, 0, len(seq))
	for i := 0; i < len(seq); {
		if i+1 < len(seq) && seq[i] == left && seq[i+1] == right {
			out = append(out, merged)
			i += 2
		} else {
			out = append(out, seq[i])
			i++
		}
	}
	return out
}
