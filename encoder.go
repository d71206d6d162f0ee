package cvocgen

import (
	"sort"

	lru "github.com/hashicorp/golang-lru"
)

// Pair is an ordered pair of token strings.
type Pair struct {
	Left  string
	Right string
}

type rankedPair struct {
	rank int
	pair Pair
}

type rankedPairs []rankedPair

// insertAt inserts v into data at index i and returns the new slice.
func insertAt(data rankedPairs, i int, v rankedPair) rankedPairs {
	if i == len(data) {
		return append(data, v)
	}
	data = append(data[:i+1], data[i:]...)
	data[i] = v
	return data
}

// insertSortedNoDups inserts v into data, keeping the slice sorted by
// rank and free of duplicates.
func insertSortedNoDups(data rankedPairs, v rankedPair) rankedPairs {
	i := sort.Search(len(data), func(i int) bool {
		return data[i].rank >= v.rank
	})
	if i < len(data) && data[i] == v {
		return data
	}
	return insertAt(data, i, v)
}

// Encoder applies a trained merge table to fresh sequence lines. Merges
// are replayed lowest discovery rank first, so encoding a line the
// trainer saw reproduces the trainer's final tokenization of it.
type Encoder struct {
	tokenizer *SequenceTokenizer
	ranks     map[Pair]int
	cache     *lru.ARCCache

	LruHits   int
	LruMisses int
}

// NewEncoder
// Returns an Encoder that replays rules, in discovery order, over lines
// tokenized under the given notation.
func NewEncoder(rules []MergeRule, notation Notation) (*Encoder, error) {
	tokenizer, err := NewSequenceTokenizer(notation)
	if err != nil {
		return nil, err
	}
	ranks := make(map[Pair]int, len(rules))
	for rank, rule := range rules {
		ranks[Pair{rule.Left, rule.Right}] = rank
	}
	cache, _ := lru.NewARC(TOKENIZER_LRU_SZ)
	return &Encoder{
		tokenizer: tokenizer,
		ranks:     ranks,
		cache:     cache,
	}, nil
}

// getRankedPairs returns the adjacent pairs of seq that appear in the
// merge table, sorted by discovery rank.
func (enc *Encoder) getRankedPairs(seq TokenSequence) rankedPairs {
	ranked := make(rankedPairs, 0, len(seq))
	for i := 0; i+1 < len(seq); i++ {
		pair := Pair{seq[i], seq[i+1]}
		rank, ok := enc.ranks[pair]
		if !ok {
			continue
		}
		ranked = insertSortedNoDups(ranked, rankedPair{rank, pair})
	}
	return ranked
}

// Encode tokenizes one line and applies every applicable merge rule,
// lowest rank first, returning the final TokenSequence. Results are
// memoized per line.
func (enc *Encoder) Encode(line string) TokenSequence {
	if cached, ok := enc.cache.Get(line); ok {
		enc.LruHits++
		return cached.(TokenSequence)
	}
	enc.LruMisses++
	seq := enc.tokenizer.Tokenize(line)
	for len(seq) > 1 {
		ranked := enc.getRankedPairs(seq)
		if len(ranked) == 0 {
			break
		}
		best := ranked[0].pair
		seq = MergePair(seq, best.Left, best.Right)
	}
	enc.cache.Add(line, seq)
	return seq
}

// EncodeToIds encodes one line and maps each token through index,
// substituting the <unk> index for tokens the index map does not know.
func (enc *Encoder) EncodeToIds(line string, index map[string]int) []int {
	seq := enc.Encode(line)
	unk := index[TokenUnk]
	ids := make([]int, len(seq))
	for i, token := range seq {
		if id, ok := index[token]; ok {
			ids[i] = id
		} else {
			ids[i] = unk
		}
	}
	return ids
}
