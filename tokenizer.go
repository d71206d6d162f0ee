package cvocgen

import (
	"fmt"
	"regexp"

	lru "github.com/hashicorp/golang-lru"
)

// Notation selects which token grammar the tokenizer applies.
type Notation uint8

const (
	// NotationSELFIES tokenizes bracketed groups and dots only.
	NotationSELFIES Notation = iota
	// NotationSMILES tokenizes at the atom level.
	NotationSMILES
)

func (n Notation) String() string {
	switch n {
	case NotationSELFIES:
		return "selfies"
	case NotationSMILES:
		return "smiles"
	default:
		return "unknown"
	}
}

// ParseNotation maps a user-supplied format name onto a Notation.
func ParseNotation(s string) (Notation, error) {
	switch s {
	case "selfies":
		return NotationSELFIES, nil
	case "smiles":
		return NotationSMILES, nil
	default:
		return 0, fmt.Errorf(
			"cvocgen: unknown input format %q, must be 'smiles' or 'selfies'",
			s)
	}
}

// Alternative order in these patterns is load-bearing: the regexp engine
// is leftmost-first, so at any scan position the earliest alternative
// that matches wins. Reordering alternatives changes the tokenization of
// ambiguous prefixes. Note that `Br?` and `Cl?` deliberately admit bare
// `B` and `C` (plain SMILES carbon and boron), and `%[0-9]{2}` must stay
// ahead of `[0-9]` so two-digit ring closures are not split.
const (
	smilesPattern = `\[[^\]]+\]|Br?|Cl?|N|O|S|P|F|I|b|c|n|o|s|p|\(|\)|` +
		`\.|=|#|-|\+|\\|/|:|~|@|\?|>|\*|\$|%[0-9]{2}|[0-9]`
	selfiesPattern = `\[[^\]]+\]|\.`
)

// TOKENIZER_LRU_SZ is the number of line tokenizations kept in the ARC
// cache. Chemical corpora repeat sequence lines heavily.
const TOKENIZER_LRU_SZ = 65536

// TokenSequence is the ordered tokenization of one corpus line.
type TokenSequence []string

// SequenceTokenizer splits raw sequence lines into TokenSequences under
// a fixed grammar. Scanning is leftmost-match, non-overlapping, left to
// right; bytes that no alternative can match are skipped silently, so an
// unmatchable suffix is dropped rather than reported. Known correctness
// gap: malformed input shrinks silently instead of failing.
//
// Neither built-in grammar can emit a token containing a space byte.
// Pair statistics keys depend on that invariant (see PairKey).
type SequenceTokenizer struct {
	notation Notation
	pattern  *regexp.Regexp
	cache    *lru.ARCCache

	LruHits   int
	LruMisses int
}

// NewSequenceTokenizer
// Returns a SequenceTokenizer for the given notation.
func NewSequenceTokenizer(notation Notation) (*SequenceTokenizer, error) {
	var pattern string
	switch notation {
	case NotationSELFIES:
		pattern = selfiesPattern
	case NotationSMILES:
		pattern = smilesPattern
	default:
		return nil, fmt.Errorf("cvocgen: invalid notation %d", notation)
	}
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf(
			"cvocgen: fatal error compiling token pattern: %v", err)
	}
	cache, _ := lru.NewARC(TOKENIZER_LRU_SZ)
	return &SequenceTokenizer{
		notation: notation,
		pattern:  compiled,
		cache:    cache,
	}, nil
}

func (t *SequenceTokenizer) Notation() Notation {
	return t.notation
}

// Tokenize splits one corpus line (no line terminator) into an ordered
// TokenSequence, possibly empty. Results are memoized per line; callers
// must not mutate the returned sequence in place.
func (t *SequenceTokenizer) Tokenize(line string) TokenSequence {
	if cached, ok := t.cache.Get(line); ok {
		t.LruHits++
		return cached.(TokenSequence)
	}
	t.LruMisses++
	seq := TokenSequence(t.pattern.FindAllString(line, -1))
	t.cache.Add(line, seq)
	return seq
}
