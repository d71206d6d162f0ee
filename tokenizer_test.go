package cvocgen

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var bracketOrDot = regexp.MustCompile(`^(\[[^\]]+\]|\.)$`)

func mustTokenizer(t *testing.T, notation Notation) *SequenceTokenizer {
	t.Helper()
	tokenizer, err := NewSequenceTokenizer(notation)
	assert.NoError(t, err)
	return tokenizer
}

func TestTokenizer_BracketGrammar(t *testing.T) {
	tokenizer := mustTokenizer(t, NotationSELFIES)
	seq := tokenizer.Tokenize("[C][C][N][O][C][C]")
	assert.Equal(t,
		TokenSequence{"[C]", "[C]", "[N]", "[O]", "[C]", "[C]"}, seq)
	for _, token := range seq {
		assert.Regexp(t, bracketOrDot, token)
	}
	// No stray bytes between tokens for well-formed input.
	assert.Equal(t, "[C][C][N][O][C][C]", strings.Join(seq, ""))
}

func TestTokenizer_BracketGrammarDots(t *testing.T) {
	tokenizer := mustTokenizer(t, NotationSELFIES)
	seq := tokenizer.Tokenize("[Na+].[Cl-]")
	assert.Equal(t, TokenSequence{"[Na+]", ".", "[Cl-]"}, seq)
}

func TestTokenizer_AtomGrammar(t *testing.T) {
	tokenizer := mustTokenizer(t, NotationSMILES)
	cases := []struct {
		line   string
		tokens TokenSequence
	}{
		{"CC(=O)O", TokenSequence{"C", "C", "(", "=", "O", ")", "O"}},
		// Two-letter halogens win over their single-letter prefixes.
		{"CBr", TokenSequence{"C", "Br"}},
		{"CCl", TokenSequence{"C", "Cl"}},
		// `Br?`/`Cl?` admit the bare single letters.
		{"B", TokenSequence{"B"}},
		{"BN", TokenSequence{"B", "N"}},
		// Ring closures: %NN binds before single digits.
		{"C%12C", TokenSequence{"C", "%12", "C"}},
		{"C12", TokenSequence{"C", "1", "2"}},
		// Bracketed atoms are atomic regardless of contents.
		{"[NH4+]", TokenSequence{"[NH4+]"}},
		{"c1ccccc1", TokenSequence{"c", "1", "c", "c", "c", "c",
			"c", "1"}},
		{"C/C=C\\C", TokenSequence{"C", "/", "C", "=", "C", "\\",
			"C"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.tokens, tokenizer.Tokenize(tc.line),
			"tokenizing %q", tc.line)
	}
}

// Bytes no alternative matches are skipped, and an unmatchable suffix
// is dropped outright rather than reported.
func TestTokenizer_SkipsUnmatchableBytes(t *testing.T) {
	tokenizer := mustTokenizer(t, NotationSELFIES)
	assert.Equal(t, TokenSequence{"[C]", "[N]"},
		tokenizer.Tokenize("[C]xyz[N]"))
	assert.Equal(t, TokenSequence{"[C]"},
		tokenizer.Tokenize("[C]xyz"))
	assert.Empty(t, tokenizer.Tokenize("xyz"))
}

func TestTokenizer_EmptyLine(t *testing.T) {
	tokenizer := mustTokenizer(t, NotationSELFIES)
	assert.Empty(t, tokenizer.Tokenize(""))
}

func TestTokenizer_NoSpaceTokens(t *testing.T) {
	// The pair-key scheme depends on this invariant.
	for _, notation := range []Notation{NotationSELFIES, NotationSMILES} {
		tokenizer := mustTokenizer(t, notation)
		for _, token := range tokenizer.Tokenize("[C] [N] C O") {
			assert.NotContains(t, token, " ")
		}
	}
}

func TestTokenizer_CachesRepeatLines(t *testing.T) {
	tokenizer := mustTokenizer(t, NotationSELFIES)
	first := tokenizer.Tokenize("[C][N]")
	second := tokenizer.Tokenize("[C][N]")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, tokenizer.LruHits)
	assert.Equal(t, 1, tokenizer.LruMisses)
}

func TestParseNotation(t *testing.T) {
	notation, err := ParseNotation("smiles")
	assert.NoError(t, err)
	assert.Equal(t, NotationSMILES, notation)

	notation, err = ParseNotation("selfies")
	assert.NoError(t, err)
	assert.Equal(t, NotationSELFIES, notation)

	_, err = ParseNotation("inchi")
	assert.Error(t, err)
}
