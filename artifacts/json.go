package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cloudcell/cvocgen"
)

// IndexMap is a token-to-index mapping that preserves insertion order,
// which the JSON wire contract requires: the five special tokens occupy
// indices 0-4 and every remaining vocabulary token follows at strictly
// increasing indices in enumeration order.
type IndexMap struct {
	tokens  []string
	indices map[string]int
}

func NewIndexMap() *IndexMap {
	return &IndexMap{indices: make(map[string]int)}
}

// Add appends token with the next free index and returns that index. If
// the token is already present its existing index is returned.
func (m *IndexMap) Add(token string) int {
	if idx, ok := m.indices[token]; ok {
		return idx
	}
	idx := len(m.tokens)
	m.tokens = append(m.tokens, token)
	m.indices[token] = idx
	return idx
}

// Put records token at an explicit index, used when reloading an index
// map whose numbering is already fixed.
func (m *IndexMap) Put(token string, index int) {
	if _, ok := m.indices[token]; !ok {
		m.tokens = append(m.tokens, token)
	}
	m.indices[token] = index
}

// Index returns the index for token, and whether token is present.
func (m *IndexMap) Index(token string) (int, bool) {
	idx, ok := m.indices[token]
	return idx, ok
}

// Len returns the number of tokens in the map.
func (m *IndexMap) Len() int {
	return len(m.tokens)
}

// Tokens returns the tokens in index order.
func (m *IndexMap) Tokens() []string {
	return m.tokens
}

// Mapping returns a plain map view for id lookups.
func (m *IndexMap) Mapping() map[string]int {
	return m.indices
}

// MarshalJSON writes the map as a JSON object whose keys appear in
// insertion order.
func (m *IndexMap) MarshalJSON() ([]byte, error) {
	values := make([]int, len(m.tokens))
	for i, token := range m.tokens {
		values[i] = m.indices[token]
	}
	return marshalOrderedObject(m.tokens, values)
}

// marshalOrderedObject renders a flat JSON object with the given keys
// in order. Keys are escaped through encoding/json.
func marshalOrderedObject(keys []string, values []int) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, key := range keys {
		escaped, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.WriteString("  ")
		buf.Write(escaped)
		fmt.Fprintf(&buf, ": %d", values[i])
		if i < len(keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// freqPath derives the frequency map path from the index map path.
func freqPath(jsonPath string) string {
	return strings.TrimSuffix(jsonPath, ".json") + "_freq.json"
}

// isSpecial reports whether token is one of the reserved entries.
func isSpecial(token string) bool {
	for _, special := range cvocgen.SpecialTokens {
		if token == special {
			return true
		}
	}
	return false
}

// SaveVocabularyJSON writes <base>.json, the ordered token index map,
// and <base>_freq.json, mapping every non-special token to its count.
// The returned IndexMap reflects what was written.
func SaveVocabularyJSON(vocab *cvocgen.FrequencyTable, base string) (
	*IndexMap, error) {
	index := NewIndexMap()
	for _, special := range cvocgen.SpecialTokens {
		index.Add(special)
	}
	tokens := make([]string, 0, vocab.Len())
	counts := make([]int, 0, vocab.Len())
	vocab.Each(func(token string, count int) bool {
		if isSpecial(token) {
			return true
		}
		index.Add(token)
		tokens = append(tokens, token)
		counts = append(counts, count)
		return true
	})

	indexJson, err := json.Marshal(index)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(base+".json", indexJson, 0644); err != nil {
		return nil, err
	}

	freqJson, err := marshalOrderedObject(tokens, counts)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(base+"_freq.json", freqJson, 0644); err != nil {
		return nil, err
	}
	return index, nil
}

// decodeFlatObject walks a flat JSON object in document order, calling
// fn for every key/value pair. Values are either numbers or strings.
func decodeFlatObject(data []byte,
	fn func(key string, num int, str string, isNum bool) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	open, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedArtifact, err)
	}
	if delim, ok := open.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: expected a JSON object",
			ErrMalformedArtifact)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedArtifact, err)
		}
		key := keyTok.(string)
		valTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: truncated value for %q",
				ErrMalformedArtifact, key)
		}
		switch val := valTok.(type) {
		case float64:
			if err := fn(key, int(val), "", true); err != nil {
				return err
			}
		case string:
			if err := fn(key, 0, val, false); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unexpected value for %q",
				ErrMalformedArtifact, key)
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: unterminated object",
			ErrMalformedArtifact)
	}
	return nil
}

// LoadVocabularyJSON reads an index map artifact and reconstructs the
// vocabulary, the ordered merge-rule list, and the index map. Numeric
// entries land in the vocabulary with their index as a placeholder
// count; legacy string entries containing a space are merge rules. When
// <base>_freq.json exists beside the index map, its counts override the
// placeholders for tokens it knows.
func LoadVocabularyJSON(path string) (*cvocgen.FrequencyTable,
	[]cvocgen.MergeRule, *IndexMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, err
	}

	vocab := cvocgen.NewFrequencyTable(0, 0)
	index := NewIndexMap()
	var rules []cvocgen.MergeRule
	err = decodeFlatObject(data,
		func(key string, num int, str string, isNum bool) error {
			if isNum {
				index.Put(key, num)
				return vocab.Set(key, num)
			}
			if left, right, ok := cvocgen.SplitPairKey(str); ok {
				rules = append(rules, cvocgen.MergeRule{
					Left: left, Right: right, Merged: left + right})
				return nil
			}
			return vocab.Set(key, 1)
		})
	if err != nil {
		return nil, nil, nil, err
	}

	freqData, freqErr := os.ReadFile(freqPath(path))
	if freqErr == nil {
		err = decodeFlatObject(freqData,
			func(key string, num int, _ string, isNum bool) error {
				if !isNum {
					return fmt.Errorf(
						"%w: non-numeric frequency for %q",
						ErrMalformedArtifact, key)
				}
				// Only override tokens the index map produced.
				if _, ok := vocab.Find(key); ok {
					return vocab.Set(key, num)
				}
				return nil
			})
		if err != nil {
			return nil, nil, nil, err
		}
	} else if !os.IsNotExist(freqErr) {
		return nil, nil, nil, freqErr
	}
	return vocab, rules, index, nil
}
