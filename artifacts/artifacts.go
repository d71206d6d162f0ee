// Package artifacts reads and writes trained vocabulary artifacts in
// the two wire formats: a plain text form carrying the ordered merge
// rules and the token counts, and a JSON pair of index map and
// frequency map.
package artifacts

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudcell/cvocgen"
)

// VocabularyMarker separates the merge-rule block from the vocabulary
// block in the plain artifact.
const VocabularyMarker = "---VOCABULARY---"

// ErrMalformedArtifact is wrapped by every structural load failure. No
// partial vocabulary is ever returned alongside it.
var ErrMalformedArtifact = errors.New(
	"artifacts: malformed vocabulary artifact")

// SaveVocabulary writes the plain artifact: line 1 is the merge-rule
// count, followed by one "left right" line per rule in discovery order,
// the marker line, then one "token<TAB>count" line per vocabulary entry
// in no particular order.
func SaveVocabulary(vocab *cvocgen.FrequencyTable,
	rules []cvocgen.MergeRule, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "%d\n", len(rules))
	for _, rule := range rules {
		fmt.Fprintf(w, "%s %s\n", rule.Left, rule.Right)
	}
	fmt.Fprintln(w, VocabularyMarker)
	var writeErr error
	vocab.Each(func(token string, count int) bool {
		_, writeErr = fmt.Fprintf(w, "%s\t%d\n", token, count)
		return writeErr == nil
	})
	if writeErr != nil {
		return writeErr
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return file.Close()
}

// LoadVocabulary reads the plain artifact back into a vocabulary table
// and an ordered merge-rule list.
func LoadVocabulary(path string) (*cvocgen.FrequencyTable,
	[]cvocgen.MergeRule, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	if !scanner.Scan() {
		return nil, nil, fmt.Errorf("%w: missing merge count header",
			ErrMalformedArtifact)
	}
	ruleCount, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || ruleCount < 0 {
		return nil, nil, fmt.Errorf("%w: bad merge count header %q",
			ErrMalformedArtifact, scanner.Text())
	}

	rules := make([]cvocgen.MergeRule, 0, ruleCount)
	for i := 0; i < ruleCount; i++ {
		if !scanner.Scan() {
			return nil, nil, fmt.Errorf(
				"%w: expected %d merge rules, got %d",
				ErrMalformedArtifact, ruleCount, i)
		}
		left, right, ok := cvocgen.SplitPairKey(scanner.Text())
		if !ok {
			return nil, nil, fmt.Errorf(
				"%w: merge rule %q lacks a separator",
				ErrMalformedArtifact, scanner.Text())
		}
		rules = append(rules, cvocgen.MergeRule{
			Left: left, Right: right, Merged: left + right})
	}

	foundMarker := false
	for scanner.Scan() {
		if scanner.Text() == VocabularyMarker {
			foundMarker = true
			break
		}
	}
	if !foundMarker {
		return nil, nil, fmt.Errorf("%w: missing %q marker line",
			ErrMalformedArtifact, VocabularyMarker)
	}

	vocab := cvocgen.NewFrequencyTable(0, 0)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		fields := strings.SplitN(line, "\t", 2)
		if len(fields) != 2 {
			return nil, nil, fmt.Errorf(
				"%w: vocabulary line %q lacks a tab separator",
				ErrMalformedArtifact, line)
		}
		count, atoiErr := strconv.Atoi(strings.TrimSpace(fields[1]))
		if atoiErr != nil {
			return nil, nil, fmt.Errorf(
				"%w: vocabulary count %q is not a number",
				ErrMalformedArtifact, fields[1])
		}
		if err := vocab.Set(fields[0], count); err != nil {
			return nil, nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return vocab, rules, nil
}
