package cvocgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func mustTrainer(t *testing.T, cfg TrainerConfig) *Trainer {
	t.Helper()
	trainer, err := NewTrainer(cfg)
	assert.NoError(t, err)
	return trainer
}

func TestTrainer_EndToEnd(t *testing.T) {
	trainer := mustTrainer(t, TrainerConfig{
		Notation: NotationSELFIES,
		Merges:   1,
	})
	err := trainer.Train(context.Background(),
		[]string{"[C][C][N][O][C][C]"})
	assert.NoError(t, err)

	rules := trainer.MergeRules()
	assert.Len(t, rules, 1)
	assert.Equal(t, MergeRule{
		Left: "[C]", Right: "[C]", Merged: "[C][C]"}, rules[0])

	assert.Len(t, trainer.sequences, 1)
	assert.Equal(t,
		TokenSequence{"[C][C]", "[N]", "[O]", "[C][C]"},
		trainer.sequences[0])

	vocab := trainer.Vocabulary()
	for token, count := range map[string]int{
		"[C]":    4,
		"[N]":    1,
		"[O]":    1,
		"[C][C]": 2,
	} {
		found, ok := vocab.Find(token)
		assert.True(t, ok, "missing %q", token)
		assert.Equal(t, count, found, "token %q", token)
	}
}

func TestTrainer_ZeroMerges(t *testing.T) {
	trainer := mustTrainer(t, TrainerConfig{
		Notation: NotationSELFIES,
		Merges:   0,
	})
	err := trainer.Train(context.Background(),
		[]string{"[C][C]", "[N][O]"})
	assert.NoError(t, err)
	assert.Empty(t, trainer.MergeRules())

	vocab := trainer.Vocabulary()
	assert.Equal(t, 3, vocab.Len())
	count, _ := vocab.Find("[C]")
	assert.Equal(t, 2, count)
}

func TestTrainer_NegativeMerges(t *testing.T) {
	_, err := NewTrainer(TrainerConfig{Merges: -1})
	assert.Error(t, err)
}

func TestTrainer_EarlyTermination(t *testing.T) {
	// Every line tokenizes to fewer than two tokens, so training stops
	// after round zero no matter how many rounds were requested. This
	// is success, distinguishable only by the merge list length.
	trainer := mustTrainer(t, TrainerConfig{
		Notation: NotationSELFIES,
		Merges:   50,
	})
	err := trainer.Train(context.Background(),
		[]string{"[C]", "[N]", "", "[C]"})
	assert.NoError(t, err)
	assert.Empty(t, trainer.MergeRules())
	assert.Less(t, len(trainer.MergeRules()), 50)
}

func TestTrainer_TerminatesWhenFullyMerged(t *testing.T) {
	trainer := mustTrainer(t, TrainerConfig{
		Notation: NotationSELFIES,
		Merges:   10,
	})
	err := trainer.Train(context.Background(), []string{"[C][N]"})
	assert.NoError(t, err)
	// Round 1 collapses the only pair; round 2 finds nothing.
	assert.Len(t, trainer.MergeRules(), 1)
	assert.Equal(t, TokenSequence{"[C][N]"}, trainer.sequences[0])
}

func TestTrainer_MergedTokenCountIsPairFrequency(t *testing.T) {
	// The stored count for a merge-produced token is the pair frequency
	// measured in its round, not a cumulative increment.
	trainer := mustTrainer(t, TrainerConfig{
		Notation: NotationSELFIES,
		Merges:   1,
	})
	err := trainer.Train(context.Background(),
		[]string{"[A][B][A][B]", "[A][B]"})
	assert.NoError(t, err)

	count, ok := trainer.Vocabulary().Find("[A][B]")
	assert.True(t, ok)
	assert.Equal(t, 3, count)
}

func TestTrainer_BlankAndUnmatchableLinesSkipped(t *testing.T) {
	trainer := mustTrainer(t, TrainerConfig{
		Notation: NotationSELFIES,
		Merges:   0,
	})
	err := trainer.Train(context.Background(),
		[]string{"", "xyz", "[C][N]"})
	assert.NoError(t, err)
	assert.Len(t, trainer.sequences, 1)
	assert.Equal(t, 2, trainer.Vocabulary().Len())
}

func TestTrainer_DeterministicAcrossWorkerCounts(t *testing.T) {
	corpus := []string{
		"[C][C][N][O][C][C]",
		"[C][N][C][N]",
		"[O][O][O][O][O]",
		"[C][C][C]",
		"[N][O][N][O]",
	}
	var baseline []MergeRule
	for _, workers := range []int{0, 2, 4} {
		trainer := mustTrainer(t, TrainerConfig{
			Notation: NotationSELFIES,
			Merges:   6,
			Workers:  workers,
		})
		assert.NoError(t, trainer.Train(context.Background(), corpus))
		if baseline == nil {
			baseline = trainer.MergeRules()
			continue
		}
		assert.Equal(t, baseline, trainer.MergeRules(),
			"workers=%d diverged", workers)
	}
}

func TestTrainer_CancelledBeforeFirstRound(t *testing.T) {
	trainer := mustTrainer(t, TrainerConfig{
		Notation: NotationSELFIES,
		Merges:   5,
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := trainer.Train(ctx, []string{"[C][C][N]"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, trainer.MergeRules())
}

func TestTrainer_SingleUse(t *testing.T) {
	trainer := mustTrainer(t, TrainerConfig{
		Notation: NotationSELFIES,
	})
	assert.NoError(t, trainer.Train(context.Background(),
		[]string{"[C]"}))
	assert.Error(t, trainer.Train(context.Background(),
		[]string{"[C]"}))
}
