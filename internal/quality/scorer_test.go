package quality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadlingo/cadlingo/internal/model"
	"github.com/cadlingo/cadlingo/internal/terminology"
)

func TestScorer(t *testing.T) {
	t.Run("skip classifications always score full", func(t *testing.T) {
		s := NewScorer(nil, 70, 2.0)

		conf, review, warnings := s.Score("2400", "2400", model.ClassPureNumber)
		assert.InDelta(t, 1.0, conf, 1e-9)
		assert.False(t, review)
		assert.Empty(t, warnings)
	})

	t.Run("unchanged content scores full", func(t *testing.T) {
		s := NewScorer(nil, 70, 2.0)

		conf, review, _ := s.Score("same", "same", model.ClassPlainText)
		assert.InDelta(t, 1.0, conf, 1e-9)
		assert.False(t, review)
	})

	t.Run("clean translation passes", func(t *testing.T) {
		// CJK originals expand when translated; the ratio limit accounts
		// for that in configuration, not in the scorer.
		s := NewScorer(nil, 70, 4.0)

		conf, review, warnings := s.Score("详见结构说明", "see structural notes", model.ClassPlainText)
		assert.InDelta(t, 1.0, conf, 1e-9)
		assert.False(t, review)
		assert.Empty(t, warnings)
	})

	t.Run("excessive length is penalized", func(t *testing.T) {
		s := NewScorer(nil, 80, 2.0)

		long := strings.Repeat("very long translation ", 10)
		conf, review, warnings := s.Score("梁", long, model.ClassPlainText)

		assert.Less(t, conf, 1.0)
		assert.True(t, review)
		require.NotEmpty(t, warnings)
		assert.Contains(t, warnings[0], "length")
	})

	t.Run("missing domain symbol is penalized", func(t *testing.T) {
		s := NewScorer(nil, 90, 4.0)

		conf, review, warnings := s.Score("孔径∅50", "hole dia 50", model.ClassMixedContent)

		assert.InDelta(t, 0.85, conf, 1e-9)
		assert.True(t, review)
		require.NotEmpty(t, warnings)
		assert.Contains(t, warnings[0], "∅")
	})

	t.Run("preserved symbol is not penalized", func(t *testing.T) {
		s := NewScorer(nil, 70, 4.0)

		conf, review, _ := s.Score("孔径∅50", "hole diameter ∅50", model.ClassMixedContent)
		assert.InDelta(t, 1.0, conf, 1e-9)
		assert.False(t, review)
	})

	t.Run("terminology usage offsets a penalty", func(t *testing.T) {
		terms := terminology.NewStore()
		terms.Add(model.TerminologyEntry{SourceTerm: "混凝土", TargetTerm: "concrete"})
		s := NewScorer(terms, 90, 10)

		// One missing symbol (-15) offset by the term bonus (+10).
		conf, review, _ := s.Score("±混凝土", "concrete tolerance", model.ClassMixedContent)
		assert.InDelta(t, 0.95, conf, 1e-9)
		assert.True(t, review)

		// The same translation without the bonus scores lower.
		plain := NewScorer(nil, 90, 10)
		confPlain, _, _ := plain.Score("±混凝土", "tolerance value", model.ClassMixedContent)
		assert.Less(t, confPlain, conf)
	})

	t.Run("review flag appends a threshold warning", func(t *testing.T) {
		s := NewScorer(nil, 95, 2.0)

		_, review, warnings := s.Score("∅50孔", "hole 50", model.ClassMixedContent)
		require.True(t, review)
		require.NotEmpty(t, warnings)
		assert.Contains(t, warnings[len(warnings)-1], "review threshold")
	})

	t.Run("defaults apply for zero config", func(t *testing.T) {
		s := NewScorer(nil, 0, 0)
		assert.InDelta(t, 70.0, s.reviewThreshold, 1e-9)
		assert.InDelta(t, 2.0, s.maxLengthRatio, 1e-9)
	})
}
