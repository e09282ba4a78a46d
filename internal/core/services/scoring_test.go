package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finacct/ledger_backend/internal/core/domain"
	"github.com/finacct/ledger_backend/internal/core/services"
)

func TestWeightedScoring_PerfectMatch(t *testing.T) {
	strategy := services.NewDefaultScoringStrategy()
	score := strategy.Score(domain.MatchProposal{
		AmountDeltaMinor:       0,
		DateDeltaDays:          0,
		TransactionDescription: "ACME invoice 42",
		JournalDescription:     "acme INVOICE 42",
	})
	assert.InDelta(t, 1.0, float64(score), 0.0001)
}

func TestWeightedScoring_MonotonicInAmountDelta(t *testing.T) {
	strategy := services.NewDefaultScoringStrategy()
	base := domain.MatchProposal{
		TransactionDescription: "rent march",
		JournalDescription:     "rent march",
	}

	previous := strategy.Score(base)
	for _, delta := range []int64{100, 1000, 2500, 5000, 50000} {
		proposal := base
		proposal.AmountDeltaMinor = delta
		score := strategy.Score(proposal)
		assert.LessOrEqual(t, score, previous, "score must not increase with larger amount delta %d", delta)
		previous = score
	}
}

func TestWeightedScoring_DeltaSignIsIgnored(t *testing.T) {
	strategy := services.NewDefaultScoringStrategy()
	positive := strategy.Score(domain.MatchProposal{AmountDeltaMinor: 1200, DateDeltaDays: 3})
	negative := strategy.Score(domain.MatchProposal{AmountDeltaMinor: -1200, DateDeltaDays: -3})
	assert.Equal(t, positive, negative)
}

func TestWeightedScoring_BeyondToleranceContributesZero(t *testing.T) {
	strategy := services.NewDefaultScoringStrategy()
	atTolerance := strategy.Score(domain.MatchProposal{AmountDeltaMinor: 5000, DateDeltaDays: 7})
	farBeyond := strategy.Score(domain.MatchProposal{AmountDeltaMinor: 500000, DateDeltaDays: 700})
	assert.Equal(t, atTolerance, farBeyond)
	assert.InDelta(t, 0.0, float64(farBeyond), 0.0001)
}

func TestWeightedScoring_DescriptionOverlap(t *testing.T) {
	strategy := services.NewWeightedScoringStrategy(0, 0, 1, 5000, 7)

	disjoint := strategy.Score(domain.MatchProposal{
		TransactionDescription: "alpha beta",
		JournalDescription:     "gamma delta",
	})
	assert.InDelta(t, 0.0, float64(disjoint), 0.0001)

	half := strategy.Score(domain.MatchProposal{
		TransactionDescription: "alpha beta",
		JournalDescription:     "alpha gamma beta delta",
	})
	assert.InDelta(t, 0.5, float64(half), 0.0001)

	empty := strategy.Score(domain.MatchProposal{
		TransactionDescription: "",
		JournalDescription:     "anything",
	})
	assert.InDelta(t, 0.0, float64(empty), 0.0001)
}

func TestWeightedScoring_ZeroWeightsScoreZero(t *testing.T) {
	strategy := services.NewWeightedScoringStrategy(0, 0, 0, 5000, 7)
	score := strategy.Score(domain.MatchProposal{
		TransactionDescription: "same",
		JournalDescription:     "same",
	})
	assert.Zero(t, score)
}

func TestWeightedScoring_ToleranceFlooredAtOne(t *testing.T) {
	strategy := services.NewWeightedScoringStrategy(1, 0, 0, 0, 0)
	exact := strategy.Score(domain.MatchProposal{AmountDeltaMinor: 0})
	off := strategy.Score(domain.MatchProposal{AmountDeltaMinor: 1})
	assert.InDelta(t, 1.0, float64(exact), 0.0001)
	assert.InDelta(t, 0.0, float64(off), 0.0001)
}
