package services

import (
	"strings"

	"github.com/finacct/ledger_backend/internal/core/domain"
	portssvc "github.com/finacct/ledger_backend/internal/core/ports/services"
)

// Default weights and tolerances for the reference scoring strategy.
const (
	defaultAmountWeight         = 0.45
	defaultDateWeight           = 0.35
	defaultDescriptionWeight    = 0.20
	defaultAmountToleranceMinor = 5_000
	defaultDateToleranceDays    = 7
)

// WeightedScoringStrategy combines amount closeness, date closeness, and
// description token overlap into one [0, 1] score. Larger absolute deltas
// never increase the score; higher token overlap never decreases it.
type WeightedScoringStrategy struct {
	amountWeight         float32
	dateWeight           float32
	descriptionWeight    float32
	amountToleranceMinor int64
	dateToleranceDays    int64
}

// Ensure WeightedScoringStrategy implements the ScoringStrategy port.
var _ portssvc.ScoringStrategy = (*WeightedScoringStrategy)(nil)

// NewWeightedScoringStrategy builds a strategy with explicit weights and
// tolerances. Tolerances are floored at 1 to keep the normalization defined.
func NewWeightedScoringStrategy(amountWeight, dateWeight, descriptionWeight float32, amountToleranceMinor, dateToleranceDays int64) *WeightedScoringStrategy {
	return &WeightedScoringStrategy{
		amountWeight:         amountWeight,
		dateWeight:           dateWeight,
		descriptionWeight:    descriptionWeight,
		amountToleranceMinor: max(amountToleranceMinor, 1),
		dateToleranceDays:    max(dateToleranceDays, 1),
	}
}

// NewDefaultScoringStrategy returns the reference weights 0.45/0.35/0.20 with
// tolerances of 5000 minor units and 7 days.
func NewDefaultScoringStrategy() *WeightedScoringStrategy {
	return NewWeightedScoringStrategy(
		defaultAmountWeight,
		defaultDateWeight,
		defaultDescriptionWeight,
		defaultAmountToleranceMinor,
		defaultDateToleranceDays,
	)
}

// Score implements portssvc.ScoringStrategy.
func (s *WeightedScoringStrategy) Score(proposal domain.MatchProposal) float32 {
	totalWeight := s.amountWeight + s.dateWeight + s.descriptionWeight
	if totalWeight <= 0 {
		return 0
	}
	amountComponent := normalizeDelta(proposal.AmountDeltaMinor, s.amountToleranceMinor)
	dateComponent := normalizeDelta(proposal.DateDeltaDays, s.dateToleranceDays)
	descriptionComponent := descriptionSimilarity(proposal.TransactionDescription, proposal.JournalDescription)

	weighted := amountComponent*s.amountWeight +
		dateComponent*s.dateWeight +
		descriptionComponent*s.descriptionWeight
	return clamp01(weighted / totalWeight)
}

// normalizeDelta maps an absolute delta onto [0, 1]: 1 at zero delta,
// falling linearly to 0 at the tolerance.
func normalizeDelta(delta int64, tolerance int64) float32 {
	if delta < 0 {
		delta = -delta
	}
	ratio := float32(delta) / float32(tolerance)
	return clamp01(1 - ratio)
}

// descriptionSimilarity is the Jaccard overlap of case-folded whitespace
// tokens.
func descriptionSimilarity(left, right string) float32 {
	leftTokens := tokenize(left)
	rightTokens := tokenize(right)
	if len(leftTokens) == 0 || len(rightTokens) == 0 {
		return 0
	}
	intersection := 0
	for token := range leftTokens {
		if _, ok := rightTokens[token]; ok {
			intersection++
		}
	}
	union := len(leftTokens) + len(rightTokens) - intersection
	if union == 0 {
		return 0
	}
	return clamp01(float32(intersection) / float32(union))
}

func tokenize(input string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, token := range strings.Fields(input) {
		tokens[strings.ToLower(token)] = struct{}{}
	}
	return tokens
}

func clamp01(value float32) float32 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
