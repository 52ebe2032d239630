package scoring

import (
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/comparely/shopmatch/internal/domain"
)

const (
	// DefaultMissingCredit is the fraction of a feature's weight awarded when
	// the feature cannot be extracted from the specs.
	DefaultMissingCredit = 0.6

	// FallbackQualityScore is returned when scoring cannot proceed at all
	// (e.g. a registered scorecard with zero total weight). Scoring must
	// never abort a comparison flow.
	FallbackQualityScore = 60.0
)

// Scorer computes quality and final scores against per-category scorecards.
// Categories may be registered at runtime; registration only adds a key and
// has no retroactive effect on already-stored scores.
type Scorer struct {
	mu            sync.RWMutex
	scorecards    map[domain.Category]Scorecard
	references    map[domain.Category]map[string]float64
	extractors    map[domain.Category]Extractor
	lowerIsBetter map[string]bool
	missingCredit float64
	logger        *zap.Logger
}

// NewScorer creates a scorer with the built-in category tables.
func NewScorer(logger *zap.Logger) *Scorer {
	return &Scorer{
		scorecards: defaultScorecards(),
		references: defaultReferences(),
		extractors: defaultExtractors(),
		lowerIsBetter: map[string]bool{
			"charging_time": true,
		},
		missingCredit: DefaultMissingCredit,
		logger:        logger,
	}
}

// WithMissingCredit overrides the missing-feature credit.
func (s *Scorer) WithMissingCredit(credit float64) *Scorer {
	if credit >= 0 && credit <= 1 {
		s.missingCredit = credit
	}
	return s
}

// Normalize converts raw specs into the normalized feature set for a
// category. A category without its own extractor falls back to the general
// synthesis. An empty spec map yields an empty set, so every scorecard
// feature scores at the missing-feature credit.
func (s *Scorer) Normalize(category domain.Category, specs map[string]string) FeatureSet {
	if len(specs) == 0 {
		return FeatureSet{}
	}

	s.mu.RLock()
	extract, ok := s.extractors[category]
	s.mu.RUnlock()

	if !ok {
		extract = extractGeneral
	}
	return extract(specs)
}

// QualityScore computes a 0-100 score from raw specs. Unknown categories
// resolve to the general scorecard. Never returns an error: an unscorable
// input degrades to FallbackQualityScore.
func (s *Scorer) QualityScore(category domain.Category, specs map[string]string) float64 {
	s.mu.RLock()
	card, ok := s.scorecards[category]
	if !ok {
		category = domain.CategoryGeneral
		card = s.scorecards[domain.CategoryGeneral]
	}
	refs := s.references[category]
	s.mu.RUnlock()

	total := card.TotalWeight()
	if total <= 0 {
		s.logger.Warn("Scorecard has no weight, using fallback score",
			zap.String("category", string(category)))
		return FallbackQualityScore
	}

	features := s.Normalize(category, specs)

	var points float64
	for feature, weight := range card {
		value, present := features[feature]
		if !present {
			points += float64(weight) * s.missingCredit
			continue
		}

		ref := 1.0
		if r, hasRef := refs[feature]; hasRef && r > 0 {
			ref = r
		}

		ratio := math.Min(value/ref, 1)
		if ratio < 0 {
			ratio = 0
		}
		if s.lowerIsBetter[feature] {
			ratio = 1 - ratio
		}
		points += float64(weight) * ratio
	}

	score := points / float64(total) * 100
	return math.Max(0, math.Min(100, score))
}

// FinalScore folds a 0-5 user rating into a quality score, rounded to two
// decimal places. Rating range is the caller's responsibility; a 5/5 rating
// is a no-op multiplier.
func (s *Scorer) FinalScore(qualityScore, rating float64) float64 {
	final := qualityScore * (rating / 5.0)
	return math.Round(final*100) / 100
}

// RegisterCategory adds or replaces a category's scorecard and reference
// table at runtime. An extractor may be nil, in which case the category
// normalizes via the general synthesis.
func (s *Scorer) RegisterCategory(
	category domain.Category, card Scorecard, refs map[string]float64, extract Extractor,
) error {
	if category == "" {
		return fmt.Errorf("category is required: %w", domain.ErrInvalidInput)
	}
	if card.TotalWeight() <= 0 {
		return fmt.Errorf("scorecard for %q has no positive weight: %w", category, domain.ErrInvalidInput)
	}
	for feature, weight := range card {
		if weight < 0 {
			return fmt.Errorf("negative weight for feature %q: %w", feature, domain.ErrInvalidInput)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.scorecards[category] = card.clone()
	if refs != nil {
		copied := make(map[string]float64, len(refs))
		for k, v := range refs {
			copied[k] = v
		}
		s.references[category] = copied
	}
	if extract != nil {
		s.extractors[category] = extract
	}

	s.logger.Info("Registered category scorecard",
		zap.String("category", string(category)),
		zap.Int("total_weight", card.TotalWeight()))
	return nil
}

// ScorecardFor returns a copy of the scorecard used for a category,
// resolving unknown categories to general.
func (s *Scorer) ScorecardFor(category domain.Category) Scorecard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	card, ok := s.scorecards[category]
	if !ok {
		card = s.scorecards[domain.CategoryGeneral]
	}
	return card.clone()
}
