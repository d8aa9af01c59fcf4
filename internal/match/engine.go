package match

import (
	"context"
	"log/slog"
	"sort"

	"gazetteer/internal/geo/models"
	id "gazetteer/pkg/domain"
	dErrors "gazetteer/pkg/domain-errors"
	"gazetteer/pkg/platform/tracing"
)

// Band classifies a score into a confidence bucket.
type Band string

const (
	BandExact    Band = "exact"
	BandVeryHigh Band = "veryHigh"
	BandHigh     Band = "high"
	BandMedium   Band = "medium"
	BandLow      Band = "low"
)

// Config holds the band thresholds and result sizing. Scores below Low are
// discarded entirely.
type Config struct {
	VeryHigh float64
	High     float64
	Medium   float64
	Low      float64

	// TopN caps the ranked list length.
	TopN int

	// PhoneticScore is the signal value awarded when Soundex codes are
	// equal. It feeds the max-of-signals combination like any other signal,
	// so on its own it lands a candidate in the medium band.
	PhoneticScore float64
}

func DefaultConfig() Config {
	return Config{
		VeryHigh:      0.95,
		High:          0.85,
		Medium:        0.70,
		Low:           0.50,
		TopN:          10,
		PhoneticScore: 0.70,
	}
}

// MatchResult is one scored candidate unit.
type MatchResult struct {
	UnitID         id.UnitID `json:"unit_id"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalized_name"`
	Score          float64   `json:"score"`
	Band           Band      `json:"band"`
}

// RankedMatches is the engine's full answer for one lookup.
type RankedMatches struct {
	Matches    []MatchResult `json:"matches"`
	BandCounts map[Band]int  `json:"band_counts"`
	Best       *MatchResult  `json:"best,omitempty"`
	NoMatches  bool          `json:"no_matches"`

	// Suggestion is set only when the best match scores veryHigh or above.
	// It lets a caller offer "did you mean X?" without a review cycle.
	Suggestion *MatchResult `json:"suggestion,omitempty"`
}

// UnitSource supplies the candidate pool.
type UnitSource interface {
	FindUnitsAtLevel(ctx context.Context, country id.CountryCode, ordinal int, parentID id.UnitID) ([]*models.AdministrativeUnit, error)
}

// Engine scores a submitted name against the sibling pool.
type Engine struct {
	units      UnitSource
	normalizer *Normalizer
	scorer     *Scorer
	config     Config
	logger     *slog.Logger
}

type Option func(e *Engine)

func WithConfig(config Config) Option {
	return func(e *Engine) {
		e.config = config
	}
}

func WithNormalizer(n *Normalizer) Option {
	return func(e *Engine) {
		e.normalizer = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func NewEngine(units UnitSource, opts ...Option) *Engine {
	e := &Engine{
		units:      units,
		normalizer: NewNormalizer(),
		scorer:     NewScorer(),
		config:     DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FindCandidates scores name against all active units at (country, ordinal),
// scoped to parentID's children when parentID is valid. The final score per
// candidate is the max of the individual signals, never a weighted sum, so a
// single strong signal is not diluted by weak ones.
func (e *Engine) FindCandidates(ctx context.Context, name string, country id.CountryCode, ordinal int, parentID id.UnitID) (RankedMatches, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Engine.FindCandidates")
	defer span.End()

	if name == "" {
		return RankedMatches{}, dErrors.New(dErrors.CodeValidation, "name cannot be empty")
	}

	pool, err := e.units.FindUnitsAtLevel(ctx, country, ordinal, parentID)
	if err != nil {
		return RankedMatches{}, dErrors.Wrap(err, dErrors.CodeInternal, "load candidate pool")
	}

	query := e.normalizer.Normalize(name, country)
	var scored []MatchResult
	for _, unit := range pool {
		candidate := e.normalizer.Normalize(unit.Name, country)
		score := e.score(query, candidate)
		if score < e.config.Low {
			continue
		}
		scored = append(scored, MatchResult{
			UnitID:         unit.ID,
			Name:           unit.Name,
			NormalizedName: candidate,
			Score:          score,
			Band:           e.band(score),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	result := RankedMatches{BandCounts: make(map[Band]int)}
	for _, m := range scored {
		result.BandCounts[m.Band]++
	}
	if len(scored) == 0 {
		result.NoMatches = true
		return result, nil
	}

	best := scored[0]
	result.Best = &best
	if best.Band == BandExact || best.Band == BandVeryHigh {
		suggestion := best
		result.Suggestion = &suggestion
	}
	if len(scored) > e.config.TopN {
		scored = scored[:e.config.TopN]
	}
	result.Matches = scored
	return result, nil
}

// score combines the signals: exact short-circuit, trigram overlap, edit
// distance ratio, and the phonetic equality signal.
func (e *Engine) score(query, candidate string) float64 {
	if e.scorer.ExactMatch(query, candidate) == 1.0 {
		return 1.0
	}
	score := e.scorer.TrigramOverlap(query, candidate)
	if s := e.scorer.Levenshtein(query, candidate); s > score {
		score = s
	}
	if e.scorer.SoundexMatch(query, candidate) == 1.0 && e.config.PhoneticScore > score {
		score = e.config.PhoneticScore
	}
	return score
}

func (e *Engine) band(score float64) Band {
	switch {
	case score >= 1.0:
		return BandExact
	case score >= e.config.VeryHigh:
		return BandVeryHigh
	case score >= e.config.High:
		return BandHigh
	case score >= e.config.Medium:
		return BandMedium
	default:
		return BandLow
	}
}
