package match

import (
	"sort"
	"unicode/utf8"

	"github.com/platewise/menulens/pkg/foodkb"
)

// Reason explains why a token could not be resolved. Unmatched outcomes are
// ordinary results the caller branches on, never errors.
type Reason string

const (
	ReasonEmptyToken     Reason = "empty_token"
	ReasonNoCandidates   Reason = "no_candidates"
	ReasonBelowThreshold Reason = "below_threshold"
)

// RawToken is one text fragment from the external OCR extraction step.
// Confidence is the OCR engine's own estimate in [0,1]; Position is the
// token's index in menu scan order. Immutable once created.
type RawToken struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Position   int     `json:"position"`
	PriceText  string  `json:"price_text,omitempty"`
}

// Candidate is one scored knowledge-base entity for a query token.
type Candidate struct {
	Entity         *foodkb.FoodEntity `json:"entity"`
	Score          float64            `json:"score"`
	MatchedLang    string             `json:"matched_lang"`
	MatchedVariant string             `json:"matched_variant"`

	matchedNorm string // deterministic tie-break key
}

// Result is the terminal resolution of one token. Every token yields exactly
// one Result.
type Result struct {
	Token      RawToken    `json:"token"`
	Matched    bool        `json:"matched"`
	Best       *Candidate  `json:"best,omitempty"`
	Alternates []Candidate `json:"alternates,omitempty"`
	Reason     Reason      `json:"reason,omitempty"`
	// BestScore carries the highest score achieved when the outcome is
	// below_threshold, for diagnostics.
	BestScore float64 `json:"best_score,omitempty"`
}

// Config is the tunable matching surface.
type Config struct {
	AcceptThreshold    float64 `yaml:"accept_threshold" json:"accept_threshold"`
	AlternateThreshold float64 `yaml:"alternate_threshold" json:"alternate_threshold"`
	MaxAlternates      int     `yaml:"max_alternates" json:"max_alternates"`
	EditWeight         float64 `yaml:"edit_weight" json:"edit_weight"`
	TokenWeight        float64 `yaml:"token_weight" json:"token_weight"`
}

// DefaultConfig returns the default matching configuration.
func DefaultConfig() Config {
	return Config{
		AcceptThreshold:    0.72,
		AlternateThreshold: 0.55,
		MaxAlternates:      5,
		EditWeight:         DefaultEditWeight,
		TokenWeight:        DefaultTokenWeight,
	}
}

// withDefaults fills unset fields so a partial YAML config stays sane.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.AcceptThreshold == 0 {
		c.AcceptThreshold = d.AcceptThreshold
	}
	if c.AlternateThreshold == 0 {
		c.AlternateThreshold = d.AlternateThreshold
	}
	if c.MaxAlternates == 0 {
		c.MaxAlternates = d.MaxAlternates
	}
	if c.EditWeight == 0 && c.TokenWeight == 0 {
		c.EditWeight, c.TokenWeight = d.EditWeight, d.TokenWeight
	}
	return c
}

// Matcher resolves single tokens against a knowledge-base index. It holds no
// mutable state and is safe for concurrent use.
type Matcher struct {
	cfg    Config
	scorer Scorer
}

// New creates a Matcher with the given configuration.
func New(cfg Config) *Matcher {
	cfg = cfg.withDefaults()
	return &Matcher{
		cfg:    cfg,
		scorer: NewScorer(cfg.EditWeight, cfg.TokenWeight),
	}
}

// Config returns the effective configuration.
func (m *Matcher) Config() Config { return m.cfg }

// Match resolves one token against the index.
func (m *Matcher) Match(token RawToken, idx *foodkb.Index) Result {
	return m.MatchHint(token, idx, "")
}

// MatchHint is Match with an optional language hint for candidate retrieval.
//
// The outcome is deterministic: entities are ranked by best variant score,
// ties broken by shorter matched variant then lexicographic entity ID, so
// the same token against the same index snapshot always yields the same
// Result including alternate ordering.
func (m *Matcher) MatchHint(token RawToken, idx *foodkb.Index, lang string) Result {
	normText := foodkb.Normalize(token.Text)
	if normText == "" {
		return Result{Token: token, Reason: ReasonEmptyToken}
	}

	entities := idx.LookupCandidates(normText, lang)
	if len(entities) == 0 {
		return Result{Token: token, Reason: ReasonNoCandidates}
	}

	// Best-scoring variant per entity; an entity with several close variants
	// counts only once.
	scored := make([]Candidate, 0, len(entities))
	for _, e := range entities {
		best := Candidate{Entity: e, Score: -1}
		for _, v := range idx.Variants(e.ID) {
			if v.Norm == "" {
				continue
			}
			s := m.scorer.Score(normText, v.Norm)
			if betterVariant(s, v, best) {
				best = Candidate{
					Entity:         e,
					Score:          s,
					MatchedLang:    v.Lang,
					MatchedVariant: v.Text,
					matchedNorm:    v.Norm,
				}
			}
		}
		if best.Score >= 0 {
			scored = append(scored, best)
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		li := utf8.RuneCountInString(scored[i].matchedNorm)
		lj := utf8.RuneCountInString(scored[j].matchedNorm)
		if li != lj {
			return li < lj
		}
		return scored[i].Entity.ID < scored[j].Entity.ID
	})

	top := scored[0]
	if top.Score < m.cfg.AcceptThreshold {
		return Result{Token: token, Reason: ReasonBelowThreshold, BestScore: top.Score}
	}

	var alternates []Candidate
	for _, c := range scored[1:] {
		if c.Score < m.cfg.AlternateThreshold || len(alternates) == m.cfg.MaxAlternates {
			break
		}
		alternates = append(alternates, c)
	}
	return Result{Token: token, Matched: true, Best: &top, Alternates: alternates}
}

// betterVariant decides whether a new variant score should replace the
// current per-entity best, using the same tie-break as the entity ranking.
func betterVariant(s float64, v foodkb.VariantNorm, cur Candidate) bool {
	if s != cur.Score {
		return s > cur.Score
	}
	ln, lc := utf8.RuneCountInString(v.Norm), utf8.RuneCountInString(cur.matchedNorm)
	if ln != lc {
		return ln < lc
	}
	return v.Norm < cur.matchedNorm
}
