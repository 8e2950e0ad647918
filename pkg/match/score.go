package match

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Default weights for the two similarity signals.
const (
	DefaultEditWeight  = 0.6
	DefaultTokenWeight = 0.4
)

// tokenMatchThreshold is the edit similarity above which two words count as
// the same word for the token-overlap signal. One OCR character slip in a
// four-letter word ("thai" read as "tai") still counts.
const tokenMatchThreshold = 0.75

// Scorer computes a bounded similarity between two canonical strings by
// combining character-level edit distance with token-set overlap. OCR noise
// is mostly character substitutions while menu wording drops or reorders
// descriptive words; each signal covers the failure mode the other misses.
//
// Weights should sum to 1; the result is clamped to [0,1] either way.
// Score is symmetric and Score(a,a) == 1.
type Scorer struct {
	EditWeight  float64
	TokenWeight float64
}

// NewScorer returns a Scorer with the given weights, falling back to the
// defaults when both are zero.
func NewScorer(editWeight, tokenWeight float64) Scorer {
	if editWeight == 0 && tokenWeight == 0 {
		editWeight, tokenWeight = DefaultEditWeight, DefaultTokenWeight
	}
	return Scorer{EditWeight: editWeight, TokenWeight: tokenWeight}
}

// Score returns the combined similarity of two canonical strings in [0,1].
func (s Scorer) Score(a, b string) float64 {
	if a == b {
		return 1
	}
	score := s.EditWeight*editSimilarity(a, b) + s.TokenWeight*tokenOverlap(a, b)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// editSimilarity is 1 - levenshtein(a,b) / max(len(a), len(b)), over runes.
func editSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1
	}
	sim := 1 - float64(matchr.Levenshtein(a, b))/float64(maxLen)
	if sim < 0 {
		return 0
	}
	return sim
}

// tokenOverlap is the Jaccard overlap of the whitespace-split token sets,
// with OCR-tolerant word equality: two words count as the same token when
// their edit similarity reaches tokenMatchThreshold. Pairs are consumed
// greedily from the most similar down, with a tie-break on the word pair
// itself so the result is symmetric.
func tokenOverlap(a, b string) float64 {
	at, bt := strings.Fields(a), strings.Fields(b)
	if len(at) == 0 || len(bt) == 0 {
		return 0
	}

	type pair struct {
		i, j int
		sim  float64
	}
	var pairs []pair
	for i, aw := range at {
		for j, bw := range bt {
			if sim := editSimilarity(aw, bw); sim >= tokenMatchThreshold {
				pairs = append(pairs, pair{i: i, j: j, sim: sim})
			}
		}
	}
	sort.Slice(pairs, func(x, y int) bool {
		if pairs[x].sim != pairs[y].sim {
			return pairs[x].sim > pairs[y].sim
		}
		xa, xb := orderedWords(at[pairs[x].i], bt[pairs[x].j])
		ya, yb := orderedWords(at[pairs[y].i], bt[pairs[y].j])
		if xa != ya {
			return xa < ya
		}
		return xb < yb
	})

	usedA := make([]bool, len(at))
	usedB := make([]bool, len(bt))
	inter := 0
	for _, p := range pairs {
		if usedA[p.i] || usedB[p.j] {
			continue
		}
		usedA[p.i] = true
		usedB[p.j] = true
		inter++
	}

	union := len(at) + len(bt) - inter
	return float64(inter) / float64(union)
}

func orderedWords(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}
