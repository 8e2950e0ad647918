package match

import (
	"math"
	"testing"
)

func TestScoreIdentical(t *testing.T) {
	s := NewScorer(0, 0)
	for _, v := range []string{"pad thai", "김치찌개", ""} {
		if got := s.Score(v, v); got != 1 {
			t.Errorf("Score(%q, %q) = %v, want 1", v, v, got)
		}
	}
}

func TestScoreSymmetric(t *testing.T) {
	s := NewScorer(0, 0)
	pairs := [][2]string{
		{"pad thai", "pad tai"},
		{"tom yum", "tom yam"},
		{"bibimbap", "bibim bap"},
		{"spicy tom yum soup", "tom yum"},
		{"kimchi", "crepe"},
	}
	for _, p := range pairs {
		ab, ba := s.Score(p[0], p[1]), s.Score(p[1], p[0])
		if ab != ba {
			t.Errorf("Score(%q, %q) = %v but reversed = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestScoreDisjoint(t *testing.T) {
	s := NewScorer(0, 0)
	if got := s.Score("abc", "xyz"); got != 0 {
		t.Errorf("Score(abc, xyz) = %v, want 0", got)
	}
}

func TestScoreOCRSlip(t *testing.T) {
	s := NewScorer(0, 0)

	// "pad tai" is one deletion away from "pad thai" (8 runes) and the
	// word pair thai/tai still counts as the same token, so
	// score = 0.6*(1 - 1/8) + 0.4*1.
	want := DefaultEditWeight*(1-1.0/8.0) + DefaultTokenWeight*1.0
	got := s.Score("pad thai", "pad tai")
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Score(pad thai, pad tai) = %v, want %v", got, want)
	}
}

func TestScoreVowelSwapStaysLow(t *testing.T) {
	s := NewScorer(0, 0)

	// yum/yam miss the token-equality bar, so only the edit signal and the
	// shared "tom" carry the score; it must land between the alternate and
	// accept thresholds.
	got := s.Score("tom yum", "tom yam")
	if got < 0.55 || got >= 0.72 {
		t.Errorf("Score(tom yum, tom yam) = %v, want in [0.55, 0.72)", got)
	}
}

func TestTokenOverlapWordDrop(t *testing.T) {
	// Token signal alone: 2 shared words out of a 3-word union.
	s := Scorer{EditWeight: 0, TokenWeight: 1}
	got := s.Score("spicy tom yum", "tom yum")
	want := 2.0 / 3.0
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("token-only Score = %v, want %v", got, want)
	}
}

func TestScoreBounds(t *testing.T) {
	s := NewScorer(0, 0)
	pairs := [][2]string{
		{"a", "completely different dish name"},
		{"pad thai", "pad tai"},
		{"x", "y"},
		{"tom yum", "tom yum goong"},
	}
	for _, p := range pairs {
		got := s.Score(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Score(%q, %q) = %v, out of [0,1]", p[0], p[1], got)
		}
	}
}
