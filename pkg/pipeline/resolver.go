package pipeline

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/platewise/menulens/pkg/foodkb"
	"github.com/platewise/menulens/pkg/match"
)

// MenuItem is one logical dish on the scanned menu after duplicate collapse.
// A dish appearing on several OCR lines keeps the match of its first
// occurrence; Count and Positions record the repeats for display.
type MenuItem struct {
	Entity         *foodkb.FoodEntity `json:"entity"`
	Score          float64            `json:"score"`
	MatchedLang    string             `json:"matched_lang"`
	MatchedVariant string             `json:"matched_variant"`
	Count          int                `json:"count"`
	Positions      []int              `json:"positions"`
	PriceText      string             `json:"price_text,omitempty"`
}

// MenuScanResult is the full resolution of one photographed menu. Results
// holds exactly one entry per input token in scan order; Items is the
// collapsed view with each entity at the position of its first occurrence.
// Enrichment (images, nutrition, translation) is the caller's job, keyed by
// the resolved entity IDs.
type MenuScanResult struct {
	ID         string           `json:"id"`
	Tokens     []match.RawToken `json:"tokens"`
	Results    []match.Result   `json:"results"`
	Items      []MenuItem       `json:"items"`
	Duplicates map[string]int   `json:"duplicates,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// MatchedCount returns the number of tokens that resolved to an entity.
func (r *MenuScanResult) MatchedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Matched {
			n++
		}
	}
	return n
}

// Resolver runs the matcher over every token of one menu scan. Token
// resolutions are independent of each other and run on a bounded worker
// pool; the index snapshot is read-only and shared without locking.
type Resolver struct {
	matcher     *match.Matcher
	parallelism int
	logger      *slog.Logger
}

// NewResolver creates a Resolver. A parallelism of zero or less means one
// worker per CPU.
func NewResolver(m *match.Matcher, parallelism int, logger *slog.Logger) *Resolver {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{matcher: m, parallelism: parallelism, logger: logger}
}

// Matcher returns the resolver's matcher.
func (r *Resolver) Matcher() *match.Matcher { return r.matcher }

// ResolveMenu resolves all tokens of one menu scan against the index and
// assembles the collapsed result. Every token yields exactly one Result;
// none is dropped silently. When ctx is cancelled the remaining tokens are
// abandoned and no result is returned at all; a cancelled resolution never
// produces a partial MenuScanResult.
func (r *Resolver) ResolveMenu(ctx context.Context, idx *foodkb.Index, tokens []match.RawToken) (*MenuScanResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	results := make([]match.Result, len(tokens))

	workers := r.parallelism
	if workers > len(tokens) {
		workers = len(tokens)
	}
	if workers > 0 {
		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					results[i] = r.matcher.Match(tokens[i], idx)
				}
			}()
		}

	feed:
		for i := range tokens {
			select {
			case <-ctx.Done():
				break feed
			case jobs <- i:
			}
		}
		close(jobs)
		wg.Wait()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scan := &MenuScanResult{
		ID:         uuid.NewString(),
		Tokens:     tokens,
		Results:    results,
		Duplicates: make(map[string]int),
		CreatedAt:  time.Now().UTC(),
	}

	// Collapse repeated entities onto their first occurrence, in scan order.
	itemIdx := make(map[string]int)
	for i, res := range results {
		if !res.Matched {
			continue
		}
		id := res.Best.Entity.ID
		if at, ok := itemIdx[id]; ok {
			item := &scan.Items[at]
			item.Count++
			item.Positions = append(item.Positions, tokens[i].Position)
			continue
		}
		itemIdx[id] = len(scan.Items)
		scan.Items = append(scan.Items, MenuItem{
			Entity:         res.Best.Entity,
			Score:          res.Best.Score,
			MatchedLang:    res.Best.MatchedLang,
			MatchedVariant: res.Best.MatchedVariant,
			Count:          1,
			Positions:      []int{tokens[i].Position},
			PriceText:      tokens[i].PriceText,
		})
	}
	for _, item := range scan.Items {
		scan.Duplicates[item.Entity.ID] = item.Count
	}

	r.logger.Debug("menu resolved",
		"scan", scan.ID,
		"tokens", len(tokens),
		"matched", scan.MatchedCount(),
		"items", len(scan.Items),
		"elapsed", time.Since(start),
	)
	return scan, nil
}
