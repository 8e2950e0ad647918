package foodkb

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// VariantNorm pairs a name variant with its precomputed canonical form.
type VariantNorm struct {
	Lang string
	Text string
	Norm string
}

// sigRef points one prefilter signature at an entity ordinal, tagged with
// the language of the variant that produced it.
type sigRef struct {
	ord  int
	lang string
}

// Index is the read-only, queryable food knowledge base. It is built once at
// startup and safely shared across concurrent matchers without locking.
//
// Candidate retrieval is a recall-oriented prefilter, not the final match:
// an entity qualifies when any of its normalized name variants shares a
// cheap signature with the query: first character, rune length within 2,
// or the Double Metaphone code of the leading word. Full similarity scoring
// happens downstream on this bounded set.
type Index struct {
	entities []*FoodEntity // sorted by ID for deterministic iteration
	byID     map[string]int
	variants [][]VariantNorm
	byFirst  map[rune][]sigRef
	byLen    map[int][]sigRef
	byCode   map[string][]sigRef

	variantCount int
}

// BuildIndex validates and indexes the entities of all given catalogs.
// It fails with *IntegrityError on a duplicate entity ID or an entity
// without a single matchable name variant.
func BuildIndex(catalogs ...*Catalog) (*Index, error) {
	x := &Index{
		byID:    make(map[string]int),
		byFirst: make(map[rune][]sigRef),
		byLen:   make(map[int][]sigRef),
		byCode:  make(map[string][]sigRef),
	}

	seenID := make(map[string]string) // entity ID -> catalog ID
	for _, c := range catalogs {
		for _, e := range c.Entities {
			if prev, dup := seenID[e.ID]; dup {
				return nil, &IntegrityError{Catalog: c.Manifest.ID,
					Reason: "duplicate entity id " + e.ID + " (already in " + prev + ")"}
			}
			seenID[e.ID] = c.Manifest.ID
			if len(e.NameVariants) == 0 {
				return nil, &IntegrityError{Catalog: c.Manifest.ID,
					Reason: "entity " + e.ID + " has no name variants"}
			}
			x.entities = append(x.entities, e)
		}
	}
	sort.Slice(x.entities, func(i, j int) bool { return x.entities[i].ID < x.entities[j].ID })

	x.variants = make([][]VariantNorm, len(x.entities))
	for ord, e := range x.entities {
		x.byID[e.ID] = ord
		indexed := 0
		for _, v := range e.NameVariants {
			vn := VariantNorm{Lang: v.Lang, Text: v.Text, Norm: Normalize(v.Text)}
			x.variants[ord] = append(x.variants[ord], vn)
			if vn.Norm == "" {
				continue
			}
			x.addSignatures(ord, vn)
			indexed++
		}
		if indexed == 0 {
			return nil, &IntegrityError{Catalog: seenID[e.ID],
				Reason: "entity " + e.ID + " has no matchable name variants"}
		}
		x.variantCount += indexed
	}
	return x, nil
}

func (x *Index) addSignatures(ord int, vn VariantNorm) {
	ref := sigRef{ord: ord, lang: vn.Lang}

	first, _ := utf8.DecodeRuneInString(vn.Norm)
	x.byFirst[first] = append(x.byFirst[first], ref)

	x.byLen[utf8.RuneCountInString(vn.Norm)] = append(x.byLen[utf8.RuneCountInString(vn.Norm)], ref)

	for _, code := range metaphoneCodes(vn.Norm) {
		x.byCode[code] = append(x.byCode[code], ref)
	}
}

// metaphoneCodes returns the Double Metaphone codes of the leading word.
// Scripts the encoder cannot handle yield no codes, which only narrows
// recall to the other signatures.
func metaphoneCodes(normText string) []string {
	word := normText
	if i := strings.IndexByte(word, ' '); i > 0 {
		word = word[:i]
	}
	primary, secondary := matchr.DoubleMetaphone(word)
	var codes []string
	if primary != "" {
		codes = append(codes, primary)
	}
	if secondary != "" && secondary != primary {
		codes = append(codes, secondary)
	}
	return codes
}

// LookupCandidates returns every entity with at least one name variant
// sharing a prefilter signature with the normalized query, in entity-ID
// order. A language hint narrows the variants considered; when it would
// leave no candidate at all, the hint is dropped rather than losing recall.
func (x *Index) LookupCandidates(normText, lang string) []*FoodEntity {
	if normText == "" || len(x.entities) == 0 {
		return nil
	}

	seen := make(map[int]struct{})
	x.gather(normText, lang, seen)
	if lang != "" && len(seen) == 0 {
		x.gather(normText, "", seen)
	}
	if len(seen) == 0 {
		return nil
	}

	ords := make([]int, 0, len(seen))
	for ord := range seen {
		ords = append(ords, ord)
	}
	sort.Ints(ords)

	out := make([]*FoodEntity, len(ords))
	for i, ord := range ords {
		out[i] = x.entities[ord]
	}
	return out
}

func (x *Index) gather(normText, lang string, seen map[int]struct{}) {
	collect := func(refs []sigRef) {
		for _, ref := range refs {
			if lang != "" && ref.lang != lang {
				continue
			}
			seen[ref.ord] = struct{}{}
		}
	}

	first, _ := utf8.DecodeRuneInString(normText)
	collect(x.byFirst[first])

	n := utf8.RuneCountInString(normText)
	for l := n - 2; l <= n+2; l++ {
		if l < 1 {
			continue
		}
		collect(x.byLen[l])
	}

	for _, code := range metaphoneCodes(normText) {
		collect(x.byCode[code])
	}
}

// Variants returns the precomputed normalized name variants of an entity.
func (x *Index) Variants(entityID string) []VariantNorm {
	ord, ok := x.byID[entityID]
	if !ok {
		return nil
	}
	return x.variants[ord]
}

// Lookup returns an entity by ID, for enrichment collaborators keyed on
// resolved IDs.
func (x *Index) Lookup(entityID string) (*FoodEntity, bool) {
	ord, ok := x.byID[entityID]
	if !ok {
		return nil, false
	}
	return x.entities[ord], true
}

// EntityCount returns the number of indexed entities.
func (x *Index) EntityCount() int { return len(x.entities) }

// VariantCount returns the number of indexed name variants.
func (x *Index) VariantCount() int { return x.variantCount }
