package foodkb

import (
	"errors"
	"testing"
)

func mkCatalog(id string, entities ...*FoodEntity) *Catalog {
	return &Catalog{Manifest: &Manifest{ID: id}, Entities: entities}
}

func mkEntity(id string, variants ...NameVariant) *FoodEntity {
	return &FoodEntity{ID: id, NameVariants: variants}
}

func TestBuildIndexDuplicateID(t *testing.T) {
	c1 := mkCatalog("cat-a", mkEntity("pad-thai", NameVariant{Lang: "en", Text: "Pad Thai"}))
	c2 := mkCatalog("cat-b", mkEntity("pad-thai", NameVariant{Lang: "th", Text: "ผัดไทย"}))

	_, err := BuildIndex(c1, c2)
	var ierr *IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("BuildIndex = %v, want *IntegrityError", err)
	}
	if ierr.Catalog != "cat-b" {
		t.Errorf("Catalog = %q, want cat-b", ierr.Catalog)
	}
}

func TestBuildIndexNoVariants(t *testing.T) {
	_, err := BuildIndex(mkCatalog("cat", &FoodEntity{ID: "empty"}))
	var ierr *IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("BuildIndex = %v, want *IntegrityError", err)
	}
}

func TestBuildIndexNoMatchableVariants(t *testing.T) {
	// A variant of pure punctuation normalizes to the empty string.
	_, err := BuildIndex(mkCatalog("cat", mkEntity("junk", NameVariant{Lang: "en", Text: "!!!"})))
	var ierr *IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("BuildIndex = %v, want *IntegrityError", err)
	}
}

func TestLookupCandidatesRecall(t *testing.T) {
	idx, err := BuildIndex(mkCatalog("cat",
		mkEntity("kimchi", NameVariant{Lang: "ko", Text: "Kimchi"}),
		mkEntity("pad-thai", NameVariant{Lang: "en", Text: "Pad Thai"}),
	))
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}

	// An OCR slip must not lose the entity at the prefilter stage.
	got := idx.LookupCandidates(Normalize("Pad Tai"), "")
	found := false
	for _, e := range got {
		if e.ID == "pad-thai" {
			found = true
		}
	}
	if !found {
		t.Errorf("LookupCandidates(pad tai) = %v, want pad-thai among candidates", ids(got))
	}
}

func TestLookupCandidatesLangHint(t *testing.T) {
	idx, err := BuildIndex(mkCatalog("cat",
		mkEntity("kimchi", NameVariant{Lang: "ko", Text: "Kimchi"}),
		mkEntity("pad-thai", NameVariant{Lang: "en", Text: "Pad Thai"}),
	))
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}

	// Without a hint the length signature pulls in both entities.
	if got := idx.LookupCandidates("kimchi", ""); len(got) != 2 {
		t.Errorf("no hint: candidates = %v, want 2", ids(got))
	}

	// The hint narrows to ko-tagged variants.
	got := idx.LookupCandidates("kimchi", "ko")
	if len(got) != 1 || got[0].ID != "kimchi" {
		t.Errorf("hint ko: candidates = %v, want [kimchi]", ids(got))
	}

	// A hint matching no variant falls back to unfiltered retrieval.
	if got := idx.LookupCandidates("kimchi", "xx"); len(got) != 2 {
		t.Errorf("hint xx: candidates = %v, want 2 (fallback)", ids(got))
	}
}

func TestLookupCandidatesEmpty(t *testing.T) {
	idx, err := BuildIndex(mkCatalog("cat", mkEntity("kimchi", NameVariant{Lang: "ko", Text: "Kimchi"})))
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if got := idx.LookupCandidates("", ""); got != nil {
		t.Errorf("empty query: candidates = %v, want nil", ids(got))
	}
}

func TestIndexVariantsAndLookup(t *testing.T) {
	idx, err := BuildIndex(mkCatalog("cat",
		mkEntity("pad-thai",
			NameVariant{Lang: "en", Text: "Pad Thai"},
			NameVariant{Lang: "th", Text: "ผัดไทย"},
		),
	))
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}

	vs := idx.Variants("pad-thai")
	if len(vs) != 2 {
		t.Fatalf("Variants = %d, want 2", len(vs))
	}
	if vs[0].Norm != "pad thai" {
		t.Errorf("Norm = %q, want pad thai", vs[0].Norm)
	}

	if _, ok := idx.Lookup("pad-thai"); !ok {
		t.Error("Lookup(pad-thai) not found")
	}
	if _, ok := idx.Lookup("nope"); ok {
		t.Error("Lookup(nope) found, want miss")
	}
	if idx.EntityCount() != 1 || idx.VariantCount() != 2 {
		t.Errorf("counts = %d/%d, want 1/2", idx.EntityCount(), idx.VariantCount())
	}
}

func ids(entities []*FoodEntity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.ID
	}
	return out
}
