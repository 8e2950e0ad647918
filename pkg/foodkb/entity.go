package foodkb

import "fmt"

// NameVariant is one language-tagged rendering of a food name.
type NameVariant struct {
	Lang string `json:"lang"`
	Text string `json:"text"`
}

// FoodEntity is one canonical dish or food item from a catalog.
// Entities are loaded at startup and read-only afterwards; the ID is unique
// and stable across runs.
type FoodEntity struct {
	ID             string        `json:"id"`
	NameVariants   []NameVariant `json:"name_variants"`
	Category       string        `json:"category,omitempty"`
	OriginRegion   string        `json:"origin_region,omitempty"`
	AllergenTags   []string      `json:"allergen_tags,omitempty"`
	NutritionRef   string        `json:"nutrition_ref,omitempty"`
	LocalSpecialty bool          `json:"local_specialty,omitempty"`
}

// IntegrityError reports a malformed catalog. It is fatal: the index refuses
// to build on top of duplicate IDs or entities nobody can ever match.
type IntegrityError struct {
	Catalog string
	Reason  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("catalog %s: %s", e.Catalog, e.Reason)
}
