package foodkb

import (
	"encoding/gob"
	"fmt"
	"os"
)

// loadGob deserializes entities from a gob-encoded file.
func loadGob(path string) ([]*FoodEntity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gob file: %w", err)
	}
	defer f.Close()

	var entities []*FoodEntity
	if err := gob.NewDecoder(f).Decode(&entities); err != nil {
		return nil, fmt.Errorf("decode gob: %w", err)
	}
	return entities, nil
}

// SaveGob serializes entities to a gob-encoded file at path. Used by the
// importer to build fast-loading catalogs.
func SaveGob(entities []*FoodEntity, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gob file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(entities); err != nil {
		return fmt.Errorf("encode gob: %w", err)
	}
	return nil
}
