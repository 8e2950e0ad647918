package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/platewise/menulens/pkg/foodkb"
)

func init() {
	Register(&openDishesAdapter{})
}

// openDishesAdapter builds the international dish catalog from the
// community-maintained Open Dishes CSV export.
type openDishesAdapter struct{}

func (a *openDishesAdapter) ID() string          { return "open-dishes" }
func (a *openDishesAdapter) CatalogID() string   { return "dishes-intl" }
func (a *openDishesAdapter) Description() string { return "Open Dishes international dish names" }
func (a *openDishesAdapter) DefaultURL() string {
	return "https://raw.githubusercontent.com/platewise/open-dishes/main/dishes.csv"
}
func (a *openDishesAdapter) License() string { return "CC-BY-4.0" }

func (a *openDishesAdapter) Import(ctx context.Context, sourceURL, outputDir string) error {
	dlDir := filepath.Join(outputDir, "_download")
	if err := ensureDir(dlDir); err != nil {
		return err
	}
	defer os.RemoveAll(dlDir)

	csvPath := filepath.Join(dlDir, "dishes.csv")
	fmt.Printf("  downloading %s...\n", sourceURL)
	if err := downloadFile(ctx, sourceURL, csvPath); err != nil {
		return fmt.Errorf("download: %w", err)
	}

	entities, err := parseDishesCSV(csvPath)
	if err != nil {
		return err
	}
	fmt.Printf("  %d dishes, %d name variants\n", len(entities), countVariants(entities))

	catalogDir := filepath.Join(outputDir, a.CatalogID())
	if err := ensureDir(catalogDir); err != nil {
		return err
	}

	if err := foodkb.SaveGob(entities, filepath.Join(catalogDir, "data.gob")); err != nil {
		return fmt.Errorf("save gob: %w", err)
	}

	return writeManifest(catalogDir, &foodkb.Manifest{
		ID:        a.CatalogID(),
		Version:   "2026-08",
		Lang:      "en",
		Source:    "Open Dishes",
		SourceURL: sourceURL,
		License:   a.License(),
		DataFile:  "data.gob",
	})
}

// parseDishesCSV reads the Open Dishes export. Columns:
// id,lang,name,category,region,allergens,nutrition_ref,local_specialty.
// Rows sharing an id become one entity with several name variants.
func parseDishesCSV(path string) ([]*foodkb.FoodEntity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.ToLower(h))] = i
	}
	for _, required := range []string{"id", "name"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("column %q not found in header %v", required, header)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	byID := make(map[string]*foodkb.FoodEntity)
	var ordered []*foodkb.FoodEntity
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		id := field(record, "id")
		name := field(record, "name")
		if id == "" || name == "" {
			continue
		}
		lang := field(record, "lang")
		if lang == "" {
			lang = "en"
		}

		e, exists := byID[id]
		if !exists {
			e = &foodkb.FoodEntity{
				ID:           id,
				Category:     field(record, "category"),
				OriginRegion: field(record, "region"),
				NutritionRef: field(record, "nutrition_ref"),
			}
			switch strings.ToLower(field(record, "local_specialty")) {
			case "1", "true", "yes":
				e.LocalSpecialty = true
			}
			if tags := field(record, "allergens"); tags != "" {
				for _, t := range strings.Split(tags, "|") {
					if t = strings.TrimSpace(t); t != "" {
						e.AllergenTags = append(e.AllergenTags, t)
					}
				}
			}
			byID[id] = e
			ordered = append(ordered, e)
		}
		e.NameVariants = append(e.NameVariants, foodkb.NameVariant{Lang: lang, Text: name})
	}
	return ordered, nil
}

func countVariants(entities []*foodkb.FoodEntity) int {
	n := 0
	for _, e := range entities {
		n += len(e.NameVariants)
	}
	return n
}
