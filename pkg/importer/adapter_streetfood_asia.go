package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/platewise/menulens/pkg/foodkb"
)

func init() {
	Register(&streetFoodAsiaAdapter{})
}

// streetFoodAsiaAdapter builds the Asian street-food catalog from a ZIP
// archive of per-language CSV files (dishes_ko.csv, dishes_th.csv, ...).
type streetFoodAsiaAdapter struct{}

func (a *streetFoodAsiaAdapter) ID() string          { return "street-food-asia" }
func (a *streetFoodAsiaAdapter) CatalogID() string   { return "street-food-asia" }
func (a *streetFoodAsiaAdapter) Description() string { return "Asian street food names (per-language CSVs)" }
func (a *streetFoodAsiaAdapter) DefaultURL() string {
	return "https://raw.githubusercontent.com/platewise/open-dishes/main/street-food-asia.zip"
}
func (a *streetFoodAsiaAdapter) License() string { return "CC-BY-4.0" }

func (a *streetFoodAsiaAdapter) Import(ctx context.Context, sourceURL, outputDir string) error {
	dlDir := filepath.Join(outputDir, "_download")
	if err := ensureDir(dlDir); err != nil {
		return err
	}
	defer os.RemoveAll(dlDir)

	zipPath := filepath.Join(dlDir, "street-food-asia.zip")
	fmt.Printf("  downloading %s...\n", sourceURL)
	if err := downloadFile(ctx, sourceURL, zipPath); err != nil {
		return fmt.Errorf("download: %w", err)
	}

	files, err := unzipFile(zipPath, dlDir)
	if err != nil {
		return fmt.Errorf("unzip: %w", err)
	}

	// Each dishes_<lang>.csv contributes variants; rows with the same id
	// across files merge into one entity.
	byID := make(map[string]*foodkb.FoodEntity)
	var ordered []*foodkb.FoodEntity
	for _, f := range files {
		base := filepath.Base(f)
		if !strings.HasPrefix(base, "dishes_") || !strings.HasSuffix(base, ".csv") {
			continue
		}

		parsed, err := parseDishesCSV(f)
		if err != nil {
			return fmt.Errorf("parse %s: %w", base, err)
		}
		for _, e := range parsed {
			existing, ok := byID[e.ID]
			if !ok {
				byID[e.ID] = e
				ordered = append(ordered, e)
				continue
			}
			existing.NameVariants = append(existing.NameVariants, e.NameVariants...)
		}
	}
	if len(ordered) == 0 {
		return fmt.Errorf("archive %s contains no dishes_*.csv files", sourceURL)
	}
	fmt.Printf("  %d dishes, %d name variants\n", len(ordered), countVariants(ordered))

	catalogDir := filepath.Join(outputDir, a.CatalogID())
	if err := ensureDir(catalogDir); err != nil {
		return err
	}

	if err := foodkb.SaveGob(ordered, filepath.Join(catalogDir, "data.gob")); err != nil {
		return fmt.Errorf("save gob: %w", err)
	}

	return writeManifest(catalogDir, &foodkb.Manifest{
		ID:        a.CatalogID(),
		Version:   "2026-08",
		Lang:      "en",
		Region:    "asia",
		Source:    "Open Dishes / Street Food Asia",
		SourceURL: sourceURL,
		License:   a.License(),
		DataFile:  "data.gob",
	})
}
