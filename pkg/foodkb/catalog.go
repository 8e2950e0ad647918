package foodkb

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Catalog is one loaded food catalog with its manifest and entity records.
type Catalog struct {
	Manifest *Manifest     `json:"manifest"`
	Entities []*FoodEntity `json:"-"`
}

// csvColumns is the record layout of a catalog data file. With a header the
// columns are resolved by name; without one this is the positional order.
var csvColumns = []string{"id", "lang", "name", "category", "region", "allergens", "nutrition_ref", "local_specialty"}

// LoadCatalog reads a manifest.yaml and loads entities from gob or CSV.
// Gob takes priority over CSV when both are present.
func LoadCatalog(dir string) (*Catalog, error) {
	manifest, err := LoadManifest(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		return nil, err
	}

	c := &Catalog{Manifest: manifest}

	gobPath := filepath.Join(dir, "data.gob")
	if _, err := os.Stat(gobPath); err == nil {
		c.Entities, err = loadGob(gobPath)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", manifest.ID, err)
		}
		return c, nil
	}

	c.Entities, err = loadCSV(filepath.Join(dir, manifest.DataFile), manifest)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", manifest.ID, err)
	}
	return c, nil
}

// loadCSV reads entity rows from a catalog data file. Rows sharing an entity
// ID are merged into one entity with several name variants.
func loadCSV(path string, manifest *Manifest) ([]*FoodEntity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	// Transcode non-UTF-8 encodings declared in the manifest.
	var reader io.Reader = f
	if enc := manifest.Format.Encoding; enc != "" && !isUTF8(enc) {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", enc, err)
		}
		reader = transform.NewReader(f, e.NewDecoder())
	}

	r := csv.NewReader(reader)
	if delim := manifest.Format.Delimiter; delim != "" {
		r.Comma = []rune(delim)[0]
	}
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	// Column indices: positional by default, resolved by name with a header.
	colIdx := make(map[string]int, len(csvColumns))
	for i, name := range csvColumns {
		colIdx[name] = i
	}
	if manifest.Format.HasHeader {
		header, err := r.Read()
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		colIdx = make(map[string]int, len(header))
		for i, h := range header {
			colIdx[strings.TrimSpace(strings.ToLower(h))] = i
		}
		if _, ok := colIdx["id"]; !ok {
			return nil, fmt.Errorf("column 'id' not found in header %v", header)
		}
		if _, ok := colIdx["name"]; !ok {
			return nil, fmt.Errorf("column 'name' not found in header %v", header)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := colIdx[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	byID := make(map[string]*FoodEntity)
	var ordered []*FoodEntity
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
			lang = manifest.Lang
		}

		e, exists := byID[id]
		if !exists {
			e = &FoodEntity{
				ID:             id,
				Category:       field(record, "category"),
				OriginRegion:   field(record, "region"),
				NutritionRef:   field(record, "nutrition_ref"),
				LocalSpecialty: isTruthy(field(record, "local_specialty")),
			}
			if e.OriginRegion == "" {
				e.OriginRegion = manifest.Region
			}
			if tags := field(record, "allergens"); tags != "" {
				e.AllergenTags = splitTags(tags)
			}
			byID[id] = e
			ordered = append(ordered, e)
		}
		e.NameVariants = append(e.NameVariants, NameVariant{Lang: lang, Text: name})
	}
	return ordered, nil
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, "|") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func isTruthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
