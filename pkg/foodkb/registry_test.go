package foodkb

import (
	"os"
	"path/filepath"
	"testing"
)

func setupRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	dir := t.TempDir()

	writeCatalog := func(sub, manifest, csv string) {
		d := filepath.Join(dir, sub)
		os.MkdirAll(d, 0o755)
		os.WriteFile(filepath.Join(d, "manifest.yaml"), []byte(manifest), 0o644)
		os.WriteFile(filepath.Join(d, "data.csv"), []byte(csv), 0o644)
	}

	writeCatalog("dishes-kr", `id: dishes-kr
version: "1.0"
lang: ko
region: kr
source: test
license: test
data_file: data.csv
format:
  has_header: true
`, "id,lang,name\nbibimbap,ko,비빔밥\nbibimbap,en,Bibimbap\nkimchi,ko,Kimchi\n")

	writeCatalog("dishes-th", `id: dishes-th
version: "1.0"
lang: th
region: th
source: test
license: test
data_file: data.csv
format:
  has_header: true
`, "id,lang,name\npad-thai,en,Pad Thai\ntom-yum,en,Tom Yum\n")

	reg := NewRegistry(dir)
	if err := reg.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return reg, dir
}

func TestRegistryLoad(t *testing.T) {
	reg, _ := setupRegistry(t)

	if reg.CatalogCount() != 2 {
		t.Errorf("CatalogCount = %d, want 2", reg.CatalogCount())
	}
	idx := reg.Index()
	if idx.EntityCount() != 4 {
		t.Errorf("EntityCount = %d, want 4", idx.EntityCount())
	}
	if idx.VariantCount() != 5 {
		t.Errorf("VariantCount = %d, want 5", idx.VariantCount())
	}
}

func TestRegistryCatalogsSorted(t *testing.T) {
	reg, _ := setupRegistry(t)

	infos := reg.Catalogs()
	if len(infos) != 2 {
		t.Fatalf("Catalogs = %d, want 2", len(infos))
	}
	if infos[0].ID != "dishes-kr" || infos[1].ID != "dishes-th" {
		t.Errorf("order = %q, %q, want dishes-kr, dishes-th", infos[0].ID, infos[1].ID)
	}
	if infos[0].Entities != 2 {
		t.Errorf("dishes-kr entities = %d, want 2", infos[0].Entities)
	}
}

func TestRegistryReload(t *testing.T) {
	reg, dir := setupRegistry(t)
	before := reg.Index()

	d3 := filepath.Join(dir, "dishes-jp")
	os.MkdirAll(d3, 0o755)
	os.WriteFile(filepath.Join(d3, "manifest.yaml"), []byte(`id: dishes-jp
version: "1.0"
lang: ja
source: test
license: test
data_file: data.csv
format:
  has_header: true
`), 0o644)
	os.WriteFile(filepath.Join(d3, "data.csv"), []byte("id,lang,name\nramen,en,Ramen\n"), 0o644)

	if err := reg.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if reg.CatalogCount() != 3 {
		t.Errorf("after reload: %d catalogs, want 3", reg.CatalogCount())
	}
	// The old snapshot stays intact for requests still holding it.
	if before.EntityCount() != 4 {
		t.Errorf("old snapshot mutated: %d entities", before.EntityCount())
	}
	if reg.Index().EntityCount() != 5 {
		t.Errorf("new snapshot: %d entities, want 5", reg.Index().EntityCount())
	}
}

func TestRegistrySkipsNonCatalogDirs(t *testing.T) {
	reg, dir := setupRegistry(t)

	// A stray directory without a manifest is ignored, not an error.
	os.MkdirAll(filepath.Join(dir, "_download"), 0o755)
	os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes\n"), 0o644)

	if err := reg.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if reg.CatalogCount() != 2 {
		t.Errorf("CatalogCount = %d, want 2", reg.CatalogCount())
	}
}

func TestRegistryEmptyDir(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	if err := reg.Load(); err != nil {
		t.Fatalf("Load empty: %v", err)
	}
	if reg.CatalogCount() != 0 {
		t.Errorf("CatalogCount = %d, want 0", reg.CatalogCount())
	}
	if got := reg.Index().LookupCandidates("anything", ""); got != nil {
		t.Errorf("candidates = %v, want nil", ids(got))
	}
}
