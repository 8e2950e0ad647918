package scanstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/platewise/menulens/pkg/foodkb"
	"github.com/platewise/menulens/pkg/match"
	"github.com/platewise/menulens/pkg/pipeline"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "scans.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testScan(id string) *pipeline.MenuScanResult {
	padThai := &foodkb.FoodEntity{
		ID:           "pad-thai",
		NameVariants: []foodkb.NameVariant{{Lang: "en", Text: "Pad Thai"}},
	}
	tok := match.RawToken{Text: "Pad Thai", Confidence: 0.93, Position: 0, PriceText: "12,000"}
	return &pipeline.MenuScanResult{
		ID:     id,
		Tokens: []match.RawToken{tok, {Text: "mystery", Confidence: 0.5, Position: 1}},
		Results: []match.Result{
			{Token: tok, Matched: true, Best: &match.Candidate{
				Entity: padThai, Score: 0.93, MatchedLang: "en", MatchedVariant: "Pad Thai",
			}},
			{Token: match.RawToken{Text: "mystery", Position: 1}, Reason: match.ReasonNoCandidates},
		},
		Items: []pipeline.MenuItem{{
			Entity:         padThai,
			Score:          0.93,
			MatchedLang:    "en",
			MatchedVariant: "Pad Thai",
			Count:          1,
			Positions:      []int{0},
			PriceText:      "12,000",
		}},
		Duplicates: map[string]int{"pad-thai": 1},
		CreatedAt:  time.Now().UTC(),
	}
}

func TestSaveGetScan(t *testing.T) {
	s := openStore(t)
	scan := testScan("scan-1")

	if err := s.SaveScan(scan); err != nil {
		t.Fatalf("SaveScan: %v", err)
	}

	rec, err := s.GetScan("scan-1")
	if err != nil {
		t.Fatalf("GetScan: %v", err)
	}
	if rec == nil {
		t.Fatal("GetScan = nil, want record")
	}
	if rec.TokenCount != 2 || rec.MatchedCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", rec.TokenCount, rec.MatchedCount)
	}
	if !rec.CreatedAt.Equal(scan.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, scan.CreatedAt)
	}
	if len(rec.Tokens) != 2 || rec.Tokens[0].Text != "Pad Thai" || rec.Tokens[0].PriceText != "12,000" {
		t.Errorf("tokens roundtrip: %+v", rec.Tokens)
	}
	if len(rec.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(rec.Items))
	}
	item := rec.Items[0]
	if item.EntityID != "pad-thai" || item.Score != 0.93 || item.Count != 1 {
		t.Errorf("item = %+v", item)
	}
	if len(item.Positions) != 1 || item.Positions[0] != 0 {
		t.Errorf("positions = %v, want [0]", item.Positions)
	}
	if item.ImageURL != "" || item.TranslatedName != "" {
		t.Errorf("enrichment should start empty: %+v", item)
	}
}

func TestGetScanUnknown(t *testing.T) {
	s := openStore(t)
	rec, err := s.GetScan("nope")
	if err != nil {
		t.Fatalf("GetScan: %v", err)
	}
	if rec != nil {
		t.Errorf("GetScan(nope) = %+v, want nil", rec)
	}
}

func TestListScansNewestFirst(t *testing.T) {
	s := openStore(t)

	older := testScan("scan-old")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := testScan("scan-new")

	if err := s.SaveScan(older); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveScan(newer); err != nil {
		t.Fatal(err)
	}

	scans, err := s.ListScans(10, 0)
	if err != nil {
		t.Fatalf("ListScans: %v", err)
	}
	if len(scans) != 2 {
		t.Fatalf("scans = %d, want 2", len(scans))
	}
	if scans[0].ID != "scan-new" || scans[1].ID != "scan-old" {
		t.Errorf("order = %q, %q, want newest first", scans[0].ID, scans[1].ID)
	}

	page, err := s.ListScans(1, 1)
	if err != nil {
		t.Fatalf("ListScans page: %v", err)
	}
	if len(page) != 1 || page[0].ID != "scan-old" {
		t.Errorf("page = %+v, want [scan-old]", page)
	}
}

func TestDeleteScan(t *testing.T) {
	s := openStore(t)
	if err := s.SaveScan(testScan("scan-1")); err != nil {
		t.Fatal(err)
	}

	ok, err := s.DeleteScan("scan-1")
	if err != nil || !ok {
		t.Fatalf("DeleteScan = %v, %v, want true", ok, err)
	}
	if rec, _ := s.GetScan("scan-1"); rec != nil {
		t.Errorf("scan still present after delete: %+v", rec)
	}

	ok, err = s.DeleteScan("scan-1")
	if err != nil || ok {
		t.Errorf("second DeleteScan = %v, %v, want false", ok, err)
	}
}

func TestSetEnrichment(t *testing.T) {
	s := openStore(t)
	if err := s.SaveScan(testScan("scan-1")); err != nil {
		t.Fatal(err)
	}

	err := s.SetEnrichment("scan-1", "pad-thai", "https://img.example/pad-thai.jpg", "Gebratene Reisnudeln")
	if err != nil {
		t.Fatalf("SetEnrichment: %v", err)
	}

	rec, err := s.GetScan("scan-1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Items[0].ImageURL != "https://img.example/pad-thai.jpg" {
		t.Errorf("ImageURL = %q", rec.Items[0].ImageURL)
	}
	if rec.Items[0].TranslatedName != "Gebratene Reisnudeln" {
		t.Errorf("TranslatedName = %q", rec.Items[0].TranslatedName)
	}

	if err := s.SetEnrichment("scan-1", "no-such-item", "x", "y"); err == nil {
		t.Error("SetEnrichment on unknown item succeeded, want error")
	}
}

func TestPositionsCodec(t *testing.T) {
	tests := []struct {
		in  []int
		str string
	}{
		{nil, ""},
		{[]int{0}, "0"},
		{[]int{3, 1, 7}, "3,1,7"},
	}
	for _, tt := range tests {
		if got := encodePositions(tt.in); got != tt.str {
			t.Errorf("encodePositions(%v) = %q, want %q", tt.in, got, tt.str)
		}
		back, err := decodePositions(tt.str)
		if err != nil {
			t.Fatalf("decodePositions(%q): %v", tt.str, err)
		}
		if len(back) != len(tt.in) {
			t.Errorf("decodePositions(%q) = %v", tt.str, back)
		}
	}
	if _, err := decodePositions("1,x,3"); err == nil {
		t.Error("decodePositions(1,x,3) succeeded, want error")
	}
}
