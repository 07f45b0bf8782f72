package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"dolicat/internal"
	"dolicat/internal/condition"
	"dolicat/internal/config"
	"dolicat/internal/encode"
	"dolicat/internal/product"
	"dolicat/internal/storage"
)

const catalogJSON = `[
  {
    "id": "152",
    "ref": "9782070368228",
    "label": "L'Étranger",
    "date_creation": "2023-04-02 09:15:00",
    "description": "<p>Roman <b>culte</b></p>",
    "price": "7.5",
    "price_min": "5",
    "stock_reel": "4",
    "status_buy": "0",
    "status": "1",
    "array_options": {
      "options_auteur": "Albert Camus",
      "options_etat": "BON ÉTAT",
      "options_datedeparution": 1700000000,
      "options_rakuten_id": "991",
      "options_rakuten_present": "1"
    }
  },
  {"id": "oops", "ref": "BROKEN", "label": "bad id"},
  {
    "id": "153",
    "ref": "9782070360024",
    "label": "La Peste",
    "price": 9,
    "array_options": {"options_etat": "Comme neuf"}
  }
]`

func testConfig(t *testing.T) (config.Config, *storage.DB) {
	t.Helper()
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		DBPath:    filepath.Join(tmp, "app.db"),
		OutputDir: filepath.Join(tmp, "out"),
		Profile: product.NewProfile(condition.LocaleFrench,
			product.FeatureAuteur, product.FeatureCondition, product.FeatureDateParution, product.FeatureRakuten),
	}
	return cfg, db
}

func TestProcessStoresSnapshotsAndRejects(t *testing.T) {
	cfg, db := testConfig(t)
	raws, err := ExtractJSON([]byte(catalogJSON))
	if err != nil {
		t.Fatal(err)
	}

	proc := NewProcessingService(db, cfg)
	res, err := proc.Process(internal.SourceJSON, raws)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Records) != 2 || len(res.Rejects) != 1 {
		t.Fatalf("records=%d rejects=%d", len(res.Records), len(res.Rejects))
	}
	if res.TraceID == "" || res.RunID == 0 {
		t.Fatalf("run=%+v", res)
	}

	rejects, err := db.ListRejects(res.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rejects) != 1 || rejects[0].Reference != "BROKEN" || rejects[0].Field != "id" {
		t.Fatalf("rejects=%+v", rejects)
	}

	stored, err := LoadSnapshots(db)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored=%d", len(stored))
	}
	// sorted by reference
	if stored[0].Reference != "9782070360024" {
		t.Fatalf("first=%s", stored[0].Reference)
	}
	if !product.Equal(stored[1], res.Records[0]) {
		t.Fatal("snapshot differs from processed record")
	}

	sp, err := db.GetProduct("9782070368228")
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(sp.RawJSON), &raw); err != nil {
		t.Fatal(err)
	}
	if raw["label"] != "L'Étranger" {
		t.Fatalf("raw=%v", raw)
	}
	back, err := encode.UnmarshalSnapshot(sp.Snapshot)
	if err != nil {
		t.Fatal(err)
	}
	if back.Stock == nil || *back.Stock != 4 {
		t.Fatalf("stock=%v", back.Stock)
	}
}

func TestExportCatalogXLSXReingests(t *testing.T) {
	cfg, db := testConfig(t)
	raws, err := ExtractJSON([]byte(catalogJSON))
	if err != nil {
		t.Fatal(err)
	}
	res, err := NewProcessingService(db, cfg).Process(internal.SourceJSON, raws)
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(cfg.OutputDir, "catalog.xlsx")
	if err := ExportCatalogXLSX(res.Records, cfg.Profile, out); err != nil {
		t.Fatal(err)
	}
	blob, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	again, err := ExtractXLSX(blob)
	if err != nil {
		t.Fatal(err)
	}
	items, rejects := NormalizeRecords(product.NewAssembler(cfg.Profile), again, internal.SourceXLSX)
	if len(rejects) != 0 || len(items) != 2 {
		t.Fatalf("items=%d rejects=%+v", len(items), rejects)
	}

	want := res.Records[0]
	got := items[0].Record
	if got.Reference != want.Reference || got.Price != want.Price || got.RowID != want.RowID {
		t.Fatalf("got %+v", got)
	}
	if got.PriceMin == nil || *got.PriceMin != 5 {
		t.Fatalf("price_min=%v", got.PriceMin)
	}
	if got.Extras.Etat == nil || *got.Extras.Etat != condition.Good {
		t.Fatalf("etat=%v", got.Extras.Etat)
	}
	if got.Extras.DateDeParution == nil || !got.Extras.DateDeParution.Equal(*want.Extras.DateDeParution) {
		t.Fatalf("date=%v want %v", got.Extras.DateDeParution, want.Extras.DateDeParution)
	}
	if got.Extras.RakutenPresent == nil || !*got.Extras.RakutenPresent {
		t.Fatal("rakuten_present lost")
	}
	if got.ToSell != want.ToSell || got.ToBuy != want.ToBuy {
		t.Fatal("flags differ")
	}
}

func TestExportJSONFormats(t *testing.T) {
	cfg, db := testConfig(t)
	raws, err := ExtractJSON([]byte(catalogJSON))
	if err != nil {
		t.Fatal(err)
	}
	res, err := NewProcessingService(db, cfg).Process(internal.SourceJSON, raws)
	if err != nil {
		t.Fatal(err)
	}

	for _, format := range []string{FormatJSON, FormatERP, FormatListing} {
		t.Run(format, func(t *testing.T) {
			out := filepath.Join(cfg.OutputDir, format+".json")
			if err := ExportJSON(res.Records, cfg.Profile, format, out); err != nil {
				t.Fatal(err)
			}
			blob, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			var rows []map[string]any
			if err := json.Unmarshal(blob, &rows); err != nil {
				t.Fatal(err)
			}
			if len(rows) != 2 {
				t.Fatalf("rows=%d", len(rows))
			}
		})
	}

	var listings []encode.Listing
	blob, err := os.ReadFile(filepath.Join(cfg.OutputDir, FormatListing+".json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(blob, &listings); err != nil {
		t.Fatal(err)
	}
	if listings[0].Condition != "BE" || listings[1].Condition != "CN" {
		t.Fatalf("conditions=%s,%s", listings[0].Condition, listings[1].Condition)
	}

	if err := ExportJSON(res.Records, cfg.Profile, "csv", filepath.Join(cfg.OutputDir, "x")); err == nil {
		t.Fatal("expected format error")
	}
	noMarket := product.NewProfile(condition.LocaleFrench)
	if err := ExportJSON(res.Records, noMarket, FormatListing, filepath.Join(cfg.OutputDir, "y.json")); err == nil {
		t.Fatal("expected listing error without marketplace feature")
	}
}
