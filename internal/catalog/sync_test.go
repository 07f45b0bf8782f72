package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"dolicat/internal/condition"
	"dolicat/internal/product"
	"dolicat/internal/storage"
)

// fakeERP serves an in-memory product table the way the ERP REST API does.
type fakeERP struct {
	mu       sync.Mutex
	products map[string]map[string]any
	puts     map[string]map[string]any
	posts    []map[string]any
	nextID   int
}

func (f *fakeERP) roundTrip(t *testing.T) roundTripFunc {
	return func(r *http.Request) (*http.Response, error) {
		f.mu.Lock()
		defer f.mu.Unlock()

		path := strings.TrimPrefix(r.URL.Path, "/api/index.php/")
		switch {
		case r.Method == http.MethodGet && path == "products":
			if r.URL.Query().Get("page") != "0" {
				return jsonResponse(http.StatusNotFound, `{}`), nil
			}
			list := make([]map[string]any, 0, len(f.products))
			for _, p := range f.products {
				list = append(list, p)
			}
			blob, _ := json.Marshal(list)
			return jsonResponse(http.StatusOK, string(blob)), nil
		case r.Method == http.MethodGet && strings.HasPrefix(path, "products/"):
			p, ok := f.products[strings.TrimPrefix(path, "products/")]
			if !ok {
				return jsonResponse(http.StatusNotFound, `{}`), nil
			}
			blob, _ := json.Marshal(p)
			return jsonResponse(http.StatusOK, string(blob)), nil
		case r.Method == http.MethodPut && strings.HasPrefix(path, "products/"):
			var body map[string]any
			blob, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(blob, &body); err != nil {
				t.Fatalf("put body: %v", err)
			}
			f.puts[strings.TrimPrefix(path, "products/")] = body
			return jsonResponse(http.StatusOK, string(blob)), nil
		case r.Method == http.MethodPost && path == "products":
			var body map[string]any
			blob, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(blob, &body); err != nil {
				t.Fatalf("post body: %v", err)
			}
			f.posts = append(f.posts, body)
			f.nextID++
			blob, _ = json.Marshal(f.nextID)
			return jsonResponse(http.StatusOK, string(blob)), nil
		}
		t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		return nil, nil
	}
}

func newSyncFixture(t *testing.T) (*SyncService, *fakeERP, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := testClientConfig()
	cfg.ERPPageSize = 100
	cfg.Profile = product.NewProfile(condition.LocaleFrench, product.FeatureCondition, product.FeatureStockOrigin)

	erp := &fakeERP{
		products: map[string]map[string]any{
			"152": {
				"id": "152", "ref": "9782070368228", "label": "L'Étranger", "price": "7.5",
				"status": "1", "status_buy": "1", "description": "old",
				"array_options": map[string]any{"options_etat": "BON ÉTAT", "options_stock_origine": "Paris"},
			},
			"153": {"id": "153", "ref": "BROKEN", "label": "no id", "status": "perhaps"},
		},
		puts:   map[string]map[string]any{},
		nextID: 900,
	}

	s := NewSyncService(db, cfg)
	s.client.httpClient = &http.Client{Transport: erp.roundTrip(t)}
	return s, erp, db
}

func TestPullStoresSnapshots(t *testing.T) {
	s, _, db := newSyncFixture(t)

	res, err := s.Pull(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Records) != 1 || len(res.Rejects) != 1 {
		t.Fatalf("records=%d rejects=%d", len(res.Records), len(res.Rejects))
	}
	if res.Rejects[0].Reference != "BROKEN" || res.Rejects[0].Field != "status" {
		t.Fatalf("reject=%+v", res.Rejects[0])
	}

	n, err := db.CountProducts()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("count=%d", n)
	}

	last, err := s.LastPull()
	if err != nil {
		t.Fatal(err)
	}
	if last == nil {
		t.Fatal("last pull not recorded")
	}
}

func TestPushMergesAndCreates(t *testing.T) {
	s, erp, db := newSyncFixture(t)
	if _, err := s.Pull(context.Background()); err != nil {
		t.Fatal(err)
	}

	a := s.processor.Assembler()
	bad := condition.Bad
	lyon := "Lyon"
	desc := "new"

	edited := a.New("9782070368228", "renamed")
	edited.Price = 1
	edited.Description = &desc
	edited.Extras.Etat = &bad
	edited.Extras.StockOrigine = &lyon

	fresh := a.New("NEW-1", "Brand new")
	fresh.Price = 12

	res, err := s.Push(context.Background(), []product.Record{edited, fresh})
	if err != nil {
		t.Fatal(err)
	}
	if res.Updated != 1 || res.Created != 1 || len(res.Rejects) != 0 {
		t.Fatalf("res=%+v", res)
	}

	put := erp.puts["152"]
	if put == nil {
		t.Fatal("no update sent")
	}
	// protected fields keep the ERP values
	if put["label"] != "L'Étranger" || put["price"] != "7.5" || put["id"] != "152" || put["status_buy"] != "1" {
		t.Fatalf("put=%v", put)
	}
	if put["description"] != "new" {
		t.Fatalf("description=%v", put["description"])
	}
	options := put["array_options"].(map[string]any)
	if options["options_etat"] != "MAUVAIS ÉTAT" || options["options_stock_origine"] != "Paris" {
		t.Fatalf("options=%v", options)
	}

	if len(erp.posts) != 1 {
		t.Fatalf("posts=%d", len(erp.posts))
	}
	if _, ok := erp.posts[0]["id"]; ok {
		t.Fatal("create payload must not carry an id")
	}
	if erp.posts[0]["ref"] != "NEW-1" {
		t.Fatalf("post=%v", erp.posts[0])
	}

	created, err := db.GetProduct("NEW-1")
	if err != nil {
		t.Fatal(err)
	}
	if created == nil || created.RowID != 901 {
		t.Fatalf("created=%+v", created)
	}
	updated, err := db.GetProduct("9782070368228")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Label != "L'Étranger" {
		t.Fatalf("stored label=%q", updated.Label)
	}
}

func TestPushKeepsReferencesCaseSensitive(t *testing.T) {
	s, erp, db := newSyncFixture(t)
	erp.products["160"] = map[string]any{"id": "160", "ref": "AB-1", "label": "upper", "price": "3", "status": "1", "status_buy": "0"}
	if _, err := s.Pull(context.Background()); err != nil {
		t.Fatal(err)
	}

	lower := s.processor.Assembler().New("ab-1", "lower")
	lower.Price = 9
	res, err := s.Push(context.Background(), []product.Record{lower})
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 1 || res.Updated != 0 {
		t.Fatalf("res=%+v", res)
	}
	if _, ok := erp.puts["160"]; ok {
		t.Fatal("AB-1 must not be updated with ab-1 data")
	}
	if len(erp.posts) != 1 || erp.posts[0]["ref"] != "ab-1" {
		t.Fatalf("posts=%v", erp.posts)
	}

	upper, err := db.GetProduct("AB-1")
	if err != nil {
		t.Fatal(err)
	}
	if upper == nil || upper.Label != "upper" || upper.RowID != 160 {
		t.Fatalf("AB-1=%+v", upper)
	}
	created, err := db.GetProduct("ab-1")
	if err != nil {
		t.Fatal(err)
	}
	if created == nil || created.Label != "lower" || created.RowID != 901 {
		t.Fatalf("ab-1=%+v", created)
	}
}

func TestIndexLookups(t *testing.T) {
	a := product.NewAssembler(product.NewProfile(condition.LocaleDefault))
	one := a.New("liv-001", "one")
	one.RowID = 1
	code := "978 2070 368228"
	one.Barcode = &code
	two := a.New("LIV-002", "two")
	two.RowID = 2
	two.Barcode = &code

	idx := BuildIndex([]product.Record{one, two})
	if idx.Len() != 2 {
		t.Fatalf("len=%d", idx.Len())
	}
	if r, ok := idx.Reference("liv-001"); !ok || r.RowID != 1 {
		t.Fatalf("reference lookup failed")
	}
	if _, ok := idx.Reference("LIV-001"); ok {
		t.Fatal("references must match exactly")
	}
	if r, ok := idx.RowID(2); !ok || r.Reference != "LIV-002" {
		t.Fatalf("row id lookup failed")
	}
	if got := idx.Barcode("9782070368228"); len(got) != 2 {
		t.Fatalf("barcode=%d", len(got))
	}
	if _, ok := idx.Reference("missing"); ok {
		t.Fatal("unexpected hit")
	}
}
