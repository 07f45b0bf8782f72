package encode

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dolicat/internal"
	"dolicat/internal/condition"
	"dolicat/internal/product"
)

const sampleJSON = `{
  "id": "152",
  "ref": "9782070368228",
  "label": "L'Étranger",
  "date_creation": "2023-04-02 09:15:00",
  "description": "<p>Roman <b>culte</b></p><p>Folio</p>",
  "weight": "0.180",
  "price": "7.5",
  "price_min": "5",
  "stock_reel": "4",
  "barcode": "9782070368228",
  "status_buy": "0",
  "status": "1",
  "array_options": {
    "options_auteur": "Albert Camus",
    "options_etat": "BON ÉTAT",
    "options_title": "L'Étranger (Folio)",
    "options_datedeparution": 1700000000,
    "options_theme_code": "12",
    "options_gse_statut": "",
    "options_rakuten_id": "991",
    "options_price_advised": "8.2"
  }
}`

func profile() product.Profile {
	return product.NewProfile(condition.LocaleFrench, product.AllFeatures()...)
}

func sample(t *testing.T, p product.Profile) product.Record {
	t.Helper()
	var raw internal.RawRecord
	require.NoError(t, json.Unmarshal([]byte(sampleJSON), &raw))
	rec, err := product.NewAssembler(p).Assemble(raw)
	require.NoError(t, err)
	return rec
}

func TestFieldsNativeTypes(t *testing.T) {
	rec := sample(t, profile())
	out := New(profile()).Fields(rec)

	assert.Equal(t, uint64(152), out["id"])
	assert.Equal(t, "9782070368228", out["ref"])
	assert.Equal(t, 7.5, out["price"])
	assert.Equal(t, false, out["status_buy"])
	assert.Equal(t, true, out["status"])
	assert.Equal(t, int8(-3), out["length_units"])
	assert.Equal(t, "2023-04-02 09:15:00", out["date_creation"])
	assert.NotContains(t, out, "stock_reel")
	assert.NotContains(t, out, "cost_price")
	assert.NotContains(t, out, "date_modification")

	ex := out["array_options"].(map[string]any)
	assert.Equal(t, "BON ÉTAT", ex["options_etat"])
	assert.Equal(t, "2023-11-15", ex["options_datedeparution"])
	assert.Equal(t, uint64(12), ex["options_theme_code"])
	// always-emit flags are integers, absent ones are 0
	assert.Equal(t, 0, ex["options_gse_statut"])
	assert.Equal(t, 0, ex["options_dmaj"])
	assert.Equal(t, 1, ex["options_enable_ecommerce"])
	assert.Equal(t, 1, ex["options_rakuten_present"])
	assert.NotContains(t, ex, "options_commandable_dilicom")
	assert.NotContains(t, ex, "options_fincommerce")
}

func TestFieldsOmitDisabledFeatures(t *testing.T) {
	p := product.NewProfile(condition.LocaleDefault, product.FeatureCondition)
	rec := sample(t, p)
	out := New(p).Fields(rec)
	ex := out["array_options"].(map[string]any)
	assert.Equal(t, map[string]any{"options_etat": "New"}, ex)
}

func TestJSONIsValid(t *testing.T) {
	blob, err := New(profile()).JSON(sample(t, profile()))
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, json.Unmarshal(blob, &back))
	assert.Equal(t, "L'Étranger", back["label"])
	assert.NotContains(t, back, "stock_reel")
}

func TestERPFieldsAreText(t *testing.T) {
	out := New(profile()).ERPFields(sample(t, profile()))
	assert.Equal(t, "152", out["id"])
	assert.Equal(t, "7.5", out["price"])
	assert.Equal(t, "0", out["status_buy"])
	assert.Equal(t, "1", out["status"])
	assert.Equal(t, "-3", out["length_units"])
	assert.Equal(t, "0.18", out["weight"])

	ex := out["array_options"].(map[string]any)
	assert.Equal(t, "12", ex["options_theme_code"])
	assert.Equal(t, "991", ex["options_rakuten_id"])
	assert.Equal(t, 1, ex["options_rakuten_present"])
	// the one day shift is undone: 2023-11-14 00:00 UTC
	assert.Equal(t, "1699920000", ex["options_datedeparution"])
}

func TestERPUpdateRoundTrip(t *testing.T) {
	p := profile()
	rec := sample(t, p)
	rec.Stock = nil

	blob, err := New(p).ERPUpdate(rec)
	require.NoError(t, err)
	var raw internal.RawRecord
	require.NoError(t, json.Unmarshal(blob, &raw))
	back, err := product.NewAssembler(p).Assemble(raw)
	require.NoError(t, err)
	assert.Equal(t, rec, back)
}

func TestERPUpdateDefaultVocabularyRoundTrip(t *testing.T) {
	p := product.NewProfile(condition.LocaleDefault, product.FeatureCondition, product.FeatureRakuten)
	a := product.NewAssembler(p)
	for _, c := range condition.All() {
		rec := a.New("R", "r")
		cc := c
		rec.Extras.Etat = &cc
		blob, err := New(p).ERPUpdate(rec)
		require.NoError(t, err)
		var raw internal.RawRecord
		require.NoError(t, json.Unmarshal(blob, &raw))
		back, err := a.Assemble(raw)
		require.NoError(t, err)
		require.NotNil(t, back.Extras.Etat)
		assert.Equal(t, c, *back.Extras.Etat)
	}
}

func TestListing(t *testing.T) {
	rec := sample(t, profile())
	l, err := New(profile()).Listing(rec)
	require.NoError(t, err)

	assert.Equal(t, "9782070368228", l.SKU)
	require.NotNil(t, l.ProductID)
	assert.Equal(t, uint32(991), *l.ProductID)
	assert.Equal(t, "L'Étranger (Folio)", l.Title)
	assert.Equal(t, "Roman culte Folio", l.Description)
	assert.Equal(t, "BE", l.Condition)
	assert.Equal(t, "USED_GOOD", l.WarehouseStatus)
	assert.Equal(t, int32(4), l.Quantity)
	assert.True(t, l.Published)
	require.NotNil(t, l.AdvisedPrice)
	assert.Equal(t, 8.2, *l.AdvisedPrice)
}

func TestListingCollapsesNewAndBad(t *testing.T) {
	enc := New(profile())
	rec := product.Record{Reference: "A", Label: "a"}
	l, err := enc.Listing(rec)
	require.NoError(t, err)
	assert.Equal(t, "CN", l.Condition)
	assert.Equal(t, "USED_LIKE_NEW", l.WarehouseStatus)
	assert.False(t, l.Published)

	bad := condition.Bad
	rec.Extras.Etat = &bad
	l, err = enc.Listing(rec)
	require.NoError(t, err)
	assert.Equal(t, "EC", l.Condition)
	assert.Equal(t, "USED_CORRECT", l.WarehouseStatus)
}

func TestListingNeedsMarketplaceFeature(t *testing.T) {
	_, err := New(product.NewProfile(condition.LocaleDefault)).Listing(product.Record{Reference: "A"})
	assert.ErrorIs(t, err, ErrMarketplaceDisabled)
}

func TestPlainText(t *testing.T) {
	got, err := PlainText("<div>Line one<br>Line   two</div><ul><li>a</li><li>b</li></ul>")
	require.NoError(t, err)
	assert.Equal(t, "Line one Line two a b", got)

	got, err = PlainText("no markup")
	require.NoError(t, err)
	assert.Equal(t, "no markup", got)
}

func TestDateEncodingsAgree(t *testing.T) {
	d := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-02-29", native.date(d))
	assert.Equal(t, "1709078400", erpText.date(d))
}
