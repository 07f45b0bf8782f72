package encode

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"dolicat/internal/condition"
	"dolicat/internal/product"
)

var ErrMarketplaceDisabled = errors.New("marketplace feature is not enabled")

// Listing is a marketplace offer built from a catalog record.
type Listing struct {
	SKU             string   `json:"sku"`
	ProductID       *uint32  `json:"product_id,omitempty"`
	EAN             string   `json:"ean,omitempty"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Price           float64  `json:"price"`
	AdvisedPrice    *float64 `json:"advised_price,omitempty"`
	Quantity        int32    `json:"quantity"`
	Condition       string   `json:"condition"`
	WarehouseStatus string   `json:"warehouse_status"`
	Published       bool     `json:"published"`
}

// Listing maps a record to a marketplace offer. A record without a
// condition is listed as new.
func (e *Encoder) Listing(r product.Record) (Listing, error) {
	if !e.profile.Has(product.FeatureRakuten) {
		return Listing{}, ErrMarketplaceDisabled
	}

	c := condition.New
	if r.Extras.Etat != nil {
		c = *r.Extras.Etat
	}

	l := Listing{
		SKU:             r.Reference,
		ProductID:       r.Extras.RakutenID,
		Title:           r.Label,
		Price:           r.Price,
		AdvisedPrice:    r.Extras.PriceAdvisedTTC,
		Condition:       c.APICode(),
		WarehouseStatus: c.WarehouseStatus(),
		Published:       r.Extras.RakutenPresent != nil && *r.Extras.RakutenPresent,
	}
	if r.Extras.Title != nil && strings.TrimSpace(*r.Extras.Title) != "" {
		l.Title = strings.TrimSpace(*r.Extras.Title)
	}
	if r.Barcode != nil {
		l.EAN = strings.TrimSpace(*r.Barcode)
	}
	if r.Stock != nil && *r.Stock > 0 {
		l.Quantity = *r.Stock
	}
	if r.Description != nil {
		text, err := PlainText(*r.Description)
		if err != nil {
			return Listing{}, err
		}
		l.Description = text
	}
	return l, nil
}

const blockElements = "br,p,div,li,tr,h1,h2,h3,h4,h5,h6"

// PlainText flattens an HTML fragment to single-spaced text.
func PlainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}
