// Package product assembles ERP product records into their canonical form
// and merges partial updates into existing records.
package product

import (
	"sort"
	"strings"
	"time"

	"dolicat/internal/condition"
)

// Record is the canonical product. Pointer fields are optional; nil means
// the value is absent.
type Record struct {
	RowID     uint32
	Reference string
	Label     string

	DateCreation     *time.Time
	DateModification *time.Time

	Description *string
	NotePublic  *string
	NotePrivate *string
	Barcode     *string

	Poids          *float64
	PoidsUnits     *int8
	Longueur       *float64
	LongueurUnits  *int8
	Largeur        *float64
	LargeurUnits   *int8
	Epaisseur      *float64
	EpaisseurUnits *int8

	Price         float64
	PriceMin      *float64
	PriceBaseType *string
	CostPrice     *float64

	// Stock is read from the ERP but never written back.
	Stock *int32

	ToBuy  bool
	ToSell bool

	Extras Extras
}

// Extras are the deployment specific attributes. Only members whose feature
// is enabled in the profile are ever set.
type Extras struct {
	LibelleCaisse       *string
	Auteur              *string
	CollectionEtEtendu  *string
	ISBNEditeur         *string
	Theme               *string
	Etat                *condition.Condition
	LastModif           *time.Time
	DateDeParution      *time.Time
	FinCommerce         *time.Time
	Dispo               *string
	Title               *string
	EmplacementGSE      *string
	StockOrigine        *string
	Distri              *string
	GSEStatut           *bool
	PublicCible         *string
	RefDilicom          *string
	PresentationEditeur *string
	ThemeCode           *uint32
	CommandableDilicom  *bool
	BNFCadre            *string
	BNFSujet            *string
	PriceAdvisedTTC     *float64
	DMaj                *bool
	Ecommerce           *bool
	RakutenPresent      *bool
	RakutenID           *uint32
}

// Equal reports whether two records describe the same product. Only the
// reference is compared.
func Equal(a, b Record) bool {
	return a.Reference == b.Reference
}

// Compare orders records by reference.
func Compare(a, b Record) int {
	return strings.Compare(a.Reference, b.Reference)
}

func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Reference < records[j].Reference
	})
}
