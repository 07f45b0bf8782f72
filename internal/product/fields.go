package product

import (
	"time"

	"dolicat/internal/condition"
)

// Wire names of the core product fields.
const (
	WireID               = "id"
	WireRef              = "ref"
	WireLabel            = "label"
	WireDateCreation     = "date_creation"
	WireDateModification = "date_modification"
	WireDescription      = "description"
	WireNotePublic       = "note_public"
	WireNotePrivate      = "note_private"
	WireWeight           = "weight"
	WireWeightUnits      = "weight_units"
	WireLength           = "length"
	WireLengthUnits      = "length_units"
	WireWidth            = "width"
	WireWidthUnits       = "width_units"
	WireHeight           = "height"
	WireHeightUnits      = "height_units"
	WirePrice            = "price"
	WirePriceMin         = "price_min"
	WirePriceBaseType    = "price_base_type"
	WireCostPrice        = "cost_price"
	WireStock            = "stock_reel"
	WireBarcode          = "barcode"
	WireToBuy            = "status_buy"
	WireToSell           = "status"
	WireExtras           = "array_options"
)

type Kind uint8

const (
	// KindText is plain optional text; an empty string is a value.
	KindText Kind = iota
	// KindOptionalText treats "" and "null" as absent.
	KindOptionalText
	KindCondition
	// KindDate is a Unix timestamp decoded to a calendar date.
	KindDate
	KindOptionalBool
	KindUint32
	KindFloat
)

// ExtraField describes one member of Extras.
type ExtraField struct {
	Wire    string
	Feature Feature
	Kind    Kind
	// AlwaysEmit fields are written as 0/1 even when absent.
	AlwaysEmit bool
	ref        func(*Extras) any
}

var extraFields = []ExtraField{
	{Wire: "options_libelle_caisse", Feature: FeatureLibelle, Kind: KindText, ref: func(e *Extras) any { return &e.LibelleCaisse }},
	{Wire: "options_auteur", Feature: FeatureAuteur, Kind: KindText, ref: func(e *Extras) any { return &e.Auteur }},
	{Wire: "options_collection_et_etendu", Feature: FeatureCollection, Kind: KindText, ref: func(e *Extras) any { return &e.CollectionEtEtendu }},
	{Wire: "options_isbnediteur", Feature: FeatureISBNEditeur, Kind: KindText, ref: func(e *Extras) any { return &e.ISBNEditeur }},
	{Wire: "options_theme", Feature: FeatureTheme, Kind: KindText, ref: func(e *Extras) any { return &e.Theme }},
	{Wire: "options_etat", Feature: FeatureCondition, Kind: KindCondition, ref: func(e *Extras) any { return &e.Etat }},
	{Wire: "options_last_modif", Feature: FeatureLastModif, Kind: KindDate, ref: func(e *Extras) any { return &e.LastModif }},
	{Wire: "options_datedeparution", Feature: FeatureDateParution, Kind: KindDate, ref: func(e *Extras) any { return &e.DateDeParution }},
	{Wire: "options_fincommerce", Feature: FeatureFinCommerce, Kind: KindDate, ref: func(e *Extras) any { return &e.FinCommerce }},
	{Wire: "options_dispo", Feature: FeatureDilicom, Kind: KindText, ref: func(e *Extras) any { return &e.Dispo }},
	{Wire: "options_title", Feature: FeatureTitle, Kind: KindText, ref: func(e *Extras) any { return &e.Title }},
	{Wire: "options_emplacement_gse", Feature: FeatureGSE, Kind: KindText, ref: func(e *Extras) any { return &e.EmplacementGSE }},
	{Wire: "options_stock_origine", Feature: FeatureStockOrigin, Kind: KindText, ref: func(e *Extras) any { return &e.StockOrigine }},
	{Wire: "options_distri", Feature: FeatureDilicom, Kind: KindText, ref: func(e *Extras) any { return &e.Distri }},
	{Wire: "options_gse_statut", Feature: FeatureGSE, Kind: KindOptionalBool, AlwaysEmit: true, ref: func(e *Extras) any { return &e.GSEStatut }},
	{Wire: "options_public_cible", Feature: FeaturePublicCible, Kind: KindText, ref: func(e *Extras) any { return &e.PublicCible }},
	{Wire: "options_ref_dilicom", Feature: FeatureDilicom, Kind: KindText, ref: func(e *Extras) any { return &e.RefDilicom }},
	{Wire: "options_presentation_editeur", Feature: FeaturePresentationEditeur, Kind: KindText, ref: func(e *Extras) any { return &e.PresentationEditeur }},
	{Wire: "options_theme_code", Feature: FeatureThemeCode, Kind: KindUint32, ref: func(e *Extras) any { return &e.ThemeCode }},
	{Wire: "options_commandable_dilicom", Feature: FeatureDilicom, Kind: KindOptionalBool, ref: func(e *Extras) any { return &e.CommandableDilicom }},
	{Wire: "options_bnf_cadre", Feature: FeatureBNF, Kind: KindText, ref: func(e *Extras) any { return &e.BNFCadre }},
	{Wire: "options_bnf_sujet", Feature: FeatureBNF, Kind: KindOptionalText, ref: func(e *Extras) any { return &e.BNFSujet }},
	{Wire: "options_price_advised", Feature: FeatureAdvisedPrice, Kind: KindFloat, ref: func(e *Extras) any { return &e.PriceAdvisedTTC }},
	{Wire: "options_dmaj", Feature: FeatureDilicom, Kind: KindOptionalBool, AlwaysEmit: true, ref: func(e *Extras) any { return &e.DMaj }},
	{Wire: "options_enable_ecommerce", Feature: FeatureEcommerce, Kind: KindOptionalBool, AlwaysEmit: true, ref: func(e *Extras) any { return &e.Ecommerce }},
	{Wire: "options_rakuten_present", Feature: FeatureRakuten, Kind: KindOptionalBool, AlwaysEmit: true, ref: func(e *Extras) any { return &e.RakutenPresent }},
	{Wire: "options_rakuten_id", Feature: FeatureRakuten, Kind: KindUint32, ref: func(e *Extras) any { return &e.RakutenID }},
}

// ExtraFields returns the descriptors of every Extras member in wire order.
func ExtraFields() []ExtraField {
	out := make([]ExtraField, len(extraFields))
	copy(out, extraFields)
	return out
}

// EnabledExtraFields returns the descriptors whose feature the profile enables.
func (p Profile) EnabledExtraFields() []ExtraField {
	out := make([]ExtraField, 0, len(extraFields))
	for _, f := range extraFields {
		if p.Has(f.Feature) {
			out = append(out, f)
		}
	}
	return out
}

// Value returns the member's value as a typed pointer (*string, *bool,
// *uint32, *float64, *time.Time or *condition.Condition); nil when absent.
func (f ExtraField) Value(e *Extras) any {
	switch p := f.ref(e).(type) {
	case **string:
		return *p
	case **bool:
		return *p
	case **uint32:
		return *p
	case **float64:
		return *p
	case **time.Time:
		return *p
	case **condition.Condition:
		return *p
	}
	return nil
}

// Set stores a typed pointer of the member's type. A value of another type
// is ignored.
func (f ExtraField) Set(e *Extras, v any) {
	switch p := f.ref(e).(type) {
	case **string:
		*p, _ = v.(*string)
	case **bool:
		*p, _ = v.(*bool)
	case **uint32:
		*p, _ = v.(*uint32)
	case **float64:
		*p, _ = v.(*float64)
	case **time.Time:
		*p, _ = v.(*time.Time)
	case **condition.Condition:
		*p, _ = v.(*condition.Condition)
	}
}

// IsSet reports whether the member holds a value.
func (f ExtraField) IsSet(e *Extras) bool {
	switch v := f.Value(e).(type) {
	case *string:
		return v != nil
	case *bool:
		return v != nil
	case *uint32:
		return v != nil
	case *float64:
		return v != nil
	case *time.Time:
		return v != nil
	case *condition.Condition:
		return v != nil
	}
	return false
}
