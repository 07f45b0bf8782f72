package product

import (
	"fmt"
	"sort"
	"strings"

	"dolicat/internal/condition"
)

// Feature enables a group of extra attributes. Names match the ERP
// extrafield groups configured per deployment.
type Feature string

const (
	FeatureLibelle             Feature = "ef_libelle"
	FeatureAuteur              Feature = "ef_auteur"
	FeatureCollection          Feature = "ef_collection"
	FeatureISBNEditeur         Feature = "ef_isbnediteur"
	FeatureTheme               Feature = "ef_theme"
	FeatureCondition           Feature = "condition"
	FeatureLastModif           Feature = "ef_last-modif"
	FeatureDateParution        Feature = "ef_datedeparution"
	FeatureFinCommerce         Feature = "ef_fincommerce"
	FeatureDilicom             Feature = "dilicom"
	FeatureTitle               Feature = "ef_title"
	FeatureGSE                 Feature = "gse"
	FeatureStockOrigin         Feature = "ef_stock_origin"
	FeaturePublicCible         Feature = "ef_public_cible"
	FeaturePresentationEditeur Feature = "ef_presentation_editeur"
	FeatureThemeCode           Feature = "ef_theme_code"
	FeatureBNF                 Feature = "bnf"
	FeatureAdvisedPrice        Feature = "ef_advised_price"
	FeatureEcommerce           Feature = "ef_ecommerce"
	FeatureRakuten             Feature = "rakuten"
)

// AllFeatures lists every known feature.
func AllFeatures() []Feature {
	return []Feature{
		FeatureLibelle, FeatureAuteur, FeatureCollection, FeatureISBNEditeur, FeatureTheme,
		FeatureCondition, FeatureLastModif, FeatureDateParution, FeatureFinCommerce, FeatureDilicom,
		FeatureTitle, FeatureGSE, FeatureStockOrigin, FeaturePublicCible, FeaturePresentationEditeur,
		FeatureThemeCode, FeatureBNF, FeatureAdvisedPrice, FeatureEcommerce, FeatureRakuten,
	}
}

func ParseFeature(s string) (Feature, error) {
	s = strings.TrimSpace(s)
	for _, f := range AllFeatures() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown feature: %s", s)
}

// ParseFeatures reads a comma separated feature list. "all" enables every feature.
func ParseFeatures(list string) ([]Feature, error) {
	if strings.TrimSpace(list) == "all" {
		return AllFeatures(), nil
	}
	var out []Feature
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseFeature(part)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Profile is the deployment's catalog shape: which extra attributes exist
// and which condition vocabulary is spoken. It is fixed for the life of a
// process.
type Profile struct {
	Locale   condition.Locale
	features map[Feature]bool
}

func NewProfile(locale condition.Locale, features ...Feature) Profile {
	p := Profile{Locale: locale, features: make(map[Feature]bool, len(features))}
	for _, f := range features {
		p.features[f] = true
	}
	return p
}

func (p Profile) Has(f Feature) bool {
	return p.features[f]
}

// Features returns the enabled features, sorted.
func (p Profile) Features() []Feature {
	out := make([]Feature, 0, len(p.features))
	for f, on := range p.features {
		if on {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Vocabulary is the condition vocabulary of the profile. Marketplace codes
// are accepted when the marketplace feature is enabled.
func (p Profile) Vocabulary() condition.Vocabulary {
	return condition.Vocabulary{Locale: p.Locale, Marketplace: p.Has(FeatureRakuten)}
}
