package product

// Defaults maps a wire name to the value used when the field is missing
// from a record at assembly time. A nil entry means the field stays absent.
// Present but unparsable values never fall back to these.
type Defaults map[string]any

// DefaultTable is the stock default set. Unit codes -3 denote the metric
// base unit scaled by 10^-3 (grams, millimetres).
func DefaultTable() Defaults {
	return Defaults{
		WireWeightUnits:            int8(-3),
		WireLengthUnits:            int8(-3),
		WireWidthUnits:             int8(-3),
		WireHeightUnits:            int8(-3),
		WirePriceBaseType:          "HT",
		WireToSell:                 true,
		"options_gse_statut":       true,
		"options_enable_ecommerce": true,
		"options_rakuten_present":  true,
		"options_dmaj":             nil,
	}
}

func (d Defaults) clone() Defaults {
	out := make(Defaults, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// ptr returns the default for wire as a freshly allocated typed pointer, or
// nil when there is none.
func (d Defaults) ptr(wire string) any {
	switch v := d[wire].(type) {
	case string:
		return &v
	case bool:
		return &v
	case int8:
		return &v
	case uint32:
		return &v
	case float64:
		return &v
	}
	return nil
}

func (d Defaults) int8Ptr(wire string) *int8 {
	p, _ := d.ptr(wire).(*int8)
	return p
}

func (d Defaults) stringPtr(wire string) *string {
	p, _ := d.ptr(wire).(*string)
	return p
}

func (d Defaults) boolValue(wire string) bool {
	v, _ := d[wire].(bool)
	return v
}
