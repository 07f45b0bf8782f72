package product

import (
	"fmt"
	"time"

	"dolicat/internal"
	"dolicat/internal/condition"
	"dolicat/internal/decode"
)

// Assembler builds canonical records for one profile. It holds no mutable
// state and may be shared between goroutines.
type Assembler struct {
	profile  Profile
	vocab    condition.Vocabulary
	defaults Defaults
}

func NewAssembler(profile Profile) *Assembler {
	return &Assembler{profile: profile, vocab: profile.Vocabulary(), defaults: DefaultTable()}
}

// WithDefaults returns a copy of the assembler using d as its default table.
func (a *Assembler) WithDefaults(d Defaults) *Assembler {
	out := *a
	out.defaults = d.clone()
	return &out
}

func (a *Assembler) Profile() Profile {
	return a.profile
}

// New returns a record carrying only the identity and the default table.
func (a *Assembler) New(reference, label string) Record {
	rec := Record{
		Reference:      reference,
		Label:          label,
		PoidsUnits:     a.defaults.int8Ptr(WireWeightUnits),
		LongueurUnits:  a.defaults.int8Ptr(WireLengthUnits),
		LargeurUnits:   a.defaults.int8Ptr(WireWidthUnits),
		EpaisseurUnits: a.defaults.int8Ptr(WireHeightUnits),
		PriceBaseType:  a.defaults.stringPtr(WirePriceBaseType),
		ToBuy:          a.defaults.boolValue(WireToBuy),
		ToSell:         a.defaults.boolValue(WireToSell),
	}
	rec.Extras, _ = a.assembleExtras(nil)
	return rec
}

// Assemble decodes one raw ERP record. Missing optional fields take their
// defaults; malformed identity, strict flags and explicitly present optional
// values fail the record.
func (a *Assembler) Assemble(raw internal.RawRecord) (Record, error) {
	rec, err := a.assemble(raw)
	if err != nil {
		if ref, ok := raw[WireRef].(string); ok && ref != "" {
			return Record{}, fmt.Errorf("product %s: %w", ref, err)
		}
		return Record{}, fmt.Errorf("product: %w", err)
	}
	return rec, nil
}

func (a *Assembler) assemble(raw internal.RawRecord) (Record, error) {
	r := &fieldReader{raw: raw, defaults: a.defaults}
	var rec Record

	rec.RowID = required(r, WireID, decode.ParseUint32)
	rec.Reference = required(r, WireRef, decode.ParseString)
	rec.Label = required(r, WireLabel, decode.ParseString)
	if r.err == nil && rec.Reference == "" {
		r.err = &decode.Error{Field: WireRef, Err: decode.ErrInvalid}
	}

	rec.DateCreation = r.dateTime(WireDateCreation)
	rec.DateModification = r.dateTime(WireDateModification)
	rec.Description = r.text(WireDescription)
	rec.NotePublic = r.text(WireNotePublic)
	rec.NotePrivate = r.text(WireNotePrivate)
	rec.Barcode = r.text(WireBarcode)

	rec.Poids = optional(r, WireWeight, decode.ParseFloat)
	rec.PoidsUnits = r.units(WireWeightUnits)
	rec.Longueur = optional(r, WireLength, decode.ParseFloat)
	rec.LongueurUnits = r.units(WireLengthUnits)
	rec.Largeur = optional(r, WireWidth, decode.ParseFloat)
	rec.LargeurUnits = r.units(WireWidthUnits)
	rec.Epaisseur = optional(r, WireHeight, decode.ParseFloat)
	rec.EpaisseurUnits = r.units(WireHeightUnits)

	v, ok := raw[WirePrice]
	rec.Price = decode.Float(v, ok)
	rec.PriceMin = optional(r, WirePriceMin, decode.ParseFloat)
	rec.CostPrice = optional(r, WireCostPrice, decode.ParseFloat)
	if _, ok := raw[WirePriceBaseType]; ok {
		rec.PriceBaseType = r.text(WirePriceBaseType)
	} else {
		rec.PriceBaseType = a.defaults.stringPtr(WirePriceBaseType)
	}
	rec.Stock = optional(r, WireStock, decode.ParseInt32)

	rec.ToBuy = r.flag(WireToBuy)
	rec.ToSell = r.flag(WireToSell)

	if r.err != nil {
		return Record{}, r.err
	}

	extras, err := a.assembleExtras(raw[WireExtras])
	if err != nil {
		return Record{}, err
	}
	rec.Extras = extras
	return rec, nil
}

func (a *Assembler) assembleExtras(raw any) (Extras, error) {
	var extras Extras
	opts, err := extrasMap(raw)
	if err != nil {
		return extras, err
	}
	r := &fieldReader{raw: opts, defaults: a.defaults}
	for _, f := range a.profile.EnabledExtraFields() {
		v, ok := opts[f.Wire]
		if !ok {
			f.Set(&extras, a.defaults.ptr(f.Wire))
			continue
		}
		switch f.Kind {
		case KindText:
			f.Set(&extras, decode.OptionalString(v, true))
		case KindOptionalText:
			f.Set(&extras, optional(r, f.Wire, decode.ParseString))
		case KindCondition:
			s, _ := decode.Text(v)
			c := a.vocab.Parse(s)
			f.Set(&extras, &c)
		case KindDate:
			f.Set(&extras, r.date(f.Wire))
		case KindOptionalBool:
			f.Set(&extras, r.optionalBool(f.Wire))
		case KindUint32:
			f.Set(&extras, optional(r, f.Wire, decode.ParseUint32))
		case KindFloat:
			f.Set(&extras, optional(r, f.Wire, decode.ParseFloat))
		}
		if r.err != nil {
			return Extras{}, r.err
		}
	}
	return extras, nil
}

// extrasMap accepts an object, nothing, or the empty array the ERP sends
// for products without extra fields.
func extrasMap(v any) (internal.RawRecord, error) {
	switch t := v.(type) {
	case nil:
		return internal.RawRecord{}, nil
	case internal.RawRecord:
		return t, nil
	case map[string]any:
		return internal.RawRecord(t), nil
	case []any:
		if len(t) == 0 {
			return internal.RawRecord{}, nil
		}
	}
	return nil, &decode.Error{Field: WireExtras, Err: decode.ErrInvalid}
}

// fieldReader keeps the first decoding error and turns later reads into
// no-ops.
type fieldReader struct {
	raw      internal.RawRecord
	defaults Defaults
	err      error
}

func required[T any](r *fieldReader, name string, parse func(string) (T, error)) T {
	var zero T
	if r.err != nil {
		return zero
	}
	v, ok := r.raw[name]
	out, err := decode.Required(name, v, ok, parse)
	if err != nil {
		r.err = err
	}
	return out
}

func optional[T any](r *fieldReader, name string, parse func(string) (T, error)) *T {
	if r.err != nil {
		return nil
	}
	v, ok := r.raw[name]
	out, err := decode.Optional(name, v, ok, parse)
	if err != nil {
		r.err = err
	}
	return out
}

func (r *fieldReader) text(name string) *string {
	v, ok := r.raw[name]
	return decode.OptionalString(v, ok)
}

func (r *fieldReader) units(name string) *int8 {
	if _, ok := r.raw[name]; !ok {
		return r.defaults.int8Ptr(name)
	}
	return optional(r, name, decode.ParseInt8)
}

func (r *fieldReader) flag(name string) bool {
	v, ok := r.raw[name]
	if !ok {
		return r.defaults.boolValue(name)
	}
	if r.err != nil {
		return false
	}
	out, err := decode.Bool(name, v, ok)
	if err != nil {
		r.err = err
	}
	return out
}

func (r *fieldReader) optionalBool(name string) *bool {
	if r.err != nil {
		return nil
	}
	v, ok := r.raw[name]
	out, err := decode.OptionalBool(name, v, ok)
	if err != nil {
		r.err = err
	}
	return out
}

func (r *fieldReader) date(name string) *time.Time {
	if r.err != nil {
		return nil
	}
	v, ok := r.raw[name]
	out, err := decode.OptionalTimestamp(name, v, ok)
	if err != nil {
		r.err = err
	}
	return out
}

func (r *fieldReader) dateTime(name string) *time.Time {
	if r.err != nil {
		return nil
	}
	v, ok := r.raw[name]
	out, err := decode.OptionalDateTime(name, v, ok)
	if err != nil {
		r.err = err
	}
	return out
}
