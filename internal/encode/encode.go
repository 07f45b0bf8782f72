// Package encode writes canonical product records in the shapes expected by
// their consumers: plain JSON, ERP update payloads, marketplace listings and
// binary snapshots.
package encode

import (
	"encoding/json"
	"strconv"
	"time"

	"dolicat/internal/condition"
	"dolicat/internal/decode"
	"dolicat/internal/product"
)

// DateLayout is used for calendar dates in JSON output.
const DateLayout = "2006-01-02"

// Encoder is bound to one profile; members of disabled features are never
// written.
type Encoder struct {
	profile product.Profile
	vocab   condition.Vocabulary
}

func New(profile product.Profile) *Encoder {
	return &Encoder{profile: profile, vocab: profile.Vocabulary()}
}

type style uint8

const (
	// native keeps JSON numbers and booleans.
	native style = iota
	// erpText writes numbers and flags as the strings the ERP sends.
	erpText
)

// JSON encodes the record with wire names and native JSON types.
func (e *Encoder) JSON(r product.Record) ([]byte, error) {
	return json.Marshal(e.Fields(r))
}

func (e *Encoder) Fields(r product.Record) map[string]any {
	return e.fields(r, native)
}

// ERPUpdate encodes the record as an ERP create/update payload. Values are
// written back in their wire text form so that assembling the payload again
// yields the same record.
func (e *Encoder) ERPUpdate(r product.Record) ([]byte, error) {
	return json.Marshal(e.ERPFields(r))
}

func (e *Encoder) ERPFields(r product.Record) map[string]any {
	return e.fields(r, erpText)
}

func (e *Encoder) fields(r product.Record, s style) map[string]any {
	out := map[string]any{
		product.WireID:     s.uint(uint64(r.RowID)),
		product.WireRef:    r.Reference,
		product.WireLabel:  r.Label,
		product.WirePrice:  s.float(r.Price),
		product.WireToBuy:  s.flag(r.ToBuy),
		product.WireToSell: s.flag(r.ToSell),
	}
	putDateTime(out, product.WireDateCreation, r.DateCreation)
	putDateTime(out, product.WireDateModification, r.DateModification)
	putString(out, product.WireDescription, r.Description)
	putString(out, product.WireNotePublic, r.NotePublic)
	putString(out, product.WireNotePrivate, r.NotePrivate)
	putString(out, product.WireBarcode, r.Barcode)
	putString(out, product.WirePriceBaseType, r.PriceBaseType)

	s.putFloat(out, product.WireWeight, r.Poids)
	s.putInt8(out, product.WireWeightUnits, r.PoidsUnits)
	s.putFloat(out, product.WireLength, r.Longueur)
	s.putInt8(out, product.WireLengthUnits, r.LongueurUnits)
	s.putFloat(out, product.WireWidth, r.Largeur)
	s.putInt8(out, product.WireWidthUnits, r.LargeurUnits)
	s.putFloat(out, product.WireHeight, r.Epaisseur)
	s.putInt8(out, product.WireHeightUnits, r.EpaisseurUnits)
	s.putFloat(out, product.WirePriceMin, r.PriceMin)
	s.putFloat(out, product.WireCostPrice, r.CostPrice)

	out[product.WireExtras] = e.extras(&r.Extras, s)
	return out
}

func (e *Encoder) extras(ex *product.Extras, s style) map[string]any {
	out := map[string]any{}
	for _, f := range e.profile.EnabledExtraFields() {
		switch v := f.Value(ex).(type) {
		case *string:
			putString(out, f.Wire, v)
		case *bool:
			if f.AlwaysEmit {
				out[f.Wire] = boolInt(v)
			} else if v != nil {
				out[f.Wire] = s.flag(*v)
			}
		case *uint32:
			if v != nil {
				out[f.Wire] = s.uint(uint64(*v))
			}
		case *float64:
			s.putFloat(out, f.Wire, v)
		case *time.Time:
			if v != nil {
				out[f.Wire] = s.date(*v)
			}
		case *condition.Condition:
			if v != nil {
				out[f.Wire] = e.vocab.Display(*v)
			}
		}
	}
	return out
}

func boolInt(b *bool) int {
	if b != nil && *b {
		return 1
	}
	return 0
}

func (s style) uint(v uint64) any {
	if s == erpText {
		return strconv.FormatUint(v, 10)
	}
	return v
}

func (s style) float(v float64) any {
	if s == erpText {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return v
}

func (s style) flag(v bool) any {
	if s == erpText {
		if v {
			return "1"
		}
		return "0"
	}
	return v
}

// date writes a calendar date. The ERP form is the Unix timestamp the
// decoder shifts forward by one day, so the shift is undone here.
func (s style) date(d time.Time) any {
	if s == erpText {
		return strconv.FormatInt(d.AddDate(0, 0, -1).Unix(), 10)
	}
	return d.Format(DateLayout)
}

func (s style) putFloat(out map[string]any, key string, v *float64) {
	if v != nil {
		out[key] = s.float(*v)
	}
}

func (s style) putInt8(out map[string]any, key string, v *int8) {
	if v == nil {
		return
	}
	if s == erpText {
		out[key] = strconv.Itoa(int(*v))
		return
	}
	out[key] = *v
}

func putString(out map[string]any, key string, v *string) {
	if v != nil {
		out[key] = *v
	}
}

func putDateTime(out map[string]any, key string, v *time.Time) {
	if v != nil {
		out[key] = v.UTC().Format(decode.DateTimeLayout)
	}
}
