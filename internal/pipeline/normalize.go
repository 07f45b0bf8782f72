package pipeline

import (
	"errors"

	"dolicat/internal"
	"dolicat/internal/decode"
	"dolicat/internal/product"
)

// Normalized is an assembled record together with the raw input it came from.
type Normalized struct {
	Index  int
	Record product.Record
	Raw    internal.RawRecord
}

// NormalizeRecords assembles every raw record. A record that fails is turned
// into a Reject and the rest of the batch carries on.
func NormalizeRecords(a *product.Assembler, raws []internal.RawRecord, source internal.RecordSource) ([]Normalized, []internal.Reject) {
	out := make([]Normalized, 0, len(raws))
	rejects := []internal.Reject{}

	for i, raw := range raws {
		rec, err := a.Assemble(raw)
		if err != nil {
			rejects = append(rejects, NewReject(i, source, raw, err))
			continue
		}
		out = append(out, Normalized{Index: i, Record: rec, Raw: raw})
	}

	return out, rejects
}

// Records returns the records of items in order.
func Records(items []Normalized) []product.Record {
	out := make([]product.Record, 0, len(items))
	for _, item := range items {
		out = append(out, item.Record)
	}
	return out
}

// NewReject describes why raw could not be assembled.
func NewReject(index int, source internal.RecordSource, raw internal.RawRecord, err error) internal.Reject {
	reject := internal.Reject{Index: index, Source: source, Message: err.Error()}
	if ref, ok := decode.Text(raw[product.WireRef]); ok {
		reject.Reference = ref
	}
	var de *decode.Error
	if errors.As(err, &de) {
		reject.Field = de.Field
		reject.Raw = de.Raw
	}
	return reject
}
