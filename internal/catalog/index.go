package catalog

import (
	"dolicat/internal/product"
	"dolicat/internal/util"
)

// Index looks records up by reference, row id or barcode. References must
// match exactly; barcodes are compared in their normalized code form.
type Index struct {
	ByReference map[string]product.Record
	ByRowID     map[uint32]product.Record
	ByBarcode   map[string][]product.Record
}

func BuildIndex(records []product.Record) *Index {
	idx := &Index{
		ByReference: map[string]product.Record{},
		ByRowID:     map[uint32]product.Record{},
		ByBarcode:   map[string][]product.Record{},
	}

	for _, r := range records {
		idx.ByReference[r.Reference] = r
		if r.RowID != 0 {
			idx.ByRowID[r.RowID] = r
		}
		if r.Barcode != nil {
			if code := util.NormalizeCode(*r.Barcode); code != "" {
				idx.ByBarcode[code] = append(idx.ByBarcode[code], r)
			}
		}
	}

	return idx
}

func (idx *Index) Reference(ref string) (product.Record, bool) {
	r, ok := idx.ByReference[ref]
	return r, ok
}

func (idx *Index) RowID(id uint32) (product.Record, bool) {
	r, ok := idx.ByRowID[id]
	return r, ok
}

func (idx *Index) Barcode(code string) []product.Record {
	return idx.ByBarcode[util.NormalizeCode(code)]
}

func (idx *Index) Len() int {
	return len(idx.ByReference)
}
