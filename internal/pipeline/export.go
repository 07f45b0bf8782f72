package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"dolicat/internal/encode"
	"dolicat/internal/product"
)

// Export formats of ExportJSON.
const (
	FormatJSON    = "json"
	FormatERP     = "erp"
	FormatListing = "listing"
)

var coreColumns = []string{
	product.WireID, product.WireRef, product.WireLabel, product.WireBarcode,
	product.WirePrice, product.WirePriceMin, product.WirePriceBaseType, product.WireCostPrice,
	product.WireStock, product.WireToBuy, product.WireToSell,
	product.WireWeight, product.WireWeightUnits, product.WireLength, product.WireLengthUnits,
	product.WireWidth, product.WireWidthUnits, product.WireHeight, product.WireHeightUnits,
	product.WireDateCreation, product.WireDateModification,
	product.WireDescription, product.WireNotePublic, product.WireNotePrivate,
}

// ExportCatalogXLSX writes one row per record in the ERP text form, so the
// sheet can be fed back through ExtractXLSX.
func ExportCatalogXLSX(records []product.Record, profile product.Profile, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	enc := encode.New(profile)

	headers := append([]string{}, coreColumns...)
	for _, ef := range profile.EnabledExtraFields() {
		headers = append(headers, ef.Wire)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, rec := range records {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		fields := enc.ERPFields(rec)
		extras, _ := fields[product.WireExtras].(map[string]any)
		if rec.Stock != nil {
			fields[product.WireStock] = *rec.Stock
		}
		for c, h := range headers {
			value, ok := fields[h]
			if !ok {
				value, ok = extras[h]
			}
			if ok {
				set(c+1, value)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// ExportJSON writes records as an indented JSON array in the given format.
func ExportJSON(records []product.Record, profile product.Profile, format, outputPath string) error {
	enc := encode.New(profile)

	var payload any
	switch format {
	case FormatJSON, "":
		rows := make([]map[string]any, 0, len(records))
		for _, rec := range records {
			rows = append(rows, enc.Fields(rec))
		}
		payload = rows
	case FormatERP:
		rows := make([]map[string]any, 0, len(records))
		for _, rec := range records {
			rows = append(rows, enc.ERPFields(rec))
		}
		payload = rows
	case FormatListing:
		rows := make([]encode.Listing, 0, len(records))
		for _, rec := range records {
			l, err := enc.Listing(rec)
			if err != nil {
				return fmt.Errorf("product %s: %w", rec.Reference, err)
			}
			rows = append(rows, l)
		}
		payload = rows
	default:
		return fmt.Errorf("unsupported export format: %q", format)
	}

	blob, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, blob, 0o644)
}
