package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"dolicat/internal"
	"dolicat/internal/product"
)

const optionsPrefix = "options_"

var reSpaces = regexp.MustCompile(`\s+`)

// ExtractFile reads raw records from a .json, .xlsx or .html file. kind
// overrides the extension when set ("json", "xlsx", "html").
func ExtractFile(path, kind string) ([]internal.RawRecord, internal.RecordSource, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}

	if kind == "" {
		kind = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch kind {
	case "json":
		records, err := ExtractJSON(content)
		return records, internal.SourceJSON, err
	case "xlsx", "xls":
		records, err := ExtractXLSX(content)
		return records, internal.SourceXLSX, err
	case "html", "htm":
		records, err := ExtractHTMLTable(string(content))
		return records, internal.SourceHTMLTable, err
	default:
		return nil, "", fmt.Errorf("unsupported input type: %q", kind)
	}
}

// ExtractJSON accepts either an array of product objects or a single one.
// Numbers are kept as json.Number.
func ExtractJSON(content []byte) ([]internal.RawRecord, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return nil, errors.New("empty json input")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if trimmed[0] == '{' {
		var one internal.RawRecord
		if err := dec.Decode(&one); err != nil {
			return nil, err
		}
		return []internal.RawRecord{one}, nil
	}

	var many []internal.RawRecord
	if err := dec.Decode(&many); err != nil {
		return nil, err
	}
	return many, nil
}

// ExtractXLSX reads every sheet. The first non-empty row of a sheet names the
// wire fields; options_* columns go into array_options.
func ExtractXLSX(content []byte) ([]internal.RawRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := []internal.RawRecord{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		var headers []string
		for _, row := range rows {
			cells := normalizeCells(row)
			if isBlankRow(cells) {
				continue
			}
			if headers == nil {
				headers = normalizeHeaders(cells)
				continue
			}
			if rec := rowToRecord(headers, cells); rec != nil {
				out = append(out, rec)
			}
		}
	}

	return out, nil
}

// ExtractHTMLTable reads every table with a header row and at least one data
// row.
func ExtractHTMLTable(html string) ([]internal.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	out := []internal.RawRecord{}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return
		}

		headers := []string{}
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, cell.Text())
		})
		headers = normalizeHeaders(normalizeCells(headers))

		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, normalizeSpaces(cell.Text()))
			})
			if rec := rowToRecord(headers, cells); rec != nil {
				out = append(out, rec)
			}
		})
	})

	return out, nil
}

// rowToRecord maps one table row onto wire names. Empty cells are left
// absent so defaults apply.
func rowToRecord(headers, cells []string) internal.RawRecord {
	rec := internal.RawRecord{}
	options := internal.RawRecord{}
	for i, h := range headers {
		if h == "" || i >= len(cells) || cells[i] == "" {
			continue
		}
		if strings.HasPrefix(h, optionsPrefix) {
			options[h] = cells[i]
			continue
		}
		rec[h] = cells[i]
	}
	if len(rec) == 0 && len(options) == 0 {
		return nil
	}
	if len(options) > 0 {
		rec[product.WireExtras] = options
	}
	return rec
}

func normalizeHeaders(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ToLower(strings.ReplaceAll(c, " ", "_"))
	}
	return out
}

func normalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

func normalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, normalizeSpaces(c))
	}
	return out
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
