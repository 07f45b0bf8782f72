package internal

// RawRecord is one ERP product as decoded from JSON, keyed by wire name.
// Values are mostly strings; array_options holds a nested RawRecord or
// map[string]any.
type RawRecord map[string]any

type RecordSource string

const (
	SourceERP       RecordSource = "erp"
	SourceJSON      RecordSource = "json"
	SourceXLSX      RecordSource = "xlsx"
	SourceHTMLTable RecordSource = "html_table"
)

// Reject is a record that failed to assemble. The rest of its batch is kept.
type Reject struct {
	Index     int          `json:"index" db:"recordIndex"`
	Source    RecordSource `json:"source" db:"source"`
	Reference string       `json:"reference" db:"reference"`
	Field     string       `json:"field" db:"field"`
	Raw       string       `json:"raw" db:"raw"`
	Message   string       `json:"message" db:"message"`
}

// StoredProduct is the persisted form of a normalized record.
type StoredProduct struct {
	Reference  string  `db:"reference"`
	RowID      uint32  `db:"row_id"`
	Label      string  `db:"label"`
	Price      float64 `db:"price"`
	Snapshot   []byte  `db:"snapshot"`
	RawJSON    string  `db:"raw_json"`
	LastSeenAt string  `db:"lastSeenAt"`
}

type RunRow struct {
	ID          int64  `db:"id"`
	TraceID     string `db:"traceId"`
	Source      string `db:"source"`
	TimingsJSON string `db:"timingsJson"`
	CountsJSON  string `db:"countsJson"`
	CreatedAt   string `db:"createdAt"`
}

// CustomerData is a third party contact as returned by the ERP.
type CustomerData struct {
	ID      uint32 `json:"id,string"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Zip     string `json:"zip"`
	Town    string `json:"town"`
}

// Document is an order or an invoice; both share these attributes.
type Document struct {
	ID        uint32  `json:"id,string"`
	Reference string  `json:"ref"`
	Price     float64 `json:"total_ht,string"`
	Lines     []Line  `json:"lines"`
}

type Line struct {
	ID        uint32 `json:"id,string"`
	Qty       uint32 `json:"qty,string"`
	FKProduct uint32 `json:"fk_product,string"`
}
