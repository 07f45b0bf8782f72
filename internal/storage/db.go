package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"dolicat/internal"
)

type DB struct {
	conn *sqlx.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS products (
  reference TEXT PRIMARY KEY,
  row_id INTEGER NOT NULL,
  label TEXT NOT NULL,
  price REAL NOT NULL,
  snapshot BLOB NOT NULL,
  raw_json TEXT NOT NULL,
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_rowid ON products(row_id);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  source TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rejects (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  recordIndex INTEGER NOT NULL,
  source TEXT NOT NULL,
  reference TEXT NOT NULL,
  field TEXT NOT NULL,
  raw TEXT NOT NULL,
  message TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(runId) REFERENCES runs(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertProducts(products []internal.StoredProduct) error {
	tx, err := d.conn.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareNamed(`
INSERT INTO products (reference, row_id, label, price, snapshot, raw_json, lastSeenAt)
VALUES (:reference, :row_id, :label, :price, :snapshot, :raw_json, CURRENT_TIMESTAMP)
ON CONFLICT(reference) DO UPDATE SET
  row_id=excluded.row_id,
  label=excluded.label,
  price=excluded.price,
  snapshot=excluded.snapshot,
  raw_json=excluded.raw_json,
  lastSeenAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err := stmt.Exec(p); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListProducts() ([]internal.StoredProduct, error) {
	var out []internal.StoredProduct
	err := d.conn.Select(&out, `
SELECT reference, row_id, label, price, snapshot, raw_json, lastSeenAt
FROM products ORDER BY reference ASC`)
	return out, err
}

func (d *DB) GetProduct(reference string) (*internal.StoredProduct, error) {
	var p internal.StoredProduct
	err := d.conn.Get(&p, `
SELECT reference, row_id, label, price, snapshot, raw_json, lastSeenAt
FROM products WHERE reference = ?`, reference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DB) CountProducts() (int, error) {
	var n int
	err := d.conn.Get(&n, `SELECT COUNT(*) FROM products`)
	return n, err
}

func (d *DB) InsertRun(traceID, source string, timings map[string]float64, counts map[string]int) (int64, error) {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	result, err := d.conn.Exec(`INSERT INTO runs (traceId, source, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, source, string(timingsJSON), string(countsJSON))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (d *DB) LastRun() (*internal.RunRow, error) {
	var row internal.RunRow
	err := d.conn.Get(&row, `
SELECT id, traceId, source, timingsJson, countsJson, createdAt
FROM runs ORDER BY id DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) InsertRejects(runID int64, rejects []internal.Reject) error {
	if len(rejects) == 0 {
		return nil
	}
	tx, err := d.conn.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range rejects {
		if _, err := tx.Exec(`
INSERT INTO rejects (runId, recordIndex, source, reference, field, raw, message)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, runID, r.Index, string(r.Source), r.Reference, r.Field, r.Raw, r.Message); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *DB) ListRejects(runID int64) ([]internal.Reject, error) {
	var out []internal.Reject
	err := d.conn.Select(&out, `
SELECT recordIndex, source, reference, field, raw, message
FROM rejects WHERE runId = ? ORDER BY recordIndex ASC`, runID)
	return out, err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.Get(&value, `SELECT value FROM metadata WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
