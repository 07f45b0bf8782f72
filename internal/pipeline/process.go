package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dolicat/internal"
	"dolicat/internal/config"
	"dolicat/internal/encode"
	"dolicat/internal/product"
	"dolicat/internal/storage"
)

type ProcessingService struct {
	db        *storage.DB
	cfg       config.Config
	assembler *product.Assembler
}

func NewProcessingService(db *storage.DB, cfg config.Config) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg, assembler: product.NewAssembler(cfg.Profile)}
}

type ProcessResult struct {
	RunID   int64
	TraceID string
	Records []product.Record
	Rejects []internal.Reject
}

func (s *ProcessingService) Assembler() *product.Assembler {
	return s.assembler
}

// Process normalizes a batch, stores a snapshot per accepted record and
// records the run with its rejects.
func (s *ProcessingService) Process(source internal.RecordSource, raws []internal.RawRecord) (ProcessResult, error) {
	start := time.Now()
	traceID := uuid.NewString()

	items, rejects := NormalizeRecords(s.assembler, raws, source)
	normalizedAt := time.Now()

	stored := make([]internal.StoredProduct, 0, len(items))
	for _, item := range items {
		rawJSON, err := json.Marshal(item.Raw)
		if err != nil {
			return ProcessResult{}, err
		}
		sp, err := ToStored(item.Record, rawJSON)
		if err != nil {
			return ProcessResult{}, fmt.Errorf("product %s: %w", item.Record.Reference, err)
		}
		stored = append(stored, sp)
	}
	if err := s.db.UpsertProducts(stored); err != nil {
		return ProcessResult{}, err
	}

	timings := map[string]float64{
		"normalizeMs": float64(normalizedAt.Sub(start).Milliseconds()),
		"totalMs":     float64(time.Since(start).Milliseconds()),
	}
	counts := map[string]int{"input": len(raws), "stored": len(stored), "rejected": len(rejects)}
	runID, err := s.db.InsertRun(traceID, string(source), timings, counts)
	if err != nil {
		return ProcessResult{}, err
	}
	if err := s.db.InsertRejects(runID, rejects); err != nil {
		return ProcessResult{}, err
	}

	return ProcessResult{RunID: runID, TraceID: traceID, Records: Records(items), Rejects: rejects}, nil
}

// Store snapshots records that were not produced by Process, such as the
// merged result of a push. rawJSON is what was sent to the ERP.
func (s *ProcessingService) Store(rec product.Record, rawJSON []byte) error {
	sp, err := ToStored(rec, rawJSON)
	if err != nil {
		return err
	}
	return s.db.UpsertProducts([]internal.StoredProduct{sp})
}

func ToStored(rec product.Record, rawJSON []byte) (internal.StoredProduct, error) {
	snapshot, err := encode.MarshalSnapshot(rec)
	if err != nil {
		return internal.StoredProduct{}, err
	}
	return internal.StoredProduct{
		Reference: rec.Reference,
		RowID:     rec.RowID,
		Label:     rec.Label,
		Price:     rec.Price,
		Snapshot:  snapshot,
		RawJSON:   string(rawJSON),
	}, nil
}

// LoadSnapshots reads every stored record, ordered by reference.
func LoadSnapshots(db *storage.DB) ([]product.Record, error) {
	stored, err := db.ListProducts()
	if err != nil {
		return nil, err
	}
	out := make([]product.Record, 0, len(stored))
	for _, sp := range stored {
		rec, err := encode.UnmarshalSnapshot(sp.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", sp.Reference, err)
		}
		out = append(out, rec)
	}
	product.Sort(out)
	return out, nil
}
