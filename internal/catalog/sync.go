package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dolicat/internal"
	"dolicat/internal/config"
	"dolicat/internal/encode"
	"dolicat/internal/pipeline"
	"dolicat/internal/product"
	"dolicat/internal/storage"
)

const lastPullKey = "catalog.last_pull"

type SyncService struct {
	db        *storage.DB
	client    *Client
	cfg       config.Config
	processor *pipeline.ProcessingService
	encoder   *encode.Encoder
}

func NewSyncService(db *storage.DB, cfg config.Config) *SyncService {
	return &SyncService{
		db:        db,
		client:    NewClient(cfg),
		cfg:       cfg,
		processor: pipeline.NewProcessingService(db, cfg),
		encoder:   encode.New(cfg.Profile),
	}
}

// Pull fetches the whole product list and stores a snapshot of every record
// that assembles.
func (s *SyncService) Pull(ctx context.Context) (pipeline.ProcessResult, error) {
	raws, err := s.client.ListProducts(ctx)
	if err != nil {
		return pipeline.ProcessResult{}, err
	}
	res, err := s.processor.Process(internal.SourceERP, raws)
	if err != nil {
		return pipeline.ProcessResult{}, err
	}
	_ = s.db.SetMetadata(lastPullKey, time.Now().UTC().Format(time.RFC3339))
	return res, nil
}

// LastPull returns when Pull last succeeded, nil if never.
func (s *SyncService) LastPull() (*time.Time, error) {
	v, err := s.db.GetMetadata(lastPullKey)
	if err != nil || v == nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, *v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type PushResult struct {
	Updated int
	Created int
	Rejects []internal.Reject
}

// Push writes records back to the ERP. A known reference is merged onto a
// fresh copy of the ERP product so protected fields keep the ERP's values;
// an unknown reference is created.
func (s *SyncService) Push(ctx context.Context, records []product.Record) (PushResult, error) {
	known, err := pipeline.LoadSnapshots(s.db)
	if err != nil {
		return PushResult{}, err
	}
	idx := BuildIndex(known)

	var res PushResult
	for i, rec := range records {
		stored, ok := idx.Reference(rec.Reference)
		if !ok || stored.RowID == 0 {
			if err := s.create(ctx, rec); err != nil {
				return res, fmt.Errorf("create %s: %w", rec.Reference, err)
			}
			res.Created++
			continue
		}

		baseRaw, err := s.client.GetProduct(ctx, stored.RowID)
		if errors.Is(err, ErrNotFound) {
			if err := s.create(ctx, rec); err != nil {
				return res, fmt.Errorf("create %s: %w", rec.Reference, err)
			}
			res.Created++
			continue
		}
		if err != nil {
			return res, err
		}

		base, err := s.processor.Assembler().Assemble(baseRaw)
		if err != nil {
			res.Rejects = append(res.Rejects, pipeline.NewReject(i, internal.SourceERP, baseRaw, err))
			continue
		}

		merged := product.Merge(base, rec)
		payload, err := s.encoder.ERPUpdate(merged)
		if err != nil {
			return res, err
		}
		if _, err := s.client.UpdateProduct(ctx, stored.RowID, payload); err != nil {
			return res, fmt.Errorf("update %s: %w", rec.Reference, err)
		}
		if err := s.processor.Store(merged, payload); err != nil {
			return res, err
		}
		res.Updated++
	}

	return res, nil
}

func (s *SyncService) create(ctx context.Context, rec product.Record) error {
	fields := s.encoder.ERPFields(rec)
	delete(fields, product.WireID)
	payload, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	id, err := s.client.CreateProduct(ctx, payload)
	if err != nil {
		return err
	}
	rec.RowID = id
	return s.processor.Store(rec, payload)
}
