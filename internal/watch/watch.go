package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"dolicat/internal/config"
	"dolicat/internal/pipeline"
	"dolicat/internal/product"
	"dolicat/internal/storage"
)

// Puller refreshes the local catalog from the ERP.
type Puller interface {
	Pull(ctx context.Context) (pipeline.ProcessResult, error)
}

type Service struct {
	db     *storage.DB
	cfg    config.Config
	puller Puller
}

func NewService(db *storage.DB, cfg config.Config, puller Puller) *Service {
	return &Service{db: db, cfg: cfg, puller: puller}
}

// Run pulls every WatchIntervalSec until ctx is done. A failed cycle is
// logged and retried on the next tick.
func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.WatchIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	for {
		if err := s.runCycle(ctx); err != nil {
			fmt.Printf("watch cycle error: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	res, err := s.puller.Pull(ctx)
	if err != nil {
		return err
	}

	if s.cfg.WatchAutoExport {
		if err := s.export(); err != nil {
			return err
		}
	}

	fmt.Printf("watch cycle done trace=%s stored=%d rejected=%d\n", res.TraceID, len(res.Records), len(res.Rejects))
	for _, r := range res.Rejects {
		fmt.Printf("  rejected #%d ref=%q field=%s: %s\n", r.Index, r.Reference, r.Field, r.Message)
	}
	return nil
}

func (s *Service) export() error {
	records, err := pipeline.LoadSnapshots(s.db)
	if err != nil {
		return err
	}

	dir := filepath.Join(s.cfg.OutputDir, "watch")
	if err := pipeline.ExportCatalogXLSX(records, s.cfg.Profile, filepath.Join(dir, "catalog.xlsx")); err != nil {
		return err
	}
	if s.cfg.Profile.Has(product.FeatureRakuten) {
		return pipeline.ExportJSON(records, s.cfg.Profile, pipeline.FormatListing, filepath.Join(dir, "listings.json"))
	}
	return nil
}
