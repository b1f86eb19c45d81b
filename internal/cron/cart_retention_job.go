package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	cartsvc "github.com/avelezquez/shopcart-backend/internal/cart"
	"github.com/avelezquez/shopcart-backend/pkg/logger"
)

const defaultCartRetention = 30 * 24 * time.Hour

type staleCartSweeper interface {
	SweepStaleCarts(ctx context.Context, cutoff time.Time) ([]cartsvc.SweepResult, error)
}

// CartRetentionJobParams configure the retention sweep.
type CartRetentionJobParams struct {
	Logger    *logger.Logger
	Sweeper   staleCartSweeper
	Retention time.Duration
}

// NewCartRetentionJob builds the job that removes carts idle past the
// retention window.
func NewCartRetentionJob(params CartRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("cart sweeper required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultCartRetention
	}
	return &cartRetentionJob{
		logg:      params.Logger,
		sweeper:   params.Sweeper,
		retention: retention,
		now:       time.Now,
	}, nil
}

type cartRetentionJob struct {
	logg      *logger.Logger
	sweeper   staleCartSweeper
	retention time.Duration
	now       func() time.Time
}

func (j *cartRetentionJob) Name() string { return "cart-retention" }

func (j *cartRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	results, err := j.sweeper.SweepStaleCarts(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("cart retention sweep: %w", err)
	}

	var removed int
	var failures []error
	for _, result := range results {
		if result.Err != nil {
			failures = append(failures, fmt.Errorf("%s", result.String()))
			continue
		}
		removed++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"scanned": len(results),
		"removed": removed,
		"failed":  len(failures),
	})
	j.logg.Info(logCtx, "cart retention sweep complete")
	return multierr.Combine(failures...)
}
