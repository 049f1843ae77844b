package history

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	appconfig "oiflow/config"
	"oiflow/internal/archive"
	"oiflow/internal/models"
	"oiflow/internal/snapshot"
	"oiflow/internal/store"
	"oiflow/logger"
)

const (
	compactDateLayout = "20060102"
	isoDateLayout     = "2006-01-02"
)

// ArchiveKey derives the object key holding one day's archive.
func ArchiveKey(prefix string, day time.Time) string {
	return prefix + day.Format(compactDateLayout) + ".csv.lz4"
}

// Builder walks the requested date range one UTC day at a time and reduces
// each day to a single aggregate: manual override first, then the archive if
// the object exists, otherwise the day is left out of the series. A bad day
// never aborts the run.
type Builder struct {
	cfg       *appconfig.Config
	store     store.ObjectStore
	overrides models.OverrideTable
	limiter   *rate.Limiter
	log       *logger.Log

	// now is the upper bound of the iteration, injectable for tests.
	now func() time.Time
}

// NewBuilder wires a builder for one run. The overrides table may be nil.
func NewBuilder(cfg *appconfig.Config, objStore store.ObjectStore, overrides models.OverrideTable) *Builder {
	limit := rate.Inf
	if cfg.History.FetchRatePerSec > 0 {
		limit = rate.Limit(cfg.History.FetchRatePerSec)
	}
	return &Builder{
		cfg:       cfg,
		store:     objStore,
		overrides: overrides,
		limiter:   rate.NewLimiter(limit, 1),
		log:       logger.GetLogger(),
		now:       time.Now,
	}
}

// Run rebuilds the full series from the configured start date through the
// current UTC day. The availability index is built once up front; a listing
// failure is fatal because key absence is what decides "skip, don't fetch".
func (b *Builder) Run(ctx context.Context) (models.HistorySeries, models.RunStats, error) {
	log := b.log.WithComponent("history_builder")
	stats := models.RunStats{}

	start, err := time.ParseInLocation(compactDateLayout, b.cfg.History.StartDate, time.UTC)
	if err != nil {
		return nil, stats, fmt.Errorf("parse start date '%s': %w", b.cfg.History.StartDate, err)
	}

	available, err := b.store.List(ctx, b.cfg.History.Prefix)
	if err != nil {
		return nil, stats, fmt.Errorf("build availability index: %w", err)
	}

	end := b.now().UTC().Truncate(24 * time.Hour)
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 0 {
		days = 0
	}
	series := make(models.HistorySeries, 0, days)

	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		date := cur.Format(isoDateLayout)

		if value, ok := b.overrides[date]; ok {
			series = append(series, models.DailyAggregate{Date: date, TotalOI: value})
			stats.DaysEmitted++
			stats.DaysOverridden++
			log.WithFields(logger.Fields{"date": date, "total_oi": value}).Info("using manual override")
			continue
		}

		key := ArchiveKey(b.cfg.History.Prefix, cur)
		if _, ok := available[key]; !ok {
			stats.DaysMissing++
			log.WithFields(logger.Fields{"date": date, "key": key}).Debug("archive missing; skipping day")
			continue
		}

		total, err := b.processDay(ctx, key)
		if err != nil {
			if ctx.Err() != nil {
				return nil, stats, ctx.Err()
			}
			stats.DaysFailed++
			log.WithError(err).WithFields(logger.Fields{"date": date, "key": key}).Warn("failed to process day; skipping")
			continue
		}
		if total.Empty() {
			stats.DaysEmpty++
			log.WithFields(logger.Fields{"date": date, "rows_skipped": total.RowsSkipped}).Warn("no parseable rows; omitting day")
			continue
		}

		series = append(series, models.DailyAggregate{Date: date, TotalOI: total.TotalUSD})
		stats.DaysEmitted++
		log.WithFields(logger.Fields{
			"date":        date,
			"total_oi":    total.TotalUSD,
			"instruments": total.Instruments,
		}).Debug("processed day")
	}

	log.WithFields(logger.Fields{
		"emitted":    stats.DaysEmitted,
		"overridden": stats.DaysOverridden,
		"missing":    stats.DaysMissing,
		"failed":     stats.DaysFailed,
		"empty":      stats.DaysEmpty,
	}).Info("history rebuild complete")

	return series, stats, nil
}

// processDay fetches, decodes and reduces a single day's archive object.
func (b *Builder) processDay(ctx context.Context, key string) (snapshot.DayTotal, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return snapshot.DayTotal{}, err
	}

	raw, err := b.store.Fetch(ctx, key)
	if err != nil {
		return snapshot.DayTotal{}, err
	}

	text, err := archive.Decode(raw)
	if err != nil {
		return snapshot.DayTotal{}, err
	}

	stream, err := archive.NewRowStream(text)
	if err != nil {
		return snapshot.DayTotal{}, err
	}

	return snapshot.Extract(stream, b.cfg.History.InstrumentCeiling)
}
