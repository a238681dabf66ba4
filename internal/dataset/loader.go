// Package dataset orchestrates bulk ingestion: it runs the normalizer over
// every raw row, bounds the accepted records with the sampling policy, and
// commits the canonical record set to the engine.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/nightsift/sighting-data-service/internal/domain"
	"github.com/nightsift/sighting-data-service/internal/observability"
)

// RowSource reads every raw row from a transport. Implementations: local
// CSV file, CSV over HTTP, Kafka topic snapshot.
type RowSource interface {
	ReadRows(ctx context.Context) ([]map[string]string, error)
}

// DatasetSink receives the assembled canonical record set. Committing it
// triggers exactly one working-view recompute.
type DatasetSink interface {
	SetDataset(records []domain.Sighting)
}

// Loader is the one-shot bulk ingestion stage.
type Loader struct {
	source  RowSource
	sampler *Sampler
	sink    DatasetSink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Loader over the given source and sink.
func New(source RowSource, sampler *Sampler, sink DatasetSink, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		source:  source,
		sampler: sampler,
		sink:    sink,
		logger:  logger,
		metrics: metrics,
	}
}

// Load reads the source to completion, normalizes every row, samples a
// bounded canonical set, orders it newest-first, and commits it.
//
// Row-level rejections are counted, never fatal; zero valid rows commits an
// empty set. A transport failure returns the error with nothing committed,
// leaving the sink in its prior state.
func (l *Loader) Load(ctx context.Context) error {
	start := time.Now()

	rows, err := l.source.ReadRows(ctx)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}

	accepted := make([]domain.Sighting, 0, len(rows))
	rejected := 0
	for _, row := range rows {
		l.metrics.RowsRead.Inc()

		s, err := domain.NormalizeRow(row)
		if err != nil {
			rejected++
			l.metrics.RowsRejected.WithLabelValues(rejectReason(err)).Inc()
			continue
		}
		accepted = append(accepted, s)
		l.metrics.RowsAccepted.Inc()
	}

	canonical, boosted := l.sampler.Sample(accepted)

	// Initial presentation order; the engine re-sorts per sort mode.
	sort.SliceStable(canonical, func(i, j int) bool {
		return canonical[i].OccurredAt.After(canonical[j].OccurredAt)
	})

	l.metrics.BoostedSampled.Set(float64(boosted))
	l.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	l.logger.Info("dataset loaded",
		"rows", len(rows),
		"accepted", len(accepted),
		"rejected", rejected,
		"canonical", len(canonical),
		"boosted", boosted,
	)

	l.sink.SetDataset(canonical)
	return nil
}

// rejectReason maps a normalization error onto its metric label.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrCountryNotAllowed):
		return "country"
	case errors.Is(err, domain.ErrShapeNotAllowed):
		return "shape"
	case errors.Is(err, domain.ErrBadTimestamp):
		return "timestamp"
	default:
		return "other"
	}
}
