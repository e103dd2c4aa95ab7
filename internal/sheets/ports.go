package sheets

import (
	"context"
	"time"

	"immistat/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordsExporter mirrors the full collection, replacing whatever the
	// destination held before.
	RecordsExporter interface {
		ExportRecords(ctx context.Context, records []core.Record) error
	}

	// SummaryExporter publishes the dashboard statistics as of a moment.
	SummaryExporter interface {
		ExportSummary(ctx context.Context, s core.Summary, asOf time.Time) error
	}

	// RecordsReader reads back a previously exported collection.
	RecordsReader interface {
		ReadRecords(ctx context.Context) ([]core.Record, error)
	}

	Exporter interface {
		RecordsExporter
		SummaryExporter
	}
)
