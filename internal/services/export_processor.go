package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"immistat/internal/core"
	"immistat/internal/sheets"
)

// ExportProcessorConfig holds configuration for the export processor
type ExportProcessorConfig struct {
	// PollInterval is how often a pending export is retried (default: 10s)
	PollInterval time.Duration

	// MaxRetries is how many attempts one export gets before it waits for
	// the next change (default: 3)
	MaxRetries int

	// Location is used for the report date (default: UTC)
	Location *time.Location
}

// DefaultExportProcessorConfig returns sensible defaults
func DefaultExportProcessorConfig() ExportProcessorConfig {
	return ExportProcessorConfig{
		PollInterval: 10 * time.Second,
		MaxRetries:   3,
		Location:     time.UTC,
	}
}

// RecordsLoader reloads the collection from the shared backend.
type RecordsLoader interface {
	Load(ctx context.Context) []core.Record
}

// Report is what the daily report logs and exports.
type Report struct {
	Date          string
	Summary       core.Summary
	PopulationDay int64 // population recorded on Date
}

// ExportProcessor mirrors the collection into a spreadsheet. Change
// notifications are coalesced: any number of Notify calls between two runs
// produce one export of the latest state.
type ExportProcessor struct {
	loader   RecordsLoader
	exporter sheets.Exporter
	config   ExportProcessorConfig
	now      func() time.Time

	pending chan struct{}

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewExportProcessor creates a new export processor
func NewExportProcessor(loader RecordsLoader, exporter sheets.Exporter, config ExportProcessorConfig) *ExportProcessor {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultExportProcessorConfig().PollInterval
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 1
	}
	return &ExportProcessor{
		loader:   loader,
		exporter: exporter,
		config:   config,
		now:      time.Now,
		pending:  make(chan struct{}, 1),
	}
}

// Notify schedules an export. It never blocks.
func (p *ExportProcessor) Notify() {
	select {
	case p.pending <- struct{}{}:
	default:
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *ExportProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("export processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Export processor started", "poll_interval", p.config.PollInterval)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *ExportProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Export processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

// IsRunning returns whether the processor is currently running
func (p *ExportProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ExportProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Export once on startup so the sheet catches up with changes made
	// while the worker was down.
	dirty := p.exportWithRetry(ctx) != nil

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-p.pending:
			dirty = p.exportWithRetry(ctx) != nil
		case <-ticker.C:
			if dirty {
				dirty = p.exportWithRetry(ctx) != nil
			}
		}
	}
}

func (p *ExportProcessor) exportWithRetry(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		if err = p.ExportNow(ctx); err == nil {
			return nil
		}
		slog.WarnContext(ctx, "Export failed",
			"attempt", attempt, "max_retries", p.config.MaxRetries, "error", err)
		if ctx.Err() != nil {
			return err
		}
	}
	slog.ErrorContext(ctx, "Export gave up, will retry on next poll", "error", err)
	return err
}

// ExportNow reloads the collection and rewrites both sheets.
func (p *ExportProcessor) ExportNow(ctx context.Context) error {
	recs := p.loader.Load(ctx)
	if err := p.exporter.ExportRecords(ctx, recs); err != nil {
		return fmt.Errorf("export records: %w", err)
	}
	if err := p.exporter.ExportSummary(ctx, core.Aggregate(recs), p.now()); err != nil {
		return fmt.Errorf("export summary: %w", err)
	}
	return nil
}

// DailyReport reloads the collection, refreshes the summary sheet and returns
// the figures for today in the configured location.
func (p *ExportProcessor) DailyReport(ctx context.Context) (Report, error) {
	now := p.now().In(p.config.Location)
	recs := p.loader.Load(ctx)
	report := Report{
		Date:          now.Format(core.DateLayout),
		Summary:       core.Aggregate(recs),
		PopulationDay: core.PopulationOn(recs, now.Format(core.DateLayout)),
	}

	if err := p.exporter.ExportSummary(ctx, report.Summary, now); err != nil {
		return report, fmt.Errorf("export summary: %w", err)
	}

	slog.InfoContext(ctx, "Daily report",
		"date", report.Date,
		"records", report.Summary.RecordCount,
		"population", report.Summary.TotalPop,
		"population_today", report.PopulationDay,
		"smart_cards", report.Summary.TotalSmartCard,
		"revenue", report.Summary.TotalRevenue)
	return report, nil
}
