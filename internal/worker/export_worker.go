package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"immistat/internal/amqp"
	applog "immistat/internal/log"
	"immistat/internal/services"
)

// Consumer delivers records-changed notifications.
type Consumer interface {
	ConsumeRecordsChanged(ctx context.Context, handler func(context.Context, *amqp.RecordsChangedMessage) error) error
}

// Processor exports the collection and produces daily reports.
type Processor interface {
	Notify()
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	DailyReport(ctx context.Context) (services.Report, error)
}

// Config holds the worker schedule.
type Config struct {
	ReportSchedule  string         // standard 5-field cron expression
	Location        *time.Location // zone the schedule is evaluated in
	ShutdownTimeout time.Duration
}

// ExportWorker turns change notifications into spreadsheet exports and runs
// the daily report on a cron schedule.
type ExportWorker struct {
	consumer  Consumer
	processor Processor
	config    Config
	logger    *applog.Logger
}

func NewExportWorker(consumer Consumer, processor Processor, config Config, logger *applog.Logger) *ExportWorker {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ExportWorker{
		consumer:  consumer,
		processor: processor,
		config:    config,
		logger:    logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleRecordsChanged schedules an export for one notification. The export
// itself happens on the processor loop, so bursts collapse into one write.
func (w *ExportWorker) HandleRecordsChanged(ctx context.Context, msg *amqp.RecordsChangedMessage) error {
	w.logger.InfoContext(ctx, "Records changed",
		applog.FieldOperation, msg.Op,
		applog.FieldRecordID, msg.ID,
		applog.FieldRecordCount, msg.Count)
	w.processor.Notify()
	return nil
}

// RunDailyReport is the cron job body.
func (w *ExportWorker) RunDailyReport(ctx context.Context) {
	report, err := w.processor.DailyReport(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Daily report failed", applog.FieldError, err)
		return
	}
	w.logger.InfoContext(ctx, "Daily report exported",
		"date", report.Date,
		applog.FieldPopulation, report.Summary.TotalPop)
}

// Run blocks until ctx is cancelled or the consumer fails.
func (w *ExportWorker) Run(ctx context.Context) error {
	scheduler := cron.New(cron.WithLocation(w.config.Location))
	if _, err := scheduler.AddFunc(w.config.ReportSchedule, func() { w.RunDailyReport(ctx) }); err != nil {
		return fmt.Errorf("schedule daily report: %w", err)
	}

	if err := w.processor.Start(ctx); err != nil {
		return fmt.Errorf("start export processor: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := w.consumer.ConsumeRecordsChanged(gctx, w.HandleRecordsChanged)
		if errors.Is(err, context.Canceled) || gctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = errors.New("consumer stopped")
		}
		return err
	})

	g.Go(func() error {
		scheduler.Start()
		w.logger.Info("Daily report scheduled",
			"schedule", w.config.ReportSchedule,
			"timezone", w.config.Location.String())
		<-gctx.Done()
		<-scheduler.Stop().Done()
		return nil
	})

	err := g.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), w.config.ShutdownTimeout)
	defer cancel()
	if stopErr := w.processor.Stop(stopCtx); stopErr != nil {
		w.logger.Warn("Export processor did not stop cleanly", applog.FieldError, stopErr)
	}

	return err
}
