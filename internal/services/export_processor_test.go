package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"immistat/internal/core"
	sheetsmem "immistat/internal/sheets/memory"
)

type staticLoader struct {
	mu      sync.Mutex
	records []core.Record
	loads   int
}

func (l *staticLoader) Load(context.Context) []core.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads++
	return append([]core.Record(nil), l.records...)
}

type failingExporter struct {
	*sheetsmem.Store
	mu    sync.Mutex
	fails int
}

func (f *failingExporter) ExportRecords(ctx context.Context, records []core.Record) error {
	f.mu.Lock()
	if f.fails > 0 {
		f.fails--
		f.mu.Unlock()
		return errors.New("quota exceeded")
	}
	f.mu.Unlock()
	return f.Store.ExportRecords(ctx, records)
}

func TestDefaultExportProcessorConfig(t *testing.T) {
	config := DefaultExportProcessorConfig()
	if config.PollInterval != 10*time.Second {
		t.Errorf("expected PollInterval 10s, got %v", config.PollInterval)
	}
	if config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", config.MaxRetries)
	}
	if config.Location != time.UTC {
		t.Errorf("expected UTC location, got %v", config.Location)
	}
}

func TestExportProcessor_ExportNow(t *testing.T) {
	loader := &staticLoader{records: core.SeedRecords()}
	out := sheetsmem.New()
	p := NewExportProcessor(loader, out, DefaultExportProcessorConfig())

	if err := p.ExportNow(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	got, _ := out.ReadRecords(context.Background())
	if len(got) != 3 {
		t.Fatalf("exported %d records, want 3", len(got))
	}
	if sum, _ := out.Summary(); sum.TotalPop != 99 {
		t.Fatalf("summary population = %d", sum.TotalPop)
	}
}

func TestExportProcessor_DailyReport(t *testing.T) {
	loader := &staticLoader{records: core.SeedRecords()}
	out := sheetsmem.New()
	yangon := time.FixedZone("MMT", 6*3600+1800)
	p := NewExportProcessor(loader, out, ExportProcessorConfig{Location: yangon})
	// 2025-12-15 20:00 UTC is 2025-12-16 02:30 in Yangon.
	p.now = func() time.Time { return time.Date(2025, 12, 15, 20, 0, 0, 0, time.UTC) }

	report, err := p.DailyReport(context.Background())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Date != "2025-12-16" || report.PopulationDay != 44 {
		t.Fatalf("unexpected report %+v", report)
	}
	if r, s := out.Writes(); r != 0 || s != 1 {
		t.Fatalf("report should only refresh the summary, writes = %d/%d", r, s)
	}
}

func TestExportProcessor_Lifecycle(t *testing.T) {
	loader := &staticLoader{records: core.SeedRecords()}
	out := &failingExporter{Store: sheetsmem.New(), fails: 1}
	p := NewExportProcessor(loader, out, ExportProcessorConfig{PollInterval: 10 * time.Millisecond, MaxRetries: 1})

	if p.IsRunning() {
		t.Fatal("processor should not be running initially")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Fatal("expected error when starting already running processor")
	}

	p.Notify()
	p.Notify() // coalesced

	deadline := time.After(2 * time.Second)
	for {
		if r, _ := out.Writes(); r >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("export never succeeded after the first failure")
		case <-time.After(5 * time.Millisecond):
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if p.IsRunning() {
		t.Fatal("processor should be stopped")
	}
}

func TestExportProcessor_StopNotRunning(t *testing.T) {
	p := NewExportProcessor(&staticLoader{}, sheetsmem.New(), DefaultExportProcessorConfig())
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}
