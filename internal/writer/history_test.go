package writer

import (
	"os"
	"path/filepath"
	"testing"

	appconfig "oiflow/config"
	"oiflow/internal/models"
)

func testSeries() models.HistorySeries {
	return models.HistorySeries{
		{Date: "2024-06-01", TotalOI: 2000},
		{Date: "2026-02-22", TotalOI: 4440000000},
	}
}

func TestWriteCreatesParentDirAndArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "public", "oi_history.json")
	cfg := &appconfig.Config{}
	cfg.History.OutputPath = path

	w := NewHistoryWriter(cfg)
	if err := w.Write(testSeries()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	want := `[{"date":"2024-06-01","total_oi":2000},{"date":"2026-02-22","total_oi":4440000000}]`
	if string(data) != want {
		t.Errorf("unexpected artifact content: %s", data)
	}
}

func TestWriteReplacesExistingArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oi_history.json")
	if err := os.WriteFile(path, []byte("stale content"), 0o644); err != nil {
		t.Fatalf("seed artifact: %v", err)
	}
	cfg := &appconfig.Config{}
	cfg.History.OutputPath = path

	w := NewHistoryWriter(cfg)
	if err := w.Write(models.HistorySeries{{Date: "2024-06-01", TotalOI: 1}}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != `[{"date":"2024-06-01","total_oi":1}]` {
		t.Errorf("artifact not replaced: %s", data)
	}
}

func TestWriteEmptySeries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oi_history.json")
	cfg := &appconfig.Config{}
	cfg.History.OutputPath = path

	w := NewHistoryWriter(cfg)
	if err := w.Write(models.HistorySeries{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("expected empty array, got %s", data)
	}
}

func TestWriteIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oi_history.json")
	cfg := &appconfig.Config{}
	cfg.History.OutputPath = path

	w := NewHistoryWriter(cfg)
	if err := w.Write(testSeries()); err != nil {
		t.Fatalf("first write: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if err := w.Write(testSeries()); err != nil {
		t.Fatalf("second write: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("artifacts differ between identical runs")
	}
}

func TestWriteParquetCopy(t *testing.T) {
	dir := t.TempDir()
	cfg := &appconfig.Config{}
	cfg.History.OutputPath = filepath.Join(dir, "oi_history.json")
	cfg.History.Parquet.Enabled = true
	cfg.History.Parquet.Path = filepath.Join(dir, "oi_history.parquet")

	w := NewHistoryWriter(cfg)
	if err := w.Write(testSeries()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	info, err := os.Stat(cfg.History.Parquet.Path)
	if err != nil {
		t.Fatalf("parquet copy missing: %v", err)
	}
	if info.Size() == 0 {
		t.Errorf("parquet copy is empty")
	}
}
