package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	appconfig "oiflow/config"
	"oiflow/internal/models"
	"oiflow/logger"
)

// HistoryWriter persists the rebuilt series. The JSON artifact is canonical;
// the optional parquet copy exists for downstream analytics tooling and its
// failure does not fail the run.
type HistoryWriter struct {
	cfg *appconfig.Config
	log *logger.Log
}

// NewHistoryWriter wires a writer for one run.
func NewHistoryWriter(cfg *appconfig.Config) *HistoryWriter {
	return &HistoryWriter{cfg: cfg, log: logger.GetLogger()}
}

// Write serializes the full series. A rebuild replaces any previous artifact
// wholesale, and the write is staged through a temp file so a failure never
// leaves a truncated artifact behind.
func (w *HistoryWriter) Write(series models.HistorySeries) error {
	log := w.log.WithComponent("history_writer")

	if err := writeJSONAtomic(series, w.cfg.History.OutputPath); err != nil {
		return fmt.Errorf("write history artifact: %w", err)
	}
	log.WithFields(logger.Fields{
		"path": w.cfg.History.OutputPath,
		"days": len(series),
	}).Info("wrote history artifact")

	if w.cfg.History.Parquet.Enabled {
		if err := writeParquet(series, w.cfg.History.Parquet.Path); err != nil {
			log.WithError(err).WithFields(logger.Fields{
				"path": w.cfg.History.Parquet.Path,
			}).Warn("failed to write parquet copy")
		} else {
			log.WithFields(logger.Fields{
				"path": w.cfg.History.Parquet.Path,
			}).Debug("wrote parquet copy")
		}
	}

	return nil
}

func writeJSONAtomic(series models.HistorySeries, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("marshal series: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}
