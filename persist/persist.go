// Package persist writes the extracted batch to local structured files:
// raw records as JSON, processed records (with metrics) as JSON and as a
// flat CSV with one row per article.
package persist

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"newsharvest"
	"newsharvest/pipeline"
)

// Output filenames within the configured directory.
const (
	RawFile       = "scraped_data.json"
	ProcessedFile = "processed_data.json"
	CSVFile       = "processed_data.csv"
)

// capitalWordsSeparator joins the capitalized-words list into a single CSV
// column.
const capitalWordsSeparator = "|"

// Writer persists a batch to the output directory. Implements
// pipeline.Sink.
type Writer struct {
	outputDir string
	logger    *zap.Logger
}

// NewWriter creates a file writer targeting outputDir. The directory is
// created on first write.
func NewWriter(outputDir string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{outputDir: outputDir, logger: logger}
}

// Name identifies the sink in run logs.
func (w *Writer) Name() string {
	return "files"
}

// Write saves the batch to the three output files.
func (w *Writer) Write(_ context.Context, batch newsharvest.Batch, _ *pipeline.Summary) error {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := w.writeRawJSON(batch); err != nil {
		return err
	}
	if err := w.writeProcessedJSON(batch); err != nil {
		return err
	}
	if err := w.writeCSV(batch); err != nil {
		return err
	}

	w.logger.Info("saved batch to files",
		zap.String("dir", w.outputDir),
		zap.Int("records", len(batch)))
	return nil
}

// rawRecord is the pre-metrics shape of a record, kept for parity with the
// raw scrape output.
type rawRecord struct {
	Title    string `json:"title"`
	Kicker   string `json:"kicker"`
	ImageURL string `json:"image_url"`
	LinkURL  string `json:"link"`
}

func (w *Writer) writeRawJSON(batch newsharvest.Batch) error {
	raw := make([]rawRecord, len(batch))
	for i, rec := range batch {
		raw[i] = rawRecord{
			Title:    rec.Title,
			Kicker:   rec.Kicker,
			ImageURL: rec.ImageURL,
			LinkURL:  rec.LinkURL,
		}
	}
	return w.writeJSON(RawFile, raw)
}

func (w *Writer) writeProcessedJSON(batch newsharvest.Batch) error {
	return w.writeJSON(ProcessedFile, batch)
}

func (w *Writer) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	path := filepath.Join(w.outputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (w *Writer) writeCSV(batch newsharvest.Batch) error {
	path := filepath.Join(w.outputDir, CSVFile)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", CSVFile, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{
		"title", "kicker", "image_url", "link",
		"title_word_count", "title_char_count", "title_capital_words",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range batch {
		row := []string{
			rec.Title,
			rec.Kicker,
			rec.ImageURL,
			rec.LinkURL,
			strconv.Itoa(rec.WordCount),
			strconv.Itoa(rec.CharCount),
			strings.Join(rec.CapitalizedWords, capitalWordsSeparator),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
