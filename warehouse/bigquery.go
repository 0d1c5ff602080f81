// Package warehouse uploads processed batches to a BigQuery table,
// creating the dataset and table on first use. It is a thin wrapper: rows
// arrive already validated, and retry policy for failed inserts stays
// here, not in the pipeline.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"newsharvest"
	"newsharvest/pipeline"
)

// Config identifies the destination table.
type Config struct {
	ProjectID       string
	DatasetID       string
	TableID         string
	CredentialsFile string
	Location        string
}

// Row is the warehouse shape of one article record.
type Row struct {
	RunID              string    `bigquery:"run_id"`
	Title              string    `bigquery:"title"`
	Kicker             string    `bigquery:"kicker"`
	ImageURL           string    `bigquery:"image_url"`
	Link               string    `bigquery:"link"`
	TitleWordCount     int       `bigquery:"title_word_count"`
	TitleCharCount     int       `bigquery:"title_char_count"`
	TitleCapitalWords  []string  `bigquery:"title_capital_words"`
	IngestionTimestamp time.Time `bigquery:"ingestion_timestamp"`
}

// Client writes batches to BigQuery. Implements pipeline.Sink.
type Client struct {
	bq     *bigquery.Client
	cfg    Config
	logger *zap.Logger
}

// New creates a warehouse client. A credentials file is optional; without
// one the client uses application default credentials.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == "" {
		cfg.Location = "US"
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	bq, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}
	return &Client{bq: bq, cfg: cfg, logger: logger}, nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	return c.bq.Close()
}

// Name identifies the sink in run logs.
func (c *Client) Name() string {
	return "bigquery"
}

// Schema returns the destination table schema.
func Schema() bigquery.Schema {
	return bigquery.Schema{
		{Name: "run_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "title", Type: bigquery.StringFieldType, Required: true},
		{Name: "kicker", Type: bigquery.StringFieldType},
		{Name: "image_url", Type: bigquery.StringFieldType},
		{Name: "link", Type: bigquery.StringFieldType},
		{Name: "title_word_count", Type: bigquery.IntegerFieldType},
		{Name: "title_char_count", Type: bigquery.IntegerFieldType},
		{Name: "title_capital_words", Type: bigquery.StringFieldType, Repeated: true},
		{Name: "ingestion_timestamp", Type: bigquery.TimestampFieldType, Required: true},
	}
}

// EnsureTable creates the dataset and table if they do not already exist.
func (c *Client) EnsureTable(ctx context.Context) error {
	dataset := c.bq.Dataset(c.cfg.DatasetID)
	if _, err := dataset.Metadata(ctx); err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("failed to check dataset %s: %w", c.cfg.DatasetID, err)
		}
		meta := &bigquery.DatasetMetadata{Location: c.cfg.Location}
		if err := dataset.Create(ctx, meta); err != nil {
			return fmt.Errorf("failed to create dataset %s: %w", c.cfg.DatasetID, err)
		}
		c.logger.Info("created dataset", zap.String("dataset", c.cfg.DatasetID))
	}

	table := dataset.Table(c.cfg.TableID)
	if _, err := table.Metadata(ctx); err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("failed to check table %s: %w", c.cfg.TableID, err)
		}
		meta := &bigquery.TableMetadata{Schema: Schema()}
		if err := table.Create(ctx, meta); err != nil {
			return fmt.Errorf("failed to create table %s: %w", c.cfg.TableID, err)
		}
		c.logger.Info("created table",
			zap.String("dataset", c.cfg.DatasetID),
			zap.String("table", c.cfg.TableID))
	}

	return nil
}

// Write uploads the batch as one append. Implements pipeline.Sink.
func (c *Client) Write(ctx context.Context, batch newsharvest.Batch, summary *pipeline.Summary) error {
	if len(batch) == 0 {
		c.logger.Warn("no rows to insert, skipping warehouse upload")
		return nil
	}

	if err := c.EnsureTable(ctx); err != nil {
		return err
	}

	rows := BuildRows(batch, summary.RunID.String(), time.Now().UTC())
	inserter := c.bq.Dataset(c.cfg.DatasetID).Table(c.cfg.TableID).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("failed to insert rows: %w", err)
	}

	c.logger.Info("uploaded batch to bigquery",
		zap.String("dataset", c.cfg.DatasetID),
		zap.String("table", c.cfg.TableID),
		zap.Int("rows", len(rows)))
	return nil
}

// BuildRows converts a batch into warehouse rows stamped with the run id
// and ingestion time.
func BuildRows(batch newsharvest.Batch, runID string, ingestedAt time.Time) []*Row {
	rows := make([]*Row, len(batch))
	for i, rec := range batch {
		rows[i] = &Row{
			RunID:              runID,
			Title:              rec.Title,
			Kicker:             rec.Kicker,
			ImageURL:           rec.ImageURL,
			Link:               rec.LinkURL,
			TitleWordCount:     rec.WordCount,
			TitleCharCount:     rec.CharCount,
			TitleCapitalWords:  rec.CapitalizedWords,
			IngestionTimestamp: ingestedAt,
		}
	}
	return rows
}

// isNotFound reports whether err is a 404 from the BigQuery API.
func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
