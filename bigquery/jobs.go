package bigquery

import (
	"context"
	"errors"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	gcperrors "github.com/input-output-hk/catalyst-forge-libs/gcp/errors"
	"github.com/input-output-hk/catalyst-forge-libs/gcp/internal/validation"
)

// Row is a single result or insert row keyed by column name.
type Row map[string]bigquery.Value

// Save implements bigquery.ValueSaver. The empty insert ID lets the SDK generate one.
func (r Row) Save() (map[string]bigquery.Value, string, error) {
	return r, "", nil
}

// CopyTable copies dataset.table into destDataset.destTable. An empty destDataset
// means the source dataset.
func (c *Client) CopyTable(ctx context.Context, dataset, table, destDataset, destTable string) error {
	const op = "bigquery.CopyTable"
	if destDataset == "" {
		destDataset = dataset
	}
	src := c.tableRef(dataset, table)
	dst := c.tableRef(destDataset, destTable)
	if err := validation.Required(op, src,
		validation.F("dataset", dataset), validation.F("table", table),
		validation.F("destination table", destTable)); err != nil {
		return err
	}

	cfg := &bigquery.CopyConfig{
		Srcs: []*bigquery.Table{c.table(dataset, table)},
		Dst:  c.table(destDataset, destTable),
	}

	c.logger.InfoContext(ctx, "copying table", "table", src, "destination", dst)
	status, err := c.api.Copy(ctx, cfg)
	if err != nil {
		c.logJobFailure(ctx, "copy job failed", status, err, "table", src, "destination", dst)
		return gcperrors.New(op, src, err)
	}

	c.logger.InfoContext(ctx, "copied table", "table", src, "destination", dst)
	return nil
}

// LoadFromGCS loads files from Cloud Storage into a table and waits for the job.
//
// Example usage:
//
//	err := client.LoadFromGCS(ctx, "raw", "events", "gs://bucket/events-*.json",
//	    bigquery.LoadOptions{Format: bq.JSON, WriteDisposition: bq.WriteAppend})
func (c *Client) LoadFromGCS(ctx context.Context, dataset, table, uri string, opts LoadOptions) error {
	const op = "bigquery.LoadFromGCS"
	ref := c.tableRef(dataset, table)
	if err := validation.Required(op, ref,
		validation.F("dataset", dataset), validation.F("table", table), validation.F("uri", uri)); err != nil {
		return err
	}
	if _, _, err := validation.ParseGCSURI(op, uri); err != nil {
		return err
	}

	format := opts.Format
	if format == "" {
		format = bigquery.CSV
	}
	if !supportedFormat(format) {
		return gcperrors.Invalid(op, ref, "source format must be CSV, JSON, AVRO or PARQUET, got %q", format)
	}
	wd := opts.WriteDisposition
	if wd == "" {
		wd = bigquery.WriteTruncate
	}

	src := bigquery.NewGCSReference(uri)
	src.SourceFormat = format
	switch format {
	case bigquery.CSV:
		src.SkipLeadingRows = 1
	case bigquery.JSON:
		src.MaxBadRecords = opts.MaxBadRecords
	}
	if format == bigquery.CSV || format == bigquery.JSON {
		if len(opts.Schema) > 0 {
			src.Schema = opts.Schema
		} else {
			src.AutoDetect = true
		}
	}

	cfg := &bigquery.LoadConfig{
		Src:                 src,
		Dst:                 c.table(dataset, table),
		WriteDisposition:    wd,
		TimePartitioning:    timePartitioning(opts.PartitionField),
		Clustering:          clustering(opts.ClusteringFields),
		SchemaUpdateOptions: schemaUpdateOptions(opts.RelaxedSchema, wd),
	}

	c.logger.InfoContext(ctx, "loading data", "uri", uri, "table", ref, "format", string(format))
	status, err := c.api.Load(ctx, cfg)
	if err != nil {
		c.logJobFailure(ctx, "load job failed", status, err, "uri", uri, "table", ref)
		return gcperrors.New(op, ref, err)
	}

	// The load already succeeded; a failed row count lookup is only reported.
	md, err := c.api.TableMetadata(ctx, dataset, table)
	if err != nil {
		c.logger.WarnContext(ctx, "loaded data but could not read row count", "table", ref, "error", err)
		return nil
	}
	c.logger.InfoContext(ctx, "loaded data", "table", ref, "num_rows", md.NumRows)
	return nil
}

// ExtractToGCS exports a table to Cloud Storage. An empty format is inferred from
// the URI suffix (.json, .avro, .parquet), defaulting to CSV.
func (c *Client) ExtractToGCS(ctx context.Context, dataset, table, uri string, format bigquery.DataFormat) error {
	const op = "bigquery.ExtractToGCS"
	ref := c.tableRef(dataset, table)
	if err := validation.Required(op, ref,
		validation.F("dataset", dataset), validation.F("table", table), validation.F("uri", uri)); err != nil {
		return err
	}
	if _, _, err := validation.ParseGCSURI(op, uri); err != nil {
		return err
	}

	if format == "" {
		format = formatFromURI(uri)
	} else if !supportedFormat(format) {
		return gcperrors.Invalid(op, ref, "destination format must be CSV, JSON, AVRO or PARQUET, got %q", format)
	}

	dst := bigquery.NewGCSReference(uri)
	dst.DestinationFormat = format

	cfg := &bigquery.ExtractConfig{
		Src: c.table(dataset, table),
		Dst: dst,
	}

	c.logger.InfoContext(ctx, "extracting data", "table", ref, "uri", uri, "format", string(format))
	status, err := c.api.Extract(ctx, cfg)
	if err != nil {
		c.logJobFailure(ctx, "extract job failed", status, err, "table", ref, "uri", uri)
		return gcperrors.New(op, ref, err)
	}

	c.logger.InfoContext(ctx, "extracted data", "table", ref, "uri", uri)
	return nil
}

// Query runs sql and returns every result row.
func (c *Client) Query(ctx context.Context, sql string, opts QueryOptions) ([]Row, error) {
	const op = "bigquery.Query"
	if err := validation.Required(op, c.projectID, validation.F("query", sql)); err != nil {
		return nil, err
	}

	cfg := &bigquery.QueryConfig{
		Q:            sql,
		Parameters:   opts.Parameters,
		UseLegacySQL: opts.UseLegacySQL,
	}

	c.logger.InfoContext(ctx, "running query")
	it, err := c.api.Read(ctx, cfg)
	if err != nil {
		c.logger.ErrorContext(ctx, "query failed", "error", err)
		return nil, gcperrors.New(op, c.projectID, err)
	}

	var rows []Row
	for {
		var row map[string]bigquery.Value
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			c.logger.ErrorContext(ctx, "reading query results failed", "error", err)
			return nil, gcperrors.New(op, c.projectID, err)
		}
		rows = append(rows, Row(row))
	}

	c.logger.InfoContext(ctx, "completed query", "num_rows", len(rows))
	return rows, nil
}

// QueryToTable runs sql and writes the results into dataset.destTable, creating
// the table if needed.
func (c *Client) QueryToTable(ctx context.Context, sql, dataset, destTable string, opts QueryOptions) error {
	const op = "bigquery.QueryToTable"
	ref := c.tableRef(dataset, destTable)
	if err := validation.Required(op, ref, validation.F("query", sql),
		validation.F("dataset", dataset), validation.F("destination table", destTable)); err != nil {
		return err
	}

	wd := opts.WriteDisposition
	if wd == "" {
		wd = bigquery.WriteTruncate
	}

	cfg := &bigquery.QueryConfig{
		Q:                   sql,
		Parameters:          opts.Parameters,
		UseLegacySQL:        opts.UseLegacySQL,
		Dst:                 c.table(dataset, destTable),
		CreateDisposition:   bigquery.CreateIfNeeded,
		WriteDisposition:    wd,
		SchemaUpdateOptions: schemaUpdateOptions(opts.RelaxedSchema, wd),
		TimePartitioning:    timePartitioning(opts.PartitionField),
		Clustering:          clustering(opts.ClusteringFields),
	}

	c.logger.InfoContext(ctx, "running query", "destination", ref)
	status, err := c.api.Query(ctx, cfg)
	if err != nil {
		c.logJobFailure(ctx, "query job failed", status, err, "destination", ref)
		return gcperrors.New(op, ref, err)
	}

	c.logger.InfoContext(ctx, "completed query", "destination", ref)
	return nil
}

// InsertRows streams rows into a table. An empty slice is a no-op.
func (c *Client) InsertRows(ctx context.Context, dataset, table string, rows []Row) error {
	const op = "bigquery.InsertRows"
	ref := c.tableRef(dataset, table)
	if err := validation.Required(op, ref,
		validation.F("dataset", dataset), validation.F("table", table)); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	savers := make([]bigquery.ValueSaver, len(rows))
	for i, r := range rows {
		savers[i] = r
	}

	c.logger.InfoContext(ctx, "inserting rows", "table", ref, "num_rows", len(rows))
	if err := c.api.Insert(ctx, c.table(dataset, table), savers); err != nil {
		c.logger.ErrorContext(ctx, "failed to insert rows", "table", ref, "error", err)
		return gcperrors.New(op, ref, err)
	}

	c.logger.InfoContext(ctx, "inserted rows", "table", ref, "num_rows", len(rows))
	return nil
}

// logJobFailure logs a failed job along with every detailed error the service
// attached to its final status.
func (c *Client) logJobFailure(ctx context.Context, msg string, status *bigquery.JobStatus, err error, args ...any) {
	c.logger.ErrorContext(ctx, msg, append(args, "code", string(ErrorCode(err)), "error", err)...)
	if status == nil {
		return
	}
	for _, e := range status.Errors {
		if e == nil {
			continue
		}
		c.logger.ErrorContext(ctx, "job error detail",
			"reason", e.Reason,
			"location", e.Location,
			"message", e.Message)
	}
}
