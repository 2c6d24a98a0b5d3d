package bigquery

import (
	"log/slog"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"

	gcperrors "github.com/input-output-hk/catalyst-forge-libs/gcp/errors"
)

// Schema update options applied when a relaxed schema is requested on append.
const (
	AllowFieldAddition   = "ALLOW_FIELD_ADDITION"
	AllowFieldRelaxation = "ALLOW_FIELD_RELAXATION"
)

// clientOptions holds configuration options for the BigQuery client.
type clientOptions struct {
	logger        *slog.Logger
	location      string
	clientOptions []option.ClientOption
}

// Option is a functional option for configuring the Client.
type Option func(*clientOptions)

// WithLogger configures the client with a custom logger.
// If logger is nil, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *clientOptions) {
		opts.logger = logger
	}
}

// WithLocation overrides the dataset and job location from the auth config.
func WithLocation(location string) Option {
	return func(opts *clientOptions) {
		opts.location = location
	}
}

// WithClientOptions appends raw SDK client options, applied after the ones derived
// from the auth config.
func WithClientOptions(o ...option.ClientOption) Option {
	return func(opts *clientOptions) {
		opts.clientOptions = append(opts.clientOptions, o...)
	}
}

func applyOptions(opts []Option) *clientOptions {
	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// DatasetOptions configures CreateDataset.
type DatasetOptions struct {
	// ExistsOK makes creating an existing dataset a no-op instead of an error.
	ExistsOK bool

	Description string
	Labels      map[string]string
}

// TableOptions configures CreateTable.
type TableOptions struct {
	// Schema is required.
	Schema bigquery.Schema

	// PartitionField enables daily time partitioning on the named column.
	PartitionField string

	// ClusteringFields lists the clustering columns, in order.
	ClusteringFields []string

	Description string
	Labels      map[string]string
}

// LoadOptions configures LoadFromGCS.
type LoadOptions struct {
	// Format of the source files. Defaults to CSV. CSV files have one header row.
	Format bigquery.DataFormat

	// WriteDisposition defaults to bigquery.WriteTruncate.
	WriteDisposition bigquery.TableWriteDisposition

	// MaxBadRecords is the number of bad JSON records tolerated.
	MaxBadRecords int64

	// Schema for CSV and JSON sources. When empty the schema is autodetected.
	Schema bigquery.Schema

	PartitionField   string
	ClusteringFields []string

	// RelaxedSchema allows new and relaxed columns when appending.
	RelaxedSchema bool
}

// QueryOptions configures Query and QueryToTable. Destination settings are
// ignored by Query.
type QueryOptions struct {
	Parameters   []bigquery.QueryParameter
	UseLegacySQL bool

	// WriteDisposition defaults to bigquery.WriteTruncate.
	WriteDisposition bigquery.TableWriteDisposition

	RelaxedSchema    bool
	PartitionField   string
	ClusteringFields []string
}

// ParseWriteDisposition parses "WRITE_TRUNCATE", "WRITE_APPEND" or "WRITE_EMPTY",
// ignoring case.
func ParseWriteDisposition(s string) (bigquery.TableWriteDisposition, error) {
	d := bigquery.TableWriteDisposition(strings.ToUpper(strings.TrimSpace(s)))
	switch d {
	case bigquery.WriteTruncate, bigquery.WriteAppend, bigquery.WriteEmpty:
		return d, nil
	}
	return "", gcperrors.Invalid("bigquery.ParseWriteDisposition", "",
		"write disposition must be WRITE_TRUNCATE, WRITE_APPEND or WRITE_EMPTY, got %q", s)
}

// ParseFormat parses a data format name: CSV, JSON (or NEWLINE_DELIMITED_JSON),
// AVRO or PARQUET, ignoring case.
func ParseFormat(s string) (bigquery.DataFormat, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CSV":
		return bigquery.CSV, nil
	case "JSON", string(bigquery.JSON):
		return bigquery.JSON, nil
	case "AVRO":
		return bigquery.Avro, nil
	case "PARQUET":
		return bigquery.Parquet, nil
	}
	return "", gcperrors.Invalid("bigquery.ParseFormat", "",
		"format must be CSV, JSON, AVRO or PARQUET, got %q", s)
}

// formatFromURI infers an extract format from the URI suffix, defaulting to CSV.
func formatFromURI(uri string) bigquery.DataFormat {
	upper := strings.ToUpper(uri)
	switch {
	case strings.HasSuffix(upper, ".JSON"):
		return bigquery.JSON
	case strings.HasSuffix(upper, ".AVRO"):
		return bigquery.Avro
	case strings.HasSuffix(upper, ".PARQUET"):
		return bigquery.Parquet
	default:
		return bigquery.CSV
	}
}

func supportedFormat(f bigquery.DataFormat) bool {
	switch f {
	case bigquery.CSV, bigquery.JSON, bigquery.Avro, bigquery.Parquet:
		return true
	}
	return false
}

func timePartitioning(field string) *bigquery.TimePartitioning {
	if field == "" {
		return nil
	}
	return &bigquery.TimePartitioning{
		Type:  bigquery.DayPartitioningType,
		Field: field,
	}
}

func clustering(fields []string) *bigquery.Clustering {
	if len(fields) == 0 {
		return nil
	}
	return &bigquery.Clustering{Fields: fields}
}

func schemaUpdateOptions(relaxed bool, wd bigquery.TableWriteDisposition) []string {
	if !relaxed || wd != bigquery.WriteAppend {
		return nil
	}
	return []string{AllowFieldAddition, AllowFieldRelaxation}
}
