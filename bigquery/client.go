package bigquery

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"

	"github.com/input-output-hk/catalyst-forge-libs/gcp/auth"
	gcperrors "github.com/input-output-hk/catalyst-forge-libs/gcp/errors"
	"github.com/input-output-hk/catalyst-forge-libs/gcp/internal/validation"
)

// Client provides helper operations over one BigQuery project.
type Client struct {
	api       API
	projectID string
	location  string
	logger    *slog.Logger
}

// New creates a BigQuery client from the shared auth config.
//
// Example usage:
//
//	client, err := bigquery.New(ctx, auth.FromEnv(),
//	    bigquery.WithLogger(slog.Default()),
//	)
func New(ctx context.Context, cfg *auth.Config, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	clientOpts, err := cfg.ClientOptions(ctx)
	if err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	if o.location == "" {
		o.location = cfg.LocationOrDefault()
	}

	bq, err := bigquery.NewClient(ctx, cfg.ProjectID, append(clientOpts, o.clientOptions...)...)
	if err != nil {
		return nil, gcperrors.New("bigquery.New", cfg.ProjectID, err)
	}
	bq.Location = o.location

	return newClient(&sdkAPI{client: bq}, cfg.ProjectID, o), nil
}

// NewWithAPI creates a client over a custom API implementation.
// This is primarily used for testing with mocked clients.
func NewWithAPI(api API, projectID string, opts ...Option) *Client {
	o := applyOptions(opts)
	if o.location == "" {
		o.location = auth.DefaultLocation
	}
	return newClient(api, projectID, o)
}

func newClient(api API, projectID string, o *clientOptions) *Client {
	return &Client{
		api:       api,
		projectID: projectID,
		location:  o.location,
		logger:    o.logger.With("project_id", projectID),
	}
}

// ProjectID returns the project the client operates on.
func (c *Client) ProjectID() string {
	return c.projectID
}

// Location returns the location used for new datasets and jobs.
func (c *Client) Location() string {
	return c.location
}

// Close closes the underlying BigQuery client.
func (c *Client) Close() error {
	if err := c.api.Close(); err != nil {
		return gcperrors.New("bigquery.Close", c.projectID, err)
	}
	c.logger.Info("client connection closed")
	return nil
}

// DatasetExists reports whether the dataset exists.
func (c *Client) DatasetExists(ctx context.Context, dataset string) (bool, error) {
	const op = "bigquery.DatasetExists"
	ref := c.datasetRef(dataset)
	if err := validation.Required(op, ref, validation.F("dataset", dataset)); err != nil {
		return false, err
	}

	_, err := c.api.DatasetMetadata(ctx, dataset)
	switch {
	case err == nil:
		c.logger.InfoContext(ctx, "dataset exists", "dataset", ref)
		return true, nil
	case IsNotFound(err):
		c.logger.InfoContext(ctx, "dataset not found", "dataset", ref)
		return false, nil
	default:
		c.logger.ErrorContext(ctx, "failed to look up dataset", "dataset", ref, "error", err)
		return false, gcperrors.New(op, ref, err)
	}
}

// CreateDataset creates a dataset in the client location.
func (c *Client) CreateDataset(ctx context.Context, dataset string, opts DatasetOptions) error {
	const op = "bigquery.CreateDataset"
	ref := c.datasetRef(dataset)
	if err := validation.Required(op, ref, validation.F("dataset", dataset)); err != nil {
		return err
	}

	md := &bigquery.DatasetMetadata{
		Location:    c.location,
		Description: opts.Description,
		Labels:      opts.Labels,
	}

	c.logger.InfoContext(ctx, "creating dataset", "dataset", ref, "location", c.location)
	if err := c.api.CreateDataset(ctx, dataset, md); err != nil {
		if opts.ExistsOK && IsAlreadyExists(err) {
			c.logger.InfoContext(ctx, "dataset already exists", "dataset", ref)
			return nil
		}
		c.logger.ErrorContext(ctx, "failed to create dataset", "dataset", ref, "error", err)
		return gcperrors.New(op, ref, err)
	}

	c.logger.InfoContext(ctx, "created dataset", "dataset", ref)
	return nil
}

// DeleteDataset deletes a dataset and all of its tables. Deleting a dataset that
// does not exist succeeds.
func (c *Client) DeleteDataset(ctx context.Context, dataset string) error {
	const op = "bigquery.DeleteDataset"
	ref := c.datasetRef(dataset)
	if err := validation.Required(op, ref, validation.F("dataset", dataset)); err != nil {
		return err
	}

	if err := c.api.DeleteDataset(ctx, dataset, true); err != nil {
		if IsNotFound(err) {
			c.logger.InfoContext(ctx, "dataset already absent", "dataset", ref)
			return nil
		}
		c.logger.ErrorContext(ctx, "failed to delete dataset", "dataset", ref, "error", err)
		return gcperrors.New(op, ref, err)
	}

	c.logger.InfoContext(ctx, "deleted dataset", "dataset", ref)
	return nil
}

// TableExists reports whether the table exists.
func (c *Client) TableExists(ctx context.Context, dataset, table string) (bool, error) {
	const op = "bigquery.TableExists"
	ref := c.tableRef(dataset, table)
	if err := validation.Required(op, ref,
		validation.F("dataset", dataset), validation.F("table", table)); err != nil {
		return false, err
	}

	_, err := c.api.TableMetadata(ctx, dataset, table)
	switch {
	case err == nil:
		c.logger.InfoContext(ctx, "table exists", "table", ref)
		return true, nil
	case IsNotFound(err):
		c.logger.InfoContext(ctx, "table not found", "table", ref)
		return false, nil
	default:
		c.logger.ErrorContext(ctx, "failed to look up table", "table", ref, "error", err)
		return false, gcperrors.New(op, ref, err)
	}
}

// CreateTable creates a table unless it already exists, in which case it returns
// nil without touching it. A schema is required.
func (c *Client) CreateTable(ctx context.Context, dataset, table string, opts TableOptions) error {
	const op = "bigquery.CreateTable"
	ref := c.tableRef(dataset, table)
	if err := validation.Required(op, ref,
		validation.F("dataset", dataset), validation.F("table", table)); err != nil {
		return err
	}

	exists, err := c.TableExists(ctx, dataset, table)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if len(opts.Schema) == 0 {
		c.logger.ErrorContext(ctx, "no table schema provided", "table", ref)
		return gcperrors.Invalid(op, ref, "table schema cannot be empty")
	}

	md := &bigquery.TableMetadata{
		Schema:           opts.Schema,
		Description:      opts.Description,
		Labels:           opts.Labels,
		TimePartitioning: timePartitioning(opts.PartitionField),
		Clustering:       clustering(opts.ClusteringFields),
	}

	if err := c.api.CreateTable(ctx, dataset, table, md); err != nil {
		c.logger.ErrorContext(ctx, "failed to create table", "table", ref, "error", err)
		return gcperrors.New(op, ref, err)
	}

	c.logger.InfoContext(ctx, "created table", "table", ref)
	return nil
}

// DeleteTable deletes a table. Deleting a table that does not exist succeeds.
func (c *Client) DeleteTable(ctx context.Context, dataset, table string) error {
	const op = "bigquery.DeleteTable"
	ref := c.tableRef(dataset, table)
	if err := validation.Required(op, ref,
		validation.F("dataset", dataset), validation.F("table", table)); err != nil {
		return err
	}

	if err := c.api.DeleteTable(ctx, dataset, table); err != nil {
		if IsNotFound(err) {
			c.logger.InfoContext(ctx, "table already absent", "table", ref)
			return nil
		}
		c.logger.ErrorContext(ctx, "failed to delete table", "table", ref, "error", err)
		return gcperrors.New(op, ref, err)
	}

	c.logger.InfoContext(ctx, "deleted table", "table", ref)
	return nil
}

func (c *Client) datasetRef(dataset string) string {
	return c.projectID + "." + dataset
}

func (c *Client) tableRef(dataset, table string) string {
	return c.projectID + "." + dataset + "." + table
}

func (c *Client) table(dataset, table string) *bigquery.Table {
	return &bigquery.Table{
		ProjectID: c.projectID,
		DatasetID: dataset,
		TableID:   table,
	}
}
