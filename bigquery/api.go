package bigquery

import (
	"context"

	"cloud.google.com/go/bigquery"
)

// RowIterator yields query result rows. *bigquery.RowIterator satisfies it.
type RowIterator interface {
	Next(dst any) error
}

// API is the set of BigQuery operations used by Client. Dataset operations act on
// the client's project; table references carry their own project.
//
// Job methods run the job and wait for it. On job failure they return the final
// status (for its detailed errors) together with the job error.
type API interface {
	DatasetMetadata(ctx context.Context, datasetID string) (*bigquery.DatasetMetadata, error)
	CreateDataset(ctx context.Context, datasetID string, md *bigquery.DatasetMetadata) error
	DeleteDataset(ctx context.Context, datasetID string, deleteContents bool) error

	TableMetadata(ctx context.Context, datasetID, tableID string) (*bigquery.TableMetadata, error)
	CreateTable(ctx context.Context, datasetID, tableID string, md *bigquery.TableMetadata) error
	DeleteTable(ctx context.Context, datasetID, tableID string) error

	Copy(ctx context.Context, cfg *bigquery.CopyConfig) (*bigquery.JobStatus, error)
	Load(ctx context.Context, cfg *bigquery.LoadConfig) (*bigquery.JobStatus, error)
	Extract(ctx context.Context, cfg *bigquery.ExtractConfig) (*bigquery.JobStatus, error)
	Query(ctx context.Context, cfg *bigquery.QueryConfig) (*bigquery.JobStatus, error)
	Read(ctx context.Context, cfg *bigquery.QueryConfig) (RowIterator, error)

	Insert(ctx context.Context, table *bigquery.Table, rows []bigquery.ValueSaver) error

	Close() error
}

// sdkAPI adapts *bigquery.Client to API. Table values in configs are plain
// references; they are rebuilt as client-bound handles before use.
type sdkAPI struct {
	client *bigquery.Client
}

var _ API = (*sdkAPI)(nil)

func (a *sdkAPI) DatasetMetadata(ctx context.Context, datasetID string) (*bigquery.DatasetMetadata, error) {
	return a.client.Dataset(datasetID).Metadata(ctx)
}

func (a *sdkAPI) CreateDataset(ctx context.Context, datasetID string, md *bigquery.DatasetMetadata) error {
	return a.client.Dataset(datasetID).Create(ctx, md)
}

func (a *sdkAPI) DeleteDataset(ctx context.Context, datasetID string, deleteContents bool) error {
	ds := a.client.Dataset(datasetID)
	if deleteContents {
		return ds.DeleteWithContents(ctx)
	}
	return ds.Delete(ctx)
}

func (a *sdkAPI) TableMetadata(ctx context.Context, datasetID, tableID string) (*bigquery.TableMetadata, error) {
	return a.client.Dataset(datasetID).Table(tableID).Metadata(ctx)
}

func (a *sdkAPI) CreateTable(ctx context.Context, datasetID, tableID string, md *bigquery.TableMetadata) error {
	return a.client.Dataset(datasetID).Table(tableID).Create(ctx, md)
}

func (a *sdkAPI) DeleteTable(ctx context.Context, datasetID, tableID string) error {
	return a.client.Dataset(datasetID).Table(tableID).Delete(ctx)
}

func (a *sdkAPI) Copy(ctx context.Context, cfg *bigquery.CopyConfig) (*bigquery.JobStatus, error) {
	srcs := make([]*bigquery.Table, len(cfg.Srcs))
	for i, s := range cfg.Srcs {
		srcs[i] = a.table(s)
	}

	copier := a.table(cfg.Dst).CopierFrom(srcs...)
	copier.CreateDisposition = cfg.CreateDisposition
	copier.WriteDisposition = cfg.WriteDisposition
	copier.Labels = cfg.Labels

	job, err := copier.Run(ctx)
	if err != nil {
		return nil, err
	}
	return wait(ctx, job)
}

func (a *sdkAPI) Load(ctx context.Context, cfg *bigquery.LoadConfig) (*bigquery.JobStatus, error) {
	loader := a.table(cfg.Dst).LoaderFrom(cfg.Src)
	dst := loader.Dst
	loader.LoadConfig = *cfg
	loader.Dst = dst

	job, err := loader.Run(ctx)
	if err != nil {
		return nil, err
	}
	return wait(ctx, job)
}

func (a *sdkAPI) Extract(ctx context.Context, cfg *bigquery.ExtractConfig) (*bigquery.JobStatus, error) {
	extractor := a.table(cfg.Src).ExtractorTo(cfg.Dst)
	src := extractor.Src
	extractor.ExtractConfig = *cfg
	extractor.Src = src

	job, err := extractor.Run(ctx)
	if err != nil {
		return nil, err
	}
	return wait(ctx, job)
}

func (a *sdkAPI) Query(ctx context.Context, cfg *bigquery.QueryConfig) (*bigquery.JobStatus, error) {
	job, err := a.query(cfg).Run(ctx)
	if err != nil {
		return nil, err
	}
	return wait(ctx, job)
}

//nolint:ireturn // returns the iterator seam so tests can substitute rows.
func (a *sdkAPI) Read(ctx context.Context, cfg *bigquery.QueryConfig) (RowIterator, error) {
	it, err := a.query(cfg).Read(ctx)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (a *sdkAPI) Insert(ctx context.Context, table *bigquery.Table, rows []bigquery.ValueSaver) error {
	return a.table(table).Inserter().Put(ctx, rows)
}

func (a *sdkAPI) Close() error {
	return a.client.Close()
}

func (a *sdkAPI) query(cfg *bigquery.QueryConfig) *bigquery.Query {
	q := a.client.Query(cfg.Q)
	q.QueryConfig = *cfg
	if cfg.Dst != nil {
		q.Dst = a.table(cfg.Dst)
	}
	return q
}

func (a *sdkAPI) table(ref *bigquery.Table) *bigquery.Table {
	project := ref.ProjectID
	if project == "" {
		project = a.client.Project()
	}
	return a.client.DatasetInProject(project, ref.DatasetID).Table(ref.TableID)
}

// wait blocks until the job is done. A job that finished with an error yields its
// status and that error.
func wait(ctx context.Context, job *bigquery.Job) (*bigquery.JobStatus, error) {
	status, err := job.Wait(ctx)
	if err != nil {
		return status, err
	}
	if err := status.Err(); err != nil {
		return status, err
	}
	return status, nil
}
