package bigquery

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gcperrors "github.com/input-output-hk/catalyst-forge-libs/gcp/errors"
)

func TestClient_CopyTable(t *testing.T) {
	tests := []struct {
		name        string
		destDataset string
		wantDataset string
	}{
		{name: "same dataset", destDataset: "", wantDataset: "raw"},
		{name: "other dataset", destDataset: "backup", wantDataset: "backup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *bigquery.CopyConfig
			client, _ := newTestClient(&mockAPI{
				copyFunc: func(_ context.Context, cfg *bigquery.CopyConfig) (*bigquery.JobStatus, error) {
					got = cfg
					return &bigquery.JobStatus{State: bigquery.Done}, nil
				},
			})

			err := client.CopyTable(context.Background(), "raw", "events", tt.destDataset, "events_copy")
			require.NoError(t, err)
			require.Len(t, got.Srcs, 1)
			assert.Equal(t, "raw", got.Srcs[0].DatasetID)
			assert.Equal(t, "events", got.Srcs[0].TableID)
			assert.Equal(t, "test-project", got.Dst.ProjectID)
			assert.Equal(t, tt.wantDataset, got.Dst.DatasetID)
			assert.Equal(t, "events_copy", got.Dst.TableID)
		})
	}

	t.Run("missing destination", func(t *testing.T) {
		client, _ := newTestClient(&mockAPI{})
		err := client.CopyTable(context.Background(), "raw", "events", "", "")
		assert.ErrorIs(t, err, gcperrors.ErrInvalidInput)
	})
}

func TestClient_LoadFromGCS(t *testing.T) {
	found := func(context.Context, string, string) (*bigquery.TableMetadata, error) {
		return &bigquery.TableMetadata{NumRows: 42}, nil
	}

	t.Run("csv defaults", func(t *testing.T) {
		var got *bigquery.LoadConfig
		client, rec := newTestClient(&mockAPI{
			loadFunc: func(_ context.Context, cfg *bigquery.LoadConfig) (*bigquery.JobStatus, error) {
				got = cfg
				return &bigquery.JobStatus{State: bigquery.Done}, nil
			},
			tableMetadataFunc: found,
		})

		err := client.LoadFromGCS(context.Background(), "raw", "events", "gs://bucket/events.csv", LoadOptions{})
		require.NoError(t, err)

		src, ok := got.Src.(*bigquery.GCSReference)
		require.True(t, ok)
		assert.Equal(t, []string{"gs://bucket/events.csv"}, src.URIs)
		assert.Equal(t, bigquery.CSV, src.SourceFormat)
		assert.Equal(t, int64(1), src.SkipLeadingRows)
		assert.True(t, src.AutoDetect)
		assert.Equal(t, bigquery.WriteTruncate, got.WriteDisposition)
		assert.Nil(t, got.TimePartitioning)
		assert.Nil(t, got.Clustering)
		assert.Empty(t, got.SchemaUpdateOptions)

		entry, ok := rec.Find("loaded data")
		require.True(t, ok)
		assert.Equal(t, "42", entry.Attrs["num_rows"])
	})

	t.Run("json append with schema and relaxed fields", func(t *testing.T) {
		schema := bigquery.Schema{{Name: "id", Type: bigquery.IntegerFieldType}}
		var got *bigquery.LoadConfig
		client, _ := newTestClient(&mockAPI{
			loadFunc: func(_ context.Context, cfg *bigquery.LoadConfig) (*bigquery.JobStatus, error) {
				got = cfg
				return &bigquery.JobStatus{State: bigquery.Done}, nil
			},
			tableMetadataFunc: found,
		})

		err := client.LoadFromGCS(context.Background(), "raw", "events", "gs://bucket/events-*.json", LoadOptions{
			Format:           bigquery.JSON,
			WriteDisposition: bigquery.WriteAppend,
			MaxBadRecords:    5,
			Schema:           schema,
			PartitionField:   "ts",
			ClusteringFields: []string{"id", "kind"},
			RelaxedSchema:    true,
		})
		require.NoError(t, err)

		src := got.Src.(*bigquery.GCSReference)
		assert.Equal(t, bigquery.JSON, src.SourceFormat)
		assert.Equal(t, int64(5), src.MaxBadRecords)
		assert.Equal(t, int64(0), src.SkipLeadingRows)
		assert.Equal(t, schema, src.Schema)
		assert.False(t, src.AutoDetect)
		assert.Equal(t, bigquery.WriteAppend, got.WriteDisposition)
		assert.Equal(t, "ts", got.TimePartitioning.Field)
		assert.Equal(t, []string{"id", "kind"}, got.Clustering.Fields)
		assert.Equal(t, []string{AllowFieldAddition, AllowFieldRelaxation}, got.SchemaUpdateOptions)
	})

	t.Run("parquet has no schema", func(t *testing.T) {
		var got *bigquery.LoadConfig
		client, _ := newTestClient(&mockAPI{
			loadFunc: func(_ context.Context, cfg *bigquery.LoadConfig) (*bigquery.JobStatus, error) {
				got = cfg
				return &bigquery.JobStatus{State: bigquery.Done}, nil
			},
			tableMetadataFunc: found,
		})

		err := client.LoadFromGCS(context.Background(), "raw", "events", "gs://bucket/e.parquet",
			LoadOptions{Format: bigquery.Parquet, RelaxedSchema: true})
		require.NoError(t, err)

		src := got.Src.(*bigquery.GCSReference)
		assert.False(t, src.AutoDetect)
		assert.Nil(t, src.Schema)
		assert.Empty(t, got.SchemaUpdateOptions)
	})

	t.Run("job failure logs details", func(t *testing.T) {
		jobErr := &bigquery.Error{Reason: "invalid", Message: "bad row"}
		client, rec := newTestClient(&mockAPI{
			loadFunc: func(context.Context, *bigquery.LoadConfig) (*bigquery.JobStatus, error) {
				return &bigquery.JobStatus{
					State:  bigquery.Done,
					Errors: []*bigquery.Error{jobErr, {Reason: "invalid", Message: "row 7"}},
				}, jobErr
			},
		})

		err := client.LoadFromGCS(context.Background(), "raw", "events", "gs://bucket/e.csv", LoadOptions{})
		assert.ErrorIs(t, err, jobErr)
		assert.Equal(t, gcperrors.CodeInvalidInput, ErrorCode(err))

		failed, ok := rec.Find("load job failed")
		require.True(t, ok)
		assert.Equal(t, string(gcperrors.CodeInvalidInput), failed.Attrs["code"])

		var details int
		for _, e := range rec.Entries() {
			if e.Message == "job error detail" {
				details++
			}
		}
		assert.Equal(t, 2, details)
	})

	t.Run("row count failure is only a warning", func(t *testing.T) {
		client, rec := newTestClient(&mockAPI{
			loadFunc: func(context.Context, *bigquery.LoadConfig) (*bigquery.JobStatus, error) {
				return &bigquery.JobStatus{State: bigquery.Done}, nil
			},
			tableMetadataFunc: func(context.Context, string, string) (*bigquery.TableMetadata, error) {
				return nil, errBackend
			},
		})

		err := client.LoadFromGCS(context.Background(), "raw", "events", "gs://bucket/e.csv", LoadOptions{})
		assert.NoError(t, err)
		assert.True(t, rec.HasLevel(slog.LevelWarn))
	})

	t.Run("invalid arguments", func(t *testing.T) {
		tests := []struct {
			name string
			uri  string
			opts LoadOptions
		}{
			{name: "empty uri", uri: ""},
			{name: "not a gcs uri", uri: "s3://bucket/key"},
			{name: "unknown format", uri: "gs://bucket/key", opts: LoadOptions{Format: bigquery.GoogleSheets}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				client, _ := newTestClient(&mockAPI{})
				err := client.LoadFromGCS(context.Background(), "raw", "events", tt.uri, tt.opts)
				assert.ErrorIs(t, err, gcperrors.ErrInvalidInput)
			})
		}
	})
}

func TestClient_ExtractToGCS(t *testing.T) {
	tests := []struct {
		name   string
		uri    string
		format bigquery.DataFormat
		want   bigquery.DataFormat
	}{
		{name: "inferred csv", uri: "gs://b/out-*.csv", want: bigquery.CSV},
		{name: "inferred json", uri: "gs://b/out.json", want: bigquery.JSON},
		{name: "inferred avro", uri: "gs://b/out.AVRO", want: bigquery.Avro},
		{name: "inferred parquet", uri: "gs://b/out.parquet", want: bigquery.Parquet},
		{name: "no suffix", uri: "gs://b/out", want: bigquery.CSV},
		{name: "explicit wins", uri: "gs://b/out.csv", format: bigquery.Avro, want: bigquery.Avro},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *bigquery.ExtractConfig
			client, _ := newTestClient(&mockAPI{
				extractFunc: func(_ context.Context, cfg *bigquery.ExtractConfig) (*bigquery.JobStatus, error) {
					got = cfg
					return &bigquery.JobStatus{State: bigquery.Done}, nil
				},
			})

			err := client.ExtractToGCS(context.Background(), "raw", "events", tt.uri, tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Dst.DestinationFormat)
			assert.Equal(t, []string{tt.uri}, got.Dst.URIs)
			assert.Equal(t, "events", got.Src.TableID)
		})
	}

	t.Run("unsupported explicit format", func(t *testing.T) {
		client, _ := newTestClient(&mockAPI{})
		err := client.ExtractToGCS(context.Background(), "raw", "events", "gs://b/out", bigquery.DatastoreBackup)
		assert.ErrorIs(t, err, gcperrors.ErrInvalidInput)
	})
}

func TestClient_Query(t *testing.T) {
	t.Run("returns rows", func(t *testing.T) {
		var got *bigquery.QueryConfig
		params := []bigquery.QueryParameter{{Name: "kind", Value: "click"}}
		client, _ := newTestClient(&mockAPI{
			readFunc: func(_ context.Context, cfg *bigquery.QueryConfig) (RowIterator, error) {
				got = cfg
				return &sliceIterator{rows: []map[string]bigquery.Value{
					{"id": int64(1), "kind": "click"},
					{"id": int64(2), "kind": "click"},
				}}, nil
			},
		})

		rows, err := client.Query(context.Background(), "SELECT id, kind FROM t WHERE kind = @kind",
			QueryOptions{Parameters: params})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, int64(2), rows[1]["id"])
		assert.Equal(t, "SELECT id, kind FROM t WHERE kind = @kind", got.Q)
		assert.Equal(t, params, got.Parameters)
		assert.Nil(t, got.Dst)
	})

	t.Run("iteration error", func(t *testing.T) {
		iterErr := errors.New("stream broken")
		client, _ := newTestClient(&mockAPI{
			readFunc: func(context.Context, *bigquery.QueryConfig) (RowIterator, error) {
				return &sliceIterator{rows: []map[string]bigquery.Value{{"id": 1}}, err: iterErr}, nil
			},
		})

		rows, err := client.Query(context.Background(), "SELECT 1", QueryOptions{})
		assert.ErrorIs(t, err, iterErr)
		assert.Nil(t, rows)
	})

	t.Run("empty sql", func(t *testing.T) {
		client, _ := newTestClient(&mockAPI{})
		_, err := client.Query(context.Background(), "", QueryOptions{})
		assert.ErrorIs(t, err, gcperrors.ErrInvalidInput)
	})
}

func TestClient_QueryToTable(t *testing.T) {
	var got *bigquery.QueryConfig
	client, _ := newTestClient(&mockAPI{
		queryFunc: func(_ context.Context, cfg *bigquery.QueryConfig) (*bigquery.JobStatus, error) {
			got = cfg
			return &bigquery.JobStatus{State: bigquery.Done}, nil
		},
	})

	err := client.QueryToTable(context.Background(), "SELECT * FROM raw.events", "curated", "events",
		QueryOptions{WriteDisposition: bigquery.WriteAppend, RelaxedSchema: true, PartitionField: "ts"})
	require.NoError(t, err)
	assert.Equal(t, "curated", got.Dst.DatasetID)
	assert.Equal(t, "events", got.Dst.TableID)
	assert.Equal(t, bigquery.CreateIfNeeded, got.CreateDisposition)
	assert.Equal(t, bigquery.WriteAppend, got.WriteDisposition)
	assert.Equal(t, []string{AllowFieldAddition, AllowFieldRelaxation}, got.SchemaUpdateOptions)
	assert.Equal(t, "ts", got.TimePartitioning.Field)
	assert.Nil(t, got.Clustering)
}

func TestClient_InsertRows(t *testing.T) {
	t.Run("forwards rows", func(t *testing.T) {
		var gotTable *bigquery.Table
		var gotRows []bigquery.ValueSaver
		client, _ := newTestClient(&mockAPI{
			insertFunc: func(_ context.Context, table *bigquery.Table, rows []bigquery.ValueSaver) error {
				gotTable, gotRows = table, rows
				return nil
			},
		})

		rows := []Row{{"id": 1}, {"id": 2}}
		require.NoError(t, client.InsertRows(context.Background(), "raw", "events", rows))
		assert.Equal(t, "events", gotTable.TableID)
		require.Len(t, gotRows, 2)

		values, insertID, err := gotRows[1].Save()
		require.NoError(t, err)
		assert.Empty(t, insertID)
		assert.Equal(t, bigquery.Value(2), values["id"])
	})

	t.Run("no rows makes no call", func(t *testing.T) {
		client, _ := newTestClient(&mockAPI{
			insertFunc: func(context.Context, *bigquery.Table, []bigquery.ValueSaver) error {
				t.Fatal("Insert must not be called")
				return nil
			},
		})
		assert.NoError(t, client.InsertRows(context.Background(), "raw", "events", nil))
	})
}
