package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/household-ledger/internal/pipeline"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// rowInserter is satisfied by *bigquery.Inserter.
type rowInserter interface {
	Put(ctx context.Context, src interface{}) error
}

// RunRecorder implements pipeline.RunRecorder by streaming rows into a BigQuery table.
type RunRecorder struct {
	client    *bigquery.Client
	table     *bigquery.Table
	inserter  rowInserter
	modelName string
}

// NewRunRecorder creates a recorder writing to project.dataset.table.
func NewRunRecorder(ctx context.Context, projectID, datasetID, tableID, modelName string, opts ...option.ClientOption) (*RunRecorder, error) {
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewRunRecorder: creating client: %w", err)
	}

	table := client.DatasetInProject(projectID, datasetID).Table(tableID)
	return &RunRecorder{
		client:    client,
		table:     table,
		inserter:  table.Inserter(),
		modelName: modelName,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *RunRecorder) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// EnsureTable creates the audit table from ExtractionRunRow when it does not exist.
func (r *RunRecorder) EnsureTable(ctx context.Context) error {
	_, err := r.table.Metadata(ctx)
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return fmt.Errorf("EnsureTable: reading table metadata: %w", err)
	}

	schema, err := bigquery.InferSchema(ExtractionRunRow{})
	if err != nil {
		return fmt.Errorf("EnsureTable: inferring schema: %w", err)
	}

	meta := &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: "started_ts",
		},
	}
	if err := r.table.Create(ctx, meta); err != nil {
		return fmt.Errorf("EnsureTable: creating table: %w", err)
	}
	return nil
}

// RecordRun inserts one audit row. The run id doubles as the insert id so a repeated
// insert of the same run is deduplicated by BigQuery.
func (r *RunRecorder) RecordRun(ctx context.Context, run *pipeline.ExtractionRun) error {
	row := NewExtractionRunRow(run, r.modelName)

	saver := &bigquery.StructSaver{
		Struct:   row,
		InsertID: row.RunID,
	}
	if err := r.inserter.Put(ctx, saver); err != nil {
		return fmt.Errorf("RecordRun: inserting row: %w", err)
	}
	return nil
}
