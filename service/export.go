package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tabular-review/gateway/model"
)

// ErrReviewNotFound reports a review the caller cannot export: missing,
// owned by someone else, or without any columns to serialize.
var ErrReviewNotFound = errors.New("review not found")

// Exporter serializes review results to CSV. It reads the review tables
// directly instead of going through the upstream API; everything is
// read-only.
type Exporter struct {
	pool *pgxpool.Pool
}

func NewExporter(ctx context.Context, databaseURL string) (*Exporter, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Exporter{pool: pool}, nil
}

func (e *Exporter) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

// ExportCSV builds the CSV document for one review owned by the caller.
func (e *Exporter) ExportCSV(ctx context.Context, reviewID, userID string) ([]byte, error) {
	columns, err := e.reviewColumns(ctx, reviewID, userID)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, ErrReviewNotFound
	}

	files, err := e.reviewFiles(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	results, err := e.reviewResults(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	return BuildCSV(columns, files, results), nil
}

func (e *Exporter) reviewColumns(ctx context.Context, reviewID, userID string) ([]model.ReviewColumn, error) {
	rows, err := e.pool.Query(ctx, `
		SELECT c.id, c.column_name, c.column_order
		FROM tabular_review_columns c
		JOIN tabular_reviews r ON r.id = c.review_id
		WHERE c.review_id = $1 AND r.user_id = $2
		ORDER BY c.column_order, c.created_at`,
		reviewID, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying review columns: %w", err)
	}
	defer rows.Close()

	var columns []model.ReviewColumn
	for rows.Next() {
		var c model.ReviewColumn
		if err := rows.Scan(&c.ID, &c.ColumnName, &c.ColumnOrder); err != nil {
			return nil, fmt.Errorf("error scanning column row: %w", err)
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

func (e *Exporter) reviewFiles(ctx context.Context, reviewID string) ([]model.File, error) {
	rows, err := e.pool.Query(ctx, `
		SELECT f.id, COALESCE(f.original_filename, '')
		FROM tabular_review_files rf
		JOIN files f ON f.id = rf.file_id
		WHERE rf.review_id = $1
		ORDER BY f.original_filename, f.id`,
		reviewID)
	if err != nil {
		return nil, fmt.Errorf("error querying review files: %w", err)
	}
	defer rows.Close()

	var files []model.File
	for rows.Next() {
		var f model.File
		if err := rows.Scan(&f.ID, &f.OriginalFilename); err != nil {
			return nil, fmt.Errorf("error scanning file row: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (e *Exporter) reviewResults(ctx context.Context, reviewID string) ([]model.ReviewResult, error) {
	rows, err := e.pool.Query(ctx, `
		SELECT file_id, column_id, extracted_value
		FROM tabular_review_results
		WHERE review_id = $1`,
		reviewID)
	if err != nil {
		return nil, fmt.Errorf("error querying review results: %w", err)
	}
	defer rows.Close()

	var results []model.ReviewResult
	for rows.Next() {
		var r model.ReviewResult
		if err := rows.Scan(&r.FileID, &r.ColumnID, &r.ExtractedValue); err != nil {
			return nil, fmt.Errorf("error scanning result row: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// BuildCSV serializes the review grid. Every cell is wrapped in double
// quotes with embedded quotes doubled; a missing result renders as an
// empty quoted cell. Rows are files, columns are extraction targets in
// column order.
func BuildCSV(columns []model.ReviewColumn, files []model.File, results []model.ReviewResult) []byte {
	// Lookup keyed by file and column
	values := make(map[string]string, len(results))
	for _, r := range results {
		if r.ExtractedValue != nil {
			values[r.FileID+":"+r.ColumnID] = *r.ExtractedValue
		}
	}

	var sb strings.Builder

	header := make([]string, 0, len(columns)+1)
	header = append(header, quoteCell("Filename"))
	for _, c := range columns {
		header = append(header, quoteCell(c.ColumnName))
	}
	sb.WriteString(strings.Join(header, ","))
	sb.WriteString("\n")

	for _, f := range files {
		row := make([]string, 0, len(columns)+1)
		row = append(row, quoteCell(f.OriginalFilename))
		for _, c := range columns {
			row = append(row, quoteCell(values[f.ID+":"+c.ID]))
		}
		sb.WriteString(strings.Join(row, ","))
		sb.WriteString("\n")
	}

	return []byte(sb.String())
}

func quoteCell(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
