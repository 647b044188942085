package model

import (
	"time"
)

// File represents an uploaded document as the upstream API reports it.
// Every optional field may be absent in upstream payloads, so consumers
// must tolerate zero values throughout.
type File struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id,omitempty"`
	OriginalFilename string     `json:"original_filename"`
	FileSize         int64      `json:"file_size,omitempty"`
	FileType         string     `json:"file_type,omitempty"`
	FolderID         string     `json:"folder_id,omitempty"`
	StorageURL       string     `json:"storage_url,omitempty"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
	ErrorMessage     string     `json:"error_message,omitempty"`
}

// Folder represents a user-defined grouping of files.
type Folder struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	FileCount   int       `json:"file_count"`
	TotalSize   int64     `json:"total_size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Review is a named collection of files crossed with extraction columns,
// populated by the upstream extraction service.
type Review struct {
	ID                   string         `json:"id"`
	UserID               string         `json:"user_id,omitempty"`
	Name                 string         `json:"name"`
	Description          string         `json:"description,omitempty"`
	Status               string         `json:"status"`
	ReviewScope          string         `json:"review_scope,omitempty"`
	FolderID             string         `json:"folder_id,omitempty"`
	CompletionPercentage float64        `json:"completion_percentage"`
	TotalFiles           int            `json:"total_files"`
	TotalColumns         int            `json:"total_columns"`
	Columns              []ReviewColumn `json:"columns,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	LastProcessedAt      *time.Time     `json:"last_processed_at,omitempty"`
}

// ReviewColumn is a user-defined extraction target applied to every file
// in a review.
type ReviewColumn struct {
	ID          string    `json:"id"`
	ReviewID    string    `json:"review_id,omitempty"`
	ColumnName  string    `json:"column_name"`
	Prompt      string    `json:"prompt"`
	DataType    string    `json:"data_type"`
	ColumnOrder int       `json:"column_order"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReviewResult is one extracted cell, keyed by (review, file, column).
type ReviewResult struct {
	ID              string   `json:"id,omitempty"`
	ReviewID        string   `json:"review_id,omitempty"`
	FileID          string   `json:"file_id"`
	ColumnID        string   `json:"column_id"`
	ExtractedValue  *string  `json:"extracted_value"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	SourceReference string   `json:"source_reference,omitempty"`
}

// File status constants
const (
	FileStatusQueued     = "queued"
	FileStatusProcessing = "processing"
	FileStatusCompleted  = "completed"
	FileStatusFailed     = "failed"
)

// Review status constants
const (
	ReviewStatusPending    = "pending"
	ReviewStatusProcessing = "processing"
	ReviewStatusCompleted  = "completed"
	ReviewStatusFailed     = "failed"
	ReviewStatusPaused     = "paused"
)

// Column data types accepted by the upstream API
var ColumnDataTypes = map[string]bool{
	"text":    true,
	"number":  true,
	"date":    true,
	"boolean": true,
	"email":   true,
	"url":     true,
}
