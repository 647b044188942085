package model

import (
	"sort"
)

// FileStats is the status histogram derived from a file listing.
type FileStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Queued     int `json:"queued"`
}

// CalculateFileStats derives a status histogram from a fetched file list.
// Unknown statuses count toward the total only.
func CalculateFileStats(files []File) FileStats {
	stats := FileStats{Total: len(files)}
	for _, f := range files {
		switch f.Status {
		case FileStatusCompleted:
			stats.Completed++
		case FileStatusProcessing:
			stats.Processing++
		case FileStatusFailed:
			stats.Failed++
		case FileStatusQueued:
			stats.Queued++
		}
	}
	return stats
}

// ReviewStats summarizes a review listing.
type ReviewStats struct {
	Total         int     `json:"total"`
	Completed     int     `json:"completed"`
	Processing    int     `json:"processing"`
	Failed        int     `json:"failed"`
	AvgCompletion float64 `json:"avg_completion"`
}

// CalculateReviewStats derives review counts and the average completion
// percentage from a fetched review list.
func CalculateReviewStats(reviews []Review) ReviewStats {
	stats := ReviewStats{Total: len(reviews)}
	if len(reviews) == 0 {
		return stats
	}

	var sum float64
	for _, r := range reviews {
		switch r.Status {
		case ReviewStatusCompleted:
			stats.Completed++
		case ReviewStatusProcessing:
			stats.Processing++
		case ReviewStatusFailed:
			stats.Failed++
		}
		sum += r.CompletionPercentage
	}
	stats.AvgCompletion = sum / float64(len(reviews))
	return stats
}

// FolderStats summarizes a folder listing.
type FolderStats struct {
	Total     int   `json:"total"`
	TotalSize int64 `json:"total_size"`
}

func CalculateFolderStats(folders []Folder) FolderStats {
	stats := FolderStats{Total: len(folders)}
	for _, f := range folders {
		stats.TotalSize += f.TotalSize
	}
	return stats
}

// RecentFiles returns up to n files ordered by creation time, newest
// first. The input slice is not modified.
func RecentFiles(files []File, n int) []File {
	if n <= 0 {
		return []File{}
	}

	sorted := make([]File, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
