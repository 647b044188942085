package service

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Upload constraints enforced before any upstream call.
const (
	MaxUploadBytes = int64(50 * 1024 * 1024) // 50 MB
)

var allowedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

var deniedExtensions = map[string]bool{
	".exe": true, ".bat": true, ".cmd": true, ".sh": true, ".ps1": true,
	".js": true, ".vbs": true, ".jar": true, ".msi": true, ".dll": true,
	".scr": true, ".com": true, ".app": true,
}

// ValidateUpload checks a file's name, size and declared content type
// against the upload constraints. It returns a client-facing error when
// the file must be rejected before reaching the upstream API.
func ValidateUpload(filename string, size int64, contentType string) error {
	ext := strings.ToLower(filepath.Ext(filename))

	if deniedExtensions[ext] {
		return fmt.Errorf("file type %s is not allowed", ext)
	}

	expectedType, ok := allowedExtensions[ext]
	if !ok {
		return fmt.Errorf("unsupported file type %s", ext)
	}

	if size > MaxUploadBytes {
		return fmt.Errorf("file exceeds the %dMB size limit", MaxUploadBytes/(1024*1024))
	}
	if size == 0 {
		return fmt.Errorf("file is empty")
	}

	// Browsers often send octet-stream; trust the extension in that case
	if contentType != "" && contentType != "application/octet-stream" {
		if !strings.EqualFold(contentType, expectedType) && !strings.HasPrefix(contentType, expectedType) {
			return fmt.Errorf("content type %s does not match file extension %s", contentType, ext)
		}
	}

	return nil
}
