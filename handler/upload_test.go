package handler

import (
	"bytes"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func uploadRouter(backend string) *gin.Engine {
	h := NewUploadHandler(newTestBackend(backend))
	router := gin.New()
	router.POST("/api/files/upload", asUser("user-1", h.Upload))
	return router
}

func multipartBody(t *testing.T, filename, fileType string, content []byte, fields map[string]string) (string, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write field: %v", err)
		}
	}
	if filename != "" {
		hdr := make(map[string][]string)
		hdr["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
		hdr["Content-Type"] = []string{fileType}
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("Failed to create part: %v", err)
		}
		part.Write(content)
	}
	mw.Close()
	return mw.FormDataContentType(), buf.Bytes()
}

func TestUploadForwardsOriginalBody(t *testing.T) {
	contentType, body := multipartBody(t, "contract.pdf", "application/pdf",
		[]byte("%PDF-1.4 test"), map[string]string{"folder_id": "fo-1"})

	var forwarded []byte
	var forwardedType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/files/upload" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		forwardedType = r.Header.Get("Content-Type")
		buf := new(bytes.Buffer)
		buf.ReadFrom(r.Body)
		forwarded = buf.Bytes()
		w.Write([]byte(`{"id":"fi-1","status":"queued"}`))
	}))
	defer server.Close()

	req := httptest.NewRequest("POST", "/api/files/upload", bytes.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	uploadRouter(server.URL).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if forwardedType != contentType {
		t.Errorf("Expected Content-Type %q preserved, got %q", contentType, forwardedType)
	}
	if !bytes.Equal(forwarded, body) {
		t.Error("Expected body forwarded byte for byte")
	}

	// The forwarded boundary must still parse upstream
	_, params, err := mime.ParseMediaType(forwardedType)
	if err != nil {
		t.Fatalf("Forwarded Content-Type did not parse: %v", err)
	}
	mr := multipart.NewReader(bytes.NewReader(forwarded), params["boundary"])
	if _, err := mr.NextPart(); err != nil {
		t.Errorf("Forwarded multipart body did not parse: %v", err)
	}
}

func TestUploadRejectsBeforeForwarding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Upstream should not be called for invalid uploads")
	}))
	defer server.Close()

	router := uploadRouter(server.URL)

	tests := []struct {
		name     string
		filename string
		fileType string
		content  []byte
	}{
		{"executable extension", "malware.exe", "application/octet-stream", []byte("MZ")},
		{"script extension", "run.sh", "text/x-sh", []byte("#!/bin/sh")},
		{"unsupported extension", "image.png", "image/png", []byte{0x89, 0x50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contentType, body := multipartBody(t, tt.filename, tt.fileType, tt.content, nil)
			req := httptest.NewRequest("POST", "/api/files/upload", bytes.NewReader(body))
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
			var resp map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}
			if _, ok := resp["error"].(string); !ok {
				t.Error("Expected error message in response")
			}
		})
	}
}

func TestUploadRequiresMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Upstream should not be called")
	}))
	defer server.Close()

	req := httptest.NewRequest("POST", "/api/files/upload", bytes.NewReader([]byte(`{"file":"x"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	uploadRouter(server.URL).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for non-multipart body, got %d", w.Code)
	}
}

func TestUploadRequiresFilePart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Upstream should not be called")
	}))
	defer server.Close()

	contentType, body := multipartBody(t, "", "", nil, map[string]string{"folder_id": "fo-1"})
	req := httptest.NewRequest("POST", "/api/files/upload", bytes.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	uploadRouter(server.URL).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 when no file part present, got %d", w.Code)
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "No file provided" {
		t.Errorf("Expected no-file error, got %v", resp["error"])
	}
}

// Upstream validation errors arrive as {"detail": ...}; the browser gets
// a flat {"error": ...} body regardless of the upstream shape.
func TestUploadNormalizesUpstreamError(t *testing.T) {
	contentType, body := multipartBody(t, "contract.pdf", "application/pdf", []byte("%PDF-1.4"), nil)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":"File is password protected"}`))
	}))
	defer server.Close()

	req := httptest.NewRequest("POST", "/api/files/upload", bytes.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	uploadRouter(server.URL).ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected upstream status 422 passed through, got %d", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["error"] != "File is password protected" {
		t.Errorf("Expected detail unwrapped into error, got %v", resp["error"])
	}
}
