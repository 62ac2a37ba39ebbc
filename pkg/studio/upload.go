package studio

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
)

// NewUploadFromFile reads a local audio file into an Upload, deriving the
// MIME type from the extension.
func NewUploadFromFile(path string) (*Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("studio: couldn't read source file: %w", err)
	}
	name := filepath.Base(path)
	ext := filepath.Ext(path)
	var mimeType string
	switch ext {
	case ".wav":
		mimeType = "audio/wav"
	case ".mp3":
		mimeType = "audio/mpeg"
	case ".ogg":
		mimeType = "audio/ogg"
	case ".flac":
		mimeType = "audio/flac"
	default:
		mimeType = mime.TypeByExtension(ext)
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &Upload{
		Name: name,
		MIME: mimeType,
		Data: data,
	}, nil
}

// ErrorKind labels an error with its taxonomy kind for logs and the session
// history.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var depErr *DependencyError
	if errors.As(err, &depErr) {
		return "dependency_missing"
	}
	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		return "server"
	}
	var trErr *TransportError
	if errors.As(err, &trErr) {
		return "transport"
	}
	return "local"
}
