package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "sheetkpi/internal/errors"
)

// JSONWriter writes documents to a single JSON file. Each write replaces
// the file atomically so readers never observe a partial document.
type JSONWriter struct {
	path   string
	indent string
	logger *slog.Logger
}

// NewJSONWriter creates a writer targeting path, indented two spaces
func NewJSONWriter(path string, logger *slog.Logger) *JSONWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONWriter{
		path:   path,
		indent: "  ",
		logger: logger.With(slog.String("component", "json_writer")),
	}
}

// Path returns the destination file
func (w *JSONWriter) Path() string {
	return w.path
}

// Write encodes v and renames it over the destination. Non-ASCII text is
// written as UTF-8, not escaped.
func (w *JSONWriter) Write(ctx context.Context, v interface{}) error {
	data, err := Encode(v, w.indent)
	if err != nil {
		return apperrors.NewStorageError("failed to encode document", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError("failed to create output directory", err).
			With("dir", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return apperrors.NewStorageError("failed to create temp file", err).
			With("dir", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.NewStorageError("failed to write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperrors.NewStorageError("failed to sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStorageError("failed to close temp file", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return apperrors.NewStorageError("failed to set file mode", err)
	}

	if err := os.Rename(tmpName, w.path); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to replace %s", w.path), err)
	}

	w.logger.InfoContext(ctx, "document written",
		slog.String("path", w.path),
		slog.Int("bytes", len(data)))
	return nil
}

// Encode marshals v with the given indent, without HTML escaping, and
// terminates the output with a newline
func Encode(v interface{}, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
