// Package storage persists the sealed aggregate as the JSON contract the
// presentation layer reads: one object whose keys are stringified ordinals
// in aggregate order.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"liscraper/pkg/models"
)

// outputRecord is the wire shape of one post in the output file. Every key
// is always present; absent values serialize as empty strings or arrays.
type outputRecord struct {
	Original  string        `json:"original"`
	Text      string        `json:"text"`
	Media     []string      `json:"media"`
	Timestamp string        `json:"timestamp"`
	Author    models.Author `json:"author"`
}

// Writer persists aggregates to a fixed output path.
type Writer struct {
	path string
}

// NewWriter creates a Writer for path, creating the parent directory if
// needed.
func NewWriter(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return &Writer{path: path}, nil
}

// Path returns the configured output path.
func (w *Writer) Path() string {
	return w.path
}

// Write serializes the sealed records in order. Keys are emitted as "0",
// "1", ... in record order; a plain map marshal would sort them
// lexicographically ("10" before "2"), so the object is built by hand.
// The file lands via a temp-file rename, so readers never observe a
// partial write.
func (w *Writer) Write(records []*models.PostRecord) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}

	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize output file: %w", err)
	}

	return nil
}

// Encode renders the ordinal-keyed JSON document for records.
func Encode(records []*models.PostRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")

	for i, rec := range records {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")

		key, _ := json.Marshal(strconv.Itoa(i))
		buf.Write(key)
		buf.WriteString(": ")

		out := outputRecord{
			Original:  rec.Original,
			Text:      rec.Text,
			Media:     rec.Media,
			Timestamp: rec.Timestamp.Format(models.TimestampLayout),
			Author:    rec.Author,
		}
		if out.Media == nil {
			out.Media = []string{}
		}

		entry, err := json.MarshalIndent(out, "  ", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record %d: %w", i, err)
		}
		buf.Write(entry)
	}

	if len(records) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")

	return buf.Bytes(), nil
}
