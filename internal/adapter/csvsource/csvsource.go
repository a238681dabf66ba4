// Package csvsource reads raw sighting rows from delimited text, either a
// local file or an HTTP endpoint. The first record is the header; every
// following record becomes one column-name→value map. Header matching is the
// normalizer's job, so headers are passed through verbatim.
package csvsource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// File reads rows from a CSV file on disk.
type File struct {
	path string
}

// NewFile creates a source over the given path.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) ReadRows(_ context.Context) ([]map[string]string, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer file.Close()

	rows, err := decodeRows(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return rows, nil
}

// HTTP reads rows from a CSV document served over HTTP.
type HTTP struct {
	url    string
	client *http.Client
}

// NewHTTP creates a source over the given URL with a per-request timeout.
func NewHTTP(url string, timeout time.Duration) *HTTP {
	return &HTTP{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (h *HTTP) ReadRows(ctx context.Context) ([]map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", h.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", h.url, resp.StatusCode)
	}

	rows, err := decodeRows(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", h.url, err)
	}
	return rows, nil
}

// decodeRows parses header + data records into row maps. Rows with a
// different field count than the header are malformed transport data and
// fail the whole read; content-level problems are the normalizer's concern.
func decodeRows(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // length checked against the header below

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", len(rows)+2, len(record), len(header))
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			row[col] = record[i]
		}
		rows = append(rows, row)
	}
}
