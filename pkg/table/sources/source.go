// Package sources loads tables from files, HTTP endpoints and graph queries.
package sources

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/athapong/graph-bridge/pkg/table"
	"github.com/pkg/errors"
)

// Format identifies a tabular encoding
type Format string

const (
	FormatCSV     Format = "csv"
	FormatTSV     Format = "tsv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
	FormatHTML    Format = "html"
)

// Options tune how a source is decoded
type Options struct {
	// Format overrides detection from the file extension or content type
	Format Format
	// DataPath selects a nested array in JSON input
	DataPath string
}

// DetectFormat guesses the format from a path or URL extension
func DetectFormat(location string) (Format, bool) {
	if u, err := url.Parse(location); err == nil && u.Scheme != "" && u.Path != "" {
		location = u.Path
	}
	switch strings.ToLower(filepath.Ext(location)) {
	case ".csv":
		return FormatCSV, true
	case ".tsv", ".tab":
		return FormatTSV, true
	case ".json":
		return FormatJSON, true
	case ".parquet", ".pq":
		return FormatParquet, true
	case ".html", ".htm":
		return FormatHTML, true
	}
	return "", false
}

func formatFromContentType(contentType string) (Format, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	switch mediaType {
	case "text/csv", "application/csv":
		return FormatCSV, true
	case "text/tab-separated-values":
		return FormatTSV, true
	case "application/json", "text/json":
		return FormatJSON, true
	case "application/vnd.apache.parquet", "application/x-parquet":
		return FormatParquet, true
	case "text/html", "application/xhtml+xml":
		return FormatHTML, true
	}
	return "", false
}

// Decode reads data in the given format
func Decode(data []byte, format Format, opts Options) (*table.Table, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(bytes.NewReader(data), ',')
	case FormatTSV:
		return ReadCSV(bytes.NewReader(data), '\t')
	case FormatJSON:
		return ReadJSON(data, opts.DataPath)
	case FormatParquet:
		return ReadParquetBytes(data)
	case FormatHTML:
		return ReadHTML(bytes.NewReader(data))
	}
	return nil, errors.Errorf("unsupported table format %q", format)
}

// LoadFile reads a local file, choosing the decoder from its extension
// unless opts.Format is set.
func LoadFile(ctx context.Context, path string, opts Options) (*table.Table, error) {
	format := opts.Format
	if format == "" {
		detected, ok := DetectFormat(path)
		if !ok {
			return nil, errors.Errorf("cannot detect table format of %s", path)
		}
		format = detected
	}

	if format == FormatParquet {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "open file")
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return nil, errors.Wrap(err, "stat file")
		}
		return ReadParquet(f, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}
	return Decode(data, format, opts)
}

// Fetch downloads a table over HTTP. The format comes from opts, then the
// response Content-Type, then the URL extension.
func Fetch(ctx context.Context, client *http.Client, rawURL string, opts Options) (*table.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch URL")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errors.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	format := opts.Format
	if format == "" {
		if f, ok := formatFromContentType(resp.Header.Get("Content-Type")); ok {
			format = f
		} else if f, ok := DetectFormat(rawURL); ok {
			format = f
		} else {
			return nil, errors.Errorf("cannot detect table format of %s", rawURL)
		}
	}
	return Decode(body, format, opts)
}

// Load reads location as an http(s) URL when it has that scheme and as a
// local path otherwise.
func Load(ctx context.Context, client *http.Client, location string, opts Options) (*table.Table, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return Fetch(ctx, client, location, opts)
	}
	return LoadFile(ctx, location, opts)
}
