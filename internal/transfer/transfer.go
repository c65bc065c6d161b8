// Package transfer encodes and decodes subscription lists for export and
// import. JSON matches the stored collection; YAML and XLSX are for humans.
package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/subtrack/internal/model"

	"gopkg.in/yaml.v3"
)

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

// ErrUnknownFormat is returned for an unsupported format name or extension.
var ErrUnknownFormat = errors.New("transfer: unknown format")

// ParseFormat accepts "json", "yaml"/"yml" and "xlsx", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Encode writes subs to w in format f.
func Encode(w io.Writer, f Format, subs []model.Subscription) error {
	if subs == nil {
		subs = []model.Subscription{}
	}
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(subs); err != nil {
			return fmt.Errorf("transfer: encoding json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(subs); err != nil {
			return fmt.Errorf("transfer: encoding yaml: %w", err)
		}
		return enc.Close()
	case FormatXLSX:
		return encodeXLSX(w, subs)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Decode reads subscriptions from r in format f. Records are returned as
// read; callers validate them when storing.
func Decode(r io.Reader, f Format) ([]model.Subscription, error) {
	var subs []model.Subscription
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&subs); err != nil {
			return nil, fmt.Errorf("transfer: decoding json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&subs); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("transfer: decoding yaml: %w", err)
		}
	case FormatXLSX:
		return decodeXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return subs, nil
}
