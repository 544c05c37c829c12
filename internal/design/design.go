// Package design loads design payloads from YAML, TOML or JSON documents.
package design

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/designorch/internal/task"
)

// MaxSize bounds a single design document.
const MaxSize = 4 * 1024 * 1024

var (
	// ErrUnknownFormat indicates the format could not be determined.
	ErrUnknownFormat = errors.New("unknown design format")

	// ErrTooLarge indicates the document exceeds MaxSize.
	ErrTooLarge = errors.New("design document too large")
)

// Format names a supported encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// LoadFile reads and decodes the design at path. "-" reads stdin as JSON.
func LoadFile(path string) (task.Design, error) {
	if path == "-" {
		return Decode(os.Stdin, FormatJSON)
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening design: %w", err)
	}
	defer f.Close()

	d, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Decode reads one design document from r.
func Decode(r io.Reader, format Format) (task.Design, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading design: %w", err)
	}
	if len(data) > MaxSize {
		return nil, ErrTooLarge
	}
	return Parse(data, format)
}

// Parse decodes data in the given format. An empty document yields an
// empty, non-nil design.
func Parse(data []byte, format Format) (task.Design, error) {
	d := task.Design{}
	if len(bytes.TrimSpace(data)) == 0 {
		return d, nil
	}

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &d)
	case FormatTOML:
		err = toml.Unmarshal(data, &d)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&d)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s design: %w", format, err)
	}
	if d == nil {
		d = task.Design{}
	}
	return d, nil
}
