// Package manifest loads object manifests from config files.
//
// The format is chosen by file extension: .yaml/.yml, .json, .toml, .hcl,
// .cue or .cbor. Every format decodes into the same shape: map[string]any
// with nested []any and map[string]any values, integers as int64 and other
// numbers as float64.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	afberrors "github.com/zjrosen/afb/internal/errors"
	"github.com/zjrosen/afb/internal/log"
)

// Format names a manifest encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatHCL  Format = "hcl"
	FormatCUE  Format = "cue"
	FormatCBOR Format = "cbor"
)

// Loader errors
var (
	ErrUnknownFormat = errors.New("unknown manifest format")
	ErrNotSingleKey  = errors.New("manifest must hold exactly one top-level key")
	ErrNotMapping    = errors.New("manifest root must be a mapping")
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatYAML, FormatJSON, FormatTOML, FormatHCL, FormatCUE, FormatCBOR}
}

// FormatOf picks the format for path from its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".hcl":
		return FormatHCL, nil
	case ".cue":
		return FormatCUE, nil
	case ".cbor":
		return FormatCBOR, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// ParseFormat reads a format name such as "yaml" or "yml".
func ParseFormat(name string) (Format, error) {
	return FormatOf("x." + strings.TrimPrefix(name, "."))
}

// Load reads and decodes the file at path.
func Load(path string) (map[string]any, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: manifest path is user supplied
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	m, err := Decode(data, format, path)
	if err != nil {
		return nil, err
	}
	log.Debug(log.CatLoader, "loaded manifest", "path", path, "format", format, "keys", len(m))
	return m, nil
}

// LoadObject loads a file holding a single object spec: a mapping with
// exactly one top-level key.
func LoadObject(path string) (map[string]any, error) {
	m, err := Load(path)
	if err != nil {
		return nil, err
	}
	if len(m) != 1 {
		return nil, afberrors.Wrap(afberrors.ErrInvalidFormat, ErrNotSingleKey,
			fmt.Sprintf("%s has %d keys", path, len(m)))
	}
	return m, nil
}

// Decode decodes data in the given format. name is used in error messages.
func Decode(data []byte, format Format, name string) (map[string]any, error) {
	var (
		raw any
		err error
	)
	switch format {
	case FormatYAML:
		raw, err = decodeYAML(data)
	case FormatJSON:
		raw, err = decodeJSON(data)
	case FormatTOML:
		raw, err = decodeTOML(data)
	case FormatHCL:
		raw, err = decodeHCL(data, name)
	case FormatCUE:
		raw, err = decodeCUE(data, name)
	case FormatCBOR:
		raw, err = decodeCBOR(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		log.ErrorErr(log.CatLoader, "decode failed", err, "name", name, "format", format)
		return nil, afberrors.Wrap(afberrors.ErrInvalidFormat, err, fmt.Sprintf("parse %s", name))
	}

	if raw == nil {
		return map[string]any{}, nil
	}
	m, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, afberrors.Wrap(afberrors.ErrInvalidFormat, ErrNotMapping,
			fmt.Sprintf("%s decodes to %T", name, raw))
	}
	return m, nil
}
