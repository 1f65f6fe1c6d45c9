// Package report encodes comparison output and delivers it to a destination.
package report

import (
	"bytes"
	"encoding/json"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/schemadiff/internal/errs"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const indent = "    "

// ParseFormat accepts json, yaml and yml in any case. An empty string means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", errs.Newf(errs.ErrKindInvalidInput, "unknown report format %q", s)
	}
}

// Ext returns the file extension for f, without the dot.
func (f Format) Ext() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Encode renders v with every object key sorted at every depth. JSON uses a
// four-space indent and no trailing newline.
func Encode(v any, f Format) ([]byte, error) {
	tree, err := canonical(v)
	if err != nil {
		return nil, err
	}

	switch f {
	case FormatJSON, "":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", indent)
		if err := enc.Encode(tree); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to encode json report", err)
		}
		return bytes.TrimRight(buf.Bytes(), "\n"), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(len(indent))
		if err := enc.Encode(tree); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to encode yaml report", err)
		}
		if err := enc.Close(); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to encode yaml report", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unknown report format %q", f)
	}
}

// canonical round-trips v through JSON so struct fields become map keys and
// custom marshalers have run.
func canonical(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to marshal report", err)
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to normalize report", err)
	}
	return tree, nil
}
