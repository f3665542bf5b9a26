// Package output renders bus factor results and rate budgets for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/naka-gawa/github-busfactor/internal/domain"
)

// Format represents an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	switch normalized := strings.ToLower(strings.TrimSpace(value)); normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want table, json or yaml)", value)
	}
}

// Printer writes bus factor results as they arrive. Flush must be called once
// after the last result; formats that need the whole set render there.
type Printer interface {
	Print(result domain.BusFactor) error
	Flush() error
}

// NewPrinter returns a printer for the requested format writing to w.
func NewPrinter(format Format, w io.Writer) Printer {
	switch format {
	case FormatJSON:
		return &jsonPrinter{enc: json.NewEncoder(w)}
	case FormatYAML:
		return &yamlPrinter{w: w}
	default:
		return &tablePrinter{w: w}
	}
}

// jsonPrinter streams one JSON document per line.
type jsonPrinter struct {
	enc *json.Encoder
}

func (p *jsonPrinter) Print(result domain.BusFactor) error {
	return p.enc.Encode(result)
}

func (p *jsonPrinter) Flush() error { return nil }

type yamlPrinter struct {
	w       io.Writer
	results []domain.BusFactor
}

func (p *yamlPrinter) Print(result domain.BusFactor) error {
	p.results = append(p.results, result)
	return nil
}

func (p *yamlPrinter) Flush() error {
	results := p.results
	if results == nil {
		results = []domain.BusFactor{}
	}
	return encodeYAML(p.w, results)
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func newIndentedJSON(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc
}
