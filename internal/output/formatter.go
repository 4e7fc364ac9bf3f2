package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"gopkg.in/yaml.v3"
)

// Format names an output encoding.
type Format string

// Supported output encodings.
const (
	FormatJSON       Format = "json"
	FormatYAML       Format = "yaml"
	FormatPrometheus Format = "prometheus"
)

// Formats lists every supported encoding, in help-text order.
var Formats = []Format{FormatJSON, FormatYAML, FormatPrometheus}

// ParseFormat normalises a user supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", &FormatError{Format: s}
}

// FormatError reports an unsupported output format.
type FormatError struct {
	Format string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("format %q: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("unsupported output format %q", e.Format)
}

func (e *FormatError) Unwrap() error { return e.Err }

const metricNamespace = "price_deviation"

// Render encodes the record in the requested format. Output never carries a
// trailing newline; the emitter adds one.
func Render(record Record, format Format) (string, error) {
	var (
		out string
		err error
	)
	switch format {
	case FormatJSON:
		out, err = renderJSON(record)
	case FormatYAML:
		out, err = renderYAML(record)
	case FormatPrometheus:
		out, err = renderPrometheus(record)
	default:
		return "", &FormatError{Format: string(format)}
	}
	if err != nil {
		return "", &FormatError{Format: string(format), Err: err}
	}
	return out, nil
}

func renderJSON(record Record) (string, error) {
	body, err := json.Marshal(record.document())
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func renderYAML(record Record) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(record.document()); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// renderPrometheus exposes the numeric fields as gauges labelled by trading pair.
func renderPrometheus(record Record) (string, error) {
	reg := prometheus.NewRegistry()

	gauges := []struct {
		name  string
		help  string
		value float64
	}{
		{"last_price", "Most recent price in the window.", record.Data.LastPrice.InexactFloat64()},
		{"average_price", "Arithmetic mean of prices in the window.", record.Data.AveragePrice.InexactFloat64()},
		{"stddev", "Sample standard deviation of prices in the window.", record.Data.StdDev.InexactFloat64()},
		{"change", "Last price minus the oldest price in the window.", record.Data.Change.InexactFloat64()},
	}

	for _, g := range gauges {
		vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Name:      g.name,
			Help:      g.help,
		}, []string{"trading_pair"})
		if err := reg.Register(vec); err != nil {
			return "", err
		}
		vec.WithLabelValues(record.TradingPair).Set(g.value)
	}

	families, err := reg.Gather()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return "", err
		}
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
