package output

import (
	"strings"
	"time"

	"stddevalert/internal/deviation"
)

// TimestampLayout renders RFC 3339 with a numeric offset, never "Z".
const TimestampLayout = "2006-01-02T15:04:05-07:00"

// Record is the single alert event produced by a run.
type Record struct {
	Timestamp   time.Time
	LogLevel    string
	TradingPair string
	Deviation   bool
	Data        deviation.Result
}

// NewRecord builds the run's record with the decision time rendered in loc.
func NewRecord(decidedAt time.Time, loc *time.Location, logLevel, pair string, triggered bool, result deviation.Result) Record {
	if loc == nil {
		loc = time.UTC
	}
	return Record{
		Timestamp:   decidedAt.In(loc).Truncate(time.Second),
		LogLevel:    strings.ToUpper(logLevel),
		TradingPair: strings.ToUpper(pair),
		Deviation:   triggered,
		Data:        result,
	}
}

// document is the wire shape shared by the json and yaml renderings.
type document struct {
	Timestamp   string       `json:"timestamp" yaml:"timestamp"`
	LogLevel    string       `json:"log_level" yaml:"log_level"`
	TradingPair string       `json:"trading_pair" yaml:"trading_pair"`
	Deviation   bool         `json:"deviation" yaml:"deviation"`
	Data        documentData `json:"data" yaml:"data"`
}

type documentData struct {
	LastPrice    float64 `json:"last_price" yaml:"last_price"`
	AveragePrice float64 `json:"average_price" yaml:"average_price"`
	StdDev       float64 `json:"stddev" yaml:"stddev"`
	Change       float64 `json:"change" yaml:"change"`
}

func (r Record) document() document {
	return document{
		Timestamp:   r.Timestamp.Format(TimestampLayout),
		LogLevel:    r.LogLevel,
		TradingPair: r.TradingPair,
		Deviation:   r.Deviation,
		Data: documentData{
			LastPrice:    r.Data.LastPrice.InexactFloat64(),
			AveragePrice: r.Data.AveragePrice.InexactFloat64(),
			StdDev:       r.Data.StdDev.InexactFloat64(),
			Change:       r.Data.Change.InexactFloat64(),
		},
	}
}
