package app

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"stddevalert/internal/deviation"
	"stddevalert/internal/market"
)

// Chart renders the current window as CSV and/or PNG.
func (a *App) Chart(ctx context.Context, opts ChartOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	f, err := a.newFetcher()
	if err != nil {
		return err
	}

	window, result, err := a.newService(f).Inspect(ctx, opts.Symbol)
	if err != nil {
		return err
	}

	a.Logger.Info().Str("symbol", opts.Symbol).Int("samples", len(window)).Msg("exporting price window")

	if opts.CSVPath != "" {
		if err := writeWindowCSV(opts.CSVPath, window, result); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.CSVPath).Msg("csv written")
	}

	if opts.PNGPath != "" {
		if err := writeWindowPNG(opts.PNGPath, opts.Symbol, window, result, a.Config.Chart.Width, a.Config.Chart.Height); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.PNGPath).Msg("png written")
	}

	return nil
}

func writeWindowCSV(path string, window market.Window, result deviation.Result) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{"timestamp", "price", "average_price", "stddev"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, sample := range window {
		record := []string{
			sample.Time.UTC().Format(time.RFC3339),
			sample.Price.String(),
			result.AveragePrice.String(),
			result.StdDev.String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeWindowPNG(path, symbol string, window market.Window, result deviation.Result, width, height int) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	mean := result.AveragePrice.InexactFloat64()
	stddev := result.StdDev.InexactFloat64()

	x := make([]time.Time, len(window))
	prices := make([]float64, len(window))
	avg := make([]float64, len(window))
	upper := make([]float64, len(window))
	lower := make([]float64, len(window))

	for i, sample := range window {
		x[i] = sample.Time
		prices[i] = sample.Price.InexactFloat64()
		avg[i] = mean
		upper[i] = mean + stddev
		lower[i] = mean - stddev
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}

	yAxis := chart.YAxis{
		Name:           "Price (" + symbol + ")",
		ValueFormatter: priceFormatter,
	}
	// go-chart refuses a zero-height range, which a flat window would produce.
	if stddev == 0 {
		yAxis.Range = &chart.ContinuousRange{Min: mean - 1, Max: mean + 1}
	}

	bandStyle := chart.Style{StrokeDashArray: []float64{5.0, 5.0}}
	graph := chart.Chart{
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeHourValueFormatter,
		},
		YAxis: yAxis,
		Series: []chart.Series{
			chart.TimeSeries{Name: "Price", XValues: x, YValues: prices},
			chart.TimeSeries{Name: "Mean", XValues: x, YValues: avg},
			chart.TimeSeries{Name: "+1σ", XValues: x, YValues: upper, Style: bandStyle},
			chart.TimeSeries{Name: "-1σ", XValues: x, YValues: lower, Style: bandStyle},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
