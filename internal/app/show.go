package app

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
)

// Show prints the current window and its statistics as a table.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	f, err := a.newFetcher()
	if err != nil {
		return err
	}

	window, result, err := a.newService(f).Inspect(ctx, opts.Symbol)
	if err != nil {
		return err
	}

	loc, err := a.Config.Location()
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(a.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Time (%s)\tPrice\tFrom Mean\n", loc.String())

	for _, sample := range window {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\n",
			sample.Time.In(loc).Format(time.RFC3339),
			formatDecimal(sample.Price, 2),
			formatDecimal(sample.Price.Sub(result.AveragePrice), 2),
		)
	}

	fmt.Fprintln(writer, strings.Repeat("-", 20)+"\t\t")
	fmt.Fprintf(writer, "Symbol\t%s\t\n", strings.ToUpper(opts.Symbol))
	fmt.Fprintf(writer, "Samples\t%d\t\n", result.Samples)
	fmt.Fprintf(writer, "Last\t%s\t\n", formatDecimal(result.LastPrice, 2))
	fmt.Fprintf(writer, "Average\t%s\t\n", formatDecimal(result.AveragePrice, 4))
	fmt.Fprintf(writer, "Stddev\t%s\t\n", formatDecimal(result.StdDev, 4))
	fmt.Fprintf(writer, "Change\t%s\t\n", formatDecimal(result.Change, 2))

	return writer.Flush()
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
