package output

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Emitter writes formatted records to the primary stream. Status messages go
// to the logger only, so presence of primary output is the sole alert signal.
type Emitter struct {
	out    io.Writer
	logger zerolog.Logger
}

// NewEmitter constructs an emitter writing records to out.
func NewEmitter(out io.Writer, logger zerolog.Logger) *Emitter {
	return &Emitter{out: out, logger: logger.With().Str("component", "emitter").Logger()}
}

// Emit writes the record unless dryRun is set. It reports whether anything was written.
func (e *Emitter) Emit(formatted string, dryRun bool) (bool, error) {
	if dryRun {
		e.logger.Info().Msg("DRY_RUN - alert event suppressed")
		return false, nil
	}
	if _, err := fmt.Fprintln(e.out, formatted); err != nil {
		return false, fmt.Errorf("write alert record: %w", err)
	}
	e.logger.Info().Msg("alert event emitted")
	return true, nil
}
