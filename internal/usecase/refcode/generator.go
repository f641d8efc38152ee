package refcode

import (
	"context"
	"fmt"
	"time"

	"procurement-backend/internal/domain/refcode"
)

const datePartLayout = "20060102"

// Generator formats reference codes as PREFIX-YYYYMMDD-NNN. The counter is
// zero-padded to three digits and simply widens past 999.
type Generator struct {
	loc *time.Location
}

// NewGenerator dates codes in loc; nil means UTC.
func NewGenerator(loc *time.Location) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{loc: loc}
}

func (g *Generator) DatePart(at time.Time) string { return at.In(g.loc).Format(datePartLayout) }

func (g *Generator) Next(ctx context.Context, seq refcode.Sequencer, prefix string, at time.Time) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("reference code: empty prefix")
	}
	date := g.DatePart(at)
	n, err := seq.Next(ctx, prefix, date)
	if err != nil {
		return "", fmt.Errorf("reference code %s/%s: %w", prefix, date, err)
	}
	return Format(prefix, date, n), nil
}

func Format(prefix, datePart string, n int64) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, datePart, n)
}
