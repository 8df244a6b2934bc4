package order

import (
	"context"
	"fmt"
	"time"

	"github.com/kevin07696/order-service/internal/domain/ports"
	"github.com/kevin07696/order-service/pkg/timeutil"
)

// CodeGenerator produces PREFIX-YYYYMMDD-NNNN order codes. The sequence
// restarts at 0001 every day and widens past 9999 rather than wrapping.
type CodeGenerator struct {
	orders ports.OrderRepository
	clock  timeutil.Clock
	loc    *time.Location
	prefix string
}

// NewCodeGenerator creates a code generator dating codes in loc
func NewCodeGenerator(orders ports.OrderRepository, prefix string, loc *time.Location, clock timeutil.Clock) *CodeGenerator {
	if clock == nil {
		clock = timeutil.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CodeGenerator{orders: orders, prefix: prefix, loc: loc, clock: clock}
}

// DayPrefix returns the code prefix for t, e.g. "AC-20250314-"
func (g *CodeGenerator) DayPrefix(t time.Time) string {
	return fmt.Sprintf("%s-%s-", g.prefix, timeutil.DateStamp(t, g.loc))
}

// Next returns the next free code for today. It must run inside tx together
// with the insert that uses the code: the prefix lock queues concurrent
// creators and the unique constraint on code catches anything that slips past.
func (g *CodeGenerator) Next(ctx context.Context, tx ports.DBTX) (string, error) {
	prefix := g.DayPrefix(g.clock())
	if err := g.orders.LockCodePrefix(ctx, tx, prefix); err != nil {
		return "", err
	}
	max, err := g.orders.MaxSequence(ctx, tx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, max+1), nil
}
